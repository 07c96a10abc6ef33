// Package client is the session facade of the control point: it owns the
// server list, the single data connection and the decoder bound to it, and
// composes discovery, browsing, download streaming and transport control.
package client

import (
	"fmt"
	"sync"

	"github.com/tr1v3r/dlnactl/internal/config"
	"github.com/tr1v3r/dlnactl/internal/decode"
	"github.com/tr1v3r/dlnactl/internal/media"
	"github.com/tr1v3r/dlnactl/internal/ssdp"
	"github.com/tr1v3r/dlnactl/internal/transport"
	"github.com/tr1v3r/dlnactl/internal/upnp"
)

// Client drives the whole pipeline. It is single-threaded: every call
// blocks up to its socket timeouts, and at most one data connection is
// open at a time.
type Client struct {
	cfg config.Config

	stream     transport.Stream
	bus        *sync.Mutex
	openPacket func() (ssdp.PacketConn, error)
	conn       *transport.Conn

	servers []media.Server

	// download state, valid only between ReadStart and ReadStop
	dec       *decode.Decoder
	dataOpen  bool
	remaining uint64
	sized     bool

	playing bool
}

type Option func(*Client)

// WithStream replaces the default TCP stream, e.g. with a scripted one in
// tests or an SPI-backed socket on embedded targets.
func WithStream(s transport.Stream) Option {
	return func(c *Client) { c.stream = s }
}

// WithBusLock guards every stream primitive with mu, for transports that
// share a bus with other peripherals.
func WithBusLock(mu *sync.Mutex) Option {
	return func(c *Client) { c.bus = mu }
}

// WithPacketOpener replaces the default UDP socket factory used by Discover.
func WithPacketOpener(f func() (ssdp.PacketConn, error)) Option {
	return func(c *Client) { c.openPacket = f }
}

func New(cfg config.Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		stream:     transport.NewTCPStream(),
		openPacket: func() (ssdp.PacketConn, error) { return ssdp.Open() },
	}
	for _, o := range opts {
		o(c)
	}
	c.conn = transport.NewConn(c.stream, c.bus, cfg.UserAgent, cfg.ReadTimeout)
	return c
}

// Servers returns a snapshot of the cumulative server list.
func (c *Client) Servers() []media.Server {
	out := make([]media.Server, len(c.servers))
	copy(out, c.servers)
	return out
}

func (c *Client) ServerCount() int { return len(c.servers) }

// ServerInfo returns the server at index i.
func (c *Client) ServerInfo(i int) (media.Server, error) {
	if i < 0 || i >= len(c.servers) {
		return media.Server{}, fmt.Errorf("%w: server index %d", upnp.ErrNotFound, i)
	}
	return c.servers[i], nil
}

// AddServer registers a server manually, bypassing discovery.
func (c *Client) AddServer(ip string, port int, controlURL, name string) {
	if name == "" {
		name = "My Media Server"
	}
	c.servers = append(c.servers, media.Server{
		IP:           ip,
		Port:         port,
		FriendlyName: name,
		ControlURL:   controlURL,
	})
}

// ClearServers empties the server list.
func (c *Client) ClearServers() { c.servers = nil }

// closeData tears down the data connection and the decoder bound to it.
// Decoder state never outlives its connection.
func (c *Client) closeData() {
	c.dec = nil
	c.dataOpen = false
	c.remaining = 0
	c.sized = false
	c.conn.Close()
}

// IsPlaying reflects the transport commands this session has issued. The
// renderer's actual state is never queried; a command sent by another
// control point is invisible here.
func (c *Client) IsPlaying() bool { return c.playing }
