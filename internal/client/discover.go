package client

import (
	"fmt"
	"io"
	"time"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/dlnactl/internal/decode"
	"github.com/tr1v3r/dlnactl/internal/media"
	"github.com/tr1v3r/dlnactl/internal/monitoring"
	"github.com/tr1v3r/dlnactl/internal/ssdp"
	"github.com/tr1v3r/dlnactl/internal/upnp"
)

// descMax bounds the device description scratch buffer. Descriptions are a
// few KiB in practice; anything past the cap fails that one server.
const descMax = 64 * 1024

// Discover multicasts an M-SEARCH for class and fetches the description of
// every new responder, appending usable peers to the server list. Returns
// the number of servers added this call; the list is cumulative until
// ClearServers. A single bad responder is skipped, never fatal.
func (c *Client) Discover(class upnp.ServiceClass, wait time.Duration, repeats int) (int, error) {
	pc, err := c.openPacket()
	if err != nil {
		return 0, err
	}
	defer pc.Close()

	monitoring.GetMetrics().RecordSearch()
	log.Info("discovery start class=%s wait=%s repeats=%d", class, wait, repeats)

	replies, err := ssdp.Search(pc, class, wait, repeats)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, r := range replies {
		if c.knownServer(r.IP, r.Port) {
			continue
		}
		srv, err := c.describe(r, class)
		if err != nil {
			log.Info("discovery skip server=%s:%d err=%v", r.IP, r.Port, err)
			continue
		}
		c.servers = append(c.servers, srv)
		monitoring.GetMetrics().RecordServerFound()
		log.Info("discovery server=%s:%d name=%q control=%s", srv.IP, srv.Port, srv.FriendlyName, srv.ControlURL)
		added++
	}
	return added, nil
}

func (c *Client) knownServer(ip string, port int) bool {
	for _, s := range c.servers {
		if s.IP == ip && s.Port == port {
			return true
		}
	}
	return false
}

// describe fetches and parses a responder's device description.
func (c *Client) describe(r ssdp.Reply, class upnp.ServiceClass) (media.Server, error) {
	c.closeData()
	if err := c.conn.Connect(r.IP, r.Port, c.cfg.ConnectTimeout); err != nil {
		return media.Server{}, err
	}
	defer c.conn.Close()

	if err := c.conn.SendGet(r.Path); err != nil {
		return media.Server{}, err
	}
	h, err := c.conn.ReadHeader()
	if err != nil {
		return media.Server{}, err
	}
	if !h.OK {
		return media.Server{}, fmt.Errorf("%w: description status not 200", upnp.ErrProtocol)
	}

	dec := decode.New(c.conn, decode.Options{
		Chunked:   h.Chunked,
		Length:    h.ContentLength,
		HasLength: h.HasLength,
		Entities:  true,
	})
	desc, err := readBounded(dec, descMax)
	if err != nil {
		return media.Server{}, err
	}

	name, ctl, err := upnp.ParseDescription(desc, class)
	if err != nil {
		return media.Server{}, err
	}
	if name == "" {
		name = r.IP
	}
	return media.Server{
		IP:           r.IP,
		Port:         r.Port,
		Location:     r.Location,
		FriendlyName: name,
		ControlURL:   ctl,
	}, nil
}

// readBounded drains a decoder into a fixed-capacity buffer.
func readBounded(dec *decode.Decoder, max int) (string, error) {
	buf := make([]byte, 0, 4096)
	for {
		b, err := dec.Next()
		if err == io.EOF {
			return string(buf), nil
		}
		if err != nil {
			return "", err
		}
		if len(buf) == max {
			return "", fmt.Errorf("%w: description over %d bytes", upnp.ErrBufferFull, max)
		}
		buf = append(buf, b)
	}
}
