package transport

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/dlnactl/internal/upnp"
)

// headerLineMax bounds one response header line. Overflow is an error, the
// buffer never grows.
const headerLineMax = 1000

// Header is the digest of a parsed HTTP response header.
type Header struct {
	OK            bool // status line was HTTP/1.1 200
	ContentLength uint64
	HasLength     bool
	Chunked       bool
}

// Conn is the one-at-a-time HTTP connection of a session. Opening a new
// connection while one is open closes the old one first; there is no
// pooling. When the underlying stream shares a bus with other peripherals,
// every primitive runs inside the bus lock.
type Conn struct {
	stream Stream
	bus    *sync.Mutex // optional shared-bus guard, may be nil

	userAgent   string
	readTimeout time.Duration

	open bool
	host string
	port int
}

func NewConn(stream Stream, bus *sync.Mutex, userAgent string, readTimeout time.Duration) *Conn {
	return &Conn{stream: stream, bus: bus, userAgent: userAgent, readTimeout: readTimeout}
}

// guarded runs f holding the shared bus lock, released on every exit path.
func (c *Conn) guarded(f func() error) error {
	if c.bus != nil {
		c.bus.Lock()
		defer c.bus.Unlock()
	}
	return f()
}

// Connect opens the data connection, closing any previously open one.
func (c *Conn) Connect(host string, port int, timeout time.Duration) error {
	if c.open {
		c.Close()
	}
	err := c.guarded(func() error { return c.stream.Connect(host, port, timeout) })
	if err != nil {
		return err
	}
	c.open = true
	c.host = host
	c.port = port
	return nil
}

// Close shuts the data connection. Safe to call when already closed.
func (c *Conn) Close() {
	if !c.open {
		return
	}
	_ = c.guarded(func() error { return c.stream.Close() })
	c.open = false
}

// Open reports whether a data connection is currently established.
func (c *Conn) Open() bool { return c.open }

// Host returns the connected peer address.
func (c *Conn) Host() (string, int) { return c.host, c.port }

// SendGet writes a complete GET request in a single write.
func (c *Conn) SendGet(uri string) error {
	var b strings.Builder
	b.WriteString("GET " + uri + " HTTP/1.1\r\n")
	c.commonHeaders(&b)
	b.WriteString("\r\n")
	return c.send(b.String())
}

// SendSoapPost writes a complete SOAP POST in a single write. soapAction is
// the quoted SOAPAction header value.
func (c *Conn) SendSoapPost(uri, soapAction, body string) error {
	var b strings.Builder
	b.WriteString("POST " + uri + " HTTP/1.1\r\n")
	c.commonHeaders(&b)
	b.WriteString("Content-Type: text/xml; charset=\"utf-8\"\r\n")
	b.WriteString("SOAPAction: " + soapAction + "\r\n")
	b.WriteString("Content-Length: " + strconv.Itoa(len(body)) + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return c.send(b.String())
}

func (c *Conn) commonHeaders(b *strings.Builder) {
	b.WriteString("Host: " + c.host + ":" + strconv.Itoa(c.port) + "\r\n")
	b.WriteString("User-Agent: " + c.userAgent + "\r\n")
	b.WriteString("Connection: close\r\n")
}

// send performs exactly one write; a short write fails the whole request.
func (c *Conn) send(req string) error {
	if !c.open {
		return fmt.Errorf("%w: no open connection", upnp.ErrConnection)
	}
	log.Debug("transport send bytes=%d peer=%s:%d", len(req), c.host, c.port)
	var n int
	err := c.guarded(func() (err error) {
		n, err = c.stream.Write([]byte(req))
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: write: %v", upnp.ErrConnection, err)
	}
	if n != len(req) {
		return fmt.Errorf("%w: short write %d of %d", upnp.ErrConnection, n, len(req))
	}
	return nil
}

// ReadByte pulls a single body byte with the configured read timeout. It is
// the byte source the streaming decoder consumes.
func (c *Conn) ReadByte() (byte, error) {
	if !c.open {
		return 0, fmt.Errorf("%w: no open connection", upnp.ErrConnection)
	}
	var p [1]byte
	var n int
	err := c.guarded(func() (err error) {
		n, err = c.stream.Read(p[:], c.readTimeout)
		return err
	})
	if err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("%w: read: %v", upnp.ErrConnection, err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	return p[0], nil
}

// ReadHeader reads status and header lines until the blank line. The status
// must be HTTP/1.1 200 for OK; Content-Length is matched case-insensitively
// and Transfer-Encoding is checked for chunked. A header line longer than
// the fixed scratch buffer fails the response.
func (c *Conn) ReadHeader() (Header, error) {
	var h Header
	line := make([]byte, 0, headerLineMax)
	statusSeen := false
	for {
		line = line[:0]
		for {
			b, err := c.ReadByte()
			if err != nil {
				return h, fmt.Errorf("%w: header truncated: %v", upnp.ErrProtocol, err)
			}
			if b == '\n' {
				break
			}
			if b == '\r' {
				continue
			}
			if len(line) == headerLineMax {
				return h, fmt.Errorf("%w: header line over %d bytes", upnp.ErrBufferFull, headerLineMax)
			}
			line = append(line, b)
		}
		if len(line) == 0 {
			if !statusSeen {
				return h, fmt.Errorf("%w: empty response", upnp.ErrProtocol)
			}
			return h, nil
		}
		s := string(line)
		if !statusSeen {
			statusSeen = true
			h.OK = strings.HasPrefix(s, "HTTP/1.1 200")
			if !strings.HasPrefix(s, "HTTP/") {
				return h, fmt.Errorf("%w: bad status line %q", upnp.ErrProtocol, s)
			}
			continue
		}
		key, val, found := strings.Cut(s, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "content-length":
			if v, err := strconv.ParseUint(val, 10, 64); err == nil {
				h.ContentLength = v
				h.HasLength = true
			}
		case "transfer-encoding":
			if strings.Contains(strings.ToLower(val), "chunked") {
				h.Chunked = true
			}
		}
	}
}
