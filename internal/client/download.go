package client

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/dlnactl/internal/decode"
	"github.com/tr1v3r/dlnactl/internal/media"
	"github.com/tr1v3r/dlnactl/internal/monitoring"
	"github.com/tr1v3r/dlnactl/internal/upnp"
)

// ReadStart opens the entry's resource for streaming. The returned size is
// the Content-Length; sized is false for chunked or unbounded bodies.
// Entity decoding stays off: the payload is binary.
func (c *Client) ReadStart(e *media.Entry) (size uint64, sized bool, err error) {
	if e.URI == "" {
		return 0, false, fmt.Errorf("%w: entry has no resource URI", upnp.ErrNotFound)
	}
	host, port := e.DownloadHost, e.DownloadPort
	if host == "" {
		return 0, false, fmt.Errorf("%w: entry has no download address", upnp.ErrNotFound)
	}

	c.closeData()
	if err := c.conn.Connect(host, port, c.cfg.ConnectTimeout); err != nil {
		return 0, false, err
	}
	if err := c.conn.SendGet(requestTarget(e.URI)); err != nil {
		c.closeData()
		return 0, false, err
	}
	h, err := c.conn.ReadHeader()
	if err != nil {
		c.closeData()
		return 0, false, err
	}
	if !h.OK {
		c.closeData()
		return 0, false, fmt.Errorf("%w: download status not 200", upnp.ErrProtocol)
	}

	c.dec = decode.New(c.conn, decode.Options{
		Chunked:   h.Chunked,
		Length:    h.ContentLength,
		HasLength: h.HasLength,
	})
	c.dataOpen = true
	c.sized = h.HasLength && !h.Chunked
	c.remaining = h.ContentLength
	log.Debug("download start uri=%s size=%d sized=%v chunked=%v", e.URI, h.ContentLength, c.sized, h.Chunked)
	return h.ContentLength, c.sized, nil
}

// Read pulls decoded body bytes into p. io.EOF marks the end of the
// resource; the connection stays open until ReadStop.
func (c *Client) Read(p []byte) (int, error) {
	if !c.dataOpen || c.dec == nil {
		return 0, fmt.Errorf("%w: no download in progress", upnp.ErrConnection)
	}
	n, err := c.dec.Read(p)
	if n > 0 {
		monitoring.GetMetrics().RecordDownloadedBytes(int64(n))
		if c.sized {
			if uint64(n) > c.remaining {
				c.remaining = 0
			} else {
				c.remaining -= uint64(n)
			}
		}
	}
	return n, err
}

// Available reports the remaining byte count of the open download; known
// is false when the body length is unbounded or chunked.
func (c *Client) Available() (remaining uint64, known bool) {
	if !c.dataOpen {
		return 0, false
	}
	return c.remaining, c.sized
}

// ReadStop closes the download connection and discards the decoder state.
// Idempotent.
func (c *Client) ReadStop() {
	if !c.dataOpen {
		return
	}
	log.Debug("download stop remaining=%d", c.remaining)
	c.closeData()
}

// requestTarget reduces a res URI to the request line target: absolute
// URLs keep only their path and query, relative paths get a leading slash.
func requestTarget(uri string) string {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		if u, err := url.Parse(uri); err == nil {
			if t := u.RequestURI(); t != "" {
				return t
			}
		}
	}
	if !strings.HasPrefix(uri, "/") {
		return "/" + uri
	}
	return uri
}

var _ io.Reader = (*Client)(nil)
