package client

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/dlnactl/internal/decode"
	"github.com/tr1v3r/dlnactl/internal/didl"
	"github.com/tr1v3r/dlnactl/internal/media"
	"github.com/tr1v3r/dlnactl/internal/monitoring"
	"github.com/tr1v3r/dlnactl/internal/upnp"
)

// elemMax bounds one captured DIDL element. An element past the cap is
// dropped and scanning resumes with the next one.
const elemMax = 8 * 1024

// tailMax is how much stream tail is kept while seeking the next element
// start; it only needs to cover the longest start/stop token.
const tailMax = 24

// Browse lists the direct children of objectID on the server at index srv,
// in server document order. count is capped by the configured browse
// maximum; entries the scanner cannot identify are skipped.
func (c *Client) Browse(srv int, objectID string, start uint32, count int) ([]media.Entry, error) {
	s, err := c.ServerInfo(srv)
	if err != nil {
		return nil, err
	}
	if count < 1 || count > c.cfg.BrowseMaxCount {
		count = c.cfg.BrowseMaxCount
	}

	c.closeData()
	if err := c.conn.Connect(s.IP, s.Port, c.cfg.ConnectTimeout); err != nil {
		return nil, err
	}
	defer c.conn.Close()

	monitoring.GetMetrics().RecordSOAPRequest()
	body := upnp.BrowseEnvelope(objectID, start, uint32(count))
	if err := c.conn.SendSoapPost(s.ControlURL, upnp.SOAPActionBrowse, body); err != nil {
		monitoring.GetMetrics().RecordSOAPError()
		return nil, err
	}
	h, err := c.conn.ReadHeader()
	if err != nil {
		monitoring.GetMetrics().RecordSOAPError()
		return nil, err
	}
	if !h.OK {
		monitoring.GetMetrics().RecordSOAPError()
		return nil, fmt.Errorf("%w: browse rejected by server", upnp.ErrProtocol)
	}

	// Entity decoding on: the DIDL payload arrives escaped inside the SOAP
	// <Result> element and is consumed here as plain XML.
	dec := decode.New(c.conn, decode.Options{
		Chunked:   h.Chunked,
		Length:    h.ContentLength,
		HasLength: h.HasLength,
		Entities:  true,
	})

	entries, err := scanEntries(dec, s, count)
	if err != nil {
		monitoring.GetMetrics().RecordProtocolError()
		return entries, err
	}
	log.Info("browse server=%s:%d object=%q entries=%d", s.IP, s.Port, objectID, len(entries))
	return entries, nil
}

// scanEntries walks the decoded stream for <container> and <item> element
// boundaries and feeds each complete element to the DIDL scanner. It stops
// at </DIDL-Lite>, end of stream, or once count entries are collected.
func scanEntries(dec *decode.Decoder, s media.Server, count int) ([]media.Entry, error) {
	var entries []media.Entry
	var tail []byte
	var elem []byte
	capturing := ""

	for len(entries) < count {
		b, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, err
		}

		if capturing == "" {
			tail = append(tail, b)
			if len(tail) > tailMax {
				tail = tail[len(tail)-tailMax:]
			}
			switch {
			case bytes.HasSuffix(tail, []byte("<container")):
				capturing = "container"
			case bytes.HasSuffix(tail, []byte("<item")):
				capturing = "item"
			case bytes.HasSuffix(tail, []byte("</DIDL-Lite>")):
				return entries, nil
			}
			if capturing != "" {
				elem = append(elem[:0], "<"+capturing...)
				tail = tail[:0]
			}
			continue
		}

		if len(elem) == elemMax {
			log.Info("browse element over %d bytes, dropped", elemMax)
			capturing = ""
			continue
		}
		elem = append(elem, b)
		if !bytes.HasSuffix(elem, []byte("</"+capturing+">")) {
			continue
		}

		frag := string(elem)
		var e media.Entry
		var ok bool
		if capturing == "container" {
			e, ok = didl.ScanContainer(frag)
		} else {
			e, ok = didl.ScanItem(frag, s.IP, s.Port)
		}
		if ok {
			entries = append(entries, e)
		} else {
			log.Info("browse entry without id skipped fragment=%q", clip(frag, 120))
		}
		capturing = ""
	}
	return entries, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
