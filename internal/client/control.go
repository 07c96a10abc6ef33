package client

import (
	"fmt"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/dlnactl/internal/media"
	"github.com/tr1v3r/dlnactl/internal/monitoring"
	"github.com/tr1v3r/dlnactl/internal/upnp"
)

// SetTransportURI points the renderer at a resource to play next.
func (c *Client) SetTransportURI(r media.Server, uri string) error {
	return c.transportAction(r, upnp.ActionSetURI, uri)
}

// Play starts playback on the renderer.
func (c *Client) Play(r media.Server) error {
	if err := c.transportAction(r, upnp.ActionPlay, ""); err != nil {
		return err
	}
	c.playing = true
	return nil
}

// Pause pauses playback on the renderer.
func (c *Client) Pause(r media.Server) error {
	if err := c.transportAction(r, upnp.ActionPause, ""); err != nil {
		return err
	}
	c.playing = false
	return nil
}

// Stop halts playback on the renderer.
func (c *Client) Stop(r media.Server) error {
	if err := c.transportAction(r, upnp.ActionStop, ""); err != nil {
		return err
	}
	c.playing = false
	return nil
}

// transportAction posts one AVTransport command and checks the status
// line. The response body is not read beyond the header: success is the
// 200, fault details are out of scope.
func (c *Client) transportAction(r media.Server, a upnp.TransportAction, uri string) error {
	c.closeData()
	if err := c.conn.Connect(r.IP, r.Port, c.cfg.ConnectTimeout); err != nil {
		return err
	}
	defer c.conn.Close()

	monitoring.GetMetrics().RecordSOAPRequest()
	if err := c.conn.SendSoapPost(r.ControlURL, upnp.SOAPAction(a), upnp.ActionEnvelope(a, uri)); err != nil {
		monitoring.GetMetrics().RecordSOAPError()
		return err
	}
	h, err := c.conn.ReadHeader()
	if err != nil {
		monitoring.GetMetrics().RecordSOAPError()
		return err
	}
	if !h.OK {
		monitoring.GetMetrics().RecordSOAPError()
		return fmt.Errorf("%w: %s rejected by renderer", upnp.ErrProtocol, a.Name())
	}
	log.Info("transport action=%s renderer=%s:%d ok", a.Name(), r.IP, r.Port)
	return nil
}
