// Package transport owns the single data connection of a session: dialing,
// HTTP request framing and response header parsing over a byte-oriented
// blocking socket.
package transport

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tr1v3r/dlnactl/internal/upnp"
)

// Stream is the blocking socket primitive the engine drives. It is an
// external collaborator: the default is plain TCP, tests supply scripted
// implementations.
type Stream interface {
	Connect(host string, port int, timeout time.Duration) error
	Write(p []byte) (int, error)
	// Read blocks up to timeout for at least one byte. io.EOF means the
	// peer closed the stream.
	Read(p []byte, timeout time.Duration) (int, error)
	Close() error
}

// TCPStream implements Stream over a net.Conn with deadline-based reads.
type TCPStream struct {
	conn net.Conn
}

func NewTCPStream() *TCPStream { return &TCPStream{} }

func (s *TCPStream) Connect(host string, port int, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return fmt.Errorf("%w: dial %s:%d: %v", upnp.ErrConnection, host, port, err)
	}
	s.conn = conn
	return nil
}

func (s *TCPStream) Write(p []byte) (int, error) {
	if s.conn == nil {
		return 0, fmt.Errorf("%w: not connected", upnp.ErrConnection)
	}
	return s.conn.Write(p)
}

func (s *TCPStream) Read(p []byte, timeout time.Duration) (int, error) {
	if s.conn == nil {
		return 0, fmt.Errorf("%w: not connected", upnp.ErrConnection)
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, fmt.Errorf("%w: %v", upnp.ErrConnection, err)
	}
	return s.conn.Read(p)
}

func (s *TCPStream) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
