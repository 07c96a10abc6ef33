// Package ssdp implements the client half of SSDP discovery: multicast
// M-SEARCH queries and unicast reply collection.
package ssdp

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/dlnactl/internal/upnp"
)

const (
	MulticastAddr = "239.255.255.250:1900"

	replyBufSize = 2048
)

// PacketConn is the UDP collaborator the discovery engine drives. The
// default is a plain UDP socket; tests supply scripted implementations.
type PacketConn interface {
	WriteTo(p []byte, addr string) error
	// ReadFrom blocks up to timeout for one datagram.
	ReadFrom(p []byte, timeout time.Duration) (n int, from string, err error)
	Close() error
}

// UDPConn is the default PacketConn over an ephemeral UDP port. Unicast
// replies to an M-SEARCH come back to the sending socket.
type UDPConn struct {
	conn *net.UDPConn
}

func Open() (*UDPConn, error) {
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: udp listen: %v", upnp.ErrConnection, err)
	}
	return &UDPConn{conn: conn}, nil
}

func (u *UDPConn) WriteTo(p []byte, addr string) error {
	dst, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", upnp.ErrConnection, addr, err)
	}
	if _, err := u.conn.WriteToUDP(p, dst); err != nil {
		return fmt.Errorf("%w: udp send: %v", upnp.ErrConnection, err)
	}
	return nil
}

func (u *UDPConn) ReadFrom(p []byte, timeout time.Duration) (int, string, error) {
	if err := u.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, "", err
	}
	n, from, err := u.conn.ReadFromUDP(p)
	if err != nil {
		return 0, "", err
	}
	return n, from.String(), nil
}

func (u *UDPConn) Close() error { return u.conn.Close() }

// Reply is one parsed M-SEARCH response.
type Reply struct {
	IP       string
	Port     int
	Path     string // description path on the peer
	Location string // full Location header value
	USN      string
}

// SearchRequest builds the M-SEARCH datagram for a service class.
func SearchRequest(class upnp.ServiceClass) []byte {
	return []byte(fmt.Sprintf(
		"M-SEARCH * HTTP/1.1\r\nHOST: %s\r\nMAN: \"ssdp:discover\"\r\nMX: 3\r\nST: %s\r\n\r\n",
		MulticastAddr, class.DeviceURN()))
}

// Search multicasts the query (1+repeats datagrams against packet loss) and
// collects unicast replies until wait elapses. Replies from an already-seen
// (ip, port) are dropped; malformed replies are skipped.
func Search(conn PacketConn, class upnp.ServiceClass, wait time.Duration, repeats int) ([]Reply, error) {
	req := SearchRequest(class)
	for i := 0; i <= repeats; i++ {
		if err := conn.WriteTo(req, MulticastAddr); err != nil {
			return nil, err
		}
	}

	var replies []Reply
	seen := make(map[string]struct{})
	buf := make([]byte, replyBufSize)
	deadline := time.Now().Add(wait)
	for {
		remain := time.Until(deadline)
		if remain <= 0 {
			break
		}
		n, from, err := conn.ReadFrom(buf, remain)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break
			}
			log.Debug("ssdp read error from=%s err=%v", from, err)
			continue
		}
		r, ok := ParseReply(string(buf[:n]))
		if !ok {
			log.Debug("ssdp reply unparsable from=%s", from)
			continue
		}
		key := r.IP + ":" + strconv.Itoa(r.Port)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		replies = append(replies, r)
		log.Debug("ssdp reply server=%s location=%s", key, r.Location)
	}
	return replies, nil
}

// ParseReply extracts the Location target of one search response.
func ParseReply(text string) (Reply, bool) {
	if !strings.HasPrefix(text, "HTTP/1.1 200") {
		return Reply{}, false
	}
	loc := headerValue(text, "LOCATION")
	if loc == "" {
		return Reply{}, false
	}
	u, err := url.Parse(loc)
	if err != nil || u.Scheme != "http" || u.Hostname() == "" {
		return Reply{}, false
	}
	port := 80
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	path := u.RequestURI()
	if path == "" {
		path = "/"
	}
	return Reply{
		IP:       u.Hostname(),
		Port:     port,
		Path:     path,
		Location: loc,
		USN:      headerValue(text, "USN"),
	}, true
}

func headerValue(raw, key string) string {
	lines := strings.Split(raw, "\r\n")
	key = strings.ToUpper(key)
	for _, ln := range lines {
		if i := strings.IndexByte(ln, ':'); i > 0 {
			k := strings.ToUpper(strings.TrimSpace(ln[:i]))
			if k == key {
				return strings.TrimSpace(ln[i+1:])
			}
		}
	}
	return ""
}
