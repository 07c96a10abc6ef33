package ssdp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tr1v3r/dlnactl/internal/upnp"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// fakePacket serves scripted datagrams, then times out.
type fakePacket struct {
	replies [][]byte
	i       int
	sent    [][]byte
	closed  bool
}

func (f *fakePacket) WriteTo(p []byte, addr string) error {
	cp := make([]byte, len(p))
	copy(cp, p)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakePacket) ReadFrom(p []byte, _ time.Duration) (int, string, error) {
	if f.i >= len(f.replies) {
		return 0, "", timeoutError{}
	}
	n := copy(p, f.replies[f.i])
	f.i++
	return n, "peer", nil
}

func (f *fakePacket) Close() error {
	f.closed = true
	return nil
}

const dmsReply = "HTTP/1.1 200 OK\r\n" +
	"CACHE-CONTROL: max-age=1800\r\n" +
	"LOCATION: http://192.168.1.50:8200/desc.xml\r\n" +
	"ST: urn:schemas-upnp-org:device:MediaServer:1\r\n" +
	"USN: uuid:1234::urn:schemas-upnp-org:device:MediaServer:1\r\n\r\n"

func TestSearchRequest(t *testing.T) {
	req := string(SearchRequest(upnp.DMS))
	assert.Contains(t, req, "M-SEARCH * HTTP/1.1\r\n")
	assert.Contains(t, req, "HOST: 239.255.255.250:1900\r\n")
	assert.Contains(t, req, "MAN: \"ssdp:discover\"\r\n")
	assert.Contains(t, req, "MX: 3\r\n")
	assert.Contains(t, req, "ST: urn:schemas-upnp-org:device:MediaServer:1\r\n")

	assert.Contains(t, string(SearchRequest(upnp.DMR)), "ST: urn:schemas-upnp-org:device:MediaRenderer:1\r\n")
}

func TestParseReply(t *testing.T) {
	r, ok := ParseReply(dmsReply)
	require.True(t, ok)
	assert.Equal(t, "192.168.1.50", r.IP)
	assert.Equal(t, 8200, r.Port)
	assert.Equal(t, "/desc.xml", r.Path)
	assert.Equal(t, "http://192.168.1.50:8200/desc.xml", r.Location)
}

func TestParseReplyDefaults(t *testing.T) {
	r, ok := ParseReply("HTTP/1.1 200 OK\r\nLocation: http://10.0.0.9/\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, 80, r.Port)
	assert.Equal(t, "/", r.Path)
}

func TestParseReplyRejects(t *testing.T) {
	for _, text := range []string{
		"NOTIFY * HTTP/1.1\r\nNT: upnp:rootdevice\r\n\r\n",
		"HTTP/1.1 200 OK\r\n\r\n",                           // no Location
		"HTTP/1.1 200 OK\r\nLocation: ftp://h/desc\r\n\r\n", // wrong scheme
		"HTTP/1.1 503 Unavailable\r\nLocation: http://h/\r\n\r\n",
	} {
		_, ok := ParseReply(text)
		assert.False(t, ok, "text=%q", text)
	}
}

func TestSearchDedupAndRepeats(t *testing.T) {
	other := "HTTP/1.1 200 OK\r\nLOCATION: http://192.168.1.60:8200/d.xml\r\n\r\n"
	fp := &fakePacket{replies: [][]byte{
		[]byte(dmsReply),
		[]byte(dmsReply), // duplicate (ip, port)
		[]byte("garbage datagram"),
		[]byte(other),
	}}
	replies, err := Search(fp, upnp.DMS, 200*time.Millisecond, 2)
	require.NoError(t, err)

	// 1 + repeats datagrams sent.
	assert.Len(t, fp.sent, 3)
	require.Len(t, replies, 2)
	assert.Equal(t, "192.168.1.50", replies[0].IP)
	assert.Equal(t, "192.168.1.60", replies[1].IP)
}
