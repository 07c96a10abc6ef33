package decode

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tr1v3r/dlnactl/internal/upnp"
)

type stringSource struct {
	s string
	i int
}

func (s *stringSource) ReadByte() (byte, error) {
	if s.i >= len(s.s) {
		return 0, io.EOF
	}
	b := s.s[s.i]
	s.i++
	return b, nil
}

func drain(t *testing.T, d *Decoder) string {
	t.Helper()
	var out []byte
	for {
		b, err := d.Next()
		if err == io.EOF {
			return string(out)
		}
		require.NoError(t, err)
		out = append(out, b)
	}
}

// chunkify splits body into the given chunk sizes and wraps it in chunked
// transfer framing, serving as the reference encoder for round trips.
func chunkify(body string, sizes ...int) string {
	var b strings.Builder
	rest := body
	for _, n := range sizes {
		if n > len(rest) {
			n = len(rest)
		}
		fmt.Fprintf(&b, "%x\r\n%s\r\n", n, rest[:n])
		rest = rest[n:]
	}
	if rest != "" {
		fmt.Fprintf(&b, "%x\r\n%s\r\n", len(rest), rest)
	}
	b.WriteString("0\r\n\r\n")
	return b.String()
}

var escaper = strings.NewReplacer(
	"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;",
)

func TestChunkedHello(t *testing.T) {
	d := New(&stringSource{s: "5\r\nhello\r\n0\r\n\r\n"}, Options{Chunked: true})
	assert.Equal(t, "hello", drain(t, d))

	// Terminal state stays terminal.
	_, err := d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestChunkedMatchesUnchunked(t *testing.T) {
	body := "The quick brown fox jumps over the lazy dog, twice: the quick brown fox."
	for _, sizes := range [][]int{{1}, {7, 3, 30}, {len(body)}, {2, 2, 2, 2, 2}} {
		wire := chunkify(body, expand(sizes, len(body))...)
		d := New(&stringSource{s: wire}, Options{Chunked: true})
		assert.Equal(t, body, drain(t, d), "sizes=%v", sizes)
	}
}

// expand repeats the size pattern until it covers n bytes.
func expand(pattern []int, n int) []int {
	var out []int
	covered := 0
	for covered < n {
		for _, p := range pattern {
			out = append(out, p)
			covered += p
			if covered >= n {
				break
			}
		}
	}
	return out
}

func TestContentLengthBounds(t *testing.T) {
	d := New(&stringSource{s: "abcdef-and-trailing-garbage"}, Options{Length: 6, HasLength: true})
	assert.Equal(t, "abcdef", drain(t, d))
}

func TestUnboundedReadsToEOF(t *testing.T) {
	d := New(&stringSource{s: "abc"}, Options{})
	assert.Equal(t, "abc", drain(t, d))
}

func TestEntityRoundTrip(t *testing.T) {
	for _, plain := range []string{
		`a & b < c > d "e" 'f'`,
		"&&&",
		"no entities at all",
		"<tag attr=\"x&y\">",
	} {
		d := New(&stringSource{s: escaper.Replace(plain)}, Options{Entities: true})
		assert.Equal(t, plain, drain(t, d), "plain=%q", plain)
	}
}

func TestNumericEntity(t *testing.T) {
	d := New(&stringSource{s: "x&#65;y&#231;z"}, Options{Entities: true})
	assert.Equal(t, "xAy\xe7z", drain(t, d))
}

func TestMalformedEntityPassthrough(t *testing.T) {
	for _, s := range []string{
		"&unknown;",
		"&;",
		"&#x41;", // hex form is not supported, passes through
		"& lone ampersand",
		"trailing &amp",
		"&aaaaaaaaaaaaaaaaaaaaaa;", // longer than the lookahead
	} {
		d := New(&stringSource{s: s}, Options{Entities: true})
		assert.Equal(t, s, drain(t, d), "input=%q", s)
	}
}

func TestEntityAfterOverflowReplay(t *testing.T) {
	// The byte that overflows the lookahead is not lost, and a following
	// entity still decodes.
	in := "&aaaaaaaaaaaaaaaab&lt;end"
	d := New(&stringSource{s: in}, Options{Entities: true})
	assert.Equal(t, "&aaaaaaaaaaaaaaaab<end", drain(t, d))
}

func TestEntitySplitAcrossChunks(t *testing.T) {
	body := escaper.Replace(`<res size="1">x&y</res>`)
	// Split in the middle of &amp; tokens.
	wire := chunkify(body, 3)
	d := New(&stringSource{s: wire}, Options{Chunked: true, Entities: true})
	assert.Equal(t, `<res size="1">x&y</res>`, drain(t, d))
}

func TestBadChunkSyntax(t *testing.T) {
	for _, wire := range []string{
		"zz\r\nhello\r\n0\r\n\r\n", // non-hex size
		"\r\nhello",                // empty size line
		"5\nhello",                 // bare LF terminator
	} {
		d := New(&stringSource{s: wire}, Options{Chunked: true})
		_, err := d.Next()
		assert.ErrorIs(t, err, upnp.ErrProtocol, "wire=%q", wire)
	}
}

func TestChunkSizeLineTooLong(t *testing.T) {
	d := New(&stringSource{s: strings.Repeat("1", 20) + "\r\n"}, Options{Chunked: true})
	_, err := d.Next()
	assert.ErrorIs(t, err, upnp.ErrProtocol)
}

func TestReadDrains(t *testing.T) {
	d := New(&stringSource{s: "5\r\nhello\r\n5\r\nworld\r\n0\r\n\r\n"}, Options{Chunked: true})
	p := make([]byte, 64)
	n, err := d.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(p[:n]))
	_, err = d.Read(p)
	assert.Equal(t, io.EOF, err)
}
