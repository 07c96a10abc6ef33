// Package decode implements the pull decoder layered over the raw data
// connection: it unwraps HTTP chunked transfer framing and, when enabled,
// replaces XML character entities, one byte per call, without ever holding
// the response body in memory.
package decode

import (
	"fmt"
	"io"

	"github.com/tr1v3r/dlnactl/internal/upnp"
)

// ByteSource supplies one raw byte at a time from the open connection.
// io.EOF marks the peer closing the stream.
type ByteSource interface {
	ReadByte() (byte, error)
}

// Options select the framing and decoding behavior for one response body.
type Options struct {
	Chunked   bool   // Transfer-Encoding: chunked
	Length    uint64 // Content-Length, when HasLength
	HasLength bool
	Entities  bool // decode XML character entities
}

// lookahead fits the longest entity token that can still resolve,
// including numeric &#NNN; forms.
const lookahead = 15

// chunkLineMax bounds the chunk-size line; 16 hex digits already cover any
// 64-bit length.
const chunkLineMax = 16

type entityState int

const (
	statePassthrough entityState = iota
	stateAmpDetected
	stateReplaying
)

// Decoder owns all cross-call state of one response body. It is bound to a
// single connection: create a fresh one per connection, never reuse.
type Decoder struct {
	src ByteSource

	chunked   bool
	entities  bool
	remaining uint64 // content-length countdown
	hasLength bool
	chunkLeft uint64 // bytes left in the current chunk
	first     bool   // no CRLF precedes the first chunk-size line
	done      bool

	state      entityState
	buf        [lookahead]byte
	bufN       int
	replayPos  int
	pending    byte // byte that arrived while the lookahead was full
	hasPending bool
}

func New(src ByteSource, o Options) *Decoder {
	return &Decoder{
		src:       src,
		chunked:   o.Chunked,
		entities:  o.Entities,
		remaining: o.Length,
		hasLength: o.HasLength && !o.Chunked,
		first:     true,
	}
}

// Next returns the next decoded byte. io.EOF marks the logical end of the
// body (terminal chunk, content length exhausted, or peer close in
// unbounded mode).
func (d *Decoder) Next() (byte, error) {
	for {
		if d.state == stateReplaying {
			b := d.buf[d.replayPos]
			d.replayPos++
			if d.replayPos == d.bufN {
				d.bufN = 0
				d.replayPos = 0
				d.state = statePassthrough
			}
			return b, nil
		}

		var b byte
		var err error
		if d.hasPending {
			// Byte that arrived while the lookahead was full, held back
			// until its replay finished.
			b, d.hasPending = d.pending, false
		} else {
			b, err = d.rawByte()
		}
		if err != nil {
			if err == io.EOF && d.bufN > 0 {
				// Flush an unresolved entity buffer as literal text.
				d.state = stateReplaying
				d.replayPos = 0
				continue
			}
			return 0, err
		}
		if !d.entities {
			return b, nil
		}
		if c, emit := d.feed(b); emit {
			return c, nil
		}
	}
}

// Read drains decoded bytes into p, making the decoder usable as an
// io.Reader for binary downloads.
func (d *Decoder) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, err := d.Next()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

// feed runs one raw byte through the entity state machine. The second
// return value is false while output is suspended (byte buffered, or a
// replay just started).
func (d *Decoder) feed(b byte) (byte, bool) {
	if d.bufN == 0 {
		if b == '&' {
			d.buf[0] = b
			d.bufN = 1
			d.state = stateAmpDetected
			return 0, false
		}
		return b, true
	}

	if d.bufN == lookahead {
		// No entity this long; replay the buffer, then this byte.
		d.pending = b
		d.hasPending = true
		d.state = stateReplaying
		d.replayPos = 0
		return 0, false
	}

	d.buf[d.bufN] = b
	d.bufN++

	if b != ';' {
		return 0, false
	}
	if c, ok := entityByte(d.buf[:d.bufN]); ok {
		d.bufN = 0
		d.state = statePassthrough
		return c, true
	}
	// Terminated but unrecognized: pass the literal text through.
	d.state = stateReplaying
	d.replayPos = 0
	return 0, false
}

// entityByte resolves a complete &...; token to its one-byte replacement.
func entityByte(tok []byte) (byte, bool) {
	switch string(tok) {
	case "&amp;":
		return '&', true
	case "&lt;":
		return '<', true
	case "&gt;":
		return '>', true
	case "&quot;":
		return '"', true
	case "&apos;":
		return '\'', true
	}
	if len(tok) > 3 && tok[1] == '#' {
		var v uint32
		for _, c := range tok[2 : len(tok)-1] {
			if c < '0' || c > '9' {
				return 0, false
			}
			v = v*10 + uint32(c-'0')
		}
		// Codepoints above one byte are truncated.
		return byte(v), true
	}
	return 0, false
}

// rawByte reads one body byte honoring the chunk or content-length framing.
func (d *Decoder) rawByte() (byte, error) {
	if d.done {
		return 0, io.EOF
	}
	if d.chunked {
		if d.chunkLeft == 0 {
			if err := d.nextChunk(); err != nil {
				return 0, err
			}
			if d.done {
				return 0, io.EOF
			}
		}
		b, err := d.src.ReadByte()
		if err != nil {
			return 0, err
		}
		d.chunkLeft--
		return b, nil
	}
	if d.hasLength {
		if d.remaining == 0 {
			d.done = true
			return 0, io.EOF
		}
		b, err := d.src.ReadByte()
		if err != nil {
			return 0, err
		}
		d.remaining--
		return b, nil
	}
	// Unbounded: body runs until the peer closes.
	return d.src.ReadByte()
}

// nextChunk parses one hex chunk-size line. A zero size is the terminal
// chunk: its trailing blank line is consumed and the stream ends.
func (d *Decoder) nextChunk() error {
	if !d.first {
		if err := d.expectCRLF(); err != nil {
			return err
		}
	}
	d.first = false

	var size uint64
	digits := 0
	for {
		b, err := d.src.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: chunk size line truncated: %v", upnp.ErrProtocol, err)
		}
		if b == '\r' {
			break
		}
		v, ok := hexVal(b)
		if !ok {
			return fmt.Errorf("%w: bad chunk size byte %q", upnp.ErrProtocol, b)
		}
		if digits == chunkLineMax {
			return fmt.Errorf("%w: chunk size line too long", upnp.ErrProtocol)
		}
		size = size<<4 | uint64(v)
		digits++
	}
	if digits == 0 {
		return fmt.Errorf("%w: empty chunk size line", upnp.ErrProtocol)
	}
	if b, err := d.src.ReadByte(); err != nil || b != '\n' {
		return fmt.Errorf("%w: chunk size line not CRLF terminated", upnp.ErrProtocol)
	}
	if size == 0 {
		if err := d.expectCRLF(); err != nil {
			return err
		}
		d.done = true
		return nil
	}
	d.chunkLeft = size
	return nil
}

func (d *Decoder) expectCRLF() error {
	cr, err := d.src.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: chunk framing truncated: %v", upnp.ErrProtocol, err)
	}
	lf, err := d.src.ReadByte()
	if err != nil || cr != '\r' || lf != '\n' {
		return fmt.Errorf("%w: chunk framing expects CRLF", upnp.ErrProtocol)
	}
	return nil
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
