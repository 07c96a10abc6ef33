package upnp

import "errors"

// Error kinds surfaced by the protocol engine. Wrap with fmt.Errorf("...: %w")
// and classify with errors.Is.
var (
	// ErrConnection covers dial, write and read failures including timeouts.
	ErrConnection = errors.New("connection failed")
	// ErrProtocol covers malformed status lines, bad chunk framing and
	// other wire-format violations that terminate the current stream.
	ErrProtocol = errors.New("protocol violation")
	// ErrNotFound is returned when a service block, attribute or server
	// index does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBufferFull means a fixed-capacity scratch buffer overflowed.
	// The bounds are a memory contract, not a limit to grow past.
	ErrBufferFull = errors.New("scratch buffer exhausted")
)
