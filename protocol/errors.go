package protocol

import (
	"github.com/pkg/errors"
)

// Errors returned, or raised as panics for programming errors, by the
// frame and message primitives.
var (
	// ErrNilFrame is raised when an accessor is handed a nil frame.
	ErrNilFrame = errors.New("protocol: nil frame")
	// ErrNoFirstFrame is raised when a message-level field is accessed on a
	// message without frames.
	ErrNoFirstFrame = errors.New("protocol: message has no first frame")
	// ErrEmptyMessage is returned when a fragment is appended to a message
	// that has no frames yet.
	ErrEmptyMessage = errors.New("protocol: cannot append fragment to an empty message")
	// ErrBrokenChain is returned when the last frame of an appended fragment
	// is not the tail of the chain that starts at its first frame.
	ErrBrokenChain = errors.New("protocol: last frame is not reachable from first frame")
	// ErrUnexpectedEnd is returned when a message runs out of frames before
	// a decoder is done with it.
	ErrUnexpectedEnd = errors.New("protocol: unexpected end of message")
	// ErrMalformedFrame is returned when frame bytes cannot hold the value
	// being decoded.
	ErrMalformedFrame = errors.New("protocol: malformed frame")
)
