package codec

import (
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedColumnType is returned for SQL column types this client
	// cannot decode.
	ErrUnsupportedColumnType = errors.New("codec: unsupported column type")

	// ErrUnexpectedMessageType is returned when a codec is handed a message
	// of another type.
	ErrUnexpectedMessageType = errors.New("codec: unexpected message type")
)
