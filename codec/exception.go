package codec

import (
	"fmt"
	"strings"

	"github.com/Zereker/gridwire/protocol"
)

// ExceptionMessageType is the type of a response that reports a failure.
const ExceptionMessageType int32 = 0

// RemoteError is the exception chain a member sent back instead of a
// response. The first holder is the outermost error.
type RemoteError struct {
	Holders []ErrorHolder
}

func (e *RemoteError) Error() string {
	if len(e.Holders) == 0 {
		return "remote error"
	}
	var b strings.Builder
	for i, h := range e.Holders {
		if i > 0 {
			b.WriteString(": caused by ")
		}
		fmt.Fprintf(&b, "%s (code %d)", h.ClassName, h.ErrorCode)
		if h.Message != nil {
			b.WriteString(": ")
			b.WriteString(*h.Message)
		}
	}
	return b.String()
}

// EncodeErrors builds an exception response for the given chain.
func EncodeErrors(correlationID int64, holders []ErrorHolder) *protocol.Message {
	msg, _ := newResponse(ExceptionMessageType, 0)
	msg.SetCorrelationID(correlationID)
	EncodeList(msg, holders, EncodeErrorHolder)
	return msg
}

// DecodeErrors reads the exception chain of a message for which
// IsException reports true.
func DecodeErrors(msg *protocol.Message) (*RemoteError, error) {
	it, _, err := initialFrame(msg, ExceptionMessageType, protocol.ResponseInitialFrameSize)
	if err != nil {
		return nil, err
	}
	holders, err := DecodeList(it, DecodeErrorHolder)
	if err != nil {
		return nil, err
	}
	return &RemoteError{Holders: holders}, nil
}
