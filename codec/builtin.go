package codec

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/Zereker/gridwire/protocol"
)

// Data is a value already serialized by the caller. The codec layer moves
// it as an opaque byte blob.
type Data []byte

// EncodeString appends one frame holding the UTF-8 bytes of s.
func EncodeString(msg *protocol.Message, s string) {
	msg.Append(protocol.NewFrame([]byte(s), protocol.DefaultFlags))
}

// DecodeString consumes one frame as a UTF-8 string.
func DecodeString(it *protocol.FrameIterator) (string, error) {
	f, err := it.TakeFrame()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(f.Content) {
		return "", errors.Wrap(protocol.ErrMalformedFrame, "string is not valid UTF-8")
	}
	return string(f.Content), nil
}

func EncodeNullableString(msg *protocol.Message, s *string) {
	EncodeNullable(msg, s, EncodeString)
}

func DecodeNullableString(it *protocol.FrameIterator) (*string, error) {
	return DecodeNullable(it, DecodeString)
}

// EncodeByteArray appends one frame holding b.
func EncodeByteArray(msg *protocol.Message, b []byte) {
	msg.Append(protocol.NewFrame(b, protocol.DefaultFlags))
}

// DecodeByteArray consumes one frame. The returned slice aliases the frame.
func DecodeByteArray(it *protocol.FrameIterator) ([]byte, error) {
	f, err := it.TakeFrame()
	if err != nil {
		return nil, err
	}
	return f.Content, nil
}

func EncodeData(msg *protocol.Message, d Data) {
	EncodeByteArray(msg, d)
}

func DecodeData(it *protocol.FrameIterator) (Data, error) {
	b, err := DecodeByteArray(it)
	return Data(b), err
}

// EncodeNullableData treats a nil Data as null.
func EncodeNullableData(msg *protocol.Message, d Data) {
	if d == nil {
		msg.Append(protocol.NullFrame())
		return
	}
	EncodeData(msg, d)
}

// DecodeNullableData returns nil for a null frame.
func DecodeNullableData(it *protocol.FrameIterator) (Data, error) {
	if it.SkipNull() {
		return nil, nil
	}
	return DecodeData(it)
}

// EncodeInt64Frame appends one frame holding a single int64.
func EncodeInt64Frame(msg *protocol.Message, v int64) {
	buf := make([]byte, LongSize)
	EncodeInt64(buf, 0, v)
	msg.Append(protocol.NewFrame(buf, protocol.DefaultFlags))
}

func DecodeInt64Frame(it *protocol.FrameIterator) (int64, error) {
	f, err := takeFixed(it, LongSize)
	if err != nil {
		return 0, err
	}
	return DecodeInt64(f.Content, 0), nil
}
