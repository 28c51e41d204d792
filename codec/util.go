package codec

import (
	"github.com/pkg/errors"

	"github.com/Zereker/gridwire/protocol"
)

// Entry is one key/value pair of an entry list.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Encoder appends the frames of one value to a message.
type Encoder[T any] func(msg *protocol.Message, v T)

// Decoder consumes the frames of one value from an iterator.
type Decoder[T any] func(it *protocol.FrameIterator) (T, error)

// takeFixed consumes the next frame and checks that it holds at least size
// bytes.
func takeFixed(it *protocol.FrameIterator, size int) (*protocol.Frame, error) {
	f, err := it.TakeFrame()
	if err != nil {
		return nil, err
	}
	if len(f.Content) < size {
		return nil, errors.Wrapf(protocol.ErrMalformedFrame, "frame holds %d bytes, want at least %d", len(f.Content), size)
	}
	return f, nil
}

// beginStruct consumes the frame that opens a nested structure.
func beginStruct(it *protocol.FrameIterator) error {
	f, err := it.TakeFrame()
	if err != nil {
		return err
	}
	if !f.IsBeginStruct() {
		return errors.Wrapf(protocol.ErrMalformedFrame, "expected begin struct, got %s", f.Flags)
	}
	return nil
}

// endStruct skips any fields this client does not know about and consumes
// the frame that closes the structure.
func endStruct(it *protocol.FrameIterator) error {
	return it.SkipToStructEnd()
}

// EncodeNullable appends a null frame for nil, or the frames of *v.
func EncodeNullable[T any](msg *protocol.Message, v *T, encode Encoder[T]) {
	if v == nil {
		msg.Append(protocol.NullFrame())
		return
	}
	encode(msg, *v)
}

// DecodeNullable consumes a null frame and returns nil, or decodes a value.
func DecodeNullable[T any](it *protocol.FrameIterator, decode Decoder[T]) (*T, error) {
	if it.SkipNull() {
		return nil, nil
	}
	v, err := decode(it)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Partition id of a request that may run on any member.
const anyPartition = -1

// newRequest starts a request whose first frame has room for extra bytes of
// fixed-size parameters after the request header.
func newRequest(messageType int32, extra int, retryable bool, operation string) (*protocol.Message, []byte) {
	f := protocol.NewFrame(make([]byte, protocol.RequestInitialFrameSize+extra), protocol.Unfragmented)
	msg := protocol.NewMessageWithFrame(f)
	msg.SetMessageType(messageType)
	msg.SetPartitionID(anyPartition)
	msg.Retryable = retryable
	msg.OperationName = operation
	return msg, f.Content
}

// newResponse starts a response whose first frame has room for extra bytes
// after the backup-acks field.
func newResponse(messageType int32, extra int) (*protocol.Message, []byte) {
	f := protocol.NewFrame(make([]byte, protocol.ResponseInitialFrameSize+extra), protocol.Unfragmented)
	msg := protocol.NewMessageWithFrame(f)
	msg.SetMessageType(messageType)
	return msg, f.Content
}

// newEvent starts an event message.
func newEvent(messageType int32, extra int) (*protocol.Message, []byte) {
	f := protocol.NewFrame(make([]byte, protocol.EventInitialFrameSize+extra), protocol.Unfragmented|protocol.Event)
	msg := protocol.NewMessageWithFrame(f)
	msg.SetMessageType(messageType)
	msg.SetPartitionID(anyPartition)
	return msg, f.Content
}

// initialFrame checks the message type and consumes the first frame of msg,
// which must hold at least size bytes. The returned iterator is positioned
// at the first variable-size field.
func initialFrame(msg *protocol.Message, messageType int32, size int) (*protocol.FrameIterator, []byte, error) {
	it := msg.Frames()
	f, err := takeFixed(it, size)
	if err != nil {
		return nil, nil, err
	}
	if got := protocol.ReadMessageType(f); got != messageType {
		return nil, nil, errors.Wrapf(ErrUnexpectedMessageType, "got 0x%06X, want 0x%06X", got, messageType)
	}
	return it, f.Content, nil
}
