package protocol

import (
	"encoding/binary"
)

// ByteOrder is the byte order of every multi-byte value on the wire, both in
// frame headers and in frame content. It is fixed per deployment and must be
// set before the first frame is encoded or decoded.
var ByteOrder binary.ByteOrder = binary.BigEndian

// Frame header layout.
const (
	SizeOfLength              = 4
	SizeOfFlags               = 2
	SizeOfFrameLengthAndFlags = SizeOfLength + SizeOfFlags
)

// Frame is the smallest unit on the wire: a length and flags header followed
// by content bytes. Frames of one message form a singly-linked list.
type Frame struct {
	Content []byte
	Flags   Flags

	next *Frame
}

// NewFrame returns a frame carrying content. A nil content is an empty frame.
func NewFrame(content []byte, flags Flags) *Frame {
	if content == nil {
		content = []byte{}
	}
	return &Frame{Content: content, Flags: flags}
}

// NullFrame returns an empty frame marking a null value.
func NullFrame() *Frame {
	return NewFrame(nil, Null)
}

// BeginStructFrame returns an empty frame opening a nested structure.
func BeginStructFrame() *Frame {
	return NewFrame(nil, BeginStruct)
}

// EndStructFrame returns an empty frame closing a nested structure.
func EndStructFrame() *Frame {
	return NewFrame(nil, EndStruct)
}

// Length is the size of the frame on the wire, header included.
func (f *Frame) Length() int {
	return SizeOfFrameLengthAndFlags + len(f.Content)
}

// Next returns the following frame in the chain, or nil.
func (f *Frame) Next() *Frame {
	return f.next
}

func (f *Frame) IsNull() bool        { return f.Flags.Has(Null) }
func (f *Frame) IsBeginStruct() bool { return f.Flags.Has(BeginStruct) }
func (f *Frame) IsEndStruct() bool   { return f.Flags.Has(EndStruct) }
func (f *Frame) IsFinal() bool       { return f.Flags.Has(Final) }

// ShallowClone returns an unlinked frame sharing the content of f. Use it
// when neither copy will have its content mutated.
func (f *Frame) ShallowClone() *Frame {
	return &Frame{Content: f.Content, Flags: f.Flags}
}

// DeepClone returns an unlinked frame with its own copy of the content.
func (f *Frame) DeepClone() *Frame {
	content := make([]byte, len(f.Content))
	copy(content, f.Content)
	return &Frame{Content: content, Flags: f.Flags}
}

// WriteLengthAndFlags encodes the frame header into the first
// SizeOfFrameLengthAndFlags bytes of b.
func (f *Frame) WriteLengthAndFlags(b []byte) {
	ByteOrder.PutUint32(b, uint32(f.Length()))
	ByteOrder.PutUint16(b[SizeOfLength:], uint16(f.Flags))
}

// AppendLengthAndFlags appends the frame header to b.
func (f *Frame) AppendLengthAndFlags(b []byte) []byte {
	var hdr [SizeOfFrameLengthAndFlags]byte
	f.WriteLengthAndFlags(hdr[:])
	return append(b, hdr[:]...)
}

// ReadLength decodes the total frame length from the start of a header and
// returns the bytes that follow it.
func ReadLength(b []byte) (int, []byte) {
	return int(ByteOrder.Uint32(b)), b[SizeOfLength:]
}

// ReadFlags decodes the flags field from b and returns the bytes that
// follow it.
func ReadFlags(b []byte) (Flags, []byte) {
	return Flags(ByteOrder.Uint16(b)), b[SizeOfFlags:]
}

// ReadHeader decodes a complete frame header. b must hold at least
// SizeOfFrameLengthAndFlags bytes.
func ReadHeader(b []byte) (length int, flags Flags) {
	length, b = ReadLength(b)
	flags, _ = ReadFlags(b)
	return length, flags
}
