// Package codec maps typed values to and from the frames of a
// protocol.Message.
//
// Codecs are positional. Every Encode appends frames to a message under
// construction and the matching Decode consumes exactly those frames, in the
// same order, from a shared protocol.FrameIterator. Nothing on the wire
// names a field, so the order in which a message codec calls these functions
// is part of the protocol.
package codec

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"

	"github.com/Zereker/gridwire/protocol"
)

// Sizes of the fixed-width values, re-exported for codec authors.
const (
	ByteSize    = protocol.ByteSizeInBytes
	BooleanSize = protocol.BooleanSizeInBytes
	ShortSize   = protocol.ShortSizeInBytes
	IntSize     = protocol.IntSizeInBytes
	LongSize    = protocol.LongSizeInBytes
	FloatSize   = protocol.FloatSizeInBytes
	DoubleSize  = protocol.DoubleSizeInBytes
	UUIDSize    = protocol.UUIDSizeInBytes
)

func EncodeByte(buf []byte, offset int, v byte) {
	buf[offset] = v
}

func DecodeByte(buf []byte, offset int) byte {
	return buf[offset]
}

func EncodeInt8(buf []byte, offset int, v int8) {
	buf[offset] = byte(v)
}

func DecodeInt8(buf []byte, offset int) int8 {
	return int8(buf[offset])
}

func EncodeBool(buf []byte, offset int, v bool) {
	if v {
		buf[offset] = 1
	} else {
		buf[offset] = 0
	}
}

func DecodeBool(buf []byte, offset int) bool {
	return buf[offset] != 0
}

func EncodeInt16(buf []byte, offset int, v int16) {
	protocol.ByteOrder.PutUint16(buf[offset:], uint16(v))
}

func DecodeInt16(buf []byte, offset int) int16 {
	return int16(protocol.ByteOrder.Uint16(buf[offset:]))
}

func EncodeInt32(buf []byte, offset int, v int32) {
	protocol.ByteOrder.PutUint32(buf[offset:], uint32(v))
}

func DecodeInt32(buf []byte, offset int) int32 {
	return int32(protocol.ByteOrder.Uint32(buf[offset:]))
}

func EncodeInt64(buf []byte, offset int, v int64) {
	protocol.ByteOrder.PutUint64(buf[offset:], uint64(v))
}

func DecodeInt64(buf []byte, offset int) int64 {
	return int64(protocol.ByteOrder.Uint64(buf[offset:]))
}

func EncodeFloat32(buf []byte, offset int, v float32) {
	protocol.ByteOrder.PutUint32(buf[offset:], math.Float32bits(v))
}

func DecodeFloat32(buf []byte, offset int) float32 {
	return math.Float32frombits(protocol.ByteOrder.Uint32(buf[offset:]))
}

func EncodeFloat64(buf []byte, offset int, v float64) {
	protocol.ByteOrder.PutUint64(buf[offset:], math.Float64bits(v))
}

func DecodeFloat64(buf []byte, offset int) float64 {
	return math.Float64frombits(protocol.ByteOrder.Uint64(buf[offset:]))
}

// EncodeUUID writes a null flag followed by the most and least significant
// halves of u. uuid.Nil is written as null.
func EncodeUUID(buf []byte, offset int, u uuid.UUID) {
	isNull := u == uuid.Nil
	EncodeBool(buf, offset, isNull)
	if isNull {
		return
	}
	EncodeInt64(buf, offset+BooleanSize, int64(binary.BigEndian.Uint64(u[:8])))
	EncodeInt64(buf, offset+BooleanSize+LongSize, int64(binary.BigEndian.Uint64(u[8:])))
}

// DecodeUUID reads a UUID written by EncodeUUID. Null decodes to uuid.Nil.
func DecodeUUID(buf []byte, offset int) uuid.UUID {
	if DecodeBool(buf, offset) {
		return uuid.Nil
	}
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[:8], uint64(DecodeInt64(buf, offset+BooleanSize)))
	binary.BigEndian.PutUint64(u[8:], uint64(DecodeInt64(buf, offset+BooleanSize+LongSize)))
	return u
}
