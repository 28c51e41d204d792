package codec

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/gridwire/protocol"
)

// Tests in this package, like those in protocol and cmd/gridwire, use
// testify assert/require. The root package tests keep plain testing.

// encoded builds a message with encode and returns a fresh cursor over it.
func encoded(encode func(msg *protocol.Message)) *protocol.FrameIterator {
	msg := protocol.NewMessage()
	encode(msg)
	return msg.Frames()
}

func TestFixedSize_RoundTrip(t *testing.T) {
	buf := make([]byte, 64)

	for _, v := range []int32{0, -1, 300, math.MinInt32, math.MaxInt32} {
		EncodeInt32(buf, 3, v)
		assert.Equal(t, v, DecodeInt32(buf, 3))
	}
	for _, v := range []int64{0, -1, 1 << 40, math.MinInt64, math.MaxInt64} {
		EncodeInt64(buf, 5, v)
		assert.Equal(t, v, DecodeInt64(buf, 5))
	}
	for _, v := range []int16{0, -1, math.MinInt16, math.MaxInt16} {
		EncodeInt16(buf, 1, v)
		assert.Equal(t, v, DecodeInt16(buf, 1))
	}
	for _, v := range []int8{0, -1, math.MinInt8, math.MaxInt8} {
		EncodeInt8(buf, 0, v)
		assert.Equal(t, v, DecodeInt8(buf, 0))
	}
	for _, v := range []float32{0, -1.5, math.MaxFloat32, 1e-30} {
		EncodeFloat32(buf, 2, v)
		assert.Equal(t, v, DecodeFloat32(buf, 2))
	}
	for _, v := range []float64{0, -1.5, math.MaxFloat64, math.Inf(-1)} {
		EncodeFloat64(buf, 7, v)
		assert.Equal(t, v, DecodeFloat64(buf, 7))
	}
	for _, v := range []bool{true, false} {
		EncodeBool(buf, 9, v)
		assert.Equal(t, v, DecodeBool(buf, 9))
	}
}

func TestFixedSize_BigEndianLayout(t *testing.T) {
	buf := make([]byte, IntSize)
	EncodeInt32(buf, 0, 300)
	assert.Equal(t, []byte{0, 0, 1, 44}, buf)
}

func TestUUID_RoundTrip(t *testing.T) {
	buf := make([]byte, UUIDSize+2)
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	EncodeUUID(buf, 2, u)
	assert.Equal(t, byte(0), buf[2], "non-null flag")
	assert.Equal(t, u[:], buf[3:])
	assert.Equal(t, u, DecodeUUID(buf, 2))
}

func TestUUID_NilIsNull(t *testing.T) {
	buf := make([]byte, UUIDSize)
	EncodeUUID(buf, 0, uuid.Nil)
	assert.Equal(t, byte(1), buf[0])
	assert.Equal(t, uuid.Nil, DecodeUUID(buf, 0))
}

func TestString_RoundTrip(t *testing.T) {
	for _, s := range []string{"", "map", "héllo 世界"} {
		it := encoded(func(msg *protocol.Message) { EncodeString(msg, s) })
		got, err := DecodeString(it)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestString_InvalidUTF8(t *testing.T) {
	it := encoded(func(msg *protocol.Message) { EncodeByteArray(msg, []byte{0xff, 0xfe}) })
	_, err := DecodeString(it)
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}

func TestNullableString_RoundTrip(t *testing.T) {
	s := "x"
	it := encoded(func(msg *protocol.Message) {
		EncodeNullableString(msg, nil)
		EncodeNullableString(msg, &s)
	})

	got, err := DecodeNullableString(it)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DecodeNullableString(it)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s, *got)
}

func TestNullableData_RoundTrip(t *testing.T) {
	it := encoded(func(msg *protocol.Message) {
		EncodeNullableData(msg, nil)
		EncodeNullableData(msg, Data{})
		EncodeNullableData(msg, Data{1, 2, 3})
	})

	got, err := DecodeNullableData(it)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DecodeNullableData(it)
	require.NoError(t, err)
	assert.NotNil(t, got, "empty data is not null")
	assert.Empty(t, got)

	got, err = DecodeNullableData(it)
	require.NoError(t, err)
	assert.Equal(t, Data{1, 2, 3}, got)
}

func TestInt64Frame_Truncated(t *testing.T) {
	it := encoded(func(msg *protocol.Message) { EncodeByteArray(msg, []byte{1, 2, 3}) })
	_, err := DecodeInt64Frame(it)
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}

func TestDecode_RunsOutOfFrames(t *testing.T) {
	_, err := DecodeString(protocol.NewMessage().Frames())
	assert.ErrorIs(t, err, protocol.ErrUnexpectedEnd)
}
