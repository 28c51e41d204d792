package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/gridwire/protocol"
)

func cnFrame(t *testing.T, encode func(msg *protocol.Message)) []byte {
	t.Helper()
	msg := protocol.NewMessage()
	encode(msg)
	require.Equal(t, 1, msg.FrameCount())
	return msg.FirstFrame().Content
}

func TestListCN_NotNullOnly(t *testing.T) {
	items := []*int32{ptr[int32](1), ptr[int32](2), ptr[int32](300)}
	buf := cnFrame(t, func(msg *protocol.Message) { EncodeListCNInt32(msg, items) })

	assert.Equal(t, listCNNotNullOnly, buf[0])
	assert.Equal(t, int32(3), DecodeInt32(buf, 1))
	assert.Len(t, buf, listCNHeaderSize+3*IntSize)
}

func TestListCN_NullOnly(t *testing.T) {
	items := []*int64{nil, nil, nil}
	buf := cnFrame(t, func(msg *protocol.Message) { EncodeListCNInt64(msg, items) })

	assert.Equal(t, []byte{listCNNullOnly, 0, 0, 0, 3}, buf)

	got, err := DecodeListCNInt64(encoded(func(msg *protocol.Message) { EncodeListCNInt64(msg, items) }))
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestListCN_MixedLayout(t *testing.T) {
	items := []*int8{ptr[int8](1), nil, ptr[int8](3)}
	buf := cnFrame(t, func(msg *protocol.Message) { EncodeListCNInt8(msg, items) })

	assert.Equal(t, []byte{listCNMixed, 0, 0, 0, 3, 0b101, 1, 3}, buf)
}

func TestListCN_MixedAcrossBitmaskGroups(t *testing.T) {
	items := make([]*int16, 19)
	for i := range items {
		if i%3 != 1 {
			items[i] = ptr(int16(i * -100))
		}
	}
	items[8] = ptr[int16](math.MinInt16)
	items[18] = nil

	it := encoded(func(msg *protocol.Message) { EncodeListCNInt16(msg, items) })
	got, err := DecodeListCNInt16(it)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestListCN_EmptyList(t *testing.T) {
	it := encoded(func(msg *protocol.Message) { EncodeListCNBool(msg, nil) })
	got, err := DecodeListCNBool(it)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListCN_RoundTripAllKinds(t *testing.T) {
	bools := []*bool{ptr(true), nil, ptr(false)}
	int32s := []*int32{ptr[int32](math.MaxInt32), nil}
	float32s := []*float32{nil, ptr[float32](-0.5)}
	float64s := []*float64{ptr(math.MaxFloat64), ptr(0.0)}

	it := encoded(func(msg *protocol.Message) {
		EncodeListCNBool(msg, bools)
		EncodeListCNInt32(msg, int32s)
		EncodeListCNFloat32(msg, float32s)
		EncodeListCNFloat64(msg, float64s)
	})

	gotBools, err := DecodeListCNBool(it)
	require.NoError(t, err)
	assert.Equal(t, bools, gotBools)

	gotInt32s, err := DecodeListCNInt32(it)
	require.NoError(t, err)
	assert.Equal(t, int32s, gotInt32s)

	gotFloat32s, err := DecodeListCNFloat32(it)
	require.NoError(t, err)
	assert.Equal(t, float32s, gotFloat32s)

	gotFloat64s, err := DecodeListCNFloat64(it)
	require.NoError(t, err)
	assert.Equal(t, float64s, gotFloat64s)
}

func TestListCN_Truncated(t *testing.T) {
	buf := []byte{listCNNotNullOnly, 0, 0, 0, 2, 0, 0, 0, 1}
	it := encoded(func(msg *protocol.Message) { EncodeByteArray(msg, buf) })
	_, err := DecodeListCNInt32(it)
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}

func TestListCN_UnknownLayout(t *testing.T) {
	it := encoded(func(msg *protocol.Message) { EncodeByteArray(msg, []byte{9, 0, 0, 0, 0}) })
	_, err := DecodeListCNInt32(it)
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}

func TestListCN_CountBeyondFrame(t *testing.T) {
	huge := []byte{0x7F, 0xFF, 0xFF, 0xFF}
	for _, kind := range []byte{listCNNullOnly, listCNNotNullOnly, listCNMixed} {
		it := encoded(func(msg *protocol.Message) {
			EncodeByteArray(msg, append([]byte{kind}, huge...))
		})
		_, err := DecodeListCNInt64(it)
		assert.ErrorIs(t, err, protocol.ErrMalformedFrame, "layout %d", kind)
	}
}

func TestListCN_MixedCountNeedsBitmasks(t *testing.T) {
	// 17 items need three bitmask bytes, only two are present.
	buf := []byte{listCNMixed, 0, 0, 0, 17, 0, 0}
	it := encoded(func(msg *protocol.Message) { EncodeByteArray(msg, buf) })
	_, err := DecodeListCNInt32(it)
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}
