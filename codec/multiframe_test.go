package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/gridwire/protocol"
)

func ptr[T any](v T) *T { return &v }

func TestList_Brackets(t *testing.T) {
	msg := protocol.NewMessage()
	EncodeList(msg, []string{"a", "b"}, EncodeString)

	var flags []protocol.Flags
	for f := range msg.All() {
		flags = append(flags, f.Flags.FrameScope())
	}
	assert.Equal(t, []protocol.Flags{
		protocol.BeginStruct,
		protocol.DefaultFlags,
		protocol.DefaultFlags,
		protocol.EndStruct | protocol.Final,
	}, flags)
}

func TestList_RoundTrip(t *testing.T) {
	for _, items := range [][]string{{}, {""}, {"a", "bb", "ccc"}} {
		it := encoded(func(msg *protocol.Message) { EncodeList(msg, items, EncodeString) })
		got, err := DecodeList(it, DecodeString)
		require.NoError(t, err)
		assert.Equal(t, items, got)
		assert.False(t, it.HasNext())
	}
}

func TestList_Nested(t *testing.T) {
	items := [][]string{{"a"}, {}, {"b", "c"}}
	encodeInner := func(msg *protocol.Message, v []string) { EncodeList(msg, v, EncodeString) }
	decodeInner := func(it *protocol.FrameIterator) ([]string, error) { return DecodeList(it, DecodeString) }

	it := encoded(func(msg *protocol.Message) {
		EncodeList(msg, items, encodeInner)
		EncodeString(msg, "after")
	})
	got, err := DecodeList(it, decodeInner)
	require.NoError(t, err)
	assert.Equal(t, items, got)

	after, err := DecodeString(it)
	require.NoError(t, err)
	assert.Equal(t, "after", after)
}

func TestList_MissingBeginStruct(t *testing.T) {
	it := encoded(func(msg *protocol.Message) { EncodeString(msg, "x") })
	_, err := DecodeList(it, DecodeString)
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}

func TestList_Unterminated(t *testing.T) {
	it := encoded(func(msg *protocol.Message) {
		msg.Append(protocol.BeginStructFrame())
		EncodeString(msg, "x")
	})
	_, err := DecodeList(it, DecodeString)
	assert.ErrorIs(t, err, protocol.ErrUnexpectedEnd)
}

func TestListContainsNullable_RoundTrip(t *testing.T) {
	items := []*string{ptr("a"), nil, ptr(""), nil}
	it := encoded(func(msg *protocol.Message) { EncodeListContainsNullable(msg, items, EncodeString) })

	got, err := DecodeListContainsNullable(it, DecodeString)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestNullableList(t *testing.T) {
	it := encoded(func(msg *protocol.Message) {
		EncodeNullableList[string](msg, nil, EncodeString)
		EncodeNullableList(msg, []string{}, EncodeString)
	})

	got, err := DecodeNullableList(it, DecodeString)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DecodeNullableList(it, DecodeString)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNullable_Generic(t *testing.T) {
	addr := &Address{Host: "10.0.0.1", Port: 5701}
	it := encoded(func(msg *protocol.Message) {
		EncodeNullable[Address](msg, nil, EncodeAddress)
		EncodeNullable(msg, addr, EncodeAddress)
	})

	got, err := DecodeNullable(it, DecodeAddress)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DecodeNullable(it, DecodeAddress)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestMap_RoundTrip(t *testing.T) {
	m := map[string]Data{"a": {1}, "b": {}, "c": {3, 3}}
	it := encoded(func(msg *protocol.Message) { EncodeMap(msg, m, EncodeString, EncodeData) })

	got, err := DecodeMap(it, DecodeString, DecodeData)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestMap_Empty(t *testing.T) {
	it := encoded(func(msg *protocol.Message) { EncodeMap(msg, map[string]string{}, EncodeString, EncodeString) })
	got, err := DecodeMap(it, DecodeString, DecodeString)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEntryList_KeepsOrder(t *testing.T) {
	entries := []Entry[string, string]{{"z", "1"}, {"a", "2"}, {"z", "3"}}
	it := encoded(func(msg *protocol.Message) { EncodeEntryList(msg, entries, EncodeString, EncodeString) })

	got, err := DecodeEntryList(it, DecodeString, DecodeString)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
