package codec

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Zereker/gridwire/protocol"
)

// encodeFixedList packs items into one frame, itemSize bytes each.
func encodeFixedList[T any](msg *protocol.Message, items []T, itemSize int, put func([]byte, int, T)) {
	buf := make([]byte, len(items)*itemSize)
	for i, v := range items {
		put(buf, i*itemSize, v)
	}
	msg.Append(protocol.NewFrame(buf, protocol.DefaultFlags))
}

// decodeFixedList consumes one frame and unpacks it. The frame boundary is
// the count.
func decodeFixedList[T any](it *protocol.FrameIterator, itemSize int, get func([]byte, int) T) ([]T, error) {
	f, err := it.TakeFrame()
	if err != nil {
		return nil, err
	}
	if len(f.Content)%itemSize != 0 {
		return nil, errors.Wrapf(protocol.ErrMalformedFrame, "list frame of %d bytes is not a multiple of %d", len(f.Content), itemSize)
	}
	n := len(f.Content) / itemSize
	items := make([]T, n)
	for i := range items {
		items[i] = get(f.Content, i*itemSize)
	}
	return items, nil
}

func EncodeListInt32(msg *protocol.Message, items []int32) {
	encodeFixedList(msg, items, IntSize, EncodeInt32)
}

func DecodeListInt32(it *protocol.FrameIterator) ([]int32, error) {
	return decodeFixedList(it, IntSize, DecodeInt32)
}

func EncodeListInt64(msg *protocol.Message, items []int64) {
	encodeFixedList(msg, items, LongSize, EncodeInt64)
}

func DecodeListInt64(it *protocol.FrameIterator) ([]int64, error) {
	return decodeFixedList(it, LongSize, DecodeInt64)
}

func EncodeListFloat32(msg *protocol.Message, items []float32) {
	encodeFixedList(msg, items, FloatSize, EncodeFloat32)
}

func DecodeListFloat32(it *protocol.FrameIterator) ([]float32, error) {
	return decodeFixedList(it, FloatSize, DecodeFloat32)
}

func EncodeListFloat64(msg *protocol.Message, items []float64) {
	encodeFixedList(msg, items, DoubleSize, EncodeFloat64)
}

func DecodeListFloat64(it *protocol.FrameIterator) ([]float64, error) {
	return decodeFixedList(it, DoubleSize, DecodeFloat64)
}

func EncodeListUUID(msg *protocol.Message, items []uuid.UUID) {
	encodeFixedList(msg, items, UUIDSize, EncodeUUID)
}

func DecodeListUUID(it *protocol.FrameIterator) ([]uuid.UUID, error) {
	return decodeFixedList(it, UUIDSize, DecodeUUID)
}

// Entry lists of two fixed-width columns are interleaved in one frame:
// key, value, key, value.

func encodeFixedEntryList[K, V any](
	msg *protocol.Message, entries []Entry[K, V],
	keySize int, putKey func([]byte, int, K),
	valueSize int, putValue func([]byte, int, V),
) {
	entrySize := keySize + valueSize
	buf := make([]byte, len(entries)*entrySize)
	for i, e := range entries {
		putKey(buf, i*entrySize, e.Key)
		putValue(buf, i*entrySize+keySize, e.Value)
	}
	msg.Append(protocol.NewFrame(buf, protocol.DefaultFlags))
}

func decodeFixedEntryList[K, V any](
	it *protocol.FrameIterator,
	keySize int, getKey func([]byte, int) K,
	valueSize int, getValue func([]byte, int) V,
) ([]Entry[K, V], error) {
	f, err := it.TakeFrame()
	if err != nil {
		return nil, err
	}
	entrySize := keySize + valueSize
	if len(f.Content)%entrySize != 0 {
		return nil, errors.Wrapf(protocol.ErrMalformedFrame, "entry list frame of %d bytes is not a multiple of %d", len(f.Content), entrySize)
	}
	entries := make([]Entry[K, V], len(f.Content)/entrySize)
	for i := range entries {
		entries[i].Key = getKey(f.Content, i*entrySize)
		entries[i].Value = getValue(f.Content, i*entrySize+keySize)
	}
	return entries, nil
}

func EncodeEntryListInt32Int64(msg *protocol.Message, entries []Entry[int32, int64]) {
	encodeFixedEntryList(msg, entries, IntSize, EncodeInt32, LongSize, EncodeInt64)
}

func DecodeEntryListInt32Int64(it *protocol.FrameIterator) ([]Entry[int32, int64], error) {
	return decodeFixedEntryList(it, IntSize, DecodeInt32, LongSize, DecodeInt64)
}

func EncodeEntryListUUIDInt64(msg *protocol.Message, entries []Entry[uuid.UUID, int64]) {
	encodeFixedEntryList(msg, entries, UUIDSize, EncodeUUID, LongSize, EncodeInt64)
}

func DecodeEntryListUUIDInt64(it *protocol.FrameIterator) ([]Entry[uuid.UUID, int64], error) {
	return decodeFixedEntryList(it, UUIDSize, DecodeUUID, LongSize, DecodeInt64)
}

func EncodeEntryListInt32UUID(msg *protocol.Message, entries []Entry[int32, uuid.UUID]) {
	encodeFixedEntryList(msg, entries, IntSize, EncodeInt32, UUIDSize, EncodeUUID)
}

func DecodeEntryListInt32UUID(it *protocol.FrameIterator) ([]Entry[int32, uuid.UUID], error) {
	return decodeFixedEntryList(it, IntSize, DecodeInt32, UUIDSize, DecodeUUID)
}

// EncodeEntryListUUIDListInt32 writes the value lists as a structure of
// int32 lists, followed by one frame holding the keys. Both columns are
// joined by index.
func EncodeEntryListUUIDListInt32(msg *protocol.Message, entries []Entry[uuid.UUID, []int32]) {
	keys := make([]uuid.UUID, len(entries))
	values := make([][]int32, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
		values[i] = e.Value
	}
	EncodeList(msg, values, EncodeListInt32)
	EncodeListUUID(msg, keys)
}

func DecodeEntryListUUIDListInt32(it *protocol.FrameIterator) ([]Entry[uuid.UUID, []int32], error) {
	values, err := DecodeList(it, DecodeListInt32)
	if err != nil {
		return nil, err
	}
	keys, err := DecodeListUUID(it)
	if err != nil {
		return nil, err
	}
	if len(keys) != len(values) {
		return nil, errors.Wrapf(protocol.ErrMalformedFrame, "%d keys for %d value lists", len(keys), len(values))
	}
	entries := make([]Entry[uuid.UUID, []int32], len(keys))
	for i := range entries {
		entries[i] = Entry[uuid.UUID, []int32]{Key: keys[i], Value: values[i]}
	}
	return entries, nil
}
