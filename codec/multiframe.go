package codec

import (
	"github.com/Zereker/gridwire/protocol"
)

// EncodeList brackets the items between BeginStruct and EndStruct frames.
func EncodeList[T any](msg *protocol.Message, items []T, encode Encoder[T]) {
	msg.Append(protocol.BeginStructFrame())
	for _, v := range items {
		encode(msg, v)
	}
	msg.Append(protocol.EndStructFrame())
}

// DecodeList decodes items until the closing EndStruct, which it consumes.
func DecodeList[T any](it *protocol.FrameIterator, decode Decoder[T]) ([]T, error) {
	if err := beginStruct(it); err != nil {
		return nil, err
	}
	items := make([]T, 0)
	for !it.AtStructEnd() {
		if !it.HasNext() {
			return nil, protocol.ErrUnexpectedEnd
		}
		v, err := decode(it)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	it.Take()
	return items, nil
}

// EncodeListContainsNullable is EncodeList where a nil item is written as a
// null frame.
func EncodeListContainsNullable[T any](msg *protocol.Message, items []*T, encode Encoder[T]) {
	msg.Append(protocol.BeginStructFrame())
	for _, v := range items {
		EncodeNullable(msg, v, encode)
	}
	msg.Append(protocol.EndStructFrame())
}

func DecodeListContainsNullable[T any](it *protocol.FrameIterator, decode Decoder[T]) ([]*T, error) {
	return DecodeList(it, func(it *protocol.FrameIterator) (*T, error) {
		return DecodeNullable(it, decode)
	})
}

// EncodeNullableList writes a null frame for a nil slice. An empty, non-nil
// slice is an empty list.
func EncodeNullableList[T any](msg *protocol.Message, items []T, encode Encoder[T]) {
	if items == nil {
		msg.Append(protocol.NullFrame())
		return
	}
	EncodeList(msg, items, encode)
}

func DecodeNullableList[T any](it *protocol.FrameIterator, decode Decoder[T]) ([]T, error) {
	if it.SkipNull() {
		return nil, nil
	}
	return DecodeList(it, decode)
}

// EncodeEntryList writes key, value, key, value between struct brackets.
func EncodeEntryList[K, V any](msg *protocol.Message, entries []Entry[K, V], encodeKey Encoder[K], encodeValue Encoder[V]) {
	msg.Append(protocol.BeginStructFrame())
	for _, e := range entries {
		encodeKey(msg, e.Key)
		encodeValue(msg, e.Value)
	}
	msg.Append(protocol.EndStructFrame())
}

func DecodeEntryList[K, V any](it *protocol.FrameIterator, decodeKey Decoder[K], decodeValue Decoder[V]) ([]Entry[K, V], error) {
	if err := beginStruct(it); err != nil {
		return nil, err
	}
	entries := make([]Entry[K, V], 0)
	for !it.AtStructEnd() {
		if !it.HasNext() {
			return nil, protocol.ErrUnexpectedEnd
		}
		k, err := decodeKey(it)
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(it)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry[K, V]{Key: k, Value: v})
	}
	it.Take()
	return entries, nil
}

// EncodeMap has the entry list layout. Iteration order of m decides the
// order on the wire.
func EncodeMap[K comparable, V any](msg *protocol.Message, m map[K]V, encodeKey Encoder[K], encodeValue Encoder[V]) {
	msg.Append(protocol.BeginStructFrame())
	for k, v := range m {
		encodeKey(msg, k)
		encodeValue(msg, v)
	}
	msg.Append(protocol.EndStructFrame())
}

// DecodeMap keeps the last value of a repeated key.
func DecodeMap[K comparable, V any](it *protocol.FrameIterator, decodeKey Decoder[K], decodeValue Decoder[V]) (map[K]V, error) {
	entries, err := DecodeEntryList(it, decodeKey, decodeValue)
	if err != nil {
		return nil, err
	}
	m := make(map[K]V, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Value
	}
	return m, nil
}
