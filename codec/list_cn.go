package codec

import (
	"github.com/pkg/errors"

	"github.com/Zereker/gridwire/protocol"
)

// Layout kinds of a list of nullable fixed-size items.
const (
	listCNNullOnly    byte = 1
	listCNNotNullOnly byte = 2
	listCNMixed       byte = 3

	listCNItemsPerBitmask = 8
	listCNHeaderSize      = ByteSize + IntSize
)

// MaxNullOnlyItems bounds the count of a list or SQL column that carries no
// item bytes at all, since nothing else on the wire limits it.
const MaxNullOnlyItems = 1 << 20

// encodeListCN writes a type byte and a count, then nothing when every item
// is null, the packed items when none is, or groups of up to eight items
// each preceded by a bitmask of the present ones.
func encodeListCN[T any](msg *protocol.Message, items []*T, itemSize int, put func([]byte, int, T)) {
	nulls := 0
	for _, v := range items {
		if v == nil {
			nulls++
		}
	}

	var buf []byte
	switch {
	case nulls == len(items) && len(items) > 0:
		buf = make([]byte, listCNHeaderSize)
		EncodeByte(buf, 0, listCNNullOnly)
	case nulls == 0:
		buf = make([]byte, listCNHeaderSize+len(items)*itemSize)
		EncodeByte(buf, 0, listCNNotNullOnly)
		for i, v := range items {
			put(buf, listCNHeaderSize+i*itemSize, *v)
		}
	default:
		groups := (len(items) + listCNItemsPerBitmask - 1) / listCNItemsPerBitmask
		buf = make([]byte, listCNHeaderSize+groups+(len(items)-nulls)*itemSize)
		EncodeByte(buf, 0, listCNMixed)
		pos, mask := listCNHeaderSize, 0
		for i, v := range items {
			if i%listCNItemsPerBitmask == 0 {
				mask = pos
				pos++
			}
			if v == nil {
				continue
			}
			buf[mask] |= 1 << (i % listCNItemsPerBitmask)
			put(buf, pos, *v)
			pos += itemSize
		}
	}
	EncodeInt32(buf, ByteSize, int32(len(items)))
	msg.Append(protocol.NewFrame(buf, protocol.DefaultFlags))
}

func decodeListCN[T any](it *protocol.FrameIterator, itemSize int, get func([]byte, int) T) ([]*T, error) {
	f, err := takeFixed(it, listCNHeaderSize)
	if err != nil {
		return nil, err
	}
	buf := f.Content
	kind := DecodeByte(buf, 0)
	count := int(DecodeInt32(buf, ByteSize))
	if count < 0 {
		return nil, errors.Wrapf(protocol.ErrMalformedFrame, "negative list count %d", count)
	}

	short := func() error {
		return errors.Wrapf(protocol.ErrMalformedFrame, "list of %d items truncated at %d bytes", count, len(buf))
	}

	// The count is checked against the frame before anything is allocated.
	switch kind {
	case listCNNullOnly:
		if count > MaxNullOnlyItems {
			return nil, errors.Wrapf(protocol.ErrMalformedFrame, "null list of %d items exceeds %d", count, MaxNullOnlyItems)
		}
		return make([]*T, count), nil
	case listCNNotNullOnly:
		if (len(buf)-listCNHeaderSize)/itemSize < count {
			return nil, short()
		}
		items := make([]*T, count)
		for i := range items {
			v := get(buf, listCNHeaderSize+i*itemSize)
			items[i] = &v
		}
		return items, nil
	case listCNMixed:
		if (len(buf)-listCNHeaderSize)*listCNItemsPerBitmask < count {
			return nil, short()
		}
		items := make([]*T, count)
		pos := listCNHeaderSize
		var mask byte
		for i := range items {
			if i%listCNItemsPerBitmask == 0 {
				if pos >= len(buf) {
					return nil, short()
				}
				mask = buf[pos]
				pos++
			}
			if mask&(1<<(i%listCNItemsPerBitmask)) == 0 {
				continue
			}
			if pos+itemSize > len(buf) {
				return nil, short()
			}
			v := get(buf, pos)
			items[i] = &v
			pos += itemSize
		}
		return items, nil
	default:
		return nil, errors.Wrapf(protocol.ErrMalformedFrame, "unknown list layout %d", kind)
	}
}

func EncodeListCNBool(msg *protocol.Message, items []*bool) {
	encodeListCN(msg, items, BooleanSize, EncodeBool)
}

func DecodeListCNBool(it *protocol.FrameIterator) ([]*bool, error) {
	return decodeListCN(it, BooleanSize, DecodeBool)
}

func EncodeListCNInt8(msg *protocol.Message, items []*int8) {
	encodeListCN(msg, items, ByteSize, EncodeInt8)
}

func DecodeListCNInt8(it *protocol.FrameIterator) ([]*int8, error) {
	return decodeListCN(it, ByteSize, DecodeInt8)
}

func EncodeListCNInt16(msg *protocol.Message, items []*int16) {
	encodeListCN(msg, items, ShortSize, EncodeInt16)
}

func DecodeListCNInt16(it *protocol.FrameIterator) ([]*int16, error) {
	return decodeListCN(it, ShortSize, DecodeInt16)
}

func EncodeListCNInt32(msg *protocol.Message, items []*int32) {
	encodeListCN(msg, items, IntSize, EncodeInt32)
}

func DecodeListCNInt32(it *protocol.FrameIterator) ([]*int32, error) {
	return decodeListCN(it, IntSize, DecodeInt32)
}

func EncodeListCNInt64(msg *protocol.Message, items []*int64) {
	encodeListCN(msg, items, LongSize, EncodeInt64)
}

func DecodeListCNInt64(it *protocol.FrameIterator) ([]*int64, error) {
	return decodeListCN(it, LongSize, DecodeInt64)
}

func EncodeListCNFloat32(msg *protocol.Message, items []*float32) {
	encodeListCN(msg, items, FloatSize, EncodeFloat32)
}

func DecodeListCNFloat32(it *protocol.FrameIterator) ([]*float32, error) {
	return decodeListCN(it, FloatSize, DecodeFloat32)
}

func EncodeListCNFloat64(msg *protocol.Message, items []*float64) {
	encodeListCN(msg, items, DoubleSize, EncodeFloat64)
}

func DecodeListCNFloat64(it *protocol.FrameIterator) ([]*float64, error) {
	return decodeListCN(it, DoubleSize, DecodeFloat64)
}
