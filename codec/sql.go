package codec

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Zereker/gridwire/protocol"
)

// ColumnType is the wire id of an SQL column type.
type ColumnType int32

const (
	ColumnVarchar ColumnType = iota
	ColumnBoolean
	ColumnTinyint
	ColumnSmallint
	ColumnInteger
	ColumnBigint
	ColumnDecimal
	ColumnReal
	ColumnDouble
	ColumnDate
	ColumnTime
	ColumnTimestamp
	ColumnTimestampWithTimeZone
	ColumnObject
	ColumnNull
	ColumnJSON
)

var columnTypeNames = [...]string{
	ColumnVarchar:               "VARCHAR",
	ColumnBoolean:               "BOOLEAN",
	ColumnTinyint:               "TINYINT",
	ColumnSmallint:              "SMALLINT",
	ColumnInteger:               "INTEGER",
	ColumnBigint:                "BIGINT",
	ColumnDecimal:               "DECIMAL",
	ColumnReal:                  "REAL",
	ColumnDouble:                "DOUBLE",
	ColumnDate:                  "DATE",
	ColumnTime:                  "TIME",
	ColumnTimestamp:             "TIMESTAMP",
	ColumnTimestampWithTimeZone: "TIMESTAMP_WITH_TIME_ZONE",
	ColumnObject:                "OBJECT",
	ColumnNull:                  "NULL",
	ColumnJSON:                  "JSON",
}

func (t ColumnType) String() string {
	if t >= 0 && int(t) < len(columnTypeNames) {
		return columnTypeNames[t]
	}
	return fmt.Sprintf("ColumnType(%d)", int32(t))
}

// SqlColumn holds the values of one column of a page. A nil element is SQL
// NULL; other elements have the Go type of the column: string for VARCHAR
// and JSON, bool, int8, int16, int32, int64, float32, float64, and Data for
// OBJECT.
type SqlColumn struct {
	Type   ColumnType
	Values []any
}

// SqlPage is one batch of rows of a query result, stored by column.
type SqlPage struct {
	Columns []SqlColumn
	Last    bool
}

// RowCount returns the number of rows in the page.
func (p SqlPage) RowCount() int {
	if len(p.Columns) == 0 {
		return 0
	}
	return len(p.Columns[0].Values)
}

func boxed[T any](ps []*T) []any {
	out := make([]any, len(ps))
	for i, p := range ps {
		if p != nil {
			out[i] = *p
		}
	}
	return out
}

func unboxed[T any](t ColumnType, vs []any) ([]*T, error) {
	out := make([]*T, len(vs))
	for i, v := range vs {
		if v == nil {
			continue
		}
		x, ok := v.(T)
		if !ok {
			return nil, errors.Errorf("codec: %s column holds %T at row %d", t, v, i)
		}
		out[i] = &x
	}
	return out, nil
}

func encodeColumn(msg *protocol.Message, c SqlColumn) error {
	switch c.Type {
	case ColumnVarchar, ColumnJSON:
		vs, err := unboxed[string](c.Type, c.Values)
		if err != nil {
			return err
		}
		EncodeListContainsNullable(msg, vs, EncodeString)
	case ColumnBoolean:
		vs, err := unboxed[bool](c.Type, c.Values)
		if err != nil {
			return err
		}
		EncodeListCNBool(msg, vs)
	case ColumnTinyint:
		vs, err := unboxed[int8](c.Type, c.Values)
		if err != nil {
			return err
		}
		EncodeListCNInt8(msg, vs)
	case ColumnSmallint:
		vs, err := unboxed[int16](c.Type, c.Values)
		if err != nil {
			return err
		}
		EncodeListCNInt16(msg, vs)
	case ColumnInteger:
		vs, err := unboxed[int32](c.Type, c.Values)
		if err != nil {
			return err
		}
		EncodeListCNInt32(msg, vs)
	case ColumnBigint:
		vs, err := unboxed[int64](c.Type, c.Values)
		if err != nil {
			return err
		}
		EncodeListCNInt64(msg, vs)
	case ColumnReal:
		vs, err := unboxed[float32](c.Type, c.Values)
		if err != nil {
			return err
		}
		EncodeListCNFloat32(msg, vs)
	case ColumnDouble:
		vs, err := unboxed[float64](c.Type, c.Values)
		if err != nil {
			return err
		}
		EncodeListCNFloat64(msg, vs)
	case ColumnObject:
		vs, err := unboxed[Data](c.Type, c.Values)
		if err != nil {
			return err
		}
		EncodeListContainsNullable(msg, vs, EncodeData)
	case ColumnNull:
		buf := make([]byte, IntSize)
		EncodeInt32(buf, 0, int32(len(c.Values)))
		msg.Append(protocol.NewFrame(buf, protocol.DefaultFlags))
	case ColumnDecimal, ColumnDate, ColumnTime, ColumnTimestamp, ColumnTimestampWithTimeZone:
		return errors.Wrap(ErrUnsupportedColumnType, c.Type.String())
	default:
		return errors.Wrap(ErrUnsupportedColumnType, c.Type.String())
	}
	return nil
}

func decodeColumn(it *protocol.FrameIterator, t ColumnType) ([]any, error) {
	switch t {
	case ColumnVarchar, ColumnJSON:
		vs, err := DecodeListContainsNullable(it, DecodeString)
		return boxed(vs), err
	case ColumnBoolean:
		vs, err := DecodeListCNBool(it)
		return boxed(vs), err
	case ColumnTinyint:
		vs, err := DecodeListCNInt8(it)
		return boxed(vs), err
	case ColumnSmallint:
		vs, err := DecodeListCNInt16(it)
		return boxed(vs), err
	case ColumnInteger:
		vs, err := DecodeListCNInt32(it)
		return boxed(vs), err
	case ColumnBigint:
		vs, err := DecodeListCNInt64(it)
		return boxed(vs), err
	case ColumnReal:
		vs, err := DecodeListCNFloat32(it)
		return boxed(vs), err
	case ColumnDouble:
		vs, err := DecodeListCNFloat64(it)
		return boxed(vs), err
	case ColumnObject:
		vs, err := DecodeListContainsNullable(it, DecodeData)
		return boxed(vs), err
	case ColumnNull:
		f, err := takeFixed(it, IntSize)
		if err != nil {
			return nil, err
		}
		n := DecodeInt32(f.Content, 0)
		if n < 0 || n > MaxNullOnlyItems {
			return nil, errors.Wrapf(protocol.ErrMalformedFrame, "null column row count %d", n)
		}
		return make([]any, n), nil
	case ColumnDecimal, ColumnDate, ColumnTime, ColumnTimestamp, ColumnTimestampWithTimeZone:
		return nil, errors.Wrap(ErrUnsupportedColumnType, t.String())
	default:
		return nil, errors.Wrap(ErrUnsupportedColumnType, t.String())
	}
}

const sqlPageFixedSize = BooleanSize

// EncodeSqlPage writes the last-page flag, the column type ids, then each
// column's values.
func EncodeSqlPage(msg *protocol.Message, p SqlPage) error {
	buf := newStructFrame(msg, sqlPageFixedSize)
	EncodeBool(buf, 0, p.Last)
	types := make([]int32, len(p.Columns))
	for i, c := range p.Columns {
		types[i] = int32(c.Type)
	}
	EncodeListInt32(msg, types)
	for _, c := range p.Columns {
		if err := encodeColumn(msg, c); err != nil {
			return err
		}
	}
	msg.Append(protocol.EndStructFrame())
	return nil
}

func DecodeSqlPage(it *protocol.FrameIterator) (SqlPage, error) {
	var p SqlPage
	buf, err := openStruct(it, sqlPageFixedSize)
	if err != nil {
		return p, err
	}
	p.Last = DecodeBool(buf, 0)
	types, err := DecodeListInt32(it)
	if err != nil {
		return p, err
	}
	p.Columns = make([]SqlColumn, len(types))
	for i, id := range types {
		t := ColumnType(id)
		values, err := decodeColumn(it, t)
		if err != nil {
			return p, errors.WithMessagef(err, "column %d", i)
		}
		p.Columns[i] = SqlColumn{Type: t, Values: values}
	}
	return p, endStruct(it)
}

// SqlQueryID identifies a query cursor on the member that runs it.
type SqlQueryID struct {
	MemberIDHigh int64
	MemberIDLow  int64
	LocalIDHigh  int64
	LocalIDLow   int64
}

const sqlQueryIDFixedSize = 4 * LongSize

func EncodeSqlQueryID(msg *protocol.Message, id SqlQueryID) {
	buf := newStructFrame(msg, sqlQueryIDFixedSize)
	EncodeInt64(buf, 0, id.MemberIDHigh)
	EncodeInt64(buf, LongSize, id.MemberIDLow)
	EncodeInt64(buf, 2*LongSize, id.LocalIDHigh)
	EncodeInt64(buf, 3*LongSize, id.LocalIDLow)
	msg.Append(protocol.EndStructFrame())
}

func DecodeSqlQueryID(it *protocol.FrameIterator) (SqlQueryID, error) {
	var id SqlQueryID
	buf, err := openStruct(it, sqlQueryIDFixedSize)
	if err != nil {
		return id, err
	}
	id.MemberIDHigh = DecodeInt64(buf, 0)
	id.MemberIDLow = DecodeInt64(buf, LongSize)
	id.LocalIDHigh = DecodeInt64(buf, 2*LongSize)
	id.LocalIDLow = DecodeInt64(buf, 3*LongSize)
	return id, endStruct(it)
}

// SqlError is a query failure reported by a member.
type SqlError struct {
	Code                int32
	Message             *string
	OriginatingMemberID uuid.UUID
	Suggestion          *string
}

const sqlErrorFixedSize = IntSize + UUIDSize

func EncodeSqlError(msg *protocol.Message, e SqlError) {
	buf := newStructFrame(msg, sqlErrorFixedSize)
	EncodeInt32(buf, 0, e.Code)
	EncodeUUID(buf, IntSize, e.OriginatingMemberID)
	EncodeNullableString(msg, e.Message)
	EncodeNullableString(msg, e.Suggestion)
	msg.Append(protocol.EndStructFrame())
}

func DecodeSqlError(it *protocol.FrameIterator) (SqlError, error) {
	var e SqlError
	buf, err := openStruct(it, sqlErrorFixedSize)
	if err != nil {
		return e, err
	}
	e.Code = DecodeInt32(buf, 0)
	e.OriginatingMemberID = DecodeUUID(buf, IntSize)
	if e.Message, err = DecodeNullableString(it); err != nil {
		return e, err
	}
	if e.Suggestion, err = DecodeNullableString(it); err != nil {
		return e, err
	}
	return e, endStruct(it)
}

func (e SqlError) Error() string {
	if e.Message == nil {
		return fmt.Sprintf("sql error %d", e.Code)
	}
	return fmt.Sprintf("sql error %d: %s", e.Code, *e.Message)
}
