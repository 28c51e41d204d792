package codec

import (
	"github.com/Zereker/gridwire/protocol"
)

// Structured values travel as BeginStruct, one frame of fixed-size fields,
// the variable-size fields, then EndStruct. Decoders skip to EndStruct so
// fields appended by newer members are ignored.

// newStructFrame opens a structure and appends its fixed-size field frame.
func newStructFrame(msg *protocol.Message, size int) []byte {
	msg.Append(protocol.BeginStructFrame())
	buf := make([]byte, size)
	msg.Append(protocol.NewFrame(buf, protocol.DefaultFlags))
	return buf
}

// openStruct consumes BeginStruct and the fixed-size field frame.
func openStruct(it *protocol.FrameIterator, size int) ([]byte, error) {
	if err := beginStruct(it); err != nil {
		return nil, err
	}
	f, err := takeFixed(it, size)
	if err != nil {
		return nil, err
	}
	return f.Content, nil
}

// Address is a member network endpoint.
type Address struct {
	Host string
	Port int32
}

const addressFixedSize = IntSize

func EncodeAddress(msg *protocol.Message, a Address) {
	buf := newStructFrame(msg, addressFixedSize)
	EncodeInt32(buf, 0, a.Port)
	EncodeString(msg, a.Host)
	msg.Append(protocol.EndStructFrame())
}

func DecodeAddress(it *protocol.FrameIterator) (Address, error) {
	var a Address
	buf, err := openStruct(it, addressFixedSize)
	if err != nil {
		return a, err
	}
	a.Port = DecodeInt32(buf, 0)
	if a.Host, err = DecodeString(it); err != nil {
		return a, err
	}
	return a, endStruct(it)
}

// StackTraceElement is one frame of a member-side stack trace.
type StackTraceElement struct {
	ClassName  string
	MethodName string
	FileName   *string
	LineNumber int32
}

const stackTraceElementFixedSize = IntSize

func EncodeStackTraceElement(msg *protocol.Message, e StackTraceElement) {
	buf := newStructFrame(msg, stackTraceElementFixedSize)
	EncodeInt32(buf, 0, e.LineNumber)
	EncodeString(msg, e.ClassName)
	EncodeString(msg, e.MethodName)
	EncodeNullableString(msg, e.FileName)
	msg.Append(protocol.EndStructFrame())
}

func DecodeStackTraceElement(it *protocol.FrameIterator) (StackTraceElement, error) {
	var e StackTraceElement
	buf, err := openStruct(it, stackTraceElementFixedSize)
	if err != nil {
		return e, err
	}
	e.LineNumber = DecodeInt32(buf, 0)
	if e.ClassName, err = DecodeString(it); err != nil {
		return e, err
	}
	if e.MethodName, err = DecodeString(it); err != nil {
		return e, err
	}
	if e.FileName, err = DecodeNullableString(it); err != nil {
		return e, err
	}
	return e, endStruct(it)
}

// ErrorHolder is one link of a member-side exception chain.
type ErrorHolder struct {
	ErrorCode          int32
	ClassName          string
	Message            *string
	StackTraceElements []StackTraceElement
}

const errorHolderFixedSize = IntSize

func EncodeErrorHolder(msg *protocol.Message, h ErrorHolder) {
	buf := newStructFrame(msg, errorHolderFixedSize)
	EncodeInt32(buf, 0, h.ErrorCode)
	EncodeString(msg, h.ClassName)
	EncodeNullableString(msg, h.Message)
	EncodeList(msg, h.StackTraceElements, EncodeStackTraceElement)
	msg.Append(protocol.EndStructFrame())
}

func DecodeErrorHolder(it *protocol.FrameIterator) (ErrorHolder, error) {
	var h ErrorHolder
	buf, err := openStruct(it, errorHolderFixedSize)
	if err != nil {
		return h, err
	}
	h.ErrorCode = DecodeInt32(buf, 0)
	if h.ClassName, err = DecodeString(it); err != nil {
		return h, err
	}
	if h.Message, err = DecodeNullableString(it); err != nil {
		return h, err
	}
	if h.StackTraceElements, err = DecodeList(it, DecodeStackTraceElement); err != nil {
		return h, err
	}
	return h, endStruct(it)
}

// DistributedObjectInfo names a distributed object and the service that owns
// it. It has no fixed-size fields.
type DistributedObjectInfo struct {
	ServiceName string
	Name        string
}

func EncodeDistributedObjectInfo(msg *protocol.Message, info DistributedObjectInfo) {
	msg.Append(protocol.BeginStructFrame())
	EncodeString(msg, info.ServiceName)
	EncodeString(msg, info.Name)
	msg.Append(protocol.EndStructFrame())
}

func DecodeDistributedObjectInfo(it *protocol.FrameIterator) (DistributedObjectInfo, error) {
	var info DistributedObjectInfo
	if err := beginStruct(it); err != nil {
		return info, err
	}
	var err error
	if info.ServiceName, err = DecodeString(it); err != nil {
		return info, err
	}
	if info.Name, err = DecodeString(it); err != nil {
		return info, err
	}
	return info, endStruct(it)
}

// EntryView is a map entry together with its bookkeeping statistics.
type EntryView struct {
	Key            Data
	Value          Data
	Cost           int64
	CreationTime   int64
	ExpirationTime int64
	Hits           int64
	LastAccessTime int64
	LastStoredTime int64
	LastUpdateTime int64
	Version        int64
	TTL            int64
	MaxIdle        int64
}

const entryViewFixedSize = 10 * LongSize

func (v *EntryView) stats() []*int64 {
	return []*int64{
		&v.Cost, &v.CreationTime, &v.ExpirationTime, &v.Hits, &v.LastAccessTime,
		&v.LastStoredTime, &v.LastUpdateTime, &v.Version, &v.TTL, &v.MaxIdle,
	}
}

func EncodeEntryView(msg *protocol.Message, v EntryView) {
	buf := newStructFrame(msg, entryViewFixedSize)
	for i, p := range v.stats() {
		EncodeInt64(buf, i*LongSize, *p)
	}
	EncodeData(msg, v.Key)
	EncodeData(msg, v.Value)
	msg.Append(protocol.EndStructFrame())
}

func DecodeEntryView(it *protocol.FrameIterator) (EntryView, error) {
	var v EntryView
	buf, err := openStruct(it, entryViewFixedSize)
	if err != nil {
		return v, err
	}
	for i, p := range v.stats() {
		*p = DecodeInt64(buf, i*LongSize)
	}
	if v.Key, err = DecodeData(it); err != nil {
		return v, err
	}
	if v.Value, err = DecodeData(it); err != nil {
		return v, err
	}
	return v, endStruct(it)
}
