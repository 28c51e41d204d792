package codec

import (
	"github.com/google/uuid"

	"github.com/Zereker/gridwire/protocol"
)

// Message types of the map service.
const (
	MapPutRequestType               int32 = 0x010100
	MapPutResponseType              int32 = 0x010101
	MapGetRequestType               int32 = 0x010200
	MapGetResponseType              int32 = 0x010201
	MapAddEntryListenerRequestType  int32 = 0x011900
	MapAddEntryListenerResponseType int32 = 0x011901
	MapEntryEventType               int32 = 0x011902
	MapEntrySetRequestType          int32 = 0x012500
	MapEntrySetResponseType         int32 = 0x012501
)

type MapPutRequest struct {
	Name     string
	Key      Data
	Value    Data
	ThreadID int64
	TTL      int64
}

const (
	mapPutThreadIDOffset = protocol.RequestInitialFrameSize
	mapPutTTLOffset      = mapPutThreadIDOffset + LongSize
	mapPutFixedSize      = 2 * LongSize
)

func EncodeMapPutRequest(r MapPutRequest) *protocol.Message {
	msg, buf := newRequest(MapPutRequestType, mapPutFixedSize, false, "Map.Put")
	EncodeInt64(buf, mapPutThreadIDOffset, r.ThreadID)
	EncodeInt64(buf, mapPutTTLOffset, r.TTL)
	EncodeString(msg, r.Name)
	EncodeData(msg, r.Key)
	EncodeData(msg, r.Value)
	return msg
}

func DecodeMapPutRequest(msg *protocol.Message) (MapPutRequest, error) {
	var r MapPutRequest
	it, buf, err := initialFrame(msg, MapPutRequestType, protocol.RequestInitialFrameSize+mapPutFixedSize)
	if err != nil {
		return r, err
	}
	r.ThreadID = DecodeInt64(buf, mapPutThreadIDOffset)
	r.TTL = DecodeInt64(buf, mapPutTTLOffset)
	if r.Name, err = DecodeString(it); err != nil {
		return r, err
	}
	if r.Key, err = DecodeData(it); err != nil {
		return r, err
	}
	if r.Value, err = DecodeData(it); err != nil {
		return r, err
	}
	return r, nil
}

// EncodeMapPutResponse carries the previous value, nil when the key was
// absent.
func EncodeMapPutResponse(previous Data) *protocol.Message {
	msg, _ := newResponse(MapPutResponseType, 0)
	EncodeNullableData(msg, previous)
	return msg
}

func DecodeMapPutResponse(msg *protocol.Message) (Data, error) {
	it, _, err := initialFrame(msg, MapPutResponseType, protocol.ResponseInitialFrameSize)
	if err != nil {
		return nil, err
	}
	return DecodeNullableData(it)
}

type MapGetRequest struct {
	Name     string
	Key      Data
	ThreadID int64
}

const mapGetThreadIDOffset = protocol.RequestInitialFrameSize

func EncodeMapGetRequest(r MapGetRequest) *protocol.Message {
	msg, buf := newRequest(MapGetRequestType, LongSize, true, "Map.Get")
	EncodeInt64(buf, mapGetThreadIDOffset, r.ThreadID)
	EncodeString(msg, r.Name)
	EncodeData(msg, r.Key)
	return msg
}

func DecodeMapGetRequest(msg *protocol.Message) (MapGetRequest, error) {
	var r MapGetRequest
	it, buf, err := initialFrame(msg, MapGetRequestType, protocol.RequestInitialFrameSize+LongSize)
	if err != nil {
		return r, err
	}
	r.ThreadID = DecodeInt64(buf, mapGetThreadIDOffset)
	if r.Name, err = DecodeString(it); err != nil {
		return r, err
	}
	if r.Key, err = DecodeData(it); err != nil {
		return r, err
	}
	return r, nil
}

func EncodeMapGetResponse(value Data) *protocol.Message {
	msg, _ := newResponse(MapGetResponseType, 0)
	EncodeNullableData(msg, value)
	return msg
}

func DecodeMapGetResponse(msg *protocol.Message) (Data, error) {
	it, _, err := initialFrame(msg, MapGetResponseType, protocol.ResponseInitialFrameSize)
	if err != nil {
		return nil, err
	}
	return DecodeNullableData(it)
}

func EncodeMapEntrySetRequest(name string) *protocol.Message {
	msg, _ := newRequest(MapEntrySetRequestType, 0, true, "Map.EntrySet")
	EncodeString(msg, name)
	return msg
}

func DecodeMapEntrySetRequest(msg *protocol.Message) (string, error) {
	it, _, err := initialFrame(msg, MapEntrySetRequestType, protocol.RequestInitialFrameSize)
	if err != nil {
		return "", err
	}
	return DecodeString(it)
}

func EncodeMapEntrySetResponse(entries []Entry[Data, Data]) *protocol.Message {
	msg, _ := newResponse(MapEntrySetResponseType, 0)
	EncodeEntryList(msg, entries, EncodeData, EncodeData)
	return msg
}

func DecodeMapEntrySetResponse(msg *protocol.Message) ([]Entry[Data, Data], error) {
	it, _, err := initialFrame(msg, MapEntrySetResponseType, protocol.ResponseInitialFrameSize)
	if err != nil {
		return nil, err
	}
	return DecodeEntryList(it, DecodeData, DecodeData)
}

// Entry event kinds, usable as a listener flags mask.
const (
	EntryAdded   int32 = 1 << 0
	EntryRemoved int32 = 1 << 1
	EntryUpdated int32 = 1 << 2
	EntryEvicted int32 = 1 << 3
	EntryExpired int32 = 1 << 4
	MapEvicted   int32 = 1 << 5
	MapCleared   int32 = 1 << 6
	EntryMerged  int32 = 1 << 8
	EntryLoaded  int32 = 1 << 10
)

type MapAddEntryListenerRequest struct {
	Name          string
	IncludeValue  bool
	ListenerFlags int32
	LocalOnly     bool
}

const (
	addEntryListenerIncludeValueOffset = protocol.RequestInitialFrameSize
	addEntryListenerFlagsOffset        = addEntryListenerIncludeValueOffset + BooleanSize
	addEntryListenerLocalOnlyOffset    = addEntryListenerFlagsOffset + IntSize
	addEntryListenerFixedSize          = BooleanSize + IntSize + BooleanSize

	addEntryListenerResponseIDOffset = protocol.ResponseInitialFrameSize
)

func EncodeMapAddEntryListenerRequest(r MapAddEntryListenerRequest) *protocol.Message {
	msg, buf := newRequest(MapAddEntryListenerRequestType, addEntryListenerFixedSize, false, "Map.AddEntryListener")
	EncodeBool(buf, addEntryListenerIncludeValueOffset, r.IncludeValue)
	EncodeInt32(buf, addEntryListenerFlagsOffset, r.ListenerFlags)
	EncodeBool(buf, addEntryListenerLocalOnlyOffset, r.LocalOnly)
	EncodeString(msg, r.Name)
	return msg
}

func DecodeMapAddEntryListenerRequest(msg *protocol.Message) (MapAddEntryListenerRequest, error) {
	var r MapAddEntryListenerRequest
	it, buf, err := initialFrame(msg, MapAddEntryListenerRequestType, protocol.RequestInitialFrameSize+addEntryListenerFixedSize)
	if err != nil {
		return r, err
	}
	r.IncludeValue = DecodeBool(buf, addEntryListenerIncludeValueOffset)
	r.ListenerFlags = DecodeInt32(buf, addEntryListenerFlagsOffset)
	r.LocalOnly = DecodeBool(buf, addEntryListenerLocalOnlyOffset)
	if r.Name, err = DecodeString(it); err != nil {
		return r, err
	}
	return r, nil
}

// EncodeMapAddEntryListenerResponse carries the id of the registration.
func EncodeMapAddEntryListenerResponse(registrationID uuid.UUID) *protocol.Message {
	msg, buf := newResponse(MapAddEntryListenerResponseType, UUIDSize)
	EncodeUUID(buf, addEntryListenerResponseIDOffset, registrationID)
	return msg
}

func DecodeMapAddEntryListenerResponse(msg *protocol.Message) (uuid.UUID, error) {
	_, buf, err := initialFrame(msg, MapAddEntryListenerResponseType, protocol.ResponseInitialFrameSize+UUIDSize)
	if err != nil {
		return uuid.Nil, err
	}
	return DecodeUUID(buf, addEntryListenerResponseIDOffset), nil
}

// EntryEvent is pushed to a registered entry listener. Value fields are nil
// when absent or when the listener did not ask for values.
type EntryEvent struct {
	Key                     Data
	Value                   Data
	OldValue                Data
	MergingValue            Data
	EventType               int32
	MemberUUID              uuid.UUID
	NumberOfAffectedEntries int32
}

const (
	entryEventTypeOffset     = protocol.EventInitialFrameSize
	entryEventUUIDOffset     = entryEventTypeOffset + IntSize
	entryEventAffectedOffset = entryEventUUIDOffset + UUIDSize
	entryEventFixedSize      = IntSize + UUIDSize + IntSize
)

func EncodeEntryEvent(e EntryEvent) *protocol.Message {
	msg, buf := newEvent(MapEntryEventType, entryEventFixedSize)
	EncodeInt32(buf, entryEventTypeOffset, e.EventType)
	EncodeUUID(buf, entryEventUUIDOffset, e.MemberUUID)
	EncodeInt32(buf, entryEventAffectedOffset, e.NumberOfAffectedEntries)
	EncodeNullableData(msg, e.Key)
	EncodeNullableData(msg, e.Value)
	EncodeNullableData(msg, e.OldValue)
	EncodeNullableData(msg, e.MergingValue)
	return msg
}

func DecodeEntryEvent(msg *protocol.Message) (EntryEvent, error) {
	var e EntryEvent
	it, buf, err := initialFrame(msg, MapEntryEventType, protocol.EventInitialFrameSize+entryEventFixedSize)
	if err != nil {
		return e, err
	}
	e.EventType = DecodeInt32(buf, entryEventTypeOffset)
	e.MemberUUID = DecodeUUID(buf, entryEventUUIDOffset)
	e.NumberOfAffectedEntries = DecodeInt32(buf, entryEventAffectedOffset)
	for _, p := range []*Data{&e.Key, &e.Value, &e.OldValue, &e.MergingValue} {
		if *p, err = DecodeNullableData(it); err != nil {
			return e, err
		}
	}
	return e, nil
}
