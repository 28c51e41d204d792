package codec

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/gridwire/protocol"
)

func TestClientAuthentication_Request(t *testing.T) {
	req := ClientAuthenticationRequest{
		ClusterName:          "dev",
		Username:             ptr("admin"),
		UUID:                 uuid.New(),
		ClientType:           "GOO",
		SerializationVersion: 1,
		ClientVersion:        "5.3.0",
		ClientName:           "gridwire-1",
		Labels:               []string{"blue", "edge"},
	}
	msg := EncodeClientAuthenticationRequest(req)

	assert.Equal(t, ClientAuthenticationRequestType, msg.MessageType())
	assert.Equal(t, int32(-1), msg.PartitionID())
	assert.True(t, msg.IsUnfragmented())
	assert.True(t, msg.Retryable)
	assert.Equal(t, "Client.Authentication", msg.OperationName)
	assert.Len(t, msg.FirstFrame().Content, protocol.RequestInitialFrameSize+UUIDSize+ByteSize)

	got, err := DecodeClientAuthenticationRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestClientAuthentication_Response(t *testing.T) {
	resp := ClientAuthenticationResponse{
		Status:               AuthenticationAuthenticated,
		Address:              &Address{Host: "10.0.0.5", Port: 5701},
		MemberUUID:           uuid.New(),
		SerializationVersion: 1,
		ServerVersion:        "5.3.2",
		PartitionCount:       271,
		ClusterID:            uuid.New(),
		FailoverSupported:    true,
	}
	msg := EncodeClientAuthenticationResponse(resp)
	assert.Equal(t, byte(0), protocol.ReadBackupAcks(msg.FirstFrame()))

	got, err := DecodeClientAuthenticationResponse(msg)
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestDecode_WrongMessageType(t *testing.T) {
	_, err := DecodeClientAuthenticationResponse(EncodeClientPingResponse())
	assert.ErrorIs(t, err, ErrUnexpectedMessageType)
}

func TestClientPing(t *testing.T) {
	req := EncodeClientPingRequest()
	assert.Equal(t, 1, req.FrameCount())
	assert.NoError(t, DecodeClientPingRequest(req))
	assert.NoError(t, DecodeClientPingResponse(EncodeClientPingResponse()))
}

func TestClientGetDistributedObjects(t *testing.T) {
	infos := []DistributedObjectInfo{
		{ServiceName: "hz:impl:mapService", Name: "orders"},
		{ServiceName: "hz:impl:queueService", Name: "jobs"},
	}
	got, err := DecodeClientGetDistributedObjectsResponse(EncodeClientGetDistributedObjectsResponse(infos))
	require.NoError(t, err)
	assert.Equal(t, infos, got)

	assert.Equal(t, ClientGetDistributedObjectsRequestType, EncodeClientGetDistributedObjectsRequest().MessageType())
}

func TestMapPut(t *testing.T) {
	req := MapPutRequest{Name: "orders", Key: Data{1}, Value: Data{2, 3}, ThreadID: 17, TTL: -1}
	msg := EncodeMapPutRequest(req)

	content := msg.FirstFrame().Content
	assert.Equal(t, int64(17), DecodeInt64(content, 16))
	assert.Equal(t, int64(-1), DecodeInt64(content, 24))

	got, err := DecodeMapPutRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, req, got)

	prev, err := DecodeMapPutResponse(EncodeMapPutResponse(nil))
	require.NoError(t, err)
	assert.Nil(t, prev)

	prev, err = DecodeMapPutResponse(EncodeMapPutResponse(Data{9}))
	require.NoError(t, err)
	assert.Equal(t, Data{9}, prev)
}

func TestMapGet(t *testing.T) {
	req := MapGetRequest{Name: "orders", Key: Data{1, 2}, ThreadID: 3}
	got, err := DecodeMapGetRequest(EncodeMapGetRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req, got)

	value, err := DecodeMapGetResponse(EncodeMapGetResponse(Data{4}))
	require.NoError(t, err)
	assert.Equal(t, Data{4}, value)
}

func TestMapEntrySet(t *testing.T) {
	name, err := DecodeMapEntrySetRequest(EncodeMapEntrySetRequest("orders"))
	require.NoError(t, err)
	assert.Equal(t, "orders", name)

	entries := []Entry[Data, Data]{{Key: Data{1}, Value: Data{2}}, {Key: Data{3}, Value: Data{}}}
	got, err := DecodeMapEntrySetResponse(EncodeMapEntrySetResponse(entries))
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestMapAddEntryListener(t *testing.T) {
	req := MapAddEntryListenerRequest{Name: "orders", IncludeValue: true, ListenerFlags: EntryAdded | EntryUpdated, LocalOnly: true}
	got, err := DecodeMapAddEntryListenerRequest(EncodeMapAddEntryListenerRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req, got)

	id := uuid.New()
	gotID, err := DecodeMapAddEntryListenerResponse(EncodeMapAddEntryListenerResponse(id))
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
}

func TestEntryEvent(t *testing.T) {
	e := EntryEvent{
		Key:                     Data{1},
		Value:                   Data{2},
		EventType:               EntryUpdated,
		MemberUUID:              uuid.New(),
		NumberOfAffectedEntries: 1,
	}
	msg := EncodeEntryEvent(e)
	assert.True(t, msg.IsEvent())
	assert.Len(t, msg.FirstFrame().Content, protocol.EventInitialFrameSize+IntSize+UUIDSize+IntSize)

	got, err := DecodeEntryEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestSqlFetch(t *testing.T) {
	req := SqlFetchRequest{QueryID: SqlQueryID{1, 2, 3, 4}, CursorBufferSize: 4096}
	gotReq, err := DecodeSqlFetchRequest(EncodeSqlFetchRequest(req))
	require.NoError(t, err)
	assert.Equal(t, req, gotReq)

	resp := SqlFetchResponse{RowPage: &SqlPage{
		Last:    true,
		Columns: []SqlColumn{{Type: ColumnBigint, Values: []any{int64(1), nil}}},
	}}
	msg, err := EncodeSqlFetchResponse(resp)
	require.NoError(t, err)
	gotResp, err := DecodeSqlFetchResponse(msg)
	require.NoError(t, err)
	assert.Equal(t, resp, gotResp)

	failed := SqlFetchResponse{Error: &SqlError{Code: 1, Message: ptr("cancelled")}}
	msg, err = EncodeSqlFetchResponse(failed)
	require.NoError(t, err)
	gotResp, err = DecodeSqlFetchResponse(msg)
	require.NoError(t, err)
	assert.Nil(t, gotResp.RowPage)
	assert.Equal(t, failed.Error, gotResp.Error)
}

func TestErrors(t *testing.T) {
	holders := []ErrorHolder{
		{ErrorCode: 1, ClassName: "Outer", Message: ptr("wrapped"), StackTraceElements: []StackTraceElement{}},
		{ErrorCode: 2, ClassName: "Inner", StackTraceElements: []StackTraceElement{}},
	}
	msg := EncodeErrors(99, holders)
	require.True(t, msg.IsException())
	assert.Equal(t, int64(99), msg.CorrelationID())

	remote, err := DecodeErrors(msg)
	require.NoError(t, err)
	assert.Equal(t, holders, remote.Holders)
	assert.Equal(t, "Outer (code 1): wrapped: caused by Inner (code 2)", remote.Error())
}

func TestCodecs_SurviveFragmentation(t *testing.T) {
	big := make(Data, 4000)
	for i := range big {
		big[i] = byte(i)
	}
	req := MapPutRequest{Name: "blobs", Key: Data{1}, Value: big, ThreadID: 1}
	msg := EncodeMapPutRequest(req)

	fragments := 0
	var whole *protocol.Message
	for f := range protocol.NewFragmenter(protocol.NewAtomicSequence(0)).Fragment(msg, 1024) {
		fragments++
		data := f.FirstFrame().Next()
		if whole == nil {
			var err error
			whole, err = protocol.NewMessageFromChain(data, f.LastFrame(), false)
			require.NoError(t, err)
			continue
		}
		require.NoError(t, whole.AppendFragment(data, f.LastFrame(), false))
	}
	assert.Equal(t, 2, fragments)

	got, err := DecodeMapPutRequest(whole)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}
