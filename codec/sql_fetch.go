package codec

import (
	"github.com/Zereker/gridwire/protocol"
)

const (
	SqlFetchRequestType  int32 = 0x210500
	SqlFetchResponseType int32 = 0x210501
)

type SqlFetchRequest struct {
	QueryID          SqlQueryID
	CursorBufferSize int32
}

const sqlFetchCursorBufferSizeOffset = protocol.RequestInitialFrameSize

func EncodeSqlFetchRequest(r SqlFetchRequest) *protocol.Message {
	msg, buf := newRequest(SqlFetchRequestType, IntSize, false, "Sql.Fetch")
	EncodeInt32(buf, sqlFetchCursorBufferSizeOffset, r.CursorBufferSize)
	EncodeSqlQueryID(msg, r.QueryID)
	return msg
}

func DecodeSqlFetchRequest(msg *protocol.Message) (SqlFetchRequest, error) {
	var r SqlFetchRequest
	it, buf, err := initialFrame(msg, SqlFetchRequestType, protocol.RequestInitialFrameSize+IntSize)
	if err != nil {
		return r, err
	}
	r.CursorBufferSize = DecodeInt32(buf, sqlFetchCursorBufferSizeOffset)
	if r.QueryID, err = DecodeSqlQueryID(it); err != nil {
		return r, err
	}
	return r, nil
}

// SqlFetchResponse holds either the next page of rows or the error that
// ended the query.
type SqlFetchResponse struct {
	RowPage *SqlPage
	Error   *SqlError
}

func EncodeSqlFetchResponse(r SqlFetchResponse) (*protocol.Message, error) {
	msg, _ := newResponse(SqlFetchResponseType, 0)
	if r.RowPage == nil {
		msg.Append(protocol.NullFrame())
	} else if err := EncodeSqlPage(msg, *r.RowPage); err != nil {
		return nil, err
	}
	EncodeNullable(msg, r.Error, EncodeSqlError)
	return msg, nil
}

func DecodeSqlFetchResponse(msg *protocol.Message) (SqlFetchResponse, error) {
	var r SqlFetchResponse
	it, _, err := initialFrame(msg, SqlFetchResponseType, protocol.ResponseInitialFrameSize)
	if err != nil {
		return r, err
	}
	if r.RowPage, err = DecodeNullable(it, DecodeSqlPage); err != nil {
		return r, err
	}
	if r.Error, err = DecodeNullable(it, DecodeSqlError); err != nil {
		return r, err
	}
	return r, nil
}
