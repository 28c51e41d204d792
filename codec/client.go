package codec

import (
	"github.com/google/uuid"

	"github.com/Zereker/gridwire/protocol"
)

// Message types of the client service.
const (
	ClientAuthenticationRequestType         int32 = 0x000100
	ClientAuthenticationResponseType        int32 = 0x000101
	ClientGetDistributedObjectsRequestType  int32 = 0x000800
	ClientGetDistributedObjectsResponseType int32 = 0x000801
	ClientPingRequestType                   int32 = 0x000B00
	ClientPingResponseType                  int32 = 0x000B01
)

// Authentication status codes.
const (
	AuthenticationAuthenticated       byte = 0
	AuthenticationCredentialsFailed   byte = 1
	AuthenticationSerializationFailed byte = 2
	AuthenticationNotAllowedInCluster byte = 3
)

type ClientAuthenticationRequest struct {
	ClusterName          string
	Username             *string
	Password             *string
	UUID                 uuid.UUID
	ClientType           string
	SerializationVersion byte
	ClientVersion        string
	ClientName           string
	Labels               []string
}

const (
	authRequestUUIDOffset          = protocol.RequestInitialFrameSize
	authRequestSerializationOffset = authRequestUUIDOffset + UUIDSize
	authRequestFixedSize           = authRequestSerializationOffset + ByteSize - protocol.RequestInitialFrameSize
)

func EncodeClientAuthenticationRequest(r ClientAuthenticationRequest) *protocol.Message {
	msg, buf := newRequest(ClientAuthenticationRequestType, authRequestFixedSize, true, "Client.Authentication")
	EncodeUUID(buf, authRequestUUIDOffset, r.UUID)
	EncodeByte(buf, authRequestSerializationOffset, r.SerializationVersion)
	EncodeString(msg, r.ClusterName)
	EncodeNullableString(msg, r.Username)
	EncodeNullableString(msg, r.Password)
	EncodeString(msg, r.ClientType)
	EncodeString(msg, r.ClientVersion)
	EncodeString(msg, r.ClientName)
	EncodeList(msg, r.Labels, EncodeString)
	return msg
}

func DecodeClientAuthenticationRequest(msg *protocol.Message) (ClientAuthenticationRequest, error) {
	var r ClientAuthenticationRequest
	it, buf, err := initialFrame(msg, ClientAuthenticationRequestType, protocol.RequestInitialFrameSize+authRequestFixedSize)
	if err != nil {
		return r, err
	}
	r.UUID = DecodeUUID(buf, authRequestUUIDOffset)
	r.SerializationVersion = DecodeByte(buf, authRequestSerializationOffset)
	if r.ClusterName, err = DecodeString(it); err != nil {
		return r, err
	}
	if r.Username, err = DecodeNullableString(it); err != nil {
		return r, err
	}
	if r.Password, err = DecodeNullableString(it); err != nil {
		return r, err
	}
	if r.ClientType, err = DecodeString(it); err != nil {
		return r, err
	}
	if r.ClientVersion, err = DecodeString(it); err != nil {
		return r, err
	}
	if r.ClientName, err = DecodeString(it); err != nil {
		return r, err
	}
	if r.Labels, err = DecodeList(it, DecodeString); err != nil {
		return r, err
	}
	return r, nil
}

type ClientAuthenticationResponse struct {
	Status               byte
	Address              *Address
	MemberUUID           uuid.UUID
	SerializationVersion byte
	ServerVersion        string
	PartitionCount       int32
	ClusterID            uuid.UUID
	FailoverSupported    bool
}

const (
	authResponseStatusOffset         = protocol.ResponseInitialFrameSize
	authResponseMemberUUIDOffset     = authResponseStatusOffset + ByteSize
	authResponseSerializationOffset  = authResponseMemberUUIDOffset + UUIDSize
	authResponsePartitionCountOffset = authResponseSerializationOffset + ByteSize
	authResponseClusterIDOffset      = authResponsePartitionCountOffset + IntSize
	authResponseFailoverOffset       = authResponseClusterIDOffset + UUIDSize
	authResponseFixedSize            = authResponseFailoverOffset + BooleanSize - protocol.ResponseInitialFrameSize
)

func EncodeClientAuthenticationResponse(r ClientAuthenticationResponse) *protocol.Message {
	msg, buf := newResponse(ClientAuthenticationResponseType, authResponseFixedSize)
	EncodeByte(buf, authResponseStatusOffset, r.Status)
	EncodeUUID(buf, authResponseMemberUUIDOffset, r.MemberUUID)
	EncodeByte(buf, authResponseSerializationOffset, r.SerializationVersion)
	EncodeInt32(buf, authResponsePartitionCountOffset, r.PartitionCount)
	EncodeUUID(buf, authResponseClusterIDOffset, r.ClusterID)
	EncodeBool(buf, authResponseFailoverOffset, r.FailoverSupported)
	EncodeNullable(msg, r.Address, EncodeAddress)
	EncodeString(msg, r.ServerVersion)
	return msg
}

func DecodeClientAuthenticationResponse(msg *protocol.Message) (ClientAuthenticationResponse, error) {
	var r ClientAuthenticationResponse
	it, buf, err := initialFrame(msg, ClientAuthenticationResponseType, protocol.ResponseInitialFrameSize+authResponseFixedSize)
	if err != nil {
		return r, err
	}
	r.Status = DecodeByte(buf, authResponseStatusOffset)
	r.MemberUUID = DecodeUUID(buf, authResponseMemberUUIDOffset)
	r.SerializationVersion = DecodeByte(buf, authResponseSerializationOffset)
	r.PartitionCount = DecodeInt32(buf, authResponsePartitionCountOffset)
	r.ClusterID = DecodeUUID(buf, authResponseClusterIDOffset)
	r.FailoverSupported = DecodeBool(buf, authResponseFailoverOffset)
	if r.Address, err = DecodeNullable(it, DecodeAddress); err != nil {
		return r, err
	}
	if r.ServerVersion, err = DecodeString(it); err != nil {
		return r, err
	}
	return r, nil
}

// EncodeClientPingRequest builds a heartbeat. It carries no parameters.
func EncodeClientPingRequest() *protocol.Message {
	msg, _ := newRequest(ClientPingRequestType, 0, true, "Client.Ping")
	return msg
}

func DecodeClientPingRequest(msg *protocol.Message) error {
	_, _, err := initialFrame(msg, ClientPingRequestType, protocol.RequestInitialFrameSize)
	return err
}

func EncodeClientPingResponse() *protocol.Message {
	msg, _ := newResponse(ClientPingResponseType, 0)
	return msg
}

func DecodeClientPingResponse(msg *protocol.Message) error {
	_, _, err := initialFrame(msg, ClientPingResponseType, protocol.ResponseInitialFrameSize)
	return err
}

func EncodeClientGetDistributedObjectsRequest() *protocol.Message {
	msg, _ := newRequest(ClientGetDistributedObjectsRequestType, 0, false, "Client.GetDistributedObjects")
	return msg
}

func EncodeClientGetDistributedObjectsResponse(infos []DistributedObjectInfo) *protocol.Message {
	msg, _ := newResponse(ClientGetDistributedObjectsResponseType, 0)
	EncodeList(msg, infos, EncodeDistributedObjectInfo)
	return msg
}

func DecodeClientGetDistributedObjectsResponse(msg *protocol.Message) ([]DistributedObjectInfo, error) {
	it, _, err := initialFrame(msg, ClientGetDistributedObjectsResponseType, protocol.ResponseInitialFrameSize)
	if err != nil {
		return nil, err
	}
	return DecodeList(it, DecodeDistributedObjectInfo)
}
