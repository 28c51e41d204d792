package main

import (
	"context"
	"net"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Zereker/gridwire"
	"github.com/Zereker/gridwire/codec"
	"github.com/Zereker/gridwire/protocol"
)

const (
	mapServiceName = "hz:impl:mapService"
	memberVersion  = "5.3.0"
	partitionCount = 271

	// unsupportedOperationCode is reported for message types the member
	// does not implement.
	unsupportedOperationCode int32 = 63
)

var errUnsupportedMessage = errors.New("unsupported message type")

// listener is one entry listener registration.
type listener struct {
	id           uuid.UUID
	conn         *gridwire.Conn
	mapName      string
	includeValue bool
	flags        int32
}

// member is an in-memory grid member. It keeps one map store per map name
// and answers the client, ping and map messages it knows.
type member struct {
	clusterName string
	address     *codec.Address
	uuid        uuid.UUID
	clusterID   uuid.UUID
	opts        []gridwire.Option
	logger      *zap.Logger

	mu        sync.RWMutex
	maps      map[string]map[string]codec.Data
	listeners map[uuid.UUID]*listener
}

func newMember(clusterName string, addr net.Addr, logger *zap.Logger, opts ...gridwire.Option) *member {
	m := &member{
		clusterName: clusterName,
		uuid:        uuid.New(),
		clusterID:   uuid.New(),
		opts:        opts,
		logger:      logger,
		maps:        make(map[string]map[string]codec.Data),
		listeners:   make(map[uuid.UUID]*listener),
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		m.address = &codec.Address{Host: tcp.IP.String(), Port: int32(tcp.Port)}
	}
	return m
}

// Handle serves one accepted client connection until it closes.
func (m *member) Handle(raw *net.TCPConn) {
	var conn *gridwire.Conn
	opts := append([]gridwire.Option{
		gridwire.OnMessageOption(func(msg *protocol.Message) error {
			return m.serve(conn, msg)
		}),
		gridwire.OnErrorOption(func(err error) gridwire.ErrorAction {
			if errors.Is(err, errUnsupportedMessage) {
				return gridwire.Continue
			}
			return gridwire.Disconnect
		}),
	}, m.opts...)

	conn, err := gridwire.NewConn(raw, opts...)
	if err != nil {
		m.logger.Error("new connection", zap.Error(err))
		_ = raw.Close()
		return
	}

	err = conn.Run(context.Background())
	m.dropListeners(conn)
	if err != nil {
		m.logger.Debug("connection ended", zap.Stringer("addr", conn.Addr()), zap.Error(err))
	}
}

func (m *member) serve(conn *gridwire.Conn, msg *protocol.Message) error {
	resp, err := m.respond(conn, msg)
	if err != nil {
		if !errors.Is(err, errUnsupportedMessage) {
			return err
		}
		resp = codec.EncodeErrors(msg.CorrelationID(), []codec.ErrorHolder{{
			ErrorCode: unsupportedOperationCode,
			ClassName: "java.lang.UnsupportedOperationException",
			Message:   ptr(err.Error()),
		}})
		if werr := conn.Write(resp); werr != nil {
			return werr
		}
		return err
	}
	resp.SetCorrelationID(msg.CorrelationID())
	return conn.Write(resp)
}

func (m *member) respond(conn *gridwire.Conn, msg *protocol.Message) (*protocol.Message, error) {
	switch msg.MessageType() {
	case codec.ClientAuthenticationRequestType:
		req, err := codec.DecodeClientAuthenticationRequest(msg)
		if err != nil {
			return nil, err
		}
		return m.authenticate(req), nil

	case codec.ClientPingRequestType:
		if err := codec.DecodeClientPingRequest(msg); err != nil {
			return nil, err
		}
		return codec.EncodeClientPingResponse(), nil

	case codec.ClientGetDistributedObjectsRequestType:
		return codec.EncodeClientGetDistributedObjectsResponse(m.objects()), nil

	case codec.MapPutRequestType:
		req, err := codec.DecodeMapPutRequest(msg)
		if err != nil {
			return nil, err
		}
		return codec.EncodeMapPutResponse(m.put(req.Name, req.Key, req.Value)), nil

	case codec.MapGetRequestType:
		req, err := codec.DecodeMapGetRequest(msg)
		if err != nil {
			return nil, err
		}
		return codec.EncodeMapGetResponse(m.get(req.Name, req.Key)), nil

	case codec.MapEntrySetRequestType:
		name, err := codec.DecodeMapEntrySetRequest(msg)
		if err != nil {
			return nil, err
		}
		return codec.EncodeMapEntrySetResponse(m.entries(name)), nil

	case codec.MapAddEntryListenerRequestType:
		req, err := codec.DecodeMapAddEntryListenerRequest(msg)
		if err != nil {
			return nil, err
		}
		return codec.EncodeMapAddEntryListenerResponse(m.addListener(conn, req)), nil
	}

	return nil, errors.Wrapf(errUnsupportedMessage, "%#06x", msg.MessageType())
}

func (m *member) authenticate(req codec.ClientAuthenticationRequest) *protocol.Message {
	resp := codec.ClientAuthenticationResponse{
		Status:               codec.AuthenticationAuthenticated,
		MemberUUID:           m.uuid,
		SerializationVersion: req.SerializationVersion,
		ServerVersion:        memberVersion,
		PartitionCount:       partitionCount,
		ClusterID:            m.clusterID,
	}
	if req.ClusterName != m.clusterName {
		resp.Status = codec.AuthenticationCredentialsFailed
	}
	resp.Address = m.address

	m.logger.Info("client authenticated",
		zap.String("client", req.ClientName),
		zap.String("cluster", req.ClusterName),
		zap.Uint8("status", resp.Status))
	return codec.EncodeClientAuthenticationResponse(resp)
}

func (m *member) objects() []codec.DistributedObjectInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]codec.DistributedObjectInfo, 0, len(m.maps))
	for name := range m.maps {
		infos = append(infos, codec.DistributedObjectInfo{ServiceName: mapServiceName, Name: name})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (m *member) put(name string, key, value codec.Data) codec.Data {
	m.mu.Lock()
	store, ok := m.maps[name]
	if !ok {
		store = make(map[string]codec.Data)
		m.maps[name] = store
	}
	previous := store[string(key)]
	store[string(key)] = value
	m.mu.Unlock()

	event := codec.EntryEvent{
		Key:                     key,
		Value:                   value,
		OldValue:                previous,
		EventType:               codec.EntryAdded,
		MemberUUID:              m.uuid,
		NumberOfAffectedEntries: 1,
	}
	if previous != nil {
		event.EventType = codec.EntryUpdated
	}
	m.publish(name, event)
	return previous
}

func (m *member) get(name string, key codec.Data) codec.Data {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maps[name][string(key)]
}

func (m *member) entries(name string) []codec.Entry[codec.Data, codec.Data] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	store := m.maps[name]
	keys := make([]string, 0, len(store))
	for k := range store {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]codec.Entry[codec.Data, codec.Data], 0, len(keys))
	for _, k := range keys {
		out = append(out, codec.Entry[codec.Data, codec.Data]{Key: codec.Data(k), Value: store[k]})
	}
	return out
}

func (m *member) addListener(conn *gridwire.Conn, req codec.MapAddEntryListenerRequest) uuid.UUID {
	l := &listener{
		id:           uuid.New(),
		conn:         conn,
		mapName:      req.Name,
		includeValue: req.IncludeValue,
		flags:        req.ListenerFlags,
	}

	m.mu.Lock()
	m.listeners[l.id] = l
	m.mu.Unlock()
	return l.id
}

// publish pushes event to every listener of the map that asked for its type.
func (m *member) publish(name string, event codec.EntryEvent) {
	m.mu.RLock()
	var targets []*listener
	for _, l := range m.listeners {
		if l.mapName == name && l.flags&event.EventType != 0 {
			targets = append(targets, l)
		}
	}
	m.mu.RUnlock()

	for _, l := range targets {
		e := event
		if !l.includeValue {
			e.Value, e.OldValue = nil, nil
		}
		if err := l.conn.Write(codec.EncodeEntryEvent(e)); err != nil {
			m.logger.Warn("event dropped", zap.Stringer("listener", l.id), zap.Error(err))
		}
	}
}

func (m *member) dropListeners(conn *gridwire.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.listeners {
		if l.conn == conn {
			delete(m.listeners, id)
		}
	}
}

func ptr[T any](v T) *T { return &v }
