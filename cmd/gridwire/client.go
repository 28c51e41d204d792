package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/Zereker/gridwire"
	"github.com/Zereker/gridwire/codec"
	"github.com/Zereker/gridwire/protocol"
)

// client pairs requests with responses by correlation id. Events and
// responses nobody waits for go to onEvent.
type client struct {
	conn    *gridwire.Conn
	nextID  atomic.Int64
	onEvent func(*protocol.Message)

	mu      sync.Mutex
	pending map[int64]chan *protocol.Message
}

func dialClient(ctx context.Context, address string, opts ...gridwire.Option) (*client, error) {
	c := &client{pending: make(map[int64]chan *protocol.Message)}

	opts = append(opts, gridwire.OnMessageOption(c.receive))
	conn, err := gridwire.Dial(ctx, address, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// Run drives the connection until ctx is done or it fails.
func (c *client) Run(ctx context.Context) error {
	return c.conn.Run(ctx)
}

func (c *client) Close() error {
	return c.conn.Close()
}

// Invoke sends req and waits for the message with its correlation id.
// Exception responses come back as *codec.RemoteError.
func (c *client) Invoke(ctx context.Context, req *protocol.Message) (*protocol.Message, error) {
	id := c.nextID.Add(1)
	req.SetCorrelationID(id)

	ch := make(chan *protocol.Message, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.forget(id)

	if err := c.conn.WriteBlocking(ctx, req); err != nil {
		return nil, errors.Wrapf(err, "send %s", req.OperationName)
	}

	select {
	case resp := <-ch:
		if resp.IsException() {
			remote, err := codec.DecodeErrors(resp)
			if err != nil {
				return nil, err
			}
			return nil, remote
		}
		return resp, nil
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "await %s", req.OperationName)
	}
}

func (c *client) receive(msg *protocol.Message) error {
	if !msg.IsEvent() {
		c.mu.Lock()
		ch, ok := c.pending[msg.CorrelationID()]
		c.mu.Unlock()
		if ok {
			// A second response for the same id is dropped.
			select {
			case ch <- msg:
			default:
			}
			return nil
		}
	}
	if c.onEvent != nil {
		c.onEvent(msg)
	}
	return nil
}

func (c *client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// authenticate runs the authentication handshake and fails unless the
// member accepted the credentials.
func (c *client) authenticate(ctx context.Context, req codec.ClientAuthenticationRequest) (codec.ClientAuthenticationResponse, error) {
	msg, err := c.Invoke(ctx, codec.EncodeClientAuthenticationRequest(req))
	if err != nil {
		return codec.ClientAuthenticationResponse{}, err
	}
	resp, err := codec.DecodeClientAuthenticationResponse(msg)
	if err != nil {
		return resp, err
	}
	if resp.Status != codec.AuthenticationAuthenticated {
		return resp, errors.Errorf("authentication failed with status %d", resp.Status)
	}
	return resp, nil
}
