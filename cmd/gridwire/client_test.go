package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/gridwire/codec"
	"github.com/Zereker/gridwire/protocol"
)

func TestClient_DuplicateResponseDoesNotBlock(t *testing.T) {
	c := &client{pending: make(map[int64]chan *protocol.Message)}
	ch := make(chan *protocol.Message, 1)
	c.pending[3] = ch

	response := func() *protocol.Message {
		msg := codec.EncodeClientPingResponse()
		msg.SetCorrelationID(3)
		return msg
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, c.receive(response()))
		assert.NoError(t, c.receive(response()))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("receive blocked on a second response")
	}

	require.Len(t, ch, 1)
	assert.Equal(t, int64(3), (<-ch).CorrelationID())
}
