package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/gridwire"
	"github.com/Zereker/gridwire/codec"
	"github.com/Zereker/gridwire/protocol"
)

func capture(t *testing.T, msgs ...*protocol.Message) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString(gridwire.ProtocolPreamble)
	for _, m := range msgs {
		_, err := m.WriteTo(&buf)
		require.NoError(t, err)
	}
	return &buf
}

func TestDump(t *testing.T) {
	ping := codec.EncodeClientPingRequest()
	ping.SetCorrelationID(9)

	put := codec.EncodeMapPutRequest(codec.MapPutRequest{
		Name:  "orders",
		Key:   codec.Data("k"),
		Value: bytes.Repeat([]byte("v"), 500),
	})
	var msgs []*protocol.Message
	msgs = append(msgs, ping)
	for f := range protocol.NewFragmenter(protocol.NewAtomicSequence(40)).Fragment(put, 200) {
		msgs = append(msgs, f)
	}
	require.Greater(t, len(msgs), 2)

	var out bytes.Buffer
	require.NoError(t, dump(capture(t, msgs...), &out, dumpFlags{}))

	text := out.String()
	assert.Contains(t, text, "preamble CP2")
	assert.Contains(t, text, "type=0x000b00 correlation=9")
	assert.Contains(t, text, "fragment=41")
	assert.Contains(t, text, "messages")
	assert.NotContains(t, text, "short first frame")
}

func TestDump_Hex(t *testing.T) {
	msg := codec.EncodeMapGetRequest(codec.MapGetRequest{Name: "abc", Key: codec.Data("key")})

	var out bytes.Buffer
	require.NoError(t, dump(capture(t, msg), &out, dumpFlags{Hex: true}))

	// The map name frame holds "abc".
	assert.Contains(t, out.String(), "61 62 63")
}

func TestDump_Truncated(t *testing.T) {
	buf := capture(t, codec.EncodeClientPingRequest())
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])

	var out bytes.Buffer
	err := dump(truncated, &out, dumpFlags{})
	assert.Error(t, err)
}

func TestDump_MessageCut(t *testing.T) {
	msg := codec.EncodeMapEntrySetRequest("orders")
	buf := capture(t, msg)

	// Drop the final frame, keep the initial one.
	first := msg.FirstFrame().Length() + len(gridwire.ProtocolPreamble)
	var out bytes.Buffer
	err := dump(bytes.NewReader(buf.Bytes()[:first]), &out, dumpFlags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inside a message")
}

func TestDump_MalformedLength(t *testing.T) {
	var out bytes.Buffer
	err := dump(strings.NewReader("\x00\x00\x00\x02\x00\x00"), &out, dumpFlags{})
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}
