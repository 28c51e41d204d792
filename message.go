package gridwire

import (
	"github.com/Zereker/gridwire/protocol"
)

// MessageHandler processes one fully reassembled message.
//
// Handlers run on their own goroutine, so a slow handler never stalls frame
// parsing on the connection. Handlers for different messages may run
// concurrently. A returned error is passed to the OnErrorOption callback.
type MessageHandler func(msg *protocol.Message) error

// dispatch hands msg to the handler without blocking the read loop.
func (c *Conn) dispatch(msg *protocol.Message) {
	c.metrics.IncrementMessagesReceived()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		if err := c.handler(msg); err != nil {
			c.logger.Debug("message handler error", "addr", c.Addr(),
				"type", msg.MessageType(), "correlation_id", msg.CorrelationID(), "error", err)
			if c.opts.onError(err) == Disconnect {
				c.fail(err)
			}
		}
	}()
}
