// Package gridwire is the connection layer of a data grid client.
//
// A Conn moves protocol.Message values over a stream socket. Inbound bytes
// are cut into frames, frames are linked into messages, fragments are
// reassembled, and each whole message is handed to a MessageHandler on its
// own goroutine. Outbound messages are queued to a single write loop that
// fragments large messages and writes them frame by frame.
package gridwire

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/gridwire/protocol"
)

// Errors returned by connection operations.
var (
	// ErrInvalidOnMessage is returned by Run when no message handler is set.
	ErrInvalidOnMessage = errors.New("invalid on message callback")
	// ErrAlreadyActive is returned when the message handler is changed after
	// Run has started.
	ErrAlreadyActive = errors.New("connection already active")
	// ErrFrameTooLarge is returned when the peer announces a frame longer
	// than the configured maximum.
	ErrFrameTooLarge = errors.New("frame too large")
)

// ErrConnectionClosed is returned when operating on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Conn is one client connection to a grid member.
// It owns the socket, the receive state machine and the fragment
// reassembly state, and runs the read and write loops.
type Conn struct {
	rawConn net.Conn
	writer  *bufio.Writer
	logger  Logger
	metrics Metrics

	opts options

	decoder     *frameDecoder
	reassembler *reassembler
	fragmenter  *protocol.Fragmenter

	mu      sync.Mutex
	handler MessageHandler
	active  bool

	sendMsg  chan *protocol.Message
	done     chan struct{}
	closed   atomic.Bool
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	failOnce sync.Once
	failErr  error
}

// Default configuration values.
const (
	// defaultBufferSize is the default size of the send queue.
	defaultBufferSize = 64
	// defaultReadBufferSize is the default number of bytes per socket read.
	defaultReadBufferSize = 32 * 1024
	// defaultMaxFrameLength is the default largest accepted frame (16MB).
	defaultMaxFrameLength = 16 * 1024 * 1024
	// defaultFragmentSize is the default outbound fragment size (128KB).
	defaultFragmentSize = 128 * 1024
	// defaultHeartbeat is the default heartbeat interval.
	defaultHeartbeat = 30 * time.Second
)

// NewConn creates a new connection over an established socket.
// It applies the provided options and fills in defaults. The client
// preamble must already have been exchanged; Dial does that.
func NewConn(conn net.Conn, opt ...Option) (*Conn, error) {
	if conn == nil {
		return nil, errors.New("nil net.Conn")
	}

	var opts options
	for _, o := range opt {
		o(&opts)
	}

	err := checkOptions(&opts)
	if err != nil {
		return nil, err
	}

	return newConnWithOptions(conn, opts), nil
}

// checkOptions validates and sets default values for connection options.
func checkOptions(opts *options) error {
	if opts.bufferSize <= 0 {
		opts.bufferSize = defaultBufferSize
	}

	if opts.readBufferSize <= 0 {
		opts.readBufferSize = defaultReadBufferSize
	}

	if opts.maxFrameLength <= 0 {
		opts.maxFrameLength = defaultMaxFrameLength
	}

	if opts.maxFrameLength < protocol.SizeOfFrameLengthAndFlags {
		return errors.Errorf("max frame length %d is shorter than a frame header", opts.maxFrameLength)
	}

	if opts.fragmentSize == 0 {
		opts.fragmentSize = defaultFragmentSize
	}

	if opts.heartbeat <= 0 {
		opts.heartbeat = defaultHeartbeat
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Disconnect }
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	if opts.metrics == nil {
		opts.metrics = NewDefaultMetrics()
	}

	return nil
}

// newConnWithOptions creates a new Conn with the given options.
func newConnWithOptions(c net.Conn, opts options) *Conn {
	return &Conn{
		rawConn:     c,
		writer:      bufio.NewWriter(c),
		logger:      opts.logger,
		metrics:     opts.metrics,
		opts:        opts,
		decoder:     newFrameDecoder(opts.maxFrameLength, opts.metrics),
		reassembler: newReassembler(opts.logger, opts.metrics),
		fragmenter:  protocol.NewFragmenter(opts.sequence),
		handler:     opts.onMessage,
		sendMsg:     make(chan *protocol.Message, opts.bufferSize),
		done:        make(chan struct{}),
	}
}

// SetMessageHandler installs the handler for inbound messages. It fails
// with ErrAlreadyActive once Run has started.
func (c *Conn) SetMessageHandler(h MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return ErrAlreadyActive
	}
	c.handler = h
	return nil
}

// Run starts the connection's read and write loops.
// It blocks until an error occurs, a handler asks to disconnect, or the
// context is canceled. The connection is closed when Run returns, after
// every dispatched handler has finished.
func (c *Conn) Run(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	if c.handler == nil {
		c.mu.Unlock()
		return ErrInvalidOnMessage
	}
	c.active = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.logger.Info("connection established", "addr", c.Addr())
	c.logger.Debug("connection options", "addr", c.Addr(),
		"buffer_size", c.opts.bufferSize,
		"max_frame_length", c.opts.maxFrameLength,
		"fragment_size", c.opts.fragmentSize,
		"heartbeat", c.opts.heartbeat)

	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readLoop(child)
	})

	group.Go(func() error {
		return c.writeLoop(child)
	})

	group.Go(func() error {
		// Unblocks the read loop, which may be waiting on the socket.
		<-child.Done()
		c.closeConn()
		return nil
	})

	err := group.Wait()
	c.closeConn()
	c.inflight.Wait()

	if c.failErr != nil {
		err = c.failErr
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Info("connection closed with error", "addr", c.Addr(), "error", err)
	} else {
		c.logger.Info("connection closed", "addr", c.Addr())
	}

	return err
}

// Close gracefully closes the connection.
// It cancels the context and closes the underlying socket.
// Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}
	close(c.done)

	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return c.rawConn.Close()
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Metrics returns the metrics sink the connection counts into.
func (c *Conn) Metrics() Metrics {
	return c.metrics
}

// ErrBufferFull is returned when the send queue is full and cannot accept more messages.
// This error indicates backpressure - the member is not consuming messages fast enough.
// Recommended handling strategies:
//   - Fail the invocation and let the caller retry
//   - Use WriteBlocking or WriteTimeout to wait for queue space
//   - Implement application-level flow control
var ErrBufferFull = errors.New("send buffer full")

// Write queues a message without blocking (fire-and-forget).
// The write loop fragments it if needed and sends its frames in order.
//
// Returns:
//   - nil: message was successfully queued (not yet sent)
//   - ErrBufferFull: send queue is full, message was NOT queued
//   - ErrConnectionClosed: connection is closed
//
// The message must not be modified after it is queued.
func (c *Conn) Write(msg *protocol.Message) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendMsg <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

// WriteBlocking queues a message, blocking until there is room in the queue,
// the context is canceled, or the connection closes.
//
// Returns:
//   - nil: message was successfully queued
//   - context.Canceled or context.DeadlineExceeded: context was canceled
//   - ErrConnectionClosed: connection is closed
func (c *Conn) WriteBlocking(ctx context.Context, msg *protocol.Message) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendMsg <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrConnectionClosed
	}
}

// WriteTimeout queues a message, waiting at most timeout for room in the
// queue.
//
// Returns:
//   - nil: message was successfully queued
//   - ErrBufferFull: timeout expired before message could be queued
//   - ErrConnectionClosed: connection is closed
func (c *Conn) WriteTimeout(msg *protocol.Message, timeout time.Duration) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c.sendMsg <- msg:
		return nil
	case <-timer.C:
		return ErrBufferFull
	case <-c.done:
		return ErrConnectionClosed
	}
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.rawConn.RemoteAddr()
}

// readLoop feeds socket reads to the frame decoder until the context is
// canceled or the stream fails. Framing errors always end the loop since
// the stream cannot be resynchronized.
func (c *Conn) readLoop(ctx context.Context) error {
	buf := make([]byte, c.opts.readBufferSize)
	emit := func(msg *protocol.Message) {
		c.reassembler.Add(msg, c.dispatch)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.heartbeat * 2))

		n, err := c.rawConn.Read(buf)
		if n > 0 {
			c.metrics.IncrementBytesReceived(int64(n))
			if ferr := c.decoder.Feed(buf[:n], emit); ferr != nil {
				c.logger.Warn("malformed stream", "addr", c.Addr(), "error", ferr)
				return ferr
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Debug("read error", "addr", c.Addr(), "error", err)
			// A closed stream never recovers, whatever onError says.
			if c.opts.onError(err) == Disconnect || errors.Is(err, io.EOF) {
				return err
			}
		}
	}
}

// writeLoop sends queued messages one at a time, so frames of different
// messages never interleave on the wire.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.sendMsg:
			if err := c.write(msg); err != nil {
				return err
			}
		}
	}
}

// write fragments msg if needed and writes every fragment, then flushes.
// If an error occurs and onError returns Disconnect, the error is propagated.
// Otherwise, the message is dropped and writing continues.
func (c *Conn) write(msg *protocol.Message) error {
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.heartbeat * 2))

	var err error
	for fragment := range c.fragmenter.Fragment(msg, c.opts.fragmentSize) {
		var n int64
		n, err = fragment.WriteTo(c.writer)
		c.metrics.IncrementBytesSent(n)
		if err != nil {
			break
		}
		if fragment != msg {
			c.metrics.IncrementFragmentsSent()
		}
	}
	if err == nil {
		err = errors.Wrap(c.writer.Flush(), "flush")
	}

	if err != nil {
		c.writer.Reset(c.rawConn)
		c.logger.Debug("write error", "addr", c.Addr(), "error", err)
		if c.opts.onError(err) == Disconnect {
			return err
		}
		return nil
	}

	c.metrics.IncrementMessagesSent()
	return nil
}

// fail records the first handler error that asked for a disconnect and
// stops the connection.
func (c *Conn) fail(err error) {
	c.failOnce.Do(func() {
		c.failErr = err
	})
	_ = c.Close()
}

// closeConn marks the connection as closed and closes the underlying socket.
func (c *Conn) closeConn() {
	_ = c.Close()
}
