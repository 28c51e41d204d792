package gridwire

import (
	"time"

	"github.com/Zereker/gridwire/protocol"
)

// ErrorAction defines the action to take when an error occurs.
type ErrorAction int

const (
	// Disconnect closes the connection when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and continues processing.
	Continue
)

// options holds the configuration for a connection.
type options struct {
	logger   Logger
	metrics  Metrics
	sequence protocol.Sequence

	onMessage MessageHandler
	// onError is called when an I/O or handler error occurs.
	// Returns Disconnect to close the connection, Continue to suppress the error.
	onError func(error) ErrorAction

	bufferSize     int           // size of the send queue
	readBufferSize int           // bytes requested per socket read
	maxFrameLength int           // largest frame accepted from the peer
	fragmentSize   int           // outbound messages at least this long are fragmented
	heartbeat      time.Duration // read/write deadlines are heartbeat * 2
}

// Option is a function that configures connection options.
type Option func(*options)

// BufferSizeOption returns an Option that sets the size of the send queue.
// A larger queue allows more messages to be queued before Write fails.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// ReadBufferSizeOption returns an Option that sets how many bytes a single
// socket read may deliver to the frame decoder.
func ReadBufferSizeOption(size int) Option {
	return func(o *options) {
		o.readBufferSize = size
	}
}

// HeartbeatOption returns an Option that sets the heartbeat interval.
// This determines the read/write deadline timeout (heartbeat * 2).
func HeartbeatOption(heartbeat time.Duration) Option {
	return func(o *options) {
		o.heartbeat = heartbeat
	}
}

// MaxFrameLengthOption returns an Option that sets the largest frame, header
// included, accepted from the peer. Longer frames close the connection with
// ErrFrameTooLarge.
func MaxFrameLengthOption(size int) Option {
	return func(o *options) {
		o.maxFrameLength = size
	}
}

// FragmentSizeOption returns an Option that sets the fragment size of
// outbound messages. Messages shorter than size are sent whole. A negative
// size disables fragmentation.
func FragmentSizeOption(size int) Option {
	return func(o *options) {
		o.fragmentSize = size
	}
}

// SequenceOption returns an Option that sets the source of fragment ids.
// Connections share protocol.DefaultSequence unless told otherwise.
func SequenceOption(seq protocol.Sequence) Option {
	return func(o *options) {
		o.sequence = seq
	}
}

// OnErrorOption returns an Option that sets the error callback.
// The callback is invoked when a read, write or handler error occurs.
// Return Disconnect to close the connection, or Continue to suppress the error.
// Framing errors always close the connection.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// OnMessageOption returns an Option that sets the message handler.
// It is equivalent to calling SetMessageHandler before Run.
func OnMessageOption(cb MessageHandler) Option {
	return func(o *options) {
		o.onMessage = cb
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// MetricsOption returns an Option that sets the metrics sink. If not set,
// each connection counts into its own DefaultMetrics.
func MetricsOption(m Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
