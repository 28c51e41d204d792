package gridwire

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is an interface for tracking connection statistics.
// Connections call Increment*; collectors read the implementation directly.
type Metrics interface {
	IncrementFramesReceived()
	IncrementMessagesReceived()
	IncrementMessagesSent()
	IncrementFragmentsSent()
	IncrementFragmentsDropped()
	IncrementBytesSent(n int64)
	IncrementBytesReceived(n int64)
}

// DefaultMetrics implements the Metrics interface with atomic counters.
type DefaultMetrics struct {
	framesReceived   atomic.Int64
	messagesReceived atomic.Int64
	messagesSent     atomic.Int64
	fragmentsSent    atomic.Int64
	fragmentsDropped atomic.Int64
	bytesSent        atomic.Int64
	bytesReceived    atomic.Int64
}

// NewDefaultMetrics creates a new DefaultMetrics instance.
func NewDefaultMetrics() *DefaultMetrics { return &DefaultMetrics{} }

func (m *DefaultMetrics) IncrementFramesReceived()       { m.framesReceived.Add(1) }
func (m *DefaultMetrics) IncrementMessagesReceived()     { m.messagesReceived.Add(1) }
func (m *DefaultMetrics) IncrementMessagesSent()         { m.messagesSent.Add(1) }
func (m *DefaultMetrics) IncrementFragmentsSent()        { m.fragmentsSent.Add(1) }
func (m *DefaultMetrics) IncrementFragmentsDropped()     { m.fragmentsDropped.Add(1) }
func (m *DefaultMetrics) IncrementBytesSent(n int64)     { m.bytesSent.Add(n) }
func (m *DefaultMetrics) IncrementBytesReceived(n int64) { m.bytesReceived.Add(n) }

func (m *DefaultMetrics) GetFramesReceived() int64   { return m.framesReceived.Load() }
func (m *DefaultMetrics) GetMessagesReceived() int64 { return m.messagesReceived.Load() }
func (m *DefaultMetrics) GetMessagesSent() int64     { return m.messagesSent.Load() }
func (m *DefaultMetrics) GetFragmentsSent() int64    { return m.fragmentsSent.Load() }
func (m *DefaultMetrics) GetFragmentsDropped() int64 { return m.fragmentsDropped.Load() }
func (m *DefaultMetrics) GetBytesSent() int64        { return m.bytesSent.Load() }
func (m *DefaultMetrics) GetBytesReceived() int64    { return m.bytesReceived.Load() }

// PrometheusMetrics exports connection statistics as Prometheus counters.
// One instance is meant to be shared by all connections of a process.
type PrometheusMetrics struct {
	frames    prometheus.Counter
	messages  *prometheus.CounterVec
	fragments *prometheus.CounterVec
	bytes     *prometheus.CounterVec
}

// NewPrometheusMetrics creates the gridwire counters and registers them
// with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "conn",
			Name:      "frames_received_total",
			Help:      "Frames decoded from the wire.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "conn",
			Name:      "messages_total",
			Help:      "Whole messages sent and received, after reassembly.",
		}, []string{"direction"}),
		fragments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "conn",
			Name:      "fragments_total",
			Help:      "Fragments sent, and fragments dropped by reassembly.",
		}, []string{"outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "conn",
			Name:      "bytes_total",
			Help:      "Bytes written to and read from the socket.",
		}, []string{"direction"}),
	}

	for _, c := range []prometheus.Collector{m.frames, m.messages, m.fragments, m.bytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) IncrementFramesReceived()   { m.frames.Inc() }
func (m *PrometheusMetrics) IncrementMessagesReceived() { m.messages.WithLabelValues("in").Inc() }
func (m *PrometheusMetrics) IncrementMessagesSent()     { m.messages.WithLabelValues("out").Inc() }
func (m *PrometheusMetrics) IncrementFragmentsSent()    { m.fragments.WithLabelValues("sent").Inc() }
func (m *PrometheusMetrics) IncrementFragmentsDropped() { m.fragments.WithLabelValues("dropped").Inc() }

func (m *PrometheusMetrics) IncrementBytesSent(n int64) {
	m.bytes.WithLabelValues("out").Add(float64(n))
}

func (m *PrometheusMetrics) IncrementBytesReceived(n int64) {
	m.bytes.WithLabelValues("in").Add(float64(n))
}
