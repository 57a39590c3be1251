package server

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "snowfield"

// Metrics counts relay activity. Every counter is exported to prometheus
// and mirrored in atomics for the admin snapshot.
type Metrics struct {
	sessions    prometheus.Gauge
	connections prometheus.Counter
	rejected    prometheus.Counter
	received    *prometheus.CounterVec
	sent        prometheus.Counter
	dropped     prometheus.Counter
	malformed   prometheus.Counter
	evicted     prometheus.Counter
	chatDenied  *prometheus.CounterVec

	nSessions    int64
	nConnections int64
	nRejected    int64
	nReceived    int64
	nSent        int64
	nDropped     int64
	nMalformed   int64
	nEvicted     int64
	nChatDenied  int64
}

// NewMetrics registers the relay collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Currently connected sessions.",
		}),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connections_total",
			Help:      "Accepted websocket connections.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connections_rejected_total",
			Help:      "Connect requests rejected before upgrade.",
		}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_received_total",
			Help:      "Inbound messages by type.",
		}, []string{"type"}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_sent_total",
			Help:      "Outbound messages queued to sessions.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_dropped_total",
			Help:      "Outbound messages dropped on a full or closed queue.",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_malformed_total",
			Help:      "Inbound messages that could not be decoded.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions closed because a lifecycle message could not be queued.",
		}),
		chatDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chat_rejected_total",
			Help:      "Chat lines rejected, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.sessions, m.connections, m.rejected, m.received, m.sent, m.dropped, m.malformed, m.evicted, m.chatDenied)
	return m
}

func (m *Metrics) SessionOpened() {
	m.sessions.Inc()
	m.connections.Inc()
	atomic.AddInt64(&m.nSessions, 1)
	atomic.AddInt64(&m.nConnections, 1)
}

func (m *Metrics) SessionClosed() {
	m.sessions.Dec()
	atomic.AddInt64(&m.nSessions, -1)
}

func (m *Metrics) IncRejected() {
	m.rejected.Inc()
	atomic.AddInt64(&m.nRejected, 1)
}

func (m *Metrics) IncReceived(msgType string) {
	m.received.WithLabelValues(msgType).Inc()
	atomic.AddInt64(&m.nReceived, 1)
}

func (m *Metrics) IncSent() {
	m.sent.Inc()
	atomic.AddInt64(&m.nSent, 1)
}

func (m *Metrics) IncDropped() {
	m.dropped.Inc()
	atomic.AddInt64(&m.nDropped, 1)
}

func (m *Metrics) IncMalformed() {
	m.malformed.Inc()
	atomic.AddInt64(&m.nMalformed, 1)
}

func (m *Metrics) IncEvicted() {
	m.evicted.Inc()
	atomic.AddInt64(&m.nEvicted, 1)
}

func (m *Metrics) IncChatRejected(reason string) {
	m.chatDenied.WithLabelValues(reason).Inc()
	atomic.AddInt64(&m.nChatDenied, 1)
}

// Snapshot returns a read-only copy for the admin endpoint.
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"sessions":          atomic.LoadInt64(&m.nSessions),
		"connections":       atomic.LoadInt64(&m.nConnections),
		"rejected":          atomic.LoadInt64(&m.nRejected),
		"messages_received": atomic.LoadInt64(&m.nReceived),
		"messages_sent":     atomic.LoadInt64(&m.nSent),
		"messages_dropped":  atomic.LoadInt64(&m.nDropped),
		"malformed":         atomic.LoadInt64(&m.nMalformed),
		"evicted":           atomic.LoadInt64(&m.nEvicted),
		"chat_rejected":     atomic.LoadInt64(&m.nChatDenied),
	}
}
