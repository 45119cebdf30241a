package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry           *prometheus.Registry
	MessagesSentTotal  *prometheus.CounterVec
	QueueDepth         prometheus.Gauge
	QueueEvictions     prometheus.Counter
	ConnectErrorsTotal *prometheus.CounterVec
	ConnectionState    prometheus.Gauge
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		MessagesSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atlantis",
			Name:      "messages_sent_total",
			Help:      "Messages written to the inspector socket",
		}, []string{"type"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atlantis",
			Name:      "queue_depth",
			Help:      "Messages waiting in the outbound queue",
		}),
		QueueEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atlantis",
			Name:      "queue_evictions_total",
			Help:      "Messages dropped from the outbound queue under overflow",
		}),
		ConnectErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atlantis",
			Name:      "connect_errors_total",
			Help:      "Connection failures by stage",
		}, []string{"stage"}),
		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atlantis",
			Name:      "connection_state",
			Help:      "Current connection state (see transporter.State values)",
		}),
	}
	r.MustRegister(m.MessagesSentTotal, m.QueueDepth, m.QueueEvictions, m.ConnectErrorsTotal, m.ConnectionState)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
