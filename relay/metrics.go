package relay

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the relay's Prometheus collectors.
type Metrics struct {
	Sessions     prometheus.Gauge
	Participants prometheus.Gauge
	Messages     *prometheus.CounterVec
	Dropped      prometheus.Counter
	RateLimited  prometheus.Counter
	BadMessages  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "driftfield",
			Subsystem: "relay",
			Name:      "sessions",
			Help:      "Open websocket connections.",
		}),
		Participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "driftfield",
			Subsystem: "relay",
			Name:      "participants",
			Help:      "Distinct participant uids on the roster.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "driftfield",
			Subsystem: "relay",
			Name:      "messages_total",
			Help:      "Relay frames by direction and type.",
		}, []string{"direction", "type"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "driftfield",
			Subsystem: "relay",
			Name:      "dropped_frames_total",
			Help:      "Outbound frames dropped because a client's send queue was full.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "driftfield",
			Subsystem: "relay",
			Name:      "rate_limited_total",
			Help:      "Inbound position updates discarded by the per-connection rate limit.",
		}),
		BadMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "driftfield",
			Subsystem: "relay",
			Name:      "bad_messages_total",
			Help:      "Inbound frames that could not be decoded.",
		}),
	}
	reg.MustRegister(m.Sessions, m.Participants, m.Messages, m.Dropped, m.RateLimited, m.BadMessages)
	return m
}
