package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "outbox_pending_events", Help: "Unsent outbox events"},
	)
	OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outbox_published_total", Help: "Outbox events published to the broker"},
		[]string{"event_type"},
	)
	OutboxDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "outbox_dropped_total", Help: "Outbox events dropped after max attempts"},
	)
)

func init() {
	prometheus.MustRegister(OutboxPending, OutboxPublished, OutboxDropped)
}
