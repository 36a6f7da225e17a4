package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PublisherMetrics instruments the outbox publisher loop.
type PublisherMetrics struct {
	batchDuration prometheus.Histogram
	events        *prometheus.CounterVec
}

func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	if reg == nil {
		return &PublisherMetrics{}
	}
	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wishbridge",
		Name:      "outbox_batch_duration_seconds",
		Help:      "Duration of outbox publish batches in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wishbridge",
		Name:      "outbox_events_total",
		Help:      "Outbox rows handled by the publisher, by event type and result.",
	}, []string{"event_type", "result"})
	reg.MustRegister(batchDuration, events)
	return &PublisherMetrics{batchDuration: batchDuration, events: events}
}

func (m *PublisherMetrics) ObserveBatch(d time.Duration) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.Observe(d.Seconds())
}

// IncEvent counts a row with result published, failed or dead_lettered.
func (m *PublisherMetrics) IncEvent(eventType, result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}
