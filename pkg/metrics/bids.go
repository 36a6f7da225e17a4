package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Conflict reasons recorded by BidMetrics.IncConflict.
const (
	ConflictDuplicateBid   = "duplicate_bid"
	ConflictWishFulfilled  = "wish_fulfilled"
	ConflictBidNotPending  = "bid_not_pending"
	ConflictLostAcceptRace = "lost_accept_race"
)

// BidMetrics counts bid lifecycle transitions. A nil *BidMetrics is a no-op.
type BidMetrics struct {
	submitted *prometheus.CounterVec
	accepted  prometheus.Counter
	rejected  prometheus.Counter
	conflicts *prometheus.CounterVec
}

// NewBidMetrics registers the bid counters on reg.
func NewBidMetrics(reg prometheus.Registerer) *BidMetrics {
	if reg == nil {
		return &BidMetrics{}
	}
	submitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wishbridge",
		Name:      "bids_submitted_total",
		Help:      "Bids created, by outcome.",
	}, []string{"outcome"})
	accepted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wishbridge",
		Name:      "bids_accepted_total",
		Help:      "Bids accepted by wish owners.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wishbridge",
		Name:      "bids_rejected_total",
		Help:      "Pending bids rejected because a sibling was accepted.",
	})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wishbridge",
		Name:      "bid_conflicts_total",
		Help:      "Bid operations refused with a conflict, by reason.",
	}, []string{"reason"})
	reg.MustRegister(submitted, accepted, rejected, conflicts)
	return &BidMetrics{
		submitted: submitted,
		accepted:  accepted,
		rejected:  rejected,
		conflicts: conflicts,
	}
}

func (m *BidMetrics) IncSubmitted() {
	if m == nil || m.submitted == nil {
		return
	}
	m.submitted.WithLabelValues("created").Inc()
}

// ObserveAccepted records one acceptance and the siblings it rejected.
func (m *BidMetrics) ObserveAccepted(rejected int64) {
	if m == nil || m.accepted == nil {
		return
	}
	m.accepted.Inc()
	if rejected > 0 {
		m.rejected.Add(float64(rejected))
	}
}

func (m *BidMetrics) IncConflict(reason string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
