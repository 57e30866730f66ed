package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records outcomes of webhook-triggered settlements.
type SettlementMetrics struct {
	duration  *prometheus.HistogramVec
	settled   prometheus.Counter
	duplicate prometheus.Counter
	failure   *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of settlement attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_orders_total",
		Help: "Orders created by the settlement pipeline.",
	})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_duplicate_events_total",
		Help: "Redelivered payment events short-circuited by idempotency.",
	})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failures_total",
		Help: "Fatal settlement failures by pipeline step.",
	}, []string{"step"})
	reg.MustRegister(duration, settled, duplicate, failure)
	return &SettlementMetrics{
		duration:  duration,
		settled:   settled,
		duplicate: duplicate,
		failure:   failure,
	}
}

// ObserveDuration records how long an attempt took for the given outcome.
func (m *SettlementMetrics) ObserveDuration(outcome string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(elapsed.Seconds())
}

// IncSettled counts a newly created order.
func (m *SettlementMetrics) IncSettled() {
	if m == nil || m.settled == nil {
		return
	}
	m.settled.Inc()
}

// IncDuplicate counts a redelivered event that reused an existing order.
func (m *SettlementMetrics) IncDuplicate() {
	if m == nil || m.duplicate == nil {
		return
	}
	m.duplicate.Inc()
}

// IncFailure counts a fatal failure at the named pipeline step.
func (m *SettlementMetrics) IncFailure(step string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(step)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
