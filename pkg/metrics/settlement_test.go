package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSettlementMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSettlementMetrics(reg)

	m.IncSettled()
	m.IncDuplicate()
	m.IncFailure("ledger")
	m.IncFailure("")
	m.ObserveDuration("success", 50*time.Millisecond)

	if got := testutil.ToFloat64(m.settled); got != 1 {
		t.Fatalf("expected 1 settled, got %v", got)
	}
	if got := testutil.ToFloat64(m.duplicate); got != 1 {
		t.Fatalf("expected 1 duplicate, got %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("ledger")); got != 1 {
		t.Fatalf("expected 1 ledger failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty step to normalize, got %v", got)
	}
}

func TestSettlementMetricsNilSafe(t *testing.T) {
	var m *SettlementMetrics
	m.IncSettled()
	m.IncDuplicate()
	m.IncFailure("ledger")
	m.ObserveDuration("success", time.Second)

	unregistered := NewSettlementMetrics(nil)
	unregistered.IncSettled()
}
