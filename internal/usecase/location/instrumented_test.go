package location

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

func newTestMetrics() (*prometheus.CounterVec, prometheus.Histogram, prometheus.Gauge) {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "routing_requests_total"}, []string{"status"}),
		prometheus.NewHistogram(prometheus.HistogramOpts{Name: "routing_request_duration_seconds"}),
		prometheus.NewGauge(prometheus.GaugeOpts{Name: "routing_quota_remaining"})
}

func TestInstrumentedRouter_RecordsStatus(t *testing.T) {
	requests, duration, remaining := newTestMetrics()
	q := NewQuotaTracker(10, QuotaActionFallback, zap.NewNop())
	q.Record(4)

	ok := NewInstrumentedRouter(fixedRouter(10, 5), requests, duration, remaining, q, zap.NewNop())
	if _, err := ok.Route(context.Background(), *addr("a"), *addr("b"), "driving"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	open := NewInstrumentedRouter(failingRouter(domain.ErrCircuitOpen), requests, duration, remaining, q, zap.NewNop())
	if _, err := open.Route(context.Background(), *addr("a"), *addr("b"), "driving"); !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	if got := testutil.ToFloat64(requests.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(requests.WithLabelValues("circuit_open")); got != 1 {
		t.Errorf("circuit_open = %v, want 1", got)
	}
	if got := testutil.ToFloat64(remaining); got != 6 {
		t.Errorf("remaining = %v, want 6", got)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ErrCircuitOpen, "circuit_open"},
		{domain.ErrLookupQuotaExceeded, "quota_exceeded"},
		{domain.ErrRateLimited, "rate_limited"},
		{domain.ErrLookupUnavailable, "error"},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
