package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domusage "github.com/kailas-cloud/talentmatch/internal/domain/usage"
)

// --- Mock ---

type mockQuotaReader struct {
	limit, used, remaining, fallbacks int64
	resetsAt                          time.Time
	monthlyFn                         func(ctx context.Context) (int64, int64, error)
}

func (m *mockQuotaReader) Limit() int64        { return m.limit }
func (m *mockQuotaReader) Used() int64         { return m.used }
func (m *mockQuotaReader) Remaining() int64    { return m.remaining }
func (m *mockQuotaReader) Fallbacks() int64    { return m.fallbacks }
func (m *mockQuotaReader) ResetsAt() time.Time { return m.resetsAt }

func (m *mockQuotaReader) Monthly(ctx context.Context) (int64, int64, error) {
	return m.monthlyFn(ctx)
}

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestService(qr QuotaReader) *Service {
	s := New(qr)
	s.now = func() time.Time { return fixedNow }
	return s
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	qr := &mockQuotaReader{
		limit: 2500, used: 1542, remaining: 958, fallbacks: 38,
		resetsAt: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	r, err := newTestService(qr).GetReport(context.Background(), domusage.PeriodDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dayStart := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != dayStart.UnixMilli() || r.PeriodEnd() != dayStart.Add(24*time.Hour).UnixMilli() {
		t.Errorf("unexpected period bounds %d..%d", r.PeriodStart(), r.PeriodEnd())
	}
	if r.Metrics().Lookups() != 1542 || r.Metrics().Fallbacks() != 38 {
		t.Errorf("unexpected metrics %+v", r.Metrics())
	}
	if r.Budget().CallsLimit() != 2500 || r.Budget().CallsRemaining() != 958 || r.Budget().IsExhausted() {
		t.Errorf("unexpected budget %+v", r.Budget())
	}
	if r.Budget().ResetsAt() != qr.resetsAt.UnixMilli() {
		t.Errorf("expected reset at %d, got %d", qr.resetsAt.UnixMilli(), r.Budget().ResetsAt())
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	qr := &mockQuotaReader{
		limit: 100, used: 100, remaining: 0,
		monthlyFn: func(context.Context) (int64, int64, error) { return 2100, 75, nil },
	}
	r, err := newTestService(qr).GetReport(context.Background(), domusage.PeriodMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	monthStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != monthStart.UnixMilli() || r.PeriodEnd() != monthStart.AddDate(0, 1, 0).UnixMilli() {
		t.Errorf("unexpected month bounds %d..%d", r.PeriodStart(), r.PeriodEnd())
	}
	if r.Metrics().Lookups() != 2100 || r.Metrics().Fallbacks() != 75 {
		t.Errorf("unexpected monthly metrics %+v", r.Metrics())
	}
	if !r.Budget().IsExhausted() {
		t.Error("expected exhausted daily budget")
	}
}

func TestGetReport_MonthlyStoreError(t *testing.T) {
	qr := &mockQuotaReader{monthlyFn: func(context.Context) (int64, int64, error) {
		return 0, 0, errors.New("down")
	}}
	if _, err := newTestService(qr).GetReport(context.Background(), domusage.PeriodMonth); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetReport_Unlimited(t *testing.T) {
	qr := &mockQuotaReader{limit: 0, used: 10, remaining: -1}
	r, err := newTestService(qr).GetReport(context.Background(), domusage.PeriodDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Budget().IsExhausted() {
		t.Error("unlimited quota is never exhausted")
	}
}

func TestGetReport_NoRouting(t *testing.T) {
	r, err := newTestService(nil).GetReport(context.Background(), domusage.PeriodDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Metrics().Lookups() != 0 || r.Budget().CallsRemaining() != -1 {
		t.Errorf("unexpected report without routing: %+v", r)
	}
}

func TestGetReport_UnknownPeriod(t *testing.T) {
	_, err := newTestService(nil).GetReport(context.Background(), "year")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
