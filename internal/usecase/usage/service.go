package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domusage "github.com/kailas-cloud/talentmatch/internal/domain/usage"
	"github.com/kailas-cloud/talentmatch/internal/domain/usage/budget"
	"github.com/kailas-cloud/talentmatch/internal/domain/usage/metrics"
)

// Service handles routing usage reporting.
type Service struct {
	qr  QuotaReader
	now func() time.Time
}

// New creates a Service. qr can be nil (no routing configured).
func New(qr QuotaReader) *Service {
	return &Service{qr: qr, now: time.Now}
}

// GetReport builds a usage report for the given period. The budget block always
// describes the daily quota; counters follow the period.
func (s *Service) GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var start, end time.Time
	switch period {
	case domusage.PeriodDay:
		start, end = dayStart, dayStart.Add(24*time.Hour)
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default:
		return domusage.Report{}, fmt.Errorf("unknown period %q: %w", period, domain.ErrInvalidInput)
	}

	if s.qr == nil {
		b := budget.New(0, -1, false, dayStart.Add(24*time.Hour).UnixMilli())
		return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), metrics.New(0, 0), b), nil
	}

	limit, remaining := s.qr.Limit(), s.qr.Remaining()
	b := budget.New(limit, remaining, limit > 0 && remaining <= 0, s.qr.ResetsAt().UnixMilli())

	lookups, fallbacks := s.qr.Used(), s.qr.Fallbacks()
	if period == domusage.PeriodMonth {
		var err error
		if lookups, fallbacks, err = s.qr.Monthly(ctx); err != nil {
			return domusage.Report{}, fmt.Errorf("usage report: %w", err)
		}
	}
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), metrics.New(lookups, fallbacks), b), nil
}
