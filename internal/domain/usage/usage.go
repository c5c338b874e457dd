package usage

import (
	"fmt"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/usage/budget"
	"github.com/kailas-cloud/talentmatch/internal/domain/usage/metrics"
)

// Period is the aggregation granularity of lookup counters.
type Period string

// Aggregation periods. Quota counters are kept per UTC day and month.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod resolves a query value. Empty means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodMonth:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q: %w", s, domain.ErrInvalidInput)
	}
}

// Report combines routing lookup counters for a period with the daily quota status.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	metrics     metrics.Metrics
	budget      budget.Budget
}

// NewReport creates a usage report. start and end are unix millis.
func NewReport(period Period, start, end int64, m metrics.Metrics, b budget.Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		metrics:     m,
		budget:      b,
	}
}

func (r *Report) Period() Period { return r.period }

// PeriodStart is unix millis.
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd is unix millis, exclusive.
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

func (r *Report) Metrics() metrics.Metrics { return r.metrics }

// Budget is always the daily quota, whatever the period.
func (r *Report) Budget() budget.Budget { return r.budget }
