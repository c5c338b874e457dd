package usage

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/talentmatch/internal/domain"

	"github.com/kailas-cloud/talentmatch/internal/domain/usage/budget"
	"github.com/kailas-cloud/talentmatch/internal/domain/usage/metrics"
)

func TestNewReport(t *testing.T) {
	m := metrics.New(1542, 38)
	b := budget.New(2500, 958, false, 1700000000000)

	r := NewReport(PeriodDay, 1700000000, 1700086400, m, b)

	if r.Period() != PeriodDay {
		t.Errorf("Period() = %q", r.Period())
	}
	if r.PeriodStart() != 1700000000 {
		t.Errorf("PeriodStart() = %d", r.PeriodStart())
	}
	if r.PeriodEnd() != 1700086400 {
		t.Errorf("PeriodEnd() = %d", r.PeriodEnd())
	}
	if r.Metrics().Lookups() != 1542 {
		t.Errorf("Metrics().Lookups() = %d", r.Metrics().Lookups())
	}
	if r.Budget().CallsLimit() != 2500 {
		t.Errorf("Budget().CallsLimit() = %d", r.Budget().CallsLimit())
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodDay, false},
		{"day", PeriodDay, false},
		{"month", PeriodMonth, false},
		{"total", "", true},
		{"DAY", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("ParsePeriod(%q) error = %v, want ErrInvalidInput", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
