// Package quota persists routing lookup counters.
//
// Every increment lands in two buckets. The daily bucket backs the quota check: it is
// keyed by UTC date and kept for two days, so a replica starting just after midnight
// still reads a consistent count. The monthly bucket backs the usage report: it is
// keyed by UTC month and kept for 62 days, long enough to report the previous month
// in full. Expiry is set once per bucket (NX), so increments never extend it.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/db"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/usage"
)

// store is the consumer interface for counter operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Retention is how long each bucket outlives its period start.
type Retention struct {
	Daily   time.Duration
	Monthly time.Duration
}

// DefaultRetention keeps daily buckets 48h and monthly buckets 62 days.
func DefaultRetention() Retention {
	return Retention{Daily: 48 * time.Hour, Monthly: 62 * 24 * time.Hour}
}

// Store keeps per-period counters in the shared store.
type Store struct {
	store     store
	retention Retention
}

// New creates a counter store. Zero retention fields take the defaults.
func New(s store, r Retention) *Store {
	def := DefaultRetention()
	if r.Daily <= 0 {
		r.Daily = def.Daily
	}
	if r.Monthly <= 0 {
		r.Monthly = def.Monthly
	}
	return &Store{store: s, retention: r}
}

// Key returns the bucket key of counter for the period containing at (UTC).
func Key(counter string, p usage.Period, at time.Time) string {
	at = at.UTC()
	if p == usage.PeriodMonth {
		return fmt.Sprintf("%squota:%s:monthly:%s", domain.KeyPrefix, counter, at.Format("2006-01"))
	}
	return fmt.Sprintf("%squota:%s:daily:%s", domain.KeyPrefix, counter, at.Format("2006-01-02"))
}

// Add increments the daily and monthly buckets of counter at the given time and
// returns the new daily value. Both buckets are attempted; errors are joined.
func (s *Store) Add(ctx context.Context, counter string, at time.Time, n int64) (int64, error) {
	daily, errDay := s.incr(ctx, Key(counter, usage.PeriodDay, at), n, s.retention.Daily)
	_, errMonth := s.incr(ctx, Key(counter, usage.PeriodMonth, at), n, s.retention.Monthly)
	return daily, errors.Join(errDay, errMonth)
}

func (s *Store) incr(ctx context.Context, key string, n int64, ttl time.Duration) (int64, error) {
	v, err := s.store.IncrBy(ctx, key, n)
	if err != nil {
		return 0, fmt.Errorf("quota incr %s: %w", key, err)
	}
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return v, fmt.Errorf("quota expire %s: %w", key, err)
	}
	return v, nil
}

// Count returns counter for the period containing at. A missing bucket is zero.
func (s *Store) Count(ctx context.Context, counter string, p usage.Period, at time.Time) (int64, error) {
	key := Key(counter, p, at)
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota read %s: %w", key, err)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quota read %s: %w", key, err)
	}
	return v, nil
}
