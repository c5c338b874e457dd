package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/usage"
)

// QuotaAction defines behavior when the daily lookup quota is exhausted.
type QuotaAction string

const (
	// QuotaActionFallback short-circuits to the offline estimator.
	QuotaActionFallback QuotaAction = "fallback"
	// QuotaActionWarn logs a warning but lets the lookup through.
	QuotaActionWarn QuotaAction = "warn"
)

// QuotaStore is the persistence interface for per-period quota counters.
type QuotaStore interface {
	Add(ctx context.Context, counter string, at time.Time, n int64) (int64, error)
	Count(ctx context.Context, counter string, p usage.Period, at time.Time) (int64, error)
}

// Counter names in the quota store.
const (
	counterRouting  = "routing"
	counterFallback = "fallback"
)

// QuotaTracker counts routing lookups and offline fallbacks per UTC day.
// Check is in-memory only; Record updates memory first, then writes behind to the store
// (daily and monthly buckets).
type QuotaTracker struct {
	mu        sync.Mutex
	used      int64
	fallbacks int64
	limit     int64
	action    QuotaAction
	lastReset time.Time
	store     QuotaStore
	now       func() time.Time
	logger    *zap.Logger
}

// NewQuotaTracker creates a tracker. A zero limit means unlimited.
func NewQuotaTracker(dailyLimit int64, action QuotaAction, logger *zap.Logger) *QuotaTracker {
	q := &QuotaTracker{
		limit:  dailyLimit,
		action: action,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
	q.lastReset = truncateToDay(q.now())
	return q
}

// WithStore attaches a persistence store and loads today's counter.
func (q *QuotaTracker) WithStore(ctx context.Context, store QuotaStore) *QuotaTracker {
	q.store = store

	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	if val, err := store.Count(ctx, counterRouting, usage.PeriodDay, now); err == nil {
		q.used = val
	} else {
		q.logger.Warn("Failed to load routing quota from store", zap.Error(err))
	}
	if val, err := store.Count(ctx, counterFallback, usage.PeriodDay, now); err == nil {
		q.fallbacks = val
	}
	q.logger.Info("Routing quota loaded from store",
		zap.Int64("daily_used", q.used),
		zap.Int64("daily_limit", q.limit),
	)
	return q
}

// Check reports whether another lookup is allowed.
func (q *QuotaTracker) Check(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.resetIfNeeded()
	if q.limit <= 0 || q.used < q.limit {
		return nil
	}
	if q.action == QuotaActionWarn {
		q.logger.Warn("Routing quota exceeded",
			zap.Int64("daily_used", q.used),
			zap.Int64("daily_limit", q.limit),
		)
		return nil
	}
	return domain.ErrLookupQuotaExceeded
}

// Record registers n performed lookups.
func (q *QuotaTracker) Record(n int64) {
	q.mu.Lock()
	q.resetIfNeeded()
	q.used += n
	now := q.now()
	q.mu.Unlock()

	q.persist(counterRouting, now, n)
}

// RecordFallback registers a travel time estimated offline.
func (q *QuotaTracker) RecordFallback() {
	q.mu.Lock()
	q.resetIfNeeded()
	q.fallbacks++
	now := q.now()
	q.mu.Unlock()

	q.persist(counterFallback, now, 1)
}

func (q *QuotaTracker) persist(counter string, now time.Time, n int64) {
	if q.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := q.store.Add(ctx, counter, now, n); err != nil {
		q.logger.Warn("Failed to persist routing quota", zap.String("counter", counter), zap.Error(err))
	}
}

// Fallbacks returns offline estimates made today.
func (q *QuotaTracker) Fallbacks() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfNeeded()
	return q.fallbacks
}

// Monthly returns this month's lookups and fallbacks from the store. Without a store
// only today's in-memory counters are known.
func (q *QuotaTracker) Monthly(ctx context.Context) (lookups, fallbacks int64, err error) {
	if q.store == nil {
		return q.Used(), q.Fallbacks(), nil
	}
	now := q.now()
	if lookups, err = q.store.Count(ctx, counterRouting, usage.PeriodMonth, now); err != nil {
		return 0, 0, fmt.Errorf("monthly lookups: %w", err)
	}
	if fallbacks, err = q.store.Count(ctx, counterFallback, usage.PeriodMonth, now); err != nil {
		return 0, 0, fmt.Errorf("monthly fallbacks: %w", err)
	}
	return lookups, fallbacks, nil
}

// Remaining returns lookups left today (-1 if unlimited).
func (q *QuotaTracker) Remaining() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.resetIfNeeded()
	if q.limit <= 0 {
		return -1
	}
	return max(q.limit-q.used, 0)
}

// Used returns lookups performed today.
func (q *QuotaTracker) Used() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfNeeded()
	return q.used
}

// Limit returns the daily cap (0 if unlimited).
func (q *QuotaTracker) Limit() int64 { return q.limit }

// ResetsAt returns the start of the next UTC day.
func (q *QuotaTracker) ResetsAt() time.Time {
	return truncateToDay(q.now()).Add(24 * time.Hour)
}

func (q *QuotaTracker) resetIfNeeded() {
	today := truncateToDay(q.now())
	if today.After(q.lastReset) {
		q.used = 0
		q.fallbacks = 0
		q.lastReset = today
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
