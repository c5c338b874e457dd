package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
)

// QuotaChecker is the local interface for quota enforcement.
type QuotaChecker interface {
	Check(ctx context.Context) error
	Record(n int64)
}

// GuardConfig bounds calls to the external routing lookup.
type GuardConfig struct {
	Timeout           time.Duration
	MaxConcurrent     int64
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerCooldown   time.Duration
}

// DefaultGuardConfig returns the service defaults.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout:           5 * time.Second,
		MaxConcurrent:     8,
		RequestsPerSecond: 10,
		Burst:             5,
		BreakerFailures:   5,
		BreakerCooldown:   time.Minute,
	}
}

// GuardedRouter wraps a Router with a daily quota, a token-bucket rate limit,
// a concurrency semaphore and a circuit breaker, checked in that order.
// An open breaker or an exhausted quota fails fast without a network call.
type GuardedRouter struct {
	inner   Router
	quota   QuotaChecker
	limiter *rate.Limiter
	sem     *semaphore.Weighted
	breaker *gobreaker.CircuitBreaker[TravelTime]
	timeout time.Duration
	logger  *zap.Logger
}

// NewGuardedRouter builds the guard chain. quota may be nil (unlimited).
// onStateChange, if set, is called on every breaker transition.
func NewGuardedRouter(
	inner Router, cfg GuardConfig, quota QuotaChecker,
	onStateChange func(open bool), logger *zap.Logger,
) *GuardedRouter {
	def := DefaultGuardConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = def.BreakerCooldown
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)

	g := &GuardedRouter{
		inner:   inner,
		quota:   quota,
		limiter: rate.NewLimiter(limit, burst),
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		timeout: cfg.Timeout,
		logger:  logger,
	}
	failures := cfg.BreakerFailures
	g.breaker = gobreaker.NewCircuitBreaker[TravelTime](gobreaker.Settings{
		Name:        "routing",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// Caller cancellations say nothing about the lookup service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Routing circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if onStateChange != nil {
				onStateChange(to == gobreaker.StateOpen)
			}
		},
	})
	return g
}

// Route performs a guarded lookup.
func (g *GuardedRouter) Route(
	ctx context.Context, origin, destination domain.Location, mode geo.Mode,
) (TravelTime, error) {
	if g.quota != nil {
		if err := g.quota.Check(ctx); err != nil {
			return TravelTime{}, fmt.Errorf("routing quota: %w", err)
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return TravelTime{}, fmt.Errorf("routing rate limit: %w: %w", domain.ErrRateLimited, err)
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return TravelTime{}, fmt.Errorf("routing slot: %w: %w", domain.ErrLookupUnavailable, err)
	}
	defer g.sem.Release(1)

	tt, err := g.breaker.Execute(func() (TravelTime, error) {
		return g.inner.Route(ctx, origin, destination, mode)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return TravelTime{}, fmt.Errorf("routing: %w", domain.ErrCircuitOpen)
		}
		return TravelTime{}, err
	}

	if g.quota != nil {
		g.quota.Record(1)
	}
	return tt, nil
}

// BreakerOpen reports whether lookups are currently short-circuited.
func (g *GuardedRouter) BreakerOpen() bool {
	return g.breaker.State() == gobreaker.StateOpen
}
