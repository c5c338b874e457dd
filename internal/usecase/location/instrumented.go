package location

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
)

// Remainer reports remaining daily lookups.
type Remainer interface {
	Remaining() int64
}

// InstrumentedRouter records lookup metrics and logs around a Router.
type InstrumentedRouter struct {
	inner     Router
	requests  *prometheus.CounterVec
	duration  prometheus.Observer
	remaining prometheus.Gauge
	quota     Remainer
	logger    *zap.Logger
}

// NewInstrumentedRouter wraps a router with observability.
// quota and remaining may be nil.
func NewInstrumentedRouter(
	inner Router, requests *prometheus.CounterVec, duration prometheus.Observer,
	remaining prometheus.Gauge, quota Remainer, logger *zap.Logger,
) *InstrumentedRouter {
	return &InstrumentedRouter{
		inner:     inner,
		requests:  requests,
		duration:  duration,
		remaining: remaining,
		quota:     quota,
		logger:    logger,
	}
}

// Route delegates to the inner router and records the outcome.
func (r *InstrumentedRouter) Route(
	ctx context.Context, origin, destination domain.Location, mode geo.Mode,
) (TravelTime, error) {
	start := time.Now()
	tt, err := r.inner.Route(ctx, origin, destination, mode)
	elapsed := time.Since(start)

	status := statusOf(err)
	r.requests.WithLabelValues(status).Inc()
	if status == "ok" || status == "error" {
		r.duration.Observe(elapsed.Seconds())
	}
	if r.quota != nil && r.remaining != nil {
		if rem := r.quota.Remaining(); rem >= 0 {
			r.remaining.Set(float64(rem))
		}
	}

	if err != nil {
		r.logger.Warn("Routing lookup failed",
			zap.String("status", status),
			zap.String("mode", string(mode)),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return TravelTime{}, err
	}

	r.logger.Debug("Routing lookup completed",
		zap.String("mode", string(mode)),
		zap.Float64("minutes", tt.Minutes),
		zap.Float64("distance_km", tt.DistanceKm),
		zap.Duration("duration", elapsed),
	)
	return tt, nil
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, domain.ErrLookupQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
