package location

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
	"github.com/kailas-cloud/talentmatch/internal/repository/cache"
)

type mockRouter struct {
	calls   atomic.Int64
	routeFn func(ctx context.Context, origin, dest domain.Location, mode geo.Mode) (TravelTime, error)
}

func (m *mockRouter) Route(ctx context.Context, origin, dest domain.Location, mode geo.Mode) (TravelTime, error) {
	m.calls.Add(1)
	return m.routeFn(ctx, origin, dest, mode)
}

func fixedRouter(minutes, km float64) *mockRouter {
	return &mockRouter{routeFn: func(_ context.Context, _, _ domain.Location, mode geo.Mode) (TravelTime, error) {
		return TravelTime{Minutes: minutes, DistanceKm: km, Mode: mode}, nil
	}}
}

func failingRouter(err error) *mockRouter {
	return &mockRouter{routeFn: func(context.Context, domain.Location, domain.Location, geo.Mode) (TravelTime, error) {
		return TravelTime{}, err
	}}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestChain(t *testing.T, clock *fakeClock) *cache.Chain {
	t.Helper()
	mem, err := cache.NewMemoryTier(100, clock.Now)
	if err != nil {
		t.Fatalf("memory tier: %v", err)
	}
	return cache.NewChain([]cache.Tier{mem}, zap.NewNop(), cache.WithClock(clock.Now))
}

func addr(a string) *domain.Location { return &domain.Location{Address: a} }

func ptr[T any](v T) *T { return &v }
