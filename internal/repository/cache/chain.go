package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Chain tries tiers in order. A hit in a lower tier is back-filled into the tiers above it.
// Tier failures degrade to misses and are logged; they never fail the caller.
type Chain struct {
	tiers    []Tier
	ttl      TTLPolicy
	now      Clock
	requests *prometheus.CounterVec
	logger   *zap.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithTTLPolicy overrides the per-class lifetimes.
func WithTTLPolicy(p TTLPolicy) Option {
	return func(c *Chain) {
		for class, ttl := range p {
			if ttl > 0 {
				c.ttl[class] = ttl
			}
		}
	}
}

// WithClock injects the time source.
func WithClock(now Clock) Option {
	return func(c *Chain) { c.now = now }
}

// WithRequestCounter records lookups in a counter vec labelled class, tier, result.
func WithRequestCounter(cv *prometheus.CounterVec) Option {
	return func(c *Chain) { c.requests = cv }
}

// NewChain builds a cache chain over the given tiers, fastest first.
func NewChain(tiers []Tier, logger *zap.Logger, opts ...Option) *Chain {
	c := &Chain{
		tiers:  tiers,
		ttl:    DefaultTTLPolicy(),
		now:    time.Now,
		logger: logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the lifetime of a class.
func (c *Chain) TTL(class Class) time.Duration { return c.ttl[class] }

// Get returns the first live entry for key.
func (c *Chain) Get(ctx context.Context, key Key) (Entry, bool) {
	for i, t := range c.tiers {
		e, ok, err := t.Get(ctx, key)
		if err != nil {
			c.count(key.Class, t, "error")
			c.logger.Warn("cache tier read failed",
				zap.String("tier", t.Name()), zap.String("key", key.String()), zap.Error(err))
			continue
		}
		if !ok {
			c.count(key.Class, t, "miss")
			continue
		}
		c.count(key.Class, t, "hit")
		c.backfill(ctx, key, e, c.tiers[:i])
		return e, true
	}
	return Entry{}, false
}

func (c *Chain) backfill(ctx context.Context, key Key, e Entry, upper []Tier) {
	for _, t := range upper {
		if err := t.Put(ctx, key, e); err != nil {
			c.logger.Warn("cache backfill failed",
				zap.String("tier", t.Name()), zap.String("key", key.String()), zap.Error(err))
		}
	}
}

// Put writes value under key with the lifetime of key.Class into every tier.
func (c *Chain) Put(ctx context.Context, key Key, value []byte) Entry {
	return c.PutAs(ctx, key, key.Class, value)
}

// PutAs writes value under key with the lifetime of class. The key, and so every
// selector that matches it, is unchanged; only the expiry differs.
func (c *Chain) PutAs(ctx context.Context, key Key, class Class, value []byte) Entry {
	now := c.now()
	e := Entry{Value: value, Class: class, CreatedAt: now}
	if ttl := c.ttl[class]; ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	for _, t := range c.tiers {
		if err := t.Put(ctx, key, e); err != nil {
			c.logger.Warn("cache tier write failed",
				zap.String("tier", t.Name()), zap.String("key", key.String()), zap.Error(err))
		}
	}
	return e
}

// Delete removes key from every tier.
func (c *Chain) Delete(ctx context.Context, key Key) error {
	var errs []error
	for _, t := range c.tiers {
		if err := t.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Invalidate removes every selected entry from every tier.
func (c *Chain) Invalidate(ctx context.Context, sels ...Selector) error {
	return c.invalidate(ctx, false, sels)
}

// InvalidateLocal removes selected entries from in-process tiers only. Used when applying
// events published by another instance, which already cleared the shared tiers.
func (c *Chain) InvalidateLocal(ctx context.Context, sels ...Selector) error {
	return c.invalidate(ctx, true, sels)
}

func (c *Chain) invalidate(ctx context.Context, localOnly bool, sels []Selector) error {
	var errs []error
	for _, t := range c.tiers {
		if localOnly && !t.Local() {
			continue
		}
		for _, s := range sels {
			if err := t.DeleteMatching(ctx, s); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Chain) count(class Class, t Tier, result string) {
	if c.requests != nil {
		c.requests.WithLabelValues(string(class), t.Name(), result).Inc()
	}
}
