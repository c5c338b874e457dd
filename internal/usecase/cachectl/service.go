// Package cachectl applies upstream change events to the cache and fans them out
// to other instances.
package cachectl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/usecase/batch"
)

// Service invalidates and warms the cache.
type Service struct {
	cache    Invalidator
	bus      Bus
	channel  string
	runner   BatchRunner
	instance string
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a cache control service. bus may be nil for a single instance.
func New(c Invalidator, bus Bus, channel string, runner BatchRunner, logger *zap.Logger) *Service {
	return &Service{
		cache:    c,
		bus:      bus,
		channel:  channel,
		runner:   runner,
		instance: uuid.NewString(),
		now:      time.Now,
		logger:   logger,
	}
}

// Invalidate removes the entries selected by e from every tier, then publishes e
// so other instances clear their in-process tiers.
func (s *Service) Invalidate(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, e.Selectors()...); err != nil {
		return fmt.Errorf("invalidate %s %s: %w", e.Type, e.ID, err)
	}
	s.logger.Info("Cache invalidated", zap.String("event", string(e.Type)), zap.String("id", e.ID))

	if s.bus == nil {
		return nil
	}
	e.Origin = s.instance
	if e.At.IsZero() {
		e.At = s.now().UTC()
	}
	msg, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := s.bus.Publish(ctx, s.channel, string(msg)); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Listen applies events published by other instances until ctx is done.
func (s *Service) Listen(ctx context.Context) error {
	if s.bus == nil {
		<-ctx.Done()
		return nil
	}
	s.logger.Info("Listening for cache events", zap.String("channel", s.channel))
	return s.bus.Subscribe(ctx, s.channel, func(msg string) {
		s.apply(ctx, msg)
	})
}

func (s *Service) apply(ctx context.Context, msg string) {
	var e Event
	if err := json.Unmarshal([]byte(msg), &e); err != nil {
		s.logger.Warn("Malformed cache event", zap.Error(err))
		return
	}
	if e.Origin == s.instance {
		return
	}
	if err := e.Validate(); err != nil {
		s.logger.Warn("Invalid cache event", zap.Error(err))
		return
	}
	if err := s.cache.InvalidateLocal(ctx, e.Selectors()...); err != nil {
		s.logger.Warn("Failed to apply cache event",
			zap.String("event", string(e.Type)), zap.String("id", e.ID), zap.Error(err))
		return
	}
	s.logger.Debug("Applied remote cache event",
		zap.String("event", string(e.Type)), zap.String("id", e.ID), zap.String("origin", e.Origin))
}

// Warmup scores every candidate against every position to prefill the match cache.
func (s *Service) Warmup(
	ctx context.Context, candidates []domain.Candidate, positions []domain.Position, opts batch.Options,
) (batch.Report, error) {
	if s.runner == nil {
		return batch.Report{}, fmt.Errorf("warmup: no batch runner: %w", domain.ErrInvalidInput)
	}
	opts.Limit, opts.MinScore = 0, 0
	rep, err := s.runner.Match(ctx, batch.Request{Candidates: candidates, Positions: positions, Options: opts})
	if err != nil {
		return batch.Report{}, fmt.Errorf("warmup: %w", err)
	}
	s.logger.Info("Cache warmed",
		zap.String("batch_id", rep.BatchID),
		zap.Int("pairs", rep.Stats.Count),
		zap.Bool("truncated", rep.Truncated),
	)
	return rep, nil
}
