// Package talentmatch scores candidate/position compatibility in process.
//
// An Engine assembles the same components as the HTTP service: synonym-aware skill
// matching, travel-time location scoring, the soft criteria, adaptive weighting,
// insights, the multi-tier match cache and batch orchestration.
package talentmatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/talentmatch/internal/db/redis"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	"github.com/kailas-cloud/talentmatch/internal/repository/cache"
	"github.com/kailas-cloud/talentmatch/internal/transport/routing"
	batchuc "github.com/kailas-cloud/talentmatch/internal/usecase/batch"
	"github.com/kailas-cloud/talentmatch/internal/usecase/cachectl"
	"github.com/kailas-cloud/talentmatch/internal/usecase/criteria"
	"github.com/kailas-cloud/talentmatch/internal/usecase/insight"
	"github.com/kailas-cloud/talentmatch/internal/usecase/location"
	"github.com/kailas-cloud/talentmatch/internal/usecase/scoring"
	"github.com/kailas-cloud/talentmatch/internal/usecase/skill"
	"github.com/kailas-cloud/talentmatch/internal/usecase/synonym"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultMemorySize       = 10000
	defaultKeyPrefix        = "talentmatch:"
)

// Engine is the talentmatch entry point. Safe for concurrent use.
type Engine struct {
	store   *dbRedis.Store
	scorer  *scoring.CachedScorer
	batch   *batchuc.Service
	cache   *cachectl.Service
	stopBus context.CancelFunc
	logger  *zap.Logger
}

// New assembles an Engine. With WithRedis it connects to the store and waits for it.
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{
		memorySize: defaultMemorySize,
		keyPrefix:  defaultKeyPrefix,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.metricsReg != nil {
		if err := registerMetrics(cfg.metricsReg); err != nil {
			return nil, err
		}
	}

	var store *dbRedis.Store
	if len(cfg.addrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("talentmatch: create store: %w", err)
		}
		if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("talentmatch: database not ready: %w", err)
		}
		store = s
	}

	e, err := wireEngine(store, cfg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return e, nil
}

func wireEngine(store *dbRedis.Store, cfg *engineConfig) (*Engine, error) {
	logger := cfg.logger
	metered := cfg.metricsReg != nil

	memTier, err := cache.NewMemoryTier(cfg.memorySize, time.Now)
	if err != nil {
		return nil, fmt.Errorf("talentmatch: memory tier: %w", err)
	}
	tiers := []cache.Tier{memTier}

	// Interfaces stay nil (not typed nil pointers) without a store.
	var agg interface {
		Entries(ctx context.Context, partition string) (map[string]cache.Entry, error)
	}
	var bus cachectl.Bus
	if store != nil {
		aggTier := cache.NewAggregateTier(store, cfg.keyPrefix, time.Now)
		tiers = append(tiers, cache.NewStoreTier(store, cfg.keyPrefix, time.Now), aggTier)
		agg, bus = aggTier, store
	}

	var chainOpts []cache.Option
	if metered {
		chainOpts = append(chainOpts, cache.WithRequestCounter(metrics.CacheRequestsTotal))
	}
	chain := cache.NewChain(tiers, logger, chainOpts...)

	quota := location.NewQuotaTracker(cfg.routingQuota, location.QuotaActionFallback, logger)
	var router location.Router
	if cfg.routingURL != "" {
		client, err := routing.New(routing.Config{
			BaseURL: cfg.routingURL,
			APIKey:  cfg.routingKey,
			Cache:   chain,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("talentmatch: routing: %w", err)
		}
		router = location.NewGuardedRouter(client, location.DefaultGuardConfig(), quota, nil, logger)
	}

	var expanderOpts []synonym.Option
	if cfg.lexicon != nil {
		expanderOpts = append(expanderOpts, synonym.WithLexicon(cfg.lexicon))
	}

	var scorerOpts []scoring.Option
	if metered {
		scorerOpts = append(scorerOpts,
			scoring.WithMetrics(metrics.MatchRequestsTotal, metrics.MatchDuration, metrics.CriterionFallbackTotal))
	}
	scorer := scoring.NewScorer(
		skill.NewMatcher(synonym.New(logger, expanderOpts...)),
		location.NewMatcher(router, chain, location.DefaultConfig(), logger, location.WithFallbackRecorder(quota)),
		criteria.New(criteria.DefaultConfig(), nil).All(),
		insight.New(insight.DefaultConfig()),
		scoring.Config{
			CompletenessThreshold: cfg.completenessThreshold,
			WeightsVersion:        cfg.weightsVersion,
		},
		logger,
		scorerOpts...,
	)
	cached := scoring.NewCachedScorer(scorer, chain, agg, scorer.WeightsVersion(), logger)

	batchOpts := []batchuc.Option{
		batchuc.WithWorkers(cfg.workers),
		batchuc.WithMaxPairs(cfg.maxPairs),
		batchuc.WithDefaultTimeout(cfg.batchTimeout),
	}
	if metered {
		batchOpts = append(batchOpts, batchuc.WithPairCounter(metrics.BatchPairsTotal))
	}
	batchSvc := batchuc.New(cached, logger, batchOpts...)

	cacheCtl := cachectl.New(chain, bus, cfg.keyPrefix+"invalidate", batchSvc, logger)
	listenCtx, stop := context.WithCancel(context.Background())
	if bus != nil {
		go func() {
			if err := cacheCtl.Listen(listenCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Cache invalidation listener stopped", zap.Error(err))
			}
		}()
	}

	return &Engine{
		store:   store,
		scorer:  cached,
		batch:   batchSvc,
		cache:   cacheCtl,
		stopBus: stop,
		logger:  logger,
	}, nil
}

func registerMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		metrics.MatchRequestsTotal,
		metrics.MatchDuration,
		metrics.CriterionFallbackTotal,
		metrics.CacheRequestsTotal,
		metrics.BatchPairsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("talentmatch: register metrics: %w", err)
		}
	}
	return nil
}

// Close stops the invalidation listener and releases the store connection.
func (e *Engine) Close() {
	e.stopBus()
	if e.store != nil {
		e.store.Close()
	}
}

// Match scores one candidate against one position. ModeAuto picks the aggregation
// mode from data completeness. Results are cached until the records change.
func (e *Engine) Match(ctx context.Context, c *Candidate, p *Position, mode Mode) (MatchResult, error) {
	res, err := e.scorer.Score(ctx, c, p, mode)
	if err != nil {
		return MatchResult{}, fmt.Errorf("match: %w", err)
	}
	return res, nil
}

// BatchMatch scores every requested pair with bounded concurrency.
func (e *Engine) BatchMatch(ctx context.Context, req BatchRequest) (BatchReport, error) {
	rep, err := e.batch.Match(ctx, req)
	if err != nil {
		return BatchReport{}, fmt.Errorf("batch match: %w", err)
	}
	return rep, nil
}

// Evaluate scores labeled pairs and compares them with the expected scores.
func (e *Engine) Evaluate(ctx context.Context, req EvaluationRequest) (Evaluation, error) {
	ev, err := e.batch.Evaluate(ctx, req)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate: %w", err)
	}
	return ev, nil
}

// TopForCandidate returns a candidate's precomputed matches, best first.
// Only available with WithRedis; otherwise it returns nothing.
func (e *Engine) TopForCandidate(ctx context.Context, candidateID string, limit int) ([]MatchResult, error) {
	return e.scorer.TopForCandidate(ctx, candidateID, limit)
}

// Invalidate drops cached results affected by ev (and tells other instances with WithRedis).
func (e *Engine) Invalidate(ctx context.Context, ev Event) error {
	if err := e.cache.Invalidate(ctx, ev); err != nil {
		return fmt.Errorf("invalidate: %w", err)
	}
	return nil
}
