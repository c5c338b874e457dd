// Package scoring aggregates criterion results into the composite match score.
package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/usecase/criteria"
)

// CriterionScorer scores one criterion that may need I/O (skills, location).
type CriterionScorer interface {
	Score(ctx context.Context, c *domain.Candidate, p *domain.Position) domain.CriterionResult
}

// pure adapts an I/O-free matcher to CriterionScorer.
type pure criteria.Func

// InsightGenerator explains a scored pair.
type InsightGenerator interface {
	Generate(results []domain.CriterionResult, overall float64) []domain.Insight
}

// DefaultCompletenessThreshold selects the extended modes.
const DefaultCompletenessThreshold = 0.6

// Config holds the scorer settings.
type Config struct {
	CompletenessThreshold float64
	WeightsVersion        string
	Tables                Tables
}

// Scorer computes MatchResults. Safe for concurrent use.
type Scorer struct {
	cfg       Config
	matchers  map[domain.Criterion]CriterionScorer
	insights  InsightGenerator
	now       func() time.Time
	requests  *prometheus.CounterVec
	duration  prometheus.Observer
	fallbacks *prometheus.CounterVec
	logger    *zap.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithMetrics records per-mode counts, durations and criterion fallbacks.
func WithMetrics(requests *prometheus.CounterVec, duration prometheus.Observer, fallbacks *prometheus.CounterVec) Option {
	return func(s *Scorer) {
		s.requests, s.duration, s.fallbacks = requests, duration, fallbacks
	}
}

// WithClock injects the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithCriterion registers or replaces the scorer of one criterion.
func WithCriterion(c domain.Criterion, cs CriterionScorer) Option {
	return func(s *Scorer) { s.matchers[c] = cs }
}

// NewScorer assembles the composite scorer from the skill and location scorers and
// the pure soft-criterion matchers.
func NewScorer(
	skills, location CriterionScorer,
	soft map[domain.Criterion]criteria.Func,
	insights InsightGenerator,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Scorer {
	if cfg.CompletenessThreshold <= 0 {
		cfg.CompletenessThreshold = DefaultCompletenessThreshold
	}
	if cfg.WeightsVersion == "" {
		cfg.WeightsVersion = "v1"
	}
	if cfg.Tables == nil {
		cfg.Tables = DefaultTables()
	}

	s := &Scorer{
		cfg:      cfg,
		matchers: make(map[domain.Criterion]CriterionScorer, len(soft)+2),
		insights: insights,
		now:      time.Now,
		logger:   logger,
	}
	for c, fn := range soft {
		s.matchers[c] = pure(fn)
	}
	s.matchers[domain.CriterionSkills] = skills
	s.matchers[domain.CriterionLocation] = location
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score implements CriterionScorer.
func (f pure) Score(_ context.Context, c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	return f(c, p)
}

// WeightsVersion identifies the active weight tables in cache keys.
func (s *Scorer) WeightsVersion() string { return s.cfg.WeightsVersion }

// Score validates the pair, runs every criterion of the selected mode concurrently and
// aggregates computed criteria as Σ(w·s)/Σw. Returns ErrNoCriteria when nothing was computable.
func (s *Scorer) Score(
	ctx context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode,
) (domain.MatchResult, error) {
	start := time.Now()
	if err := domain.ValidatePair(c, p); err != nil {
		return domain.MatchResult{}, err
	}

	selected, cc, pc := SelectMode(c, p, s.cfg.CompletenessThreshold)
	if mode == domain.ModeAuto {
		mode = selected
	}
	table, ok := s.cfg.Tables[mode]
	if !ok {
		return domain.MatchResult{}, fmt.Errorf("no weight table for mode %q: %w", mode, domain.ErrInvalidInput)
	}

	results := s.evaluate(ctx, c, p, table)

	var num, den float64
	breakdown := make(domain.Breakdown, 0, len(results))
	meta := domain.MatchMetadata{
		Mode:                  mode,
		Completeness:          (cc + pc) / 2,
		CandidateCompleteness: cc,
		PositionCompleteness:  pc,
		WeightsVersion:        s.cfg.WeightsVersion,
	}
	for _, r := range results {
		if r.Fallback {
			s.countFallback(r.Criterion)
		}
		if r.Missing {
			meta.MissingCriteria = append(meta.MissingCriteria, r.Criterion)
			continue
		}
		if r.Fallback {
			meta.FallbackCriteria = append(meta.FallbackCriteria, r.Criterion)
		}
		num += r.Weight * r.Score
		den += r.Weight
		breakdown = append(breakdown, r)
	}
	if den == 0 {
		return domain.MatchResult{}, fmt.Errorf("candidate %s, position %s: %w", c.ID, p.ID, domain.ErrNoCriteria)
	}

	overall := domain.Clamp01(num / den)
	res := domain.MatchResult{
		CandidateID: c.ID,
		PositionID:  p.ID,
		Score:       overall,
		Band:        domain.BandOf(overall),
		Breakdown:   breakdown,
		Timestamp:   s.now().UTC(),
		Metadata:    meta,
	}
	if s.insights != nil {
		res.Insights = s.insights.Generate(results, overall)
	}

	elapsed := time.Since(start)
	if s.requests != nil {
		s.requests.WithLabelValues(string(mode)).Inc()
	}
	if s.duration != nil {
		s.duration.Observe(elapsed.Seconds())
	}
	s.logger.Debug("Pair scored",
		append(logger.MatchFields(c.ID, p.ID),
			zap.String("mode", string(mode)),
			zap.Float64("score", overall),
			zap.Int("computed", len(breakdown)),
			zap.Duration("duration", elapsed),
		)...,
	)
	return res, nil
}

// evaluate fans out over the table's criteria. Results keep the table order.
func (s *Scorer) evaluate(
	ctx context.Context, c *domain.Candidate, p *domain.Position, table WeightTable,
) []domain.CriterionResult {
	order := table.Criteria()
	results := make([]domain.CriterionResult, len(order))

	var g errgroup.Group
	for i, crit := range order {
		g.Go(func() error {
			m, ok := s.matchers[crit]
			if !ok || m == nil {
				results[i] = domain.Neutral(crit, "no matcher registered")
			} else {
				t0 := time.Now()
				r := m.Score(ctx, c, p)
				r.Latency = time.Since(t0)
				results[i] = r
			}
			results[i].Criterion = crit
			results[i].Weight = table[crit]
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Scorer) countFallback(c domain.Criterion) {
	if s.fallbacks != nil {
		s.fallbacks.WithLabelValues(string(c)).Inc()
	}
}
