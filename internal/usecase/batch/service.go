// Package batch scores many candidate/position pairs with a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Defaults for a batch service.
const (
	DefaultWorkers  = 8
	DefaultMaxPairs = 10000
)

// Pair outcomes recorded in the batch pair counter.
const (
	OutcomeScored       = "scored"
	OutcomeFailed       = "failed"
	OutcomeSkipped      = "skipped"
	OutcomeDeduplicated = "deduplicated"
)

// Service runs batch matches. Safe for concurrent use.
type Service struct {
	scorer   PairScorer
	workers  int
	maxPairs int
	timeout  time.Duration
	pairs    *prometheus.CounterVec
	newID    func() string
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets the default worker count.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxPairs caps the number of unique pairs per batch.
func WithMaxPairs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPairs = n
		}
	}
}

// WithDefaultTimeout applies when a request sets no timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithPairCounter records pair outcomes.
func WithPairCounter(cv *prometheus.CounterVec) Option {
	return func(s *Service) { s.pairs = cv }
}

// New creates a batch service.
func New(scorer PairScorer, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		scorer:   scorer,
		workers:  DefaultWorkers,
		maxPairs: DefaultMaxPairs,
		newID:    uuid.NewString,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type job struct {
	c *domain.Candidate
	p *domain.Position
}

type outcome struct {
	res     domain.MatchResult
	err     error
	skipped bool
}

// Match scores the requested pairs. Malformed records reject the whole request;
// a pair that fails to score is reported in Failures without aborting the batch.
func (s *Service) Match(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	if err := validateOptions(req.Options); err != nil {
		return Report{}, err
	}
	jobs, failures, requested, err := s.plan(req)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		BatchID:   s.newID(),
		Requested: requested,
		Unique:    len(jobs) + len(failures),
		Failures:  failures,
	}
	s.count(OutcomeDeduplicated, requested-report.Unique)
	s.count(OutcomeFailed, len(failures))

	outcomes, truncated := s.run(ctx, jobs, req.Options)
	report.Truncated = truncated

	scored := make([]domain.MatchResult, 0, len(outcomes))
	skipped := 0
	for i, o := range outcomes {
		switch {
		case o.skipped:
			skipped++
		case o.err != nil:
			report.Failures = append(report.Failures, Failure{
				CandidateID: jobs[i].c.ID,
				PositionID:  jobs[i].p.ID,
				Error:       o.err.Error(),
			})
			s.count(OutcomeFailed, 1)
		default:
			scored = append(scored, o.res)
		}
	}
	s.count(OutcomeScored, len(scored))
	s.count(OutcomeSkipped, skipped)

	SortResults(scored)
	report.Stats = ComputeStats(scored)
	report.Results = filter(scored, req.Options)

	s.logger.Info("Batch completed",
		zap.String("batch_id", report.BatchID),
		zap.Int("requested", requested),
		zap.Int("unique", report.Unique),
		zap.Int("scored", len(scored)),
		zap.Int("failed", len(report.Failures)),
		zap.Int("skipped", skipped),
		zap.Bool("truncated", truncated),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// plan validates the records and resolves the unique pairs to score.
// Unknown ids in explicit pairs become failures.
func (s *Service) plan(req Request) ([]job, []Failure, int, error) {
	if len(req.Candidates) == 0 || len(req.Positions) == 0 {
		return nil, nil, 0, fmt.Errorf("batch needs at least one candidate and one position: %w", domain.ErrInvalidInput)
	}

	candidates := make(map[string]*domain.Candidate, len(req.Candidates))
	candidateOrder := make([]string, 0, len(req.Candidates))
	for i := range req.Candidates {
		c := &req.Candidates[i]
		if err := domain.ValidateCandidate(c); err != nil {
			return nil, nil, 0, err
		}
		if _, dup := candidates[c.ID]; dup {
			continue
		}
		candidates[c.ID] = c
		candidateOrder = append(candidateOrder, c.ID)
	}
	positions := make(map[string]*domain.Position, len(req.Positions))
	positionOrder := make([]string, 0, len(req.Positions))
	for i := range req.Positions {
		p := &req.Positions[i]
		if err := domain.ValidatePosition(p); err != nil {
			return nil, nil, 0, err
		}
		if _, dup := positions[p.ID]; dup {
			continue
		}
		positions[p.ID] = p
		positionOrder = append(positionOrder, p.ID)
	}

	pairs := req.Pairs
	requested := len(pairs)
	if len(pairs) == 0 {
		// Records repeated under the same id count as requested, then collapse.
		requested = len(req.Candidates) * len(req.Positions)
		pairs = make([]Pair, 0, len(candidateOrder)*len(positionOrder))
		for _, cid := range candidateOrder {
			for _, pid := range positionOrder {
				pairs = append(pairs, Pair{CandidateID: cid, PositionID: pid})
			}
		}
	}

	seen := make(map[Pair]struct{}, len(pairs))
	var jobs []job
	var failures []Failure
	for _, pr := range pairs {
		if _, dup := seen[pr]; dup {
			continue
		}
		seen[pr] = struct{}{}

		c, okC := candidates[pr.CandidateID]
		p, okP := positions[pr.PositionID]
		if !okC || !okP {
			failures = append(failures, Failure{
				CandidateID: pr.CandidateID,
				PositionID:  pr.PositionID,
				Error:       fmt.Errorf("pair references unknown record: %w", domain.ErrNotFound).Error(),
			})
			continue
		}
		jobs = append(jobs, job{c: c, p: p})
	}
	if len(jobs)+len(failures) > s.maxPairs {
		return nil, nil, 0, fmt.Errorf("batch of %d pairs exceeds %d: %w", len(jobs)+len(failures), s.maxPairs, domain.ErrInvalidInput)
	}
	return jobs, failures, requested, nil
}

// run scores jobs with a bounded pool. Once ctx or the timeout expires no new pair is
// started; pairs already written to the cache stay valid.
func (s *Service) run(ctx context.Context, jobs []job, opts Options) ([]outcome, bool) {
	timeout := opts.Timeout()
	if timeout <= 0 {
		timeout = s.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = s.workers
	}

	outcomes := make([]outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, j := range jobs {
		if ctx.Err() != nil {
			for k := i; k < len(jobs); k++ {
				outcomes[k].skipped = true
			}
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i].skipped = true
				return nil
			}
			res, err := s.scorer.Score(ctx, j.c, j.p, opts.Mode)
			if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				outcomes[i].skipped = true
				return nil
			}
			outcomes[i] = outcome{res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	truncated := false
	for _, o := range outcomes {
		if o.skipped {
			truncated = true
			break
		}
	}
	return outcomes, truncated
}

func (s *Service) count(outcome string, n int) {
	if s.pairs != nil && n > 0 {
		s.pairs.WithLabelValues(outcome).Add(float64(n))
	}
}

func validateOptions(o Options) error {
	switch {
	case o.Limit < 0:
		return fmt.Errorf("limit must be >= 0: %w", domain.ErrInvalidInput)
	case o.MinScore < 0 || o.MinScore > 1:
		return fmt.Errorf("min_score must be within [0,1]: %w", domain.ErrInvalidInput)
	case o.Workers < 0:
		return fmt.Errorf("workers must be >= 0: %w", domain.ErrInvalidInput)
	case o.TimeoutMS < 0:
		return fmt.Errorf("timeout_ms must be >= 0: %w", domain.ErrInvalidInput)
	}
	if _, err := domain.ParseMode(string(o.Mode)); err != nil {
		return err
	}
	return nil
}

// SortResults orders results by score descending, then by ids for stable output.
func SortResults(results []domain.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.CandidateID != b.CandidateID {
			return a.CandidateID < b.CandidateID
		}
		return a.PositionID < b.PositionID
	})
}

func filter(sorted []domain.MatchResult, o Options) []domain.MatchResult {
	out := sorted
	if o.MinScore > 0 {
		n := sort.Search(len(sorted), func(i int) bool { return sorted[i].Score < o.MinScore })
		out = sorted[:n]
	}
	if o.Limit > 0 && len(out) > o.Limit {
		out = out[:o.Limit]
	}
	return out
}
