package chi

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domusage "github.com/kailas-cloud/talentmatch/internal/domain/usage"
	batchuc "github.com/kailas-cloud/talentmatch/internal/usecase/batch"
	"github.com/kailas-cloud/talentmatch/internal/usecase/cachectl"
	healthuc "github.com/kailas-cloud/talentmatch/internal/usecase/health"
)

// PairMatcher scores one pair and reads precomputed matches.
type PairMatcher interface {
	Score(ctx context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode) (domain.MatchResult, error)
	TopForCandidate(ctx context.Context, candidateID string, limit int) ([]domain.MatchResult, error)
}

// BatchRunner runs batches and ground-truth evaluations.
type BatchRunner interface {
	Match(ctx context.Context, req batchuc.Request) (batchuc.Report, error)
	Evaluate(ctx context.Context, req batchuc.EvaluationRequest) (batchuc.Evaluation, error)
}

// CacheController invalidates and prefills the match cache.
type CacheController interface {
	Invalidate(ctx context.Context, e cachectl.Event) error
	Warmup(
		ctx context.Context, candidates []domain.Candidate, positions []domain.Position, opts batchuc.Options,
	) (batchuc.Report, error)
}

// UsageReporter reports routing lookup usage.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
