package batch

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// PairScorer scores one candidate against one position.
type PairScorer interface {
	Score(ctx context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode) (domain.MatchResult, error)
}
