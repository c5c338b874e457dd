package cachectl

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/repository/cache"
	"github.com/kailas-cloud/talentmatch/internal/usecase/batch"
)

// Invalidator removes cache entries across tiers.
type Invalidator interface {
	Invalidate(ctx context.Context, sels ...cache.Selector) error
	InvalidateLocal(ctx context.Context, sels ...cache.Selector) error
}

// Bus carries invalidation events between instances.
type Bus interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channel string, fn func(message string)) error
}

// BatchRunner prefills the match cache.
type BatchRunner interface {
	Match(ctx context.Context, req batch.Request) (batch.Report, error)
}
