package usage

import (
	"context"
	"time"
)

// QuotaReader provides read-only access to routing quota state.
type QuotaReader interface {
	Limit() int64
	Used() int64
	Remaining() int64
	Fallbacks() int64
	ResetsAt() time.Time
	Monthly(ctx context.Context) (lookups, fallbacks int64, err error)
}
