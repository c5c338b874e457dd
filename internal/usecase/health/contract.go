package health

import "context"

// DBPinger checks shared store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// BreakerReader reports whether the routing circuit breaker is open.
type BreakerReader interface {
	BreakerOpen() bool
}

// LexiconChecker checks lexical-relations provider availability.
type LexiconChecker interface {
	HealthCheck(ctx context.Context) error
}
