package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Matching still works on fallbacks.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckOpen indicates a tripped circuit breaker.
	CheckOpen CheckResult = "open"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	routing BreakerReader
	lexicon LexiconChecker
}

// New creates a Service. Every dependency can be nil when the component is disabled.
func New(db DBPinger, routing BreakerReader, lexicon LexiconChecker) *Service {
	return &Service{db: db, routing: routing, lexicon: lexicon}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = CheckError
		} else {
			checks["database"] = CheckOK
		}
	}

	if s.routing != nil {
		if s.routing.BreakerOpen() {
			checks["routing"] = CheckOpen
		} else {
			checks["routing"] = CheckOK
		}
	}

	if s.lexicon != nil {
		if err := s.lexicon.HealthCheck(ctx); err != nil {
			checks["lexicon"] = CheckError
		} else {
			checks["lexicon"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
