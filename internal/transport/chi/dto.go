package chi

import (
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	batchuc "github.com/kailas-cloud/talentmatch/internal/usecase/batch"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest         = "bad_request"
	codeUnauthorized       = "unauthorized"
	codeValidationFailed   = "validation_failed"
	codeNotFound           = "not_found"
	codeNoCriteria         = "no_computable_criteria"
	codeRateLimited        = "rate_limited"
	codeQuotaExceeded      = "lookup_quota_exceeded"
	codeLookupUnavailable  = "lookup_unavailable"
	codeCircuitOpen        = "lookup_circuit_open"
	codeLexiconUnavailable = "lexicon_unavailable"
	codeInternalError      = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Record  string            `json:"record,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// MatchRequest is the body of POST /v1/match.
type MatchRequest struct {
	Candidate *domain.Candidate `json:"candidate"`
	Position  *domain.Position  `json:"position"`
	Mode      string            `json:"mode,omitempty"`
}

// TopResponse lists precomputed matches of a candidate.
type TopResponse struct {
	CandidateID string               `json:"candidate_id"`
	Items       []domain.MatchResult `json:"items"`
	Count       int                  `json:"count"`
}

// InvalidateRequest is the body of POST /v1/cache/invalidate.
type InvalidateRequest struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// WarmupRequest is the body of POST /v1/cache/warmup.
type WarmupRequest struct {
	Candidates []domain.Candidate `json:"candidates"`
	Positions  []domain.Position  `json:"positions"`
	Options    batchuc.Options    `json:"options"`
}

// UsageResponse reports routing lookup usage for a period.
type UsageResponse struct {
	Period        string      `json:"period"`
	PeriodStartAt *time.Time  `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time  `json:"period_end_at,omitempty"`
	Usage         UsageCounts `json:"usage"`
	Budget        UsageBudget `json:"budget"`
}

// UsageCounts are lookup counters.
type UsageCounts struct {
	Lookups       int64   `json:"lookups"`
	Fallbacks     int64   `json:"fallbacks"`
	FallbackRatio float64 `json:"fallback_ratio"`
}

// UsageBudget is the daily routing quota status. CallsLimit 0 means unlimited.
type UsageBudget struct {
	CallsLimit     int64      `json:"calls_limit"`
	CallsRemaining int64      `json:"calls_remaining"`
	IsExhausted    bool       `json:"is_exhausted"`
	ResetsAt       *time.Time `json:"resets_at,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
