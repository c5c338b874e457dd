package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domusage "github.com/kailas-cloud/talentmatch/internal/domain/usage"
	batchuc "github.com/kailas-cloud/talentmatch/internal/usecase/batch"
	"github.com/kailas-cloud/talentmatch/internal/usecase/cachectl"
	healthuc "github.com/kailas-cloud/talentmatch/internal/usecase/health"
)

const (
	maxBodyBytes    = 16 << 20
	defaultTopLimit = 20
	maxTopLimit     = 500
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the talentmatch HTTP API.
type Server struct {
	matcher       PairMatcher
	batch         BatchRunner
	cache         CacheController
	usage         UsageReporter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. cache and usage may be nil; their routes then answer 404.
func NewServer(
	matcher PairMatcher,
	batch BatchRunner,
	cache CacheController,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		matcher: matcher,
		batch:   batch,
		cache:   cache,
		usage:   usage,
		health:  health,
		logger:  logger,
	}
	// Order matters: ValidationError before the ErrInvalidInput it unwraps to,
	// rate limiting before the lookup errors it is joined with.
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNoCriteria, http.StatusUnprocessableEntity, codeNoCriteria),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrLookupQuotaExceeded, http.StatusTooManyRequests, codeQuotaExceeded),
		sentinelHandler(domain.ErrCircuitOpen, http.StatusServiceUnavailable, codeCircuitOpen),
		sentinelHandler(domain.ErrLookupUnavailable, http.StatusBadGateway, codeLookupUnavailable),
		sentinelHandler(domain.ErrLexiconUnavailable, http.StatusBadGateway, codeLexiconUnavailable),
	}
	return s
}

// Mount registers every route on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/match", s.Match)
		r.Post("/match/batch", s.BatchMatch)
		r.Post("/evaluate", s.Evaluate)
		r.Get("/candidates/{id}/top", s.TopForCandidate)
		r.Post("/cache/invalidate", s.InvalidateCache)
		r.Post("/cache/warmup", s.WarmupCache)
		r.Get("/usage", s.GetUsage)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
}

// Match handles POST /v1/match.
func (s *Server) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Candidate == nil || req.Position == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "candidate and position are required")
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.matcher.Score(r.Context(), req.Candidate, req.Position, mode)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// BatchMatch handles POST /v1/match/batch.
func (s *Server) BatchMatch(w http.ResponseWriter, r *http.Request) {
	var req batchuc.Request
	if !decodeBody(w, r, &req) {
		return
	}
	rep, err := s.batch.Match(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Evaluate handles POST /v1/evaluate.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req batchuc.EvaluationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ev, err := s.batch.Evaluate(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// TopForCandidate handles GET /v1/candidates/{id}/top.
func (s *Server) TopForCandidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	items, err := s.matcher.TopForCandidate(r.Context(), id, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.MatchResult{}
	}
	writeJSON(w, http.StatusOK, TopResponse{CandidateID: id, Items: items, Count: len(items)})
}

// InvalidateCache handles POST /v1/cache/invalidate.
func (s *Server) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "cache control is disabled")
		return
	}
	var req InvalidateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.cache.Invalidate(r.Context(), cachectl.Event{Type: cachectl.EventType(req.Type), ID: req.ID}); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WarmupCache handles POST /v1/cache/warmup.
func (s *Server) WarmupCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "cache control is disabled")
		return
	}
	var req WarmupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rep, err := s.cache.Warmup(r.Context(), req.Candidates, req.Positions, req.Options)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	// Results are already in the cache; only the summary goes back.
	rep.Results = nil
	writeJSON(w, http.StatusOK, rep)
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "usage reporting is disabled")
		return
	}
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	report, err := s.usage.GetReport(r.Context(), period)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := UsageResponse{
		Period: string(report.Period()),
		Usage: UsageCounts{
			Lookups:       report.Metrics().Lookups(),
			Fallbacks:     report.Metrics().Fallbacks(),
			FallbackRatio: report.Metrics().FallbackRatio(),
		},
		Budget: UsageBudget{
			CallsLimit:     report.Budget().CallsLimit(),
			CallsRemaining: report.Budget().CallsRemaining(),
			IsExhausted:    report.Budget().IsExhausted(),
		},
	}
	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}
	if report.Budget().ResetsAt() > 0 {
		resetsAt := time.UnixMilli(report.Budget().ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// Degraded still serves matches on fallbacks; only a dead store is fatal.
	httpStatus := http.StatusOK
	if report.Checks["database"] == healthuc.CheckError {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultTopLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	if n > maxTopLimit {
		n = maxTopLimit
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrNoCriteria,
		domain.ErrRateLimited,
		domain.ErrLookupQuotaExceeded,
		domain.ErrCircuitOpen,
		domain.ErrLookupUnavailable,
		domain.ErrLexiconUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler exposes per-field messages of a domain.ValidationError.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    codeValidationFailed,
		Message: domain.ErrInvalidInput.Error(),
		Record:  ve.Record,
		Fields:  ve.Fields,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	if errors.Is(err, domain.ErrInvalidInput) {
		// Input problems are the caller's own data; echo the detail.
		msg = err.Error()
	}
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
