package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domusage "github.com/kailas-cloud/talentmatch/internal/domain/usage"
	"github.com/kailas-cloud/talentmatch/internal/domain/usage/budget"
	usagemetrics "github.com/kailas-cloud/talentmatch/internal/domain/usage/metrics"
	batchuc "github.com/kailas-cloud/talentmatch/internal/usecase/batch"
	"github.com/kailas-cloud/talentmatch/internal/usecase/cachectl"
	healthuc "github.com/kailas-cloud/talentmatch/internal/usecase/health"
)

// --- Mocks ---

type mockMatcher struct {
	scoreFn func(ctx context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode) (domain.MatchResult, error)
	topFn   func(ctx context.Context, candidateID string, limit int) ([]domain.MatchResult, error)
}

func (m *mockMatcher) Score(
	ctx context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode,
) (domain.MatchResult, error) {
	if m.scoreFn != nil {
		return m.scoreFn(ctx, c, p, mode)
	}
	return domain.MatchResult{CandidateID: c.ID, PositionID: p.ID, Score: 0.8, Band: domain.BandGood}, nil
}

func (m *mockMatcher) TopForCandidate(ctx context.Context, candidateID string, limit int) ([]domain.MatchResult, error) {
	if m.topFn != nil {
		return m.topFn(ctx, candidateID, limit)
	}
	return nil, nil
}

type mockBatch struct {
	matchFn    func(ctx context.Context, req batchuc.Request) (batchuc.Report, error)
	evaluateFn func(ctx context.Context, req batchuc.EvaluationRequest) (batchuc.Evaluation, error)
}

func (m *mockBatch) Match(ctx context.Context, req batchuc.Request) (batchuc.Report, error) {
	if m.matchFn != nil {
		return m.matchFn(ctx, req)
	}
	return batchuc.Report{BatchID: "b-1"}, nil
}

func (m *mockBatch) Evaluate(ctx context.Context, req batchuc.EvaluationRequest) (batchuc.Evaluation, error) {
	if m.evaluateFn != nil {
		return m.evaluateFn(ctx, req)
	}
	return batchuc.Evaluation{BatchID: "e-1"}, nil
}

type mockCache struct {
	events   []cachectl.Event
	err      error
	warmupFn func(candidates []domain.Candidate, positions []domain.Position) (batchuc.Report, error)
}

func (m *mockCache) Invalidate(_ context.Context, e cachectl.Event) error {
	if m.err != nil {
		return m.err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockCache) Warmup(
	_ context.Context, candidates []domain.Candidate, positions []domain.Position, _ batchuc.Options,
) (batchuc.Report, error) {
	if m.warmupFn != nil {
		return m.warmupFn(candidates, positions)
	}
	return batchuc.Report{BatchID: "w-1"}, nil
}

type mockUsage struct {
	periods []domusage.Period
}

func (m *mockUsage) GetReport(_ context.Context, period domusage.Period) (domusage.Report, error) {
	m.periods = append(m.periods, period)
	start := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	return domusage.NewReport(period, start.UnixMilli(), start.Add(24*time.Hour).UnixMilli(),
		usagemetrics.New(120, 7), budget.New(1000, 880, false, start.Add(24*time.Hour).UnixMilli())), nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- Helpers ---

type testDeps struct {
	matcher *mockMatcher
	batch   *mockBatch
	cache   *mockCache
	usage   *mockUsage
	health  *mockHealth
}

func newTestRouter(t *testing.T) (http.Handler, *testDeps) {
	t.Helper()
	d := &testDeps{
		matcher: &mockMatcher{},
		batch:   &mockBatch{},
		cache:   &mockCache{},
		usage:   &mockUsage{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}},
	}
	r := chi.NewRouter()
	NewServer(d.matcher, d.batch, d.cache, d.usage, d.health, zap.NewNop()).Mount(r)
	return r, d
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

const matchBody = `{"candidate":{"id":"c1","skills":["go"]},"position":{"id":"p1","required_skills":["go"]}}`

// --- Tests ---

func TestMatch_OK(t *testing.T) {
	h, d := newTestRouter(t)
	var gotMode domain.Mode
	d.matcher.scoreFn = func(_ context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode) (domain.MatchResult, error) {
		gotMode = mode
		return domain.MatchResult{CandidateID: c.ID, PositionID: p.ID, Score: 0.91, Band: domain.BandExcellent}, nil
	}

	body := strings.TrimSuffix(matchBody, "}") + `,"mode":"baseline"}`
	rr := do(t, h, http.MethodPost, "/v1/match", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var res domain.MatchResult
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.CandidateID != "c1" || res.PositionID != "p1" || res.Score != 0.91 {
		t.Errorf("unexpected result: %+v", res)
	}
	if gotMode != domain.ModeBaseline {
		t.Errorf("mode = %q, expected baseline", gotMode)
	}
}

func TestMatch_BadRequests(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"candidate":`, codeBadRequest},
		{"missing position", `{"candidate":{"id":"c1"}}`, codeValidationFailed},
		{"unknown mode", strings.TrimSuffix(matchBody, "}") + `,"mode":"turbo"}`, codeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/v1/match", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, expected 400", rr.Code)
			}
			if got := decodeError(t, rr).Code; got != tt.code {
				t.Errorf("code = %q, expected %q", got, tt.code)
			}
		})
	}
}

func TestMatch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &domain.ValidationError{Record: "candidate c1", Fields: map[string]string{"id": "required"}},
			http.StatusBadRequest, codeValidationFailed},
		{"no criteria", fmt.Errorf("score: %w", domain.ErrNoCriteria), http.StatusUnprocessableEntity, codeNoCriteria},
		{"not found", domain.ErrNotFound, http.StatusNotFound, codeNotFound},
		{"rate limited lookup", fmt.Errorf("%w: %w", domain.ErrRateLimited, domain.ErrLookupUnavailable),
			http.StatusTooManyRequests, codeRateLimited},
		{"quota", domain.ErrLookupQuotaExceeded, http.StatusTooManyRequests, codeQuotaExceeded},
		{"circuit open", domain.ErrCircuitOpen, http.StatusServiceUnavailable, codeCircuitOpen},
		{"lookup", domain.ErrLookupUnavailable, http.StatusBadGateway, codeLookupUnavailable},
		{"lexicon", domain.ErrLexiconUnavailable, http.StatusBadGateway, codeLexiconUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, codeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newTestRouter(t)
			d.matcher.scoreFn = func(context.Context, *domain.Candidate, *domain.Position, domain.Mode) (domain.MatchResult, error) {
				return domain.MatchResult{}, tt.err
			}

			rr := do(t, h, http.MethodPost, "/v1/match", matchBody)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, expected %d", rr.Code, tt.status)
			}
			resp := decodeError(t, rr)
			if resp.Code != tt.code {
				t.Errorf("code = %q, expected %q", resp.Code, tt.code)
			}
			if tt.code == codeInternalError && resp.Message != "internal error" {
				t.Errorf("internal message leaked: %q", resp.Message)
			}
		})
	}
}

func TestMatch_ValidationFields(t *testing.T) {
	h, d := newTestRouter(t)
	d.matcher.scoreFn = func(context.Context, *domain.Candidate, *domain.Position, domain.Mode) (domain.MatchResult, error) {
		return domain.MatchResult{}, &domain.ValidationError{
			Record: "position p1",
			Fields: map[string]string{"salary.max": "must be >= min"},
		}
	}

	rr := do(t, h, http.MethodPost, "/v1/match", matchBody)
	resp := decodeError(t, rr)
	if resp.Record != "position p1" || resp.Fields["salary.max"] == "" {
		t.Errorf("expected field details, got %+v", resp)
	}
}

func TestBatchMatch(t *testing.T) {
	h, d := newTestRouter(t)
	var got batchuc.Request
	d.batch.matchFn = func(_ context.Context, req batchuc.Request) (batchuc.Report, error) {
		got = req
		return batchuc.Report{
			BatchID: "b-42",
			Results: []domain.MatchResult{{CandidateID: "c1", PositionID: "p1", Score: 0.7}},
			Stats:   batchuc.Stats{Count: 1, Mean: 0.7},
		}, nil
	}

	body := `{"candidates":[{"id":"c1"}],"positions":[{"id":"p1"},{"id":"p2"}],` +
		`"pairs":[{"candidate_id":"c1","position_id":"p1"}],"options":{"limit":5,"min_score":0.5}}`
	rr := do(t, h, http.MethodPost, "/v1/match/batch", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if len(got.Candidates) != 1 || len(got.Positions) != 2 || len(got.Pairs) != 1 {
		t.Errorf("request not decoded: %+v", got)
	}
	if got.Options.Limit != 5 || got.Options.MinScore != 0.5 {
		t.Errorf("options not decoded: %+v", got.Options)
	}

	var rep batchuc.Report
	if err := json.NewDecoder(rr.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.BatchID != "b-42" || len(rep.Results) != 1 {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestBatchMatch_InvalidInput(t *testing.T) {
	h, d := newTestRouter(t)
	d.batch.matchFn = func(context.Context, batchuc.Request) (batchuc.Report, error) {
		return batchuc.Report{}, fmt.Errorf("batch needs candidates: %w", domain.ErrInvalidInput)
	}

	rr := do(t, h, http.MethodPost, "/v1/match/batch", `{"candidates":[],"positions":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rr.Code)
	}
	if msg := decodeError(t, rr).Message; !strings.Contains(msg, "batch needs candidates") {
		t.Errorf("input error detail not echoed: %q", msg)
	}
}

func TestEvaluate(t *testing.T) {
	h, d := newTestRouter(t)
	d.batch.evaluateFn = func(_ context.Context, req batchuc.EvaluationRequest) (batchuc.Evaluation, error) {
		if len(req.Labels) != 1 || req.Labels[0].Expected != 0.8 {
			t.Errorf("labels not decoded: %+v", req.Labels)
		}
		return batchuc.Evaluation{BatchID: "e-9", Count: 1, MAE: 0.05}, nil
	}

	body := `{"candidates":[{"id":"c1"}],"positions":[{"id":"p1"}],` +
		`"labels":[{"candidate_id":"c1","position_id":"p1","expected":0.8}]}`
	rr := do(t, h, http.MethodPost, "/v1/evaluate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var ev batchuc.Evaluation
	if err := json.NewDecoder(rr.Body).Decode(&ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.MAE != 0.05 {
		t.Errorf("MAE = %v, expected 0.05", ev.MAE)
	}
}

func TestTopForCandidate(t *testing.T) {
	h, d := newTestRouter(t)
	var gotID string
	var gotLimit int
	d.matcher.topFn = func(_ context.Context, id string, limit int) ([]domain.MatchResult, error) {
		gotID, gotLimit = id, limit
		return []domain.MatchResult{{CandidateID: id, PositionID: "p1", Score: 0.9}}, nil
	}

	rr := do(t, h, http.MethodGet, "/v1/candidates/c7/top?limit=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if gotID != "c7" || gotLimit != 3 {
		t.Errorf("got id=%q limit=%d", gotID, gotLimit)
	}
	var resp TopResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Items[0].PositionID != "p1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestTopForCandidate_Limits(t *testing.T) {
	h, d := newTestRouter(t)
	var gotLimit int
	d.matcher.topFn = func(_ context.Context, _ string, limit int) ([]domain.MatchResult, error) {
		gotLimit = limit
		return nil, nil
	}

	rr := do(t, h, http.MethodGet, "/v1/candidates/c1/top", "")
	if rr.Code != http.StatusOK || gotLimit != defaultTopLimit {
		t.Errorf("default limit: status=%d limit=%d", rr.Code, gotLimit)
	}
	if !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Errorf("expected empty items array, got %s", rr.Body.String())
	}

	do(t, h, http.MethodGet, "/v1/candidates/c1/top?limit=100000", "")
	if gotLimit != maxTopLimit {
		t.Errorf("limit not capped: %d", gotLimit)
	}

	rr = do(t, h, http.MethodGet, "/v1/candidates/c1/top?limit=-1", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("negative limit: status = %d, expected 400", rr.Code)
	}
}

func TestInvalidateCache(t *testing.T) {
	h, d := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/v1/cache/invalidate", `{"type":"candidate-updated","id":"c1"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if len(d.cache.events) != 1 || d.cache.events[0].Type != cachectl.EventCandidateUpdated || d.cache.events[0].ID != "c1" {
		t.Errorf("unexpected events: %+v", d.cache.events)
	}

	rr = do(t, h, http.MethodPost, "/v1/cache/invalidate", `{"type":"nonsense"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown type: status = %d, expected 400", rr.Code)
	}
}

func TestInvalidateCache_StoreError(t *testing.T) {
	h, d := newTestRouter(t)
	d.cache.err = errors.New("connection reset")

	rr := do(t, h, http.MethodPost, "/v1/cache/invalidate", `{"type":"weights-changed"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, expected 500", rr.Code)
	}
}

func TestWarmupCache(t *testing.T) {
	h, d := newTestRouter(t)
	d.cache.warmupFn = func(c []domain.Candidate, p []domain.Position) (batchuc.Report, error) {
		return batchuc.Report{
			BatchID: "w-2",
			Results: make([]domain.MatchResult, len(c)*len(p)),
			Stats:   batchuc.Stats{Count: len(c) * len(p)},
		}, nil
	}

	rr := do(t, h, http.MethodPost, "/v1/cache/warmup",
		`{"candidates":[{"id":"c1"},{"id":"c2"}],"positions":[{"id":"p1"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var rep batchuc.Report
	if err := json.NewDecoder(rr.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Stats.Count != 2 || len(rep.Results) != 0 {
		t.Errorf("expected summary only, got %+v", rep)
	}
}

func TestCacheRoutes_Disabled(t *testing.T) {
	r := chi.NewRouter()
	NewServer(&mockMatcher{}, &mockBatch{}, nil, nil, &mockHealth{}, zap.NewNop()).Mount(r)

	for _, path := range []string{"/v1/cache/invalidate", "/v1/cache/warmup"} {
		rr := do(t, r, http.MethodPost, path, `{}`)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, expected 404", path, rr.Code)
		}
	}
	if rr := do(t, r, http.MethodGet, "/v1/usage", ""); rr.Code != http.StatusNotFound {
		t.Errorf("usage: status = %d, expected 404", rr.Code)
	}
}

func TestGetUsage(t *testing.T) {
	h, d := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/v1/usage?period=month", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp UsageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Period != "month" || resp.Usage.Lookups != 120 || resp.Usage.Fallbacks != 7 || resp.Usage.FallbackRatio <= 0 {
		t.Errorf("unexpected usage: %+v", resp)
	}
	if resp.Budget.CallsLimit != 1000 || resp.Budget.CallsRemaining != 880 || resp.Budget.ResetsAt == nil {
		t.Errorf("unexpected budget: %+v", resp.Budget)
	}

	do(t, h, http.MethodGet, "/v1/usage", "")
	if d.usage.periods[1] != domusage.PeriodDay {
		t.Errorf("default period = %q, expected day", d.usage.periods[1])
	}

	if rr := do(t, h, http.MethodGet, "/v1/usage?period=total", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown period: status = %d, expected 400", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		status int
	}{
		{"healthy", healthuc.Report{Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK}}, http.StatusOK},
		{"routing open", healthuc.Report{Status: healthuc.Degraded,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "routing": healthuc.CheckOpen}},
			http.StatusOK},
		{"database down", healthuc.Report{Status: healthuc.Degraded,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError}}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newTestRouter(t)
			d.health.report = tt.report

			rr := do(t, h, http.MethodGet, "/health", "")
			if rr.Code != tt.status {
				t.Fatalf("status = %d, expected %d", rr.Code, tt.status)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tt.report.Status) {
				t.Errorf("status field = %q, expected %q", resp.Status, tt.report.Status)
			}
		})
	}
}

func TestNotFoundAndMethod(t *testing.T) {
	h, _ := newTestRouter(t)

	if rr := do(t, h, http.MethodGet, "/v1/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown route: status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/v1/match", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: status = %d", rr.Code)
	}
}
