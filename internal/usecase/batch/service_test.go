package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// --- Mocks ---

type mockScorer struct {
	calls   atomic.Int64
	scoreFn func(ctx context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode) (domain.MatchResult, error)
}

func (m *mockScorer) Score(
	ctx context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode,
) (domain.MatchResult, error) {
	m.calls.Add(1)
	return m.scoreFn(ctx, c, p, mode)
}

// scoresFrom returns fixed scores keyed by "cid/pid"; unknown pairs score 0.5.
func scoresFrom(scores map[string]float64) *mockScorer {
	return &mockScorer{scoreFn: func(_ context.Context, c *domain.Candidate, p *domain.Position, _ domain.Mode) (domain.MatchResult, error) {
		s, ok := scores[c.ID+"/"+p.ID]
		if !ok {
			s = 0.5
		}
		return domain.MatchResult{CandidateID: c.ID, PositionID: p.ID, Score: s, Band: domain.BandOf(s)}, nil
	}}
}

func candidates(ids ...string) []domain.Candidate {
	out := make([]domain.Candidate, len(ids))
	for i, id := range ids {
		out[i] = domain.Candidate{ID: id}
	}
	return out
}

func positions(ids ...string) []domain.Position {
	out := make([]domain.Position, len(ids))
	for i, id := range ids {
		out[i] = domain.Position{ID: id}
	}
	return out
}

func newTestService(scorer PairScorer, opts ...Option) *Service {
	s := New(scorer, zap.NewNop(), opts...)
	s.newID = func() string { return "batch-1" }
	return s
}

// --- Match ---

func TestMatch_CrossProductSorted(t *testing.T) {
	scorer := scoresFrom(map[string]float64{
		"c1/p1": 0.9, "c1/p2": 0.3, "c1/p3": 0.6,
		"c2/p1": 0.75, "c2/p2": 0.55, "c2/p3": 0.1,
	})
	svc := newTestService(scorer)

	rep, err := svc.Match(context.Background(), Request{
		Candidates: candidates("c1", "c2"),
		Positions:  positions("p1", "p2", "p3"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(rep.Results))
	}
	for i := 1; i < len(rep.Results); i++ {
		if rep.Results[i].Score > rep.Results[i-1].Score {
			t.Errorf("results not sorted at %d", i)
		}
	}
	seen := map[string]bool{}
	for _, r := range rep.Results {
		k := r.CandidateID + "/" + r.PositionID
		if seen[k] {
			t.Errorf("duplicate pair %s", k)
		}
		seen[k] = true
	}
	if rep.BatchID != "batch-1" || rep.Truncated {
		t.Errorf("unexpected report header: %+v", rep)
	}
	if rep.Stats.Count != 6 || rep.Stats.Max != 0.9 || rep.Stats.Min != 0.1 {
		t.Errorf("unexpected stats: %+v", rep.Stats)
	}
	if rep.Stats.Bands[domain.BandExcellent] != 1 || rep.Stats.Bands[domain.BandGood] != 1 ||
		rep.Stats.Bands[domain.BandFair] != 2 || rep.Stats.Bands[domain.BandPoor] != 2 {
		t.Errorf("unexpected bands: %v", rep.Stats.Bands)
	}
}

func TestMatch_DeduplicatesPairs(t *testing.T) {
	scorer := scoresFrom(nil)
	svc := newTestService(scorer)

	rep, err := svc.Match(context.Background(), Request{
		Candidates: candidates("c1", "c1", "c2"),
		Positions:  positions("p1", "p1"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Requested != 6 || rep.Unique != 2 {
		t.Errorf("expected 6 requested and 2 unique, got %d/%d", rep.Requested, rep.Unique)
	}
	if scorer.calls.Load() != 2 {
		t.Errorf("expected 2 scorer calls, got %d", scorer.calls.Load())
	}
}

func TestMatch_ExplicitPairs(t *testing.T) {
	scorer := scoresFrom(nil)
	svc := newTestService(scorer)

	rep, err := svc.Match(context.Background(), Request{
		Candidates: candidates("c1", "c2"),
		Positions:  positions("p1", "p2"),
		Pairs: []Pair{
			{CandidateID: "c1", PositionID: "p2"},
			{CandidateID: "c1", PositionID: "p2"},
			{CandidateID: "c9", PositionID: "p1"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Results) != 1 || rep.Results[0].PositionID != "p2" {
		t.Fatalf("expected only c1/p2, got %+v", rep.Results)
	}
	if len(rep.Failures) != 1 || rep.Failures[0].CandidateID != "c9" {
		t.Errorf("expected unknown candidate failure, got %+v", rep.Failures)
	}
}

func TestMatch_PairFailureDoesNotAbort(t *testing.T) {
	scorer := &mockScorer{scoreFn: func(_ context.Context, c *domain.Candidate, p *domain.Position, _ domain.Mode) (domain.MatchResult, error) {
		if c.ID == "bad" {
			return domain.MatchResult{}, domain.ErrNoCriteria
		}
		return domain.MatchResult{CandidateID: c.ID, PositionID: p.ID, Score: 0.8}, nil
	}}
	svc := newTestService(scorer)

	rep, err := svc.Match(context.Background(), Request{
		Candidates: candidates("good", "bad"),
		Positions:  positions("p1"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Results) != 1 || len(rep.Failures) != 1 {
		t.Fatalf("expected 1 result and 1 failure, got %d/%d", len(rep.Results), len(rep.Failures))
	}
	if rep.Failures[0].CandidateID != "bad" {
		t.Errorf("unexpected failure %+v", rep.Failures[0])
	}
}

func TestMatch_LimitAndMinScore(t *testing.T) {
	scorer := scoresFrom(map[string]float64{"c1/p1": 0.9, "c1/p2": 0.7, "c1/p3": 0.4, "c1/p4": 0.65})
	svc := newTestService(scorer)

	rep, err := svc.Match(context.Background(), Request{
		Candidates: candidates("c1"),
		Positions:  positions("p1", "p2", "p3", "p4"),
		Options:    Options{MinScore: 0.6, Limit: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Results) != 2 || rep.Results[0].Score != 0.9 || rep.Results[1].Score != 0.7 {
		t.Errorf("unexpected results %+v", rep.Results)
	}
	if rep.Stats.Count != 4 {
		t.Errorf("stats cover every scored pair, got %d", rep.Stats.Count)
	}
}

func TestMatch_InvalidInput(t *testing.T) {
	svc := newTestService(scoresFrom(nil))
	tests := []struct {
		name string
		req  Request
	}{
		{"no candidates", Request{Positions: positions("p1")}},
		{"no positions", Request{Candidates: candidates("c1")}},
		{"malformed candidate", Request{Candidates: []domain.Candidate{{}}, Positions: positions("p1")}},
		{"bad min score", Request{Candidates: candidates("c1"), Positions: positions("p1"), Options: Options{MinScore: 2}}},
		{"bad mode", Request{Candidates: candidates("c1"), Positions: positions("p1"), Options: Options{Mode: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Match(context.Background(), tt.req); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestMatch_MaxPairs(t *testing.T) {
	svc := newTestService(scoresFrom(nil), WithMaxPairs(3))

	_, err := svc.Match(context.Background(), Request{
		Candidates: candidates("c1", "c2"),
		Positions:  positions("p1", "p2"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMatch_WorkerBound(t *testing.T) {
	var inFlight, peak atomic.Int64
	scorer := &mockScorer{scoreFn: func(_ context.Context, c *domain.Candidate, p *domain.Position, _ domain.Mode) (domain.MatchResult, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return domain.MatchResult{CandidateID: c.ID, PositionID: p.ID, Score: 0.5}, nil
	}}
	svc := newTestService(scorer)

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d", i)
	}
	rep, err := svc.Match(context.Background(), Request{
		Candidates: candidates(ids...),
		Positions:  positions("p1", "p2"),
		Options:    Options{Workers: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Results) != 20 {
		t.Errorf("expected 20 results, got %d", len(rep.Results))
	}
	if peak.Load() > 3 {
		t.Errorf("expected at most 3 concurrent pairs, got %d", peak.Load())
	}
}

func TestMatch_TimeoutTruncates(t *testing.T) {
	var mu sync.Mutex
	started := 0
	scorer := &mockScorer{scoreFn: func(ctx context.Context, c *domain.Candidate, p *domain.Position, _ domain.Mode) (domain.MatchResult, error) {
		mu.Lock()
		started++
		mu.Unlock()
		select {
		case <-time.After(30 * time.Millisecond):
		case <-ctx.Done():
		}
		return domain.MatchResult{CandidateID: c.ID, PositionID: p.ID, Score: 0.5}, nil
	}}
	svc := newTestService(scorer)

	rep, err := svc.Match(context.Background(), Request{
		Candidates: candidates("c1", "c2", "c3", "c4", "c5", "c6"),
		Positions:  positions("p1"),
		Options:    Options{Workers: 1, TimeoutMS: 40},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rep.Truncated {
		t.Error("expected truncated report")
	}
	if len(rep.Results) == 0 || len(rep.Results) >= 6 {
		t.Errorf("expected a partial result set, got %d", len(rep.Results))
	}
}

func TestMatch_PairCounter(t *testing.T) {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_batch_pairs_total"}, []string{"outcome"})
	svc := newTestService(scoresFrom(nil), WithPairCounter(cv))

	_, err := svc.Match(context.Background(), Request{
		Candidates: candidates("c1", "c1"),
		Positions:  positions("p1"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(cv.WithLabelValues(OutcomeScored)); got != 1 {
		t.Errorf("expected 1 scored, got %v", got)
	}
	if got := testutil.ToFloat64(cv.WithLabelValues(OutcomeDeduplicated)); got != 1 {
		t.Errorf("expected 1 deduplicated, got %v", got)
	}
}

// --- Stats ---

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil)
	if st.Count != 0 || st.Mean != 0 || len(st.Bands) != 4 {
		t.Errorf("unexpected empty stats %+v", st)
	}
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats([]domain.MatchResult{{Score: 0.2}, {Score: 0.4}, {Score: 0.9}})
	if st.Mean != 0.5 {
		t.Errorf("expected mean 0.5, got %v", st.Mean)
	}
	if st.StdDev <= 0 {
		t.Errorf("expected positive std dev, got %v", st.StdDev)
	}
}

// --- Evaluate ---

func TestEvaluate(t *testing.T) {
	scorer := scoresFrom(map[string]float64{"c1/p1": 0.9, "c1/p2": 0.5, "c2/p1": 0.3})
	svc := newTestService(scorer)

	ev, err := svc.Evaluate(context.Background(), EvaluationRequest{
		Candidates: candidates("c1", "c2"),
		Positions:  positions("p1", "p2"),
		Labels: []Label{
			{CandidateID: "c1", PositionID: "p1", Expected: 0.88},
			{CandidateID: "c1", PositionID: "p2", Expected: 0.75},
			{CandidateID: "c2", PositionID: "p1", Expected: 0.3, Band: domain.BandPoor},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Count != 3 {
		t.Fatalf("expected 3 evaluated pairs, got %d", ev.Count)
	}
	// errors .02, .25, 0
	if ev.MAE != 0.09 {
		t.Errorf("expected MAE 0.09, got %v", ev.MAE)
	}
	if ev.WithinTolerance != 0.666667 {
		t.Errorf("expected 2/3 within tolerance, got %v", ev.WithinTolerance)
	}
	if ev.BandAgreement != 0.666667 {
		t.Errorf("expected 2/3 band agreement, got %v", ev.BandAgreement)
	}
	if scorer.calls.Load() != 3 {
		t.Errorf("only labeled pairs should be scored, got %d", scorer.calls.Load())
	}
}

func TestEvaluate_RejectsBadLabels(t *testing.T) {
	svc := newTestService(scoresFrom(nil))

	_, err := svc.Evaluate(context.Background(), EvaluationRequest{
		Candidates: candidates("c1"),
		Positions:  positions("p1"),
		Labels:     []Label{{CandidateID: "c1", PositionID: "p1", Expected: 1.5}},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = svc.Evaluate(context.Background(), EvaluationRequest{
		Candidates: candidates("c1"),
		Positions:  positions("p1"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without labels, got %v", err)
	}
}
