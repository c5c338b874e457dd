package batch

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// DefaultTolerance is the absolute score error still counted as agreement.
const DefaultTolerance = 0.1

var errNoLabels = fmt.Errorf("evaluation needs at least one label: %w", domain.ErrInvalidInput)

func invalidLabel(l Label) error {
	return fmt.Errorf("label %s/%s: expected score %v outside [0,1]: %w",
		l.CandidateID, l.PositionID, l.Expected, domain.ErrInvalidInput)
}

// Evaluate scores every labeled pair and reports how far the engine is from the labels.
// Band agreement compares the label's band (or the band of its expected score).
func (s *Service) Evaluate(ctx context.Context, req EvaluationRequest) (Evaluation, error) {
	pairs := make([]Pair, 0, len(req.Labels))
	labels := make(map[Pair]Label, len(req.Labels))
	for _, l := range req.Labels {
		if l.Expected < 0 || l.Expected > 1 {
			return Evaluation{}, invalidLabel(l)
		}
		pr := Pair{CandidateID: l.CandidateID, PositionID: l.PositionID}
		if _, dup := labels[pr]; !dup {
			pairs = append(pairs, pr)
		}
		labels[pr] = l
	}
	if len(pairs) == 0 {
		return Evaluation{}, errNoLabels
	}

	opts := req.Options
	opts.Limit, opts.MinScore = 0, 0
	report, err := s.Match(ctx, Request{
		Candidates: req.Candidates,
		Positions:  req.Positions,
		Pairs:      pairs,
		Options:    opts,
	})
	if err != nil {
		return Evaluation{}, err
	}

	tol := req.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	ev := Evaluation{
		BatchID:   report.BatchID,
		Tolerance: tol,
		Failures:  report.Failures,
		Truncated: report.Truncated,
		Pairs:     make([]EvaluatedPair, 0, len(report.Results)),
	}

	absErrs := make([]float64, 0, len(report.Results))
	sqErrs := make([]float64, 0, len(report.Results))
	var agree, within int
	for _, r := range report.Results {
		l := labels[Pair{CandidateID: r.CandidateID, PositionID: r.PositionID}]
		want := l.Band
		if want == "" {
			want = domain.BandOf(l.Expected)
		}
		diff := math.Abs(r.Score - l.Expected)
		ev.Pairs = append(ev.Pairs, EvaluatedPair{
			CandidateID:  r.CandidateID,
			PositionID:   r.PositionID,
			Expected:     l.Expected,
			Actual:       r.Score,
			AbsError:     diff,
			ExpectedBand: want,
			ActualBand:   r.Band,
		})
		absErrs = append(absErrs, diff)
		sqErrs = append(sqErrs, diff*diff)
		if want == r.Band {
			agree++
		}
		if diff <= tol {
			within++
		}
	}

	ev.Count = len(ev.Pairs)
	if ev.Count > 0 {
		n := float64(ev.Count)
		ev.MAE = round(stat.Mean(absErrs, nil))
		ev.RMSE = round(math.Sqrt(stat.Mean(sqErrs, nil)))
		ev.BandAgreement = round(float64(agree) / n)
		ev.WithinTolerance = round(float64(within) / n)
	}

	s.logger.Info("Evaluation completed",
		zap.String("batch_id", ev.BatchID),
		zap.Int("pairs", ev.Count),
		zap.Float64("mae", ev.MAE),
		zap.Float64("band_agreement", ev.BandAgreement),
	)
	return ev, nil
}
