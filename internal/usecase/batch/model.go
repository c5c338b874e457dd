package batch

import (
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Options tune one batch run.
type Options struct {
	// Limit caps the number of returned results (after sorting). Zero returns all.
	Limit int `json:"limit,omitempty"`
	// MinScore drops results scoring below it.
	MinScore float64 `json:"min_score,omitempty"`
	// Workers bounds concurrent pair scoring. Zero uses the service default.
	Workers int `json:"workers,omitempty"`
	// TimeoutMS stops scheduling new pairs once elapsed; the report is then truncated.
	TimeoutMS int64       `json:"timeout_ms,omitempty"`
	Mode      domain.Mode `json:"mode,omitempty"`
}

// Timeout returns TimeoutMS as a duration.
func (o Options) Timeout() time.Duration { return time.Duration(o.TimeoutMS) * time.Millisecond }

// Pair references a candidate and a position by id.
type Pair struct {
	CandidateID string `json:"candidate_id"`
	PositionID  string `json:"position_id"`
}

// Request is a batch of records plus either explicit pairs or the full cross product.
type Request struct {
	Candidates []domain.Candidate `json:"candidates"`
	Positions  []domain.Position  `json:"positions"`
	// Pairs restricts scoring to these id pairs. Empty means every candidate × every position.
	Pairs   []Pair  `json:"pairs,omitempty"`
	Options Options `json:"options"`
}

// Failure is a pair that could not be scored.
type Failure struct {
	CandidateID string `json:"candidate_id"`
	PositionID  string `json:"position_id"`
	Error       string `json:"error"`
}

// Stats summarise the scored pairs of a batch.
type Stats struct {
	Count  int                 `json:"count"`
	Mean   float64             `json:"mean"`
	Min    float64             `json:"min"`
	Max    float64             `json:"max"`
	StdDev float64             `json:"std_dev"`
	Bands  map[domain.Band]int `json:"bands"`
}

// Report is the outcome of a batch run. Results are sorted by score descending.
type Report struct {
	BatchID   string               `json:"batch_id"`
	Results   []domain.MatchResult `json:"results"`
	Stats     Stats                `json:"stats"`
	Failures  []Failure            `json:"failures,omitempty"`
	Truncated bool                 `json:"truncated"`
	Requested int                  `json:"requested"`
	Unique    int                  `json:"unique"`
}

// Label is a ground-truth expectation for one pair.
type Label struct {
	CandidateID string      `json:"candidate_id"`
	PositionID  string      `json:"position_id"`
	Expected    float64     `json:"expected"`
	Band        domain.Band `json:"band,omitempty"`
}

// EvaluationRequest scores labeled pairs and compares them with the labels.
type EvaluationRequest struct {
	Candidates []domain.Candidate `json:"candidates"`
	Positions  []domain.Position  `json:"positions"`
	Labels     []Label            `json:"labels"`
	Tolerance  float64            `json:"tolerance,omitempty"`
	Options    Options            `json:"options"`
}

// EvaluatedPair compares one label with the computed score.
type EvaluatedPair struct {
	CandidateID  string      `json:"candidate_id"`
	PositionID   string      `json:"position_id"`
	Expected     float64     `json:"expected"`
	Actual       float64     `json:"actual"`
	AbsError     float64     `json:"abs_error"`
	ExpectedBand domain.Band `json:"expected_band"`
	ActualBand   domain.Band `json:"actual_band"`
}

// Evaluation is the accuracy report of a ground-truth run.
type Evaluation struct {
	BatchID         string          `json:"batch_id"`
	Count           int             `json:"count"`
	MAE             float64         `json:"mae"`
	RMSE            float64         `json:"rmse"`
	BandAgreement   float64         `json:"band_agreement"`
	WithinTolerance float64         `json:"within_tolerance"`
	Tolerance       float64         `json:"tolerance"`
	Pairs           []EvaluatedPair `json:"pairs"`
	Failures        []Failure       `json:"failures,omitempty"`
	Truncated       bool            `json:"truncated"`
}
