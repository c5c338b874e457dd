package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Mode is the aggregation profile used for a match.
type Mode string

// Aggregation modes.
const (
	ModeAuto            Mode = ""
	ModeBaseline        Mode = "baseline"
	ModeExtended        Mode = "extended"
	ModeExtendedPartial Mode = "extended-partial"
)

// ParseMode validates a caller-supplied mode. Empty means adaptive.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAuto, ModeBaseline, ModeExtended, ModeExtendedPartial:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q: %w", s, ErrInvalidInput)
	}
}

// Band is a coarse score bucket.
type Band string

// Score bands.
const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
	BandPoor      Band = "poor"
)

// Band thresholds.
const (
	ExcellentThreshold = 0.85
	GoodThreshold      = 0.70
	FairThreshold      = 0.50
)

// BandOf buckets an overall score.
func BandOf(score float64) Band {
	switch {
	case score >= ExcellentThreshold:
		return BandExcellent
	case score >= GoodThreshold:
		return BandGood
	case score >= FairThreshold:
		return BandFair
	default:
		return BandPoor
	}
}

// InsightCategory classifies an insight.
type InsightCategory string

// Insight categories.
const (
	InsightStrength       InsightCategory = "strength"
	InsightWeakness       InsightCategory = "weakness"
	InsightRecommendation InsightCategory = "recommendation"
)

// Insight is one human-readable explanation entry.
type Insight struct {
	Type      string          `json:"type"`
	Category  InsightCategory `json:"category"`
	Criterion Criterion       `json:"criterion,omitempty"`
	Message   string          `json:"message"`
	Score     float64         `json:"score"`
}

// MatchMetadata describes how a score was produced.
type MatchMetadata struct {
	Mode                  Mode        `json:"mode"`
	Completeness          float64     `json:"completeness"`
	CandidateCompleteness float64     `json:"candidate_completeness"`
	PositionCompleteness  float64     `json:"position_completeness"`
	WeightsVersion        string      `json:"weights_version"`
	MissingCriteria       []Criterion `json:"missing_criteria,omitempty"`
	FallbackCriteria      []Criterion `json:"fallback_criteria,omitempty"`
	Cached                bool        `json:"cached,omitempty"`
}

// MatchResult is the scored, explained compatibility of one candidate with one position.
type MatchResult struct {
	CandidateID string        `json:"candidate_id"`
	PositionID  string        `json:"position_id"`
	Score       float64       `json:"score"`
	Band        Band          `json:"band"`
	Breakdown   Breakdown     `json:"breakdown"`
	Insights    []Insight     `json:"insights"`
	Timestamp   time.Time     `json:"timestamp"`
	Metadata    MatchMetadata `json:"metadata"`
}

// Breakdown is the per-criterion detail, ordered by weight descending.
// It encodes as a JSON object whose key order follows the slice.
type Breakdown []CriterionResult

// Get returns the result for a criterion.
func (b Breakdown) Get(c Criterion) (CriterionResult, bool) {
	for _, r := range b {
		if r.Criterion == c {
			return r, true
		}
	}
	return CriterionResult{}, false
}

// MarshalJSON implements json.Marshaler.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(r.Criterion))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("breakdown: expected object, got %v", tok)
	}

	out := Breakdown{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("breakdown: expected key, got %v", keyTok)
		}
		var r CriterionResult
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("breakdown %s: %w", key, err)
		}
		if r.Criterion == "" {
			r.Criterion = Criterion(key)
		}
		out = append(out, r)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*b = out
	return nil
}
