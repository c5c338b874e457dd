package domain

import "time"

// Criterion names one scored dimension of compatibility.
type Criterion string

// Criteria. Baseline mode uses skills, location, experience, education and preferences;
// extended mode replaces the last three with the soft criteria below them.
const (
	CriterionSkills      Criterion = "skills"
	CriterionLocation    Criterion = "location"
	CriterionExperience  Criterion = "experience"
	CriterionEducation   Criterion = "education"
	CriterionPreferences Criterion = "preferences"

	CriterionCompensation    Criterion = "compensation"
	CriterionContractType    Criterion = "contract_type"
	CriterionMotivation      Criterion = "motivation"
	CriterionCompanySize     Criterion = "company_size"
	CriterionWorkEnvironment Criterion = "work_environment"
	CriterionIndustry        Criterion = "industry"
	CriterionAvailability    Criterion = "availability"
	CriterionListeningReason Criterion = "listening_reason"
	CriterionProcessPosition Criterion = "process_position"
)

// NeutralScore is returned by a matcher whose inputs are absent.
const NeutralScore = 0.5

// CriterionResult is the outcome of one matcher for one pair.
type CriterionResult struct {
	Criterion Criterion      `json:"criterion"`
	Score     float64        `json:"score"`
	Weight    float64        `json:"weight"`
	Details   map[string]any `json:"details,omitempty"`
	// Fallback marks a lower-confidence result (offline estimate or neutral default).
	Fallback bool `json:"fallback,omitempty"`
	// Missing marks a neutral result produced because required inputs were absent.
	// Missing results are excluded from aggregation.
	Missing bool          `json:"missing,omitempty"`
	Latency time.Duration `json:"latency_ns"`
}

// Neutral builds the missing-data result for a criterion.
func Neutral(c Criterion, reason string) CriterionResult {
	return CriterionResult{
		Criterion: c,
		Score:     NeutralScore,
		Details:   map[string]any{"reason": reason},
		Fallback:  true,
		Missing:   true,
	}
}

// Computed builds a regular result clamped to [0,1].
func Computed(c Criterion, score float64, details map[string]any) CriterionResult {
	return CriterionResult{Criterion: c, Score: Clamp01(score), Details: details}
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
