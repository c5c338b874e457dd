// Package criteria implements the per-criterion matchers. Each matcher is a pure
// function of a candidate and a position; absent inputs yield a neutral result.
package criteria

import (
	"strings"
	"time"
	"unicode"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/usecase/synonym"
)

// Func scores one criterion for a pair.
type Func func(c *domain.Candidate, p *domain.Position) domain.CriterionResult

// Config holds the empirical constants of the matchers. They are overridable and
// not claimed to be optimal.
type Config struct {
	// Experience below the minimum loses 1/BelowGapYears per missing year.
	BelowGapYears float64
	// Experience above the maximum loses 1/AboveGapYears per extra year.
	AboveGapYears   float64
	ExperienceFloor float64

	// Each missing education level costs EducationStep.
	EducationStep  float64
	EducationFloor float64
	// OverqualifiedGap levels above the requirement reduce the score to OverqualifiedScore.
	OverqualifiedGap   int
	OverqualifiedScore float64

	// SalaryGapTolerance is the relative gap at which a non-overlapping range scores zero.
	SalaryGapTolerance float64

	// AvailabilityWeeklyDecay is lost per week of lateness, down to AvailabilityFloor.
	AvailabilityWeeklyDecay float64
	AvailabilityFloor       float64
}

// DefaultConfig returns the standard constants.
func DefaultConfig() Config {
	return Config{
		BelowGapYears:           10,
		AboveGapYears:           50,
		ExperienceFloor:         0.1,
		EducationStep:           0.3,
		EducationFloor:          0.3,
		OverqualifiedGap:        3,
		OverqualifiedScore:      0.9,
		SalaryGapTolerance:      0.3,
		AvailabilityWeeklyDecay: 0.15,
		AvailabilityFloor:       0.2,
	}
}

// Matchers computes every non-skill, non-location criterion.
type Matchers struct {
	cfg Config
	now func() time.Time
}

// New creates the matcher set. now may be nil (wall clock).
func New(cfg Config, now func() time.Time) *Matchers {
	if now == nil {
		now = time.Now
	}
	return &Matchers{cfg: cfg, now: now}
}

// All returns the matcher of every criterion it implements.
func (m *Matchers) All() map[domain.Criterion]Func {
	return map[domain.Criterion]Func{
		domain.CriterionExperience:      m.Experience,
		domain.CriterionEducation:       m.Education,
		domain.CriterionPreferences:     m.Preferences,
		domain.CriterionCompensation:    m.Compensation,
		domain.CriterionContractType:    m.ContractType,
		domain.CriterionMotivation:      m.Motivation,
		domain.CriterionCompanySize:     m.CompanySize,
		domain.CriterionWorkEnvironment: m.WorkEnvironment,
		domain.CriterionIndustry:        m.Industry,
		domain.CriterionAvailability:    m.Availability,
		domain.CriterionListeningReason: m.ListeningReason,
		domain.CriterionProcessPosition: m.ProcessPosition,
	}
}

// overlap credits each wanted tag: 1 for an exact match in offered, 0.5 when they
// share a significant word. Returns the credit ratio over wanted and the matched tags.
func overlap(wanted, offered []string) (float64, []string) {
	if len(wanted) == 0 {
		return 0, nil
	}
	exact := make(map[string]bool, len(offered))
	words := make(map[string]bool)
	for _, o := range offered {
		n := synonym.Normalize(o)
		exact[n] = true
		for _, w := range significantWords(n) {
			words[w] = true
		}
	}

	var credit float64
	var matched []string
	for _, w := range wanted {
		n := synonym.Normalize(w)
		if n == "" {
			continue
		}
		if exact[n] {
			credit++
			matched = append(matched, w)
			continue
		}
		for _, word := range significantWords(n) {
			if words[word] {
				credit += 0.5
				matched = append(matched, w)
				break
			}
		}
	}
	return credit / float64(len(wanted)), matched
}

func significantWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 4 {
			out = append(out, f)
		}
	}
	return out
}

func containsFolded(list []string, v string) bool {
	n := synonym.Normalize(v)
	if n == "" {
		return false
	}
	for _, item := range list {
		s := synonym.Normalize(item)
		if s == "" {
			continue
		}
		if s == n || strings.Contains(n, s) || strings.Contains(s, n) {
			return true
		}
	}
	return false
}
