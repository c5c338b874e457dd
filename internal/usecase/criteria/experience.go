package criteria

import (
	"math"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Experience scores years of experience against the position's [min,max] window.
func (m *Matchers) Experience(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	if c.YearsExperience == nil {
		return domain.Neutral(domain.CriterionExperience, "candidate experience missing")
	}
	if p.MinYears == nil && p.MaxYears == nil {
		return domain.Neutral(domain.CriterionExperience, "position experience requirement missing")
	}

	years := *c.YearsExperience
	lo, hi := 0.0, math.Inf(1)
	if p.MinYears != nil {
		lo = *p.MinYears
	}
	if p.MaxYears != nil {
		hi = *p.MaxYears
	}

	details := map[string]any{"years": years, "min": lo}
	if !math.IsInf(hi, 1) {
		details["max"] = hi
	}

	var score float64
	switch {
	case years < lo:
		gap := lo - years
		details["gap"] = -gap
		score = max(m.cfg.ExperienceFloor, 1-gap/m.cfg.BelowGapYears)
	case years > hi:
		gap := years - hi
		details["gap"] = gap
		score = max(m.cfg.ExperienceFloor, 1-gap/m.cfg.AboveGapYears)
	default:
		details["gap"] = 0.0
		score = 1
	}
	return domain.Computed(domain.CriterionExperience, score, details)
}

// Education compares ordinal education levels.
func (m *Matchers) Education(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	if c.Education == nil {
		return domain.Neutral(domain.CriterionEducation, "candidate education missing")
	}
	if p.Education == nil {
		return domain.Neutral(domain.CriterionEducation, "position education requirement missing")
	}

	diff := int(*c.Education) - int(*p.Education)
	details := map[string]any{
		"candidate": c.Education.String(),
		"required":  p.Education.String(),
		"gap":       diff,
	}

	var score float64
	switch {
	case diff >= m.cfg.OverqualifiedGap:
		details["overqualified"] = true
		score = m.cfg.OverqualifiedScore
	case diff >= 0:
		score = 1
	default:
		score = max(m.cfg.EducationFloor, 1-float64(-diff)*m.cfg.EducationStep)
	}
	return domain.Computed(domain.CriterionEducation, score, details)
}
