package criteria

import (
	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Contract-type scores.
const (
	ContractRejected        = 0.0
	ContractPrimary         = 1.0
	ContractMatchesNeed     = 0.8
	ContractSecondary       = 0.7
	ContractFlexible        = 0.8
	ContractUnknownModeBase = 0.7
)

// ContractType scores the best of the position's offered contract types against the
// candidate's declared preference.
func (m *Matchers) ContractType(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	pref := c.Contract
	if pref == nil || (pref.Primary == "" && len(pref.Accepted) == 0) {
		return domain.Neutral(domain.CriterionContractType, "candidate contract preference missing")
	}
	need, ok := p.PrimaryContract()
	if !ok {
		return domain.Neutral(domain.CriterionContractType, "position contract type missing")
	}

	best, bestType := -1.0, domain.ContractType("")
	for _, t := range p.ContractTypes {
		if s := ContractScore(pref, t, need); s > best {
			best, bestType = s, t
		}
	}
	return domain.Computed(domain.CriterionContractType, best, map[string]any{
		"mode":     string(pref.Mode),
		"contract": string(bestType),
		"accepted": pref.Accepts(bestType),
	})
}

// ContractScore applies the preference-mode rules to one offered type.
// need is the position's own primary contract type.
func ContractScore(pref *domain.ContractPreference, offered, need domain.ContractType) float64 {
	if !pref.Accepts(offered) {
		return ContractRejected
	}
	if isChoice(pref, offered) {
		return ContractPrimary
	}
	switch pref.Mode {
	case domain.PreferencePreferred, domain.PreferenceAcceptable:
		if offered == need {
			return ContractMatchesNeed
		}
		return ContractSecondary
	case domain.PreferenceFlexible:
		return ContractFlexible
	default:
		return ContractUnknownModeBase
	}
}

// isChoice reports whether t is the candidate's primary or exclusive type.
func isChoice(pref *domain.ContractPreference, t domain.ContractType) bool {
	if pref.Primary != "" {
		return pref.Primary == t
	}
	return pref.Mode == domain.PreferenceExclusive && len(pref.Accepted) == 1 && pref.Accepted[0] == t
}
