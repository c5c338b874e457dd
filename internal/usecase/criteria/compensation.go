package criteria

import (
	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Compensation component weights.
const (
	RangeWeight  = 0.7
	MarketWeight = 0.2
	ExtrasWeight = 0.1
)

// Compensation blends salary range overlap, the offer's standing against market
// norms, and package extras.
func (m *Matchers) Compensation(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	if c.Salary == nil {
		return domain.Neutral(domain.CriterionCompensation, "candidate salary expectation missing")
	}
	if p.Salary == nil {
		return domain.Neutral(domain.CriterionCompensation, "position salary range missing")
	}

	rangeScore, rangeDetails := m.salaryRange(*c.Salary, *p.Salary)
	norm, marketDetails := marketNorm(p)
	market := 1.0
	if norm > 0 {
		market = domain.Clamp01(1 - 2*max(0, 1-p.Salary.Mid()/norm))
	}
	extras := packageExtras(c, p)

	score := RangeWeight*rangeScore + MarketWeight*market + ExtrasWeight*extras
	return domain.Computed(domain.CriterionCompensation, score, map[string]any{
		"range":  rangeDetails,
		"market": marketDetails,
		"scores": map[string]float64{"range": rangeScore, "market": market, "extras": extras},
	})
}

// salaryRange scores the overlap of the expectation with the offered range.
func (m *Matchers) salaryRange(want, offer domain.SalaryRange) (float64, map[string]any) {
	lo, hi := max(want.Min, offer.Min), min(want.Max, offer.Max)
	details := map[string]any{}

	switch {
	case want.Min >= offer.Min && want.Max <= offer.Max:
		details["fit"] = "within"
		return 1, details
	case offer.Min >= want.Max:
		details["fit"] = "above_expectation"
		return 0.9, details
	case hi >= lo:
		avg := (want.Width() + offer.Width()) / 2
		frac := 1.0
		if avg > 0 {
			frac = min(1, (hi-lo)/avg)
		}
		details["fit"] = "overlap"
		details["overlap_ratio"] = frac
		return 0.6 + 0.4*frac, details
	default:
		gap := want.Min - offer.Max
		rel := 1.0
		if offer.Max > 0 {
			rel = gap / offer.Max
		}
		details["fit"] = "gap"
		details["gap_ratio"] = rel
		return max(0, 0.5*(1-rel/m.cfg.SalaryGapTolerance)), details
	}
}

// packageExtras scores benefits overlap, bonus, equity and remote flexibility.
func packageExtras(c *domain.Candidate, p *domain.Position) float64 {
	var benefits float64
	if len(c.Preferences.Benefits) > 0 {
		benefits, _ = overlap(c.Preferences.Benefits, p.Benefits)
	} else {
		benefits = min(1, float64(len(p.Benefits))/3)
	}

	var bonus, equity float64
	if p.Bonus {
		bonus = 1
	}
	if p.Equity {
		equity = 1
	}

	remote := 0.5
	switch p.RemotePolicy {
	case domain.WorkRemote, domain.WorkHybrid:
		remote = 1
	case domain.WorkOnsite:
		remote = 0
	}
	return (benefits + bonus + equity + remote) / 4
}
