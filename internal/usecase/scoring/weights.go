package scoring

import (
	"sort"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// WeightTable maps criteria to their weight in the composite score.
type WeightTable map[domain.Criterion]float64

// Baseline is the 5-criterion table.
var Baseline = WeightTable{
	domain.CriterionSkills:      0.40,
	domain.CriterionLocation:    0.25,
	domain.CriterionExperience:  0.20,
	domain.CriterionEducation:   0.10,
	domain.CriterionPreferences: 0.05,
}

// Extended is the 11-criterion table.
var Extended = WeightTable{
	domain.CriterionSkills:          0.25,
	domain.CriterionLocation:        0.20,
	domain.CriterionCompensation:    0.15,
	domain.CriterionMotivation:      0.10,
	domain.CriterionCompanySize:     0.08,
	domain.CriterionWorkEnvironment: 0.08,
	domain.CriterionIndustry:        0.06,
	domain.CriterionAvailability:    0.05,
	domain.CriterionContractType:    0.05,
	domain.CriterionListeningReason: 0.03,
	domain.CriterionProcessPosition: 0.02,
}

// Blend mixes two tables with share a of the first and returns the normalized result.
func Blend(a, b WeightTable, share float64) WeightTable {
	out := make(WeightTable, len(a)+len(b))
	for c, w := range a.Normalized() {
		out[c] += share * w
	}
	for c, w := range b.Normalized() {
		out[c] += (1 - share) * w
	}
	return out.Normalized()
}

// Normalized returns a copy whose weights sum to 1.
func (t WeightTable) Normalized() WeightTable {
	var sum float64
	for _, w := range t {
		sum += w
	}
	out := make(WeightTable, len(t))
	for c, w := range t {
		if sum > 0 {
			out[c] = w / sum
		}
	}
	return out
}

// Criteria returns the table's criteria by weight descending, then name.
func (t WeightTable) Criteria() []domain.Criterion {
	out := make([]domain.Criterion, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if t[out[i]] != t[out[j]] {
			return t[out[i]] > t[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Tables holds the weight table of every aggregation mode.
type Tables map[domain.Mode]WeightTable

// DefaultTables returns baseline, extended and their even blend for the partial mode.
// Baseline and extended keep their declared weights: the composite divides by the sum
// of computed weights, so the score is the same as with normalized tables, and
// per-criterion weights stay comparable with fixed thresholds (extended sums to 1.07).
func DefaultTables() Tables {
	return Tables{
		domain.ModeBaseline:        Baseline.clone(),
		domain.ModeExtended:        Extended.clone(),
		domain.ModeExtendedPartial: Blend(Baseline, Extended, 0.5),
	}
}

func (t WeightTable) clone() WeightTable {
	out := make(WeightTable, len(t))
	for c, w := range t {
		out[c] = w
	}
	return out
}

// SelectMode picks the aggregation mode from both records' extended completeness:
// both at or above threshold selects extended, one selects the partial blend,
// neither selects baseline.
func SelectMode(c *domain.Candidate, p *domain.Position, threshold float64) (domain.Mode, float64, float64) {
	cc, pc := c.ExtendedCompleteness(), p.ExtendedCompleteness()
	switch candOK, posOK := cc >= threshold, pc >= threshold; {
	case candOK && posOK:
		return domain.ModeExtended, cc, pc
	case candOK || posOK:
		return domain.ModeExtendedPartial, cc, pc
	default:
		return domain.ModeBaseline, cc, pc
	}
}
