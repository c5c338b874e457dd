// Package insight turns criterion results into ranked, human-readable explanations.
package insight

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Config holds the classification thresholds.
type Config struct {
	StrengthScore  float64
	StrengthWeight float64
	WeaknessScore  float64
	MaxStrengths   int
	MaxWeaknesses  int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		StrengthScore:  0.75,
		StrengthWeight: 0.08,
		WeaknessScore:  0.60,
		MaxStrengths:   4,
		MaxWeaknesses:  4,
	}
}

// Generator builds insights. Stateless and safe for concurrent use.
type Generator struct {
	cfg Config
}

// New creates a generator.
func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Generate classifies results into strengths and weaknesses and adds next-step
// recommendations for the overall band. Every fallback-flagged result, missing data
// included, is a weakness. Weights are compared at the table's declared scale.
// The list is never empty.
func (g *Generator) Generate(results []domain.CriterionResult, overall float64) []domain.Insight {
	var strengths, weaknesses []domain.Insight
	var missing []string

	for _, r := range results {
		switch {
		case r.Missing:
			missing = append(missing, label(r.Criterion))
			weaknesses = append(weaknesses, domain.Insight{
				Type: "unknown_" + string(r.Criterion), Category: domain.InsightWeakness,
				Criterion: r.Criterion, Message: missingMessage(r), Score: r.Score,
			})
		case r.Fallback:
			weaknesses = append(weaknesses, domain.Insight{
				Type: "estimated_" + string(r.Criterion), Category: domain.InsightWeakness,
				Criterion: r.Criterion, Message: fallbackMessage(r), Score: r.Score,
			})
			if r.Score < g.cfg.WeaknessScore {
				weaknesses = append(weaknesses, weakness(r))
			}
		case r.Score < g.cfg.WeaknessScore:
			weaknesses = append(weaknesses, weakness(r))
		case r.Score >= g.cfg.StrengthScore && r.Weight >= g.cfg.StrengthWeight:
			strengths = append(strengths, domain.Insight{
				Type: string(r.Criterion) + "_match", Category: domain.InsightStrength,
				Criterion: r.Criterion, Message: strengthMessage(r), Score: r.Score,
			})
		}
	}

	weightOf := make(map[domain.Criterion]float64, len(results))
	for _, r := range results {
		weightOf[r.Criterion] = r.Weight
	}
	sort.SliceStable(strengths, func(i, j int) bool {
		return strengths[i].Score*weightOf[strengths[i].Criterion] > strengths[j].Score*weightOf[strengths[j].Criterion]
	})
	sort.SliceStable(weaknesses, func(i, j int) bool {
		return (1-weaknesses[i].Score)*weightOf[weaknesses[i].Criterion] >
			(1-weaknesses[j].Score)*weightOf[weaknesses[j].Criterion]
	})

	out := make([]domain.Insight, 0, len(strengths)+len(weaknesses)+2)
	out = appendUnique(out, truncate(strengths, g.cfg.MaxStrengths))
	out = appendUnique(out, truncate(weaknesses, g.cfg.MaxWeaknesses))
	out = appendUnique(out, recommendations(overall, weaknesses, missing))
	return out
}

func weakness(r domain.CriterionResult) domain.Insight {
	return domain.Insight{
		Type: string(r.Criterion) + "_gap", Category: domain.InsightWeakness,
		Criterion: r.Criterion, Message: weaknessMessage(r), Score: r.Score,
	}
}

func recommendations(overall float64, weaknesses []domain.Insight, missing []string) []domain.Insight {
	var out []domain.Insight
	rec := func(typ, msg string) {
		out = append(out, domain.Insight{
			Type: typ, Category: domain.InsightRecommendation, Message: msg, Score: overall,
		})
	}

	switch domain.BandOf(overall) {
	case domain.BandExcellent:
		rec("next_step", "Excellent match: schedule an interview promptly")
	case domain.BandGood:
		if len(weaknesses) > 0 {
			rec("next_step", "Good match: proceed to a screening call and discuss "+weakTopics(weaknesses, 2))
		} else {
			rec("next_step", "Good match: proceed to a screening call")
		}
	default:
		if len(weaknesses) > 0 {
			rec("clarify", "Needs clarification before proceeding: "+weakTopics(weaknesses, 3))
		} else {
			rec("clarify", "Needs clarification before proceeding")
		}
	}
	if len(missing) > 0 {
		rec("missing_data", "Collect missing information to refine the score: "+strings.Join(missing, ", "))
	}
	return out
}

func weakTopics(ws []domain.Insight, n int) string {
	seen := map[string]bool{}
	var topics []string
	for _, w := range ws {
		l := label(w.Criterion)
		if seen[l] {
			continue
		}
		seen[l] = true
		topics = append(topics, l)
		if len(topics) == n {
			break
		}
	}
	return strings.Join(topics, ", ")
}

func truncate(in []domain.Insight, n int) []domain.Insight {
	if n > 0 && len(in) > n {
		return in[:n]
	}
	return in
}

func appendUnique(out, in []domain.Insight) []domain.Insight {
	for _, i := range in {
		dup := false
		for _, o := range out {
			if o.Message == i.Message {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, i)
		}
	}
	return out
}
