package skill

import (
	"context"
	"sort"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/usecase/synonym"
)

// Expander adds synonyms to a skill list.
type Expander interface {
	Expand(ctx context.Context, skills []string) []string
}

// Weights of the required and preferred skill similarities when a position has both.
const (
	RequiredWeight  = 0.7
	PreferredWeight = 0.3
)

// Matcher scores the skills criterion.
type Matcher struct {
	expander Expander
}

// NewMatcher creates a skill matcher. A nil expander disables synonym expansion.
func NewMatcher(e Expander) *Matcher {
	return &Matcher{expander: e}
}

// Similarity expands both lists and returns their TF-IDF cosine similarity.
// Returns 0.5 when either list is empty after expansion.
func (m *Matcher) Similarity(ctx context.Context, a, b []string) float64 {
	return Cosine(Tokens(m.expand(ctx, a)), Tokens(m.expand(ctx, b)))
}

// Score computes the skills criterion against required and preferred skills.
func (m *Matcher) Score(ctx context.Context, c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	if len(c.Skills) == 0 {
		return domain.Neutral(domain.CriterionSkills, "candidate skills missing")
	}
	if len(p.RequiredSkills) == 0 && len(p.PreferredSkills) == 0 {
		return domain.Neutral(domain.CriterionSkills, "position skills missing")
	}

	cand := m.expand(ctx, c.Skills)
	candTokens := Tokens(cand)
	details := map[string]any{}

	var score float64
	switch {
	case len(p.RequiredSkills) > 0 && len(p.PreferredSkills) > 0:
		req := Cosine(candTokens, Tokens(m.expand(ctx, p.RequiredSkills)))
		pref := Cosine(candTokens, Tokens(m.expand(ctx, p.PreferredSkills)))
		details["required"], details["preferred"] = req, pref
		score = RequiredWeight*req + PreferredWeight*pref
	case len(p.RequiredSkills) > 0:
		score = Cosine(candTokens, Tokens(m.expand(ctx, p.RequiredSkills)))
		details["required"] = score
	default:
		score = Cosine(candTokens, Tokens(m.expand(ctx, p.PreferredSkills)))
		details["preferred"] = score
	}

	matched, missing := m.coverage(ctx, cand, p.RequiredSkills)
	details["matched"] = matched
	details["missing"] = missing
	return domain.Computed(domain.CriterionSkills, score, details)
}

// coverage splits required skills into those the candidate covers (directly or via
// a synonym) and those it does not.
func (m *Matcher) coverage(ctx context.Context, candExpanded, required []string) (matched, missing []string) {
	have := make(map[string]bool, len(candExpanded))
	for _, s := range candExpanded {
		have[synonym.Normalize(s)] = true
	}
	for _, r := range required {
		found := false
		for _, syn := range m.expand(ctx, []string{r}) {
			if have[synonym.Normalize(syn)] {
				found = true
				break
			}
		}
		if found {
			matched = append(matched, r)
		} else {
			missing = append(missing, r)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)
	return matched, missing
}

func (m *Matcher) expand(ctx context.Context, skills []string) []string {
	if m.expander == nil {
		return skills
	}
	return m.expander.Expand(ctx, skills)
}
