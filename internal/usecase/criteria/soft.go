package criteria

import (
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Motivation credits candidate motivations found in what the position offers.
func (m *Matchers) Motivation(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	if len(c.Preferences.Motivations) == 0 {
		return domain.Neutral(domain.CriterionMotivation, "candidate motivations missing")
	}
	if len(p.Offers) == 0 {
		return domain.Neutral(domain.CriterionMotivation, "position offers missing")
	}
	ratio, matched := overlap(c.Preferences.Motivations, p.Offers)
	return domain.Computed(domain.CriterionMotivation, max(0.2, ratio), map[string]any{
		"matched": matched,
		"ratio":   ratio,
	})
}

var companySizeScores = []float64{1.0, 0.7, 0.4, 0.2}

// CompanySize scores the ordinal distance between preferred and actual size.
func (m *Matchers) CompanySize(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	want, have := c.Preferences.CompanySize, p.CompanySize
	if want == nil || want.Rank() < 0 {
		return domain.Neutral(domain.CriterionCompanySize, "candidate company size preference missing")
	}
	if have == nil || have.Rank() < 0 {
		return domain.Neutral(domain.CriterionCompanySize, "position company size missing")
	}
	dist := want.Rank() - have.Rank()
	if dist < 0 {
		dist = -dist
	}
	score := companySizeScores[min(dist, len(companySizeScores)-1)]
	return domain.Computed(domain.CriterionCompanySize, score, map[string]any{
		"preferred": string(*want),
		"actual":    string(*have),
		"distance":  dist,
	})
}

// WorkEnvironment blends remote-policy compatibility with environment tag overlap.
func (m *Matchers) WorkEnvironment(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	modes := c.Preferences.WorkModes
	if len(modes) == 0 && c.Remote {
		modes = []domain.WorkMode{domain.WorkRemote}
	}
	hasPolicy := p.RemotePolicy != "" && len(modes) > 0
	hasTags := len(c.Preferences.Environment) > 0 && len(p.Environment) > 0
	if !hasPolicy && !hasTags {
		return domain.Neutral(domain.CriterionWorkEnvironment, "work environment preferences missing")
	}

	details := map[string]any{}
	var policy, tags float64
	if hasPolicy {
		policy = policyFit(modes, p.RemotePolicy)
		details["policy"] = policy
	}
	if hasTags {
		var matched []string
		tags, matched = overlap(c.Preferences.Environment, p.Environment)
		details["environment"] = tags
		details["matched"] = matched
	}

	var score float64
	switch {
	case hasPolicy && hasTags:
		score = 0.6*policy + 0.4*tags
	case hasPolicy:
		score = policy
	default:
		score = tags
	}
	return domain.Computed(domain.CriterionWorkEnvironment, score, details)
}

var workModeOrder = map[domain.WorkMode]int{
	domain.WorkOnsite: 0,
	domain.WorkHybrid: 1,
	domain.WorkRemote: 2,
}

func policyFit(wanted []domain.WorkMode, policy domain.WorkMode) float64 {
	best := 0.2
	for _, w := range wanted {
		if w == policy {
			return 1
		}
		a, okA := workModeOrder[w]
		b, okB := workModeOrder[policy]
		if okA && okB && (a-b == 1 || b-a == 1) {
			best = max(best, 0.6)
		}
	}
	return best
}

// Industry scores the position sector against preferred and excluded sectors.
func (m *Matchers) Industry(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	if p.Sector == "" {
		return domain.Neutral(domain.CriterionIndustry, "position sector missing")
	}
	prefs := c.Preferences
	details := map[string]any{"sector": p.Sector}

	var score float64
	switch {
	case containsFolded(prefs.ExcludedSectors, p.Sector):
		details["match"] = "excluded"
		score = 0.1
	case containsFolded(prefs.PreferredSectors, p.Sector):
		details["match"] = "preferred"
		score = 1
	case len(prefs.PreferredSectors) == 0 && len(prefs.ExcludedSectors) == 0:
		details["match"] = "no_preference"
		score = 0.6
	default:
		details["match"] = "other"
		score = 0.5
	}
	return domain.Computed(domain.CriterionIndustry, score, details)
}

const week = 7 * 24 * time.Hour

// urgencyWindow is how soon a position must be filled when no start date is given.
var urgencyWindow = map[domain.Urgency]time.Duration{
	domain.UrgencyCritical: 2 * week,
	domain.UrgencyHigh:     4 * week,
	domain.UrgencyNormal:   8 * week,
	domain.UrgencyLow:      12 * week,
}

// Availability scores how late the candidate can start relative to the position's need.
func (m *Matchers) Availability(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	now := m.now()
	prefs := c.Preferences

	var available time.Time
	switch {
	case prefs.AvailableFrom != nil:
		available = *prefs.AvailableFrom
	case prefs.NoticeWeeks != nil:
		available = now.Add(time.Duration(*prefs.NoticeWeeks) * week)
	case prefs.CurrentlyEmployed != nil && !*prefs.CurrentlyEmployed:
		available = now
	default:
		return domain.Neutral(domain.CriterionAvailability, "candidate availability missing")
	}

	var needed time.Time
	switch {
	case p.StartDate != nil:
		needed = *p.StartDate
	case p.Urgency != "":
		window, ok := urgencyWindow[p.Urgency]
		if !ok {
			return domain.Neutral(domain.CriterionAvailability, "position urgency unknown")
		}
		needed = now.Add(window)
	default:
		return domain.Neutral(domain.CriterionAvailability, "position start date missing")
	}

	late := available.Sub(needed).Hours() / week.Hours()
	score := 1.0
	if late > 0 {
		score = max(m.cfg.AvailabilityFloor, 1-late*m.cfg.AvailabilityWeeklyDecay)
	}
	return domain.Computed(domain.CriterionAvailability, score, map[string]any{
		"available_from": available.Format(time.DateOnly),
		"needed_by":      needed.Format(time.DateOnly),
		"weeks_late":     max(0, late),
	})
}

// ListeningReason matches why the candidate is listening against the position's strengths.
func (m *Matchers) ListeningReason(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	if len(c.Preferences.ListeningReasons) == 0 {
		return domain.Neutral(domain.CriterionListeningReason, "candidate listening reasons missing")
	}
	if len(p.Strengths) == 0 {
		return domain.Neutral(domain.CriterionListeningReason, "position strengths missing")
	}
	ratio, matched := overlap(c.Preferences.ListeningReasons, p.Strengths)
	return domain.Computed(domain.CriterionListeningReason, 0.4+0.6*ratio, map[string]any{
		"matched": matched,
		"ratio":   ratio,
	})
}

// processScores rows are candidate stages; columns are urgency low, normal, high, critical.
var processScores = map[domain.ProcessStage][4]float64{
	domain.StageNotSearching: {0.6, 0.5, 0.4, 0.3},
	domain.StagePassive:      {0.8, 0.7, 0.6, 0.5},
	domain.StageActive:       {0.9, 1.0, 1.0, 1.0},
	domain.StageInterviewing: {0.5, 0.6, 0.8, 0.9},
	domain.StageFinal:        {0.3, 0.4, 0.6, 0.7},
	domain.StageOfferPending: {0.2, 0.3, 0.4, 0.5},
}

var urgencyColumn = map[domain.Urgency]int{
	domain.UrgencyLow:      0,
	domain.UrgencyNormal:   1,
	domain.UrgencyHigh:     2,
	domain.UrgencyCritical: 3,
}

// ProcessPosition scores the candidate's stage in other processes against urgency.
func (m *Matchers) ProcessPosition(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	stage := c.Preferences.ProcessStage
	if stage == nil {
		return domain.Neutral(domain.CriterionProcessPosition, "candidate process stage missing")
	}
	row, ok := processScores[*stage]
	if !ok {
		return domain.Neutral(domain.CriterionProcessPosition, "candidate process stage unknown")
	}
	urgency := p.Urgency
	if urgency == "" {
		urgency = domain.UrgencyNormal
	}
	col, ok := urgencyColumn[urgency]
	if !ok {
		col = urgencyColumn[domain.UrgencyNormal]
	}
	return domain.Computed(domain.CriterionProcessPosition, row[col], map[string]any{
		"stage":   string(*stage),
		"urgency": string(urgency),
	})
}

// preferenceParts are averaged into the baseline preferences criterion.
var preferenceParts = []domain.Criterion{
	domain.CriterionContractType,
	domain.CriterionCompensation,
	domain.CriterionWorkEnvironment,
	domain.CriterionIndustry,
	domain.CriterionAvailability,
}

// Preferences is the baseline aggregate: the mean of the computable soft criteria.
func (m *Matchers) Preferences(c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	parts := map[domain.Criterion]Func{
		domain.CriterionContractType:    m.ContractType,
		domain.CriterionCompensation:    m.Compensation,
		domain.CriterionWorkEnvironment: m.WorkEnvironment,
		domain.CriterionIndustry:        m.Industry,
		domain.CriterionAvailability:    m.Availability,
	}

	var sum float64
	var n int
	components := map[string]float64{}
	fallback := false
	for _, crit := range preferenceParts {
		r := parts[crit](c, p)
		if r.Missing {
			continue
		}
		sum += r.Score
		n++
		components[string(crit)] = r.Score
		fallback = fallback || r.Fallback
	}
	if n == 0 {
		return domain.Neutral(domain.CriterionPreferences, "no preference signal computable")
	}
	res := domain.Computed(domain.CriterionPreferences, sum/float64(n), map[string]any{"components": components})
	res.Fallback = fallback
	return res
}
