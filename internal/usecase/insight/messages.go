package insight

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

var labels = map[domain.Criterion]string{
	domain.CriterionSkills:          "skills",
	domain.CriterionLocation:        "location",
	domain.CriterionExperience:      "experience",
	domain.CriterionEducation:       "education",
	domain.CriterionPreferences:     "preferences",
	domain.CriterionCompensation:    "compensation",
	domain.CriterionContractType:    "contract type",
	domain.CriterionMotivation:      "motivation",
	domain.CriterionCompanySize:     "company size",
	domain.CriterionWorkEnvironment: "work environment",
	domain.CriterionIndustry:        "sector",
	domain.CriterionAvailability:    "availability",
	domain.CriterionListeningReason: "reasons for listening",
	domain.CriterionProcessPosition: "hiring timeline",
}

func label(c domain.Criterion) string {
	if l, ok := labels[c]; ok {
		return l
	}
	return strings.ReplaceAll(string(c), "_", " ")
}

func strengthMessage(r domain.CriterionResult) string {
	switch r.Criterion {
	case domain.CriterionSkills:
		if m := stringList(r.Details["matched"]); len(m) > 0 {
			return "Strong skill match (" + joinFirst(m, 5) + ")"
		}
		return "Strong skill match"
	case domain.CriterionLocation:
		switch r.Details["tier"] {
		case "remote":
			return "Remote-compatible position"
		case "same_address":
			return "Same work location"
		case "same_city":
			return "Same city"
		}
		if mins, ok := r.Details["minutes"].(float64); ok {
			return fmt.Sprintf("Short commute (about %.0f min)", mins)
		}
		return "Convenient location"
	case domain.CriterionExperience:
		if y, ok := r.Details["years"].(float64); ok {
			return fmt.Sprintf("Experience fits the required range (%.0f years)", y)
		}
		return "Experience fits the required range"
	case domain.CriterionEducation:
		return "Education meets the requirement"
	case domain.CriterionCompensation:
		return "Salary expectations fit the offered range"
	case domain.CriterionContractType:
		return "Contract type matches the candidate's preference"
	case domain.CriterionMotivation:
		return "Position offers what the candidate is looking for"
	case domain.CriterionCompanySize:
		return "Company size matches the candidate's preference"
	case domain.CriterionWorkEnvironment:
		return "Work environment fits the candidate's preferences"
	case domain.CriterionIndustry:
		return "Sector matches the candidate's preferences"
	case domain.CriterionAvailability:
		return "Candidate is available in time"
	case domain.CriterionListeningReason:
		return "Position strengths address why the candidate is listening"
	case domain.CriterionProcessPosition:
		return "Candidate's hiring timeline fits the position's urgency"
	case domain.CriterionPreferences:
		return "Candidate preferences are well aligned"
	}
	return "Strong " + label(r.Criterion)
}

func weaknessMessage(r domain.CriterionResult) string {
	switch r.Criterion {
	case domain.CriterionSkills:
		if m := stringList(r.Details["missing"]); len(m) > 0 {
			return "Missing required skills: " + joinFirst(m, 5)
		}
		return "Limited skill overlap"
	case domain.CriterionLocation:
		if r.Details["max_commute_exceeded"] == true {
			return "Commute exceeds the candidate's maximum"
		}
		if mins, ok := r.Details["minutes"].(float64); ok {
			return fmt.Sprintf("Long commute (about %.0f min)", mins)
		}
		return "Distant location"
	case domain.CriterionExperience:
		if gap, ok := r.Details["gap"].(float64); ok && gap < 0 {
			return fmt.Sprintf("%.0f years below the minimum experience", -gap)
		} else if ok && gap > 0 {
			return fmt.Sprintf("%.0f years above the expected maximum experience", gap)
		}
		return "Experience outside the required range"
	case domain.CriterionEducation:
		return "Education below the required level"
	case domain.CriterionCompensation:
		return "Salary expectations do not fit the offered range"
	case domain.CriterionContractType:
		if r.Score == 0 {
			return "Contract type not accepted by the candidate"
		}
		return "Contract type is not the candidate's first choice"
	case domain.CriterionMotivation:
		return "Few of the candidate's motivations are addressed"
	case domain.CriterionCompanySize:
		return "Company size differs from the candidate's preference"
	case domain.CriterionWorkEnvironment:
		return "Remote policy or environment differs from the candidate's preferences"
	case domain.CriterionIndustry:
		if r.Details["match"] == "excluded" {
			return "Sector excluded by the candidate"
		}
		return "Sector not among the candidate's preferences"
	case domain.CriterionAvailability:
		if w, ok := r.Details["weeks_late"].(float64); ok && w > 0 {
			return fmt.Sprintf("Candidate available about %.0f weeks after the need", w)
		}
		return "Availability does not fit the start date"
	case domain.CriterionListeningReason:
		return "Position strengths do not address why the candidate is listening"
	case domain.CriterionProcessPosition:
		return "Candidate's process stage is at odds with the position's urgency"
	case domain.CriterionPreferences:
		return "Candidate preferences only partly aligned"
	}
	return "Weak " + label(r.Criterion)
}

func missingMessage(r domain.CriterionResult) string {
	return "Not enough data to assess " + label(r.Criterion)
}

func fallbackMessage(r domain.CriterionResult) string {
	if r.Criterion == domain.CriterionLocation {
		return "Travel time is an offline estimate; verify the commute"
	}
	return "The " + label(r.Criterion) + " score is an estimate; verify it"
}

func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, x := range l {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func joinFirst(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:n], ", ") + fmt.Sprintf(" and %d more", len(items)-n)
}
