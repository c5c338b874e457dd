package criteria

import (
	"strings"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
)

// Yearly gross salary norms by seniority, before sector and region multipliers.
var seniorityNorms = map[string]float64{
	"junior": 35000,
	"mid":    45000,
	"senior": 58000,
	"lead":   72000,
	"exec":   95000,
}

var seniorityAliases = map[string]string{
	"junior":    "junior",
	"entry":     "junior",
	"debutant":  "junior",
	"mid":       "mid",
	"confirmed": "mid",
	"confirme":  "mid",
	"senior":    "senior",
	"expert":    "senior",
	"lead":      "lead",
	"principal": "lead",
	"manager":   "lead",
	"director":  "exec",
	"directeur": "exec",
	"executive": "exec",
}

var sectorMultipliers = map[string]float64{
	"tech":        1.15,
	"software":    1.15,
	"it":          1.15,
	"finance":     1.2,
	"banking":     1.2,
	"banque":      1.2,
	"insurance":   1.1,
	"assurance":   1.1,
	"consulting":  1.1,
	"conseil":     1.1,
	"energy":      1.1,
	"pharma":      1.1,
	"industry":    1.0,
	"industrie":   1.0,
	"healthcare":  0.95,
	"sante":       0.95,
	"public":      0.9,
	"education":   0.85,
	"retail":      0.85,
	"commerce":    0.85,
	"hospitality": 0.8,
	"hotellerie":  0.8,
	"nonprofit":   0.8,
	"associatif":  0.8,
}

var regionMultipliers = map[string]float64{
	"ile-de-france":        1.15,
	"auvergne-rhone-alpes": 1.02,
	"geneve":               1.8,
	"vaud":                 1.7,
	"luxembourg":           1.4,
	"greater-london":       1.3,
	"noord-holland":        1.15,
	"berlin":               1.05,
	"bruxelles-capitale":   1.1,
}

// marketNorm estimates the typical yearly salary for the position.
func marketNorm(p *domain.Position) (float64, map[string]any) {
	level := seniorityOf(p)
	norm := seniorityNorms[level]
	details := map[string]any{"seniority": level}

	if mult, ok := lookupMultiplier(sectorMultipliers, p.Sector); ok {
		norm *= mult
		details["sector_multiplier"] = mult
	}
	if p.Location != nil {
		_, region := regionOf(*p.Location)
		if mult, ok := regionMultipliers[region]; ok {
			norm *= mult
			details["region_multiplier"] = mult
		}
	}
	details["norm"] = norm
	return norm, details
}

func seniorityOf(p *domain.Position) string {
	for _, w := range strings.Fields(geo.Fold(p.Seniority + " " + p.Title)) {
		if level, ok := seniorityAliases[w]; ok {
			return level
		}
	}
	if p.MinYears != nil {
		switch y := *p.MinYears; {
		case y < 2:
			return "junior"
		case y < 5:
			return "mid"
		case y < 10:
			return "senior"
		default:
			return "lead"
		}
	}
	return "mid"
}

func lookupMultiplier(table map[string]float64, label string) (float64, bool) {
	folded := geo.Fold(label)
	if folded == "" {
		return 0, false
	}
	if m, ok := table[folded]; ok {
		return m, true
	}
	for _, w := range strings.FieldsFunc(folded, func(r rune) bool { return r == ' ' || r == '/' || r == ',' }) {
		if m, ok := table[w]; ok {
			return m, true
		}
	}
	return 0, false
}

func regionOf(l domain.Location) (city, region string) {
	city, region = geo.Fold(l.City), geo.Fold(l.Region)
	if c, ok := geo.LookupCity(l.Text()); ok {
		if city == "" {
			city = c.Name
		}
		if region == "" {
			region = c.Region
		}
	}
	return city, region
}
