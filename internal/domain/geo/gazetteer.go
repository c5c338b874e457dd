package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// City is a gazetteer entry used when the routing lookup cannot resolve an address.
type City struct {
	Name   string
	Region string
	Point  Point
}

// cities is a city-level gazetteer (best-effort coordinates, city centres).
var cities = []City{
	{"paris", "ile-de-france", Point{48.8566, 2.3522}},
	{"boulogne-billancourt", "ile-de-france", Point{48.8397, 2.2399}},
	{"saint-denis", "ile-de-france", Point{48.9362, 2.3574}},
	{"nanterre", "ile-de-france", Point{48.8924, 2.2071}},
	{"versailles", "ile-de-france", Point{48.8049, 2.1204}},
	{"la defense", "ile-de-france", Point{48.8918, 2.2362}},
	{"marne-la-vallee", "ile-de-france", Point{48.8414, 2.5870}},
	{"lyon", "auvergne-rhone-alpes", Point{45.7640, 4.8357}},
	{"villeurbanne", "auvergne-rhone-alpes", Point{45.7719, 4.8902}},
	{"grenoble", "auvergne-rhone-alpes", Point{45.1885, 5.7245}},
	{"saint-etienne", "auvergne-rhone-alpes", Point{45.4397, 4.3872}},
	{"clermont-ferrand", "auvergne-rhone-alpes", Point{45.7772, 3.0870}},
	{"annecy", "auvergne-rhone-alpes", Point{45.8992, 6.1294}},
	{"marseille", "provence-alpes-cote-d-azur", Point{43.2965, 5.3698}},
	{"aix-en-provence", "provence-alpes-cote-d-azur", Point{43.5297, 5.4474}},
	{"nice", "provence-alpes-cote-d-azur", Point{43.7102, 7.2620}},
	{"toulon", "provence-alpes-cote-d-azur", Point{43.1242, 5.9280}},
	{"toulouse", "occitanie", Point{43.6047, 1.4442}},
	{"montpellier", "occitanie", Point{43.6108, 3.8767}},
	{"nimes", "occitanie", Point{43.8367, 4.3601}},
	{"bordeaux", "nouvelle-aquitaine", Point{44.8378, -0.5792}},
	{"limoges", "nouvelle-aquitaine", Point{45.8336, 1.2611}},
	{"poitiers", "nouvelle-aquitaine", Point{46.5802, 0.3404}},
	{"nantes", "pays-de-la-loire", Point{47.2184, -1.5536}},
	{"angers", "pays-de-la-loire", Point{47.4784, -0.5632}},
	{"le mans", "pays-de-la-loire", Point{48.0061, 0.1996}},
	{"rennes", "bretagne", Point{48.1173, -1.6778}},
	{"brest", "bretagne", Point{48.3904, -4.4861}},
	{"lille", "hauts-de-france", Point{50.6292, 3.0573}},
	{"amiens", "hauts-de-france", Point{49.8941, 2.2958}},
	{"strasbourg", "grand-est", Point{48.5734, 7.7521}},
	{"reims", "grand-est", Point{49.2583, 4.0317}},
	{"metz", "grand-est", Point{49.1193, 6.1757}},
	{"nancy", "grand-est", Point{48.6921, 6.1844}},
	{"mulhouse", "grand-est", Point{47.7508, 7.3359}},
	{"dijon", "bourgogne-franche-comte", Point{47.3220, 5.0415}},
	{"besancon", "bourgogne-franche-comte", Point{47.2378, 6.0241}},
	{"tours", "centre-val-de-loire", Point{47.3941, 0.6848}},
	{"orleans", "centre-val-de-loire", Point{47.9030, 1.9093}},
	{"rouen", "normandie", Point{49.4432, 1.0999}},
	{"caen", "normandie", Point{49.1829, -0.3707}},
	{"le havre", "normandie", Point{49.4944, 0.1079}},
	{"ajaccio", "corse", Point{41.9192, 8.7386}},
	{"bruxelles", "bruxelles-capitale", Point{50.8503, 4.3517}},
	{"geneve", "geneve", Point{46.2044, 6.1432}},
	{"lausanne", "vaud", Point{46.5197, 6.6323}},
	{"luxembourg", "luxembourg", Point{49.6116, 6.1319}},
	{"london", "greater-london", Point{51.5074, -0.1278}},
	{"berlin", "berlin", Point{52.5200, 13.4050}},
	{"madrid", "comunidad-de-madrid", Point{40.4168, -3.7038}},
	{"barcelona", "catalunya", Point{41.3874, 2.1686}},
	{"amsterdam", "noord-holland", Point{52.3676, 4.9041}},
}

var cityIndex = buildCityIndex()

var cityAliases = map[string]string{
	"brussels":   "bruxelles",
	"geneva":     "geneve",
	"lyons":      "lyon",
	"marseilles": "marseille",
}

func buildCityIndex() map[string]City {
	idx := make(map[string]City, len(cities))
	for _, c := range cities {
		idx[c.Name] = c
	}
	for alias, name := range cityAliases {
		idx[alias] = idx[name]
	}
	return idx
}

// LookupCity resolves free-form location text ("12 rue X, 69003 Lyon, France") to a
// gazetteer city. Comma-separated parts are tried right to left, then individual words.
func LookupCity(text string) (City, bool) {
	clean := Fold(text)
	if clean == "" {
		return City{}, false
	}
	if c, ok := cityIndex[clean]; ok {
		return c, true
	}

	parts := strings.Split(clean, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		part := strings.TrimSpace(stripDigits(parts[i]))
		if c, ok := cityIndex[part]; ok {
			return c, true
		}
	}

	words := strings.FieldsFunc(clean, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r) || unicode.IsDigit(r)
	})
	for i := len(words) - 1; i >= 0; i-- {
		if c, ok := cityIndex[words[i]]; ok {
			return c, true
		}
		if i > 0 {
			if c, ok := cityIndex[words[i-1]+" "+words[i]]; ok {
				return c, true
			}
		}
	}
	return City{}, false
}

// Fold lowercases, strips diacritics and collapses whitespace.
func Fold(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	lastSpace := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

func stripDigits(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return unicode.IsDigit(r) || unicode.IsSpace(r) })
}
