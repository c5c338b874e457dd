package geo

import "strings"

// Mode is a commute transport mode.
type Mode string

// Transport modes.
const (
	ModeDriving Mode = "driving"
	ModeTransit Mode = "transit"
	ModeCycling Mode = "cycling"
	ModeWalking Mode = "walking"
)

// DefaultMode is used when neither side declares a transport mode.
const DefaultMode = ModeDriving

// ModeProfile holds the assumptions used by the offline travel-time estimator.
type ModeProfile struct {
	// SpeedKmh is the assumed average door-to-door speed.
	SpeedKmh float64
	// MaxDistanceKm is the distance beyond which a daily commute in this mode is penalized.
	MaxDistanceKm float64
}

var profiles = map[Mode]ModeProfile{
	ModeDriving: {SpeedKmh: 40, MaxDistanceKm: 80},
	ModeTransit: {SpeedKmh: 25, MaxDistanceKm: 50},
	ModeCycling: {SpeedKmh: 15, MaxDistanceKm: 20},
	ModeWalking: {SpeedKmh: 5, MaxDistanceKm: 5},
}

var modeAliases = map[string]Mode{
	"driving":          ModeDriving,
	"car":              ModeDriving,
	"voiture":          ModeDriving,
	"transit":          ModeTransit,
	"public_transport": ModeTransit,
	"transport":        ModeTransit,
	"cycling":          ModeCycling,
	"bike":             ModeCycling,
	"velo":             ModeCycling,
	"walking":          ModeWalking,
	"walk":             ModeWalking,
}

// ParseMode resolves a transport mode label. Returns false for unknown labels.
func ParseMode(s string) (Mode, bool) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// Profile returns the estimator profile for the mode, falling back to DefaultMode.
func (m Mode) Profile() ModeProfile {
	if p, ok := profiles[m]; ok {
		return p
	}
	return profiles[DefaultMode]
}

// OrDefault returns m, or DefaultMode when m is empty or unknown.
func (m Mode) OrDefault() Mode {
	if _, ok := profiles[m]; ok {
		return m
	}
	return DefaultMode
}

// EstimateMinutes converts a great-circle distance into an approximate travel time
// for the mode (detour factor applied).
func EstimateMinutes(distanceKm float64, m Mode) float64 {
	p := m.Profile()
	return distanceKm * DetourFactor / p.SpeedKmh * 60
}
