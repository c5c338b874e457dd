package metrics

// Metrics counts travel-time resolutions for a period: external routing calls
// and offline (great-circle) estimates used instead.
type Metrics struct {
	lookups   int64
	fallbacks int64
}

// New creates a Metrics snapshot.
func New(lookups, fallbacks int64) Metrics {
	return Metrics{lookups: lookups, fallbacks: fallbacks}
}

// Lookups returns the number of external routing calls made.
func (m Metrics) Lookups() int64 { return m.lookups }

// Fallbacks returns the number of travel times estimated offline.
func (m Metrics) Fallbacks() int64 { return m.fallbacks }

// FallbackRatio is fallbacks over all resolutions, 0 when nothing was resolved.
func (m Metrics) FallbackRatio() float64 {
	total := m.lookups + m.fallbacks
	if total <= 0 {
		return 0
	}
	return float64(m.fallbacks) / float64(total)
}
