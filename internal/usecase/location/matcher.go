package location

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
	"github.com/kailas-cloud/talentmatch/internal/repository/cache"
)

// Tier maps a travel-time ceiling (inclusive) to a score.
type Tier struct {
	MaxMinutes float64
	Score      float64
}

// Config holds the location scoring constants. They are empirical and overridable.
type Config struct {
	DefaultMode geo.Mode
	Tiers       []Tier
	// BeyondScore applies past the last tier.
	BeyondScore float64
	// MinPenalty floors the distance-vs-mode-max multiplier.
	MinPenalty       float64
	SameCityScore    float64
	SameRegionScore  float64
	OtherRegionScore float64
	// CommuteCap bounds the score when the candidate's max commute is exceeded.
	CommuteCap float64
}

// DefaultConfig returns the standard tiers and heuristics.
func DefaultConfig() Config {
	return Config{
		DefaultMode: geo.DefaultMode,
		Tiers: []Tier{
			{MaxMinutes: 20, Score: 1.0},
			{MaxMinutes: 30, Score: 0.9},
			{MaxMinutes: 45, Score: 0.8},
			{MaxMinutes: 60, Score: 0.7},
			{MaxMinutes: 90, Score: 0.5},
		},
		BeyondScore:      0.3,
		MinPenalty:       0.5,
		SameCityScore:    0.85,
		SameRegionScore:  0.65,
		OtherRegionScore: 0.35,
		CommuteCap:       0.4,
	}
}

// Fixed scores for the special cases.
const (
	RemoteScore      = 1.0
	SameAddressScore = 1.0
)

// travelCache is the consumer interface for the cache chain (ISP).
type travelCache interface {
	Get(ctx context.Context, key cache.Key) (cache.Entry, bool)
	Put(ctx context.Context, key cache.Key, value []byte) cache.Entry
}

// Matcher scores the location criterion.
type Matcher struct {
	router    Router
	cache     travelCache
	cfg       Config
	group     singleflight.Group
	fallbacks FallbackRecorder
	logger    *zap.Logger
}

// FallbackRecorder counts offline estimates.
type FallbackRecorder interface {
	RecordFallback()
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithFallbackRecorder counts every freshly computed offline estimate.
func WithFallbackRecorder(r FallbackRecorder) MatcherOption {
	return func(m *Matcher) { m.fallbacks = r }
}

// NewMatcher creates a location matcher. router may be nil (estimates only).
func NewMatcher(router Router, c travelCache, cfg Config, logger *zap.Logger, opts ...MatcherOption) *Matcher {
	def := DefaultConfig()
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = def.Tiers
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = def.DefaultMode
	}
	m := &Matcher{router: router, cache: c, cfg: cfg, logger: logger}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Score computes the location criterion for a pair.
func (m *Matcher) Score(ctx context.Context, c *domain.Candidate, p *domain.Position) domain.CriterionResult {
	if c.Remote || p.Remote() {
		return domain.Computed(domain.CriterionLocation, RemoteScore, map[string]any{"tier": "remote"})
	}
	if c.Location.IsZero() || p.Location.IsZero() {
		return domain.Neutral(domain.CriterionLocation, "location missing")
	}

	origin, dest := *c.Location, *p.Location
	if origin.Normalized() == dest.Normalized() {
		return domain.Computed(domain.CriterionLocation, SameAddressScore, map[string]any{"tier": "same_address"})
	}

	mode := m.cfg.DefaultMode.OrDefault()
	if c.Preferences.TransportMode != "" {
		mode = c.Preferences.TransportMode.OrDefault()
	}

	tt, cached, err := m.TravelTime(ctx, origin, dest, mode)
	if err != nil {
		return m.regionHeuristic(origin, dest)
	}

	tierScore := m.tierScore(tt.Minutes)
	penalty := m.penalty(tt.DistanceKm, mode)
	score := tierScore * penalty
	details := map[string]any{
		"tier":        "travel_time",
		"minutes":     tt.Minutes,
		"distance_km": tt.DistanceKm,
		"mode":        string(mode),
		"source":      tt.Source,
		"tier_score":  tierScore,
		"penalty":     penalty,
		"cached":      cached,
	}
	if limit := c.Preferences.MaxCommuteMinutes; limit != nil && tt.Minutes > float64(*limit) {
		score = min(score, m.cfg.CommuteCap)
		details["max_commute_exceeded"] = true
	}

	res := domain.Computed(domain.CriterionLocation, score, details)
	res.Fallback = tt.Fallback
	return res
}

// errUnresolvable means neither the lookup nor the gazetteer produced coordinates.
var errUnresolvable = errors.New("location not resolvable")

// TravelTime returns the travel time between two locations. It consults the cache,
// then the router, then the offline estimator. Routed results are cached under the
// travel class; estimates only under the short fallback class.
func (m *Matcher) TravelTime(
	ctx context.Context, origin, dest domain.Location, mode geo.Mode,
) (TravelTime, bool, error) {
	routedKey := TravelKey(cache.ClassTravel, origin.Normalized(), dest.Normalized(), mode)
	if tt, ok := m.cached(ctx, routedKey); ok {
		return tt, true, nil
	}
	estimateKey := TravelKey(cache.ClassFallback, origin.Normalized(), dest.Normalized(), mode)
	if tt, ok := m.cached(ctx, estimateKey); ok {
		return tt, true, nil
	}

	v, err, _ := m.group.Do(routedKey.String(), func() (any, error) {
		return m.resolve(ctx, origin, dest, mode, routedKey, estimateKey)
	})
	if err != nil {
		return TravelTime{}, false, err
	}
	return v.(TravelTime), false, nil
}

func (m *Matcher) resolve(
	ctx context.Context, origin, dest domain.Location, mode geo.Mode, routedKey, estimateKey cache.Key,
) (TravelTime, error) {
	if m.router != nil {
		tt, err := m.router.Route(ctx, origin, dest, mode)
		if err == nil {
			tt.Source = SourceRouting
			tt.Fallback = false
			if tt.Mode == "" {
				tt.Mode = mode
			}
			if tt.DistanceKm <= 0 {
				if a, b, ok := resolvePoints(origin, dest); ok {
					tt.DistanceKm = geo.HaversineKm(a, b)
				}
			}
			m.store(ctx, routedKey, tt)
			return tt, nil
		}
		m.logger.Warn("Routing lookup unavailable, using estimate",
			zap.String("mode", string(mode)), zap.Error(err))
	}

	a, b, ok := resolvePoints(origin, dest)
	if !ok {
		return TravelTime{}, errUnresolvable
	}
	dist := geo.HaversineKm(a, b)
	tt := TravelTime{
		Minutes:    geo.EstimateMinutes(dist, mode),
		DistanceKm: dist,
		Mode:       mode,
		Source:     SourceEstimate,
		Fallback:   true,
	}
	if m.fallbacks != nil {
		m.fallbacks.RecordFallback()
	}
	m.store(ctx, estimateKey, tt)
	return tt, nil
}

func (m *Matcher) cached(ctx context.Context, key cache.Key) (TravelTime, bool) {
	if m.cache == nil {
		return TravelTime{}, false
	}
	e, ok := m.cache.Get(ctx, key)
	if !ok {
		return TravelTime{}, false
	}
	var tt TravelTime
	if err := json.Unmarshal(e.Value, &tt); err != nil {
		m.logger.Warn("Corrupt travel cache entry", zap.String("key", key.String()), zap.Error(err))
		return TravelTime{}, false
	}
	return tt, true
}

func (m *Matcher) store(ctx context.Context, key cache.Key, tt TravelTime) {
	if m.cache == nil {
		return
	}
	data, err := json.Marshal(tt)
	if err != nil {
		return
	}
	m.cache.Put(ctx, key, data)
}

func (m *Matcher) tierScore(minutes float64) float64 {
	for _, t := range m.cfg.Tiers {
		if minutes <= t.MaxMinutes {
			return t.Score
		}
	}
	return m.cfg.BeyondScore
}

func (m *Matcher) penalty(distanceKm float64, mode geo.Mode) float64 {
	limit := mode.Profile().MaxDistanceKm
	if distanceKm <= limit || distanceKm <= 0 {
		return 1.0
	}
	return max(m.cfg.MinPenalty, limit/distanceKm)
}

// regionHeuristic scores by shared city or region when no coordinates are resolvable.
func (m *Matcher) regionHeuristic(origin, dest domain.Location) domain.CriterionResult {
	oc, oReg := placeOf(origin)
	dc, dReg := placeOf(dest)

	var res domain.CriterionResult
	switch {
	case oc != "" && oc == dc:
		res = domain.Computed(domain.CriterionLocation, m.cfg.SameCityScore, map[string]any{"tier": "same_city"})
	case oReg != "" && oReg == dReg:
		res = domain.Computed(domain.CriterionLocation, m.cfg.SameRegionScore, map[string]any{"tier": "same_region"})
	case oReg != "" && dReg != "":
		res = domain.Computed(domain.CriterionLocation, m.cfg.OtherRegionScore, map[string]any{"tier": "other_region"})
	default:
		return domain.Neutral(domain.CriterionLocation, "location not resolvable")
	}
	res.Fallback = true
	return res
}

// placeOf returns the folded city and region of a location, using the gazetteer
// to fill what the record does not declare.
func placeOf(l domain.Location) (city, region string) {
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

func resolvePoints(origin, dest domain.Location) (geo.Point, geo.Point, bool) {
	a, ok := pointOf(origin)
	if !ok {
		return geo.Point{}, geo.Point{}, false
	}
	b, ok := pointOf(dest)
	if !ok {
		return geo.Point{}, geo.Point{}, false
	}
	return a, b, true
}

func pointOf(l domain.Location) (geo.Point, bool) {
	if p, ok := l.Point(); ok {
		return p, true
	}
	if c, ok := geo.LookupCity(l.Text()); ok {
		return c.Point, true
	}
	return geo.Point{}, false
}

// TravelKey builds the cache key for a normalized (origin, destination, mode) tuple.
func TravelKey(class cache.Class, origin, dest string, mode geo.Mode) cache.Key {
	return cache.Key{Class: class, Partition: hashLocation(origin), ID: hashLocation(dest) + ":" + string(mode)}
}

// geocodePartition holds cached coordinates of addresses.
const geocodePartition = "geocode"

// GeocodeKey addresses the cached coordinates of a normalized address.
func GeocodeKey(normalized string) cache.Key {
	return cache.Key{Class: cache.ClassTravel, Partition: geocodePartition, ID: hashLocation(normalized)}
}

// InvalidationSelectors selects the cached coordinates of the location and every travel
// entry that starts or ends at it.
func InvalidationSelectors(normalized string) []cache.Selector {
	h := hashLocation(normalized)
	sels := []cache.Selector{{Class: cache.ClassTravel, Partition: geocodePartition, IDPrefix: h}}
	for _, class := range []cache.Class{cache.ClassTravel, cache.ClassFallback} {
		sels = append(sels,
			cache.Selector{Class: class, Partition: h},
			cache.Selector{Class: class, IDPrefix: h + ":"},
		)
	}
	return sels
}

func hashLocation(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
