// Package location scores commute compatibility from travel time, using a cached
// external routing lookup with an offline great-circle estimate as fallback.
package location

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
)

// Travel time sources.
const (
	SourceRouting  = "routing"
	SourceEstimate = "estimate"
)

// TravelTime is a resolved commute between two locations.
type TravelTime struct {
	Minutes    float64  `json:"minutes"`
	DistanceKm float64  `json:"distance_km"`
	Mode       geo.Mode `json:"mode"`
	Source     string   `json:"source"`
	// Fallback marks an offline estimate.
	Fallback bool `json:"fallback,omitempty"`
}

// Router resolves the travel time between two locations (geocode then route).
type Router interface {
	Route(ctx context.Context, origin, destination domain.Location, mode geo.Mode) (TravelTime, error)
}
