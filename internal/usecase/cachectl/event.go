package cachectl

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/repository/cache"
	"github.com/kailas-cloud/talentmatch/internal/usecase/location"
	"github.com/kailas-cloud/talentmatch/internal/usecase/scoring"
)

// EventType names what changed upstream.
type EventType string

// Event types.
const (
	EventCandidateUpdated EventType = "candidate-updated"
	EventPositionUpdated  EventType = "position-updated"
	EventWeightsChanged   EventType = "weights-changed"
	EventLocationUpdated  EventType = "location-updated"
)

// Event is an invalidation notice. ID is a candidate id, a position id or a
// location text depending on Type; weight changes carry no id.
type Event struct {
	Type   EventType `json:"type"`
	ID     string    `json:"id,omitempty"`
	Origin string    `json:"origin,omitempty"`
	At     time.Time `json:"at"`
}

// Validate checks the event type and id.
func (e Event) Validate() error {
	switch e.Type {
	case EventWeightsChanged:
		return nil
	case EventCandidateUpdated, EventPositionUpdated, EventLocationUpdated:
		if e.ID == "" {
			return fmt.Errorf("event %s requires an id: %w", e.Type, domain.ErrInvalidInput)
		}
		return nil
	default:
		return fmt.Errorf("unknown event type %q: %w", e.Type, domain.ErrInvalidInput)
	}
}

// Selectors maps the event to the cache entries it invalidates.
func (e Event) Selectors() []cache.Selector {
	switch e.Type {
	case EventCandidateUpdated:
		return []cache.Selector{scoring.CandidateSelector(e.ID)}
	case EventPositionUpdated:
		return []cache.Selector{scoring.PositionSelector(e.ID)}
	case EventWeightsChanged:
		return []cache.Selector{scoring.AllMatchesSelector()}
	case EventLocationUpdated:
		loc := domain.Location{Address: e.ID}
		return location.InvalidationSelectors(loc.Normalized())
	default:
		return nil
	}
}
