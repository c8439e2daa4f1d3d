// Package telemetry provides window statistics, bookmarks, lifetime tracking,
// performance timing, and CSV/JSON output for a corgi territory run.
package telemetry

import "github.com/pthm-cable/corgis/territory"

// EventType identifies telemetry events.
type EventType string

const (
	EventBirth      EventType = "birth"
	EventDeath      EventType = "death"
	EventFlip       EventType = "flip"
	EventExtinction EventType = "extinction"
)

// Event is a single notable occurrence, persisted to the run's event log.
type Event struct {
	Type     EventType      `db:"type" json:"type"`
	Tick     int32          `db:"tick" json:"tick"`
	EntityID uint32         `db:"entity_id" json:"entity_id"`
	Team     territory.Team `db:"team" json:"team"`

	// Optional fields depending on event type
	ParentA uint32  `db:"parent_a" json:"parent_a,omitempty"` // birth
	ParentB uint32  `db:"parent_b" json:"parent_b,omitempty"` // birth
	Amount  float32 `db:"amount" json:"amount,omitempty"`     // flips per tick, or energy at death
}

// NewBirthEvent creates a birth event. Both parents may be the same corgi.
func NewBirthEvent(tick int32, childID uint32, team territory.Team, parentA, parentB uint32) Event {
	return Event{
		Type:     EventBirth,
		Tick:     tick,
		EntityID: childID,
		Team:     team,
		ParentA:  parentA,
		ParentB:  parentB,
	}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int32, id uint32, team territory.Team, energy float32) Event {
	return Event{
		Type:     EventDeath,
		Tick:     tick,
		EntityID: id,
		Team:     team,
		Amount:   energy,
	}
}

// NewFlipEvent records that team flipped n enemy tiles this tick.
func NewFlipEvent(tick int32, team territory.Team, n int) Event {
	return Event{
		Type:   EventFlip,
		Tick:   tick,
		Team:   team,
		Amount: float32(n),
	}
}

// NewExtinctionEvent marks the tick the population reached zero.
func NewExtinctionEvent(tick int32) Event {
	return Event{Type: EventExtinction, Tick: tick}
}
