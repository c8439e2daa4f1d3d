package telemetry

import "github.com/pthm-cable/corgis/territory"

// LifetimeStats tracks per-corgi statistics over its lifetime.
type LifetimeStats struct {
	BirthTick  int32          `json:"birth_tick"`
	Team       territory.Team `json:"team"`
	Generation uint32         `json:"generation"`

	// Territory
	ClaimsAttempted int `json:"claims_attempted"`
	TilesWon        int `json:"tiles_won"`

	// Reproduction
	Children int `json:"children"`

	// Energy
	PeakEnergy float32 `json:"peak_energy"`
	TotalGain  float32 `json:"total_gain"` // cumulative energy gained from holding tiles
}

// LifetimeTracker manages per-corgi lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new corgi.
func (lt *LifetimeTracker) Register(id uint32, birthTick int32, team territory.Team, generation uint32) {
	lt.stats[id] = &LifetimeStats{
		BirthTick:  birthTick,
		Team:       team,
		Generation: generation,
	}
}

// Restore reinstates previously saved stats, e.g. from a snapshot.
func (lt *LifetimeTracker) Restore(id uint32, s LifetimeStats) {
	cp := s
	lt.stats[id] = &cp
}

// Get returns the lifetime stats for a corgi, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes a corgi's stats and returns them.
func (lt *LifetimeTracker) Remove(id uint32) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordClaim increments the claim count and, if won, the tiles-won count.
func (lt *LifetimeTracker) RecordClaim(id uint32, won bool) {
	if s := lt.stats[id]; s != nil {
		s.ClaimsAttempted++
		if won {
			s.TilesWon++
		}
	}
}

// RecordChild increments children count.
func (lt *LifetimeTracker) RecordChild(parentID uint32) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// RecordGain adds claim gain to the cumulative total.
func (lt *LifetimeTracker) RecordGain(id uint32, amount float32) {
	if s := lt.stats[id]; s != nil {
		s.TotalGain += amount
	}
}

// UpdateEnergy tracks peak energy.
func (lt *LifetimeTracker) UpdateEnergy(id uint32, energy float32) {
	if s := lt.stats[id]; s != nil {
		if energy > s.PeakEnergy {
			s.PeakEnergy = energy
		}
	}
}

// Count returns the number of tracked corgis.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
