// Package components defines ECS components for the simulation.
package components

import (
	"log/slog"

	"github.com/pthm-cable/corgis/territory"
)

// Corgi holds identity and lineage. It never changes after birth.
type Corgi struct {
	ID         uint32
	Team       territory.Team
	Generation uint32
	ParentA    uint32 // 0 for genesis corgis
	ParentB    uint32
}

// LogValue implements slog.LogValuer.
func (c Corgi) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(c.ID)),
		slog.String("team", c.Team.String()),
		slog.Uint64("generation", uint64(c.Generation)),
	)
}
