package systems

import (
	"github.com/pthm-cable/corgis/config"
	"github.com/pthm-cable/corgis/neural"
	"github.com/pthm-cable/corgis/territory"
)

// neighborScale converts a neighbour count into the smoothSaturate argument.
// Two neighbours read as ~0.63, six as ~0.95.
const neighborScale = 0.5

// PerceptionParams holds normalisation ranges for sensing.
type PerceptionParams struct {
	MaxEnergy      float32
	MinMass        float32
	MaxMass        float32
	NeighborRadius float32
}

// PerceptionParamsFrom extracts perception parameters from cfg.
func PerceptionParamsFrom(cfg *config.Config) PerceptionParams {
	return PerceptionParams{
		MaxEnergy:      float32(cfg.Physique.MaxEnergy),
		MinMass:        float32(cfg.Physique.MinMass),
		MaxMass:        float32(cfg.Physique.MaxMass),
		NeighborRadius: float32(cfg.Sensors.NeighborRadius),
	}
}

// Self is the read-only state of the perceiving corgi.
type Self struct {
	X, Y   float32
	Mass   float32
	Energy float32
	Team   territory.Team
}

// CountNeighbors splits neighbours into teammates and opponents.
// teams is indexed by Neighbor.Idx.
func CountNeighbors(neighbors []Neighbor, teams []territory.Team, team territory.Team) (allies, enemies int) {
	for _, n := range neighbors {
		if teams[n.Idx] == team {
			allies++
		} else {
			enemies++
		}
	}
	return allies, enemies
}

// Perceive builds the normalized input vector for one corgi. Every channel
// is finite and in [0,1], including for zero or non-finite mass and energy.
func Perceive(self Self, grid *territory.Grid, allies, enemies int, p PerceptionParams) neural.SensoryInputs {
	var in neural.SensoryInputs

	if p.MaxEnergy > 0 {
		in.Energy = clamp01(finite(self.Energy) / p.MaxEnergy)
	}
	if span := p.MaxMass - p.MinMass; span > 0 {
		in.Mass = clamp01((finite(self.Mass) - p.MinMass) / span)
	}

	tx, ty := grid.TileAt(finite(self.X), finite(self.Y))
	switch grid.Owner(tx, ty) {
	case territory.Neutral:
		in.TileNeutral = 1
	case territory.OwnerOf(self.Team):
		in.TileOwn = 1
	default:
		in.TileEnemy = 1
	}
	in.Frontier = clamp01(grid.Frontier(tx, ty, self.Team))

	in.Allies = smoothSaturate(float32(allies) * neighborScale)
	in.Enemies = smoothSaturate(float32(enemies) * neighborScale)

	return in
}
