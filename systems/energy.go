package systems

import (
	"github.com/pthm-cable/corgis/components"
	"github.com/pthm-cable/corgis/config"
)

// EnergyParams holds the metabolic economy.
type EnergyParams struct {
	BaseCost  float32
	MassCost  float32
	MoveCost  float32
	ClaimGain float32
}

// EnergyParamsFrom extracts energy parameters from cfg.
func EnergyParamsFrom(cfg *config.Config) EnergyParams {
	return EnergyParams{
		BaseCost:  float32(cfg.Energy.BaseCost),
		MassCost:  float32(cfg.Energy.MassCost),
		MoveCost:  float32(cfg.Energy.MoveCost),
		ClaimGain: float32(cfg.Energy.ClaimGain),
	}
}

// MetabolicCost returns the per-tick cost for a body of the given mass moving
// at the given normalized magnitude:
//
//	base + mass_cost*mass + move_cost*(1+mass)*movement^2
//
// Non-decreasing in both mass and movement; negative inputs count as zero.
func MetabolicCost(mass, movement float32, p EnergyParams) float32 {
	mass = finite(mass)
	if mass < 0 {
		mass = 0
	}
	movement = clamp01(movement)
	return p.BaseCost + p.MassCost*mass + p.MoveCost*(1+mass)*movement*movement
}

// UpdateEnergy charges the metabolic cost and credits the hold gain.
// Energy has no upper bound here. Returns the cost and gain applied.
func UpdateEnergy(phys *components.Physique, movement float32, holdsTile bool, p EnergyParams) (cost, gain float32) {
	cost = MetabolicCost(phys.Mass, movement, p)
	if holdsTile {
		gain = p.ClaimGain
	}
	phys.Energy = finite(phys.Energy) - cost + gain
	return cost, gain
}
