package systems

import (
	"github.com/pthm-cable/corgis/components"
	"github.com/pthm-cable/corgis/config"
)

// LifecycleParams holds death hysteresis and reproduction eligibility rules.
type LifecycleParams struct {
	DeathThreshold float32
	Hysteresis     int32 // Consecutive low-energy ticks before death, >= 1

	ReproThreshold float32
	MaturityTicks  int32
	CooldownTicks  int32
}

// LifecycleParamsFrom extracts lifecycle parameters from cfg.
func LifecycleParamsFrom(cfg *config.Config) LifecycleParams {
	return LifecycleParams{
		DeathThreshold: float32(cfg.Death.EnergyThreshold),
		Hysteresis:     int32(cfg.Derived.Hysteresis),
		ReproThreshold: float32(cfg.Reproduction.EnergyThreshold),
		MaturityTicks:  int32(cfg.Reproduction.MaturityTicks),
		CooldownTicks:  int32(cfg.Reproduction.CooldownTicks),
	}
}

// UpdateVitals advances age and cooldown and applies death hysteresis.
// A corgi dies once its energy has been below the threshold for Hysteresis
// consecutive ticks; any tick at or above the threshold resets the count.
// Returns true if the corgi died on this call.
func UpdateVitals(v *components.Vitals, energy float32, p LifecycleParams) bool {
	if !v.Alive {
		return false
	}

	v.Age++
	if v.ReproCooldown > 0 {
		v.ReproCooldown--
	}

	if energy >= p.DeathThreshold {
		v.LowEnergyTicks = 0
		return false
	}

	// NaN energy also lands here
	v.LowEnergyTicks++
	if v.LowEnergyTicks >= max(p.Hysteresis, 1) {
		v.Alive = false
		return true
	}
	return false
}

// CanReproduce reports whether a living corgi meets the energy trigger.
func CanReproduce(v components.Vitals, phys components.Physique, p LifecycleParams) bool {
	return v.Alive &&
		phys.Energy >= p.ReproThreshold &&
		v.Age >= p.MaturityTicks &&
		v.ReproCooldown <= 0
}
