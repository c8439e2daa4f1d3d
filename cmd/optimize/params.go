package main

import (
	"github.com/pthm-cable/corgis/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Genetics
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0.01, Max: 0.5, Default: 0.1},
			{Name: "mutation_sigma", Path: "mutation.sigma", Min: 0.01, Max: 0.4, Default: 0.08},
			// Actions
			{Name: "claim_threshold", Path: "actions.claim_threshold", Min: -0.5, Max: 0.8, Default: 0.0},
			// Energy
			{Name: "claim_gain", Path: "energy.claim_gain", Min: 0.1, Max: 1.0, Default: 0.35},
			{Name: "move_cost", Path: "energy.move_cost", Min: 0.05, Max: 1.0, Default: 0.4},
			// Reproduction
			{Name: "repro_threshold", Path: "reproduction.energy_threshold", Min: 70, Max: 200, Default: 120},
			{Name: "parent_energy_split", Path: "reproduction.parent_energy_split", Min: 0.2, Max: 0.6, Default: 0.4},
			{Name: "cooldown_ticks", Path: "reproduction.cooldown_ticks", Min: 20, Max: 300, Default: 90},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct and refreshes
// its derived values. Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	c := pv.Clamp(values)

	cfg.Mutation.Rate = c[0]
	cfg.Mutation.Sigma = c[1]

	cfg.Actions.ClaimThreshold = c[2]

	cfg.Energy.ClaimGain = c[3]
	cfg.Energy.MoveCost = c[4]

	cfg.Reproduction.EnergyThreshold = c[5]
	cfg.Reproduction.ParentEnergySplit = c[6]
	cfg.Reproduction.CooldownTicks = int(c[7])

	return cfg.Recompute()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Mutation.Rate,
		cfg.Mutation.Sigma,
		cfg.Actions.ClaimThreshold,
		cfg.Energy.ClaimGain,
		cfg.Energy.MoveCost,
		cfg.Reproduction.EnergyThreshold,
		cfg.Reproduction.ParentEnergySplit,
		float64(cfg.Reproduction.CooldownTicks),
	}
}
