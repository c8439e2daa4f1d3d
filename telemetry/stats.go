package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a stats window.
type WindowStats struct {
	WindowStartTick int32 `csv:"-"`
	WindowEndTick   int32 `csv:"window_end"`

	// Population counts at window end
	Population int `csv:"population"`
	BlueCount  int `csv:"blue"`
	RedCount   int `csv:"red"`

	// Lifecycle events during window
	BlueBirths     int     `csv:"blue_births"`
	RedBirths      int     `csv:"red_births"`
	CapacityBirths int     `csv:"capacity_births"` // Subset of births from the population floor
	MutationMean   float64 `csv:"mutation_mean"`   // Mean absolute mutation delta per birth
	BlueDeaths     int     `csv:"blue_deaths"`
	RedDeaths      int     `csv:"red_deaths"`

	// Territory events during window
	ClaimsAttempted int `csv:"claims"`
	Captures        int `csv:"captures"`
	Flips           int `csv:"flips"`
	Repelled        int `csv:"repelled"`
	Contested       int `csv:"contested"`

	// Territory at window end
	NeutralTiles int     `csv:"neutral_tiles"`
	BlueTiles    int     `csv:"blue_tiles"`
	RedTiles     int     `csv:"red_tiles"`
	BlueShare    float64 `csv:"blue_share"`
	RedShare     float64 `csv:"red_share"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Heritable mass distribution
	MassMean float64 `csv:"mass_mean"`
	MassStd  float64 `csv:"mass_std"`

	// Lineage depth
	GenerationMean float64 `csv:"generation_mean"`
	GenerationMax  int     `csv:"generation_max"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeSpread returns the mean and unbiased sample standard deviation.
func ComputeSpread(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	mean, variance := stat.MeanVariance(values, nil)
	return mean, math.Sqrt(variance)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("population", s.Population),
		slog.Int("blue", s.BlueCount),
		slog.Int("red", s.RedCount),
		slog.Int("blue_births", s.BlueBirths),
		slog.Int("red_births", s.RedBirths),
		slog.Int("capacity_births", s.CapacityBirths),
		slog.Float64("mutation_mean", s.MutationMean),
		slog.Int("blue_deaths", s.BlueDeaths),
		slog.Int("red_deaths", s.RedDeaths),
		slog.Int("claims", s.ClaimsAttempted),
		slog.Int("captures", s.Captures),
		slog.Int("flips", s.Flips),
		slog.Int("repelled", s.Repelled),
		slog.Int("contested", s.Contested),
		slog.Float64("blue_share", s.BlueShare),
		slog.Float64("red_share", s.RedShare),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("mass_mean", s.MassMean),
		slog.Float64("mass_std", s.MassStd),
		slog.Float64("generation_mean", s.GenerationMean),
		slog.Int("generation_max", s.GenerationMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"blue", s.BlueCount,
		"red", s.RedCount,
		"blue_births", s.BlueBirths,
		"red_births", s.RedBirths,
		"capacity_births", s.CapacityBirths,
		"blue_deaths", s.BlueDeaths,
		"red_deaths", s.RedDeaths,
		"claims", s.ClaimsAttempted,
		"captures", s.Captures,
		"flips", s.Flips,
		"repelled", s.Repelled,
		"contested", s.Contested,
		"neutral_tiles", s.NeutralTiles,
		"blue_share", s.BlueShare,
		"red_share", s.RedShare,
		"energy_mean", s.EnergyMean,
		"energy_p10", s.EnergyP10,
		"energy_p50", s.EnergyP50,
		"energy_p90", s.EnergyP90,
		"mass_mean", s.MassMean,
		"mass_std", s.MassStd,
		"generation_mean", s.GenerationMean,
		"generation_max", s.GenerationMax,
	)
}
