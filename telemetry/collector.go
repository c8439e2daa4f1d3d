package telemetry

import "github.com/pthm-cable/corgis/territory"

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	births         [territory.NumTeams]int
	deaths         [territory.NumTeams]int
	capacityBirths int
	mutationSum    float64
	claims         int
	captures       int
	flips          int
	repelled       int
	contested      int
}

// NewCollector creates a new stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowDurationTicks: int32(windowTicks)}
}

// RecordBirth records a birth event. capacity marks births from the population
// floor; mutation is the child's mean absolute mutation delta.
func (c *Collector) RecordBirth(team territory.Team, capacity bool, mutation float32) {
	c.births[team]++
	c.mutationSum += float64(mutation)
	if capacity {
		c.capacityBirths++
	}
}

// RecordDeath records a death event.
func (c *Collector) RecordDeath(team territory.Team) {
	c.deaths[team]++
}

// RecordClaims records n claim attempts.
func (c *Collector) RecordClaims(n int) {
	c.claims += n
}

// RecordResolve folds one tick's claim resolution into the window.
func (c *Collector) RecordResolve(res territory.ResolveResult) {
	c.captures += res.TotalCaptures()
	c.flips += res.TotalFlips()
	c.repelled += res.Repelled
	c.contested += res.Contested
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// PopulationSample holds per-corgi values sampled at window end.
type PopulationSample struct {
	Counts      [territory.NumTeams]int
	Energies    []float64
	Masses      []float64
	Generations []float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop PopulationSample, grid *territory.Grid) WindowStats {
	energyMean, p10, p50, p90 := ComputeEnergyStats(pop.Energies)
	massMean, massStd := ComputeSpread(pop.Masses)
	genMean, _ := ComputeSpread(pop.Generations)
	var genMax int
	for _, g := range pop.Generations {
		if int(g) > genMax {
			genMax = int(g)
		}
	}

	neutral, blue, red := grid.Counts()

	births := c.births[territory.TeamA] + c.births[territory.TeamB]
	var mutationMean float64
	if births > 0 {
		mutationMean = c.mutationSum / float64(births)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Population: pop.Counts[territory.TeamA] + pop.Counts[territory.TeamB],
		BlueCount:  pop.Counts[territory.TeamA],
		RedCount:   pop.Counts[territory.TeamB],

		BlueBirths:     c.births[territory.TeamA],
		RedBirths:      c.births[territory.TeamB],
		CapacityBirths: c.capacityBirths,
		MutationMean:   mutationMean,
		BlueDeaths:     c.deaths[territory.TeamA],
		RedDeaths:      c.deaths[territory.TeamB],

		ClaimsAttempted: c.claims,
		Captures:        c.captures,
		Flips:           c.flips,
		Repelled:        c.repelled,
		Contested:       c.contested,

		NeutralTiles: neutral,
		BlueTiles:    blue,
		RedTiles:     red,
		BlueShare:    grid.Share(territory.TeamA),
		RedShare:     grid.Share(territory.TeamB),

		EnergyMean: energyMean,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,

		MassMean: massMean,
		MassStd:  massStd,

		GenerationMean: genMean,
		GenerationMax:  genMax,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = [territory.NumTeams]int{}
	c.deaths = [territory.NumTeams]int{}
	c.capacityBirths = 0
	c.mutationSum = 0
	c.claims = 0
	c.captures = 0
	c.flips = 0
	c.repelled = 0
	c.contested = 0

	return stats
}

