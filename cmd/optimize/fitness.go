package main

import (
	"errors"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/corgis/config"
	"github.com/pthm-cable/corgis/game"
	"github.com/pthm-cable/corgis/telemetry"
	"github.com/pthm-cable/corgis/territory"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	mu   sync.Mutex
	last EvalSummary // from the most recent Evaluate call
}

// EvalSummary aggregates one parameter vector's runs, averaged over seeds.
type EvalSummary struct {
	Fitness       float64
	SurvivalTicks float64
	Quality       float64
	Share         [territory.NumTeams]float64 // Territory share at the end of each run
	Survivors     [territory.NumTeams]float64 // Team size at the end of each run
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastSummary returns the summary of the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() EvalSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// A team below minViableTeam corgis for extinctionGraceTicks consecutive
// ticks counts as functionally extinct.
const (
	minViableTeam        = 2
	extinctionGraceTicks = 600
	warmupTicks          = 300
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int32                   // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
	finalShare    [territory.NumTeams]float64
	finalCount    [territory.NumTeams]int
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		slog.Warn("rejected parameter vector", "error", err)
		fe.mu.Lock()
		fe.last = EvalSummary{}
		fe.mu.Unlock()
		return 0
	}

	// Games carry their own parameters, so seeds can run concurrently
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	summary := summarize(results)

	fe.mu.Lock()
	fe.last = summary
	fe.mu.Unlock()

	return summary.Fitness
}

// summarize averages per-seed fitness, quality and end-of-run team state.
func summarize(results []*runResult) EvalSummary {
	var sum EvalSummary
	if len(results) == 0 {
		return sum
	}

	fitness := make([]float64, len(results))
	quality := make([]float64, len(results))
	survival := make([]float64, len(results))
	for i, r := range results {
		quality[i] = computeQuality(r.windowStats)
		fitness[i] = computeFitness(r.survivalTicks, quality[i])
		survival[i] = float64(r.survivalTicks)
		for team := range sum.Share {
			sum.Share[team] += r.finalShare[team]
			sum.Survivors[team] += float64(r.finalCount[team])
		}
	}

	n := float64(len(results))
	for team := range sum.Share {
		sum.Share[team] /= n
		sum.Survivors[team] /= n
	}
	sum.Fitness = stat.Mean(fitness, nil)
	sum.Quality = stat.Mean(quality, nil)
	sum.SurvivalTicks = stat.Mean(survival, nil)
	return sum
}

// runSimulation executes a single headless simulation run.
// Runs until functional extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) *runResult {
	result := &runResult{}

	g, err := game.New(game.Options{
		Config: cfg,
		Seed:   seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		slog.Error("failed to create game", "seed", seed, "error", err)
		return result
	}
	defer g.Close()
	defer func() {
		for team := territory.TeamA; team <= territory.TeamB; team++ {
			result.finalShare[team] = g.Grid().Share(team)
			result.finalCount[team] = g.TeamCount(team)
		}
	}()

	var below [territory.NumTeams]int32
	for g.Tick() < fe.maxTicks {
		if _, err := g.Step(); err != nil {
			if !errors.Is(err, game.ErrEmptyPopulation) {
				slog.Error("step failed", "seed", seed, "error", err)
			}
			result.survivalTicks = g.Tick()
			return result
		}

		if g.Tick() < warmupTicks {
			continue
		}
		for team := territory.TeamA; team <= territory.TeamB; team++ {
			if g.TeamCount(team) < minViableTeam {
				below[team]++
			} else {
				below[team] = 0
			}
			if below[team] >= extinctionGraceTicks {
				result.survivalTicks = g.Tick()
				return result
			}
		}
	}

	result.survivalTicks = fe.maxTicks
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.5 × quality))
// Survival dominates; territory quality separates configs with similar survival.
func computeFitness(survivalTicks int32, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.5*quality))
}

// Quality component weights.
const (
	qualityWeightCoverage  = 0.40
	qualityWeightBalance   = 0.30
	qualityWeightStability = 0.30

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality scores territory dynamics in [0, 1] from window stats:
// how much of the map is held, how evenly it is split and how steady the
// population is.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	coverage := make([]float64, 0, len(valid))
	balance := make([]float64, 0, len(valid))
	pops := make([]float64, 0, len(valid))
	for _, w := range valid {
		held := w.BlueShare + w.RedShare
		coverage = append(coverage, held)
		if held > 0 {
			balance = append(balance, 1-math.Abs(w.BlueShare-w.RedShare)/held)
		}
		pops = append(pops, float64(w.Population))
	}

	coverageScore := stat.Mean(coverage, nil)
	balanceScore := 0.0
	if len(balance) > 0 {
		balanceScore = stat.Mean(balance, nil)
	}
	stabilityScore := 0.0
	if len(pops) >= 2 {
		c := cv(pops)
		stabilityScore = math.Exp(-c * c)
	}

	quality := qualityWeightCoverage*coverageScore +
		qualityWeightBalance*balanceScore +
		qualityWeightStability*stabilityScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := telemetry.ComputeSpread(values)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
