// Package game orchestrates the per-tick corgi territory simulation.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/corgis/components"
	"github.com/pthm-cable/corgis/config"
	"github.com/pthm-cable/corgis/neural"
	"github.com/pthm-cable/corgis/storage"
	"github.com/pthm-cable/corgis/systems"
	"github.com/pthm-cable/corgis/telemetry"
	"github.com/pthm-cable/corgis/territory"
)

// ErrEmptyPopulation is returned by Step once every corgi has died.
// The game halts; later calls return the same error.
var ErrEmptyPopulation = errors.New("game: population is empty")

// Options configures a game run.
type Options struct {
	Config      *config.Config // nil = config.Cfg()
	Seed        int64
	RunID       string
	LogStats    bool   // Log window stats and perf via slog
	OutputDir   string // CSV output directory (empty = disabled)
	SnapshotDir string // JSON snapshot directory (empty = disabled)
	Store       storage.Store

	// Founder, if set, seeds every genesis corgi with this genome instead of
	// a random one. Its topology must match the configured one.
	Founder *neural.Genome

	// StatsCallback, if set, receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg   *config.Config
	world *ecs.World

	// Entity mapper and filter over the corgi components
	entityMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Physique,
		components.Vitals,
		components.Corgi,
	]
	entityFilter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Physique,
		components.Vitals,
		components.Corgi,
	]

	// Individual component mappers for lookups
	posMap    *ecs.Map1[components.Position]
	velMap    *ecs.Map1[components.Velocity]
	physMap   *ecs.Map1[components.Physique]
	vitalsMap *ecs.Map1[components.Vitals]
	corgiMap  *ecs.Map1[components.Corgi]

	// Genome storage (per corgi by ID)
	genomes  map[uint32]*neural.Genome
	topology *neural.Topology

	grid        *territory.Grid
	spatialGrid *systems.SpatialGrid
	selector    systems.Selector
	parallel    *parallelState

	// Per-system parameters, extracted once from cfg
	perception systems.PerceptionParams
	actions    systems.ActionParams
	energy     systems.EnergyParams
	lifecycle  systems.LifecycleParams
	breeding   systems.BreedParams

	// State
	seed     int64
	runID    string
	tick     int32
	nextID   uint32
	counts   [territory.NumTeams]int
	halted   error
	founder  *neural.Genome
	report   TickReport
	pending  []telemetry.Event
	births   []birthInfo
	toRemove []deadInfo
	pool     []systems.Candidate
	poolIdx  []int // snapshot index per pool entry

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	lifetimeTracker  *telemetry.LifetimeTracker
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	store            storage.Store
	logStats         bool
	snapshotDir      string
	statsCallback    func(telemetry.WindowStats)
}

// New creates a game and spawns the genesis population.
func New(opts Options) (*Game, error) {
	g, err := newGame(opts)
	if err != nil {
		return nil, err
	}
	if err := g.spawnInitialPopulation(); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// newGame builds an empty game with all subsystems wired.
func newGame(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	topo, err := neural.TopologyFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if opts.Founder != nil && !opts.Founder.Topology().Equal(topo) {
		return nil, fmt.Errorf("founder genome %s: %w", opts.Founder.Topology(), neural.ErrTopologyMismatch)
	}

	selector, err := systems.NewSelector(cfg.Selection.Policy, cfg.Selection.TournamentSize)
	if err != nil {
		return nil, err
	}

	outputManager, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:   cfg,
		world: world,
		entityMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Physique,
			components.Vitals,
			components.Corgi,
		](world),
		entityFilter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Physique,
			components.Vitals,
			components.Corgi,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		velMap:    ecs.NewMap1[components.Velocity](world),
		physMap:   ecs.NewMap1[components.Physique](world),
		vitalsMap: ecs.NewMap1[components.Vitals](world),
		corgiMap:  ecs.NewMap1[components.Corgi](world),

		genomes:  make(map[uint32]*neural.Genome),
		topology: topo,

		grid:        territory.New(cfg.World.Width, cfg.World.Height),
		spatialGrid: systems.NewSpatialGrid(cfg.Derived.WorldW32, cfg.Derived.WorldH32, max(float32(cfg.Sensors.NeighborRadius), 1)),
		selector:    selector,
		parallel:    newParallelState(topo, cfg.Parallel.Workers),

		perception: systems.PerceptionParamsFrom(cfg),
		actions:    systems.ActionParamsFrom(cfg),
		energy:     systems.EnergyParamsFrom(cfg),
		lifecycle:  systems.LifecycleParamsFrom(cfg),
		breeding:   systems.BreedParamsFrom(cfg),

		seed:    opts.Seed,
		runID:   opts.RunID,
		nextID:  1,
		founder: opts.Founder,

		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		lifetimeTracker:  telemetry.NewLifetimeTracker(),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		outputManager:    outputManager,
		store:            opts.Store,
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		statsCallback:    opts.StatsCallback,
	}
	return g, nil
}

// config returns the game's configuration.
func (g *Game) config() *config.Config {
	return g.cfg
}

// Step advances the simulation by one tick.
// Once the population is empty it returns ErrEmptyPopulation on every call.
func (g *Game) Step() (TickReport, error) {
	if g.halted != nil {
		return TickReport{Tick: g.tick}, g.halted
	}
	if g.Population() == 0 {
		g.halt()
		return TickReport{Tick: g.tick}, g.halted
	}

	g.perfCollector.StartTick()
	g.report = TickReport{Tick: g.tick}

	g.perfCollector.StartPhase(telemetry.PhaseSnapshot)
	g.buildSnapshots()

	g.perfCollector.StartPhase(telemetry.PhaseSpatialGrid)
	g.updateSpatialGrid()

	g.perfCollector.StartPhase(telemetry.PhaseCompute)
	g.computeIntents()

	g.perfCollector.StartPhase(telemetry.PhaseResolve)
	g.applyIntents()
	g.resolveClaims()

	g.perfCollector.StartPhase(telemetry.PhaseEnergy)
	g.updateEnergyAndVitals()

	g.perfCollector.StartPhase(telemetry.PhaseReproduction)
	g.updateReproduction()

	g.perfCollector.StartPhase(telemetry.PhaseCleanup)
	g.cleanupDead()

	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()

	if g.Population() == 0 {
		g.halt()
		return g.report, g.halted
	}
	return g.report, nil
}

// halt stops the game after extinction.
func (g *Game) halt() {
	g.halted = ErrEmptyPopulation
	slog.Error("population extinct", "tick", g.tick, "run_id", g.runID)
	g.pending = append(g.pending, telemetry.NewExtinctionEvent(g.tick))
	g.flushEvents()
	g.stopParallelWorkers()
}

// Run steps until maxTicks ticks have run (0 = unlimited), the context is
// cancelled, or the population goes extinct.
func (g *Game) Run(ctx context.Context, maxTicks int) error {
	for maxTicks <= 0 || int(g.tick) < maxTicks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := g.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Population returns the number of living corgis.
func (g *Game) Population() int {
	return g.counts[territory.TeamA] + g.counts[territory.TeamB]
}

// TeamCount returns the number of living corgis on team.
func (g *Game) TeamCount(team territory.Team) int {
	return g.counts[team]
}

// Grid returns the territory grid. Callers must not mutate it.
func (g *Game) Grid() *territory.Grid {
	return g.grid
}

// Seed returns the run's random seed.
func (g *Game) Seed() int64 {
	return g.seed
}

// RunID returns the run identifier.
func (g *Game) RunID() string {
	return g.runID
}

// Halted returns the error that stopped the game, or nil.
func (g *Game) Halted() error {
	return g.halted
}

// Close stops workers, writes final output and closes files.
// The store is owned by the caller and is not closed.
func (g *Game) Close() error {
	g.stopParallelWorkers()
	g.flushEvents()
	if err := g.outputManager.WriteFinalGrid(g.grid); err != nil {
		slog.Error("failed to write final grid", "error", err)
	}
	return g.outputManager.Close()
}
