// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Selection policy names accepted by SelectionConfig.Policy.
const (
	PolicyTournament          = "tournament"
	PolicyFitnessProportional = "fitness_proportional"
)

// MinOutputs is the number of network outputs the action interpreter reads
// (move x, move y, claim).
const MinOutputs = 3

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Population   PopulationConfig   `yaml:"population"`
	Physique     PhysiqueConfig     `yaml:"physique"`
	Energy       EnergyConfig       `yaml:"energy"`
	Death        DeathConfig        `yaml:"death"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Selection    SelectionConfig    `yaml:"selection"`
	Neural       NeuralConfig       `yaml:"neural"`
	Actions      ActionsConfig      `yaml:"actions"`
	Sensors      SensorsConfig      `yaml:"sensors"`
	Parallel     ParallelConfig     `yaml:"parallel"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Storage      StorageConfig      `yaml:"storage"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the territory grid dimensions in tiles.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial int `yaml:"initial"`
	Cap     int `yaml:"cap"`   // No births at or above this many living corgis (<= 0 = unlimited)
	Floor   int `yaml:"floor"` // Capacity-triggered breeding below this (0 = off)
}

// PhysiqueConfig holds body parameters and the normalisation ranges used by perception.
type PhysiqueConfig struct {
	InitialEnergy float64 `yaml:"initial_energy"`
	MaxEnergy     float64 `yaml:"max_energy"` // Perception scale, not a cap
	InitialMass   float64 `yaml:"initial_mass"`
	MinMass       float64 `yaml:"min_mass"`
	MaxMass       float64 `yaml:"max_mass"`
	MassSigma     float64 `yaml:"mass_sigma"` // Heritable mass noise at birth
}

// EnergyConfig holds the metabolic economy.
// cost = base_cost + mass_cost*mass + move_cost*(1+mass)*movement^2
type EnergyConfig struct {
	BaseCost  float64 `yaml:"base_cost"`
	MassCost  float64 `yaml:"mass_cost"`
	MoveCost  float64 `yaml:"move_cost"`
	ClaimGain float64 `yaml:"claim_gain"` // Gain per tick while standing on an own-team tile
}

// DeathConfig holds the death hysteresis parameters.
type DeathConfig struct {
	EnergyThreshold float64 `yaml:"energy_threshold"`
	HysteresisTicks int     `yaml:"hysteresis_ticks"`
}

// ReproductionConfig holds energy-triggered reproduction parameters.
type ReproductionConfig struct {
	EnergyThreshold   float64 `yaml:"energy_threshold"`
	MaturityTicks     int     `yaml:"maturity_ticks"`
	CooldownTicks     int     `yaml:"cooldown_ticks"`
	ParentEnergySplit float64 `yaml:"parent_energy_split"` // Fraction of parent energy handed to the child
	SpawnRadius       float64 `yaml:"spawn_radius"`        // Tiles
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Rate  float64 `yaml:"rate"`
	Sigma float64 `yaml:"sigma"`
}

// SelectionConfig holds parent selection parameters.
type SelectionConfig struct {
	Policy         string `yaml:"policy"`
	TournamentSize int    `yaml:"tournament_size"`
}

// NeuralConfig holds neural network parameters.
// The input size is derived from the perception channel layout.
type NeuralConfig struct {
	HiddenLayers []int   `yaml:"hidden_layers"` // Sizes of hidden layers, e.g. [8]
	OutputSize   int     `yaml:"output_size"`
	InitScale    float64 `yaml:"init_scale"` // Multiplier on Xavier init at genesis
}

// ActionsConfig holds action interpretation parameters.
type ActionsConfig struct {
	MaxSpeed       float64 `yaml:"max_speed"`       // Tiles per tick
	ClaimThreshold float64 `yaml:"claim_threshold"` // Claim output must exceed this
}

// SensorsConfig holds sensor parameters.
type SensorsConfig struct {
	NeighborRadius float64 `yaml:"neighbor_radius"` // Tiles
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // Below this many corgis, compute single-threaded
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow      int `yaml:"stats_window"`      // Ticks per stats window
	PerfWindow       int `yaml:"perf_window"`       // Ticks averaged by the perf collector
	SnapshotInterval int `yaml:"snapshot_interval"` // Ticks between snapshots (0 = only at exit)
}

// StorageConfig selects the run store backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "memory" or "sqlite"
	Path    string `yaml:"path"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW32      float32 // World.Width as float32
	WorldH32      float32 // World.Height as float32
	MaxSpeed32    float32
	ClaimThresh32 float32
	Hysteresis    int // Death.HysteresisTicks, at least 1
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %dx%d", c.World.Width, c.World.Height))
	}
	// population.cap <= 0 means unlimited
	if c.Population.Initial < 0 {
		errs = append(errs, errors.New("population.initial must be >= 0"))
	}
	if c.Physique.MinMass < 0 || c.Physique.MaxMass < c.Physique.MinMass {
		errs = append(errs, errors.New("physique mass range is empty"))
	}
	if c.Energy.BaseCost < 0 || c.Energy.MassCost < 0 || c.Energy.MoveCost < 0 {
		errs = append(errs, errors.New("energy costs must be non-negative"))
	}
	if c.Mutation.Rate < 0 || c.Mutation.Rate > 1 || c.Mutation.Sigma < 0 {
		errs = append(errs, errors.New("mutation.rate must be in [0,1] and mutation.sigma >= 0"))
	}
	if c.Reproduction.ParentEnergySplit < 0 || c.Reproduction.ParentEnergySplit > 1 {
		errs = append(errs, errors.New("reproduction.parent_energy_split must be in [0,1]"))
	}
	switch c.Selection.Policy {
	case PolicyTournament, PolicyFitnessProportional:
	default:
		errs = append(errs, fmt.Errorf("unknown selection.policy %q", c.Selection.Policy))
	}
	if c.Neural.OutputSize < MinOutputs {
		errs = append(errs, fmt.Errorf("neural.output_size must be >= %d", MinOutputs))
	}
	for i, n := range c.Neural.HiddenLayers {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("neural.hidden_layers[%d] must be positive", i))
		}
	}
	if c.Actions.MaxSpeed < 0 {
		errs = append(errs, errors.New("actions.max_speed must be non-negative"))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
	c.Derived.MaxSpeed32 = float32(c.Actions.MaxSpeed)
	c.Derived.ClaimThresh32 = float32(c.Actions.ClaimThreshold)

	c.Derived.Hysteresis = c.Death.HysteresisTicks
	if c.Derived.Hysteresis < 1 {
		c.Derived.Hysteresis = 1
	}
	if c.Selection.TournamentSize < 1 {
		c.Selection.TournamentSize = 1
	}
	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 1
	}
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Neural.HiddenLayers = append([]int(nil), c.Neural.HiddenLayers...)
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
