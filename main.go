package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/corgis/config"
	"github.com/pthm-cable/corgis/game"
	"github.com/pthm-cable/corgis/neural"
	"github.com/pthm-cable/corgis/storage"
	"github.com/pthm-cable/corgis/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	storeKind := flag.String("store", "", "Run store backend: memory or sqlite (empty = use config)")
	dbPath := flag.String("db-path", "", "SQLite database path (empty = use config)")
	restore := flag.String("restore", "", "Resume from a snapshot file")
	resume := flag.Bool("resume", false, "Resume -run-id from the latest snapshot in the store")
	runID := flag.String("run-id", "", "Run identifier (empty = new UUID)")
	describe := flag.Bool("describe", false, "Print the brain input/output layout as JSON and exit")

	flag.Parse()

	if *describe {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string][]neural.IODescriptor{
			"inputs":  neural.BrainInputDescriptors(),
			"outputs": neural.BrainOutputDescriptors(),
		}); err != nil {
			os.Exit(1)
		}
		return
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *storeKind != "" {
		cfg.Storage.Backend = *storeKind
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	id := *runID
	if id == "" {
		if *resume {
			slog.Error("-resume requires -run-id")
			os.Exit(1)
		}
		id = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runOptions{
		runID:       id,
		seed:        rngSeed,
		maxTicks:    *maxTicks,
		logStats:    *logStats,
		outputDir:   *outputDir,
		snapshotDir: *snapshotDir,
		restore:     *restore,
		resume:      *resume,
	}); err != nil {
		slog.Error("run failed", "run_id", id, "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	runID       string
	seed        int64
	maxTicks    int
	logStats    bool
	outputDir   string
	snapshotDir string
	restore     string
	resume      bool
}

func run(ctx context.Context, cfg *config.Config, ro runOptions) error {
	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()

	opts := game.Options{
		Config:      cfg,
		Seed:        ro.seed,
		RunID:       ro.runID,
		LogStats:    ro.logStats,
		OutputDir:   ro.outputDir,
		SnapshotDir: ro.snapshotDir,
		Store:       store,
	}

	g, err := newGame(ctx, store, opts, ro)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Close(); err != nil {
			slog.Error("failed to close game", "error", err)
		}
	}()

	if !ro.resume {
		cfgYAML, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		if err := store.SaveRun(ctx, storage.RunInfo{
			ID:         g.RunID(),
			Seed:       g.Seed(),
			StartedAt:  time.Now().UTC(),
			ConfigYAML: string(cfgYAML),
		}); err != nil {
			return err
		}
	}

	slog.Info("starting simulation",
		"run_id", g.RunID(),
		"seed", g.Seed(),
		"tick", g.Tick(),
		"population", g.Population(),
		"max_ticks", ro.maxTicks,
		"store", cfg.Storage.Backend,
	)

	err = g.Run(ctx, ro.maxTicks)
	switch {
	case err == nil:
		slog.Info("max ticks reached", "tick", g.Tick())
	case errors.Is(err, game.ErrEmptyPopulation):
		slog.Warn("run ended by extinction", "tick", g.Tick())
		return nil
	case errors.Is(err, context.Canceled):
		slog.Info("interrupted", "tick", g.Tick())
	default:
		return err
	}

	// Final snapshot so the run can be resumed
	if err := store.SaveSnapshot(context.Background(), g.RunID(), g.Snapshot()); err != nil {
		slog.Error("failed to store final snapshot", "error", err)
	}
	if ro.snapshotDir != "" {
		if path, err := telemetry.SaveSnapshot(g.Snapshot(), ro.snapshotDir); err != nil {
			slog.Error("failed to save final snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path)
		}
	}
	return nil
}

// newGame builds a fresh game or resumes one from a snapshot file or the store.
func newGame(ctx context.Context, store storage.Store, opts game.Options, ro runOptions) (*game.Game, error) {
	switch {
	case ro.restore != "":
		snap, err := telemetry.LoadSnapshot(ro.restore)
		if err != nil {
			return nil, err
		}
		return game.NewFromSnapshot(snap, opts)
	case ro.resume:
		snap, ok, err := store.LatestSnapshot(ctx, ro.runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("no stored snapshot for run " + ro.runID)
		}
		return game.NewFromSnapshot(snap, opts)
	default:
		return game.New(opts)
	}
}
