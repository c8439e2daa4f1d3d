package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/corgis/components"
	"github.com/pthm-cable/corgis/neural"
	"github.com/pthm-cable/corgis/telemetry"
	"github.com/pthm-cable/corgis/territory"
)

// NewFromSnapshot resumes a run from a snapshot. The snapshot's seed and
// tick replace opts.Seed; opts.RunID defaults to the snapshot's run ID.
// The configured topology and world size must match the snapshot.
func NewFromSnapshot(snap *telemetry.Snapshot, opts Options) (*Game, error) {
	if snap == nil {
		return nil, fmt.Errorf("restoring: nil snapshot")
	}
	if snap.Version != telemetry.SnapshotVersion {
		return nil, fmt.Errorf("restoring version %d: %w", snap.Version, telemetry.ErrSnapshotVersion)
	}

	opts.Seed = snap.Seed
	if opts.RunID == "" {
		opts.RunID = snap.RunID
	}
	opts.Founder = nil

	g, err := newGame(opts)
	if err != nil {
		return nil, err
	}
	if err := g.restore(snap); err != nil {
		g.Close()
		return nil, err
	}

	slog.Info("restored snapshot",
		"run_id", g.runID,
		"tick", g.tick,
		"corgis", g.Population(),
	)
	return g, nil
}

// restore loads grid, corgis and counters from snap into an empty game.
func (g *Game) restore(snap *telemetry.Snapshot) error {
	snapTopo, err := neural.NewTopology(snap.Topology)
	if err != nil {
		return fmt.Errorf("restoring topology: %w", err)
	}
	if !snapTopo.Equal(g.topology) {
		return fmt.Errorf("restoring: snapshot %s, config %s: %w", snapTopo, g.topology, neural.ErrTopologyMismatch)
	}

	grid, err := territory.FromRecord(snap.Grid)
	if err != nil {
		return fmt.Errorf("restoring grid: %w", err)
	}
	if grid.W != g.grid.W || grid.H != g.grid.H {
		return fmt.Errorf("restoring grid: snapshot %dx%d, config %dx%d: %w",
			grid.W, grid.H, g.grid.W, g.grid.H, territory.ErrBadRecord)
	}
	g.grid = grid

	maxID := uint32(0)
	for i := range snap.Corgis {
		rec := &snap.Corgis[i]
		if _, dup := g.genomes[rec.ID]; dup || rec.ID == 0 {
			return fmt.Errorf("restoring corgi %d: duplicate or zero id", rec.ID)
		}
		if rec.Team >= territory.NumTeams {
			return fmt.Errorf("restoring corgi %d: bad team %d", rec.ID, rec.Team)
		}
		genome, err := neural.FromRecord(g.topology, rec.Genome)
		if err != nil {
			return fmt.Errorf("restoring corgi %d: %w", rec.ID, err)
		}

		g.createCorgi(corgiState{
			corgi: components.Corgi{
				ID:         rec.ID,
				Team:       rec.Team,
				Generation: rec.Generation,
				ParentA:    rec.ParentA,
				ParentB:    rec.ParentB,
			},
			pos:  components.Position{X: rec.X, Y: rec.Y},
			vel:  components.Velocity{X: rec.VelX, Y: rec.VelY},
			phys: components.Physique{Mass: rec.Mass, Energy: rec.Energy},
			vitals: components.Vitals{
				Age:            rec.Age,
				LowEnergyTicks: rec.LowEnergyTicks,
				ReproCooldown:  rec.ReproCooldown,
			},
			genome: genome,
		})

		if rec.Lifetime != nil {
			g.lifetimeTracker.Restore(rec.ID, *rec.Lifetime)
		} else {
			g.lifetimeTracker.Register(rec.ID, snap.Tick-rec.Age, rec.Team, rec.Generation)
		}
		maxID = max(maxID, rec.ID)
	}

	g.tick = snap.Tick
	g.nextID = max(snap.NextID, maxID+1)
	return nil
}
