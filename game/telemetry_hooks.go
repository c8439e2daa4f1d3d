package game

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/pthm-cable/corgis/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles
// bookmarks, persistence and periodic snapshots.
func (g *Game) flushTelemetry() {
	if interval := g.config().Telemetry.SnapshotInterval; interval > 0 && g.tick%int32(interval) == 0 {
		g.saveSnapshot(nil)
	}

	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.samplePopulation(), g.grid)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	if g.store != nil {
		if err := g.store.AppendStats(context.Background(), g.runID, stats); err != nil {
			slog.Error("failed to store stats", "error", err)
		}
	}
	g.flushEvents()

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		g.saveSnapshot(&bm)
	}
}

// samplePopulation gathers per-corgi values for the window distributions.
func (g *Game) samplePopulation() telemetry.PopulationSample {
	n := g.Population()
	sample := telemetry.PopulationSample{
		Counts:      g.counts,
		Energies:    make([]float64, 0, n),
		Masses:      make([]float64, 0, n),
		Generations: make([]float64, 0, n),
	}

	query := g.entityFilter.Query()
	for query.Next() {
		_, _, phys, vitals, corgi := query.Get()
		if !vitals.Alive {
			continue
		}
		sample.Energies = append(sample.Energies, float64(phys.Energy))
		sample.Masses = append(sample.Masses, float64(phys.Mass))
		sample.Generations = append(sample.Generations, float64(corgi.Generation))
	}
	return sample
}

// flushEvents hands pending events to the store.
func (g *Game) flushEvents() {
	if len(g.pending) == 0 {
		return
	}
	if g.store != nil {
		if err := g.store.AppendEvents(context.Background(), g.runID, g.pending); err != nil {
			slog.Error("failed to store events", "count", len(g.pending), "error", err)
		}
	}
	g.pending = g.pending[:0]
}

// saveSnapshot writes a snapshot to the snapshot directory and the store,
// whichever are configured.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	if g.snapshotDir == "" && g.store == nil {
		return
	}
	snapshot := g.Snapshot()
	snapshot.Bookmark = bookmark

	if g.snapshotDir != "" {
		path, err := telemetry.SaveSnapshot(snapshot, g.snapshotDir)
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path, "tick", g.tick)
		}
	}
	if g.store != nil {
		if err := g.store.SaveSnapshot(context.Background(), g.runID, snapshot); err != nil {
			slog.Error("failed to store snapshot", "tick", g.tick, "error", err)
		}
	}
}

// Snapshot captures the complete simulation state. Corgis are in ID order.
func (g *Game) Snapshot() *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		RunID:    g.runID,
		Seed:     g.seed,
		Tick:     g.tick,
		NextID:   g.nextID,
		Topology: g.topology.Spec(),
		Grid:     g.grid.Record(),
		Corgis:   make([]telemetry.CorgiRecord, 0, g.Population()),
	}

	query := g.entityFilter.Query()
	for query.Next() {
		pos, vel, phys, vitals, corgi := query.Get()
		if !vitals.Alive {
			continue
		}
		genome, ok := g.genomes[corgi.ID]
		if !ok {
			continue
		}

		var lifetime *telemetry.LifetimeStats
		if ls := g.lifetimeTracker.Get(corgi.ID); ls != nil {
			copied := *ls
			lifetime = &copied
		}

		snapshot.Corgis = append(snapshot.Corgis, telemetry.CorgiRecord{
			ID:             corgi.ID,
			Team:           corgi.Team,
			Generation:     corgi.Generation,
			ParentA:        corgi.ParentA,
			ParentB:        corgi.ParentB,
			X:              pos.X,
			Y:              pos.Y,
			VelX:           vel.X,
			VelY:           vel.Y,
			Energy:         phys.Energy,
			Mass:           phys.Mass,
			Age:            vitals.Age,
			LowEnergyTicks: vitals.LowEnergyTicks,
			ReproCooldown:  vitals.ReproCooldown,
			Genome:         genome.Record(),
			Lifetime:       lifetime,
		})
	}

	slices.SortFunc(snapshot.Corgis, func(a, b telemetry.CorgiRecord) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return snapshot
}
