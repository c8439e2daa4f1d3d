package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/corgis/components"
	"github.com/pthm-cable/corgis/neural"
	"github.com/pthm-cable/corgis/systems"
	"github.com/pthm-cable/corgis/telemetry"
	"github.com/pthm-cable/corgis/territory"
)

// spawnInitialPopulation creates the genesis corgis, alternating teams.
// Every draw is keyed by the corgi's ID, so the population depends only on
// the seed and the config.
func (g *Game) spawnInitialPopulation() error {
	cfg := g.config()
	scale := float32(cfg.Neural.InitScale)
	if cfg.Population.Initial < 0 {
		return fmt.Errorf("initial population must be non-negative, got %d", cfg.Population.Initial)
	}

	for i := 0; i < cfg.Population.Initial; i++ {
		id := g.nextID
		g.nextID++
		team := territory.Team(i % territory.NumTeams)

		rng := systems.KeyedRand(uint64(g.seed), systems.StreamGenesis, 0, id)
		x := rng.Float32() * cfg.Derived.WorldW32
		y := rng.Float32() * cfg.Derived.WorldH32

		genome := g.founder
		if genome == nil {
			genome = neural.RandomGenome(g.topology, rng, scale)
		}

		g.createCorgi(corgiState{
			corgi: components.Corgi{ID: id, Team: team},
			pos:   components.Position{X: x, Y: y},
			phys: components.Physique{
				Mass:   float32(cfg.Physique.InitialMass),
				Energy: float32(cfg.Physique.InitialEnergy),
			},
			genome: genome,
		})
		g.lifetimeTracker.Register(id, g.tick, team, 0)
	}

	slog.Info("genesis",
		"run_id", g.runID,
		"seed", g.seed,
		"corgis", cfg.Population.Initial,
		"topology", g.topology.String(),
	)
	return nil
}

// livingAfterDeaths counts corgis that survive this tick plus queued births.
func (g *Game) livingAfterDeaths() int {
	return g.Population() - len(g.toRemove) + len(g.births)
}

// buildPool fills the candidate pool with living teammates of team,
// skipping exclude. Fitness is current energy.
func (g *Game) buildPool(team territory.Team, exclude uint32) {
	p := g.parallel
	g.pool = g.pool[:0]
	g.poolIdx = g.poolIdx[:0]

	for i := range p.snapshots {
		snap := &p.snapshots[i]
		if snap.Team != team || snap.ID == exclude {
			continue
		}
		if !g.vitalsMap.Get(snap.Entity).Alive {
			continue
		}
		g.pool = append(g.pool, systems.Candidate{
			ID:      snap.ID,
			Fitness: g.physMap.Get(snap.Entity).Energy,
		})
		g.poolIdx = append(g.poolIdx, i)
	}
}

// updateReproduction queues births from the energy trigger and the
// population floor, then spawns them. Births never exceed the cap.
func (g *Game) updateReproduction() {
	cfg := g.config()
	g.births = g.births[:0]

	limit := cfg.Population.Cap
	if limit <= 0 {
		limit = math.MaxInt
	}

	g.energyBirths(limit)
	g.capacityBirths(limit)

	for _, b := range g.births {
		g.spawnChild(b)
	}
	g.births = g.births[:0]
}

// energyBirths lets every eligible corgi, in ID order, pick a teammate and
// hand part of its energy to a child.
func (g *Game) energyBirths(limit int) {
	cfg := g.config()
	p := g.parallel
	seed := uint64(g.seed)
	tick := uint64(g.tick)
	split := float32(cfg.Reproduction.ParentEnergySplit)

	for i := range p.snapshots {
		if g.livingAfterDeaths() >= limit {
			return
		}

		a := &p.snapshots[i]
		physA := g.physMap.Get(a.Entity)
		vitalsA := g.vitalsMap.Get(a.Entity)
		if !systems.CanReproduce(*vitalsA, *physA, g.lifecycle) {
			continue
		}

		bIdx := i
		g.buildPool(a.Team, a.ID)
		if len(g.pool) > 0 {
			k, err := g.selector.Pick(systems.KeyedRand(seed, systems.StreamSelection, tick, a.ID), g.pool)
			if err != nil {
				slog.Error("parent selection failed", "id", a.ID, "error", err)
				continue
			}
			bIdx = g.poolIdx[k]
		}
		b := &p.snapshots[bIdx]
		physB := g.physMap.Get(b.Entity)

		child, err := systems.Breed(
			systems.Parent{Genome: a.Genome, Mass: physA.Mass},
			systems.Parent{Genome: b.Genome, Mass: physB.Mass},
			systems.KeyedRand(seed, systems.StreamBreed, tick, a.ID),
			g.breeding,
		)
		if err != nil {
			slog.Error("breeding failed", "parent_a", a.ID, "parent_b", b.ID, "error", err)
			continue
		}

		childEnergy := physA.Energy * split
		physA.Energy -= childEnergy
		vitalsA.ReproCooldown = g.lifecycle.CooldownTicks

		g.queueBirth(a, b, child, childEnergy, false, systems.KeyedRand(seed, systems.StreamSpawn, tick, a.ID))
	}
}

// capacityBirths breeds one child per surviving team while the population
// is below the floor. Parents keep their energy; the child starts with the
// genesis allotment.
func (g *Game) capacityBirths(limit int) {
	cfg := g.config()
	p := g.parallel
	seed := uint64(g.seed)
	tick := uint64(g.tick)

	for team := territory.TeamA; team <= territory.TeamB; team++ {
		living := g.livingAfterDeaths()
		if living <= 0 || living >= cfg.Population.Floor || living >= limit {
			return
		}

		g.buildPool(team, 0)
		if len(g.pool) == 0 {
			continue
		}

		key := uint32(math.MaxUint32 - uint32(team))
		rng := systems.KeyedRand(seed, systems.StreamSelection, tick, key)
		ka, err := g.selector.Pick(rng, g.pool)
		if err != nil {
			slog.Error("capacity selection failed", "team", team, "error", err)
			continue
		}
		kb, err := g.selector.Pick(rng, g.pool)
		if err != nil {
			slog.Error("capacity selection failed", "team", team, "error", err)
			continue
		}
		a := &p.snapshots[g.poolIdx[ka]]
		b := &p.snapshots[g.poolIdx[kb]]

		child, err := systems.Breed(
			systems.Parent{Genome: a.Genome, Mass: g.physMap.Get(a.Entity).Mass},
			systems.Parent{Genome: b.Genome, Mass: g.physMap.Get(b.Entity).Mass},
			systems.KeyedRand(seed, systems.StreamBreed, tick, key),
			g.breeding,
		)
		if err != nil {
			slog.Error("capacity breeding failed", "team", team, "error", err)
			continue
		}

		g.queueBirth(a, b, child, float32(cfg.Physique.InitialEnergy), true, systems.KeyedRand(seed, systems.StreamSpawn, tick, key))
	}
}

// queueBirth places a child near parent a and queues it for spawning.
func (g *Game) queueBirth(a, b *corgiSnapshot, child systems.Offspring, energy float32, capacity bool, spawnRng *rand.Rand) {
	cfg := g.config()
	pos := g.posMap.Get(a.Entity)

	x, y := jitterInDisc(spawnRng, pos.X, pos.Y,
		float32(cfg.Reproduction.SpawnRadius), cfg.Derived.WorldW32, cfg.Derived.WorldH32)

	genA := g.corgiMap.Get(a.Entity).Generation
	genB := g.corgiMap.Get(b.Entity).Generation

	g.births = append(g.births, birthInfo{
		parentA:    a.ID,
		parentB:    b.ID,
		team:       a.Team,
		generation: max(genA, genB) + 1,
		x:          x,
		y:          y,
		mass:       child.Mass,
		energy:     energy,
		genome:     child.Genome,
		mutation:   child.MutationDelta,
		capacity:   capacity,
	})
}

// cleanupDead removes corgis that died this tick along with their genomes.
// Collect-then-remove keeps the ECS untouched during the energy pass.
func (g *Game) cleanupDead() {
	for _, dead := range g.toRemove {
		g.collector.RecordDeath(dead.team)
		g.pending = append(g.pending, telemetry.NewDeathEvent(g.tick, dead.id, dead.team, dead.energy))
		g.report.Deaths = append(g.report.Deaths, dead.id)

		g.lifetimeTracker.Remove(dead.id)
		g.world.RemoveEntity(dead.entity)
		delete(g.genomes, dead.id)
		g.counts[dead.team]--
	}
	g.toRemove = g.toRemove[:0]
	g.report.Population = g.Population()
}
