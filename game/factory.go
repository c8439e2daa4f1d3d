package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/corgis/components"
	"github.com/pthm-cable/corgis/neural"
	"github.com/pthm-cable/corgis/telemetry"
	"github.com/pthm-cable/corgis/territory"
)

// birthInfo is a child queued during reproduction and spawned afterwards.
type birthInfo struct {
	parentA, parentB uint32
	team             territory.Team
	generation       uint32
	x, y             float32
	mass, energy     float32
	genome           *neural.Genome
	mutation         float32
	capacity         bool
}

// deadInfo is a corgi queued for removal.
type deadInfo struct {
	entity ecs.Entity
	id     uint32
	team   territory.Team
	energy float32
}

// corgiState is everything needed to materialise a corgi entity.
type corgiState struct {
	corgi  components.Corgi
	pos    components.Position
	vel    components.Velocity
	phys   components.Physique
	vitals components.Vitals
	genome *neural.Genome
}

// createCorgi adds a corgi entity and registers its genome and counters.
// The caller owns lifetime registration.
func (g *Game) createCorgi(s corgiState) ecs.Entity {
	s.vitals.Alive = true
	entity := g.entityMapper.NewEntity(&s.pos, &s.vel, &s.phys, &s.vitals, &s.corgi)
	g.genomes[s.corgi.ID] = s.genome
	g.counts[s.corgi.Team]++
	return entity
}

// spawnChild materialises a queued birth with a fresh ID.
func (g *Game) spawnChild(b birthInfo) ecs.Entity {
	id := g.nextID
	g.nextID++

	entity := g.createCorgi(corgiState{
		corgi: components.Corgi{
			ID:         id,
			Team:       b.team,
			Generation: b.generation,
			ParentA:    b.parentA,
			ParentB:    b.parentB,
		},
		pos:    components.Position{X: b.x, Y: b.y},
		phys:   components.Physique{Mass: b.mass, Energy: b.energy},
		genome: b.genome,
	})

	g.lifetimeTracker.Register(id, g.tick, b.team, b.generation)
	g.lifetimeTracker.RecordChild(b.parentA)
	if b.parentB != b.parentA {
		g.lifetimeTracker.RecordChild(b.parentB)
	}
	g.collector.RecordBirth(b.team, b.capacity, b.mutation)
	g.pending = append(g.pending, telemetry.NewBirthEvent(g.tick, id, b.team, b.parentA, b.parentB))
	g.report.Births = append(g.report.Births, id)

	return entity
}
