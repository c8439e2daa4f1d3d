package game

import (
	"github.com/pthm-cable/corgis/systems"
	"github.com/pthm-cable/corgis/telemetry"
	"github.com/pthm-cable/corgis/territory"
)

// updateSpatialGrid rebuilds the neighbour index from this tick's snapshots.
func (g *Game) updateSpatialGrid() {
	g.spatialGrid.Build(g.parallel.positions)
}

// applyIntents writes the computed movement back to the ECS world.
// Runs serially after the compute barrier, in snapshot (ID) order.
func (g *Game) applyIntents() {
	p := g.parallel
	claims := 0

	for i := range p.snapshots {
		snap := &p.snapshots[i]
		action := &p.intents[i]

		pos := g.posMap.Get(snap.Entity)
		vel := g.velMap.Get(snap.Entity)
		vitals := g.vitalsMap.Get(snap.Entity)

		pos.X = action.NewX
		pos.Y = action.NewY
		vel.X = action.VelX
		vel.Y = action.VelY

		vitals.Claimed = action.Claim
		if action.Claim {
			claims++
		}

		if action.VelX != 0 || action.VelY != 0 {
			g.report.Moves = append(g.report.Moves, Move{
				ID:    snap.ID,
				FromX: snap.Pos.X,
				FromY: snap.Pos.Y,
				ToX:   action.NewX,
				ToY:   action.NewY,
			})
		}
	}

	g.report.Claims = claims
	g.collector.RecordClaims(claims)
}

// resolveClaims applies every staged bid and updates who stands on own ground.
func (g *Game) resolveClaims() {
	res := g.grid.Resolve()
	g.collector.RecordResolve(res)

	g.report.TileChanges = res.Changes
	g.report.Contested = res.Contested
	g.report.Repelled = res.Repelled

	for team := territory.TeamA; team <= territory.TeamB; team++ {
		if n := res.Flips[team]; n > 0 {
			g.pending = append(g.pending, telemetry.NewFlipEvent(g.tick, team, n))
		}
	}

	p := g.parallel
	for i := range p.snapshots {
		snap := &p.snapshots[i]
		action := &p.intents[i]
		vitals := g.vitalsMap.Get(snap.Entity)

		own := g.grid.OwnerAt(action.NewX, action.NewY) == territory.OwnerOf(snap.Team)
		vitals.HoldsTile = own
		if action.Claim {
			g.lifetimeTracker.RecordClaim(snap.ID, own)
		}
	}
}

// updateEnergyAndVitals charges metabolism, credits held tiles and applies
// death hysteresis. Dead corgis are queued for cleanup.
func (g *Game) updateEnergyAndVitals() {
	p := g.parallel
	g.toRemove = g.toRemove[:0]

	for i := range p.snapshots {
		snap := &p.snapshots[i]
		phys := g.physMap.Get(snap.Entity)
		vitals := g.vitalsMap.Get(snap.Entity)

		_, gain := systems.UpdateEnergy(phys, p.intents[i].Movement, vitals.HoldsTile, g.energy)
		if gain > 0 {
			g.lifetimeTracker.RecordGain(snap.ID, gain)
		}
		g.lifetimeTracker.UpdateEnergy(snap.ID, phys.Energy)

		if systems.UpdateVitals(vitals, phys.Energy, g.lifecycle) {
			g.toRemove = append(g.toRemove, deadInfo{
				entity: snap.Entity,
				id:     snap.ID,
				team:   snap.Team,
				energy: phys.Energy,
			})
		}
	}
}
