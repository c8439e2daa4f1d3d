package game

import (
	"cmp"
	"runtime"
	"slices"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/corgis/components"
	"github.com/pthm-cable/corgis/neural"
	"github.com/pthm-cable/corgis/systems"
	"github.com/pthm-cable/corgis/territory"
)

// corgiSnapshot captures read-only state for parallel processing.
type corgiSnapshot struct {
	Entity ecs.Entity
	ID     uint32
	Team   territory.Team
	Pos    components.Position
	Phys   components.Physique
	Genome *neural.Genome
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Neighbors []systems.Neighbor
	Inputs    [neural.BrainInputs]float32
	Net       *neural.Scratch
}

// workChunk represents a range of corgis for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for the compute phase.
type parallelState struct {
	snapshots []corgiSnapshot
	positions []components.Position // parallel to snapshots, for the spatial grid
	teams     []territory.Team      // parallel to snapshots
	intents   []systems.Action
	scratches []workerScratch

	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(topo *neural.Topology, workers int) *parallelState {
	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].Neighbors = make([]systems.Neighbor, 0, systems.MaxQueryResults)
		scratches[i].Net = neural.NewScratch(topo)
	}
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  scratches,
		snapshots:  make([]corgiSnapshot, 0, 512),
		positions:  make([]components.Position, 0, 512),
		teams:      make([]territory.Team, 0, 512),
		intents:    make([]systems.Action, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// buildSnapshots copies living corgi state out of the ECS world, sorted by ID
// so every later phase visits corgis in the same order regardless of archetype
// storage layout.
func (g *Game) buildSnapshots() {
	p := g.parallel
	p.snapshots = p.snapshots[:0]

	query := g.entityFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, phys, vitals, corgi := query.Get()

		if !vitals.Alive {
			continue
		}

		genome, ok := g.genomes[corgi.ID]
		if !ok {
			continue
		}

		p.snapshots = append(p.snapshots, corgiSnapshot{
			Entity: entity,
			ID:     corgi.ID,
			Team:   corgi.Team,
			Pos:    *pos,
			Phys:   *phys,
			Genome: genome,
		})
	}

	slices.SortFunc(p.snapshots, func(a, b corgiSnapshot) int {
		return cmp.Compare(a.ID, b.ID)
	})

	p.positions = p.positions[:0]
	p.teams = p.teams[:0]
	for i := range p.snapshots {
		p.positions = append(p.positions, p.snapshots[i].Pos)
		p.teams = append(p.teams, p.snapshots[i].Team)
	}
}

// computeIntents runs perception, the network and action interpretation for
// every snapshot, single-threaded for small populations and on the worker pool
// otherwise. Claims are staged on the grid as a side effect.
func (g *Game) computeIntents() {
	p := g.parallel
	n := len(p.snapshots)
	if n == 0 {
		return
	}

	if cap(p.intents) < n {
		p.intents = make([]systems.Action, n)
	}
	p.intents = p.intents[:n]

	if n < g.config().Parallel.Threshold || p.numWorkers == 1 {
		g.computeChunk(0, n, &p.scratches[0])
	} else {
		g.computeParallel(n)
	}
}

// computeParallel dispatches work to the worker pool.
func (g *Game) computeParallel(n int) {
	p := g.parallel
	if !p.running {
		p.startWorkers(g)
	}

	numWorkers := p.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Barrier: all intents computed and all bids staged
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// computeChunk processes a range of corgis for a single worker.
// It reads only snapshot data and writes only its own intent slots and
// grid bid cells.
func (g *Game) computeChunk(i0, i1 int, scratch *workerScratch) {
	p := g.parallel
	radius := g.perception.NeighborRadius

	for i := i0; i < i1; i++ {
		snap := &p.snapshots[i]

		scratch.Neighbors = g.spatialGrid.QueryRadiusInto(
			scratch.Neighbors[:0],
			snap.Pos.X, snap.Pos.Y, radius,
			int32(i), p.positions,
		)
		allies, enemies := systems.CountNeighbors(scratch.Neighbors, p.teams, snap.Team)

		sensors := systems.Perceive(systems.Self{
			X:      snap.Pos.X,
			Y:      snap.Pos.Y,
			Mass:   snap.Phys.Mass,
			Energy: snap.Phys.Energy,
			Team:   snap.Team,
		}, g.grid, allies, enemies, g.perception)

		inputs := sensors.ToInputs(scratch.Inputs[:0])
		outputs := snap.Genome.EvaluateInto(inputs, scratch.Net)

		action := systems.Interpret(snap.Pos.X, snap.Pos.Y, snap.Phys.Mass, outputs, g.actions)
		systems.SubmitClaim(g.grid, action, snap.Team)
		p.intents[i] = action
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
