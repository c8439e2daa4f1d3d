package game

import "github.com/pthm-cable/corgis/territory"

// Move is one corgi's displacement during a tick.
type Move struct {
	ID       uint32
	FromX    float32
	FromY    float32
	ToX, ToY float32
}

// TickReport describes what changed during one Step, in a form a renderer
// or recorder can apply without reading the ECS world.
type TickReport struct {
	Tick int32

	Moves       []Move                 // In corgi ID order; stationary corgis omitted
	TileChanges []territory.TileChange // Ownership changes from claim resolution
	Births      []uint32               // IDs of corgis born this tick
	Deaths      []uint32               // IDs of corgis that died this tick

	Claims     int // Claim attempts submitted
	Contested  int // Tiles left unchanged by an exact tie between teams
	Repelled   int // Challenges that failed to beat the incumbent
	Population int // Living corgis after the tick
}
