package components

// Position represents a corgi's world position in tile units.
type Position struct {
	X, Y float32
}

// Velocity is the movement applied on the last tick, in tiles per tick.
type Velocity struct {
	X, Y float32
}
