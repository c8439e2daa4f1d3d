// Package systems provides the per-corgi simulation systems.
package systems

import "github.com/pthm-cable/corgis/components"

// Neighbor holds a nearby corgi with precomputed spatial data.
// Idx indexes the position slice the grid was built from.
type Neighbor struct {
	Idx    int32
	DX, DY float32 // Delta from query origin
	DistSq float32 // Squared distance (avoid sqrt in hot path)
}

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid.
// The world is bounded, not toroidal.
type SpatialGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]int32 // flat grid of index lists
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int32, cols*rows)
	for i := range cells {
		cells[i] = make([]int32, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entries from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds index idx at the given position.
func (g *SpatialGrid) Insert(idx int32, x, y float32) {
	col, row := g.cellCoords(x, y)
	c := row*g.cols + col
	g.cells[c] = append(g.cells[c], idx)
}

// Build clears the grid and inserts every position by its slice index.
func (g *SpatialGrid) Build(pos []components.Position) {
	g.Clear()
	for i := range pos {
		g.Insert(int32(i), pos[i].X, pos[i].Y)
	}
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 128

// QueryRadiusInto finds entries within radius and appends to dst (up to MaxQueryResults).
// Returns the updated slice. Reuse dst across calls to avoid allocations.
// Read-only: safe to call from many goroutines once the grid is built.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, y, radius float32, exclude int32, pos []components.Position) []Neighbor {
	if !(radius > 0) {
		return dst
	}
	cellRadius := int(radius/g.cellSize) + 1
	centerCol, centerRow := g.cellCoords(x, y)
	radiusSq := radius * radius

	for dr := -cellRadius; dr <= cellRadius; dr++ {
		row := centerRow + dr
		if row < 0 || row >= g.rows {
			continue
		}
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := centerCol + dc
			if col < 0 || col >= g.cols {
				continue
			}

			for _, idx := range g.cells[row*g.cols+col] {
				if idx == exclude {
					continue
				}
				p := pos[idx]
				dx := p.X - x
				dy := p.Y - y
				distSq := dx*dx + dy*dy

				if distSq <= radiusSq {
					dst = append(dst, Neighbor{Idx: idx, DX: dx, DY: dy, DistSq: distSq})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// cellCoords returns the clamped cell for a world position.
func (g *SpatialGrid) cellCoords(x, y float32) (col, row int) {
	col = int(x / g.cellSize)
	row = int(y / g.cellSize)

	if !(x >= 0) {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if !(y >= 0) {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
