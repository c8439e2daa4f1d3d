package territory

import (
	"errors"
	"fmt"
)

// ErrBadRecord is returned when a grid record does not describe a valid grid.
var ErrBadRecord = errors.New("territory: bad grid record")

// Record is the serialisable form of a grid. Rows hold one character per
// tile: '.' neutral, 'A' team A, 'B' team B.
type Record struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Rows      []string  `json:"rows"`
	Strengths []float32 `json:"strengths"`
}

// Record captures the current ownership state. Staged bids are not included.
func (g *Grid) Record() Record {
	rec := Record{
		Width:     g.W,
		Height:    g.H,
		Rows:      make([]string, g.H),
		Strengths: append([]float32(nil), g.strength...),
	}
	row := make([]byte, g.W)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			switch g.owner[y*g.W+x] {
			case OwnerA:
				row[x] = 'A'
			case OwnerB:
				row[x] = 'B'
			default:
				row[x] = '.'
			}
		}
		rec.Rows[y] = string(row)
	}
	return rec
}

// FromRecord rebuilds a grid from rec.
func FromRecord(rec Record) (*Grid, error) {
	if rec.Width <= 0 || rec.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrBadRecord, rec.Width, rec.Height)
	}
	if len(rec.Rows) != rec.Height {
		return nil, fmt.Errorf("%w: %d rows for height %d", ErrBadRecord, len(rec.Rows), rec.Height)
	}
	if rec.Strengths != nil && len(rec.Strengths) != rec.Width*rec.Height {
		return nil, fmt.Errorf("%w: %d strengths for %d tiles", ErrBadRecord, len(rec.Strengths), rec.Width*rec.Height)
	}

	g := New(rec.Width, rec.Height)
	for y, row := range rec.Rows {
		if len(row) != rec.Width {
			return nil, fmt.Errorf("%w: row %d has %d tiles", ErrBadRecord, y, len(row))
		}
		for x := 0; x < rec.Width; x++ {
			var o Owner
			switch row[x] {
			case 'A':
				o = OwnerA
			case 'B':
				o = OwnerB
			case '.':
				o = Neutral
			default:
				return nil, fmt.Errorf("%w: tile (%d,%d) has owner %q", ErrBadRecord, x, y, row[x])
			}
			g.owner[y*rec.Width+x] = o
		}
	}
	if rec.Strengths != nil {
		copy(g.strength, rec.Strengths)
	}
	return g, nil
}
