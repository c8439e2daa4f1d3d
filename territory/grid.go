// Package territory holds the tile ownership grid the two teams compete over.
package territory

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Team identifies one of the two competing teams.
type Team uint8

const (
	TeamA Team = iota
	TeamB
)

// NumTeams is the number of teams.
const NumTeams = 2

// String returns the team's display name.
func (t Team) String() string {
	switch t {
	case TeamA:
		return "blue"
	case TeamB:
		return "red"
	default:
		return fmt.Sprintf("team(%d)", uint8(t))
	}
}

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// Owner is a tile's ownership state.
type Owner uint8

const (
	Neutral Owner = iota
	OwnerA
	OwnerB
)

// OwnerOf returns the owner value for team t.
func OwnerOf(t Team) Owner {
	if t == TeamA {
		return OwnerA
	}
	return OwnerB
}

// Team returns the owning team; ok is false for Neutral.
func (o Owner) Team() (t Team, ok bool) {
	switch o {
	case OwnerA:
		return TeamA, true
	case OwnerB:
		return TeamB, true
	default:
		return 0, false
	}
}

// String implements fmt.Stringer.
func (o Owner) String() string {
	if t, ok := o.Team(); ok {
		return t.String()
	}
	return "neutral"
}

// teamBit returns the bid mask bit for t.
func teamBit(t Team) uint64 { return 1 << t }

const bothTeams = 1<<TeamA | 1<<TeamB

// ResolveResult counts what happened to the grid during one Resolve.
type ResolveResult struct {
	Captures  [NumTeams]int // Neutral tiles taken, per team
	Flips     [NumTeams]int // Enemy tiles taken, per team
	Repelled  int           // Challenges that did not beat the incumbent strength
	Contested int           // Tiles where both teams tied at the top bid

	Changes []TileChange // Every ownership change, in tile index order
}

// TileChange records one tile changing owner during Resolve.
type TileChange struct {
	X, Y     int
	From, To Owner
}

// TotalFlips returns ownership changes from one team to the other.
func (r ResolveResult) TotalFlips() int { return r.Flips[0] + r.Flips[1] }

// TotalCaptures returns neutral tiles that gained an owner.
func (r ResolveResult) TotalCaptures() int { return r.Captures[0] + r.Captures[1] }

// Grid is a fixed-size tile ownership grid.
//
// Claims made during a tick are staged in per-tile atomic bid cells and can be
// submitted concurrently. Resolve applies them in one pass. The outcome
// depends only on the set of bids, never on submission order.
type Grid struct {
	W, H int

	owner    []Owner
	strength []float32 // Claim strength of the current owner's last successful claim

	// High 32 bits: float32 bits of the best bid. Low bits: mask of teams at that bid.
	bids []atomic.Uint64
}

// New creates a w×h grid with every tile neutral.
func New(w, h int) *Grid {
	n := w * h
	return &Grid{
		W:        w,
		H:        h,
		owner:    make([]Owner, n),
		strength: make([]float32, n),
		bids:     make([]atomic.Uint64, n),
	}
}

// InBounds reports whether (tx, ty) is a tile of the grid.
func (g *Grid) InBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < g.W && ty < g.H
}

// TileAt maps a world position (in tile units) to a tile, clamping to the edges.
func (g *Grid) TileAt(x, y float32) (tx, ty int) {
	tx = clampInt(int(math.Floor(float64(x))), 0, g.W-1)
	ty = clampInt(int(math.Floor(float64(y))), 0, g.H-1)
	return tx, ty
}

// Owner returns the owner of tile (tx, ty), or Neutral out of bounds.
func (g *Grid) Owner(tx, ty int) Owner {
	if !g.InBounds(tx, ty) {
		return Neutral
	}
	return g.owner[ty*g.W+tx]
}

// OwnerAt returns the owner of the tile under world position (x, y).
func (g *Grid) OwnerAt(x, y float32) Owner {
	tx, ty := g.TileAt(x, y)
	return g.owner[ty*g.W+tx]
}

// Strength returns the incumbent claim strength of tile (tx, ty).
func (g *Grid) Strength(tx, ty int) float32 {
	if !g.InBounds(tx, ty) {
		return 0
	}
	return g.strength[ty*g.W+tx]
}

// Set forces a tile's owner and strength. Used for restore and tests.
func (g *Grid) Set(tx, ty int, o Owner, strength float32) {
	i := ty*g.W + tx
	g.owner[i] = o
	g.strength[i] = strength
}

// Claim stages a bid by team on tile (tx, ty) with the given strength.
// Safe for concurrent use. A higher bid replaces the staged one; an equal bid
// from the other team marks the tile as tied. Negative, NaN and out-of-bounds
// claims are ignored.
func (g *Grid) Claim(tx, ty int, team Team, strength float32) {
	if !g.InBounds(tx, ty) || !(strength >= 0) || math.IsInf(float64(strength), 1) {
		return
	}
	// +0 and -0 must compare equal
	sbits := uint64(math.Float32bits(strength + 0))
	bit := teamBit(team)
	cell := &g.bids[ty*g.W+tx]

	for {
		old := cell.Load()
		oldBits := old >> 32

		var next uint64
		switch {
		case old == 0 || sbits > oldBits:
			next = sbits<<32 | bit
		case sbits == oldBits:
			next = old | bit
		default:
			return
		}
		if next == old || cell.CompareAndSwap(old, next) {
			return
		}
	}
}

// Resolve applies and clears every staged bid.
// A team takes a neutral tile with any bid, and takes an enemy tile only with
// a bid strictly greater than the incumbent strength. A bid by the owning team
// refreshes the incumbent strength. Ties, whether between the two teams'
// bids or against the incumbent, leave ownership unchanged.
// Must not run concurrently with Claim.
func (g *Grid) Resolve() ResolveResult {
	var res ResolveResult
	for i := range g.bids {
		v := g.bids[i].Swap(0)
		if v == 0 {
			continue
		}

		mask := v & bothTeams
		s := math.Float32frombits(uint32(v >> 32))
		if mask == bothTeams {
			res.Contested++
			continue
		}

		team := TeamA
		if mask == teamBit(TeamB) {
			team = TeamB
		}
		mine := OwnerOf(team)

		switch g.owner[i] {
		case mine:
			g.strength[i] = s
		case Neutral:
			res.Changes = append(res.Changes, TileChange{X: i % g.W, Y: i / g.W, From: Neutral, To: mine})
			g.owner[i] = mine
			g.strength[i] = s
			res.Captures[team]++
		default:
			if s > g.strength[i] {
				res.Changes = append(res.Changes, TileChange{X: i % g.W, Y: i / g.W, From: g.owner[i], To: mine})
				g.owner[i] = mine
				g.strength[i] = s
				res.Flips[team]++
			} else {
				res.Repelled++
			}
		}
	}
	return res
}

// Frontier returns the fraction of the in-bounds neighbours of (tx, ty) not
// owned by team.
func (g *Grid) Frontier(tx, ty int, team Team) float32 {
	mine := OwnerOf(team)
	var total, foreign int
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := tx+dx, ty+dy
			if !g.InBounds(nx, ny) {
				continue
			}
			total++
			if g.owner[ny*g.W+nx] != mine {
				foreign++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float32(foreign) / float32(total)
}

// Counts returns the number of neutral, A-owned and B-owned tiles.
func (g *Grid) Counts() (neutral, a, b int) {
	for _, o := range g.owner {
		switch o {
		case OwnerA:
			a++
		case OwnerB:
			b++
		default:
			neutral++
		}
	}
	return neutral, a, b
}

// Share returns the fraction of all tiles owned by team.
func (g *Grid) Share(team Team) float64 {
	if len(g.owner) == 0 {
		return 0
	}
	_, a, b := g.Counts()
	if team == TeamA {
		return float64(a) / float64(len(g.owner))
	}
	return float64(b) / float64(len(g.owner))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
