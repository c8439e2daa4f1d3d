package territory

import (
	"errors"
	"sync"
	"testing"
)

func TestClaimNeutralTile(t *testing.T) {
	g := New(4, 4)
	g.Claim(1, 2, TeamB, 3)
	res := g.Resolve()

	if got := g.Owner(1, 2); got != OwnerB {
		t.Errorf("owner = %v, want %v", got, OwnerB)
	}
	if g.Strength(1, 2) != 3 {
		t.Errorf("strength = %v, want 3", g.Strength(1, 2))
	}
	if res.Captures[TeamB] != 1 || res.TotalFlips() != 0 {
		t.Errorf("result = %+v, want one capture for B", res)
	}
}

func TestTieFavoursIncumbent(t *testing.T) {
	g := New(3, 3)
	g.Set(1, 1, OwnerA, 5)

	// Both teams claim with mass 5 in the same tick
	g.Claim(1, 1, TeamB, 5)
	g.Claim(1, 1, TeamA, 5)
	res := g.Resolve()

	if got := g.Owner(1, 1); got != OwnerA {
		t.Errorf("owner = %v, want %v", got, OwnerA)
	}
	if res.Contested != 1 {
		t.Errorf("contested = %d, want 1", res.Contested)
	}
}

func TestEqualChallengeRepelled(t *testing.T) {
	g := New(3, 3)
	g.Set(0, 0, OwnerA, 5)

	g.Claim(0, 0, TeamB, 5)
	res := g.Resolve()
	if g.Owner(0, 0) != OwnerA {
		t.Errorf("equal-strength challenge flipped the tile")
	}
	if res.Repelled != 1 {
		t.Errorf("repelled = %d, want 1", res.Repelled)
	}

	g.Claim(0, 0, TeamB, 5.5)
	res = g.Resolve()
	if g.Owner(0, 0) != OwnerB {
		t.Errorf("stronger challenge did not flip the tile")
	}
	if res.Flips[TeamB] != 1 {
		t.Errorf("flips = %+v, want one for B", res.Flips)
	}
	want := TileChange{X: 0, Y: 0, From: OwnerA, To: OwnerB}
	if len(res.Changes) != 1 || res.Changes[0] != want {
		t.Errorf("changes = %+v, want [%+v]", res.Changes, want)
	}
}

func TestHigherBidWins(t *testing.T) {
	g := New(2, 2)
	g.Claim(0, 0, TeamA, 2)
	g.Claim(0, 0, TeamB, 4)
	g.Claim(0, 0, TeamA, 3)
	g.Resolve()

	if g.Owner(0, 0) != OwnerB || g.Strength(0, 0) != 4 {
		t.Errorf("owner=%v strength=%v, want B at 4", g.Owner(0, 0), g.Strength(0, 0))
	}
}

func TestReinforceUpdatesStrength(t *testing.T) {
	g := New(2, 2)
	g.Set(1, 1, OwnerA, 8)
	g.Claim(1, 1, TeamA, 2)
	g.Resolve()
	if g.Strength(1, 1) != 2 {
		t.Errorf("strength = %v, want 2 after reinforce", g.Strength(1, 1))
	}
}

func TestResolveClearsBids(t *testing.T) {
	g := New(2, 2)
	g.Claim(0, 0, TeamA, 1)
	g.Resolve()
	g.Set(0, 0, Neutral, 0)

	res := g.Resolve()
	if g.Owner(0, 0) != Neutral || res.TotalCaptures() != 0 {
		t.Error("bid survived a Resolve")
	}
}

func TestInvalidClaimsIgnored(t *testing.T) {
	g := New(2, 2)
	g.Claim(-1, 0, TeamA, 1)
	g.Claim(0, 5, TeamA, 1)
	g.Claim(1, 1, TeamA, -1)
	res := g.Resolve()
	if res.TotalCaptures() != 0 {
		t.Errorf("captures = %d, want 0", res.TotalCaptures())
	}
}

func TestConcurrentClaimsOrderIndependent(t *testing.T) {
	type bid struct {
		x, y int
		team Team
		s    float32
	}
	var bids []bid
	for i := 0; i < 400; i++ {
		bids = append(bids, bid{x: i % 5, y: (i / 5) % 5, team: Team(i % 2), s: float32(i%7) + 1})
	}

	run := func(reverse bool) Record {
		g := New(5, 5)
		g.Set(2, 2, OwnerA, 6)
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := w; i < len(bids); i += 8 {
					b := bids[i]
					if reverse {
						b = bids[len(bids)-1-i]
					}
					g.Claim(b.x, b.y, b.team, b.s)
				}
			}(w)
		}
		wg.Wait()
		g.Resolve()
		return g.Record()
	}

	a, b := run(false), run(true)
	for y := range a.Rows {
		if a.Rows[y] != b.Rows[y] {
			t.Fatalf("row %d differs: %q vs %q", y, a.Rows[y], b.Rows[y])
		}
	}
}

func TestFrontier(t *testing.T) {
	g := New(3, 3)
	if f := g.Frontier(1, 1, TeamA); f != 1 {
		t.Errorf("all-neutral frontier = %v, want 1", f)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			g.Set(x, y, OwnerA, 1)
		}
	}
	if f := g.Frontier(1, 1, TeamA); f != 0 {
		t.Errorf("surrounded frontier = %v, want 0", f)
	}
	g.Set(1, 0, OwnerB, 1)
	// Corner (0,0) has 3 in-bounds neighbours, one foreign
	if f := g.Frontier(0, 0, TeamA); f < 0.33 || f > 0.34 {
		t.Errorf("corner frontier = %v, want 1/3", f)
	}
}

func TestTileAtClamps(t *testing.T) {
	g := New(4, 3)
	tests := []struct {
		x, y   float32
		tx, ty int
	}{
		{0.5, 0.5, 0, 0},
		{3.99, 2.99, 3, 2},
		{4, 3, 3, 2},
		{-2, -0.1, 0, 0},
	}
	for _, tt := range tests {
		tx, ty := g.TileAt(tt.x, tt.y)
		if tx != tt.tx || ty != tt.ty {
			t.Errorf("TileAt(%v,%v) = (%d,%d), want (%d,%d)", tt.x, tt.y, tx, ty, tt.tx, tt.ty)
		}
	}
}

func TestCountsAndShare(t *testing.T) {
	g := New(2, 2)
	g.Set(0, 0, OwnerA, 1)
	g.Set(1, 0, OwnerA, 1)
	g.Set(0, 1, OwnerB, 1)

	n, a, b := g.Counts()
	if n != 1 || a != 2 || b != 1 {
		t.Errorf("counts = (%d,%d,%d), want (1,2,1)", n, a, b)
	}
	if g.Share(TeamA) != 0.5 {
		t.Errorf("share A = %v, want 0.5", g.Share(TeamA))
	}
}

func TestRecordRoundTrip(t *testing.T) {
	g := New(3, 2)
	g.Set(0, 0, OwnerA, 2)
	g.Set(2, 1, OwnerB, 7)

	rec := g.Record()
	if rec.Rows[0] != "A.." || rec.Rows[1] != "..B" {
		t.Errorf("rows = %q", rec.Rows)
	}

	back, err := FromRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	if back.Owner(2, 1) != OwnerB || back.Strength(2, 1) != 7 {
		t.Errorf("restored tile (2,1) = %v@%v", back.Owner(2, 1), back.Strength(2, 1))
	}

	rec.Rows[1] = "..X"
	if _, err := FromRecord(rec); !errors.Is(err, ErrBadRecord) {
		t.Errorf("err = %v, want ErrBadRecord", err)
	}
}

func TestTeamNames(t *testing.T) {
	if TeamA.String() != "blue" || TeamB.String() != "red" {
		t.Errorf("names = %s/%s", TeamA, TeamB)
	}
	if TeamA.Other() != TeamB || TeamB.Other() != TeamA {
		t.Error("Other is not an involution")
	}
	if Neutral.String() != "neutral" {
		t.Errorf("Neutral = %s", Neutral)
	}
}
