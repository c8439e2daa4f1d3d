package neural

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestCrossoverPicksFromParents(t *testing.T) {
	topo := testTopology(t)
	n := topo.ParamCount()

	wa := make([]float32, n)
	wb := make([]float32, n)
	for i := range wa {
		wa[i] = 1
		wb[i] = -1
	}
	a, _ := NewGenome(topo, wa)
	b, _ := NewGenome(topo, wb)

	child, err := Crossover(a, b, rand.New(rand.NewPCG(7, 7)))
	if err != nil {
		t.Fatalf("Crossover failed: %v", err)
	}
	if child.Len() != n {
		t.Fatalf("child length %d, want %d", child.Len(), n)
	}

	var fromA, fromB int
	for i := 0; i < n; i++ {
		switch child.Weight(i) {
		case 1:
			fromA++
		case -1:
			fromB++
		default:
			t.Fatalf("weight %d = %v came from neither parent", i, child.Weight(i))
		}
	}
	if fromA == 0 || fromB == 0 {
		t.Errorf("uniform crossover took %d from a and %d from b", fromA, fromB)
	}
}

func TestCrossoverTopologyMismatch(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	a := RandomGenome(testTopology(t), rng, 1)
	b := RandomGenome(MustTopology(TopologySpec{InputSize: 8, HiddenLayers: []int{5}, OutputSize: 3}), rng, 1)

	if _, err := Crossover(a, b, rng); !errors.Is(err, ErrTopologyMismatch) {
		t.Errorf("err = %v, want ErrTopologyMismatch", err)
	}
}

func TestMutateLeavesParentUntouched(t *testing.T) {
	topo := testTopology(t)
	rng := rand.New(rand.NewPCG(5, 5))
	g := RandomGenome(topo, rng, 1)
	before := g.Weights()

	child, avg := g.Mutate(rng, 1, 0.5)
	if avg <= 0 {
		t.Errorf("avg delta = %v, want > 0 at rate 1", avg)
	}
	if child.Len() != g.Len() {
		t.Errorf("child length %d, want %d", child.Len(), g.Len())
	}

	changed := 0
	for i, w := range before {
		if g.Weight(i) != w {
			t.Fatalf("parent weight %d changed", i)
		}
		if child.Weight(i) != w {
			changed++
		}
	}
	if changed == 0 {
		t.Error("rate 1 mutation changed nothing")
	}
}

func TestMutateZeroRateIsCopy(t *testing.T) {
	topo := testTopology(t)
	rng := rand.New(rand.NewPCG(9, 9))
	g := RandomGenome(topo, rng, 1)

	child, avg := g.Mutate(rng, 0, 1)
	if avg != 0 {
		t.Errorf("avg delta = %v, want 0", avg)
	}
	for i := 0; i < g.Len(); i++ {
		if child.Weight(i) != g.Weight(i) {
			t.Fatalf("weight %d differs with rate 0", i)
		}
	}
}

func TestMutateClampsWeights(t *testing.T) {
	topo := testTopology(t)
	rng := rand.New(rand.NewPCG(11, 11))
	g := RandomGenome(topo, rng, 1)

	for i := 0; i < 20; i++ {
		g, _ = g.Mutate(rng, 1, 50)
	}
	for i := 0; i < g.Len(); i++ {
		if w := g.Weight(i); w > maxWeight || w < -maxWeight {
			t.Fatalf("weight %d = %v exceeds ±%v", i, w, maxWeight)
		}
	}
}

func TestReproduceDeterministic(t *testing.T) {
	topo := testTopology(t)
	seedRng := rand.New(rand.NewPCG(2, 2))
	a := RandomGenome(topo, seedRng, 1)
	b := RandomGenome(topo, seedRng, 1)

	c1, d1, err := Reproduce(a, b, rand.New(rand.NewPCG(100, 1)), 0.2, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	c2, d2, _ := Reproduce(a, b, rand.New(rand.NewPCG(100, 1)), 0.2, 0.1)
	if d1 <= 0 || d1 != d2 {
		t.Errorf("mutation deltas = %v, %v; want equal and positive", d1, d2)
	}
	if _, d, _ := Reproduce(a, b, rand.New(rand.NewPCG(100, 1)), 0, 0.1); d != 0 {
		t.Errorf("delta with rate 0 = %v, want 0", d)
	}
	for i := 0; i < c1.Len(); i++ {
		if c1.Weight(i) != c2.Weight(i) {
			t.Fatalf("weight %d differs between identical seeds", i)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	topo := testTopology(t)
	g := RandomGenome(topo, rand.New(rand.NewPCG(4, 4)), 1)

	rec := g.Record()
	back, err := FromRecord(topo, rec)
	if err != nil {
		t.Fatalf("FromRecord failed: %v", err)
	}
	for i := 0; i < g.Len(); i++ {
		if back.Weight(i) != g.Weight(i) {
			t.Fatalf("weight %d lost in round trip", i)
		}
	}

	rec.Weights = rec.Weights[:10]
	if _, err := FromRecord(topo, rec); !errors.Is(err, ErrMalformedGenome) {
		t.Errorf("truncated record: err = %v, want ErrMalformedGenome", err)
	}
}
