package systems

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/corgis/config"
)

func TestNewSelector(t *testing.T) {
	for _, name := range []string{config.PolicyTournament, config.PolicyFitnessProportional} {
		s, err := NewSelector(name, 3)
		if err != nil {
			t.Fatalf("NewSelector(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Name() = %q, want %q", s.Name(), name)
		}
	}
	if _, err := NewSelector("lottery", 3); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestSelectorsEmptyPool(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	for _, s := range []Selector{TournamentSelector{Size: 3}, FitnessProportionalSelector{}} {
		if _, err := s.Pick(rng, nil); !errors.Is(err, ErrEmptyPool) {
			t.Errorf("%s: err = %v, want ErrEmptyPool", s.Name(), err)
		}
	}
}

func TestTournamentPrefersFitter(t *testing.T) {
	pool := []Candidate{{ID: 1, Fitness: 1}, {ID: 2, Fitness: 100}, {ID: 3, Fitness: 2}, {ID: 4, Fitness: 3}}
	rng := rand.New(rand.NewPCG(3, 3))
	s := TournamentSelector{Size: 4}

	counts := make([]int, len(pool))
	for i := 0; i < 2000; i++ {
		idx, err := s.Pick(rng, pool)
		if err != nil {
			t.Fatal(err)
		}
		counts[idx]++
	}
	if counts[1] < counts[0] || counts[1] < 1000 {
		t.Errorf("fittest picked %d of 2000 times; counts=%v", counts[1], counts)
	}
}

func TestTournamentSingleton(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	idx, err := TournamentSelector{Size: 3}.Pick(rng, []Candidate{{ID: 9, Fitness: -4}})
	if err != nil || idx != 0 {
		t.Errorf("Pick = %d, %v; want 0, nil", idx, err)
	}
}

func TestFitnessProportionalSkipsNonPositive(t *testing.T) {
	pool := []Candidate{{ID: 1, Fitness: -5}, {ID: 2, Fitness: 0}, {ID: 3, Fitness: 10}}
	rng := rand.New(rand.NewPCG(7, 7))

	for i := 0; i < 500; i++ {
		idx, err := FitnessProportionalSelector{}.Pick(rng, pool)
		if err != nil {
			t.Fatal(err)
		}
		if idx != 2 {
			t.Fatalf("picked index %d with non-positive fitness", idx)
		}
	}
}

func TestFitnessProportionalUniformWhenAllZero(t *testing.T) {
	pool := []Candidate{{ID: 1}, {ID: 2}, {ID: 3}}
	rng := rand.New(rand.NewPCG(9, 9))

	seen := make(map[int]bool)
	for i := 0; i < 300; i++ {
		idx, _ := FitnessProportionalSelector{}.Pick(rng, pool)
		seen[idx] = true
	}
	if len(seen) != 3 {
		t.Errorf("uniform fallback reached %d of 3 candidates", len(seen))
	}
}

func TestSelectorsDeterministic(t *testing.T) {
	pool := []Candidate{{ID: 1, Fitness: 3}, {ID: 2, Fitness: 5}, {ID: 3, Fitness: 1}}
	for _, s := range []Selector{TournamentSelector{Size: 2}, FitnessProportionalSelector{}} {
		a, _ := s.Pick(KeyedRand(1, StreamSelection, 10, 4), pool)
		b, _ := s.Pick(KeyedRand(1, StreamSelection, 10, 4), pool)
		if a != b {
			t.Errorf("%s: same rng state picked %d and %d", s.Name(), a, b)
		}
	}
}
