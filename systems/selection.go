package systems

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/corgis/config"
)

// ErrEmptyPool is returned when a selector is asked to pick from no candidates.
var ErrEmptyPool = errors.New("systems: empty selection pool")

// Candidate is a living corgi eligible as a parent. Fitness is current energy.
type Candidate struct {
	ID      uint32
	Fitness float32
}

// Selector picks a parent index from a candidate pool.
// Implementations must be deterministic for a given rng state and pool order.
type Selector interface {
	Name() string
	Pick(rng *rand.Rand, pool []Candidate) (int, error)
}

// NewSelector returns the selector for a configured policy name.
func NewSelector(policy string, tournamentSize int) (Selector, error) {
	switch policy {
	case config.PolicyTournament:
		return TournamentSelector{Size: tournamentSize}, nil
	case config.PolicyFitnessProportional:
		return FitnessProportionalSelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selection policy %q", policy)
	}
}

// TournamentSelector samples Size candidates with replacement and keeps the
// fittest. Ties keep the earliest sample.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return config.PolicyTournament
}

func (s TournamentSelector) Pick(rng *rand.Rand, pool []Candidate) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(pool) == 0 {
		return 0, ErrEmptyPool
	}

	size := s.Size
	if size <= 0 {
		size = 3
	}

	best := rng.IntN(len(pool))
	for i := 1; i < size; i++ {
		c := rng.IntN(len(pool))
		if pool[c].Fitness > pool[best].Fitness {
			best = c
		}
	}
	return best, nil
}

// FitnessProportionalSelector is roulette-wheel selection over max(fitness, 0).
// If no candidate has positive fitness it picks uniformly.
type FitnessProportionalSelector struct{}

func (FitnessProportionalSelector) Name() string {
	return config.PolicyFitnessProportional
}

func (FitnessProportionalSelector) Pick(rng *rand.Rand, pool []Candidate) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(pool) == 0 {
		return 0, ErrEmptyPool
	}

	var total float64
	for _, c := range pool {
		if c.Fitness > 0 {
			total += float64(c.Fitness)
		}
	}
	if !(total > 0) {
		return rng.IntN(len(pool)), nil
	}

	r := rng.Float64() * total
	last := 0
	for i, c := range pool {
		if !(c.Fitness > 0) {
			continue
		}
		last = i
		r -= float64(c.Fitness)
		if r < 0 {
			return i, nil
		}
	}
	// Rounding left r marginally non-negative
	return last, nil
}
