package systems

import (
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/corgis/config"
	"github.com/pthm-cable/corgis/neural"
)

// BreedParams holds the genetic operator parameters.
type BreedParams struct {
	MutationRate  float32
	MutationSigma float32
	MassSigma     float32
	MinMass       float32
	MaxMass       float32
}

// BreedParamsFrom extracts breeding parameters from cfg.
func BreedParamsFrom(cfg *config.Config) BreedParams {
	return BreedParams{
		MutationRate:  float32(cfg.Mutation.Rate),
		MutationSigma: float32(cfg.Mutation.Sigma),
		MassSigma:     float32(cfg.Physique.MassSigma),
		MinMass:       float32(cfg.Physique.MinMass),
		MaxMass:       float32(cfg.Physique.MaxMass),
	}
}

// Parent is the heritable state of one parent.
type Parent struct {
	Genome *neural.Genome
	Mass   float32
}

// Offspring is the heritable state of a new corgi.
type Offspring struct {
	Genome        *neural.Genome
	Mass          float32
	MutationDelta float32 // Mean absolute weight change from mutation
}

// Breed produces a child by uniform crossover of the parents' genomes
// followed by Gaussian mutation. Child mass is the parents' mean plus
// Normal(0, MassSigma), clamped to the mass range. Passing the same parent
// twice is allowed and yields a mutated clone.
func Breed(a, b Parent, rng *rand.Rand, p BreedParams) (Offspring, error) {
	child, delta, err := neural.Reproduce(a.Genome, b.Genome, rng, p.MutationRate, p.MutationSigma)
	if err != nil {
		return Offspring{}, fmt.Errorf("breeding: %w", err)
	}

	mass := (a.Mass + b.Mass) / 2
	if p.MassSigma > 0 {
		mass += float32(rng.NormFloat64()) * p.MassSigma
	}
	mass = clampFloat(finite(mass), p.MinMass, p.MaxMass)

	return Offspring{Genome: child, Mass: mass, MutationDelta: delta}, nil
}
