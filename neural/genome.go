package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// ErrMalformedGenome is returned when a weight vector does not fit its topology.
var ErrMalformedGenome = errors.New("neural: malformed genome")

// ErrTopologyMismatch is returned when two parents have different shapes.
var ErrTopologyMismatch = errors.New("neural: topology mismatch")

// maxWeight bounds every weight after mutation.
const maxWeight = 8.0

// Genome is a flat weight vector bound to a shared topology.
// A Genome is immutable once constructed; operators always return new genomes.
type Genome struct {
	topo    *Topology
	weights []float32
}

// NewGenome validates weights against topo and takes ownership of the slice.
func NewGenome(topo *Topology, weights []float32) (*Genome, error) {
	if topo == nil {
		return nil, fmt.Errorf("%w: nil topology", ErrMalformedGenome)
	}
	if len(weights) != topo.ParamCount() {
		return nil, fmt.Errorf("%w: topology %s needs %d weights, got %d",
			ErrMalformedGenome, topo, topo.ParamCount(), len(weights))
	}
	for i, w := range weights {
		if math.IsNaN(float64(w)) || math.IsInf(float64(w), 0) {
			return nil, fmt.Errorf("%w: weight %d is not finite", ErrMalformedGenome, i)
		}
	}
	return &Genome{topo: topo, weights: weights}, nil
}

// RandomGenome creates a genome with Xavier-initialised weights and zero biases.
func RandomGenome(topo *Topology, rng *rand.Rand, scale float32) *Genome {
	weights := make([]float32, topo.ParamCount())
	for l := 0; l < topo.NumLayers(); l++ {
		in, out, wOff, _ := topo.Layer(l)
		std := float32(math.Sqrt(2.0/float64(in))) * scale
		for i := 0; i < in*out; i++ {
			weights[wOff+i] = clampWeight(float32(rng.NormFloat64()) * std)
		}
	}
	return &Genome{topo: topo, weights: weights}
}

// Topology returns the shared topology.
func (g *Genome) Topology() *Topology { return g.topo }

// Len returns the number of weights.
func (g *Genome) Len() int { return len(g.weights) }

// Weight returns weight i.
func (g *Genome) Weight(i int) float32 { return g.weights[i] }

// Weights returns a copy of the weight vector.
func (g *Genome) Weights() []float32 { return slices.Clone(g.weights) }

// Crossover performs uniform crossover: every index comes from a or b by an
// independent coin flip.
func Crossover(a, b *Genome, rng *rand.Rand) (*Genome, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("cannot crossover nil genomes")
	}
	if !a.topo.Equal(b.topo) {
		return nil, fmt.Errorf("%w: %s vs %s", ErrTopologyMismatch, a.topo, b.topo)
	}

	child := make([]float32, len(a.weights))
	for i := range child {
		if rng.Float32() < 0.5 {
			child[i] = a.weights[i]
		} else {
			child[i] = b.weights[i]
		}
	}
	return &Genome{topo: a.topo, weights: child}, nil
}

// Mutate returns a copy of g where each weight is perturbed with probability
// rate by Normal(0, sigma). Also returns the mean absolute applied delta.
func (g *Genome) Mutate(rng *rand.Rand, rate, sigma float32) (*Genome, float32) {
	out := slices.Clone(g.weights)
	if rate <= 0 || sigma <= 0 {
		return &Genome{topo: g.topo, weights: out}, 0
	}

	var totalDelta float32
	var count int
	for i := range out {
		if rng.Float32() >= rate {
			continue
		}
		delta := float32(rng.NormFloat64()) * sigma
		out[i] = clampWeight(out[i] + delta)
		totalDelta += abs32(delta)
		count++
	}

	if count == 0 {
		return &Genome{topo: g.topo, weights: out}, 0
	}
	return &Genome{topo: g.topo, weights: out}, totalDelta / float32(count)
}

// Reproduce is crossover followed by mutation. It also returns the mean
// absolute mutation delta (0 if no weight mutated).
func Reproduce(a, b *Genome, rng *rand.Rand, rate, sigma float32) (*Genome, float32, error) {
	child, err := Crossover(a, b, rng)
	if err != nil {
		return nil, 0, err
	}
	child, delta := child.Mutate(rng, rate, sigma)
	return child, delta, nil
}

// clampWeight clamps a connection weight to the valid range.
func clampWeight(w float32) float32 {
	if w > maxWeight {
		return maxWeight
	}
	if w < -maxWeight {
		return -maxWeight
	}
	return w
}

// abs32 returns the absolute value of x.
func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// GenomeRecord is the serialisable form of a genome.
type GenomeRecord struct {
	Topology TopologySpec `json:"topology"`
	Weights  []float32    `json:"weights"`
}

// Record flattens the genome for serialisation.
func (g *Genome) Record() GenomeRecord {
	return GenomeRecord{Topology: g.topo.Spec(), Weights: slices.Clone(g.weights)}
}

// FromRecord rebuilds a genome on topo, which must match the recorded shape.
func FromRecord(topo *Topology, rec GenomeRecord) (*Genome, error) {
	recTopo, err := NewTopology(rec.Topology)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGenome, err)
	}
	if !topo.Equal(recTopo) {
		return nil, fmt.Errorf("%w: record %s, run %s", ErrTopologyMismatch, recTopo, topo)
	}
	return NewGenome(topo, slices.Clone(rec.Weights))
}
