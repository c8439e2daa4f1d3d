// Package neural provides the fixed-topology feedforward brains and the
// genetic operators that evolve their weights.
package neural

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidTopology is returned when a topology has a non-positive layer size.
var ErrInvalidTopology = errors.New("neural: invalid topology")

// TopologySpec is the serialisable description of a network shape.
type TopologySpec struct {
	InputSize    int   `json:"input_size" yaml:"input_size"`
	HiddenLayers []int `json:"hidden_layers" yaml:"hidden_layers"`
	OutputSize   int   `json:"output_size" yaml:"output_size"`
}

// layerSpan locates one dense layer inside the flat weight vector.
// Weights are row-major (out x in) followed by out biases.
type layerSpan struct {
	in, out   int
	weightOff int
	biasOff   int
}

// Topology is an immutable network shape shared by every genome of a run.
type Topology struct {
	spec       TopologySpec
	layers     []layerSpan
	paramCount int
	maxWidth   int
}

// NewTopology validates spec and precomputes the layer offsets.
func NewTopology(spec TopologySpec) (*Topology, error) {
	if spec.InputSize <= 0 || spec.OutputSize <= 0 {
		return nil, fmt.Errorf("%w: input %d, output %d", ErrInvalidTopology, spec.InputSize, spec.OutputSize)
	}
	for i, n := range spec.HiddenLayers {
		if n <= 0 {
			return nil, fmt.Errorf("%w: hidden layer %d has size %d", ErrInvalidTopology, i, n)
		}
	}

	t := &Topology{
		spec: TopologySpec{
			InputSize:    spec.InputSize,
			HiddenLayers: slices.Clone(spec.HiddenLayers),
			OutputSize:   spec.OutputSize,
		},
		maxWidth: spec.InputSize,
	}

	sizes := make([]int, 0, len(spec.HiddenLayers)+2)
	sizes = append(sizes, spec.InputSize)
	sizes = append(sizes, spec.HiddenLayers...)
	sizes = append(sizes, spec.OutputSize)

	off := 0
	for i := 1; i < len(sizes); i++ {
		in, out := sizes[i-1], sizes[i]
		t.layers = append(t.layers, layerSpan{
			in:        in,
			out:       out,
			weightOff: off,
			biasOff:   off + in*out,
		})
		off += in*out + out
		if out > t.maxWidth {
			t.maxWidth = out
		}
	}
	t.paramCount = off

	return t, nil
}

// MustTopology is like NewTopology but panics on error.
func MustTopology(spec TopologySpec) *Topology {
	t, err := NewTopology(spec)
	if err != nil {
		panic(err)
	}
	return t
}

// Spec returns a copy of the topology description.
func (t *Topology) Spec() TopologySpec {
	return TopologySpec{
		InputSize:    t.spec.InputSize,
		HiddenLayers: slices.Clone(t.spec.HiddenLayers),
		OutputSize:   t.spec.OutputSize,
	}
}

// InputSize returns the number of network inputs.
func (t *Topology) InputSize() int { return t.spec.InputSize }

// OutputSize returns the number of network outputs.
func (t *Topology) OutputSize() int { return t.spec.OutputSize }

// NumLayers returns the number of dense layers (hidden layers + output layer).
func (t *Topology) NumLayers() int { return len(t.layers) }

// ParamCount returns the required genome length.
func (t *Topology) ParamCount() int { return t.paramCount }

// Layer returns the shape and weight/bias offsets of dense layer i.
func (t *Topology) Layer(i int) (in, out, weightOff, biasOff int) {
	l := t.layers[i]
	return l.in, l.out, l.weightOff, l.biasOff
}

// Equal reports whether two topologies describe the same shape.
func (t *Topology) Equal(o *Topology) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return t.spec.InputSize == o.spec.InputSize &&
		t.spec.OutputSize == o.spec.OutputSize &&
		slices.Equal(t.spec.HiddenLayers, o.spec.HiddenLayers)
}

// String implements fmt.Stringer, e.g. "8-8-3".
func (t *Topology) String() string {
	s := fmt.Sprintf("%d", t.spec.InputSize)
	for _, h := range t.spec.HiddenLayers {
		s += fmt.Sprintf("-%d", h)
	}
	return s + fmt.Sprintf("-%d", t.spec.OutputSize)
}
