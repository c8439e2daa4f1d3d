package neural

// Scratch holds the ping-pong layer buffers used by EvaluateInto.
// One Scratch per goroutine; it is not safe for concurrent use.
type Scratch struct {
	a, b []float32
}

// NewScratch allocates buffers wide enough for any layer of topo.
func NewScratch(topo *Topology) *Scratch {
	return &Scratch{
		a: make([]float32, topo.maxWidth),
		b: make([]float32, topo.maxWidth),
	}
}

// Evaluate runs the network on inputs and returns a freshly allocated output
// vector. Every output lies in [-1, 1] for any input, including NaN.
func (g *Genome) Evaluate(inputs []float32) []float32 {
	s := NewScratch(g.topo)
	out := make([]float32, g.topo.OutputSize())
	copy(out, g.EvaluateInto(inputs, s))
	return out
}

// EvaluateInto runs the network using s for intermediate storage.
// The returned slice aliases s and is valid until the next call with s.
// Panics if len(inputs) differs from the topology input size.
func (g *Genome) EvaluateInto(inputs []float32, s *Scratch) []float32 {
	topo := g.topo
	if len(inputs) != topo.InputSize() {
		panic("neural: input length does not match topology")
	}
	if len(s.a) < topo.maxWidth {
		*s = *NewScratch(topo)
	}

	cur := s.a[:topo.InputSize()]
	copy(cur, inputs)
	next := s.b

	for _, l := range topo.layers {
		y := next[:l.out]
		g.dense(l, cur, y)
		cur, next = y, cur[:cap(cur)]
	}

	return cur
}

// dense computes y = tanh(W*x + b) for one layer. Sums run in a fixed
// index order so results never depend on buffer placement.
func (g *Genome) dense(l layerSpan, x, y []float32) {
	w := g.weights[l.weightOff:l.biasOff]
	b := g.weights[l.biasOff : l.biasOff+l.out]
	for o := range y {
		row := w[o*l.in : (o+1)*l.in]
		sum := b[o]
		for i, xi := range x {
			sum += row[i] * xi
		}
		y[o] = tanh(sum)
	}
}

// Activations holds captured intermediate layer values.
type Activations struct {
	Inputs  []float32
	Layers  [][]float32 // One entry per dense layer, after activation
	Outputs []float32
}

// EvaluateWithCapture runs the network and records every layer's activations.
func (g *Genome) EvaluateWithCapture(inputs []float32) ([]float32, *Activations) {
	act := &Activations{
		Inputs: append([]float32(nil), inputs...),
		Layers: make([][]float32, 0, g.topo.NumLayers()),
	}

	cur := act.Inputs
	for _, l := range g.topo.layers {
		y := make([]float32, l.out)
		g.dense(l, cur, y)
		act.Layers = append(act.Layers, y)
		cur = y
	}

	act.Outputs = append([]float32(nil), cur...)
	return act.Outputs, act
}

// tanh uses a fast rational approximation avoiding float64 conversion.
// The approximation overshoots slightly above |x|=3, so the result is clamped.
// NaN maps to 0 so a saturated or poisoned sum can never leave [-1, 1].
func tanh(x float32) float32 {
	if x != x {
		return 0
	}
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	y := x * (27 + x2) / (27 + 9*x2)
	if y > 1 {
		return 1
	}
	if y < -1 {
		return -1
	}
	return y
}
