package neural

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func testTopology(t *testing.T) *Topology {
	t.Helper()
	topo, err := NewTopology(TopologySpec{InputSize: 8, HiddenLayers: []int{6, 4}, OutputSize: 3})
	if err != nil {
		t.Fatalf("NewTopology failed: %v", err)
	}
	return topo
}

func TestTopologyParamCount(t *testing.T) {
	topo := testTopology(t)
	// (8*6+6) + (6*4+4) + (4*3+3)
	want := 54 + 28 + 15
	if got := topo.ParamCount(); got != want {
		t.Errorf("ParamCount = %d, want %d", got, want)
	}
	if topo.String() != "8-6-4-3" {
		t.Errorf("String = %q, want 8-6-4-3", topo.String())
	}

	in, out, wOff, bOff := topo.Layer(1)
	if in != 6 || out != 4 || wOff != 54 || bOff != 54+24 {
		t.Errorf("Layer(1) = (%d,%d,%d,%d), want (6,4,54,78)", in, out, wOff, bOff)
	}
}

func TestTopologyNoHidden(t *testing.T) {
	topo := MustTopology(TopologySpec{InputSize: 2, OutputSize: 3})
	if topo.ParamCount() != 2*3+3 {
		t.Errorf("ParamCount = %d, want 9", topo.ParamCount())
	}
}

func TestTopologyInvalid(t *testing.T) {
	_, err := NewTopology(TopologySpec{InputSize: 4, HiddenLayers: []int{3, 0}, OutputSize: 3})
	if !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("err = %v, want ErrInvalidTopology", err)
	}
}

func TestNewGenomeMalformed(t *testing.T) {
	topo := testTopology(t)

	if _, err := NewGenome(topo, make([]float32, topo.ParamCount()-1)); !errors.Is(err, ErrMalformedGenome) {
		t.Errorf("short genome: err = %v, want ErrMalformedGenome", err)
	}
	if _, err := NewGenome(topo, make([]float32, topo.ParamCount()+1)); !errors.Is(err, ErrMalformedGenome) {
		t.Errorf("long genome: err = %v, want ErrMalformedGenome", err)
	}

	w := make([]float32, topo.ParamCount())
	w[3] = float32(math.NaN())
	if _, err := NewGenome(topo, w); !errors.Is(err, ErrMalformedGenome) {
		t.Errorf("NaN weight: err = %v, want ErrMalformedGenome", err)
	}

	if _, err := NewGenome(topo, make([]float32, topo.ParamCount())); err != nil {
		t.Errorf("valid genome rejected: %v", err)
	}
}

func TestEvaluateBounded(t *testing.T) {
	topo := testTopology(t)
	rng := rand.New(rand.NewPCG(42, 0))

	inputs := [][]float32{
		make([]float32, 8),
		{1, 1, 1, 1, 1, 1, 1, 1},
		{1e30, -1e30, 1e30, -1e30, 1e30, -1e30, 1e30, -1e30},
		{float32(math.NaN()), 0, 0, 0, 0, 0, 0, 0},
		{float32(math.Inf(1)), float32(math.Inf(-1)), 0, 0, 0, 0, 0, 0},
	}

	for trial := 0; trial < 50; trial++ {
		g := RandomGenome(topo, rng, 4)
		for _, in := range inputs {
			out := g.Evaluate(in)
			if len(out) != 3 {
				t.Fatalf("output length %d, want 3", len(out))
			}
			for i, v := range out {
				if !(v >= -1 && v <= 1) {
					t.Errorf("trial %d: output[%d] = %v out of [-1,1]", trial, i, v)
				}
			}
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	topo := testTopology(t)
	g := RandomGenome(topo, rand.New(rand.NewPCG(1, 2)), 1)

	inputs := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	out1 := g.Evaluate(inputs)

	s := NewScratch(topo)
	for i := 0; i < 3; i++ {
		out2 := g.EvaluateInto(inputs, s)
		for j := range out1 {
			if out1[j] != out2[j] {
				t.Fatalf("call %d: output[%d] = %v, want %v", i, j, out2[j], out1[j])
			}
		}
	}

	captured, act := g.EvaluateWithCapture(inputs)
	for j := range out1 {
		if captured[j] != out1[j] {
			t.Errorf("capture output[%d] = %v, want %v", j, captured[j], out1[j])
		}
	}
	if len(act.Layers) != topo.NumLayers() {
		t.Errorf("captured %d layers, want %d", len(act.Layers), topo.NumLayers())
	}
}

func TestEvaluateBiasOnly(t *testing.T) {
	topo := testTopology(t)
	w := make([]float32, topo.ParamCount())
	// Output layer bias for slot 2
	_, _, _, bOff := topo.Layer(topo.NumLayers() - 1)
	w[bOff+2] = 3

	g, err := NewGenome(topo, w)
	if err != nil {
		t.Fatal(err)
	}
	out := g.Evaluate([]float32{1, 1, 1, 1, 1, 1, 1, 1})
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("movement outputs = (%v,%v), want 0", out[0], out[1])
	}
	if out[2] < 0.99 {
		t.Errorf("claim output = %v, want ~1", out[2])
	}
}

func TestEvaluateInputLengthPanics(t *testing.T) {
	topo := testTopology(t)
	g := RandomGenome(topo, rand.New(rand.NewPCG(3, 3)), 1)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on short input")
		}
	}()
	g.Evaluate(make([]float32, 5))
}

func TestTanhRange(t *testing.T) {
	for x := float32(-10); x <= 10; x += 0.01 {
		y := tanh(x)
		if y < -1 || y > 1 {
			t.Fatalf("tanh(%v) = %v out of range", x, y)
		}
	}
	if tanh(float32(math.NaN())) != 0 {
		t.Error("tanh(NaN) should be 0")
	}
}

func BenchmarkEvaluateInto(b *testing.B) {
	topo := MustTopology(TopologySpec{InputSize: 8, HiddenLayers: []int{16}, OutputSize: 3})
	g := RandomGenome(topo, rand.New(rand.NewPCG(1, 1)), 1)
	s := NewScratch(topo)
	inputs := []float32{0.5, 0.2, 0.1, 0.9, 0, 0.3, 0.4, 0.7}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		g.EvaluateInto(inputs, s)
	}
}

func TestCaptureMatchesEvaluateBitwise(t *testing.T) {
	topo := testTopology(t)
	rng := rand.New(rand.NewPCG(7, 11))

	// Offset backing array so the input starts at a different address class
	backing := make([]float32, topo.InputSize()+1)
	shifted := backing[1:]

	s := NewScratch(topo)
	for trial := 0; trial < 50; trial++ {
		g := RandomGenome(topo, rng, 1.5)
		inputs := make([]float32, topo.InputSize())
		for i := range inputs {
			inputs[i] = rng.Float32()*2 - 1
		}
		copy(shifted, inputs)

		want := g.Evaluate(inputs)
		captured, _ := g.EvaluateWithCapture(inputs)
		viaScratch := g.EvaluateInto(shifted, s)
		for j := range want {
			if math.Float32bits(captured[j]) != math.Float32bits(want[j]) {
				t.Fatalf("trial %d: capture output[%d] = %v, want %v", trial, j, captured[j], want[j])
			}
			if math.Float32bits(viaScratch[j]) != math.Float32bits(want[j]) {
				t.Fatalf("trial %d: shifted input output[%d] = %v, want %v", trial, j, viaScratch[j], want[j])
			}
		}
	}
}
