package neural

import (
	"testing"

	"github.com/pthm-cable/corgis/config"
)

func TestToInputsOrder(t *testing.T) {
	s := SensoryInputs{
		Energy: 0.1, Mass: 0.2,
		TileNeutral: 0, TileOwn: 1, TileEnemy: 0,
		Frontier: 0.5, Allies: 0.6, Enemies: 0.7,
	}
	buf := make([]float32, 16)
	in := s.ToInputs(buf)

	if len(in) != BrainInputs {
		t.Fatalf("len = %d, want %d", len(in), BrainInputs)
	}
	want := []float32{0.1, 0.2, 0, 1, 0, 0.5, 0.6, 0.7}
	for i := range want {
		if in[i] != want[i] {
			t.Errorf("input[%d] = %v, want %v", i, in[i], want[i])
		}
	}
}

func TestDescriptorsMatchLayout(t *testing.T) {
	if len(BrainInputDescriptors()) != BrainInputs {
		t.Errorf("%d input descriptors, want %d", len(BrainInputDescriptors()), BrainInputs)
	}
	if len(BrainOutputDescriptors()) != BrainOutputs {
		t.Errorf("%d output descriptors, want %d", len(BrainOutputDescriptors()), BrainOutputs)
	}
	if d, ok := InputByID("frontier"); !ok || d.Group != "territory" {
		t.Errorf("InputByID(frontier) = %+v, %v", d, ok)
	}
	if _, ok := OutputByID("bite"); ok {
		t.Error("OutputByID(bite) should not exist")
	}
}

func TestTopologyFromConfig(t *testing.T) {
	cfg := config.Defaults()
	topo, err := TopologyFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if topo.InputSize() != BrainInputs {
		t.Errorf("input size = %d, want %d", topo.InputSize(), BrainInputs)
	}
	if topo.OutputSize() != cfg.Neural.OutputSize {
		t.Errorf("output size = %d, want %d", topo.OutputSize(), cfg.Neural.OutputSize)
	}
	if config.MinOutputs != BrainOutputs {
		t.Errorf("config.MinOutputs = %d, want %d", config.MinOutputs, BrainOutputs)
	}
}
