package neural

import "github.com/pthm-cable/corgis/config"

// TopologyFromConfig builds the run topology. The input size always follows
// the perception channel layout; hidden and output sizes come from cfg.
func TopologyFromConfig(cfg *config.Config) (*Topology, error) {
	return NewTopology(TopologySpec{
		InputSize:    BrainInputs,
		HiddenLayers: cfg.Neural.HiddenLayers,
		OutputSize:   cfg.Neural.OutputSize,
	})
}
