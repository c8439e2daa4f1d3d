package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.World.Width != 64 || cfg.World.Height != 48 {
		t.Errorf("world = %dx%d, want 64x48", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Selection.Policy != PolicyTournament {
		t.Errorf("policy = %q, want %q", cfg.Selection.Policy, PolicyTournament)
	}
	if cfg.Derived.WorldW32 != 64 {
		t.Errorf("derived world width = %v, want 64", cfg.Derived.WorldW32)
	}
	if cfg.Derived.Hysteresis != cfg.Death.HysteresisTicks {
		t.Errorf("derived hysteresis = %d, want %d", cfg.Derived.Hysteresis, cfg.Death.HysteresisTicks)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	data := "mutation:\n  sigma: 0.5\nneural:\n  hidden_layers: [4, 4]\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mutation.Sigma != 0.5 {
		t.Errorf("sigma = %v, want 0.5", cfg.Mutation.Sigma)
	}
	// Untouched fields keep their defaults
	if cfg.Mutation.Rate != 0.1 {
		t.Errorf("rate = %v, want default 0.1", cfg.Mutation.Rate)
	}
	if len(cfg.Neural.HiddenLayers) != 2 {
		t.Errorf("hidden layers = %v, want [4 4]", cfg.Neural.HiddenLayers)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad policy", func(c *Config) { c.Selection.Policy = "lottery" }, "selection.policy"},
		{"few outputs", func(c *Config) { c.Neural.OutputSize = 2 }, "output_size"},
		{"empty world", func(c *Config) { c.World.Width = 0 }, "world size"},
		{"rate above one", func(c *Config) { c.Mutation.Rate = 1.5 }, "mutation.rate"},
		{"zero hidden", func(c *Config) { c.Neural.HiddenLayers = []int{0} }, "hidden_layers[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateAllowsUnlimitedCap(t *testing.T) {
	cfg := Defaults()
	cfg.Population.Cap = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("cap 0 rejected: %v", err)
	}
	cfg.Population.Initial = -1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "population.initial") {
		t.Errorf("negative initial population: err = %v", err)
	}
}

func TestCloneIndependent(t *testing.T) {
	cfg := Defaults()
	cp := cfg.Clone()
	cp.Neural.HiddenLayers[0] = 99
	if cfg.Neural.HiddenLayers[0] == 99 {
		t.Error("Clone shares hidden layer slice with original")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Mutation.Sigma = 0.33
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Mutation.Sigma != 0.33 {
		t.Errorf("sigma = %v, want 0.33", loaded.Mutation.Sigma)
	}
}
