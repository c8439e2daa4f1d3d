package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/corgis/neural"
	"github.com/pthm-cable/corgis/territory"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when loading a snapshot written by an
// incompatible format version.
var ErrSnapshotVersion = errors.New("telemetry: unsupported snapshot version")

// Snapshot holds the complete simulation state for resuming a run.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	Seed    int64  `json:"seed"`

	Tick   int32  `json:"tick"`
	NextID uint32 `json:"next_id"`

	Topology neural.TopologySpec `json:"topology"`
	Grid     territory.Record    `json:"grid"`

	Corgis []CorgiRecord `json:"corgis"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// CorgiRecord holds one corgi's complete state.
type CorgiRecord struct {
	ID         uint32         `json:"id"`
	Team       territory.Team `json:"team"`
	Generation uint32         `json:"generation"`
	ParentA    uint32         `json:"parent_a,omitempty"`
	ParentB    uint32         `json:"parent_b,omitempty"`

	// Position and movement
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	VelX float32 `json:"vel_x"`
	VelY float32 `json:"vel_y"`

	// Physique and vitals
	Energy         float32 `json:"energy"`
	Mass           float32 `json:"mass"`
	Age            int32   `json:"age"`
	LowEnergyTicks int32   `json:"low_energy_ticks"`
	ReproCooldown  int32   `json:"repro_cooldown"`

	Genome neural.GenomeRecord `json:"genome"`

	Lifetime *LifetimeStats `json:"lifetime,omitempty"`
}

// SnapshotFilename returns the file name used for a snapshot.
func SnapshotFilename(snapshot *Snapshot) string {
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	return name + ".json"
}

// MarshalSnapshot encodes a snapshot as indented JSON.
func MarshalSnapshot(snapshot *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes and version-checks a snapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, snapshot.Version)
	}
	return &snapshot, nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := MarshalSnapshot(snapshot)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, SnapshotFilename(snapshot))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return UnmarshalSnapshot(data)
}
