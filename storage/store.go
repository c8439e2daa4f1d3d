// Package storage persists runs, telemetry windows, events and snapshots.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pthm-cable/corgis/telemetry"
)

// ErrNotInitialized is returned when a store is used before Init.
var ErrNotInitialized = errors.New("storage: store is not initialized")

// RunInfo describes one simulation run.
type RunInfo struct {
	ID         string    `db:"id"`
	Seed       int64     `db:"seed"`
	StartedAt  time.Time `db:"started_at"`
	ConfigYAML string    `db:"config_yaml"`
}

// Store defines persistence operations for a simulation run.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunInfo) error
	GetRun(ctx context.Context, id string) (RunInfo, bool, error)
	AppendStats(ctx context.Context, runID string, stats telemetry.WindowStats) error
	ListStats(ctx context.Context, runID string) ([]telemetry.WindowStats, error)
	AppendEvents(ctx context.Context, runID string, events []telemetry.Event) error
	ListEvents(ctx context.Context, runID string, typ telemetry.EventType) ([]telemetry.Event, error)
	SaveSnapshot(ctx context.Context, runID string, snapshot *telemetry.Snapshot) error
	LatestSnapshot(ctx context.Context, runID string) (*telemetry.Snapshot, bool, error)
	Close() error
}
