package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/pthm-cable/corgis/telemetry"
)

// MemoryStore keeps everything in process memory. Snapshots are stored in
// encoded form so callers cannot alias saved state.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]RunInfo
	stats       map[string][]telemetry.WindowStats
	events      map[string][]telemetry.Event
	snapshots   map[string][]byte
	snapTicks   map[string]int32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]RunInfo)
	s.stats = make(map[string][]telemetry.WindowStats)
	s.events = make(map[string][]telemetry.Event)
	s.snapshots = make(map[string][]byte)
	s.snapTicks = make(map[string]int32)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run RunInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (RunInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return RunInfo{}, false, ErrNotInitialized
	}

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) AppendStats(_ context.Context, runID string, stats telemetry.WindowStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.stats[runID] = append(s.stats[runID], stats)
	return nil
}

func (s *MemoryStore) ListStats(_ context.Context, runID string) ([]telemetry.WindowStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}

	return slices.Clone(s.stats[runID]), nil
}

func (s *MemoryStore) AppendEvents(_ context.Context, runID string, events []telemetry.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.events[runID] = append(s.events[runID], events...)
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, runID string, typ telemetry.EventType) ([]telemetry.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}

	var out []telemetry.Event
	for _, ev := range s.events[runID] {
		if typ == "" || ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, runID string, snapshot *telemetry.Snapshot) error {
	data, err := telemetry.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	// Keep only the highest tick, matching the SQL ordering.
	if prev, ok := s.snapTicks[runID]; ok && prev > snapshot.Tick {
		return nil
	}
	s.snapshots[runID] = data
	s.snapTicks[runID] = snapshot.Tick
	return nil
}

func (s *MemoryStore) LatestSnapshot(_ context.Context, runID string) (*telemetry.Snapshot, bool, error) {
	s.mu.RLock()
	data, ok := s.snapshots[runID]
	initialized := s.initialized
	s.mu.RUnlock()
	if !initialized {
		return nil, false, ErrNotInitialized
	}
	if !ok {
		return nil, false, nil
	}

	snap, err := telemetry.UnmarshalSnapshot(data)
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
