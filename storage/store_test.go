package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/corgis/telemetry"
	"github.com/pthm-cable/corgis/territory"
)

// exerciseStore runs the same round trips against any backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	started := time.Unix(1700000000, 0).UTC()
	run := RunInfo{ID: "run-1", Seed: 42, StartedAt: started, ConfigYAML: "world:\n  width: 8\n"}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if got.Seed != 42 || got.ConfigYAML != run.ConfigYAML || !got.StartedAt.Equal(started) {
		t.Fatalf("unexpected run: %+v", got)
	}
	if _, ok, err := store.GetRun(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing run: ok=%v err=%v", ok, err)
	}

	for _, end := range []int32{600, 1200} {
		if err := store.AppendStats(ctx, "run-1", telemetry.WindowStats{WindowEndTick: end, Population: int(end / 100), BlueShare: 0.25}); err != nil {
			t.Fatalf("append stats: %v", err)
		}
	}
	stats, err := store.ListStats(ctx, "run-1")
	if err != nil {
		t.Fatalf("list stats: %v", err)
	}
	if len(stats) != 2 || stats[1].WindowEndTick != 1200 || stats[1].Population != 12 || stats[0].BlueShare != 0.25 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	events := []telemetry.Event{
		telemetry.NewBirthEvent(5, 11, territory.TeamB, 3, 4),
		telemetry.NewDeathEvent(6, 3, territory.TeamB, -0.5),
		telemetry.NewBirthEvent(7, 12, territory.TeamA, 0, 0),
	}
	if err := store.AppendEvents(ctx, "run-1", events); err != nil {
		t.Fatalf("append events: %v", err)
	}
	births, err := store.ListEvents(ctx, "run-1", telemetry.EventBirth)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(births) != 2 || births[0].EntityID != 11 || births[0].ParentB != 4 || births[0].Team != territory.TeamB {
		t.Fatalf("unexpected births: %+v", births)
	}
	all, _ := store.ListEvents(ctx, "run-1", "")
	if len(all) != 3 || all[1].Amount != -0.5 {
		t.Fatalf("unexpected events: %+v", all)
	}

	if _, ok, err := store.LatestSnapshot(ctx, "run-1"); ok || err != nil {
		t.Fatalf("snapshot before save: ok=%v err=%v", ok, err)
	}
	for _, tick := range []int32{100, 300, 200} {
		snap := &telemetry.Snapshot{Version: telemetry.SnapshotVersion, Seed: 42, Tick: tick, NextID: uint32(tick)}
		if err := store.SaveSnapshot(ctx, "run-1", snap); err != nil {
			t.Fatalf("save snapshot: %v", err)
		}
	}
	snap, ok, err := store.LatestSnapshot(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("latest snapshot: ok=%v err=%v", ok, err)
	}
	if snap.Tick != 300 || snap.NextID != 300 {
		t.Fatalf("latest snapshot tick = %d, want 300", snap.Tick)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseStore(t, store)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "corgis.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	for _, store := range []Store{NewMemoryStore(), NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))} {
		if err := store.SaveRun(ctx, RunInfo{ID: "r"}); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("%T: err = %v, want ErrNotInitialized", store, err)
		}
	}
}

func TestNewStore(t *testing.T) {
	if s, err := NewStore("", ""); err != nil {
		t.Fatalf("default backend: %v", err)
	} else if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("default backend = %T, want *MemoryStore", s)
	}
	if s, err := NewStore(BackendSQLite, "run.db"); err != nil {
		t.Fatalf("sqlite backend: %v", err)
	} else if _, ok := s.(*SQLiteStore); !ok {
		t.Fatalf("sqlite backend = %T", s)
	}
	if _, err := NewStore(BackendSQLite, ""); err == nil {
		t.Fatal("sqlite without path should fail")
	}
	if _, err := NewStore("postgres", ""); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

func TestSQLiteStorePragmas(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	db, err := store.getDB()
	if err != nil {
		t.Fatal(err)
	}
	var mode string
	if err := db.GetContext(ctx, &mode, "PRAGMA journal_mode"); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	var timeout int
	if err := db.GetContext(ctx, &timeout, "PRAGMA busy_timeout"); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}
