package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/corgis/telemetry"
)

// SQLiteStore persists runs in a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sqlx.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sqlx.Open("sqlite", s.path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	s.db = db
	return nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stats_history (
		run_id TEXT NOT NULL,
		window_end INTEGER NOT NULL,
		population INTEGER NOT NULL,
		blue_share REAL NOT NULL,
		red_share REAL NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (run_id, window_end)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		type TEXT NOT NULL,
		tick INTEGER NOT NULL,
		entity_id INTEGER NOT NULL,
		team INTEGER NOT NULL,
		parent_a INTEGER NOT NULL DEFAULT 0,
		parent_b INTEGER NOT NULL DEFAULT 0,
		amount REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS events_run_type ON events (run_id, type);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (run_id, tick)
	);
	`)
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run RunInfo) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.NamedExecContext(ctx, `
		INSERT INTO runs (id, seed, started_at, config_yaml)
		VALUES (:id, :seed, :started_at, :config_yaml)
		ON CONFLICT(id) DO UPDATE SET
			seed = excluded.seed,
			started_at = excluded.started_at,
			config_yaml = excluded.config_yaml
	`, run)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (RunInfo, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return RunInfo{}, false, err
	}

	var run RunInfo
	err = db.GetContext(ctx, &run, `SELECT id, seed, started_at, config_yaml FROM runs WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunInfo{}, false, nil
		}
		return RunInfo{}, false, err
	}
	return run, true, nil
}

func (s *SQLiteStore) AppendStats(ctx context.Context, runID string, stats telemetry.WindowStats) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO stats_history (run_id, window_end, population, blue_share, red_share, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, window_end) DO UPDATE SET
			population = excluded.population,
			blue_share = excluded.blue_share,
			red_share = excluded.red_share,
			payload = excluded.payload
	`, runID, stats.WindowEndTick, stats.Population, stats.BlueShare, stats.RedShare, string(payload))
	return err
}

func (s *SQLiteStore) ListStats(ctx context.Context, runID string) ([]telemetry.WindowStats, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payloads []string
	if err := db.SelectContext(ctx, &payloads,
		`SELECT payload FROM stats_history WHERE run_id = ? ORDER BY window_end`, runID); err != nil {
		return nil, err
	}

	out := make([]telemetry.WindowStats, 0, len(payloads))
	for _, p := range payloads {
		var ws telemetry.WindowStats
		if err := json.Unmarshal([]byte(p), &ws); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
		out = append(out, ws)
	}
	return out, nil
}

// eventRow binds an event to its run for named inserts.
type eventRow struct {
	RunID string `db:"run_id"`
	telemetry.Event
}

func (s *SQLiteStore) AppendEvents(ctx context.Context, runID string, events []telemetry.Event) error {
	if len(events) == 0 {
		return nil
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO events (run_id, type, tick, entity_id, team, parent_a, parent_b, amount)
		VALUES (:run_id, :type, :tick, :entity_id, :team, :parent_a, :parent_b, :amount)
	`)
	if err != nil {
		return fmt.Errorf("prepare events: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, eventRow{RunID: runID, Event: ev}); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListEvents(ctx context.Context, runID string, typ telemetry.EventType) ([]telemetry.Event, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT type, tick, entity_id, team, parent_a, parent_b, amount FROM events WHERE run_id = ?`
	args := []any{runID}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY id`

	var out []telemetry.Event
	if err := db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, runID string, snapshot *telemetry.Snapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := telemetry.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, tick, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, tick) DO UPDATE SET payload = excluded.payload
	`, runID, snapshot.Tick, payload)
	return err
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, runID string) (*telemetry.Snapshot, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.GetContext(ctx, &payload,
		`SELECT payload FROM snapshots WHERE run_id = ? ORDER BY tick DESC LIMIT 1`, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	snap, err := telemetry.UnmarshalSnapshot(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode snapshot for run %s: %w", runID, err)
	}
	return snap, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sqlx.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}
