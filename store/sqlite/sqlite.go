/*
Package sqlite provides a SQLite-backed implementation of engine.ScenarioStore.

PURPOSE:
  Persists scenario documents and computed result snapshots. Scenarios are
  stored as their JSON document; the engine never queries inside it.

INTERFACES IMPLEMENTED:
  engine.ScenarioStore: scenarios and results

REVISIONS:
  Saving a scenario is an UPSERT that bumps the revision:
    INSERT ... ON CONFLICT(id) DO UPDATE SET revision = scenarios.revision + 1
  Results are keyed by (scenario_id, revision). GetResult joins on the
  scenario's current revision, so a result computed from an older document
  is never returned even if it was written late.

KEY TABLES:
  scenarios: id, name, document_json, revision, timestamps
  results:   one row per (scenario_id, revision), cascades on delete

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened with WAL so readers
  don't block the single writer. An in-memory database is pinned to one
  connection; every new connection to ":memory:" would be a fresh database.

USAGE:
  store, err := sqlite.New("./data/feasly.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - engine/store.go: Interface definition
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/feasly/feasibility-engine/engine"
)

// Store implements engine.ScenarioStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ engine.ScenarioStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		document_json TEXT NOT NULL,
		revision INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenarios_name ON scenarios(name);

	-- One result per scenario revision
	CREATE TABLE IF NOT EXISTS results (
		scenario_id TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
		revision INTEGER NOT NULL,
		result_json TEXT NOT NULL,
		computed_at TEXT NOT NULL,
		UNIQUE(scenario_id, revision)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SCENARIOS
// =============================================================================

// SaveScenario inserts or updates a scenario and returns its new revision.
func (s *Store) SaveScenario(ctx context.Context, rec engine.ScenarioRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO scenarios (id, name, document_json, revision, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			document_json = excluded.document_json,
			revision = scenarios.revision + 1,
			updated_at = excluded.updated_at
		RETURNING revision
	`

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var revision int
	err := s.db.QueryRowContext(ctx, query,
		string(rec.ID), rec.Name, rec.Document, now, now,
	).Scan(&revision)
	if err != nil {
		return 0, fmt.Errorf("save scenario %s: %w", rec.ID, err)
	}
	return revision, nil
}

// GetScenario retrieves a scenario by ID.
func (s *Store) GetScenario(ctx context.Context, id engine.ScenarioID) (*engine.ScenarioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, document_json, revision, created_at, updated_at FROM scenarios WHERE id = ?",
		string(id),
	)
	rec, err := scanScenario(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrScenarioNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListScenarios returns all scenarios ordered by name.
func (s *Store) ListScenarios(ctx context.Context) ([]engine.ScenarioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, document_json, revision, created_at, updated_at FROM scenarios ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.ScenarioRecord
	for rows.Next() {
		rec, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// DeleteScenario removes a scenario; its results cascade.
func (s *Store) DeleteScenario(ctx context.Context, id engine.ScenarioID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM scenarios WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrScenarioNotFound
	}
	return nil
}

// =============================================================================
// RESULTS
// =============================================================================

// SaveResult stores the result for one revision, replacing any earlier
// result for that same revision.
func (s *Store) SaveResult(ctx context.Context, rec engine.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	computedAt := rec.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now()
	}

	query := `
		INSERT INTO results (scenario_id, revision, result_json, computed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scenario_id, revision) DO UPDATE SET
			result_json = excluded.result_json,
			computed_at = excluded.computed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		string(rec.ScenarioID), rec.Revision, rec.ResultJSON,
		computedAt.UTC().Format(time.RFC3339Nano),
	)
	if isForeignKeyError(err) {
		return engine.ErrScenarioNotFound
	}
	return err
}

// GetResult returns the result for the scenario's current revision.
func (s *Store) GetResult(ctx context.Context, id engine.ScenarioID) (*engine.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var current int
	err := s.db.QueryRowContext(ctx, "SELECT revision FROM scenarios WHERE id = ?", string(id)).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, engine.ErrScenarioNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec engine.ResultRecord
	var scenarioID, computedAt string
	err = s.db.QueryRowContext(ctx,
		"SELECT scenario_id, revision, result_json, computed_at FROM results WHERE scenario_id = ? AND revision = ?",
		string(id), current,
	).Scan(&scenarioID, &rec.Revision, &rec.ResultJSON, &computedAt)
	if err == sql.ErrNoRows {
		return nil, engine.ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.ScenarioID = engine.ScenarioID(scenarioID)
	rec.ComputedAt, _ = time.Parse(time.RFC3339Nano, computedAt)
	return &rec, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"results", "scenarios"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (*engine.ScenarioRecord, error) {
	var rec engine.ScenarioRecord
	var id, createdAt, updatedAt string
	if err := row.Scan(&id, &rec.Name, &rec.Document, &rec.Revision, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.ID = engine.ScenarioID(id)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &rec, nil
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
