/*
store.go - Persistence interface for scenarios and computed results

PURPOSE:
  Defines the interface between the calculation service and the database.
  Scenarios are stored as documents with a revision counter; results are
  stored per revision so a stale result can never overwrite a newer one.

KEY INTERFACES:
  ScenarioStore: scenario documents and result snapshots

REVISIONS:
  Every SaveScenario increments the scenario's revision. A background
  recalculation carries the revision it was computed from, and SaveResult
  keeps one result per (scenario, revision). GetResult returns the result
  for the latest revision only.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - engine/store/memory.go: In-memory for testing

SEE ALSO:
  - api/recalc.go: Uses revisions to discard stale results
*/
package engine

import (
	"context"
	"time"
)

// =============================================================================
// RECORDS
// =============================================================================

// ScenarioRecord is a stored scenario document.
type ScenarioRecord struct {
	ID        ScenarioID
	Name      string
	Document  string // JSON scenario document
	Revision  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResultRecord is a computed result for one scenario revision.
type ResultRecord struct {
	ScenarioID ScenarioID
	Revision   int
	ResultJSON string
	ComputedAt time.Time
}

// =============================================================================
// STORE
// =============================================================================

// ScenarioStore persists scenarios and their computed results.
type ScenarioStore interface {
	// SaveScenario inserts or updates a scenario and returns its new revision.
	SaveScenario(ctx context.Context, rec ScenarioRecord) (int, error)

	// GetScenario returns ErrScenarioNotFound when the ID is unknown.
	GetScenario(ctx context.Context, id ScenarioID) (*ScenarioRecord, error)

	ListScenarios(ctx context.Context) ([]ScenarioRecord, error)

	// DeleteScenario removes the scenario and all of its results.
	DeleteScenario(ctx context.Context, id ScenarioID) error

	// SaveResult stores a result for the given revision.
	SaveResult(ctx context.Context, rec ResultRecord) error

	// GetResult returns the result for the scenario's current revision,
	// or ErrResultNotFound.
	GetResult(ctx context.Context, id ScenarioID) (*ResultRecord, error)

	// Reset removes every scenario and result (demo/dev only).
	Reset(ctx context.Context) error
}
