// Package store provides ScenarioStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/feasly/feasibility-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	scenarios map[engine.ScenarioID]engine.ScenarioRecord
	results   map[key]engine.ResultRecord
}

type key struct {
	ScenarioID engine.ScenarioID
	Revision   int
}

func NewMemory() *Memory {
	return &Memory{
		scenarios: make(map[engine.ScenarioID]engine.ScenarioRecord),
		results:   make(map[key]engine.ResultRecord),
	}
}

// SaveScenario upserts the record and bumps its revision.
func (m *Memory) SaveScenario(_ context.Context, rec engine.ScenarioRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.scenarios[rec.ID]; ok {
		rec.Revision = existing.Revision + 1
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.Revision = 1
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.scenarios[rec.ID] = rec
	return rec.Revision, nil
}

func (m *Memory) GetScenario(_ context.Context, id engine.ScenarioID) (*engine.ScenarioRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.scenarios[id]
	if !ok {
		return nil, engine.ErrScenarioNotFound
	}
	return &rec, nil
}

func (m *Memory) ListScenarios(_ context.Context) ([]engine.ScenarioRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.ScenarioRecord, 0, len(m.scenarios))
	for _, rec := range m.scenarios {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteScenario(_ context.Context, id engine.ScenarioID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scenarios[id]; !ok {
		return engine.ErrScenarioNotFound
	}
	delete(m.scenarios, id)
	for k := range m.results {
		if k.ScenarioID == id {
			delete(m.results, k)
		}
	}
	return nil
}

func (m *Memory) SaveResult(_ context.Context, rec engine.ResultRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scenarios[rec.ScenarioID]; !ok {
		return engine.ErrScenarioNotFound
	}
	if rec.ComputedAt.IsZero() {
		rec.ComputedAt = time.Now().UTC()
	}
	m.results[key{ScenarioID: rec.ScenarioID, Revision: rec.Revision}] = rec
	return nil
}

func (m *Memory) GetResult(_ context.Context, id engine.ScenarioID) (*engine.ResultRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scn, ok := m.scenarios[id]
	if !ok {
		return nil, engine.ErrScenarioNotFound
	}
	rec, ok := m.results[key{ScenarioID: id, Revision: scn.Revision}]
	if !ok {
		return nil, engine.ErrResultNotFound
	}
	return &rec, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scenarios = make(map[engine.ScenarioID]engine.ScenarioRecord)
	m.results = make(map[key]engine.ResultRecord)
	return nil
}
