package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feasly/feasibility-engine/engine"
)

func TestMemory_RevisionsAndResults(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := engine.ScenarioRecord{ID: "s", Name: "S", Document: "{}"}

	rev, err := m.SaveScenario(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, rev)
	require.NoError(t, m.SaveResult(ctx, engine.ResultRecord{ScenarioID: "s", Revision: rev, ResultJSON: "r1"}))

	got, err := m.GetResult(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ResultJSON)

	// editing the scenario hides the stale result
	rev, err = m.SaveScenario(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 2, rev)
	_, err = m.GetResult(ctx, "s")
	assert.ErrorIs(t, err, engine.ErrResultNotFound)
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetScenario(ctx, "x")
	assert.ErrorIs(t, err, engine.ErrScenarioNotFound)
	assert.ErrorIs(t, m.DeleteScenario(ctx, "x"), engine.ErrScenarioNotFound)
	assert.ErrorIs(t, m.SaveResult(ctx, engine.ResultRecord{ScenarioID: "x"}), engine.ErrScenarioNotFound)
}

func TestMemory_DeleteAndReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.SaveScenario(ctx, engine.ScenarioRecord{ID: "a", Name: "A"})
	_, _ = m.SaveScenario(ctx, engine.ScenarioRecord{ID: "b", Name: "B"})
	require.NoError(t, m.SaveResult(ctx, engine.ResultRecord{ScenarioID: "a", Revision: 1}))

	require.NoError(t, m.DeleteScenario(ctx, "a"))
	assert.Empty(t, m.results)

	list, err := m.ListScenarios(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].Name)

	require.NoError(t, m.Reset(ctx))
	list, _ = m.ListScenarios(ctx)
	assert.Empty(t, list)
}
