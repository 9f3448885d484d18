package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feasly/feasibility-engine/cache"
	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/engine/store"
)

func saveSmall(t *testing.T, s engine.ScenarioStore) int {
	t.Helper()
	rev, err := s.SaveScenario(context.Background(), engine.ScenarioRecord{
		ID: "small", Name: "Small scheme", Document: smallScenario,
	})
	require.NoError(t, err)
	return rev
}

func TestRecalculator_StoresCurrentRevision(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := cache.NewMemory(0)
	rc := NewRecalculator(st, c, 1)
	rev := saveSmall(t, st)

	ok := rc.process(ctx, recalcJob{ScenarioID: "small", Revision: rev})

	require.True(t, ok)
	res, err := st.GetResult(ctx, "small")
	require.NoError(t, err)

	var dto ResultDTO
	require.NoError(t, json.Unmarshal([]byte(res.ResultJSON), &dto))
	assert.Equal(t, rev, dto.Revision)
	assert.True(t, dto.KPIs.Profit.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 1, c.Len(), "result is cached for the synchronous path")
	assert.Equal(t, RecalcStats{Completed: 1}, rc.Stats())
}

func TestRecalculator_DiscardsStaleRevision(t *testing.T) {
	// GIVEN: a job queued for revision 1, then the scenario is edited
	ctx := context.Background()
	st := store.NewMemory()
	rc := NewRecalculator(st, nil, 1)
	stale := saveSmall(t, st)
	current := saveSmall(t, st)
	require.Equal(t, stale+1, current)

	// WHEN: the stale job runs
	ok := rc.process(ctx, recalcJob{ScenarioID: "small", Revision: stale})

	// THEN: nothing is stored
	assert.False(t, ok)
	_, err := st.GetResult(ctx, "small")
	assert.ErrorIs(t, err, engine.ErrResultNotFound)
	assert.Equal(t, int64(1), rc.Stats().Discarded)
}

func TestRecalculator_DeletedScenarioDiscarded(t *testing.T) {
	rc := NewRecalculator(store.NewMemory(), nil, 1)

	ok := rc.process(context.Background(), recalcJob{ScenarioID: "gone", Revision: 1})

	assert.False(t, ok)
	assert.Equal(t, int64(1), rc.Stats().Discarded)
}

func TestRecalculator_InvalidScenarioFails(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	rc := NewRecalculator(st, nil, 1)
	rev, err := st.SaveScenario(ctx, engine.ScenarioRecord{ID: "bad", Name: "Bad", Document: `{"name": "Bad", "timeline": {"months": 3},
		"costs": [{"name": "c", "amount": 1, "start_month": 2, "end_month": 0}]}`})
	require.NoError(t, err)

	ok := rc.process(ctx, recalcJob{ScenarioID: "bad", Revision: rev})

	assert.False(t, ok)
	assert.Equal(t, int64(1), rc.Stats().Failed)
}

func TestRecalculator_WorkersDrainQueue(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	rc := NewRecalculator(st, nil, 2)
	rev := saveSmall(t, st)

	require.NoError(t, rc.Submit("small", rev))
	rc.Start()
	defer rc.Stop()

	assert.Eventually(t, func() bool {
		_, err := st.GetResult(ctx, "small")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecalculator_QueueFull(t *testing.T) {
	rc := NewRecalculator(store.NewMemory(), nil, 1)
	for i := 0; i < DefaultQueueSize; i++ {
		require.NoError(t, rc.Submit("s", i))
	}
	assert.ErrorIs(t, rc.Submit("s", 0), ErrQueueFull)
}

// panicStore fails loudly on reads.
type panicStore struct {
	engine.ScenarioStore
}

func (panicStore) GetScenario(context.Context, engine.ScenarioID) (*engine.ScenarioRecord, error) {
	panic("corrupt record")
}

func TestRecalculator_PanicCountsAsFailure(t *testing.T) {
	// GIVEN: a store whose reads panic
	rc := NewRecalculator(panicStore{store.NewMemory()}, nil, 1)

	// WHEN: a job runs through the worker path
	ok := rc.safeProcess(context.Background(), recalcJob{ScenarioID: "small", Revision: 1})

	// THEN: the job fails and the worker survives
	assert.False(t, ok)
	assert.Equal(t, RecalcStats{Failed: 1}, rc.Stats())
}

func TestRecalculator_OversizedPriceDoesNotPanic(t *testing.T) {
	// GIVEN: a stored document whose price is beyond float64 range
	ctx := context.Background()
	st := store.NewMemory()
	rc := NewRecalculator(st, nil, 1)
	rev, err := st.SaveScenario(ctx, engine.ScenarioRecord{ID: "huge", Name: "Huge", Document: `{"name": "Huge", "timeline": {"months": 3},
		"sales": [{"name": "s", "units": 1, "price_per_unit": "1e309", "start_month": 0, "end_month": 2}]}`})
	require.NoError(t, err)

	// WHEN: the job runs
	ok := rc.safeProcess(ctx, recalcJob{ScenarioID: "huge", Revision: rev})

	// THEN: validation rejects it as a failed job
	assert.False(t, ok)
	assert.Equal(t, RecalcStats{Failed: 1}, rc.Stats())
}
