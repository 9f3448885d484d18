package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feasly/feasibility-engine/cache"
	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/engine/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const smallScenario = `{
  "id": "small",
  "name": "Small scheme",
  "timeline": {"months": 12},
  "discount_rate": "0.10",
  "sales": [{"name": "Apartments", "units": 10, "price_per_unit": 100, "start_month": 6, "end_month": 11}],
  "costs": [
    {"name": "Land", "category": "land", "amount": 400, "start_month": 0, "end_month": 0},
    {"name": "Build", "category": "hard", "amount": 300, "start_month": 1, "end_month": 5}
  ]
}`

func setupTestRouter(t *testing.T) (*Handler, *chi.Mux) {
	t.Helper()
	h := NewHandler(store.NewMemory(), cache.NewMemory(0))
	return h, NewRouter(h, nil)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// =============================================================================
// CALCULATOR TESTS
// =============================================================================

func TestCalcRental_ConstantMonthly(t *testing.T) {
	_, router := setupTestRouter(t)

	// GIVEN: 100 rooms at 150/night, 75% occupancy, no escalation
	body := `{"months": 12, "line": {"units": 100, "adr": 150, "occupancy": 0.75, "start_month": 0, "end_month": 11}}`

	// WHEN
	rec := do(t, router, http.MethodPost, "/api/calc/rental", body)

	// THEN: every month is 100 × 150 × 0.75 × 30.4167 rounded to cents
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[SeriesDTO](t, rec)
	require.Len(t, resp.Values, 12)
	for _, v := range resp.Values {
		assert.Equal(t, "342187.88", v.StringFixed(2))
	}
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("4106254.56")))
}

func TestCalcRental_InvalidRange(t *testing.T) {
	_, router := setupTestRouter(t)

	body := `{"months": 12, "line": {"units": 1, "adr": 1, "occupancy": 1, "start_month": 6, "end_month": 2}}`
	rec := do(t, router, http.MethodPost, "/api/calc/rental", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "invalid range")
}

func TestCalcRental_ValidationFields(t *testing.T) {
	_, router := setupTestRouter(t)

	body := `{"months": 0, "line": {"units": 1, "adr": 1, "occupancy": 2, "start_month": 0, "end_month": 1}}`
	rec := do(t, router, http.MethodPost, "/api/calc/rental", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Contains(t, resp.Fields, "months")
	assert.Contains(t, resp.Fields, "line.occupancy")
}

func TestCalcSale_RemainderInLastMonth(t *testing.T) {
	_, router := setupTestRouter(t)

	body := `{"months": 4, "line": {"units": 1, "price_per_unit": "100", "start_month": 0, "end_month": 2}}`
	rec := do(t, router, http.MethodPost, "/api/calc/sale", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[SeriesDTO](t, rec)
	assert.Equal(t, []string{"33.33", "33.33", "33.34", "0.00"}, resp.Values.Strings())
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(100)))
}

func TestCalcCurve_SellThrough(t *testing.T) {
	_, router := setupTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/calc/curve", `{"kind": "sell_through", "curve": [1, 1, 2], "length": 3}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CurveDTO](t, rec)
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.5}, resp.Values, 1e-12)
	assert.InDelta(t, 1.0, resp.Sum, 1e-12)
}

func TestCalcCurve_UnknownKind(t *testing.T) {
	_, router := setupTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/calc/curve", `{"kind": "absorption", "curve": [1], "length": 3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMalformedBody(t *testing.T) {
	_, router := setupTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/calc/sale", `{"months": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SCENARIO TESTS
// =============================================================================

func TestScenario_Lifecycle(t *testing.T) {
	_, router := setupTestRouter(t)

	// GIVEN: a new scenario
	rec := do(t, router, http.MethodPost, "/api/scenarios", smallScenario)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[ScenarioDTO](t, rec).Revision)

	// WHEN: it is saved again
	rec = do(t, router, http.MethodPost, "/api/scenarios", smallScenario)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[ScenarioDTO](t, rec).Revision)

	// THEN: it can be read back and listed
	rec = do(t, router, http.MethodGet, "/api/scenarios/small", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ScenarioDTO](t, rec)
	assert.Equal(t, "Small scheme", got.Document.Name)
	assert.Equal(t, 2, got.Revision)

	rec = do(t, router, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScenarioSummaryDTO](t, rec), 1)

	// AND: deleting it makes it disappear
	rec = do(t, router, http.MethodDelete, "/api/scenarios/small", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/scenarios/small", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenario_SaveRejectsInvalidDocument(t *testing.T) {
	_, router := setupTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios", `{"timeline": {"months": 12}}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "name")
}

func TestScenario_CalculateIsCachedAndStored(t *testing.T) {
	h, router := setupTestRouter(t)
	do(t, router, http.MethodPost, "/api/scenarios", smallScenario)

	// no result before the first calculation
	rec := do(t, router, http.MethodGet, "/api/scenarios/small/results", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// WHEN: calculated twice
	rec = do(t, router, http.MethodPost, "/api/scenarios/small/calculate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[ResultDTO](t, rec)
	assert.False(t, first.Cached)
	assert.True(t, first.KPIs.Profit.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 1, first.Revision)

	rec = do(t, router, http.MethodPost, "/api/scenarios/small/calculate", "")
	second := decode[ResultDTO](t, rec)
	assert.True(t, second.Cached)
	assert.Equal(t, first.LeveredCashFlow.Strings(), second.LeveredCashFlow.Strings())
	assert.Equal(t, 1, h.Cache.(*cache.Memory).Len())

	// THEN: the result is stored for the current revision
	rec = do(t, router, http.MethodGet, "/api/scenarios/small/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[ResultDTO](t, rec)
	assert.Equal(t, 1, stored.Revision)
	assert.True(t, stored.KPIs.TotalCost.Equal(decimal.NewFromInt(700)))

	// WHEN: the identical document is saved again and calculated from cache
	rec = do(t, router, http.MethodPost, "/api/scenarios", smallScenario)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodPost, "/api/scenarios/small/calculate", "")
	third := decode[ResultDTO](t, rec)
	assert.True(t, third.Cached)
	assert.Equal(t, 2, third.Revision)

	// THEN: the cached result is stored for the new revision too
	rec = do(t, router, http.MethodGet, "/api/scenarios/small/results", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored = decode[ResultDTO](t, rec)
	assert.Equal(t, 2, stored.Revision)
	assert.False(t, stored.Cached)
}

func TestScenario_CalculateInvalidRange(t *testing.T) {
	_, router := setupTestRouter(t)
	doc := strings.Replace(smallScenario, `"start_month": 1, "end_month": 5`, `"start_month": 5, "end_month": 1`, 1)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/scenarios", doc).Code)

	rec := do(t, router, http.MethodPost, "/api/scenarios/small/calculate", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "Build")
}

func TestScenario_CalculateNotFound(t *testing.T) {
	_, router := setupTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/scenarios/nope/calculate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenario_SensitivityDefaultsAndCustom(t *testing.T) {
	_, router := setupTestRouter(t)
	do(t, router, http.MethodPost, "/api/scenarios", smallScenario)

	rec := do(t, router, http.MethodPost, "/api/scenarios/small/sensitivity", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := decode[[]SensitivityRowDTO](t, rec)
	require.Len(t, rows, 6)
	assert.Equal(t, "Base case", rows[0].Variation.Name)

	rec = do(t, router, http.MethodPost, "/api/scenarios/small/sensitivity",
		`{"variations": [{"name": "Cost +20%", "cost_factor": "1.2"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows = decode[[]SensitivityRowDTO](t, rec)
	require.Len(t, rows, 2)
	assert.True(t, rows[1].DeltaProfit.Equal(decimal.NewFromInt(-140)))

	rec = do(t, router, http.MethodPost, "/api/scenarios/small/sensitivity", `{"variations": [{"cost_factor": 1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenario_ExportCSV(t *testing.T) {
	_, router := setupTestRouter(t)
	do(t, router, http.MethodPost, "/api/scenarios", smallScenario)

	rec := do(t, router, http.MethodGet, "/api/scenarios/small/export.csv", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 13)
	assert.True(t, strings.HasPrefix(lines[0], "month,label,rental_revenue"))
	assert.True(t, strings.HasSuffix(lines[12], ",300.00"))
}

func TestScenario_RecalculateDisabled(t *testing.T) {
	_, router := setupTestRouter(t)
	do(t, router, http.MethodPost, "/api/scenarios", smallScenario)

	rec := do(t, router, http.MethodPost, "/api/scenarios/small/recalculate", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScenario_RecalculateQueues(t *testing.T) {
	h, router := setupTestRouter(t)
	h.Recalc = NewRecalculator(h.Store, h.Cache, 1)
	do(t, router, http.MethodPost, "/api/scenarios", smallScenario)

	rec := do(t, router, http.MethodPost, "/api/scenarios/small/recalculate", "")

	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decode[RecalculateDTO](t, rec)
	assert.Equal(t, 1, resp.Revision)
	assert.Equal(t, "queued", resp.Status)
	// one job from the save, one from the explicit request
	assert.Len(t, h.Recalc.jobs, 2)
}

// =============================================================================
// DEMO TESTS
// =============================================================================

func TestDemos_ListAndLoad(t *testing.T) {
	h, router := setupTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/demos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]DemoDTO](t, rec)
	require.Len(t, list, len(demos))

	for _, d := range list {
		rec = do(t, router, http.MethodPost, "/api/demos/load", `{"demo_id": "`+d.ID+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = do(t, router, http.MethodPost, "/api/scenarios/"+d.ID+"/calculate", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, decode[ResultDTO](t, rec).KPIs.TotalRevenue.IsPositive(), d.ID)
	}

	records, err := h.Store.ListScenarios(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, len(demos))
}

func TestDemos_LoadWithReset(t *testing.T) {
	h, router := setupTestRouter(t)
	do(t, router, http.MethodPost, "/api/scenarios", smallScenario)

	rec := do(t, router, http.MethodPost, "/api/demos/load", `{"demo_id": "riverside-hotel", "reset": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := h.Store.GetScenario(context.Background(), "small")
	assert.ErrorIs(t, err, engine.ErrScenarioNotFound)
}

func TestDemos_Unknown(t *testing.T) {
	_, router := setupTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/demos/load", `{"demo_id": "castle"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	_, router := setupTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

