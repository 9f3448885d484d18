package factory_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/factory"
	"github.com/feasly/feasibility-engine/scenario"
)

const smallDoc = `{
  "id": "small",
  "name": "Small scheme",
  "timeline": {"months": 12, "start": "2026-01"},
  "discount_rate": "0.10",
  "sales": [
    {"name": "Apartments", "units": 10, "price_per_unit": "100", "start_month": 6, "end_month": 11}
  ],
  "costs": [
    {"name": "Land", "category": "land", "amount": 400, "start_month": 0, "end_month": 0},
    {"name": "Build", "category": "hard", "amount": "300", "start_month": 1, "end_month": 5}
  ],
  "debt": [
    {"name": "Bridge", "principal": 200, "annual_rate": 0, "draw_month": 0, "term_months": 2}
  ]
}`

const smallYAML = `
id: small
name: Small scheme
timeline:
  months: 12
  start: "2026-01"
discount_rate: 0.10
sales:
  - name: Apartments
    units: 10
    price_per_unit: 100
    start_month: 6
    end_month: 11
costs:
  - {name: Land, category: land, amount: 400, start_month: 0, end_month: 0}
  - {name: Build, category: hard, amount: 300, start_month: 1, end_month: 5}
debt:
  - {name: Bridge, principal: 200, annual_rate: 0, draw_month: 0, term_months: 2}
`

// =============================================================================
// PARSING TESTS
// =============================================================================

func TestParseScenario_JSON(t *testing.T) {
	f := factory.NewScenarioFactory()

	s, doc, err := f.ParseScenario([]byte(smallDoc))
	require.NoError(t, err)

	assert.Equal(t, engine.ScenarioID("small"), s.ID)
	assert.Equal(t, "small", doc.ID)
	assert.Equal(t, 12, s.Timeline.Months)
	assert.Equal(t, "2026-01", s.Timeline.Label(0))
	assert.True(t, s.DiscountRate.Equal(decimal.RequireFromString("0.1")))

	require.Len(t, s.Sales, 1)
	assert.Equal(t, engine.Window{Start: 6, End: 11}, s.Sales[0].Window)
	require.Len(t, s.Costs, 2)
	assert.Equal(t, scenario.CostHard, s.Costs[1].Category)
	assert.True(t, s.Costs[1].Amount.Equal(decimal.NewFromInt(300)), "string amounts decode")
	require.Len(t, s.Debt, 1)
	assert.Equal(t, 2, s.Debt[0].TermMonths)
}

func TestParseYAML_MatchesJSON(t *testing.T) {
	f := factory.NewScenarioFactory()

	fromJSON, _, err := f.ParseScenario([]byte(smallDoc))
	require.NoError(t, err)
	fromYAML, _, err := f.ParseYAML([]byte(smallYAML))
	require.NoError(t, err)

	a, err := scenario.Calculate(*fromJSON)
	require.NoError(t, err)
	b, err := scenario.Calculate(*fromYAML)
	require.NoError(t, err)

	assert.Equal(t, a.LeveredCashFlow.Strings(), b.LeveredCashFlow.Strings())
	assert.True(t, a.KPIs.Profit.Equal(b.KPIs.Profit))
}

func TestParseFile_ByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.yml")
	require.NoError(t, os.WriteFile(path, []byte(smallYAML), 0o644))

	s, _, err := factory.NewScenarioFactory().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Small scheme", s.Name)
}

func TestParseScenario_AssignsID(t *testing.T) {
	s, doc, err := factory.NewScenarioFactory().ParseScenario([]byte(`{"name": "No id", "timeline": {"months": 3}}`))
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, engine.ScenarioID(doc.ID), s.ID)
	assert.Equal(t, "M0", s.Timeline.Label(0))
}

func TestParseScenario_MalformedJSON(t *testing.T) {
	_, _, err := factory.NewScenarioFactory().ParseScenario([]byte(`{"name": `))
	assert.Error(t, err)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestParseScenario_ValidationErrorsByJSONPath(t *testing.T) {
	// GIVEN: no name, an empty horizon and an occupancy above 1
	doc := `{
	  "timeline": {"months": 0},
	  "rentals": [{"name": "Keys", "units": 10, "adr": 100, "occupancy": 1.5, "start_month": 0, "end_month": 1}]
	}`

	_, _, err := factory.NewScenarioFactory().ParseScenario([]byte(doc))

	var verr *factory.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "timeline.months")
	assert.Contains(t, verr.Fields, "rentals[0].occupancy")
	assert.Contains(t, verr.Fields["name"], "required")
}

func TestParseScenario_ReversedWindowLeftToBuilders(t *testing.T) {
	// GIVEN: a sale whose end precedes its start passes document validation
	doc := `{"name": "x", "timeline": {"months": 12},
	  "sales": [{"name": "Lots", "units": 1, "price_per_unit": 1, "start_month": 8, "end_month": 2}]}`

	s, _, err := factory.NewScenarioFactory().ParseScenario([]byte(doc))
	require.NoError(t, err)

	// WHEN: calculated
	_, err = scenario.Calculate(*s)

	// THEN: the builder reports the invalid range
	assert.ErrorIs(t, err, engine.ErrInvalidRange)
}

func TestParseScenario_RejectsOversizedInputs(t *testing.T) {
	// GIVEN: a price beyond float64 range, a window ending far in the future
	// and a debt term longer than any horizon
	doc := `{"name": "x", "timeline": {"months": 12},
	  "sales": [{"name": "Lots", "units": 1, "price_per_unit": "1e309", "start_month": 0, "end_month": 4611686018427387904}],
	  "debt": [{"name": "Loan", "principal": 100, "annual_rate": 0.05, "draw_month": 0,
	            "term_months": 5000000, "interest_only_months": 5000000}]}`

	// WHEN: parsed
	_, _, err := factory.NewScenarioFactory().ParseScenario([]byte(doc))

	// THEN: every oversized field is reported
	var verr *factory.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "price_per_unit must be a finite number", verr.Fields["sales[0].price_per_unit"])
	assert.Contains(t, verr.Fields, "sales[0].end_month")
	assert.Contains(t, verr.Fields, "debt[0].term_months")
	assert.Contains(t, verr.Fields, "debt[0].interest_only_months")
}

func TestValidate_UnknownCategory(t *testing.T) {
	doc := &factory.ScenarioDocument{
		Name:     "x",
		Timeline: factory.TimelineDocument{Months: 1},
		Costs:    []factory.CostDocument{{Name: "c", Category: "marketing"}},
	}

	err := factory.Validate(doc)

	var verr *factory.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "costs[0].category")
}

// =============================================================================
// ROUND TRIP & PRESETS
// =============================================================================

func TestToDocument_RoundTrip(t *testing.T) {
	f := factory.NewScenarioFactory()
	s, _, err := f.ParseScenario([]byte(smallDoc))
	require.NoError(t, err)

	doc := f.ToDocument(*s)
	back, err := f.FromDocument(&doc)
	require.NoError(t, err)

	assert.Equal(t, s.ID, back.ID)
	assert.Equal(t, "2026-01", doc.Timeline.Start)
	assert.Equal(t, s.Sales[0].Window, back.Sales[0].Window)
	assert.Equal(t, s.Costs[0].Category, back.Costs[0].Category)
}

func TestPresets_Calculate(t *testing.T) {
	f := factory.NewScenarioFactory()
	presets := map[string]string{
		"hotel":       factory.HotelJSON("hotel", "Hotel", 120, 185),
		"residential": factory.ResidentialSaleJSON("resi", "Residential", 48, 450000),
		"mixed":       factory.MixedUseJSON("mixed", "Mixed use"),
	}

	for name, doc := range presets {
		t.Run(name, func(t *testing.T) {
			s, _, err := f.ParseScenario([]byte(doc))
			require.NoError(t, err)

			res, err := scenario.Calculate(*s)
			require.NoError(t, err)
			assert.True(t, res.KPIs.TotalRevenue.IsPositive())
			assert.True(t, res.KPIs.TotalCost.IsPositive())
		})
	}
}
