/*
Package scenario assembles revenue, cost and debt lines into a project cash
flow.

PURPOSE:
  A scenario is one set of feasibility assumptions for a development:
  its horizon, discount rate, revenue lines, cost lines and debt. The
  package turns a scenario into monthly series and headline KPIs, and runs
  sensitivity variations over copies of it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Scenario: the input document, recomputed from scratch on every edit
  - CostLine: a budget spread across a window, remainder in the last month
  - Result: monthly series plus KPIs
  - LineError: names the line that failed validation

SEE ALSO:
  - calculate.go: Calculate (Scenario → Result)
  - sensitivity.go: Variation and RunSensitivity
  - factory/scenario.go: JSON/YAML documents → Scenario
*/
package scenario

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/finance"
	"github.com/feasly/feasibility-engine/revenue"
)

// =============================================================================
// SCENARIO
// =============================================================================

type Scenario struct {
	ID           engine.ScenarioID
	Name         string
	Timeline     engine.Timeline
	DiscountRate decimal.Decimal // annual effective

	Rentals []revenue.RentalLine
	Sales   []revenue.SaleLine
	Costs   []CostLine
	Debt    []finance.DebtFacility
}

// CostCategory groups cost lines in reports.
type CostCategory string

const (
	CostLand      CostCategory = "land"
	CostHard      CostCategory = "hard"
	CostSoft      CostCategory = "soft"
	CostFinancing CostCategory = "financing"
	CostOther     CostCategory = "other"
)

// CostLine is a budget amount spread evenly across its window.
type CostLine struct {
	Name       string
	Category   CostCategory
	Amount     decimal.Decimal
	Window     engine.Window
	Escalation decimal.Decimal // annual, applied over the whole-year span
}

// Clone returns a deep copy so variations never touch the original.
func (s Scenario) Clone() Scenario {
	out := s
	out.Rentals = make([]revenue.RentalLine, len(s.Rentals))
	for i, r := range s.Rentals {
		r.OccupancyCurve = append([]float64(nil), r.OccupancyCurve...)
		out.Rentals[i] = r
	}
	out.Sales = make([]revenue.SaleLine, len(s.Sales))
	for i, l := range s.Sales {
		l.SellThrough = append([]float64(nil), l.SellThrough...)
		out.Sales[i] = l
	}
	out.Costs = append([]CostLine(nil), s.Costs...)
	out.Debt = append([]finance.DebtFacility(nil), s.Debt...)
	return out
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the computed cash flow of a scenario.
type Result struct {
	ScenarioID engine.ScenarioID
	Months     int
	Labels     []string

	RentalRevenue   engine.Series
	SaleRevenue     engine.Series
	Revenue         engine.Series
	Costs           engine.Series
	CostsByCategory map[CostCategory]engine.Series

	UnleveredCashFlow engine.Series
	DebtDraws         engine.Series
	DebtService       engine.Series
	LeveredCashFlow   engine.Series
	Cumulative        engine.Series

	KPIs KPIs
}

// KPIs are the headline feasibility figures.
type KPIs struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Profit       decimal.Decimal `json:"profit"`
	Margin       decimal.Decimal `json:"margin"` // profit / revenue, zero without revenue

	UnleveredNPV decimal.Decimal `json:"unlevered_npv"`
	UnleveredIRR *float64        `json:"unlevered_irr"` // annualised; nil when no IRR exists
	LeveredIRR   *float64        `json:"levered_irr"`

	PeakFunding  decimal.Decimal `json:"peak_funding"`  // most negative cumulative levered cash flow
	PaybackMonth int             `json:"payback_month"` // -1 when the project never pays back
}

// =============================================================================
// ERRORS
// =============================================================================

// LineError reports which line of a scenario failed.
type LineError struct {
	Kind  engine.LineKind
	Index int
	Name  string
	Err   error
}

func (e *LineError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("%s line %s: %v", e.Kind, name, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
