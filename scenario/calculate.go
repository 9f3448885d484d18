package scenario

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/finance"
	"github.com/feasly/feasibility-engine/revenue"
)

// =============================================================================
// CALCULATE - Scenario to cash flow
// =============================================================================

// Calculate builds every line of s and aggregates them into a Result.
//
// The calculation is a pure function of s. The first invalid line aborts it
// with a *LineError wrapping the line's error.
func Calculate(s Scenario) (*Result, error) {
	n := s.Timeline.Months
	if n <= 0 {
		return nil, engine.ErrInvalidTimeline
	}

	res := &Result{
		ScenarioID:      s.ID,
		Months:          n,
		Labels:          s.Timeline.Labels(),
		RentalRevenue:   engine.NewSeries(n),
		SaleRevenue:     engine.NewSeries(n),
		Costs:           engine.NewSeries(n),
		CostsByCategory: make(map[CostCategory]engine.Series),
		DebtDraws:       engine.NewSeries(n),
		DebtService:     engine.NewSeries(n),
	}

	// 1. Revenue
	for i, line := range s.Rentals {
		series, err := revenue.BuildRental(line, n)
		if err != nil {
			return nil, &LineError{Kind: engine.LineRental, Index: i, Name: line.Name, Err: err}
		}
		res.RentalRevenue = res.RentalRevenue.Add(series)
	}
	for i, line := range s.Sales {
		series, err := revenue.BuildSale(line, n)
		if err != nil {
			return nil, &LineError{Kind: engine.LineSale, Index: i, Name: line.Name, Err: err}
		}
		res.SaleRevenue = res.SaleRevenue.Add(series)
	}
	res.Revenue = res.RentalRevenue.Add(res.SaleRevenue)

	// 2. Costs
	for i, line := range s.Costs {
		series, err := BuildCost(line, n)
		if err != nil {
			return nil, &LineError{Kind: engine.LineCost, Index: i, Name: line.Name, Err: err}
		}
		res.Costs = res.Costs.Add(series)

		category := line.Category
		if category == "" {
			category = CostOther
		}
		if existing, ok := res.CostsByCategory[category]; ok {
			res.CostsByCategory[category] = existing.Add(series)
		} else {
			res.CostsByCategory[category] = series
		}
	}
	res.UnleveredCashFlow = res.Revenue.Sub(res.Costs)

	// 3. Debt
	for i, facility := range s.Debt {
		sched, err := finance.Amortize(facility, n)
		if err != nil {
			return nil, &LineError{Kind: engine.LineDebt, Index: i, Name: facility.Name, Err: err}
		}
		res.DebtDraws = res.DebtDraws.Add(sched.Draws)
		res.DebtService = res.DebtService.Add(sched.Service())
	}
	res.LeveredCashFlow = res.UnleveredCashFlow.Add(res.DebtDraws).Sub(res.DebtService)
	res.Cumulative = res.LeveredCashFlow.Cumulative()

	// 4. KPIs
	res.KPIs = computeKPIs(s, res)
	return res, nil
}

// BuildCost spreads the escalated amount of line across its window with
// the rounding remainder in the final month.
func BuildCost(line CostLine, n int) (engine.Series, error) {
	if err := line.Window.Validate(); err != nil {
		return nil, err
	}
	total := engine.Escalate(line.Amount, line.Escalation, line.Window.SpanYears())
	return revenue.Spread(total, line.Window, nil, n), nil
}

func computeKPIs(s Scenario, res *Result) KPIs {
	k := KPIs{
		TotalRevenue: res.Revenue.Sum(),
		TotalCost:    res.Costs.Sum(),
	}
	k.Profit = k.TotalRevenue.Sub(k.TotalCost)
	if !k.TotalRevenue.IsZero() {
		k.Margin = k.Profit.Div(k.TotalRevenue).Round(4)
	}

	// Flows beyond float64 range have no meaningful NPV or IRR; both stay
	// unset and the decimal totals above still hold.
	unlevered := res.UnleveredCashFlow.Float64s()
	if allFinite(unlevered) {
		monthly := finance.MonthlyRate(s.DiscountRate.InexactFloat64())
		if npv := finance.NPV(monthly, unlevered); isFinite(npv) {
			k.UnleveredNPV = engine.Round2(decimal.NewFromFloat(npv))
		}
		k.UnleveredIRR = annualIRR(unlevered)
	}
	levered := res.LeveredCashFlow.Float64s()
	if allFinite(levered) {
		k.LeveredIRR = annualIRR(levered)
	}

	peak, _ := res.Cumulative.Min()
	if peak.IsNegative() {
		k.PeakFunding = peak.Neg()
	} else {
		k.PeakFunding = decimal.Zero
	}
	k.PaybackMonth = finance.Payback(levered)
	return k
}

func annualIRR(flows []float64) *float64 {
	r, err := finance.IRR(flows)
	if err != nil {
		return nil
	}
	annual := finance.Annualize(r)
	if !isFinite(annual) {
		return nil
	}
	return &annual
}

func allFinite(flows []float64) bool {
	for _, f := range flows {
		if !isFinite(f) {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
