package scenario

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SENSITIVITY - What-if variations over a scenario
// =============================================================================

// Variation perturbs a scenario's assumptions.
//
// Factors multiply (1 leaves the input unchanged, 0 is treated as 1).
// EscalationShift is added to every escalation rate. DelayMonths shifts
// every revenue window later; costs and debt are not delayed.
type Variation struct {
	Name            string          `json:"name"`
	RevenueFactor   decimal.Decimal `json:"revenue_factor"`
	CostFactor      decimal.Decimal `json:"cost_factor"`
	EscalationShift decimal.Decimal `json:"escalation_shift"`
	DelayMonths     int             `json:"delay_months"`
}

// SensitivityRow is the outcome of one variation.
type SensitivityRow struct {
	Variation Variation `json:"variation"`
	KPIs      KPIs      `json:"kpis"`
	// DeltaProfit is the profit change against the base case.
	DeltaProfit decimal.Decimal `json:"delta_profit"`
}

// DefaultVariations returns the standard table: ±10% revenue, ±10% cost
// and a three-month sales delay.
func DefaultVariations() []Variation {
	up := decimal.RequireFromString("1.10")
	down := decimal.RequireFromString("0.90")
	return []Variation{
		{Name: "Revenue +10%", RevenueFactor: up},
		{Name: "Revenue -10%", RevenueFactor: down},
		{Name: "Cost +10%", CostFactor: up},
		{Name: "Cost -10%", CostFactor: down},
		{Name: "Delay 3 months", DelayMonths: 3},
	}
}

// Apply returns a varied deep copy of s.
func (v Variation) Apply(s Scenario) Scenario {
	out := s.Clone()
	rev := factorOrOne(v.RevenueFactor)
	cost := factorOrOne(v.CostFactor)

	for i := range out.Rentals {
		r := &out.Rentals[i]
		r.ADR = r.ADR.Mul(rev)
		r.Escalation = r.Escalation.Add(v.EscalationShift)
		r.Window = r.Window.Shift(v.DelayMonths)
	}
	for i := range out.Sales {
		l := &out.Sales[i]
		l.PricePerUnit = l.PricePerUnit.Mul(rev)
		l.Escalation = l.Escalation.Add(v.EscalationShift)
		l.Window = l.Window.Shift(v.DelayMonths)
	}
	for i := range out.Costs {
		c := &out.Costs[i]
		c.Amount = c.Amount.Mul(cost)
		c.Escalation = c.Escalation.Add(v.EscalationShift)
	}
	return out
}

// RunSensitivity calculates the base case and every variation.
// The first row is always the base case.
func RunSensitivity(s Scenario, variations []Variation) ([]SensitivityRow, error) {
	base, err := Calculate(s)
	if err != nil {
		return nil, err
	}

	rows := make([]SensitivityRow, 0, len(variations)+1)
	rows = append(rows, SensitivityRow{
		Variation:   Variation{Name: "Base case"},
		KPIs:        base.KPIs,
		DeltaProfit: decimal.Zero,
	})

	for _, v := range variations {
		res, err := Calculate(v.Apply(s))
		if err != nil {
			return nil, err
		}
		rows = append(rows, SensitivityRow{
			Variation:   v,
			KPIs:        res.KPIs,
			DeltaProfit: res.KPIs.Profit.Sub(base.KPIs.Profit),
		})
	}
	return rows, nil
}

func factorOrOne(f decimal.Decimal) decimal.Decimal {
	if f.IsZero() {
		return decimal.NewFromInt(1)
	}
	return f
}
