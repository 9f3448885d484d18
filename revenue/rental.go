/*
Package revenue builds monthly revenue series for revenue lines.

PURPOSE:
  Turns a single revenue line (rental or sale) into a fixed-length series
  indexed by absolute project month. Every builder is a pure function of
  the line and the timeline length: no caches, no side effects.

BUILDERS:
  BuildRental: daily-rate assets (hotel keys, serviced apartments, leases
               quoted per day). Escalates the rate yearly, applies occupancy.
  BuildSale:   for-sale units. Escalates the total proceeds, spreads them
               across the sales window, reconciles rounding in the final month.

FAILURE MODE:
  Both builders reject a window whose end month precedes its start month
  with engine.ErrInvalidRange. Nothing else fails.

SEE ALSO:
  - engine/curve.go: occupancy and sell-through curves
  - scenario/calculate.go: aggregates lines into a scenario cash flow
*/
package revenue

import (
	"github.com/shopspring/decimal"

	"github.com/feasly/feasibility-engine/engine"
)

// DaysPerMonth is the average month length used to turn daily rates into
// monthly revenue.
const DaysPerMonth = "30.4167"

var daysPerMonth = decimal.RequireFromString(DaysPerMonth)

// =============================================================================
// RENTAL LINE
// =============================================================================

// RentalLine is a revenue line priced per unit per day.
type RentalLine struct {
	Name       string
	Units      decimal.Decimal // keys, rooms, or leasable units
	ADR        decimal.Decimal // average daily rate per unit
	Occupancy  decimal.Decimal // 0..1
	Window     engine.Window
	Escalation decimal.Decimal // annual, compounding on whole elapsed years

	// OccupancyCurve optionally replaces the flat occupancy. It is resampled
	// to the window length and clamped to [0, 1].
	OccupancyCurve []float64
}

// BuildRental returns the monthly rental revenue of line over a timeline of
// n months.
//
// For each active month the rate is escalated by the whole years elapsed
// since the window start, then multiplied by occupancy, units and
// DaysPerMonth and rounded to cents. Months outside the window are zero,
// and only months on the timeline are evaluated.
func BuildRental(line RentalLine, n int) (engine.Series, error) {
	if err := line.Window.Validate(); err != nil {
		return nil, err
	}

	out := engine.NewSeries(n)
	active, ok := line.Window.Clip(n)
	if !ok {
		return out, nil
	}

	count := line.Window.Count()
	base := line.Units.Mul(daysPerMonth)
	for m := active.Start; m <= active.End; m++ {
		rate := engine.Escalate(line.ADR, line.Escalation, line.Window.YearsElapsed(m))
		occ := line.Occupancy
		if len(line.OccupancyCurve) > 0 {
			occ = decimal.NewFromFloat(engine.OccupancyAt(line.OccupancyCurve, count, int(m-line.Window.Start)))
		}
		out.Set(m, engine.Round2(rate.Mul(occ).Mul(base)))
	}
	return out, nil
}
