package revenue

import (
	"github.com/shopspring/decimal"

	"github.com/feasly/feasibility-engine/engine"
)

// =============================================================================
// SALE LINE
// =============================================================================

// SaleLine is a revenue line of units sold over a window.
type SaleLine struct {
	Name         string
	Units        decimal.Decimal
	PricePerUnit decimal.Decimal
	Window       engine.Window
	Escalation   decimal.Decimal // annual, applied over the whole-year span

	// SellThrough optionally shapes the spread. It is resampled to the window
	// length and normalised to sum to 1.
	SellThrough []float64
}

// EscalatedTotal returns units × price × (1 + escalation)^spanYears.
func (l SaleLine) EscalatedTotal() decimal.Decimal {
	return engine.Escalate(l.Units.Mul(l.PricePerUnit), l.Escalation, l.Window.SpanYears())
}

// BuildSale returns the monthly sale revenue of line over a timeline of n
// months.
//
// The escalated total is spread across the inclusive window, each month
// rounded to cents, and the rounding difference is pushed into the final
// window month so the window sums to the escalated total exactly. Window
// months beyond the timeline are dropped.
func BuildSale(line SaleLine, n int) (engine.Series, error) {
	if err := line.Window.Validate(); err != nil {
		return nil, err
	}
	return Spread(line.EscalatedTotal(), line.Window, line.SellThrough, n), nil
}

// Spread distributes total across w on a timeline of n months.
//
// Without a sell-through curve, or with one that is all zero, every month
// gets an even share; otherwise the curve is resampled to the window and
// normalised. Shares are rounded to cents and the final window month
// absorbs the remainder. Only months on the timeline are evaluated, so the
// work is bounded by n however far the window runs. The caller validates w.
func Spread(total decimal.Decimal, w engine.Window, sellThrough []float64, n int) engine.Series {
	out := engine.NewSeries(n)
	count := w.Count()
	visible, ok := w.Clip(n)
	if count == 0 || !ok {
		return out
	}

	var weights engine.SellThrough
	weighted := false
	if len(sellThrough) > 0 {
		weights = engine.NewSellThrough(sellThrough, count)
		weighted = !weights.IsZero()
	}
	even := engine.Round2(total.Div(decimal.NewFromInt(int64(count))))
	share := func(i int) decimal.Decimal {
		if !weighted {
			return even
		}
		return engine.Round2(total.Mul(decimal.NewFromFloat(weights.Weight(i))))
	}

	lastVisible := int(w.End) < n
	allocated := decimal.Zero
	visibleWeight := 0.0
	for m := visible.Start; m <= visible.End; m++ {
		i := int(m - w.Start)
		if weighted {
			visibleWeight += weights.Weight(i)
		}
		if m == w.End {
			continue
		}
		s := share(i)
		out.Set(m, s)
		allocated = allocated.Add(s)
	}
	if !lastVisible {
		return out
	}

	// Months before month 0 are dropped but still count towards the
	// remainder.
	if hidden := int(visible.Start - w.Start); hidden > 0 {
		if weighted {
			allocated = allocated.Add(engine.Round2(total.Mul(decimal.NewFromFloat(1 - visibleWeight))))
		} else {
			allocated = allocated.Add(even.Mul(decimal.NewFromInt(int64(hidden))))
		}
	}
	// No cent lost: the last month takes whatever is left.
	out.Set(w.End, total.Sub(allocated))
	return out
}
