package finance

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/feasly/feasibility-engine/engine"
)

// DebtFacility is a single drawn loan repaid in level monthly instalments.
type DebtFacility struct {
	Name               string
	Principal          decimal.Decimal
	AnnualRate         decimal.Decimal // nominal, divided by 12 for the monthly rate
	DrawMonth          engine.Month
	TermMonths         int // repayment months after any interest-only period
	InterestOnlyMonths int
}

// DebtSchedule holds the monthly series of one facility.
type DebtSchedule struct {
	Draws     engine.Series // positive inflow at the draw month
	Interest  engine.Series
	Principal engine.Series
	Balance   engine.Series // closing balance
}

// Service returns interest plus principal for every month.
func (s DebtSchedule) Service() engine.Series {
	return s.Interest.Add(s.Principal)
}

// Amortize builds the schedule of f on a timeline of n months.
//
// The facility is drawn in full at DrawMonth. Interest-only months follow,
// then TermMonths level payments P·r/(1−(1+r)^−k) (P/k at a zero rate).
// Interest and principal are rounded to cents and the final instalment
// clears the residual balance so total principal repaid equals the draw.
// Months past the horizon are dropped and never evaluated.
func Amortize(f DebtFacility, n int) (DebtSchedule, error) {
	sched := DebtSchedule{
		Draws:     engine.NewSeries(n),
		Interest:  engine.NewSeries(n),
		Principal: engine.NewSeries(n),
		Balance:   engine.NewSeries(n),
	}
	if f.TermMonths <= 0 {
		return sched, ErrInvalidTerm
	}
	if f.InterestOnlyMonths < 0 {
		f.InterestOnlyMonths = 0
	}

	monthly := f.AnnualRate.Div(decimal.NewFromInt(12))
	payment := levelPayment(f.Principal, monthly, f.TermMonths)

	sched.Draws.Set(f.DrawMonth, f.Principal)
	sched.Balance.Set(f.DrawMonth, f.Principal)

	balance := f.Principal
	m := f.DrawMonth + 1
	for i := 0; i < f.InterestOnlyMonths && int(m) < n; i, m = i+1, m+1 {
		sched.Interest.Set(m, engine.Round2(balance.Mul(monthly)))
		sched.Balance.Set(m, balance)
	}
	for k := 1; k <= f.TermMonths && int(m) < n; k, m = k+1, m+1 {
		interest := engine.Round2(balance.Mul(monthly))
		principal := payment.Sub(interest)
		if k == f.TermMonths || principal.GreaterThan(balance) {
			principal = balance
		}
		balance = balance.Sub(principal)

		sched.Interest.Set(m, interest)
		sched.Principal.Set(m, principal)
		sched.Balance.Set(m, balance)
		if balance.IsZero() {
			break
		}
	}
	return sched, nil
}

func levelPayment(principal, monthly decimal.Decimal, term int) decimal.Decimal {
	if monthly.IsZero() {
		return engine.Round2(principal.Div(decimal.NewFromInt(int64(term))))
	}
	r := monthly.InexactFloat64()
	p := principal.InexactFloat64()
	payment := p * (r / (1 - math.Pow(1+r, -float64(term))))
	return engine.Round2(decimal.NewFromFloat(payment))
}
