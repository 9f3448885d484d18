// Package finance provides discounting, internal rate of return and debt
// amortisation over monthly cash flows.
package finance

import (
	"errors"
	"math"
)

var (
	// ErrNoIRR is returned when a cash flow has no sign change or the
	// solver does not converge.
	ErrNoIRR = errors.New("irr: no solution")

	// ErrInvalidTerm is returned for debt facilities with a non-positive term.
	ErrInvalidTerm = errors.New("invalid debt term: must be positive")
)

const (
	irrTolerance     = 1e-10
	irrMaxIterations = 200
	irrLowerBound    = -0.9999
	irrUpperBound    = 10.0
)

// MonthlyRate converts an annual effective rate into its monthly equivalent.
func MonthlyRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/12) - 1
}

// Annualize converts a monthly rate into an annual effective rate.
func Annualize(monthly float64) float64 {
	return math.Pow(1+monthly, 12) - 1
}

// NPV discounts flows at rate per period. flows[0] is undiscounted.
func NPV(rate float64, flows []float64) float64 {
	total := 0.0
	factor := 1.0
	for _, f := range flows {
		total += f / factor
		factor *= 1 + rate
	}
	return total
}

func npvDerivative(rate float64, flows []float64) float64 {
	total := 0.0
	for t, f := range flows {
		if t == 0 {
			continue
		}
		total -= float64(t) * f / math.Pow(1+rate, float64(t+1))
	}
	return total
}

// IRR returns the periodic rate at which NPV of flows is zero.
//
// Newton's method runs first from a 1% guess; when it leaves the bracket
// or stalls, bisection over [-0.9999, 10] takes over.
func IRR(flows []float64) (float64, error) {
	if !hasSignChange(flows) {
		return 0, ErrNoIRR
	}

	rate := 0.01
	for i := 0; i < irrMaxIterations; i++ {
		v := NPV(rate, flows)
		if math.Abs(v) < irrTolerance {
			return rate, nil
		}
		d := npvDerivative(rate, flows)
		if d == 0 || math.IsNaN(d) {
			break
		}
		next := rate - v/d
		if next <= irrLowerBound || next >= irrUpperBound || math.IsNaN(next) {
			break
		}
		if math.Abs(next-rate) < irrTolerance {
			return next, nil
		}
		rate = next
	}

	return bisect(flows)
}

func bisect(flows []float64) (float64, error) {
	lo, hi := irrLowerBound, irrUpperBound
	fLo, fHi := NPV(lo, flows), NPV(hi, flows)
	if math.IsNaN(fLo) || math.IsNaN(fHi) || fLo*fHi > 0 {
		return 0, ErrNoIRR
	}
	for i := 0; i < irrMaxIterations; i++ {
		mid := (lo + hi) / 2
		fMid := NPV(mid, flows)
		if math.Abs(fMid) < irrTolerance || (hi-lo)/2 < irrTolerance {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return 0, ErrNoIRR
}

func hasSignChange(flows []float64) bool {
	var pos, neg bool
	for _, f := range flows {
		if f > 0 {
			pos = true
		} else if f < 0 {
			neg = true
		}
	}
	return pos && neg
}

// Payback returns the first period from which the cumulative flow stays
// non-negative, or -1 when it never recovers.
func Payback(flows []float64) int {
	cum := 0.0
	month := -1
	for t, f := range flows {
		cum += f
		if cum >= 0 {
			if month == -1 {
				month = t
			}
		} else {
			month = -1
		}
	}
	return month
}
