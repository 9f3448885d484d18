/*
Package engine provides the core feasibility calculation primitives.

PURPOSE:
  This package contains the domain-agnostic types every calculator in the
  repository builds on. Revenue lines, cost lines and debt schedules all
  produce the same thing: a fixed-length monthly series of money values
  indexed by absolute project month.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money helpers: rounding and integer powers on decimal.Decimal
  - Series: a fixed-length monthly array, zero outside active windows
  - Identifiers: type-safe scenario IDs

DESIGN PRINCIPLES:
  1. Purity: every calculator is a function of its inputs
  2. Precision: decimal.Decimal so remainders reconcile to the cent
  3. Fixed length: a series always spans the whole timeline

USAGE:
  s := engine.NewSeries(24)
  s.Set(3, engine.Round2(decimal.NewFromInt(1500)))
  total := s.Sum()

SEE ALSO:
  - timeline.go: Month, Window and Timeline
  - curve.go: curve resampling and normalisation
  - errors.go: ErrInvalidRange and friends
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// CentPlaces is the number of decimal places monetary outputs are rounded to.
const CentPlaces = 2

var one = decimal.NewFromInt(1)

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(CentPlaces) }

// PowInt raises base to a non-negative integer power with exact decimal
// multiplication. Negative exponents are treated as zero.
func PowInt(base decimal.Decimal, exp int) decimal.Decimal {
	result := one
	for ; exp > 0; exp >>= 1 {
		if exp&1 == 1 {
			result = result.Mul(base)
		}
		if exp > 1 {
			base = base.Mul(base)
		}
	}
	return result
}

// Escalate compounds value by rate over whole years.
func Escalate(value, rate decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 || rate.IsZero() {
		return value
	}
	return value.Mul(PowInt(one.Add(rate), years))
}

// =============================================================================
// SERIES - Fixed-length monthly values
// =============================================================================

// Series is a monthly money series indexed by absolute project month.
type Series []decimal.Decimal

// NewSeries returns a zero-filled series of length n.
func NewSeries(n int) Series {
	if n < 0 {
		n = 0
	}
	s := make(Series, n)
	for i := range s {
		s[i] = decimal.Zero
	}
	return s
}

// SeriesFromFloats converts plain floats into a series.
func SeriesFromFloats(values []float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		s[i] = decimal.NewFromFloat(v)
	}
	return s
}

func (s Series) Len() int { return len(s) }

// At returns the value at month m, or zero when m is outside the series.
func (s Series) At(m Month) decimal.Decimal {
	if int(m) < 0 || int(m) >= len(s) {
		return decimal.Zero
	}
	return s[m]
}

// Set stores v at month m. Out-of-range months are ignored.
func (s Series) Set(m Month, v decimal.Decimal) {
	if int(m) < 0 || int(m) >= len(s) {
		return
	}
	s[m] = v
}

func (s Series) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s {
		total = total.Add(v)
	}
	return total
}

// Add returns s + other element-wise. The result has the length of s.
func (s Series) Add(other Series) Series {
	out := NewSeries(len(s))
	for i := range s {
		out[i] = s[i].Add(other.At(Month(i)))
	}
	return out
}

// Sub returns s - other element-wise. The result has the length of s.
func (s Series) Sub(other Series) Series {
	out := NewSeries(len(s))
	for i := range s {
		out[i] = s[i].Sub(other.At(Month(i)))
	}
	return out
}

func (s Series) Scale(factor decimal.Decimal) Series {
	out := NewSeries(len(s))
	for i := range s {
		out[i] = s[i].Mul(factor)
	}
	return out
}

func (s Series) Neg() Series {
	out := NewSeries(len(s))
	for i := range s {
		out[i] = s[i].Neg()
	}
	return out
}

// Cumulative returns the running total of s.
func (s Series) Cumulative() Series {
	out := NewSeries(len(s))
	running := decimal.Zero
	for i := range s {
		running = running.Add(s[i])
		out[i] = running
	}
	return out
}

// Min returns the smallest value and the month it first occurs at.
// An empty series returns (0, -1).
func (s Series) Min() (decimal.Decimal, Month) {
	if len(s) == 0 {
		return decimal.Zero, -1
	}
	minV, minM := s[0], Month(0)
	for i := 1; i < len(s); i++ {
		if s[i].LessThan(minV) {
			minV, minM = s[i], Month(i)
		}
	}
	return minV, minM
}

// Float64s converts the series for chart and export consumers.
func (s Series) Float64s() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v.InexactFloat64()
	}
	return out
}

// Strings renders every value with two decimal places.
func (s Series) Strings() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.StringFixed(CentPlaces)
	}
	return out
}

// Equal reports whether both series have the same length and values.
func (s Series) Equal(other Series) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ScenarioID string

type LineKind string

const (
	LineRental LineKind = "rental"
	LineSale   LineKind = "sale"
	LineCost   LineKind = "cost"
	LineDebt   LineKind = "debt"
)
