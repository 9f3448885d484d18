package engine

import "math"

// =============================================================================
// CURVES - Shape inputs for revenue timing
// =============================================================================

// CurveKind selects how a resampled curve is post-processed.
type CurveKind string

const (
	// CurveSellThrough is a distribution of unit absorption; it sums to 1.
	CurveSellThrough CurveKind = "sell_through"
	// CurveOccupancy is a per-month occupancy fraction in [0, 1].
	CurveOccupancy CurveKind = "occupancy"
)

// Resample maps curve onto n evenly spaced points by linear interpolation.
//
// A curve that already has n points is returned as an unchanged copy.
// An empty curve yields n zeros; a single point yields a constant curve.
func Resample(curve []float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	if len(curve) == n {
		copy(out, curve)
		return out
	}
	for i := range out {
		out[i] = ResampleAt(curve, n, i)
	}
	return out
}

// ResampleAt returns entry i of Resample(curve, n) without building the
// whole curve.
func ResampleAt(curve []float64, n, i int) float64 {
	switch {
	case len(curve) == 0 || i < 0 || i >= n:
		return 0
	case len(curve) == 1 || n == 1:
		return curve[0]
	case len(curve) == n:
		return curve[i]
	}

	last := len(curve) - 1
	step := float64(last) / float64(n-1)
	pos := float64(i) * step
	lo := int(pos)
	if lo >= last {
		return curve[last]
	}
	frac := pos - float64(lo)
	return curve[lo] + (curve[lo+1]-curve[lo])*frac
}

// NormalizeSellThrough scales curve so it sums to 1.
// Negative entries count as zero; an all-zero curve stays all zero.
func NormalizeSellThrough(curve []float64) []float64 {
	out := make([]float64, len(curve))
	sum := 0.0
	for i, v := range curve {
		if v > 0 {
			out[i] = v
			sum += v
		}
	}
	if sum == 0 {
		for i := range out {
			out[i] = 0
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// ClampOccupancy limits every entry to [0, 1].
func ClampOccupancy(curve []float64) []float64 {
	out := make([]float64, len(curve))
	for i, v := range curve {
		out[i] = clampUnit(v)
	}
	return out
}

// OccupancyAt returns entry i of the occupancy curve prepared for a window
// of n months.
func OccupancyAt(curve []float64, n, i int) float64 {
	return clampUnit(ResampleAt(curve, n, i))
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// PrepareCurve resamples curve to n points and applies the rule for kind.
// Unknown kinds are resampled only.
func PrepareCurve(kind CurveKind, curve []float64, n int) []float64 {
	resampled := Resample(curve, n)
	switch kind {
	case CurveSellThrough:
		return NormalizeSellThrough(resampled)
	case CurveOccupancy:
		return ClampOccupancy(resampled)
	default:
		return resampled
	}
}

// =============================================================================
// SELL-THROUGH - Lazily evaluated weights
// =============================================================================

// exactSumLimit is the window length up to which the weight total is
// summed point by point. Longer windows use the closed form per segment.
const exactSumLimit = 4096

// SellThrough is a sell-through curve stretched over a window of n months.
// Weight(i) equals PrepareCurve(CurveSellThrough, curve, n)[i], but the
// cost depends on the length of curve, not on n.
type SellThrough struct {
	curve []float64
	n     int
	sum   float64
}

// NewSellThrough prepares curve for a window of n months.
func NewSellThrough(curve []float64, n int) SellThrough {
	return SellThrough{curve: curve, n: n, sum: resampledPositiveSum(curve, n)}
}

// IsZero reports whether every weight is zero.
func (s SellThrough) IsZero() bool {
	return s.sum == 0 || math.IsNaN(s.sum) || math.IsInf(s.sum, 0)
}

// Weight returns the share of window month i.
func (s SellThrough) Weight(i int) float64 {
	if s.IsZero() {
		return 0
	}
	v := ResampleAt(s.curve, s.n, i)
	if !(v > 0) {
		return 0
	}
	return v / s.sum
}

// resampledPositiveSum returns the sum of the positive entries of
// Resample(curve, n).
func resampledPositiveSum(curve []float64, n int) float64 {
	switch {
	case n <= 0 || len(curve) == 0:
		return 0
	case len(curve) == 1:
		return float64(n) * positive(curve[0])
	case n == 1:
		return positive(curve[0])
	case n <= exactSumLimit:
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += positive(ResampleAt(curve, n, i))
		}
		return sum
	}

	// Within segment j the resampled value is linear in i, so each segment
	// is an arithmetic series over the indices whose position falls in it.
	last := len(curve) - 1
	step := float64(last) / float64(n-1)
	maxIndex := float64(n - 2)
	sum := positive(curve[last])
	lo := 0.0
	for j := 0; j < last && lo <= maxIndex; j++ {
		hi := math.Min(math.Ceil(float64(j+1)/step)-1, maxIndex)
		if j == last-1 {
			hi = maxIndex
		}
		if hi < lo {
			continue
		}
		a, b := curve[j], curve[j+1]
		sum += positiveLinearSum(a-(b-a)*float64(j), (b-a)*step, lo, hi)
		lo = hi + 1
	}
	return sum
}

// positiveLinearSum sums max(c0 + c1*i, 0) over the integers i in [lo, hi].
func positiveLinearSum(c0, c1, lo, hi float64) float64 {
	switch {
	case c1 > 0:
		lo = math.Max(lo, math.Floor(-c0/c1)+1)
	case c1 < 0:
		hi = math.Min(hi, math.Ceil(-c0/c1)-1)
	case c0 <= 0:
		return 0
	}
	if hi < lo {
		return 0
	}
	count := hi - lo + 1
	return count*c0 + c1*(lo+hi)*count/2
}

func positive(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
