package analytics

import (
	"math"
	"slices"
)

// Quantile returns the p-quantile of values by linear interpolation between
// closest ranks (Hyndman-Fan type 7):
//
//	h = (n-1)p
//	Q = x[floor(h)] + (h - floor(h)) * (x[floor(h)+1] - x[floor(h)])
//
// on the ascending-sorted values. p is clamped to [0, 1]. An empty input yields 0.
func Quantile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := values
	if !slices.IsSorted(values) {
		sorted = slices.Clone(values)
		slices.Sort(sorted)
	}
	p = math.Max(0, math.Min(1, p))

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
