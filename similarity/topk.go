package similarity

import (
	"math"
	"slices"
)

// Soft top-k defaults.
const (
	DefaultTopK  = 3
	DefaultAlpha = 2.0
)

// SoftTopKMean sorts scores descending, keeps the first k, and returns their
// mean weighted by exp(-alpha*rank). An empty input or k < 1 yields 0.
// The input slice is not modified.
func SoftTopKMean(scores []float64, k int, alpha float64) float64 {
	if len(scores) == 0 || k < 1 {
		return 0
	}
	sorted := slices.Clone(scores)
	slices.SortFunc(sorted, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	if k > len(sorted) {
		k = len(sorted)
	}

	var sum, weights float64
	for i := 0; i < k; i++ {
		w := math.Exp(-alpha * float64(i))
		sum += w * sorted[i]
		weights += w
	}
	return sum / weights
}

// AdaptiveTopK returns min(3, ceil(0.3*n)), with a floor of 1 for n > 0.
// Small files are not penalized for lacking three distinct chunks.
func AdaptiveTopK(n int) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Ceil(0.3 * float64(n)))
	return max(1, min(DefaultTopK, k))
}
