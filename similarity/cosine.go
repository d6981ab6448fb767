package similarity

import (
	"fmt"

	"github.com/poiesic/filehawk/core"
	"github.com/viant/vec/search"
)

// CosineSimilarity returns dot(a,b)/(|a|*|b|).
// Vectors of unequal length fail with core.ErrDimensionMismatch. A zero
// magnitude on either side yields 0.
func CosineSimilarity(a, b core.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", core.ErrDimensionMismatch, len(a), len(b))
	}
	va := search.Float32s(a)
	if va.Magnitude() == 0 || search.Float32s(b).Magnitude() == 0 {
		return 0, nil
	}
	return clamp(1-float64(va.CosineDistance([]float32(b))), -1, 1), nil
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v core.Vector) float64 {
	if len(v) == 0 {
		return 0
	}
	return float64(search.Float32s(v).Magnitude())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v != v {
		return 0
	}
	return clamp(v, 0, 1)
}
