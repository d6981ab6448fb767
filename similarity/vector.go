package similarity

import (
	"fmt"
	"math"

	"github.com/poiesic/filehawk/core"
)

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v core.Vector) core.Vector {
	if len(v) == 0 {
		return v
	}

	magnitude := Magnitude(v)
	result := make(core.Vector, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// Centroid returns the element-wise mean of vectors.
// Empty vectors are skipped; mixed lengths fail with core.ErrDimensionMismatch.
// No non-empty vectors yields nil.
func Centroid(vectors []core.Vector) (core.Vector, error) {
	var sum []float64
	count := 0
	for i, v := range vectors {
		if len(v) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(v))
		} else if len(v) != len(sum) {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d",
				core.ErrDimensionMismatch, i, len(v), len(sum))
		}
		for j, val := range v {
			sum[j] += float64(val)
		}
		count++
	}
	if count == 0 {
		return nil, nil
	}
	centroid := make(core.Vector, len(sum))
	for j := range sum {
		centroid[j] = float32(sum[j] / float64(count))
	}
	return centroid, nil
}

// IsFinite reports whether every element of v is a finite number.
func IsFinite(v core.Vector) bool {
	for _, val := range v {
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
