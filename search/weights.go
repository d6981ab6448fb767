package search

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/poiesic/filehawk/core"
)

// weightTolerance is how far a weight sum may drift from 1.
const weightTolerance = 1e-6

// ScoringWeights blend the five Stage 2 components into the composite score.
type ScoringWeights struct {
	Max      float64
	TopK     float64
	Centroid float64
	BM25     float64
	Length   float64
}

// DefaultWeights returns 0.40/0.25/0.20/0.10/0.05.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		Max:      0.40,
		TopK:     0.25,
		Centroid: 0.20,
		BM25:     0.10,
		Length:   0.05,
	}
}

var presets = map[string]ScoringWeights{
	"default":    DefaultWeights(),
	"precise":    {Max: 0.60, TopK: 0.20, Centroid: 0.15, BM25: 0.05},
	"contextual": {Max: 0.30, TopK: 0.35, Centroid: 0.30, BM25: 0.05},
	"balanced":   {Max: 0.35, TopK: 0.30, Centroid: 0.25, BM25: 0.10},
	"semantic":   {Max: 0.25, TopK: 0.25, Centroid: 0.45, BM25: 0.05},
}

// WeightsPreset returns the named weight preset.
func WeightsPreset(name string) (ScoringWeights, error) {
	w, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ScoringWeights{}, fmt.Errorf("%w: unknown preset %q", core.ErrInvalidWeights, name)
	}
	return w, nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Sum returns the total of all weights.
func (w ScoringWeights) Sum() float64 {
	return w.Max + w.TopK + w.Centroid + w.BM25 + w.Length
}

// Validate checks that every weight is finite and non-negative and that the
// weights sum to 1 within tolerance.
func (w ScoringWeights) Validate() error {
	for _, v := range []float64{w.Max, w.TopK, w.Centroid, w.BM25, w.Length} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight %v out of range", core.ErrInvalidWeights, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.6f", core.ErrInvalidWeights, sum)
	}
	return nil
}
