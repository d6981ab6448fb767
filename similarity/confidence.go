package similarity

import "math"

// Distance calibration breakpoints.
const (
	strongDistance = 0.4
	fairDistance   = 0.8
	weakDistance   = 1.2
)

// DistanceToConfidence maps a raw vector distance to a confidence in [0,1].
//
//	[0, 0.4]    -> [1.0, 0.9]
//	(0.4, 0.8]  -> [0.9, 0.3)
//	(0.8, 1.2]  -> [0.3, 0)
//	> 1.2       -> 0
//
// Each segment is linear and the curve is continuous at the breakpoints.
// Negative distances are treated as 0. NaN maps to 0.
func DistanceToConfidence(distance float64) float64 {
	switch {
	case math.IsNaN(distance):
		return 0
	case distance <= 0:
		return 1.0
	case distance <= strongDistance:
		return 0.9 + 0.1*(strongDistance-distance)/strongDistance
	case distance <= fairDistance:
		return 0.3 + 0.6*(fairDistance-distance)/(fairDistance-strongDistance)
	case distance <= weakDistance:
		return 0.3 * (weakDistance - distance) / (weakDistance - fairDistance)
	default:
		return 0
	}
}

// CosineDistance converts a cosine similarity into a distance in [0,2].
func CosineDistance(similarity float64) float64 {
	return 1 - similarity
}
