package search

import (
	"fmt"
	"math"

	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
)

// MaxBoost bounds each multiplicative boost accepted by Calibrate.
const MaxBoost = 0.3

// Calibrate turns a composite score into a confidence percentage:
// composite*(1+filenameBoost)*(1+exactTermBoost), clamped to [0,1] and
// rounded. Boosts outside [0, MaxBoost] or NaN inputs fail with
// core.ErrPreconditionViolation.
func Calibrate(breakdown core.ScoreBreakdown, filenameBoost, exactTermBoost float64) (int, error) {
	conf, err := calibrate(breakdown.Composite, filenameBoost, exactTermBoost)
	if err != nil {
		return 0, err
	}
	return Percent(conf), nil
}

// CalibrateDistance is Calibrate for a raw cosine distance: the distance
// is mapped through similarity.DistanceToConfidence first.
func CalibrateDistance(distance, filenameBoost, exactTermBoost float64) (int, error) {
	if math.IsNaN(distance) {
		return 0, fmt.Errorf("%w: distance is NaN", core.ErrPreconditionViolation)
	}
	conf, err := calibrate(similarity.DistanceToConfidence(distance), filenameBoost, exactTermBoost)
	if err != nil {
		return 0, err
	}
	return Percent(conf), nil
}

// Percent rounds a [0,1] confidence to the nearest integer percentage.
func Percent(confidence float64) int {
	return int(math.Round(similarity.Clamp01(confidence) * 100))
}

func calibrate(base, filenameBoost, exactTermBoost float64) (float64, error) {
	if math.IsNaN(base) {
		return 0, fmt.Errorf("%w: composite is NaN", core.ErrPreconditionViolation)
	}
	if err := checkBoost("filename", filenameBoost); err != nil {
		return 0, err
	}
	if err := checkBoost("exact term", exactTermBoost); err != nil {
		return 0, err
	}
	conf := similarity.Clamp01(base)
	conf *= 1 + filenameBoost
	conf *= 1 + exactTermBoost
	return similarity.Clamp01(conf), nil
}

func checkBoost(name string, boost float64) error {
	if math.IsNaN(boost) || boost < 0 || boost > MaxBoost {
		return fmt.Errorf("%w: %s boost %v outside [0, %v]", core.ErrPreconditionViolation, name, boost, MaxBoost)
	}
	return nil
}
