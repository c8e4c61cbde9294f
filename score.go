package grader

import "math"

// Score curve constants. A RelRatio of 1 (parity with the baseline) maps to
// BaselineScore; every doubling of RelRatio adds PointsPerDoubling.
const (
	BaselineScore     = 75.0
	PointsPerDoubling = 15.0
)

// Direction tells whether a vehicle fails more or less often than the baseline.
type Direction string

// Direction values.
const (
	DirectionLess Direction = "less"
	DirectionMore Direction = "more"
)

// Score maps a relative complaint ratio to a reliability score.
// Non-positive and NaN ratios score 0. No upper clamp is applied.
func Score(relRatio float64) float64 {
	if !(relRatio > 0) {
		return 0
	}
	return BaselineScore + PointsPerDoubling*math.Log2(relRatio)
}

// Magnitude derives the displayed failure factor and its direction from a ratio.
// The factor is always >= 1. A nil, NaN or non-positive ratio yields (nil, nil).
func Magnitude(relRatio *float64) (*float64, *Direction) {
	if relRatio == nil || !(*relRatio > 0) {
		return nil, nil
	}
	r := *relRatio
	if r >= 1 {
		d := DirectionLess
		return &r, &d
	}
	y := 1 / r
	d := DirectionMore
	return &y, &d
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round1Ptr rounds a nullable value, keeping nil as nil.
func round1Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round1(*v)
	return &r
}
