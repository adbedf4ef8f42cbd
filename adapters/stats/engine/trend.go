package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"fraudlens/domain/core"
	"fraudlens/domain/stats"
)

// FitLinear fits an ordinary least-squares line through points.
//
// A single point yields a flat line through it. When every x is equal the
// slope is undefined; the fit degrades to a flat line at mean(y).
// x is scaled by its largest magnitude before summing, so points near the
// float64 limits fit without the sums overflowing.
func FitLinear(points []stats.Point) (stats.Regression, error) {
	n := len(points)
	if n == 0 {
		return stats.Regression{}, core.ErrInsufficientData
	}
	if n == 1 {
		return stats.Regression{Slope: 0, Intercept: points[0].Y}, nil
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	if floats.Min(xs) == floats.Max(xs) {
		return stats.Regression{Slope: 0, Intercept: floats.Sum(ys) / float64(n)}, nil
	}
	scale := math.Max(math.Abs(floats.Min(xs)), math.Abs(floats.Max(xs)))
	floats.Scale(1/scale, xs)

	fn := float64(n)
	sumX := floats.Sum(xs)
	sumY := floats.Sum(ys)
	sumXY := floats.Dot(xs, ys)
	sumXX := floats.Dot(xs, xs)

	denominator := fn*sumXX - sumX*sumX
	if denominator == 0 {
		return stats.Regression{Slope: 0, Intercept: sumY / fn}, nil
	}

	slope := (fn*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / fn
	return stats.Regression{Slope: slope / scale, Intercept: intercept}, nil
}

// TrendPoints maps bins to (midpoint, fraud ratio) pairs, dropping any pair
// that is not finite
func TrendPoints(bins []stats.Bin) []stats.Point {
	points := make([]stats.Point, 0, len(bins))
	for _, b := range bins {
		if !finite(b.XMid) || !finite(b.FraudRatio) {
			continue
		}
		points = append(points, stats.Point{X: b.XMid, Y: b.FraudRatio})
	}
	return points
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
