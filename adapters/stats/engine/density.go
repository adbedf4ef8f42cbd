package engine

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"fraudlens/domain/core"
	"fraudlens/domain/stats"
)

// DensityHistograms bins a and b on the same edges spanning the combined
// [min, max] of both series. Each density is count/len(series), so the two
// curves are comparable regardless of sample size.
func DensityHistograms(a, b []float64, binCount int) (stats.DensityHistogram, error) {
	if len(a) == 0 || len(b) == 0 {
		return stats.DensityHistogram{}, fmt.Errorf("%w: density histograms need two non-empty series",
			core.ErrInsufficientData)
	}
	if binCount < 1 {
		binCount = DefaultCompareBins
	}

	domain := stats.Domain{
		Min: floats.Min([]float64{floats.Min(a), floats.Min(b)}),
		Max: floats.Max([]float64{floats.Max(a), floats.Max(b)}),
	}
	if domain.Width() == 0 {
		binCount = 1
	}
	edges := partition(domain, binCount)

	return stats.DensityHistogram{
		Edges:    edges,
		DensityA: densities(a, edges),
		DensityB: densities(b, edges),
	}, nil
}

func densities(values []float64, edges []float64) []float64 {
	out := make([]float64, len(edges)-1)
	for _, v := range values {
		out[locate(edges, v)]++
	}
	total := float64(len(values))
	for i := range out {
		out[i] /= total
	}
	return out
}

// GaussianKDE evaluates a Gaussian kernel density estimate of values on
// gridSize evenly spaced points across domain:
//
//	density(x) = 1/(n*h) * sum K((x - xi)/h),  K = standard normal pdf
//
// The bandwidth h is taken as given.
func GaussianKDE(values []float64, domain stats.Domain, gridSize int, bandwidth float64) []stats.DensityPoint {
	if len(values) == 0 || gridSize < 1 {
		return nil
	}
	if bandwidth <= 0 {
		bandwidth = DefaultKDEBandwidth
	}

	scale := 1 / (float64(len(values)) * bandwidth)

	curve := make([]stats.DensityPoint, gridSize)
	for k := range curve {
		x := domain.Min
		if gridSize > 1 {
			x = domain.Lerp(float64(k) / float64(gridSize-1))
		}
		sum := 0.0
		for _, xi := range values {
			sum += distuv.UnitNormal.Prob((x - xi) / bandwidth)
		}
		curve[k] = stats.DensityPoint{X: x, Density: sum * scale}
	}
	return curve
}
