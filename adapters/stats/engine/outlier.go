package engine

import (
	"fmt"
	"math"

	"fraudlens/domain/core"
	"fraudlens/domain/stats"
)

// iqrFence is the Tukey fence multiplier
const iqrFence = 1.5

// Percentile returns the p-th quantile (p in [0,1]) of an ascending slice,
// interpolating linearly between the neighbors of index p*(n-1).
// An empty slice yields 0.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	p = math.Max(0, math.Min(1, p))

	pos := p * float64(n-1)
	lower := math.Floor(pos)
	upper := math.Ceil(pos)
	if lower == upper {
		return sorted[int(pos)]
	}
	lo, hi := sorted[int(lower)], sorted[int(upper)]
	return stats.Domain{Min: lo, Max: hi}.Lerp(pos - lower)
}

// DetectOutliers classifies points by the IQR fences Q1-1.5*IQR and
// Q3+1.5*IQR. Points keep their input order within each partition.
func DetectOutliers(points []stats.OutlierPoint) (stats.OutlierResult, error) {
	if len(points) == 0 {
		return stats.OutlierResult{}, fmt.Errorf("%w: outlier detection needs at least one point", core.ErrInsufficientData)
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	sorted := sortedCopy(values)

	q1 := Percentile(sorted, 0.25)
	q3 := Percentile(sorted, 0.75)
	iqr := clampFinite(q3 - q1)
	bounds := stats.OutlierBounds{
		Q1:         q1,
		Median:     Percentile(sorted, 0.5),
		Q3:         q3,
		IQR:        iqr,
		LowerBound: clampFinite(q1 - iqrFence*iqr),
		UpperBound: clampFinite(q3 + iqrFence*iqr),
	}

	result := stats.OutlierResult{
		Bounds:      bounds,
		Outliers:    []stats.OutlierPoint{},
		NonOutliers: make([]stats.OutlierPoint, 0, len(points)),
	}
	for _, p := range points {
		if bounds.IsOutlier(p.Value) {
			result.Outliers = append(result.Outliers, p)
		} else {
			result.NonOutliers = append(result.NonOutliers, p)
		}
	}
	return result, nil
}

// clampFinite pins an overflowed result to the largest finite float64
func clampFinite(v float64) float64 {
	return math.Max(-math.MaxFloat64, math.Min(math.MaxFloat64, v))
}
