package engine

import (
	"fmt"
	"math"
	"sort"

	"fraudlens/domain/core"
	"fraudlens/domain/stats"
)

// KSTest computes the two-sample Kolmogorov-Smirnov statistic D, the largest
// gap between the empirical CDFs of a and b, with an asymptotic p-value.
//
// Both series are walked in ascending order; on equal values both indices
// advance together.
func KSTest(a, b []float64) (stats.Comparison, error) {
	if len(a) == 0 || len(b) == 0 {
		return stats.Comparison{}, fmt.Errorf("%w: KS test needs two non-empty series (got %d and %d)",
			core.ErrInsufficientData, len(a), len(b))
	}

	sa := sortedCopy(a)
	sb := sortedCopy(b)
	na, nb := float64(len(sa)), float64(len(sb))

	d := 0.0
	i, j := 0, 0
	for i < len(sa) && j < len(sb) {
		switch {
		case sa[i] < sb[j]:
			i++
		case sb[j] < sa[i]:
			j++
		default:
			i++
			j++
		}
		if gap := math.Abs(float64(i)/na - float64(j)/nb); gap > d {
			d = gap
		}
	}

	return stats.Comparison{
		Statistic: d,
		PValue:    ksPValue(d, len(a), len(b)),
		SizeA:     len(a),
		SizeB:     len(b),
	}, nil
}

// ksPValue approximates the KS p-value from D and the effective sample size
func ksPValue(d float64, sizeA, sizeB int) float64 {
	if d == 0 {
		return 1
	}
	n := float64(sizeA) * float64(sizeB) / float64(sizeA+sizeB)
	root := math.Sqrt(n)
	x := d*root + 0.12 + 0.11/root

	var p float64
	if x < 1.18 {
		p = 1 - 0.627*math.Exp(-1.2*x*x)
	} else {
		p = 2 * math.Exp(-2*x*x)
	}
	return math.Max(0, math.Min(1, p))
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
