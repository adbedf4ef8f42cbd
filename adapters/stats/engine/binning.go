package engine

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"fraudlens/domain/core"
	domainstats "fraudlens/domain/stats"
)

// ComputeBins partitions domain into binCount equal-width intervals and
// reports, per interval, how many values fall in it and how its fraud rate
// compares to the fraud rate of the whole series.
//
// The baseline is the mean of all flags, including values outside domain:
// zooming into a sub-range changes the bins, never the baseline. Values
// outside domain are excluded from every bin.
//
// An empty series yields no bins. A zero-width domain yields a single bin
// holding the values equal to domain.Min.
func ComputeBins(values []float64, flags []uint8, domain domainstats.Domain, binCount int) ([]domainstats.Bin, error) {
	if len(values) != len(flags) {
		return nil, fmt.Errorf("%w: %d values but %d flags", core.ErrInvalidInput, len(values), len(flags))
	}
	if binCount < 1 {
		return nil, fmt.Errorf("%w: bin count must be positive, got %d", core.ErrInvalidInput, binCount)
	}
	if !domain.Valid() {
		return nil, fmt.Errorf("%w: domain [%v, %v]", core.ErrInvalidInput, domain.Min, domain.Max)
	}
	if len(values) == 0 {
		return nil, nil
	}

	if domain.Width() == 0 {
		binCount = 1
	}
	edges := partition(domain, binCount)
	bins := make([]domainstats.Bin, binCount)
	for i := range bins {
		bins[i].X0 = edges[i]
		bins[i].X1 = edges[i+1]
		bins[i].XMid = domainstats.Domain{Min: edges[i], Max: edges[i+1]}.Mid()
	}

	for i, v := range values {
		if !domain.Contains(v) {
			continue
		}
		b := locate(edges, v)
		bins[b].Count++
		bins[b].FraudCount += int(flags[i])
	}

	overall := overallFraudRate(flags)
	for i := range bins {
		if bins[i].Count == 0 {
			continue
		}
		bins[i].FraudRate = float64(bins[i].FraudCount) / float64(bins[i].Count)
		if overall > 0 {
			bins[i].FraudRatio = bins[i].FraudRate / overall
		}
	}
	return bins, nil
}

// partition returns binCount+1 ascending edges. Interior edges are computed
// once and shared by adjacent bins, and the last edge is domain.Max itself.
// Edges are interpolated from the bounds, so a domain whose width overflows
// still yields finite edges.
func partition(domain domainstats.Domain, binCount int) []float64 {
	edges := make([]float64, binCount+1)
	for i := 0; i < binCount; i++ {
		edges[i] = domain.Lerp(float64(i) / float64(binCount))
	}
	edges[binCount] = domain.Max
	return edges
}

// locate returns the bin index of v, which must lie in [edges[0], edges[n]].
// Bins are half-open except the last.
func locate(edges []float64, v float64) int {
	n := len(edges) - 1
	step := edges[n]/float64(n) - edges[0]/float64(n)
	idx := n - 1
	if step > 0 && !math.IsInf(step, 0) {
		idx = int(v/step - edges[0]/step)
	}
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	// floating point can land one bin off near an edge
	for idx > 0 && v < edges[idx] {
		idx--
	}
	for idx < n-1 && v >= edges[idx+1] {
		idx++
	}
	return idx
}

func overallFraudRate(flags []uint8) float64 {
	if len(flags) == 0 {
		return 0
	}
	data := make(stats.Float64Data, len(flags))
	for i, f := range flags {
		data[i] = float64(f)
	}
	mean, err := data.Mean()
	if err != nil {
		return 0
	}
	return mean
}
