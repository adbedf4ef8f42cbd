package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"fraudlens/domain/core"
	domainstats "fraudlens/domain/stats"
)

// Series is the value/flag pair sequence of one variable, in original row
// order. Rows holds the source row index of each pair.
type Series struct {
	Variable string    `json:"variable"`
	Values   []float64 `json:"values"`
	Flags    []uint8   `json:"flags"`
	Rows     []int     `json:"rows"`
}

// ParseValue parses a numeric cell. Blank, malformed and non-finite cells
// are rejected.
func ParseValue(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseFlag parses a fraud flag cell; only 0 and 1 are accepted
func ParseFlag(cell string) (uint8, bool) {
	v, ok := ParseValue(cell)
	if !ok {
		return 0, false
	}
	switch v {
	case 0:
		return 0, true
	case 1:
		return 1, true
	}
	return 0, false
}

// Series extracts the variable's value/flag pairs from every row where both
// cells parse. It fails when the variable is unknown or when no row survives.
func (d *Dataset) Series(variable string) (Series, error) {
	if !d.HasVariable(variable) {
		return Series{}, core.NewNotFoundError(core.ErrVariableNotFound, variable)
	}

	s := Series{
		Variable: variable,
		Values:   make([]float64, 0, len(d.Rows)),
		Flags:    make([]uint8, 0, len(d.Rows)),
		Rows:     make([]int, 0, len(d.Rows)),
	}
	for i, row := range d.Rows {
		v, ok := ParseValue(row[variable])
		if !ok {
			continue
		}
		f, ok := ParseFlag(row[d.Columns.FraudFlag])
		if !ok {
			continue
		}
		s.Values = append(s.Values, v)
		s.Flags = append(s.Flags, f)
		s.Rows = append(s.Rows, i)
	}

	if len(s.Values) == 0 {
		return Series{}, core.NewNoValidDataError(variable)
	}
	return s, nil
}

// Len returns the number of valid pairs
func (s Series) Len() int {
	return len(s.Values)
}

// Domain returns [min, max] of the values
func (s Series) Domain() (domainstats.Domain, error) {
	if len(s.Values) == 0 {
		return domainstats.Domain{}, core.ErrInsufficientData
	}
	lo, err := stats.Min(s.Values)
	if err != nil {
		return domainstats.Domain{}, err
	}
	hi, err := stats.Max(s.Values)
	if err != nil {
		return domainstats.Domain{}, err
	}
	return domainstats.Domain{Min: lo, Max: hi}, nil
}

// FraudRate returns the mean flag over the whole series, 0 when empty
func (s Series) FraudRate() float64 {
	if len(s.Flags) == 0 {
		return 0
	}
	flags := make(stats.Float64Data, len(s.Flags))
	for i, f := range s.Flags {
		flags[i] = float64(f)
	}
	mean, err := flags.Mean()
	if err != nil {
		return 0
	}
	return mean
}

// Sorted returns an ascending copy of the values
func (s Series) Sorted() []float64 {
	out := make([]float64, len(s.Values))
	copy(out, s.Values)
	sort.Float64s(out)
	return out
}

// Split separates the values by flag into fraud (1) and legitimate (0)
func (s Series) Split() (fraud, legit []float64) {
	for i, v := range s.Values {
		if s.Flags[i] == 1 {
			fraud = append(fraud, v)
		} else {
			legit = append(legit, v)
		}
	}
	return fraud, legit
}

// Points returns the series as outlier points carrying flag and row index
func (s Series) Points() []domainstats.OutlierPoint {
	points := make([]domainstats.OutlierPoint, len(s.Values))
	for i, v := range s.Values {
		points[i] = domainstats.OutlierPoint{Value: v, Flag: s.Flags[i], Row: s.Rows[i]}
	}
	return points
}
