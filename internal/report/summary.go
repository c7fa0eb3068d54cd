// Package report summarizes a completed fill: the intensity statistics of
// the region it painted, and an HTML page charting them.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/labelwand/internal/grid"
	"github.com/banshee-data/labelwand/internal/regiongrow"
)

// DefaultBins is the histogram resolution used when Summarize is given 0.
const DefaultBins = 16

// Bin is one histogram bucket, [Lo, Hi).
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Summary describes one fill.
type Summary struct {
	SeedValue float64 `json:"seed_value"`
	Lo        float64 `json:"band_lo"`
	Hi        float64 `json:"band_hi"`
	PixelsSet int     `json:"pixels_set"`
	Visited   int     `json:"visited"`
	CutoffHit bool    `json:"cutoff_hit"`

	// Statistics of the background under the changed coordinates.
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`

	Histogram []Bin `json:"histogram,omitempty"`

	// BoundsMin and BoundsMax enclose the changed coordinates.
	BoundsMin *grid.Coord `json:"bounds_min,omitempty"`
	BoundsMax *grid.Coord `json:"bounds_max,omitempty"`
}

// Summarize computes the statistics of res over bg. bins <= 0 uses
// DefaultBins.
func Summarize(bg grid.Reader, res *regiongrow.Result, bins int) Summary {
	s := Summary{
		SeedValue: res.SeedValue,
		Lo:        res.Lo,
		Hi:        res.Hi,
		PixelsSet: res.PixelsSet,
		Visited:   res.Visited,
		CutoffHit: res.CutoffHit,
	}
	if min, max, ok := res.Bounds(); ok {
		s.BoundsMin, s.BoundsMax = &min, &max
	}

	values := make([]float64, 0, len(res.Changes))
	for _, ch := range res.Changes {
		values = append(values, bg.At(ch.Coord))
	}
	if len(values) == 0 {
		return s
	}
	sort.Float64s(values)

	s.Min, s.Max = values[0], values[len(values)-1]
	s.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
	if len(values) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	} else {
		s.Mean = values[0]
	}

	if bins <= 0 {
		bins = DefaultBins
	}
	s.Histogram = histogram(values, res.Lo, res.Hi, bins)
	return s
}

// histogram buckets sorted values over [lo, hi], falling back to the data
// range when the band is not finite.
func histogram(sorted []float64, lo, hi float64, bins int) []Bin {
	if !finite(lo) || !finite(hi) {
		lo, hi = sorted[0], sorted[len(sorted)-1]
	}
	if !finite(lo) || !finite(hi) {
		return nil
	}
	if hi <= lo {
		bins = 1
	}

	dividers := make([]float64, bins+1)
	if hi > lo {
		floats.Span(dividers, lo, hi)
	} else {
		dividers[0], dividers[1] = lo, lo
	}
	// The last divider must be strictly above the largest value.
	dividers[bins] = math.Nextafter(dividers[bins], math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: int(counts[i])}
	}
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
