package render

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/blas/gonum"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of a field's samples.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	RMS    float64 `json:"rms"`
	P05    float64 `json:"p05"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

var blasEngine = gonum.Implementation{}

// Summarize computes a Summary of data. An empty slice gives a zero Summary.
func Summarize(data []float32) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	xs := make([]float64, len(data))
	for i, v := range data {
		xs[i] = float64(v)
	}

	s := Summary{
		Count: len(xs),
		Min:   floats.Min(xs),
		Max:   floats.Max(xs),
	}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		s.StdDev = 0
	}
	s.RMS = math.Sqrt(float64(blasEngine.Sdot(len(data), data, 1, data, 1)) / float64(len(data)))

	sort.Float64s(xs)
	s.P05 = stat.Quantile(0.05, stat.Empirical, xs, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, xs, nil)
	return s
}

// Histogram counts data into bins equal-width buckets spanning [lo, hi].
// Samples outside the range are clamped into the edge buckets.
func Histogram(data []float32, bins int, lo, hi float64) []float64 {
	if bins <= 0 || !(hi > lo) {
		return nil
	}
	if len(data) == 0 {
		return make([]float64, bins)
	}
	xs := make([]float64, len(data))
	for i, v := range data {
		xs[i] = math.Min(math.Max(float64(v), lo), hi)
	}
	sort.Float64s(xs)
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	return stat.Histogram(nil, dividers, xs, nil)
}
