package simd

import "math"

//go:generate go run ./gen -stubs ./stubs_avo_amd64.go -out ./reduce_avo_amd64.s

// MinMaxFunc returns the smallest and largest value of a non-empty slice.
type MinMaxFunc func(v []float32) (lo, hi float32)

// minMaxImpl is replaced in init by an accelerated version when one is built
// in (see reduce_avo_amd64.go) and the CPU supports it.
var minMaxImpl MinMaxFunc = minMaxGo

// MinMax returns the range of v. An empty slice yields (+Inf, -Inf) so that the
// result can be merged with other ranges.
func MinMax(v []float32) (lo, hi float32) {
	if len(v) == 0 {
		return float32(math.Inf(1)), float32(math.Inf(-1))
	}
	return minMaxImpl(v)
}

func minMaxGo(v []float32) (lo, hi float32) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}
