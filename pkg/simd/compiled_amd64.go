//go:build amd64 && !purego

package simd

// compiledLevels lists the levels built into this binary, narrowest first.
var compiledLevels = []Level{Scalar, SSE2, SSE41, AVX2, AVX512}
