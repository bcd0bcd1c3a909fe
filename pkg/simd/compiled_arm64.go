//go:build arm64 && !purego

package simd

var compiledLevels = []Level{Scalar, NEON}
