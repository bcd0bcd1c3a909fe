//go:build (!amd64 && !arm64) || purego

package simd

var compiledLevels = []Level{Scalar}
