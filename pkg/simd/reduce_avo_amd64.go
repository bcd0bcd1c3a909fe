//go:build avo && amd64 && !purego

package simd

import (
	"log/slog"

	"github.com/klauspost/cpuid/v2"
)

// MinMaxAVX2 is declared in the generated stubs_avo_amd64.go; run
// `go generate ./pkg/simd` before building with -tags avo.

func init() {
	if cpuid.CPU.Supports(cpuid.AVX2) {
		minMaxImpl = MinMaxAVX2
		slog.Info("[SIMD] range reduction: using AVO/AVX2 kernel")
	}
}
