package simd

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

func init() {
	if !IsCompiled(Scalar) {
		// Nothing can be instantiated without the fallback; this is a build
		// misconfiguration, not a runtime condition.
		panic("simd: scalar fallback level is not compiled in")
	}
}

var (
	detectOnce    sync.Once
	supportedMask Level
	maxSupported  Level
)

// DetectMaxSupportedLevel probes the CPU once and returns the widest
// compiled-or-not level it supports. Subsequent calls return the cached value.
func DetectMaxSupportedLevel() Level {
	detectOnce.Do(func() {
		supportedMask = probe()
		for _, l := range allLevels {
			if supportedMask&l != 0 && (maxSupported == Auto || l > maxSupported) {
				maxSupported = l
			}
		}
		slog.Info("[SIMD] CPU feature probe complete",
			"max_level", maxSupported,
			"cpu", cpuid.CPU.BrandName,
			"compiled", CompiledLevels())
	})
	return maxSupported
}

// probe maps cpuid features to the set of levels the CPU can execute.
func probe() Level {
	mask := Scalar
	if cpuid.CPU.Supports(cpuid.SSE2) {
		mask |= SSE2
		if cpuid.CPU.Supports(cpuid.SSE4) {
			mask |= SSE41
			if cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3) {
				mask |= AVX2
				if cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ) {
					mask |= AVX512
				}
			}
		}
	}
	if cpuid.CPU.Supports(cpuid.ASIMD) {
		mask |= NEON
	}
	return mask
}

// Supported reports whether the running CPU can execute the given level.
func Supported(l Level) bool {
	DetectMaxSupportedLevel()
	return l != Auto && supportedMask&l != 0
}

// CompiledLevels returns the levels built into this binary, narrowest first.
func CompiledLevels() []Level {
	return slices.Clone(compiledLevels)
}

// IsCompiled reports whether a backend for l is built into this binary.
func IsCompiled(l Level) bool {
	return slices.Contains(compiledLevels, l)
}

// Resolve picks the widest level that is compiled, supported by the CPU and,
// unless requested is Auto, not above requested. The boolean is false when no
// level qualifies; callers must not treat that as a silent downgrade.
func Resolve(requested Level) (Level, bool) {
	DetectMaxSupportedLevel()
	return resolve(requested, compiledLevels, supportedMask)
}

func resolve(requested Level, compiled []Level, supported Level) (Level, bool) {
	best := Auto
	for _, l := range compiled {
		if supported&l == 0 {
			continue
		}
		if requested != Auto && l > requested {
			continue
		}
		if l > best {
			best = l
		}
	}
	return best, best != Auto
}
