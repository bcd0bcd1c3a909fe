// Package simd provides the vector backends used by the noise kernels.
//
// A backend is a set of fixed-width float32/int32 lane operations
// (see Backend). Several widths are compiled into the binary, one per
// feature level, and the widest level supported by the running CPU is
// selected at run time using github.com/klauspost/cpuid/v2.
//
// The Scalar level (one lane) is always compiled and is the reference
// every wider level is tested against.
package simd

import (
	"fmt"
	"strings"
)

// Level identifies one vector instruction tier. Levels are bit flags so that
// a set of levels can be stored in a single value; their numeric order is the
// order used when a caller caps the level.
type Level uint32

const (
	// Auto requests the fastest level available.
	Auto Level = 0

	Scalar Level = 1 << iota
	SSE2
	SSE41
	AVX2
	AVX512
	NEON
)

// allLevels lists every known level from narrowest to widest.
var allLevels = []Level{Scalar, SSE2, SSE41, AVX2, AVX512, NEON}

var levelNames = map[Level]string{
	Auto:   "auto",
	Scalar: "scalar",
	SSE2:   "sse2",
	SSE41:  "sse41",
	AVX2:   "avx2",
	AVX512: "avx512",
	NEON:   "neon",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%#x)", uint32(l))
}

// Width returns the number of 32-bit lanes processed per operation.
func (l Level) Width() int {
	switch l {
	case Scalar:
		return 1
	case SSE2, SSE41, NEON:
		return 4
	case AVX2:
		return 8
	case AVX512:
		return 16
	}
	return 0
}

// FusedMultiplyAdd reports whether backends at this level contract
// multiply-add pairs into a single rounding step.
func (l Level) FusedMultiplyAdd() bool {
	return l == AVX2 || l == AVX512 || l == NEON
}

// ParseLevel converts a level name (case insensitive) into a Level.
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Auto, nil
	}
	for l, n := range levelNames {
		if n == name {
			return l, nil
		}
	}
	return Auto, fmt.Errorf("unknown feature level %q", name)
}

// MarshalText implements encoding.TextMarshaler so levels read naturally in
// YAML and JSON documents.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
