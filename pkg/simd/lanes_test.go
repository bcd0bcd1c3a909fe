package simd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleF = []float32{-2.5, -1.5, -0.5, 0, 0.5, 1.5, 2.5, 3.75, -7.25, 100, 1e-3, -1e-3, 42, 0.25, -0.75, 9}
var sampleG = []float32{1, -1.5, 2, 0.5, 0.5, -3, 2.5, 4, 8, -100, 2, 3, -42, 0.5, 0.75, 1}
var sampleI = []int32{0, 1, -1, 7, -8, 1 << 20, math.MaxInt32, math.MinInt32, 3, 4, 5, 6, -7, 15, 31, 2}

// checkBackend runs a fixed program through b and compares each result with
// the same program evaluated on plain scalars.
func checkBackend[F FloatLanes, I IntLanes](t *testing.T, b Lanes[F, I]) {
	t.Helper()
	w := b.Width()
	require.Equal(t, b.Level().Width(), w)

	x := b.LoadF(sampleF)
	y := b.LoadF(sampleG)
	n := b.LoadI(sampleI)

	for i := 0; i < w; i++ {
		fx, fy, ni := sampleF[i], sampleG[i], sampleI[i]

		assert.Equal(t, fx+fy, b.LaneF(b.AddF(x, y), i))
		assert.Equal(t, fx*fy, b.LaneF(b.MulF(x, y), i))
		assert.Equal(t, fx/fy, b.LaneF(b.DivF(x, y), i))
		assert.Equal(t, float32(math.Floor(float64(fx))), b.LaneF(b.FloorF(x), i))
		assert.Equal(t, float32(math.Ceil(float64(fx))), b.LaneF(b.CeilF(x), i))
		assert.Equal(t, float32(math.RoundToEven(float64(fx))), b.LaneF(b.RoundF(x), i))
		assert.Equal(t, float32(math.Abs(float64(fx))), b.LaneF(b.AbsF(x), i))
		assert.Equal(t, min(fx, fy), b.LaneF(b.MinF(x, y), i))
		assert.Equal(t, max(fx, fy), b.LaneF(b.MaxF(x, y), i))

		lt := b.LtF(x, y)
		assert.Equal(t, boolMask(fx < fy), b.LaneI(lt, i))
		want := fy
		if fx < fy {
			want = fx
		}
		assert.Equal(t, want, b.LaneF(b.SelectF(lt, x, y), i))

		masked := fx
		if fx < fy {
			masked += fy
		}
		assert.Equal(t, masked, b.LaneF(b.MaskedAddF(lt, x, y), i))
		nmasked := fx
		if !(fx < fy) {
			nmasked *= fy
		}
		assert.Equal(t, nmasked, b.LaneF(b.NMaskedMulF(lt, x, y), i))

		inc := ni
		if fx < fy {
			inc++
		}
		assert.Equal(t, inc, b.LaneI(b.MaskedIncrementI(lt, n), i))

		assert.Equal(t, ni<<3, b.LaneI(b.ShlI(n, 3), i))
		assert.Equal(t, int32(uint32(ni)>>3), b.LaneI(b.ShrI(n, 3), i))
		assert.Equal(t, ni>>3, b.LaneI(b.SarI(n, 3), i))
		assert.Equal(t, ni*0x27d4eb2d, b.LaneI(b.MulI(n, b.BroadcastI(0x27d4eb2d)), i))
		assert.Equal(t, int32(math.Float32bits(fx)), b.LaneI(b.CastFI(x), i))
		assert.Equal(t, float32(i), b.LaneF(b.IncrementedF(), i))
		assert.Equal(t, int32(i), b.LaneI(b.IncrementedI(), i))

		assert.InDelta(t, fx*fy+fx, b.LaneF(b.FMulAdd(x, y, x), i), 1e-2)
		assert.InDelta(t, fx-fx*fy, b.LaneF(b.FNMulAdd(x, y, x), i), 1e-2)
		if fx > 0 {
			assert.InDelta(t, 1/math.Sqrt(float64(fx)), b.LaneF(b.InvSqrtF(x), i), 1e-3)
		}
	}

	out := make([]float32, w+3)
	b.StoreF(out[:2], x)
	assert.Equal(t, sampleF[0], out[0])
	if w > 2 {
		assert.Zero(t, out[2], "store must not write past the destination")
	}

	partial := b.LoadF(sampleF[:1])
	for i := 1; i < w; i++ {
		assert.Zero(t, b.LaneF(partial, i))
	}
}

func TestLanesMatchScalarSemantics(t *testing.T) {
	t.Run("scalar", func(t *testing.T) { checkBackend(t, NewLanes[F32x1, I32x1](Scalar)) })
	t.Run("sse2", func(t *testing.T) { checkBackend(t, NewLanes[F32x4, I32x4](SSE2)) })
	t.Run("sse41", func(t *testing.T) { checkBackend(t, NewLanes[F32x4, I32x4](SSE41)) })
	t.Run("neon", func(t *testing.T) { checkBackend(t, NewLanes[F32x4, I32x4](NEON)) })
	t.Run("avx2", func(t *testing.T) { checkBackend(t, NewLanes[F32x8, I32x8](AVX2)) })
	t.Run("avx512", func(t *testing.T) { checkBackend(t, NewLanes[F32x16, I32x16](AVX512)) })
}

func TestNewLanesRejectsWidthMismatch(t *testing.T) {
	assert.Panics(t, func() { NewLanes[F32x4, I32x4](AVX2) })
}

func TestConvertRounding(t *testing.T) {
	b := NewLanes[F32x4, I32x4](SSE41)
	v := b.ConvertFI(b.LoadF([]float32{0.5, 1.5, -2.5, float32(math.NaN())}))
	assert.Equal(t, int32(0), b.LaneI(v, 0))
	assert.Equal(t, int32(2), b.LaneI(v, 1))
	assert.Equal(t, int32(-2), b.LaneI(v, 2))
	assert.Equal(t, int32(math.MinInt32), b.LaneI(v, 3))
}

func BenchmarkLanesFMulAdd(b *testing.B) {
	ops := NewLanes[F32x8, I32x8](AVX2)
	x := ops.LoadF(sampleF)
	y := ops.LoadF(sampleG)
	acc := ops.ZeroF()
	for i := 0; i < b.N; i++ {
		acc = ops.FMulAdd(x, y, acc)
	}
	_ = acc
}
