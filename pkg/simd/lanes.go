package simd

import (
	"fmt"
	"math"
)

// Lanes is the portable Backend implementation: each operation loops over a
// fixed-size array, which the compiler keeps in registers for the narrow
// widths. The level only changes the lane count and whether multiply-add pairs
// are fused.
type Lanes[F FloatLanes, I IntLanes] struct {
	level Level
	fused bool
}

// NewLanes returns the backend for level l. It panics if F and I do not match
// the width of l.
func NewLanes[F FloatLanes, I IntLanes](l Level) Lanes[F, I] {
	var f F
	var i I
	if len(f) != l.Width() || len(i) != l.Width() {
		panic(fmt.Sprintf("simd: lane types of width %d/%d do not match level %s", len(f), len(i), l))
	}
	return Lanes[F, I]{level: l, fused: l.FusedMultiplyAdd()}
}

func (b Lanes[F, I]) Level() Level { return b.level }

func (b Lanes[F, I]) Width() int {
	var f F
	return len(f)
}

func (b Lanes[F, I]) LoadF(src []float32) F {
	var r F
	n := min(len(r), len(src))
	for i := 0; i < n; i++ {
		r[i] = src[i]
	}
	return r
}

func (b Lanes[F, I]) StoreF(dst []float32, v F) {
	n := min(len(v), len(dst))
	for i := 0; i < n; i++ {
		dst[i] = v[i]
	}
}

func (b Lanes[F, I]) LoadI(src []int32) I {
	var r I
	n := min(len(r), len(src))
	for i := 0; i < n; i++ {
		r[i] = src[i]
	}
	return r
}

func (b Lanes[F, I]) StoreI(dst []int32, v I) {
	n := min(len(v), len(dst))
	for i := 0; i < n; i++ {
		dst[i] = v[i]
	}
}

func (b Lanes[F, I]) LaneF(v F, lane int) float32 { return v[lane] }
func (b Lanes[F, I]) LaneI(v I, lane int) int32   { return v[lane] }

func (b Lanes[F, I]) ZeroF() F {
	var r F
	return r
}

func (b Lanes[F, I]) ZeroI() I {
	var r I
	return r
}

func (b Lanes[F, I]) BroadcastF(x float32) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = x
	}
	return r
}

func (b Lanes[F, I]) BroadcastI(x int32) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x
	}
	return r
}

func (b Lanes[F, I]) IncrementedF() F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = float32(i)
	}
	return r
}

func (b Lanes[F, I]) IncrementedI() I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = int32(i)
	}
	return r
}

func (b Lanes[F, I]) CastFI(v F) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = int32(math.Float32bits(v[i]))
	}
	return r
}

func (b Lanes[F, I]) CastIF(v I) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = math.Float32frombits(uint32(v[i]))
	}
	return r
}

func (b Lanes[F, I]) ConvertFI(v F) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = roundToInt32(v[i])
	}
	return r
}

func (b Lanes[F, I]) ConvertIF(v I) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = float32(v[i])
	}
	return r
}

// roundToInt32 matches the hardware convert: round half to even, and the
// "integer indefinite" value for NaN or out of range inputs.
func roundToInt32(x float32) int32 {
	f := math.RoundToEven(float64(x))
	if f != f || f >= 2147483648 || f < -2147483648 {
		return math.MinInt32
	}
	return int32(f)
}

func (b Lanes[F, I]) AddF(x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = x[i] + y[i]
	}
	return r
}

func (b Lanes[F, I]) SubF(x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = x[i] - y[i]
	}
	return r
}

func (b Lanes[F, I]) MulF(x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = x[i] * y[i]
	}
	return r
}

func (b Lanes[F, I]) DivF(x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = x[i] / y[i]
	}
	return r
}

func (b Lanes[F, I]) NegF(x F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = -x[i]
	}
	return r
}

func (b Lanes[F, I]) AddI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] + y[i]
	}
	return r
}

func (b Lanes[F, I]) SubI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] - y[i]
	}
	return r
}

func (b Lanes[F, I]) MulI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] * y[i]
	}
	return r
}

func boolMask(c bool) int32 {
	if c {
		return -1
	}
	return 0
}

func (b Lanes[F, I]) EqF(x, y F) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = boolMask(x[i] == y[i])
	}
	return r
}

func (b Lanes[F, I]) NeF(x, y F) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = boolMask(x[i] != y[i])
	}
	return r
}

func (b Lanes[F, I]) LtF(x, y F) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = boolMask(x[i] < y[i])
	}
	return r
}

func (b Lanes[F, I]) LeF(x, y F) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = boolMask(x[i] <= y[i])
	}
	return r
}

func (b Lanes[F, I]) GtF(x, y F) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = boolMask(x[i] > y[i])
	}
	return r
}

func (b Lanes[F, I]) GeF(x, y F) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = boolMask(x[i] >= y[i])
	}
	return r
}

func (b Lanes[F, I]) EqI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = boolMask(x[i] == y[i])
	}
	return r
}

func (b Lanes[F, I]) LtI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = boolMask(x[i] < y[i])
	}
	return r
}

func (b Lanes[F, I]) GtI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = boolMask(x[i] > y[i])
	}
	return r
}

func (b Lanes[F, I]) SelectF(m I, x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		if m[i] != 0 {
			r[i] = x[i]
		} else {
			r[i] = y[i]
		}
	}
	return r
}

func (b Lanes[F, I]) SelectI(m I, x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = (m[i] & x[i]) | (^m[i] & y[i])
	}
	return r
}

func (b Lanes[F, I]) MinF(x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		if x[i] < y[i] {
			r[i] = x[i]
		} else {
			r[i] = y[i]
		}
	}
	return r
}

func (b Lanes[F, I]) MaxF(x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		if x[i] > y[i] {
			r[i] = x[i]
		} else {
			r[i] = y[i]
		}
	}
	return r
}

func (b Lanes[F, I]) MinI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = min(x[i], y[i])
	}
	return r
}

func (b Lanes[F, I]) MaxI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = max(x[i], y[i])
	}
	return r
}

func (b Lanes[F, I]) AndI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] & y[i]
	}
	return r
}

func (b Lanes[F, I]) OrI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] | y[i]
	}
	return r
}

func (b Lanes[F, I]) XorI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] ^ y[i]
	}
	return r
}

func (b Lanes[F, I]) NotI(x I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = ^x[i]
	}
	return r
}

func (b Lanes[F, I]) AndNotI(x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] &^ y[i]
	}
	return r
}

func (b Lanes[F, I]) AndF(x, y F) F { return b.CastIF(b.AndI(b.CastFI(x), b.CastFI(y))) }
func (b Lanes[F, I]) OrF(x, y F) F  { return b.CastIF(b.OrI(b.CastFI(x), b.CastFI(y))) }
func (b Lanes[F, I]) XorF(x, y F) F { return b.CastIF(b.XorI(b.CastFI(x), b.CastFI(y))) }
func (b Lanes[F, I]) AndNotF(x, y F) F {
	return b.CastIF(b.AndNotI(b.CastFI(x), b.CastFI(y)))
}

func (b Lanes[F, I]) ShlI(x I, n uint) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] << n
	}
	return r
}

func (b Lanes[F, I]) ShrI(x I, n uint) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = int32(uint32(x[i]) >> n)
	}
	return r
}

func (b Lanes[F, I]) SarI(x I, n uint) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] >> n
	}
	return r
}

func (b Lanes[F, I]) AbsF(x F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = math.Float32frombits(math.Float32bits(x[i]) &^ (1 << 31))
	}
	return r
}

func (b Lanes[F, I]) SqrtF(x F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = float32(math.Sqrt(float64(x[i])))
	}
	return r
}

// InvSqrtF and ReciprocalF are exact in this backend. Hardware backends may
// substitute approximations; kernels only rely on a relative error below 1e-3.
func (b Lanes[F, I]) InvSqrtF(x F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = float32(1 / math.Sqrt(float64(x[i])))
	}
	return r
}

func (b Lanes[F, I]) ReciprocalF(x F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = 1 / x[i]
	}
	return r
}

func (b Lanes[F, I]) FloorF(x F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = float32(math.Floor(float64(x[i])))
	}
	return r
}

func (b Lanes[F, I]) CeilF(x F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = float32(math.Ceil(float64(x[i])))
	}
	return r
}

func (b Lanes[F, I]) RoundF(x F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = float32(math.RoundToEven(float64(x[i])))
	}
	return r
}

func (b Lanes[F, I]) MaskedAddF(m I, x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = x[i]
		if m[i] != 0 {
			r[i] += y[i]
		}
	}
	return r
}

func (b Lanes[F, I]) MaskedSubF(m I, x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = x[i]
		if m[i] != 0 {
			r[i] -= y[i]
		}
	}
	return r
}

func (b Lanes[F, I]) MaskedMulF(m I, x, y F) F {
	var r F
	for i := 0; i < len(r); i++ {
		r[i] = x[i]
		if m[i] != 0 {
			r[i] *= y[i]
		}
	}
	return r
}

func (b Lanes[F, I]) NMaskedAddF(m I, x, y F) F { return b.MaskedAddF(b.NotI(m), x, y) }
func (b Lanes[F, I]) NMaskedSubF(m I, x, y F) F { return b.MaskedSubF(b.NotI(m), x, y) }
func (b Lanes[F, I]) NMaskedMulF(m I, x, y F) F { return b.MaskedMulF(b.NotI(m), x, y) }

func (b Lanes[F, I]) MaskedAddI(m I, x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] + (y[i] & m[i])
	}
	return r
}

func (b Lanes[F, I]) MaskedSubI(m I, x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i] - (y[i] & m[i])
	}
	return r
}

func (b Lanes[F, I]) MaskedMulI(m I, x, y I) I {
	var r I
	for i := 0; i < len(r); i++ {
		r[i] = x[i]
		if m[i] != 0 {
			r[i] *= y[i]
		}
	}
	return r
}

func (b Lanes[F, I]) NMaskedAddI(m I, x, y I) I { return b.MaskedAddI(b.NotI(m), x, y) }
func (b Lanes[F, I]) NMaskedSubI(m I, x, y I) I { return b.MaskedSubI(b.NotI(m), x, y) }
func (b Lanes[F, I]) NMaskedMulI(m I, x, y I) I { return b.MaskedMulI(b.NotI(m), x, y) }

// MaskedIncrementI adds one where m is set. A set mask lane is -1, so this is
// a subtraction.
func (b Lanes[F, I]) MaskedIncrementI(m I, x I) I { return b.SubI(x, m) }
func (b Lanes[F, I]) MaskedDecrementI(m I, x I) I { return b.AddI(x, m) }

func (b Lanes[F, I]) FMulAdd(x, y, z F) F {
	var r F
	if b.fused {
		for i := 0; i < len(r); i++ {
			r[i] = float32(math.FMA(float64(x[i]), float64(y[i]), float64(z[i])))
		}
		return r
	}
	for i := 0; i < len(r); i++ {
		r[i] = float32(x[i]*y[i]) + z[i]
	}
	return r
}

func (b Lanes[F, I]) FNMulAdd(x, y, z F) F {
	var r F
	if b.fused {
		for i := 0; i < len(r); i++ {
			r[i] = float32(math.FMA(-float64(x[i]), float64(y[i]), float64(z[i])))
		}
		return r
	}
	for i := 0; i < len(r); i++ {
		r[i] = z[i] - float32(x[i]*y[i])
	}
	return r
}
