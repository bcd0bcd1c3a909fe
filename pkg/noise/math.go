package noise

import (
	"math"

	"github.com/sanonone/noisegraph/pkg/simd"
)

// Lattice hashing primes, one per axis.
const (
	primeX int32 = 501125321
	primeY int32 = 1136930381
	primeZ int32 = 1720413743
	primeW int32 = 1066037191

	hashMul int32 = 0x27d4eb2d
)

const (
	sqrt2 = 1.4142135623730950488
	twoPi = 2 * math.Pi
)

// hash2 mixes a seed with lattice coordinates already multiplied by their
// primes.
func hash2[F, I any](o simd.Backend[F, I], seed, x, y I) I {
	h := o.XorI(seed, o.XorI(x, y))
	return o.MulI(h, o.BroadcastI(hashMul))
}

func hash3[F, I any](o simd.Backend[F, I], seed, x, y, z I) I {
	h := o.XorI(o.XorI(seed, x), o.XorI(y, z))
	return o.MulI(h, o.BroadcastI(hashMul))
}

func hash4[F, I any](o simd.Backend[F, I], seed, x, y, z, w I) I {
	h := o.XorI(o.XorI(seed, x), o.XorI(o.XorI(y, z), w))
	return o.MulI(h, o.BroadcastI(hashMul))
}

// valueOf maps an unmixed lattice hash to a float in [-1, 1).
func valueOf[F, I any](o simd.Backend[F, I], h I) F {
	h = o.MulI(o.MulI(h, h), o.BroadcastI(hashMul))
	return o.MulF(o.ConvertIF(h), o.BroadcastF(1.0/2147483648.0))
}

func valueCoord2[F, I any](o simd.Backend[F, I], seed, x, y I) F {
	return valueOf(o, o.XorI(seed, o.XorI(x, y)))
}

func valueCoord3[F, I any](o simd.Backend[F, I], seed, x, y, z I) F {
	return valueOf(o, o.XorI(o.XorI(seed, x), o.XorI(y, z)))
}

func valueCoord4[F, I any](o simd.Backend[F, I], seed, x, y, z, w I) F {
	return valueOf(o, o.XorI(o.XorI(seed, x), o.XorI(o.XorI(y, z), w)))
}

func lerp[F, I any](o simd.Backend[F, I], a, b, t F) F {
	return o.FMulAdd(t, o.SubF(b, a), a)
}

// mulAddUnfused is a*b + c with the product rounded first on every level.
// Coordinates handed to sources are built with it so kernels that hash
// coordinate bits see identical inputs at every level.
func mulAddUnfused[F, I any](o simd.Backend[F, I], a, b, c F) F {
	return o.AddF(o.MulF(a, b), c)
}

// hermite is 3t^2 - 2t^3.
func hermite[F, I any](o simd.Backend[F, I], t F) F {
	return o.MulF(o.MulF(t, t), o.FNMulAdd(t, o.BroadcastF(2), o.BroadcastF(3)))
}

// quintic is 6t^5 - 15t^4 + 10t^3.
func quintic[F, I any](o simd.Backend[F, I], t F) F {
	inner := o.FMulAdd(t, o.FMulAdd(t, o.BroadcastF(6), o.BroadcastF(-15)), o.BroadcastF(10))
	return o.MulF(o.MulF(o.MulF(t, t), t), inner)
}

// signBit returns the IEEE sign bit of each lane as a float bit pattern.
func signBit[F, I any](o simd.Backend[F, I]) F {
	return o.CastIF(o.BroadcastI(math.MinInt32))
}

// flipSign negates a where the low bit selected by bit is set in h.
func flipSign[F, I any](o simd.Backend[F, I], a F, h I, bit uint) F {
	return o.XorF(a, o.CastIF(o.AndI(o.ShlI(h, 31-bit), o.BroadcastI(math.MinInt32))))
}

// gradDot2 picks one of eight gradients of length (1+sqrt2, 1) from h and
// dots it with (x, y).
func gradDot2[F, I any](o simd.Backend[F, I], h I, x, y F) F {
	one := o.BroadcastI(1)
	swap := o.EqI(o.AndI(h, one), one)
	a := o.SelectF(swap, y, x)
	b := o.SelectF(swap, x, y)
	a = o.MulF(a, o.BroadcastF(1+sqrt2))
	a = flipSign(o, a, h, 1)
	b = flipSign(o, b, h, 2)
	return o.AddF(a, b)
}

// gradDot3 picks one of the twelve cube edge gradients.
func gradDot3[F, I any](o simd.Backend[F, I], h I, x, y, z F) F {
	h = o.AndI(h, o.BroadcastI(15))
	lt8 := o.LtI(h, o.BroadcastI(8))
	u := o.SelectF(lt8, x, y)

	lt4 := o.LtI(h, o.BroadcastI(4))
	is12or14 := o.OrI(o.EqI(h, o.BroadcastI(12)), o.EqI(h, o.BroadcastI(14)))
	v := o.SelectF(lt4, y, o.SelectF(is12or14, x, z))

	u = flipSign(o, u, h, 0)
	v = flipSign(o, v, h, 1)
	return o.AddF(u, v)
}

// gradDot4 picks one of the 32 gradients with three non-zero unit
// components.
func gradDot4[F, I any](o simd.Backend[F, I], h I, x, y, z, w F) F {
	h = o.AndI(h, o.BroadcastI(31))
	lt24 := o.LtI(h, o.BroadcastI(24))
	a := o.SelectF(lt24, x, y)

	lt16 := o.LtI(h, o.BroadcastI(16))
	b := o.SelectF(lt16, y, z)

	lt8 := o.LtI(h, o.BroadcastI(8))
	c := o.SelectF(lt8, z, w)

	a = flipSign(o, a, h, 2)
	b = flipSign(o, b, h, 1)
	c = flipSign(o, c, h, 0)
	return o.AddF(o.AddF(a, b), c)
}

// latticeFloor returns floor(v), the fractional part and the floor as int.
func latticeFloor[F, I any](o simd.Backend[F, I], v F) (F, F, I) {
	f := o.FloorF(v)
	return f, o.SubF(v, f), o.ConvertFI(f)
}

// sinF approximates sin for any finite argument: the range is reduced to
// [-pi/2, pi/2] and a Taylor series is evaluated to the x^11 term. No step
// is fused, so every level returns the same bits.
func sinF[F, I any](o simd.Backend[F, I], x F) F {
	k := o.RoundF(o.MulF(x, o.BroadcastF(1/math.Pi)))
	x = o.SubF(x, o.MulF(k, o.BroadcastF(math.Pi)))
	// sin(x - k*pi) = (-1)^k sin(x)
	odd := o.AndI(o.ConvertFI(k), o.BroadcastI(1))
	x = o.XorF(x, o.CastIF(o.ShlI(odd, 31)))

	x2 := o.MulF(x, x)
	p := o.BroadcastF(-2.5052108e-8)
	p = mulAddUnfused(o, p, x2, o.BroadcastF(2.7557319e-6))
	p = mulAddUnfused(o, p, x2, o.BroadcastF(-1.9841270e-4))
	p = mulAddUnfused(o, p, x2, o.BroadcastF(8.3333333e-3))
	p = mulAddUnfused(o, p, x2, o.BroadcastF(-1.6666667e-1))
	p = mulAddUnfused(o, p, x2, o.BroadcastF(1))
	return o.MulF(p, x)
}

// log2F approximates log2 of |x|. Zero maps to -127.
func log2F[F, I any](o simd.Backend[F, I], x F) F {
	bits := o.AndI(o.CastFI(x), o.BroadcastI(math.MaxInt32))
	exp := o.SubI(o.ShrI(bits, 23), o.BroadcastI(127))
	m := o.CastIF(o.OrI(o.AndI(bits, o.BroadcastI(0x007FFFFF)), o.BroadcastI(0x3F800000)))

	// keep the mantissa in [sqrt(1/2), sqrt(2)) for accuracy
	big := o.GtF(m, o.BroadcastF(sqrt2))
	m = o.SelectF(big, o.MulF(m, o.BroadcastF(0.5)), m)
	exp = o.MaskedIncrementI(big, exp)

	t := o.SubF(m, o.BroadcastF(1))
	t2 := o.MulF(t, t)
	p := o.BroadcastF(7.0376836292e-2)
	p = o.FMulAdd(p, t, o.BroadcastF(-1.1514610310e-1))
	p = o.FMulAdd(p, t, o.BroadcastF(1.1676998740e-1))
	p = o.FMulAdd(p, t, o.BroadcastF(-1.2420140846e-1))
	p = o.FMulAdd(p, t, o.BroadcastF(1.4249322787e-1))
	p = o.FMulAdd(p, t, o.BroadcastF(-1.6668057665e-1))
	p = o.FMulAdd(p, t, o.BroadcastF(2.0000714765e-1))
	p = o.FMulAdd(p, t, o.BroadcastF(-2.4999993993e-1))
	p = o.FMulAdd(p, t, o.BroadcastF(3.3333331174e-1))
	p = o.MulF(o.MulF(p, t), t2)
	ln := o.AddF(t, o.FMulAdd(t2, o.BroadcastF(-0.5), p))
	return o.FMulAdd(ln, o.BroadcastF(math.Log2E), o.ConvertIF(exp))
}

// exp2F approximates 2^x, saturating outside [-126, 126].
func exp2F[F, I any](o simd.Backend[F, I], x F) F {
	x = o.MinF(o.MaxF(x, o.BroadcastF(-126)), o.BroadcastF(126))
	i := o.RoundF(x)
	f := o.SubF(x, i)

	p := o.BroadcastF(1.535336188319500e-4)
	p = o.FMulAdd(p, f, o.BroadcastF(1.339887440266574e-3))
	p = o.FMulAdd(p, f, o.BroadcastF(9.618437357674640e-3))
	p = o.FMulAdd(p, f, o.BroadcastF(5.550332471162809e-2))
	p = o.FMulAdd(p, f, o.BroadcastF(2.402264791363012e-1))
	p = o.FMulAdd(p, f, o.BroadcastF(6.931472028550421e-1))
	p = o.FMulAdd(p, f, o.BroadcastF(1))

	scale := o.CastIF(o.ShlI(o.AddI(o.ConvertFI(i), o.BroadcastI(127)), 23))
	return o.MulF(p, scale)
}

// powF approximates |a|^b.
func powF[F, I any](o simd.Backend[F, I], a, b F) F {
	return exp2F(o, o.MulF(b, log2F(o, a)))
}

// copySign returns |a| with the sign of s.
func copySign[F, I any](o simd.Backend[F, I], a, s F) F {
	sign := signBit(o)
	return o.OrF(o.AndNotF(a, sign), o.AndF(s, sign))
}
