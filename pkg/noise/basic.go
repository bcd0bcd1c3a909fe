package noise

import (
	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

type constant[F, I any] struct {
	base[F, I]
	value F
}

func newConstant[F, I any](o simd.Backend[F, I]) *constant[F, I] {
	return &constant[F, I]{base: base[F, I]{o: o}, value: o.BroadcastF(1)}
}

func (k *constant[F, I]) setVariable(i int, v metadata.Value) {
	if i == 0 {
		k.value = k.o.BroadcastF(v.Float())
	}
}

func (k *constant[F, I]) gen2(I, F, F) F       { return k.value }
func (k *constant[F, I]) gen3(I, F, F, F) F    { return k.value }
func (k *constant[F, I]) gen4(I, F, F, F, F) F { return k.value }

// white hashes the raw bits of each coordinate, so equal positions always
// produce equal values and neighbours are uncorrelated.
type white[F, I any] struct {
	coherentBase[F, I]
}

func (k *white[F, I]) setVariable(i int, v metadata.Value) { k.setCommon(i, v) }

func (k *white[F, I]) bits(v F, prime int32) I {
	o := k.o
	b := o.CastFI(v)
	return o.MulI(o.XorI(b, o.ShrI(b, 16)), o.BroadcastI(prime))
}

func (k *white[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	return k.output(valueCoord2(o, seed, k.bits(x, primeX), k.bits(y, primeY)))
}

func (k *white[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	return k.output(valueCoord3(o, seed, k.bits(x, primeX), k.bits(y, primeY), k.bits(z, primeZ)))
}

func (k *white[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	return k.output(valueCoord4(o, seed, k.bits(x, primeX), k.bits(y, primeY), k.bits(z, primeZ), k.bits(w, primeW)))
}

type checkerboard[F, I any] struct {
	coherentBase[F, I]
}

func (k *checkerboard[F, I]) setVariable(i int, v metadata.Value) { k.setCommon(i, v) }

func (k *checkerboard[F, I]) cell(v F) I {
	return k.o.ConvertFI(k.o.FloorF(k.o.MulF(v, k.freq)))
}

func (k *checkerboard[F, I]) finish(sum I) F {
	o := k.o
	odd := o.EqI(o.AndI(sum, o.BroadcastI(1)), o.BroadcastI(1))
	return k.output(o.SelectF(odd, o.BroadcastF(-1), o.BroadcastF(1)))
}

func (k *checkerboard[F, I]) gen2(_ I, x, y F) F {
	return k.finish(k.o.AddI(k.cell(x), k.cell(y)))
}

func (k *checkerboard[F, I]) gen3(_ I, x, y, z F) F {
	o := k.o
	return k.finish(o.AddI(o.AddI(k.cell(x), k.cell(y)), k.cell(z)))
}

func (k *checkerboard[F, I]) gen4(_ I, x, y, z, w F) F {
	o := k.o
	return k.finish(o.AddI(o.AddI(k.cell(x), k.cell(y)), o.AddI(k.cell(z), k.cell(w))))
}

type sineWave[F, I any] struct {
	coherentBase[F, I]
}

func (k *sineWave[F, I]) setVariable(i int, v metadata.Value) { k.setCommon(i, v) }

func (k *sineWave[F, I]) wave(v F) F {
	return sinF(k.o, k.o.MulF(v, k.freq))
}

func (k *sineWave[F, I]) gen2(_ I, x, y F) F {
	o := k.o
	return k.output(o.MulF(o.AddF(k.wave(x), k.wave(y)), o.BroadcastF(1.0/2)))
}

func (k *sineWave[F, I]) gen3(_ I, x, y, z F) F {
	o := k.o
	sum := o.AddF(o.AddF(k.wave(x), k.wave(y)), k.wave(z))
	return k.output(o.MulF(sum, o.BroadcastF(1.0/3)))
}

func (k *sineWave[F, I]) gen4(_ I, x, y, z, w F) F {
	o := k.o
	sum := o.AddF(o.AddF(k.wave(x), k.wave(y)), o.AddF(k.wave(z), k.wave(w)))
	return k.output(o.MulF(sum, o.BroadcastF(1.0/4)))
}

type positionOutput[F, I any] struct {
	base[F, I]
	mult   [4]F
	offset [4]hybrid[F, I]
}

func newPositionOutput[F, I any](o simd.Backend[F, I]) *positionOutput[F, I] {
	k := &positionOutput[F, I]{base: base[F, I]{o: o}}
	for i := range k.mult {
		k.mult[i] = o.ZeroF()
		k.offset[i].c = o.ZeroF()
	}
	return k
}

func (k *positionOutput[F, I]) setVariable(i int, v metadata.Value) {
	if i >= 0 && i < len(k.mult) {
		k.mult[i] = k.o.BroadcastF(v.Float())
	}
}

func (k *positionOutput[F, I]) hybrids() []*hybrid[F, I] {
	return []*hybrid[F, I]{&k.offset[0], &k.offset[1], &k.offset[2], &k.offset[3]}
}

func (k *positionOutput[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	r := o.MulF(o.AddF(x, k.offset[0].gen2(seed, x, y)), k.mult[0])
	return o.FMulAdd(o.AddF(y, k.offset[1].gen2(seed, x, y)), k.mult[1], r)
}

func (k *positionOutput[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	r := o.MulF(o.AddF(x, k.offset[0].gen3(seed, x, y, z)), k.mult[0])
	r = o.FMulAdd(o.AddF(y, k.offset[1].gen3(seed, x, y, z)), k.mult[1], r)
	return o.FMulAdd(o.AddF(z, k.offset[2].gen3(seed, x, y, z)), k.mult[2], r)
}

func (k *positionOutput[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	r := o.MulF(o.AddF(x, k.offset[0].gen4(seed, x, y, z, w)), k.mult[0])
	r = o.FMulAdd(o.AddF(y, k.offset[1].gen4(seed, x, y, z, w)), k.mult[1], r)
	r = o.FMulAdd(o.AddF(z, k.offset[2].gen4(seed, x, y, z, w)), k.mult[2], r)
	return o.FMulAdd(o.AddF(w, k.offset[3].gen4(seed, x, y, z, w)), k.mult[3], r)
}

// distanceAcc accumulates per-axis deltas for the distance functions.
type distanceAcc[F, I any] struct {
	o       simd.Backend[F, I]
	sumSq   F
	sumAbs  F
	maxAbs  F
	sumPowP F
}

func newDistanceAcc[F, I any](o simd.Backend[F, I]) distanceAcc[F, I] {
	z := o.ZeroF()
	return distanceAcc[F, I]{o: o, sumSq: z, sumAbs: z, maxAbs: z, sumPowP: z}
}

func (a *distanceAcc[F, I]) add(fn int32, d, p F) {
	o := a.o
	abs := o.AbsF(d)
	a.sumSq = o.FMulAdd(d, d, a.sumSq)
	a.sumAbs = o.AddF(a.sumAbs, abs)
	a.maxAbs = o.MaxF(a.maxAbs, abs)
	if fn == distMinkowski {
		a.sumPowP = o.AddF(a.sumPowP, powF(o, abs, p))
	}
}

func (a *distanceAcc[F, I]) result(fn int32, p F) F {
	o := a.o
	switch fn {
	case distEuclidean:
		return o.SqrtF(a.sumSq)
	case distManhattan:
		return a.sumAbs
	case distHybrid:
		return o.AddF(a.sumSq, a.sumAbs)
	case distMaxAxis:
		return a.maxAbs
	case distMinkowski:
		return powF(o, a.sumPowP, o.ReciprocalF(p))
	}
	return a.sumSq
}

type distanceToPoint[F, I any] struct {
	base[F, I]
	fn    int32
	point [4]hybrid[F, I]
	p     hybrid[F, I]
}

func newDistanceToPoint[F, I any](o simd.Backend[F, I]) *distanceToPoint[F, I] {
	k := &distanceToPoint[F, I]{base: base[F, I]{o: o}, fn: distEuclidean}
	for i := range k.point {
		k.point[i].c = o.ZeroF()
	}
	k.p.c = o.BroadcastF(1.5)
	return k
}

func (k *distanceToPoint[F, I]) setVariable(i int, v metadata.Value) {
	if i == 0 {
		k.fn = v.Int()
	}
}

func (k *distanceToPoint[F, I]) hybrids() []*hybrid[F, I] {
	return []*hybrid[F, I]{&k.point[0], &k.point[1], &k.point[2], &k.point[3], &k.p}
}

func (k *distanceToPoint[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	p := k.p.gen2(seed, x, y)
	acc := newDistanceAcc(o)
	acc.add(k.fn, o.SubF(k.point[0].gen2(seed, x, y), x), p)
	acc.add(k.fn, o.SubF(k.point[1].gen2(seed, x, y), y), p)
	return acc.result(k.fn, p)
}

func (k *distanceToPoint[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	p := k.p.gen3(seed, x, y, z)
	acc := newDistanceAcc(o)
	acc.add(k.fn, o.SubF(k.point[0].gen3(seed, x, y, z), x), p)
	acc.add(k.fn, o.SubF(k.point[1].gen3(seed, x, y, z), y), p)
	acc.add(k.fn, o.SubF(k.point[2].gen3(seed, x, y, z), z), p)
	return acc.result(k.fn, p)
}

func (k *distanceToPoint[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	p := k.p.gen4(seed, x, y, z, w)
	acc := newDistanceAcc(o)
	acc.add(k.fn, o.SubF(k.point[0].gen4(seed, x, y, z, w), x), p)
	acc.add(k.fn, o.SubF(k.point[1].gen4(seed, x, y, z, w), y), p)
	acc.add(k.fn, o.SubF(k.point[2].gen4(seed, x, y, z, w), z), p)
	acc.add(k.fn, o.SubF(k.point[3].gen4(seed, x, y, z, w), w), p)
	return acc.result(k.fn, p)
}
