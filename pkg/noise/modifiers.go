package noise

import (
	"math"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// single is the base of kernels with exactly one Source.
type single[F, I any] struct {
	base[F, I]
	source slot[F, I]
}

func (s *single[F, I]) sources() []*slot[F, I] { return []*slot[F, I]{&s.source} }

type domainScale[F, I any] struct {
	single[F, I]
	scale F
}

func (k *domainScale[F, I]) setVariable(i int, v metadata.Value) {
	if i == 0 {
		k.scale = k.o.BroadcastF(v.Float())
	}
}

func (k *domainScale[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	return k.source.k.gen2(seed, o.MulF(x, k.scale), o.MulF(y, k.scale))
}

func (k *domainScale[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	return k.source.k.gen3(seed, o.MulF(x, k.scale), o.MulF(y, k.scale), o.MulF(z, k.scale))
}

func (k *domainScale[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	return k.source.k.gen4(seed, o.MulF(x, k.scale), o.MulF(y, k.scale), o.MulF(z, k.scale), o.MulF(w, k.scale))
}

type domainAxisScale[F, I any] struct {
	single[F, I]
	scale [4]F
}

func (k *domainAxisScale[F, I]) setVariable(i int, v metadata.Value) {
	if i >= 0 && i < len(k.scale) {
		k.scale[i] = k.o.BroadcastF(v.Float())
	}
}

func (k *domainAxisScale[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	return k.source.k.gen2(seed, o.MulF(x, k.scale[0]), o.MulF(y, k.scale[1]))
}

func (k *domainAxisScale[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	return k.source.k.gen3(seed, o.MulF(x, k.scale[0]), o.MulF(y, k.scale[1]), o.MulF(z, k.scale[2]))
}

func (k *domainAxisScale[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	return k.source.k.gen4(seed, o.MulF(x, k.scale[0]), o.MulF(y, k.scale[1]), o.MulF(z, k.scale[2]), o.MulF(w, k.scale[3]))
}

type domainOffset[F, I any] struct {
	single[F, I]
	offset [4]hybrid[F, I]
}

func (k *domainOffset[F, I]) hybrids() []*hybrid[F, I] {
	return []*hybrid[F, I]{&k.offset[0], &k.offset[1], &k.offset[2], &k.offset[3]}
}

func (k *domainOffset[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	return k.source.k.gen2(seed,
		o.AddF(x, k.offset[0].gen2(seed, x, y)),
		o.AddF(y, k.offset[1].gen2(seed, x, y)))
}

func (k *domainOffset[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	return k.source.k.gen3(seed,
		o.AddF(x, k.offset[0].gen3(seed, x, y, z)),
		o.AddF(y, k.offset[1].gen3(seed, x, y, z)),
		o.AddF(z, k.offset[2].gen3(seed, x, y, z)))
}

func (k *domainOffset[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	return k.source.k.gen4(seed,
		o.AddF(x, k.offset[0].gen4(seed, x, y, z, w)),
		o.AddF(y, k.offset[1].gen4(seed, x, y, z, w)),
		o.AddF(z, k.offset[2].gen4(seed, x, y, z, w)),
		o.AddF(w, k.offset[3].gen4(seed, x, y, z, w)))
}

// domainRotate rotates the input by yaw, pitch and roll in degrees. 2D input
// is lifted to the z=0 plane and sampled in 3D so the rotation can tilt it.
type domainRotate[F, I any] struct {
	single[F, I]
	angles [3]float32
	m      [3][3]F
}

func newDomainRotate[F, I any](o simd.Backend[F, I]) *domainRotate[F, I] {
	k := &domainRotate[F, I]{single: single[F, I]{base: base[F, I]{o: o}}}
	k.updateMatrix()
	return k
}

func (k *domainRotate[F, I]) setVariable(i int, v metadata.Value) {
	if i >= 0 && i < len(k.angles) {
		k.angles[i] = v.Float()
		k.updateMatrix()
	}
}

func (k *domainRotate[F, I]) updateMatrix() {
	rad := func(deg float32) (float64, float64) {
		s, c := math.Sincos(float64(deg) * math.Pi / 180)
		return s, c
	}
	sa, ca := rad(k.angles[0])
	sb, cb := rad(k.angles[1])
	sg, cg := rad(k.angles[2])

	m := [3][3]float64{
		{ca * cb, ca*sb*sg - sa*cg, ca*sb*cg + sa*sg},
		{sa * cb, sa*sb*sg + ca*cg, sa*sb*cg - ca*sg},
		{-sb, cb * sg, cb * cg},
	}
	for r := range m {
		for c := range m[r] {
			k.m[r][c] = k.o.BroadcastF(float32(m[r][c]))
		}
	}
}

func (k *domainRotate[F, I]) rotate(x, y, z F) (F, F, F) {
	o := k.o
	row := func(r [3]F) F {
		return mulAddUnfused(o, x, r[0], mulAddUnfused(o, y, r[1], o.MulF(z, r[2])))
	}
	return row(k.m[0]), row(k.m[1]), row(k.m[2])
}

func (k *domainRotate[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	rx := mulAddUnfused(o, x, k.m[0][0], o.MulF(y, k.m[0][1]))
	ry := mulAddUnfused(o, x, k.m[1][0], o.MulF(y, k.m[1][1]))
	rz := mulAddUnfused(o, x, k.m[2][0], o.MulF(y, k.m[2][1]))
	return k.source.k.gen3(seed, rx, ry, rz)
}

func (k *domainRotate[F, I]) gen3(seed I, x, y, z F) F {
	x, y, z = k.rotate(x, y, z)
	return k.source.k.gen3(seed, x, y, z)
}

func (k *domainRotate[F, I]) gen4(seed I, x, y, z, w F) F {
	x, y, z = k.rotate(x, y, z)
	return k.source.k.gen4(seed, x, y, z, w)
}

type seedOffset[F, I any] struct {
	single[F, I]
	offset I
}

func (k *seedOffset[F, I]) setVariable(i int, v metadata.Value) {
	if i == 0 {
		k.offset = k.o.BroadcastI(v.Int())
	}
}

func (k *seedOffset[F, I]) gen2(seed I, x, y F) F {
	return k.source.k.gen2(k.o.AddI(seed, k.offset), x, y)
}

func (k *seedOffset[F, I]) gen3(seed I, x, y, z F) F {
	return k.source.k.gen3(k.o.AddI(seed, k.offset), x, y, z)
}

func (k *seedOffset[F, I]) gen4(seed I, x, y, z, w F) F {
	return k.source.k.gen4(k.o.AddI(seed, k.offset), x, y, z, w)
}

// unary is a single-source kernel whose output is a pointwise function of
// the source value and of hybrids sampled at the same position.
type unary[F, I any] struct {
	single[F, I]
	apply func(v F, h []F) F
	hs    []*hybrid[F, I]
	vals  func(i int, v metadata.Value)
}

func (k *unary[F, I]) hybrids() []*hybrid[F, I] { return k.hs }

func (k *unary[F, I]) setVariable(i int, v metadata.Value) {
	if k.vals != nil {
		k.vals(i, v)
	}
}

func (k *unary[F, I]) gen2(seed I, x, y F) F {
	var h [4]F
	for i, hy := range k.hs {
		h[i] = hy.gen2(seed, x, y)
	}
	return k.apply(k.source.k.gen2(seed, x, y), h[:len(k.hs)])
}

func (k *unary[F, I]) gen3(seed I, x, y, z F) F {
	var h [4]F
	for i, hy := range k.hs {
		h[i] = hy.gen3(seed, x, y, z)
	}
	return k.apply(k.source.k.gen3(seed, x, y, z), h[:len(k.hs)])
}

func (k *unary[F, I]) gen4(seed I, x, y, z, w F) F {
	var h [4]F
	for i, hy := range k.hs {
		h[i] = hy.gen4(seed, x, y, z, w)
	}
	return k.apply(k.source.k.gen4(seed, x, y, z, w), h[:len(k.hs)])
}

func newUnary[F, I any](o simd.Backend[F, I], hybrids int, apply func(v F, h []F) F) *unary[F, I] {
	k := &unary[F, I]{single: single[F, I]{base: base[F, I]{o: o}}, apply: apply}
	for i := 0; i < hybrids; i++ {
		k.hs = append(k.hs, &hybrid[F, I]{c: o.ZeroF()})
	}
	return k
}

func newAbs[F, I any](o simd.Backend[F, I]) kernel[F, I] {
	return newUnary(o, 0, func(v F, _ []F) F { return o.AbsF(v) })
}

func newSignedSquareRoot[F, I any](o simd.Backend[F, I]) kernel[F, I] {
	return newUnary(o, 0, func(v F, _ []F) F {
		return copySign(o, o.SqrtF(o.AbsF(v)), v)
	})
}

// newRemap maps From Min..From Max onto To Min..To Max, optionally clamping.
func newRemap[F, I any](o simd.Backend[F, I]) kernel[F, I] {
	clamp := false
	k := newUnary(o, 4, func(v F, h []F) F {
		fromMin, fromMax, toMin, toMax := h[0], h[1], h[2], h[3]
		t := o.DivF(o.SubF(v, fromMin), o.SubF(fromMax, fromMin))
		r := o.FMulAdd(t, o.SubF(toMax, toMin), toMin)
		if clamp {
			r = o.MaxF(o.MinF(r, o.MaxF(toMin, toMax)), o.MinF(toMin, toMax))
		}
		return r
	})
	k.vals = func(i int, v metadata.Value) {
		if i == 0 {
			clamp = v.Int() != 0
		}
	}
	return k
}

// newTerrace quantizes into Step Count steps per unit. Smoothness blends
// each hard step back towards the source.
func newTerrace[F, I any](o simd.Backend[F, I]) kernel[F, I] {
	steps, inv := o.BroadcastF(1), o.BroadcastF(1)
	k := newUnary(o, 1, func(v F, h []F) F {
		v = o.MulF(v, steps)
		r := o.RoundF(v)
		smooth := o.MinF(o.MaxF(h[0], o.ZeroF()), o.BroadcastF(1))
		return o.MulF(o.FMulAdd(o.SubF(v, r), smooth, r), inv)
	})
	k.vals = func(i int, val metadata.Value) {
		if i == 0 {
			s := val.Float()
			if s == 0 {
				s = 1
			}
			steps, inv = o.BroadcastF(s), o.BroadcastF(1/s)
		}
	}
	return k
}

// newPingPong folds the scaled source back and forth inside -1..1.
func newPingPong[F, I any](o simd.Backend[F, I]) kernel[F, I] {
	return newUnary(o, 1, func(v F, h []F) F {
		t := o.MulF(o.AddF(v, o.BroadcastF(1)), h[0])
		t = o.FNMulAdd(o.RoundF(o.MulF(t, o.BroadcastF(0.5))), o.BroadcastF(2), t)
		return o.FMulAdd(o.AbsF(t), o.BroadcastF(2), o.BroadcastF(-1))
	})
}
