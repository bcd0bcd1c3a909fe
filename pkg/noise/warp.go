package noise

import (
	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// warpGradient displaces the sample position along a random vector field
// interpolated between lattice points, then samples its source there.
type warpGradient[F, I any] struct {
	base[F, I]
	source     slot[F, I]
	seedOffset I
	ampScalar  float32
	freqScalar float32
	amp, freq  F
}

func newWarpGradient[F, I any](o simd.Backend[F, I]) *warpGradient[F, I] {
	return &warpGradient[F, I]{
		base:       base[F, I]{o: o},
		seedOffset: o.ZeroI(),
		ampScalar:  1,
		freqScalar: 0.5,
		amp:        o.BroadcastF(1),
		freq:       o.BroadcastF(0.5),
	}
}

func (k *warpGradient[F, I]) sources() []*slot[F, I] { return []*slot[F, I]{&k.source} }
func (k *warpGradient[F, I]) target() *slot[F, I]    { return &k.source }
func (k *warpGradient[F, I]) warpParams() (float32, float32) {
	return k.ampScalar, k.freqScalar
}

func (k *warpGradient[F, I]) setVariable(i int, v metadata.Value) {
	switch i {
	case 0:
		k.seedOffset = k.o.BroadcastI(v.Int())
	case 1:
		k.ampScalar = v.Float()
		k.amp = k.o.BroadcastF(k.ampScalar)
	case 2:
		k.freqScalar = v.Float()
		k.freq = k.o.BroadcastF(k.freqScalar)
	}
}

// cornerVector unpacks n signed components of bits each from h.
func (k *warpGradient[F, I]) cornerVector(h I, n int, bits uint) [4]F {
	o := k.o
	mask := int32(1)<<bits - 1
	var v [4]F
	for i := 0; i < n; i++ {
		c := o.AndI(o.ShrI(h, uint(i)*bits), o.BroadcastI(mask))
		v[i] = o.SubF(o.ConvertIF(c), o.BroadcastF(float32(mask)*0.5))
	}
	return v
}

func lerpVec[F, I any](o simd.Backend[F, I], a, b [4]F, t F, n int) [4]F {
	for i := 0; i < n; i++ {
		a[i] = lerp(o, a[i], b[i], t)
	}
	return a
}

func (k *warpGradient[F, I]) warp2(seed I, amp, freq F, x, y F) (F, F) {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	_, xs, xi := latticeFloor(o, o.MulF(x, freq))
	_, ys, yi := latticeFloor(o, o.MulF(y, freq))
	xs, ys = hermite(o, xs), hermite(o, ys)
	x0 := o.MulI(xi, o.BroadcastI(primeX))
	y0 := o.MulI(yi, o.BroadcastI(primeY))
	x1 := o.AddI(x0, o.BroadcastI(primeX))
	y1 := o.AddI(y0, o.BroadcastI(primeY))

	corner := func(x, y I) [4]F { return k.cornerVector(hash2(o, seed, x, y), 2, 10) }
	v := lerpVec(o,
		lerpVec(o, corner(x0, y0), corner(x1, y0), xs, 2),
		lerpVec(o, corner(x0, y1), corner(x1, y1), xs, 2),
		ys, 2)

	scale := o.MulF(amp, o.BroadcastF(1.0/511.5))
	return o.FMulAdd(v[0], scale, x), o.FMulAdd(v[1], scale, y)
}

func (k *warpGradient[F, I]) warp3(seed I, amp, freq F, x, y, z F) (F, F, F) {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	_, xs, xi := latticeFloor(o, o.MulF(x, freq))
	_, ys, yi := latticeFloor(o, o.MulF(y, freq))
	_, zs, zi := latticeFloor(o, o.MulF(z, freq))
	xs, ys, zs = hermite(o, xs), hermite(o, ys), hermite(o, zs)
	x0 := o.MulI(xi, o.BroadcastI(primeX))
	y0 := o.MulI(yi, o.BroadcastI(primeY))
	z0 := o.MulI(zi, o.BroadcastI(primeZ))
	x1 := o.AddI(x0, o.BroadcastI(primeX))
	y1 := o.AddI(y0, o.BroadcastI(primeY))
	z1 := o.AddI(z0, o.BroadcastI(primeZ))

	corner := func(x, y, z I) [4]F { return k.cornerVector(hash3(o, seed, x, y, z), 3, 10) }
	plane := func(z I) [4]F {
		return lerpVec(o,
			lerpVec(o, corner(x0, y0, z), corner(x1, y0, z), xs, 3),
			lerpVec(o, corner(x0, y1, z), corner(x1, y1, z), xs, 3),
			ys, 3)
	}
	v := lerpVec(o, plane(z0), plane(z1), zs, 3)

	scale := o.MulF(amp, o.BroadcastF(1.0/511.5))
	return o.FMulAdd(v[0], scale, x), o.FMulAdd(v[1], scale, y), o.FMulAdd(v[2], scale, z)
}

func (k *warpGradient[F, I]) warp4(seed I, amp, freq F, x, y, z, w F) (F, F, F, F) {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	_, xs, xi := latticeFloor(o, o.MulF(x, freq))
	_, ys, yi := latticeFloor(o, o.MulF(y, freq))
	_, zs, zi := latticeFloor(o, o.MulF(z, freq))
	_, ws, wi := latticeFloor(o, o.MulF(w, freq))
	xs, ys, zs, ws = hermite(o, xs), hermite(o, ys), hermite(o, zs), hermite(o, ws)
	x0 := o.MulI(xi, o.BroadcastI(primeX))
	y0 := o.MulI(yi, o.BroadcastI(primeY))
	z0 := o.MulI(zi, o.BroadcastI(primeZ))
	w0 := o.MulI(wi, o.BroadcastI(primeW))
	x1 := o.AddI(x0, o.BroadcastI(primeX))
	y1 := o.AddI(y0, o.BroadcastI(primeY))
	z1 := o.AddI(z0, o.BroadcastI(primeZ))
	w1 := o.AddI(w0, o.BroadcastI(primeW))

	corner := func(x, y, z, w I) [4]F { return k.cornerVector(hash4(o, seed, x, y, z, w), 4, 8) }
	plane := func(z, w I) [4]F {
		return lerpVec(o,
			lerpVec(o, corner(x0, y0, z, w), corner(x1, y0, z, w), xs, 4),
			lerpVec(o, corner(x0, y1, z, w), corner(x1, y1, z, w), xs, 4),
			ys, 4)
	}
	cube := func(w I) [4]F { return lerpVec(o, plane(z0, w), plane(z1, w), zs, 4) }
	v := lerpVec(o, cube(w0), cube(w1), ws, 4)

	scale := o.MulF(amp, o.BroadcastF(1.0/127.5))
	return o.FMulAdd(v[0], scale, x), o.FMulAdd(v[1], scale, y),
		o.FMulAdd(v[2], scale, z), o.FMulAdd(v[3], scale, w)
}

func (k *warpGradient[F, I]) gen2(seed I, x, y F) F {
	x, y = k.warp2(seed, k.amp, k.freq, x, y)
	return k.source.k.gen2(seed, x, y)
}

func (k *warpGradient[F, I]) gen3(seed I, x, y, z F) F {
	x, y, z = k.warp3(seed, k.amp, k.freq, x, y, z)
	return k.source.k.gen3(seed, x, y, z)
}

func (k *warpGradient[F, I]) gen4(seed I, x, y, z, w F) F {
	x, y, z, w = k.warp4(seed, k.amp, k.freq, x, y, z, w)
	return k.source.k.gen4(seed, x, y, z, w)
}

// warpFractal applies its Domain Warp source once per octave. Progressive
// mode feeds each octave the previous octave's output position;
// independent mode warps the original position every octave and sums the
// displacements.
type warpFractal[F, I any] struct {
	fractalBase[F, I]
	independent bool
}

// start returns the first octave's amplitude and frequency.
func (k *warpFractal[F, I]) start(w warper[F, I]) (F, F) {
	amp, freq := w.warpParams()
	return k.o.MulF(k.o.BroadcastF(amp), k.bounding), k.o.BroadcastF(freq)
}

func (k *warpFractal[F, I]) gen2(seed I, x, y F) F {
	w := k.source.w
	if w == nil {
		return k.source.k.gen2(seed, x, y)
	}
	o := k.o
	amp, freq := k.start(w)
	s := seed
	px, py := w.warp2(s, amp, freq, x, y)
	for i := int32(1); i < k.octaves; i++ {
		s = o.AddI(s, o.BroadcastI(1))
		amp, freq = o.MulF(amp, k.gain), o.MulF(freq, k.lacunarity)
		if k.independent {
			wx, wy := w.warp2(s, amp, freq, x, y)
			px, py = o.AddF(px, o.SubF(wx, x)), o.AddF(py, o.SubF(wy, y))
		} else {
			px, py = w.warp2(s, amp, freq, px, py)
		}
	}
	return w.target().k.gen2(seed, px, py)
}

func (k *warpFractal[F, I]) gen3(seed I, x, y, z F) F {
	w := k.source.w
	if w == nil {
		return k.source.k.gen3(seed, x, y, z)
	}
	o := k.o
	amp, freq := k.start(w)
	s := seed
	px, py, pz := w.warp3(s, amp, freq, x, y, z)
	for i := int32(1); i < k.octaves; i++ {
		s = o.AddI(s, o.BroadcastI(1))
		amp, freq = o.MulF(amp, k.gain), o.MulF(freq, k.lacunarity)
		if k.independent {
			wx, wy, wz := w.warp3(s, amp, freq, x, y, z)
			px, py, pz = o.AddF(px, o.SubF(wx, x)), o.AddF(py, o.SubF(wy, y)), o.AddF(pz, o.SubF(wz, z))
		} else {
			px, py, pz = w.warp3(s, amp, freq, px, py, pz)
		}
	}
	return w.target().k.gen3(seed, px, py, pz)
}

func (k *warpFractal[F, I]) gen4(seed I, x, y, z, w4 F) F {
	w := k.source.w
	if w == nil {
		return k.source.k.gen4(seed, x, y, z, w4)
	}
	o := k.o
	amp, freq := k.start(w)
	s := seed
	px, py, pz, pw := w.warp4(s, amp, freq, x, y, z, w4)
	for i := int32(1); i < k.octaves; i++ {
		s = o.AddI(s, o.BroadcastI(1))
		amp, freq = o.MulF(amp, k.gain), o.MulF(freq, k.lacunarity)
		if k.independent {
			wx, wy, wz, ww := w.warp4(s, amp, freq, x, y, z, w4)
			px, py = o.AddF(px, o.SubF(wx, x)), o.AddF(py, o.SubF(wy, y))
			pz, pw = o.AddF(pz, o.SubF(wz, z)), o.AddF(pw, o.SubF(ww, w4))
		} else {
			px, py, pz, pw = w.warp4(s, amp, freq, px, py, pz, pw)
		}
	}
	return w.target().k.gen4(seed, px, py, pz, pw)
}
