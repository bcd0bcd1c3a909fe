package noise

import (
	"github.com/sanonone/noisegraph/pkg/metadata"
)

// Output scales that bring each gradient noise close to [-1, 1].
const (
	perlinScale2  = 0.579106986522674560546875
	perlinScale3  = 0.964921414852142333984375
	perlinScale4  = 0.964921414852142333984375
	simplexScale2 = 38.283687591552734375
	simplexScale3 = 32.69428253173828125
	simplexScale4 = 27.0
)

type value[F, I any] struct {
	coherentBase[F, I]
}

func (k *value[F, I]) setVariable(i int, v metadata.Value) { k.setCommon(i, v) }

func (k *value[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	_, xs, xi := latticeFloor(o, o.MulF(x, k.freq))
	_, ys, yi := latticeFloor(o, o.MulF(y, k.freq))
	xs, ys = hermite(o, xs), hermite(o, ys)

	x0 := o.MulI(xi, o.BroadcastI(primeX))
	y0 := o.MulI(yi, o.BroadcastI(primeY))
	x1 := o.AddI(x0, o.BroadcastI(primeX))
	y1 := o.AddI(y0, o.BroadcastI(primeY))

	return k.output(lerp(o,
		lerp(o, valueCoord2(o, seed, x0, y0), valueCoord2(o, seed, x1, y0), xs),
		lerp(o, valueCoord2(o, seed, x0, y1), valueCoord2(o, seed, x1, y1), xs),
		ys))
}

func (k *value[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	_, xs, xi := latticeFloor(o, o.MulF(x, k.freq))
	_, ys, yi := latticeFloor(o, o.MulF(y, k.freq))
	_, zs, zi := latticeFloor(o, o.MulF(z, k.freq))
	xs, ys, zs = hermite(o, xs), hermite(o, ys), hermite(o, zs)

	x0 := o.MulI(xi, o.BroadcastI(primeX))
	y0 := o.MulI(yi, o.BroadcastI(primeY))
	z0 := o.MulI(zi, o.BroadcastI(primeZ))
	x1 := o.AddI(x0, o.BroadcastI(primeX))
	y1 := o.AddI(y0, o.BroadcastI(primeY))
	z1 := o.AddI(z0, o.BroadcastI(primeZ))

	plane := func(z I) F {
		return lerp(o,
			lerp(o, valueCoord3(o, seed, x0, y0, z), valueCoord3(o, seed, x1, y0, z), xs),
			lerp(o, valueCoord3(o, seed, x0, y1, z), valueCoord3(o, seed, x1, y1, z), xs),
			ys)
	}
	return k.output(lerp(o, plane(z0), plane(z1), zs))
}

func (k *value[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	_, xs, xi := latticeFloor(o, o.MulF(x, k.freq))
	_, ys, yi := latticeFloor(o, o.MulF(y, k.freq))
	_, zs, zi := latticeFloor(o, o.MulF(z, k.freq))
	_, ws, wi := latticeFloor(o, o.MulF(w, k.freq))
	xs, ys, zs, ws = hermite(o, xs), hermite(o, ys), hermite(o, zs), hermite(o, ws)

	x0 := o.MulI(xi, o.BroadcastI(primeX))
	y0 := o.MulI(yi, o.BroadcastI(primeY))
	z0 := o.MulI(zi, o.BroadcastI(primeZ))
	w0 := o.MulI(wi, o.BroadcastI(primeW))
	x1 := o.AddI(x0, o.BroadcastI(primeX))
	y1 := o.AddI(y0, o.BroadcastI(primeY))
	z1 := o.AddI(z0, o.BroadcastI(primeZ))
	w1 := o.AddI(w0, o.BroadcastI(primeW))

	plane := func(z, w I) F {
		return lerp(o,
			lerp(o, valueCoord4(o, seed, x0, y0, z, w), valueCoord4(o, seed, x1, y0, z, w), xs),
			lerp(o, valueCoord4(o, seed, x0, y1, z, w), valueCoord4(o, seed, x1, y1, z, w), xs),
			ys)
	}
	cube := func(w I) F {
		return lerp(o, plane(z0, w), plane(z1, w), zs)
	}
	return k.output(lerp(o, cube(w0), cube(w1), ws))
}

type perlin[F, I any] struct {
	coherentBase[F, I]
}

func (k *perlin[F, I]) setVariable(i int, v metadata.Value) { k.setCommon(i, v) }

func (k *perlin[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	_, xf0, xi := latticeFloor(o, o.MulF(x, k.freq))
	_, yf0, yi := latticeFloor(o, o.MulF(y, k.freq))
	one := o.BroadcastF(1)
	xf1, yf1 := o.SubF(xf0, one), o.SubF(yf0, one)
	xs, ys := quintic(o, xf0), quintic(o, yf0)

	x0 := o.MulI(xi, o.BroadcastI(primeX))
	y0 := o.MulI(yi, o.BroadcastI(primeY))
	x1 := o.AddI(x0, o.BroadcastI(primeX))
	y1 := o.AddI(y0, o.BroadcastI(primeY))

	r := lerp(o,
		lerp(o, gradDot2(o, hash2(o, seed, x0, y0), xf0, yf0), gradDot2(o, hash2(o, seed, x1, y0), xf1, yf0), xs),
		lerp(o, gradDot2(o, hash2(o, seed, x0, y1), xf0, yf1), gradDot2(o, hash2(o, seed, x1, y1), xf1, yf1), xs),
		ys)
	return k.output(o.MulF(r, o.BroadcastF(perlinScale2)))
}

func (k *perlin[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	_, xf0, xi := latticeFloor(o, o.MulF(x, k.freq))
	_, yf0, yi := latticeFloor(o, o.MulF(y, k.freq))
	_, zf0, zi := latticeFloor(o, o.MulF(z, k.freq))
	one := o.BroadcastF(1)
	xf1, yf1, zf1 := o.SubF(xf0, one), o.SubF(yf0, one), o.SubF(zf0, one)
	xs, ys, zs := quintic(o, xf0), quintic(o, yf0), quintic(o, zf0)

	x0 := o.MulI(xi, o.BroadcastI(primeX))
	y0 := o.MulI(yi, o.BroadcastI(primeY))
	z0 := o.MulI(zi, o.BroadcastI(primeZ))
	x1 := o.AddI(x0, o.BroadcastI(primeX))
	y1 := o.AddI(y0, o.BroadcastI(primeY))
	z1 := o.AddI(z0, o.BroadcastI(primeZ))

	plane := func(zh I, zf F) F {
		return lerp(o,
			lerp(o, gradDot3(o, hash3(o, seed, x0, y0, zh), xf0, yf0, zf), gradDot3(o, hash3(o, seed, x1, y0, zh), xf1, yf0, zf), xs),
			lerp(o, gradDot3(o, hash3(o, seed, x0, y1, zh), xf0, yf1, zf), gradDot3(o, hash3(o, seed, x1, y1, zh), xf1, yf1, zf), xs),
			ys)
	}
	r := lerp(o, plane(z0, zf0), plane(z1, zf1), zs)
	return k.output(o.MulF(r, o.BroadcastF(perlinScale3)))
}

func (k *perlin[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	_, xf0, xi := latticeFloor(o, o.MulF(x, k.freq))
	_, yf0, yi := latticeFloor(o, o.MulF(y, k.freq))
	_, zf0, zi := latticeFloor(o, o.MulF(z, k.freq))
	_, wf0, wi := latticeFloor(o, o.MulF(w, k.freq))
	one := o.BroadcastF(1)
	xf1, yf1, zf1, wf1 := o.SubF(xf0, one), o.SubF(yf0, one), o.SubF(zf0, one), o.SubF(wf0, one)
	xs, ys, zs, ws := quintic(o, xf0), quintic(o, yf0), quintic(o, zf0), quintic(o, wf0)

	x0 := o.MulI(xi, o.BroadcastI(primeX))
	y0 := o.MulI(yi, o.BroadcastI(primeY))
	z0 := o.MulI(zi, o.BroadcastI(primeZ))
	w0 := o.MulI(wi, o.BroadcastI(primeW))
	x1 := o.AddI(x0, o.BroadcastI(primeX))
	y1 := o.AddI(y0, o.BroadcastI(primeY))
	z1 := o.AddI(z0, o.BroadcastI(primeZ))
	w1 := o.AddI(w0, o.BroadcastI(primeW))

	plane := func(zh, wh I, zf, wf F) F {
		return lerp(o,
			lerp(o, gradDot4(o, hash4(o, seed, x0, y0, zh, wh), xf0, yf0, zf, wf), gradDot4(o, hash4(o, seed, x1, y0, zh, wh), xf1, yf0, zf, wf), xs),
			lerp(o, gradDot4(o, hash4(o, seed, x0, y1, zh, wh), xf0, yf1, zf, wf), gradDot4(o, hash4(o, seed, x1, y1, zh, wh), xf1, yf1, zf, wf), xs),
			ys)
	}
	cube := func(wh I, wf F) F {
		return lerp(o, plane(z0, wh, zf0, wf), plane(z1, wh, zf1, wf), zs)
	}
	r := lerp(o, cube(w0, wf0), cube(w1, wf1), ws)
	return k.output(o.MulF(r, o.BroadcastF(perlinScale4)))
}

type simplex[F, I any] struct {
	coherentBase[F, I]
}

func (k *simplex[F, I]) setVariable(i int, v metadata.Value) { k.setCommon(i, v) }

// falloff returns max(limit - r2, 0)^4.
func (k *simplex[F, I]) falloff(limit float32, r2 F) F {
	o := k.o
	t := o.MaxF(o.SubF(o.BroadcastF(limit), r2), o.ZeroF())
	t = o.MulF(t, t)
	return o.MulF(t, t)
}

func (k *simplex[F, I]) gen2(seed I, x, y F) F {
	const (
		f2 = 0.36602540378443864676
		g2 = 0.21132486540518711775
	)
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	x, y = o.MulF(x, k.freq), o.MulF(y, k.freq)

	s := o.MulF(o.AddF(x, y), o.BroadcastF(f2))
	xf := o.FloorF(o.AddF(x, s))
	yf := o.FloorF(o.AddF(y, s))
	t := o.MulF(o.AddF(xf, yf), o.BroadcastF(g2))
	x0 := o.SubF(x, o.SubF(xf, t))
	y0 := o.SubF(y, o.SubF(yf, t))

	i1 := o.GtF(x0, y0)
	one := o.BroadcastF(1)
	x1 := o.AddF(o.MaskedSubF(i1, x0, one), o.BroadcastF(g2))
	y1 := o.AddF(o.NMaskedSubF(i1, y0, one), o.BroadcastF(g2))
	x2 := o.AddF(x0, o.BroadcastF(2*g2-1))
	y2 := o.AddF(y0, o.BroadcastF(2*g2-1))

	pX := o.BroadcastI(primeX)
	pY := o.BroadcastI(primeY)
	xp := o.MulI(o.ConvertFI(xf), pX)
	yp := o.MulI(o.ConvertFI(yf), pY)

	n0 := o.MulF(k.falloff(0.5, o.FMulAdd(x0, x0, o.MulF(y0, y0))), gradDot2(o, hash2(o, seed, xp, yp), x0, y0))
	n1 := o.MulF(k.falloff(0.5, o.FMulAdd(x1, x1, o.MulF(y1, y1))),
		gradDot2(o, hash2(o, seed, o.MaskedAddI(i1, xp, pX), o.NMaskedAddI(i1, yp, pY)), x1, y1))
	n2 := o.MulF(k.falloff(0.5, o.FMulAdd(x2, x2, o.MulF(y2, y2))),
		gradDot2(o, hash2(o, seed, o.AddI(xp, pX), o.AddI(yp, pY)), x2, y2))

	return k.output(o.MulF(o.AddF(o.AddF(n0, n1), n2), o.BroadcastF(simplexScale2)))
}

func (k *simplex[F, I]) gen3(seed I, x, y, z F) F {
	const (
		f3 = 1.0 / 3
		g3 = 1.0 / 6
	)
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	x, y, z = o.MulF(x, k.freq), o.MulF(y, k.freq), o.MulF(z, k.freq)

	s := o.MulF(o.AddF(o.AddF(x, y), z), o.BroadcastF(f3))
	xf := o.FloorF(o.AddF(x, s))
	yf := o.FloorF(o.AddF(y, s))
	zf := o.FloorF(o.AddF(z, s))
	t := o.MulF(o.AddF(o.AddF(xf, yf), zf), o.BroadcastF(g3))
	x0 := o.SubF(x, o.SubF(xf, t))
	y0 := o.SubF(y, o.SubF(yf, t))
	z0 := o.SubF(z, o.SubF(zf, t))

	// rank the offsets to find the simplex corners
	xGEy := o.GeF(x0, y0)
	yGEz := o.GeF(y0, z0)
	xGEz := o.GeF(x0, z0)
	i1 := o.AndI(xGEy, xGEz)
	j1 := o.AndNotI(yGEz, xGEy)
	k1 := o.NotI(o.OrI(xGEz, yGEz))
	i2 := o.OrI(xGEy, xGEz)
	j2 := o.OrI(o.NotI(xGEy), yGEz)
	k2 := o.NotI(o.AndI(xGEz, yGEz))

	one := o.BroadcastF(1)
	g := o.BroadcastF(g3)
	x1 := o.AddF(o.MaskedSubF(i1, x0, one), g)
	y1 := o.AddF(o.MaskedSubF(j1, y0, one), g)
	z1 := o.AddF(o.MaskedSubF(k1, z0, one), g)
	g = o.BroadcastF(2 * g3)
	x2 := o.AddF(o.MaskedSubF(i2, x0, one), g)
	y2 := o.AddF(o.MaskedSubF(j2, y0, one), g)
	z2 := o.AddF(o.MaskedSubF(k2, z0, one), g)
	g = o.BroadcastF(3*g3 - 1)
	x3 := o.AddF(x0, g)
	y3 := o.AddF(y0, g)
	z3 := o.AddF(z0, g)

	pX := o.BroadcastI(primeX)
	pY := o.BroadcastI(primeY)
	pZ := o.BroadcastI(primeZ)
	xp := o.MulI(o.ConvertFI(xf), pX)
	yp := o.MulI(o.ConvertFI(yf), pY)
	zp := o.MulI(o.ConvertFI(zf), pZ)

	corner := func(h I, x, y, z F) F {
		r2 := o.FMulAdd(x, x, o.FMulAdd(y, y, o.MulF(z, z)))
		return o.MulF(k.falloff(0.6, r2), gradDot3(o, h, x, y, z))
	}
	n := corner(hash3(o, seed, xp, yp, zp), x0, y0, z0)
	n = o.AddF(n, corner(hash3(o, seed, o.MaskedAddI(i1, xp, pX), o.MaskedAddI(j1, yp, pY), o.MaskedAddI(k1, zp, pZ)), x1, y1, z1))
	n = o.AddF(n, corner(hash3(o, seed, o.MaskedAddI(i2, xp, pX), o.MaskedAddI(j2, yp, pY), o.MaskedAddI(k2, zp, pZ)), x2, y2, z2))
	n = o.AddF(n, corner(hash3(o, seed, o.AddI(xp, pX), o.AddI(yp, pY), o.AddI(zp, pZ)), x3, y3, z3))

	return k.output(o.MulF(n, o.BroadcastF(simplexScale3)))
}

func (k *simplex[F, I]) gen4(seed I, x, y, z, w F) F {
	const (
		f4 = 0.309016994374947424102
		g4 = 0.138196601125010515180
	)
	o := k.o
	seed = o.AddI(seed, k.seedOffset)
	x, y, z, w = o.MulF(x, k.freq), o.MulF(y, k.freq), o.MulF(z, k.freq), o.MulF(w, k.freq)

	s := o.MulF(o.AddF(o.AddF(x, y), o.AddF(z, w)), o.BroadcastF(f4))
	xf := o.FloorF(o.AddF(x, s))
	yf := o.FloorF(o.AddF(y, s))
	zf := o.FloorF(o.AddF(z, s))
	wf := o.FloorF(o.AddF(w, s))
	t := o.MulF(o.AddF(o.AddF(xf, yf), o.AddF(zf, wf)), o.BroadcastF(g4))
	x0 := o.SubF(x, o.SubF(xf, t))
	y0 := o.SubF(y, o.SubF(yf, t))
	z0 := o.SubF(z, o.SubF(zf, t))
	w0 := o.SubF(w, o.SubF(wf, t))

	// rank each axis by how many others it exceeds; the axis of rank r
	// steps at corner 4-r
	rx, ry, rz, rw := o.ZeroI(), o.ZeroI(), o.ZeroI(), o.ZeroI()
	m := o.GtF(x0, y0)
	rx, ry = o.MaskedIncrementI(m, rx), o.MaskedIncrementI(o.NotI(m), ry)
	m = o.GtF(x0, z0)
	rx, rz = o.MaskedIncrementI(m, rx), o.MaskedIncrementI(o.NotI(m), rz)
	m = o.GtF(x0, w0)
	rx, rw = o.MaskedIncrementI(m, rx), o.MaskedIncrementI(o.NotI(m), rw)
	m = o.GtF(y0, z0)
	ry, rz = o.MaskedIncrementI(m, ry), o.MaskedIncrementI(o.NotI(m), rz)
	m = o.GtF(y0, w0)
	ry, rw = o.MaskedIncrementI(m, ry), o.MaskedIncrementI(o.NotI(m), rw)
	m = o.GtF(z0, w0)
	rz, rw = o.MaskedIncrementI(m, rz), o.MaskedIncrementI(o.NotI(m), rw)

	pX := o.BroadcastI(primeX)
	pY := o.BroadcastI(primeY)
	pZ := o.BroadcastI(primeZ)
	pW := o.BroadcastI(primeW)
	xp := o.MulI(o.ConvertFI(xf), pX)
	yp := o.MulI(o.ConvertFI(yf), pY)
	zp := o.MulI(o.ConvertFI(zf), pZ)
	wp := o.MulI(o.ConvertFI(wf), pW)
	one := o.BroadcastF(1)

	corner := func(h I, x, y, z, w F) F {
		r2 := o.FMulAdd(x, x, o.FMulAdd(y, y, o.FMulAdd(z, z, o.MulF(w, w))))
		return o.MulF(k.falloff(0.6, r2), gradDot4(o, h, x, y, z, w))
	}
	n := corner(hash4(o, seed, xp, yp, zp, wp), x0, y0, z0, w0)

	for c := 1; c <= 3; c++ {
		threshold := o.BroadcastI(int32(3 - c))
		ix := o.GtI(rx, threshold)
		iy := o.GtI(ry, threshold)
		iz := o.GtI(rz, threshold)
		iw := o.GtI(rw, threshold)
		g := o.BroadcastF(float32(c) * g4)
		xc := o.AddF(o.MaskedSubF(ix, x0, one), g)
		yc := o.AddF(o.MaskedSubF(iy, y0, one), g)
		zc := o.AddF(o.MaskedSubF(iz, z0, one), g)
		wc := o.AddF(o.MaskedSubF(iw, w0, one), g)
		h := hash4(o, seed, o.MaskedAddI(ix, xp, pX), o.MaskedAddI(iy, yp, pY), o.MaskedAddI(iz, zp, pZ), o.MaskedAddI(iw, wp, pW))
		n = o.AddF(n, corner(h, xc, yc, zc, wc))
	}

	g := o.BroadcastF(4*g4 - 1)
	h := hash4(o, seed, o.AddI(xp, pX), o.AddI(yp, pY), o.AddI(zp, pZ), o.AddI(wp, pW))
	n = o.AddF(n, corner(h, o.AddF(x0, g), o.AddF(y0, g), o.AddF(z0, g), o.AddF(w0, g)))

	return k.output(o.MulF(n, o.BroadcastF(simplexScale4)))
}
