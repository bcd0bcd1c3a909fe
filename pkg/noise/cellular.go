package noise

import (
	"math"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// Maximum distance of a cell point from its cell centre at jitter 1. Below
// 0.5 the nearest point always lies in the 3^n neighbourhood of the cell
// containing the sample.
const cellJitter = 0.43701595

// Enum options of Return Type.
const (
	cellIndex0 int32 = iota
	cellIndex0Add1
	cellIndex0Sub1
	cellIndex0Mul1
	cellIndex0Div1
)

type cellularBase[F, I any] struct {
	coherentBase[F, I]
	fn     int32
	jitter hybrid[F, I]
}

func newCellularBase[F, I any](o simd.Backend[F, I]) cellularBase[F, I] {
	c := cellularBase[F, I]{
		coherentBase: newCoherentBase(o, true, true, false),
		fn:           distEuclideanSquared,
	}
	c.jitter.c = o.BroadcastF(1)
	return c
}

// setCellular handles Feature Scale, Seed Offset and Distance Function and
// returns the kind-specific index of any later variable.
func (c *cellularBase[F, I]) setCellular(index int, v metadata.Value) (int, bool) {
	index, done := c.setCommon(index, v)
	if done {
		return 0, true
	}
	if index == 0 {
		c.fn = v.Int()
		return 0, true
	}
	return index - 1, false
}

func (c *cellularBase[F, I]) hybrids() []*hybrid[F, I] {
	return []*hybrid[F, I]{&c.jitter}
}

// axisJitter extracts a signed jitter component from bits of h.
func (c *cellularBase[F, I]) axisJitter(h I, shift uint, mask int32, scale, cell F) F {
	o := c.o
	bits := o.AndI(o.ShrI(h, shift), o.BroadcastI(mask))
	centred := o.SubF(o.ConvertIF(bits), o.BroadcastF(float32(mask)*0.5))
	return o.FMulAdd(centred, scale, cell)
}

type cellVisitor[F, I any] func(dist F, h I, p [4]F)

func (c *cellularBase[F, I]) scan2(seed I, x, y F, visit cellVisitor[F, I]) {
	o := c.o
	scale := o.MulF(c.jitter.gen2(seed, x, y), o.BroadcastF(cellJitter/511.5))
	seed = o.AddI(seed, c.seedOffset)
	x, y = o.MulF(x, c.freq), o.MulF(y, c.freq)
	xr, yr := o.RoundF(x), o.RoundF(y)
	zero := o.ZeroF()

	for dx := -1; dx <= 1; dx++ {
		cx := o.AddF(xr, o.BroadcastF(float32(dx)))
		hx := o.MulI(o.ConvertFI(cx), o.BroadcastI(primeX))
		for dy := -1; dy <= 1; dy++ {
			cy := o.AddF(yr, o.BroadcastF(float32(dy)))
			h := hash2(o, seed, hx, o.MulI(o.ConvertFI(cy), o.BroadcastI(primeY)))
			px := c.axisJitter(h, 0, 1023, scale, cx)
			py := c.axisJitter(h, 10, 1023, scale, cy)

			acc := newDistanceAcc(o)
			acc.add(c.fn, o.SubF(px, x), zero)
			acc.add(c.fn, o.SubF(py, y), zero)
			visit(acc.result(c.fn, zero), h, [4]F{px, py, zero, zero})
		}
	}
}

func (c *cellularBase[F, I]) scan3(seed I, x, y, z F, visit cellVisitor[F, I]) {
	o := c.o
	scale := o.MulF(c.jitter.gen3(seed, x, y, z), o.BroadcastF(cellJitter/511.5))
	seed = o.AddI(seed, c.seedOffset)
	x, y, z = o.MulF(x, c.freq), o.MulF(y, c.freq), o.MulF(z, c.freq)
	xr, yr, zr := o.RoundF(x), o.RoundF(y), o.RoundF(z)
	zero := o.ZeroF()

	for dx := -1; dx <= 1; dx++ {
		cx := o.AddF(xr, o.BroadcastF(float32(dx)))
		hx := o.MulI(o.ConvertFI(cx), o.BroadcastI(primeX))
		for dy := -1; dy <= 1; dy++ {
			cy := o.AddF(yr, o.BroadcastF(float32(dy)))
			hy := o.MulI(o.ConvertFI(cy), o.BroadcastI(primeY))
			for dz := -1; dz <= 1; dz++ {
				cz := o.AddF(zr, o.BroadcastF(float32(dz)))
				h := hash3(o, seed, hx, hy, o.MulI(o.ConvertFI(cz), o.BroadcastI(primeZ)))
				px := c.axisJitter(h, 0, 1023, scale, cx)
				py := c.axisJitter(h, 10, 1023, scale, cy)
				pz := c.axisJitter(h, 20, 1023, scale, cz)

				acc := newDistanceAcc(o)
				acc.add(c.fn, o.SubF(px, x), zero)
				acc.add(c.fn, o.SubF(py, y), zero)
				acc.add(c.fn, o.SubF(pz, z), zero)
				visit(acc.result(c.fn, zero), h, [4]F{px, py, pz, zero})
			}
		}
	}
}

func (c *cellularBase[F, I]) scan4(seed I, x, y, z, w F, visit cellVisitor[F, I]) {
	o := c.o
	scale := o.MulF(c.jitter.gen4(seed, x, y, z, w), o.BroadcastF(cellJitter/127.5))
	seed = o.AddI(seed, c.seedOffset)
	x, y, z, w = o.MulF(x, c.freq), o.MulF(y, c.freq), o.MulF(z, c.freq), o.MulF(w, c.freq)
	xr, yr, zr, wr := o.RoundF(x), o.RoundF(y), o.RoundF(z), o.RoundF(w)
	zero := o.ZeroF()

	for dx := -1; dx <= 1; dx++ {
		cx := o.AddF(xr, o.BroadcastF(float32(dx)))
		hx := o.MulI(o.ConvertFI(cx), o.BroadcastI(primeX))
		for dy := -1; dy <= 1; dy++ {
			cy := o.AddF(yr, o.BroadcastF(float32(dy)))
			hy := o.MulI(o.ConvertFI(cy), o.BroadcastI(primeY))
			for dz := -1; dz <= 1; dz++ {
				cz := o.AddF(zr, o.BroadcastF(float32(dz)))
				hz := o.MulI(o.ConvertFI(cz), o.BroadcastI(primeZ))
				for dw := -1; dw <= 1; dw++ {
					cw := o.AddF(wr, o.BroadcastF(float32(dw)))
					h := hash4(o, seed, hx, hy, hz, o.MulI(o.ConvertFI(cw), o.BroadcastI(primeW)))
					px := c.axisJitter(h, 0, 255, scale, cx)
					py := c.axisJitter(h, 8, 255, scale, cy)
					pz := c.axisJitter(h, 16, 255, scale, cz)
					pw := c.axisJitter(h, 24, 255, scale, cw)

					acc := newDistanceAcc(o)
					acc.add(c.fn, o.SubF(px, x), zero)
					acc.add(c.fn, o.SubF(py, y), zero)
					acc.add(c.fn, o.SubF(pz, z), zero)
					acc.add(c.fn, o.SubF(pw, w), zero)
					visit(acc.result(c.fn, zero), h, [4]F{px, py, pz, pw})
				}
			}
		}
	}
}

// nearest keeps the n smallest distances seen, in ascending order, with
// the hash of the cell each came from.
type nearest[F, I any] struct {
	o    simd.Backend[F, I]
	n    int
	dist [4]F
	hash [4]I
}

func newNearest[F, I any](o simd.Backend[F, I], n int) *nearest[F, I] {
	k := &nearest[F, I]{o: o, n: n}
	for i := range k.dist {
		k.dist[i] = o.BroadcastF(math.MaxFloat32)
		k.hash[i] = o.ZeroI()
	}
	return k
}

func (k *nearest[F, I]) insert(d F, h I, _ [4]F) {
	o := k.o
	for i := 0; i < k.n; i++ {
		closer := o.LtF(d, k.dist[i])
		nd, nh := o.SelectF(closer, k.dist[i], d), o.SelectI(closer, k.hash[i], h)
		k.dist[i], k.hash[i] = o.SelectF(closer, d, k.dist[i]), o.SelectI(closer, h, k.hash[i])
		d, h = nd, nh
	}
}

type cellularValue[F, I any] struct {
	cellularBase[F, I]
	index int
}

func (k *cellularValue[F, I]) setVariable(i int, v metadata.Value) {
	if i, done := k.setCellular(i, v); !done && i == 0 {
		k.index = clampIndex(v.Int(), 2)
	}
}

func (k *cellularValue[F, I]) result(n *nearest[F, I]) F {
	return valueOf(k.o, n.hash[k.index])
}

func (k *cellularValue[F, I]) gen2(seed I, x, y F) F {
	n := newNearest(k.o, k.index+1)
	k.scan2(seed, x, y, n.insert)
	return k.result(n)
}

func (k *cellularValue[F, I]) gen3(seed I, x, y, z F) F {
	n := newNearest(k.o, k.index+1)
	k.scan3(seed, x, y, z, n.insert)
	return k.result(n)
}

func (k *cellularValue[F, I]) gen4(seed I, x, y, z, w F) F {
	n := newNearest(k.o, k.index+1)
	k.scan4(seed, x, y, z, w, n.insert)
	return k.result(n)
}

type cellularDistance[F, I any] struct {
	cellularBase[F, I]
	index0, index1 int
	ret            int32
}

func (k *cellularDistance[F, I]) setVariable(i int, v metadata.Value) {
	i, done := k.setCellular(i, v)
	if done {
		return
	}
	switch i {
	case 0:
		k.index0 = clampIndex(v.Int(), 3)
	case 1:
		k.index1 = clampIndex(v.Int(), 3)
	case 2:
		k.ret = v.Int()
	}
}

func (k *cellularDistance[F, I]) tracked() int {
	return max(k.index0, k.index1) + 1
}

func (k *cellularDistance[F, I]) result(n *nearest[F, I]) F {
	o := k.o
	d0, d1 := n.dist[k.index0], n.dist[k.index1]
	var r F
	switch k.ret {
	case cellIndex0Add1:
		r = o.AddF(d0, d1)
	case cellIndex0Sub1:
		r = o.SubF(d1, d0)
	case cellIndex0Mul1:
		r = o.MulF(d0, d1)
	case cellIndex0Div1:
		r = o.MulF(d0, o.ReciprocalF(d1))
	default:
		r = d0
	}
	return o.SubF(r, o.BroadcastF(1))
}

func (k *cellularDistance[F, I]) gen2(seed I, x, y F) F {
	n := newNearest(k.o, k.tracked())
	k.scan2(seed, x, y, n.insert)
	return k.result(n)
}

func (k *cellularDistance[F, I]) gen3(seed I, x, y, z F) F {
	n := newNearest(k.o, k.tracked())
	k.scan3(seed, x, y, z, n.insert)
	return k.result(n)
}

func (k *cellularDistance[F, I]) gen4(seed I, x, y, z, w F) F {
	n := newNearest(k.o, k.tracked())
	k.scan4(seed, x, y, z, w, n.insert)
	return k.result(n)
}

type cellularLookup[F, I any] struct {
	cellularBase[F, I]
	lookup     slot[F, I]
	lookupFreq F
}

func (k *cellularLookup[F, I]) setVariable(i int, v metadata.Value) {
	if i, done := k.setCellular(i, v); !done && i == 0 {
		k.lookupFreq = k.o.BroadcastF(v.Float())
	}
}

func (k *cellularLookup[F, I]) sources() []*slot[F, I] { return []*slot[F, I]{&k.lookup} }

// closestPoint tracks the cell point with the smallest distance.
type closestPoint[F, I any] struct {
	o     simd.Backend[F, I]
	dist  F
	point [4]F
}

func (c *closestPoint[F, I]) visit(d F, _ I, p [4]F) {
	closer := c.o.LtF(d, c.dist)
	c.dist = c.o.SelectF(closer, d, c.dist)
	for i := range p {
		c.point[i] = c.o.SelectF(closer, p[i], c.point[i])
	}
}

func (k *cellularLookup[F, I]) closest() *closestPoint[F, I] {
	c := &closestPoint[F, I]{o: k.o, dist: k.o.BroadcastF(math.MaxFloat32)}
	for i := range c.point {
		c.point[i] = k.o.ZeroF()
	}
	return c
}

func (k *cellularLookup[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	c := k.closest()
	k.scan2(seed, x, y, c.visit)
	return k.lookup.k.gen2(seed, o.MulF(c.point[0], k.lookupFreq), o.MulF(c.point[1], k.lookupFreq))
}

func (k *cellularLookup[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	c := k.closest()
	k.scan3(seed, x, y, z, c.visit)
	return k.lookup.k.gen3(seed, o.MulF(c.point[0], k.lookupFreq), o.MulF(c.point[1], k.lookupFreq), o.MulF(c.point[2], k.lookupFreq))
}

func (k *cellularLookup[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	c := k.closest()
	k.scan4(seed, x, y, z, w, c.visit)
	return k.lookup.k.gen4(seed, o.MulF(c.point[0], k.lookupFreq), o.MulF(c.point[1], k.lookupFreq),
		o.MulF(c.point[2], k.lookupFreq), o.MulF(c.point[3], k.lookupFreq))
}

func clampIndex(v int32, hi int) int {
	return min(max(int(v), 0), hi)
}
