package noise

import (
	"math"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// generator is the width-erased face of a level-specific node. Callers have
// already validated buffer sizes.
type generator interface {
	setVariable(index int, v metadata.Value)
	setSource(index int, child generator)
	setHybridNode(index int, child generator)
	setHybridValue(index int, v float32)

	grid2(out []float32, x0, y0 float32, nx, ny int, sx, sy float32, seed int32)
	grid3(out []float32, x0, y0, z0 float32, nx, ny, nz int, sx, sy, sz float32, seed int32)
	grid4(out []float32, x0, y0, z0, w0 float32, nx, ny, nz, nw int, sx, sy, sz, sw float32, seed int32)
	tileable2(out []float32, nx, ny, cols, rows int, sx, sy float32, seed int32)
	positions2(out, xs, ys []float32, ox, oy float32, seed int32)
	positions3(out, xs, ys, zs []float32, ox, oy, oz float32, seed int32)
	positions4(out, xs, ys, zs, ws []float32, ox, oy, oz, ow float32, seed int32)
	single2(x, y float32, seed int32) float32
	single3(x, y, z float32, seed int32) float32
	single4(x, y, z, w float32, seed int32) float32
}

// instantiate builds the kernel of kind for level l. l must be compiled.
func instantiate(kind Kind, l simd.Level) generator {
	switch l.Width() {
	case 1:
		return newDriver[simd.F32x1, simd.I32x1](kind, l)
	case 4:
		return newDriver[simd.F32x4, simd.I32x4](kind, l)
	case 8:
		return newDriver[simd.F32x8, simd.I32x8](kind, l)
	case 16:
		return newDriver[simd.F32x16, simd.I32x16](kind, l)
	}
	return nil
}

type driver[F, I any] struct {
	o simd.Backend[F, I]
	k kernel[F, I]
}

func newDriver[F simd.FloatLanes, I simd.IntLanes](kind Kind, l simd.Level) *driver[F, I] {
	o := simd.NewLanes[F, I](l)
	k := buildKernel[F, I](o, kind)
	if k == nil {
		return nil
	}
	placeholder := &zero[F, I]{base: base[F, I]{o: o}}
	for _, s := range k.sources() {
		s.set(placeholder)
	}
	return &driver[F, I]{o: o, k: k}
}

func newSingle[F, I any](o simd.Backend[F, I]) single[F, I] {
	return single[F, I]{base: base[F, I]{o: o}}
}

func buildKernel[F, I any](o simd.Backend[F, I], kind Kind) kernel[F, I] {
	switch kind {
	case KindConstant:
		return newConstant(o)
	case KindWhite:
		return &white[F, I]{newCoherentBase(o, false, true, true)}
	case KindCheckerboard:
		return &checkerboard[F, I]{newCoherentBase(o, true, false, true)}
	case KindSineWave:
		return &sineWave[F, I]{newCoherentBase(o, true, false, true)}
	case KindPositionOutput:
		return newPositionOutput(o)
	case KindDistanceToPoint:
		return newDistanceToPoint(o)
	case KindValue:
		return &value[F, I]{newCoherentBase(o, true, true, true)}
	case KindPerlin:
		return &perlin[F, I]{newCoherentBase(o, true, true, true)}
	case KindSimplex:
		return &simplex[F, I]{newCoherentBase(o, true, true, true)}
	case KindCellularValue:
		return &cellularValue[F, I]{cellularBase: newCellularBase(o)}
	case KindCellularDistance:
		return &cellularDistance[F, I]{cellularBase: newCellularBase(o), index1: 1}
	case KindCellularLookup:
		return &cellularLookup[F, I]{cellularBase: newCellularBase(o), lookupFreq: o.BroadcastF(0.1)}
	case KindFractalFBm:
		return &fractal[F, I]{fractalBase: newFractalBase(o), mode: modeFBm}
	case KindFractalBillow:
		return &fractal[F, I]{fractalBase: newFractalBase(o), mode: modeBillow}
	case KindFractalRidged:
		return &fractal[F, I]{fractalBase: newFractalBase(o), mode: modeRidged}
	case KindFractalRidgedMulti:
		return newRidgedMulti(o)
	case KindDomainWarpGradient:
		return newWarpGradient(o)
	case KindDomainWarpFractalProgressive:
		return &warpFractal[F, I]{fractalBase: newFractalBase(o)}
	case KindDomainWarpFractalIndependent:
		return &warpFractal[F, I]{fractalBase: newFractalBase(o), independent: true}
	case KindDomainScale:
		return &domainScale[F, I]{single: newSingle(o), scale: o.BroadcastF(1)}
	case KindDomainOffset:
		return &domainOffset[F, I]{single: newSingle(o)}
	case KindDomainRotate:
		return newDomainRotate(o)
	case KindDomainAxisScale:
		k := &domainAxisScale[F, I]{single: newSingle(o)}
		for i := range k.scale {
			k.scale[i] = o.BroadcastF(1)
		}
		return k
	case KindSeedOffset:
		return &seedOffset[F, I]{single: newSingle(o), offset: o.BroadcastI(1)}
	case KindRemap:
		return newRemap(o)
	case KindTerrace:
		return newTerrace(o)
	case KindPingPong:
		return newPingPong(o)
	case KindAbs:
		return newAbs(o)
	case KindSignedSquareRoot:
		return newSignedSquareRoot(o)
	case KindAdd, KindSubtract, KindMultiply, KindDivide, KindMin, KindMax,
		KindMinSmooth, KindMaxSmooth, KindPowFloat:
		return newBlend(o, kind)
	case KindPowInt:
		return newPowInt(o)
	case KindFade:
		return &fade[F, I]{base: base[F, I]{o: o}}
	}
	return nil
}

func (d *driver[F, I]) setVariable(index int, v metadata.Value) {
	d.k.setVariable(index, v)
}

// Children are always drivers of the same level; the setters on SmartNode
// check levels before linking.
func (d *driver[F, I]) setSource(index int, child generator) {
	d.k.sources()[index].set(child.(*driver[F, I]).k)
}

func (d *driver[F, I]) setHybridNode(index int, child generator) {
	h := d.k.hybrids()[index]
	if child == nil {
		h.k = nil
		return
	}
	h.k = child.(*driver[F, I]).k
}

func (d *driver[F, I]) setHybridValue(index int, v float32) {
	d.k.hybrids()[index].c = d.o.BroadcastF(v)
}

// gridIndex walks the lattice index of every lane through a row-major grid,
// one vector of samples at a time.
type gridIndex[F, I any] struct {
	o       simd.Backend[F, I]
	dims    int
	idx     [4]I
	size    [4]I
	last    [4]I
	step    I
	carries int
}

func newGridIndex[F, I any](o simd.Backend[F, I], sizes [4]int, dims int) *gridIndex[F, I] {
	w := o.Width()
	g := &gridIndex[F, I]{
		o:    o,
		dims: dims,
		step: o.BroadcastI(int32(w)),
		// a step of w lanes wraps the first axis at most ceil(w/n) times
		carries: (w + sizes[0] - 1) / sizes[0],
	}
	for d := 0; d < 4; d++ {
		g.idx[d] = o.ZeroI()
		g.size[d] = o.BroadcastI(int32(sizes[d]))
		g.last[d] = o.BroadcastI(int32(sizes[d] - 1))
	}
	g.idx[0] = o.IncrementedI()
	g.normalize()
	return g
}

func (g *gridIndex[F, I]) normalize() {
	o := g.o
	for r := 0; r < g.carries; r++ {
		for d := 0; d < g.dims-1; d++ {
			m := o.GtI(g.idx[d], g.last[d])
			g.idx[d] = o.MaskedSubI(m, g.idx[d], g.size[d])
			g.idx[d+1] = o.MaskedIncrementI(m, g.idx[d+1])
		}
	}
}

func (g *gridIndex[F, I]) advance() {
	g.idx[0] = g.o.AddI(g.idx[0], g.step)
	g.normalize()
}

// coord maps a lattice index to origin + index*step. The multiply and add
// stay unfused so every level sees identical coordinates.
func (g *gridIndex[F, I]) coord(d int, origin, step F) F {
	return g.o.AddF(g.o.MulF(g.o.ConvertIF(g.idx[d]), step), origin)
}

func (d *driver[F, I]) grid2(out []float32, x0, y0 float32, nx, ny int, sx, sy float32, seed int32) {
	o := d.o
	total := nx * ny
	g := newGridIndex(o, [4]int{nx, ny, 1, 1}, 2)
	ox, oy := o.BroadcastF(x0), o.BroadcastF(y0)
	stx, sty := o.BroadcastF(sx), o.BroadcastF(sy)
	s := o.BroadcastI(seed)
	for i := 0; i < total; i += o.Width() {
		v := d.k.gen2(s, g.coord(0, ox, stx), g.coord(1, oy, sty))
		o.StoreF(out[i:total], v)
		g.advance()
	}
}

func (d *driver[F, I]) grid3(out []float32, x0, y0, z0 float32, nx, ny, nz int, sx, sy, sz float32, seed int32) {
	o := d.o
	total := nx * ny * nz
	g := newGridIndex(o, [4]int{nx, ny, nz, 1}, 3)
	ox, oy, oz := o.BroadcastF(x0), o.BroadcastF(y0), o.BroadcastF(z0)
	stx, sty, stz := o.BroadcastF(sx), o.BroadcastF(sy), o.BroadcastF(sz)
	s := o.BroadcastI(seed)
	for i := 0; i < total; i += o.Width() {
		v := d.k.gen3(s, g.coord(0, ox, stx), g.coord(1, oy, sty), g.coord(2, oz, stz))
		o.StoreF(out[i:total], v)
		g.advance()
	}
}

func (d *driver[F, I]) grid4(out []float32, x0, y0, z0, w0 float32, nx, ny, nz, nw int, sx, sy, sz, sw float32, seed int32) {
	o := d.o
	total := nx * ny * nz * nw
	g := newGridIndex(o, [4]int{nx, ny, nz, nw}, 4)
	ox, oy, oz, ow := o.BroadcastF(x0), o.BroadcastF(y0), o.BroadcastF(z0), o.BroadcastF(w0)
	stx, sty, stz, stw := o.BroadcastF(sx), o.BroadcastF(sy), o.BroadcastF(sz), o.BroadcastF(sw)
	s := o.BroadcastI(seed)
	for i := 0; i < total; i += o.Width() {
		v := d.k.gen4(s, g.coord(0, ox, stx), g.coord(1, oy, sty), g.coord(2, oz, stz), g.coord(3, ow, stw))
		o.StoreF(out[i:total], v)
		g.advance()
	}
}

// tileable2 samples a cols x rows grid whose axes wrap every nx and ny
// samples: each axis is mapped onto a circle and the pair of circles forms
// a torus sampled in 4D. The circle radius keeps the spacing between
// neighbouring samples close to the requested step.
//
// Lattice indices are reduced modulo the period before they become angles,
// so index nx lands on exactly the same torus point as index 0. The circle
// points are computed per lane in float64, giving every level the same
// coordinate bits.
func (d *driver[F, I]) tileable2(out []float32, nx, ny, cols, rows int, sx, sy float32, seed int32) {
	o := d.o
	w := o.Width()
	total := cols * rows
	g := newGridIndex(o, [4]int{cols, rows, 1, 1}, 2)
	cx := torusCircle{period: nx, radius: float64(nx) * float64(sx) / twoPi}
	cy := torusCircle{period: ny, radius: float64(ny) * float64(sy) / twoPi}
	s := o.BroadcastI(seed)

	var ix, iy [simd.MaxWidth]int32
	var px, py, pz, pw [simd.MaxWidth]float32
	for i := 0; i < total; i += w {
		o.StoreI(ix[:w], g.idx[0])
		o.StoreI(iy[:w], g.idx[1])
		for l := 0; l < w; l++ {
			px[l], py[l] = cx.point(ix[l])
			pz[l], pw[l] = cy.point(iy[l])
		}
		v := d.k.gen4(s, o.LoadF(px[:w]), o.LoadF(py[:w]), o.LoadF(pz[:w]), o.LoadF(pw[:w]))
		o.StoreF(out[i:total], v)
		g.advance()
	}
}

// torusCircle maps a lattice index onto one circle of the torus.
type torusCircle struct {
	period int
	radius float64
}

func (c torusCircle) point(index int32) (float32, float32) {
	i := int(index) % c.period
	sin, cos := math.Sincos(twoPi * float64(i) / float64(c.period))
	return float32(cos * c.radius), float32(sin * c.radius)
}

func (d *driver[F, I]) positions2(out, xs, ys []float32, ox, oy float32, seed int32) {
	o := d.o
	n := len(xs)
	offX, offY := o.BroadcastF(ox), o.BroadcastF(oy)
	s := o.BroadcastI(seed)
	for i := 0; i < n; i += o.Width() {
		v := d.k.gen2(s, o.AddF(o.LoadF(xs[i:n]), offX), o.AddF(o.LoadF(ys[i:n]), offY))
		o.StoreF(out[i:n], v)
	}
}

func (d *driver[F, I]) positions3(out, xs, ys, zs []float32, ox, oy, oz float32, seed int32) {
	o := d.o
	n := len(xs)
	offX, offY, offZ := o.BroadcastF(ox), o.BroadcastF(oy), o.BroadcastF(oz)
	s := o.BroadcastI(seed)
	for i := 0; i < n; i += o.Width() {
		v := d.k.gen3(s,
			o.AddF(o.LoadF(xs[i:n]), offX),
			o.AddF(o.LoadF(ys[i:n]), offY),
			o.AddF(o.LoadF(zs[i:n]), offZ))
		o.StoreF(out[i:n], v)
	}
}

func (d *driver[F, I]) positions4(out, xs, ys, zs, ws []float32, ox, oy, oz, ow float32, seed int32) {
	o := d.o
	n := len(xs)
	offX, offY, offZ, offW := o.BroadcastF(ox), o.BroadcastF(oy), o.BroadcastF(oz), o.BroadcastF(ow)
	s := o.BroadcastI(seed)
	for i := 0; i < n; i += o.Width() {
		v := d.k.gen4(s,
			o.AddF(o.LoadF(xs[i:n]), offX),
			o.AddF(o.LoadF(ys[i:n]), offY),
			o.AddF(o.LoadF(zs[i:n]), offZ),
			o.AddF(o.LoadF(ws[i:n]), offW))
		o.StoreF(out[i:n], v)
	}
}

func (d *driver[F, I]) single2(x, y float32, seed int32) float32 {
	o := d.o
	return o.LaneF(d.k.gen2(o.BroadcastI(seed), o.BroadcastF(x), o.BroadcastF(y)), 0)
}

func (d *driver[F, I]) single3(x, y, z float32, seed int32) float32 {
	o := d.o
	return o.LaneF(d.k.gen3(o.BroadcastI(seed), o.BroadcastF(x), o.BroadcastF(y), o.BroadcastF(z)), 0)
}

func (d *driver[F, I]) single4(x, y, z, w float32, seed int32) float32 {
	o := d.o
	return o.LaneF(d.k.gen4(o.BroadcastI(seed), o.BroadcastF(x), o.BroadcastF(y), o.BroadcastF(z), o.BroadcastF(w)), 0)
}
