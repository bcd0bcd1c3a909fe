package noise

import (
	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// kernel is the level-specific implementation of one node. F and I are the
// float and int lane types of its level; every kernel in a graph shares them,
// so sources call each other directly without per-sample conversion.
type kernel[F, I any] interface {
	gen2(seed I, x, y F) F
	gen3(seed I, x, y, z F) F
	gen4(seed I, x, y, z, w F) F

	setVariable(index int, v metadata.Value)
	sources() []*slot[F, I]
	hybrids() []*hybrid[F, I]
}

// warper is implemented by domain warp kernels so fractal warps can drive
// them octave by octave.
type warper[F, I any] interface {
	kernel[F, I]
	warpParams() (amp, freq float32)
	warp2(seed I, amp, freq F, x, y F) (F, F)
	warp3(seed I, amp, freq F, x, y, z F) (F, F, F)
	warp4(seed I, amp, freq F, x, y, z, w F) (F, F, F, F)
	target() *slot[F, I]
}

// slot is a source input. Nodes are always created with every source
// pointing at a zero constant, so gen never meets a nil kernel.
type slot[F, I any] struct {
	k kernel[F, I]
	w warper[F, I]
}

func (s *slot[F, I]) set(k kernel[F, I]) {
	s.k = k
	s.w, _ = k.(warper[F, I])
}

// hybrid is a constant-or-node input; a linked node wins.
type hybrid[F, I any] struct {
	k kernel[F, I]
	c F
}

func (h *hybrid[F, I]) gen2(seed I, x, y F) F {
	if h.k != nil {
		return h.k.gen2(seed, x, y)
	}
	return h.c
}

func (h *hybrid[F, I]) gen3(seed I, x, y, z F) F {
	if h.k != nil {
		return h.k.gen3(seed, x, y, z)
	}
	return h.c
}

func (h *hybrid[F, I]) gen4(seed I, x, y, z, w F) F {
	if h.k != nil {
		return h.k.gen4(seed, x, y, z, w)
	}
	return h.c
}

// base carries the level backend and no-op member handling for kernels
// without sources, hybrids or variables.
type base[F, I any] struct {
	o simd.Backend[F, I]
}

func (base[F, I]) setVariable(int, metadata.Value) {}
func (base[F, I]) sources() []*slot[F, I]         { return nil }
func (base[F, I]) hybrids() []*hybrid[F, I]       { return nil }

// zero is the placeholder kernel for unlinked sources.
type zero[F, I any] struct {
	base[F, I]
}

func (k *zero[F, I]) gen2(I, F, F) F       { return k.o.ZeroF() }
func (k *zero[F, I]) gen3(I, F, F, F) F    { return k.o.ZeroF() }
func (k *zero[F, I]) gen4(I, F, F, F, F) F { return k.o.ZeroF() }

// coherentBase holds the Feature Scale, Seed Offset and output range
// variables shared by the lattice noises. Member order is fixed by
// scalable, seeded and outputRange.
type coherentBase[F, I any] struct {
	base[F, I]
	freq       F
	seedOffset I
	outScale   F
	outOffset  F
	outMin     float32
	outMax     float32

	hasScale, hasSeed, hasRange bool
}

func newCoherentBase[F, I any](o simd.Backend[F, I], scale, seed, outRange bool) coherentBase[F, I] {
	c := coherentBase[F, I]{
		base:     base[F, I]{o: o},
		freq:     o.BroadcastF(1),
		outMin:   -1,
		outMax:   1,
		hasScale: scale,
		hasSeed:  seed,
		hasRange: outRange,
	}
	c.seedOffset = o.ZeroI()
	c.updateRange()
	return c
}

func (c *coherentBase[F, I]) updateRange() {
	half := (c.outMax - c.outMin) * 0.5
	c.outScale = c.o.BroadcastF(half)
	c.outOffset = c.o.BroadcastF(c.outMin + half)
}

// setCommon applies one of the shared variables and returns the index of
// the first kind-specific variable when index is past them.
func (c *coherentBase[F, I]) setCommon(index int, v metadata.Value) (int, bool) {
	if c.hasScale {
		if index == 0 {
			scale := v.Float()
			if scale == 0 {
				scale = 1
			}
			c.freq = c.o.BroadcastF(1 / scale)
			return 0, true
		}
		index--
	}
	if c.hasSeed {
		if index == 0 {
			c.seedOffset = c.o.BroadcastI(v.Int())
			return 0, true
		}
		index--
	}
	if c.hasRange {
		switch index {
		case 0:
			c.outMin = v.Float()
			c.updateRange()
			return 0, true
		case 1:
			c.outMax = v.Float()
			c.updateRange()
			return 0, true
		}
		index -= 2
	}
	return index, false
}

func (c *coherentBase[F, I]) output(v F) F {
	return c.o.FMulAdd(v, c.outScale, c.outOffset)
}
