package noise

import (
	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// fractalBounding returns the reciprocal of the summed octave amplitudes so
// the accumulated output keeps the range of one octave.
func fractalBounding(gain float32, octaves int32) float32 {
	amp := gain
	ampFractal := float32(1)
	for i := int32(1); i < octaves; i++ {
		ampFractal += amp
		amp *= gain
	}
	return 1 / ampFractal
}

// weightBounding returns 2 over the summed ridged-multi octave weights.
func weightBounding(weightAmp float32, octaves int32) float32 {
	weight := float32(1)
	total := float32(1)
	for i := int32(1); i < octaves; i++ {
		weight *= weightAmp
		total += 1 / weight
	}
	return 2 / total
}

// maxOctaves caps the octave loop; decoded and stored values are validated
// against it before they reach a kernel.
const maxOctaves = 16

type fractalMode int

const (
	modeFBm fractalMode = iota
	modeBillow
	modeRidged
)

// fractalBase holds the Gain, Octaves and Lacunarity variables and the
// derived bounding.
type fractalBase[F, I any] struct {
	base[F, I]
	source     slot[F, I]
	gainScalar float32
	octaves    int32
	gain       F
	lacunarity F
	bounding   F
}

func newFractalBase[F, I any](o simd.Backend[F, I]) fractalBase[F, I] {
	f := fractalBase[F, I]{
		base:       base[F, I]{o: o},
		gainScalar: 0.5,
		octaves:    3,
		lacunarity: o.BroadcastF(2),
	}
	f.updateBounding()
	return f
}

func (f *fractalBase[F, I]) updateBounding() {
	f.gain = f.o.BroadcastF(f.gainScalar)
	f.bounding = f.o.BroadcastF(fractalBounding(f.gainScalar, f.octaves))
}

func (f *fractalBase[F, I]) sources() []*slot[F, I] { return []*slot[F, I]{&f.source} }

// setFractal applies the shared variables and reports whether index was one
// of them.
func (f *fractalBase[F, I]) setFractal(index int, v metadata.Value) bool {
	switch index {
	case 0:
		f.gainScalar = v.Float()
	case 1:
		f.octaves = min(max(v.Int(), 1), maxOctaves)
	case 2:
		f.lacunarity = f.o.BroadcastF(v.Float())
		return true
	default:
		return false
	}
	f.updateBounding()
	return true
}

func (f *fractalBase[F, I]) setVariable(i int, v metadata.Value) { f.setFractal(i, v) }

// fractal implements fBm, billow and ridged accumulation; they differ only
// in how each octave's sample is shaped.
type fractal[F, I any] struct {
	fractalBase[F, I]
	mode fractalMode
}

func (k *fractal[F, I]) shape(v F) F {
	o := k.o
	switch k.mode {
	case modeBillow:
		return o.FMulAdd(o.AbsF(v), o.BroadcastF(2), o.BroadcastF(-1))
	case modeRidged:
		return o.FNMulAdd(o.AbsF(v), o.BroadcastF(2), o.BroadcastF(1))
	}
	return v
}

func (k *fractal[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	sum := k.shape(k.source.k.gen2(seed, x, y))
	amp := o.BroadcastF(1)
	one := o.BroadcastI(1)
	for i := int32(1); i < k.octaves; i++ {
		seed = o.AddI(seed, one)
		amp = o.MulF(amp, k.gain)
		x, y = o.MulF(x, k.lacunarity), o.MulF(y, k.lacunarity)
		sum = o.FMulAdd(k.shape(k.source.k.gen2(seed, x, y)), amp, sum)
	}
	return o.MulF(sum, k.bounding)
}

func (k *fractal[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	sum := k.shape(k.source.k.gen3(seed, x, y, z))
	amp := o.BroadcastF(1)
	one := o.BroadcastI(1)
	for i := int32(1); i < k.octaves; i++ {
		seed = o.AddI(seed, one)
		amp = o.MulF(amp, k.gain)
		x, y, z = o.MulF(x, k.lacunarity), o.MulF(y, k.lacunarity), o.MulF(z, k.lacunarity)
		sum = o.FMulAdd(k.shape(k.source.k.gen3(seed, x, y, z)), amp, sum)
	}
	return o.MulF(sum, k.bounding)
}

func (k *fractal[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	sum := k.shape(k.source.k.gen4(seed, x, y, z, w))
	amp := o.BroadcastF(1)
	one := o.BroadcastI(1)
	for i := int32(1); i < k.octaves; i++ {
		seed = o.AddI(seed, one)
		amp = o.MulF(amp, k.gain)
		x, y = o.MulF(x, k.lacunarity), o.MulF(y, k.lacunarity)
		z, w = o.MulF(z, k.lacunarity), o.MulF(w, k.lacunarity)
		sum = o.FMulAdd(k.shape(k.source.k.gen4(seed, x, y, z, w)), amp, sum)
	}
	return o.MulF(sum, k.bounding)
}

// ridgedMulti weights each octave's ridge by the previous one, so detail
// concentrates on the ridges.
type ridgedMulti[F, I any] struct {
	fractalBase[F, I]
	weightAmp float32
	bounding2 F
}

func newRidgedMulti[F, I any](o simd.Backend[F, I]) *ridgedMulti[F, I] {
	k := &ridgedMulti[F, I]{fractalBase: newFractalBase(o), weightAmp: 2}
	k.updateWeights()
	return k
}

func (k *ridgedMulti[F, I]) setVariable(i int, v metadata.Value) {
	if i == 3 {
		k.weightAmp = v.Float()
	} else if !k.setFractal(i, v) {
		return
	}
	k.updateWeights()
}

func (k *ridgedMulti[F, I]) updateWeights() {
	k.bounding2 = k.o.BroadcastF(weightBounding(k.weightAmp, k.octaves))
}

func (k *ridgedMulti[F, I]) ridge(v F) F {
	return k.o.SubF(k.o.BroadcastF(1), k.o.AbsF(v))
}

// accumulate folds one octave scaled by invWeight into sum and returns the
// new previous signal.
func (k *ridgedMulti[F, I]) accumulate(invWeight float32, v, prev, sum F) (F, F) {
	o := k.o
	weight := o.MinF(o.MaxF(o.MulF(o.MulF(prev, k.gain), o.BroadcastF(2)), o.ZeroF()), o.BroadcastF(1))
	signal := o.MulF(k.ridge(v), weight)
	return signal, o.FMulAdd(signal, o.BroadcastF(invWeight), sum)
}

func (k *ridgedMulti[F, I]) finish(sum F) F {
	return k.o.FMulAdd(sum, k.bounding2, k.o.BroadcastF(-1))
}

func (k *ridgedMulti[F, I]) gen2(seed I, x, y F) F {
	o := k.o
	prev := k.ridge(k.source.k.gen2(seed, x, y))
	sum := prev
	weight := float32(1)
	for i := int32(1); i < k.octaves; i++ {
		seed = o.AddI(seed, o.BroadcastI(1))
		x, y = o.MulF(x, k.lacunarity), o.MulF(y, k.lacunarity)
		weight *= k.weightAmp
		prev, sum = k.accumulate(1/weight, k.source.k.gen2(seed, x, y), prev, sum)
	}
	return k.finish(sum)
}

func (k *ridgedMulti[F, I]) gen3(seed I, x, y, z F) F {
	o := k.o
	prev := k.ridge(k.source.k.gen3(seed, x, y, z))
	sum := prev
	weight := float32(1)
	for i := int32(1); i < k.octaves; i++ {
		seed = o.AddI(seed, o.BroadcastI(1))
		x, y, z = o.MulF(x, k.lacunarity), o.MulF(y, k.lacunarity), o.MulF(z, k.lacunarity)
		weight *= k.weightAmp
		prev, sum = k.accumulate(1/weight, k.source.k.gen3(seed, x, y, z), prev, sum)
	}
	return k.finish(sum)
}

func (k *ridgedMulti[F, I]) gen4(seed I, x, y, z, w F) F {
	o := k.o
	prev := k.ridge(k.source.k.gen4(seed, x, y, z, w))
	sum := prev
	weight := float32(1)
	for i := int32(1); i < k.octaves; i++ {
		seed = o.AddI(seed, o.BroadcastI(1))
		x, y = o.MulF(x, k.lacunarity), o.MulF(y, k.lacunarity)
		z, w = o.MulF(z, k.lacunarity), o.MulF(w, k.lacunarity)
		weight *= k.weightAmp
		prev, sum = k.accumulate(1/weight, k.source.k.gen4(seed, x, y, z, w), prev, sum)
	}
	return k.finish(sum)
}
