package noise

import (
	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// binary combines two inputs pointwise. The left input is either a Source
// or a hybrid depending on the kind; the right input is always a hybrid.
// An optional third hybrid parametrizes the operator.
type binary[F, I any] struct {
	base[F, I]
	lhsSource   bool
	hasParam    bool
	lhsSlot     slot[F, I]
	lhs, rhs, p hybrid[F, I]
	op          func(a, b, p F) F
}

func newBinary[F, I any](o simd.Backend[F, I], lhsSource, hasParam bool, op func(a, b, p F) F) *binary[F, I] {
	return &binary[F, I]{base: base[F, I]{o: o}, lhsSource: lhsSource, hasParam: hasParam, op: op}
}

func (k *binary[F, I]) sources() []*slot[F, I] {
	if k.lhsSource {
		return []*slot[F, I]{&k.lhsSlot}
	}
	return nil
}

func (k *binary[F, I]) hybrids() []*hybrid[F, I] {
	var hs []*hybrid[F, I]
	if !k.lhsSource {
		hs = append(hs, &k.lhs)
	}
	hs = append(hs, &k.rhs)
	if k.hasParam {
		hs = append(hs, &k.p)
	}
	return hs
}

func (k *binary[F, I]) gen2(seed I, x, y F) F {
	var a F
	if k.lhsSource {
		a = k.lhsSlot.k.gen2(seed, x, y)
	} else {
		a = k.lhs.gen2(seed, x, y)
	}
	var p F
	if k.hasParam {
		p = k.p.gen2(seed, x, y)
	}
	return k.op(a, k.rhs.gen2(seed, x, y), p)
}

func (k *binary[F, I]) gen3(seed I, x, y, z F) F {
	var a F
	if k.lhsSource {
		a = k.lhsSlot.k.gen3(seed, x, y, z)
	} else {
		a = k.lhs.gen3(seed, x, y, z)
	}
	var p F
	if k.hasParam {
		p = k.p.gen3(seed, x, y, z)
	}
	return k.op(a, k.rhs.gen3(seed, x, y, z), p)
}

func (k *binary[F, I]) gen4(seed I, x, y, z, w F) F {
	var a F
	if k.lhsSource {
		a = k.lhsSlot.k.gen4(seed, x, y, z, w)
	} else {
		a = k.lhs.gen4(seed, x, y, z, w)
	}
	var p F
	if k.hasParam {
		p = k.p.gen4(seed, x, y, z, w)
	}
	return k.op(a, k.rhs.gen4(seed, x, y, z, w), p)
}

// smoothBlend is the polynomial smooth minimum of a and b, or the smooth
// maximum when maximum is set. k is the width of the blended region.
func smoothBlend[F, I any](o simd.Backend[F, I], a, b, k F, maximum bool) F {
	k = o.MaxF(k, o.BroadcastF(1.175494351e-38))
	h := o.MaxF(o.SubF(k, o.AbsF(o.SubF(a, b))), o.ZeroF())
	corr := o.DivF(o.MulF(o.MulF(h, h), o.BroadcastF(0.25)), k)
	if maximum {
		return o.AddF(o.MaxF(a, b), corr)
	}
	return o.SubF(o.MinF(a, b), corr)
}

func newBlend[F, I any](o simd.Backend[F, I], kind Kind) kernel[F, I] {
	switch kind {
	case KindAdd:
		return newBinary(o, true, false, func(a, b, _ F) F { return o.AddF(a, b) })
	case KindSubtract:
		return newBinary(o, false, false, func(a, b, _ F) F { return o.SubF(a, b) })
	case KindMultiply:
		return newBinary(o, true, false, func(a, b, _ F) F { return o.MulF(a, b) })
	case KindDivide:
		return newBinary(o, false, false, func(a, b, _ F) F { return o.DivF(a, b) })
	case KindMin:
		return newBinary(o, true, false, func(a, b, _ F) F { return o.MinF(a, b) })
	case KindMax:
		return newBinary(o, true, false, func(a, b, _ F) F { return o.MaxF(a, b) })
	case KindMinSmooth:
		return newBinary(o, true, true, func(a, b, p F) F { return smoothBlend(o, a, b, p, false) })
	case KindMaxSmooth:
		return newBinary(o, true, true, func(a, b, p F) F { return smoothBlend(o, a, b, p, true) })
	case KindPowFloat:
		return newBinary(o, false, false, func(a, b, _ F) F { return powF(o, a, b) })
	}
	return nil
}

// newPowInt raises the source to a positive integer power by repeated
// multiplication.
func newPowInt[F, I any](o simd.Backend[F, I]) kernel[F, I] {
	pow := int32(2)
	k := newUnary(o, 0, func(v F, _ []F) F {
		r := v
		for i := int32(1); i < pow; i++ {
			r = o.MulF(r, v)
		}
		return r
	})
	k.vals = func(i int, v metadata.Value) {
		if i == 0 {
			pow = max(v.Int(), 1)
		}
	}
	return k
}

// fade linearly blends A to B as Fade goes from -1 to 1.
type fade[F, I any] struct {
	base[F, I]
	a, b slot[F, I]
	t    hybrid[F, I]
}

func (k *fade[F, I]) sources() []*slot[F, I]   { return []*slot[F, I]{&k.a, &k.b} }
func (k *fade[F, I]) hybrids() []*hybrid[F, I] { return []*hybrid[F, I]{&k.t} }

func (k *fade[F, I]) mix(a, b, t F) F {
	o := k.o
	t = o.FMulAdd(t, o.BroadcastF(0.5), o.BroadcastF(0.5))
	t = o.MinF(o.MaxF(t, o.ZeroF()), o.BroadcastF(1))
	return lerp(o, a, b, t)
}

func (k *fade[F, I]) gen2(seed I, x, y F) F {
	return k.mix(k.a.k.gen2(seed, x, y), k.b.k.gen2(seed, x, y), k.t.gen2(seed, x, y))
}

func (k *fade[F, I]) gen3(seed I, x, y, z F) F {
	return k.mix(k.a.k.gen3(seed, x, y, z), k.b.k.gen3(seed, x, y, z), k.t.gen3(seed, x, y, z))
}

func (k *fade[F, I]) gen4(seed I, x, y, z, w F) F {
	return k.mix(k.a.k.gen4(seed, x, y, z, w), k.b.k.gen4(seed, x, y, z, w), k.t.gen4(seed, x, y, z, w))
}
