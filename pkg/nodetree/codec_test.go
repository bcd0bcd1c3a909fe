package nodetree

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/noise"
	"github.com/sanonone/noisegraph/pkg/simd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func data(k noise.Kind) *metadata.NodeData {
	return metadata.NewNodeData(noise.MetadataOf(k))
}

// assertSameTree checks kinds, values and link topology, including which
// nodes are shared.
func assertSameTree(t *testing.T, want, got *metadata.NodeData) {
	t.Helper()
	pairs := make(map[*metadata.NodeData]*metadata.NodeData)
	var cmp func(a, b *metadata.NodeData)
	cmp = func(a, b *metadata.NodeData) {
		if a == nil || b == nil {
			assert.Equal(t, a == nil, b == nil, "link presence")
			return
		}
		if p, ok := pairs[a]; ok {
			assert.Same(t, p, b, "shared node %s", a.Metadata.Name)
			return
		}
		pairs[a] = b
		require.Same(t, a.Metadata, b.Metadata)
		assert.Equal(t, a.Variables, b.Variables, a.Metadata.Name)
		require.Len(t, b.Sources, len(a.Sources))
		require.Len(t, b.Hybrids, len(a.Hybrids))
		for i := range a.Sources {
			cmp(a.Sources[i], b.Sources[i])
		}
		for i := range a.Hybrids {
			assert.Equal(t, math.Float32bits(a.Hybrids[i].Value), math.Float32bits(b.Hybrids[i].Value),
				"%s hybrid %d", a.Metadata.Name, i)
			cmp(a.Hybrids[i].Node, b.Hybrids[i].Node)
		}
	}
	cmp(want, got)
}

func decodeBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := DecodeText(s)
	require.NoError(t, err)
	return b
}

func TestEncodeLayout(t *testing.T) {
	s, err := Encode(data(noise.KindConstant), false)
	require.NoError(t, err)
	assert.Equal(t, "AAD/", s)

	simplex := data(noise.KindSimplex)
	require.NoError(t, simplex.SetInt("Seed Offset", 7))
	s, err = Encode(simplex, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 0, tag(tagVariable, 1), 7, 0, 0, 0, terminator}, decodeBytes(t, s))

	fbm := data(noise.KindFractalFBm)
	require.NoError(t, fbm.SetSource("Source", data(noise.KindSimplex)))
	s, err = Encode(fbm, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{12, 0, tag(tagSources, 1), 8, 0, terminator, terminator}, decodeBytes(t, s))

	add := data(noise.KindAdd)
	require.NoError(t, add.SetSource("LHS", data(noise.KindConstant)))
	require.NoError(t, add.SetHybridValue("RHS", 1))
	s, err = Encode(add, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		29, 0, tag(tagSources, 1),
		0, 0, terminator,
		tag(tagHybridValue, 0), 0x00, 0x00, 0x80, 0x3F,
		terminator,
	}, decodeBytes(t, s))
}

func TestRoundTrip(t *testing.T) {
	simplex := data(noise.KindSimplex)
	require.NoError(t, simplex.SetInt("Seed Offset", -3))
	require.NoError(t, simplex.SetFloat("Feature Scale", 40))

	fbm := data(noise.KindFractalFBm)
	require.NoError(t, fbm.SetSource("Source", simplex))
	require.NoError(t, fbm.SetFloat("Gain", 0.65))
	require.NoError(t, fbm.SetInt("Octaves", 5))

	warp := data(noise.KindDomainWarpGradient)
	require.NoError(t, warp.SetSource("Source", fbm))
	warpFrac := data(noise.KindDomainWarpFractalIndependent)
	require.NoError(t, warpFrac.SetSource("Domain Warp Source", warp))

	remap := data(noise.KindRemap)
	require.NoError(t, remap.SetSource("Source", warpFrac))
	require.NoError(t, remap.SetEnum("Clamp Output", "True"))
	require.NoError(t, remap.SetHybridValue("To Min", -0.5))
	require.NoError(t, remap.SetHybridNode("To Max", simplex))

	root := data(noise.KindMaxSmooth)
	require.NoError(t, root.SetSource("LHS", remap))
	require.NoError(t, root.SetHybridNode("RHS", fbm))
	require.NoError(t, root.SetHybridValue("Smoothness", float32(math.Copysign(0, -1))))

	s, err := Encode(root, false)
	require.NoError(t, err)

	got, all, err := DecodeNodeData(s)
	require.NoError(t, err)
	assertSameTree(t, root, got)
	assert.Len(t, all, 6)
	assert.Same(t, got, all[len(all)-1])
}

func TestRoundTripRandomGraphs(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	kinds := noise.Registry().All()

	for iter := 0; iter < 200; iter++ {
		warpLeaf := data(noise.KindDomainWarpGradient)
		require.NoError(t, warpLeaf.SetSource("Source", data(noise.KindSimplex)))
		pool := []*metadata.NodeData{data(noise.KindConstant), data(noise.KindPerlin), warpLeaf}

		for len(pool) < 12 {
			m := kinds[r.IntN(len(kinds))]
			d := metadata.NewNodeData(m)
			for i, v := range m.Variables {
				if r.IntN(2) == 0 {
					continue
				}
				switch v.Type {
				case metadata.Float:
					d.Variables[i] = metadata.FloatValue(r.Float32()*20 - 10)
				case metadata.Int:
					lo, hi := v.Min.Int(), v.Max.Int()
					if lo == hi {
						lo, hi = -10, 30
					}
					d.Variables[i] = metadata.IntValue(lo + r.Int32N(hi-lo+1))
				case metadata.Enum:
					d.Variables[i] = metadata.IntValue(int32(r.IntN(len(v.EnumNames))))
				}
			}
			ok := true
			for i, slot := range m.Sources {
				var accepted []*metadata.NodeData
				for _, p := range pool {
					if slot.Accepts(p.Metadata) {
						accepted = append(accepted, p)
					}
				}
				if len(accepted) == 0 {
					ok = false
					break
				}
				d.Sources[i] = accepted[r.IntN(len(accepted))]
			}
			if !ok {
				continue
			}
			for i := range m.Hybrids {
				switch r.IntN(3) {
				case 0:
					d.Hybrids[i].Node = pool[r.IntN(len(pool))]
				case 1:
					d.Hybrids[i].Value = r.Float32()*4 - 2
				}
			}
			pool = append(pool, d)
		}

		root := pool[len(pool)-1]
		s, err := Encode(root, false)
		require.NoError(t, err, "iteration %d", iter)
		got, _, err := DecodeNodeData(s)
		require.NoError(t, err, "iteration %d", iter)
		assertSameTree(t, root, got)
	}
}

func TestSharedSubtreeEncodedOnce(t *testing.T) {
	shared := data(noise.KindCellularDistance)
	require.NoError(t, shared.SetEnum("Return Type", "Index0Sub1"))
	add := data(noise.KindAdd)
	require.NoError(t, add.SetSource("LHS", shared))
	require.NoError(t, add.SetHybridNode("RHS", shared))

	s, err := Encode(add, false)
	require.NoError(t, err)
	b := decodeBytes(t, s)
	assert.Equal(t, []byte{0xFF, 0xFF, 0, 0}, b[len(b)-5:len(b)-1], "second link is a reference to node 0")

	got, all, err := DecodeNodeData(s)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Same(t, got.Sources[0], got.Hybrids[0].Node)
	assert.Same(t, all[0], got.Sources[0])

	n, err := NewFromEncodedNodeTree(s, simd.Scalar)
	require.NoError(t, err)
	defer n.Release()
	back := noise.ToNodeData(n)
	assert.Same(t, back.Sources[0], back.Hybrids[0].Node, "one live node reachable from both parents")
}

func TestCycleFixUp(t *testing.T) {
	t.Run("mutual through hybrid", func(t *testing.T) {
		add := data(noise.KindAdd)
		mul := data(noise.KindMultiply)
		require.NoError(t, add.SetSource("LHS", mul))
		require.NoError(t, mul.SetSource("LHS", data(noise.KindConstant)))
		require.NoError(t, mul.SetHybridValue("RHS", 3))
		require.NoError(t, mul.SetHybridNode("RHS", add))

		_, err := Encode(add, false)
		assert.ErrorIs(t, err, ErrCycle)

		s, err := Encode(add, true)
		require.NoError(t, err)
		assert.Nil(t, mul.Hybrids[0].Node, "fix-up edits the input")

		got, _, err := DecodeNodeData(s)
		require.NoError(t, err)
		m := got.Sources[0]
		assert.Nil(t, m.Hybrids[0].Node)
		assert.Equal(t, float32(3), m.Hybrids[0].Value)
	})

	t.Run("self through source", func(t *testing.T) {
		abs := data(noise.KindAbs)
		abs.Sources[0] = abs

		_, err := Encode(abs, false)
		assert.ErrorIs(t, err, ErrCycle)

		s, err := Encode(abs, true)
		require.NoError(t, err)
		got, _, err := DecodeNodeData(s)
		require.NoError(t, err)
		assert.Equal(t, noise.MetadataOf(noise.KindConstant), got.Sources[0].Metadata)

		n, err := NewFromEncodedNodeTree(s, simd.Auto)
		require.NoError(t, err)
		n.Release()
	})

	t.Run("shared node is not a cycle", func(t *testing.T) {
		leaf := data(noise.KindValue)
		a := data(noise.KindAbs)
		require.NoError(t, a.SetSource("Source", leaf))
		root := data(noise.KindSubtract)
		require.NoError(t, root.SetHybridNode("LHS", a))
		require.NoError(t, root.SetHybridNode("RHS", leaf))

		_, err := Encode(root, true)
		require.NoError(t, err)
		assert.Same(t, leaf, root.Hybrids[1].Node)
		assert.Same(t, leaf, a.Sources[0])
	})
}

func TestSourceRules(t *testing.T) {
	_, err := Encode(data(noise.KindFractalFBm), false)
	assert.ErrorIs(t, err, ErrMissingSource)

	frac := data(noise.KindDomainWarpFractalProgressive)
	frac.Sources[0] = data(noise.KindSimplex)
	_, err = Encode(frac, false)
	assert.ErrorIs(t, err, metadata.ErrWrongNodeType)

	// the placeholder kind is no domain warp either, so the slot stays empty
	_, err = Encode(frac, true)
	assert.ErrorIs(t, err, ErrMissingSource)
}

func encodeRaw(b ...byte) string { return EncodeText(b) }

func TestDecodeErrors(t *testing.T) {
	valid, err := Encode(func() *metadata.NodeData {
		fbm := data(noise.KindFractalFBm)
		fbm.Sources[0] = data(noise.KindSimplex)
		return fbm
	}(), false)
	require.NoError(t, err)
	validBytes := decodeBytes(t, valid)

	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrTruncated},
		{"bad text", "@", ErrMalformed},
		{"truncated", EncodeText(validBytes[:len(validBytes)-1]), ErrTruncated},
		{"truncated value", encodeRaw(8, 0, tag(tagVariable, 1), 7, 0), ErrTruncated},
		{"trailing bytes", EncodeText(append(append([]byte{}, validBytes...), 0)), ErrMalformed},
		{"reference to nothing", encodeRaw(0xFF, 0xFF, 0, 0), ErrBadReference},
		{"forward reference", encodeRaw(12, 0, tag(tagSources, 1), 0xFF, 0xFF, 1, 0, terminator), ErrBadReference},
		{"unknown type", encodeRaw(0xFE, 0x7F, terminator), ErrUnknownType},
		{"enum out of range", encodeRaw(10, 0, tag(tagVariable, 5), 9, 0, 0, 0, terminator), ErrSetterRejected},
		{"octaves above bound", encodeRaw(12, 0, tag(tagVariable, 1), 0, 0, 0, 1, terminator), ErrSetterRejected},
		{"octaves below bound", encodeRaw(12, 0, tag(tagVariable, 1), 0, 0, 0, 0, terminator), ErrSetterRejected},
		{"pow above bound", encodeRaw(38, 0, tag(tagVariable, 0), 17, 0, 0, 0, terminator), ErrSetterRejected},
		{"source refused", encodeRaw(17, 0, tag(tagSources, 1), 8, 0, terminator, terminator), ErrSetterRejected},
		{"variable after hybrid", encodeRaw(
			29, 0, tag(tagSources, 1), 0, 0, terminator,
			tag(tagHybridValue, 0), 0, 0, 0, 0,
			tag(tagVariable, 0), 0, 0, 0, 0, terminator), ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := noise.Stats().Live
			root, all, err := DecodeNodeData(tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, root)
			assert.Nil(t, all)

			n, err := NewFromEncodedNodeTree(tt.in, simd.Scalar)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, n)
			assert.Equal(t, before, noise.Stats().Live)
		})
	}
}

func TestDecodeFillsMissingSources(t *testing.T) {
	// an FBm written when it had no sources
	s := encodeRaw(12, 0, tag(tagSources, 0), terminator)
	got, _, err := DecodeNodeData(s)
	require.NoError(t, err)
	assert.Equal(t, noise.MetadataOf(noise.KindConstant), got.Sources[0].Metadata)

	n, err := NewFromEncodedNodeTree(s, simd.Scalar)
	require.NoError(t, err)
	defer n.Release()
	assert.InDelta(t, 1, n.GenSingle2D(0.3, 0.7, 0), 1e-6, "bounded octaves of a constant 1")
}

// driftRegistry builds a registry with a Leaf kind and a Thing kind shaped by
// shape, standing in for two versions of the same program.
func driftRegistry(shape func(*metadata.Metadata) *metadata.Metadata) (*metadata.Registry, *metadata.Metadata) {
	r := metadata.NewRegistry()
	leaf := metadata.New("Leaf", nil).FloatVar("Height", "", 0, 0, 0)
	r.Register(leaf)
	r.Register(shape(metadata.New("Thing", nil)))
	r.Freeze()
	return r, leaf
}

func TestSchemaDrift(t *testing.T) {
	oldReg, _ := driftRegistry(func(m *metadata.Metadata) *metadata.Metadata {
		return m.FloatVar("A", "", 0, 0, 0).
			FloatVar("B", "", 0, 0, 0).
			SourceSlot("First", "", "").
			HybridSlot("H1", "", 0).
			HybridSlot("H2", "", 0)
	})
	newReg, newLeaf := driftRegistry(func(m *metadata.Metadata) *metadata.Metadata {
		return m.FloatVar("A", "", 0, 0, 0).
			SourceSlot("First", "", "").
			SourceSlot("Second", "", "").
			HybridSlot("H1", "", 0)
	})

	thingV1, _ := oldReg.ByName("Thing")
	leafV1, _ := oldReg.ByName("Leaf")
	leaf := metadata.NewNodeData(leafV1)
	require.NoError(t, leaf.SetFloat("Height", 2))
	thing := metadata.NewNodeData(thingV1)
	require.NoError(t, thing.SetFloat("A", 1.5))
	require.NoError(t, thing.SetFloat("B", 9))
	require.NoError(t, thing.SetSource("First", leaf))
	require.NoError(t, thing.SetHybridNode("H1", leaf))
	require.NoError(t, thing.SetHybridValue("H2", 4))

	s, err := NewCodec(oldReg, nil).Encode(thing, false)
	require.NoError(t, err)

	got, all, err := NewCodec(newReg, newLeaf).DecodeNodeData(s)
	require.NoError(t, err)
	assert.Len(t, all, 2, "the placeholder is not part of the stream")
	assert.Equal(t, float32(1.5), got.Variables[0].Float())
	assert.Equal(t, float32(2), got.Sources[0].Variables[0].Float())
	assert.Same(t, got.Sources[0], got.Hybrids[0].Node)
	require.NotNil(t, got.Sources[1])
	assert.Same(t, newLeaf, got.Sources[1].Metadata)
	assert.NotSame(t, got.Sources[0], got.Sources[1])

	// and back: the old schema ignores the second source and keeps the rest
	s, err = NewCodec(newReg, newLeaf).Encode(got, false)
	require.NoError(t, err)
	old, _, err := NewCodec(oldReg, nil).DecodeNodeData(s)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), old.Variables[0].Float())
	assert.Equal(t, float32(0), old.Variables[1].Float())
	assert.Same(t, old.Sources[0], old.Hybrids[0].Node)
}

func TestLiveRoundTrip(t *testing.T) {
	fbm, err := noise.NewByName("FractalRidged", simd.Scalar)
	require.NoError(t, err)
	defer fbm.Release()
	src := noise.New(noise.KindCellularDistance, simd.Scalar)
	require.NoError(t, src.SetFloat("Feature Scale", 25))
	require.NoError(t, fbm.SetSource("Source", src))
	src.Release()
	require.NoError(t, fbm.SetInt("Octaves", 4))

	s, err := EncodeNode(fbm)
	require.NoError(t, err)

	for _, l := range []simd.Level{simd.Scalar, simd.Auto} {
		n, err := NewFromEncodedNodeTree(s, l)
		require.NoError(t, err)
		assert.Equal(t, noise.KindFractalRidged, n.Kind())
		if n.Level() == simd.Scalar {
			want := make([]float32, 32)
			got := make([]float32, 32)
			_, err = fbm.GenUniformGrid2D(want, 0, 0, 8, 4, 1, 1, 77)
			require.NoError(t, err)
			_, err = n.GenUniformGrid2D(got, 0, 0, 8, 4, 1, 1, 77)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		n.Release()
	}
}

func BenchmarkDecode(b *testing.B) {
	fbm := data(noise.KindFractalFBm)
	fbm.Sources[0] = data(noise.KindSimplex)
	s, err := Encode(fbm, false)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := DecodeNodeData(s); err != nil {
			b.Fatal(err)
		}
	}
}
