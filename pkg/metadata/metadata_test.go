package metadata

import (
	"errors"
	"testing"

	"github.com/sanonone/noisegraph/pkg/simd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	meta    *Metadata
	level   simd.Level
	vars    []Value
	sources []Node
	hybrids []float32
	links   []Node
}

func newFake(m *Metadata, l simd.Level) *fakeNode {
	return &fakeNode{
		meta:    m,
		level:   l,
		vars:    make([]Value, len(m.Variables)),
		sources: make([]Node, len(m.Sources)),
		hybrids: make([]float32, len(m.Hybrids)),
		links:   make([]Node, len(m.Hybrids)),
	}
}

func (f *fakeNode) Metadata() *Metadata { return f.meta }
func (f *fakeNode) Level() simd.Level   { return f.level }

func (f *fakeNode) SetVariableAt(i int, v Value) error {
	if i < 0 || i >= len(f.vars) {
		return ErrMemberIndex
	}
	f.vars[i] = v
	return nil
}

func (f *fakeNode) SetSourceAt(i int, src Node) error {
	if i < 0 || i >= len(f.sources) {
		return ErrMemberIndex
	}
	if src.Level() != f.level {
		return ErrLevelMismatch
	}
	f.sources[i] = src
	return nil
}

func (f *fakeNode) SetHybridNodeAt(i int, src Node) error {
	if i < 0 || i >= len(f.links) {
		return ErrMemberIndex
	}
	f.links[i] = src
	return nil
}

func (f *fakeNode) SetHybridValueAt(i int, v float32) error {
	if i < 0 || i >= len(f.hybrids) {
		return ErrMemberIndex
	}
	f.hybrids[i] = v
	return nil
}

func testRegistry(t *testing.T) (*Registry, *Metadata, *Metadata) {
	t.Helper()
	r := NewRegistry()
	var fractal, warp *Metadata
	fractal = New("FractalFBm", func(l simd.Level) Node { return newFake(fractal, l) }).
		Group("Fractal").
		SourceSlot("Source", "", "").
		FloatVar("Gain", "", 0.5, 0, 1).
		IntVar("Octaves", "", 3, 1, 16).
		EnumVar("Mode", "", 0, "A", "B").
		HybridSlot("Weighted Strength", "", 0)
	warp = New("DomainWarpGradient", func(l simd.Level) Node { return newFake(warp, l) }).
		Group("Domain Warp").
		PerDimensionFloatVar("Scale", "", 1).
		PerDimensionHybridSlot("Offset", "", 0).
		SourceSlot("Source", "", "")
	r.Register(fractal)
	r.Register(warp)
	r.Freeze()
	return r, fractal, warp
}

func TestRegistryAssignsSequentialIDs(t *testing.T) {
	r, fractal, warp := testRegistry(t)
	assert.Equal(t, uint16(0), fractal.ID)
	assert.Equal(t, uint16(1), warp.ID)
	assert.Equal(t, 2, r.Len())

	got, ok := r.ByID(1)
	require.True(t, ok)
	assert.Same(t, warp, got)

	_, ok = r.ByID(2)
	assert.False(t, ok)

	got, ok = r.ByName("fractal fbm")
	require.True(t, ok)
	assert.Same(t, fractal, got)
}

func TestRegistryInitPhase(t *testing.T) {
	r := NewRegistry()
	m := New("Constant", nil)
	r.Register(m)

	assert.Panics(t, func() { r.ByID(0) }, "lookup before freeze")
	assert.Panics(t, func() { r.Register(New("constant", nil)) }, "duplicate name")

	r.Freeze()
	assert.Panics(t, func() { r.Register(New("Other", nil)) }, "register after freeze")
	assert.Panics(t, func() { m.FloatVar("Late", "", 0, 0, 0) }, "schema change after registration")
}

func TestVariableSetter(t *testing.T) {
	_, fractal, warp := testRegistry(t)
	n := newFake(fractal, simd.Scalar)
	w := newFake(warp, simd.Scalar)

	gain, ok := fractal.Variable("gain")
	require.True(t, ok)
	require.NoError(t, gain.Set(n, FloatValue(0.25)))
	assert.Equal(t, float32(0.25), n.vars[gain.Index].Float())

	err := gain.Set(w, FloatValue(1))
	assert.True(t, errors.Is(err, ErrWrongNodeType))

	mode, _ := fractal.Variable("Mode")
	err = mode.Set(n, IntValue(5))
	assert.ErrorIs(t, err, ErrValueOutOfRange)
	assert.Equal(t, Value(0), n.vars[mode.Index], "rejected value must not be applied")

	octaves, _ := fractal.Variable("Octaves")
	require.NoError(t, octaves.Set(n, IntValue(16)))
	assert.ErrorIs(t, octaves.Set(n, IntValue(1<<24)), ErrValueOutOfRange)
	assert.ErrorIs(t, octaves.Set(n, IntValue(0)), ErrValueOutOfRange)
	assert.Equal(t, int32(16), n.vars[octaves.Index].Int())

	yScale, ok := warp.Variable("Y Scale")
	require.True(t, ok)
	assert.Equal(t, 1, yScale.DimensionIndex)
}

func TestSourceSetter(t *testing.T) {
	_, fractal, warp := testRegistry(t)
	n := newFake(fractal, simd.Scalar)
	src := newFake(warp, simd.Scalar)
	other := newFake(warp, simd.AVX2)

	s := fractal.Sources[0]
	require.NoError(t, s.Set(n, src))
	assert.Same(t, src, n.sources[0])

	assert.ErrorIs(t, s.Set(n, other), ErrLevelMismatch)
	assert.ErrorIs(t, s.Set(n, nil), ErrNilNode)
	assert.ErrorIs(t, warp.Sources[0].Set(n, src), ErrWrongNodeType)

	restricted := &Source{Member: Member{owner: fractal}, Requires: "Domain Warp"}
	assert.True(t, restricted.Accepts(warp))
	assert.False(t, restricted.Accepts(fractal))
}

func TestHybridSetter(t *testing.T) {
	_, fractal, _ := testRegistry(t)
	n := newFake(fractal, simd.Scalar)
	h := fractal.Hybrids[0]

	require.NoError(t, h.SetValue(n, 0.75))
	assert.Equal(t, float32(0.75), n.hybrids[0])

	src := newFake(fractal, simd.Scalar)
	require.NoError(t, h.SetNode(n, src))
	assert.Same(t, src, n.links[0])
}

func TestCreateNode(t *testing.T) {
	_, fractal, _ := testRegistry(t)
	n := fractal.CreateNode(simd.Scalar)
	require.NotNil(t, n)
	assert.Same(t, fractal, n.Metadata())

	assert.Nil(t, New("Orphan", nil).CreateNode(simd.Scalar))
}

func TestFormatNames(t *testing.T) {
	_, fractal, warp := testRegistry(t)
	assert.Equal(t, "Fractal FBm", FormatNodeName(fractal, false))
	assert.Equal(t, "FBm", FormatNodeName(fractal, true))
	assert.Equal(t, "Domain Warp Gradient", FormatNodeName(warp, false))
	assert.Equal(t, "Gradient", FormatNodeName(warp, true))

	fractal.FormattedName = "Fractal fBm"
	assert.Equal(t, "fBm", FormatNodeName(fractal, true))

	assert.Equal(t, "Z Scale", FormatMemberName(&warp.Variables[2].Member))
	assert.Equal(t, "Gain", FormatMemberName(&fractal.Variables[0].Member))
}
