package handle

import (
	"sync"
	"testing"

	"github.com/sanonone/noisegraph/pkg/nodetree"
	"github.com/sanonone/noisegraph/pkg/noise"
	"github.com/sanonone/noisegraph/pkg/simd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedFBm(t *testing.T) string {
	t.Helper()
	fbm := noise.New(noise.KindFractalFBm, simd.Scalar)
	src := noise.New(noise.KindSimplex, simd.Scalar)
	require.NoError(t, fbm.SetSource("Source", src))
	src.Release()
	defer fbm.Release()

	s, err := nodetree.EncodeNode(fbm)
	require.NoError(t, err)
	return s
}

func TestTableLifecycle(t *testing.T) {
	before := noise.Stats().Live
	tbl := NewTable()

	h, err := tbl.NewFromEncoded(encodedFBm(t), simd.Scalar)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	l, err := tbl.Level(h)
	require.NoError(t, err)
	assert.Equal(t, simd.Scalar, l)

	parsed, err := ParseHandle(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	require.NoError(t, tbl.Release(h))
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, before, noise.Stats().Live)

	assert.ErrorIs(t, tbl.Release(h), ErrUnknownHandle)
	_, err = tbl.Level(h)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	_, err = tbl.GenSingle2D(h, 0, 0, 0)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestNewFromEncodedFailure(t *testing.T) {
	tbl := NewTable()
	_, err := tbl.NewFromEncoded("@", simd.Auto)
	assert.ErrorIs(t, err, nodetree.ErrMalformed)
	assert.Equal(t, 0, tbl.Len())

	_, err = ParseHandle("not-a-handle")
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestGenerationMatchesNode(t *testing.T) {
	tbl := NewTable()
	defer tbl.Close()
	s := encodedFBm(t)
	h, err := tbl.NewFromEncoded(s, simd.Scalar)
	require.NoError(t, err)
	n, err := nodetree.NewFromEncodedNodeTree(s, simd.Scalar)
	require.NoError(t, err)
	defer n.Release()

	const freq = float32(0.05)
	got := make([]float32, 8*6)
	r, err := tbl.GenUniformGrid2D(h, got, 3, -2, 8, 6, freq, 9)
	require.NoError(t, err)
	want := make([]float32, 8*6)
	r2, err := n.GenUniformGrid2D(want, 3*freq, -2*freq, 8, 6, freq, freq, 9)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, r2, r)

	got = make([]float32, 4*4*4)
	_, err = tbl.GenUniformGrid3D(h, got, 0, 0, 0, 4, 4, 4, freq, 9)
	require.NoError(t, err)
	v, err := tbl.GenSingle3D(h, 3*freq, 2*freq, freq, 9)
	require.NoError(t, err)
	assert.InDelta(t, v, got[1*16+2*4+3], 1e-6)

	got = make([]float32, 2*2*2*2)
	_, err = tbl.GenUniformGrid4D(h, got, 0, 0, 0, 0, 2, 2, 2, 2, freq, 9)
	require.NoError(t, err)
	v, err = tbl.GenSingle4D(h, 0, 0, 0, 0, 9)
	require.NoError(t, err)
	assert.Equal(t, v, got[0])

	got = make([]float32, 16*16)
	_, err = tbl.GenTileable2D(h, got, 16, 16, freq, 9)
	require.NoError(t, err)

	xs := []float32{0.1, 0.2, 0.3}
	ys := []float32{1, 2, 3}
	zs := []float32{-1, -2, -3}
	ws := []float32{5, 6, 7}
	out := make([]float32, 3)
	_, err = tbl.GenPositionArray2D(h, out, xs, ys, 0, 0, 9)
	require.NoError(t, err)
	v, err = tbl.GenSingle2D(h, 0.3, 3, 9)
	require.NoError(t, err)
	assert.InDelta(t, v, out[2], 1e-6)
	_, err = tbl.GenPositionArray3D(h, out, xs, ys, zs, 0, 0, 0, 9)
	require.NoError(t, err)
	_, err = tbl.GenPositionArray4D(h, out, xs, ys, zs, ws, 0, 0, 0, 0, 9)
	require.NoError(t, err)
	_, err = tbl.GenPositionArray4D(h, out, xs, ys, zs, ws[:2], 0, 0, 0, 0, 9)
	assert.ErrorIs(t, err, noise.ErrLengthMismatch)
}

func TestConcurrentGenerateAndRelease(t *testing.T) {
	before := noise.Stats().Live
	tbl := NewTable()
	h, err := tbl.NewFromEncoded(encodedFBm(t), simd.Auto)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(seed int32) {
			defer wg.Done()
			out := make([]float32, 32*32)
			for j := 0; j < 20; j++ {
				if _, err := tbl.GenUniformGrid2D(h, out, 0, 0, 32, 32, 0.01, seed); err != nil {
					assert.ErrorIs(t, err, ErrUnknownHandle)
					return
				}
			}
		}(int32(i))
	}
	require.NoError(t, tbl.Release(h))
	wg.Wait()
	assert.Equal(t, before, noise.Stats().Live)
}

func TestCloseReleasesEverything(t *testing.T) {
	before := noise.Stats().Live
	tbl := NewTable()
	s := encodedFBm(t)
	for i := 0; i < 5; i++ {
		_, err := tbl.NewFromEncoded(s, simd.Auto)
		require.NoError(t, err)
	}
	tbl.Adopt(noise.New(noise.KindWhite, simd.Auto))
	assert.Equal(t, 6, tbl.Len())
	tbl.Close()
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, before, noise.Stats().Live)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, int(noise.KindFade)+1, MetadataCount())

	name, err := MetadataName(int(noise.KindDomainWarpFractalProgressive))
	require.NoError(t, err)
	assert.Equal(t, "DomainWarpFractalProgressive", name)

	info, err := Describe(int(noise.KindDomainWarpFractalProgressive))
	require.NoError(t, err)
	assert.Equal(t, "Domain Warp Fractal Progressive", info.DisplayName)
	require.Len(t, info.Sources, 1)
	assert.Equal(t, noise.GroupDomainWarp, info.Sources[0].Requires)

	vars, err := MetadataVariables(int(noise.KindFractalFBm))
	require.NoError(t, err)
	require.Len(t, vars, 3)
	assert.Equal(t, MemberInfo{
		Name: "Octaves", Description: vars[1].Description, Type: "int", Default: 3, Min: 1, Max: 16,
	}, vars[1])

	hybrids, err := MetadataHybrids(int(noise.KindDomainOffset))
	require.NoError(t, err)
	require.Len(t, hybrids, 4)
	assert.Equal(t, "Y Offset", hybrids[1].Name)

	vars, err = MetadataVariables(int(noise.KindCellularDistance))
	require.NoError(t, err)
	assert.Equal(t, "enum", vars[5].Type)
	assert.Contains(t, vars[5].Options, "Index0Div1")

	srcs, err := MetadataSources(int(noise.KindAdd))
	require.NoError(t, err)
	assert.Equal(t, "LHS", srcs[0].Name)

	for _, id := range []int{-1, MetadataCount(), 0x10000} {
		_, err := Describe(id)
		assert.ErrorIs(t, err, ErrUnknownKind)
	}
}
