package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/simd"
)

func TestFractalOctavesClamped(t *testing.T) {
	o := simd.NewLanes[[1]float32, [1]int32](simd.Scalar)
	f := newFractalBase[[1]float32, [1]int32](o)

	f.setFractal(1, metadata.IntValue(1<<24))
	assert.Equal(t, int32(maxOctaves), f.octaves)
	f.setFractal(1, metadata.IntValue(-3))
	assert.Equal(t, int32(1), f.octaves)
}

func TestRidgedMultiOctaveBound(t *testing.T) {
	n := New(KindFractalRidgedMulti, simd.Scalar)
	require.NotNil(t, n)
	defer n.Release()
	src := New(KindSimplex, simd.Scalar)
	require.NoError(t, n.SetSource("Source", src))
	src.Release()

	assert.ErrorIs(t, n.SetInt("Octaves", 1<<24), metadata.ErrValueOutOfRange)
	require.NoError(t, n.SetInt("Octaves", maxOctaves))
	v := n.GenSingle2D(0.3, -1.7, 7)
	assert.False(t, math.IsNaN(float64(v)))
	assert.InDelta(t, 0, v, 1.0001)
}

// ridgedMultiReference mirrors the octave loop with scalar math.
func ridgedMultiReference(src func(seed int32, x, y float32) float32, seed int32, x, y float32,
	octaves int32, gain, lacunarity, weightAmp float32) float32 {
	prev := 1 - abs32(src(seed, x, y))
	sum := prev
	weight := float32(1)
	for i := int32(1); i < octaves; i++ {
		seed++
		x, y = x*lacunarity, y*lacunarity
		weight *= weightAmp
		w := min(max(prev*gain*2, 0), 1)
		prev = (1 - abs32(src(seed, x, y))) * w
		sum = prev*(1/weight) + sum
	}
	return sum*weightBounding(weightAmp, octaves) - 1
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestRidgedMultiMatchesReference(t *testing.T) {
	n := New(KindFractalRidgedMulti, simd.Scalar)
	defer n.Release()
	src := New(KindSimplex, simd.Scalar)
	defer src.Release()
	require.NoError(t, n.SetSource("Source", src))
	require.NoError(t, n.SetInt("Octaves", 5))

	sample := func(seed int32, x, y float32) float32 { return src.GenSingle2D(x, y, seed) }
	for _, p := range [][2]float32{{0.1, 0.2}, {-3.5, 8.25}, {17, -0.75}} {
		want := ridgedMultiReference(sample, 99, p[0], p[1], 5, 0.5, 2, 2)
		assert.InDelta(t, want, n.GenSingle2D(p[0], p[1], 99), 1e-5)
	}
}
