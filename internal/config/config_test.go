package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/nodetree"
	"github.com/sanonone/noisegraph/pkg/noise"
	"github.com/sanonone/noisegraph/pkg/simd"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 512*512, cfg.Render.Samples())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
log_format: json
log_level: debug
level: sse41
metrics_addr: ":9100"
render:
  output: out.f16
  format: f16
  width: 64
  height: 32
  depth: 4
  origin: [10, -5, 0]
  frequency: 0.02
  seed: 42
  tree:
    node:
      type: FractalFBm
      Octaves: 5
      Source:
        type: Simplex
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, simd.SSE41, cfg.Level)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, [3]int{10, -5, 0}, cfg.Render.Origin)
	assert.Equal(t, int32(42), cfg.Render.Seed)
	assert.Equal(t, 64*32*4, cfg.Render.Samples())
	// Untouched sections keep their defaults.
	assert.Equal(t, "stdio", cfg.MCP.Transport)

	s, err := cfg.Render.Tree.EncodedTree(nil)
	require.NoError(t, err)

	fbm := metadata.NewNodeData(noise.MetadataOf(noise.KindFractalFBm))
	require.NoError(t, fbm.SetInt("Octaves", 5))
	require.NoError(t, fbm.SetSource("Source", metadata.NewNodeData(noise.MetadataOf(noise.KindSimplex))))
	want, err := nodetree.Encode(fbm, false)
	require.NoError(t, err)
	assert.Equal(t, want, s)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"unknown field", "render:\n  widht: 10\n", nil},
		{"bad level", "level: mmx\n", nil},
		{"bad format", "render:\n  format: jpeg\n", ErrInvalidConfig},
		{"zero size", "render:\n  width: 0\n", ErrInvalidConfig},
		{"png volume", "render:\n  depth: 8\n", ErrInvalidConfig},
		{"tileable volume", "render:\n  format: raw\n  depth: 8\n  tileable: true\n", ErrInvalidConfig},
		{"two trees", "render:\n  tree:\n    encoded: AAD/\n    preset: hills\n", ErrInvalidConfig},
		{"bad log level", "log_level: loud\n", ErrInvalidConfig},
		{"bad transport", "mcp:\n  transport: pigeon\n", ErrInvalidConfig},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodedTreeSources(t *testing.T) {
	s, err := TreeConfig{Encoded: "AAD/"}.EncodedTree(nil)
	require.NoError(t, err)
	assert.Equal(t, "AAD/", s)

	s, err = TreeConfig{Preset: "hills"}.EncodedTree(func(name string) (string, error) {
		assert.Equal(t, "hills", name)
		return "AAD/", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "AAD/", s)

	_, err = TreeConfig{Preset: "hills"}.EncodedTree(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = TreeConfig{}.EncodedTree(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildNodeData(t *testing.T) {
	reg := noise.Registry()
	d, err := BuildNodeData(reg, map[string]any{
		"type": "Fade",
		"a":    map[string]any{"type": "Simplex", "seed_offset": 3},
		"B": map[string]any{
			"type":              "CellularDistance",
			"Return Type":       "Index0Sub1",
			"Distance Function": "Manhattan",
			"Jitter Modifier":   0.5,
		},
		"Fade": map[string]any{"type": "Constant", "Value": 0.25},
	})
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	a, b := d.Sources[0], d.Sources[1]
	assert.Equal(t, "Simplex", a.Metadata.Name)
	seed, _ := a.Metadata.Variable("Seed Offset")
	assert.Equal(t, int32(3), a.Variables[seed.Index].Int())

	rt, _ := b.Metadata.Variable("Return Type")
	assert.Equal(t, int32(2), b.Variables[rt.Index].Int())
	assert.Equal(t, float32(0.5), b.Hybrids[0].Value)

	require.NotNil(t, d.Hybrids[0].Node)
	assert.Equal(t, float32(0.25), d.Hybrids[0].Node.Variables[0].Float())

	n, err := noise.FromNodeData(d, simd.Scalar)
	require.NoError(t, err)
	n.Release()
}

func TestBuildNodeDataErrors(t *testing.T) {
	reg := noise.Registry()
	simplex := map[string]any{"type": "Simplex"}
	tests := []struct {
		name string
		node map[string]any
		want error
	}{
		{"missing type", map[string]any{"Octaves": 2}, ErrInvalidTree},
		{"unknown type", map[string]any{"type": "Wobble"}, ErrInvalidTree},
		{"unknown member", map[string]any{"type": "Simplex", "Wobble": 1}, metadata.ErrUnknownMember},
		{"duplicate member", map[string]any{"type": "Simplex", "Seed Offset": 1, "seed_offset": 2}, ErrInvalidTree},
		{"above maximum", map[string]any{"type": "FractalFBm", "Source": simplex, "Gain": 3.0}, ErrInvalidTree},
		{"octaves above maximum", map[string]any{"type": "FractalFBm", "Source": simplex, "Octaves": 1 << 24}, ErrInvalidTree},
		{"fractional int", map[string]any{"type": "FractalFBm", "Source": simplex, "Octaves": 2.5}, ErrInvalidTree},
		{"unknown option", map[string]any{"type": "CellularDistance", "Return Type": "Index9"}, ErrInvalidTree},
		{"missing source", map[string]any{"type": "Abs"}, ErrInvalidTree},
		{"source not a node", map[string]any{"type": "Abs", "Source": 1.0}, ErrInvalidTree},
		{"refused source", map[string]any{"type": "DomainWarpFractalProgressive", "Domain Warp Source": simplex}, metadata.ErrWrongNodeType},
		{"bad nested node", map[string]any{"type": "Abs", "Source": map[string]any{"type": "Nope"}}, ErrInvalidTree},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildNodeData(reg, tc.node)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	deep := map[string]any{"type": "Simplex"}
	for i := 0; i <= maxTreeDepth+1; i++ {
		deep = map[string]any{"type": "Abs", "Source": deep}
	}
	_, err := BuildNodeData(reg, deep)
	assert.ErrorIs(t, err, ErrInvalidTree)
}

func TestTreeMapRoundTrip(t *testing.T) {
	reg := noise.Registry()
	in := map[string]any{
		"type":    "FractalRidged",
		"Octaves": 4,
		"Gain":    0.25,
		"Source": map[string]any{
			"type":         "Remap",
			"To Min":       -2.0,
			"Clamp Output": "True",
			"Source":       map[string]any{"type": "Perlin", "Seed Offset": 9},
		},
	}
	d, err := BuildNodeData(reg, in)
	require.NoError(t, err)

	out := TreeMap(d)
	assert.Equal(t, "FractalRidged", out["type"])
	assert.Equal(t, 4, out["Octaves"])
	assert.Equal(t, 0.25, out["Gain"])
	assert.NotContains(t, out, "Lacunarity")
	remap := out["Source"].(map[string]any)
	assert.Equal(t, -2.0, remap["To Min"])
	assert.Equal(t, "True", remap["Clamp Output"])

	again, err := BuildNodeData(reg, out)
	require.NoError(t, err)
	a, err := nodetree.Encode(d, false)
	require.NoError(t, err)
	b, err := nodetree.Encode(again, false)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
