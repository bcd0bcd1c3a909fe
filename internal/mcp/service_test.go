package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/noisegraph/pkg/handle"
	"github.com/sanonone/noisegraph/pkg/noise"
	"github.com/sanonone/noisegraph/pkg/persistence"
)

func newService(t *testing.T, withPresets bool) *Service {
	t.Helper()
	table := handle.NewTable()
	t.Cleanup(table.Close)
	var store *persistence.Store
	if withPresets {
		var err error
		store, err = persistence.Open(filepath.Join(t.TempDir(), "presets.log"), persistence.Options{})
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
	}
	return NewService(table, store, 4096)
}

var fbmTree = map[string]any{
	"type":    "FractalFBm",
	"Octaves": 4,
	"Source":  map[string]any{"type": "Simplex"},
}

func TestListAndDescribeKinds(t *testing.T) {
	s := newService(t, false)
	ctx := context.Background()

	_, all, err := s.ListKinds(ctx, nil, ListKindsArgs{})
	require.NoError(t, err)
	assert.Len(t, all.Kinds, noise.Registry().Len())

	_, fractals, err := s.ListKinds(ctx, nil, ListKindsArgs{Group: noise.GroupFractal})
	require.NoError(t, err)
	require.NotEmpty(t, fractals.Kinds)
	for _, k := range fractals.Kinds {
		assert.Contains(t, k.Groups, noise.GroupFractal)
	}

	_, byName, err := s.DescribeKind(ctx, nil, DescribeKindArgs{Kind: "fractal fbm"})
	require.NoError(t, err)
	_, byID, err := s.DescribeKind(ctx, nil, DescribeKindArgs{Kind: "12"})
	require.NoError(t, err)
	assert.Equal(t, byName, byID)
	assert.Equal(t, "FractalFBm", byID.Name)

	_, _, err = s.DescribeKind(ctx, nil, DescribeKindArgs{Kind: "Wobble"})
	assert.ErrorIs(t, err, handle.ErrUnknownKind)
	_, _, err = s.DescribeKind(ctx, nil, DescribeKindArgs{Kind: "9999"})
	assert.ErrorIs(t, err, handle.ErrUnknownKind)
}

func TestBuildDecodeOpenGenerate(t *testing.T) {
	s := newService(t, false)
	ctx := context.Background()

	_, built, err := s.BuildTree(ctx, nil, BuildTreeArgs{Tree: fbmTree})
	require.NoError(t, err)
	assert.Equal(t, 2, built.Nodes)

	_, decoded, err := s.DecodeTree(ctx, nil, DecodeTreeArgs{Encoded: built.Encoded})
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Nodes)
	assert.Equal(t, "FractalFBm", decoded.Tree["type"])
	assert.Equal(t, 4, decoded.Tree["Octaves"])

	_, opened, err := s.OpenTree(ctx, nil, OpenTreeArgs{Encoded: built.Encoded, Level: "scalar"})
	require.NoError(t, err)
	assert.Equal(t, "scalar", opened.Level)

	_, gen, err := s.Generate(ctx, nil, GenerateArgs{Handle: opened.Handle, Width: 16, Height: 16, Frequency: 0.05, Seed: 3, Samples: true})
	require.NoError(t, err)
	require.Len(t, gen.Samples, 256)
	assert.Equal(t, 256, gen.Summary.Count)
	assert.Equal(t, float64(gen.Min), gen.Summary.Min)
	assert.Equal(t, float64(gen.Max), gen.Summary.Max)

	z := float32(0)
	_, one, err := s.Sample(ctx, nil, SampleArgs{Handle: opened.Handle, X: 0.05, Y: 0.1, Seed: 3})
	require.NoError(t, err)
	assert.InDelta(t, gen.Samples[2*16+1], one.Value, 1e-6)
	_, _, err = s.Sample(ctx, nil, SampleArgs{Handle: opened.Handle, Z: &z, Seed: 3})
	require.NoError(t, err)
	_, _, err = s.Sample(ctx, nil, SampleArgs{Handle: opened.Handle, W: &z})
	assert.Error(t, err)

	_, vol, err := s.Generate(ctx, nil, GenerateArgs{Handle: opened.Handle, Width: 8, Height: 8, Depth: 8})
	require.NoError(t, err)
	assert.Empty(t, vol.Samples)
	assert.Equal(t, 512, vol.Summary.Count)

	_, _, err = s.Generate(ctx, nil, GenerateArgs{Handle: opened.Handle, Width: 128, Height: 128})
	assert.ErrorIs(t, err, ErrTooManySamples)
	_, _, err = s.Generate(ctx, nil, GenerateArgs{Handle: opened.Handle, Width: 8, Height: 8, Depth: 2, Tileable: true})
	assert.Error(t, err)

	_, rel, err := s.ReleaseTree(ctx, nil, HandleArgs{Handle: opened.Handle})
	require.NoError(t, err)
	assert.Equal(t, ReleaseResult{Released: true, Open: 0}, rel)
	_, _, err = s.Generate(ctx, nil, GenerateArgs{Handle: opened.Handle, Width: 4, Height: 4})
	assert.ErrorIs(t, err, handle.ErrUnknownHandle)
	_, _, err = s.ReleaseTree(ctx, nil, HandleArgs{Handle: "nope"})
	assert.ErrorIs(t, err, handle.ErrUnknownHandle)
}

func TestPresetTools(t *testing.T) {
	ctx := context.Background()
	disabled := newService(t, false)
	_, _, err := disabled.ListPresets(ctx, nil, ListPresetsArgs{})
	assert.ErrorIs(t, err, ErrPresetsDisabled)
	_, _, err = disabled.OpenTree(ctx, nil, OpenTreeArgs{Preset: "x"})
	assert.ErrorIs(t, err, ErrPresetsDisabled)

	s := newService(t, true)
	_, built, err := s.BuildTree(ctx, nil, BuildTreeArgs{Tree: fbmTree})
	require.NoError(t, err)

	_, saved, err := s.SavePreset(ctx, nil, SavePresetArgs{Name: "terrain/base", Encoded: built.Encoded})
	require.NoError(t, err)
	assert.Equal(t, "created", saved.Status)
	_, saved, err = s.SavePreset(ctx, nil, SavePresetArgs{Name: "terrain/base", Encoded: built.Encoded, Description: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "replaced", saved.Status)
	_, _, err = s.SavePreset(ctx, nil, SavePresetArgs{Name: "bad", Encoded: "@@"})
	assert.ErrorIs(t, err, persistence.ErrInvalidPreset)

	_, list, err := s.ListPresets(ctx, nil, ListPresetsArgs{Prefix: "terrain/"})
	require.NoError(t, err)
	require.Len(t, list.Presets, 1)
	assert.Equal(t, "v2", list.Presets[0].Description)

	_, opened, err := s.OpenTree(ctx, nil, OpenTreeArgs{Preset: "terrain/base"})
	require.NoError(t, err)
	assert.NotEmpty(t, opened.Handle)
	_, _, err = s.OpenTree(ctx, nil, OpenTreeArgs{Preset: "terrain/base", Encoded: built.Encoded})
	assert.Error(t, err)
	_, _, err = s.OpenTree(ctx, nil, OpenTreeArgs{Preset: "missing"})
	assert.ErrorIs(t, err, persistence.ErrPresetNotFound)
}

func TestServerOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	table := handle.NewTable()
	defer table.Close()
	server := NewMCPServer(table, nil, 1024)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "describe_kind")
	assert.Contains(t, names, "generate")
	assert.NotContains(t, names, "save_preset")

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "build_tree",
		Arguments: map[string]any{"tree": fbmTree},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "describe_kind",
		Arguments: map[string]any{"kind": "Wobble"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
