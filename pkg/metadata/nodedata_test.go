package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeDataDefaults(t *testing.T) {
	_, fractal, _ := testRegistry(t)
	d := NewNodeData(fractal)
	require.NoError(t, d.Validate())

	assert.Equal(t, float32(0.5), d.Variables[0].Float())
	assert.Equal(t, int32(3), d.Variables[1].Int())
	assert.Nil(t, d.Sources[0])
	assert.Equal(t, float32(0), d.Hybrids[0].Value)
}

func TestNodeDataSetters(t *testing.T) {
	_, fractal, warp := testRegistry(t)
	d := NewNodeData(fractal)
	w := NewNodeData(warp)

	require.NoError(t, d.SetFloat("Gain", 0.7))
	require.NoError(t, d.SetInt("Octaves", 5))
	require.NoError(t, d.SetEnum("Mode", "B"))
	require.NoError(t, d.SetSource("Source", w))
	require.NoError(t, d.SetHybridValue("Weighted Strength", 0.3))
	require.NoError(t, w.SetFloat("w scale", 4))

	assert.Equal(t, float32(0.7), d.Variables[0].Float())
	assert.Equal(t, int32(5), d.Variables[1].Int())
	assert.Equal(t, int32(1), d.Variables[2].Int())
	assert.Same(t, w, d.Sources[0])
	assert.Equal(t, float32(4), w.Variables[3].Float())

	assert.ErrorIs(t, d.SetFloat("Octaves", 1), ErrWrongNodeType)
	assert.ErrorIs(t, d.SetInt("Gain", 1), ErrWrongNodeType)
	assert.ErrorIs(t, d.SetEnum("Mode", "C"), ErrValueOutOfRange)
	assert.ErrorIs(t, d.SetInt("Octaves", 17), ErrValueOutOfRange)
	assert.ErrorIs(t, d.SetInt("Mode", 2), ErrValueOutOfRange)
	assert.Equal(t, int32(5), d.Variables[1].Int())
	assert.ErrorIs(t, d.SetFloat("Missing", 1), ErrUnknownMember)
}

func TestNodeDataHybridKeepsLinkedNode(t *testing.T) {
	_, fractal, warp := testRegistry(t)
	d := NewNodeData(fractal)
	w := NewNodeData(warp)

	require.NoError(t, d.SetHybridNode("Weighted Strength", w))
	require.NoError(t, d.SetHybridValue("Weighted Strength", 0.75))
	assert.Same(t, w, d.Hybrids[0].Node)
	assert.Equal(t, float32(0.75), d.Hybrids[0].Value)

	require.NoError(t, d.SetHybridNode("Weighted Strength", nil))
	assert.Nil(t, d.Hybrids[0].Node)
	assert.Equal(t, float32(0.75), d.Hybrids[0].Value)
}

func TestNodeDataValidateDetectsDrift(t *testing.T) {
	_, fractal, _ := testRegistry(t)
	d := NewNodeData(fractal)
	d.Variables = d.Variables[:1]
	assert.ErrorIs(t, d.Validate(), ErrMemberIndex)
}

func TestWalkVisitsSharedNodesOnce(t *testing.T) {
	_, fractal, warp := testRegistry(t)
	shared := NewNodeData(warp)
	root := NewNodeData(fractal)
	root.Sources[0] = shared
	root.Hybrids[0].Node = shared

	var visited []*NodeData
	root.Walk(func(d *NodeData) { visited = append(visited, d) })
	assert.Equal(t, []*NodeData{root, shared}, visited)
}

func TestJSONSchemaValidation(t *testing.T) {
	_, fractal, _ := testRegistry(t)
	s := fractal.JSONSchema()
	require.Contains(t, s.Properties, "Gain")
	assert.Equal(t, "number", s.Properties["Gain"].Type)
	assert.Equal(t, "integer", s.Properties["Octaves"].Type)
	assert.Equal(t, []any{"A", "B"}, s.Properties["Mode"].Enum)
	assert.Equal(t, []string{"Source"}, s.Required)

	ok := map[string]any{"Gain": 0.25, "Octaves": 4, "Mode": "B", "Source": map[string]any{}}
	assert.NoError(t, fractal.ValidateMembers(ok))

	bad := map[string]any{"Gain": 3.0, "Source": map[string]any{}}
	assert.Error(t, fractal.ValidateMembers(bad), "gain above maximum")

	missing := map[string]any{"Gain": 0.5}
	assert.Error(t, fractal.ValidateMembers(missing), "source is required")
}
