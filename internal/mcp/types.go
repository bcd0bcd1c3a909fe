package mcp

import (
	"github.com/sanonone/noisegraph/internal/render"
)

// --- Tool Arguments ---

type ListKindsArgs struct {
	Group string `json:"group,omitempty" jsonschema:"Only list kinds in this group (e.g. 'Coherent Noise', 'Fractal', 'Blends')"`
}

type KindSummary struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Groups []string `json:"groups,omitempty"`
}

type ListKindsResult struct {
	Kinds []KindSummary `json:"kinds"`
}

type DescribeKindArgs struct {
	Kind string `json:"kind" jsonschema:"Kind name (e.g. 'FractalFBm') or numeric type id"`
}

type BuildTreeArgs struct {
	Tree map[string]any `json:"tree" jsonschema:"Node tree: an object with 'type' naming the kind and one key per member. Sources and hybrids take nested node objects, hybrids also take numbers."`
}

type EncodedTreeResult struct {
	Encoded string `json:"encoded"`
	Nodes   int    `json:"nodes"`
}

type DecodeTreeArgs struct {
	Encoded string `json:"encoded" jsonschema:"Encoded node tree"`
}

type DecodeTreeResult struct {
	Tree  map[string]any `json:"tree"`
	Nodes int            `json:"nodes"`
}

type OpenTreeArgs struct {
	Encoded string `json:"encoded,omitempty" jsonschema:"Encoded node tree. Either this or preset is required."`
	Preset  string `json:"preset,omitempty" jsonschema:"Name of a saved preset to open"`
	Level   string `json:"level,omitempty" jsonschema:"Feature level cap: auto, scalar, sse2, sse41, avx2, avx512 or neon. Default auto."`
}

type OpenTreeResult struct {
	Handle string `json:"handle"`
	Level  string `json:"level"`
}

type HandleArgs struct {
	Handle string `json:"handle" jsonschema:"Handle returned by open_tree"`
}

type ReleaseResult struct {
	Released bool `json:"released"`
	Open     int  `json:"open"`
}

type GenerateArgs struct {
	Handle    string  `json:"handle" jsonschema:"Handle returned by open_tree"`
	Width     int     `json:"width" jsonschema:"Samples along x"`
	Height    int     `json:"height" jsonschema:"Samples along y"`
	Depth     int     `json:"depth,omitempty" jsonschema:"Samples along z; 0 or 1 generates a 2D grid"`
	XStart    int     `json:"x_start,omitempty" jsonschema:"Integer x origin; sample i is at (x_start + i) * frequency"`
	YStart    int     `json:"y_start,omitempty"`
	ZStart    int     `json:"z_start,omitempty"`
	Frequency float32 `json:"frequency,omitempty" jsonschema:"Distance between samples. Default 0.01."`
	Seed      int32   `json:"seed,omitempty"`
	Tileable  bool    `json:"tileable,omitempty" jsonschema:"Generate a seamlessly wrapping 2D image"`
	Samples   bool    `json:"samples,omitempty" jsonschema:"Include the raw samples in the result"`
}

type GenerateResult struct {
	Min     float32        `json:"min"`
	Max     float32        `json:"max"`
	Summary render.Summary `json:"summary"`
	Samples []float32      `json:"samples,omitempty"`
}

type SampleArgs struct {
	Handle string   `json:"handle" jsonschema:"Handle returned by open_tree"`
	X      float32  `json:"x"`
	Y      float32  `json:"y"`
	Z      *float32 `json:"z,omitempty" jsonschema:"Set for a 3D sample"`
	W      *float32 `json:"w,omitempty" jsonschema:"Set together with z for a 4D sample"`
	Seed   int32    `json:"seed,omitempty"`
}

type SampleResult struct {
	Value float32 `json:"value"`
}

type SavePresetArgs struct {
	Name        string `json:"name" jsonschema:"Preset name; '/' separated prefixes group presets"`
	Encoded     string `json:"encoded" jsonschema:"Encoded node tree"`
	Description string `json:"description,omitempty"`
}

type SavePresetResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type ListPresetsArgs struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"Only list presets whose names start with this prefix"`
}

type PresetSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Encoded     string `json:"encoded"`
}

type ListPresetsResult struct {
	Presets []PresetSummary `json:"presets"`
}
