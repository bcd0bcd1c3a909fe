package main

import (
	"bytes"
	"flag"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/noisegraph/internal/render"
	"github.com/sanonone/noisegraph/pkg/handle"
	"github.com/sanonone/noisegraph/pkg/persistence"
)

const fbmYAML = `type: FractalFBm
Octaves: 5
Source:
  type: Simplex
`

// writeConfig points the preset store at a temp dir and returns the config path.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := "log_level: error\npresets_path: " + filepath.Join(dir, "presets.log") + "\n"
	path := filepath.Join(dir, "noisegraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func encodeFBm(t *testing.T) string {
	t.Helper()
	out, err := runCLI(t, fbmYAML, "encode")
	require.NoError(t, err)
	return strings.TrimSpace(out)
}

func TestUsage(t *testing.T) {
	_, err := runCLI(t, "")
	assert.ErrorIs(t, err, errUsage)
	_, err = runCLI(t, "", "wobble")
	assert.ErrorIs(t, err, errUsage)
	_, err = runCLI(t, "", "-h")
	assert.ErrorIs(t, err, flag.ErrHelp)
	_, err = runCLI(t, "", "-config", filepath.Join(t.TempDir(), "missing.yaml"), "levels")
	assert.Error(t, err)
}

func TestLevels(t *testing.T) {
	out, err := runCLI(t, "", "levels")
	require.NoError(t, err)
	assert.Contains(t, out, "LEVEL")
	assert.Contains(t, out, "scalar")
	assert.Contains(t, out, "cpu maximum:")
	assert.Equal(t, 1, strings.Count(out, "*"))
}

func TestDescribe(t *testing.T) {
	out, err := runCLI(t, "", "describe")
	require.NoError(t, err)
	assert.Contains(t, out, "FractalFBm")
	assert.Contains(t, out, "Simplex")

	out, err = runCLI(t, "", "describe", "FractalFBm")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Octaves"`)

	out, err = runCLI(t, "", "describe", "-schema", "12")
	require.NoError(t, err)
	assert.Contains(t, out, `"properties"`)

	_, err = runCLI(t, "", "describe", "Wobble")
	assert.ErrorIs(t, err, handle.ErrUnknownKind)
	_, err = runCLI(t, "", "describe", "-schema", "--", "-1")
	assert.ErrorIs(t, err, handle.ErrUnknownKind)
}

func TestEncodeDecode(t *testing.T) {
	encoded := encodeFBm(t)
	assert.NotEmpty(t, encoded)

	out, err := runCLI(t, "", "decode", encoded)
	require.NoError(t, err)
	assert.Contains(t, out, "type: FractalFBm")
	assert.Contains(t, out, "Octaves: 5")
	assert.NotContains(t, out, "Gain", "defaults are omitted")
	assert.Contains(t, out, "type: Simplex")

	// Decoded YAML encodes back to the same string.
	again, err := runCLI(t, out, "encode", "-")
	require.NoError(t, err)
	assert.Equal(t, encoded, strings.TrimSpace(again))

	_, err = runCLI(t, "type: Wobble\n", "encode")
	assert.Error(t, err)
	_, err = runCLI(t, "", "decode")
	assert.ErrorIs(t, err, errUsage)
	_, err = runCLI(t, "", "decode", "@@not-a-tree")
	assert.Error(t, err)
}

func TestRenderPNG(t *testing.T) {
	cfg, dir := writeConfig(t)
	encoded := encodeFBm(t)
	out := filepath.Join(dir, "fbm.png")

	stats, err := runCLI(t, "", "-config", cfg, "render",
		"-tree", encoded, "-o", out, "-width", "32", "-height", "16", "-stats")
	require.NoError(t, err)
	assert.Contains(t, stats, `"count": 512`)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestRenderVolumeToStdout(t *testing.T) {
	cfg, _ := writeConfig(t)
	encoded := encodeFBm(t)

	out, err := runCLI(t, "", "-config", cfg, "render", "-tree", encoded,
		"-format", "f16", "-o", "-", "-width", "4", "-height", "4", "-depth", "4", "-level", "scalar")
	require.NoError(t, err)
	samples, err := render.ReadFloat16(strings.NewReader(out), 64)
	require.NoError(t, err)
	assert.Len(t, samples, 64)
}

func TestRenderErrors(t *testing.T) {
	cfg, _ := writeConfig(t)
	encoded := encodeFBm(t)

	_, err := runCLI(t, "", "-config", cfg, "render", "-o", "-")
	assert.Error(t, err, "no tree")
	_, err = runCLI(t, "", "-config", cfg, "render", "-tree", encoded, "-depth", "2", "-o", "-")
	assert.Error(t, err, "png volume")
	_, err = runCLI(t, "", "-config", cfg, "render", "-tree", encoded, "-preset", "x", "-o", "-")
	assert.Error(t, err, "two tree sources")
	_, err = runCLI(t, "", "-config", cfg, "render", "-preset", "missing", "-o", "-")
	assert.ErrorIs(t, err, persistence.ErrPresetNotFound)
	_, err = runCLI(t, "", "-config", cfg, "render", "-tree", encoded, "-level", "bogus")
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	cfg, dir := writeConfig(t)
	encoded := encodeFBm(t)

	_, err := runCLI(t, "", "-config", cfg, "presets", "put", "-d", "rolling hills", "terrain/hills", encoded)
	require.NoError(t, err)
	_, err = runCLI(t, "", "-config", cfg, "presets", "put", "bad", "@@")
	assert.ErrorIs(t, err, persistence.ErrInvalidPreset)

	out, err := runCLI(t, "", "-config", cfg, "presets", "list", "terrain/")
	require.NoError(t, err)
	assert.Contains(t, out, "terrain/hills")
	assert.Contains(t, out, "rolling hills")

	out, err = runCLI(t, "", "-config", cfg, "presets", "get", "terrain/hills")
	require.NoError(t, err)
	assert.Equal(t, encoded, strings.TrimSpace(out))

	_, err = runCLI(t, "", "-config", cfg, "render", "-preset", "terrain/hills",
		"-format", "raw", "-o", filepath.Join(dir, "hills.raw"), "-width", "8", "-height", "8")
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(dir, "hills.raw"))
	require.NoError(t, err)
	assert.EqualValues(t, 8*8*4, info.Size())

	_, err = runCLI(t, "", "-config", cfg, "presets", "compact")
	require.NoError(t, err)
	_, err = runCLI(t, "", "-config", cfg, "presets", "rm", "terrain/hills")
	require.NoError(t, err)
	_, err = runCLI(t, "", "-config", cfg, "presets", "get", "terrain/hills")
	assert.ErrorIs(t, err, persistence.ErrPresetNotFound)

	_, err = runCLI(t, "", "-config", cfg, "presets")
	assert.ErrorIs(t, err, errUsage)
	_, err = runCLI(t, "", "-config", cfg, "presets", "frob")
	assert.ErrorIs(t, err, errUsage)
}

func TestMCPRejectsUnknownTransport(t *testing.T) {
	cfg, _ := writeConfig(t)
	_, err := runCLI(t, "", "-config", cfg, "mcp", "-transport", "carrier-pigeon", "-no-presets")
	assert.Error(t, err)
}
