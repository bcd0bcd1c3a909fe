// Package config loads the YAML job file of the noisegraph command.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sanonone/noisegraph/pkg/simd"
)

// ErrInvalidConfig wraps every validation failure reported by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the whole job file.
type Config struct {
	// Logging
	LogFormat string `yaml:"log_format"` // "text" or "json"
	LogLevel  string `yaml:"log_level"`  // "debug", "info", "warn", "error"

	// Prometheus listener; empty disables /metrics.
	MetricsAddr string `yaml:"metrics_addr"` // e.g. ":9095"

	// Feature level cap; "auto" picks the fastest available.
	Level simd.Level `yaml:"level"`

	// Preset log used by the preset subcommands and preset trees.
	PresetsPath string `yaml:"presets_path"`

	Render RenderConfig `yaml:"render"`
	MCP    MCPConfig    `yaml:"mcp"`
}

// RenderConfig describes one sampled image or volume.
type RenderConfig struct {
	Output string `yaml:"output"` // file path, "-" for stdout
	Format string `yaml:"format"` // "png", "f16" or "raw"

	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Depth  int `yaml:"depth"` // > 1 renders a 3D volume

	// Integer sample origin; sample i on an axis is at (origin + i) * frequency.
	Origin    [3]int  `yaml:"origin"`
	Frequency float32 `yaml:"frequency"`
	Seed      int32   `yaml:"seed"`
	Tileable  bool    `yaml:"tileable"` // 2D only

	Tree TreeConfig `yaml:"tree"`
}

// TreeConfig names the node tree to render. Exactly one field is set.
type TreeConfig struct {
	Encoded string         `yaml:"encoded"` // '@' base64 node tree
	Preset  string         `yaml:"preset"`  // name in the preset store
	Node    map[string]any `yaml:"node"`    // inline tree, see BuildNodeData
}

// MCPConfig configures the tool server.
type MCPConfig struct {
	Transport string `yaml:"transport"` // "stdio" or "http"
	Addr      string `yaml:"addr"`      // listen address for "http"
	// MaxSamples bounds the output size of one generate call.
	MaxSamples int `yaml:"max_samples"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogFormat:   "text",
		LogLevel:    "info",
		Level:       simd.Auto,
		PresetsPath: "presets.log",
		Render: RenderConfig{
			Output:    "noise.png",
			Format:    "png",
			Width:     512,
			Height:    512,
			Depth:     1,
			Frequency: 0.01,
			Seed:      1337,
		},
		MCP: MCPConfig{
			Transport:  "stdio",
			Addr:       ":9096",
			MaxSamples: 1 << 16,
		},
	}
}

// LoadConfig reads the YAML configuration file using strict parsing.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig() // Start with defaults

	if path == "" {
		return cfg, nil
	}

	// 1. Open File
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	// 2. Setup Strict Decoder
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	// 3. Decode
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("YAML syntax error in config %s: %w", path, err)
	}

	// 4. Validate
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges and combinations the decoder cannot.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q (want text or json)", ErrInvalidConfig, c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.MCP.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("%w: mcp.transport %q (want stdio or http)", ErrInvalidConfig, c.MCP.Transport)
	}
	if c.MCP.MaxSamples <= 0 {
		return fmt.Errorf("%w: mcp.max_samples must be positive", ErrInvalidConfig)
	}
	return c.Render.Validate()
}

// Validate checks the render job on its own.
func (r RenderConfig) Validate() error {
	switch r.Format {
	case "png", "f16", "raw":
	default:
		return fmt.Errorf("%w: render.format %q (want png, f16 or raw)", ErrInvalidConfig, r.Format)
	}
	if r.Width <= 0 || r.Height <= 0 || r.Depth <= 0 {
		return fmt.Errorf("%w: render size %dx%dx%d", ErrInvalidConfig, r.Width, r.Height, r.Depth)
	}
	if r.Depth > 1 && r.Format == "png" {
		return fmt.Errorf("%w: png output is 2D only", ErrInvalidConfig)
	}
	if r.Depth > 1 && r.Tileable {
		return fmt.Errorf("%w: tileable output is 2D only", ErrInvalidConfig)
	}
	if r.Frequency <= 0 {
		return fmt.Errorf("%w: render.frequency must be positive", ErrInvalidConfig)
	}

	set := 0
	if r.Tree.Encoded != "" {
		set++
	}
	if r.Tree.Preset != "" {
		set++
	}
	if r.Tree.Node != nil {
		set++
	}
	if set > 1 {
		return fmt.Errorf("%w: render.tree sets more than one of encoded, preset and node", ErrInvalidConfig)
	}
	return nil
}

// Samples returns the number of output values of the job.
func (r RenderConfig) Samples() int { return r.Width * r.Height * r.Depth }
