// Package render samples a node over a regular grid and writes the result as
// an image or a raw sample dump.
package render

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sanonone/noisegraph/internal/config"
	"github.com/sanonone/noisegraph/pkg/noise"
)

// ErrUnsupported is returned for output formats that cannot hold a field,
// such as PNG for a volume.
var ErrUnsupported = errors.New("unsupported output")

// Field is a sampled grid stored x fastest, then y, then z.
type Field struct {
	Width, Height, Depth int
	Data                 []float32
	Range                noise.OutputMinMax
}

// Generate samples n as described by job. Sample i on an axis sits at
// (origin + i) * frequency.
func Generate(n *noise.SmartNode, job config.RenderConfig) (*Field, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	f := &Field{
		Width:  job.Width,
		Height: job.Height,
		Depth:  job.Depth,
		Data:   make([]float32, job.Samples()),
	}

	freq := job.Frequency
	x0 := float32(job.Origin[0]) * freq
	y0 := float32(job.Origin[1]) * freq
	z0 := float32(job.Origin[2]) * freq

	start := time.Now()
	var err error
	switch {
	case job.Tileable:
		f.Range, err = n.GenTileable2D(f.Data, job.Width, job.Height, freq, freq, job.Seed)
	case job.Depth > 1:
		f.Range, err = n.GenUniformGrid3D(f.Data, x0, y0, z0, job.Width, job.Height, job.Depth, freq, freq, freq, job.Seed)
	default:
		f.Range, err = n.GenUniformGrid2D(f.Data, x0, y0, job.Width, job.Height, freq, freq, job.Seed)
	}
	if err != nil {
		return nil, fmt.Errorf("generate %dx%dx%d: %w", job.Width, job.Height, job.Depth, err)
	}

	slog.Debug("[Render] Field generated",
		"kind", n.Metadata().Name, "level", n.Level(),
		"samples", len(f.Data), "min", f.Range.Min, "max", f.Range.Max,
		"elapsed", time.Since(start))
	return f, nil
}
