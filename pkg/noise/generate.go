package noise

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sanonone/noisegraph/pkg/metrics"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// OutputMinMax is the range of the values written by one generation call.
// An empty output yields Min=+Inf, Max=-Inf.
type OutputMinMax struct {
	Min, Max float32
}

// Expand widens r to include o.
func (r OutputMinMax) Expand(o OutputMinMax) OutputMinMax {
	return OutputMinMax{Min: min(r.Min, o.Min), Max: max(r.Max, o.Max)}
}

type entryMetrics struct {
	duration prometheus.Observer
	samples  prometheus.Counter
}

func newEntryMetrics(entry string) entryMetrics {
	return entryMetrics{
		duration: metrics.GenerationDuration.WithLabelValues(entry),
		samples:  metrics.SamplesGenerated.WithLabelValues(entry),
	}
}

var (
	gridMetrics2D     = newEntryMetrics("grid2d")
	gridMetrics3D     = newEntryMetrics("grid3d")
	gridMetrics4D     = newEntryMetrics("grid4d")
	tileableMetrics   = newEntryMetrics("tileable2d")
	positionMetrics2D = newEntryMetrics("positions2d")
	positionMetrics3D = newEntryMetrics("positions3d")
	positionMetrics4D = newEntryMetrics("positions4d")
)

func (e entryMetrics) done(start time.Time, out []float32) OutputMinMax {
	lo, hi := simd.MinMax(out)
	e.duration.Observe(time.Since(start).Seconds())
	e.samples.Add(float64(len(out)))
	return OutputMinMax{Min: lo, Max: hi}
}

func gridSize(out []float32, sizes ...int) (int, error) {
	total := 1
	for _, n := range sizes {
		if n <= 0 {
			return 0, ErrInvalidSize
		}
		total *= n
	}
	if len(out) < total {
		return 0, ErrBufferTooSmall
	}
	return total, nil
}

// GenUniformGrid2D fills out with an xSize by ySize grid in row-major order
// (x fastest). Sample (i, j) is taken at (x0 + i*stepX, y0 + j*stepY).
func (s *SmartNode) GenUniformGrid2D(out []float32, x0, y0 float32, xSize, ySize int, stepX, stepY float32, seed int32) (OutputMinMax, error) {
	n := s.live()
	total, err := gridSize(out, xSize, ySize)
	if err != nil {
		return OutputMinMax{}, err
	}
	start := time.Now()
	n.gen.grid2(out, x0, y0, xSize, ySize, stepX, stepY, seed)
	return gridMetrics2D.done(start, out[:total]), nil
}

// GenUniformGrid3D fills out with an xSize by ySize by zSize grid, x
// fastest then y.
func (s *SmartNode) GenUniformGrid3D(out []float32, x0, y0, z0 float32, xSize, ySize, zSize int, stepX, stepY, stepZ float32, seed int32) (OutputMinMax, error) {
	n := s.live()
	total, err := gridSize(out, xSize, ySize, zSize)
	if err != nil {
		return OutputMinMax{}, err
	}
	start := time.Now()
	n.gen.grid3(out, x0, y0, z0, xSize, ySize, zSize, stepX, stepY, stepZ, seed)
	return gridMetrics3D.done(start, out[:total]), nil
}

// GenUniformGrid4D fills out with a four dimensional grid, x fastest.
func (s *SmartNode) GenUniformGrid4D(out []float32, x0, y0, z0, w0 float32, xSize, ySize, zSize, wSize int, stepX, stepY, stepZ, stepW float32, seed int32) (OutputMinMax, error) {
	n := s.live()
	total, err := gridSize(out, xSize, ySize, zSize, wSize)
	if err != nil {
		return OutputMinMax{}, err
	}
	start := time.Now()
	n.gen.grid4(out, x0, y0, z0, w0, xSize, ySize, zSize, wSize, stepX, stepY, stepZ, stepW, seed)
	return gridMetrics4D.done(start, out[:total]), nil
}

// GenTileable2D fills out with an xSize by ySize image that wraps
// seamlessly on both axes: sampling one column or row past the edge gives
// the first column or row again. Tileable output is sampled in 4D, so it
// does not match GenUniformGrid2D.
func (s *SmartNode) GenTileable2D(out []float32, xSize, ySize int, stepX, stepY float32, seed int32) (OutputMinMax, error) {
	n := s.live()
	total, err := gridSize(out, xSize, ySize)
	if err != nil {
		return OutputMinMax{}, err
	}
	start := time.Now()
	n.gen.tileable2(out, xSize, ySize, xSize, ySize, stepX, stepY, seed)
	return tileableMetrics.done(start, out[:total]), nil
}

func positionCount(out []float32, coords ...[]float32) (int, error) {
	count := len(coords[0])
	for _, c := range coords[1:] {
		if len(c) != count {
			return 0, ErrLengthMismatch
		}
	}
	if len(out) < count {
		return 0, ErrBufferTooSmall
	}
	return count, nil
}

// GenPositionArray2D samples at (xs[i]+xOffset, ys[i]+yOffset) into out[i].
func (s *SmartNode) GenPositionArray2D(out, xs, ys []float32, xOffset, yOffset float32, seed int32) (OutputMinMax, error) {
	n := s.live()
	count, err := positionCount(out, xs, ys)
	if err != nil {
		return OutputMinMax{}, err
	}
	start := time.Now()
	n.gen.positions2(out, xs, ys, xOffset, yOffset, seed)
	return positionMetrics2D.done(start, out[:count]), nil
}

// GenPositionArray3D is the 3D form of GenPositionArray2D.
func (s *SmartNode) GenPositionArray3D(out, xs, ys, zs []float32, xOffset, yOffset, zOffset float32, seed int32) (OutputMinMax, error) {
	n := s.live()
	count, err := positionCount(out, xs, ys, zs)
	if err != nil {
		return OutputMinMax{}, err
	}
	start := time.Now()
	n.gen.positions3(out, xs, ys, zs, xOffset, yOffset, zOffset, seed)
	return positionMetrics3D.done(start, out[:count]), nil
}

// GenPositionArray4D is the 4D form of GenPositionArray2D.
func (s *SmartNode) GenPositionArray4D(out, xs, ys, zs, ws []float32, xOffset, yOffset, zOffset, wOffset float32, seed int32) (OutputMinMax, error) {
	n := s.live()
	count, err := positionCount(out, xs, ys, zs, ws)
	if err != nil {
		return OutputMinMax{}, err
	}
	start := time.Now()
	n.gen.positions4(out, xs, ys, zs, ws, xOffset, yOffset, zOffset, wOffset, seed)
	return positionMetrics4D.done(start, out[:count]), nil
}

// GenSingle2D evaluates one sample. It computes a full vector per call, so
// it is far slower per sample than the batch entry points.
func (s *SmartNode) GenSingle2D(x, y float32, seed int32) float32 {
	return s.live().gen.single2(x, y, seed)
}

// GenSingle3D evaluates one sample; see GenSingle2D.
func (s *SmartNode) GenSingle3D(x, y, z float32, seed int32) float32 {
	return s.live().gen.single3(x, y, z, seed)
}

// GenSingle4D evaluates one sample; see GenSingle2D.
func (s *SmartNode) GenSingle4D(x, y, z, w float32, seed int32) float32 {
	return s.live().gen.single4(x, y, z, w, seed)
}
