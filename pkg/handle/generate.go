package handle

import (
	"github.com/sanonone/noisegraph/pkg/noise"
)

// Grid entry points take integer sample origins and one frequency: sample i
// along an axis is taken at (start + i) * frequency.

func (t *Table) GenUniformGrid2D(h Handle, out []float32, xStart, yStart, xSize, ySize int, frequency float32, seed int32) (noise.OutputMinMax, error) {
	n, err := t.Node(h)
	if err != nil {
		return noise.OutputMinMax{}, err
	}
	defer n.Release()
	return n.GenUniformGrid2D(out,
		float32(xStart)*frequency, float32(yStart)*frequency,
		xSize, ySize, frequency, frequency, seed)
}

func (t *Table) GenUniformGrid3D(h Handle, out []float32, xStart, yStart, zStart, xSize, ySize, zSize int, frequency float32, seed int32) (noise.OutputMinMax, error) {
	n, err := t.Node(h)
	if err != nil {
		return noise.OutputMinMax{}, err
	}
	defer n.Release()
	return n.GenUniformGrid3D(out,
		float32(xStart)*frequency, float32(yStart)*frequency, float32(zStart)*frequency,
		xSize, ySize, zSize, frequency, frequency, frequency, seed)
}

func (t *Table) GenUniformGrid4D(h Handle, out []float32, xStart, yStart, zStart, wStart, xSize, ySize, zSize, wSize int, frequency float32, seed int32) (noise.OutputMinMax, error) {
	n, err := t.Node(h)
	if err != nil {
		return noise.OutputMinMax{}, err
	}
	defer n.Release()
	return n.GenUniformGrid4D(out,
		float32(xStart)*frequency, float32(yStart)*frequency, float32(zStart)*frequency, float32(wStart)*frequency,
		xSize, ySize, zSize, wSize, frequency, frequency, frequency, frequency, seed)
}

// GenTileable2D fills out with a seamlessly wrapping xSize by ySize image.
func (t *Table) GenTileable2D(h Handle, out []float32, xSize, ySize int, frequency float32, seed int32) (noise.OutputMinMax, error) {
	n, err := t.Node(h)
	if err != nil {
		return noise.OutputMinMax{}, err
	}
	defer n.Release()
	return n.GenTileable2D(out, xSize, ySize, frequency, frequency, seed)
}

func (t *Table) GenPositionArray2D(h Handle, out, xs, ys []float32, xOffset, yOffset float32, seed int32) (noise.OutputMinMax, error) {
	n, err := t.Node(h)
	if err != nil {
		return noise.OutputMinMax{}, err
	}
	defer n.Release()
	return n.GenPositionArray2D(out, xs, ys, xOffset, yOffset, seed)
}

func (t *Table) GenPositionArray3D(h Handle, out, xs, ys, zs []float32, xOffset, yOffset, zOffset float32, seed int32) (noise.OutputMinMax, error) {
	n, err := t.Node(h)
	if err != nil {
		return noise.OutputMinMax{}, err
	}
	defer n.Release()
	return n.GenPositionArray3D(out, xs, ys, zs, xOffset, yOffset, zOffset, seed)
}

func (t *Table) GenPositionArray4D(h Handle, out, xs, ys, zs, ws []float32, xOffset, yOffset, zOffset, wOffset float32, seed int32) (noise.OutputMinMax, error) {
	n, err := t.Node(h)
	if err != nil {
		return noise.OutputMinMax{}, err
	}
	defer n.Release()
	return n.GenPositionArray4D(out, xs, ys, zs, ws, xOffset, yOffset, zOffset, wOffset, seed)
}

func (t *Table) GenSingle2D(h Handle, x, y float32, seed int32) (float32, error) {
	n, err := t.Node(h)
	if err != nil {
		return 0, err
	}
	defer n.Release()
	return n.GenSingle2D(x, y, seed), nil
}

func (t *Table) GenSingle3D(h Handle, x, y, z float32, seed int32) (float32, error) {
	n, err := t.Node(h)
	if err != nil {
		return 0, err
	}
	defer n.Release()
	return n.GenSingle3D(x, y, z, seed), nil
}

func (t *Table) GenSingle4D(h Handle, x, y, z, w float32, seed int32) (float32, error) {
	n, err := t.Node(h)
	if err != nil {
		return 0, err
	}
	defer n.Release()
	return n.GenSingle4D(x, y, z, w, seed), nil
}
