package render

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/x448/float16"
)

// Write encodes f to w in format ("png", "f16" or "raw").
func Write(w io.Writer, format string, f *Field) error {
	switch format {
	case "png":
		return WritePNG(w, f)
	case "f16":
		return WriteFloat16(w, f)
	case "raw":
		return WriteRaw(w, f)
	}
	return fmt.Errorf("%w: format %q", ErrUnsupported, format)
}

// WritePNG writes a 16-bit grayscale image, mapping the field's observed
// range to black..white. A flat field is written as mid gray.
func WritePNG(w io.Writer, f *Field) error {
	if f.Depth > 1 {
		return fmt.Errorf("%w: png of a %d-slice volume", ErrUnsupported, f.Depth)
	}
	img := image.NewGray16(image.Rect(0, 0, f.Width, f.Height))
	lo, hi := f.Range.Min, f.Range.Max
	scale := float32(0)
	if hi > lo {
		scale = math.MaxUint16 / (hi - lo)
	}
	for y := 0; y < f.Height; y++ {
		row := f.Data[y*f.Width : (y+1)*f.Width]
		for x, v := range row {
			g := uint16(math.MaxUint16 / 2)
			if scale != 0 {
				g = uint16(min(math.Round(float64((v-lo)*scale)), math.MaxUint16))
			}
			// Image rows grow downwards; sample rows grow upwards.
			img.SetGray16(x, f.Height-1-y, color.Gray16{Y: g})
		}
	}
	return png.Encode(w, img)
}

// WriteFloat16 writes every sample as a little-endian IEEE 754 half float.
func WriteFloat16(w io.Writer, f *Field) error {
	bw := bufio.NewWriter(w)
	var b [2]byte
	for _, v := range f.Data {
		binary.LittleEndian.PutUint16(b[:], float16.Fromfloat32(v).Bits())
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFloat16 reads n half floats written by WriteFloat16.
func ReadFloat16(r io.Reader, n int) ([]float32, error) {
	raw := make([]uint16, n)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, fmt.Errorf("read %d half floats: %w", n, err)
	}
	out := make([]float32, n)
	for i, h := range raw {
		out[i] = float16.Frombits(h).Float32()
	}
	return out, nil
}

// WriteRaw writes every sample as a little-endian float32.
func WriteRaw(w io.Writer, f *Field) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, f.Data); err != nil {
		return err
	}
	return bw.Flush()
}
