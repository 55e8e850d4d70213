package stereo

import (
	"image"
	"math"
)

// FloatMap is a single-channel float32 buffer in row-major order.
// Stride is the distance between rows in elements and may exceed Width.
// Invalid samples are NaN or infinite.
type FloatMap struct {
	Width  int
	Height int
	Stride int
	Data   []float32
}

// NewFloatMap allocates a tightly packed map filled with NaN.
func NewFloatMap(width, height int) *FloatMap {
	m := &FloatMap{
		Width:  width,
		Height: height,
		Stride: width,
		Data:   make([]float32, width*height),
	}
	m.Fill(float32(math.NaN()))
	return m
}

// At returns the sample at (x, y). Out-of-range coordinates return NaN.
func (m *FloatMap) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return float32(math.NaN())
	}
	return m.Data[y*m.Stride+x]
}

// Set stores v at (x, y). Out-of-range coordinates are ignored.
func (m *FloatMap) Set(x, y int, v float32) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Data[y*m.Stride+x] = v
}

// Row returns the Width samples of row y.
func (m *FloatMap) Row(y int) []float32 {
	off := y * m.Stride
	return m.Data[off : off+m.Width]
}

// Fill sets every sample to v.
func (m *FloatMap) Fill(v float32) {
	for i := range m.Data {
		m.Data[i] = v
	}
}

// Bounds returns the map rectangle.
func (m *FloatMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Clone returns a tightly packed copy.
func (m *FloatMap) Clone() *FloatMap {
	out := &FloatMap{Width: m.Width, Height: m.Height, Stride: m.Width, Data: make([]float32, m.Width*m.Height)}
	for y := 0; y < m.Height; y++ {
		copy(out.Row(y), m.Row(y))
	}
	return out
}

// CopyFrom copies src into m, reallocating when the size differs.
func (m *FloatMap) CopyFrom(src *FloatMap) {
	if m.Width != src.Width || m.Height != src.Height || len(m.Data) < src.Width*src.Height {
		m.Width, m.Height, m.Stride = src.Width, src.Height, src.Width
		m.Data = make([]float32, src.Width*src.Height)
	}
	for y := 0; y < src.Height; y++ {
		copy(m.Row(y), src.Row(y))
	}
}

// Valid reports whether v is a usable sample.
func Valid(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

// MinMax returns the smallest and largest valid samples. ok is false when the
// map holds no valid sample.
func (m *FloatMap) MinMax() (lo, hi float32, ok bool) {
	for y := 0; y < m.Height; y++ {
		for _, v := range m.Row(y) {
			if !Valid(v) {
				continue
			}
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi, ok
}

// ValidBounds returns the bounding box of valid samples, or an empty
// rectangle when there are none.
func (m *FloatMap) ValidBounds() image.Rectangle {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		for x, v := range m.Row(y) {
			if !Valid(v) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
