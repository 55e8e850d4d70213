package stereo

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// NormalizeMeasure retrieves kind from cam and returns it as an 8-bit RGBA
// image suitable for display.
func NormalizeMeasure(cam Camera, kind MeasureKind) (*image.RGBA, error) {
	m, err := cam.RetrieveMeasure(kind)
	if err != nil {
		return nil, err
	}
	return Normalize(nil, m, kind), nil
}

// Normalize maps m to gray levels in dst (allocated when nil or mis-sized).
//
// Depth is scaled between its smallest and largest valid sample with near
// samples bright. Disparity is scaled the same way with large disparities
// bright. Confidence uses its fixed 0..100 range, confident samples bright.
// A map with a single valid value is drawn fully bright. Invalid samples
// are black. Alpha is always opaque.
func Normalize(dst *image.RGBA, m *FloatMap, kind MeasureKind) *image.RGBA {
	if dst == nil || dst.Bounds().Dx() != m.Width || dst.Bounds().Dy() != m.Height {
		dst = image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	}

	lo, hi, ok := m.MinMax()
	if kind == Confidence {
		lo, hi, ok = 0, 100, true
	}
	span := hi - lo

	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		out := dst.Pix[y*dst.Stride : y*dst.Stride+m.Width*4]
		for x, v := range row {
			g := uint8(0)
			if ok && Valid(v) {
				var t float32 = 1
				if span > 0 {
					t = (v - lo) / span
					if t < 0 {
						t = 0
					} else if t > 1 {
						t = 1
					}
					if kind == Depth || kind == Confidence {
						t = 1 - t
					}
				}
				g = uint8(t*255 + 0.5)
			}
			o := x * 4
			out[o], out[o+1], out[o+2], out[o+3] = g, g, g, 255
		}
	}
	return dst
}

// Colorize renders m on a hue ramp, near/low values warm and far/high values
// cool. Invalid samples stay transparent black.
func Colorize(m *FloatMap) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	lo, hi, ok := m.MinMax()
	if !ok {
		return dst
	}
	span := float64(hi - lo)

	for y := 0; y < m.Height; y++ {
		for x, v := range m.Row(y) {
			if !Valid(v) {
				continue
			}
			ratio := 0.0
			if span > 0 {
				ratio = float64(v-lo) / span
			}
			r, g, b := colorful.Hsv(30+200*ratio, 1, 1).RGB255()
			o := dst.PixOffset(x, y)
			dst.Pix[o], dst.Pix[o+1], dst.Pix[o+2], dst.Pix[o+3] = r, g, b, 255
		}
	}
	return dst
}
