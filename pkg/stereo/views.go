package stereo

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// GetView composes view mode v from the current left/right images of cam.
func GetView(cam Camera, v ViewMode) (*image.RGBA, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("invalid view mode %d", int(v))
	}
	left, err := cam.RetrieveImage(Left)
	if err != nil {
		return nil, err
	}
	right, err := cam.RetrieveImage(Right)
	if err != nil {
		return nil, err
	}
	return ComposeView(nil, left, right, v)
}

// ComposeView writes view v of the pair into dst, allocating when dst is nil or
// the wrong size. Both images must have the same size.
func ComposeView(dst, left, right *image.RGBA, v ViewMode) (*image.RGBA, error) {
	lb, rb := left.Bounds(), right.Bounds()
	if lb.Dx() != rb.Dx() || lb.Dy() != rb.Dy() {
		return nil, fmt.Errorf("stereo pair size mismatch: %v vs %v", lb.Size(), rb.Size())
	}
	w, h := lb.Dx(), lb.Dy()
	if dst == nil || dst.Bounds().Dx() != w || dst.Bounds().Dy() != h {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	switch v {
	case ViewLeft:
		dst = toRGBA(dst, left)
	case ViewRight:
		dst = toRGBA(dst, right)
	case ViewAnaglyph:
		eachPixel(dst, left, right, func(l, r, out []uint8) {
			out[0], out[1], out[2], out[3] = l[0], r[1], r[2], 255
		})
	case ViewGrayDiff:
		eachPixel(dst, left, right, func(l, r, out []uint8) {
			d := int(gray(l)) - int(gray(r))
			if d < 0 {
				d = -d
			}
			out[0], out[1], out[2], out[3] = uint8(d), uint8(d), uint8(d), 255
		})
	case ViewOverlay:
		eachPixel(dst, left, right, func(l, r, out []uint8) {
			for c := 0; c < 3; c++ {
				out[c] = uint8((uint16(l[c]) + uint16(r[c]) + 1) / 2)
			}
			out[3] = 255
		})
	case ViewSideBySide:
		dst = toRGBA(dst, squeeze(left, right))
	default:
		return nil, fmt.Errorf("invalid view mode %d", int(v))
	}
	return dst, nil
}

// SideBySide returns a new image twice as wide holding left then right at full
// resolution.
func SideBySide(left, right *image.RGBA) *image.RGBA {
	lb, rb := left.Bounds(), right.Bounds()
	h := lb.Dy()
	if rb.Dy() > h {
		h = rb.Dy()
	}
	out := imaging.New(lb.Dx()+rb.Dx(), h, color.NRGBA{})
	out = imaging.Paste(out, left, image.Pt(0, 0))
	out = imaging.Paste(out, right, image.Pt(lb.Dx(), 0))
	return toRGBA(nil, out)
}

// squeeze fits both images into the width of one, left half then right half.
func squeeze(left, right *image.RGBA) *image.NRGBA {
	w, h := left.Bounds().Dx(), left.Bounds().Dy()
	if w < 2 {
		return imaging.Clone(left)
	}
	out := imaging.New(w, h, color.Black)
	out = imaging.Paste(out, imaging.Resize(left, w/2, h, imaging.Box), image.Pt(0, 0))
	out = imaging.Paste(out, imaging.Resize(right, w-w/2, h, imaging.Box), image.Pt(w/2, 0))
	return out
}

func rowPix(img *image.RGBA, y int) []uint8 {
	b := img.Bounds()
	start := img.PixOffset(b.Min.X, b.Min.Y+y)
	return img.Pix[start : start+b.Dx()*4]
}

func eachPixel(dst, left, right *image.RGBA, fn func(l, r, out []uint8)) {
	b := left.Bounds()
	for y := 0; y < b.Dy(); y++ {
		lr, rr, or := rowPix(left, y), rowPix(right, y), rowPix(dst, y)
		for i := 0; i+4 <= len(lr); i += 4 {
			fn(lr[i:i+4], rr[i:i+4], or[i:i+4])
		}
	}
}

func gray(p []uint8) uint8 {
	return uint8((299*int(p[0]) + 587*int(p[1]) + 114*int(p[2]) + 500) / 1000)
}
