package export

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/go-depthview/pkg/stereo"
)

// SavePNG writes img as an opaque PNG. Alpha is dropped so the file holds
// plain RGB, whatever the source alpha was.
func SavePNG(path string, img image.Image) error {
	return imaging.Save(Opaque(img), path)
}

// Opaque returns a copy of img with every alpha set to 255.
func Opaque(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}

// DepthPicture crops the normalised depth image to the bounding box of the
// valid samples in depth. With no valid sample the whole image is kept.
func DepthPicture(normalized *image.RGBA, depth *stereo.FloatMap) image.Image {
	box := depth.ValidBounds()
	if box.Empty() {
		return normalized
	}
	return imaging.Crop(normalized, box.Add(normalized.Bounds().Min))
}
