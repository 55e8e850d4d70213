// Package session reads and writes recorded stereo sessions.
//
// A session file is a zstd-compressed tar stream. The first entry is
// session.yaml (the Manifest); each frame follows as a directory
// frames/NNNNNN/ holding left.png, right.png, depth.f32 and optionally
// confidence.u8 and disparity.f32. Float planes are little-endian float32,
// row-major, width*height samples.
package session

import (
	"fmt"
	"image"
	"time"
)

// Entry names inside a session file.
const (
	ManifestName   = "session.yaml"
	LeftName       = "left.png"
	RightName      = "right.png"
	DepthName      = "depth.f32"
	ConfidenceName = "confidence.u8"
	DisparityName  = "disparity.f32"

	// Ext is the conventional session file extension.
	Ext = ".dvs"
)

// Calibration holds the rectified pair parameters. Baseline is in mm.
type Calibration struct {
	Baseline float64 `yaml:"baseline"`
	Fx       float64 `yaml:"fx"`
	Fy       float64 `yaml:"fy"`
	Cx       float64 `yaml:"cx"`
	Cy       float64 `yaml:"cy"`
}

// Manifest describes a recorded session.
type Manifest struct {
	ID          string      `yaml:"id"`
	Created     time.Time   `yaml:"created"`
	Width       int         `yaml:"width"`
	Height      int         `yaml:"height"`
	FPS         int         `yaml:"fps"`
	Gain        int         `yaml:"gain"`
	DepthUnit   string      `yaml:"depth_unit"`
	Calibration Calibration `yaml:"calibration"`
	Frames      int         `yaml:"frames"`
}

// Validate checks the manifest is usable.
// Returns a list of validation errors, or nil if valid.
func (m *Manifest) Validate() []string {
	var errs []string
	if m.Width <= 0 || m.Height <= 0 {
		errs = append(errs, "width and height must be positive")
	}
	if m.Frames <= 0 {
		errs = append(errs, "frames must be positive")
	}
	if m.DepthUnit != "" && m.DepthUnit != "mm" {
		errs = append(errs, "depth_unit must be mm")
	}
	if m.FPS < 0 {
		errs = append(errs, "fps must not be negative")
	}
	return errs
}

// Frame is one recorded grab.
type Frame struct {
	Index      int
	Left       image.Image
	Right      image.Image
	Depth      []float32
	Confidence []uint8   // nil when not recorded
	Disparity  []float32 // nil when not recorded
}

func frameDir(i int) string {
	return fmt.Sprintf("frames/%06d/", i)
}
