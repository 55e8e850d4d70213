// Package stereo is the boundary to a stereo depth camera.
//
// A Camera hands out rectified left/right images and per-pixel measures
// (depth, disparity, confidence). Everything here works on buffers the backend
// already produced: view composition, normalisation for display and depth pick
// readouts. Matching, triangulation and confidence estimation stay in the backend.
package stereo

import (
	"fmt"
	"strings"
)

// Resolution is a sensor image size in pixels (per eye).
type Resolution struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Resolutions supported by the camera.
var (
	HD2K   = Resolution{Width: 2208, Height: 1242}
	HD1080 = Resolution{Width: 1920, Height: 1080}
	HD720  = Resolution{Width: 1280, Height: 720}
	VGA    = Resolution{Width: 672, Height: 376}
)

// ParseResolution returns the resolution for a preset name
// ("hd2k", "hd1080", "hd720", "vga").
func ParseResolution(name string) (Resolution, error) {
	switch strings.ToLower(name) {
	case "hd2k":
		return HD2K, nil
	case "hd1080":
		return HD1080, nil
	case "hd720":
		return HD720, nil
	case "vga":
		return VGA, nil
	}
	return Resolution{}, fmt.Errorf("unknown resolution: %q", name)
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Side selects one eye of the stereo pair.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// MeasureKind selects a per-pixel measure.
type MeasureKind int

const (
	// Depth is distance from the left camera plane in millimeters.
	Depth MeasureKind = iota
	// Disparity is the horizontal offset in pixels between matched pixels.
	Disparity
	// Confidence is 0..100, higher means less reliable.
	Confidence
)

func (m MeasureKind) String() string {
	switch m {
	case Depth:
		return "depth"
	case Disparity:
		return "disparity"
	case Confidence:
		return "confidence"
	}
	return fmt.Sprintf("measure(%d)", int(m))
}

// ViewMode selects a composed view of the stereo pair.
type ViewMode int

const (
	ViewLeft ViewMode = iota
	ViewRight
	ViewAnaglyph
	ViewGrayDiff
	ViewSideBySide
	ViewOverlay
)

// NumViewModes is the number of selectable views.
const NumViewModes = 6

func (v ViewMode) String() string {
	switch v {
	case ViewLeft:
		return "left"
	case ViewRight:
		return "right"
	case ViewAnaglyph:
		return "anaglyph"
	case ViewGrayDiff:
		return "gray diff"
	case ViewSideBySide:
		return "side by side"
	case ViewOverlay:
		return "overlay"
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// Valid reports whether v names one of the six views.
func (v ViewMode) Valid() bool {
	return v >= ViewLeft && v < NumViewModes
}

// SensingMode selects how the backend treats holes in the measures.
type SensingMode int

const (
	// Raw keeps every hole the matcher left.
	Raw SensingMode = iota
	// Full fills holes from surrounding valid samples.
	Full
)

func (m SensingMode) String() string {
	if m == Full {
		return "FULL"
	}
	return "Raw"
}

// ParseSensingMode accepts "raw" and "full" (any case).
func ParseSensingMode(s string) (SensingMode, error) {
	switch strings.ToLower(s) {
	case "raw":
		return Raw, nil
	case "full":
		return Full, nil
	}
	return Raw, fmt.Errorf("unknown sensing mode: %q", s)
}

// DepthQuality is the depth computation preset requested at init.
type DepthQuality int

const (
	Performance DepthQuality = iota
	Quality
)

func (q DepthQuality) String() string {
	if q == Quality {
		return "quality"
	}
	return "performance"
}

// Parameters are the rectified calibration values of the pair.
type Parameters struct {
	Baseline float64 `yaml:"baseline" json:"baseline"` // mm
	Fx       float64 `yaml:"fx" json:"fx"`
	Fy       float64 `yaml:"fy" json:"fy"`
	Cx       float64 `yaml:"cx" json:"cx"`
	Cy       float64 `yaml:"cy" json:"cy"`
}

// InitParams are passed to Camera.Init.
type InitParams struct {
	Quality DepthQuality
	Verbose bool
	// Loop restarts playback at the end of a recorded session.
	Loop bool
}
