// Package control maps viewer key presses onto viewer state.
//
// Apply is pure: it mutates State and reports the side effect the frame loop
// must carry out (resetting the camera, saving a snapshot, ...).
package control

import (
	"github.com/teslashibe/go-depthview/pkg/stereo"
)

// Confidence threshold limits and key step.
const (
	MinConfidence  = 1
	MaxConfidence  = 100
	ConfidenceStep = 10
)

// Action is a side effect requested by a key.
type Action int

const (
	None Action = iota
	Quit
	Realign
	GainUp
	GainDown
	SaveImage
	SaveDisparity
	SensingChanged
	ViewChanged
	ThresholdChanged
	DisplayChanged
)

func (a Action) String() string {
	switch a {
	case None:
		return "none"
	case Quit:
		return "quit"
	case Realign:
		return "realign"
	case GainUp:
		return "gain up"
	case GainDown:
		return "gain down"
	case SaveImage:
		return "save image"
	case SaveDisparity:
		return "save disparity"
	case SensingChanged:
		return "sensing changed"
	case ViewChanged:
		return "view changed"
	case ThresholdChanged:
		return "threshold changed"
	case DisplayChanged:
		return "display changed"
	}
	return "unknown"
}

// State is the viewer's mutable mode set.
type State struct {
	ConfidenceThreshold int
	View                stereo.ViewMode
	SensingMode         stereo.SensingMode
	ShowDisparity       bool
	ShowConfidence      bool
	Quit                bool
}

// NewState returns the start-up state: every sample kept, anaglyph view,
// raw sensing, disparity window on, confidence window off.
func NewState() State {
	return State{
		ConfidenceThreshold: MaxConfidence,
		View:                stereo.ViewAnaglyph,
		SensingMode:         stereo.Raw,
		ShowDisparity:       true,
	}
}

// Apply handles one key code as returned by a display's WaitKey. Negative
// codes mean no key. Only the low byte is significant.
func (s *State) Apply(key int) Action {
	if key < 0 {
		return None
	}
	action := s.dispatch(byte(key & 0xff))
	s.ConfidenceThreshold = Clamp(s.ConfidenceThreshold, MinConfidence, MaxConfidence)
	return action
}

func (s *State) dispatch(k byte) Action {
	switch k {
	case 'b':
		s.ConfidenceThreshold -= ConfidenceStep
		return ThresholdChanged
	case 'n':
		s.ConfidenceThreshold += ConfidenceStep
		return ThresholdChanged
	case 'a':
		return Realign
	case 'g':
		return GainUp
	case 'h':
		return GainDown
	case '0', '1', '2', '3', '4', '5':
		s.View = stereo.ViewMode(k - '0')
		return ViewChanged
	case 's':
		s.ShowConfidence = !s.ShowConfidence
		return DisplayChanged
	case 'd':
		s.ShowDisparity = !s.ShowDisparity
		return DisplayChanged
	case 'w':
		return SaveImage
	case 'v':
		return SaveDisparity
	case 'r':
		s.SensingMode = stereo.Raw
		return SensingChanged
	case 'f':
		s.SensingMode = stereo.Full
		return SensingChanged
	case 'q':
		s.Quit = true
		return Quit
	}
	return None
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Help lists the key bindings for the console.
const Help = `Keys:
  b / n   confidence threshold -10 / +10
  0..5    view: left, right, anaglyph, gray diff, side by side, overlay
  s       toggle confidence window
  d       toggle disparity window
  g / h   gain +1 / -1
  r / f   sensing mode raw / full
  a       realign
  w       save side-by-side snapshot
  v       save disparity snapshot
  q       quit`
