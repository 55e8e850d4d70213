package stereo

import (
	"context"
	"fmt"
	"image"
	"sync"
)

// Camera is a stereo depth camera, live or played back.
//
// Buffers returned by RetrieveImage and RetrieveMeasure are owned by the
// camera and reused: the next Grab may overwrite them. Copy what you keep.
type Camera interface {
	Init(ctx context.Context, p InitParams) error
	Resolution() Resolution
	Parameters() Parameters

	SetConfidenceThreshold(threshold int)
	ConfidenceThreshold() int

	// Grab blocks until the next frame is available and makes it current.
	Grab(mode SensingMode) error
	RetrieveImage(side Side) (*image.RGBA, error)
	RetrieveMeasure(kind MeasureKind) (*FloatMap, error)

	Gain() int
	SetGain(gain int) error
	// Reset recomputes the stereo alignment.
	Reset() error

	Close() error
}

// LiveOpener builds a live camera for a device index.
type LiveOpener func(res Resolution, device int) (Camera, error)

var (
	liveMu     sync.RWMutex
	liveOpener LiveOpener
)

// RegisterLive installs the live backend. Backends that need cgo register
// themselves so this package stays pure Go.
func RegisterLive(open LiveOpener) {
	liveMu.Lock()
	defer liveMu.Unlock()
	liveOpener = open
}

// Open returns a playback camera for path, or the live camera when path is empty.
// The camera still needs Init.
func Open(path string, res Resolution, device int) (Camera, error) {
	if path != "" {
		return NewPlayback(path), nil
	}

	liveMu.RLock()
	open := liveOpener
	liveMu.RUnlock()
	if open == nil {
		return nil, WithCode(CodeCameraNotDetected, fmt.Errorf("no live backend registered"))
	}
	return open(res, device)
}

// Frame bundles what the viewer needs out of one grab.
type Frame struct {
	Left, Right *image.RGBA
	Depth       *FloatMap
}

// RetrieveFrame fetches both images and the depth map of the current grab.
// A missing depth measure is not an error: Depth is nil.
func RetrieveFrame(cam Camera) (*Frame, error) {
	left, err := cam.RetrieveImage(Left)
	if err != nil {
		return nil, fmt.Errorf("retrieve left: %w", err)
	}
	right, err := cam.RetrieveImage(Right)
	if err != nil {
		return nil, fmt.Errorf("retrieve right: %w", err)
	}
	f := &Frame{Left: left, Right: right}
	depth, err := cam.RetrieveMeasure(Depth)
	switch {
	case err == nil:
		f.Depth = depth
	case Code(err) == CodeMeasureNotAvailable:
	default:
		return nil, fmt.Errorf("retrieve depth: %w", err)
	}
	return f, nil
}
