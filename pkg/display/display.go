// Package display shows viewer frames and reads key presses.
package display

import (
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// Window size every frame is resized to before it is shown.
const (
	Width  = 720
	Height = 404
)

// Size is the display size as a point.
var Size = image.Pt(Width, Height)

// Window names.
const (
	DepthWindow      = "DEPTH"
	ViewWindow       = "VIEW"
	DisparityWindow  = "DISPARITY"
	ConfidenceWindow = "CONFIDENCE"
)

// NoKey is what WaitKey returns when nothing was pressed.
const NoKey = -1

// Display shows named windows and polls the keyboard.
type Display interface {
	// Show resizes img to the display size and shows it in window name.
	Show(name string, img image.Image) error
	// Hide removes window name if it is open.
	Hide(name string) error
	// WaitKey waits up to ms milliseconds for a key and returns its code,
	// or NoKey.
	WaitKey(ms int) int
	Close() error
}

// Resize scales img to the display size.
func Resize(img image.Image) *image.NRGBA {
	return imaging.Resize(img, Width, Height, imaging.Linear)
}

// Headless is a Display without windows. It keeps the last frame of each
// window and takes keys from a channel.
type Headless struct {
	keys <-chan int

	mu    sync.Mutex
	last  map[string]*image.NRGBA
	shown int
}

// NewHeadless returns a headless display reading keys from keys, which may be
// nil.
func NewHeadless(keys <-chan int) *Headless {
	return &Headless{
		keys: keys,
		last: make(map[string]*image.NRGBA),
	}
}

// Show stores a resized copy of img.
func (h *Headless) Show(name string, img image.Image) error {
	resized := Resize(img)
	h.mu.Lock()
	h.last[name] = resized
	h.shown++
	h.mu.Unlock()
	return nil
}

// Hide forgets window name.
func (h *Headless) Hide(name string) error {
	h.mu.Lock()
	delete(h.last, name)
	h.mu.Unlock()
	return nil
}

// WaitKey returns the next queued key, waiting up to ms milliseconds.
func (h *Headless) WaitKey(ms int) int {
	if h.keys == nil {
		if ms > 0 {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
		return NoKey
	}
	if ms <= 0 {
		select {
		case k, ok := <-h.keys:
			if ok {
				return k
			}
		default:
		}
		return NoKey
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case k, ok := <-h.keys:
		if ok {
			return k
		}
		return NoKey
	case <-timer.C:
		return NoKey
	}
}

// Last returns the last frame shown in window name.
func (h *Headless) Last(name string) (*image.NRGBA, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	img, ok := h.last[name]
	return img, ok
}

// Shown returns how many frames were shown in total.
func (h *Headless) Shown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

// Close is a no-op.
func (h *Headless) Close() error { return nil }
