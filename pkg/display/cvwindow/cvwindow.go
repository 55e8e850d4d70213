// Package cvwindow shows viewer frames in OpenCV highgui windows.
package cvwindow

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-depthview/internal/log"
	"github.com/teslashibe/go-depthview/pkg/display"
)

// Display opens one highgui window per name on first Show.
type Display struct {
	mu      sync.Mutex
	windows map[string]*gocv.Window
}

// New returns a display with no windows open yet.
func New() *Display {
	return &Display{windows: make(map[string]*gocv.Window)}
}

// Show resizes img and shows it in window name.
func (d *Display) Show(name string, img image.Image) error {
	mat, err := gocv.ImageToMatRGB(display.Resize(img))
	if err != nil {
		return fmt.Errorf("convert %s frame: %w", name, err)
	}
	defer mat.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[name]
	if !ok {
		w = gocv.NewWindow(name)
		d.windows[name] = w
		log.Debug("window opened", "name", name)
	}
	w.IMShow(mat)
	return nil
}

// Hide closes window name.
func (d *Display) Hide(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[name]
	if !ok {
		return nil
	}
	delete(d.windows, name)
	return w.Close()
}

// WaitKey pumps the highgui event loop and returns the pressed key or
// display.NoKey.
func (d *Display) WaitKey(ms int) int {
	if ms <= 0 {
		ms = 1
	}
	d.mu.Lock()
	w := d.anyWindow()
	d.mu.Unlock()
	if w == nil {
		return display.NoKey
	}
	return w.WaitKey(ms)
}

func (d *Display) anyWindow() *gocv.Window {
	if w, ok := d.windows[display.ViewWindow]; ok {
		return w
	}
	names := make([]string, 0, len(d.windows))
	for n := range d.windows {
		names = append(names, n)
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return d.windows[names[0]]
}

// Close closes every window.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs error
	for name, w := range d.windows {
		errs = multierr.Append(errs, w.Close())
		delete(d.windows, name)
	}
	return errs
}
