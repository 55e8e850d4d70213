package stereo

import (
	"fmt"
	"image"
)

// PickDepth reads the depth under a click at (x, y) on a window of size
// display that shows the whole depth map resized. The result is in meters;
// ok is false for invalid or non-positive depth and for clicks outside the
// window.
func PickDepth(depth *FloatMap, display image.Point, x, y int) (meters float64, ok bool) {
	if depth == nil || display.X <= 0 || display.Y <= 0 {
		return 0, false
	}
	if x < 0 || y < 0 || x >= display.X || y >= display.Y {
		return 0, false
	}
	sx := x * depth.Width / display.X
	sy := y * depth.Height / display.Y
	v := depth.At(sx, sy)
	if !Valid(v) {
		return 0, false
	}
	meters = float64(v) / 1000
	if meters <= 0 {
		return 0, false
	}
	return meters, true
}

// FormatPick renders a pick readout the way the console shows it.
func FormatPick(name string, meters float64, ok bool) string {
	if !ok {
		return "\n : NAN\n"
	}
	return fmt.Sprintf("\n%s : %2.2f m\n", name, meters)
}
