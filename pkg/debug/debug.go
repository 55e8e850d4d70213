// Package debug provides global debug logging flags
package debug

import (
	"fmt"
	"time"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame timing lines are shown.
// Use --debug-frames to enable these very verbose logs
var Frames bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Println(msg)
	}
}

// FrameLog prints one timing line for a processed frame if frame debugging is enabled
func FrameLog(frame int, grab, total time.Duration) {
	if Frames {
		fmt.Printf("🎞️  frame %d | grab %v | total %v\n", frame, grab.Round(time.Microsecond), total.Round(time.Microsecond))
	}
}
