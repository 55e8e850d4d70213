// Package viewer runs the depth viewer: it opens a stereo camera, shows the
// composed view and the normalised measures every frame, exports the first
// frame and answers key presses.
package viewer

import (
	"fmt"

	"github.com/teslashibe/go-depthview/internal/config"
	"github.com/teslashibe/go-depthview/pkg/camera"
	"github.com/teslashibe/go-depthview/pkg/stereo"
)

// DefaultKeyWait is how long each frame waits for a key, in milliseconds.
const DefaultKeyWait = 5

// Config holds all configuration for the viewer.
// ParseArgs fills it from the command line.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool
	// DebugFrames prints one timing line per frame.
	DebugFrames bool

	// SessionPath is a recorded session to play back. Empty opens the live
	// camera.
	SessionPath string
	// Loop restarts playback at the end of the session.
	Loop bool

	// Live camera settings.
	Resolution string // preset name
	Device     int

	// OutputDir receives the first-frame exports and snapshots.
	OutputDir string

	// WebPort enables the remote viewer when set.
	WebPort string

	// Headless runs without windows.
	Headless bool

	// KeyWait is passed to WaitKey every frame.
	KeyWait int

	// MaxFrames stops the loop after that many grabs. 0 runs until quit.
	MaxFrames int
}

// DefaultConfig returns the start-up configuration.
func DefaultConfig() Config {
	return Config{
		Resolution: config.DefaultResolution,
		Device:     config.DefaultDevice,
		OutputDir:  config.DefaultOutputDir,
		KeyWait:    DefaultKeyWait,
	}
}

// LoadEnvConfig applies environment overrides for values still at their
// defaults. ParseArgs calls it before parsing, so explicit flags win.
func (c *Config) LoadEnvConfig() {
	if c.Resolution == "" || c.Resolution == config.DefaultResolution {
		c.Resolution = config.Resolution()
	}
	if c.Device == config.DefaultDevice {
		c.Device = config.Device()
	}
	if c.OutputDir == "" || c.OutputDir == config.DefaultOutputDir {
		c.OutputDir = config.OutputDir()
	}
	if c.WebPort == "" {
		c.WebPort = config.WebPort()
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if _, err := stereo.ParseResolution(c.Resolution); err != nil {
		return &ConfigError{Field: "Resolution", Message: err.Error()}
	}
	if camera.GetPreset(c.Resolution) == nil {
		return &ConfigError{Field: "Resolution", Message: fmt.Sprintf("no camera preset %q", c.Resolution)}
	}
	if c.Device < 0 {
		return &ConfigError{Field: "Device", Message: "device index must not be negative"}
	}
	if c.KeyWait < 0 {
		return &ConfigError{Field: "KeyWait", Message: "key wait must not be negative"}
	}
	if c.MaxFrames < 0 {
		return &ConfigError{Field: "MaxFrames", Message: "max frames must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
