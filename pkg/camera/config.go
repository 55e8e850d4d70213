// Package camera provides runtime-configurable stereo camera settings.
// The viewer keyboard and the remote viewer API both go through a Manager.
package camera

import (
	"github.com/teslashibe/go-depthview/pkg/stereo"
)

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// === Capture ===
	Resolution string `json:"resolution"` // Preset name: hd2k, hd1080, hd720, vga
	Framerate  int    `json:"framerate"`  // Target FPS

	// Quality selects the depth computation preset at init.
	// Values: "performance", "quality"
	Quality string `json:"quality"`

	// === Runtime controls ===
	// Gain is the sensor gain (0 to 100).
	Gain int `json:"gain"`

	// ConfidenceThreshold filters depth samples (1 to 100).
	// 100 keeps everything, lower values keep only confident samples.
	ConfidenceThreshold int `json:"confidence_threshold"`

	// SensingMode controls hole handling.
	// Values: "raw", "full"
	SensingMode string `json:"sensing_mode"`
}

// Control limits.
const (
	MinConfidence = 1
	MaxConfidence = 100
	MinGain       = 0
	MaxGain       = 100
)

// DefaultConfig returns the live defaults: 1080p, performance depth,
// every depth sample kept, raw sensing.
func DefaultConfig() Config {
	return Config{
		Resolution:          "hd1080",
		Framerate:           30,
		Quality:             "performance",
		Gain:                50,
		ConfidenceThreshold: MaxConfidence,
		SensingMode:         "raw",
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if _, err := stereo.ParseResolution(c.Resolution); err != nil {
		errors = append(errors, "resolution must be hd2k, hd1080, hd720, or vga")
	}
	if c.Framerate < 1 || c.Framerate > 100 {
		errors = append(errors, "framerate must be between 1 and 100")
	}

	validQuality := map[string]bool{"performance": true, "quality": true}
	if !validQuality[c.Quality] {
		errors = append(errors, "quality must be performance or quality")
	}

	if c.Gain < MinGain || c.Gain > MaxGain {
		errors = append(errors, "gain must be between 0 and 100")
	}
	if c.ConfidenceThreshold < MinConfidence || c.ConfidenceThreshold > MaxConfidence {
		errors = append(errors, "confidence_threshold must be between 1 and 100")
	}
	if _, err := stereo.ParseSensingMode(c.SensingMode); err != nil {
		errors = append(errors, "sensing_mode must be raw or full")
	}

	return errors
}

// StereoResolution returns the parsed resolution preset.
func (c *Config) StereoResolution() stereo.Resolution {
	res, err := stereo.ParseResolution(c.Resolution)
	if err != nil {
		return stereo.HD1080
	}
	return res
}

// StereoQuality returns the parsed depth quality.
func (c *Config) StereoQuality() stereo.DepthQuality {
	if c.Quality == "quality" {
		return stereo.Quality
	}
	return stereo.Performance
}

// StereoSensingMode returns the parsed sensing mode.
func (c *Config) StereoSensingMode() stereo.SensingMode {
	m, _ := stereo.ParseSensingMode(c.SensingMode)
	return m
}

// Capabilities returns the camera capabilities.
func Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"resolutions":    PresetNames(),
		"qualities":      []string{"performance", "quality"},
		"sensing_modes":  []string{"raw", "full"},
		"max_gain":       MaxGain,
		"max_confidence": MaxConfidence,
		"view_modes":     []string{"left", "right", "anaglyph", "gray diff", "side by side", "overlay"},
	}
}
