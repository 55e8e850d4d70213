// Package config provides environment helpers for depthview commands.
package config

import (
	"os"
	"strconv"
)

// Default runtime configuration.
const (
	DefaultOutputDir  = "."
	DefaultDevice     = 0
	DefaultResolution = "hd1080"
	DefaultLogLevel   = "info"
)

// OutputDir returns the directory output files are written to, from
// DEPTHVIEW_OUTPUT_DIR. Falls back to the working directory.
func OutputDir() string {
	return String("DEPTHVIEW_OUTPUT_DIR", DefaultOutputDir)
}

// Device returns the live capture device index from DEPTHVIEW_DEVICE.
func Device() int {
	return Int("DEPTHVIEW_DEVICE", DefaultDevice)
}

// Resolution returns the live resolution preset name from DEPTHVIEW_RESOLUTION.
func Resolution() string {
	return String("DEPTHVIEW_RESOLUTION", DefaultResolution)
}

// WebPort returns the remote viewer port from DEPTHVIEW_WEB_PORT.
// Empty means the remote viewer is disabled.
func WebPort() string {
	return os.Getenv("DEPTHVIEW_WEB_PORT")
}

// LogLevel returns the log level from LOG_LEVEL.
func LogLevel() string {
	return String("LOG_LEVEL", DefaultLogLevel)
}

// String returns the env var value or the default when unset.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var parsed as an int, or the default when unset or invalid.
func Int(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
