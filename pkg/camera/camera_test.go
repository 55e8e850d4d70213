package camera

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-depthview/pkg/stereo"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("default config invalid: %v", errs)
	}
	if cfg.ConfidenceThreshold != 100 {
		t.Errorf("Expected ConfidenceThreshold=100, got %d", cfg.ConfidenceThreshold)
	}
	if cfg.StereoResolution() != stereo.HD1080 {
		t.Errorf("Expected HD1080, got %v", cfg.StereoResolution())
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %q missing", name)
		}
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("%s: %v", name, errs)
		}
		if cfg.Resolution != name {
			t.Errorf("%s: resolution %q", name, cfg.Resolution)
		}
	}
	if GetPreset("8k") != nil {
		t.Error("unknown preset should be nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{"gain too high", func(c *Config) { c.Gain = 101 }, 1},
		{"threshold zero", func(c *Config) { c.ConfidenceThreshold = 0 }, 1},
		{"bad sensing", func(c *Config) { c.SensingMode = "medium" }, 1},
		{"bad quality", func(c *Config) { c.Quality = "ultra" }, 1},
		{"bad resolution", func(c *Config) { c.Resolution = "4k" }, 1},
		{"two errors", func(c *Config) { c.Gain = -1; c.Framerate = 0 }, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if got := cfg.Validate(); len(got) != tt.errs {
				t.Errorf("Validate() = %v, want %d errors", got, tt.errs)
			}
		})
	}
}

func TestManagerUpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())
	var seen []Config
	m.OnConfigChange = func(cfg Config) error {
		seen = append(seen, cfg)
		return nil
	}

	_, v0 := m.Snapshot()
	err := m.UpdateConfig(map[string]interface{}{
		"gain":                 float64(12),
		"confidence_threshold": 40,
		"sensing_mode":         "full",
	})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	cfg, v1 := m.Snapshot()
	if v1 != v0+1 {
		t.Errorf("version %d -> %d, want one bump", v0, v1)
	}
	if cfg.Gain != 12 || cfg.ConfidenceThreshold != 40 || cfg.StereoSensingMode() != stereo.Full {
		t.Errorf("config not applied: %+v", cfg)
	}
	if len(seen) != 1 {
		t.Errorf("callback called %d times", len(seen))
	}

	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"fixed setting", map[string]interface{}{"resolution": "vga"}},
		{"unknown", map[string]interface{}{"zoom": 2}},
		{"wrong type", map[string]interface{}{"gain": "loud"}},
		{"out of range", map[string]interface{}{"confidence_threshold": 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.UpdateConfig(tt.params); err == nil {
				t.Error("expected error")
			}
			if _, v := m.Snapshot(); v != v1 {
				t.Error("rejected update bumped the version")
			}
		})
	}
}

func TestManagerCallbackError(t *testing.T) {
	m := NewManager(DefaultConfig())
	boom := errors.New("device gone")
	m.OnConfigChange = func(Config) error { return boom }
	_, err := m.Update(func(c *Config) { c.Gain = 3 })
	if !errors.Is(err, boom) {
		t.Errorf("Update error = %v, want wrapped callback error", err)
	}
}

func TestGetConfigJSON(t *testing.T) {
	m := NewManager(DefaultConfig())
	js := m.GetConfigJSON()
	if js["sensing_mode"] != "raw" {
		t.Errorf("sensing_mode = %v", js["sensing_mode"])
	}
	if js["confidence_threshold"] != float64(100) {
		t.Errorf("confidence_threshold = %v", js["confidence_threshold"])
	}
}
