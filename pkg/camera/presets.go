package camera

// Preset names for the supported capture modes
const (
	PresetHD2K   = "hd2k"
	PresetHD1080 = "hd1080"
	PresetHD720  = "hd720"
	PresetVGA    = "vga"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetHD2K:   HD2KConfig(),
		PresetHD1080: HD1080Config(),
		PresetHD720:  HD720Config(),
		PresetVGA:    VGAConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetHD2K,
		PresetHD1080,
		PresetHD720,
		PresetVGA,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// HD2KConfig returns the 2208x1242 configuration. The sensor tops out at 15 FPS here.
func HD2KConfig() Config {
	cfg := DefaultConfig()
	cfg.Resolution = PresetHD2K
	cfg.Framerate = 15
	return cfg
}

// HD1080Config returns 1080p Full HD configuration.
func HD1080Config() Config {
	return DefaultConfig()
}

// HD720Config returns 720p HD configuration.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Resolution = PresetHD720
	cfg.Framerate = 60
	return cfg
}

// VGAConfig returns 672x376 configuration, the fastest mode.
func VGAConfig() Config {
	cfg := DefaultConfig()
	cfg.Resolution = PresetVGA
	cfg.Framerate = 100
	return cfg
}
