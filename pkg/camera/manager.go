package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current camera configuration and handles updates.
// Every accepted change bumps a version so the frame loop can pick up
// changes made from other goroutines.
type Manager struct {
	config  Config
	version uint64
	mu      sync.RWMutex

	// Callback when config changes (for logging or mirroring elsewhere)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new camera manager with the given starting config.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Snapshot returns the current configuration and its version.
func (m *Manager) Snapshot() (Config, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config, m.version
}

// SetConfig updates the camera configuration.
func (m *Manager) SetConfig(cfg Config) error {
	// Validate
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	m.config = cfg
	m.version++
	callback := m.OnConfigChange
	m.mu.Unlock()

	// Notify callback if set
	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// Update applies fn to a copy of the current configuration and stores the
// result. It returns the new version.
func (m *Manager) Update(fn func(*Config)) (uint64, error) {
	cfg := m.GetConfig()
	fn(&cfg)
	if err := m.SetConfig(cfg); err != nil {
		return 0, err
	}
	_, v := m.Snapshot()
	return v, nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values. Only runtime controls can change;
// capture settings are fixed once the camera is open.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	for key, value := range params {
		switch key {
		case "gain":
			v, ok := toInt(value)
			if !ok {
				return fmt.Errorf("gain must be a number")
			}
			cfg.Gain = v
		case "confidence_threshold":
			v, ok := toInt(value)
			if !ok {
				return fmt.Errorf("confidence_threshold must be a number")
			}
			cfg.ConfidenceThreshold = v
		case "sensing_mode":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("sensing_mode must be a string")
			}
			cfg.SensingMode = v
		case "resolution", "framerate", "quality":
			return fmt.Errorf("%s cannot change while the camera is open", key)
		default:
			return fmt.Errorf("unknown setting: %s", key)
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	// Convert to map via JSON for consistent serialization
	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
