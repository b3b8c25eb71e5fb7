package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Service holds the live settings and persists mutations back to the YAML file.
//
// The discovery engine and admin API read the current snapshot via Get; rename
// operations and the bridge log-level control mutate through ApplyDeviceOverride
// and SetLogLevel. Every mutation is written through to disk so overrides
// survive a restart.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Service struct {
	path     string
	mu       sync.RWMutex
	settings *Settings
}

// LoadService loads settings from path and returns a Service bound to it.
func LoadService(path string) (*Service, error) {
	settings, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Service{path: path, settings: settings}, nil
}

// Path returns the settings file path the service persists to.
func (s *Service) Path() string {
	return s.path
}

// Get returns a copy of the current settings snapshot.
// Callers can read the copy without holding any lock.
func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// copyLocked clones the settings, including the device override slice, so a
// returned snapshot cannot alias internal state.
func (s *Service) copyLocked() Settings {
	cpy := *s.settings
	cpy.Rfxcom.Devices = make([]DeviceConfig, len(s.settings.Rfxcom.Devices))
	copy(cpy.Rfxcom.Devices, s.settings.Rfxcom.Devices)
	for i := range cpy.Rfxcom.Devices {
		src := s.settings.Rfxcom.Devices[i]
		if src.Units != nil {
			cpy.Rfxcom.Devices[i].Units = make([]UnitConfig, len(src.Units))
			copy(cpy.Rfxcom.Devices[i].Units, src.Units)
		}
	}
	cpy.Rfxcom.Receive = append([]string(nil), s.settings.Rfxcom.Receive...)
	return cpy
}

// SetLogLevel changes the configured log level and persists it. Unknown
// levels are rejected before anything mutates: the level can arrive from an
// unvalidated MQTT payload, and persisting it would leave a settings file
// the next start refuses to load.
func (s *Service) SetLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", level)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.LogLevel = level
	return s.writeLocked()
}

// ApplyDeviceOverride upserts a device override. Name and friendly-name fields
// are merged; unit overrides are matched by unit code and merged the same way.
func (s *Service) ApplyDeviceOverride(override DeviceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.settings.DeviceConfig(override.ID)
	if existing == nil {
		s.settings.Rfxcom.Devices = append(s.settings.Rfxcom.Devices, override)
		return s.writeLocked()
	}

	if override.Name != "" {
		existing.Name = override.Name
	}
	if override.FriendlyName != "" {
		existing.FriendlyName = override.FriendlyName
	}
	if override.Type != "" {
		existing.Type = override.Type
	}
	if override.Subtype != "" {
		existing.Subtype = override.Subtype
	}
	for _, unit := range override.Units {
		merged := false
		for i := range existing.Units {
			if existing.Units[i].UnitCode == unit.UnitCode {
				if unit.Name != "" {
					existing.Units[i].Name = unit.Name
				}
				if unit.FriendlyName != "" {
					existing.Units[i].FriendlyName = unit.FriendlyName
				}
				merged = true
				break
			}
		}
		if !merged {
			existing.Units = append(existing.Units, unit)
		}
	}

	return s.writeLocked()
}

// Apply merges a partial settings document (from the admin API) onto the
// current settings and persists the result. The update runs against a copy;
// the live settings are swapped only after the copy validates, so a
// rejected update leaves both memory and disk untouched.
func (s *Service) Apply(update func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := s.copyLocked()
	update(&candidate)
	if err := candidate.Validate(); err != nil {
		return err
	}

	s.settings = &candidate
	return s.writeLocked()
}

// writeLocked serialises the settings to the YAML file. The caller must hold mu.
func (s *Service) writeLocked() error {
	data, err := yaml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
