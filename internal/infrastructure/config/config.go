package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the root configuration structure for rfxcom2mqtt.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Settings struct {
	Mock          bool              `yaml:"mock" json:"mock"`
	LogLevel      string            `yaml:"loglevel" json:"loglevel"`
	CacheState    CacheStateConfig  `yaml:"cache_state" json:"cache_state"`
	Healthcheck   HealthcheckConfig `yaml:"healthcheck" json:"healthcheck"`
	Homeassistant HassConfig        `yaml:"homeassistant" json:"homeassistant"`
	MQTT          MQTTConfig        `yaml:"mqtt" json:"mqtt"`
	Rfxcom        RfxcomConfig      `yaml:"rfxcom" json:"rfxcom"`
	Frontend      FrontendConfig    `yaml:"frontend" json:"frontend"`
}

// CacheStateConfig controls persistence of the device and entity state stores.
type CacheStateConfig struct {
	Enable bool `yaml:"enable" json:"enable"`
	// SaveInterval is the interval between periodic saves, in minutes.
	SaveInterval int `yaml:"save_interval" json:"save_interval"`
}

// HealthcheckConfig controls the scheduled transceiver status probe.
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Cron    string `yaml:"cron" json:"cron"`
}

// HassConfig contains Home Assistant MQTT discovery settings.
type HassConfig struct {
	Discovery       bool   `yaml:"discovery" json:"discovery"`
	DiscoveryTopic  string `yaml:"discovery_topic" json:"discovery_topic"`
	DiscoveryDevice string `yaml:"discovery_device" json:"discovery_device"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	BaseTopic                string `yaml:"base_topic" json:"base_topic"`
	IncludeDeviceInformation bool   `yaml:"include_device_information" json:"include_device_information"`
	Retain                   bool   `yaml:"retain" json:"retain"`
	QoS                      int    `yaml:"qos" json:"qos"`
	Server                   string `yaml:"server" json:"server"`
	Port                     int    `yaml:"port" json:"port"`
	Username                 string `yaml:"username" json:"username"`
	Password                 string `yaml:"password" json:"password"`
	TLS                      bool   `yaml:"tls" json:"tls"`
	CA                       string `yaml:"ca" json:"ca"`
	Key                      string `yaml:"key" json:"key"`
	Cert                     string `yaml:"cert" json:"cert"`
	Keepalive                int    `yaml:"keepalive" json:"keepalive"`
	ClientID                 string `yaml:"client_id" json:"client_id"`
}

// RfxcomConfig contains RFXCOM transceiver settings, including per-device
// overrides applied by the discovery engine.
type RfxcomConfig struct {
	USBPort  string         `yaml:"usbport" json:"usbport"`
	Debug    bool           `yaml:"debug" json:"debug"`
	Transmit TransmitConfig `yaml:"transmit" json:"transmit"`
	Receive  []string       `yaml:"receive" json:"receive"`
	Devices  []DeviceConfig `yaml:"devices" json:"devices"`
}

// TransmitConfig lists protocols enabled for transmission.
type TransmitConfig struct {
	Repeat    int      `yaml:"repeat" json:"repeat"`
	Lighting1 []string `yaml:"lighting1" json:"lighting1"`
	Lighting2 []string `yaml:"lighting2" json:"lighting2"`
	Lighting3 []string `yaml:"lighting3" json:"lighting3"`
	Lighting4 []string `yaml:"lighting4" json:"lighting4"`
}

// DeviceConfig is a per-device user override: display name, forced type or
// subtype, and per-unit names for multi-unit devices.
type DeviceConfig struct {
	ID           string       `yaml:"id" json:"id"`
	Name         string       `yaml:"name,omitempty" json:"name,omitempty"`
	FriendlyName string       `yaml:"friendly_name,omitempty" json:"friendly_name,omitempty"`
	Type         string       `yaml:"type,omitempty" json:"type,omitempty"`
	Subtype      string       `yaml:"subtype,omitempty" json:"subtype,omitempty"`
	Units        []UnitConfig `yaml:"units,omitempty" json:"units,omitempty"`
	Options      []string     `yaml:"options,omitempty" json:"options,omitempty"`
	Repetitions  int          `yaml:"repetitions,omitempty" json:"repetitions,omitempty"`
}

// UnitConfig names one unit of a multi-unit device.
type UnitConfig struct {
	UnitCode     int    `yaml:"unit_code" json:"unit_code"`
	Name         string `yaml:"name,omitempty" json:"name,omitempty"`
	FriendlyName string `yaml:"friendly_name,omitempty" json:"friendly_name,omitempty"`
}

// FrontendConfig contains admin HTTP server settings.
type FrontendConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	AuthToken string `yaml:"auth_token,omitempty" json:"auth_token,omitempty"`
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	StaticDir string `yaml:"static_dir,omitempty" json:"static_dir,omitempty"`
	SSLCert   string `yaml:"ssl_cert,omitempty" json:"ssl_cert,omitempty"`
	SSLKey    string `yaml:"ssl_key,omitempty" json:"ssl_key,omitempty"`
}

// DataPath returns the data directory, from RFXCOM2MQTT_DATA or the default.
func DataPath() string {
	if path := os.Getenv("RFXCOM2MQTT_DATA"); path != "" {
		return path
	}
	return "/app/data"
}

// ConfigPath returns the path of the YAML settings file inside the data directory.
func ConfigPath() string {
	return filepath.Join(DataPath(), "config.yml")
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// A missing file is not an error: defaults plus environment variables apply,
// so a container can run from environment alone.
func Load(path string) (*Settings, error) {
	cfg := defaultSettings()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultSettings returns Settings with the documented defaults.
func defaultSettings() *Settings {
	return &Settings{
		LogLevel: "info",
		CacheState: CacheStateConfig{
			Enable:       true,
			SaveInterval: 5,
		},
		Healthcheck: HealthcheckConfig{
			Enabled: true,
			Cron:    "* * * * *",
		},
		Homeassistant: HassConfig{
			Discovery:       true,
			DiscoveryTopic:  "homeassistant",
			DiscoveryDevice: "rfxcom2mqtt",
		},
		MQTT: MQTTConfig{
			BaseTopic: "rfxcom2mqtt",
			Retain:    true,
			QoS:       0,
			Server:    "localhost",
			Port:      1883,
			ClientID:  "rfxcom2mqtt",
		},
		Rfxcom: RfxcomConfig{
			Debug: true,
			Receive: []string{
				"temperaturehumidity1", "homeconfort", "lighting1", "lighting2",
				"lighting3", "lighting4", "remote", "security1",
			},
		},
		Frontend: FrontendConfig{
			Enabled: false,
			Host:    "0.0.0.0",
			Port:    8099,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Settings) {
	if v := os.Getenv("MQTT_SERVER"); v != "" {
		cfg.MQTT.Server = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.ClientID = v
	}
	if v := os.Getenv("RFXCOM_USB_DEVICE"); v != "" {
		cfg.Rfxcom.USBPort = v
	}
}

// Validate checks the configuration for errors.
func (s *Settings) Validate() error {
	var errs []string

	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "loglevel must be one of debug, info, warn, error")
	}

	if s.MQTT.BaseTopic == "" {
		errs = append(errs, "mqtt.base_topic is required")
	}
	if s.MQTT.QoS < 0 || s.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if s.CacheState.SaveInterval < 1 {
		errs = append(errs, "cache_state.save_interval must be at least 1 minute")
	}
	if s.Frontend.Enabled && (s.Frontend.Port < 1 || s.Frontend.Port > 65535) {
		errs = append(errs, "frontend.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DeviceConfig returns the override for a device id, or nil if none exists.
func (s *Settings) DeviceConfig(id string) *DeviceConfig {
	for i := range s.Rfxcom.Devices {
		if s.Rfxcom.Devices[i].ID == id {
			return &s.Rfxcom.Devices[i]
		}
	}
	return nil
}
