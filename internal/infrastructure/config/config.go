package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Heatmiser bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bridge   BridgeConfig   `yaml:"bridge"`
	UH1      UH1Config      `yaml:"uh1"`
	Zones    []ZoneConfig   `yaml:"zones"`
	HotWater HotWaterConfig `yaml:"hotwater"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BridgeConfig contains bridge identity settings.
type BridgeConfig struct {
	// ID is the bridge name used in MQTT topics: home/<id>/<zone>/...
	ID string `yaml:"id"`

	// DiscoveryPrefix is the Home Assistant discovery topic prefix.
	// Empty disables discovery publication.
	DiscoveryPrefix string `yaml:"discovery_prefix"`
}

// UH1Config contains connection settings for the UH1 wiring hub.
//
// The hub is reachable either through a local serial device (USB RS485
// adapter) or through a serial-to-TCP converter. These parameters are
// captured once at startup and reused verbatim on every reconnect.
type UH1Config struct {
	// Mode selects the transport: "device", "socket", or "auto".
	// In auto mode, a non-empty Device wins, otherwise Host/Port is used.
	Mode string `yaml:"mode"`

	// Device is the serial device path (e.g. /dev/ttyUSB0).
	Device string `yaml:"device"`

	// Host and Port address a serial-to-TCP converter in socket mode.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Baud is the serial line speed. Heatmiser V3 stats run at 4800.
	Baud int `yaml:"baud"`

	// ReadTimeout is the per-exchange read timeout in seconds.
	ReadTimeout int `yaml:"read_timeout"`

	// MaxRetries is the number of extra attempts after a transient
	// transport failure before a reconnect is triggered.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelayMs is the pause between retry attempts in milliseconds.
	RetryDelayMs int `yaml:"retry_delay_ms"`

	// ReconnectDelayMs is the pause between closing a broken connection
	// and reopening it, in milliseconds.
	ReconnectDelayMs int `yaml:"reconnect_delay_ms"`

	// PollInterval is the background refresh period in seconds.
	PollInterval int `yaml:"poll_interval"`

	// ZoneDelayMs is the pause between per-zone reads during a poll
	// cycle, in milliseconds. Keeps the half-duplex bus breathing.
	ZoneDelayMs int `yaml:"zone_delay_ms"`
}

// ZoneConfig describes one thermostat zone on the UH1 bus.
type ZoneConfig struct {
	// Name is the zone name used in MQTT topics (e.g. "lounge").
	Name string `yaml:"name"`

	// ID is the thermostat address on the RS485 bus (1-32).
	ID int `yaml:"id"`

	// Type is the thermostat model family: "prt" or "prthw".
	Type string `yaml:"type"`

	// Sensor selects the published temperature source: "air" or "floor".
	Sensor string `yaml:"sensor"`
}

// HotWaterConfig enables hot water control through a PRTHW zone.
type HotWaterConfig struct {
	Enabled bool   `yaml:"enabled"`
	ZoneID  int    `yaml:"zone_id"`
	Name    string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DatabaseConfig contains SQLite state history settings.
type DatabaseConfig struct {
	// Enabled turns zone state history recording on or off.
	Enabled bool `yaml:"enabled"`

	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// MaxHistoryRows caps the state_history table; older rows are pruned.
	MaxHistoryRows int `yaml:"max_history_rows"`
}

// InfluxDBConfig contains InfluxDB connection settings for zone telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the operational HTTP endpoint settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`

	// Timeouts in seconds.
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HEATBRIDGE_SECTION_KEY
// For example: HEATBRIDGE_MQTT_HOST, HEATBRIDGE_UH1_DEVICE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ID:              "heatmiser",
			DiscoveryPrefix: "homeassistant",
		},
		UH1: UH1Config{
			Mode:             "auto",
			Baud:             4800,
			ReadTimeout:      2,
			MaxRetries:       2,
			RetryDelayMs:     300,
			ReconnectDelayMs: 1000,
			PollInterval:     120,
			ZoneDelayMs:      50,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "heatmiser-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Database: DatabaseConfig{
			Enabled:        true,
			Path:           "./data/heatbridge.db",
			WALMode:        true,
			BusyTimeout:    5,
			MaxHistoryRows: 10000,
		},
		API: APIConfig{
			Enabled:      true,
			Host:         "0.0.0.0",
			Port:         8089,
			ReadTimeout:  10,
			WriteTimeout: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HEATBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// UH1
	if v := os.Getenv("HEATBRIDGE_UH1_DEVICE"); v != "" {
		cfg.UH1.Device = v
	}
	if v := os.Getenv("HEATBRIDGE_UH1_HOST"); v != "" {
		cfg.UH1.Host = v
	}

	// MQTT
	if v := os.Getenv("HEATBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HEATBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HEATBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Database
	if v := os.Getenv("HEATBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("HEATBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.ID == "" {
		errs = append(errs, "bridge.id is required")
	}

	// UH1 validation
	switch c.UH1.Mode {
	case "device":
		if c.UH1.Device == "" {
			errs = append(errs, "uh1.device is required in device mode")
		}
	case "socket":
		if c.UH1.Host == "" || c.UH1.Port == 0 {
			errs = append(errs, "uh1.host and uh1.port are required in socket mode")
		}
	case "auto", "":
		if c.UH1.Device == "" && (c.UH1.Host == "" || c.UH1.Port == 0) {
			errs = append(errs, "uh1 requires either device or host+port")
		}
	default:
		errs = append(errs, fmt.Sprintf("uh1.mode %q is not one of auto, device, socket", c.UH1.Mode))
	}
	if c.UH1.MaxRetries < 0 {
		errs = append(errs, "uh1.max_retries must not be negative")
	}
	if c.UH1.PollInterval < 1 {
		errs = append(errs, "uh1.poll_interval must be at least 1 second")
	}

	// Zone validation
	if len(c.Zones) == 0 {
		errs = append(errs, "at least one zone is required")
	}
	seen := make(map[string]bool, len(c.Zones))
	for _, z := range c.Zones {
		if z.Name == "" {
			errs = append(errs, "zone name is required")
			continue
		}
		// "hotwater" is the topic segment for hot water commands and
		// state; a zone with that name would be unreachable.
		if z.Name == "hotwater" {
			errs = append(errs, `zone name "hotwater" is reserved`)
		}
		if seen[z.Name] {
			errs = append(errs, fmt.Sprintf("duplicate zone name %q", z.Name))
		}
		seen[z.Name] = true
		if z.ID < 1 || z.ID > 32 {
			errs = append(errs, fmt.Sprintf("zone %q: id must be 1-32", z.Name))
		}
		switch z.Type {
		case "prt", "prthw":
		default:
			errs = append(errs, fmt.Sprintf("zone %q: type must be prt or prthw", z.Name))
		}
		switch z.Sensor {
		case "", "air", "floor":
		default:
			errs = append(errs, fmt.Sprintf("zone %q: sensor must be air or floor", z.Name))
		}
	}

	// Hot water must point at a configured PRTHW zone
	if c.HotWater.Enabled {
		found := false
		for _, z := range c.Zones {
			if z.ID == c.HotWater.ZoneID && z.Type == "prthw" {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, "hotwater.zone_id must match a configured prthw zone")
		}
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when history is enabled")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetPollInterval returns the background refresh period as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.UH1.PollInterval) * time.Second
}

// GetRetryDelay returns the transport retry delay as a Duration.
func (c *Config) GetRetryDelay() time.Duration {
	return time.Duration(c.UH1.RetryDelayMs) * time.Millisecond
}

// GetReconnectDelay returns the reconnect pause as a Duration.
func (c *Config) GetReconnectDelay() time.Duration {
	return time.Duration(c.UH1.ReconnectDelayMs) * time.Millisecond
}

// GetZoneDelay returns the per-zone poll delay as a Duration.
func (c *Config) GetZoneDelay() time.Duration {
	return time.Duration(c.UH1.ZoneDelayMs) * time.Millisecond
}

// GetReadTimeout returns the per-exchange transport read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.UH1.ReadTimeout) * time.Second
}
