package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig is a minimal configuration that passes validation.
const validConfig = `
bridge:
  id: "heatmiser"
uh1:
  mode: device
  device: /dev/ttyUSB0
zones:
  - name: lounge
    id: 1
    type: prt
    sensor: air
  - name: bathroom
    id: 2
    type: prthw
    sensor: floor
hotwater:
  enabled: true
  zone_id: 2
  name: Hot Water
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bridge.ID != "heatmiser" {
		t.Errorf("Bridge.ID = %q, want %q", cfg.Bridge.ID, "heatmiser")
	}
	if len(cfg.Zones) != 2 {
		t.Fatalf("len(Zones) = %d, want 2", len(cfg.Zones))
	}
	if cfg.Zones[1].Sensor != "floor" {
		t.Errorf("Zones[1].Sensor = %q, want %q", cfg.Zones[1].Sensor, "floor")
	}
	if !cfg.HotWater.Enabled {
		t.Error("HotWater.Enabled = false, want true")
	}

	// Defaults survive a partial file
	if cfg.UH1.Baud != 4800 {
		t.Errorf("UH1.Baud = %d, want default 4800", cfg.UH1.Baud)
	}
	if cfg.UH1.PollInterval != 120 {
		t.Errorf("UH1.PollInterval = %d, want default 120", cfg.UH1.PollInterval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HEATBRIDGE_MQTT_HOST", "broker.lan")
	t.Setenv("HEATBRIDGE_UH1_DEVICE", "/dev/ttyUSB9")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.lan" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "broker.lan")
	}
	if cfg.UH1.Device != "/dev/ttyUSB9" {
		t.Errorf("UH1.Device = %q, want env override %q", cfg.UH1.Device, "/dev/ttyUSB9")
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.UH1.Device = "/dev/ttyUSB0"
		cfg.Zones = []ZoneConfig{
			{Name: "lounge", ID: 1, Type: "prt", Sensor: "air"},
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing bridge id",
			mutate:  func(c *Config) { c.Bridge.ID = "" },
			wantErr: "bridge.id",
		},
		{
			name: "no transport configured",
			mutate: func(c *Config) {
				c.UH1.Device = ""
				c.UH1.Host = ""
				c.UH1.Port = 0
			},
			wantErr: "uh1 requires",
		},
		{
			name:    "socket mode without host",
			mutate:  func(c *Config) { c.UH1.Mode = "socket"; c.UH1.Host = "" },
			wantErr: "uh1.host",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.UH1.Mode = "modem" },
			wantErr: "uh1.mode",
		},
		{
			name:    "no zones",
			mutate:  func(c *Config) { c.Zones = nil },
			wantErr: "at least one zone",
		},
		{
			name: "duplicate zone names",
			mutate: func(c *Config) {
				c.Zones = append(c.Zones, ZoneConfig{Name: "lounge", ID: 2, Type: "prt"})
			},
			wantErr: "duplicate zone name",
		},
		{
			name: "zone id out of range",
			mutate: func(c *Config) {
				c.Zones[0].ID = 33
			},
			wantErr: "id must be 1-32",
		},
		{
			name: "reserved zone name",
			mutate: func(c *Config) {
				c.Zones[0].Name = "hotwater"
			},
			wantErr: `zone name "hotwater" is reserved`,
		},
		{
			name: "bad zone type",
			mutate: func(c *Config) {
				c.Zones[0].Type = "dt"
			},
			wantErr: "type must be",
		},
		{
			name: "bad sensor",
			mutate: func(c *Config) {
				c.Zones[0].Sensor = "wall"
			},
			wantErr: "sensor must be",
		},
		{
			name: "hotwater without prthw zone",
			mutate: func(c *Config) {
				c.HotWater = HotWaterConfig{Enabled: true, ZoneID: 1}
			},
			wantErr: "hotwater.zone_id",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "poll interval too small",
			mutate:  func(c *Config) { c.UH1.PollInterval = 0 },
			wantErr: "poll_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_DurationHelpers(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetPollInterval(); got != 120*time.Second {
		t.Errorf("GetPollInterval() = %v, want 120s", got)
	}
	if got := cfg.GetRetryDelay(); got != 300*time.Millisecond {
		t.Errorf("GetRetryDelay() = %v, want 300ms", got)
	}
	if got := cfg.GetReconnectDelay(); got != time.Second {
		t.Errorf("GetReconnectDelay() = %v, want 1s", got)
	}
	if got := cfg.GetZoneDelay(); got != 50*time.Millisecond {
		t.Errorf("GetZoneDelay() = %v, want 50ms", got)
	}
}
