package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "heatbridge-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// =============================================================================
// Topic Builder Tests
// =============================================================================

func TestTopics(t *testing.T) {
	topics := Topics{Bridge: "heatmiser"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"zone state temperature", topics.ZoneState("lounge", "temperature"), "home/heatmiser/lounge/state/temperature"},
		{"zone state target", topics.ZoneState("lounge", "target"), "home/heatmiser/lounge/state/target"},
		{"zone state mode", topics.ZoneState("bathroom", "mode"), "home/heatmiser/bathroom/state/mode"},
		{"zone state action", topics.ZoneState("bathroom", "action"), "home/heatmiser/bathroom/state/action"},
		{"zone set target", topics.ZoneSet("lounge", "target"), "home/heatmiser/lounge/set/target"},
		{"zone set mode", topics.ZoneSet("lounge", "mode"), "home/heatmiser/lounge/set/mode"},
		{"hot water state", topics.HotWaterState(), "home/heatmiser/hotwater/state/hw_state"},
		{"hot water set", topics.HotWaterSet(), "home/heatmiser/hotwater/set/hw_state"},
		{"bridge status", topics.BridgeStatus(), "home/heatmiser/bridge/status"},
		{"all zone sets wildcard", topics.AllZoneSets(), "home/heatmiser/+/set/+"},
		{"discovery climate", topics.Discovery("homeassistant", "climate", "lounge"), "homeassistant/climate/heatmiser_lounge/config"},
		{"discovery switch", topics.Discovery("homeassistant", "switch", "hotwater"), "homeassistant/switch/heatmiser_hotwater/config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

// =============================================================================
// Status Payload Tests
// =============================================================================

func TestStatusPayloads(t *testing.T) {
	var online struct {
		Status   string `json:"status"`
		ClientID string `json:"client_id"`
	}
	if err := json.Unmarshal([]byte(buildOnlinePayload("heatbridge-01")), &online); err != nil {
		t.Fatalf("online payload is not valid JSON: %v", err)
	}
	if online.Status != "online" {
		t.Errorf("online payload status = %q, want %q", online.Status, "online")
	}
	if online.ClientID != "heatbridge-01" {
		t.Errorf("online payload client_id = %q, want %q", online.ClientID, "heatbridge-01")
	}

	var offline struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(buildOfflinePayload("heatbridge-01")), &offline); err != nil {
		t.Fatalf("offline payload is not valid JSON: %v", err)
	}
	if offline.Status != "offline" {
		t.Errorf("offline payload status = %q, want %q", offline.Status, "offline")
	}
	if offline.Reason != "graceful_shutdown" {
		t.Errorf("offline payload reason = %q, want %q", offline.Reason, "graceful_shutdown")
	}
}

// =============================================================================
// Option Building Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("len(Servers) = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want %q", got, "tcp://127.0.0.1:1883")
	}
	if opts.ClientID != "heatbridge-test" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "heatbridge-test")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("broker scheme = %q, want %q", got, "ssl")
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig = nil, want configured")
	}
}

func TestConfigureLWT(t *testing.T) {
	cfg := testConfig()
	topics := Topics{Bridge: "heatmiser"}

	opts := buildClientOptions(cfg)
	configureLWT(opts, topics, cfg.Broker.ClientID)

	if opts.WillTopic != "home/heatmiser/bridge/status" {
		t.Errorf("WillTopic = %q, want %q", opts.WillTopic, "home/heatmiser/bridge/status")
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}
	if !strings.Contains(string(opts.WillPayload), `"status":"offline"`) {
		t.Errorf("WillPayload = %q, want offline status", opts.WillPayload)
	}
}

// =============================================================================
// Validation Tests (no broker required)
// =============================================================================

func TestPublishValidation(t *testing.T) {
	c := &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}

	if err := c.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("home/heatmiser/lounge/state/target", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Publish("home/heatmiser/lounge/state/target", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() on disconnected client error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("home/heatmiser/+/set/+", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Subscribe("home/heatmiser/+/set/+", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() on disconnected client error = %v, want ErrNotConnected", err)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	c := &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}

	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
	if c.HasSubscription("home/heatmiser/+/set/+") {
		t.Error("HasSubscription() = true for untracked topic")
	}
}
