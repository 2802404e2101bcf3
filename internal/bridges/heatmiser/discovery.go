package heatmiser

import (
	"encoding/json"
	"fmt"
)

// Home Assistant climate bounds. The UI slider stops at 30 even though
// the thermostats accept up to 35; matching the stock Heatmiser app.
const (
	discoveryMinTemp = 5
	discoveryMaxTemp = 30
)

// climateConfig is the Home Assistant MQTT climate discovery payload.
type climateConfig struct {
	Name                    string   `json:"name"`
	UniqueID                string   `json:"unique_id"`
	CurrentTemperatureTopic string   `json:"current_temperature_topic"`
	TemperatureStateTopic   string   `json:"temperature_state_topic"`
	TemperatureCommandTopic string   `json:"temperature_command_topic"`
	ModeStateTopic          string   `json:"mode_state_topic"`
	ModeCommandTopic        string   `json:"mode_command_topic"`
	ActionTopic             string   `json:"action_topic"`
	Modes                   []string `json:"modes"`
	MinTemp                 int      `json:"min_temp"`
	MaxTemp                 int      `json:"max_temp"`
	TempStep                float64  `json:"temp_step"`
	AvailabilityTopic       string   `json:"availability_topic"`
}

// switchConfig is the Home Assistant MQTT switch discovery payload,
// used for the hot water override.
type switchConfig struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	StateTopic        string `json:"state_topic"`
	CommandTopic      string `json:"command_topic"`
	PayloadOn         string `json:"payload_on"`
	PayloadOff        string `json:"payload_off"`
	AvailabilityTopic string `json:"availability_topic"`
}

// publishDiscovery announces every zone as a climate entity, plus the
// hot water switch if configured. Payloads are retained so Home
// Assistant rediscovers the entities after a restart. Skipped entirely
// when no discovery prefix is configured.
func (b *Bridge) publishDiscovery() error {
	if b.discoveryPrefix == "" {
		b.logDebug("discovery disabled, no prefix configured")
		return nil
	}

	status := b.topics.BridgeStatus()

	for _, name := range b.zoneOrder {
		zone := b.zones[name]
		cfg := climateConfig{
			Name:                    zone.Name,
			UniqueID:                fmt.Sprintf("heatmiser_%d_climate", zone.ID),
			CurrentTemperatureTopic: b.topics.ZoneState(zone.Name, "temperature"),
			TemperatureStateTopic:   b.topics.ZoneState(zone.Name, "target"),
			TemperatureCommandTopic: b.topics.ZoneSet(zone.Name, "target"),
			ModeStateTopic:          b.topics.ZoneState(zone.Name, "mode"),
			ModeCommandTopic:        b.topics.ZoneSet(zone.Name, "mode"),
			ActionTopic:             b.topics.ZoneState(zone.Name, "action"),
			Modes:                   []string{string(ModeHeat), string(ModeOff)},
			MinTemp:                 discoveryMinTemp,
			MaxTemp:                 discoveryMaxTemp,
			TempStep:                1,
			AvailabilityTopic:       status,
		}
		if err := b.publishConfig("climate", zone.Name, cfg); err != nil {
			return err
		}
	}

	if b.hotWater != nil {
		name := b.hwName
		if name == "" {
			name = "Hot Water"
		}
		cfg := switchConfig{
			Name:              name,
			UniqueID:          fmt.Sprintf("heatmiser_%s_hotwater", b.bridgeID),
			StateTopic:        b.topics.HotWaterState(),
			CommandTopic:      b.topics.HotWaterSet(),
			PayloadOn:         HotWaterOn,
			PayloadOff:        HotWaterOff,
			AvailabilityTopic: status,
		}
		if err := b.publishConfig("switch", hotWaterZoneName, cfg); err != nil {
			return err
		}
	}

	b.logInfo("published discovery", "prefix", b.discoveryPrefix, "zones", len(b.zoneOrder))
	return nil
}

// publishConfig marshals and publishes one discovery payload, retained.
func (b *Bridge) publishConfig(component, objectID string, cfg any) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal %s discovery for %s: %w", component, objectID, err)
	}
	topic := b.topics.Discovery(b.discoveryPrefix, component, objectID)
	if err := b.mqtt.Publish(topic, payload, 1, true); err != nil {
		return fmt.Errorf("publish %s discovery for %s: %w", component, objectID, err)
	}
	return nil
}
