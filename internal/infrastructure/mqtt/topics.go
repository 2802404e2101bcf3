package mqtt

import "fmt"

// TopicPrefix is the root of the bridge topic hierarchy.
//
// All topics use the scheme: home/{bridge}/{zone}/{direction}/{attribute}
// where direction is "state" (published by the bridge, retained) or
// "set" (commands from other clients, not retained).
const TopicPrefix = "home"

// Topics builds MQTT topics for a specific bridge instance.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{Bridge: "heatmiser"}
//	topics.ZoneState("lounge", "temperature")
//	// Returns: "home/heatmiser/lounge/state/temperature"
type Topics struct {
	Bridge string
}

// ZoneState returns the retained state topic for a zone attribute.
//
// Attributes: temperature, target, mode, action
//
// Example: home/heatmiser/lounge/state/temperature
func (t Topics) ZoneState(zone, attribute string) string {
	return fmt.Sprintf("%s/%s/%s/state/%s", TopicPrefix, t.Bridge, zone, attribute)
}

// ZoneSet returns the command topic for a zone attribute.
//
// Attributes: target, mode
//
// Example: home/heatmiser/lounge/set/target
func (t Topics) ZoneSet(zone, attribute string) string {
	return fmt.Sprintf("%s/%s/%s/set/%s", TopicPrefix, t.Bridge, zone, attribute)
}

// HotWaterState returns the retained hot water state topic.
//
// Example: home/heatmiser/hotwater/state/hw_state
func (t Topics) HotWaterState() string {
	return fmt.Sprintf("%s/%s/hotwater/state/hw_state", TopicPrefix, t.Bridge)
}

// HotWaterSet returns the hot water command topic.
//
// Example: home/heatmiser/hotwater/set/hw_state
func (t Topics) HotWaterSet() string {
	return fmt.Sprintf("%s/%s/hotwater/set/hw_state", TopicPrefix, t.Bridge)
}

// BridgeStatus returns the bridge availability topic.
//
// Published retained on connect ("online"), on graceful shutdown
// ("offline") and via LWT on unexpected disconnect.
//
// Example: home/heatmiser/bridge/status
func (t Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/%s/bridge/status", TopicPrefix, t.Bridge)
}

// AllZoneSets returns a pattern matching every zone command topic.
//
// This intentionally also matches hotwater/set/hw_state so a single
// subscription covers all inbound commands.
//
// Pattern: home/heatmiser/+/set/+
func (t Topics) AllZoneSets() string {
	return fmt.Sprintf("%s/%s/+/set/+", TopicPrefix, t.Bridge)
}

// Discovery returns a Home Assistant discovery config topic.
//
// Example: homeassistant/climate/heatmiser_lounge/config
func (t Topics) Discovery(prefix, component, objectID string) string {
	return fmt.Sprintf("%s/%s/%s_%s/config", prefix, component, t.Bridge, objectID)
}
