package heatmiser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/heatmiser-bridge/internal/uh1"
)

// topicSegments is the segment count of a command topic:
// home/<bridge>/<zone>/set/<attribute>.
const topicSegments = 5

// hotWaterZoneName is the reserved topic segment for hot water
// commands and state. It cannot be used as a zone name.
const hotWaterZoneName = "hotwater"

// handleCommand routes an inbound MQTT command to the right handler.
//
// Malformed payloads are dropped with a warning rather than queued:
// a bad payload must never occupy the bus. Returned errors are logged
// by the MQTT client's handler wrapper.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) != topicSegments {
		return fmt.Errorf("%w: unexpected command topic %q", ErrMalformedPayload, topic)
	}
	zoneName, attr := parts[2], parts[4]
	body := strings.TrimSpace(string(payload))

	if zoneName == hotWaterZoneName {
		return b.handleHotWaterCommand(attr, body)
	}

	zone, ok := b.zones[zoneName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownZone, zoneName)
	}

	switch attr {
	case "target":
		return b.handleTargetCommand(zone, body)
	case "mode":
		return b.handleModeCommand(zone, body)
	default:
		b.logDebug("ignoring unknown command attribute", "zone", zoneName, "attribute", attr)
		return nil
	}
}

// handleTargetCommand parses a setpoint command and queues the write.
//
// The payload is a decimal string; fractional setpoints are rounded to
// the nearest whole degree since the thermostat register holds whole
// degrees only. Unparseable payloads are dropped.
func (b *Bridge) handleTargetCommand(zone *Zone, body string) error {
	val, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return fmt.Errorf("%w: target %q for zone %s", ErrMalformedPayload, body, zone.Name)
	}
	target := int(math.Round(val))
	if target < uh1.MinTargetTemp || target > uh1.MaxTargetTemp {
		return fmt.Errorf("%w: target %d out of range for zone %s", ErrMalformedPayload, target, zone.Name)
	}

	overrides := Overrides{Target: &target}
	return b.enqueueCommand(
		fmt.Sprintf("%s: set target %d", zone.Name, target),
		func() (any, error) {
			return nil, zone.Stat.SetTargetTemp(target)
		},
		func(any) error {
			b.publisher.PublishZoneImmediate(zone, overrides)
			return nil
		},
	)
}

// handleModeCommand parses a mode command and queues the frost toggle.
//
// "off" (any case) engages frost protection; any other payload returns
// the zone to normal heating. This matches the Home Assistant climate
// modes advertised in discovery.
func (b *Bridge) handleModeCommand(zone *Zone, body string) error {
	frost := strings.EqualFold(body, string(ModeOff))
	mode := ModeHeat
	if frost {
		mode = ModeOff
	}

	overrides := Overrides{Mode: &mode}
	return b.enqueueCommand(
		fmt.Sprintf("%s: set mode %s", zone.Name, mode),
		func() (any, error) {
			return nil, zone.Stat.SetFrostMode(frost)
		},
		func(any) error {
			b.publisher.PublishZoneImmediate(zone, overrides)
			return nil
		},
	)
}

// handleHotWaterCommand parses a hot water command and queues the
// override write. Only "ON" and "OFF" (any case) are accepted.
func (b *Bridge) handleHotWaterCommand(attr, body string) error {
	if b.hotWater == nil {
		return ErrHotWaterDisabled
	}
	if attr != "hw_state" {
		b.logDebug("ignoring unknown hot water attribute", "attribute", attr)
		return nil
	}

	state := strings.ToUpper(body)
	var on bool
	switch state {
	case HotWaterOn:
		on = true
	case HotWaterOff:
		on = false
	default:
		return fmt.Errorf("%w: hot water state %q", ErrMalformedPayload, body)
	}

	hw := b.hotWater
	return b.enqueueCommand(
		fmt.Sprintf("hot water: set %s", state),
		func() (any, error) {
			return nil, hw.Stat.SetHotWater(on)
		},
		func(any) error {
			b.publisher.PublishHotWater(state, "command")
			return nil
		},
	)
}
