package heatmiser

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/mqtt"
)

// recordTimeout bounds history writes so a slow disk can never stall
// state publishing.
const recordTimeout = 2 * time.Second

// StateRecorder persists observed state changes. Optional — if nil,
// the publisher operates without history.
// Satisfied by *history.Repository.
type StateRecorder interface {
	RecordZoneState(ctx context.Context, zone string, state ZoneState, source string) error
	RecordHotWater(ctx context.Context, state string, source string) error
}

// MetricsWriter forwards readings to a time-series store. Optional —
// if nil, the publisher operates without telemetry.
// Satisfied by *influxdb.Client.
type MetricsWriter interface {
	WriteZoneClimate(zone string, temperature float64, target int, heating bool)
	WriteHotWaterState(on bool)
}

// StatePublisher publishes zone and hot water state to MQTT.
//
// Two paths feed it:
//   - Immediate: after a successful command, the zone's cached state
//     is published with the just-written value overriding the cache,
//     so the UI reflects the change without waiting for the next poll.
//   - Batch: after each poll, every polled zone is published.
//
// All state topics are published retained so late subscribers receive
// current state immediately.
type StatePublisher struct {
	mqtt   MQTTClient
	topics mqtt.Topics
	qos    byte

	// Optional sinks.
	recorder StateRecorder
	metrics  MetricsWriter

	logger   Logger
	loggerMu sync.RWMutex
}

// PublisherOptions holds configuration for creating a StatePublisher.
type PublisherOptions struct {
	MQTTClient MQTTClient
	Topics     mqtt.Topics
	QoS        byte
	Recorder   StateRecorder // optional
	Metrics    MetricsWriter // optional
	Logger     Logger        // optional
}

// NewStatePublisher creates a publisher.
func NewStatePublisher(opts PublisherOptions) *StatePublisher {
	return &StatePublisher{
		mqtt:     opts.MQTTClient,
		topics:   opts.Topics,
		qos:      opts.QoS,
		recorder: opts.Recorder,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// PublishZoneState publishes all four state attributes of a zone,
// retained. Publish failures are logged per attribute; the remaining
// attributes are still attempted.
func (p *StatePublisher) PublishZoneState(zone string, state ZoneState, source string) {
	attrs := []struct {
		name    string
		payload string
	}{
		{"temperature", formatTemperature(state.Temperature)},
		{"target", strconv.Itoa(state.Target)},
		{"mode", string(state.Mode)},
		{"action", string(state.Action)},
	}

	for _, attr := range attrs {
		topic := p.topics.ZoneState(zone, attr.name)
		if err := p.mqtt.Publish(topic, []byte(attr.payload), p.qos, true); err != nil {
			p.logWarn("state publish failed", "topic", topic, "error", err)
		}
	}

	p.logDebug("published zone state",
		"zone", zone,
		"source", source,
		"temperature", state.Temperature,
		"target", state.Target,
		"mode", state.Mode,
		"action", state.Action,
	)

	p.record(zone, state, source)
}

// PublishZoneImmediate publishes a zone's state right after a command,
// deriving from the driver's cache and applying the values the command
// just wrote.
func (p *StatePublisher) PublishZoneImmediate(zone *Zone, overrides Overrides) {
	state := zone.State()
	if overrides.Target != nil {
		state.Target = *overrides.Target
	}
	if overrides.Mode != nil {
		state.Mode = *overrides.Mode
	}
	p.PublishZoneState(zone.Name, state, "command")
}

// PublishPollResults publishes every zone from a completed poll cycle,
// plus hot water if present.
func (p *StatePublisher) PublishPollResults(results PollResults) {
	for zone, state := range results.Zones {
		p.PublishZoneState(zone, state, "poll")
	}
	if results.HotWater != "" {
		p.PublishHotWater(results.HotWater, "poll")
	}
}

// PublishHotWater publishes the hot water state ("ON"/"OFF"), retained.
func (p *StatePublisher) PublishHotWater(state string, source string) {
	topic := p.topics.HotWaterState()
	if err := p.mqtt.Publish(topic, []byte(state), p.qos, true); err != nil {
		p.logWarn("hot water publish failed", "topic", topic, "error", err)
		return
	}
	p.logDebug("published hot water state", "state", state, "source", source)

	if p.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := p.recorder.RecordHotWater(ctx, state, source); err != nil {
			p.logWarn("hot water history write failed", "error", err)
		}
	}
	if p.metrics != nil {
		p.metrics.WriteHotWaterState(state == HotWaterOn)
	}
}

// record forwards a zone state to the optional history and telemetry
// sinks. Failures are logged, never propagated: persistence is
// best-effort and must not affect publishing.
func (p *StatePublisher) record(zone string, state ZoneState, source string) {
	if p.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := p.recorder.RecordZoneState(ctx, zone, state, source); err != nil {
			p.logWarn("history write failed", "zone", zone, "error", err)
		}
	}
	if p.metrics != nil {
		p.metrics.WriteZoneClimate(zone, state.Temperature, state.Target, state.Action == ActionHeating)
	}
}

// formatTemperature renders a reading with one decimal place, matching
// the tenths-of-degree resolution of the sensors.
func formatTemperature(t float64) string {
	return strconv.FormatFloat(t, 'f', 1, 64)
}

// SetLogger sets the publisher's logger.
func (p *StatePublisher) SetLogger(logger Logger) {
	p.loggerMu.Lock()
	p.logger = logger
	p.loggerMu.Unlock()
}

func (p *StatePublisher) getLogger() Logger {
	p.loggerMu.RLock()
	defer p.loggerMu.RUnlock()
	return p.logger
}

func (p *StatePublisher) logDebug(msg string, args ...any) {
	if l := p.getLogger(); l != nil {
		l.Debug(msg, args...)
	}
}

func (p *StatePublisher) logWarn(msg string, args ...any) {
	if l := p.getLogger(); l != nil {
		l.Warn(msg, args...)
	}
}
