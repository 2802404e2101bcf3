// Package history records observed thermostat and hot water state to
// SQLite for later inspection through the operational API.
//
// The bridge publishes state to MQTT first and records it here second;
// recording is best-effort and never blocks or fails a publish. Tables
// are capped: the repository prunes the oldest rows opportunistically
// as new observations arrive.
package history
