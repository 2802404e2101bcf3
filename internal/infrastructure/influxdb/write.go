package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteZoneClimate writes a zone's climate readings to InfluxDB.
//
// Called after each poll cycle with the values read from the thermostat.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - zone: Zone name (e.g., "lounge")
//   - temperature: Current temperature in °C
//   - target: Target temperature in °C
//   - heating: Whether the heating output is active
//
// Example:
//
//	client.WriteZoneClimate("lounge", 19.5, 21, true)
func (c *Client) WriteZoneClimate(zone string, temperature float64, target int, heating bool) {
	if !c.IsConnected() {
		return
	}

	heatingVal := 0
	if heating {
		heatingVal = 1
	}

	point := write.NewPoint(
		"zone_climate",
		map[string]string{
			"zone": zone,
		},
		map[string]interface{}{
			"temperature": temperature,
			"target":      target,
			"heating":     heatingVal,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteHotWaterState writes the hot water state to InfluxDB.
//
// Parameters:
//   - on: Whether hot water is currently on
func (c *Client) WriteHotWaterState(on bool) {
	if !c.IsConnected() {
		return
	}

	state := 0
	if on {
		state = 1
	}

	point := write.NewPoint(
		"hotwater",
		nil,
		map[string]interface{}{
			"state": state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBridgeStats writes bridge operational counters to InfluxDB.
//
// Used to track queue pressure and transport health over time.
//
// Parameters:
//   - queueDepth: Number of tasks waiting in the work queue
//   - commandsDone: Cumulative commands executed
//   - pollsDone: Cumulative poll cycles completed
//   - retries: Cumulative transport retries
//   - reconnects: Cumulative transport reconnections
func (c *Client) WriteBridgeStats(queueDepth int, commandsDone, pollsDone, retries, reconnects uint64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bridge_stats",
		nil,
		map[string]interface{}{
			"queue_depth":   queueDepth,
			"commands_done": commandsDone,
			"polls_done":    pollsDone,
			"retries":       retries,
			"reconnects":    reconnects,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
