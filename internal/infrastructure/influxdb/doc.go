// Package influxdb provides time-series telemetry for the Heatmiser bridge.
//
// This package manages:
//   - Connection to InfluxDB v2 with token authentication
//   - Non-blocking batched writes (zone climate, hot water, bridge stats)
//   - Health checks and graceful flush on shutdown
//
// Telemetry is strictly optional: when disabled in config the bridge
// runs without it, and all write helpers are safe no-ops on a
// disconnected client. Writes never block the polling loop.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer client.Close()
//
//	client.WriteZoneClimate("lounge", 19.5, 21, true)
package influxdb
