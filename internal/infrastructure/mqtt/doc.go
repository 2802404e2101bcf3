// Package mqtt provides MQTT client connectivity for the Heatmiser bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge exposes Heatmiser thermostats over MQTT so Home Assistant
// and other clients can observe and control them without knowing
// anything about the serial protocol:
//
//	Home Assistant ↔ MQTT Broker ↔ Heatmiser Bridge ↔ UH1 hub
//
// Topic scheme (see Topics):
//
//	home/{bridge}/{zone}/state/{attribute}   retained, published by bridge
//	home/{bridge}/{zone}/set/{attribute}     commands from other clients
//	home/{bridge}/hotwater/state/hw_state
//	home/{bridge}/hotwater/set/hw_state
//	home/{bridge}/bridge/status              availability (online/offline)
//
// # Security Considerations
//
//   - TLS is recommended for non-local brokers (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Bridge.ID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	client.Subscribe(topics.AllZoneSets(), 1, handleCommand)
//	client.PublishRetained(topics.ZoneState("lounge", "temperature"), []byte("19.5"))
package mqtt
