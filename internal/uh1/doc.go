// Package uh1 implements the Heatmiser V3 serial protocol spoken by the
// UH1 wiring centre.
//
// The UH1 presents a half-duplex RS485 bus: exactly one request may be in
// flight at a time, and every request is answered (or times out) before
// the next may be sent. Conn serialises access to the bus; higher layers
// add retry and reconnection policy on top.
//
// This package manages:
//   - Opening the bus over a local serial device or a TCP serial server
//   - Frame construction and validation (CRC-16, address checks)
//   - Whole-DCB reads and single-register writes per thermostat
//
// # Protocol
//
// Frames are addressed from the master (0x81) to a thermostat (1-32).
// A read requests the entire DCB (Device Control Block) in one reply;
// writes target a single DCB register. All frames carry a trailing
// CRC-16 (polynomial 0x1021, table-driven, 4 bits at a time).
//
// # Usage
//
//	conn, err := uh1.Dial(uh1.Config{Mode: "device", Device: "/dev/ttyUSB0", Baud: 4800})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	stat := uh1.NewThermostat(conn, 1, uh1.ModelPRT)
//	if err := stat.ReadDCB(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(stat.AirTemp())
package uh1
