// Package heatmiser bridges Heatmiser thermostats on a UH1 wiring
// centre to MQTT.
//
// The UH1 bus is half-duplex and slow: one request at a time, with
// mandatory settle time between exchanges. Everything in this package
// exists to funnel two kinds of work through that constraint safely:
//
//   - Commands (setpoint, mode, hot water) arriving over MQTT, which
//     must feel immediate to the user
//   - Polls, which refresh every zone's state on a timer
//
// # Architecture
//
//	MQTT set/# ──► handlers ──► Scheduler (priority queue) ──► worker
//	                                                            │
//	                                             Arbiter (bus lock, retry,
//	                                                      reconnect)
//	                                                            │
//	                                                        UH1 bus
//	                                                            │
//	           StatePublisher ◄── callbacks / poll results ◄────┘
//
// Commands always overtake queued polls (strict priority, FIFO within
// each class). The PollGate keeps at most one poll in the queue or
// executing, so a slow bus coalesces poll pressure instead of building
// a backlog. The Arbiter owns the transport: every bus operation runs
// under its exclusive lock, transient failures are retried on a fixed
// budget, and an exhausted budget triggers a reconnect followed by one
// final attempt.
//
// State flows out through the StatePublisher on two paths: an immediate
// optimistic publish after each successful command (cached state plus
// the value just written), and a batch publish after each poll.
package heatmiser
