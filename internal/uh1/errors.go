package uh1

import "errors"

// Sentinel errors for UH1 operations.
//
// ErrTransport marks failures of the underlying link (timeouts, broken
// pipe, closed port). These are transient: the caller may retry or
// reconnect. ErrProtocol marks malformed or implausible replies (bad
// CRC, wrong address); retrying the same request is unlikely to help.
var (
	// ErrTransport indicates an I/O failure on the serial link.
	ErrTransport = errors.New("uh1: transport failure")

	// ErrProtocol indicates a malformed or unexpected reply frame.
	ErrProtocol = errors.New("uh1: protocol error")

	// ErrNotOpen indicates the connection is not open.
	ErrNotOpen = errors.New("uh1: connection not open")

	// ErrNotSupported indicates the operation is not valid for this
	// thermostat model (e.g. hot water on a PRT).
	ErrNotSupported = errors.New("uh1: operation not supported by model")
)
