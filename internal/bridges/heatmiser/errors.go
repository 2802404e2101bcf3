package heatmiser

import (
	"errors"
	"net"
	"os"

	"github.com/nerrad567/heatmiser-bridge/internal/uh1"
)

// Domain-specific errors for bridge operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTransportExhausted is returned when an operation failed on
	// every retry attempt and again after a reconnect.
	ErrTransportExhausted = errors.New("heatmiser: transport retries exhausted")

	// ErrMalformedPayload is returned when an inbound MQTT payload
	// cannot be parsed. The command is dropped.
	ErrMalformedPayload = errors.New("heatmiser: malformed payload")

	// ErrUnknownZone is returned when a command topic names a zone the
	// bridge is not configured for.
	ErrUnknownZone = errors.New("heatmiser: unknown zone")

	// ErrHotWaterDisabled is returned when a hot water command arrives
	// but no hot water zone is configured.
	ErrHotWaterDisabled = errors.New("heatmiser: hot water not configured")

	// ErrStopped is returned when work is submitted to a stopped bridge.
	ErrStopped = errors.New("heatmiser: bridge stopped")
)

// IsTransient reports whether err represents a transient transport
// failure worth retrying.
//
// Transient: link I/O failures (uh1.ErrTransport), timeouts, and a
// closed connection (uh1.ErrNotOpen — a reconnect will fix it).
// Everything else — protocol errors like CRC mismatches, validation
// failures — is permanent: retrying the same request cannot help.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, uh1.ErrTransport) || errors.Is(err, uh1.ErrNotOpen) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
