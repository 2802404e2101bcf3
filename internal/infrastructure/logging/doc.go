// Package logging provides structured logging for the Heatmiser bridge.
//
// It wraps the standard library's log/slog with configuration-driven
// setup (level, format, destination) and default fields (service,
// version) so every log line is attributable.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("bridge started", "zones", 4)
//
//	worker := log.With("component", "scheduler")
//	worker.Debug("task dequeued", "task", desc)
package logging
