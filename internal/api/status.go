package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/heatmiser-bridge/internal/bridges/heatmiser"
)

// componentCheckTimeout bounds each health probe so one stuck
// component cannot hang the whole status response.
const componentCheckTimeout = 2 * time.Second

// ComponentHealth reports one component's probe result.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse is the /status payload.
type StatusResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version"`
	Timestamp  string                     `json:"timestamp"`
	Bridge     heatmiser.Stats            `json:"bridge"`
	Components map[string]ComponentHealth `json:"components"`
}

// handleStatus reports bridge counters and component health.
// The overall status is "degraded" if any component probe fails.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]ComponentHealth, len(s.checkers))
	status := "ok"

	for name, checker := range s.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), componentCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()

		health := ComponentHealth{Healthy: err == nil}
		if err != nil {
			health.Error = err.Error()
			status = "degraded"
		}
		components[name] = health
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:     status,
		Version:    s.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Bridge:     s.bridge.Stats(),
		Components: components,
	})
}

// RuntimeMetrics reports Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// MetricsResponse is the /metrics payload.
type MetricsResponse struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Bridge        heatmiser.Stats `json:"bridge"`
}

// handleMetrics reports runtime and bridge counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	writeJSON(w, http.StatusOK, MetricsResponse{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Bridge: s.bridge.Stats(),
	})
}
