package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/heatmiser-bridge/internal/history"
)

// History query bounds.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// HistoryResponse is the /history payload.
type HistoryResponse struct {
	Count   int                  `json:"count"`
	Records []history.ZoneRecord `json:"records"`
}

// handleHistory returns recent state observations, newest first.
//
// Query parameters:
//   - zone: Filter to one zone (optional)
//   - limit: Maximum rows, 1-1000 (default 50)
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeNotFound(w, "state history is not enabled")
		return
	}

	zone := r.URL.Query().Get("zone")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.hist.RecentZoneStates(r.Context(), zone, limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeInternalError(w, "history query failed")
		return
	}
	if records == nil {
		records = []history.ZoneRecord{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		Count:   len(records),
		Records: records,
	})
}
