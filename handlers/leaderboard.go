package handlers

import (
	"net/http"

	"cfb-picks/interfaces"
	"cfb-picks/logging"
)

type LeaderboardHandler struct {
	board  interfaces.LeaderboardService
	status interfaces.ReconcilerStatus
	logger *logging.Logger
}

// NewLeaderboardHandler creates the handler. status may be nil when scoring
// runs in another process.
func NewLeaderboardHandler(board interfaces.LeaderboardService, status interfaces.ReconcilerStatus) *LeaderboardHandler {
	return &LeaderboardHandler{
		board:  board,
		status: status,
		logger: logging.WithPrefix("LeaderboardHandler"),
	}
}

// Leaderboard returns all scored users ranked by correct picks
func (h *LeaderboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.board.Leaderboard(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ScoringStatus reports the last reconciler run
func (h *LeaderboardHandler) ScoringStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeError(w, http.StatusNotFound, "scoring is not running in this process")
		return
	}
	last := h.status.LastRun()
	if last == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"lastRun": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lastRun": last})
}
