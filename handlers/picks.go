package handlers

import (
	"net/http"

	"cfb-picks/interfaces"
	"cfb-picks/logging"
	"cfb-picks/middleware"
)

// PickHandler serves the schedule and the caller's picks
type PickHandler struct {
	picks  interfaces.PickService
	teams  interfaces.TeamCatalog
	logger *logging.Logger
}

func NewPickHandler(picks interfaces.PickService, teams interfaces.TeamCatalog) *PickHandler {
	return &PickHandler{
		picks:  picks,
		teams:  teams,
		logger: logging.WithPrefix("PickHandler"),
	}
}

type pickRequest struct {
	GameID string `json:"gameId"`
	Pick   string `json:"pick"`
}

// SubmitPick creates or replaces the caller's pick for one game
func (h *PickHandler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		req = pickRequest{GameID: formValue(r, "gameId"), Pick: formValue(r, "pick")}
	}

	user := middleware.GetUserFromContext(r)
	pick, err := h.picks.SubmitPick(r.Context(), user.ID, req.GameID, req.Pick)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pick)
}

// ListPicks returns the caller's picks with game status
func (h *PickHandler) ListPicks(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	views, err := h.picks.UserPicks(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GameData returns the season schedule
func (h *PickHandler) GameData(w http.ResponseWriter, r *http.Request) {
	games, err := h.picks.Games(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// FBSTeams returns every FBS team for the favorite team selector
func (h *PickHandler) FBSTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.teams.Teams())
}
