package handlers

import (
	"net/http"

	"cfb-picks/interfaces"
	"cfb-picks/logging"
	"cfb-picks/middleware"
	"cfb-picks/models"
)

// ProfileHandler shows and edits the caller's account
type ProfileHandler struct {
	users  interfaces.UserService
	board  interfaces.LeaderboardService
	logger *logging.Logger
}

func NewProfileHandler(users interfaces.UserService, board interfaces.LeaderboardService) *ProfileHandler {
	return &ProfileHandler{
		users:  users,
		board:  board,
		logger: logging.WithPrefix("ProfileHandler"),
	}
}

type profileResponse struct {
	User  models.User   `json:"user"`
	Score *models.Score `json:"score"`
}

// GetProfile returns the caller's account and cumulative score
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	score, err := h.board.ScoreForUser(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: user.ToSafeUser(), Score: score})
}

// UpdateProfile applies an edit confirmed with the current password
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update models.ProfileUpdate
	if isJSON(r) {
		if err := decodeJSON(w, r, &update); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		update = models.ProfileUpdate{
			FirstName:          formValue(r, "firstName"),
			LastName:           formValue(r, "lastName"),
			Username:           formValue(r, "username"),
			FavoriteTeam:       formValue(r, "favoriteTeam"),
			CurrentPassword:    r.FormValue("currentPassword"),
			NewPassword:        r.FormValue("newPassword"),
			ConfirmNewPassword: r.FormValue("confirmNewPassword"),
		}
	}

	if update.CurrentPassword == "" {
		writeError(w, http.StatusBadRequest, "current password is required")
		return
	}

	user := middleware.GetUserFromContext(r)
	updated, err := h.users.UpdateProfile(r.Context(), user.ID, update)
	if err != nil {
		h.logger.Infof("Profile update failed for %s: %v", user.Username, err)
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated.ToSafeUser())
}
