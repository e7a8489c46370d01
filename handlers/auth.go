package handlers

import (
	"net/http"
	"time"

	"cfb-picks/interfaces"
	"cfb-picks/logging"
	"cfb-picks/middleware"
	"cfb-picks/models"
)

// AuthHandler handles signup, login, logout and email verification
type AuthHandler struct {
	auth          interfaces.AuthService
	users         interfaces.UserService
	secureCookies bool
	logger        *logging.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(auth interfaces.AuthService, users interfaces.UserService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		users:         users,
		secureCookies: secureCookies,
		logger:        logging.WithPrefix("AuthHandler"),
	}
}

func signupFromRequest(w http.ResponseWriter, r *http.Request) (models.SignupRequest, error) {
	var req models.SignupRequest
	if isJSON(r) {
		err := decodeJSON(w, r, &req)
		return req, err
	}
	req = models.SignupRequest{
		FirstName:       formValue(r, "firstName"),
		LastName:        formValue(r, "lastName"),
		Username:        formValue(r, "username"),
		Email:           formValue(r, "email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm-password"),
		FavoriteTeam:    formValue(r, "favoriteTeam"),
	}
	if req.ConfirmPassword == "" {
		req.ConfirmPassword = r.FormValue("confirmPassword")
	}
	return req, nil
}

// Signup registers a new account. The user must verify their email; no
// session is started.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, err := signupFromRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Signup(r.Context(), req)
	if err != nil {
		h.logger.Warnf("Signup failed for %q: %v", req.Username, err)
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    user.ToSafeUser(),
		"message": "Account created. Check your email to verify your address.",
	})
}

// Login checks credentials and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		req = models.LoginRequest{Username: formValue(r, "username"), Password: r.FormValue("password")}
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Infof("Login failed for %s: %v", req.Username, err)
		writeServiceError(w, h.logger, err)
		return
	}

	h.setAuthCookie(w, resp.Token, h.auth.TokenExpiry())
	h.logger.Infof("User %s logged in", resp.User.Username)
	writeJSON(w, http.StatusOK, resp)
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// VerifyEmail consumes a verification token from the query string
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	user, err := h.users.VerifyEmail(r.Context(), token)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user.ToSafeUser(),
		"message": "Email verified. You can now log in.",
	})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	writeJSON(w, http.StatusOK, user.ToSafeUser())
}

func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
