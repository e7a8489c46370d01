package handlers

import (
	"context"
	"net/http"
	"time"

	"cfb-picks/interfaces"
	"cfb-picks/logging"
	"cfb-picks/middleware"

	"github.com/gorilla/mux"
)

// Dependencies groups what the router needs
type Dependencies struct {
	Auth          interfaces.AuthService
	Users         interfaces.UserService
	Picks         interfaces.PickService
	Leaderboard   interfaces.LeaderboardService
	Teams         interfaces.TeamCatalog
	Scoring       interfaces.ReconcilerStatus
	Database      interfaces.HealthChecker
	SecureCookies bool
	BehindProxy   bool
}

// NewRouter wires every route with its middleware
func NewRouter(deps Dependencies) *mux.Router {
	authMW := middleware.NewAuthMiddleware(deps.Auth)
	authHandler := NewAuthHandler(deps.Auth, deps.Users, deps.SecureCookies)
	pickHandler := NewPickHandler(deps.Picks, deps.Teams)
	boardHandler := NewLeaderboardHandler(deps.Leaderboard, deps.Scoring)
	profileHandler := NewProfileHandler(deps.Users, deps.Leaderboard)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logging.WithPrefix("HTTP")))
	r.Use(middleware.SecurityMiddleware(deps.BehindProxy))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "page not found")
	})

	r.HandleFunc("/healthz", healthHandler(deps.Database)).Methods(http.MethodGet)
	r.HandleFunc("/verify-email", authHandler.VerifyEmail).Methods(http.MethodGet)
	r.HandleFunc("/api/fbsTeams", pickHandler.FBSTeams).Methods(http.MethodGet)
	r.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost, http.MethodDelete)

	// Guest-only routes
	guest := r.NewRoute().Subrouter()
	guest.Use(authMW.RequireGuest)
	guest.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
	guest.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	// Authenticated routes
	protected := r.NewRoute().Subrouter()
	protected.Use(authMW.RequireAuth)
	protected.HandleFunc("/picks", pickHandler.SubmitPick).Methods(http.MethodPost)
	protected.HandleFunc("/api/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/api/picks", pickHandler.ListPicks).Methods(http.MethodGet)
	protected.HandleFunc("/api/gameData", pickHandler.GameData).Methods(http.MethodGet)
	protected.HandleFunc("/api/leaderboard", boardHandler.Leaderboard).Methods(http.MethodGet)
	protected.HandleFunc("/api/scoring/status", boardHandler.ScoringStatus).Methods(http.MethodGet)
	protected.HandleFunc("/api/profile", profileHandler.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/api/profile", profileHandler.UpdateProfile).Methods(http.MethodPost)

	return r
}

func healthHandler(db interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.TestConnection(ctx); err != nil {
			logging.Warnf("Health check failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
	}
}
