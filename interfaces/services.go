package interfaces

import (
	"context"
	"time"

	"cfb-picks/models"
	"cfb-picks/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenValidator resolves a session token to its user
type TokenValidator interface {
	GetUserFromToken(ctx context.Context, token string) (*models.User, error)
}

// AuthService defines login and session token operations used by handlers
type AuthService interface {
	TokenValidator
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	TokenExpiry() time.Duration
}

// UserService defines account operations used by handlers
type UserService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
}

// PickService defines pick submission and listing
type PickService interface {
	SubmitPick(ctx context.Context, userID primitive.ObjectID, gameID, selection string) (*models.Pick, error)
	UserPicks(ctx context.Context, userID primitive.ObjectID) ([]models.PickView, error)
	Games(ctx context.Context) ([]*models.Game, error)
}

// LeaderboardService defines ranked score reads
type LeaderboardService interface {
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	ScoreForUser(ctx context.Context, userID primitive.ObjectID) (*models.Score, error)
}

// TeamCatalog lists the FBS teams a user can pick as favorite
type TeamCatalog interface {
	Teams() []models.Team
}

// ReconcilerStatus exposes the outcome of the latest scoring run
type ReconcilerStatus interface {
	LastRun() *services.RunSummary
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	TestConnection(ctx context.Context) error
}
