package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"cfb-picks/database"
	"cfb-picks/logging"
	"cfb-picks/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLength = 6

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)

// VerificationMailer delivers signup verification links
type VerificationMailer interface {
	IsConfigured() bool
	SendVerificationEmail(user *models.User) error
	VerificationURL(token string) string
}

// UserService handles signup, email verification and profile edits
type UserService struct {
	userRepo UserRepository
	teams    *TeamService
	mailer   VerificationMailer
	logger   *logging.Logger
}

func NewUserService(userRepo UserRepository, teams *TeamService, mailer VerificationMailer) *UserService {
	return &UserService{
		userRepo: userRepo,
		teams:    teams,
		mailer:   mailer,
		logger:   logging.WithPrefix("UserService"),
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *UserService) validateFavorite(team string) (string, error) {
	if strings.TrimSpace(team) == "" {
		return "", nil
	}
	t, ok := s.teams.Lookup(team)
	if !ok {
		return "", invalid("unknown team %q", team)
	}
	return t.Name, nil
}

func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return invalid("password must be at least %d characters long", minPasswordLength)
	}
	if password != confirm {
		return invalid("passwords do not match")
	}
	return nil
}

// Signup registers a new unverified user and sends the verification email
func (s *UserService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.FirstName == "" || req.LastName == "" {
		return nil, invalid("first and last name are required")
	}
	if !usernamePattern.MatchString(req.Username) {
		return nil, invalid("username must be 3-30 letters, digits, '.', '_' or '-'")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, invalid("invalid email address")
	}
	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}
	favorite, err := s.validateFavorite(req.FavoriteTeam)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		FavoriteTeam: favorite,
	}
	if err := user.HashPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := user.GenerateVerificationToken(); err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Infof("Registered user %s", user.Username)

	s.sendVerification(user)
	return user, nil
}

// sendVerification never fails signup; the account already exists
func (s *UserService) sendVerification(user *models.User) {
	if s.mailer == nil {
		return
	}
	if !s.mailer.IsConfigured() {
		s.logger.Infof("Email not configured, verification link for %s: %s",
			user.Username, s.mailer.VerificationURL(user.VerificationToken))
		return
	}
	if err := s.mailer.SendVerificationEmail(user); err != nil {
		s.logger.Errorf("Failed to send verification email to %s: %v", user.Email, err)
	}
}

// VerifyEmail marks the holder of token as verified
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	user, err := s.userRepo.GetUserByVerificationToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	user.MarkVerified()
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	s.logger.Infof("User %s verified their email", user.Username)
	return user, nil
}

// GetUserByID returns a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, id)
}

// UpdateProfile applies a profile edit after checking the current password
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(update.CurrentPassword) {
		return nil, ErrInvalidCredentials
	}

	if v := strings.TrimSpace(update.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(update.LastName); v != "" {
		user.LastName = v
	}
	if v := strings.TrimSpace(update.Username); v != "" && v != user.Username {
		if !usernamePattern.MatchString(v) {
			return nil, invalid("username must be 3-30 letters, digits, '.', '_' or '-'")
		}
		user.Username = v
	}
	if update.FavoriteTeam != "" {
		favorite, err := s.validateFavorite(update.FavoriteTeam)
		if err != nil {
			return nil, err
		}
		user.FavoriteTeam = favorite
	}
	if update.NewPassword != "" {
		if err := validatePassword(update.NewPassword, update.ConfirmNewPassword); err != nil {
			return nil, err
		}
		if err := user.HashPassword(update.NewPassword); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}
