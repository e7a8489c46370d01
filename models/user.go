package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User represents a registered player
type User struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName         string             `json:"firstName" bson:"first_name"`
	LastName          string             `json:"lastName" bson:"last_name"`
	Username          string             `json:"username" bson:"username"`
	Email             string             `json:"email" bson:"email"`
	Password          string             `json:"-" bson:"password"` // bcrypt hash, never serialized to JSON
	FavoriteTeam      string             `json:"favoriteTeam" bson:"favorite_team"`
	VerificationToken string             `json:"-" bson:"verification_token,omitempty"`
	Verified          bool               `json:"verified" bson:"verified"`
	CreatedAt         time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updated_at"`
}

// SignupRequest represents signup form data
type SignupRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FavoriteTeam    string `json:"favoriteTeam"`
}

// LoginRequest represents login form data
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// ProfileUpdate represents the profile edit form. CurrentPassword must
// match the stored hash; NewPassword is optional.
type ProfileUpdate struct {
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	Username           string `json:"username"`
	FavoriteTeam       string `json:"favoriteTeam"`
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// DisplayName returns "First Last", falling back to the username
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// HashPassword hashes the user's password using bcrypt
func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies the provided password against the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// ToSafeUser returns a copy of the user without credential fields
func (u *User) ToSafeUser() User {
	return User{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		Email:        u.Email,
		FavoriteTeam: u.FavoriteTeam,
		Verified:     u.Verified,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// GenerateVerificationToken sets a fresh 32-byte hex email verification token
func (u *User) GenerateVerificationToken() error {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return err
	}

	u.VerificationToken = hex.EncodeToString(bytes)
	u.Verified = false
	u.UpdatedAt = time.Now()
	return nil
}

// MarkVerified flags the email as verified and clears the token
func (u *User) MarkVerified() {
	u.Verified = true
	u.VerificationToken = ""
	u.UpdatedAt = time.Now()
}
