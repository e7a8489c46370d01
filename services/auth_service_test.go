package services

import (
	"context"
	"testing"
	"time"

	"cfb-picks/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *fakeUserRepo, username, password string, verified bool) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Verified: verified}
	require.NoError(t, user.HashPassword(password))
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func TestAuthService_LoginAndTokenRoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "sooner", "boomer1", false)
	auth := NewAuthService(repo, "test-secret", time.Hour)

	resp, err := auth.Login(context.Background(), "sooner", "boomer1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.Password)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "sooner", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	got, err := auth.GetUserFromToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthService_LoginFailures(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "sooner", "boomer1", false)
	auth := NewAuthService(repo, "test-secret", 0)

	_, err := auth.Login(context.Background(), "sooner", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), "nobody", "boomer1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, 7*24*time.Hour, auth.TokenExpiry())
}

func TestAuthService_RequireVerifiedEmail(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "pending", "secret1", false)
	seedUser(t, repo, "verified", "secret1", true)
	auth := NewAuthService(repo, "test-secret", time.Hour).RequireVerifiedEmail(true)

	_, err := auth.Login(context.Background(), "pending", "secret1")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	_, err = auth.Login(context.Background(), "verified", "secret1")
	assert.NoError(t, err)
}

func TestAuthService_ValidateTokenRejects(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "sooner", "boomer1", true)
	auth := NewAuthService(repo, "test-secret", time.Hour)

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		token, err := NewAuthService(repo, "other-secret", time.Hour).GenerateToken(user)
		require.NoError(t, err)
		_, err = auth.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := JWTClaims{
			UserID: user.ID.Hex(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = auth.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("bad user id", func(t *testing.T) {
		claims := JWTClaims{UserID: "not-hex"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = auth.GetUserFromToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost := &models.User{Username: "ghost"}
		ghost.ID = user.ID
		ghost.ID[0] ^= 0xff
		token, err := auth.GenerateToken(ghost)
		require.NoError(t, err)
		_, err = auth.GetUserFromToken(context.Background(), token)
		assert.Error(t, err)
	})
}
