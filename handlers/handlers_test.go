package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cfb-picks/models"
	"cfb-picks/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testUser = &models.User{
	ID:        primitive.NewObjectID(),
	FirstName: "Sam",
	LastName:  "Hill",
	Username:  "samh",
	Email:     "sam@example.com",
	Password:  "hash",
	Verified:  true,
}

type fakeAuth struct {
	loginErr error
}

func (f *fakeAuth) GetUserFromToken(ctx context.Context, token string) (*models.User, error) {
	if token == "valid" {
		return testUser, nil
	}
	return nil, services.ErrInvalidToken
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if username != testUser.Username || password != "secret1" {
		return nil, services.ErrInvalidCredentials
	}
	return &models.AuthResponse{User: testUser.ToSafeUser(), Token: "valid"}, nil
}

func (f *fakeAuth) TokenExpiry() time.Duration { return time.Hour }

type fakeUsers struct {
	signups  []models.SignupRequest
	signErr  error
	updates  []models.ProfileUpdate
	verified string
}

func (f *fakeUsers) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	f.signups = append(f.signups, req)
	return &models.User{ID: primitive.NewObjectID(), Username: req.Username, Email: req.Email, Password: "hash"}, nil
}

func (f *fakeUsers) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if token != "abc" {
		return nil, services.ErrInvalidToken
	}
	f.verified = token
	return &models.User{Username: "samh", Verified: true}, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return testUser, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	if update.CurrentPassword != "secret1" {
		return nil, services.ErrInvalidCredentials
	}
	f.updates = append(f.updates, update)
	u := *testUser
	u.FirstName = update.FirstName
	return &u, nil
}

type fakePicks struct {
	submitted []string
}

func (f *fakePicks) SubmitPick(ctx context.Context, userID primitive.ObjectID, gameID, selection string) (*models.Pick, error) {
	switch gameID {
	case "missing":
		return nil, services.ErrGameNotFound
	case "locked":
		return nil, services.ErrGameLocked
	case "boom":
		return nil, errors.New("mongo down")
	}
	side, err := models.ParseSide(selection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}
	f.submitted = append(f.submitted, gameID+":"+selection)
	return &models.Pick{UserID: userID, GameID: gameID, Pick: side}, nil
}

func (f *fakePicks) UserPicks(ctx context.Context, userID primitive.ObjectID) ([]models.PickView, error) {
	return []models.PickView{}, nil
}

func (f *fakePicks) Games(ctx context.Context) ([]*models.Game, error) {
	return []*models.Game{{ID: "401", Home: "Georgia", Away: "Clemson", State: models.GameStateScheduled}}, nil
}

type fakeBoard struct{}

func (fakeBoard) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return []models.LeaderboardEntry{
		{Rank: 1, Username: "samh", CorrectPicks: 3, TotalPicks: 4, IncorrectPicks: 1},
	}, nil
}

func (fakeBoard) ScoreForUser(ctx context.Context, userID primitive.ObjectID) (*models.Score, error) {
	return &models.Score{UserID: userID, CorrectPicks: 3, IncorrectPicks: 1, TotalPicks: 4}, nil
}

type fakeTeams struct{}

func (fakeTeams) Teams() []models.Team {
	return []models.Team{{Name: "Georgia", Conference: "SEC"}}
}

type fakeStatus struct{ last *services.RunSummary }

func (f fakeStatus) LastRun() *services.RunSummary { return f.last }

type fakeDB struct{ err error }

func (f fakeDB) TestConnection(ctx context.Context) error { return f.err }

type fixture struct {
	auth  *fakeAuth
	users *fakeUsers
	picks *fakePicks
	deps  Dependencies
}

func newFixture() *fixture {
	f := &fixture{auth: &fakeAuth{}, users: &fakeUsers{}, picks: &fakePicks{}}
	f.deps = Dependencies{
		Auth:        f.auth,
		Users:       f.users,
		Picks:       f.picks,
		Leaderboard: fakeBoard{},
		Teams:       fakeTeams{},
		Scoring:     fakeStatus{last: &services.RunSummary{RunID: "run-1", GamesScored: 2, PicksApplied: 5}},
		Database:    fakeDB{},
	}
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewRouter(f.deps).ServeHTTP(rec, req)
	return rec
}

func authed(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "valid"})
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSignup(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		f := newFixture()
		rec := f.do(jsonRequest(http.MethodPost, "/signup",
			`{"username":"newbie","email":"n@example.com","password":"secret1","confirmPassword":"secret1"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.Len(t, f.users.signups, 1)
		assert.Equal(t, "secret1", f.users.signups[0].ConfirmPassword)
		assert.NotContains(t, rec.Body.String(), "hash")
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("form uses confirm-password field", func(t *testing.T) {
		f := newFixture()
		rec := f.do(formRequest("/signup", url.Values{
			"username":         {"newbie"},
			"email":            {"n@example.com"},
			"password":         {"secret1"},
			"confirm-password": {"secret1"},
			"favoriteTeam":     {"Georgia"},
		}))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "secret1", f.users.signups[0].ConfirmPassword)
		assert.Equal(t, "Georgia", f.users.signups[0].FavoriteTeam)
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newFixture()
		f.users.signErr = services.ErrUserExists
		rec := f.do(jsonRequest(http.MethodPost, "/signup", `{"username":"samh"}`))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture()
		f.users.signErr = fmt.Errorf("%w: passwords do not match", services.ErrInvalidInput)
		rec := f.do(jsonRequest(http.MethodPost, "/signup", `{"username":"samh"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "passwords do not match")
	})

	t.Run("bad json", func(t *testing.T) {
		rec := newFixture().do(jsonRequest(http.MethodPost, "/signup", `{`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("logged in users are redirected", func(t *testing.T) {
		rec := newFixture().do(authed(jsonRequest(http.MethodPost, "/signup", `{}`)))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestLoginAndLogout(t *testing.T) {
	f := newFixture()

	rec := f.do(jsonRequest(http.MethodPost, "/login", `{"username":"samh","password":"secret1"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "valid", decodeBody(t, rec)["token"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.Equal(t, "valid", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		req      *http.Request
		loginErr error
		want     int
	}{
		{"missing fields", jsonRequest(http.MethodPost, "/login", `{"username":"samh"}`), nil, http.StatusBadRequest},
		{"wrong password", formRequest("/login", url.Values{"username": {"samh"}, "password": {"nope"}}), nil, http.StatusUnauthorized},
		{"unverified", jsonRequest(http.MethodPost, "/login", `{"username":"samh","password":"secret1"}`), services.ErrEmailNotVerified, http.StatusForbidden},
		{"store failure", jsonRequest(http.MethodPost, "/login", `{"username":"samh","password":"secret1"}`), errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.auth.loginErr = tt.loginErr
			rec := f.do(tt.req)
			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture()

	rec := f.do(httptest.NewRequest(http.MethodGet, "/verify-email?token=abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", f.users.verified)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/verify-email?token=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/verify-email", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	f := newFixture()
	for _, path := range []string{"/api/me", "/api/picks", "/api/gameData", "/api/leaderboard", "/api/profile"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestMe(t *testing.T) {
	rec := newFixture().do(authed(httptest.NewRequest(http.MethodGet, "/api/me", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "samh", body["username"])
	assert.NotContains(t, body, "password")
}

func TestSubmitPick(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"accepted", `{"gameId":"401","pick":"homeTeam"}`, http.StatusOK},
		{"bad side", `{"gameId":"401","pick":"Georgia"}`, http.StatusBadRequest},
		{"unknown game", `{"gameId":"missing","pick":"awayTeam"}`, http.StatusNotFound},
		{"kicked off", `{"gameId":"locked","pick":"awayTeam"}`, http.StatusConflict},
		{"store failure", `{"gameId":"boom","pick":"awayTeam"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rec := f.do(authed(jsonRequest(http.MethodPost, "/picks", tt.body)))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	t.Run("form", func(t *testing.T) {
		f := newFixture()
		rec := f.do(authed(formRequest("/picks", url.Values{"gameId": {"401"}, "pick": {"awayTeam"}})))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"401:awayTeam"}, f.picks.submitted)
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		rec := newFixture().do(authed(jsonRequest(http.MethodPost, "/picks", `{"gameId":"boom","pick":"awayTeam"}`)))
		assert.NotContains(t, rec.Body.String(), "mongo")
	})
}

func TestReadEndpoints(t *testing.T) {
	f := newFixture()

	rec := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/picks", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(authed(httptest.NewRequest(http.MethodGet, "/api/gameData", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var games []models.Game
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games, 1)
	assert.Equal(t, "Georgia", games[0].Home)

	rec = f.do(authed(httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].CorrectPicks)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/fbsTeams", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"Georgia","conference":"SEC"}]`, rec.Body.String())
}

func TestScoringStatus(t *testing.T) {
	f := newFixture()
	rec := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/scoring/status", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	last := decodeBody(t, rec)["lastRun"].(map[string]interface{})
	assert.Equal(t, "run-1", last["runId"])
	assert.EqualValues(t, 5, last["picksApplied"])

	f.deps.Scoring = fakeStatus{}
	rec = f.do(authed(httptest.NewRequest(http.MethodGet, "/api/scoring/status", nil)))
	assert.JSONEq(t, `{"lastRun":null}`, rec.Body.String())

	f.deps.Scoring = nil
	rec = f.do(authed(httptest.NewRequest(http.MethodGet, "/api/scoring/status", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfile(t *testing.T) {
	f := newFixture()

	rec := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/profile", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "samh", body["user"].(map[string]interface{})["username"])
	assert.EqualValues(t, 3, body["score"].(map[string]interface{})["correctPicks"])

	rec = f.do(authed(jsonRequest(http.MethodPost, "/api/profile", `{"firstName":"Samuel"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(authed(jsonRequest(http.MethodPost, "/api/profile", `{"firstName":"Samuel","currentPassword":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(authed(formRequest("/api/profile", url.Values{"firstName": {"Samuel"}, "currentPassword": {"secret1"}})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Samuel", decodeBody(t, rec)["firstName"])
	require.Len(t, f.users.updates, 1)
}

func TestHealthAndNotFound(t *testing.T) {
	f := newFixture()

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, rec.Body.String())

	f.deps.Database = fakeDB{err: errors.New("no reachable servers")}
	rec = f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"page not found"}`, rec.Body.String())
}

func TestSecurityHeadersApplied(t *testing.T) {
	rec := newFixture().do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
