package services

import (
	"context"
	"testing"
	"time"

	"cfb-picks/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var pickClock = time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)

func newPickFixture(t *testing.T) (*PickService, *fakePickStore, *fakeGameStore) {
	t.Helper()
	games := newFakeGameStore()
	_, err := games.UpsertGames(context.Background(), []models.Game{
		{ID: "upcoming", Season: 2024, Home: "Michigan", Away: "Ohio State", State: models.GameStateScheduled, Date: pickClock.Add(5 * time.Hour)},
		{ID: "kicked-off", Season: 2024, Home: "Auburn", Away: "Alabama", State: models.GameStateScheduled, Date: pickClock.Add(-time.Minute)},
		{ID: "live", Season: 2024, Home: "Texas A&M", Away: "Texas", State: models.GameStateInProgress, Date: pickClock.Add(time.Hour)},
		{ID: "postponed", Season: 2024, Home: "Tulane", Away: "Memphis", State: models.GameStatePostponed, Date: pickClock.Add(48 * time.Hour)},
		{ID: "done", Season: 2024, Home: "Georgia", Away: "Georgia Tech", State: models.GameStateFinal, Final: true,
			WinningSide: models.SidePtr(models.SideHome), Date: pickClock.Add(-24 * time.Hour)},
		{ID: "canceled", Season: 2024, Home: "Rice", Away: "Navy", State: models.GameStateCanceled, Final: true, Date: pickClock.Add(-24 * time.Hour)},
		{ID: "last-year", Season: 2023, Home: "Utah", Away: "Colorado", State: models.GameStateFinal, Final: true},
	})
	require.NoError(t, err)

	picks := newFakePickStore()
	svc := NewPickService(picks, games, 2024)
	svc.now = func() time.Time { return pickClock }
	return svc, picks, games
}

func TestPickService_SubmitPick(t *testing.T) {
	svc, picks, _ := newPickFixture(t)
	user := primitive.NewObjectID()

	pick, err := svc.SubmitPick(context.Background(), user, "upcoming", "awayTeam")
	require.NoError(t, err)
	assert.Equal(t, models.SideAway, pick.Pick)

	// changing a pick before kickoff replaces it
	again, err := svc.SubmitPick(context.Background(), user, "upcoming", "homeTeam")
	require.NoError(t, err)
	assert.Equal(t, pick.ID, again.ID)
	assert.Equal(t, models.SideHome, picks.pick(pick.ID).Pick)
	assert.Len(t, picks.picks, 1)

	_, err = svc.SubmitPick(context.Background(), user, "postponed", "homeTeam")
	assert.NoError(t, err)
}

func TestPickService_SubmitPickRejects(t *testing.T) {
	svc, picks, _ := newPickFixture(t)
	user := primitive.NewObjectID()

	cases := []struct {
		name, game, side string
		want             error
	}{
		{"bad side", "upcoming", "Michigan", ErrInvalidInput},
		{"missing game id", "", "homeTeam", ErrInvalidInput},
		{"unknown game", "nope", "homeTeam", ErrGameNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitPick(context.Background(), user, tc.game, tc.side)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, picks.picks)
}

func TestPickService_LatePicksAreAccepted(t *testing.T) {
	svc, picks, _ := newPickFixture(t)
	user := primitive.NewObjectID()

	for _, game := range []string{"kicked-off", "live", "done", "canceled"} {
		pick, err := svc.SubmitPick(context.Background(), user, game, "awayTeam")
		require.NoError(t, err, game)
		assert.False(t, pick.AppliedToScore, game)
	}
	assert.Len(t, picks.picks, 4)
}

func TestPickService_LockAtKickoff(t *testing.T) {
	svc, _, _ := newPickFixture(t)
	svc.LockAtKickoff(true)
	user := primitive.NewObjectID()

	for _, game := range []string{"kicked-off", "live", "done", "canceled"} {
		_, err := svc.SubmitPick(context.Background(), user, game, "homeTeam")
		assert.ErrorIs(t, err, ErrGameLocked, game)
	}
	for _, game := range []string{"upcoming", "postponed"} {
		_, err := svc.SubmitPick(context.Background(), user, game, "homeTeam")
		assert.NoError(t, err, game)
	}
}

func TestPickService_UserPicks(t *testing.T) {
	svc, picks, _ := newPickFixture(t)
	user := primitive.NewObjectID()
	picks.add(user, "upcoming", models.SideHome)
	picks.add(user, "done", models.SideAway)
	picks.add(user, "canceled", models.SideHome)
	picks.add(primitive.NewObjectID(), "done", models.SideHome)

	views, err := svc.UserPicks(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, views, 3)

	status := make(map[string]string)
	for _, v := range views {
		status[v.GameID] = v.Status
		assert.NotEmpty(t, v.Matchup)
	}
	assert.Equal(t, map[string]string{
		"upcoming": "pending",
		"done":     "incorrect",
		"canceled": "no_contest",
	}, status)
}

func TestPickService_Games(t *testing.T) {
	svc, _, _ := newPickFixture(t)
	games, err := svc.Games(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 6, "only the configured season")

	empty := NewPickService(newFakePickStore(), newFakeGameStore(), 2024)
	games, err = empty.Games(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, games)
	assert.Empty(t, games)
}
