package services

import (
	"context"
	"testing"

	"cfb-picks/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLeaderboardService_CachesBetweenRuns(t *testing.T) {
	scores := newFakeScoreStore()
	cache := &fakeCache{}
	svc := NewLeaderboardService(scores, cache)

	leader := primitive.NewObjectID()
	_, err := scores.IncrementScore(context.Background(), leader, primitive.NewObjectID(), models.DeltaFor(models.PickOutcomeCorrect))
	require.NoError(t, err)

	entries, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 1, cache.sets)

	// served from cache until invalidated
	_, err = scores.IncrementScore(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), models.DeltaFor(models.PickOutcomeIncorrect))
	require.NoError(t, err)
	entries, err = svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, cache.Invalidate(context.Background()))
	entries, err = svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, cache.sets)
}

func TestLeaderboardService_WithoutCache(t *testing.T) {
	svc := NewLeaderboardService(newFakeScoreStore(), nil)
	entries, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLeaderboardService_ScoreForUser(t *testing.T) {
	scores := newFakeScoreStore()
	svc := NewLeaderboardService(scores, nil)
	user := primitive.NewObjectID()

	score, err := svc.ScoreForUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, user, score.UserID)
	assert.Zero(t, score.TotalPicks)

	_, err = scores.IncrementScore(context.Background(), user, primitive.NewObjectID(), models.DeltaFor(models.PickOutcomeCorrect))
	require.NoError(t, err)
	score, err = svc.ScoreForUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 1, score.CorrectPicks)
}

// scoresDuringRun lets a reconciler run finish between the database read and the cache write
type scoresDuringRun struct {
	*fakeScoreStore
	during func()
}

func (s *scoresDuringRun) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	entries, err := s.fakeScoreStore.Leaderboard(ctx)
	if s.during != nil {
		s.during()
		s.during = nil
	}
	return entries, err
}

func TestLeaderboardService_StaleWriteAfterInvalidate(t *testing.T) {
	scores := &scoresDuringRun{fakeScoreStore: newFakeScoreStore()}
	cache := &fakeCache{}
	svc := NewLeaderboardService(scores, cache)

	scores.during = func() {
		_, err := scores.IncrementScore(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), models.DeltaFor(models.PickOutcomeCorrect))
		require.NoError(t, err)
		require.NoError(t, cache.Invalidate(context.Background()))
	}

	entries, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 1, cache.sets)

	// the write above belongs to the old generation and is not served
	entries, err = svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 2, cache.sets)
}
