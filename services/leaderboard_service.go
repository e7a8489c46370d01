package services

import (
	"context"
	"errors"
	"fmt"

	"cfb-picks/database"
	"cfb-picks/logging"
	"cfb-picks/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScoreReader reads cumulative scores
type ScoreReader interface {
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Score, error)
}

// LeaderboardCache stores the ranked leaderboard between reconciler runs.
// Get reports the cache generation even on a miss; Set stores under it so a
// write that races an invalidation is discarded.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]models.LeaderboardEntry, int64, error)
	Set(ctx context.Context, generation int64, entries []models.LeaderboardEntry) error
}

// LeaderboardService serves ranked scores, from cache when one is configured
type LeaderboardService struct {
	scores ScoreReader
	cache  LeaderboardCache
	logger *logging.Logger
}

func NewLeaderboardService(scores ScoreReader, cache LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{
		scores: scores,
		cache:  cache,
		logger: logging.WithPrefix("Leaderboard"),
	}
}

// Leaderboard returns entries ranked by correct picks
func (s *LeaderboardService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		entries, gen, err := s.cache.Get(ctx)
		switch {
		case err == nil:
			return entries, nil
		case errors.Is(err, database.ErrCacheMiss):
			generation, cacheable = gen, true
		default:
			s.logger.Warnf("Cache read failed, falling back to database: %v", err)
		}
	}

	entries, err := s.scores.Leaderboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if cacheable {
		if err := s.cache.Set(ctx, generation, entries); err != nil {
			s.logger.Warnf("Cache write failed: %v", err)
		}
	}
	return entries, nil
}

// ScoreForUser returns the user's score, zeroed when nothing has been scored yet
func (s *LeaderboardService) ScoreForUser(ctx context.Context, userID primitive.ObjectID) (*models.Score, error) {
	score, err := s.scores.FindByUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return &models.Score{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load score: %w", err)
	}
	return score, nil
}
