package services

import (
	"context"
	"time"

	"cfb-picks/logging"
	"cfb-picks/models"
)

// GameLister supplies the full season schedule
type GameLister interface {
	ListGames(ctx context.Context) ([]models.GameResult, error)
}

// GameUpserter stores source-owned game fields without touching scoring state
type GameUpserter interface {
	UpsertGames(ctx context.Context, games []models.Game) (int64, error)
}

// GameSyncService keeps the local schedule current so picks can be made
// against upcoming games
type GameSyncService struct {
	source GameLister
	store  GameUpserter
	logger *logging.Logger
}

func NewGameSyncService(source GameLister, store GameUpserter) *GameSyncService {
	return &GameSyncService{
		source: source,
		store:  store,
		logger: logging.WithPrefix("GameSync"),
	}
}

// Sync fetches the schedule and upserts it
func (s *GameSyncService) Sync(ctx context.Context) error {
	start := time.Now()

	results, err := s.source.ListGames(ctx)
	if err != nil {
		return &DataSourceError{Op: "list games", Err: err}
	}
	if len(results) == 0 {
		s.logger.Info("No games received from source")
		return nil
	}

	games := make([]models.Game, 0, len(results))
	for i := range results {
		if err := results[i].Validate(); err != nil {
			s.logger.Warnf("Skipping malformed game: %v", err)
			continue
		}
		games = append(games, results[i].ToGame())
	}

	changed, err := s.store.UpsertGames(ctx, games)
	if err != nil {
		return &PersistenceError{Op: "upsert games", Err: err}
	}

	if changed > 0 {
		s.logger.Infof("Sync completed in %v - %d games processed, %d changed", time.Since(start), len(games), changed)
	} else {
		s.logger.Debugf("Sync completed in %v - %d games processed, no changes", time.Since(start), len(games))
	}
	return nil
}
