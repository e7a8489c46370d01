package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cfb-picks/database"
	"cfb-picks/logging"
	"cfb-picks/models"
)

// PickRepository is the pick service's view of stored picks
type PickRepository interface {
	UpsertPick(ctx context.Context, userID primitive.ObjectID, gameID string, selection models.Side) (*models.Pick, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Pick, error)
}

// GameReader reads the local schedule
type GameReader interface {
	FindByID(ctx context.Context, gameID string) (*models.Game, error)
	ListGames(ctx context.Context, season int) ([]*models.Game, error)
}

// PickService handles business logic for picks
type PickService struct {
	pickRepo PickRepository
	gameRepo GameReader
	season   int
	lock     bool
	now      func() time.Time
	logger   *logging.Logger
}

// NewPickService creates a new pick service
func NewPickService(pickRepo PickRepository, gameRepo GameReader, season int) *PickService {
	return &PickService{
		pickRepo: pickRepo,
		gameRepo: gameRepo,
		season:   season,
		now:      time.Now,
		logger:   logging.WithPrefix("PickService"),
	}
}

// LockAtKickoff makes SubmitPick reject games that have started or finished.
// Without it late picks are stored; the reconciler never applies a pick to a
// game it has already scored.
func (s *PickService) LockAtKickoff(lock bool) *PickService {
	s.lock = lock
	return s
}

// SubmitPick records or replaces the user's pick for a game
func (s *PickService) SubmitPick(ctx context.Context, userID primitive.ObjectID, gameID, selection string) (*models.Pick, error) {
	side, err := models.ParseSide(selection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if gameID == "" {
		return nil, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to validate game: %w", err)
	}
	if s.lock && s.locked(game) {
		return nil, ErrGameLocked
	}

	pick, err := s.pickRepo.UpsertPick(ctx, userID, gameID, side)
	if err != nil {
		return nil, fmt.Errorf("failed to save pick: %w", err)
	}
	s.logger.Debugf("User %s picked %s for game %s (%s)", userID.Hex(), side, gameID, game.Matchup())
	return pick, nil
}

func (s *PickService) locked(game *models.Game) bool {
	if game.State != models.GameStateScheduled && game.State != models.GameStatePostponed {
		return true
	}
	return !game.Date.IsZero() && !s.now().Before(game.Date)
}

// UserPicks returns the user's picks with their games' status
func (s *PickService) UserPicks(ctx context.Context, userID primitive.ObjectID) ([]models.PickView, error) {
	picks, err := s.pickRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load picks: %w", err)
	}

	games, err := s.gameRepo.ListGames(ctx, s.season)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	byID := make(map[string]*models.Game, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}

	views := make([]models.PickView, 0, len(picks))
	for _, p := range picks {
		views = append(views, models.NewPickView(*p, byID[p.GameID]))
	}
	return views, nil
}

// Games returns the current season's schedule
func (s *PickService) Games(ctx context.Context) ([]*models.Game, error) {
	games, err := s.gameRepo.ListGames(ctx, s.season)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	if games == nil {
		games = []*models.Game{}
	}
	return games, nil
}
