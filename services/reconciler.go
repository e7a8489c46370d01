package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"cfb-picks/database"
	"cfb-picks/logging"
	"cfb-picks/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

// ResultsSource supplies finalized game outcomes
type ResultsSource interface {
	ListFinalizedGames(ctx context.Context) ([]models.GameResult, error)
}

// GameStore is the reconciler's view of the local games collection
type GameStore interface {
	RecordResults(ctx context.Context, results []models.GameResult) error
	FindUnscoredFinal(ctx context.Context) ([]*models.Game, error)
	MarkScored(ctx context.Context, gameID string) error
}

// PickStore is the reconciler's view of stored picks
type PickStore interface {
	FindPicksByGame(ctx context.Context, gameID string) ([]*models.Pick, error)
	MarkPickApplied(ctx context.Context, pickID primitive.ObjectID) error
}

// ScoreStore applies graded picks to cumulative scores. IncrementScore must
// be idempotent per pick id and report whether it changed anything.
type ScoreStore interface {
	IncrementScore(ctx context.Context, userID, pickID primitive.ObjectID, delta models.ScoreDelta) (bool, error)
}

// RunLock excludes concurrent runs across processes
type RunLock interface {
	Acquire(ctx context.Context) (func(context.Context) error, error)
}

// CacheInvalidator drops a read-side projection after scores change
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RunSummary describes the outcome of one reconciler run
type RunSummary struct {
	RunID            string        `json:"runId"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"duration"`
	ResultsSeen      int           `json:"resultsSeen"`
	MalformedResults int           `json:"malformedResults"`
	GamesScored      int           `json:"gamesScored"`
	PicksApplied     int           `json:"picksApplied"`
	PicksSkipped     int           `json:"picksSkipped"`
	LockSkipped      bool          `json:"lockSkipped"`
	Error            string        `json:"error,omitempty"`
}

// ScoringReconciler grades picks for finished games and applies each pick to
// its user's score exactly once. Run may be called concurrently and
// repeatedly; overlapping in-process calls share one execution.
type ScoringReconciler struct {
	source ResultsSource
	games  GameStore
	picks  PickStore
	scores ScoreStore

	lock        RunLock
	leaderboard CacheInvalidator
	events      *ScoreEventPublisher

	group  singleflight.Group
	logger *logging.Logger

	mu      sync.RWMutex
	lastRun *RunSummary
}

func NewScoringReconciler(source ResultsSource, games GameStore, picks PickStore, scores ScoreStore) *ScoringReconciler {
	return &ScoringReconciler{
		source: source,
		games:  games,
		picks:  picks,
		scores: scores,
		logger: logging.WithPrefix("Reconciler"),
	}
}

// WithRunLock enables cross-process exclusion
func (r *ScoringReconciler) WithRunLock(lock RunLock) *ScoringReconciler {
	r.lock = lock
	return r
}

// WithLeaderboardCache invalidates the cache after runs that change scores
func (r *ScoringReconciler) WithLeaderboardCache(c CacheInvalidator) *ScoringReconciler {
	r.leaderboard = c
	return r
}

// WithEventPublisher emits one event per scored game
func (r *ScoringReconciler) WithEventPublisher(p *ScoreEventPublisher) *ScoringReconciler {
	r.events = p
	return r
}

// LastRun returns the summary of the most recent completed run, or nil
func (r *ScoringReconciler) LastRun() *RunSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastRun == nil {
		return nil
	}
	s := *r.lastRun
	return &s
}

// Run performs one reconciliation pass. It returns nil, a *DataSourceError or
// a *PersistenceError, which also carries a cancelled ctx and unwraps to
// ctx.Err(); a failed pass leaves applied markers as checkpoints
// and the next pass resumes from them.
func (r *ScoringReconciler) Run(ctx context.Context) error {
	_, err, shared := r.group.Do("run", func() (interface{}, error) {
		return nil, r.runExclusive(ctx)
	})
	if shared {
		r.logger.Debug("Joined an in-progress run")
	}
	return err
}

func (r *ScoringReconciler) runExclusive(ctx context.Context) error {
	summary := &RunSummary{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger := r.logger.With("run", summary.RunID[:8])

	if r.lock != nil {
		release, err := r.lock.Acquire(ctx)
		switch {
		case errors.Is(err, database.ErrLockHeld):
			logger.Info("Another process is reconciling, skipping run")
			summary.LockSkipped = true
			r.finish(summary, nil)
			return nil
		case err != nil:
			logger.Warnf("Run lock unavailable, continuing without it: %v", err)
		default:
			defer func() {
				releaseCtx, cancel := database.WithShortTimeout()
				defer cancel()
				if err := release(releaseCtx); err != nil {
					logger.Warnf("Failed to release run lock: %v", err)
				}
			}()
		}
	}

	scored, err := r.reconcile(ctx, logger, summary)
	r.afterRun(ctx, logger, summary, scored)
	r.finish(summary, err)

	if err != nil {
		logger.Errorf("Run aborted: %v", err)
		return err
	}
	if summary.GamesScored > 0 || summary.PicksApplied > 0 {
		logger.Infof("Run complete in %v: %d games scored, %d picks applied, %d skipped",
			summary.Duration, summary.GamesScored, summary.PicksApplied, summary.PicksSkipped)
	} else {
		logger.Debugf("Run complete in %v: nothing to score", summary.Duration)
	}
	return nil
}

func (r *ScoringReconciler) reconcile(ctx context.Context, logger *logging.Logger, summary *RunSummary) ([]ScoreEvent, error) {
	results, err := r.source.ListFinalizedGames(ctx)
	if err != nil {
		return nil, &DataSourceError{Op: "list finalized games", Err: err}
	}
	summary.ResultsSeen = len(results)

	valid := make([]models.GameResult, 0, len(results))
	for _, result := range results {
		if err := result.Validate(); err != nil {
			summary.MalformedResults++
			logger.Warnf("Skipping malformed result: %v", err)
			continue
		}
		if !result.Final() {
			continue
		}
		valid = append(valid, result)
	}

	if len(valid) > 0 {
		if err := r.games.RecordResults(ctx, valid); err != nil {
			return nil, &PersistenceError{Op: "record results", Err: err}
		}
	}

	games, err := r.games.FindUnscoredFinal(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "find unscored games", Err: err}
	}
	if len(games) == 0 {
		return nil, nil
	}

	var scored []ScoreEvent
	for _, game := range games {
		if err := ctx.Err(); err != nil {
			return scored, &PersistenceError{Op: "score game " + game.ID, Err: err}
		}

		applied, err := r.scoreGame(ctx, logger, game, summary)
		if err != nil {
			return scored, err
		}
		if err := r.games.MarkScored(ctx, game.ID); err != nil {
			return scored, &PersistenceError{Op: "mark game " + game.ID + " scored", Err: err}
		}

		summary.GamesScored++
		scored = append(scored, newScoreEvent(summary.RunID, game, applied))
	}
	return scored, nil
}

// scoreGame applies every unapplied pick of one game and returns how many
// picks changed a score
func (r *ScoringReconciler) scoreGame(ctx context.Context, logger *logging.Logger, game *models.Game, summary *RunSummary) (int, error) {
	picks, err := r.picks.FindPicksByGame(ctx, game.ID)
	if err != nil {
		return 0, &PersistenceError{Op: "find picks for game " + game.ID, Err: err}
	}

	if !game.HasWinner() {
		logger.Infof("Game %s (%s) has no winner, %d picks contribute nothing", game.ID, game.Matchup(), len(picks))
		return 0, nil
	}
	winner := *game.WinningSide

	applied := 0
	for _, pick := range picks {
		if pick.AppliedToScore {
			continue
		}
		if pick.Malformed() {
			summary.PicksSkipped++
			logger.Warnf("Skipping malformed pick %s for game %s", pick.ID.Hex(), game.ID)
			continue
		}

		delta := models.DeltaFor(pick.Grade(winner))
		changed, err := r.scores.IncrementScore(ctx, pick.UserID, pick.ID, delta)
		if err != nil {
			return applied, &PersistenceError{Op: "increment score for user " + pick.UserID.Hex(), Err: err}
		}
		if !changed {
			logger.Debugf("Pick %s already counted, repairing marker", pick.ID.Hex())
		}

		if err := r.picks.MarkPickApplied(ctx, pick.ID); err != nil {
			return applied, &PersistenceError{Op: "mark pick " + pick.ID.Hex() + " applied", Err: err}
		}

		if changed {
			applied++
			summary.PicksApplied++
		}
	}

	logger.Debugf("Game %s (%s): %d of %d picks applied", game.ID, game.Matchup(), applied, len(picks))
	return applied, nil
}

func (r *ScoringReconciler) afterRun(ctx context.Context, logger *logging.Logger, summary *RunSummary, scored []ScoreEvent) {
	if summary.PicksApplied > 0 && r.leaderboard != nil {
		if err := r.leaderboard.Invalidate(ctx); err != nil {
			logger.Warnf("Failed to invalidate leaderboard cache: %v", err)
		}
	}
	if len(scored) > 0 && r.events != nil {
		r.events.Publish(ctx, scored...)
	}
}

func (r *ScoringReconciler) finish(summary *RunSummary, err error) {
	summary.Duration = time.Since(summary.StartedAt)
	if err != nil {
		summary.Error = err.Error()
	}
	r.mu.Lock()
	r.lastRun = summary
	r.mu.Unlock()
}
