package database

import (
	"context"
	"fmt"
	"time"

	"cfb-picks/logging"
	"cfb-picks/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoGameRepository stores the local copy of external games. Only the
// scored/scored_at fields are written by this system; every other field is
// refreshed from the results source.
type MongoGameRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

func NewMongoGameRepository(db *MongoDB) *MongoGameRepository {
	return newMongoGameRepository(db.GetCollection(GamesCollection))
}

func newMongoGameRepository(collection *mongo.Collection) *MongoGameRepository {
	return &MongoGameRepository{
		collection: collection,
		logger:     logging.WithPrefix("mongo_game_repo"),
	}
}

// EnsureIndexes creates the unique game id index and the unscored-final lookup index
func (r *MongoGameRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "final", Value: 1}, {Key: "scored", Value: 1}}},
		{Keys: bson.D{{Key: "season", Value: 1}, {Key: "week", Value: 1}, {Key: "date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create game indexes: %w", err)
	}
	return nil
}

// RecordResults stores finalized results from the source. It never touches
// the scored flag of an existing game.
func (r *MongoGameRepository) RecordResults(ctx context.Context, results []models.GameResult) error {
	games := make([]models.Game, 0, len(results))
	for i := range results {
		games = append(games, results[i].ToGame())
	}
	_, err := r.UpsertGames(ctx, games)
	return err
}

// UpsertGames bulk upserts source-owned game fields and returns how many
// documents were inserted or changed. New games start unscored.
func (r *MongoGameRepository) UpsertGames(ctx context.Context, games []models.Game) (int64, error) {
	if len(games) == 0 {
		return 0, nil
	}

	ctx, cancel := WithLongTimeout(ctx)
	defer cancel()

	operations := make([]mongo.WriteModel, 0, len(games))
	for _, game := range games {
		update := bson.M{
			"$set": bson.M{
				"season":       game.Season,
				"week":         game.Week,
				"date":         game.Date,
				"home":         game.Home,
				"away":         game.Away,
				"home_score":   game.HomeScore,
				"away_score":   game.AwayScore,
				"state":        game.State,
				"final":        game.Final,
				"winning_side": game.WinningSide,
			},
			"$setOnInsert": bson.M{
				"id":     game.ID,
				"scored": false,
			},
		}
		operations = append(operations, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": game.ID}).
			SetUpdate(update).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("bulk upsert of %d games failed: %w", len(games), err)
	}

	changed := result.UpsertedCount + result.ModifiedCount
	r.logger.Debugf("Upserted %d games (inserted=%d modified=%d)", len(games), result.UpsertedCount, result.ModifiedCount)
	return changed, nil
}

// FindUnscoredFinal returns finalized games whose picks have not been scored yet,
// oldest first
func (r *MongoGameRepository) FindUnscoredFinal(ctx context.Context) ([]*models.Game, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	filter := bson.M{"final": true, "scored": bson.M{"$ne": true}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find unscored games: %w", err)
	}
	defer cursor.Close(ctx)

	var games []*models.Game
	if err := cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("failed to decode games: %w", err)
	}
	return games, nil
}

// MarkScored flags a game as fully scored
func (r *MongoGameRepository) MarkScored(ctx context.Context, gameID string) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{"scored": true, "scored_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"id": gameID}, update)
	if err != nil {
		return fmt.Errorf("failed to mark game %s scored: %w", gameID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to mark game %s scored: %w", gameID, ErrNotFound)
	}
	return nil
}

// FindByID returns one game by its external id
func (r *MongoGameRepository) FindByID(ctx context.Context, gameID string) (*models.Game, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var game models.Game
	if err := r.collection.FindOne(ctx, bson.M{"id": gameID}).Decode(&game); err != nil {
		return nil, translateError(err)
	}
	return &game, nil
}

// ListGames returns the games of a season (all seasons when season is 0),
// sorted by kickoff then home team
func (r *MongoGameRepository) ListGames(ctx context.Context, season int) ([]*models.Game, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if season > 0 {
		filter["season"] = season
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "home", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find games for season %d: %w", season, err)
	}
	defer cursor.Close(ctx)

	var games []*models.Game
	if err := cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("failed to decode games: %w", err)
	}
	return games, nil
}
