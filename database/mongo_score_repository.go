package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cfb-picks/logging"
	"cfb-picks/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoScoreRepository stores one cumulative score document per user. Each
// document carries the ledger of pick ids already counted so an increment can
// be retried without double counting.
type MongoScoreRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

// NewMongoScoreRepository creates a new MongoDB score repository
func NewMongoScoreRepository(db *MongoDB) *MongoScoreRepository {
	return newMongoScoreRepository(db.GetCollection(ScoresCollection))
}

func newMongoScoreRepository(collection *mongo.Collection) *MongoScoreRepository {
	return &MongoScoreRepository{
		collection: collection,
		logger:     logging.WithPrefix("mongo_score_repo"),
	}
}

// EnsureIndexes creates the unique user_id index and the leaderboard sort index
func (r *MongoScoreRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "correct_picks", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create score indexes: %w", err)
	}
	return nil
}

// IncrementScore adds delta to the user's counters and records pickID in the
// ledger in a single atomic update, creating the score document if needed.
// It reports false without changing anything when the pick was already applied.
func (r *MongoScoreRepository) IncrementScore(ctx context.Context, userID, pickID primitive.ObjectID, delta models.ScoreDelta) (bool, error) {
	applied, err := r.incrementOnce(ctx, userID, pickID, delta)
	if !errors.Is(err, ErrDuplicate) {
		return applied, err
	}

	// The upsert collided with an existing document for this user. Either the
	// ledger already holds the pick or a concurrent first insert won the race.
	already, err := r.hasApplied(ctx, userID, pickID)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	r.logger.Debugf("Retrying increment for user %s after concurrent insert", userID.Hex())
	applied, err = r.incrementOnce(ctx, userID, pickID, delta)
	if errors.Is(err, ErrDuplicate) {
		// second collision can only mean the ledger now holds the pick
		return false, nil
	}
	return applied, err
}

func (r *MongoScoreRepository) incrementOnce(ctx context.Context, userID, pickID primitive.ObjectID, delta models.ScoreDelta) (bool, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	now := time.Now()
	filter := bson.M{
		"user_id":       userID,
		"applied_picks": bson.M{"$ne": pickID},
	}
	update := bson.M{
		"$inc": bson.M{
			"correct_picks":   delta.Correct,
			"incorrect_picks": delta.Incorrect,
			"total_picks":     delta.Total,
		},
		"$push":        bson.M{"applied_picks": pickID},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, ErrDuplicate
		}
		return false, fmt.Errorf("failed to increment score for user %s: %w", userID.Hex(), err)
	}
	return result.ModifiedCount > 0 || result.UpsertedCount > 0, nil
}

func (r *MongoScoreRepository) hasApplied(ctx context.Context, userID, pickID primitive.ObjectID) (bool, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "applied_picks": pickID})
	if err != nil {
		return false, fmt.Errorf("failed to read score ledger for user %s: %w", userID.Hex(), err)
	}
	return n > 0, nil
}

// FindByUser returns the user's score, or ErrNotFound if nothing has been scored yet
func (r *MongoScoreRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Score, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var score models.Score
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&score); err != nil {
		return nil, translateError(err)
	}
	return &score, nil
}

// Leaderboard joins scores with user display fields, ordered by correct picks
// descending then username ascending, and assigns positional ranks
func (r *MongoScoreRepository) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	ctx, cancel := WithLongTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         UsersCollection,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{
			"_id":             0,
			"first_name":      "$user.first_name",
			"last_name":       "$user.last_name",
			"username":        "$user.username",
			"correct_picks":   1,
			"incorrect_picks": 1,
			"total_picks":     1,
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "correct_picks", Value: -1},
			{Key: "username", Value: 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.LeaderboardEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}
	return models.RankEntries(entries), nil
}
