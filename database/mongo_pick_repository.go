package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cfb-picks/models"
)

// MongoPickRepository stores one pick per (user, game)
type MongoPickRepository struct {
	collection *mongo.Collection
}

// NewMongoPickRepository creates a new MongoDB pick repository
func NewMongoPickRepository(db *MongoDB) *MongoPickRepository {
	return newMongoPickRepository(db.GetCollection(PicksCollection))
}

func newMongoPickRepository(collection *mongo.Collection) *MongoPickRepository {
	return &MongoPickRepository{collection: collection}
}

// EnsureIndexes creates the (user_id, game_id) uniqueness index and the per-game lookup index
func (r *MongoPickRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "game_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "game_id", Value: 1},
				{Key: "applied_to_score", Value: 1},
			},
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create pick indexes: %w", err)
	}
	return nil
}

// UpsertPick records the user's selection for a game, replacing any earlier
// selection. An already-applied pick is not reset.
func (r *MongoPickRepository) UpsertPick(ctx context.Context, userID primitive.ObjectID, gameID string, selection models.Side) (*models.Pick, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	now := time.Now()
	filter := bson.M{"user_id": userID, "game_id": gameID}
	update := bson.M{
		"$set": bson.M{
			"pick":       selection,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"user_id":          userID,
			"game_id":          gameID,
			"applied_to_score": false,
			"created_at":       now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var pick models.Pick
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&pick); err != nil {
		return nil, fmt.Errorf("failed to upsert pick for game %s: %w", gameID, translateError(err))
	}
	return &pick, nil
}

// FindPicksByGame returns every pick submitted for a game
func (r *MongoPickRepository) FindPicksByGame(ctx context.Context, gameID string) ([]*models.Pick, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"game_id": gameID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find picks for game %s: %w", gameID, err)
	}
	defer cursor.Close(ctx)

	var picks []*models.Pick
	if err := cursor.All(ctx, &picks); err != nil {
		return nil, fmt.Errorf("failed to decode picks: %w", err)
	}
	return picks, nil
}

// MarkPickApplied records that a pick has been counted in its user's score
func (r *MongoPickRepository) MarkPickApplied(ctx context.Context, pickID primitive.ObjectID) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{"applied_to_score": true, "applied_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": pickID}, update)
	if err != nil {
		return fmt.Errorf("failed to mark pick %s applied: %w", pickID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to mark pick %s applied: %w", pickID.Hex(), ErrNotFound)
	}
	return nil
}

// FindByUser returns a user's picks
func (r *MongoPickRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Pick, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to find picks for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var picks []*models.Pick
	if err := cursor.All(ctx, &picks); err != nil {
		return nil, fmt.Errorf("failed to decode picks: %w", err)
	}
	return picks, nil
}

// FindByUserAndGame returns the user's pick for one game
func (r *MongoPickRepository) FindByUserAndGame(ctx context.Context, userID primitive.ObjectID, gameID string) (*models.Pick, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var pick models.Pick
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "game_id": gameID}).Decode(&pick)
	if err != nil {
		return nil, translateError(err)
	}
	return &pick, nil
}
