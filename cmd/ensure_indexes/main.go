// Command ensure_indexes creates every collection index and lists the result.
package main

import (
	"context"

	"cfb-picks/config"
	"cfb-picks/database"
	"cfb-picks/logging"

	"go.mongodb.org/mongo-driver/bson"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Configure(cfg.ToLoggingConfig())

	db, err := database.NewMongoConnection(cfg.ToDatabaseConfig())
	if err != nil {
		logging.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := database.WithLongTimeout(context.Background())
	defer cancel()

	err = database.EnsureAllIndexes(ctx,
		database.NewMongoUserRepository(db),
		database.NewMongoGameRepository(db),
		database.NewMongoPickRepository(db),
		database.NewMongoScoreRepository(db),
	)
	if err != nil {
		logging.Fatalf("Failed to create indexes: %v", err)
	}

	for _, name := range []string{
		database.UsersCollection,
		database.GamesCollection,
		database.PicksCollection,
		database.ScoresCollection,
	} {
		cursor, err := db.GetCollection(name).Indexes().List(ctx)
		if err != nil {
			logging.Errorf("Failed to list indexes on %s: %v", name, err)
			continue
		}
		var indexes []bson.M
		if err := cursor.All(ctx, &indexes); err != nil {
			logging.Errorf("Failed to read indexes on %s: %v", name, err)
			continue
		}
		for _, idx := range indexes {
			logging.Infof("%s: %v %v unique=%v", name, idx["name"], idx["key"], idx["unique"])
		}
	}
}
