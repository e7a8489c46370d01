// Command reconcile syncs the schedule and runs one scoring pass, then exits.
// It takes the same run lock as the server so it is safe to run alongside it.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"cfb-picks/config"
	"cfb-picks/database"
	"cfb-picks/logging"
	"cfb-picks/services"

	"github.com/redis/go-redis/v9"
)

func main() {
	skipSync := flag.Bool("skip-sync", false, "do not refresh the schedule before scoring")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Configure(cfg.ToLoggingConfig())
	logger := logging.WithPrefix("Reconcile")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewMongoConnection(cfg.ToDatabaseConfig())
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	gameRepo := database.NewMongoGameRepository(db)
	pickRepo := database.NewMongoPickRepository(db)
	scoreRepo := database.NewMongoScoreRepository(db)
	espn := services.NewESPNService(cfg.Scoring.ESPNBaseURL, cfg.App.CurrentSeason, cfg.Scoring.ESPNTimeout)

	reconciler := services.NewScoringReconciler(espn, gameRepo, pickRepo, scoreRepo)
	if cfg.IsRedisEnabled() {
		rdb := redis.NewClient(cfg.ToRedisOptions())
		defer rdb.Close()
		reconciler.
			WithRunLock(database.NewRedisRunLock(rdb, database.ReconcilerLockKey, cfg.Scoring.LockTTL)).
			WithLeaderboardCache(database.NewRedisLeaderboardCache(rdb, cfg.Scoring.LeaderboardCache))
	}
	if cfg.IsKafkaEnabled() {
		publisher := services.NewScoreEventPublisher(services.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer publisher.Close()
		reconciler.WithEventPublisher(publisher)
	}

	if !*skipSync {
		if err := services.NewGameSyncService(espn, gameRepo).Sync(ctx); err != nil {
			logger.Errorf("Schedule sync failed: %v", err)
		}
	}

	if err := reconciler.Run(ctx); err != nil {
		logger.Errorf("Scoring run failed: %v", err)
		os.Exit(1)
	}

	if s := reconciler.LastRun(); s != nil {
		logger.With("run_id", s.RunID).Infof("Scored %d games, applied %d picks, skipped %d (lock skipped: %t)",
			s.GamesScored, s.PicksApplied, s.PicksSkipped, s.LockSkipped)
	}
}
