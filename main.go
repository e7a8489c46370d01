package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cfb-picks/config"
	"cfb-picks/database"
	"cfb-picks/handlers"
	"cfb-picks/logging"
	"cfb-picks/services"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.ShouldLogToFile() {
		logFile, err := logging.OpenLogFile(cfg.GetLogDir(), cfg.Logging.Prefix)
		if err != nil {
			logging.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()
		logging.Configure(cfg.ToLoggingConfig(), logFile)
	} else {
		logging.Configure(cfg.ToLoggingConfig())
	}

	logging.Info("Starting CFB Picks server")
	cfg.LogConfiguration()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewMongoConnection(cfg.ToDatabaseConfig())
	if err != nil {
		logging.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	userRepo := database.NewMongoUserRepository(db)
	gameRepo := database.NewMongoGameRepository(db)
	pickRepo := database.NewMongoPickRepository(db)
	scoreRepo := database.NewMongoScoreRepository(db)

	indexCtx, cancel := database.WithLongTimeout(ctx)
	if err := database.EnsureAllIndexes(indexCtx, userRepo, gameRepo, pickRepo, scoreRepo); err != nil {
		cancel()
		logging.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	if n, err := userRepo.CountUsers(ctx); err != nil {
		logging.Warnf("Failed to count users: %v", err)
	} else {
		logging.Infof("Registered users: %d", n)
	}

	var (
		runLock          services.RunLock
		leaderboardCache *database.RedisLeaderboardCache
	)
	if cfg.IsRedisEnabled() {
		rdb := redis.NewClient(cfg.ToRedisOptions())
		defer rdb.Close()
		pingCtx, cancel := database.WithShortTimeout(ctx)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logging.Warnf("Redis unavailable at %s, continuing without run lock and cache: %v", cfg.Redis.Addr, err)
		} else {
			runLock = database.NewRedisRunLock(rdb, database.ReconcilerLockKey, cfg.Scoring.LockTTL)
			leaderboardCache = database.NewRedisLeaderboardCache(rdb, cfg.Scoring.LeaderboardCache)
			logging.Infof("Redis connected at %s", cfg.Redis.Addr)
		}
	}

	teamService := services.NewTeamService()
	emailService := services.NewEmailService(cfg.ToEmailConfig(), cfg.App.BaseURL)
	if !emailService.IsConfigured() {
		logging.Warn("SMTP is not configured, verification emails will not be sent")
	}

	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry).
		RequireVerifiedEmail(cfg.Auth.RequireVerifiedEmail)
	userService := services.NewUserService(userRepo, teamService, emailService)
	pickService := services.NewPickService(pickRepo, gameRepo, cfg.App.CurrentSeason).
		LockAtKickoff(cfg.App.LockPicksAtKickoff)

	var leaderboardService *services.LeaderboardService
	if leaderboardCache != nil {
		leaderboardService = services.NewLeaderboardService(scoreRepo, leaderboardCache)
	} else {
		leaderboardService = services.NewLeaderboardService(scoreRepo, nil)
	}

	var (
		schedulers []*services.Scheduler
		reconciler *services.ScoringReconciler
	)

	if cfg.Scoring.Enabled {
		espn := services.NewESPNService(cfg.Scoring.ESPNBaseURL, cfg.App.CurrentSeason, cfg.Scoring.ESPNTimeout)
		if !espn.HealthCheck(ctx) {
			logging.Warnf("ESPN API at %s is not responding, scoring will retry on schedule", cfg.Scoring.ESPNBaseURL)
		}

		reconciler = services.NewScoringReconciler(espn, gameRepo, pickRepo, scoreRepo)
		if runLock != nil {
			reconciler.WithRunLock(runLock)
		}
		if leaderboardCache != nil {
			reconciler.WithLeaderboardCache(leaderboardCache)
		}
		if cfg.IsKafkaEnabled() {
			publisher := services.NewScoreEventPublisher(services.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
			defer publisher.Close()
			reconciler.WithEventPublisher(publisher)
		}

		gameSync := services.NewGameSyncService(espn, gameRepo)
		schedulers = append(schedulers,
			services.NewScheduler("game-sync", gameSync.Sync, cfg.Scoring.SyncInterval),
			services.NewScheduler("scoring", reconciler.Run, cfg.Scoring.Interval),
		)
	} else {
		logging.Warn("Scoring is disabled, picks will not be graded by this process")
	}

	if cfg.Backup.Enabled {
		var uploader services.Uploader
		if cfg.IsS3Enabled() {
			s3Uploader, err := services.NewS3Uploader(ctx, cfg.ToS3Config())
			if err != nil {
				logging.Warnf("S3 uploads disabled: %v", err)
			} else {
				uploader = s3Uploader
			}
		}
		backupService := services.NewBackupService(db, uploader, cfg.ToBackupConfig())
		schedulers = append(schedulers, services.NewScheduler("backup", backupService.RunIfDue, time.Hour))
	}

	for _, s := range schedulers {
		if err := s.Start(ctx); err != nil {
			logging.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	deps := handlers.Dependencies{
		Auth:          authService,
		Users:         userService,
		Picks:         pickService,
		Leaderboard:   leaderboardService,
		Teams:         teamService,
		Database:      db,
		SecureCookies: cfg.Server.UseTLS || cfg.Server.BehindProxy,
		BehindProxy:   cfg.Server.BehindProxy,
	}
	if reconciler != nil {
		deps.Scoring = reconciler
	}

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		var err error
		if cfg.Server.UseTLS {
			logging.Infof("HTTPS server starting on %s", srv.Addr)
			err = srv.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			logging.Infof("HTTP server starting on %s", srv.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf("Server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("HTTP shutdown failed: %v", err)
	}
	for _, s := range schedulers {
		s.Stop()
	}
	logging.Info("Server stopped")
}
