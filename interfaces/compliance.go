package interfaces

import (
	"cfb-picks/database"
	"cfb-picks/services"

	"github.com/segmentio/kafka-go"
)

// Interface compliance checks - these will fail to compile if an implementation drifts
var (
	// Handler-facing services
	_ AuthService        = (*services.AuthService)(nil)
	_ UserService        = (*services.UserService)(nil)
	_ PickService        = (*services.PickService)(nil)
	_ LeaderboardService = (*services.LeaderboardService)(nil)
	_ TeamCatalog        = (*services.TeamService)(nil)
	_ ReconcilerStatus   = (*services.ScoringReconciler)(nil)
	_ HealthChecker      = (*database.MongoDB)(nil)

	// Scoring core stores
	_ services.ResultsSource    = (*services.ESPNService)(nil)
	_ services.GameStore        = (*database.MongoGameRepository)(nil)
	_ services.PickStore        = (*database.MongoPickRepository)(nil)
	_ services.ScoreStore       = (*database.MongoScoreRepository)(nil)
	_ services.RunLock          = (*database.RedisRunLock)(nil)
	_ services.CacheInvalidator = (*database.RedisLeaderboardCache)(nil)
	_ services.KafkaWriter      = (*kafka.Writer)(nil)

	// Supporting services
	_ services.GameLister         = (*services.ESPNService)(nil)
	_ services.GameUpserter       = (*database.MongoGameRepository)(nil)
	_ services.UserRepository     = (*database.MongoUserRepository)(nil)
	_ services.PickRepository     = (*database.MongoPickRepository)(nil)
	_ services.GameReader         = (*database.MongoGameRepository)(nil)
	_ services.ScoreReader        = (*database.MongoScoreRepository)(nil)
	_ services.LeaderboardCache   = (*database.RedisLeaderboardCache)(nil)
	_ services.VerificationMailer = (*services.EmailService)(nil)
	_ services.CollectionStore    = (*database.MongoDB)(nil)
	_ services.Uploader           = (*services.S3Uploader)(nil)

	_ database.IndexBuilder = (*database.MongoUserRepository)(nil)
	_ database.IndexBuilder = (*database.MongoGameRepository)(nil)
	_ database.IndexBuilder = (*database.MongoPickRepository)(nil)
	_ database.IndexBuilder = (*database.MongoScoreRepository)(nil)
)
