package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cfb-picks/logging"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	Email    EmailConfig    `json:"email"`
	Auth     AuthConfig     `json:"auth"`
	Scoring  ScoringConfig  `json:"scoring"`
	Redis    RedisConfig    `json:"redis"`
	Kafka    KafkaConfig    `json:"kafka"`
	Backup   BackupConfig   `json:"backup"`
	App      AppConfig      `json:"app"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `json:"port"`
	Host            string        `json:"host"`
	UseTLS          bool          `json:"use_tls"`
	BehindProxy     bool          `json:"behind_proxy"`
	CertFile        string        `json:"cert_file"`
	KeyFile         string        `json:"key_file"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string        `json:"host"`
	Port     string        `json:"port"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Database string        `json:"database"`
	Timeout  time.Duration `json:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Prefix      string `json:"prefix"`
	EnableColor bool   `json:"enable_color"`
	LogDir      string `json:"log_dir"`
	EnableFile  bool   `json:"enable_file"`
}

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     string `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	FromEmail    string `json:"from_email"`
	FromName     string `json:"from_name"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret            string        `json:"jwt_secret"`
	TokenExpiry          time.Duration `json:"token_expiry"`
	RequireVerifiedEmail bool          `json:"require_verified_email"`
}

// ScoringConfig controls the reconciler and the schedule sync
type ScoringConfig struct {
	Enabled          bool          `json:"enabled"`
	Interval         time.Duration `json:"interval"`
	SyncInterval     time.Duration `json:"sync_interval"`
	ESPNBaseURL      string        `json:"espn_base_url"`
	ESPNTimeout      time.Duration `json:"espn_timeout"`
	LockTTL          time.Duration `json:"lock_ttl"`
	LeaderboardCache time.Duration `json:"leaderboard_cache"`
}

// RedisConfig is optional; an empty Addr disables the run lock and cache
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig is optional; no brokers disables score events
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// BackupConfig holds backup configuration
type BackupConfig struct {
	Enabled       bool   `json:"enabled"`
	BackupDir     string `json:"backup_dir"`
	BackupTime    string `json:"backup_time"`
	RetentionDays int    `json:"retention_days"`
	S3Bucket      string `json:"s3_bucket"`
	S3Prefix      string `json:"s3_prefix"`
	S3Region      string `json:"s3_region"`
	S3Endpoint    string `json:"s3_endpoint"`
	S3AccessKey   string `json:"s3_access_key"`
	S3SecretKey   string `json:"s3_secret_key"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment   string `json:"environment"`
	IsDevelopment bool   `json:"is_development"`
	CurrentSeason int    `json:"current_season"`
	BaseURL       string `json:"base_url"`
	// LockPicksAtKickoff rejects picks once a game has started. Off by
	// default; late picks are stored but never change an applied score.
	LockPicksAtKickoff bool `json:"lock_picks_at_kickoff"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Debugf("Could not load .env file: %v", err)
	}

	environment := getEnv("ENVIRONMENT", "development")
	isDevelopment := strings.ToLower(environment) == "development"

	serverPort := getEnv("SERVER_PORT", "8080")

	config := &Config{
		Server: ServerConfig{
			Port:            serverPort,
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			UseTLS:          getBoolEnv("USE_TLS", false),
			BehindProxy:     getBoolEnv("BEHIND_PROXY", false),
			CertFile:        getEnv("TLS_CERT_FILE", "server.crt"),
			KeyFile:         getEnv("TLS_KEY_FILE", "server.key"),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "cfb_picks"),
			Timeout:  getDurationEnv("DB_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Prefix:      getEnv("LOG_PREFIX", "cfb-picks"),
			EnableColor: getBoolEnv("LOG_COLOR", true),
			LogDir:      getEnv("LOG_DIR", "./logs"),
			EnableFile:  getBoolEnv("LOG_FILE", false),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", ""),
			FromName:     getEnv("FROM_NAME", "CFB Picks"),
		},
		Auth: AuthConfig{
			JWTSecret:            getEnv("JWT_SECRET", defaultJWTSecret),
			TokenExpiry:          getDurationEnv("TOKEN_EXPIRY", 7*24*time.Hour),
			RequireVerifiedEmail: getBoolEnv("REQUIRE_VERIFIED_EMAIL", false),
		},
		Scoring: ScoringConfig{
			Enabled:          getBoolEnv("SCORING_ENABLED", true),
			Interval:         getDurationEnv("SCORING_INTERVAL", 10*time.Minute),
			SyncInterval:     getDurationEnv("GAME_SYNC_INTERVAL", time.Hour),
			ESPNBaseURL:      getEnv("ESPN_BASE_URL", ""),
			ESPNTimeout:      getDurationEnv("ESPN_TIMEOUT", 15*time.Second),
			LockTTL:          getDurationEnv("SCORING_LOCK_TTL", 5*time.Minute),
			LeaderboardCache: getDurationEnv("LEADERBOARD_CACHE_TTL", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getListEnv("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_SCORE_TOPIC", "score-events"),
		},
		Backup: BackupConfig{
			Enabled:       getBoolEnv("BACKUP_ENABLED", true),
			BackupDir:     getEnv("BACKUP_DIR", "./backups"),
			BackupTime:    getEnv("BACKUP_TIME", "03:00"),
			RetentionDays: getIntEnv("BACKUP_RETENTION_DAYS", 30),
			S3Bucket:      getEnv("BACKUP_S3_BUCKET", ""),
			S3Prefix:      getEnv("BACKUP_S3_PREFIX", "cfb-picks"),
			S3Region:      getEnv("BACKUP_S3_REGION", "us-east-1"),
			S3Endpoint:    getEnv("BACKUP_S3_ENDPOINT", ""),
			S3AccessKey:   getEnv("BACKUP_S3_ACCESS_KEY", ""),
			S3SecretKey:   getEnv("BACKUP_S3_SECRET_KEY", ""),
		},
		App: AppConfig{
			Environment:   environment,
			IsDevelopment: isDevelopment,
			CurrentSeason: getIntEnv("CURRENT_SEASON", defaultSeason(time.Now())),
			BaseURL:       getEnv("BASE_URL", "http://localhost:"+serverPort),

			LockPicksAtKickoff: getBoolEnv("LOCK_PICKS_AT_KICKOFF", false),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// defaultSeason maps January bowl games onto the previous year's season
func defaultSeason(now time.Time) int {
	if now.Month() < time.March {
		return now.Year() - 1
	}
	return now.Year()
}

// Validate validates the configuration for required fields and sensible values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Server.UseTLS && !c.Server.BehindProxy {
		if c.Server.CertFile == "" || c.Server.KeyFile == "" {
			return fmt.Errorf("TLS certificate and key files are required when USE_TLS=true")
		}
		if _, err := os.Stat(c.Server.CertFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", c.Server.CertFile)
		}
		if _, err := os.Stat(c.Server.KeyFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", c.Server.KeyFile)
		}
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("database port is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.JWTSecret == defaultJWTSecret && !c.App.IsDevelopment {
		return fmt.Errorf("JWT secret must be changed in production")
	}

	if c.Scoring.Enabled && c.Scoring.Interval <= 0 {
		return fmt.Errorf("scoring interval must be positive, got: %v", c.Scoring.Interval)
	}
	if c.Scoring.Enabled && c.Scoring.SyncInterval <= 0 {
		return fmt.Errorf("game sync interval must be positive, got: %v", c.Scoring.SyncInterval)
	}

	if c.App.CurrentSeason < 2000 || c.App.CurrentSeason > 2100 {
		return fmt.Errorf("current season must be between 2000 and 2100, got: %d", c.App.CurrentSeason)
	}

	if c.Backup.Enabled {
		if _, err := time.Parse("15:04", c.Backup.BackupTime); err != nil {
			return fmt.Errorf("backup time must be HH:MM, got: %q", c.Backup.BackupTime)
		}
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}

	return nil
}

// IsEmailConfigured returns true if email service is configured
func (c *Config) IsEmailConfigured() bool {
	return c.Email.SMTPHost != "" &&
		c.Email.SMTPUsername != "" &&
		c.Email.SMTPPassword != "" &&
		c.Email.FromEmail != ""
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) IsRedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) IsKafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func (c *Config) IsS3Enabled() bool {
	return c.Backup.S3Bucket != ""
}

// LogConfiguration logs the current configuration (without sensitive data)
func (c *Config) LogConfiguration() {
	logging.Info("=== Application Configuration ===")
	logging.Infof("Server: %s (TLS: %t, Behind Proxy: %t, Environment: %s)",
		c.GetServerAddress(), c.Server.UseTLS, c.Server.BehindProxy, c.App.Environment)
	logging.Infof("Database: %s:%s/%s (Username: %s, Auth: %t)",
		c.Database.Host, c.Database.Port, c.Database.Database,
		c.Database.Username, c.Database.Password != "")
	logging.Infof("Logging: Level=%s, Prefix=%s, Color=%t, File=%t",
		c.Logging.Level, c.Logging.Prefix, c.Logging.EnableColor, c.Logging.EnableFile)
	logging.Infof("Email: Configured=%t, Host=%s, From=%s",
		c.IsEmailConfigured(), c.Email.SMTPHost, c.Email.FromEmail)
	logging.Infof("Auth: TokenExpiry=%v, RequireVerifiedEmail=%t",
		c.Auth.TokenExpiry, c.Auth.RequireVerifiedEmail)
	logging.Infof("Scoring: Enabled=%t, Interval=%v, SyncInterval=%v, Season=%d, LockPicksAtKickoff=%t",
		c.Scoring.Enabled, c.Scoring.Interval, c.Scoring.SyncInterval, c.App.CurrentSeason, c.App.LockPicksAtKickoff)
	logging.Infof("Redis: Enabled=%t, Addr=%s", c.IsRedisEnabled(), c.Redis.Addr)
	logging.Infof("Kafka: Enabled=%t, Brokers=%s, Topic=%s",
		c.IsKafkaEnabled(), strings.Join(c.Kafka.Brokers, ","), c.Kafka.Topic)
	logging.Infof("Backup: Enabled=%t, Dir=%s, Time=%s, Retention=%d days, S3=%t",
		c.Backup.Enabled, c.Backup.BackupDir, c.Backup.BackupTime, c.Backup.RetentionDays, c.IsS3Enabled())
	logging.Info("================================")
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, dropping blanks
func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
