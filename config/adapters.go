package config

import (
	"os"

	"cfb-picks/database"
	"cfb-picks/logging"
	"cfb-picks/services"

	"github.com/redis/go-redis/v9"
)

// ToDatabaseConfig converts Config to database.Config
func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Username: c.Database.Username,
		Password: c.Database.Password,
		Database: c.Database.Database,
		Timeout:  c.Database.Timeout,
	}
}

// ToLoggingConfig converts Config to logging.Config
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:       c.Logging.Level,
		Output:      os.Stdout,
		Prefix:      c.Logging.Prefix,
		EnableColor: c.Logging.EnableColor,
	}
}

// ToEmailConfig converts Config to services.EmailConfig
func (c *Config) ToEmailConfig() services.EmailConfig {
	return services.EmailConfig{
		SMTPHost:     c.Email.SMTPHost,
		SMTPPort:     c.Email.SMTPPort,
		SMTPUsername: c.Email.SMTPUsername,
		SMTPPassword: c.Email.SMTPPassword,
		FromEmail:    c.Email.FromEmail,
		FromName:     c.Email.FromName,
	}
}

// ToRedisOptions converts Config to redis.Options
func (c *Config) ToRedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

// ToBackupConfig converts Config to services.BackupConfig
func (c *Config) ToBackupConfig() services.BackupConfig {
	return services.BackupConfig{
		BackupDir:     c.Backup.BackupDir,
		BackupTime:    c.Backup.BackupTime,
		RetentionDays: c.Backup.RetentionDays,
	}
}

// ToS3Config converts Config to services.S3Config
func (c *Config) ToS3Config() services.S3Config {
	return services.S3Config{
		Region:    c.Backup.S3Region,
		Endpoint:  c.Backup.S3Endpoint,
		AccessKey: c.Backup.S3AccessKey,
		SecretKey: c.Backup.S3SecretKey,
		Bucket:    c.Backup.S3Bucket,
		Prefix:    c.Backup.S3Prefix,
	}
}

// ShouldLogToFile returns whether file logging is enabled
func (c *Config) ShouldLogToFile() bool {
	return c.Logging.EnableFile
}

// GetLogDir returns the log directory path
func (c *Config) GetLogDir() string {
	return c.Logging.LogDir
}
