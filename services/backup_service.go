package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cfb-picks/database"
	"cfb-picks/logging"

	"github.com/google/uuid"
)

const backupTimestampLayout = "2006-01-02_15-04-05"

// CollectionStore dumps and restores whole collections as JSON lines
type CollectionStore interface {
	DumpCollection(ctx context.Context, name string, w io.Writer) (int, error)
	RestoreCollection(ctx context.Context, name string, r io.Reader) (int, error)
}

// Uploader copies a backup file to remote storage
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader) (string, error)
}

type BackupConfig struct {
	BackupDir     string
	Collections   []string
	BackupTime    string // HH:MM, local time
	RetentionDays int
}

type BackupService struct {
	store    CollectionStore
	uploader Uploader
	config   BackupConfig
	logger   *logging.Logger
	now      func() time.Time

	lastBackupDate string
}

type BackupInfo struct {
	Timestamp   string    `json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
	Size        int64     `json:"size"`
	Collections []string  `json:"collections"`
}

type backupMetadata struct {
	ID          string         `json:"id"`
	Timestamp   string         `json:"timestamp"`
	CreatedAt   time.Time      `json:"created_at"`
	Collections []string       `json:"collections"`
	Documents   map[string]int `json:"documents"`
	Version     string         `json:"version"`
}

func NewBackupService(store CollectionStore, uploader Uploader, config BackupConfig) *BackupService {
	if len(config.Collections) == 0 {
		config.Collections = []string{
			database.UsersCollection,
			database.PicksCollection,
			database.ScoresCollection,
			database.GamesCollection,
		}
	}
	if config.BackupTime == "" {
		config.BackupTime = "03:00"
	}
	return &BackupService{
		store:    store,
		uploader: uploader,
		config:   config,
		logger:   logging.WithPrefix("BackupService"),
		now:      time.Now,
	}
}

// CreateBackup dumps every configured collection into a new timestamped
// directory and returns its path
func (bs *BackupService) CreateBackup(ctx context.Context) (string, error) {
	timestamp := bs.now().Format(backupTimestampLayout)
	backupPath := filepath.Join(bs.config.BackupDir, "backup_"+timestamp)
	bs.logger.Infof("Starting backup to %s", backupPath)

	if err := os.MkdirAll(backupPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	meta := backupMetadata{
		ID:          uuid.NewString(),
		Timestamp:   timestamp,
		CreatedAt:   bs.now().UTC(),
		Collections: bs.config.Collections,
		Documents:   make(map[string]int),
		Version:     "1.0",
	}

	for _, name := range bs.config.Collections {
		n, err := bs.backupCollection(ctx, name, backupPath)
		if err != nil {
			return backupPath, fmt.Errorf("failed to backup collection %s: %w", name, err)
		}
		meta.Documents[name] = n
		bs.logger.Infof("Backed up %d documents from collection %s", n, name)
	}

	if err := writeMetadata(backupPath, meta); err != nil {
		bs.logger.Warnf("Failed to create backup metadata: %v", err)
	}

	if bs.uploader != nil {
		if err := bs.upload(ctx, backupPath, meta); err != nil {
			bs.logger.Errorf("Backup upload failed: %v", err)
		}
	}

	bs.logger.Infof("Backup completed successfully at %s", backupPath)
	return backupPath, nil
}

func (bs *BackupService) backupCollection(ctx context.Context, name, backupPath string) (int, error) {
	file, err := os.Create(filepath.Join(backupPath, name+".json"))
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return bs.store.DumpCollection(ctx, name, file)
}

func writeMetadata(backupPath string, meta backupMetadata) error {
	file, err := os.Create(filepath.Join(backupPath, "metadata.json"))
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(meta)
}

func (bs *BackupService) upload(ctx context.Context, backupPath string, meta backupMetadata) error {
	dir := filepath.Base(backupPath) + "-" + meta.ID[:8]
	files := append([]string{"metadata.json"}, collectionFiles(meta.Collections)...)

	for _, name := range files {
		f, err := os.Open(filepath.Join(backupPath, name))
		if err != nil {
			return err
		}
		key, err := bs.uploader.Upload(ctx, dir+"/"+name, f)
		f.Close()
		if err != nil {
			return err
		}
		bs.logger.Debugf("Uploaded %s", key)
	}
	bs.logger.Infof("Uploaded %d backup files as %s", len(files), dir)
	return nil
}

func collectionFiles(collections []string) []string {
	files := make([]string, len(collections))
	for i, c := range collections {
		files[i] = c + ".json"
	}
	return files
}

// CleanupOldBackups removes backup directories older than the retention
func (bs *BackupService) CleanupOldBackups() (int, error) {
	if bs.config.RetentionDays <= 0 {
		bs.logger.Info("Backup cleanup disabled (retention days <= 0)")
		return 0, nil
	}

	cutoff := bs.now().AddDate(0, 0, -bs.config.RetentionDays)
	entries, err := os.ReadDir(bs.config.BackupDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		created, ok := backupTime(entry)
		if !ok || !created.Before(cutoff) {
			continue
		}
		backupPath := filepath.Join(bs.config.BackupDir, entry.Name())
		if err := os.RemoveAll(backupPath); err != nil {
			bs.logger.Warnf("Failed to remove old backup %s: %v", backupPath, err)
			continue
		}
		bs.logger.Infof("Removed old backup: %s", entry.Name())
		deleted++
	}

	bs.logger.Infof("Cleanup completed. Removed %d old backups", deleted)
	return deleted, nil
}

// backupTime parses the timestamp out of a backup_YYYY-MM-DD_HH-MM-SS directory name
func backupTime(entry os.DirEntry) (time.Time, bool) {
	if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "backup_") {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(backupTimestampLayout, strings.TrimPrefix(entry.Name(), "backup_"), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ListBackups returns available backups, oldest first
func (bs *BackupService) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(bs.config.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		created, ok := backupTime(entry)
		if !ok {
			continue
		}
		backupPath := filepath.Join(bs.config.BackupDir, entry.Name())
		info := BackupInfo{
			Timestamp:   strings.TrimPrefix(entry.Name(), "backup_"),
			CreatedAt:   created,
			Size:        dirSize(backupPath),
			Collections: bs.config.Collections,
		}
		if meta, err := readMetadata(backupPath); err == nil {
			info.Collections = meta.Collections
		}
		backups = append(backups, info)
	}
	return backups, nil
}

func readMetadata(backupPath string) (*backupMetadata, error) {
	data, err := os.ReadFile(filepath.Join(backupPath, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta backupMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// RestoreBackup replaces the given collections (all when empty) with the
// contents of the backup taken at timestamp
func (bs *BackupService) RestoreBackup(ctx context.Context, timestamp string, collections []string) error {
	backupPath := filepath.Join(bs.config.BackupDir, "backup_"+timestamp)
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup not found: %s", backupPath)
	}
	if len(collections) == 0 {
		collections = bs.config.Collections
	}

	for _, name := range collections {
		f, err := os.Open(filepath.Join(backupPath, name+".json"))
		if err != nil {
			return fmt.Errorf("backup file for %s not found: %w", name, err)
		}
		bs.logger.Warnf("Replacing collection %s from backup %s", name, timestamp)
		n, err := bs.store.RestoreCollection(ctx, name, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to restore collection %s: %w", name, err)
		}
		bs.logger.Infof("Restored %d documents to collection %s", n, name)
	}
	return nil
}

// RunIfDue takes the daily backup once the configured time has passed and
// then applies retention. It is meant to be called on an hourly Scheduler.
func (bs *BackupService) RunIfDue(ctx context.Context) error {
	now := bs.now()
	today := now.Format("2006-01-02")
	if now.Format("15:04") < bs.config.BackupTime || bs.lastBackupDate == today {
		return nil
	}

	bs.logger.Info("Starting scheduled backup")
	if _, err := bs.CreateBackup(ctx); err != nil {
		return fmt.Errorf("scheduled backup failed: %w", err)
	}
	bs.lastBackupDate = today

	if _, err := bs.CleanupOldBackups(); err != nil {
		bs.logger.Errorf("Backup cleanup failed: %v", err)
	}
	return nil
}
