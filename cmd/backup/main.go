// Command backup creates or restores database backups. Run without flags in a
// terminal it shows a menu; -create and -restore make it scriptable.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"cfb-picks/config"
	"cfb-picks/database"
	"cfb-picks/logging"
	"cfb-picks/services"

	"golang.org/x/term"
)

func main() {
	create := flag.Bool("create", false, "create a backup and exit")
	restore := flag.String("restore", "", "restore the backup with this timestamp")
	collections := flag.String("collections", "", "comma-separated collections to restore (default all)")
	yes := flag.Bool("yes", false, "skip the restore confirmation")
	flag.Parse()

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

	ctx := context.Background()
	var uploader services.Uploader
	if cfg.IsS3Enabled() {
		if u, err := services.NewS3Uploader(ctx, cfg.ToS3Config()); err != nil {
			logging.Warnf("S3 uploads disabled: %v", err)
		} else {
			uploader = u
		}
	}
	backups := services.NewBackupService(db, uploader, cfg.ToBackupConfig())

	switch {
	case *create:
		performBackup(ctx, backups)
	case *restore != "":
		if !*yes && !confirm(bufio.NewReader(os.Stdin), *restore) {
			fmt.Println("Restore cancelled")
			return
		}
		performRestore(ctx, backups, *restore, splitList(*collections))
	case term.IsTerminal(int(os.Stdin.Fd())):
		menu(ctx, backups)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func menu(ctx context.Context, backups *services.BackupService) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Options:")
	fmt.Println("  [1] Restore from existing backup")
	fmt.Println("  [2] Create new backup")
	fmt.Println("  [3] Exit")
	fmt.Print("Select an option [1-3]: ")

	choice, err := readChoice(reader, 3)
	if err != nil {
		logging.Fatalf("%v", err)
	}

	switch choice {
	case 1:
		list, err := backups.ListBackups()
		if err != nil {
			logging.Fatalf("Failed to list backups: %v", err)
		}
		if len(list) == 0 {
			fmt.Println("No backups found")
			os.Exit(1)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

		for i, b := range list {
			fmt.Printf("  [%d] %s  %s  %.1f MB  %s\n", i+1, b.Timestamp,
				b.CreatedAt.Format("2006-01-02 15:04"), float64(b.Size)/(1024*1024), strings.Join(b.Collections, ","))
		}
		fmt.Printf("Select a backup [1-%d]: ", len(list))
		n, err := readChoice(reader, len(list))
		if err != nil {
			logging.Fatalf("%v", err)
		}
		selected := list[n-1]
		if !confirm(reader, selected.Timestamp) {
			fmt.Println("Restore cancelled")
			return
		}
		performRestore(ctx, backups, selected.Timestamp, nil)
	case 2:
		performBackup(ctx, backups)
	}
}

func performBackup(ctx context.Context, backups *services.BackupService) {
	start := time.Now()
	path, err := backups.CreateBackup(ctx)
	if err != nil {
		logging.Fatalf("Backup failed: %v", err)
	}
	fmt.Printf("Backup written to %s in %v\n", path, time.Since(start).Round(time.Millisecond))
}

func performRestore(ctx context.Context, backups *services.BackupService, timestamp string, collections []string) {
	if err := backups.RestoreBackup(ctx, timestamp, collections); err != nil {
		logging.Fatalf("Restore failed: %v", err)
	}
	fmt.Printf("Restored backup %s\n", timestamp)
}

func readChoice(reader *bufio.Reader, limit int) (int, error) {
	input, err := reader.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > limit {
		return 0, fmt.Errorf("invalid selection %q", strings.TrimSpace(input))
	}
	return n, nil
}

func confirm(reader *bufio.Reader, timestamp string) bool {
	fmt.Printf("This replaces live collections with backup %s. Type 'yes' to continue: ", timestamp)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(strings.ToLower(input)) == "yes"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
