// Command fixorder densifies column orders to 0..N-1 for every project, or
// only for projects whose orders have gaps or do not start at zero.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/taskboard/internal/config"
	"github.com/Skotchmaster/taskboard/internal/db"
	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/repo"
	"github.com/Skotchmaster/taskboard/internal/service"
)

func main() {
	os.Exit(run())
}

// run keeps every deferred close ahead of the process exit so the event
// writer flushes.
func run() int {
	all := flag.Bool("all", false, "repair every project, not only those with gaps")
	dryRun := flag.Bool("dry-run", false, "report projects that need repair without writing")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall time limit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "cmd", "fixorder")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	ctx = logging.IntoContext(ctx, logger)

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_open_failed", "error", err)
		return 1
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := db.Migrate(ctx, gdb); err != nil {
		logger.Error("db_migrate_failed", "error", err)
		return 1
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 && !*dryRun {
		publisher = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer publisher.Close()

	svc := &service.ColumnService{Repo: &repo.GormRepo{DB: gdb}, Events: publisher}
	report, err := svc.RepairAll(ctx, !*all, *dryRun)
	if err != nil {
		logger.Error("repair_failed", "error", err)
		return 1
	}

	if *dryRun {
		fmt.Printf("scanned %d project(s), %d would be repaired\n", report.Scanned, report.Repaired)
		return 0
	}
	fmt.Printf("scanned %d project(s), repaired %d, moved %d column(s)\n", report.Scanned, report.Repaired, report.Moved)
	if len(report.Failed) > 0 {
		for _, id := range report.Failed {
			fmt.Fprintf(os.Stderr, "failed: %s\n", id)
		}
		return 1
	}
	return 0
}
