package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/taskboard/internal/config"
	"github.com/Skotchmaster/taskboard/internal/db"
	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/httpserver"
	"github.com/Skotchmaster/taskboard/internal/logging"
	authmw "github.com/Skotchmaster/taskboard/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/taskboard/internal/middleware/logging"
	"github.com/Skotchmaster/taskboard/internal/repo"
	"github.com/Skotchmaster/taskboard/internal/revocation"
	"github.com/Skotchmaster/taskboard/internal/scheduler"
	"github.com/Skotchmaster/taskboard/internal/search"
	"github.com/Skotchmaster/taskboard/internal/service"
	"github.com/Skotchmaster/taskboard/internal/transport"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.NewWithFile(cfg.LogLevel, logging.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var revocations revocation.Store = revocation.NewMemory()
	if cfg.RedisURL != "" {
		rs, err := revocation.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rs.Close()
		revocations = rs
	}

	repository := &repo.GormRepo{DB: gdb}
	taskSvc := &service.TaskService{Repo: repository, Events: publisher}
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		idx := &search.TaskIndex{ES: es, Name: cfg.ESTaskIndex}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = idx.EnsureIndex(ctx)
		cancel()
		if err != nil {
			log.Fatalf("elasticsearch index: %v", err)
		}
		taskSvc.Index = idx
	}
	columnSvc := &service.ColumnService{Repo: repository, Events: publisher}

	var jobs *scheduler.Scheduler
	if cfg.OrderRepairCron != "" {
		jobs = scheduler.New(logger, 5*time.Minute)
		err := jobs.AddJob("column_order_repair", cfg.OrderRepairCron, func(ctx context.Context) error {
			report, err := columnSvc.RepairAll(logging.IntoContext(ctx, logger), true, false)
			if err != nil {
				return err
			}
			logger.Info("column_order_repair_report",
				"scanned", report.Scanned, "repaired", report.Repaired,
				"moved", report.Moved, "failed", len(report.Failed))
			return nil
		})
		if err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		jobs.Start()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = transport.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	} else {
		e.Use(echomw.CORS())
	}

	httpserver.Register(e, &httpserver.Deps{
		ServiceName: cfg.ServiceName,
		DB:          gdb,
		Auth:        authmw.NewBearerAuth(cfg.JWTAccessSecret, revocations),
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Repo:          repository,
			AccessSecret:  cfg.JWTAccessSecret,
			RefreshSecret: cfg.JWTRefreshSecret,
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
			Revocations:   revocations,
		}},
		UserHandler:    &httpserver.UserHTTP{Svc: &service.UserService{Repo: repository}},
		ProjectHandler: &httpserver.ProjectHTTP{Svc: &service.ProjectService{Repo: repository, Events: publisher}},
		ColumnHandler:  &httpserver.ColumnHTTP{Svc: columnSvc},
		TaskHandler:    &httpserver.TaskHTTP{Svc: taskSvc},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	if jobs != nil {
		jobs.Stop()
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("publisher_close_failed", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("stopped")
}
