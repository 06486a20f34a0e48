package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ksebe/streakd/internal/api"
	"github.com/ksebe/streakd/internal/config"
	"github.com/ksebe/streakd/internal/db"
	"github.com/ksebe/streakd/internal/jobs"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/repository/sqlite"
	"github.com/ksebe/streakd/internal/services"
	"github.com/ksebe/streakd/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("streakd server starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("tz_name=%s", cfg.TZName)
	log.Debug("sync_worker_count=%d", cfg.SyncWorkerCount)
	log.Debug("sync_queue_size=%d", cfg.SyncQueueSize)
	log.Debug("sync_uploaders=%d", cfg.SyncUploaders)
	log.Debug("reminder_hour=%d", cfg.ReminderHour)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	syncPool := worker.NewPool(cfg.SyncWorkerCount, cfg.SyncQueueSize)

	users := services.NewRegistry(sqlite.NewKVStore(database.DB), cfg.ReminderHour)
	syncService := services.NewSyncService(users,
		sqlite.NewPracticeEventRepository(database.DB),
		sqlite.NewAppEventRepository(database.DB),
		services.WithUploaders(cfg.SyncUploaders),
	)
	queue := jobs.NewWorkerQueue(syncPool, syncService)
	streakService := services.NewStreakService(users, queue,
		services.WithLocation(cfg.Location()),
		services.WithEventLogger(syncService),
	)

	srv := &api.Server{
		StreakService: streakService,
		SyncService:   syncService,
		DB:            database,
	}

	ctx, cancel := context.WithCancel(context.Background())
	syncPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Stop subscriptions first so no new pushes are queued while draining.
	users.Close()
	log.Debug("stopping sync pool")
	syncPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("streakd server stopped")
	log.Info("===========================================")
}
