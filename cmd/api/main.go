package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"readiness-backend/internal/app"
	"readiness-backend/internal/config"
	"readiness-backend/internal/cron"
	"readiness-backend/internal/handlers"
	"readiness-backend/internal/logging"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger, err := logging.InitLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() && cfg.Storage.Driver == "local" {
		logger.Warn("snapshots are archived to local disk in production", zap.String("dir", cfg.Storage.Dir))
	}

	// 3. Database, sources, readiness service and snapshot archive
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer a.Close()

	// 4. Background snapshot job
	var snapshotterDone <-chan struct{}
	if cfg.Snapshot.Enabled {
		snapshotterDone = cron.NewSnapshotter(a.Store, a.Archiver, cfg.Snapshot.Interval, logger).Start(ctx)
	}

	// 5. Router
	h := handlers.NewReadinessHandler(a.Service, a.Archiver, logger.Named("http"))
	router := handlers.NewRouter(handlers.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}, a.DB, h, logger)

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Server stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if snapshotterDone != nil {
		select {
		case <-snapshotterDone:
		case <-shutdownCtx.Done():
			logger.Warn("snapshotter still running at shutdown")
		}
	}

	logger.Info("Server exited properly")
}
