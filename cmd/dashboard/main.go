package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tempvoice/internal/core/services"
	httphandlers "tempvoice/internal/handlers/http"
	"tempvoice/internal/infrastructure/monitoring"
	"tempvoice/internal/infrastructure/repositories"
	"tempvoice/pkg/cache"
	"tempvoice/pkg/circuitbreaker"
	"tempvoice/pkg/config"
	"tempvoice/pkg/logger"
)

// Standalone analytics dashboard. Reads the same store the bot writes to,
// so it can run on a separate host without a gateway connection.
func main() {
	path := os.Getenv("TEMPVOICE_CONFIG")
	if path == "" {
		path = "configs/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("repository factory init failed", "error", err)
	}
	defer repoFactory.Close()

	channelRepo := repoFactory.CreateChannelRepository()
	eventRepo := repoFactory.CreateEventRepository()

	ownership := services.NewOwnershipService(
		channelRepo,
		circuitbreaker.New(circuitbreaker.DefaultConfig()),
		cache.New(5*time.Minute),
		zapLogger,
	)
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := ownership.Restore(restoreCtx); err != nil {
		log.Warnw("ownership restore failed", "error", err)
	}
	cancelRestore()

	analytics := services.NewAnalyticsService(
		eventRepo,
		ownership,
		cfg.Analytics.BatchSize,
		cfg.Analytics.FlushInterval,
		zapLogger,
	)
	auth := services.NewAuthService(cfg.Dashboard.Auth.JWTSecret, cfg.Dashboard.Auth.AccessTokenTTL)

	health := monitoring.NewHealthChecker()
	health.AddCheck("store", repoFactory.HealthCheck, 2*time.Second)

	server := httphandlers.NewServer(cfg, analytics, auth, health, log)
	go func() {
		if err := server.Run(); err != nil {
			log.Errorw("dashboard server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dashboard.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warnw("dashboard shutdown failed", "error", err)
	}
}
