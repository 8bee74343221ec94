package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/services"
	httphandlers "tempvoice/internal/handlers/http"
	"tempvoice/internal/infrastructure/discord"
	"tempvoice/internal/infrastructure/monitoring"
	"tempvoice/internal/infrastructure/repositories"
	"tempvoice/internal/infrastructure/scheduler"
	"tempvoice/pkg/cache"
	"tempvoice/pkg/circuitbreaker"
	"tempvoice/pkg/config"
	"tempvoice/pkg/logger"
	"tempvoice/pkg/tracing"
)

func loadConfig() (*config.Config, error) {
	paths := []string{
		os.Getenv("TEMPVOICE_CONFIG"),
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return config.Load(path)
		}
	}
	return config.Load("configs/config.yaml")
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerEndpoint,
		SampleRate:  1.0,
	})
	if err != nil {
		log.Fatalw("tracing init failed", "error", err)
	}

	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("repository factory init failed", "error", err)
	}
	defer repoFactory.Close()

	channelRepo := repoFactory.CreateChannelRepository()
	permRepo := repoFactory.CreatePermissionRepository()
	eventRepo := repoFactory.CreateEventRepository()

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalw("discord session init failed", "error", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers
	session.State.TrackVoice = true

	surface := discord.NewSurface(session, cfg.Discord.ElevatedRoles, zapLogger)

	ownership := services.NewOwnershipService(
		channelRepo,
		circuitbreaker.New(circuitbreaker.DefaultConfig()),
		cache.New(5*time.Minute),
		zapLogger,
	)
	analytics := services.NewAnalyticsService(
		eventRepo,
		ownership,
		cfg.Analytics.BatchSize,
		cfg.Analytics.FlushInterval,
		zapLogger,
	)
	locks := services.NewChannelLocks()
	lifecycle := services.NewLifecycleService(
		surface,
		ownership,
		permRepo,
		analytics,
		locks,
		services.LifecycleConfig{
			LobbyNames: cfg.Discord.LobbyNames,
			Suffix:     cfg.Channels.Suffix,
			MarkerTTL:  cfg.Channels.DeleteMarkerTTL,
		},
		zapLogger,
	)
	limiter := services.NewRateLimiter(cfg.RuleFor, services.StrictPolicy{
		Threshold: cfg.RateLimits.Strict.Threshold,
		Max:       cfg.RateLimits.Strict.Max,
		Window:    cfg.RateLimits.Strict.Window,
	}, zapLogger)
	guard := services.NewInteractionGuard(cfg.Channels.FlowTimeout)
	guard.SetExpiryNotifier(func(user domain.UserID) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := surface.SendDirectMessage(ctx, user, "Your pending channel action timed out. Open the control panel to try again."); err != nil {
			log.Debugw("flow timeout notice failed", "user_id", string(user), "error", err)
		}
	})
	ops := services.NewOperationService(
		surface, ownership, lifecycle, permRepo, analytics, limiter, locks, zapLogger,
	)

	metrics := monitoring.NewPrometheusCollector()
	discord.NewVoiceEventHandler(lifecycle, metrics, cfg.Discord.CommandTimeout, zapLogger).Register(session)
	discord.NewDispatcher(ops, guard, metrics, cfg.Discord.CommandTimeout, zapLogger).Register(session)

	if err := session.Open(); err != nil {
		log.Fatalw("discord gateway connect failed", "error", err)
	}
	log.Infow("connected to discord", "user", session.State.User.Username)

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 30*time.Second)
	restored, err := ownership.Restore(restoreCtx)
	cancelRestore()
	if err != nil {
		log.Warnw("ownership restore failed, starting empty", "error", err)
	} else if restored > 0 {
		log.Infow("ownership restored", "channels", restored)
	}

	sched := scheduler.NewScheduler(
		lifecycle, limiter, guard, eventRepo, analytics, metrics,
		cfg.Analytics.Retention, zapLogger,
	)
	if err := sched.Start(cfg.Channels.SweepInterval); err != nil {
		log.Fatalw("scheduler start failed", "error", err)
	}

	var dashboard *httphandlers.Server
	if cfg.Dashboard.Enabled {
		health := monitoring.NewHealthChecker()
		health.AddCheck("store", repoFactory.HealthCheck, 2*time.Second)
		health.AddCheck("discord", func(ctx context.Context) error {
			_, err := session.GatewayBot(discordgo.WithContext(ctx))
			return err
		}, 5*time.Second)

		auth := services.NewAuthService(cfg.Dashboard.Auth.JWTSecret, cfg.Dashboard.Auth.AccessTokenTTL)
		dashboard = httphandlers.NewServer(cfg, analytics, auth, health, log)
		go func() {
			if err := dashboard.Run(); err != nil {
				log.Errorw("dashboard server failed", "error", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dashboard.ShutdownTimeout)
	defer cancel()

	if dashboard != nil {
		if err := dashboard.Shutdown(ctx); err != nil {
			log.Warnw("dashboard shutdown failed", "error", err)
		}
	}
	if err := analytics.Flush(ctx); err != nil {
		log.Warnw("analytics flush failed", "error", err)
	}
	if err := session.Close(); err != nil {
		log.Warnw("discord session close failed", "error", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warnw("tracer shutdown failed", "error", err)
	}
}
