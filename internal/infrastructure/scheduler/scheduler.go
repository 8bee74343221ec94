package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tempvoice/internal/core/ports"
	"tempvoice/internal/core/services"
	"tempvoice/internal/infrastructure/monitoring"
)

// Scheduler drives the periodic maintenance jobs: the orphan sweep, rate
// limiter and interaction guard garbage collection, and event retention.
type Scheduler struct {
	cron      *cron.Cron
	lifecycle ports.LifecycleService
	limiter   ports.RateLimiter
	guard     *services.InteractionGuard
	events    ports.EventRepository
	analytics ports.AnalyticsService
	metrics   *monitoring.PrometheusCollector
	retention time.Duration
	logger    *zap.Logger
}

func NewScheduler(
	lifecycle ports.LifecycleService,
	limiter ports.RateLimiter,
	guard *services.InteractionGuard,
	events ports.EventRepository,
	analytics ports.AnalyticsService,
	metrics *monitoring.PrometheusCollector,
	retention time.Duration,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		lifecycle: lifecycle,
		limiter:   limiter,
		guard:     guard,
		events:    events,
		analytics: analytics,
		metrics:   metrics,
		retention: retention,
		logger:    logger,
	}
}

// Start registers the jobs and starts the cron loop. sweepSpec is a standard
// five-field cron expression.
func (s *Scheduler) Start(sweepSpec string) error {
	if _, err := s.cron.AddFunc(sweepSpec, s.runSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 5m", s.runGC); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.runPrune); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 1m", s.refreshGauges); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("sweep_spec", sweepSpec))
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.lifecycle.Sweep(ctx)
	if err != nil {
		s.logger.Warn("sweep finished with errors", zap.Int("deleted", deleted), zap.Error(err))
	}
	if deleted > 0 {
		s.metrics.RecordSweepDeleted(deleted)
		s.logger.Info("sweep removed stale channels", zap.Int("deleted", deleted))
	}
}

func (s *Scheduler) runGC() {
	buckets := s.limiter.GC()
	flows := s.guard.GC()
	if buckets > 0 || flows > 0 {
		s.logger.Debug("gc pass",
			zap.Int("rate_buckets", buckets),
			zap.Int("stale_flows", flows),
		)
	}
}

func (s *Scheduler) refreshGauges() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.metrics.SetActiveChannels(len(s.analytics.ActiveChannels(ctx)))
}

func (s *Scheduler) runPrune() {
	if s.retention <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.events.Prune(ctx, time.Now().Add(-s.retention))
	if err != nil {
		s.logger.Warn("event prune failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("pruned expired events", zap.Int64("removed", removed))
	}
}
