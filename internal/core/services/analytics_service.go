package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	"tempvoice/pkg/batch"
)

type analyticsService struct {
	events    ports.EventRepository
	ownership ports.OwnershipService
	batcher   *batch.Batcher[*domain.Event]
	logger    *zap.Logger
}

// NewAnalyticsService buffers event rows and flushes them in batches so
// recording stays off the voice-handling hot path.
func NewAnalyticsService(
	events ports.EventRepository,
	ownership ports.OwnershipService,
	batchSize int,
	flushInterval time.Duration,
	logger *zap.Logger,
) ports.AnalyticsService {
	s := &analyticsService{
		events:    events,
		ownership: ownership,
		logger:    logger,
	}
	s.batcher = batch.New(batchSize, flushInterval, s.flushBatch)
	return s
}

func (s *analyticsService) flushBatch(ctx context.Context, items []*domain.Event) error {
	if err := s.events.Record(ctx, items...); err != nil {
		s.logger.Warn("event batch write failed",
			zap.Int("events", len(items)), zap.Error(err))
		return err
	}
	return nil
}

func (s *analyticsService) RecordEvent(ev *domain.Event) {
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now()
	}
	s.batcher.Add(ev)
}

func (s *analyticsService) Stats(ctx context.Context, guild domain.GuildID, since time.Time) (*domain.GuildStats, error) {
	// drain pending rows first so the dashboard never lags a full interval
	if err := s.batcher.Flush(ctx); err != nil {
		s.logger.Warn("pre-stats flush failed", zap.Error(err))
	}
	return s.events.Stats(ctx, guild, since)
}

func (s *analyticsService) ActiveChannels(ctx context.Context) []domain.ActiveChannel {
	now := time.Now()
	channels := s.ownership.Snapshot(ctx)

	out := make([]domain.ActiveChannel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, domain.ActiveChannel{
			ChannelID: ch.ID,
			GuildID:   ch.GuildID,
			OwnerID:   ch.OwnerID,
			CreatedAt: ch.CreatedAt,
			Age:       now.Sub(ch.CreatedAt),
		})
	}
	return out
}

func (s *analyticsService) Flush(ctx context.Context) error {
	return s.batcher.Flush(ctx)
}
