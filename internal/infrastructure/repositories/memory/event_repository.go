package memory

import (
	"context"
	"sync"
	"time"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type MemoryEventRepository struct {
	events []*domain.Event
	mu     sync.RWMutex
}

func NewMemoryEventRepository() ports.EventRepository {
	return &MemoryEventRepository{}
}

func (r *MemoryEventRepository) Record(ctx context.Context, events ...*domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ev := range events {
		cp := *ev
		r.events = append(r.events, &cp)
	}
	return nil
}

func (r *MemoryEventRepository) Stats(ctx context.Context, guild domain.GuildID, since time.Time) (*domain.GuildStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.GuildStats{
		GuildID:         guild,
		Since:           since,
		OperationCounts: make(map[string]int64),
	}

	for _, ev := range r.events {
		if ev.GuildID != guild || ev.RecordedAt.Before(since) {
			continue
		}
		switch ev.Kind {
		case domain.EventChannelCreated:
			stats.ChannelsCreated++
		case domain.EventChannelDeleted, domain.EventSweepDeleted:
			stats.ChannelsDeleted++
		case domain.EventOperation:
			stats.Operations++
			stats.OperationCounts[ev.Action]++
		case domain.EventError:
			stats.ErrorCount++
		}
	}
	return stats, nil
}

func (r *MemoryEventRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	var removed int64
	for _, ev := range r.events {
		if ev.RecordedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	r.events = kept
	return removed, nil
}
