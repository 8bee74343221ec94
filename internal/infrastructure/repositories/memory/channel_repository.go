package memory

import (
	"context"
	"sync"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type MemoryChannelRepository struct {
	channels map[domain.ChannelID]*domain.Channel
	mu       sync.RWMutex
}

func NewMemoryChannelRepository() ports.ChannelRepository {
	return &MemoryChannelRepository{
		channels: make(map[domain.ChannelID]*domain.Channel),
	}
}

func (r *MemoryChannelRepository) Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, exists := r.channels[id]
	if !exists {
		return nil, domain.ErrChannelNotFound
	}

	cp := *ch
	return &cp, nil
}

func (r *MemoryChannelRepository) Save(ctx context.Context, ch *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *ch
	r.channels[ch.ID] = &cp
	return nil
}

func (r *MemoryChannelRepository) UpdateOwner(ctx context.Context, id domain.ChannelID, owner domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, exists := r.channels[id]
	if !exists {
		return domain.ErrChannelNotFound
	}

	ch.OwnerID = owner
	return nil
}

func (r *MemoryChannelRepository) Delete(ctx context.Context, id domain.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.channels, id)
	return nil
}

func (r *MemoryChannelRepository) ListByGuild(ctx context.Context, guild domain.GuildID) ([]*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Channel
	for _, ch := range r.channels {
		if ch.GuildID == guild {
			cp := *ch
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryChannelRepository) ListAll(ctx context.Context) ([]*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		cp := *ch
		out = append(out, &cp)
	}
	return out, nil
}
