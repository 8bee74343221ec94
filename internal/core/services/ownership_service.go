package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	"tempvoice/pkg/cache"
	"tempvoice/pkg/circuitbreaker"
	"tempvoice/pkg/validation"
)

type ownerRecord struct {
	owner     domain.UserID
	guild     domain.GuildID
	createdAt time.Time
}

type ownershipService struct {
	channels ports.ChannelRepository
	breaker  *circuitbreaker.CircuitBreaker
	cache    *cache.Cache
	logger   *zap.Logger

	mu     sync.RWMutex
	owners map[domain.ChannelID]ownerRecord
}

// NewOwnershipService builds the authoritative owner map. The repository is a
// durable mirror only: reads fall back to it on a map miss, and writes go
// through the circuit breaker so a sick store cannot stall voice handling.
func NewOwnershipService(
	channels ports.ChannelRepository,
	breaker *circuitbreaker.CircuitBreaker,
	c *cache.Cache,
	logger *zap.Logger,
) ports.OwnershipService {
	return &ownershipService{
		channels: channels,
		breaker:  breaker,
		cache:    c,
		logger:   logger,
		owners:   make(map[domain.ChannelID]ownerRecord),
	}
}

func (s *ownershipService) Check(ctx context.Context, id domain.ChannelID, user domain.UserID) bool {
	owner, ok := s.Owner(ctx, id)
	return ok && owner == user
}

func (s *ownershipService) Owner(ctx context.Context, id domain.ChannelID) (domain.UserID, bool) {
	s.mu.RLock()
	rec, ok := s.owners[id]
	s.mu.RUnlock()
	if ok {
		return rec.owner, true
	}

	// map miss: consult the mirror and repopulate on a hit
	ch, err := s.channels.Get(ctx, id)
	if err != nil || ch == nil {
		return "", false
	}

	s.mu.Lock()
	s.owners[id] = ownerRecord{owner: ch.OwnerID, guild: ch.GuildID, createdAt: ch.CreatedAt}
	s.mu.Unlock()

	s.logger.Debug("ownership restored from mirror",
		zap.String("channel_id", string(id)),
		zap.String("owner_id", string(ch.OwnerID)),
	)
	return ch.OwnerID, true
}

func (s *ownershipService) Register(ctx context.Context, id domain.ChannelID, owner domain.UserID, guild domain.GuildID) error {
	if err := validation.ValidateUserID(string(owner)); err != nil {
		return err
	}

	now := time.Now()
	s.mu.Lock()
	s.owners[id] = ownerRecord{owner: owner, guild: guild, createdAt: now}
	s.mu.Unlock()

	s.mirror(ctx, "register", id, func() error {
		return s.channels.Save(ctx, &domain.Channel{
			ID:        id,
			GuildID:   guild,
			OwnerID:   owner,
			CreatedAt: now,
			Settings:  map[string]string{},
		})
	})
	return nil
}

func (s *ownershipService) Transfer(ctx context.Context, id domain.ChannelID, newOwner domain.UserID) (ports.TransferResult, error) {
	if err := validation.ValidateUserID(string(newOwner)); err != nil {
		return ports.TransferResult{}, domain.ErrInvalidTransfer
	}

	s.mu.Lock()
	rec, ok := s.owners[id]
	if !ok {
		s.mu.Unlock()
		return ports.TransferResult{}, domain.ErrInvalidTransfer
	}
	old := rec.owner
	rec.owner = newOwner
	s.owners[id] = rec
	s.mu.Unlock()

	s.mirror(ctx, "transfer", id, func() error {
		return s.channels.UpdateOwner(ctx, id, newOwner)
	})

	s.logger.Info("ownership transferred",
		zap.String("channel_id", string(id)),
		zap.String("old_owner", string(old)),
		zap.String("new_owner", string(newOwner)),
	)
	return ports.TransferResult{OldOwnerID: old, NewOwnerID: newOwner}, nil
}

func (s *ownershipService) Cleanup(ctx context.Context, id domain.ChannelID) error {
	s.mu.Lock()
	delete(s.owners, id)
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.InvalidateChannel("channel", string(id))
	}

	s.mirror(ctx, "cleanup", id, func() error {
		return s.channels.Delete(ctx, id)
	})
	return nil
}

func (s *ownershipService) Restore(ctx context.Context) (int, error) {
	records, err := s.channels.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	for _, ch := range records {
		s.owners[ch.ID] = ownerRecord{owner: ch.OwnerID, guild: ch.GuildID, createdAt: ch.CreatedAt}
	}
	s.mu.Unlock()

	s.logger.Info("ownership map restored", zap.Int("channels", len(records)))
	return len(records), nil
}

func (s *ownershipService) Snapshot(ctx context.Context) []*domain.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Channel, 0, len(s.owners))
	for id, rec := range s.owners {
		out = append(out, &domain.Channel{
			ID:        id,
			GuildID:   rec.guild,
			OwnerID:   rec.owner,
			CreatedAt: rec.createdAt,
		})
	}
	return out
}

// mirror pushes a durable-store write through the breaker. Failures are
// logged and swallowed: the in-memory map stays authoritative.
func (s *ownershipService) mirror(ctx context.Context, op string, id domain.ChannelID, fn func() error) {
	err := s.breaker.Execute(fn)
	if err != nil {
		s.logger.Warn("durable mirror write failed",
			zap.String("op", op),
			zap.String("channel_id", string(id)),
			zap.Error(err),
		)
	}
}
