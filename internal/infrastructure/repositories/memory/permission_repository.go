package memory

import (
	"context"
	"sync"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

type permKey struct {
	user domain.UserID
	kind domain.PermissionKind
}

type MemoryPermissionRepository struct {
	entries map[domain.ChannelID]map[permKey]struct{}
	mu      sync.RWMutex
}

func NewMemoryPermissionRepository() ports.PermissionRepository {
	return &MemoryPermissionRepository{
		entries: make(map[domain.ChannelID]map[permKey]struct{}),
	}
}

func (r *MemoryPermissionRepository) Add(ctx context.Context, channel domain.ChannelID, user domain.UserID, kind domain.PermissionKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[channel] == nil {
		r.entries[channel] = make(map[permKey]struct{})
	}
	r.entries[channel][permKey{user: user, kind: kind}] = struct{}{}
	return nil
}

func (r *MemoryPermissionRepository) Remove(ctx context.Context, channel domain.ChannelID, user domain.UserID, kind domain.PermissionKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if keys, ok := r.entries[channel]; ok {
		delete(keys, permKey{user: user, kind: kind})
	}
	return nil
}

func (r *MemoryPermissionRepository) List(ctx context.Context, channel domain.ChannelID, kind domain.PermissionKind) ([]domain.UserID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.UserID
	for key := range r.entries[channel] {
		if key.kind == kind {
			out = append(out, key.user)
		}
	}
	return out, nil
}

func (r *MemoryPermissionRepository) DeleteChannel(ctx context.Context, channel domain.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, channel)
	return nil
}
