package ports

import (
	"context"
	"time"

	"tempvoice/internal/core/domain"
)

// ChannelRepository is the durable mirror of channel ownership records. The
// in-memory owner map is authoritative for live decisions; the repository
// exists for crash recovery and the dashboard.
type ChannelRepository interface {
	Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error)
	Save(ctx context.Context, ch *domain.Channel) error
	UpdateOwner(ctx context.Context, id domain.ChannelID, owner domain.UserID) error
	Delete(ctx context.Context, id domain.ChannelID) error
	ListByGuild(ctx context.Context, guild domain.GuildID) ([]*domain.Channel, error)
	ListAll(ctx context.Context) ([]*domain.Channel, error)
}

// PermissionRepository stores trust/block audit rows per channel and user.
// These are advisory; the live overwrite on the channel is the operative
// state.
type PermissionRepository interface {
	Add(ctx context.Context, channel domain.ChannelID, user domain.UserID, kind domain.PermissionKind) error
	Remove(ctx context.Context, channel domain.ChannelID, user domain.UserID, kind domain.PermissionKind) error
	List(ctx context.Context, channel domain.ChannelID, kind domain.PermissionKind) ([]domain.UserID, error)
	DeleteChannel(ctx context.Context, channel domain.ChannelID) error
}

// EventRepository records analytics events and serves dashboard aggregates.
// Recording is fire-and-forget from the caller's perspective.
type EventRepository interface {
	Record(ctx context.Context, events ...*domain.Event) error
	Stats(ctx context.Context, guild domain.GuildID, since time.Time) (*domain.GuildStats, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}
