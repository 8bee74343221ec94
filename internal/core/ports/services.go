package ports

import (
	"context"
	"time"

	"tempvoice/internal/core/domain"
)

// TransferResult reports the owner change a successful transfer performed.
type TransferResult struct {
	OldOwnerID domain.UserID
	NewOwnerID domain.UserID
}

// OwnershipService is the single source of truth for "who owns channel X".
// Callers must serialize mutating calls per channel (see ChannelLocker).
type OwnershipService interface {
	// Check reports whether user currently owns the channel. On an
	// in-memory miss it falls back to the durable mirror and repopulates
	// the map on a hit.
	Check(ctx context.Context, id domain.ChannelID, user domain.UserID) bool
	// Owner returns the registered owner, if any.
	Owner(ctx context.Context, id domain.ChannelID) (domain.UserID, bool)
	Register(ctx context.Context, id domain.ChannelID, owner domain.UserID, guild domain.GuildID) error
	// Transfer fails with domain.ErrInvalidTransfer when the channel is
	// unknown to the in-memory map or the new owner id is malformed.
	Transfer(ctx context.Context, id domain.ChannelID, newOwner domain.UserID) (TransferResult, error)
	Cleanup(ctx context.Context, id domain.ChannelID) error
	// Restore repopulates the in-memory map from the durable mirror,
	// returning the number of records loaded.
	Restore(ctx context.Context) (int, error)
	// Snapshot lists the currently registered channels for the dashboard.
	Snapshot(ctx context.Context) []*domain.Channel
}

// VoiceEvent is one classified voice-presence transition.
type VoiceEvent struct {
	GuildID   domain.GuildID
	UserID    domain.UserID
	Username  string
	FromID    domain.ChannelID // empty on plain join
	ToID      domain.ChannelID // empty on plain leave
}

// LifecycleService turns presence transitions into channel create/delete
// actions and keeps the ownership store consistent.
type LifecycleService interface {
	HandleJoin(ctx context.Context, ev VoiceEvent) error
	HandleLeave(ctx context.Context, ev VoiceEvent) error
	HandleSwitch(ctx context.Context, ev VoiceEvent) error
	// Delete runs the idempotent deletion procedure.
	Delete(ctx context.Context, guild domain.GuildID, id domain.ChannelID, reason string) error
	// MarkHandled claims the deletion slot ahead of an explicit delete so a
	// racing empty-channel check cannot produce a second deleted
	// notification. Returns false when the slot is already claimed.
	MarkHandled(id domain.ChannelID) bool
	// Sweep deletes empty temp channels under the managed category,
	// recovering from missed presence events. Returns the delete count.
	Sweep(ctx context.Context) (int, error)
}

// RateResult is the outcome of a rate-limit check.
type RateResult struct {
	Allowed   bool
	Remaining int
	RetryIn   time.Duration
}

// RateLimiter guards how often a (subject, action) pair may execute.
type RateLimiter interface {
	Allow(subject, action string) RateResult
	Reset(subject, action string)
	// GC drops expired buckets; scheduled periodically.
	GC() int
}

// ChannelLocker serializes the check-mutate-store sequence per channel id.
// Lock returns an unlock func; callers must defer it.
type ChannelLocker interface {
	Lock(id domain.ChannelID) (unlock func())
}

// OpRequest carries the acting user's context into an operation. The acted-on
// channel is resolved from the actor's current voice state.
type OpRequest struct {
	GuildID  domain.GuildID
	ActorID  domain.UserID
	Username string
}

// OperationService is the catalog of user-triggered channel mutations. Every
// method validates rate limits, voice-channel placement, and (except Claim)
// ownership before touching the surface.
type OperationService interface {
	Rename(ctx context.Context, req OpRequest, name string) (string, error)
	SetUserLimit(ctx context.Context, req OpRequest, limit int) error
	SetBitrate(ctx context.Context, req OpRequest, kbps int) (int, error)
	SetRegion(ctx context.Context, req OpRequest, region domain.Region) error
	SetPrivacy(ctx context.Context, req OpRequest, mode domain.PrivacyMode) error
	ToggleDND(ctx context.Context, req OpRequest) (enabled bool, err error)
	Trust(ctx context.Context, req OpRequest, target domain.UserID) error
	Untrust(ctx context.Context, req OpRequest, target domain.UserID) error
	Block(ctx context.Context, req OpRequest, target domain.UserID) error
	Unblock(ctx context.Context, req OpRequest, target domain.UserID) error
	Invite(ctx context.Context, req OpRequest, target domain.UserID) error
	Kick(ctx context.Context, req OpRequest, target domain.UserID) error
	Claim(ctx context.Context, req OpRequest) error
	Transfer(ctx context.Context, req OpRequest, target domain.UserID) (TransferResult, error)
	Delete(ctx context.Context, req OpRequest) error
	ApplyPreset(ctx context.Context, req OpRequest, key string) (domain.Preset, error)
}

// AnalyticsService records events and serves the dashboard's read-only view.
type AnalyticsService interface {
	RecordEvent(ev *domain.Event)
	Stats(ctx context.Context, guild domain.GuildID, since time.Time) (*domain.GuildStats, error)
	ActiveChannels(ctx context.Context) []domain.ActiveChannel
	// Flush drains any batched events synchronously (shutdown path).
	Flush(ctx context.Context) error
}
