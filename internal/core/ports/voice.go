package ports

import (
	"context"
	"time"

	"tempvoice/internal/core/domain"
)

// ChannelInfo is a surface-level summary of one live channel.
type ChannelInfo struct {
	ID          domain.ChannelID
	Name        string
	ParentID    string
	MemberCount int
}

// VoiceSurface is the capability boundary to the chat platform: channel and
// permission mutations, member introspection, and out-of-band delivery. The
// core never talks to the platform except through this interface.
//
// Not-found conditions are reported as domain.ErrChannelGone, refusals as
// domain.ErrForbidden, and closed DMs as domain.ErrDMUnreachable.
type VoiceSurface interface {
	// CreateChannel creates a voice channel under the parent category with
	// the given initial overwrites and returns its id.
	CreateChannel(ctx context.Context, guild domain.GuildID, parentID, name string, overwrites []domain.Overwrite) (domain.ChannelID, error)
	DeleteChannel(ctx context.Context, guild domain.GuildID, id domain.ChannelID) error

	// ApplyEdit pushes a partial overwrite mutation; flags outside the
	// edit's sets are left untouched.
	ApplyEdit(ctx context.Context, guild domain.GuildID, id domain.ChannelID, edit domain.PermissionEdit) error
	SetOverwrite(ctx context.Context, guild domain.GuildID, id domain.ChannelID, ow domain.Overwrite) error
	ClearOverwrite(ctx context.Context, guild domain.GuildID, id domain.ChannelID, target domain.UserID) error

	SetName(ctx context.Context, guild domain.GuildID, id domain.ChannelID, name string) error
	SetUserLimit(ctx context.Context, guild domain.GuildID, id domain.ChannelID, limit int) error
	SetBitrate(ctx context.Context, guild domain.GuildID, id domain.ChannelID, kbps int) error
	// SetRegion with domain.RegionAuto clears the override.
	SetRegion(ctx context.Context, guild domain.GuildID, id domain.ChannelID, region domain.Region) error

	MoveMember(ctx context.Context, guild domain.GuildID, user domain.UserID, id domain.ChannelID) error
	DisconnectMember(ctx context.Context, guild domain.GuildID, user domain.UserID) error

	CreateInvite(ctx context.Context, id domain.ChannelID, maxUses int, maxAge time.Duration) (string, error)
	SendDirectMessage(ctx context.Context, user domain.UserID, content string) error

	// PostPanels drops the owner control messages into the channel's text
	// chat right after provisioning.
	PostPanels(ctx context.Context, id domain.ChannelID) error

	// Members lists the user ids currently connected to the channel.
	Members(ctx context.Context, guild domain.GuildID, id domain.ChannelID) ([]domain.UserID, error)
	// MemberVoiceChannel reports the channel the user is currently
	// connected to, or "" when not in voice.
	MemberVoiceChannel(ctx context.Context, guild domain.GuildID, user domain.UserID) (domain.ChannelID, error)
	MemberName(ctx context.Context, guild domain.GuildID, user domain.UserID) (string, error)

	IsAdmin(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error)
	IsBot(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error)
	// OutranksBot reports whether the user's highest role sits at or above
	// the bot's own highest role.
	OutranksBot(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error)
	// HasElevatedRole reports whether the user carries a role that unlocks
	// gated presets.
	HasElevatedRole(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error)

	// TrustedTargets lists users with an explicit connect-allow overwrite
	// on the channel.
	TrustedTargets(ctx context.Context, guild domain.GuildID, id domain.ChannelID) ([]domain.UserID, error)
	IsBlocked(ctx context.Context, guild domain.GuildID, id domain.ChannelID, user domain.UserID) (bool, error)
	// IsLocked reports whether the everyone role is denied connect.
	IsLocked(ctx context.Context, guild domain.GuildID, id domain.ChannelID) (bool, error)
	// IsDND reports whether the everyone role is denied speak.
	IsDND(ctx context.Context, guild domain.GuildID, id domain.ChannelID) (bool, error)

	ChannelInfo(ctx context.Context, guild domain.GuildID, id domain.ChannelID) (*ChannelInfo, error)
	// CategoryChannels lists voice channels under the managed category.
	CategoryChannels(ctx context.Context, guild domain.GuildID, parentID string) ([]ChannelInfo, error)
	// GuildMaxBitrate is the ceiling the guild's tier allows, in kbps.
	GuildMaxBitrate(ctx context.Context, guild domain.GuildID) (int, error)
}
