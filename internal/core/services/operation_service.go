package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	apperrors "tempvoice/pkg/errors"
	"tempvoice/pkg/validation"
)

// defaultDeleteGrace is how long an explicit delete waits after its
// acknowledgment before removing the channel.
const defaultDeleteGrace = 2 * time.Second

type operationService struct {
	surface   ports.VoiceSurface
	ownership ports.OwnershipService
	lifecycle ports.LifecycleService
	perms     ports.PermissionRepository
	analytics ports.AnalyticsService
	limiter   ports.RateLimiter
	locks     ports.ChannelLocker
	logger    *zap.Logger
	grace     time.Duration
}

func (s *operationService) deleteGrace() time.Duration {
	if s.grace > 0 {
		return s.grace
	}
	return defaultDeleteGrace
}

// NewOperationService builds the catalog of owner-triggered channel
// mutations.
func NewOperationService(
	surface ports.VoiceSurface,
	ownership ports.OwnershipService,
	lifecycle ports.LifecycleService,
	perms ports.PermissionRepository,
	analytics ports.AnalyticsService,
	limiter ports.RateLimiter,
	locks ports.ChannelLocker,
	logger *zap.Logger,
) ports.OperationService {
	return &operationService{
		surface:   surface,
		ownership: ownership,
		lifecycle: lifecycle,
		perms:     perms,
		analytics: analytics,
		limiter:   limiter,
		locks:     locks,
		logger:    logger,
	}
}

// opContext is the resolved state every operation starts from.
type opContext struct {
	channel domain.ChannelID
	owner   domain.UserID
}

// resolve runs the shared preamble: rate limit, voice placement, and managed
// channel membership. Ownership is checked separately so Claim can opt out.
func (s *operationService) resolve(ctx context.Context, op string, req ports.OpRequest) (opContext, error) {
	res := s.limiter.Allow(string(req.ActorID), op)
	if !res.Allowed {
		s.deny(req, op, "rate_limited")
		retry := int(math.Ceil(res.RetryIn.Seconds()))
		if retry < 1 {
			retry = 1
		}
		return opContext{}, apperrors.NewRateLimit(retry)
	}

	channel, err := s.surface.MemberVoiceChannel(ctx, req.GuildID, req.ActorID)
	if err != nil {
		return opContext{}, apperrors.NewPlatform(err, "could not resolve voice state")
	}
	if channel == "" {
		s.deny(req, op, "not_in_voice")
		return opContext{}, domain.ErrNotInChannel
	}

	owner, managed := s.ownership.Owner(ctx, channel)
	if !managed {
		s.deny(req, op, "unmanaged_channel")
		return opContext{}, domain.ErrWrongChannel
	}

	return opContext{channel: channel, owner: owner}, nil
}

// resolveOwner is resolve plus the ownership requirement.
func (s *operationService) resolveOwner(ctx context.Context, op string, req ports.OpRequest) (opContext, error) {
	oc, err := s.resolve(ctx, op, req)
	if err != nil {
		return opContext{}, err
	}
	if oc.owner != req.ActorID {
		s.deny(req, op, "not_owner")
		return opContext{}, domain.ErrNotOwner
	}
	return oc, nil
}

func (s *operationService) deny(req ports.OpRequest, op, reason string) {
	s.record(&domain.Event{
		Kind: domain.EventOperationDenied, GuildID: req.GuildID,
		ActorID: req.ActorID, Action: op + ":" + reason,
	})
}

func (s *operationService) done(req ports.OpRequest, channel domain.ChannelID, op string) {
	s.record(&domain.Event{
		Kind: domain.EventOperation, GuildID: req.GuildID,
		ChannelID: channel, ActorID: req.ActorID, Action: op,
	})
	s.logger.Info("operation applied",
		zap.String("op", op),
		zap.String("guild_id", string(req.GuildID)),
		zap.String("channel_id", string(channel)),
		zap.String("actor_id", string(req.ActorID)),
	)
}

func (s *operationService) record(ev *domain.Event) {
	if s.analytics != nil {
		ev.RecordedAt = time.Now()
		s.analytics.RecordEvent(ev)
	}
}

func (s *operationService) Rename(ctx context.Context, req ports.OpRequest, name string) (string, error) {
	oc, err := s.resolveOwner(ctx, "rename", req)
	if err != nil {
		return "", err
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	cleaned := validation.SanitizeChannelName(name)
	applied, err := validation.ValidateChannelName(cleaned)
	if err != nil {
		return "", apperrors.NewInvalidInput(err.Error())
	}

	if err := s.surface.SetName(ctx, req.GuildID, oc.channel, applied); err != nil {
		return "", apperrors.NewPlatform(err, "rename failed")
	}

	s.record(&domain.Event{
		Kind: domain.EventChannelRenamed, GuildID: req.GuildID,
		ChannelID: oc.channel, ActorID: req.ActorID,
	})
	s.done(req, oc.channel, "rename")
	return applied, nil
}

func (s *operationService) SetUserLimit(ctx context.Context, req ports.OpRequest, limit int) error {
	oc, err := s.resolveOwner(ctx, "limit", req)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	if limit < domain.UserLimitMin || limit > domain.UserLimitMax {
		return apperrors.NewInvalidInput(fmt.Sprintf("user limit must be between %d and %d", domain.UserLimitMin, domain.UserLimitMax))
	}

	if err := s.surface.SetUserLimit(ctx, req.GuildID, oc.channel, limit); err != nil {
		return apperrors.NewPlatform(err, "user limit update failed")
	}

	s.done(req, oc.channel, "limit")
	return nil
}

func (s *operationService) SetBitrate(ctx context.Context, req ports.OpRequest, kbps int) (int, error) {
	oc, err := s.resolveOwner(ctx, "bitrate", req)
	if err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	if kbps < domain.BitrateMinKbps || kbps > domain.BitrateMaxKbps {
		return 0, apperrors.NewInvalidInput(fmt.Sprintf("bitrate must be between %d and %d kbps", domain.BitrateMinKbps, domain.BitrateMaxKbps))
	}

	applied := kbps
	if guildMax, err := s.surface.GuildMaxBitrate(ctx, req.GuildID); err == nil && applied > guildMax {
		applied = guildMax
	}

	if err := s.surface.SetBitrate(ctx, req.GuildID, oc.channel, applied); err != nil {
		return 0, apperrors.NewPlatform(err, "bitrate update failed")
	}

	s.done(req, oc.channel, "bitrate")
	return applied, nil
}

func (s *operationService) SetRegion(ctx context.Context, req ports.OpRequest, region domain.Region) error {
	oc, err := s.resolveOwner(ctx, "region", req)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	if !domain.ValidRegion(region) {
		return apperrors.NewInvalidInput(fmt.Sprintf("unknown region %q", region))
	}

	if err := s.surface.SetRegion(ctx, req.GuildID, oc.channel, region); err != nil {
		return apperrors.NewPlatform(err, "region update failed")
	}

	s.done(req, oc.channel, "region")
	return nil
}

func (s *operationService) SetPrivacy(ctx context.Context, req ports.OpRequest, mode domain.PrivacyMode) error {
	oc, err := s.resolveOwner(ctx, "privacy", req)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	if !domain.ValidPrivacyMode(mode) {
		return apperrors.NewInvalidInput(fmt.Sprintf("unknown privacy mode %q", mode))
	}

	trusted, err := s.surface.TrustedTargets(ctx, req.GuildID, oc.channel)
	if err != nil {
		return apperrors.NewPlatform(err, "could not list trusted users")
	}

	for _, edit := range domain.PrivacyPlan(mode, trusted) {
		if err := s.surface.ApplyEdit(ctx, req.GuildID, oc.channel, edit); err != nil {
			return apperrors.NewPlatform(err, "privacy update failed")
		}
	}

	s.record(&domain.Event{
		Kind: domain.EventPermissionEdit, GuildID: req.GuildID,
		ChannelID: oc.channel, ActorID: req.ActorID, Action: string(mode),
	})
	s.done(req, oc.channel, "privacy")
	return nil
}

func (s *operationService) ToggleDND(ctx context.Context, req ports.OpRequest) (bool, error) {
	oc, err := s.resolveOwner(ctx, "dnd", req)
	if err != nil {
		return false, err
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	current, err := s.surface.IsDND(ctx, req.GuildID, oc.channel)
	if err != nil {
		return false, apperrors.NewPlatform(err, "could not read channel state")
	}

	enable := !current
	if err := s.surface.ApplyEdit(ctx, req.GuildID, oc.channel, domain.DNDPlan(enable)); err != nil {
		return false, apperrors.NewPlatform(err, "dnd toggle failed")
	}

	s.done(req, oc.channel, "dnd")
	return enable, nil
}
