package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	apperrors "tempvoice/pkg/errors"
	"tempvoice/pkg/validation"
)

func (s *operationService) Claim(ctx context.Context, req ports.OpRequest) error {
	oc, err := s.resolve(ctx, "claim", req)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	// re-read under the lock: a racing claim may have won already
	owner, ok := s.ownership.Owner(ctx, oc.channel)
	if !ok {
		return domain.ErrWrongChannel
	}
	if owner == req.ActorID {
		return domain.ErrAlreadyOwner
	}

	members, err := s.surface.Members(ctx, req.GuildID, oc.channel)
	if err != nil {
		return apperrors.NewPlatform(err, "could not list channel members")
	}
	for _, m := range members {
		if m == owner {
			return domain.ErrOwnerPresent
		}
	}

	if _, err := s.ownership.Transfer(ctx, oc.channel, req.ActorID); err != nil {
		return err
	}

	grant := domain.Overwrite{Target: req.ActorID, Allow: domain.OwnerCapabilities()}
	if err := s.surface.SetOverwrite(ctx, req.GuildID, oc.channel, grant); err != nil {
		return apperrors.NewPlatform(err, "claim grant failed")
	}
	if err := s.surface.ClearOverwrite(ctx, req.GuildID, oc.channel, owner); err != nil {
		s.logger.Warn("previous owner overwrite removal failed")
	}

	s.record(&domain.Event{
		Kind: domain.EventOwnerClaimed, GuildID: req.GuildID,
		ChannelID: oc.channel, ActorID: req.ActorID,
	})
	s.done(req, oc.channel, "claim")
	return nil
}

func (s *operationService) Transfer(ctx context.Context, req ports.OpRequest, target domain.UserID) (ports.TransferResult, error) {
	oc, err := s.resolveOwner(ctx, "transfer", req)
	if err != nil {
		return ports.TransferResult{}, err
	}

	if err := validation.ValidateUserID(string(target)); err != nil {
		return ports.TransferResult{}, domain.ErrInvalidTransfer
	}
	if target == req.ActorID {
		return ports.TransferResult{}, domain.ErrSelfTarget
	}
	if bot, err := s.surface.IsBot(ctx, req.GuildID, target); err == nil && bot {
		return ports.TransferResult{}, domain.ErrTargetBot
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	// re-read under the lock: a claim may have changed the owner while
	// this transfer waited
	if owner, ok := s.ownership.Owner(ctx, oc.channel); !ok || owner != req.ActorID {
		return ports.TransferResult{}, domain.ErrNotOwner
	}

	// membership is re-checked under the lock so the grant cannot land on
	// a user who just left
	at, err := s.surface.MemberVoiceChannel(ctx, req.GuildID, target)
	if err != nil {
		return ports.TransferResult{}, apperrors.NewPlatform(err, "could not resolve target voice state")
	}
	if at != oc.channel {
		return ports.TransferResult{}, domain.ErrTargetNotInChannel
	}

	result, err := s.ownership.Transfer(ctx, oc.channel, target)
	if err != nil {
		return ports.TransferResult{}, err
	}

	grant := domain.Overwrite{Target: target, Allow: domain.OwnerCapabilities()}
	if err := s.surface.SetOverwrite(ctx, req.GuildID, oc.channel, grant); err != nil {
		return result, apperrors.NewPlatform(err, "owner grant failed")
	}

	// the previous owner keeps plain member access, nothing more
	demote := domain.PermissionEdit{
		Target: result.OldOwnerID,
		Allow:  domain.BasicCapabilities(),
		Clear:  domain.ManagementCapabilities(),
	}
	if err := s.surface.ApplyEdit(ctx, req.GuildID, oc.channel, demote); err != nil {
		s.logger.Warn("previous owner demotion failed")
	}

	s.record(&domain.Event{
		Kind: domain.EventOwnerTransfer, GuildID: req.GuildID,
		ChannelID: oc.channel, ActorID: req.ActorID,
	})
	s.done(req, oc.channel, "transfer")
	return result, nil
}

func (s *operationService) Delete(ctx context.Context, req ports.OpRequest) error {
	oc, err := s.resolveOwner(ctx, "delete", req)
	if err != nil {
		return err
	}

	// claim the deletion slot first so the empty-channel check stays quiet,
	// then let the acknowledgment go out before the channel disappears
	if !s.lifecycle.MarkHandled(oc.channel) {
		return nil
	}
	s.done(req, oc.channel, "delete")

	guild, channel := req.GuildID, oc.channel
	time.AfterFunc(s.deleteGrace(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// the lifecycle delete takes the channel lock itself
		if err := s.lifecycle.Delete(ctx, guild, channel, "owner_request"); err != nil {
			s.logger.Warn("deferred channel delete failed",
				zap.String("channel_id", string(channel)), zap.Error(err))
		}
	})
	return nil
}

func (s *operationService) ApplyPreset(ctx context.Context, req ports.OpRequest, key string) (domain.Preset, error) {
	oc, err := s.resolveOwner(ctx, "preset", req)
	if err != nil {
		return domain.Preset{}, err
	}

	preset, ok := domain.PresetByKey(key)
	if !ok {
		return domain.Preset{}, domain.ErrPresetNotFound
	}

	if preset.RequireRole {
		elevated, err := s.surface.HasElevatedRole(ctx, req.GuildID, req.ActorID)
		if err != nil {
			return domain.Preset{}, apperrors.NewPlatform(err, "could not check roles")
		}
		if !elevated {
			return domain.Preset{}, domain.ErrPresetRestricted
		}
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	bitrate := preset.BitrateKbps
	if guildMax, err := s.surface.GuildMaxBitrate(ctx, req.GuildID); err == nil && bitrate > guildMax {
		bitrate = guildMax
	}

	if err := s.surface.SetBitrate(ctx, req.GuildID, oc.channel, bitrate); err != nil {
		return domain.Preset{}, apperrors.NewPlatform(err, "preset bitrate failed")
	}
	if err := s.surface.SetUserLimit(ctx, req.GuildID, oc.channel, preset.UserLimit); err != nil {
		return domain.Preset{}, apperrors.NewPlatform(err, "preset user limit failed")
	}
	if err := s.surface.SetRegion(ctx, req.GuildID, oc.channel, preset.Region); err != nil {
		return domain.Preset{}, apperrors.NewPlatform(err, "preset region failed")
	}
	if err := s.surface.ApplyEdit(ctx, req.GuildID, oc.channel, preset.EveryoneEdit()); err != nil {
		return domain.Preset{}, apperrors.NewPlatform(err, "preset permissions failed")
	}

	s.done(req, oc.channel, "preset")
	return preset, nil
}
