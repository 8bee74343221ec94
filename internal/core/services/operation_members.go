package services

import (
	"context"
	"fmt"
	"time"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	apperrors "tempvoice/pkg/errors"
	"tempvoice/pkg/validation"
)

const (
	inviteMaxUses = 1
	inviteMaxAge  = 24 * time.Hour
)

// vetTarget runs the target checks shared by every member-directed operation.
func (s *operationService) vetTarget(ctx context.Context, req ports.OpRequest, target domain.UserID) error {
	if err := validation.ValidateUserID(string(target)); err != nil {
		return apperrors.NewInvalidInput(err.Error())
	}
	if target == req.ActorID {
		return domain.ErrSelfTarget
	}
	if bot, err := s.surface.IsBot(ctx, req.GuildID, target); err == nil && bot {
		return domain.ErrTargetBot
	}
	return nil
}

func (s *operationService) Trust(ctx context.Context, req ports.OpRequest, target domain.UserID) error {
	oc, err := s.resolveOwner(ctx, "trust", req)
	if err != nil {
		return err
	}
	if err := s.vetTarget(ctx, req, target); err != nil {
		return err
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	blocked, err := s.surface.IsBlocked(ctx, req.GuildID, oc.channel, target)
	if err != nil {
		return apperrors.NewPlatform(err, "could not check block state")
	}
	if blocked {
		return domain.ErrTargetBlocked
	}

	edit := domain.PermissionEdit{Target: target, Allow: domain.TrustedCapabilities()}
	if err := s.surface.ApplyEdit(ctx, req.GuildID, oc.channel, edit); err != nil {
		return apperrors.NewPlatform(err, "trust grant failed")
	}
	if err := s.perms.Add(ctx, oc.channel, target, domain.PermissionTrust); err != nil {
		s.logger.Warn("trust audit row write failed")
	}

	s.done(req, oc.channel, "trust")
	return nil
}

func (s *operationService) Untrust(ctx context.Context, req ports.OpRequest, target domain.UserID) error {
	oc, err := s.resolveOwner(ctx, "untrust", req)
	if err != nil {
		return err
	}
	if err := validation.ValidateUserID(string(target)); err != nil {
		return apperrors.NewInvalidInput(err.Error())
	}
	if target == req.ActorID {
		return domain.ErrSelfTarget
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	if err := s.surface.ClearOverwrite(ctx, req.GuildID, oc.channel, target); err != nil {
		return apperrors.NewPlatform(err, "trust removal failed")
	}
	if err := s.perms.Remove(ctx, oc.channel, target, domain.PermissionTrust); err != nil {
		s.logger.Warn("trust audit row removal failed")
	}

	// without the trusted overwrite a locked channel no longer admits the
	// target, so a connected target is removed as well
	if locked, err := s.surface.IsLocked(ctx, req.GuildID, oc.channel); err == nil && locked {
		if at, err := s.surface.MemberVoiceChannel(ctx, req.GuildID, target); err == nil && at == oc.channel {
			if err := s.surface.DisconnectMember(ctx, req.GuildID, target); err != nil {
				s.logger.Warn("untrusted member disconnect failed")
			}
		}
	}

	s.done(req, oc.channel, "untrust")
	return nil
}

func (s *operationService) Block(ctx context.Context, req ports.OpRequest, target domain.UserID) error {
	oc, err := s.resolveOwner(ctx, "block", req)
	if err != nil {
		return err
	}
	if err := s.vetTarget(ctx, req, target); err != nil {
		return err
	}

	if admin, err := s.surface.IsAdmin(ctx, req.GuildID, target); err == nil && admin {
		return domain.ErrTargetAdmin
	}
	if outranks, err := s.surface.OutranksBot(ctx, req.GuildID, target); err == nil && outranks {
		return domain.ErrTargetOutranksBot
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	edit := domain.PermissionEdit{Target: target, Deny: domain.BlockedCapabilities()}
	if err := s.surface.ApplyEdit(ctx, req.GuildID, oc.channel, edit); err != nil {
		return apperrors.NewPlatform(err, "block failed")
	}

	// a blocked user still inside the channel is removed
	if at, err := s.surface.MemberVoiceChannel(ctx, req.GuildID, target); err == nil && at == oc.channel {
		if err := s.surface.DisconnectMember(ctx, req.GuildID, target); err != nil {
			s.logger.Warn("blocked member disconnect failed")
		}
	}

	if err := s.perms.Add(ctx, oc.channel, target, domain.PermissionBlock); err != nil {
		s.logger.Warn("block audit row write failed")
	}

	s.done(req, oc.channel, "block")
	return nil
}

func (s *operationService) Unblock(ctx context.Context, req ports.OpRequest, target domain.UserID) error {
	oc, err := s.resolveOwner(ctx, "unblock", req)
	if err != nil {
		return err
	}
	if err := validation.ValidateUserID(string(target)); err != nil {
		return apperrors.NewInvalidInput(err.Error())
	}

	unlock := s.locks.Lock(oc.channel)
	defer unlock()

	blocked, err := s.surface.IsBlocked(ctx, req.GuildID, oc.channel, target)
	if err != nil {
		return apperrors.NewPlatform(err, "could not check block state")
	}
	if !blocked {
		return domain.ErrTargetNotBlocked
	}

	if err := s.surface.ClearOverwrite(ctx, req.GuildID, oc.channel, target); err != nil {
		return apperrors.NewPlatform(err, "unblock failed")
	}
	if err := s.perms.Remove(ctx, oc.channel, target, domain.PermissionBlock); err != nil {
		s.logger.Warn("block audit row removal failed")
	}

	s.done(req, oc.channel, "unblock")
	return nil
}

func (s *operationService) Invite(ctx context.Context, req ports.OpRequest, target domain.UserID) error {
	oc, err := s.resolveOwner(ctx, "invite", req)
	if err != nil {
		return err
	}
	if err := s.vetTarget(ctx, req, target); err != nil {
		return err
	}

	if at, err := s.surface.MemberVoiceChannel(ctx, req.GuildID, target); err == nil && at == oc.channel {
		return domain.ErrTargetInChannel
	}
	if blocked, err := s.surface.IsBlocked(ctx, req.GuildID, oc.channel, target); err == nil && blocked {
		return domain.ErrTargetBlocked
	}

	link, err := s.surface.CreateInvite(ctx, oc.channel, inviteMaxUses, inviteMaxAge)
	if err != nil {
		return apperrors.NewPlatform(err, "invite creation failed")
	}

	msg := fmt.Sprintf("%s invited you to their voice channel: %s", req.Username, link)
	if err := s.surface.SendDirectMessage(ctx, target, msg); err != nil {
		return err
	}

	s.done(req, oc.channel, "invite")
	return nil
}

func (s *operationService) Kick(ctx context.Context, req ports.OpRequest, target domain.UserID) error {
	oc, err := s.resolveOwner(ctx, "kick", req)
	if err != nil {
		return err
	}
	if err := s.vetTarget(ctx, req, target); err != nil {
		return err
	}

	if admin, err := s.surface.IsAdmin(ctx, req.GuildID, target); err == nil && admin {
		return domain.ErrTargetAdmin
	}
	// the platform refuses the disconnect for a higher role anyway
	if outranks, err := s.surface.OutranksBot(ctx, req.GuildID, target); err == nil && outranks {
		return domain.ErrTargetOutranksBot
	}

	at, err := s.surface.MemberVoiceChannel(ctx, req.GuildID, target)
	if err != nil {
		return apperrors.NewPlatform(err, "could not resolve target voice state")
	}
	if at != oc.channel {
		return domain.ErrTargetNotInChannel
	}

	if err := s.surface.DisconnectMember(ctx, req.GuildID, target); err != nil {
		return apperrors.NewPlatform(err, "kick failed")
	}

	s.done(req, oc.channel, "kick")
	return nil
}
