package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	"tempvoice/pkg/utils"
	"tempvoice/pkg/validation"
)

// LifecycleConfig tunes channel provisioning and deletion.
type LifecycleConfig struct {
	LobbyNames []string
	Suffix     string
	// MarkerTTL is how long a deletion marker suppresses duplicate handling.
	MarkerTTL time.Duration
}

type lifecycleService struct {
	surface   ports.VoiceSurface
	ownership ports.OwnershipService
	perms     ports.PermissionRepository
	analytics ports.AnalyticsService
	locks     ports.ChannelLocker
	logger    *zap.Logger
	cfg       LifecycleConfig

	mu         sync.Mutex
	markers    map[domain.ChannelID]deleteMarker
	categories map[domain.GuildID]map[string]struct{}
}

// deleteMarker claims a channel's deletion slot. pending means an explicit
// delete action claimed it but the deletion itself has not run yet.
type deleteMarker struct {
	at      time.Time
	pending bool
}

// NewLifecycleService wires presence transitions to channel provisioning.
func NewLifecycleService(
	surface ports.VoiceSurface,
	ownership ports.OwnershipService,
	perms ports.PermissionRepository,
	analytics ports.AnalyticsService,
	locks ports.ChannelLocker,
	cfg LifecycleConfig,
	logger *zap.Logger,
) ports.LifecycleService {
	return &lifecycleService{
		surface:    surface,
		ownership:  ownership,
		perms:      perms,
		analytics:  analytics,
		locks:      locks,
		logger:     logger,
		cfg:        cfg,
		markers:    make(map[domain.ChannelID]deleteMarker),
		categories: make(map[domain.GuildID]map[string]struct{}),
	}
}

func (s *lifecycleService) isLobby(name string) bool {
	for _, lobby := range s.cfg.LobbyNames {
		if strings.EqualFold(name, lobby) {
			return true
		}
	}
	return false
}

func (s *lifecycleService) HandleJoin(ctx context.Context, ev ports.VoiceEvent) error {
	if ev.ToID == "" {
		return nil
	}

	info, err := s.surface.ChannelInfo(ctx, ev.GuildID, ev.ToID)
	if err != nil {
		s.logger.Debug("join target unresolvable",
			zap.String("channel_id", string(ev.ToID)), zap.Error(err))
		return nil
	}

	if !s.isLobby(info.Name) {
		if _, managed := s.ownership.Owner(ctx, ev.ToID); managed {
			s.record(&domain.Event{
				Kind: domain.EventUserJoined, GuildID: ev.GuildID,
				ChannelID: ev.ToID, ActorID: ev.UserID,
			})
		}
		return nil
	}

	return s.provision(ctx, ev, info.ParentID)
}

// provision creates the member's personal channel, or moves them back to the
// one they already own.
func (s *lifecycleService) provision(ctx context.Context, ev ports.VoiceEvent, parentID string) error {
	if existing := s.ownedBy(ctx, ev.GuildID, ev.UserID); existing != "" {
		if err := s.surface.MoveMember(ctx, ev.GuildID, ev.UserID, existing); err != nil {
			s.logger.Warn("move to existing channel failed",
				zap.String("channel_id", string(existing)), zap.Error(err))
		}
		return nil
	}

	name := utils.TruncateString(utils.SanitizeString(ev.Username)+s.cfg.Suffix, validation.ChannelNameMax)
	overwrites := []domain.Overwrite{
		{Target: ev.UserID, Allow: domain.OwnerCapabilities()},
	}

	id, err := s.surface.CreateChannel(ctx, ev.GuildID, parentID, name, overwrites)
	if err != nil {
		s.record(&domain.Event{
			Kind: domain.EventError, GuildID: ev.GuildID,
			ActorID: ev.UserID, Action: "create_channel",
		})
		return err
	}

	if err := s.ownership.Register(ctx, id, ev.UserID, ev.GuildID); err != nil {
		// malformed actor id; roll the channel back
		_ = s.surface.DeleteChannel(ctx, ev.GuildID, id)
		return err
	}

	s.rememberCategory(ev.GuildID, parentID)

	if err := s.surface.MoveMember(ctx, ev.GuildID, ev.UserID, id); err != nil {
		// user left voice between create and move; the empty channel is
		// reclaimed right away
		s.logger.Info("owner vanished before move, reclaiming channel",
			zap.String("channel_id", string(id)), zap.Error(err))
		return s.Delete(ctx, ev.GuildID, id, "owner_vanished")
	}

	if err := s.surface.PostPanels(ctx, id); err != nil {
		// the channel works without its panel messages
		s.logger.Warn("panel post failed",
			zap.String("channel_id", string(id)), zap.Error(err))
	}

	s.record(&domain.Event{
		Kind: domain.EventChannelCreated, GuildID: ev.GuildID,
		ChannelID: id, ActorID: ev.UserID,
	})
	s.logger.Info("channel provisioned",
		zap.String("guild_id", string(ev.GuildID)),
		zap.String("channel_id", string(id)),
		zap.String("owner_id", string(ev.UserID)),
	)
	return nil
}

func (s *lifecycleService) HandleLeave(ctx context.Context, ev ports.VoiceEvent) error {
	if ev.FromID == "" {
		return nil
	}
	owner, managed := s.ownership.Owner(ctx, ev.FromID)
	if !managed {
		return nil
	}

	s.record(&domain.Event{
		Kind: domain.EventUserLeft, GuildID: ev.GuildID,
		ChannelID: ev.FromID, ActorID: ev.UserID,
	})

	members, err := s.surface.Members(ctx, ev.GuildID, ev.FromID)
	if err != nil {
		if errors.Is(err, domain.ErrChannelGone) {
			return s.Delete(ctx, ev.GuildID, ev.FromID, "gone")
		}
		return err
	}
	// a guest leaving last does not end the channel: ownership is kept for
	// the owner's return or a claim, and the sweep reclaims it eventually
	if len(members) == 0 && ev.UserID == owner {
		return s.Delete(ctx, ev.GuildID, ev.FromID, "empty")
	}
	return nil
}

func (s *lifecycleService) HandleSwitch(ctx context.Context, ev ports.VoiceEvent) error {
	s.record(&domain.Event{
		Kind: domain.EventUserSwitched, GuildID: ev.GuildID,
		ChannelID: ev.ToID, ActorID: ev.UserID,
	})

	// join first: a lobby hop may move the user back into the channel they
	// just left, so its member count is only meaningful afterwards
	join := ev
	join.FromID = ""
	if err := s.HandleJoin(ctx, join); err != nil {
		return err
	}

	leave := ev
	leave.ToID = ""
	return s.HandleLeave(ctx, leave)
}

func (s *lifecycleService) Delete(ctx context.Context, guild domain.GuildID, id domain.ChannelID, reason string) error {
	if !s.mark(id) {
		return nil
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.surface.DeleteChannel(ctx, guild, id); err != nil && !errors.Is(err, domain.ErrChannelGone) {
		s.logger.Warn("channel delete failed",
			zap.String("channel_id", string(id)), zap.Error(err))
	}

	if err := s.ownership.Cleanup(ctx, id); err != nil {
		s.logger.Warn("ownership cleanup failed",
			zap.String("channel_id", string(id)), zap.Error(err))
	}
	if err := s.perms.DeleteChannel(ctx, id); err != nil {
		s.logger.Warn("permission cleanup failed",
			zap.String("channel_id", string(id)), zap.Error(err))
	}

	s.record(&domain.Event{
		Kind: domain.EventChannelDeleted, GuildID: guild,
		ChannelID: id, Action: reason,
	})
	s.logger.Info("channel deleted",
		zap.String("guild_id", string(guild)),
		zap.String("channel_id", string(id)),
		zap.String("reason", reason),
	)
	return nil
}

func (s *lifecycleService) MarkHandled(id domain.ChannelID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if m, ok := s.markers[id]; ok && now.Sub(m.at) < s.cfg.MarkerTTL {
		return false
	}
	s.markers[id] = deleteMarker{at: now, pending: true}
	return true
}

// mark claims the deletion slot for the channel. A pending marker (set by
// MarkHandled) is consumed so the explicit action's own deletion still runs;
// any other live marker makes repeat deletions no-ops.
func (s *lifecycleService) mark(id domain.ChannelID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if m, ok := s.markers[id]; ok && now.Sub(m.at) < s.cfg.MarkerTTL {
		if !m.pending {
			return false
		}
	}
	s.markers[id] = deleteMarker{at: now}

	// lazy expiry of old markers
	for k, m := range s.markers {
		if now.Sub(m.at) >= s.cfg.MarkerTTL {
			delete(s.markers, k)
		}
	}
	return true
}

func (s *lifecycleService) rememberCategory(guild domain.GuildID, parentID string) {
	if parentID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categories[guild] == nil {
		s.categories[guild] = make(map[string]struct{})
	}
	s.categories[guild][parentID] = struct{}{}
}

func (s *lifecycleService) Sweep(ctx context.Context) (int, error) {
	deleted := 0

	// pass 1: registered channels that are gone or empty
	for _, ch := range s.ownership.Snapshot(ctx) {
		info, err := s.surface.ChannelInfo(ctx, ch.GuildID, ch.ID)
		if err != nil {
			if errors.Is(err, domain.ErrChannelGone) {
				if err := s.Delete(ctx, ch.GuildID, ch.ID, "sweep_gone"); err == nil {
					deleted++
				}
			}
			continue
		}
		if info.MemberCount == 0 {
			if err := s.Delete(ctx, ch.GuildID, ch.ID, "sweep_empty"); err == nil {
				deleted++
			}
		}
	}

	// pass 2: orphans under managed categories that the map never knew
	s.mu.Lock()
	cats := make(map[domain.GuildID][]string, len(s.categories))
	for guild, parents := range s.categories {
		for parent := range parents {
			cats[guild] = append(cats[guild], parent)
		}
	}
	s.mu.Unlock()

	for guild, parents := range cats {
		for _, parent := range parents {
			infos, err := s.surface.CategoryChannels(ctx, guild, parent)
			if err != nil {
				continue
			}
			for _, info := range infos {
				if !strings.HasSuffix(info.Name, s.cfg.Suffix) || info.MemberCount > 0 {
					continue
				}
				if _, managed := s.ownership.Owner(ctx, info.ID); managed {
					continue
				}
				if err := s.Delete(ctx, guild, info.ID, "sweep_orphan"); err == nil {
					deleted++
					s.record(&domain.Event{
						Kind: domain.EventSweepDeleted, GuildID: guild, ChannelID: info.ID,
					})
				}
			}
		}
	}

	if deleted > 0 {
		s.logger.Info("sweep completed", zap.Int("deleted", deleted))
	}
	return deleted, nil
}

// ownedBy finds the channel the user already owns in the guild, if any.
func (s *lifecycleService) ownedBy(ctx context.Context, guild domain.GuildID, user domain.UserID) domain.ChannelID {
	for _, ch := range s.ownership.Snapshot(ctx) {
		if ch.GuildID == guild && ch.OwnerID == user {
			return ch.ID
		}
	}
	return ""
}

func (s *lifecycleService) record(ev *domain.Event) {
	if s.analytics != nil {
		ev.RecordedAt = time.Now()
		s.analytics.RecordEvent(ev)
	}
}
