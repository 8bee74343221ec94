package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	"tempvoice/internal/infrastructure/monitoring"
)

// VoiceEventHandler classifies raw voice state updates into join, leave and
// switch transitions and feeds them to the lifecycle service.
type VoiceEventHandler struct {
	lifecycle ports.LifecycleService
	metrics   *monitoring.PrometheusCollector
	timeout   time.Duration
	logger    *zap.Logger
}

func NewVoiceEventHandler(lifecycle ports.LifecycleService, metrics *monitoring.PrometheusCollector, timeout time.Duration, logger *zap.Logger) *VoiceEventHandler {
	return &VoiceEventHandler{
		lifecycle: lifecycle,
		metrics:   metrics,
		timeout:   timeout,
		logger:    logger,
	}
}

// Register attaches the handler to the session. State tracking must be
// enabled so BeforeUpdate carries the previous channel.
func (h *VoiceEventHandler) Register(session *discordgo.Session) {
	session.AddHandler(h.onVoiceStateUpdate)
}

func (h *VoiceEventHandler) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.UserID == s.State.User.ID {
		return
	}
	if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
		return
	}

	var from string
	if vs.BeforeUpdate != nil {
		from = vs.BeforeUpdate.ChannelID
	}
	to := vs.ChannelID
	if from == to {
		// mute/deafen toggles arrive as updates too
		return
	}

	ev := ports.VoiceEvent{
		GuildID:  domain.GuildID(vs.GuildID),
		UserID:   domain.UserID(vs.UserID),
		Username: h.username(s, vs),
		FromID:   domain.ChannelID(from),
		ToID:     domain.ChannelID(to),
	}

	go h.handle(ev)
}

func (h *VoiceEventHandler) handle(ev ports.VoiceEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var err error
	switch {
	case ev.FromID == "" && ev.ToID != "":
		h.metrics.RecordVoiceEvent("join")
		err = h.lifecycle.HandleJoin(ctx, ev)
	case ev.FromID != "" && ev.ToID == "":
		h.metrics.RecordVoiceEvent("leave")
		err = h.lifecycle.HandleLeave(ctx, ev)
	default:
		h.metrics.RecordVoiceEvent("switch")
		err = h.lifecycle.HandleSwitch(ctx, ev)
	}
	if err != nil {
		h.logger.Error("voice transition handling failed",
			zap.String("guild_id", string(ev.GuildID)),
			zap.String("user_id", string(ev.UserID)),
			zap.String("from", string(ev.FromID)),
			zap.String("to", string(ev.ToID)),
			zap.Error(err),
		)
	}
}

func (h *VoiceEventHandler) username(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) string {
	if vs.Member != nil && vs.Member.User != nil {
		if vs.Member.Nick != "" {
			return vs.Member.Nick
		}
		if vs.Member.User.GlobalName != "" {
			return vs.Member.User.GlobalName
		}
		return vs.Member.User.Username
	}

	m, err := s.State.Member(vs.GuildID, vs.UserID)
	if err != nil || m.User == nil {
		return vs.UserID
	}
	if m.Nick != "" {
		return m.Nick
	}
	return m.User.Username
}
