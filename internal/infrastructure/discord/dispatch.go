package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	"tempvoice/internal/core/services"
	"tempvoice/internal/infrastructure/monitoring"
	apperrors "tempvoice/pkg/errors"
	"tempvoice/pkg/utils"
)

// Dispatcher routes control panel interactions to the operation service and
// replies to the acting user. All replies are ephemeral.
type Dispatcher struct {
	ops     ports.OperationService
	guard   *services.InteractionGuard
	metrics *monitoring.PrometheusCollector
	timeout time.Duration
	logger  *zap.Logger
}

func NewDispatcher(ops ports.OperationService, guard *services.InteractionGuard, metrics *monitoring.PrometheusCollector, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		ops:     ops,
		guard:   guard,
		metrics: metrics,
		timeout: timeout,
		logger:  logger,
	}
}

func (d *Dispatcher) Register(session *discordgo.Session) {
	session.AddHandler(d.onInteraction)
}

func (d *Dispatcher) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Member == nil || ic.Member.User == nil {
		return
	}

	switch ic.Type {
	case discordgo.InteractionMessageComponent:
		d.handleComponent(s, ic)
	case discordgo.InteractionModalSubmit:
		d.handleModal(s, ic)
	}
}

func (d *Dispatcher) request(ic *discordgo.InteractionCreate) ports.OpRequest {
	name := ic.Member.Nick
	if name == "" && ic.Member.User.GlobalName != "" {
		name = ic.Member.User.GlobalName
	}
	if name == "" {
		name = ic.Member.User.Username
	}
	return ports.OpRequest{
		GuildID:  domain.GuildID(ic.GuildID),
		ActorID:  domain.UserID(ic.Member.User.ID),
		Username: name,
	}
}

func (d *Dispatcher) handleComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	// the gateway can redeliver a component submission under the same
	// interaction id, and the operation behind it must run once
	if !d.guard.Once(ic.ID) {
		return
	}

	data := ic.MessageComponentData()
	req := d.request(ic)

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	switch data.CustomID {
	case idRename:
		d.openRenameModal(s, ic, req)
		return
	case idLimit:
		d.openLimitModal(s, ic, req)
		return
	case idDND:
		d.run(s, ic, req, "dnd", func() (string, error) {
			enabled, err := d.ops.ToggleDND(ctx, req)
			if err != nil {
				return "", err
			}
			if enabled {
				return "Do-not-disturb enabled. Only trusted users can speak.", nil
			}
			return "Do-not-disturb disabled.", nil
		})
	case idClaim:
		d.run(s, ic, req, "claim", func() (string, error) {
			if err := d.ops.Claim(ctx, req); err != nil {
				return "", err
			}
			return "You now own this channel.", nil
		})
	case idDelete:
		d.run(s, ic, req, "delete", func() (string, error) {
			if err := d.ops.Delete(ctx, req); err != nil {
				return "", err
			}
			return "Channel deleted.", nil
		})
	case idBitrate:
		d.run(s, ic, req, "bitrate", func() (string, error) {
			kbps, err := strconv.Atoi(firstValue(data))
			if err != nil {
				return "", apperrors.NewInvalidInput("bitrate must be a number")
			}
			applied, err := d.ops.SetBitrate(ctx, req, kbps)
			if err != nil {
				return "", err
			}
			if applied != kbps {
				return fmt.Sprintf("Bitrate set to %d kbps (guild maximum).", applied), nil
			}
			return fmt.Sprintf("Bitrate set to %d kbps.", applied), nil
		})
	case idRegion:
		d.run(s, ic, req, "region", func() (string, error) {
			region := domain.Region(firstValue(data))
			if err := d.ops.SetRegion(ctx, req, region); err != nil {
				return "", err
			}
			if region == domain.RegionAuto {
				return "Region set to automatic.", nil
			}
			return fmt.Sprintf("Region set to %s.", region), nil
		})
	case idPrivacy:
		d.run(s, ic, req, "privacy", func() (string, error) {
			mode := domain.PrivacyMode(firstValue(data))
			if err := d.ops.SetPrivacy(ctx, req, mode); err != nil {
				return "", err
			}
			return "Privacy updated.", nil
		})
	case idPreset:
		d.run(s, ic, req, "preset", func() (string, error) {
			preset, err := d.ops.ApplyPreset(ctx, req, firstValue(data))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Preset **%s** applied.", preset.Name), nil
		})
	case idTrust:
		d.runTarget(s, ic, req, "trust", data, d.ops.Trust, "User trusted.")
	case idUntrust:
		d.runTarget(s, ic, req, "untrust", data, d.ops.Untrust, "User untrusted.")
	case idBlock:
		d.runTarget(s, ic, req, "block", data, d.ops.Block, "User blocked.")
	case idUnblock:
		d.runTarget(s, ic, req, "unblock", data, d.ops.Unblock, "User unblocked.")
	case idInvite:
		d.runTarget(s, ic, req, "invite", data, d.ops.Invite, "Invite sent.")
	case idKick:
		d.runTarget(s, ic, req, "kick", data, d.ops.Kick, "User kicked.")
	case idTransfer:
		d.run(s, ic, req, "transfer", func() (string, error) {
			target := domain.UserID(firstValue(data))
			res, err := d.ops.Transfer(ctx, req, target)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Ownership transferred to <@%s>.", res.NewOwnerID), nil
		})
	}
}

type targetOp func(ctx context.Context, req ports.OpRequest, target domain.UserID) error

func (d *Dispatcher) runTarget(s *discordgo.Session, ic *discordgo.InteractionCreate, req ports.OpRequest, action string, data discordgo.MessageComponentInteractionData, op targetOp, success string) {
	d.run(s, ic, req, action, func() (string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := op(ctx, req, domain.UserID(firstValue(data))); err != nil {
			return "", err
		}
		return success, nil
	})
}

func (d *Dispatcher) run(s *discordgo.Session, ic *discordgo.InteractionCreate, req ports.OpRequest, action string, fn func() (string, error)) {
	started := time.Now()
	msg, err := fn()
	if err != nil {
		d.metrics.RecordOperationRejected(action, string(apperrors.CodeOf(err)))
		d.reply(s, ic, userMessage(err))
		if !expectedFailure(err) {
			d.logger.Error("operation failed",
				zap.String("action", action),
				zap.String("guild_id", string(req.GuildID)),
				zap.String("user_id", string(req.ActorID)),
				zap.Error(err),
			)
		}
		return
	}

	d.metrics.RecordOperation(action, time.Since(started))
	d.reply(s, ic, msg)
}

func (d *Dispatcher) openRenameModal(s *discordgo.Session, ic *discordgo.InteractionCreate, req ports.OpRequest) {
	token, err := d.guard.Begin(req.ActorID)
	if err != nil {
		d.reply(s, ic, userMessage(err))
		return
	}

	err = s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: idModalRename + ":" + token,
			Title:    "Rename channel",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "name",
						Label:     "New channel name",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 100,
					},
				}},
			},
		},
	})
	if err != nil {
		d.guard.End(req.ActorID, token)
		d.logger.Warn("failed to open rename modal", zap.Error(err))
	}
}

func (d *Dispatcher) openLimitModal(s *discordgo.Session, ic *discordgo.InteractionCreate, req ports.OpRequest) {
	token, err := d.guard.Begin(req.ActorID)
	if err != nil {
		d.reply(s, ic, userMessage(err))
		return
	}

	err = s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: idModalLimit + ":" + token,
			Title:    "Set user limit",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "limit",
						Label:       "User limit (0 = unlimited)",
						Style:       discordgo.TextInputShort,
						Required:    true,
						MaxLength:   2,
						Placeholder: "0-99",
					},
				}},
			},
		},
	})
	if err != nil {
		d.guard.End(req.ActorID, token)
		d.logger.Warn("failed to open limit modal", zap.Error(err))
	}
}

func (d *Dispatcher) handleModal(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.ModalSubmitData()
	req := d.request(ic)

	// custom ids are "tv:modal:<kind>:<token>"
	idx := strings.LastIndex(data.CustomID, ":")
	if idx < 0 {
		return
	}
	id, token := data.CustomID[:idx], data.CustomID[idx+1:]
	d.guard.End(req.ActorID, token)

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	switch id {
	case idModalRename:
		d.run(s, ic, req, "rename", func() (string, error) {
			applied, err := d.ops.Rename(ctx, req, textValue(data, "name"))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Channel renamed to **%s**.", applied), nil
		})
	case idModalLimit:
		d.run(s, ic, req, "limit", func() (string, error) {
			limit, err := strconv.Atoi(strings.TrimSpace(textValue(data, "limit")))
			if err != nil {
				return "", apperrors.NewInvalidInput("limit must be a number")
			}
			if err := d.ops.SetUserLimit(ctx, req, limit); err != nil {
				return "", err
			}
			if limit == 0 {
				return "User limit removed.", nil
			}
			return fmt.Sprintf("User limit set to %d.", limit), nil
		})
	}
}

func (d *Dispatcher) reply(s *discordgo.Session, ic *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		d.logger.Warn("failed to respond to interaction", zap.Error(err))
	}
}

func firstValue(data discordgo.MessageComponentInteractionData) string {
	if len(data.Values) == 0 {
		return ""
	}
	return data.Values[0]
}

func textValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}

// expectedFailure reports whether the error is a user-facing rejection rather
// than an operational fault worth logging at error level.
func expectedFailure(err error) bool {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.Code != apperrors.ErrCodeInternal && appErr.Code != apperrors.ErrCodePlatform
	}
	return true
}

// userMessage maps an operation failure to the ephemeral reply shown to the
// acting user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotInChannel):
		return "You are not connected to a voice channel."
	case errors.Is(err, domain.ErrWrongChannel):
		return "This only works inside a temporary voice channel."
	case errors.Is(err, domain.ErrNotOwner):
		return "Only the channel owner can do that."
	case errors.Is(err, domain.ErrAlreadyOwner):
		return "You already own this channel."
	case errors.Is(err, domain.ErrOwnerPresent):
		return "The current owner is still in the channel."
	case errors.Is(err, domain.ErrSelfTarget):
		return "You cannot target yourself."
	case errors.Is(err, domain.ErrTargetAdmin):
		return "That user is an administrator."
	case errors.Is(err, domain.ErrTargetBot):
		return "Bots cannot be targeted."
	case errors.Is(err, domain.ErrTargetOutranksBot):
		return "That user's role is above mine."
	case errors.Is(err, domain.ErrTargetNotInChannel):
		return "That user is not in your channel."
	case errors.Is(err, domain.ErrTargetInChannel):
		return "That user is already in your channel."
	case errors.Is(err, domain.ErrTargetBlocked):
		return "That user is blocked. Unblock them first."
	case errors.Is(err, domain.ErrTargetNotBlocked):
		return "That user is not blocked."
	case errors.Is(err, domain.ErrInvalidTransfer):
		return "Ownership cannot be transferred to that user."
	case errors.Is(err, domain.ErrPresetNotFound):
		return "Unknown preset."
	case errors.Is(err, domain.ErrPresetRestricted):
		return "That preset requires a special role."
	case errors.Is(err, domain.ErrFlowActive):
		return "Finish your current action first."
	case errors.Is(err, domain.ErrDMUnreachable):
		return "Invite created, but the user's DMs are closed."
	case errors.Is(err, domain.ErrChannelGone):
		return "That channel no longer exists."
	case errors.Is(err, domain.ErrForbidden):
		return "I am missing the permissions to do that."
	}

	if appErr := apperrors.GetAppError(err); appErr != nil {
		switch appErr.Code {
		case apperrors.ErrCodeRateLimit:
			if retry, ok := appErr.Context["retry_after_seconds"].(int); ok {
				wait := time.Duration(retry) * time.Second
				return fmt.Sprintf("Slow down. Try again in %s.", utils.FormatWait(wait))
			}
			return "Slow down. Try again shortly."
		case apperrors.ErrCodeInvalidInput:
			return appErr.Message
		}
	}
	return "Something went wrong. Please try again."
}
