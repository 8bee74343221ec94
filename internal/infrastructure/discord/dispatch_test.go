package discord

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"tempvoice/internal/core/domain"
	apperrors "tempvoice/pkg/errors"
)

func TestUserMessageMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.ErrNotInChannel, "You are not connected to a voice channel."},
		{domain.ErrNotOwner, "Only the channel owner can do that."},
		{fmt.Errorf("kick: %w", domain.ErrTargetAdmin), "That user is an administrator."},
		{domain.ErrDMUnreachable, "Invite created, but the user's DMs are closed."},
		{domain.ErrChannelGone, "That channel no longer exists."},
		{errors.New("socket hangup"), "Something went wrong. Please try again."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, userMessage(tc.err))
	}
}

func TestUserMessageRateLimitIncludesWait(t *testing.T) {
	msg := userMessage(apperrors.NewRateLimit(90))
	assert.Equal(t, "Slow down. Try again in 1m30s.", msg)
}

func TestUserMessageInvalidInputPassesThrough(t *testing.T) {
	err := apperrors.NewInvalidInput("channel name must be at least 2 characters")
	assert.Equal(t, "channel name must be at least 2 characters", userMessage(err))
}

func TestExpectedFailure(t *testing.T) {
	assert.True(t, expectedFailure(apperrors.NewRateLimit(5)))
	assert.True(t, expectedFailure(domain.ErrNotOwner))
	assert.False(t, expectedFailure(apperrors.New(apperrors.ErrCodeInternal, "boom")))
	assert.False(t, expectedFailure(apperrors.NewPlatform(errors.New("503"), "discord api")))
}

func TestTextValueFindsInput(t *testing.T) {
	data := discordgo.ModalSubmitInteractionData{
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: "tv:name", Value: "den of alice"},
			}},
		},
	}
	assert.Equal(t, "den of alice", textValue(data, "tv:name"))
	assert.Equal(t, "", textValue(data, "tv:limit"))
}

func TestPanelsRespectComponentRowCap(t *testing.T) {
	// Discord rejects messages with more than five component rows.
	assert.LessOrEqual(t, len(panelComponents()), 5)
	assert.LessOrEqual(t, len(memberComponents()), 5)
	assert.LessOrEqual(t, len(revokeComponents()), 5)
}
