package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"tempvoice/internal/core/domain"
)

// Component custom ids. Modal ids carry the interaction flow token as a
// trailing segment.
const (
	idRename   = "tv:rename"
	idLimit    = "tv:limit"
	idDND      = "tv:dnd"
	idClaim    = "tv:claim"
	idDelete   = "tv:delete"
	idBitrate  = "tv:bitrate"
	idRegion   = "tv:region"
	idPrivacy  = "tv:privacy"
	idPreset   = "tv:preset"
	idTrust    = "tv:trust"
	idUntrust  = "tv:untrust"
	idBlock    = "tv:block"
	idUnblock  = "tv:unblock"
	idInvite   = "tv:invite"
	idKick     = "tv:kick"
	idTransfer = "tv:transfer"

	idModalRename = "tv:modal:rename"
	idModalLimit  = "tv:modal:limit"
)

// postControlPanel sends the channel control panel message into the given
// text channel.
func postControlPanel(ctx context.Context, session *discordgo.Session, channelID string) error {
	_, err := session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    "**Voice channel controls**",
		Components: panelComponents(),
	}, discordgo.WithContext(ctx))
	return err
}

func panelComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Rename", Style: discordgo.SecondaryButton, CustomID: idRename},
			discordgo.Button{Label: "Limit", Style: discordgo.SecondaryButton, CustomID: idLimit},
			discordgo.Button{Label: "Do Not Disturb", Style: discordgo.SecondaryButton, CustomID: idDND},
			discordgo.Button{Label: "Claim", Style: discordgo.PrimaryButton, CustomID: idClaim},
			discordgo.Button{Label: "Delete", Style: discordgo.DangerButton, CustomID: idDelete},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			bitrateMenu(),
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			regionMenu(),
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			privacyMenu(),
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			presetMenu(),
		}},
	}
}

// postMemberPanel sends the member management panel (user select menus) into
// the given text channel. Discord caps five rows per message, so this lives
// in a second message.
func postMemberPanel(ctx context.Context, session *discordgo.Session, channelID string) error {
	_, err := session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    "**Member controls**",
		Components: memberComponents(),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Components: revokeComponents(),
	}, discordgo.WithContext(ctx))
	return err
}

func memberComponents() []discordgo.MessageComponent {
	userRow := func(customID, placeholder string) discordgo.ActionsRow {
		return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.UserSelectMenu,
				CustomID:    customID,
				Placeholder: placeholder,
			},
		}}
	}
	return []discordgo.MessageComponent{
		userRow(idTrust, "Trust a user"),
		userRow(idBlock, "Block a user"),
		userRow(idInvite, "Invite a user"),
		userRow(idKick, "Kick a user"),
		userRow(idTransfer, "Transfer ownership"),
	}
}

func revokeComponents() []discordgo.MessageComponent {
	userRow := func(customID, placeholder string) discordgo.ActionsRow {
		return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.UserSelectMenu,
				CustomID:    customID,
				Placeholder: placeholder,
			},
		}}
	}
	return []discordgo.MessageComponent{
		userRow(idUntrust, "Untrust a user"),
		userRow(idUnblock, "Unblock a user"),
	}
}

func bitrateMenu() discordgo.SelectMenu {
	options := make([]discordgo.SelectMenuOption, 0, len(domain.BitrateMenu))
	for _, kbps := range domain.BitrateMenu {
		options = append(options, discordgo.SelectMenuOption{
			Label: fmt.Sprintf("%d kbps", kbps),
			Value: fmt.Sprintf("%d", kbps),
		})
	}
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    idBitrate,
		Placeholder: "Bitrate",
		Options:     options,
	}
}

func regionMenu() discordgo.SelectMenu {
	options := make([]discordgo.SelectMenuOption, 0, len(domain.Regions))
	for _, region := range domain.Regions {
		label := string(region)
		if region == domain.RegionAuto {
			label = "Automatic"
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: label,
			Value: string(region),
		})
	}
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    idRegion,
		Placeholder: "Region",
		Options:     options,
	}
}

func privacyMenu() discordgo.SelectMenu {
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    idPrivacy,
		Placeholder: "Privacy",
		Options: []discordgo.SelectMenuOption{
			{Label: "Lock", Value: string(domain.PrivacyLock), Description: "Only trusted users can join"},
			{Label: "Unlock", Value: string(domain.PrivacyUnlock), Description: "Anyone can join"},
			{Label: "Invisible", Value: string(domain.PrivacyInvisible), Description: "Hide the channel"},
			{Label: "Visible", Value: string(domain.PrivacyVisible), Description: "Show the channel"},
			{Label: "Close chat", Value: string(domain.PrivacyCloseChat), Description: "Only trusted users can write"},
			{Label: "Open chat", Value: string(domain.PrivacyOpenChat), Description: "Anyone can write"},
		},
	}
}

func presetMenu() discordgo.SelectMenu {
	presets := domain.Presets()
	options := make([]discordgo.SelectMenuOption, 0, len(presets))
	for _, p := range presets {
		options = append(options, discordgo.SelectMenuOption{
			Label:       p.Name,
			Value:       p.Key,
			Description: p.Description,
		})
	}
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    idPreset,
		Placeholder: "Apply a preset",
		Options:     options,
	}
}
