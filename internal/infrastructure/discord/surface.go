package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

// permissionUseSoundboard is the soundboard permission bit; discordgo 0.28
// does not name it.
const permissionUseSoundboard int64 = 1 << 42

var capabilityBits = map[domain.Capability]int64{
	domain.CapConnect:            discordgo.PermissionVoiceConnect,
	domain.CapViewChannel:        discordgo.PermissionViewChannel,
	domain.CapSpeak:              discordgo.PermissionVoiceSpeak,
	domain.CapStream:             discordgo.PermissionVoiceStreamVideo,
	domain.CapSendMessages:       discordgo.PermissionSendMessages,
	domain.CapReadMessageHistory: discordgo.PermissionReadMessageHistory,
	domain.CapManageChannel:      discordgo.PermissionManageChannels,
	domain.CapManageRoles:        discordgo.PermissionManageRoles,
	domain.CapMuteMembers:        discordgo.PermissionVoiceMuteMembers,
	domain.CapDeafenMembers:      discordgo.PermissionVoiceDeafenMembers,
	domain.CapMoveMembers:        discordgo.PermissionVoiceMoveMembers,
	domain.CapPrioritySpeaker:    discordgo.PermissionVoicePrioritySpeaker,
	domain.CapUseVoiceActivity:   discordgo.PermissionVoiceUseVAD,
	domain.CapUseSoundboard:      permissionUseSoundboard,
	domain.CapUseActivities:      discordgo.PermissionUseActivities,
}

func bitsOf(set domain.CapabilitySet) int64 {
	var bits int64
	for c, bit := range capabilityBits {
		if set.Has(c) {
			bits |= bit
		}
	}
	return bits
}

// Surface implements ports.VoiceSurface over a discordgo session.
type Surface struct {
	session       *discordgo.Session
	elevatedRoles map[string]struct{} // lowercased role names
	logger        *zap.Logger
}

func NewSurface(session *discordgo.Session, elevatedRoles []string, logger *zap.Logger) ports.VoiceSurface {
	elevated := make(map[string]struct{}, len(elevatedRoles))
	for _, name := range elevatedRoles {
		elevated[strings.ToLower(name)] = struct{}{}
	}
	return &Surface{
		session:       session,
		elevatedRoles: elevated,
		logger:        logger,
	}
}

// mapError translates Discord REST failures into the domain's sentinel
// errors. Anything unrecognized passes through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownChannel:
			return domain.ErrChannelGone
		case discordgo.ErrCodeCannotSendMessagesToThisUser:
			return domain.ErrDMUnreachable
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return domain.ErrForbidden
		}
	}
	if rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusNotFound:
			return domain.ErrChannelGone
		case http.StatusForbidden:
			return domain.ErrForbidden
		}
	}
	return err
}

func (s *Surface) guild(guild domain.GuildID) (*discordgo.Guild, error) {
	g, err := s.session.State.Guild(string(guild))
	if err == nil {
		return g, nil
	}
	g, err = s.session.Guild(string(guild))
	if err != nil {
		return nil, mapError(err)
	}
	return g, nil
}

func (s *Surface) channel(id domain.ChannelID) (*discordgo.Channel, error) {
	ch, err := s.session.State.Channel(string(id))
	if err == nil {
		return ch, nil
	}
	ch, err = s.session.Channel(string(id))
	if err != nil {
		return nil, mapError(err)
	}
	return ch, nil
}

func (s *Surface) member(guild domain.GuildID, user domain.UserID) (*discordgo.Member, error) {
	m, err := s.session.State.Member(string(guild), string(user))
	if err == nil && m.User != nil {
		return m, nil
	}
	m, err = s.session.GuildMember(string(guild), string(user))
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

// overwriteTarget resolves the pseudo-target for the everyone role to the
// real role id, which Discord defines as the guild id.
func (s *Surface) overwriteTarget(guild domain.GuildID, target domain.UserID) (string, discordgo.PermissionOverwriteType) {
	if target == domain.EveryoneTarget {
		return string(guild), discordgo.PermissionOverwriteTypeRole
	}
	return string(target), discordgo.PermissionOverwriteTypeMember
}

func (s *Surface) CreateChannel(ctx context.Context, guild domain.GuildID, parentID, name string, overwrites []domain.Overwrite) (domain.ChannelID, error) {
	data := discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: parentID,
	}
	for _, ow := range overwrites {
		id, kind := s.overwriteTarget(guild, ow.Target)
		data.PermissionOverwrites = append(data.PermissionOverwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  kind,
			Allow: bitsOf(ow.Allow),
			Deny:  bitsOf(ow.Deny),
		})
	}

	ch, err := s.session.GuildChannelCreateComplex(string(guild), data, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	return domain.ChannelID(ch.ID), nil
}

func (s *Surface) DeleteChannel(ctx context.Context, guild domain.GuildID, id domain.ChannelID) error {
	_, err := s.session.ChannelDelete(string(id), discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) ApplyEdit(ctx context.Context, guild domain.GuildID, id domain.ChannelID, edit domain.PermissionEdit) error {
	ch, err := s.channel(id)
	if err != nil {
		return err
	}

	targetID, kind := s.overwriteTarget(guild, edit.Target)
	var oldAllow, oldDeny int64
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == targetID {
			oldAllow, oldDeny = ow.Allow, ow.Deny
			break
		}
	}

	allowBits := bitsOf(edit.Allow)
	denyBits := bitsOf(edit.Deny)
	clearBits := bitsOf(edit.Clear)

	newAllow := (oldAllow &^ clearBits &^ denyBits) | allowBits
	newDeny := (oldDeny &^ clearBits &^ allowBits) | denyBits

	if newAllow == 0 && newDeny == 0 {
		err = s.session.ChannelPermissionDelete(string(id), targetID, discordgo.WithContext(ctx))
		return mapError(err)
	}
	err = s.session.ChannelPermissionSet(string(id), targetID, kind, newAllow, newDeny, discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) SetOverwrite(ctx context.Context, guild domain.GuildID, id domain.ChannelID, ow domain.Overwrite) error {
	targetID, kind := s.overwriteTarget(guild, ow.Target)
	err := s.session.ChannelPermissionSet(string(id), targetID, kind, bitsOf(ow.Allow), bitsOf(ow.Deny), discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) ClearOverwrite(ctx context.Context, guild domain.GuildID, id domain.ChannelID, target domain.UserID) error {
	targetID, _ := s.overwriteTarget(guild, target)
	err := s.session.ChannelPermissionDelete(string(id), targetID, discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) SetName(ctx context.Context, guild domain.GuildID, id domain.ChannelID, name string) error {
	_, err := s.session.ChannelEditComplex(string(id), &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) SetUserLimit(ctx context.Context, guild domain.GuildID, id domain.ChannelID, limit int) error {
	// ChannelEdit drops a zero user_limit, and zero means unlimited here,
	// so patch the channel directly.
	body := struct {
		UserLimit int `json:"user_limit"`
	}{limit}
	endpoint := discordgo.EndpointChannel(string(id))
	_, err := s.session.RequestWithBucketID("PATCH", endpoint, body, endpoint, discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) SetBitrate(ctx context.Context, guild domain.GuildID, id domain.ChannelID, kbps int) error {
	_, err := s.session.ChannelEditComplex(string(id), &discordgo.ChannelEdit{Bitrate: kbps * 1000}, discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) SetRegion(ctx context.Context, guild domain.GuildID, id domain.ChannelID, region domain.Region) error {
	// ChannelEdit has no rtc_region field, so patch the channel directly.
	// A null region returns the channel to automatic selection.
	body := struct {
		RTCRegion *string `json:"rtc_region"`
	}{}
	if region != domain.RegionAuto {
		v := string(region)
		body.RTCRegion = &v
	}
	endpoint := discordgo.EndpointChannel(string(id))
	_, err := s.session.RequestWithBucketID("PATCH", endpoint, body, endpoint, discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) MoveMember(ctx context.Context, guild domain.GuildID, user domain.UserID, id domain.ChannelID) error {
	channelID := string(id)
	err := s.session.GuildMemberMove(string(guild), string(user), &channelID, discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) DisconnectMember(ctx context.Context, guild domain.GuildID, user domain.UserID) error {
	err := s.session.GuildMemberMove(string(guild), string(user), nil, discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) CreateInvite(ctx context.Context, id domain.ChannelID, maxUses int, maxAge time.Duration) (string, error) {
	inv, err := s.session.ChannelInviteCreate(string(id), discordgo.Invite{
		MaxAge:  int(maxAge.Seconds()),
		MaxUses: maxUses,
		Unique:  true,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	return "https://discord.gg/" + inv.Code, nil
}

func (s *Surface) SendDirectMessage(ctx context.Context, user domain.UserID, content string) error {
	dm, err := s.session.UserChannelCreate(string(user), discordgo.WithContext(ctx))
	if err != nil {
		return mapError(err)
	}
	_, err = s.session.ChannelMessageSend(dm.ID, content, discordgo.WithContext(ctx))
	return mapError(err)
}

func (s *Surface) PostPanels(ctx context.Context, id domain.ChannelID) error {
	if err := postControlPanel(ctx, s.session, string(id)); err != nil {
		return mapError(err)
	}
	return mapError(postMemberPanel(ctx, s.session, string(id)))
}

func (s *Surface) Members(ctx context.Context, guild domain.GuildID, id domain.ChannelID) ([]domain.UserID, error) {
	g, err := s.guild(guild)
	if err != nil {
		return nil, err
	}

	var out []domain.UserID
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == string(id) {
			out = append(out, domain.UserID(vs.UserID))
		}
	}
	return out, nil
}

func (s *Surface) MemberVoiceChannel(ctx context.Context, guild domain.GuildID, user domain.UserID) (domain.ChannelID, error) {
	g, err := s.guild(guild)
	if err != nil {
		return "", err
	}

	for _, vs := range g.VoiceStates {
		if vs.UserID == string(user) {
			return domain.ChannelID(vs.ChannelID), nil
		}
	}
	return "", nil
}

func (s *Surface) MemberName(ctx context.Context, guild domain.GuildID, user domain.UserID) (string, error) {
	m, err := s.member(guild, user)
	if err != nil {
		return "", err
	}
	if m.Nick != "" {
		return m.Nick, nil
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName, nil
	}
	return m.User.Username, nil
}

func (s *Surface) IsAdmin(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error) {
	g, err := s.guild(guild)
	if err != nil {
		return false, err
	}
	if g.OwnerID == string(user) {
		return true, nil
	}

	m, err := s.member(guild, user)
	if err != nil {
		return false, err
	}
	for _, roleID := range m.Roles {
		role := roleByID(g, roleID)
		if role != nil && role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true, nil
		}
	}
	return false, nil
}

func (s *Surface) IsBot(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error) {
	m, err := s.member(guild, user)
	if err != nil {
		return false, err
	}
	return m.User.Bot, nil
}

func (s *Surface) OutranksBot(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error) {
	g, err := s.guild(guild)
	if err != nil {
		return false, err
	}
	if g.OwnerID == string(user) {
		return true, nil
	}

	botID := domain.UserID(s.session.State.User.ID)
	userTop, err := s.topRolePosition(g, guild, user)
	if err != nil {
		return false, err
	}
	botTop, err := s.topRolePosition(g, guild, botID)
	if err != nil {
		return false, err
	}
	return userTop >= botTop, nil
}

func (s *Surface) topRolePosition(g *discordgo.Guild, guild domain.GuildID, user domain.UserID) (int, error) {
	m, err := s.member(guild, user)
	if err != nil {
		return 0, err
	}

	top := -1
	for _, roleID := range m.Roles {
		if role := roleByID(g, roleID); role != nil && role.Position > top {
			top = role.Position
		}
	}
	return top, nil
}

func (s *Surface) HasElevatedRole(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error) {
	if len(s.elevatedRoles) == 0 {
		return false, nil
	}

	g, err := s.guild(guild)
	if err != nil {
		return false, err
	}
	m, err := s.member(guild, user)
	if err != nil {
		return false, err
	}

	for _, roleID := range m.Roles {
		role := roleByID(g, roleID)
		if role == nil {
			continue
		}
		if _, ok := s.elevatedRoles[strings.ToLower(role.Name)]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Surface) TrustedTargets(ctx context.Context, guild domain.GuildID, id domain.ChannelID) ([]domain.UserID, error) {
	ch, err := s.channel(id)
	if err != nil {
		return nil, err
	}

	var out []domain.UserID
	for _, ow := range ch.PermissionOverwrites {
		if ow.Type != discordgo.PermissionOverwriteTypeMember {
			continue
		}
		if ow.Allow&discordgo.PermissionVoiceConnect != 0 {
			out = append(out, domain.UserID(ow.ID))
		}
	}
	return out, nil
}

func (s *Surface) IsBlocked(ctx context.Context, guild domain.GuildID, id domain.ChannelID, user domain.UserID) (bool, error) {
	ch, err := s.channel(id)
	if err != nil {
		return false, err
	}

	for _, ow := range ch.PermissionOverwrites {
		if ow.Type == discordgo.PermissionOverwriteTypeMember && ow.ID == string(user) {
			return ow.Deny&discordgo.PermissionVoiceConnect != 0, nil
		}
	}
	return false, nil
}

func (s *Surface) IsLocked(ctx context.Context, guild domain.GuildID, id domain.ChannelID) (bool, error) {
	return s.everyoneDenies(guild, id, discordgo.PermissionVoiceConnect)
}

func (s *Surface) IsDND(ctx context.Context, guild domain.GuildID, id domain.ChannelID) (bool, error) {
	return s.everyoneDenies(guild, id, discordgo.PermissionVoiceSpeak)
}

func (s *Surface) everyoneDenies(guild domain.GuildID, id domain.ChannelID, bit int64) (bool, error) {
	ch, err := s.channel(id)
	if err != nil {
		return false, err
	}

	for _, ow := range ch.PermissionOverwrites {
		if ow.Type == discordgo.PermissionOverwriteTypeRole && ow.ID == string(guild) {
			return ow.Deny&bit != 0, nil
		}
	}
	return false, nil
}

func (s *Surface) ChannelInfo(ctx context.Context, guild domain.GuildID, id domain.ChannelID) (*ports.ChannelInfo, error) {
	ch, err := s.channel(id)
	if err != nil {
		return nil, err
	}

	members, err := s.Members(ctx, guild, id)
	if err != nil {
		return nil, err
	}
	return &ports.ChannelInfo{
		ID:          domain.ChannelID(ch.ID),
		Name:        ch.Name,
		ParentID:    ch.ParentID,
		MemberCount: len(members),
	}, nil
}

func (s *Surface) CategoryChannels(ctx context.Context, guild domain.GuildID, parentID string) ([]ports.ChannelInfo, error) {
	g, err := s.guild(guild)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, vs := range g.VoiceStates {
		counts[vs.ChannelID]++
	}

	var out []ports.ChannelInfo
	for _, ch := range g.Channels {
		if ch.Type != discordgo.ChannelTypeGuildVoice || ch.ParentID != parentID {
			continue
		}
		out = append(out, ports.ChannelInfo{
			ID:          domain.ChannelID(ch.ID),
			Name:        ch.Name,
			ParentID:    ch.ParentID,
			MemberCount: counts[ch.ID],
		})
	}
	return out, nil
}

func (s *Surface) GuildMaxBitrate(ctx context.Context, guild domain.GuildID) (int, error) {
	g, err := s.guild(guild)
	if err != nil {
		return 0, err
	}

	switch g.PremiumTier {
	case discordgo.PremiumTier3:
		return 384, nil
	case discordgo.PremiumTier2:
		return 256, nil
	case discordgo.PremiumTier1:
		return 128, nil
	default:
		return 96, nil
	}
}

func roleByID(g *discordgo.Guild, id string) *discordgo.Role {
	for _, role := range g.Roles {
		if role.ID == id {
			return role
		}
	}
	return nil
}
