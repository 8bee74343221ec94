package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
)

// fakeSurface is an in-memory stand-in for the platform adapter. It tracks
// channels, voice presence and overwrites, and records every mutating call so
// tests can assert that rejected operations never touched the platform.
type fakeSurface struct {
	mu sync.Mutex

	nextID   int
	channels map[domain.ChannelID]*fakeChannel
	voice    map[domain.UserID]domain.ChannelID
	names    map[domain.UserID]string
	admins   map[domain.UserID]bool
	bots     map[domain.UserID]bool
	outranks map[domain.UserID]bool
	elevated map[domain.UserID]bool
	dms      map[domain.UserID][]string
	dmErrs   map[domain.UserID]error

	maxBitrate int
	createErr  error
	moveErr    error

	calls []string
}

type fakeChannel struct {
	info       ports.ChannelInfo
	overwrites map[domain.UserID]domain.Overwrite
	bitrate    int
	limit      int
	region     domain.Region
	locked     bool
	dnd        bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		channels:   make(map[domain.ChannelID]*fakeChannel),
		voice:      make(map[domain.UserID]domain.ChannelID),
		names:      make(map[domain.UserID]string),
		admins:     make(map[domain.UserID]bool),
		bots:       make(map[domain.UserID]bool),
		outranks:   make(map[domain.UserID]bool),
		elevated:   make(map[domain.UserID]bool),
		dms:        make(map[domain.UserID][]string),
		dmErrs:     make(map[domain.UserID]error),
		maxBitrate: 96,
	}
}

func (f *fakeSurface) note(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// addChannel seeds a pre-existing channel such as a lobby.
func (f *fakeSurface) addChannel(id domain.ChannelID, name, parentID string) *fakeChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := &fakeChannel{
		info:       ports.ChannelInfo{ID: id, Name: name, ParentID: parentID},
		overwrites: make(map[domain.UserID]domain.Overwrite),
	}
	f.channels[id] = ch
	return ch
}

// connect puts a user into a channel, maintaining member counts.
func (f *fakeSurface) connect(user domain.UserID, id domain.ChannelID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectLocked(user)
	f.voice[user] = id
	if ch, ok := f.channels[id]; ok {
		ch.info.MemberCount++
	}
}

func (f *fakeSurface) disconnect(user domain.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectLocked(user)
}

func (f *fakeSurface) disconnectLocked(user domain.UserID) {
	if prev, ok := f.voice[user]; ok {
		if ch, ok := f.channels[prev]; ok && ch.info.MemberCount > 0 {
			ch.info.MemberCount--
		}
		delete(f.voice, user)
	}
}

func (f *fakeSurface) mutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSurface) CreateChannel(ctx context.Context, guild domain.GuildID, parentID, name string, overwrites []domain.Overwrite) (domain.ChannelID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := domain.ChannelID(fmt.Sprintf("50000000000000%04d", f.nextID))
	ch := &fakeChannel{
		info:       ports.ChannelInfo{ID: id, Name: name, ParentID: parentID},
		overwrites: make(map[domain.UserID]domain.Overwrite),
	}
	for _, ow := range overwrites {
		ch.overwrites[ow.Target] = ow
	}
	f.channels[id] = ch
	f.note("create %s", name)
	return id, nil
}

func (f *fakeSurface) DeleteChannel(ctx context.Context, guild domain.GuildID, id domain.ChannelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[id]; !ok {
		return domain.ErrChannelGone
	}
	delete(f.channels, id)
	for user, at := range f.voice {
		if at == id {
			delete(f.voice, user)
		}
	}
	f.note("delete %s", id)
	return nil
}

func (f *fakeSurface) ApplyEdit(ctx context.Context, guild domain.GuildID, id domain.ChannelID, edit domain.PermissionEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return domain.ErrChannelGone
	}

	ow := ch.overwrites[edit.Target]
	ow.Target = edit.Target
	ow.Allow = (ow.Allow &^ edit.Deny &^ edit.Clear) | edit.Allow
	ow.Deny = (ow.Deny &^ edit.Allow &^ edit.Clear) | edit.Deny
	ch.overwrites[edit.Target] = ow

	if edit.Target == domain.EveryoneTarget {
		if edit.Deny.Has(domain.CapConnect) {
			ch.locked = true
		}
		if edit.Allow.Has(domain.CapConnect) || edit.Clear.Has(domain.CapConnect) {
			ch.locked = false
		}
		if edit.Deny.Has(domain.CapSpeak) {
			ch.dnd = true
		}
		if edit.Clear.Has(domain.CapSpeak) || edit.Allow.Has(domain.CapSpeak) {
			ch.dnd = false
		}
	}
	f.note("edit %s target=%s", id, edit.Target)
	return nil
}

func (f *fakeSurface) SetOverwrite(ctx context.Context, guild domain.GuildID, id domain.ChannelID, ow domain.Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return domain.ErrChannelGone
	}
	ch.overwrites[ow.Target] = ow
	f.note("overwrite %s target=%s", id, ow.Target)
	return nil
}

func (f *fakeSurface) ClearOverwrite(ctx context.Context, guild domain.GuildID, id domain.ChannelID, target domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return domain.ErrChannelGone
	}
	delete(ch.overwrites, target)
	f.note("clear %s target=%s", id, target)
	return nil
}

func (f *fakeSurface) SetName(ctx context.Context, guild domain.GuildID, id domain.ChannelID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return domain.ErrChannelGone
	}
	ch.info.Name = name
	f.note("rename %s", id)
	return nil
}

func (f *fakeSurface) SetUserLimit(ctx context.Context, guild domain.GuildID, id domain.ChannelID, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return domain.ErrChannelGone
	}
	ch.limit = limit
	f.note("limit %s", id)
	return nil
}

func (f *fakeSurface) SetBitrate(ctx context.Context, guild domain.GuildID, id domain.ChannelID, kbps int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return domain.ErrChannelGone
	}
	ch.bitrate = kbps
	f.note("bitrate %s", id)
	return nil
}

func (f *fakeSurface) SetRegion(ctx context.Context, guild domain.GuildID, id domain.ChannelID, region domain.Region) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return domain.ErrChannelGone
	}
	ch.region = region
	f.note("region %s", id)
	return nil
}

func (f *fakeSurface) MoveMember(ctx context.Context, guild domain.GuildID, user domain.UserID, id domain.ChannelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveErr != nil {
		return f.moveErr
	}
	if _, ok := f.channels[id]; !ok {
		return domain.ErrChannelGone
	}
	f.disconnectLocked(user)
	f.voice[user] = id
	f.channels[id].info.MemberCount++
	f.note("move %s to %s", user, id)
	return nil
}

func (f *fakeSurface) DisconnectMember(ctx context.Context, guild domain.GuildID, user domain.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectLocked(user)
	f.note("disconnect %s", user)
	return nil
}

func (f *fakeSurface) CreateInvite(ctx context.Context, id domain.ChannelID, maxUses int, maxAge time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[id]; !ok {
		return "", domain.ErrChannelGone
	}
	f.note("invite %s", id)
	return "https://invite.example/" + string(id), nil
}

func (f *fakeSurface) SendDirectMessage(ctx context.Context, user domain.UserID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.dmErrs[user]; ok {
		return err
	}
	f.dms[user] = append(f.dms[user], content)
	return nil
}

func (f *fakeSurface) PostPanels(ctx context.Context, id domain.ChannelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[id]; !ok {
		return domain.ErrChannelGone
	}
	f.note("panels %s", id)
	return nil
}

func (f *fakeSurface) Members(ctx context.Context, guild domain.GuildID, id domain.ChannelID) ([]domain.UserID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[id]; !ok {
		return nil, domain.ErrChannelGone
	}
	var out []domain.UserID
	for user, at := range f.voice {
		if at == id {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeSurface) MemberVoiceChannel(ctx context.Context, guild domain.GuildID, user domain.UserID) (domain.ChannelID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voice[user], nil
}

func (f *fakeSurface) MemberName(ctx context.Context, guild domain.GuildID, user domain.UserID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.names[user]; ok {
		return name, nil
	}
	return "user-" + string(user), nil
}

func (f *fakeSurface) IsAdmin(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins[user], nil
}

func (f *fakeSurface) IsBot(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bots[user], nil
}

func (f *fakeSurface) OutranksBot(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outranks[user], nil
}

func (f *fakeSurface) HasElevatedRole(ctx context.Context, guild domain.GuildID, user domain.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elevated[user], nil
}

func (f *fakeSurface) TrustedTargets(ctx context.Context, guild domain.GuildID, id domain.ChannelID) ([]domain.UserID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return nil, domain.ErrChannelGone
	}
	var out []domain.UserID
	for target, ow := range ch.overwrites {
		if target == domain.EveryoneTarget {
			continue
		}
		if ow.Allow.Has(domain.CapConnect) && !ow.Allow.Has(domain.CapManageChannel) {
			out = append(out, target)
		}
	}
	return out, nil
}

func (f *fakeSurface) IsBlocked(ctx context.Context, guild domain.GuildID, id domain.ChannelID, user domain.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return false, domain.ErrChannelGone
	}
	ow, ok := ch.overwrites[user]
	return ok && ow.Deny.Has(domain.CapConnect), nil
}

func (f *fakeSurface) IsLocked(ctx context.Context, guild domain.GuildID, id domain.ChannelID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return false, domain.ErrChannelGone
	}
	return ch.locked, nil
}

func (f *fakeSurface) IsDND(ctx context.Context, guild domain.GuildID, id domain.ChannelID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return false, domain.ErrChannelGone
	}
	return ch.dnd, nil
}

func (f *fakeSurface) ChannelInfo(ctx context.Context, guild domain.GuildID, id domain.ChannelID) (*ports.ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return nil, domain.ErrChannelGone
	}
	info := ch.info
	return &info, nil
}

func (f *fakeSurface) CategoryChannels(ctx context.Context, guild domain.GuildID, parentID string) ([]ports.ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.ChannelInfo
	for _, ch := range f.channels {
		if ch.info.ParentID == parentID {
			out = append(out, ch.info)
		}
	}
	return out, nil
}

func (f *fakeSurface) GuildMaxBitrate(ctx context.Context, guild domain.GuildID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxBitrate, nil
}

var _ ports.VoiceSurface = (*fakeSurface)(nil)
