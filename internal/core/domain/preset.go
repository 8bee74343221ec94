package domain

// Preset is a named bundle of channel settings applied in one operation.
type Preset struct {
	Key         string
	Name        string
	Description string
	BitrateKbps int
	UserLimit   int
	Region      Region
	Locked      bool
	Hidden      bool
	ChatClosed  bool
	RequireRole bool // gated behind an elevated/VIP role
}

var presetCatalog = []Preset{
	{Key: "default", Name: "Default", Description: "Standard voice channel settings", BitrateKbps: 64, UserLimit: 0, Region: RegionAuto},
	{Key: "vip", Name: "VIP Room", Description: "Exclusive high-quality room", BitrateKbps: 128, UserLimit: 5, Region: RegionAuto, Locked: true, Hidden: true, ChatClosed: true, RequireRole: true},
	{Key: "gaming", Name: "Gaming", Description: "Good audio for gaming sessions", BitrateKbps: 96, UserLimit: 5, Region: RegionAuto},
	{Key: "music", Name: "Music Studio", Description: "High-quality audio for music", BitrateKbps: 256, UserLimit: 5, Region: RegionAuto},
	{Key: "study", Name: "Study Room", Description: "Quiet focused environment", BitrateKbps: 64, UserLimit: 10, Region: RegionAuto},
	{Key: "party", Name: "Party Room", Description: "Large room for gatherings", BitrateKbps: 96, UserLimit: 25, Region: RegionAuto},
	{Key: "meeting", Name: "Meeting Room", Description: "Locked room for meetings", BitrateKbps: 128, UserLimit: 10, Region: RegionAuto, Locked: true},
	{Key: "private", Name: "Private Room", Description: "Locked and hidden from others", BitrateKbps: 96, UserLimit: 5, Region: RegionAuto, Locked: true, Hidden: true, ChatClosed: true},
	{Key: "open", Name: "Open Hall", Description: "Public space for everyone", BitrateKbps: 64, UserLimit: 0, Region: RegionAuto},
	{Key: "podcast", Name: "Podcast Studio", Description: "Maximum audio quality for recording", BitrateKbps: 384, UserLimit: 5, Region: RegionAuto, Locked: true, ChatClosed: true},
}

// Presets returns the fixed preset catalog in menu order.
func Presets() []Preset {
	out := make([]Preset, len(presetCatalog))
	copy(out, presetCatalog)
	return out
}

// PresetByKey looks up a preset; ok is false for unknown keys.
func PresetByKey(key string) (Preset, bool) {
	for _, p := range presetCatalog {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}

// EveryoneEdit derives the everyone-role permission edit for the preset's
// three privacy flags.
func (p Preset) EveryoneEdit() PermissionEdit {
	e := PermissionEdit{Target: EveryoneTarget}
	set := func(c Capability, deny bool) {
		if deny {
			e.Deny = e.Deny.With(c)
		} else {
			e.Allow = e.Allow.With(c)
		}
	}
	set(CapConnect, p.Locked)
	set(CapViewChannel, p.Hidden)
	set(CapSendMessages, p.ChatClosed)
	return e
}
