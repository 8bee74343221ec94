package domain

// Capability is one permission flag on a voice channel. The set is the
// subset of the platform's flags this system ever writes.
type Capability uint32

const (
	CapConnect Capability = 1 << iota
	CapViewChannel
	CapSpeak
	CapStream
	CapSendMessages
	CapReadMessageHistory
	CapManageChannel
	CapManageRoles
	CapMuteMembers
	CapDeafenMembers
	CapMoveMembers
	CapPrioritySpeaker
	CapUseVoiceActivity
	CapUseSoundboard
	CapUseActivities
)

// CapabilitySet is a bitmask of capabilities.
type CapabilitySet uint32

func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s |= CapabilitySet(c)
	}
	return s
}

func (s CapabilitySet) Has(c Capability) bool { return s&CapabilitySet(c) != 0 }

func (s CapabilitySet) With(caps ...Capability) CapabilitySet {
	for _, c := range caps {
		s |= CapabilitySet(c)
	}
	return s
}

func (s CapabilitySet) IsEmpty() bool { return s == 0 }

// Overwrite is one per-target allow/deny entry on a channel. Target is either
// a user id or the guild's everyone role id.
type Overwrite struct {
	Target UserID
	Allow  CapabilitySet
	Deny   CapabilitySet
}

// EveryoneTarget marks an overwrite aimed at the guild's everyone role. The
// surface substitutes the real role id.
const EveryoneTarget UserID = "@everyone"

// OwnerCapabilities is the full management set granted to a channel's owner.
func OwnerCapabilities() CapabilitySet {
	return NewCapabilitySet(
		CapManageChannel, CapManageRoles, CapConnect, CapMuteMembers,
		CapDeafenMembers, CapMoveMembers, CapViewChannel, CapSendMessages,
		CapPrioritySpeaker,
	)
}

// TrustedCapabilities is granted to users the owner trusts, exempting them
// from lock/invisible/closed-chat restrictions.
func TrustedCapabilities() CapabilitySet {
	return NewCapabilitySet(CapConnect, CapViewChannel, CapSpeak, CapStream, CapUseVoiceActivity)
}

// BlockedCapabilities is the deny set applied to blocked users.
func BlockedCapabilities() CapabilitySet {
	return NewCapabilitySet(
		CapViewChannel, CapConnect, CapSpeak, CapStream, CapUseVoiceActivity,
		CapSendMessages, CapReadMessageHistory,
	)
}

// BasicCapabilities is what a previous owner keeps after transferring the
// channel away: ordinary member access, no management.
func BasicCapabilities() CapabilitySet {
	return NewCapabilitySet(CapConnect, CapViewChannel, CapSpeak)
}

// ManagementCapabilities are the flags stripped from the previous owner on
// transfer.
func ManagementCapabilities() CapabilitySet {
	return NewCapabilitySet(
		CapManageChannel, CapManageRoles, CapMuteMembers, CapDeafenMembers,
		CapMoveMembers, CapPrioritySpeaker,
	)
}

// PermissionKind tags a persisted trust/block audit row.
type PermissionKind string

const (
	PermissionTrust PermissionKind = "trust"
	PermissionBlock PermissionKind = "block"
)
