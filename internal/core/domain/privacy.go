package domain

// PrivacyMode is one of the six mutually exclusive privacy selections. Each
// mode owns a small set of flags; applying a mode never touches flags outside
// that set.
type PrivacyMode string

const (
	PrivacyLock      PrivacyMode = "lock"
	PrivacyUnlock    PrivacyMode = "unlock"
	PrivacyInvisible PrivacyMode = "invisible"
	PrivacyVisible   PrivacyMode = "visible"
	PrivacyCloseChat PrivacyMode = "closechat"
	PrivacyOpenChat  PrivacyMode = "openchat"
)

// ValidPrivacyMode reports whether m is a known mode.
func ValidPrivacyMode(m PrivacyMode) bool {
	switch m {
	case PrivacyLock, PrivacyUnlock, PrivacyInvisible, PrivacyVisible,
		PrivacyCloseChat, PrivacyOpenChat:
		return true
	}
	return false
}

// PermissionEdit is a partial overwrite mutation: flags in Allow are set to
// allow, flags in Deny to deny, flags in Clear revert to inherited. Flags in
// none of the three sets are left untouched.
type PermissionEdit struct {
	Target UserID
	Allow  CapabilitySet
	Deny   CapabilitySet
	Clear  CapabilitySet
}

// PrivacyPlan computes the edits a privacy mode requires: one entry for the
// everyone role and, for restricting modes, one per currently trusted user so
// their access survives the restriction.
func PrivacyPlan(mode PrivacyMode, trusted []UserID) []PermissionEdit {
	var edits []PermissionEdit

	switch mode {
	case PrivacyUnlock:
		edits = append(edits, PermissionEdit{
			Target: EveryoneTarget,
			Allow:  NewCapabilitySet(CapViewChannel, CapConnect),
		})
	case PrivacyLock:
		edits = append(edits, PermissionEdit{
			Target: EveryoneTarget,
			Allow:  NewCapabilitySet(CapViewChannel),
			Deny:   NewCapabilitySet(CapConnect),
		})
		for _, id := range trusted {
			edits = append(edits, PermissionEdit{
				Target: id,
				Allow:  NewCapabilitySet(CapViewChannel, CapConnect),
			})
		}
	case PrivacyInvisible:
		edits = append(edits, PermissionEdit{
			Target: EveryoneTarget,
			Deny:   NewCapabilitySet(CapViewChannel, CapConnect),
		})
		for _, id := range trusted {
			edits = append(edits, PermissionEdit{
				Target: id,
				Allow:  NewCapabilitySet(CapViewChannel, CapConnect),
			})
		}
	case PrivacyVisible:
		edits = append(edits, PermissionEdit{
			Target: EveryoneTarget,
			Allow:  NewCapabilitySet(CapViewChannel),
			Clear:  NewCapabilitySet(CapConnect),
		})
	case PrivacyCloseChat:
		edits = append(edits, PermissionEdit{
			Target: EveryoneTarget,
			Deny:   NewCapabilitySet(CapSendMessages),
		})
		for _, id := range trusted {
			edits = append(edits, PermissionEdit{
				Target: id,
				Allow:  NewCapabilitySet(CapSendMessages),
			})
		}
	case PrivacyOpenChat:
		edits = append(edits, PermissionEdit{
			Target: EveryoneTarget,
			Allow:  NewCapabilitySet(CapSendMessages),
		})
	}

	return edits
}

// dndFlags are the flags the do-not-disturb toggle controls for everyone.
func dndFlags() CapabilitySet {
	return NewCapabilitySet(
		CapSpeak, CapStream, CapUseVoiceActivity, CapPrioritySpeaker,
		CapUseSoundboard, CapUseActivities,
	)
}

// DNDPlan computes the everyone-role edit for the do-not-disturb toggle:
// enabling denies the voice-activity flags, disabling reverts them.
func DNDPlan(enable bool) PermissionEdit {
	if enable {
		return PermissionEdit{Target: EveryoneTarget, Deny: dndFlags()}
	}
	return PermissionEdit{Target: EveryoneTarget, Clear: dndFlags()}
}
