package domain

import "time"

// EventKind names one recorded analytics event.
type EventKind string

const (
	EventChannelCreated  EventKind = "channel_created"
	EventChannelDeleted  EventKind = "channel_deleted"
	EventChannelRenamed  EventKind = "channel_renamed"
	EventUserJoined      EventKind = "user_joined"
	EventUserLeft        EventKind = "user_left"
	EventUserSwitched    EventKind = "user_switched"
	EventOwnerTransfer   EventKind = "ownership_transferred"
	EventOwnerClaimed    EventKind = "ownership_claimed"
	EventPermissionEdit  EventKind = "permission_updated"
	EventOperation       EventKind = "operation"
	EventOperationDenied EventKind = "operation_denied"
	EventSweepDeleted    EventKind = "sweep_deleted"
	EventError           EventKind = "error"
)

// Event is one analytics row. Recording is fire-and-forget; events feed the
// dashboard only and carry no correctness weight.
type Event struct {
	Kind       EventKind
	GuildID    GuildID
	ChannelID  ChannelID
	ActorID    UserID
	Action     string // operation name for EventOperation/EventOperationDenied
	RecordedAt time.Time
}

// GuildStats is the dashboard's aggregate view over recorded events.
type GuildStats struct {
	GuildID         GuildID
	ChannelsCreated int64
	ChannelsDeleted int64
	Operations      int64
	OperationCounts map[string]int64
	ErrorCount      int64
	Since           time.Time
}

// ActiveChannel is one row of the dashboard's live channel listing.
type ActiveChannel struct {
	ChannelID ChannelID
	GuildID   GuildID
	OwnerID   UserID
	CreatedAt time.Time
	Age       time.Duration
}
