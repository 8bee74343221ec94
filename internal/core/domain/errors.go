package domain

import "errors"

var (
	ErrChannelNotFound    = errors.New("channel not found")
	ErrNotOwner           = errors.New("not the channel owner")
	ErrNotInChannel       = errors.New("not connected to a voice channel")
	ErrWrongChannel       = errors.New("channel is not managed by this system")
	ErrInvalidTransfer    = errors.New("invalid ownership transfer")
	ErrAlreadyOwner       = errors.New("already the channel owner")
	ErrOwnerPresent       = errors.New("current owner is still in the channel")
	ErrSelfTarget         = errors.New("operation cannot target yourself")
	ErrTargetAdmin        = errors.New("operation cannot target an administrator")
	ErrTargetBot          = errors.New("operation cannot target a bot")
	ErrTargetOutranksBot  = errors.New("target's highest role outranks the bot")
	ErrTargetNotInChannel = errors.New("target is not in the channel")
	ErrTargetInChannel    = errors.New("target is already in the channel")
	ErrTargetBlocked      = errors.New("target is blocked from the channel")
	ErrTargetNotBlocked   = errors.New("target is not blocked")
	ErrFlowActive         = errors.New("another interaction is already active")
	ErrPresetNotFound     = errors.New("preset not found")
	ErrPresetRestricted   = errors.New("preset requires an elevated role")
)

// Capability-surface failure conditions. Adapters translate platform error
// codes into these so the core can branch without knowing the platform.
var (
	ErrChannelGone   = errors.New("live channel no longer exists")
	ErrForbidden     = errors.New("platform refused the operation")
	ErrDMUnreachable = errors.New("target cannot receive direct messages")
)

