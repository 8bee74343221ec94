package domain

import (
	"time"
)

type ChannelID string
type GuildID string
type UserID string

// Channel is the record for one temporary voice channel. A record exists
// exactly as long as the live channel exists and was created by this system.
type Channel struct {
	ID        ChannelID
	GuildID   GuildID
	OwnerID   UserID
	CreatedAt time.Time
	Settings  map[string]string
}

// Settings keys. These mirror the last applied configuration; the live
// channel object on the platform is the source of truth for actual values.
const (
	SettingBitrate   = "bitrate"
	SettingUserLimit = "user_limit"
	SettingRegion    = "region"
	SettingPreset    = "preset"
)

// TempChannelSuffix is appended to the creator's username when a channel is
// provisioned from the lobby, and is what the orphan sweep matches on.
const TempChannelSuffix = " - room"

const (
	UserLimitMin = 0 // 0 = unlimited
	UserLimitMax = 99

	// Range accepted by the platform, in kbps. The UI menu offers a
	// narrower fixed set (BitrateMenu).
	BitrateMinKbps = 8
	BitrateMaxKbps = 384
)

// BitrateMenu is the fixed set of values offered by the bitrate select menu,
// in kbps.
var BitrateMenu = []int{32, 48, 64, 80, 96}

// ValidMenuBitrate reports whether v is one of the menu choices.
func ValidMenuBitrate(v int) bool {
	for _, b := range BitrateMenu {
		if b == v {
			return true
		}
	}
	return false
}

// Region is a voice region override. RegionAuto clears the override.
type Region string

const (
	RegionAuto        Region = "auto"
	RegionBrazil      Region = "brazil"
	RegionHongKong    Region = "hongkong"
	RegionIndia       Region = "india"
	RegionJapan       Region = "japan"
	RegionRussia      Region = "russia"
	RegionSingapore   Region = "singapore"
	RegionSouthAfrica Region = "southafrica"
	RegionSydney      Region = "sydney"
	RegionUSCentral   Region = "us-central"
	RegionUSEast      Region = "us-east"
	RegionUSSouth     Region = "us-south"
	RegionUSWest      Region = "us-west"
	RegionEurope      Region = "europe"
)

var Regions = []Region{
	RegionAuto, RegionBrazil, RegionHongKong, RegionIndia, RegionJapan,
	RegionRussia, RegionSingapore, RegionSouthAfrica, RegionSydney,
	RegionUSCentral, RegionUSEast, RegionUSSouth, RegionUSWest, RegionEurope,
}

// ValidRegion reports whether r is a known region code.
func ValidRegion(r Region) bool {
	for _, v := range Regions {
		if v == r {
			return true
		}
	}
	return false
}
