package model

import (
	"slices"
	"time"
)

// Potluck is one organized group event within one guild/channel. The rendered
// summary message and the external scheduled event are both optional linkages;
// MessageID and MessageCreatedAt are either both set or both empty, and an
// empty DiscordEventID implies EventStartTime, EventEndTime and
// RsvpSyncEnabled are unset.
type Potluck struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`

	Name      string `json:"name"`
	Date      string `json:"date,omitempty"`
	Theme     string `json:"theme,omitempty"`
	CreatedBy string `json:"createdBy"`
	GuildID   string `json:"guildId" gorm:"index:idx_potlucks_guild_id"`
	ChannelID string `json:"channelId"`

	MessageID        string     `json:"messageId,omitempty"`
	MessageCreatedAt *time.Time `json:"messageCreatedAt,omitempty"`

	DiscordEventID  string     `json:"discordEventId,omitempty" gorm:"index:idx_potlucks_event_id"`
	EventStartTime  *time.Time `json:"eventStartTime,omitempty"`
	EventEndTime    *time.Time `json:"eventEndTime,omitempty"`
	RsvpSyncEnabled bool       `json:"rsvpSyncEnabled"`

	Items []PotluckItem `json:"items" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// PotluckItem is one thing needed for a potluck. ClaimedBy holds the
// claimants in first-claim order with no duplicates; Position is the display
// order within the potluck.
type PotluckItem struct {
	ID        string   `json:"id" gorm:"primaryKey"`
	PotluckID string   `json:"-" gorm:"index:idx_items_potluck_id"`
	Name      string   `json:"name"`
	Position  int      `json:"-"`
	ClaimedBy []string `json:"claimedBy" gorm:"serializer:json;type:text"`
}

// IsClaimedBy reports whether userID already claimed the item.
func (i PotluckItem) IsClaimedBy(userID string) bool {
	return slices.Contains(i.ClaimedBy, userID)
}

// CoClaimants returns every claimant except userID, preserving claim order.
func (i PotluckItem) CoClaimants(userID string) []string {
	var others []string
	for _, id := range i.ClaimedBy {
		if id != userID {
			others = append(others, id)
		}
	}
	return others
}

// FindItem returns the item with the given id, or false when the potluck has
// no such item.
func (p Potluck) FindItem(itemID string) (PotluckItem, bool) {
	for _, item := range p.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return PotluckItem{}, false
}

// HasEvent reports whether the potluck is linked to an external scheduled
// event.
func (p Potluck) HasEvent() bool {
	return p.DiscordEventID != ""
}

// GuildSettings holds per-guild configuration. At most one record exists per
// guild; absence implies the configured default timezone.
type GuildSettings struct {
	GuildID   string    `json:"guildId" gorm:"primaryKey"`
	Timezone  string    `json:"timezone"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
}
