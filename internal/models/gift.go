package models

import (
	"time"

	"gorm.io/gorm"
)

type GiftCategory string

const (
	GiftCategoryPopular   GiftCategory = "popular"
	GiftCategoryExclusive GiftCategory = "exclusive"
	// GiftCategoryLucky gifts roll a probabilistic payout back to the sender.
	GiftCategoryLucky GiftCategory = "lucky"
	GiftCategoryTrend GiftCategory = "trend"
)

// Gift is a catalog entry for a sendable virtual gift.
type Gift struct {
	gorm.Model
	Name        string       `gorm:"size:255;not null"`
	Icon        string       `gorm:"size:512;not null"` // animation asset (image or video)
	CatalogIcon string       `gorm:"size:512"`          // thumbnail shown in the picker
	Cost        float64      `gorm:"not null"`
	Category    GiftCategory `gorm:"size:50;not null;default:'popular';index"`

	AnimationType string `gorm:"size:50;not null;default:'pop'"`
	Duration      int    `gorm:"not null;default:5"` // seconds
	DisplaySize   string `gorm:"size:50;not null;default:'medium'"`
}

// IsLucky reports whether sends of this gift roll for a payout.
func (g *Gift) IsLucky() bool { return g.Category == GiftCategoryLucky }

// GiftEvent fans a gift animation out to everyone in the room. Events are
// ephemeral: subscribers that connect more than ~10 seconds after the event
// never see it.
type GiftEvent struct {
	ID     string `gorm:"primaryKey;size:64"`
	RoomID uint   `gorm:"not null;index"`

	GiftID        uint   `gorm:"not null"`
	GiftName      string `gorm:"size:255"`
	GiftIcon      string `gorm:"size:512"`
	AnimationType string `gorm:"size:50"`
	Duration      int    `gorm:"not null;default:5"`
	DisplaySize   string `gorm:"size:50"`

	SenderID     uint   `gorm:"not null"`
	SenderName   string `gorm:"size:255"`
	SenderAvatar string `gorm:"size:512"`

	RecipientIDs []uint `gorm:"serializer:json"`
	Quantity     int    `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"index"`
}

// GiftEventVisibility is how far back late subscribers replay gift events.
const GiftEventVisibility = 10 * time.Second

// LuckyMultiplier is one tier of the lucky-gift payout table. Chance is a
// relative weight, not a percentage: selection draws uniformly over the sum
// of all weights.
type LuckyMultiplier struct {
	Value  float64 `json:"value"`
	Chance float64 `json:"chance"`
}

// GameSettings is a single-row table holding the tunables of the in-room
// economy. Admins edit it from the game settings panel.
type GameSettings struct {
	gorm.Model
	// LuckyGiftWinRate is the win probability for lucky gifts, in percent.
	LuckyGiftWinRate float64           `gorm:"not null;default:30"`
	LuckyMultipliers []LuckyMultiplier `gorm:"serializer:json"`

	// EmojiDuration is how long a seat reaction stays visible, in seconds.
	EmojiDuration int `gorm:"not null;default:4"`

	// CategoryLabels maps gift categories to their display names.
	CategoryLabels map[string]string `gorm:"serializer:json"`
}

// DefaultGameSettings returns the settings used until an admin edits them.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		LuckyGiftWinRate: 30,
		LuckyMultipliers: []LuckyMultiplier{
			{Value: 2, Chance: 60},
			{Value: 5, Chance: 30},
			{Value: 10, Chance: 10},
		},
		EmojiDuration: 4,
		CategoryLabels: map[string]string{
			"popular":   "Popular",
			"exclusive": "Exclusive",
			"lucky":     "Lucky",
			"trend":     "Trend",
		},
	}
}
