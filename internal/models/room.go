package models

import (
	"time"

	"gorm.io/gorm"
)

// MicCounts are the seat layouts a room can cycle through.
var MicCounts = []int{8, 10, 15, 20}

// NextMicCount returns the layout that follows the given one in the
// 8 -> 10 -> 15 -> 20 -> 8 cycle. Unknown values reset to 8.
func NextMicCount(current int) int {
	for i, c := range MicCounts {
		if c == current {
			return MicCounts[(i+1)%len(MicCounts)]
		}
	}
	return MicCounts[0]
}

// Room represents a live voice-chat room.
type Room struct {
	gorm.Model
	HostID     uint   `gorm:"not null;index"`
	Title      string `gorm:"size:255;not null"`
	Background string `gorm:"size:512"` // image or video URL

	Locked bool   `gorm:"not null;default:false"`
	PIN    string `gorm:"size:4"` // 4-digit entry PIN when locked

	MicCount  int `gorm:"not null;default:8"`
	Listeners int `gorm:"not null;default:0"`

	Host  User   `gorm:"foreignKey:HostID"`
	Seats []Seat `gorm:"foreignKey:RoomID"`
}

// Seat is one microphone slot in a room, keyed by (room, seat index) so
// concurrent writers patch individual seats instead of replacing the whole
// speaker list.
type Seat struct {
	RoomID    uint `gorm:"primaryKey;autoIncrement:false"`
	SeatIndex int  `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint `gorm:"not null;index"`

	Nickname string `gorm:"size:255"`
	CustomID string `gorm:"size:32"`
	Avatar   string `gorm:"size:512"`
	Frame    string `gorm:"size:512"` // VIP frame overlay

	Muted bool `gorm:"not null;default:false"`
	// Charm accumulates gift value received while seated. It is only ever
	// incremented by gift sends, and zeroed by the host's reset action.
	Charm       float64 `gorm:"not null;default:0"`
	ActiveEmoji string  `gorm:"size:255"`

	UpdatedAt time.Time
}

// Contributor is the per-room gift spend ledger used for the room leaderboard.
type Contributor struct {
	RoomID uint `gorm:"primaryKey;autoIncrement:false"`
	UserID uint `gorm:"primaryKey;autoIncrement:false"`

	Name   string  `gorm:"size:255"`
	Avatar string  `gorm:"size:512"`
	Amount float64 `gorm:"not null;default:0"`

	UpdatedAt time.Time
}
