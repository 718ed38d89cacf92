package models

import "gorm.io/gorm"

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
	MessageTypeGift   MessageType = "gift"
)

// ChatMessage represents a chat message within a room. Gift sends produce a
// narrated message of type "gift"; lucky wins are flagged so clients can
// highlight them.
type ChatMessage struct {
	gorm.Model
	RoomID uint        `gorm:"not null;index"`
	UserID *uint       // Nullable for system messages
	Type   MessageType `gorm:"size:50;not null;default:'text'"`

	Content    string `gorm:"not null"`
	IsLuckyWin bool   `gorm:"not null;default:false"`

	// Display metadata captured at send time so old messages keep the badge
	// the sender had when they wrote them.
	UserName      string `gorm:"size:255"`
	WealthLevel   int    `gorm:"not null;default:1"`
	RechargeLevel int    `gorm:"not null;default:1"`
	Bubble        string `gorm:"size:512"`
	VIP           bool   `gorm:"not null;default:false"`

	User User `gorm:"foreignKey:UserID"`
}
