package models

import "time"

// LuckyBag is a pooled giveaway dropped into a room. A capped number of
// members can each claim an equal share until the bag empties or expires.
type LuckyBag struct {
	ID     string `gorm:"primaryKey;size:64"`
	RoomID uint   `gorm:"not null;index"`

	SenderID     uint   `gorm:"not null"`
	SenderName   string `gorm:"size:255"`
	SenderAvatar string `gorm:"size:512"`
	RoomTitle    string `gorm:"size:255"`

	TotalAmount     float64 `gorm:"not null"`
	RemainingAmount float64 `gorm:"not null"`
	RecipientsLimit int     `gorm:"not null"`

	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`

	Claims []LuckyBagClaim `gorm:"foreignKey:BagID"`
}

// Expired reports whether the bag can no longer be claimed.
func (b *LuckyBag) Expired(now time.Time) bool {
	return !b.ExpiresAt.After(now)
}

// Share is the amount each claimant receives.
func (b *LuckyBag) Share() float64 {
	if b.RecipientsLimit <= 0 {
		return 0
	}
	return float64(int(b.TotalAmount) / b.RecipientsLimit)
}

// LuckyBagClaim records one user's claim. The composite key makes double
// claims a constraint violation rather than a race.
type LuckyBagClaim struct {
	BagID  string `gorm:"primaryKey;size:64"`
	UserID uint   `gorm:"primaryKey;autoIncrement:false"`

	Amount    float64 `gorm:"not null"`
	CreatedAt time.Time
}
