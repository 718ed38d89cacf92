package models

import "gorm.io/gorm"

// Catalog entities managed by the admin panels. Each is a simple value
// struct with full CRUD and no relationships beyond being referenced by id.

// Banner is a promotional banner shown on the home screen.
type Banner struct {
	gorm.Model
	Title    string `gorm:"size:255;not null"`
	ImageURL string `gorm:"size:512;not null"`
	LinkURL  string `gorm:"size:512"`
}

// VIPPackage is a purchasable VIP tier.
type VIPPackage struct {
	gorm.Model
	Level        int     `gorm:"uniqueIndex;not null"`
	Name         string  `gorm:"size:255;not null"`
	Cost         float64 `gorm:"not null"`
	FrameURL     string  `gorm:"size:512;not null"`
	Color        string  `gorm:"size:255"`
	NameStyle    string  `gorm:"size:512"`
	DurationDays int     `gorm:"not null;default:30"`

	Privileges []string `gorm:"serializer:json"`
}

// StoreItem is a purchasable cosmetic (entry effect, chat bubble, frame...).
type StoreItem struct {
	gorm.Model
	Name  string  `gorm:"size:255;not null"`
	Kind  string  `gorm:"size:50;not null;default:'entry'"`
	Price float64 `gorm:"not null"`
	URL   string  `gorm:"size:512;not null"`
}

// SpecialIDItem is a purchasable vanity ID.
type SpecialIDItem struct {
	gorm.Model
	CustomID string  `gorm:"size:32;uniqueIndex;not null"`
	Price    float64 `gorm:"not null"`
	BadgeURL string  `gorm:"size:512"`
}

// ExternalGame registers a third-party mini-game embedded over the bridge.
// AllowedOrigin is matched against the bridge connection's Origin header;
// an empty value rejects every cross-origin connection.
type ExternalGame struct {
	gorm.Model
	Title string `gorm:"size:255;not null"`
	URL   string `gorm:"size:512;not null"`
	Icon  string `gorm:"size:512"`

	AllowedOrigin string `gorm:"size:255"`
	Enabled       bool   `gorm:"not null;default:true"`
}

// Emoji is a seat reaction available in the picker.
type Emoji struct {
	gorm.Model
	URL   string `gorm:"size:512;not null"`
	Label string `gorm:"size:100"`
}

// Background is a room background available in room settings.
type Background struct {
	gorm.Model
	Name string `gorm:"size:255"`
	URL  string `gorm:"size:512;not null"` // image or video URL
}
