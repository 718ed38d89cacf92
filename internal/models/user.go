package models

import (
	"time"

	"gorm.io/gorm"
)

// Role defines the access level of a user account.
type Role string

const (
	RoleUser Role = "user"
	// RoleModerator is a permissioned admin: it can operate the panels listed
	// in Permissions but cannot edit raw asset URLs or other root-only fields.
	RoleModerator Role = "moderator"
	// RoleAdmin is the root admin with unrestricted access.
	RoleAdmin Role = "admin"
)

// User represents a user account with its economy balances.
//
// Coins are the spendable balance, Wealth is the lifetime spend accumulator,
// Charm is the lifetime gift value received and Diamonds a derived payout
// balance. All monetary fields are plain floats; the ledger tolerates the
// resulting rounding drift.
type User struct {
	gorm.Model
	Nickname     string `gorm:"size:255;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         Role   `gorm:"size:50;not null;default:'user';index"`

	// Permissions lists the admin panels a moderator may operate
	// (e.g. "gifts", "banners", "users"). Empty for other roles.
	Permissions []string `gorm:"serializer:json"`

	// CustomID is a purchasable vanity ID shown instead of the numeric one.
	CustomID *string `gorm:"size:32;uniqueIndex"`

	Avatar string `gorm:"size:512"`
	Cover  string `gorm:"size:512"` // image or video URL

	Coins    float64 `gorm:"not null;default:0"`
	Wealth   float64 `gorm:"not null;default:0"`
	Charm    float64 `gorm:"not null;default:0"`
	Diamonds float64 `gorm:"not null;default:0"`

	VIPLevel     int `gorm:"not null;default:0"`
	VIPExpiresAt *time.Time
	VIPFrameURL  string `gorm:"size:512"`

	Banned            bool `gorm:"not null;default:false;index"`
	DeviceFingerprint string `gorm:"size:255"`
	LastIP            string `gorm:"size:64"`

	// A user can only be in one room at a time.
	CurrentRoomID *uint `gorm:"index"`
}

// IsVIP reports whether the user's VIP membership is currently active.
func (u *User) IsVIP(now time.Time) bool {
	return u.VIPLevel > 0 && u.VIPExpiresAt != nil && u.VIPExpiresAt.After(now)
}

// HasPermission reports whether the user may operate the given admin panel.
// Root admins pass every check.
func (u *User) HasPermission(panel string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	if u.Role != RoleModerator {
		return false
	}
	for _, p := range u.Permissions {
		if p == panel {
			return true
		}
	}
	return false
}
