package models

import (
	"testing"
	"time"
)

func TestLevelBoundaries(t *testing.T) {
	cases := []struct {
		points float64
		want   int
	}{
		{-10, 1},
		{0, 1},
		{49999, 1},
		{50000, 1},
		{200000, 2},   // sqrt(4) = 2
		{450000, 3},   // sqrt(9) = 3
		{1250000, 5},  // sqrt(25) = 5
		{5e12, 200},   // capped at 200
	}
	for _, tc := range cases {
		if got := Level(tc.points); got != tc.want {
			t.Errorf("Level(%v) = %d, want %d", tc.points, got, tc.want)
		}
	}
}

func TestNextMicCountCycles(t *testing.T) {
	cases := []struct{ current, want int }{
		{8, 10},
		{10, 15},
		{15, 20},
		{20, 8},
		{7, 8}, // unknown layout resets the cycle
		{0, 8},
	}
	for _, tc := range cases {
		if got := NextMicCount(tc.current); got != tc.want {
			t.Errorf("NextMicCount(%d) = %d, want %d", tc.current, got, tc.want)
		}
	}
}

func TestLuckyBagShare(t *testing.T) {
	bag := LuckyBag{TotalAmount: 100.9, RecipientsLimit: 3}
	if got := bag.Share(); got != 33 {
		t.Errorf("Share() = %v, want 33", got)
	}

	bag = LuckyBag{TotalAmount: 10, RecipientsLimit: 0}
	if got := bag.Share(); got != 0 {
		t.Errorf("Share() with zero limit = %v, want 0", got)
	}
}

func TestLuckyBagExpired(t *testing.T) {
	now := time.Now()
	bag := LuckyBag{ExpiresAt: now.Add(time.Minute)}
	if bag.Expired(now) {
		t.Error("bag expiring in a minute reported as expired")
	}
	if !bag.Expired(now.Add(time.Minute)) {
		t.Error("bag at its exact expiry time should count as expired")
	}
	if !bag.Expired(now.Add(2 * time.Minute)) {
		t.Error("bag past its expiry reported as live")
	}
}

func TestIsVIP(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	cases := []struct {
		name string
		user User
		want bool
	}{
		{"active", User{VIPLevel: 2, VIPExpiresAt: &future}, true},
		{"expired", User{VIPLevel: 2, VIPExpiresAt: &past}, false},
		{"never purchased", User{}, false},
		{"level without expiry", User{VIPLevel: 1}, false},
	}
	for _, tc := range cases {
		if got := tc.user.IsVIP(now); got != tc.want {
			t.Errorf("%s: IsVIP = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHasPermission(t *testing.T) {
	admin := User{Role: RoleAdmin}
	if !admin.HasPermission("anything") {
		t.Error("root admin must pass every panel check")
	}

	mod := User{Role: RoleModerator, Permissions: []string{"gifts", "banners"}}
	if !mod.HasPermission("gifts") {
		t.Error("moderator with the panel permission was denied")
	}
	if mod.HasPermission("users") {
		t.Error("moderator without the panel permission was admitted")
	}

	plain := User{Role: RoleUser, Permissions: []string{"gifts"}}
	if plain.HasPermission("gifts") {
		t.Error("regular user must never pass a panel check")
	}
}
