package handler

import (
	"log/slog"

	"livetalk/backend/internal/audio"
	"livetalk/backend/internal/economy"
	"livetalk/backend/internal/gamebridge"
	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/presence"
	"livetalk/backend/internal/seats"
)

// Package-level collaborators, wired once at startup by main.
var (
	Hub        *hub.Hub
	Reconciler *economy.Reconciler
	Combos     *economy.ComboTracker
	Seats      *seats.Scheduler
	Presence   *presence.Store
	Bridge     *gamebridge.Registry
	Audio      *audio.Manager
	Logger     *slog.Logger
)

// Deps bundles everything the handlers need.
type Deps struct {
	Hub        *hub.Hub
	Reconciler *economy.Reconciler
	Combos     *economy.ComboTracker
	Seats      *seats.Scheduler
	Presence   *presence.Store
	Bridge     *gamebridge.Registry
	Audio      *audio.Manager
	Logger     *slog.Logger
}

// Configure installs the handler collaborators. Must run before the router
// starts serving.
func Configure(d Deps) {
	Hub = d.Hub
	Reconciler = d.Reconciler
	Combos = d.Combos
	Seats = d.Seats
	Presence = d.Presence
	Bridge = d.Bridge
	Audio = d.Audio
	Logger = d.Logger
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}
