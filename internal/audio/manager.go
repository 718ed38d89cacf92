package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type sessionKey struct {
	roomID uint
	userID uint
}

// TransportFactory builds a transport for one user in one room channel.
type TransportFactory func(channel, uid string) Transport

// Manager owns one audio session per (room, user) pair for the lifetime of
// the user's stay in the room.
type Manager struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session
	factory  TransportFactory
	logger   *slog.Logger
}

// NewManager creates a manager building transports with the given factory.
func NewManager(factory TransportFactory, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[sessionKey]*Session),
		factory:  factory,
		logger:   logger,
	}
}

func (m *Manager) session(roomID, userID uint) *Session {
	key := sessionKey{roomID: roomID, userID: userID}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		return s
	}
	channel := fmt.Sprintf("room-%d", roomID)
	uid := fmt.Sprintf("%d", userID)
	s := NewSession(m.factory(channel, uid), m.logger)
	m.sessions[key] = s
	return s
}

// JoinRoom connects the user to the room's audio channel.
func (m *Manager) JoinRoom(ctx context.Context, roomID, userID uint) error {
	return m.session(roomID, userID).Join(ctx, fmt.Sprintf("room-%d", roomID), fmt.Sprintf("%d", userID))
}

// OnSeatClaimed starts publishing for a user who took a mic.
func (m *Manager) OnSeatClaimed(ctx context.Context, roomID, userID uint) error {
	return m.session(roomID, userID).PublishAudio(ctx)
}

// OnSeatLeft stops publishing for a user who left their mic.
func (m *Manager) OnSeatLeft(ctx context.Context, roomID, userID uint) error {
	return m.session(roomID, userID).UnpublishAudio(ctx)
}

// SetMute applies the user's mute toggle.
func (m *Manager) SetMute(ctx context.Context, roomID, userID uint, muted bool) error {
	return m.session(roomID, userID).SetMute(ctx, muted)
}

// LeaveRoom tears down the user's session and forgets it.
func (m *Manager) LeaveRoom(ctx context.Context, roomID, userID uint) error {
	key := sessionKey{roomID: roomID, userID: userID}

	m.mu.Lock()
	s, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Leave(ctx)
}
