package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// State is the connection state of an audio session.
type State int

const (
	StateIdle State = iota
	StateJoining
	StateJoined
	StateLeaving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateLeaving:
		return "leaving"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transport is the control contract of the hosted audio service for one
// user in one channel.
type Transport interface {
	Join(ctx context.Context, channel, uid string) error
	Leave(ctx context.Context) error
	PublishAudio(ctx context.Context) error
	UnpublishAudio(ctx context.Context) error
	SetMute(ctx context.Context, muted bool) error
}

// Session tracks one user's audio connection through an explicit state
// machine, replacing ad-hoc in-progress flags: a Join during Joining or
// Joined is a no-op, Publish only works while Joined, and Leave unpublishes
// first. The mute flag is remembered across publish cycles.
type Session struct {
	mu        sync.Mutex
	state     State
	published bool
	muted     bool

	transport Transport
	logger    *slog.Logger
}

// NewSession creates an idle session over the given transport.
func NewSession(t Transport, logger *slog.Logger) *Session {
	return &Session{transport: t, logger: logger}
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Join connects the session to a channel. Calling Join while not idle is a
// no-op, which makes double-joins from racing callers harmless.
func (s *Session) Join(ctx context.Context, channel, uid string) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil
	}
	s.state = StateJoining
	s.mu.Unlock()

	err := s.transport.Join(ctx, channel, uid)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateIdle
		return fmt.Errorf("join channel %s: %w", channel, err)
	}
	s.state = StateJoined
	if s.logger != nil {
		s.logger.Info("audio joined", "channel", channel, "uid", uid)
	}
	return nil
}

// PublishAudio starts transmitting. It is a no-op unless the session is
// joined and not already publishing.
func (s *Session) PublishAudio(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateJoined || s.published {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.transport.PublishAudio(ctx); err != nil {
		return fmt.Errorf("publish audio: %w", err)
	}

	s.mu.Lock()
	s.published = true
	muted := s.muted
	s.mu.Unlock()

	// Re-apply the remembered mute state to the fresh track.
	if muted {
		return s.transport.SetMute(ctx, true)
	}
	return nil
}

// UnpublishAudio stops transmitting. No-op when not publishing.
func (s *Session) UnpublishAudio(ctx context.Context) error {
	s.mu.Lock()
	if !s.published {
		s.mu.Unlock()
		return nil
	}
	s.published = false
	s.mu.Unlock()

	if err := s.transport.UnpublishAudio(ctx); err != nil {
		return fmt.Errorf("unpublish audio: %w", err)
	}
	return nil
}

// SetMute records the mute flag and applies it when a track is live.
func (s *Session) SetMute(ctx context.Context, muted bool) error {
	s.mu.Lock()
	s.muted = muted
	published := s.published
	s.mu.Unlock()

	if !published {
		return nil
	}
	if err := s.transport.SetMute(ctx, muted); err != nil {
		return fmt.Errorf("set mute: %w", err)
	}
	return nil
}

// Leave tears the session down: unpublish if needed, then leave the channel.
// Only a joined session can leave; everything else is a no-op.
func (s *Session) Leave(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateJoined {
		s.mu.Unlock()
		return nil
	}
	s.state = StateLeaving
	published := s.published
	s.published = false
	s.mu.Unlock()

	if published {
		if err := s.transport.UnpublishAudio(ctx); err != nil && s.logger != nil {
			s.logger.Warn("unpublish on leave failed", "err", err)
		}
	}
	err := s.transport.Leave(ctx)

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("leave channel: %w", err)
	}
	return nil
}
