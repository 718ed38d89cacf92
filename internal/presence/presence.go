package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ErrNotListening is returned when refreshing a presence entry that has
// already expired or was never created.
var ErrNotListening = errors.New("listener not present")

// Listener is one room viewer's presence entry.
type Listener struct {
	UserID      uint      `json:"user_id"`
	CustomID    string    `json:"custom_id,omitempty"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar"`
	WealthLevel int       `json:"wealth_level"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Store tracks the active listeners of every room in valkey. Entries carry a
// TTL and stay alive through heartbeats, so a crashed client disappears from
// the room after one missed refresh instead of lingering forever.
type Store struct {
	client valkey.Client
	ttl    time.Duration
}

// NewStore connects to valkey at addr.
func NewStore(addr string, ttl time.Duration) (*Store, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("connect to valkey: %w", err)
	}
	return NewStoreWithClient(client, ttl), nil
}

// NewStoreWithClient wraps an existing client. Tests use it with miniredis.
func NewStoreWithClient(client valkey.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(roomID uint, userID uint) string {
	return fmt.Sprintf("presence:room:%d:user:%d", roomID, userID)
}

func (s *Store) pattern(roomID uint) string {
	return fmt.Sprintf("presence:room:%d:user:*", roomID)
}

// Join registers the listener in the room.
func (s *Store) Join(ctx context.Context, roomID uint, l Listener) error {
	if l.JoinedAt.IsZero() {
		l.JoinedAt = time.Now()
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal listener: %w", err)
	}
	cmd := s.client.B().Set().Key(s.key(roomID, l.UserID)).Value(string(data)).Ex(s.ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set presence: %w", err)
	}
	return nil
}

// Heartbeat extends the listener's TTL.
func (s *Store) Heartbeat(ctx context.Context, roomID, userID uint) error {
	cmd := s.client.B().Expire().Key(s.key(roomID, userID)).Seconds(int64(s.ttl / time.Second)).Build()
	n, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return fmt.Errorf("refresh presence: %w", err)
	}
	if n == 0 {
		return ErrNotListening
	}
	return nil
}

// Leave removes the listener from the room.
func (s *Store) Leave(ctx context.Context, roomID, userID uint) error {
	cmd := s.client.B().Del().Key(s.key(roomID, userID)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("delete presence: %w", err)
	}
	return nil
}

// List returns the room's listeners, most recently joined first.
func (s *Store) List(ctx context.Context, roomID uint) ([]Listener, error) {
	var keys []string
	cursor := uint64(0)
	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(s.pattern(roomID)).Count(100).Build()
		entry, err := s.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmd := s.client.B().Mget().Key(keys...).Build()
	values, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("read presence: %w", err)
	}

	listeners := make([]Listener, 0, len(values))
	for _, v := range values {
		raw, err := v.ToString()
		if err != nil {
			continue // entry expired between scan and read
		}
		var l Listener
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			continue
		}
		listeners = append(listeners, l)
	}
	sort.Slice(listeners, func(i, j int) bool {
		return listeners[i].JoinedAt.After(listeners[j].JoinedAt)
	})
	return listeners, nil
}

// Count returns the number of active listeners in the room.
func (s *Store) Count(ctx context.Context, roomID uint) (int, error) {
	listeners, err := s.List(ctx, roomID)
	if err != nil {
		return 0, err
	}
	return len(listeners), nil
}

// Close releases the valkey connection.
func (s *Store) Close() {
	s.client.Close()
}
