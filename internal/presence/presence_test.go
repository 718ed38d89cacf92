package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/valkey-io/valkey-go"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{mini.Addr()},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	store := NewStoreWithClient(client, ttl)
	t.Cleanup(store.Close)
	return store, mini
}

func TestJoinListLeave(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Join(ctx, 1, Listener{UserID: 10, Name: "alice", WealthLevel: 3}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := store.Join(ctx, 1, Listener{UserID: 11, Name: "bob"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	// A listener in another room must not leak in.
	if err := store.Join(ctx, 2, Listener{UserID: 12, Name: "carol"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	listeners, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listeners) != 2 {
		t.Fatalf("listeners = %d, want 2", len(listeners))
	}
	for _, l := range listeners {
		if l.UserID == 12 {
			t.Error("room 2 listener leaked into room 1")
		}
	}

	count, err := store.Count(ctx, 1)
	if err != nil || count != 2 {
		t.Errorf("count = %d (%v), want 2", count, err)
	}

	if err := store.Leave(ctx, 1, 10); err != nil {
		t.Fatalf("leave: %v", err)
	}
	listeners, _ = store.List(ctx, 1)
	if len(listeners) != 1 || listeners[0].UserID != 11 {
		t.Errorf("listeners after leave = %v, want only bob", listeners)
	}
}

func TestListOrdersByJoinTime(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	base := time.Now()
	store.Join(ctx, 1, Listener{UserID: 10, Name: "early", JoinedAt: base.Add(-time.Hour)})
	store.Join(ctx, 1, Listener{UserID: 11, Name: "late", JoinedAt: base})

	listeners, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listeners) != 2 || listeners[0].UserID != 11 {
		t.Errorf("order = %v, want most recent first", listeners)
	}
}

func TestPresenceExpiresWithoutHeartbeat(t *testing.T) {
	store, mini := newTestStore(t, 10*time.Second)
	ctx := context.Background()

	if err := store.Join(ctx, 1, Listener{UserID: 10, Name: "alice"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	mini.FastForward(11 * time.Second)

	listeners, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listeners) != 0 {
		t.Errorf("listeners = %v after ttl, want none", listeners)
	}
}

func TestHeartbeatExtendsTTL(t *testing.T) {
	store, mini := newTestStore(t, 10*time.Second)
	ctx := context.Background()

	if err := store.Join(ctx, 1, Listener{UserID: 10, Name: "alice"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	mini.FastForward(8 * time.Second)
	if err := store.Heartbeat(ctx, 1, 10); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	mini.FastForward(8 * time.Second)

	count, err := store.Count(ctx, 1)
	if err != nil || count != 1 {
		t.Errorf("count = %d (%v) after refreshed ttl, want 1", count, err)
	}
}

func TestHeartbeatAfterExpiry(t *testing.T) {
	store, mini := newTestStore(t, 5*time.Second)
	ctx := context.Background()

	if err := store.Join(ctx, 1, Listener{UserID: 10, Name: "alice"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	mini.FastForward(6 * time.Second)

	if err := store.Heartbeat(ctx, 1, 10); !errors.Is(err, ErrNotListening) {
		t.Fatalf("err = %v, want ErrNotListening", err)
	}
}

func TestListEmptyRoom(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	listeners, err := store.List(context.Background(), 99)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listeners) != 0 {
		t.Errorf("listeners = %v, want none", listeners)
	}
}
