package economy

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrComboExpired is returned when a hit arrives after the idle window
// elapsed (or before any gift was sent).
var ErrComboExpired = errors.New("combo expired")

// giftSender is the slice of the Reconciler the combo tracker needs.
type giftSender interface {
	SendGift(ctx context.Context, roomID, senderID, giftID uint, quantity int, recipientIDs []uint) (*Outcome, error)
}

type comboKey struct {
	roomID uint
	userID uint
}

type comboSession struct {
	giftID     uint
	recipients []uint
	count      int
	timer      *time.Timer
}

// ComboTracker keeps the repeat-send affordance state per (room, sender).
// Every gift send opens (or refreshes) a session holding the gift and the
// recipient list captured at that send; each hit replays one unit of the
// same gift to the same recipients and resets the idle timer. When the timer
// elapses the session is dropped.
type ComboTracker struct {
	mu       sync.Mutex
	sender   giftSender
	window   time.Duration
	sessions map[comboKey]*comboSession
}

// NewComboTracker creates a tracker with the given idle window.
func NewComboTracker(sender giftSender, window time.Duration) *ComboTracker {
	if window <= 0 {
		window = 4500 * time.Millisecond
	}
	return &ComboTracker{
		sender:   sender,
		window:   window,
		sessions: make(map[comboKey]*comboSession),
	}
}

// Begin records a fresh combo session after a successful initial send.
// The recipient list is frozen here; later hits do not revalidate it
// against current room membership.
func (t *ComboTracker) Begin(roomID, userID, giftID uint, recipients []uint, quantity int) {
	key := comboKey{roomID: roomID, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[key]; ok {
		s.timer.Stop()
	}
	s := &comboSession{
		giftID:     giftID,
		recipients: append([]uint(nil), recipients...),
		count:      quantity,
	}
	s.timer = time.AfterFunc(t.window, func() { t.expire(key) })
	t.sessions[key] = s
}

// Hit replays the cached gift once. It returns the running combo count after
// the hit. The reconciler's own balance check is the only thing limiting
// hit rate.
func (t *ComboTracker) Hit(ctx context.Context, roomID, userID uint) (int, *Outcome, error) {
	key := comboKey{roomID: roomID, userID: userID}

	t.mu.Lock()
	s, ok := t.sessions[key]
	if !ok {
		t.mu.Unlock()
		return 0, nil, ErrComboExpired
	}
	// Reset the idle timer before the send so the session cannot expire
	// while the hit is in flight.
	s.timer.Reset(t.window)
	giftID := s.giftID
	recipients := s.recipients
	t.mu.Unlock()

	outcome, err := t.sender.SendGift(ctx, roomID, userID, giftID, 1, recipients)
	if err != nil {
		return 0, nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[key]; ok {
		s.count++
		return s.count, outcome, nil
	}
	return 0, outcome, nil
}

// Active returns the running count for the session, or 0 if none is open.
func (t *ComboTracker) Active(roomID, userID uint) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[comboKey{roomID: roomID, userID: userID}]; ok {
		return s.count
	}
	return 0
}

func (t *ComboTracker) expire(key comboKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[key]; ok {
		s.timer.Stop()
		delete(t.sessions, key)
	}
}
