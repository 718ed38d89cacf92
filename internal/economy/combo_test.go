package economy

import (
	"context"
	"testing"
	"time"
)

// fakeSender records every send it receives.
type fakeSender struct {
	calls      int
	quantities []int
	recipients [][]uint
	giftIDs    []uint
}

func (f *fakeSender) SendGift(_ context.Context, _, _, giftID uint, quantity int, recipientIDs []uint) (*Outcome, error) {
	f.calls++
	f.quantities = append(f.quantities, quantity)
	f.recipients = append(f.recipients, recipientIDs)
	f.giftIDs = append(f.giftIDs, giftID)
	return &Outcome{EventID: "e", TotalCost: 10, NewCoins: 100}, nil
}

func TestComboHitsReplayFrozenRecipients(t *testing.T) {
	sender := &fakeSender{}
	tracker := NewComboTracker(sender, time.Minute)

	recipients := []uint{4, 5}
	tracker.Begin(1, 2, 3, recipients, 1)

	// Mutating the caller's slice must not leak into later hits.
	recipients[0] = 99

	for want := 2; want <= 4; want++ {
		count, outcome, err := tracker.Hit(context.Background(), 1, 2)
		if err != nil {
			t.Fatalf("Hit: %v", err)
		}
		if count != want {
			t.Errorf("count = %d, want %d", count, want)
		}
		if outcome == nil {
			t.Fatal("nil outcome")
		}
	}

	if sender.calls != 3 {
		t.Fatalf("sends = %d, want 3", sender.calls)
	}
	for i, qty := range sender.quantities {
		if qty != 1 {
			t.Errorf("hit %d quantity = %d, want 1", i, qty)
		}
		if sender.giftIDs[i] != 3 {
			t.Errorf("hit %d gift = %d, want 3", i, sender.giftIDs[i])
		}
		if got := sender.recipients[i]; len(got) != 2 || got[0] != 4 || got[1] != 5 {
			t.Errorf("hit %d recipients = %v, want [4 5]", i, got)
		}
	}
}

func TestComboExpiresAfterIdleWindow(t *testing.T) {
	sender := &fakeSender{}
	tracker := NewComboTracker(sender, 30*time.Millisecond)

	tracker.Begin(1, 2, 3, []uint{4}, 1)
	time.Sleep(100 * time.Millisecond)

	if _, _, err := tracker.Hit(context.Background(), 1, 2); err != ErrComboExpired {
		t.Fatalf("err = %v, want ErrComboExpired", err)
	}
	if sender.calls != 0 {
		t.Errorf("expired combo still sent %d gifts", sender.calls)
	}
	if tracker.Active(1, 2) != 0 {
		t.Error("expired session still active")
	}
}

func TestComboHitRefreshesIdleWindow(t *testing.T) {
	sender := &fakeSender{}
	tracker := NewComboTracker(sender, 80*time.Millisecond)

	tracker.Begin(1, 2, 3, []uint{4}, 1)
	for i := 0; i < 3; i++ {
		time.Sleep(50 * time.Millisecond)
		if _, _, err := tracker.Hit(context.Background(), 1, 2); err != nil {
			t.Fatalf("hit %d after refresh: %v", i, err)
		}
	}
}

func TestComboHitWithoutSession(t *testing.T) {
	tracker := NewComboTracker(&fakeSender{}, time.Minute)
	if _, _, err := tracker.Hit(context.Background(), 1, 2); err != ErrComboExpired {
		t.Fatalf("err = %v, want ErrComboExpired", err)
	}
}

func TestComboSessionsAreKeyedPerRoomAndSender(t *testing.T) {
	sender := &fakeSender{}
	tracker := NewComboTracker(sender, time.Minute)

	tracker.Begin(1, 2, 3, []uint{4}, 1)
	tracker.Begin(2, 2, 9, []uint{5}, 1)

	if _, _, err := tracker.Hit(context.Background(), 2, 2); err != nil {
		t.Fatalf("Hit: %v", err)
	}
	if sender.giftIDs[0] != 9 {
		t.Errorf("hit used gift %d, want 9", sender.giftIDs[0])
	}
	if tracker.Active(1, 2) != 1 {
		t.Errorf("room 1 session count = %d, want 1", tracker.Active(1, 2))
	}
	if tracker.Active(2, 2) != 2 {
		t.Errorf("room 2 session count = %d, want 2", tracker.Active(2, 2))
	}
}
