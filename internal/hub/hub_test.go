package hub

import (
	"encoding/json"
	"testing"
)

func recv(t *testing.T, c Client) Event {
	t.Helper()
	select {
	case raw, ok := <-c:
		if !ok {
			t.Fatal("client channel closed unexpectedly")
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return ev
	default:
		t.Fatal("expected a buffered event, channel was empty")
	}
	return Event{}
}

func TestBroadcastFansOutToEveryRoomClient(t *testing.T) {
	h := NewHub()

	a := make(Client, 4)
	b := make(Client, 4)
	other := make(Client, 4)
	h.Subscribe(1, a)
	h.Subscribe(1, b)
	h.Subscribe(2, other)

	h.Broadcast(1, Event{Type: EventMessage, Payload: "hello"})

	for _, c := range []Client{a, b} {
		ev := recv(t, c)
		if ev.Type != EventMessage {
			t.Errorf("got event type %q, want %q", ev.Type, EventMessage)
		}
		if ev.Payload != "hello" {
			t.Errorf("got payload %v, want hello", ev.Payload)
		}
	}

	select {
	case <-other:
		t.Error("client in another room received the event")
	default:
	}
}

func TestBroadcastSkipsSlowClients(t *testing.T) {
	h := NewHub()

	slow := make(Client, 1)
	fast := make(Client, 4)
	h.Subscribe(1, slow)
	h.Subscribe(1, fast)

	// Fill the slow client's buffer so the next send cannot land.
	h.Broadcast(1, Event{Type: EventEntry, Payload: 1})
	h.Broadcast(1, Event{Type: EventEntry, Payload: 2})

	if got := len(slow); got != 1 {
		t.Errorf("slow client buffered %d events, want 1", got)
	}
	if got := len(fast); got != 2 {
		t.Errorf("fast client buffered %d events, want 2", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()

	c := make(Client, 1)
	h.Subscribe(5, c)
	h.Unsubscribe(5, c)

	if _, ok := <-c; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
	if got := h.Viewers(5); got != 0 {
		t.Errorf("Viewers(5) = %d after unsubscribe, want 0", got)
	}

	// A second unsubscribe of the same client must be a no-op, not a double close.
	h.Unsubscribe(5, c)

	h.Broadcast(5, Event{Type: EventSeats})
}

func TestViewersCountsPerRoom(t *testing.T) {
	h := NewHub()

	for i := 0; i < 3; i++ {
		h.Subscribe(9, make(Client, 1))
	}
	h.Subscribe(10, make(Client, 1))

	if got := h.Viewers(9); got != 3 {
		t.Errorf("Viewers(9) = %d, want 3", got)
	}
	if got := h.Viewers(10); got != 1 {
		t.Errorf("Viewers(10) = %d, want 1", got)
	}
	if got := h.Viewers(11); got != 0 {
		t.Errorf("Viewers(11) = %d, want 0", got)
	}
}
