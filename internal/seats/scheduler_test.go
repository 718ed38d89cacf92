package seats

import (
	"encoding/json"
	"testing"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRoom(t *testing.T, db *gorm.DB, hostID uint) models.Room {
	t.Helper()
	host := models.User{Nickname: "host", Email: "host@example.com", PasswordHash: "x"}
	host.ID = hostID
	if err := db.Create(&host).Error; err != nil {
		t.Fatalf("seed host: %v", err)
	}
	room := models.Room{HostID: hostID, Title: "room", MicCount: models.MicCounts[0]}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return room
}

func testUser(id uint, nickname string) *models.User {
	u := &models.User{Nickname: nickname, Avatar: nickname + ".png"}
	u.ID = id
	return u
}

// drainSeatEvents counts seats broadcasts received within the window.
func drainSeatEvents(t *testing.T, client hub.Client, window time.Duration) []hub.Event {
	t.Helper()
	var events []hub.Event
	deadline := time.After(window)
	for {
		select {
		case raw, ok := <-client:
			if !ok {
				return events
			}
			var event hub.Event
			if err := json.Unmarshal(raw, &event); err != nil {
				t.Fatalf("unmarshal event: %v", err)
			}
			if event.Type == hub.EventSeats {
				events = append(events, event)
			}
		case <-deadline:
			return events
		}
	}
}

func TestBurstOfMutationsFlushesOnce(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)

	h := hub.NewHub()
	client := make(hub.Client, 32)
	h.Subscribe(room.ID, client)
	defer h.Unsubscribe(room.ID, client)

	s := NewScheduler(db, h, 60*time.Millisecond, nil)

	// A burst of independent mutations inside one debounce window.
	if err := s.Claim(room.ID, testUser(10, "alice"), 0, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.Claim(room.ID, testUser(11, "bob"), 1, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.SetMuted(room.ID, 10, true); err != nil {
		t.Fatalf("mute: %v", err)
	}
	s.AddCharm(room.ID, []uint{10, 11}, 25)

	events := drainSeatEvents(t, client, 300*time.Millisecond)
	if len(events) != 1 {
		t.Fatalf("seat broadcasts = %d, want 1", len(events))
	}

	var persisted []models.Seat
	if err := db.Where("room_id = ?", room.ID).Order("seat_index").Find(&persisted).Error; err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 2 {
		t.Fatalf("persisted seats = %d, want 2", len(persisted))
	}
	if !persisted[0].Muted {
		t.Error("seat 0 not muted after flush")
	}
	if persisted[0].Charm != 25 || persisted[1].Charm != 25 {
		t.Errorf("seat charm = %v/%v, want 25/25", persisted[0].Charm, persisted[1].Charm)
	}
}

func TestClaimRejectsOccupiedSeat(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)
	s := NewScheduler(db, nil, time.Minute, nil)

	if err := s.Claim(room.ID, testUser(10, "alice"), 2, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.Claim(room.ID, testUser(11, "bob"), 2, false); err != ErrSeatTaken {
		t.Fatalf("err = %v, want ErrSeatTaken", err)
	}
	if err := s.Claim(room.ID, testUser(10, "alice"), 99, false); err != ErrBadSeat {
		t.Fatalf("err = %v, want ErrBadSeat", err)
	}
}

func TestMoveKeepsSeatCharm(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)
	s := NewScheduler(db, nil, time.Minute, nil)

	if err := s.Claim(room.ID, testUser(10, "alice"), 0, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	s.AddCharm(room.ID, []uint{10}, 40)
	if err := s.Claim(room.ID, testUser(10, "alice"), 3, false); err != nil {
		t.Fatalf("move: %v", err)
	}

	snap, err := s.Snapshot(room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Seats) != 1 {
		t.Fatalf("seats = %d, want 1", len(snap.Seats))
	}
	if snap.Seats[0].SeatIndex != 3 || snap.Seats[0].Charm != 40 {
		t.Errorf("seat = index %d charm %v, want index 3 charm 40", snap.Seats[0].SeatIndex, snap.Seats[0].Charm)
	}
}

func TestLeaveRequiresSeat(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)
	s := NewScheduler(db, nil, time.Minute, nil)

	if err := s.Leave(room.ID, 10); err != ErrNotSeated {
		t.Fatalf("err = %v, want ErrNotSeated", err)
	}
	if err := s.Claim(room.ID, testUser(10, "alice"), 0, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.Leave(room.ID, 10); err != nil {
		t.Fatalf("leave: %v", err)
	}
	snap, _ := s.Snapshot(room.ID)
	if len(snap.Seats) != 0 {
		t.Errorf("seats = %d after leave, want 0", len(snap.Seats))
	}
}

func TestCycleMicLayoutWalksTheRing(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)
	s := NewScheduler(db, nil, time.Minute, nil)

	want := []int{10, 15, 20, 8}
	for _, expected := range want {
		count, err := s.CycleMicLayout(room.ID, 1)
		if err != nil {
			t.Fatalf("cycle: %v", err)
		}
		if count != expected {
			t.Fatalf("mic count = %d, want %d", count, expected)
		}
	}
}

func TestCycleMicLayoutEvictsOutOfRangeSeats(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)
	s := NewScheduler(db, nil, 40*time.Millisecond, nil)

	// Grow to 20 seats, put someone on seat 18, then shrink back to 8.
	for i := 0; i < 3; i++ {
		if _, err := s.CycleMicLayout(room.ID, 1); err != nil {
			t.Fatalf("cycle: %v", err)
		}
	}
	if err := s.Claim(room.ID, testUser(10, "alice"), 18, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.Claim(room.ID, testUser(11, "bob"), 2, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := s.CycleMicLayout(room.ID, 1); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	snap, _ := s.Snapshot(room.ID)
	if snap.MicCount != 8 {
		t.Fatalf("mic count = %d, want 8", snap.MicCount)
	}
	if len(snap.Seats) != 1 || snap.Seats[0].UserID != 11 {
		t.Errorf("seats after shrink = %v, want only bob", snap.Seats)
	}

	time.Sleep(150 * time.Millisecond)
	var persistedRoom models.Room
	db.First(&persistedRoom, room.ID)
	if persistedRoom.MicCount != 8 {
		t.Errorf("persisted mic count = %d, want 8", persistedRoom.MicCount)
	}
	var seatCount int64
	db.Model(&models.Seat{}).Where("room_id = ?", room.ID).Count(&seatCount)
	if seatCount != 1 {
		t.Errorf("persisted seats = %d, want 1", seatCount)
	}
}

func TestHostOnlyOperations(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)
	s := NewScheduler(db, nil, time.Minute, nil)

	if _, err := s.CycleMicLayout(room.ID, 99); err != ErrNotHost {
		t.Fatalf("cycle err = %v, want ErrNotHost", err)
	}
	if err := s.ResetCharm(room.ID, 99); err != ErrNotHost {
		t.Fatalf("reset err = %v, want ErrNotHost", err)
	}
}

func TestResetCharmZeroesEverySeat(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)
	s := NewScheduler(db, nil, time.Minute, nil)

	s.Claim(room.ID, testUser(10, "alice"), 0, false)
	s.Claim(room.ID, testUser(11, "bob"), 1, false)
	s.AddCharm(room.ID, []uint{10, 11}, 50)
	if err := s.ResetCharm(room.ID, 1); err != nil {
		t.Fatalf("reset: %v", err)
	}

	snap, _ := s.Snapshot(room.ID)
	for _, seat := range snap.Seats {
		if seat.Charm != 0 {
			t.Errorf("seat %d charm = %v after reset", seat.SeatIndex, seat.Charm)
		}
	}
}

func TestEmojiClearsAfterTTL(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)
	s := NewScheduler(db, nil, 10*time.Millisecond, nil)

	s.Claim(room.ID, testUser(10, "alice"), 0, false)
	if err := s.SetEmoji(room.ID, 10, "😂", 40*time.Millisecond); err != nil {
		t.Fatalf("emoji: %v", err)
	}

	snap, _ := s.Snapshot(room.ID)
	if snap.Seats[0].ActiveEmoji != "😂" {
		t.Fatalf("emoji = %q, want set", snap.Seats[0].ActiveEmoji)
	}

	time.Sleep(120 * time.Millisecond)
	snap, _ = s.Snapshot(room.ID)
	if snap.Seats[0].ActiveEmoji != "" {
		t.Errorf("emoji = %q after ttl, want cleared", snap.Seats[0].ActiveEmoji)
	}
}

func TestSchedulerHydratesFromDatabase(t *testing.T) {
	db := newTestDB(t)
	room := seedRoom(t, db, 1)
	seat := models.Seat{RoomID: room.ID, SeatIndex: 4, UserID: 10, Nickname: "alice", Charm: 12}
	if err := db.Create(&seat).Error; err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(db, nil, time.Minute, nil)
	snap, err := s.Snapshot(room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Seats) != 1 || snap.Seats[0].SeatIndex != 4 || snap.Seats[0].Charm != 12 {
		t.Errorf("hydrated snapshot = %+v, want the persisted seat", snap.Seats)
	}
}
