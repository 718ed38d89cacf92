package seats

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSeatTaken = errors.New("seat is already taken")
	ErrBadSeat   = errors.New("seat index out of range")
	ErrNotSeated = errors.New("user is not on a seat")
	ErrNotHost   = errors.New("only the host can do this")
)

// Snapshot is the room seat state broadcast after every flush.
type Snapshot struct {
	RoomID   uint          `json:"room_id"`
	MicCount int           `json:"mic_count"`
	Seats    []models.Seat `json:"seats"`
}

type pendingOp int

const (
	opUpsert pendingOp = iota
	opDelete
)

type roomState struct {
	hostID   uint
	micCount int
	seats    map[int]*models.Seat // by seat index

	pending  map[int]pendingOp
	micDirty bool
	timer    *time.Timer

	emojiTimers map[uint]*time.Timer // by user id
}

// Scheduler owns the seat state of every active room. Mutations apply to the
// in-memory snapshot immediately and arm a debounce timer; the flush drains
// the pending set exactly once and persists per-seat keyed upserts and
// deletes, then broadcasts the new snapshot. Coalescing keeps a burst of
// seat churn down to a single database write, and per-seat rows mean two
// rooms' clients can never clobber each other's seats wholesale.
type Scheduler struct {
	mu     sync.Mutex
	db     *gorm.DB
	hub    *hub.Hub
	delay  time.Duration
	rooms  map[uint]*roomState
	logger *slog.Logger
}

// NewScheduler creates a scheduler flushing after the given debounce delay.
func NewScheduler(db *gorm.DB, h *hub.Hub, delay time.Duration, logger *slog.Logger) *Scheduler {
	if delay <= 0 {
		delay = 2500 * time.Millisecond
	}
	return &Scheduler{
		db:     db,
		hub:    h,
		delay:  delay,
		rooms:  make(map[uint]*roomState),
		logger: logger,
	}
}

// Claim seats the user on the given empty seat. A user claiming a new seat
// while already seated moves, keeping their accumulated charm.
func (s *Scheduler) Claim(roomID uint, user *models.User, seatIndex int, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.roomLocked(roomID)
	if err != nil {
		return err
	}
	if seatIndex < 0 || seatIndex >= rs.micCount {
		return ErrBadSeat
	}
	if occupied, ok := rs.seats[seatIndex]; ok && occupied.UserID != user.ID {
		return ErrSeatTaken
	}

	carriedCharm := 0.0
	for idx, seat := range rs.seats {
		if seat.UserID == user.ID {
			carriedCharm = seat.Charm
			delete(rs.seats, idx)
			rs.pending[idx] = opDelete
		}
	}

	customID := ""
	if user.CustomID != nil {
		customID = *user.CustomID
	}
	rs.seats[seatIndex] = &models.Seat{
		RoomID:    roomID,
		SeatIndex: seatIndex,
		UserID:    user.ID,
		Nickname:  user.Nickname,
		CustomID:  customID,
		Avatar:    user.Avatar,
		Frame:     user.VIPFrameURL,
		Muted:     muted,
		Charm:     carriedCharm,
	}
	rs.pending[seatIndex] = opUpsert
	s.scheduleLocked(roomID, rs)
	return nil
}

// Leave vacates whatever seat the user holds.
func (s *Scheduler) Leave(roomID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.roomLocked(roomID)
	if err != nil {
		return err
	}
	found := false
	for idx, seat := range rs.seats {
		if seat.UserID == userID {
			delete(rs.seats, idx)
			rs.pending[idx] = opDelete
			found = true
		}
	}
	if !found {
		return ErrNotSeated
	}
	s.scheduleLocked(roomID, rs)
	return nil
}

// SetMuted flips the mute flag on the user's seat.
func (s *Scheduler) SetMuted(roomID, userID uint, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.roomLocked(roomID)
	if err != nil {
		return err
	}
	for idx, seat := range rs.seats {
		if seat.UserID == userID {
			seat.Muted = muted
			rs.pending[idx] = opUpsert
			s.scheduleLocked(roomID, rs)
			return nil
		}
	}
	return ErrNotSeated
}

// SetEmoji flickers a reaction on the user's seat and clears it after ttl.
func (s *Scheduler) SetEmoji(roomID, userID uint, emoji string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.roomLocked(roomID)
	if err != nil {
		return err
	}
	for idx, seat := range rs.seats {
		if seat.UserID == userID {
			seat.ActiveEmoji = emoji
			rs.pending[idx] = opUpsert
			s.scheduleLocked(roomID, rs)

			if t, ok := rs.emojiTimers[userID]; ok {
				t.Stop()
			}
			rs.emojiTimers[userID] = time.AfterFunc(ttl, func() {
				s.clearEmoji(roomID, userID)
			})
			return nil
		}
	}
	return ErrNotSeated
}

func (s *Scheduler) clearEmoji(roomID, userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rooms[roomID]
	if !ok {
		return
	}
	delete(rs.emojiTimers, userID)
	for idx, seat := range rs.seats {
		if seat.UserID == userID && seat.ActiveEmoji != "" {
			seat.ActiveEmoji = ""
			rs.pending[idx] = opUpsert
			s.scheduleLocked(roomID, rs)
		}
	}
}

// AddCharm credits gift value onto the recipients' seats. Recipients that
// already left their seat are skipped; their user-level charm was credited
// by the gift transaction regardless.
func (s *Scheduler) AddCharm(roomID uint, recipientIDs []uint, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.roomLocked(roomID)
	if err != nil {
		return
	}
	changed := false
	for idx, seat := range rs.seats {
		for _, rid := range recipientIDs {
			if seat.UserID == rid {
				seat.Charm += amount
				rs.pending[idx] = opUpsert
				changed = true
			}
		}
	}
	if changed {
		s.scheduleLocked(roomID, rs)
	}
}

// ResetCharm zeroes the charm of every seat in the room. Host only.
func (s *Scheduler) ResetCharm(roomID, byUserID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.roomLocked(roomID)
	if err != nil {
		return err
	}
	if rs.hostID != byUserID {
		return ErrNotHost
	}
	for idx, seat := range rs.seats {
		seat.Charm = 0
		rs.pending[idx] = opUpsert
	}
	s.scheduleLocked(roomID, rs)
	return nil
}

// CycleMicLayout advances the room through the 8 -> 10 -> 15 -> 20 -> 8
// layouts. Seats beyond the new layout are vacated. Host only.
func (s *Scheduler) CycleMicLayout(roomID, byUserID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.roomLocked(roomID)
	if err != nil {
		return 0, err
	}
	if rs.hostID != byUserID {
		return 0, ErrNotHost
	}

	rs.micCount = models.NextMicCount(rs.micCount)
	rs.micDirty = true
	for idx := range rs.seats {
		if idx >= rs.micCount {
			delete(rs.seats, idx)
			rs.pending[idx] = opDelete
		}
	}
	s.scheduleLocked(roomID, rs)
	return rs.micCount, nil
}

// Snapshot returns the current in-memory seat state of the room.
func (s *Scheduler) Snapshot(roomID uint) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.roomLocked(roomID)
	if err != nil {
		return nil, err
	}
	return rs.snapshot(roomID), nil
}

// Flush forces an immediate write of any pending state, bypassing the
// debounce timer. Used on room teardown.
func (s *Scheduler) Flush(roomID uint) {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if rs.timer != nil {
		rs.timer.Stop()
		rs.timer = nil
	}
	s.mu.Unlock()
	s.flush(roomID)
}

// Forget drops the in-memory state of a room after a final flush. Emoji
// timers are cancelled.
func (s *Scheduler) Forget(roomID uint) {
	s.Flush(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if rs, ok := s.rooms[roomID]; ok {
		for _, t := range rs.emojiTimers {
			t.Stop()
		}
		if rs.timer != nil {
			rs.timer.Stop()
		}
		delete(s.rooms, roomID)
	}
}

// roomLocked returns the room state, hydrating it from the database on
// first touch. Callers hold s.mu.
func (s *Scheduler) roomLocked(roomID uint) (*roomState, error) {
	if rs, ok := s.rooms[roomID]; ok {
		return rs, nil
	}

	var room models.Room
	if err := s.db.Preload("Seats").First(&room, roomID).Error; err != nil {
		return nil, fmt.Errorf("load room %d: %w", roomID, err)
	}
	rs := &roomState{
		hostID:      room.HostID,
		micCount:    room.MicCount,
		seats:       make(map[int]*models.Seat, len(room.Seats)),
		pending:     make(map[int]pendingOp),
		emojiTimers: make(map[uint]*time.Timer),
	}
	for i := range room.Seats {
		seat := room.Seats[i]
		rs.seats[seat.SeatIndex] = &seat
	}
	s.rooms[roomID] = rs
	return rs, nil
}

// scheduleLocked arms (or re-arms) the debounce timer. Every mutation resets
// the window, so a burst collapses into the single flush that runs once the
// room goes quiet.
func (s *Scheduler) scheduleLocked(roomID uint, rs *roomState) {
	if rs.timer != nil {
		rs.timer.Stop()
	}
	rs.timer = time.AfterFunc(s.delay, func() { s.flush(roomID) })
}

// flush drains the pending set exactly once and persists it.
func (s *Scheduler) flush(roomID uint) {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return
	}
	rs.timer = nil

	var upserts []models.Seat
	var deletes []int
	for idx, op := range rs.pending {
		switch op {
		case opUpsert:
			if seat, ok := rs.seats[idx]; ok {
				upserts = append(upserts, *seat)
			}
		case opDelete:
			deletes = append(deletes, idx)
		}
	}
	rs.pending = make(map[int]pendingOp)
	micDirty := rs.micDirty
	rs.micDirty = false
	micCount := rs.micCount
	snap := rs.snapshot(roomID)
	s.mu.Unlock()

	if len(upserts) == 0 && len(deletes) == 0 && !micDirty {
		return
	}

	if len(upserts) > 0 {
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "seat_index"}},
			UpdateAll: true,
		}).Create(&upserts).Error; err != nil && s.logger != nil {
			s.logger.Error("seat upsert failed", "room", roomID, "err", err)
		}
	}
	if len(deletes) > 0 {
		if err := s.db.Where("room_id = ? AND seat_index IN ?", roomID, deletes).
			Delete(&models.Seat{}).Error; err != nil && s.logger != nil {
			s.logger.Error("seat delete failed", "room", roomID, "err", err)
		}
	}
	if micDirty {
		if err := s.db.Model(&models.Room{}).Where("id = ?", roomID).
			Update("mic_count", micCount).Error; err != nil && s.logger != nil {
			s.logger.Error("mic count update failed", "room", roomID, "err", err)
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(roomID, hub.Event{Type: hub.EventSeats, Payload: snap})
	}
}

func (rs *roomState) snapshot(roomID uint) *Snapshot {
	snap := &Snapshot{RoomID: roomID, MicCount: rs.micCount}
	for _, seat := range rs.seats {
		snap.Seats = append(snap.Seats, *seat)
	}
	return snap
}
