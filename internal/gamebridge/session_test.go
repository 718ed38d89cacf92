package gamebridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"livetalk/backend/internal/database"
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

func seedBridge(t *testing.T, db *gorm.DB, coins float64, enabled bool) (models.User, models.ExternalGame) {
	t.Helper()
	customID := "star99"
	user := models.User{
		Nickname:     "player",
		Email:        "player@example.com",
		PasswordHash: "x",
		Coins:        coins,
		CustomID:     &customID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	game := models.ExternalGame{
		Title:         "Fruit Spin",
		URL:           "https://games.example.com/fruit",
		AllowedOrigin: "https://games.example.com",
		Enabled:       enabled,
	}
	if err := db.Create(&game).Error; err != nil {
		t.Fatal(err)
	}
	return user, game
}

func openSession(t *testing.T, db *gorm.DB, user models.User, game models.ExternalGame) *Session {
	t.Helper()
	registry := NewRegistry(db, nil)
	ticket, err := registry.Open(user.ID, game.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	session, err := registry.Claim(ticket.Token)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	return session
}

func envelope(t *testing.T, seq uint64, msgType string, payload interface{}) Envelope {
	t.Helper()
	env := Envelope{V: ProtocolVersion, Seq: seq, Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		env.Payload = data
	}
	return env
}

func TestTicketsAreSingleUse(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 100, true)

	registry := NewRegistry(db, nil)
	ticket, err := registry.Open(user.ID, game.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := registry.Claim(ticket.Token); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := registry.Claim(ticket.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second claim err = %v, want ErrInvalidToken", err)
	}
	if _, err := registry.Claim("no-such-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("bogus claim err = %v, want ErrInvalidToken", err)
	}
}

func TestOpenRejectsDisabledGame(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 100, false)

	registry := NewRegistry(db, nil)
	if _, err := registry.Open(user.ID, game.ID); !errors.Is(err, ErrGameDisabled) {
		t.Fatalf("err = %v, want ErrGameDisabled", err)
	}
}

func TestCheckOrigin(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 100, true)
	session := openSession(t, db, user, game)

	if !session.CheckOrigin("https://games.example.com") {
		t.Error("registered origin rejected")
	}
	if session.CheckOrigin("https://evil.example.com") {
		t.Error("foreign origin accepted")
	}

	game.AllowedOrigin = ""
	db.Save(&game)
	empty := openSession(t, db, user, game)
	if empty.CheckOrigin("https://games.example.com") {
		t.Error("empty allowed origin accepted a connection")
	}
}

func TestHandleRejectsBadVersionAndStaleSeq(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 100, true)
	session := openSession(t, db, user, game)
	ctx := context.Background()

	bad := envelope(t, 1, TypeGetUser, nil)
	bad.V = "1.0"
	if _, err := session.Handle(ctx, bad); !errors.Is(err, ErrBadVersion) {
		t.Fatalf("err = %v, want ErrBadVersion", err)
	}

	if _, err := session.Handle(ctx, envelope(t, 5, TypeGetUser, nil)); err != nil {
		t.Fatalf("seq 5: %v", err)
	}
	if _, err := session.Handle(ctx, envelope(t, 5, TypeGetUser, nil)); !errors.Is(err, ErrStaleSeq) {
		t.Fatalf("replayed seq err = %v, want ErrStaleSeq", err)
	}
	if _, err := session.Handle(ctx, envelope(t, 3, TypeGetUser, nil)); !errors.Is(err, ErrStaleSeq) {
		t.Fatalf("lower seq err = %v, want ErrStaleSeq", err)
	}
	if _, err := session.Handle(ctx, envelope(t, 6, TypeGetUser, nil)); err != nil {
		t.Fatalf("seq 6: %v", err)
	}
}

func TestGetUserPrefersVanityID(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 250, true)
	session := openSession(t, db, user, game)

	reply, err := session.Handle(context.Background(), envelope(t, 1, TypeGetUser, nil))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply.Type != TypeUserData {
		t.Fatalf("reply type = %q, want %q", reply.Type, TypeUserData)
	}
	if reply.V != ProtocolVersion || reply.Seq == 0 {
		t.Errorf("reply framing v=%q seq=%d", reply.V, reply.Seq)
	}

	var payload UserDataPayload
	if err := json.Unmarshal(reply.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.ID != "star99" {
		t.Errorf("id = %q, want vanity id", payload.ID)
	}
	if payload.Coins != 250 {
		t.Errorf("coins = %v, want 250", payload.Coins)
	}
	if payload.Timestamp == 0 {
		t.Error("timestamp missing")
	}
}

func TestLegacyMessageTypesAccepted(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 100, true)
	session := openSession(t, db, user, game)

	reply, err := session.Handle(context.Background(), envelope(t, 1, TypeGetUserLegacy, nil))
	if err != nil {
		t.Fatalf("legacy get user: %v", err)
	}
	if reply.Type != TypeUserData {
		t.Errorf("reply type = %q, want %q", reply.Type, TypeUserData)
	}
}

func TestUpdateBalanceAppliesStakesAndWinnings(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 100, true)
	session := openSession(t, db, user, game)
	ctx := context.Background()

	// Stake 40: coins down, wealth up.
	reply, err := session.Handle(ctx, envelope(t, 1, TypeUpdateBalance, UpdateBalancePayload{Amount: -40, Reason: "spin"}))
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if reply.Type != TypeBalanceUpdated {
		t.Fatalf("reply type = %q, want %q", reply.Type, TypeBalanceUpdated)
	}
	var updated BalanceUpdatedPayload
	json.Unmarshal(reply.Payload, &updated)
	if updated.NewBalance != 60 {
		t.Errorf("newBalance = %v, want 60", updated.NewBalance)
	}

	// Win 25: coins up, wealth untouched.
	if _, err := session.Handle(ctx, envelope(t, 2, TypeUpdateBalance, UpdateBalancePayload{Amount: 25})); err != nil {
		t.Fatalf("win: %v", err)
	}

	var got models.User
	db.First(&got, user.ID)
	if got.Coins != 85 {
		t.Errorf("coins = %v, want 85", got.Coins)
	}
	if got.Wealth != 40 {
		t.Errorf("wealth = %v, want 40", got.Wealth)
	}
}

func TestUpdateBalanceRejectsOverdraftInBand(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 30, true)
	session := openSession(t, db, user, game)

	reply, err := session.Handle(context.Background(), envelope(t, 1, TypeUpdateBalance, UpdateBalancePayload{Amount: -50}))
	if err != nil {
		t.Fatalf("overdraft should reply in-band, got transport error %v", err)
	}
	if reply.Type != TypeError {
		t.Fatalf("reply type = %q, want %q", reply.Type, TypeError)
	}
	var message string
	json.Unmarshal(reply.Payload, &message)
	if message != "Insufficient balance" {
		t.Errorf("error payload = %q, want Insufficient balance", message)
	}

	var got models.User
	db.First(&got, user.ID)
	if got.Coins != 30 || got.Wealth != 0 {
		t.Errorf("balance mutated on overdraft: coins=%v wealth=%v", got.Coins, got.Wealth)
	}
}

func TestReadyAnnouncesProtocolVersion(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 100, true)
	session := openSession(t, db, user, game)

	ready := session.Ready()
	if ready.Type != TypeReady {
		t.Fatalf("type = %q, want %q", ready.Type, TypeReady)
	}
	var payload ReadyPayload
	json.Unmarshal(ready.Payload, &payload)
	if payload.Version != ProtocolVersion {
		t.Errorf("version = %q, want %q", payload.Version, ProtocolVersion)
	}
}

func TestReplySequenceIncreases(t *testing.T) {
	db := newTestDB(t)
	user, game := seedBridge(t, db, 100, true)
	session := openSession(t, db, user, game)
	ctx := context.Background()

	first, _ := session.Handle(ctx, envelope(t, 1, TypeGetUser, nil))
	second, _ := session.Handle(ctx, envelope(t, 2, TypeGetUser, nil))
	if second.Seq <= first.Seq {
		t.Errorf("reply seq %d then %d, want strictly increasing", first.Seq, second.Seq)
	}
}
