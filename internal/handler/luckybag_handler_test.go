package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
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

func seedUser(t *testing.T, db *gorm.DB, nickname string, coins float64) models.User {
	t.Helper()
	user := models.User{
		Nickname:     nickname,
		Email:        nickname + "@example.com",
		PasswordHash: "x",
		Coins:        coins,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedRoom(t *testing.T, db *gorm.DB, hostID uint) models.Room {
	t.Helper()
	room := models.Room{HostID: hostID, Title: "test room", MicCount: models.MicCounts[0]}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return room
}

// luckyBagRouter mounts the lucky bag routes behind a stub auth layer that
// reads the acting user from a header.
func luckyBagRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	asUser := func(c *gin.Context) {
		id, _ := strconv.ParseUint(c.GetHeader("X-User"), 10, 64)
		c.Set("userID", uint(id))
	}
	r.POST("/rooms/:id/lucky-bags", asUser, CreateLuckyBag)
	r.GET("/rooms/:id/lucky-bags", ListLuckyBags)
	r.POST("/rooms/:id/lucky-bags/:bagId/claim", asUser, ClaimLuckyBag)
	return r
}

func doJSON(r *gin.Engine, method, path string, userID uint, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", strconv.FormatUint(uint64(userID), 10))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateLuckyBagDebitsSender(t *testing.T) {
	database.DB = newTestDB(t)
	Configure(Deps{Hub: hub.NewHub()})

	sender := seedUser(t, database.DB, "sender", 500)
	room := seedRoom(t, database.DB, sender.ID)
	r := luckyBagRouter()

	w := doJSON(r, http.MethodPost, fmt.Sprintf("/rooms/%d/lucky-bags", room.ID), sender.ID,
		CreateLuckyBagInput{TotalAmount: 200, RecipientsLimit: 4})
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201: %s", w.Code, w.Body.String())
	}

	var got models.User
	if err := database.DB.First(&got, sender.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.Coins != 300 {
		t.Errorf("sender coins = %v, want 300", got.Coins)
	}
	if got.Wealth != 200 {
		t.Errorf("sender wealth = %v, want 200", got.Wealth)
	}
}

func TestCreateLuckyBagRejectsOverdraft(t *testing.T) {
	database.DB = newTestDB(t)
	Configure(Deps{Hub: hub.NewHub()})

	sender := seedUser(t, database.DB, "broke", 50)
	room := seedRoom(t, database.DB, sender.ID)
	r := luckyBagRouter()

	w := doJSON(r, http.MethodPost, fmt.Sprintf("/rooms/%d/lucky-bags", room.ID), sender.ID,
		CreateLuckyBagInput{TotalAmount: 200, RecipientsLimit: 4})
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status %d, want 402", w.Code)
	}

	var got models.User
	database.DB.First(&got, sender.ID)
	if got.Coins != 50 {
		t.Errorf("sender coins = %v after rejected drop, want 50", got.Coins)
	}
}

func TestClaimStopsAtRecipientsLimit(t *testing.T) {
	database.DB = newTestDB(t)
	Configure(Deps{Hub: hub.NewHub()})

	host := seedUser(t, database.DB, "host", 0)
	room := seedRoom(t, database.DB, host.ID)
	bag := models.LuckyBag{
		ID:              uuid.NewString(),
		RoomID:          room.ID,
		SenderID:        host.ID,
		TotalAmount:     90,
		RemainingAmount: 90,
		RecipientsLimit: 3,
		ExpiresAt:       time.Now().Add(time.Minute),
	}
	if err := database.DB.Create(&bag).Error; err != nil {
		t.Fatal(err)
	}

	r := luckyBagRouter()
	path := fmt.Sprintf("/rooms/%d/lucky-bags/%s/claim", room.ID, bag.ID)

	for i := 0; i < 3; i++ {
		claimer := seedUser(t, database.DB, fmt.Sprintf("claimer%d", i), 10)
		w := doJSON(r, http.MethodPost, path, claimer.ID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("claim %d: status %d, want 200: %s", i, w.Code, w.Body.String())
		}
		var resp ClaimLuckyBagResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Amount != 30 {
			t.Errorf("claim %d amount = %v, want 30", i, resp.Amount)
		}
		if resp.NewCoins != 40 {
			t.Errorf("claim %d new coins = %v, want 40", i, resp.NewCoins)
		}
	}

	late := seedUser(t, database.DB, "late", 10)
	if w := doJSON(r, http.MethodPost, path, late.ID, nil); w.Code != http.StatusGone {
		t.Errorf("claim past the cap: status %d, want 410", w.Code)
	}
}

func TestClaimOncePerUser(t *testing.T) {
	database.DB = newTestDB(t)
	Configure(Deps{Hub: hub.NewHub()})

	host := seedUser(t, database.DB, "host", 0)
	claimer := seedUser(t, database.DB, "claimer", 0)
	room := seedRoom(t, database.DB, host.ID)
	bag := models.LuckyBag{
		ID:              uuid.NewString(),
		RoomID:          room.ID,
		SenderID:        host.ID,
		TotalAmount:     100,
		RemainingAmount: 100,
		RecipientsLimit: 10,
		ExpiresAt:       time.Now().Add(time.Minute),
	}
	if err := database.DB.Create(&bag).Error; err != nil {
		t.Fatal(err)
	}

	r := luckyBagRouter()
	path := fmt.Sprintf("/rooms/%d/lucky-bags/%s/claim", room.ID, bag.ID)

	if w := doJSON(r, http.MethodPost, path, claimer.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("first claim: status %d, want 200", w.Code)
	}
	if w := doJSON(r, http.MethodPost, path, claimer.ID, nil); w.Code != http.StatusConflict {
		t.Errorf("second claim: status %d, want 409", w.Code)
	}

	var got models.User
	database.DB.First(&got, claimer.ID)
	if got.Coins != 10 {
		t.Errorf("claimer coins = %v after rejected double claim, want 10", got.Coins)
	}
}

func TestClaimExpiredBagIsGone(t *testing.T) {
	database.DB = newTestDB(t)
	Configure(Deps{Hub: hub.NewHub()})

	host := seedUser(t, database.DB, "host", 0)
	claimer := seedUser(t, database.DB, "claimer", 0)
	room := seedRoom(t, database.DB, host.ID)
	bag := models.LuckyBag{
		ID:              uuid.NewString(),
		RoomID:          room.ID,
		SenderID:        host.ID,
		TotalAmount:     100,
		RemainingAmount: 100,
		RecipientsLimit: 10,
		ExpiresAt:       time.Now().Add(-time.Second),
	}
	if err := database.DB.Create(&bag).Error; err != nil {
		t.Fatal(err)
	}

	r := luckyBagRouter()
	path := fmt.Sprintf("/rooms/%d/lucky-bags/%s/claim", room.ID, bag.ID)
	if w := doJSON(r, http.MethodPost, path, claimer.ID, nil); w.Code != http.StatusGone {
		t.Errorf("expired bag claim: status %d, want 410", w.Code)
	}
}

func TestListLuckyBagsSkipsExpiredAndEmpty(t *testing.T) {
	database.DB = newTestDB(t)
	Configure(Deps{Hub: hub.NewHub()})

	host := seedUser(t, database.DB, "host", 0)
	room := seedRoom(t, database.DB, host.ID)
	live := models.LuckyBag{ID: uuid.NewString(), RoomID: room.ID, SenderID: host.ID,
		TotalAmount: 50, RemainingAmount: 50, RecipientsLimit: 5, ExpiresAt: time.Now().Add(time.Minute)}
	expired := models.LuckyBag{ID: uuid.NewString(), RoomID: room.ID, SenderID: host.ID,
		TotalAmount: 50, RemainingAmount: 50, RecipientsLimit: 5, ExpiresAt: time.Now().Add(-time.Minute)}
	empty := models.LuckyBag{ID: uuid.NewString(), RoomID: room.ID, SenderID: host.ID,
		TotalAmount: 50, RemainingAmount: 0, RecipientsLimit: 5, ExpiresAt: time.Now().Add(time.Minute)}
	for _, b := range []models.LuckyBag{live, expired, empty} {
		bag := b
		if err := database.DB.Create(&bag).Error; err != nil {
			t.Fatal(err)
		}
	}

	r := luckyBagRouter()
	w := doJSON(r, http.MethodGet, fmt.Sprintf("/rooms/%d/lucky-bags", room.ID), 0, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	var bags []LuckyBagResponse
	if err := json.Unmarshal(w.Body.Bytes(), &bags); err != nil {
		t.Fatal(err)
	}
	if len(bags) != 1 || bags[0].ID != live.ID {
		t.Errorf("listed %d bags, want only the live one", len(bags))
	}
}
