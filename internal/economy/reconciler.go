package economy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInsufficientFunds is returned when the sender cannot cover the
	// total cost of the send. Nothing is written in that case.
	ErrInsufficientFunds = errors.New("insufficient coins")
	// ErrNoRecipients is returned for a send without a recipient list.
	ErrNoRecipients = errors.New("no recipients selected")
)

// CharmSink receives the per-recipient seat charisma increments of a gift
// send. The seat scheduler implements it, so seat state keeps a single
// writer and the increments ride the next coalesced seat flush.
type CharmSink interface {
	AddCharm(roomID uint, recipientIDs []uint, amount float64)
}

// Outcome describes what a gift send did.
type Outcome struct {
	EventID   string  `json:"event_id"`
	TotalCost float64 `json:"total_cost"`
	// WinAmount is the lucky payout credited back to the sender, 0 for
	// non-lucky gifts and lost rolls.
	WinAmount  float64 `json:"win_amount"`
	Multiplier float64 `json:"multiplier,omitempty"`
	NewCoins   float64 `json:"new_coins"`
}

// Reconciler applies the full effect of a gift send in one database
// transaction: sender debit and lucky credit, recipient charm and diamond
// increments, the contributor ledger upsert, the animation fan-out event and
// the narrated chat message. The whole send commits or none of it does.
type Reconciler struct {
	db     *gorm.DB
	hub    *hub.Hub
	rng    Source
	seats  CharmSink
	logger *slog.Logger
}

// NewReconciler wires a reconciler. seats may be nil in tests that do not
// care about seat charm.
func NewReconciler(db *gorm.DB, h *hub.Hub, rng Source, seats CharmSink, logger *slog.Logger) *Reconciler {
	if rng == nil {
		rng = NewLockedSource(nil)
	}
	return &Reconciler{db: db, hub: h, rng: rng, seats: seats, logger: logger}
}

// SendGift validates and applies a gift send from senderID to recipientIDs
// inside room roomID. The recipient list is taken as given: combo hits replay
// the list captured at the initial send without re-checking room membership.
func (r *Reconciler) SendGift(ctx context.Context, roomID, senderID, giftID uint, quantity int, recipientIDs []uint) (*Outcome, error) {
	if len(recipientIDs) == 0 {
		return nil, ErrNoRecipients
	}
	if quantity < 1 {
		quantity = 1
	}

	var (
		outcome Outcome
		event   models.GiftEvent
		message models.ChatMessage
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sender models.User
		if err := tx.First(&sender, senderID).Error; err != nil {
			return fmt.Errorf("load sender: %w", err)
		}

		var gift models.Gift
		if err := tx.First(&gift, giftID).Error; err != nil {
			return fmt.Errorf("load gift: %w", err)
		}

		totalCost := gift.Cost * float64(quantity) * float64(len(recipientIDs))
		if sender.Coins < totalCost {
			return ErrInsufficientFunds
		}

		var settings models.GameSettings
		if err := tx.Order("id").First(&settings).Error; err != nil {
			return fmt.Errorf("load game settings: %w", err)
		}

		winAmount, multiplier := r.rollLucky(&gift, quantity, &settings)

		if err := tx.Model(&models.User{}).Where("id = ?", sender.ID).Updates(map[string]interface{}{
			"coins":  gorm.Expr("coins - ? + ?", totalCost, winAmount),
			"wealth": gorm.Expr("wealth + ?", totalCost),
		}).Error; err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}

		value := gift.Cost * float64(quantity)
		for _, rid := range recipientIDs {
			if err := tx.Model(&models.User{}).Where("id = ?", rid).Updates(map[string]interface{}{
				"charm":    gorm.Expr("charm + ?", value),
				"diamonds": gorm.Expr("diamonds + ?", value*0.7),
			}).Error; err != nil {
				return fmt.Errorf("credit recipient %d: %w", rid, err)
			}
		}

		contributor := models.Contributor{
			RoomID: roomID,
			UserID: sender.ID,
			Name:   sender.Nickname,
			Avatar: sender.Avatar,
			Amount: value * float64(len(recipientIDs)),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"amount": gorm.Expr("amount + ?", value*float64(len(recipientIDs))),
				"name":   sender.Nickname,
				"avatar": sender.Avatar,
			}),
		}).Create(&contributor).Error; err != nil {
			return fmt.Errorf("upsert contributor: %w", err)
		}

		event = models.GiftEvent{
			ID:            uuid.NewString(),
			RoomID:        roomID,
			GiftID:        gift.ID,
			GiftName:      gift.Name,
			GiftIcon:      gift.Icon,
			AnimationType: gift.AnimationType,
			Duration:      gift.Duration,
			DisplaySize:   gift.DisplaySize,
			SenderID:      sender.ID,
			SenderName:    sender.Nickname,
			SenderAvatar:  sender.Avatar,
			RecipientIDs:  recipientIDs,
			Quantity:      quantity,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("create gift event: %w", err)
		}

		content := fmt.Sprintf("sent %s x%d 🎁", gift.Name, quantity)
		if winAmount > 0 {
			content = fmt.Sprintf("sent %s x%d and won %.0f 🪙!", gift.Name, quantity, winAmount)
		}
		message = models.ChatMessage{
			RoomID:        roomID,
			UserID:        &sender.ID,
			Type:          models.MessageTypeGift,
			Content:       content,
			IsLuckyWin:    winAmount > 0,
			UserName:      sender.Nickname,
			WealthLevel:   models.Level(sender.Wealth + totalCost),
			RechargeLevel: models.Level(sender.Diamonds),
		}
		if err := tx.Create(&message).Error; err != nil {
			return fmt.Errorf("create chat message: %w", err)
		}

		outcome = Outcome{
			EventID:    event.ID,
			TotalCost:  totalCost,
			WinAmount:  winAmount,
			Multiplier: multiplier,
			NewCoins:   sender.Coins - totalCost + winAmount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Seat charm rides the next coalesced seat write rather than this
	// transaction; the seat scheduler is the only writer of seat state.
	if r.seats != nil {
		r.seats.AddCharm(roomID, recipientIDs, outcome.TotalCost/float64(len(recipientIDs)))
	}

	if r.hub != nil {
		r.hub.Broadcast(roomID, hub.Event{Type: hub.EventGift, Payload: event})
		r.hub.Broadcast(roomID, hub.Event{Type: hub.EventMessage, Payload: message})
	}
	if r.logger != nil {
		r.logger.Info("gift sent",
			"room", roomID, "sender", senderID, "gift", giftID,
			"qty", quantity, "recipients", len(recipientIDs),
			"cost", outcome.TotalCost, "win", outcome.WinAmount)
	}

	return &outcome, nil
}

// rollLucky rolls the win chance and, on a win, picks a payout tier by
// cumulative-weight selection: draw uniform over the total weight and walk
// the table subtracting each tier's weight until the draw falls under one.
func (r *Reconciler) rollLucky(gift *models.Gift, quantity int, settings *models.GameSettings) (winAmount, multiplier float64) {
	if !gift.IsLucky() {
		return 0, 0
	}
	if r.rng.Float64()*100 >= settings.LuckyGiftWinRate {
		return 0, 0
	}

	tiers := settings.LuckyMultipliers
	if len(tiers) == 0 {
		return 0, 0
	}
	total := 0.0
	for _, m := range tiers {
		total += m.Chance
	}
	if total <= 0 {
		return 0, 0
	}

	draw := r.rng.Float64() * total
	picked := tiers[0]
	for _, m := range tiers {
		if draw < m.Chance {
			picked = m
			break
		}
		draw -= m.Chance
	}
	return gift.Cost * float64(quantity) * picked.Value, picked.Value
}
