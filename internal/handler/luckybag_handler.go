package handler

import (
	"errors"
	"net/http"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// luckyBagLifetime is how long a bag stays claimable after it is dropped.
const luckyBagLifetime = 5 * time.Minute

// region --- DTOs ---

// CreateLuckyBagInput defines the structure for dropping a lucky bag.
type CreateLuckyBagInput struct {
	TotalAmount     float64 `json:"total_amount" binding:"required,gt=0"`
	RecipientsLimit int     `json:"recipients_limit" binding:"required,min=1,max=500"`
}

// LuckyBagResponse defines the structure for lucky bag data.
type LuckyBagResponse struct {
	ID              string    `json:"id"`
	RoomID          uint      `json:"room_id"`
	SenderID        uint      `json:"sender_id"`
	SenderName      string    `json:"sender_name"`
	SenderAvatar    string    `json:"sender_avatar,omitempty"`
	TotalAmount     float64   `json:"total_amount"`
	RemainingAmount float64   `json:"remaining_amount"`
	RecipientsLimit int       `json:"recipients_limit"`
	ClaimedCount    int       `json:"claimed_count"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// ClaimLuckyBagResponse reports the caller's share.
type ClaimLuckyBagResponse struct {
	Amount   float64 `json:"amount"`
	NewCoins float64 `json:"new_coins"`
}

func buildLuckyBagResponse(bag models.LuckyBag) LuckyBagResponse {
	return LuckyBagResponse{
		ID:              bag.ID,
		RoomID:          bag.RoomID,
		SenderID:        bag.SenderID,
		SenderName:      bag.SenderName,
		SenderAvatar:    bag.SenderAvatar,
		TotalAmount:     bag.TotalAmount,
		RemainingAmount: bag.RemainingAmount,
		RecipientsLimit: bag.RecipientsLimit,
		ClaimedCount:    len(bag.Claims),
		ExpiresAt:       bag.ExpiresAt,
	}
}

// endregion

// CreateLuckyBag godoc
// @Summary      Drop a lucky bag
// @Description  Debits the sender and drops a pooled giveaway into the room. Each claimant gets an equal share.
// @Tags         lucky-bags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Room ID"
// @Param        input body CreateLuckyBagInput true "Bag parameters"
// @Success      201  {object}  LuckyBagResponse
// @Failure      402  {object}  ErrorResponse "Insufficient balance"
// @Router       /rooms/{id}/lucky-bags [post]
func CreateLuckyBag(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var input CreateLuckyBagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var room models.Room
	if err := database.DB.First(&room, roomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	var bag models.LuckyBag
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var sender models.User
		if err := tx.First(&sender, userID).Error; err != nil {
			return err
		}
		if sender.Coins < input.TotalAmount {
			return errInsufficientCoins
		}
		if err := tx.Model(&sender).Updates(map[string]interface{}{
			"coins":  gorm.Expr("coins - ?", input.TotalAmount),
			"wealth": gorm.Expr("wealth + ?", input.TotalAmount),
		}).Error; err != nil {
			return err
		}

		bag = models.LuckyBag{
			ID:              uuid.NewString(),
			RoomID:          roomID,
			SenderID:        sender.ID,
			SenderName:      sender.Nickname,
			SenderAvatar:    sender.Avatar,
			RoomTitle:       room.Title,
			TotalAmount:     input.TotalAmount,
			RemainingAmount: input.TotalAmount,
			RecipientsLimit: input.RecipientsLimit,
			ExpiresAt:       time.Now().Add(luckyBagLifetime),
		}
		return tx.Create(&bag).Error
	})
	if err != nil {
		if errors.Is(err, errInsufficientCoins) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lucky bag"})
		return
	}

	response := buildLuckyBagResponse(bag)
	Hub.Broadcast(roomID, hub.Event{Type: hub.EventLuckyBag, Payload: response})
	c.JSON(http.StatusCreated, response)
}

// ListLuckyBags godoc
// @Summary      List active lucky bags
// @Description  Gets the room's unexpired bags that still have shares left.
// @Tags         lucky-bags
// @Produce      json
// @Param        id path int true "Room ID"
// @Success      200  {array}  LuckyBagResponse
// @Router       /rooms/{id}/lucky-bags [get]
func ListLuckyBags(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var bags []models.LuckyBag
	if err := database.DB.Preload("Claims").
		Where("room_id = ? AND expires_at > ? AND remaining_amount > 0", roomID, time.Now()).
		Order("created_at DESC").
		Find(&bags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lucky bags"})
		return
	}

	responses := make([]LuckyBagResponse, len(bags))
	for i, bag := range bags {
		responses[i] = buildLuckyBagResponse(bag)
	}
	c.JSON(http.StatusOK, responses)
}

// ClaimLuckyBag godoc
// @Summary      Claim a lucky bag share
// @Description  Credits the caller one share. A user can claim each bag once; claims stop when the cap is reached or the bag expires.
// @Tags         lucky-bags
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int    true "Room ID"
// @Param        bagId path string true "Bag ID"
// @Success      200  {object}  ClaimLuckyBagResponse
// @Failure      409  {object}  ErrorResponse "Already claimed"
// @Failure      410  {object}  ErrorResponse "Bag expired or empty"
// @Router       /rooms/{id}/lucky-bags/{bagId}/claim [post]
func ClaimLuckyBag(c *gin.Context) {
	userID, _ := c.Get("userID")
	if _, ok := roomIDParam(c); !ok {
		return
	}
	bagID := c.Param("bagId")

	var amount, newCoins float64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var bag models.LuckyBag
		if err := tx.First(&bag, "id = ?", bagID).Error; err != nil {
			return err
		}
		if bag.Expired(time.Now()) || bag.RemainingAmount <= 0 {
			return errBagExhausted
		}

		var claimed int64
		tx.Model(&models.LuckyBagClaim{}).Where("bag_id = ?", bagID).Count(&claimed)
		if int(claimed) >= bag.RecipientsLimit {
			return errBagExhausted
		}

		amount = bag.Share()
		if amount > bag.RemainingAmount {
			amount = bag.RemainingAmount
		}

		claim := models.LuckyBagClaim{BagID: bagID, UserID: userID.(uint), Amount: amount}
		if err := tx.Create(&claim).Error; err != nil {
			// The composite key rejects a second claim from the same user.
			return errAlreadyClaimed
		}

		if err := tx.Model(&bag).Update("remaining_amount", gorm.Expr("remaining_amount - ?", amount)).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		newCoins = user.Coins + amount
		return tx.Model(&user).Update("coins", gorm.Expr("coins + ?", amount)).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, errBagExhausted):
			c.JSON(http.StatusGone, gin.H{"error": "Lucky bag expired or empty"})
		case errors.Is(err, errAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "Already claimed"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Lucky bag not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim lucky bag"})
		}
		return
	}

	c.JSON(http.StatusOK, ClaimLuckyBagResponse{Amount: amount, NewCoins: newCoins})
}

var (
	errInsufficientCoins = errors.New("insufficient coins")
	errBagExhausted      = errors.New("lucky bag exhausted")
	errAlreadyClaimed    = errors.New("lucky bag already claimed")
)
