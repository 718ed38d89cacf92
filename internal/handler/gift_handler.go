package handler

import (
	"errors"
	"net/http"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/economy"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// SendGiftInput defines the structure for sending a gift.
type SendGiftInput struct {
	GiftID       uint   `json:"gift_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	RecipientIDs []uint `json:"recipient_ids" binding:"required,min=1"`
}

// GiftResponse defines the structure for gift catalog entries.
type GiftResponse struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Icon          string  `json:"icon"`
	CatalogIcon   string  `json:"catalog_icon,omitempty"`
	Cost          float64 `json:"cost"`
	Category      string  `json:"category"`
	AnimationType string  `json:"animation_type,omitempty"`
	Duration      int     `json:"duration,omitempty"`
	DisplaySize   string  `json:"display_size,omitempty"`
}

// GiftOutcomeResponse reports the result of a gift send or combo hit.
type GiftOutcomeResponse struct {
	EventID    string  `json:"event_id"`
	TotalCost  float64 `json:"total_cost"`
	WinAmount  float64 `json:"win_amount,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	NewCoins   float64 `json:"new_coins"`
	ComboCount int     `json:"combo_count,omitempty"`
}

func buildGiftResponse(gift models.Gift) GiftResponse {
	return GiftResponse{
		ID:            gift.ID,
		Name:          gift.Name,
		Icon:          gift.Icon,
		CatalogIcon:   gift.CatalogIcon,
		Cost:          gift.Cost,
		Category:      string(gift.Category),
		AnimationType: gift.AnimationType,
		Duration:      gift.Duration,
		DisplaySize:   gift.DisplaySize,
	}
}

// endregion

// ListGifts godoc
// @Summary      List the gift catalog
// @Description  Gets all gifts, optionally filtered by category.
// @Tags         gifts
// @Produce      json
// @Param        category query string false "Gift category" Enums(popular, exclusive, lucky, trend)
// @Success      200  {array}  GiftResponse
// @Router       /gifts [get]
func ListGifts(c *gin.Context) {
	query := database.DB.Order("cost ASC")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var gifts []models.Gift
	if err := query.Find(&gifts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch gifts"})
		return
	}

	responses := make([]GiftResponse, len(gifts))
	for i, gift := range gifts {
		responses[i] = buildGiftResponse(gift)
	}
	c.JSON(http.StatusOK, responses)
}

// SendGift godoc
// @Summary      Send a gift
// @Description  Charges the sender, credits the recipients, and opens a combo window for repeat taps.
// @Tags         gifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Room ID"
// @Param        input body SendGiftInput true "Gift send"
// @Success      200  {object}  GiftOutcomeResponse
// @Failure      402  {object}  ErrorResponse "Insufficient balance"
// @Router       /rooms/{id}/gifts/send [post]
func SendGift(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var input SendGiftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := Reconciler.SendGift(c.Request.Context(), roomID, userID.(uint), input.GiftID, input.Quantity, input.RecipientIDs)
	if err != nil {
		c.JSON(giftErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	Combos.Begin(roomID, userID.(uint), input.GiftID, input.RecipientIDs, input.Quantity)

	c.JSON(http.StatusOK, GiftOutcomeResponse{
		EventID:    outcome.EventID,
		TotalCost:  outcome.TotalCost,
		WinAmount:  outcome.WinAmount,
		Multiplier: outcome.Multiplier,
		NewCoins:   outcome.NewCoins,
		ComboCount: 1,
	})
}

// ComboHit godoc
// @Summary      Repeat the last gift
// @Description  Re-sends one unit of the caller's active combo gift to the recipients captured when the combo started.
// @Tags         gifts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      200  {object}  GiftOutcomeResponse
// @Failure      410  {object}  ErrorResponse "Combo window expired"
// @Router       /rooms/{id}/gifts/combo [post]
func ComboHit(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	count, outcome, err := Combos.Hit(c.Request.Context(), roomID, userID.(uint))
	if err != nil {
		if errors.Is(err, economy.ErrComboExpired) {
			c.JSON(http.StatusGone, gin.H{"error": "Combo window expired"})
			return
		}
		c.JSON(giftErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, GiftOutcomeResponse{
		EventID:    outcome.EventID,
		TotalCost:  outcome.TotalCost,
		WinAmount:  outcome.WinAmount,
		Multiplier: outcome.Multiplier,
		NewCoins:   outcome.NewCoins,
		ComboCount: count,
	})
}

func giftErrorStatus(err error) int {
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, economy.ErrNoRecipients):
		return http.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
