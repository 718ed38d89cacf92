package handler

import (
	"net/http"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// GiftInput defines the structure for gift create/update.
type GiftInput struct {
	Name          string  `json:"name" binding:"required"`
	Icon          string  `json:"icon"`
	CatalogIcon   string  `json:"catalog_icon"`
	Cost          float64 `json:"cost" binding:"min=0"`
	Category      string  `json:"category" binding:"omitempty,oneof=popular exclusive lucky trend"`
	AnimationType string  `json:"animation_type"`
	Duration      int     `json:"duration"`
	DisplaySize   string  `json:"display_size"`
}

// GameSettingsInput defines the structure for updating the economy tunables.
type GameSettingsInput struct {
	LuckyGiftWinRate *float64                 `json:"lucky_gift_win_rate" binding:"omitempty,min=0,max=100"`
	LuckyMultipliers []models.LuckyMultiplier `json:"lucky_multipliers"`
	EmojiDuration    *int                     `json:"emoji_duration" binding:"omitempty,min=1"`
	CategoryLabels   map[string]string        `json:"category_labels"`
}

// GameSettingsResponse defines the structure for the economy tunables.
type GameSettingsResponse struct {
	LuckyGiftWinRate float64                  `json:"lucky_gift_win_rate"`
	LuckyMultipliers []models.LuckyMultiplier `json:"lucky_multipliers"`
	EmojiDuration    int                      `json:"emoji_duration"`
	CategoryLabels   map[string]string        `json:"category_labels"`
}

// endregion

// CreateGift godoc
// @Summary      Create a gift
// @Description  Adds a gift to the catalog.
// @Tags         admin-gifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GiftInput true "Gift Info"
// @Success      201  {object}  GiftResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /admin/gifts [post]
func CreateGift(c *gin.Context) {
	var input GiftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gift := models.Gift{
		Name:          input.Name,
		Icon:          input.Icon,
		CatalogIcon:   input.CatalogIcon,
		Cost:          input.Cost,
		Category:      models.GiftCategory(input.Category),
		AnimationType: input.AnimationType,
		Duration:      input.Duration,
		DisplaySize:   input.DisplaySize,
	}
	if gift.Category == "" {
		gift.Category = models.GiftCategoryPopular
	}
	if err := database.DB.Create(&gift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create gift"})
		return
	}
	c.JSON(http.StatusCreated, buildGiftResponse(gift))
}

// UpdateGift godoc
// @Summary      Update a gift
// @Description  Edits a catalog gift. Moderators keep the stored asset URLs.
// @Tags         admin-gifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Gift ID"
// @Param        input body GiftInput true "Gift Info"
// @Success      200  {object}  GiftResponse
// @Router       /admin/gifts/{id} [put]
func UpdateGift(c *gin.Context) {
	var gift models.Gift
	if err := database.DB.First(&gift, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gift not found"})
		return
	}

	var input GiftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gift.Name = input.Name
	gift.Cost = input.Cost
	if input.Category != "" {
		gift.Category = models.GiftCategory(input.Category)
	}
	if input.AnimationType != "" {
		gift.AnimationType = input.AnimationType
	}
	if input.Duration > 0 {
		gift.Duration = input.Duration
	}
	if input.DisplaySize != "" {
		gift.DisplaySize = input.DisplaySize
	}
	if isRootAdmin(c) {
		gift.Icon = input.Icon
		gift.CatalogIcon = input.CatalogIcon
	}
	if err := database.DB.Save(&gift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update gift"})
		return
	}
	c.JSON(http.StatusOK, buildGiftResponse(gift))
}

// DeleteGift godoc
// @Summary      Delete a gift
// @Tags         admin-gifts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Gift ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/gifts/{id} [delete]
func DeleteGift(c *gin.Context) {
	if err := database.DB.Delete(&models.Gift{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete gift"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gift deleted"})
}

// GetGameSettings godoc
// @Summary      Get the economy tunables
// @Tags         admin-gifts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  GameSettingsResponse
// @Router       /admin/game-settings [get]
func GetGameSettings(c *gin.Context) {
	var settings models.GameSettings
	if err := database.DB.First(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, GameSettingsResponse{
		LuckyGiftWinRate: settings.LuckyGiftWinRate,
		LuckyMultipliers: settings.LuckyMultipliers,
		EmojiDuration:    settings.EmojiDuration,
		CategoryLabels:   settings.CategoryLabels,
	})
}

// UpdateGameSettings godoc
// @Summary      Update the economy tunables
// @Description  Edits the lucky win rate, the multiplier table, and display settings. Fields left out keep their value.
// @Tags         admin-gifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameSettingsInput true "Settings"
// @Success      200  {object}  GameSettingsResponse
// @Router       /admin/game-settings [put]
func UpdateGameSettings(c *gin.Context) {
	var settings models.GameSettings
	if err := database.DB.First(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}

	var input GameSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.LuckyGiftWinRate != nil {
		settings.LuckyGiftWinRate = *input.LuckyGiftWinRate
	}
	if input.LuckyMultipliers != nil {
		for _, tier := range input.LuckyMultipliers {
			if tier.Value <= 0 || tier.Chance <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Multiplier values and weights must be positive"})
				return
			}
		}
		settings.LuckyMultipliers = input.LuckyMultipliers
	}
	if input.EmojiDuration != nil {
		settings.EmojiDuration = *input.EmojiDuration
	}
	if input.CategoryLabels != nil {
		settings.CategoryLabels = input.CategoryLabels
	}

	if err := database.DB.Save(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, GameSettingsResponse{
		LuckyGiftWinRate: settings.LuckyGiftWinRate,
		LuckyMultipliers: settings.LuckyMultipliers,
		EmojiDuration:    settings.EmojiDuration,
		CategoryLabels:   settings.CategoryLabels,
	})
}
