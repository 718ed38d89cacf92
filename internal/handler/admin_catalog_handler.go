package handler

import (
	"net/http"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// isRootAdmin reads the flag set by the admin middleware. Moderators reach
// the panel through a per-panel permission but may not change raw asset
// URLs; those edits keep the stored value.
func isRootAdmin(c *gin.Context) bool {
	root, ok := c.Get("isRootAdmin")
	return ok && root.(bool)
}

// region --- Banners ---

// BannerInput defines the structure for banner create/update.
type BannerInput struct {
	Title    string `json:"title" binding:"required"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url"`
}

// CreateBanner godoc
// @Summary      Create a banner
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body BannerInput true "Banner Info"
// @Success      201  {object}  models.Banner
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /admin/banners [post]
func CreateBanner(c *gin.Context) {
	var input BannerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	banner := models.Banner{Title: input.Title, ImageURL: input.ImageURL, LinkURL: input.LinkURL}
	if err := database.DB.Create(&banner).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create banner"})
		return
	}
	c.JSON(http.StatusCreated, banner)
}

// UpdateBanner godoc
// @Summary      Update a banner
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Banner ID"
// @Param        input body BannerInput true "Banner Info"
// @Success      200  {object}  models.Banner
// @Router       /admin/banners/{id} [put]
func UpdateBanner(c *gin.Context) {
	var banner models.Banner
	if err := database.DB.First(&banner, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Banner not found"})
		return
	}

	var input BannerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	banner.Title = input.Title
	banner.LinkURL = input.LinkURL
	if isRootAdmin(c) {
		banner.ImageURL = input.ImageURL
	}
	if err := database.DB.Save(&banner).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update banner"})
		return
	}
	c.JSON(http.StatusOK, banner)
}

// DeleteBanner godoc
// @Summary      Delete a banner
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Banner ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/banners/{id} [delete]
func DeleteBanner(c *gin.Context) {
	if err := database.DB.Delete(&models.Banner{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete banner"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Banner deleted"})
}

// endregion

// region --- Emojis ---

// EmojiItemInput defines the structure for emoji create/update.
type EmojiItemInput struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// CreateEmoji godoc
// @Summary      Create a seat emoji
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body EmojiItemInput true "Emoji Info"
// @Success      201  {object}  models.Emoji
// @Router       /admin/emojis [post]
func CreateEmoji(c *gin.Context) {
	var input EmojiItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	emoji := models.Emoji{URL: input.URL, Label: input.Label}
	if err := database.DB.Create(&emoji).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create emoji"})
		return
	}
	c.JSON(http.StatusCreated, emoji)
}

// UpdateEmoji godoc
// @Summary      Update a seat emoji
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Emoji ID"
// @Param        input body EmojiItemInput true "Emoji Info"
// @Success      200  {object}  models.Emoji
// @Router       /admin/emojis/{id} [put]
func UpdateEmoji(c *gin.Context) {
	var emoji models.Emoji
	if err := database.DB.First(&emoji, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Emoji not found"})
		return
	}

	var input EmojiItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	emoji.Label = input.Label
	if isRootAdmin(c) {
		emoji.URL = input.URL
	}
	if err := database.DB.Save(&emoji).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update emoji"})
		return
	}
	c.JSON(http.StatusOK, emoji)
}

// DeleteEmoji godoc
// @Summary      Delete a seat emoji
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Emoji ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/emojis/{id} [delete]
func DeleteEmoji(c *gin.Context) {
	if err := database.DB.Delete(&models.Emoji{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete emoji"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Emoji deleted"})
}

// endregion

// region --- Backgrounds ---

// BackgroundInput defines the structure for background create/update.
type BackgroundInput struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CreateBackground godoc
// @Summary      Create a room background
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body BackgroundInput true "Background Info"
// @Success      201  {object}  models.Background
// @Router       /admin/backgrounds [post]
func CreateBackground(c *gin.Context) {
	var input BackgroundInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	background := models.Background{Name: input.Name, URL: input.URL}
	if err := database.DB.Create(&background).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create background"})
		return
	}
	c.JSON(http.StatusCreated, background)
}

// UpdateBackground godoc
// @Summary      Update a room background
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Background ID"
// @Param        input body BackgroundInput true "Background Info"
// @Success      200  {object}  models.Background
// @Router       /admin/backgrounds/{id} [put]
func UpdateBackground(c *gin.Context) {
	var background models.Background
	if err := database.DB.First(&background, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Background not found"})
		return
	}

	var input BackgroundInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	background.Name = input.Name
	if isRootAdmin(c) {
		background.URL = input.URL
	}
	if err := database.DB.Save(&background).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update background"})
		return
	}
	c.JSON(http.StatusOK, background)
}

// DeleteBackground godoc
// @Summary      Delete a room background
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Background ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/backgrounds/{id} [delete]
func DeleteBackground(c *gin.Context) {
	if err := database.DB.Delete(&models.Background{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete background"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Background deleted"})
}

// endregion

// region --- Store Items ---

// StoreItemInput defines the structure for store item create/update.
type StoreItemInput struct {
	Name  string  `json:"name" binding:"required"`
	Kind  string  `json:"kind"`
	Price float64 `json:"price" binding:"min=0"`
	URL   string  `json:"url"`
}

// CreateStoreItem godoc
// @Summary      Create a store item
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body StoreItemInput true "Item Info"
// @Success      201  {object}  models.StoreItem
// @Router       /admin/store/items [post]
func CreateStoreItem(c *gin.Context) {
	var input StoreItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.StoreItem{Name: input.Name, Kind: input.Kind, Price: input.Price, URL: input.URL}
	if item.Kind == "" {
		item.Kind = "entry"
	}
	if err := database.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create store item"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateStoreItem godoc
// @Summary      Update a store item
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Item ID"
// @Param        input body StoreItemInput true "Item Info"
// @Success      200  {object}  models.StoreItem
// @Router       /admin/store/items/{id} [put]
func UpdateStoreItem(c *gin.Context) {
	var item models.StoreItem
	if err := database.DB.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store item not found"})
		return
	}

	var input StoreItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item.Name = input.Name
	item.Price = input.Price
	if input.Kind != "" {
		item.Kind = input.Kind
	}
	if isRootAdmin(c) {
		item.URL = input.URL
	}
	if err := database.DB.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store item"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteStoreItem godoc
// @Summary      Delete a store item
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Item ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/store/items/{id} [delete]
func DeleteStoreItem(c *gin.Context) {
	if err := database.DB.Delete(&models.StoreItem{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete store item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Store item deleted"})
}

// endregion

// region --- Special IDs ---

// SpecialIDInput defines the structure for vanity ID create/update.
type SpecialIDInput struct {
	CustomID string  `json:"custom_id" binding:"required,max=32"`
	Price    float64 `json:"price" binding:"min=0"`
	BadgeURL string  `json:"badge_url"`
}

// CreateSpecialID godoc
// @Summary      Create a vanity ID listing
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SpecialIDInput true "Special ID Info"
// @Success      201  {object}  models.SpecialIDItem
// @Failure      409  {object}  ErrorResponse "ID already listed"
// @Router       /admin/store/special-ids [post]
func CreateSpecialID(c *gin.Context) {
	var input SpecialIDInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.SpecialIDItem{CustomID: input.CustomID, Price: input.Price, BadgeURL: input.BadgeURL}
	if err := database.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "ID already listed"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateSpecialID godoc
// @Summary      Update a vanity ID listing
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Listing ID"
// @Param        input body SpecialIDInput true "Special ID Info"
// @Success      200  {object}  models.SpecialIDItem
// @Router       /admin/store/special-ids/{id} [put]
func UpdateSpecialID(c *gin.Context) {
	var item models.SpecialIDItem
	if err := database.DB.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	var input SpecialIDInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item.CustomID = input.CustomID
	item.Price = input.Price
	if isRootAdmin(c) {
		item.BadgeURL = input.BadgeURL
	}
	if err := database.DB.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update listing"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteSpecialID godoc
// @Summary      Delete a vanity ID listing
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Listing ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/store/special-ids/{id} [delete]
func DeleteSpecialID(c *gin.Context) {
	if err := database.DB.Delete(&models.SpecialIDItem{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}

// endregion

// region --- External Games ---

// ExternalGameInput defines the structure for external game create/update.
type ExternalGameInput struct {
	Title         string `json:"title" binding:"required"`
	URL           string `json:"url"`
	Icon          string `json:"icon"`
	AllowedOrigin string `json:"allowed_origin"`
	Enabled       *bool  `json:"enabled"`
}

// CreateExternalGame godoc
// @Summary      Register an external game
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body ExternalGameInput true "Game Info"
// @Success      201  {object}  models.ExternalGame
// @Router       /admin/games [post]
func CreateExternalGame(c *gin.Context) {
	var input ExternalGameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game := models.ExternalGame{
		Title:         input.Title,
		URL:           input.URL,
		Icon:          input.Icon,
		AllowedOrigin: input.AllowedOrigin,
		Enabled:       input.Enabled == nil || *input.Enabled,
	}
	if err := database.DB.Create(&game).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register game"})
		return
	}
	c.JSON(http.StatusCreated, game)
}

// UpdateExternalGame godoc
// @Summary      Update an external game
// @Description  Moderators may toggle and retitle games; only root admins may change the embed URL and allowed origin.
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Game ID"
// @Param        input body ExternalGameInput true "Game Info"
// @Success      200  {object}  models.ExternalGame
// @Router       /admin/games/{id} [put]
func UpdateExternalGame(c *gin.Context) {
	var game models.ExternalGame
	if err := database.DB.First(&game, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	var input ExternalGameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game.Title = input.Title
	if input.Enabled != nil {
		game.Enabled = *input.Enabled
	}
	if isRootAdmin(c) {
		game.URL = input.URL
		game.Icon = input.Icon
		game.AllowedOrigin = input.AllowedOrigin
	}
	if err := database.DB.Save(&game).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update game"})
		return
	}
	c.JSON(http.StatusOK, game)
}

// DeleteExternalGame godoc
// @Summary      Delete an external game
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/games/{id} [delete]
func DeleteExternalGame(c *gin.Context) {
	if err := database.DB.Delete(&models.ExternalGame{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
}

// endregion

// region --- VIP Packages ---

// VIPPackageInput defines the structure for VIP tier create/update.
type VIPPackageInput struct {
	Level        int      `json:"level" binding:"required,min=1"`
	Name         string   `json:"name" binding:"required"`
	Cost         float64  `json:"cost" binding:"min=0"`
	FrameURL     string   `json:"frame_url"`
	Color        string   `json:"color"`
	NameStyle    string   `json:"name_style"`
	DurationDays int      `json:"duration_days"`
	Privileges   []string `json:"privileges"`
}

// CreateVIPPackage godoc
// @Summary      Create a VIP tier
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body VIPPackageInput true "VIP tier Info"
// @Success      201  {object}  VIPPackageResponse
// @Failure      409  {object}  ErrorResponse "Level already exists"
// @Router       /admin/store/vip [post]
func CreateVIPPackage(c *gin.Context) {
	var input VIPPackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg := models.VIPPackage{
		Level:        input.Level,
		Name:         input.Name,
		Cost:         input.Cost,
		FrameURL:     input.FrameURL,
		Color:        input.Color,
		NameStyle:    input.NameStyle,
		DurationDays: input.DurationDays,
		Privileges:   input.Privileges,
	}
	if pkg.DurationDays <= 0 {
		pkg.DurationDays = 30
	}
	if err := database.DB.Create(&pkg).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "VIP level already exists"})
		return
	}
	c.JSON(http.StatusCreated, buildVIPPackageResponse(pkg))
}

// UpdateVIPPackage godoc
// @Summary      Update a VIP tier
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Package ID"
// @Param        input body VIPPackageInput true "VIP tier Info"
// @Success      200  {object}  VIPPackageResponse
// @Router       /admin/store/vip/{id} [put]
func UpdateVIPPackage(c *gin.Context) {
	var pkg models.VIPPackage
	if err := database.DB.First(&pkg, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "VIP package not found"})
		return
	}

	var input VIPPackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg.Level = input.Level
	pkg.Name = input.Name
	pkg.Cost = input.Cost
	pkg.Color = input.Color
	pkg.NameStyle = input.NameStyle
	pkg.Privileges = input.Privileges
	if input.DurationDays > 0 {
		pkg.DurationDays = input.DurationDays
	}
	if isRootAdmin(c) {
		pkg.FrameURL = input.FrameURL
	}
	if err := database.DB.Save(&pkg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update VIP package"})
		return
	}
	c.JSON(http.StatusOK, buildVIPPackageResponse(pkg))
}

// DeleteVIPPackage godoc
// @Summary      Delete a VIP tier
// @Tags         admin-catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Package ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/store/vip/{id} [delete]
func DeleteVIPPackage(c *gin.Context) {
	if err := database.DB.Delete(&models.VIPPackage{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete VIP package"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "VIP package deleted"})
}

// endregion
