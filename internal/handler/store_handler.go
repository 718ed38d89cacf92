package handler

import (
	"errors"
	"net/http"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// VIPPackageResponse defines the structure for a purchasable VIP tier.
type VIPPackageResponse struct {
	ID           uint     `json:"id"`
	Level        int      `json:"level"`
	Name         string   `json:"name"`
	Cost         float64  `json:"cost"`
	FrameURL     string   `json:"frame_url"`
	Color        string   `json:"color,omitempty"`
	NameStyle    string   `json:"name_style,omitempty"`
	DurationDays int      `json:"duration_days"`
	Privileges   []string `json:"privileges,omitempty"`
}

// PurchaseResponse reports the caller's balance after a purchase.
type PurchaseResponse struct {
	NewCoins float64 `json:"new_coins"`
}

func buildVIPPackageResponse(pkg models.VIPPackage) VIPPackageResponse {
	return VIPPackageResponse{
		ID:           pkg.ID,
		Level:        pkg.Level,
		Name:         pkg.Name,
		Cost:         pkg.Cost,
		FrameURL:     pkg.FrameURL,
		Color:        pkg.Color,
		NameStyle:    pkg.NameStyle,
		DurationDays: pkg.DurationDays,
		Privileges:   pkg.Privileges,
	}
}

// endregion

// region --- Catalog Listings ---

// ListBanners godoc
// @Summary      List home banners
// @Tags         store
// @Produce      json
// @Success      200  {array}  models.Banner
// @Router       /banners [get]
func ListBanners(c *gin.Context) {
	var banners []models.Banner
	if err := database.DB.Find(&banners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch banners"})
		return
	}
	c.JSON(http.StatusOK, banners)
}

// ListEmojis godoc
// @Summary      List seat emojis
// @Tags         store
// @Produce      json
// @Success      200  {array}  models.Emoji
// @Router       /emojis [get]
func ListEmojis(c *gin.Context) {
	var emojis []models.Emoji
	if err := database.DB.Find(&emojis).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch emojis"})
		return
	}
	c.JSON(http.StatusOK, emojis)
}

// ListBackgrounds godoc
// @Summary      List room backgrounds
// @Tags         store
// @Produce      json
// @Success      200  {array}  models.Background
// @Router       /backgrounds [get]
func ListBackgrounds(c *gin.Context) {
	var backgrounds []models.Background
	if err := database.DB.Find(&backgrounds).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch backgrounds"})
		return
	}
	c.JSON(http.StatusOK, backgrounds)
}

// ListStoreItems godoc
// @Summary      List store items
// @Tags         store
// @Produce      json
// @Param        kind query string false "Item kind"
// @Success      200  {array}  models.StoreItem
// @Router       /store/items [get]
func ListStoreItems(c *gin.Context) {
	query := database.DB.Order("price ASC")
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	var items []models.StoreItem
	if err := query.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch store items"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListSpecialIDs godoc
// @Summary      List purchasable vanity IDs
// @Tags         store
// @Produce      json
// @Success      200  {array}  models.SpecialIDItem
// @Router       /store/special-ids [get]
func ListSpecialIDs(c *gin.Context) {
	var items []models.SpecialIDItem
	if err := database.DB.Order("price ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch special IDs"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListVIPPackages godoc
// @Summary      List VIP packages
// @Tags         store
// @Produce      json
// @Success      200  {array}  VIPPackageResponse
// @Router       /store/vip [get]
func ListVIPPackages(c *gin.Context) {
	var packages []models.VIPPackage
	if err := database.DB.Order("level ASC").Find(&packages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch VIP packages"})
		return
	}
	responses := make([]VIPPackageResponse, len(packages))
	for i, pkg := range packages {
		responses[i] = buildVIPPackageResponse(pkg)
	}
	c.JSON(http.StatusOK, responses)
}

// endregion

// region --- Purchases ---

// debit charges the user inside tx, also counting the spend toward wealth.
func debit(tx *gorm.DB, user *models.User, cost float64) error {
	if user.Coins < cost {
		return errInsufficientCoins
	}
	return tx.Model(user).Updates(map[string]interface{}{
		"coins":  gorm.Expr("coins - ?", cost),
		"wealth": gorm.Expr("wealth + ?", cost),
	}).Error
}

func purchaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInsufficientCoins):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient balance"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Purchase failed"})
	}
}

// PurchaseVIP godoc
// @Summary      Buy a VIP package
// @Description  Charges the caller and activates the tier's frame and duration.
// @Tags         store
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Package ID"
// @Success      200  {object}  PurchaseResponse
// @Failure      402  {object}  ErrorResponse "Insufficient balance"
// @Router       /store/vip/{id}/purchase [post]
func PurchaseVIP(c *gin.Context) {
	userID, _ := c.Get("userID")

	var newCoins float64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var pkg models.VIPPackage
		if err := tx.First(&pkg, c.Param("id")).Error; err != nil {
			return err
		}
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if err := debit(tx, &user, pkg.Cost); err != nil {
			return err
		}

		expires := time.Now().AddDate(0, 0, pkg.DurationDays)
		if user.VIPLevel == pkg.Level && user.VIPExpiresAt != nil && user.VIPExpiresAt.After(time.Now()) {
			// Re-buying the same tier extends the current period.
			expires = user.VIPExpiresAt.AddDate(0, 0, pkg.DurationDays)
		}
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"vip_level":      pkg.Level,
			"vip_expires_at": expires,
			"vip_frame_url":  pkg.FrameURL,
		}).Error; err != nil {
			return err
		}
		newCoins = user.Coins - pkg.Cost
		return nil
	})
	if err != nil {
		purchaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, PurchaseResponse{NewCoins: newCoins})
}

// PurchaseSpecialID godoc
// @Summary      Buy a vanity ID
// @Description  Charges the caller and assigns the vanity ID to their profile. Sold IDs come off the shelf.
// @Tags         store
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Special ID item"
// @Success      200  {object}  PurchaseResponse
// @Failure      402  {object}  ErrorResponse "Insufficient balance"
// @Failure      409  {object}  ErrorResponse "Already sold"
// @Router       /store/special-ids/{id}/purchase [post]
func PurchaseSpecialID(c *gin.Context) {
	userID, _ := c.Get("userID")

	var newCoins float64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var item models.SpecialIDItem
		if err := tx.First(&item, c.Param("id")).Error; err != nil {
			return err
		}

		var taken int64
		tx.Model(&models.User{}).Where("custom_id = ?", item.CustomID).Count(&taken)
		if taken > 0 {
			return errAlreadySold
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if err := debit(tx, &user, item.Price); err != nil {
			return err
		}
		if err := tx.Model(&user).Update("custom_id", item.CustomID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		newCoins = user.Coins - item.Price
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadySold) {
			c.JSON(http.StatusConflict, gin.H{"error": "ID already sold"})
			return
		}
		purchaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, PurchaseResponse{NewCoins: newCoins})
}

// PurchaseStoreItem godoc
// @Summary      Buy a cosmetic
// @Description  Charges the caller for a store cosmetic.
// @Tags         store
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Store item ID"
// @Success      200  {object}  PurchaseResponse
// @Failure      402  {object}  ErrorResponse "Insufficient balance"
// @Router       /store/items/{id}/purchase [post]
func PurchaseStoreItem(c *gin.Context) {
	userID, _ := c.Get("userID")

	var newCoins float64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var item models.StoreItem
		if err := tx.First(&item, c.Param("id")).Error; err != nil {
			return err
		}
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if err := debit(tx, &user, item.Price); err != nil {
			return err
		}
		newCoins = user.Coins - item.Price
		return nil
	})
	if err != nil {
		purchaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, PurchaseResponse{NewCoins: newCoins})
}

// endregion

var errAlreadySold = errors.New("special id already sold")
