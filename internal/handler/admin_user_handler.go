package handler

import (
	"net/http"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// GrantCoinsInput defines the structure for crediting a user.
type GrantCoinsInput struct {
	Amount float64 `json:"amount" binding:"required"`
}

// BanInput toggles a user's ban flag.
type BanInput struct {
	Banned bool `json:"banned"`
}

// RoleInput assigns a role and its panel permissions.
type RoleInput struct {
	Role        string   `json:"role" binding:"required,oneof=user moderator admin"`
	Permissions []string `json:"permissions"`
}

// GrantVIPInput grants a VIP tier out-of-band.
type GrantVIPInput struct {
	Level        int `json:"level" binding:"required,min=1"`
	DurationDays int `json:"duration_days" binding:"required,min=1"`
}

// AdminUserResponse defines the structure for user rows in the admin panel.
type AdminUserResponse struct {
	ID          uint     `json:"id"`
	Nickname    string   `json:"nickname"`
	Email       string   `json:"email"`
	CustomID    *string  `json:"custom_id,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	Coins       float64  `json:"coins"`
	Wealth      float64  `json:"wealth"`
	Charm       float64  `json:"charm"`
	Diamonds    float64  `json:"diamonds"`
	VIPLevel    int      `json:"vip_level"`
	Banned      bool     `json:"banned"`
	LastIP      string   `json:"last_ip,omitempty"`
}

func buildAdminUserResponse(user models.User) AdminUserResponse {
	return AdminUserResponse{
		ID:          user.ID,
		Nickname:    user.Nickname,
		Email:       user.Email,
		CustomID:    user.CustomID,
		Role:        string(user.Role),
		Permissions: user.Permissions,
		Coins:       user.Coins,
		Wealth:      user.Wealth,
		Charm:       user.Charm,
		Diamonds:    user.Diamonds,
		VIPLevel:    user.VIPLevel,
		Banned:      user.Banned,
		LastIP:      user.LastIP,
	}
}

// endregion

// ListUsers godoc
// @Summary      List users
// @Description  Gets a paginated user list, optionally filtered by nickname, email or vanity ID.
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query int    false "Page number"   default(1)
// @Param        limit  query int    false "Items per page" default(20)
// @Param        search query string false "Nickname, email or vanity ID fragment"
// @Success      200  {object}  PaginatedResponse[AdminUserResponse]
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /admin/users [get]
func ListUsers(c *gin.Context) {
	page, limit := pageParams(c.DefaultQuery("page", "1"), c.DefaultQuery("limit", "20"))

	query := database.DB.Order("id ASC")
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("nickname LIKE ? OR email LIKE ? OR custom_id LIKE ?", like, like, like)
	}

	paginated, err := Paginate[models.User](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	responses := make([]AdminUserResponse, len(paginated.Data))
	for i, user := range paginated.Data {
		responses[i] = buildAdminUserResponse(user)
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(responses, paginated.Meta.TotalItems, page, limit))
}

// GrantCoins godoc
// @Summary      Credit or debit a user
// @Description  Adjusts the user's coin balance by the given amount. A grant never pushes the balance below zero.
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "User ID"
// @Param        input body GrantCoinsInput true "Amount"
// @Success      200  {object}  AdminUserResponse
// @Router       /admin/users/{id}/coins [post]
func GrantCoins(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input GrantCoinsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if user.Coins+input.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Balance cannot go negative"})
		return
	}

	if err := database.DB.Model(&user).Update("coins", gorm.Expr("coins + ?", input.Amount)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust balance"})
		return
	}
	database.DB.First(&user, user.ID)
	c.JSON(http.StatusOK, buildAdminUserResponse(user))
}

// SetBan godoc
// @Summary      Ban or unban a user
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "User ID"
// @Param        input body BanInput true "Ban state"
// @Success      200  {object}  AdminUserResponse
// @Router       /admin/users/{id}/ban [post]
func SetBan(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input BanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if user.Role == models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot ban an admin"})
		return
	}

	if err := database.DB.Model(&user).Update("banned", input.Banned).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ban state"})
		return
	}
	user.Banned = input.Banned
	c.JSON(http.StatusOK, buildAdminUserResponse(user))
}

// SetRole godoc
// @Summary      Assign a role and panel permissions
// @Description  Root admin only. Promotes or demotes a user and sets the admin panels a moderator may operate.
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "User ID"
// @Param        input body RoleInput true "Role assignment"
// @Success      200  {object}  AdminUserResponse
// @Failure      403  {object}  ErrorResponse "Root admin access required"
// @Router       /admin/users/{id}/role [post]
func SetRole(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user.Role = models.Role(input.Role)
	user.Permissions = nil
	if user.Role == models.RoleModerator {
		user.Permissions = input.Permissions
	}
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}
	c.JSON(http.StatusOK, buildAdminUserResponse(user))
}

// GrantVIP godoc
// @Summary      Grant VIP out-of-band
// @Description  Activates a VIP tier on the user without charging them.
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "User ID"
// @Param        input body GrantVIPInput true "VIP grant"
// @Success      200  {object}  AdminUserResponse
// @Router       /admin/users/{id}/vip [post]
func GrantVIP(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input GrantVIPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pkg models.VIPPackage
	if err := database.DB.Where("level = ?", input.Level).First(&pkg).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No VIP package at that level"})
		return
	}

	expires := time.Now().AddDate(0, 0, input.DurationDays)
	if err := database.DB.Model(&user).Updates(map[string]interface{}{
		"vip_level":      pkg.Level,
		"vip_expires_at": expires,
		"vip_frame_url":  pkg.FrameURL,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant VIP"})
		return
	}
	database.DB.First(&user, user.ID)
	c.JSON(http.StatusOK, buildAdminUserResponse(user))
}

// ResetUserCharm godoc
// @Summary      Reset a user's charm counter
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200  {object}  AdminUserResponse
// @Router       /admin/users/{id}/reset-charm [post]
func ResetUserCharm(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := database.DB.Model(&user).Update("charm", 0).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset charm"})
		return
	}
	user.Charm = 0
	c.JSON(http.StatusOK, buildAdminUserResponse(user))
}
