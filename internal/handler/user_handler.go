package handler

import (
	"net/http"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/models"
	"livetalk/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Nickname string `json:"nickname" binding:"required" example:"testuser"`
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// ProfileInput defines the editable profile fields.
type ProfileInput struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Cover    string `json:"cover"`
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID          uint    `json:"id" example:"1"`
	Nickname    string  `json:"nickname" example:"testuser"`
	CustomID    *string `json:"custom_id,omitempty"`
	Avatar      string  `json:"avatar"`
	Cover       string  `json:"cover,omitempty"`
	WealthLevel int     `json:"wealth_level"`
	Charm       float64 `json:"charm"`
	VIPLevel    int     `json:"vip_level,omitempty"`
	VIPFrameURL string  `json:"vip_frame_url,omitempty"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID          uint       `json:"id" example:"1"`
	Nickname    string     `json:"nickname" example:"testuser"`
	Email       string     `json:"email" example:"test@example.com"`
	CustomID    *string    `json:"custom_id,omitempty"`
	Avatar      string     `json:"avatar"`
	Cover       string     `json:"cover,omitempty"`
	Role        string     `json:"role"`
	Coins       float64    `json:"coins"`
	Wealth      float64    `json:"wealth"`
	Charm       float64    `json:"charm"`
	Diamonds    float64    `json:"diamonds"`
	WealthLevel int        `json:"wealth_level"`
	VIPLevel    int        `json:"vip_level,omitempty"`
	VIPExpires  *time.Time `json:"vip_expires,omitempty"`
}

func buildPublicUserResponse(user models.User) PublicUserResponse {
	return PublicUserResponse{
		ID:          user.ID,
		Nickname:    user.Nickname,
		CustomID:    user.CustomID,
		Avatar:      user.Avatar,
		Cover:       user.Cover,
		WealthLevel: models.Level(user.Wealth),
		Charm:       user.Charm,
		VIPLevel:    user.VIPLevel,
		VIPFrameURL: user.VIPFrameURL,
	}
}

func buildPrivateUserResponse(user models.User) PrivateUserResponse {
	return PrivateUserResponse{
		ID:          user.ID,
		Nickname:    user.Nickname,
		Email:       user.Email,
		CustomID:    user.CustomID,
		Avatar:      user.Avatar,
		Cover:       user.Cover,
		Role:        string(user.Role),
		Coins:       user.Coins,
		Wealth:      user.Wealth,
		Charm:       user.Charm,
		Diamonds:    user.Diamonds,
		WealthLevel: models.Level(user.Wealth),
		VIPLevel:    user.VIPLevel,
		VIPExpires:  user.VIPExpiresAt,
	}
}

// endregion

// region --- Auth Handlers ---

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existingUser models.User
	if err := database.DB.Where("nickname = ? OR email = ?", input.Nickname, input.Email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Nickname or email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Nickname:     input.Nickname,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
		LastIP:       c.ClientIP(),
	}
	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates a user with nickname/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  map[string]string "{"token": "..."}"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      403  {object}  ErrorResponse "Account banned"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /auth/login [post]
func LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("nickname = ? OR email = ?", input.Login, input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.Banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is banned"})
		return
	}

	database.DB.Model(&user).Update("last_ip", c.ClientIP())

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// endregion

// region --- Profile Handlers ---

// GetMe godoc
// @Summary      Get own profile
// @Description  Gets the full profile of the authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func GetMe(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, buildPrivateUserResponse(user))
}

// UpdateMe godoc
// @Summary      Update own profile
// @Description  Updates the authenticated user's display name and media.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body ProfileInput true "Profile fields"
// @Success      200  {object}  PrivateUserResponse
// @Failure      409  {object}  ErrorResponse "Nickname taken"
// @Router       /users/me [put]
func UpdateMe(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Nickname != "" && input.Nickname != user.Nickname {
		var existing models.User
		if err := database.DB.Where("nickname = ? AND id <> ?", input.Nickname, user.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Nickname already exists"})
			return
		}
		user.Nickname = input.Nickname
	}
	if input.Avatar != "" {
		user.Avatar = input.Avatar
	}
	if input.Cover != "" {
		user.Cover = input.Cover
	}

	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, buildPrivateUserResponse(user))
}

// GetUserByID godoc
// @Summary      Get a user's public profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func GetUserByID(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, buildPublicUserResponse(user))
}

// endregion
