package handler

import (
	"net/http"
	"strconv"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// historyLimit caps the number of messages returned per fetch.
const historyLimit = 50

// region --- DTOs ---

// SendMessageInput defines the structure for sending a chat message.
type SendMessageInput struct {
	Content string `json:"content" binding:"required,max=500"`
}

// MessageResponse defines the structure for chat messages in API responses.
type MessageResponse struct {
	ID            uint      `json:"id"`
	RoomID        uint      `json:"room_id"`
	UserID        *uint     `json:"user_id,omitempty"`
	Type          string    `json:"type"`
	Content       string    `json:"content"`
	IsLuckyWin    bool      `json:"is_lucky_win,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	WealthLevel   int       `json:"wealth_level,omitempty"`
	RechargeLevel int       `json:"recharge_level,omitempty"`
	Bubble        string    `json:"bubble,omitempty"`
	VIP           bool      `json:"vip,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func buildMessageResponse(msg models.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:            msg.ID,
		RoomID:        msg.RoomID,
		UserID:        msg.UserID,
		Type:          string(msg.Type),
		Content:       msg.Content,
		IsLuckyWin:    msg.IsLuckyWin,
		UserName:      msg.UserName,
		WealthLevel:   msg.WealthLevel,
		RechargeLevel: msg.RechargeLevel,
		Bubble:        msg.Bubble,
		VIP:           msg.VIP,
		CreatedAt:     msg.CreatedAt,
	}
}

// endregion

// ListMessages godoc
// @Summary      Room chat history
// @Description  Gets the most recent messages in chronological order, optionally only those after a given message ID.
// @Tags         messages
// @Produce      json
// @Param        id    path  int true  "Room ID"
// @Param        since query int false "Return messages with an ID greater than this"
// @Success      200  {array}  MessageResponse
// @Router       /rooms/{id}/messages [get]
func ListMessages(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	query := database.DB.Where("room_id = ?", roomID)
	if sinceStr := c.Query("since"); sinceStr != "" {
		if since, err := strconv.ParseUint(sinceStr, 10, 64); err == nil {
			query = query.Where("id > ?", since)
		}
	}

	var messages []models.ChatMessage
	if err := query.Order("id DESC").Limit(historyLimit).Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	// Query returns newest first; clients want chronological order.
	responses := make([]MessageResponse, len(messages))
	for i, msg := range messages {
		responses[len(messages)-1-i] = buildMessageResponse(msg)
	}
	c.JSON(http.StatusOK, responses)
}

// SendMessage godoc
// @Summary      Send a chat message
// @Description  Posts a text message to the room and broadcasts it to subscribers.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Room ID"
// @Param        input body SendMessageInput true "Message"
// @Success      201  {object}  MessageResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /rooms/{id}/messages [post]
func SendMessage(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	uid := user.ID
	message := models.ChatMessage{
		RoomID:        roomID,
		UserID:        &uid,
		Type:          models.MessageTypeText,
		Content:       input.Content,
		UserName:      user.Nickname,
		WealthLevel:   models.Level(user.Wealth),
		RechargeLevel: models.Level(user.Charm),
		VIP:           user.IsVIP(time.Now()),
	}
	if err := database.DB.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	response := buildMessageResponse(message)
	Hub.Broadcast(roomID, hub.Event{Type: hub.EventMessage, Payload: response})
	c.JSON(http.StatusCreated, response)
}
