package handler

import (
	"errors"
	"net/http"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/models"
	"livetalk/backend/internal/seats"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// ClaimSeatInput defines the structure for taking a seat.
type ClaimSeatInput struct {
	SeatIndex int  `json:"seat_index" binding:"min=0"`
	Muted     bool `json:"muted"`
}

// MuteInput toggles the caller's microphone state.
type MuteInput struct {
	Muted bool `json:"muted"`
}

// EmojiInput sets a transient emoji over the caller's seat.
type EmojiInput struct {
	Emoji string `json:"emoji" binding:"required"`
}

// SeatResponse defines the structure for one seat in API responses.
type SeatResponse struct {
	SeatIndex   int     `json:"seat_index"`
	UserID      uint    `json:"user_id"`
	Nickname    string  `json:"nickname"`
	CustomID    string  `json:"custom_id,omitempty"`
	Avatar      string  `json:"avatar"`
	Frame       string  `json:"frame,omitempty"`
	Muted       bool    `json:"muted"`
	Charm       float64 `json:"charm"`
	ActiveEmoji string  `json:"active_emoji,omitempty"`
}

func buildSeatResponses(list []models.Seat) []SeatResponse {
	responses := make([]SeatResponse, len(list))
	for i, seat := range list {
		responses[i] = SeatResponse{
			SeatIndex:   seat.SeatIndex,
			UserID:      seat.UserID,
			Nickname:    seat.Nickname,
			CustomID:    seat.CustomID,
			Avatar:      seat.Avatar,
			Frame:       seat.Frame,
			Muted:       seat.Muted,
			Charm:       seat.Charm,
			ActiveEmoji: seat.ActiveEmoji,
		}
	}
	return responses
}

// endregion

func seatErrorStatus(err error) int {
	switch {
	case errors.Is(err, seats.ErrSeatTaken):
		return http.StatusConflict
	case errors.Is(err, seats.ErrBadSeat):
		return http.StatusBadRequest
	case errors.Is(err, seats.ErrNotSeated):
		return http.StatusNotFound
	case errors.Is(err, seats.ErrNotHost):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ClaimSeat godoc
// @Summary      Take a seat
// @Description  Puts the authenticated user on a mic seat and starts publishing audio.
// @Tags         seats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Room ID"
// @Param        input body ClaimSeatInput true "Seat choice"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  ErrorResponse "Seat is taken"
// @Router       /rooms/{id}/seats/claim [post]
func ClaimSeat(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var input ClaimSeatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := Seats.Claim(roomID, &user, input.SeatIndex, input.Muted); err != nil {
		c.JSON(seatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	if err := Audio.OnSeatClaimed(c.Request.Context(), roomID, user.ID); err != nil {
		Logger.Warn("audio publish failed", "room", roomID, "user", user.ID, "err", err)
	}
	if input.Muted {
		_ = Audio.SetMute(c.Request.Context(), roomID, user.ID, true)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Seat claimed"})
}

// LeaveSeat godoc
// @Summary      Leave a seat
// @Description  Vacates the caller's seat and stops publishing audio.
// @Tags         seats
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  ErrorResponse "Not seated"
// @Router       /rooms/{id}/seats/leave [post]
func LeaveSeat(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	if err := Seats.Leave(roomID, userID.(uint)); err != nil {
		c.JSON(seatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if err := Audio.OnSeatLeft(c.Request.Context(), roomID, userID.(uint)); err != nil {
		Logger.Warn("audio unpublish failed", "room", roomID, "user", userID, "err", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Seat left"})
}

// SetSeatMute godoc
// @Summary      Toggle mute
// @Description  Mutes or unmutes the caller's microphone on their seat.
// @Tags         seats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Room ID"
// @Param        input body MuteInput true "Mute state"
// @Success      200  {object}  map[string]string
// @Router       /rooms/{id}/seats/mute [post]
func SetSeatMute(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var input MuteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := Seats.SetMuted(roomID, userID.(uint), input.Muted); err != nil {
		c.JSON(seatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if err := Audio.SetMute(c.Request.Context(), roomID, userID.(uint), input.Muted); err != nil {
		Logger.Warn("audio mute failed", "room", roomID, "user", userID, "err", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// SetSeatEmoji godoc
// @Summary      Show a seat emoji
// @Description  Shows a transient emoji over the caller's seat. It clears automatically.
// @Tags         seats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Room ID"
// @Param        input body EmojiInput true "Emoji"
// @Success      200  {object}  map[string]string
// @Router       /rooms/{id}/seats/emoji [post]
func SetSeatEmoji(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var input EmojiInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var settings models.GameSettings
	database.DB.First(&settings)
	ttl := time.Duration(settings.EmojiDuration) * time.Second
	if ttl <= 0 {
		ttl = 4 * time.Second
	}

	if err := Seats.SetEmoji(roomID, userID.(uint), input.Emoji, ttl); err != nil {
		c.JSON(seatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// ResetSeatCharm godoc
// @Summary      Reset seat charm counters
// @Description  Zeroes the charm counter on every seat. Host only.
// @Tags         seats
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  ErrorResponse "Not the host"
// @Router       /rooms/{id}/seats/reset-charm [post]
func ResetSeatCharm(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	if err := Seats.ResetCharm(roomID, userID.(uint)); err != nil {
		c.JSON(seatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Charm reset"})
}

// CycleMicLayout godoc
// @Summary      Cycle the mic layout
// @Description  Advances the room through the supported seat counts. Host only. Users on evicted seats are removed.
// @Tags         seats
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      200  {object}  map[string]int "{"mic_count": 10}"
// @Failure      403  {object}  ErrorResponse "Not the host"
// @Router       /rooms/{id}/seats/mic-layout [post]
func CycleMicLayout(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	count, err := Seats.CycleMicLayout(roomID, userID.(uint))
	if err != nil {
		c.JSON(seatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mic_count": count})
}
