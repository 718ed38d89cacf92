package handler

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/models"
	"livetalk/backend/internal/presence"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// CreateRoomInput defines the structure for creating a room.
type CreateRoomInput struct {
	Title      string `json:"title" binding:"required" example:"Chill voices"`
	Background string `json:"background"`
	Locked     bool   `json:"locked"`
	PIN        string `json:"pin"`
}

// UpdateRoomInput defines the editable room settings.
type UpdateRoomInput struct {
	Title      *string `json:"title"`
	Background *string `json:"background"`
	Locked     *bool   `json:"locked"`
	PIN        *string `json:"pin"`
}

// JoinRoomInput carries the PIN for locked rooms.
type JoinRoomInput struct {
	PIN string `json:"pin"`
}

// RoomResponse defines the structure for room data in API responses.
type RoomResponse struct {
	ID         uint               `json:"id" example:"1"`
	Title      string             `json:"title" example:"Chill voices"`
	Background string             `json:"background,omitempty"`
	Locked     bool               `json:"locked"`
	MicCount   int                `json:"mic_count" example:"8"`
	Listeners  int                `json:"listeners"`
	Host       PublicUserResponse `json:"host"`
}

// RoomDetailResponse adds the live seat snapshot to a room.
type RoomDetailResponse struct {
	RoomResponse
	Seats []SeatResponse `json:"seats"`
	// Joined is true when the (optionally authenticated) caller is a member.
	Joined bool `json:"joined"`
}

// ContributorResponse defines one row of a room's contribution ranking.
type ContributorResponse struct {
	UserID uint    `json:"user_id"`
	Name   string  `json:"name"`
	Avatar string  `json:"avatar"`
	Amount float64 `json:"amount"`
}

// ListenerResponse describes one present listener.
type ListenerResponse struct {
	UserID      uint   `json:"user_id"`
	CustomID    string `json:"custom_id,omitempty"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	WealthLevel int    `json:"wealth_level"`
}

func buildRoomResponse(room models.Room) RoomResponse {
	return RoomResponse{
		ID:         room.ID,
		Title:      room.Title,
		Background: room.Background,
		Locked:     room.Locked,
		MicCount:   room.MicCount,
		Listeners:  room.Listeners,
		Host:       buildPublicUserResponse(room.Host),
	}
}

// endregion

func roomIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return 0, false
	}
	return uint(id), true
}

// CreateRoom godoc
// @Summary      Create a room
// @Description  Creates a new voice room hosted by the authenticated user.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateRoomInput true "Room Info"
// @Success      201  {object}  RoomResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /rooms [post]
func CreateRoom(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input CreateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Locked && len(input.PIN) != 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Locked rooms require a 4-digit PIN"})
		return
	}

	room := models.Room{
		HostID:     userID.(uint),
		Title:      input.Title,
		Background: input.Background,
		Locked:     input.Locked,
		PIN:        input.PIN,
		MicCount:   models.MicCounts[0],
	}
	if err := database.DB.Create(&room).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	database.DB.Preload("Host").First(&room, room.ID)
	c.JSON(http.StatusCreated, buildRoomResponse(room))
}

// ListRooms godoc
// @Summary      List rooms
// @Description  Gets a paginated list of rooms ordered by listener count.
// @Tags         rooms
// @Produce      json
// @Param        page   query int false "Page number"  default(1)
// @Param        limit  query int false "Items per page" default(20)
// @Success      200  {object}  PaginatedResponse[RoomResponse]
// @Router       /rooms [get]
func ListRooms(c *gin.Context) {
	page, limit := pageParams(c.DefaultQuery("page", "1"), c.DefaultQuery("limit", "20"))

	query := database.DB.Preload("Host").Order("listeners DESC, created_at DESC")
	paginated, err := Paginate[models.Room](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
		return
	}

	responses := make([]RoomResponse, len(paginated.Data))
	for i, room := range paginated.Data {
		responses[i] = buildRoomResponse(room)
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(responses, paginated.Meta.TotalItems, page, limit))
}

// GetRoom godoc
// @Summary      Get a room
// @Description  Gets a single room with its live seat snapshot.
// @Tags         rooms
// @Produce      json
// @Param        id path int true "Room ID"
// @Success      200  {object}  RoomDetailResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /rooms/{id} [get]
func GetRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var room models.Room
	if err := database.DB.Preload("Host").First(&room, roomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	detail := RoomDetailResponse{RoomResponse: buildRoomResponse(room)}
	if snapshot, err := Seats.Snapshot(roomID); err == nil {
		detail.Seats = buildSeatResponses(snapshot.Seats)
		detail.MicCount = snapshot.MicCount
	}
	if userID, exists := c.Get("userID"); exists {
		var viewer models.User
		if err := database.DB.First(&viewer, userID).Error; err == nil {
			detail.Joined = viewer.CurrentRoomID != nil && *viewer.CurrentRoomID == roomID
		}
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateRoom godoc
// @Summary      Update a room
// @Description  Updates room settings. Only the host can do this.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Room ID"
// @Param        input body UpdateRoomInput true "Room settings"
// @Success      200  {object}  RoomResponse
// @Failure      403  {object}  ErrorResponse "Not the host"
// @Router       /rooms/{id} [put]
func UpdateRoom(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var room models.Room
	if err := database.DB.First(&room, roomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	if room.HostID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the host can update the room"})
		return
	}

	var input UpdateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Title != nil {
		room.Title = *input.Title
	}
	if input.Background != nil {
		room.Background = *input.Background
	}
	if input.PIN != nil {
		room.PIN = *input.PIN
	}
	if input.Locked != nil {
		room.Locked = *input.Locked
	}
	if room.Locked && len(room.PIN) != 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Locked rooms require a 4-digit PIN"})
		return
	}

	if err := database.DB.Save(&room).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update room"})
		return
	}

	database.DB.Preload("Host").First(&room, room.ID)
	c.JSON(http.StatusOK, buildRoomResponse(room))
}

// JoinRoom godoc
// @Summary      Join a room
// @Description  Registers the user as a listener, announces the entry, and joins the audio channel.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Room ID"
// @Param        input body JoinRoomInput false "PIN for locked rooms"
// @Success      200  {object}  RoomDetailResponse
// @Failure      403  {object}  ErrorResponse "Wrong PIN"
// @Failure      404  {object}  ErrorResponse
// @Router       /rooms/{id}/join [post]
func JoinRoom(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var room models.Room
	if err := database.DB.First(&room, roomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	if room.Locked && room.HostID != userID.(uint) {
		var input JoinRoomInput
		_ = c.ShouldBindJSON(&input)
		if input.PIN != room.PIN {
			c.JSON(http.StatusForbidden, gin.H{"error": "Wrong PIN"})
			return
		}
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	customID := ""
	if user.CustomID != nil {
		customID = *user.CustomID
	}
	if err := Presence.Join(c.Request.Context(), roomID, presence.Listener{
		UserID:      user.ID,
		CustomID:    customID,
		Name:        user.Nickname,
		Avatar:      user.Avatar,
		WealthLevel: models.Level(user.Wealth),
	}); err != nil {
		Logger.Error("presence join failed", "room", roomID, "user", user.ID, "err", err)
	}

	database.DB.Model(&user).Update("current_room_id", roomID)
	refreshListenerCount(roomID)

	if err := Audio.JoinRoom(c.Request.Context(), roomID, user.ID); err != nil {
		Logger.Warn("audio join failed", "room", roomID, "user", user.ID, "err", err)
	}

	Hub.Broadcast(roomID, hub.Event{Type: hub.EventEntry, Payload: gin.H{
		"user_id":      user.ID,
		"name":         user.Nickname,
		"avatar":       user.Avatar,
		"wealth_level": models.Level(user.Wealth),
		"vip_level":    user.VIPLevel,
	}})

	database.DB.Preload("Host").First(&room, room.ID)
	detail := RoomDetailResponse{RoomResponse: buildRoomResponse(room), Joined: true}
	if snapshot, err := Seats.Snapshot(roomID); err == nil {
		detail.Seats = buildSeatResponses(snapshot.Seats)
		detail.MicCount = snapshot.MicCount
	}
	c.JSON(http.StatusOK, detail)
}

// LeaveRoom godoc
// @Summary      Leave a room
// @Description  Removes the user from presence, vacates their seat, and leaves the audio channel.
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      200  {object}  map[string]string
// @Router       /rooms/{id}/leave [post]
func LeaveRoom(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	uid := userID.(uint)

	if err := Seats.Leave(roomID, uid); err == nil {
		Audio.OnSeatLeft(c.Request.Context(), roomID, uid)
	}
	if err := Presence.Leave(c.Request.Context(), roomID, uid); err != nil {
		Logger.Warn("presence leave failed", "room", roomID, "user", uid, "err", err)
	}
	if err := Audio.LeaveRoom(c.Request.Context(), roomID, uid); err != nil {
		Logger.Warn("audio leave failed", "room", roomID, "user", uid, "err", err)
	}

	database.DB.Model(&models.User{}).Where("id = ?", uid).Update("current_room_id", nil)
	refreshListenerCount(roomID)

	c.JSON(http.StatusOK, gin.H{"message": "Left room"})
}

// Heartbeat godoc
// @Summary      Refresh presence
// @Description  Extends the caller's listener presence in the room. Returns 410 if presence expired.
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      200  {object}  map[string]string
// @Failure      410  {object}  ErrorResponse "Presence expired, rejoin required"
// @Router       /rooms/{id}/heartbeat [post]
func Heartbeat(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	if err := Presence.Heartbeat(c.Request.Context(), roomID, userID.(uint)); err != nil {
		c.JSON(http.StatusGone, gin.H{"error": "Presence expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// ListListeners godoc
// @Summary      List room listeners
// @Description  Gets the currently present listeners, most recent first.
// @Tags         rooms
// @Produce      json
// @Param        id path int true "Room ID"
// @Success      200  {array}  ListenerResponse
// @Router       /rooms/{id}/listeners [get]
func ListListeners(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	listeners, err := Presence.List(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listeners"})
		return
	}

	responses := make([]ListenerResponse, len(listeners))
	for i, l := range listeners {
		responses[i] = ListenerResponse{
			UserID:      l.UserID,
			CustomID:    l.CustomID,
			Name:        l.Name,
			Avatar:      l.Avatar,
			WealthLevel: l.WealthLevel,
		}
	}
	c.JSON(http.StatusOK, responses)
}

// ListContributors godoc
// @Summary      Room contribution ranking
// @Description  Gets the room's gift contributors ordered by total amount.
// @Tags         rooms
// @Produce      json
// @Param        id path int true "Room ID"
// @Success      200  {array}  ContributorResponse
// @Router       /rooms/{id}/contributors [get]
func ListContributors(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var contributors []models.Contributor
	if err := database.DB.Where("room_id = ?", roomID).Find(&contributors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contributors"})
		return
	}
	sort.Slice(contributors, func(i, j int) bool {
		return contributors[i].Amount > contributors[j].Amount
	})

	responses := make([]ContributorResponse, len(contributors))
	for i, contributor := range contributors {
		responses[i] = ContributorResponse{
			UserID: contributor.UserID,
			Name:   contributor.Name,
			Avatar: contributor.Avatar,
			Amount: contributor.Amount,
		}
	}
	c.JSON(http.StatusOK, responses)
}

// refreshListenerCount re-counts presence and publishes the new figure.
func refreshListenerCount(roomID uint) {
	count, err := Presence.Count(context.Background(), roomID)
	if err != nil {
		return
	}
	database.DB.Model(&models.Room{}).Where("id = ?", roomID).Update("listeners", count)
	Hub.Broadcast(roomID, hub.Event{Type: hub.EventListeners, Payload: gin.H{"listeners": count}})
}
