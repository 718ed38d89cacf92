package handler

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/gamebridge"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// readyDelay gives the embedded game time to install its message listener
// before the readiness ping arrives.
const readyDelay = 2 * time.Second

// region --- DTOs ---

// ExternalGameResponse defines the structure for a playable external game.
type ExternalGameResponse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Icon  string `json:"icon,omitempty"`
}

// endregion

// ListExternalGames godoc
// @Summary      List external games
// @Description  Gets the enabled embedded games.
// @Tags         bridge
// @Produce      json
// @Success      200  {array}  ExternalGameResponse
// @Router       /games [get]
func ListExternalGames(c *gin.Context) {
	var games []models.ExternalGame
	if err := database.DB.Where("enabled = ?", true).Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch games"})
		return
	}

	responses := make([]ExternalGameResponse, len(games))
	for i, game := range games {
		responses[i] = ExternalGameResponse{
			ID:    game.ID,
			Title: game.Title,
			URL:   game.URL,
			Icon:  game.Icon,
		}
	}
	c.JSON(http.StatusOK, responses)
}

// OpenExternalGame godoc
// @Summary      Open an external game
// @Description  Mints a one-time bridge token the game presents when it connects to the bridge socket.
// @Tags         bridge
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200  {object}  gamebridge.Ticket
// @Failure      403  {object}  ErrorResponse "Game disabled"
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id}/open [post]
func OpenExternalGame(c *gin.Context) {
	userID, _ := c.Get("userID")
	gameID, ok := roomIDParam(c)
	if !ok {
		return
	}

	ticket, err := Bridge.Open(userID.(uint), gameID)
	if err != nil {
		if errors.Is(err, gamebridge.ErrGameDisabled) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Game is disabled"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// BridgeSocket godoc
// @Summary      Bridge websocket
// @Description  Upgrades to a websocket carrying the game bridge protocol. Requires a one-time token from the open endpoint; the Origin header must match the game's registered origin.
// @Tags         bridge
// @Param        token query string true "One-time bridge token"
// @Success      101 {string} string "Switching Protocols"
// @Failure      401  {object}  ErrorResponse "Invalid token"
// @Router       /bridge/ws [get]
func BridgeSocket(c *gin.Context) {
	session, err := Bridge.Claim(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return session.CheckOrigin(r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		Logger.Warn("bridge upgrade failed", "user", session.UserID(), "err", err)
		return
	}
	defer conn.Close()

	// Writes come from both the ready timer and the read loop.
	var writeMu sync.Mutex
	writeFrame := func(env gamebridge.Envelope) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(env)
	}

	ready := time.AfterFunc(readyDelay, func() {
		if err := writeFrame(session.Ready()); err != nil {
			Logger.Warn("bridge ready send failed", "user", session.UserID(), "err", err)
		}
	})
	defer ready.Stop()

	for {
		var env gamebridge.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Logger.Warn("bridge read failed", "user", session.UserID(), "err", err)
			}
			return
		}

		reply, err := session.Handle(c.Request.Context(), env)
		if err != nil {
			Logger.Warn("bridge frame rejected", "user", session.UserID(), "type", env.Type, "err", err)
			continue
		}
		if err := writeFrame(reply); err != nil {
			return
		}
	}
}
