package handler

import (
	"io"
	"time"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/hub"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// StreamRoomEvents godoc
// @Summary      Subscribe to room events
// @Description  Opens a Server-Sent Events stream of room activity (gifts, seats, messages, lucky bags, entries). Recent gift events are replayed so late subscribers still see in-flight animations.
// @Tags         events
// @Produce      text/event-stream
// @Param        id path int true "Room ID"
// @Success      200 {string} string "SSE stream"
// @Router       /rooms/{id}/events [get]
func StreamRoomEvents(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	client := make(hub.Client, 16)
	Hub.Subscribe(roomID, client)
	defer Hub.Unsubscribe(roomID, client)

	// Replay gift events still inside their visibility window, so a client
	// that connects mid-animation renders it too.
	cutoff := time.Now().Add(-models.GiftEventVisibility)
	var recent []models.GiftEvent
	database.DB.Where("room_id = ? AND created_at > ?", roomID, cutoff).
		Order("created_at ASC").
		Find(&recent)
	for _, event := range recent {
		c.SSEvent("message", hub.Event{Type: hub.EventGift, Payload: event})
	}
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case message, open := <-client:
			if !open {
				return false
			}
			c.SSEvent("message", string(message))
			return true
		}
	})
}
