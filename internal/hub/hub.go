package hub

import (
	"encoding/json"
	"sync"
)

// EventType identifies a real-time room event.
type EventType string

const (
	EventGift      EventType = "gift"
	EventSeats     EventType = "seats"
	EventMessage   EventType = "message"
	EventLuckyBag  EventType = "lucky_bag"
	EventEntry     EventType = "entry"
	EventListeners EventType = "listeners"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single client connection (a viewer in a room).
// It's essentially a channel that the SSE handler will listen to.
type Client chan []byte

// Hub manages all active rooms and their clients.
type Hub struct {
	rooms map[uint]map[Client]bool
	mu    sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uint]map[Client]bool),
	}
}

// Subscribe adds a new client to a specific room.
func (h *Hub) Subscribe(roomID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[Client]bool)
	}
	h.rooms[roomID][client] = true
}

// Unsubscribe removes a client from a room.
func (h *Hub) Unsubscribe(roomID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[roomID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client) // Close the channel to signal the SSE handler to stop.
			if len(clients) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// Broadcast sends an event to all clients in a specific room.
func (h *Hub) Broadcast(roomID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.rooms[roomID]; ok {
		messageBytes, err := json.Marshal(event)
		if err != nil {
			return
		}

		for client := range clients {
			// Use a non-blocking send to prevent a slow client from blocking the hub.
			select {
			case client <- messageBytes:
			default:
				// Client channel is full, maybe they are disconnected or slow.
				// The unsubscribe logic will handle cleaning this up eventually.
			}
		}
	}
}

// Viewers returns the number of subscribed clients in a room.
func (h *Hub) Viewers(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
