package websocket

import (
	"sync"

	"github.com/zekaiblog/mywebsite/internal/pkg/logger"

	"github.com/google/uuid"
)

// Hub owns all live connections and the explicit connection-to-room binding.
// It is the single writer of both maps: clients join a room only through
// JoinRoom and leave only through disconnect teardown.
type Hub struct {
	// rooms maps a room key to the connections currently in it
	rooms map[RoomKey]map[*Client]bool

	// bindings maps a connection id to the room it is bound to
	bindings map[uuid.UUID]RoomKey

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[RoomKey]map[*Client]bool),
		bindings:   make(map[uuid.UUID]RoomKey),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.logger.Info("Hub", "Client connected", map[string]interface{}{
				"connection_id": client.ID,
				"user_id":       client.UserID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if key, bound := h.bindings[client.ID]; bound {
				delete(h.bindings, client.ID)
				if members, ok := h.rooms[key]; ok {
					delete(members, client)
					if len(members) == 0 {
						delete(h.rooms, key)
					}
				}
			}
			h.mu.Unlock()
			client.closeSend()
			h.logger.Info("Hub", "Client disconnected", map[string]interface{}{
				"connection_id": client.ID,
				"user_id":       client.UserID,
			})
		}
	}
}

// JoinRoom binds a connection to a room, moving it out of any previous room.
// Ownership must already have been verified by the caller.
func (h *Hub) JoinRoom(client *Client, key RoomKey) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, bound := h.bindings[client.ID]; bound {
		if members, ok := h.rooms[prev]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, prev)
			}
		}
	}

	if h.rooms[key] == nil {
		h.rooms[key] = make(map[*Client]bool)
	}
	h.rooms[key][client] = true
	h.bindings[client.ID] = key
}

// Room returns the room a connection is currently bound to, if any.
func (h *Hub) Room(client *Client) (RoomKey, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	key, ok := h.bindings[client.ID]
	return key, ok
}

// Broadcast fans a frame out to every connection in one room. A client whose
// send buffer is full is dropped rather than allowed to stall the room.
func (h *Hub) Broadcast(key RoomKey, payload []byte) {
	if payload == nil {
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[key]))
	for client := range h.rooms[key] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		if !client.TrySend(payload) {
			h.logger.Warn("Hub", "Client cannot keep up, dropping connection", map[string]interface{}{
				"connection_id": client.ID,
			})
			h.unregister <- client
		}
	}
}
