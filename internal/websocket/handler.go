package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs runs the pump loops for an authenticated connection. The identity
// comes from the handshake; nothing here re-checks credentials.
func ServeWs(hub *Hub, conn *websocket.Conn, userID uint, username string, handler EventHandler) {
	client := &Client{
		Hub:      hub,
		Conn:     conn,
		ID:       uuid.New(),
		UserID:   userID,
		Username: username,
		Send:     make(chan []byte, 256),
		handler:  handler,
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // run readPump in the handler goroutine
}
