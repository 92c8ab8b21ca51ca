package websocket

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// EventHandler receives inbound client events. Implementations do their own
// authorization; malformed or unauthorized events are silent no-ops.
type EventHandler interface {
	OnJoinSession(client *Client, sessionID uint)
	OnChatMessage(client *Client, msg InboundChatMessage)
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Connection identity established at handshake.
	ID       uuid.UUID
	UserID   uint
	Username string

	// Buffered channel of outbound messages.
	Send chan []byte

	handler EventHandler

	// mu guards closed so no send can race the close of Send.
	mu     sync.Mutex
	closed bool
}

// TrySend queues a frame for the write pump without blocking. It reports
// false when the connection is already torn down or its buffer is full.
func (c *Client) TrySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel exactly once. Teardown can be
// requested twice (pump exit and a full-buffer drop racing), and a broadcast
// may be in flight at the same time; the mutex orders all of them.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// readPump pumps events from the websocket connection to the handler.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		c.dispatch(raw)
	}
}

// dispatch routes one inbound frame. Frames that fail shape checks are
// dropped without a reply.
func (c *Client) dispatch(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	switch env.Event {
	case EventJoinSession:
		sessionID, ok := parseSessionID(env.Data)
		if !ok {
			return
		}
		c.handler.OnJoinSession(c, sessionID)

	case EventChatMessage:
		var msg InboundChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		c.handler.OnChatMessage(c, msg)
	}
}

// parseSessionID accepts the session id as a JSON number or string.
func parseSessionID(data json.RawMessage) (uint, bool) {
	var id uint
	if err := json.Unmarshal(data, &id); err == nil {
		return id, true
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := strconv.ParseUint(s, 10, 32); err == nil {
			return uint(parsed), true
		}
	}
	return 0, false
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
