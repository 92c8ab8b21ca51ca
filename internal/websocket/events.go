package websocket

import "encoding/json"

// Event names shared with the client.
const (
	EventJoinSession   = "join:session"
	EventSessionJoined = "session:joined"
	EventChatMessage   = "chat:message"
)

// Envelope is the frame exchanged in both directions: an event name plus an
// event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// InboundChatMessage is the client's chat:message payload.
type InboundChatMessage struct {
	Content  string `json:"content"`
	ImageUrl string `json:"imageUrl"`
}

// NewEvent serializes an outbound frame. Payloads are plain DTOs, so a
// marshal failure here is a programming error; it yields nil, which the
// pumps drop.
func NewEvent(event string, data interface{}) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return nil
	}
	return frame
}
