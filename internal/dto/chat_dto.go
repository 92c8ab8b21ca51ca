package dto

import "time"

type CreateSessionRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type SessionResponse struct {
	Id        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageResponse is the one wire shape for a message: the same fields are
// used for history fetches and for room broadcasts, so a client that missed
// a broadcast sees the identical object after a reconnect replay.
type MessageResponse struct {
	Id        uint      `json:"id"`
	Content   string    `json:"content"`
	ImageUrl  *string   `json:"imageUrl,omitempty"`
	IsFromBot bool      `json:"isFromBot"`
	CreatedAt time.Time `json:"createdAt"`
}

type UploadResponse struct {
	ImageUrl string `json:"imageUrl"`
}
