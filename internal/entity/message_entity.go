package entity

import "time"

// Message is one entry in a session's append-only log. Messages are never
// mutated after creation; they only disappear when their session is deleted.
type Message struct {
	Id        uint
	SessionId uint
	Content   string
	IsFromBot bool
	ImageUrl  *string
	CreatedAt time.Time
}
