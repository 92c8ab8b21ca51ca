package model

import "time"

type ChatSession struct {
	Id        uint      `gorm:"primaryKey;autoIncrement"`
	UserId    uint      `gorm:"not null;index"` // User ownership for data isolation
	Title     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
