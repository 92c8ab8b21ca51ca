package model

import "time"

type Message struct {
	Id        uint        `gorm:"primaryKey;autoIncrement"`
	SessionId uint        `gorm:"not null;index"`
	Session   ChatSession `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
	Content   string      `gorm:"type:text;not null"`
	IsFromBot bool        `gorm:"not null;default:false"`
	ImageUrl  *string     `gorm:"type:text"`
	CreatedAt time.Time   `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}
