package model

import "time"

type User struct {
	Id           uint      `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"type:varchar(30);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
