package specification

import "gorm.io/gorm"

// OwnedBy scopes sessions to their owner. Every session read or write goes
// through this filter so cross-user rows behave as if they did not exist.
type OwnedBy struct {
	UserID uint
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// BySessionID scopes messages to one session's log.
type BySessionID struct {
	SessionID uint
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// ByUsername filters users by their unique username.
type ByUsername struct {
	Username string
}

func (s ByUsername) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("username = ?", s.Username)
}
