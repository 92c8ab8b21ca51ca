package websocket

import "fmt"

// RoomKey identifies one broadcast group. Session-scoped chat keys rooms by
// session id; a single-stream deployment keys them by user id instead. The
// two shapes never collide because of the prefix.
type RoomKey string

func SessionRoom(sessionID uint) RoomKey {
	return RoomKey(fmt.Sprintf("session:%d", sessionID))
}

func UserRoom(userID uint) RoomKey {
	return RoomKey(fmt.Sprintf("user:%d", userID))
}

// ResolveRoom picks the room for an identity and an optional session. Zero
// sessionID means the degenerate single-stream case.
func ResolveRoom(userID, sessionID uint) RoomKey {
	if sessionID == 0 {
		return UserRoom(userID)
	}
	return SessionRoom(sessionID)
}

// SessionID recovers the session id from a session-scoped key.
func (k RoomKey) SessionID() (uint, bool) {
	var id uint
	if _, err := fmt.Sscanf(string(k), "session:%d", &id); err != nil {
		return 0, false
	}
	return id, true
}
