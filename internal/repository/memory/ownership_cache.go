package memory

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// OwnershipCache remembers which user owns which session so the websocket
// join path does not hit the database on every reconnect. Entries expire on
// their own; session deletion invalidates eagerly.
type OwnershipCache struct {
	cache *cache.Cache
}

func NewOwnershipCache() *OwnershipCache {
	// Default expiration of 1 hour, purge sweep every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &OwnershipCache{cache: c}
}

func key(sessionID uint) string {
	return strconv.FormatUint(uint64(sessionID), 10)
}

func (c *OwnershipCache) Save(sessionID, userID uint) {
	c.cache.Set(key(sessionID), userID, cache.DefaultExpiration)
}

func (c *OwnershipCache) Get(sessionID uint) (uint, bool) {
	if x, found := c.cache.Get(key(sessionID)); found {
		return x.(uint), true
	}
	return 0, false
}

func (c *OwnershipCache) Invalidate(sessionID uint) {
	c.cache.Delete(key(sessionID))
}
