package mapping

import (
	"sync"
	"time"

	"github.com/giftvault/escrow-indexer/internal/adapter"
)

// MissCache remembers confirmed lookup misses for a short window so repeated
// resolution of the same unknown token does not hammer Redis and the chain
// fallback paths. Entries are process-local on purpose: a short TTL is enough
// and keeps negative results out of the shared store.
type MissCache struct {
	clock adapter.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMissCache creates a miss cache with the given entry TTL
func NewMissCache(clock adapter.Clock, ttl time.Duration) *MissCache {
	return &MissCache{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]time.Time),
	}
}

// Hit reports whether tokenID was recently confirmed missing
func (c *MissCache) Hit(tokenID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, ok := c.entries[tokenID]
	if !ok {
		return false
	}
	if c.clock.Now().After(expiry) {
		delete(c.entries, tokenID)
		return false
	}
	return true
}

// Record marks tokenID as confirmed missing for one TTL window
func (c *MissCache) Record(tokenID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tokenID] = c.clock.Now().Add(c.ttl)
}

// Evict drops tokenID immediately, used after a successful write
func (c *MissCache) Evict(tokenID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tokenID)
}
