package identity

import (
	"sync"
	"time"

	"github.com/systmms/relinq/internal/secure"
)

// refreshBuffer is subtracted from a token's lifetime so cached tokens
// are refreshed before they actually expire.
const refreshBuffer = 5 * time.Second

// Cache holds access tokens per scope for the life of the process. Token
// bytes live in protected memory; nothing is ever written to disk.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	buf       *secure.Buffer
	expiresAt time.Time
}

// NewCache creates an empty token cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached token and its refresh deadline for scope, if
// present and not yet due for refresh.
func (c *Cache) Get(scope string) (string, time.Time, bool) {
	c.mu.RLock()
	entry, ok := c.entries[scope]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return "", time.Time{}, false
	}

	locked, err := entry.buf.Open()
	if err != nil {
		return "", time.Time{}, false
	}
	defer locked.Destroy()
	token := string(locked.Bytes())
	if token == "" {
		return "", time.Time{}, false
	}
	return token, entry.expiresAt, true
}

// Set stores a token for scope, expiring refreshBuffer before expiresOn.
func (c *Cache) Set(scope, token string, expiresOn time.Time) {
	buf, err := secure.NewBuffer([]byte(token))
	if err != nil {
		return
	}

	c.mu.Lock()
	if old, ok := c.entries[scope]; ok {
		_ = old.buf.Close()
	}
	c.entries[scope] = cacheEntry{buf: buf, expiresAt: expiresOn.Add(-refreshBuffer)}
	c.mu.Unlock()
}

// Clear drops every cached token and destroys the backing buffers.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for scope, entry := range c.entries {
		_ = entry.buf.Close()
		delete(c.entries, scope)
	}
}
