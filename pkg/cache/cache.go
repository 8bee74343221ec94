package cache

import (
	"strings"
	"sync"
	"time"
)

// Item is a cached value with expiration.
type Item struct {
	Value     interface{}
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the item has expired.
func (item *Item) IsExpired() bool {
	return time.Now().After(item.ExpiresAt)
}

// Cache is a thread-safe in-memory cache with TTL support. Keys are
// structured (see Key) so that all entries scoped to one channel can be
// invalidated by prefix without scanning unrelated namespaces.
type Cache struct {
	items           map[string]*Item
	mu              sync.RWMutex
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// New creates a cache with the given default TTL and starts the background
// expiry sweep.
func New(defaultTTL time.Duration) *Cache {
	c := &Cache{
		items:           make(map[string]*Item),
		defaultTTL:      defaultTTL,
		cleanupInterval: defaultTTL / 2,
		stopCleanup:     make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Key builds a composite cache key: namespace, channel id, then any extra
// parts. Channel-scoped invalidation relies on this layout.
func Key(namespace, channelID string, parts ...string) string {
	segs := append([]string{namespace, channelID}, parts...)
	return strings.Join(segs, ":")
}

// channelPrefix matches every key in the namespace scoped to channelID.
func channelPrefix(namespace, channelID string) string {
	return namespace + ":" + channelID + ":"
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	if item.IsExpired() {
		// Expired; the sweep removes it.
		return nil, false
	}

	return item.Value, true
}

func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &Item{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*Item)
}

// InvalidateChannel drops every entry in the namespace scoped to channelID.
func (c *Cache) InvalidateChannel(namespace, channelID string) int {
	return c.InvalidatePrefix(channelPrefix(namespace, channelID))
}

// InvalidatePrefix drops every entry whose key starts with prefix. An empty
// prefix drops expired entries only.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	if prefix == "" {
		for key, item := range c.items {
			if item.IsExpired() {
				delete(c.items, key)
				removed++
			}
		}
		return removed
	}

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.InvalidatePrefix("")
		case <-c.stopCleanup:
			return
		}
	}
}

// Stop halts the background sweep.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}
