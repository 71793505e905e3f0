package covers

import (
	"sync"
	"time"
)

type memoryEntry struct {
	cover      Cover
	expiration time.Time
}

func (e *memoryEntry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// memoryCache keeps recently served covers in memory
type memoryCache struct {
	items map[string]*memoryEntry
	mutex sync.RWMutex
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	c := &memoryCache{
		items: make(map[string]*memoryEntry),
		ttl:   ttl,
		done:  make(chan struct{}),
	}
	go c.cleanupExpired(5 * time.Minute)
	return c
}

func (c *memoryCache) set(key string, cover Cover) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &memoryEntry{
		cover:      cover,
		expiration: time.Now().Add(c.ttl),
	}
}

func (c *memoryCache) get(key string) (Cover, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.items[key]
	if !exists || entry.isExpired(time.Now()) {
		return Cover{}, false
	}
	return entry.cover, true
}

func (c *memoryCache) size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

func (c *memoryCache) stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *memoryCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.removeExpired(now)
		}
	}
}

func (c *memoryCache) removeExpired(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, entry := range c.items {
		if entry.isExpired(now) {
			delete(c.items, key)
		}
	}
}
