package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryConfig bounds the in-memory cache. A janitor pass drops expired
// entries and, when the table is still above TrimTo, the oldest writes.
type MemoryConfig struct {
	MaxEntries      int
	TrimTo          int
	JanitorInterval time.Duration
}

func (c MemoryConfig) withDefaults() MemoryConfig {
	if c.MaxEntries <= 0 {
		c.MaxEntries = 200
	}
	if c.TrimTo <= 0 || c.TrimTo > c.MaxEntries {
		c.TrimTo = 50
	}
	if c.JanitorInterval <= 0 {
		c.JanitorInterval = 15 * time.Minute
	}
	return c
}

// MemoryClient implements an in-memory cache for single-instance
// deployments and development.
type MemoryClient struct {
	mu       sync.RWMutex
	data     map[string]memoryEntry
	cfg      MemoryConfig
	stop     chan struct{}
	stopOnce sync.Once
}

var _ Client = (*MemoryClient)(nil)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	storedAt  time.Time
}

// NewMemoryClient creates a new in-memory cache client and starts its
// janitor.
func NewMemoryClient(cfg MemoryConfig) *MemoryClient {
	c := &MemoryClient{
		data: make(map[string]memoryEntry),
		cfg:  cfg.withDefaults(),
		stop: make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Get retrieves a value from cache.
func (c *MemoryClient) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a value in cache with TTL, evicting the oldest write when the
// table is full.
func (c *MemoryClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.cfg.MaxEntries {
		c.evictOldest()
	}

	now := time.Now()
	c.data[key] = memoryEntry{
		value:     value,
		expiresAt: now.Add(ttl),
		storedAt:  now,
	}
	return nil
}

// Delete removes a value from cache.
func (c *MemoryClient) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// DeleteByPrefix removes all keys with the given prefix.
func (c *MemoryClient) DeleteByPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

// Close stops the janitor.
func (c *MemoryClient) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

// evictOldest removes the entry written the longest ago. Callers hold the
// write lock.
func (c *MemoryClient) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.data {
		if oldestKey == "" || entry.storedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.data, oldestKey)
	}
}

func (c *MemoryClient) janitor() {
	ticker := time.NewTicker(c.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.runJanitorPass()
		}
	}
}

// runJanitorPass drops expired entries and trims the table back down to
// TrimTo, oldest writes first.
func (c *MemoryClient) runJanitorPass() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.expiresAt) {
			delete(c.data, key)
		}
	}

	excess := len(c.data) - c.cfg.TrimTo
	if excess <= 0 {
		return
	}
	type aged struct {
		key      string
		storedAt time.Time
	}
	entries := make([]aged, 0, len(c.data))
	for key, entry := range c.data {
		entries = append(entries, aged{key: key, storedAt: entry.storedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].storedAt.Before(entries[j].storedAt)
	})
	for _, e := range entries[:excess] {
		delete(c.data, e.key)
	}
}
