package sqliteconn

import (
	"sync"
	"time"
)

// ObjectCache holds mapped rows by table and id so that row mappers can
// return an already-loaded value instead of building a new one.
type ObjectCache interface {
	Get(table string, id any) (any, bool)
	Put(table string, id any, value any)
	Remove(table string, id any)
	UpdateID(table string, oldID, newID any)
	Clear(table string)
	ClearAll()
	Size(table string) int
	SizeAll() int
}

// cacheEntry is a cached value with its expiration time. A zero expiration
// never expires.
type cacheEntry struct {
	value   any
	expires time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// MemoryObjectCache is a thread-safe in-memory ObjectCache. With a positive
// TTL, entries expire and a background goroutine removes them every cleanup
// interval until Close is called.
type MemoryObjectCache struct {
	mu     sync.RWMutex
	tables map[string]map[string]cacheEntry
	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
}

var _ ObjectCache = (*MemoryObjectCache)(nil)

// NewMemoryObjectCache creates a cache. ttl <= 0 keeps entries until they are
// removed; cleanup <= 0 disables the background sweep.
func NewMemoryObjectCache(ttl, cleanup time.Duration) *MemoryObjectCache {
	c := &MemoryObjectCache{
		tables: make(map[string]map[string]cacheEntry),
		ttl:    ttl,
		stop:   make(chan struct{}),
	}
	if ttl > 0 && cleanup > 0 {
		go c.cleanupLoop(cleanup)
	}
	return c
}

func (c *MemoryObjectCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanUp()
		case <-c.stop:
			return
		}
	}
}

// cleanUp removes all expired entries.
func (c *MemoryObjectCache) cleanUp() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for table, entries := range c.tables {
		for key, entry := range entries {
			if entry.expired(now) {
				delete(entries, key)
			}
		}
		if len(entries) == 0 {
			delete(c.tables, table)
		}
	}
}

// Get returns the value cached for id in table, unless it has expired.
func (c *MemoryObjectCache) Get(table string, id any) (any, bool) {
	c.mu.RLock()
	entry, ok := c.tables[table][createKey(id)]
	c.mu.RUnlock()
	if !ok || entry.expired(time.Now()) {
		return nil, false
	}
	return entry.value, true
}

// Put caches value for id in table, replacing any previous entry.
func (c *MemoryObjectCache) Put(table string, id any, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, ok := c.tables[table]
	if !ok {
		entries = make(map[string]cacheEntry)
		c.tables[table] = entries
	}
	entry := cacheEntry{value: value}
	if c.ttl > 0 {
		entry.expires = time.Now().Add(c.ttl)
	}
	entries[createKey(id)] = entry
}

// Remove drops the entry for id in table.
func (c *MemoryObjectCache) Remove(table string, id any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables[table], createKey(id))
}

// UpdateID moves the entry cached under oldID to newID.
func (c *MemoryObjectCache) UpdateID(table string, oldID, newID any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.tables[table]
	oldKey := createKey(oldID)
	entry, ok := entries[oldKey]
	if !ok {
		return
	}
	delete(entries, oldKey)
	entries[createKey(newID)] = entry
}

// Clear drops every entry of table.
func (c *MemoryObjectCache) Clear(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, table)
}

// ClearAll drops every entry of every table.
func (c *MemoryObjectCache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]map[string]cacheEntry)
}

// Size counts the entries of table, expired ones included until the next sweep.
func (c *MemoryObjectCache) Size(table string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables[table])
}

// SizeAll counts the entries of all tables.
func (c *MemoryObjectCache) SizeAll() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, entries := range c.tables {
		n += len(entries)
	}
	return n
}

// Close stops the background sweep. It is safe to call more than once.
func (c *MemoryObjectCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
