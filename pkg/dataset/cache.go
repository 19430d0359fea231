package dataset

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Cache memoizes parsed sources keyed by file path, modification time and
// size. A changed file is simply reloaded; Invalidate drops everything.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	stamp string
	value any
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cached returns the value stored under key if every path is unchanged since
// it was stored, else calls load. Failed loads are never stored. A nil cache
// always calls load.
func cached[T any](c *Cache, key string, paths []string, load func() (T, error)) (T, error) {
	if c == nil {
		return load()
	}
	stamp, ok := fileStamp(paths)
	if !ok {
		return load()
	}

	c.mu.RLock()
	e, hit := c.entries[key]
	c.mu.RUnlock()
	if hit && e.stamp == stamp {
		if v, ok := e.value.(T); ok {
			return v, nil
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{stamp: stamp, value: v}
	c.mu.Unlock()
	return v, nil
}

func fileStamp(paths []string) (string, bool) {
	var b strings.Builder
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return "", false
		}
		b.WriteString(p)
		b.WriteByte('@')
		b.WriteString(strconv.FormatInt(fi.ModTime().UnixNano(), 10))
		b.WriteByte('/')
		b.WriteString(strconv.FormatInt(fi.Size(), 10))
		b.WriteByte(';')
	}
	return b.String(), true
}
