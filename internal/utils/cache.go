package utils

import (
	"os"
	"sync"
	"time"
)

// stamp identifies one version of a file on disk
type stamp struct {
	modTime time.Time
	size    int64
}

func stampOf(info os.FileInfo) stamp {
	return stamp{modTime: info.ModTime(), size: info.Size()}
}

type sourceEntry struct {
	content string
	stamp   stamp
}

// SourceCache holds file contents keyed by path. An entry is served only
// while the file keeps the size and modification time it had when stored.
type SourceCache struct {
	mu      sync.RWMutex
	entries map[string]sourceEntry
}

// NewSourceCache creates an empty cache
func NewSourceCache() *SourceCache {
	return &SourceCache{entries: make(map[string]sourceEntry)}
}

// Load returns the cached contents of path. Entries for files that changed
// or disappeared are evicted.
func (c *SourceCache) Load(path string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	info, err := os.Stat(path)
	if err == nil && stampOf(info) == entry.stamp {
		return entry.content, true
	}

	c.Forget(path)
	return "", false
}

// Store records content for path together with the file's current state
func (c *SourceCache) Store(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries[path] = sourceEntry{content: content, stamp: stampOf(info)}
	c.mu.Unlock()
	return nil
}

// Forget drops path from the cache
func (c *SourceCache) Forget(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Reset drops every entry
func (c *SourceCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]sourceEntry)
	c.mu.Unlock()
}

// Len reports the number of cached files
func (c *SourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
