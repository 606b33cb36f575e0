package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileCache persists analysis reports under a local directory so repeat CLI
// runs over an unchanged wiring graph can skip re-analysis. Each entry is a
// small JSON file carrying the report payload and its expiry.
type FileCache struct {
	dir string
}

// NewFileCache opens a report cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// fileEntry is the on-disk shape of one cached report.
type fileEntry struct {
	Payload []byte    `json:"payload"`
	Expires time.Time `json:"expires,omitempty"`
}

// Get looks up a report. Expired or unreadable entries are evicted and
// reported as misses so a fresh analysis replaces them.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.entryPath(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.evict(path)
		return nil, false, nil
	}
	if entry.expired() {
		c.evict(path)
		return nil, false, nil
	}

	return entry.Payload, true, nil
}

// Set stores a report. A zero TTL keeps it until deleted.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Payload: data}
	if ttl != 0 {
		entry.Expires = time.Now().Add(ttl)
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

// Delete removes a report. Absent keys are not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.entryPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for the file backend.
func (c *FileCache) Close() error {
	return nil
}

func (e fileEntry) expired() bool {
	return !e.Expires.IsZero() && time.Now().After(e.Expires)
}

func (c *FileCache) evict(path string) {
	_ = os.Remove(path)
}

// entryPath maps a cache key onto a file path. Keys are digested so report
// keys (which embed graph hashes and option hashes) become fixed-length
// names, sharded by the first two hex chars to keep directories small.
func (c *FileCache) entryPath(key string) string {
	digest := Hash([]byte(key))
	return filepath.Join(c.dir, digest[:2], digest[2:]+".json")
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
