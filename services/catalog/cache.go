package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fileCache stores JSON-serialized values on disk with a TTL. Entries are
// keyed by an opaque string; expired entries are treated as misses and
// removed lazily on read.
type fileCache struct {
	dir string
	ttl time.Duration

	mu sync.Mutex
}

type cacheEnvelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

func newFileCache(dir string, ttlHours int) *fileCache {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &fileCache{dir: dir, ttl: time.Duration(ttlHours) * time.Hour}
}

func cacheKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h[:])
}

func (c *fileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *fileCache) get(key string, v any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		// Corrupt entry; drop it and report a miss.
		_ = os.Remove(c.path(key))
		return false, nil
	}

	if time.Since(envelope.StoredAt) > c.ttl {
		_ = os.Remove(c.path(key))
		return false, nil
	}

	if err := json.Unmarshal(envelope.Payload, v); err != nil {
		return false, err
	}
	return true, nil
}

func (c *fileCache) set(key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data, err := json.Marshal(cacheEnvelope{StoredAt: time.Now(), Payload: payload})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path(key))
}

func (c *fileCache) clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
