package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/obentoo/bvc/internal/common/dist"
)

// Error variables for cache errors
var (
	// ErrCacheCorrupted is returned when the cache file cannot be parsed
	ErrCacheCorrupted = errors.New("cache file is corrupted")
)

const (
	// CacheFileName is the name of the release cache inside its directory
	CacheFileName = "releases.json"
	// cacheFormat changes whenever the file layout does; older files are dropped
	cacheFormat = 1
)

// CacheKey identifies the release list of project on the index queried at url.
func CacheKey(url, project string) string {
	return url + "#" + dist.NormalizeName(project)
}

// cachedReleases is the release list of one project on one index
type cachedReleases struct {
	Releases []string  `json:"releases"`
	Fetched  time.Time `json:"fetched"`
}

// cacheFile is the JSON document stored on disk
type cacheFile struct {
	Format  int                       `json:"format"`
	Entries map[string]cachedReleases `json:"entries"`
}

// Cache keeps release lists for a TTL so repeated checks spare the index.
// The file is rewritten atomically on each Set; fetch workers share it.
type Cache struct {
	mu      sync.RWMutex
	path    string
	ttl     time.Duration
	entries map[string]cachedReleases
	now     func() time.Time
}

// CacheOption is a functional option for configuring Cache
type CacheOption func(*Cache)

// WithNowFunc sets a custom time function for testing
func WithNowFunc(fn func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = fn
	}
}

// NewCache opens the cache stored in dir. A corrupted file, or one written
// in another format, starts an empty cache replaced on the next Set.
func NewCache(dir string, ttl time.Duration, opts ...CacheOption) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		path:    filepath.Join(dir, CacheFileName),
		ttl:     ttl,
		entries: make(map[string]cachedReleases),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if entries, err := readCacheFile(c.path); err == nil {
		c.entries = entries
	}
	return c, nil
}

func readCacheFile(path string) (map[string]cachedReleases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	if cf.Format != cacheFormat {
		return nil, fmt.Errorf("%w: format %d, want %d", ErrCacheCorrupted, cf.Format, cacheFormat)
	}
	if cf.Entries == nil {
		cf.Entries = make(map[string]cachedReleases)
	}
	return cf.Entries, nil
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Get returns a copy of the releases stored under key while they are fresh.
func (c *Cache) Get(key string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.expired(entry) {
		return nil, false
	}
	return append([]string(nil), entry.Releases...), true
}

func (c *Cache) expired(entry cachedReleases) bool {
	return c.now().Sub(entry.Fetched) >= c.ttl
}

// Set stores releases under key and saves the cache. Expired entries are
// dropped from the saved file.
func (c *Cache) Set(key string, releases []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cachedReleases{
		Releases: append([]string{}, releases...),
		Fetched:  c.now(),
	}
	for k, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, k)
		}
	}
	return c.save()
}

// Clear removes all entries and saves the cache.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cachedReleases)
	return c.save()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// save writes the cache through a temporary file. Caller holds the write lock.
func (c *Cache) save() error {
	data, err := json.Marshal(cacheFile{Format: cacheFormat, Entries: c.entries})
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}
