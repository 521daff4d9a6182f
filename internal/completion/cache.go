// Package completion provides tab completion support for the mindtalk CLI.
// It keeps a small file-based cache of characters, counselors and sessions,
// written as a side effect of list commands, so shell completion never has
// to call the API.
package completion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CachedItem is one completable resource.
type CachedItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Detail    string    `json:"detail,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Cache stores completion data with metadata for staleness detection.
type Cache struct {
	Characters          []CachedItem `json:"characters,omitempty"`
	Counselors          []CachedItem `json:"counselors,omitempty"`
	Sessions            []CachedItem `json:"sessions,omitempty"`
	CharactersUpdatedAt time.Time    `json:"characters_updated_at,omitzero"`
	CounselorsUpdatedAt time.Time    `json:"counselors_updated_at,omitzero"`
	SessionsUpdatedAt   time.Time    `json:"sessions_updated_at,omitzero"`
	Version             int          `json:"version"`
}

// Section names a part of the cache.
type Section int

const (
	Characters Section = iota
	Counselors
	Sessions
)

const (
	// CacheVersion is the current cache schema version.
	CacheVersion = 1

	// DefaultMaxAge is the default cache staleness threshold.
	DefaultMaxAge = time.Hour

	// CacheFileName is the default cache file name.
	CacheFileName = "completion.json"
)

// Store handles reading and writing the completion cache.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a new cache store.
// If dir is empty, it uses the default location.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	return &Store{dir: dir}
}

// DefaultCacheDir returns MINDTALK_CACHE_DIR, or ~/.cache/mindtalk.
func DefaultCacheDir() string {
	if v := os.Getenv("MINDTALK_CACHE_DIR"); v != "" {
		return v
	}
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "mindtalk")
}

// Dir returns the cache directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path to the cache file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, CacheFileName)
}

// Load reads the cache from disk.
// Returns an empty cache if the file doesn't exist or is invalid.
func (s *Store) Load() (*Cache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadUnsafe()
}

// loadUnsafe reads the cache without locking (caller must hold lock).
func (s *Store) loadUnsafe() (*Cache, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &Cache{Version: CacheVersion}, nil
		}
		return nil, err
	}

	var cache Cache
	if err := json.Unmarshal(data, &cache); err != nil || cache.Version != CacheVersion {
		// Corrupt or foreign schema: start over
		return &Cache{Version: CacheVersion}, nil //nolint:nilerr // graceful degradation for corrupted cache
	}

	return &cache, nil
}

// saveUnsafe writes the cache without locking (caller must hold lock).
func (s *Store) saveUnsafe(cache *Cache) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}

	cache.Version = CacheVersion

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := s.Path() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.Path())
}

// Update replaces one section and stamps it with the current time. Other
// sections keep their data and timestamps.
func (s *Store) Update(section Section, items []CachedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, err := s.loadUnsafe()
	if err != nil {
		cache = &Cache{Version: CacheVersion}
	}

	now := time.Now()
	switch section {
	case Characters:
		cache.Characters, cache.CharactersUpdatedAt = items, now
	case Counselors:
		cache.Counselors, cache.CounselorsUpdatedAt = items, now
	case Sessions:
		cache.Sessions, cache.SessionsUpdatedAt = items, now
	}
	return s.saveUnsafe(cache)
}

// Items returns the cached items of one section, or nil.
func (s *Store) Items(section Section) []CachedItem {
	cache, err := s.Load()
	if err != nil {
		return nil
	}
	switch section {
	case Characters:
		return cache.Characters
	case Counselors:
		return cache.Counselors
	case Sessions:
		return cache.Sessions
	}
	return nil
}

// UpdatedAt returns the oldest section timestamp. A section that was never
// populated makes the whole cache look unpopulated.
func (c *Cache) UpdatedAt() time.Time {
	oldest := c.CharactersUpdatedAt
	for _, t := range []time.Time{c.CounselorsUpdatedAt, c.SessionsUpdatedAt} {
		if t.IsZero() || oldest.IsZero() {
			return time.Time{}
		}
		if t.Before(oldest) {
			oldest = t
		}
	}
	return oldest
}

// IsStale returns true if any section is missing or older than maxAge.
func (s *Store) IsStale(maxAge time.Duration) bool {
	cache, err := s.Load()
	if err != nil {
		return true
	}
	updated := cache.UpdatedAt()
	return updated.IsZero() || time.Since(updated) > maxAge
}

// Clear removes the cache file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
