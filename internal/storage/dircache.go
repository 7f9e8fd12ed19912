package storage

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/DeinAlptraum/usdb-syncer/internal/constants"
)

// DirectoryCache hands out unique song folder paths to concurrent sync
// jobs. The filesystem alone cannot arbitrate, because a folder is only
// created after its sync job has fetched data; the cache reserves the path
// in the meantime. Reservations expire so that abandoned jobs do not block
// a name forever.
type DirectoryCache struct {
	mu       sync.Mutex
	entries  map[string]time.Time
	lifetime time.Duration
	now      func() time.Time
}

// NewDirectoryCache creates a cache with the default reservation lifetime.
func NewDirectoryCache() *DirectoryCache {
	return &DirectoryCache{
		entries:  map[string]time.Time{},
		lifetime: constants.DirCacheLifetime,
		now:      time.Now,
	}
}

// Insert reserves the path unless it holds an unexpired reservation.
// Returns true if the reservation was acquired or refreshed.
func (c *DirectoryCache) Insert(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insert(path)
}

func (c *DirectoryCache) insert(path string) bool {
	now := c.now()
	if reserved, ok := c.entries[path]; ok && now.Sub(reserved) < c.lifetime {
		return false
	}
	c.entries[path] = now
	return true
}

// NextUnique reserves and returns the first path that is neither reserved
// nor present on disk, starting with base and appending " (n)" suffixes.
func (c *DirectoryCache) NextUnique(base string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i <= constants.MaxResourceCandidates; i++ {
		path := base
		if i > 0 {
			path = fmt.Sprintf("%s (%d)", base, i)
		}
		if !c.insert(path) {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("no unique directory available for %q", base)
}
