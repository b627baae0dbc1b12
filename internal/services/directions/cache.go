package directions

import (
	"context"
	"crypto/md5"
	"fmt"
	"sync"
	"time"

	"adroute-backend/internal/metrics"
	"adroute-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// PathCache keeps walking paths keyed by their endpoints to save provider calls
type PathCache struct {
	cache      map[string]*cacheEntry
	mutex      sync.RWMutex
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

type cacheEntry struct {
	points       []models.Coordinate
	createdAt    time.Time
	lastAccessed time.Time
	hitCount     int
}

// NewPathCache creates a cache holding up to maxEntries paths for ttl
func NewPathCache(maxEntries int, ttl time.Duration) *PathCache {
	return &PathCache{
		cache:      make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Signature identifies a path by its endpoints, rounded to ~1m
func Signature(from, to models.Coordinate) string {
	sig := fmt.Sprintf("%.5f,%.5f_%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
	hash := md5.Sum([]byte(sig))
	return fmt.Sprintf("%x", hash[:8])
}

// Get returns a cached path if present and not expired
func (c *PathCache) Get(signature string) ([]models.Coordinate, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, found := c.cache[signature]
	if !found {
		metrics.RecordCache("miss")
		return nil, false
	}

	now := c.now()
	if now.Sub(entry.createdAt) > c.ttl {
		delete(c.cache, signature)
		metrics.RecordCache("miss")
		metrics.RecordCache("eviction")
		return nil, false
	}

	entry.lastAccessed = now
	entry.hitCount++
	metrics.RecordCache("hit")
	return entry.points, true
}

// Set stores a path, evicting the least recently used entry when full
func (c *PathCache) Set(signature string, points []models.Coordinate) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.cache[signature]; !exists && len(c.cache) >= c.maxEntries {
		c.evictOldest()
	}

	now := c.now()
	c.cache[signature] = &cacheEntry{
		points:       points,
		createdAt:    now,
		lastAccessed: now,
	}
}

// Len returns the number of cached paths
func (c *PathCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// evictOldest removes the least recently used entry; caller holds the lock
func (c *PathCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.cache {
		if oldestKey == "" || entry.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccessed
		}
	}

	if oldestKey != "" {
		delete(c.cache, oldestKey)
		metrics.RecordCache("eviction")
		logrus.WithField("signature", oldestKey).Debug("🗑️  Evicted oldest directions cache entry")
	}
}

// RemoveExpired drops every expired entry and returns how many were removed
func (c *PathCache) RemoveExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	now := c.now()
	for key, entry := range c.cache {
		if now.Sub(entry.createdAt) > c.ttl {
			delete(c.cache, key)
			removed++
		}
	}
	for i := 0; i < removed; i++ {
		metrics.RecordCache("eviction")
	}
	return removed
}

// RunCleanup removes expired entries every interval until ctx is cancelled
func (c *PathCache) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.RemoveExpired(); n > 0 {
				logrus.WithField("removed", n).Info("🧹 Directions cache cleanup")
			}
		}
	}
}
