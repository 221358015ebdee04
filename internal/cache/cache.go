package cache

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"yieldista/internal/models"
)

// DefaultTTL bounds how long a comparable-market summary may be served
// without re-fetching.
const DefaultTTL = 10 * time.Minute

type entry struct {
	value     *models.MarketSummary
	createdAt time.Time
	ttl       time.Duration
}

// MarketCache stores fetched market summaries under bucketed keys so that
// near-identical properties share one comparable fetch. Reads and writes are
// mutex-guarded; overlapping analysis passes may use it concurrently.
type MarketCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	logger     *logrus.Logger
	now        func() time.Time
}

func NewMarketCache(defaultTTL time.Duration, logger *logrus.Logger) *MarketCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &MarketCache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Get returns the summary stored under key, or nil on a miss. An expired
// entry is removed and reported as a miss; no entry is ever returned past
// its TTL.
func (c *MarketCache) Get(key string) *models.MarketSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}

	if c.now().Sub(e.createdAt) > e.ttl {
		delete(c.entries, key)
		c.logger.WithField("key", key).Debug("Cache entry expired")
		return nil
	}

	return e.value
}

// Set stores a summary under key. A non-positive ttl selects the default.
func (c *MarketCache) Set(key string, value *models.MarketSummary, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, createdAt: c.now(), ttl: ttl}
	c.logger.WithFields(logrus.Fields{
		"key": key,
		"ttl": ttl.String(),
	}).Debug("Cached market summary")
}

// Clear drops every entry.
func (c *MarketCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// SweepExpired removes expired entries eagerly, bounding memory growth
// between lazy reads, and returns how many were dropped.
func (c *MarketCache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.createdAt) > e.ttl {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.WithField("removed", removed).Debug("Swept expired cache entries")
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *MarketCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
