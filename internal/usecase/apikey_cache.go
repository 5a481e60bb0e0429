package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/josefe-ing/storepulse/internal/adapter/metrics"
	"github.com/josefe-ing/storepulse/internal/domain"
)

type cacheEntry struct {
	authCtx   domain.AuthContext
	expiresAt time.Time
}

// APIKeyCache is a TTL-bounded cache in front of the API key verifier, keyed
// by credential digest. It is process-local shared state: created at startup,
// lives for the process lifetime, guarded by a single RWMutex.
//
// The staleness bound is exactly the TTL. A tenant or store deactivated
// mid-window may keep authorizing until its entry expires; this is the
// documented trade-off between revocation latency and verification cost and
// must not be tightened or loosened silently. Only successful verifications
// are ever cached, so a transient outage or a guessed key never becomes a
// cached denial.
type APIKeyCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	metrics *metrics.AuthMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewAPIKeyCache creates an empty cache with the given TTL. Metrics may be
// nil.
func NewAPIKeyCache(ttl time.Duration, m *metrics.AuthMetrics, logger *slog.Logger) *APIKeyCache {
	return &APIKeyCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		metrics: m,
		logger:  logger.With("component", "apikey_cache"),
		now:     time.Now,
	}
}

// Get returns the cached context for a digest. An entry older than the TTL is
// treated as a miss; it is not purged here, the next successful verify
// overwrites it.
func (c *APIKeyCache) Get(digest string) (domain.AuthContext, bool) {
	c.mu.RLock()
	entry, found := c.entries[digest]
	c.mu.RUnlock()

	if found && c.now().Before(entry.expiresAt) {
		if c.metrics != nil {
			c.metrics.APIKeyCacheHits.Inc()
		}
		return entry.authCtx, true
	}

	if c.metrics != nil {
		c.metrics.APIKeyCacheMisses.Inc()
	}
	return domain.AuthContext{}, false
}

// Put stores a successfully resolved context with expiry now + TTL.
// Concurrent writers for the same digest agree on the value, so a racing
// overwrite is harmless.
func (c *APIKeyCache) Put(digest string, authCtx domain.AuthContext) {
	c.mu.Lock()
	c.entries[digest] = cacheEntry{
		authCtx:   authCtx,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Len returns the number of entries currently held, expired or not.
func (c *APIKeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartSweeper evicts expired entries periodically. Lazy eviction on read is
// enough for correctness; the sweep only bounds memory.
func (c *APIKeyCache) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := c.sweep()
			if removed > 0 {
				c.logger.Debug("evicted expired cache entries", "count", removed)
			}
		}
	}
}

func (c *APIKeyCache) sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for digest, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, digest)
			removed++
		}
	}
	return removed
}
