// Package llmcache caches vendor LLM responses keyed by normalized prompt
// content, so repeated near-identical generation requests skip the vendor
// call entirely.
package llmcache

import (
	"context"
	"sync"
	"time"

	"learning-engine/internal/common/logger"
	"learning-engine/internal/common/metrics"
)

// Backend is a key/value store with TTL.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, response string, ttl time.Duration) error
	Reset(ctx context.Context) error
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRatio float64 `json:"hitRatio"`
}

// Cache fronts a durable backend with an in-memory fallback. Backend errors
// never fail a lookup; they downgrade to the fallback path.
type Cache struct {
	primary  Backend
	fallback Backend
	ttl      time.Duration

	mu     sync.Mutex
	hits   int64
	misses int64

	logger logger.Logger
}

// New builds a cache. primary may be nil, in which case the in-memory
// backend serves everything.
func New(primary Backend, maxSize int, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		primary:  primary,
		fallback: NewMemoryBackend(maxSize),
		ttl:      ttl,
		logger:   log.WithFields(map[string]interface{}{"component": "llmcache"}),
	}
}

// Get returns the cached response for the normalized tuple, if present and
// unexpired. Counters are updated on every lookup.
func (c *Cache) Get(ctx context.Context, promptText, systemPrompt, provider, model string) (string, bool) {
	key := Key(provider, model, promptText, systemPrompt)

	if c.primary != nil {
		response, found, err := c.primary.Get(ctx, key)
		if err == nil {
			c.record(found)
			return response, found
		}
		c.logger.Warn("cache backend error, falling back to memory", map[string]interface{}{
			"error": err,
		})
	}

	response, found, _ := c.fallback.Get(ctx, key)
	c.record(found)
	return response, found
}

// Set stores a successful response. Error responses are never cached.
func (c *Cache) Set(ctx context.Context, promptText, systemPrompt, provider, model, response string, isError bool) {
	if isError || response == "" {
		return
	}
	key := Key(provider, model, promptText, systemPrompt)

	if c.primary != nil {
		if err := c.primary.Set(ctx, key, response, c.ttl); err == nil {
			return
		} else {
			c.logger.Warn("cache backend write failed, using memory", map[string]interface{}{
				"error": err,
			})
		}
	}
	_ = c.fallback.Set(ctx, key, response, c.ttl)
}

// Reset clears both backends and the counters.
func (c *Cache) Reset(ctx context.Context) {
	if c.primary != nil {
		if err := c.primary.Reset(ctx); err != nil {
			c.logger.Warn("cache backend reset failed", map[string]interface{}{"error": err})
		}
	}
	_ = c.fallback.Reset(ctx)

	c.mu.Lock()
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
}

// Snapshot returns the current hit/miss counters and ratio.
func (c *Cache) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRatio = float64(c.hits) / float64(total)
	}
	return stats
}

func (c *Cache) record(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	if hit {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
}
