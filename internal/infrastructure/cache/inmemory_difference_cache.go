package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultCleanupInterval = 30 * time.Second
	defaultInMemoryTTL     = 5 * time.Minute
)

// InMemoryDifferenceCache implements ordercalc.DifferenceCache in process memory. It is
// used alone when Redis is disabled or unreachable, and as L1 in front of Redis.
type InMemoryDifferenceCache struct {
	entries sync.Map // map[string]*cacheEntry[ordercalc.CalculatableOrder]
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     *T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryDifferenceCacheOption is a functional option for configuring the cache
type InMemoryDifferenceCacheOption func(*InMemoryDifferenceCache)

// WithInMemoryTTL sets how long entries are kept
func WithInMemoryTTL(ttl time.Duration) InMemoryDifferenceCacheOption {
	return func(c *InMemoryDifferenceCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryDifferenceCacheOption {
	return func(c *InMemoryDifferenceCache) {
		c.logger = logger
	}
}

// NewInMemoryDifferenceCache creates a new in-memory cache and starts its cleanup goroutine.
// Close stops it.
func NewInMemoryDifferenceCache(opts ...InMemoryDifferenceCacheOption) *InMemoryDifferenceCache {
	cache := &InMemoryDifferenceCache{
		ttl:    defaultInMemoryTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanupExpired()

	return cache
}

// Name returns the store name used in metrics
func (c *InMemoryDifferenceCache) Name() string {
	return StoreMemory
}

// Get returns a copy of the cached difference
func (c *InMemoryDifferenceCache) Get(ctx context.Context, key ordercalc.DifferenceKey) (*ordercalc.CalculatableOrder, bool, error) {
	cacheKey := key.String()

	if value, ok := c.entries.Load(cacheKey); ok {
		entry := value.(*cacheEntry[ordercalc.CalculatableOrder])
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("Memory cache hit for order difference", zap.String("key", cacheKey))
			return entry.value.Clone(), true, nil
		}
		c.entries.Delete(cacheKey)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("Memory cache miss for order difference", zap.String("key", cacheKey))
	return nil, false, nil
}

// Set stores a copy of difference
func (c *InMemoryDifferenceCache) Set(ctx context.Context, key ordercalc.DifferenceKey, difference *ordercalc.CalculatableOrder) error {
	if difference == nil {
		return nil
	}

	c.entries.Store(key.String(), &cacheEntry[ordercalc.CalculatableOrder]{
		value:     difference.Clone(),
		expiresAt: time.Now().Add(c.ttl),
	})
	c.logger.Debug("Cached order difference in memory",
		zap.String("key", key.String()),
		zap.Duration("ttl", c.ttl))
	return nil
}

// InvalidateOrder drops every cached difference of the order
func (c *InMemoryDifferenceCache) InvalidateOrder(ctx context.Context, orderID uuid.UUID) error {
	prefix := orderID.String() + ":"
	removed := 0
	c.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	c.logger.Debug("Invalidated order differences in memory",
		zap.String("order_id", orderID.String()),
		zap.Int("removed", removed))
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemoryDifferenceCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryDifferenceCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries in the cache, expired ones included
func (c *InMemoryDifferenceCache) Count() int {
	count := 0
	c.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (c *InMemoryDifferenceCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.doCleanup()
		}
	}
}

// doCleanup removes expired entries
func (c *InMemoryDifferenceCache) doCleanup() {
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry[ordercalc.CalculatableOrder]).isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("Cleaned up expired order differences", zap.Int("removed", removed))
	}
}

var _ Store = (*InMemoryDifferenceCache)(nil)
