package cache

import (
	"context"
	"sync/atomic"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TieredDifferenceCache implements a two-tier caching strategy
// L1: in-memory cache, local to the instance
// L2: shared cache, usually Redis
// Reads go L1 -> L2 and populate L1. Invalidations clear both tiers here and are broadcast
// so other instances clear their L1.
type TieredDifferenceCache struct {
	l1          *InMemoryDifferenceCache
	l2          ordercalc.DifferenceCache
	invalidator Invalidator
	logger      *zap.Logger

	l1Hits   int64
	l1Misses int64
	l2Hits   int64
	l2Misses int64
}

// TieredDifferenceCacheOption is a functional option for configuring the cache
type TieredDifferenceCacheOption func(*TieredDifferenceCache)

// WithTieredLogger sets the logger for the cache
func WithTieredLogger(logger *zap.Logger) TieredDifferenceCacheOption {
	return func(c *TieredDifferenceCache) {
		c.logger = logger
	}
}

// NewTieredDifferenceCache creates a tiered cache. invalidator may be nil for a single
// instance.
func NewTieredDifferenceCache(l1 *InMemoryDifferenceCache, l2 ordercalc.DifferenceCache, invalidator Invalidator, opts ...TieredDifferenceCacheOption) *TieredDifferenceCache {
	cache := &TieredDifferenceCache{
		l1:          l1,
		l2:          l2,
		invalidator: invalidator,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Name returns the store name used in metrics
func (c *TieredDifferenceCache) Name() string {
	return StoreTiered
}

// StartInvalidationSubscription evicts L1 entries announced by other instances. It blocks
// until ctx is done and should run in its own goroutine.
func (c *TieredDifferenceCache) StartInvalidationSubscription(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}

	return c.invalidator.Subscribe(ctx, func(orderID uuid.UUID) {
		if err := c.l1.InvalidateOrder(context.Background(), orderID); err != nil {
			c.logger.Error("Failed to invalidate L1 order differences",
				zap.String("order_id", orderID.String()),
				zap.Error(err))
		}
	})
}

// Get retrieves a difference (L1 -> L2)
func (c *TieredDifferenceCache) Get(ctx context.Context, key ordercalc.DifferenceKey) (*ordercalc.CalculatableOrder, bool, error) {
	if difference, ok, _ := c.l1.Get(ctx, key); ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return difference, true, nil
	}
	atomic.AddInt64(&c.l1Misses, 1)

	difference, ok, err := c.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		atomic.AddInt64(&c.l2Misses, 1)
		return nil, false, nil
	}

	atomic.AddInt64(&c.l2Hits, 1)
	if err := c.l1.Set(ctx, key, difference); err != nil {
		c.logger.Warn("Failed to populate L1 cache", zap.String("key", key.String()), zap.Error(err))
	}
	return difference, true, nil
}

// Set stores a difference in both tiers
func (c *TieredDifferenceCache) Set(ctx context.Context, key ordercalc.DifferenceKey, difference *ordercalc.CalculatableOrder) error {
	if err := c.l2.Set(ctx, key, difference); err != nil {
		return err
	}
	if err := c.l1.Set(ctx, key, difference); err != nil {
		c.logger.Warn("Failed to set L1 cache", zap.String("key", key.String()), zap.Error(err))
	}
	return nil
}

// InvalidateOrder clears both tiers and tells other instances to clear their L1
func (c *TieredDifferenceCache) InvalidateOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := c.l2.InvalidateOrder(ctx, orderID); err != nil {
		return err
	}
	if err := c.l1.InvalidateOrder(ctx, orderID); err != nil {
		c.logger.Warn("Failed to invalidate L1 cache", zap.String("order_id", orderID.String()), zap.Error(err))
	}

	if c.invalidator != nil {
		if err := c.invalidator.Publish(ctx, orderID); err != nil {
			c.logger.Warn("Failed to publish order difference invalidation",
				zap.String("order_id", orderID.String()),
				zap.Error(err))
		}
	}
	return nil
}

// GetStats returns hit and miss counts per tier
func (c *TieredDifferenceCache) GetStats() (l1Hits, l1Misses, l2Hits, l2Misses int64) {
	return atomic.LoadInt64(&c.l1Hits),
		atomic.LoadInt64(&c.l1Misses),
		atomic.LoadInt64(&c.l2Hits),
		atomic.LoadInt64(&c.l2Misses)
}

// Ping checks the shared tier. L1 is in-process and always reachable.
func (c *TieredDifferenceCache) Ping(ctx context.Context) error {
	if pinger, ok := c.l2.(interface{ Ping(context.Context) error }); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// Close stops the subscription and closes both tiers
func (c *TieredDifferenceCache) Close() error {
	if c.invalidator != nil {
		if err := c.invalidator.Close(); err != nil {
			c.logger.Warn("Failed to close invalidator", zap.Error(err))
		}
	}
	if err := c.l1.Close(); err != nil {
		return err
	}
	if closer, ok := c.l2.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

var _ Store = (*TieredDifferenceCache)(nil)
