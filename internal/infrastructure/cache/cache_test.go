package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/erp/ordercalc/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func newDifference(total int64) *ordercalc.CalculatableOrder {
	amount := decimal.NewFromInt(total)
	price := ordercalc.NewCartPrice(
		amount, amount, amount,
		ordercalc.NewCalculatedTaxCollection(),
		ordercalc.NewTaxRuleCollection(),
		ordercalc.TaxStatusGross,
		amount,
	)
	item := ordercalc.CalculatableOrderLineItem{
		Label:    "Shirt",
		Price:    ordercalc.NewCalculatedPrice(amount, amount, ordercalc.NewCalculatedTaxCollection(), ordercalc.NewTaxRuleCollection(), 1),
		Quantity: 1,
		Type:     ordercalc.LineItemTypeProduct,
	}
	return ordercalc.NewCalculatableOrder([]ordercalc.CalculatableOrderLineItem{item}, price, ordercalc.ZeroShippingCosts())
}

func newKey(orderID uuid.UUID) ordercalc.DifferenceKey {
	return ordercalc.DifferenceKey{OrderID: orderID, OldVersionID: uuid.New(), NewVersionID: uuid.New()}
}

func TestInMemoryDifferenceCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		cache := NewInMemoryDifferenceCache()
		defer cache.Close()
		key := newKey(uuid.New())

		got, ok, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)

		require.NoError(t, cache.Set(ctx, key, newDifference(-10)))

		got, ok, err = cache.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Price.TotalPrice.Equal(decimal.NewFromInt(-10)))

		hits, misses := cache.GetStats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("returns copies", func(t *testing.T) {
		cache := NewInMemoryDifferenceCache()
		defer cache.Close()
		key := newKey(uuid.New())
		difference := newDifference(5)

		require.NoError(t, cache.Set(ctx, key, difference))
		difference.LineItems[0].Label = "changed after set"

		got, ok, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Shirt", got.LineItems[0].Label)

		got.LineItems[0].Label = "changed after get"
		again, _, _ := cache.Get(ctx, key)
		assert.Equal(t, "Shirt", again.LineItems[0].Label)
	})

	t.Run("nil difference is not stored", func(t *testing.T) {
		cache := NewInMemoryDifferenceCache()
		defer cache.Close()

		require.NoError(t, cache.Set(ctx, newKey(uuid.New()), nil))
		assert.Equal(t, 0, cache.Count())
	})

	t.Run("entries expire", func(t *testing.T) {
		cache := NewInMemoryDifferenceCache(WithInMemoryTTL(10 * time.Millisecond))
		defer cache.Close()
		key := newKey(uuid.New())

		require.NoError(t, cache.Set(ctx, key, newDifference(1)))
		time.Sleep(20 * time.Millisecond)

		_, ok, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cleanup removes expired entries", func(t *testing.T) {
		cache := NewInMemoryDifferenceCache(WithInMemoryTTL(10 * time.Millisecond))
		defer cache.Close()

		require.NoError(t, cache.Set(ctx, newKey(uuid.New()), newDifference(1)))
		require.NoError(t, cache.Set(ctx, newKey(uuid.New()), newDifference(2)))
		time.Sleep(20 * time.Millisecond)

		cache.doCleanup()
		assert.Equal(t, 0, cache.Count())
	})

	t.Run("invalidates only the given order", func(t *testing.T) {
		cache := NewInMemoryDifferenceCache()
		defer cache.Close()
		orderA, orderB := uuid.New(), uuid.New()
		keyA1, keyA2, keyB := newKey(orderA), newKey(orderA), newKey(orderB)

		for _, key := range []ordercalc.DifferenceKey{keyA1, keyA2, keyB} {
			require.NoError(t, cache.Set(ctx, key, newDifference(1)))
		}

		require.NoError(t, cache.InvalidateOrder(ctx, orderA))

		_, ok, _ := cache.Get(ctx, keyA1)
		assert.False(t, ok)
		_, ok, _ = cache.Get(ctx, keyA2)
		assert.False(t, ok)
		_, ok, _ = cache.Get(ctx, keyB)
		assert.True(t, ok)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		cache := NewInMemoryDifferenceCache()
		assert.NoError(t, cache.Close())
		assert.NoError(t, cache.Close())
		assert.Equal(t, StoreMemory, cache.Name())
	})
}

// fakeInvalidator records publishes and hands the subscription callback to the test
type fakeInvalidator struct {
	mu        sync.Mutex
	published []uuid.UUID
	callback  chan func(uuid.UUID)
	closed    bool
}

func newFakeInvalidator() *fakeInvalidator {
	return &fakeInvalidator{callback: make(chan func(uuid.UUID), 1)}
}

func (f *fakeInvalidator) Publish(_ context.Context, orderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, orderID)
	return nil
}

func (f *fakeInvalidator) Subscribe(ctx context.Context, fn func(orderID uuid.UUID)) error {
	f.callback <- fn
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeInvalidator) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestTieredDifferenceCache(t *testing.T) {
	ctx := context.Background()

	newTiered := func(t *testing.T) (*TieredDifferenceCache, *InMemoryDifferenceCache, *InMemoryDifferenceCache, *fakeInvalidator) {
		l1 := NewInMemoryDifferenceCache()
		l2 := NewInMemoryDifferenceCache()
		invalidator := newFakeInvalidator()
		tiered := NewTieredDifferenceCache(l1, l2, invalidator)
		t.Cleanup(func() { _ = tiered.Close() })
		return tiered, l1, l2, invalidator
	}

	t.Run("L2 hit populates L1", func(t *testing.T) {
		tiered, l1, l2, _ := newTiered(t)
		key := newKey(uuid.New())
		require.NoError(t, l2.Set(ctx, key, newDifference(3)))

		got, ok, err := tiered.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Price.TotalPrice.Equal(decimal.NewFromInt(3)))

		_, ok, _ = l1.Get(ctx, key)
		assert.True(t, ok)

		_, ok, err = tiered.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)

		l1Hits, l1Misses, l2Hits, l2Misses := tiered.GetStats()
		assert.Equal(t, int64(1), l1Hits)
		assert.Equal(t, int64(1), l1Misses)
		assert.Equal(t, int64(1), l2Hits)
		assert.Equal(t, int64(0), l2Misses)
	})

	t.Run("miss in both tiers", func(t *testing.T) {
		tiered, _, _, _ := newTiered(t)

		_, ok, err := tiered.Get(ctx, newKey(uuid.New()))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set writes both tiers", func(t *testing.T) {
		tiered, l1, l2, _ := newTiered(t)
		key := newKey(uuid.New())

		require.NoError(t, tiered.Set(ctx, key, newDifference(7)))

		_, ok, _ := l1.Get(ctx, key)
		assert.True(t, ok)
		_, ok, _ = l2.Get(ctx, key)
		assert.True(t, ok)
	})

	t.Run("invalidation clears both tiers and is broadcast", func(t *testing.T) {
		tiered, l1, l2, invalidator := newTiered(t)
		orderID := uuid.New()
		key := newKey(orderID)
		require.NoError(t, tiered.Set(ctx, key, newDifference(7)))

		require.NoError(t, tiered.InvalidateOrder(ctx, orderID))

		_, ok, _ := l1.Get(ctx, key)
		assert.False(t, ok)
		_, ok, _ = l2.Get(ctx, key)
		assert.False(t, ok)
		assert.Equal(t, []uuid.UUID{orderID}, invalidator.published)
	})

	t.Run("broadcast invalidations evict L1", func(t *testing.T) {
		tiered, l1, l2, invalidator := newTiered(t)
		orderID := uuid.New()
		key := newKey(orderID)
		require.NoError(t, tiered.Set(ctx, key, newDifference(7)))

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = tiered.StartInvalidationSubscription(subCtx) }()

		callback := <-invalidator.callback
		callback(orderID)

		_, ok, _ := l1.Get(ctx, key)
		assert.False(t, ok)
		// the publishing instance already cleared the shared tier
		_, ok, _ = l2.Get(ctx, key)
		assert.True(t, ok)
	})

	t.Run("close closes the invalidator", func(t *testing.T) {
		l1 := NewInMemoryDifferenceCache()
		invalidator := newFakeInvalidator()
		tiered := NewTieredDifferenceCache(l1, NewInMemoryDifferenceCache(), invalidator)

		require.NoError(t, tiered.Close())
		assert.True(t, invalidator.closed)
		assert.Equal(t, StoreTiered, tiered.Name())
	})

	t.Run("ping checks the shared tier", func(t *testing.T) {
		inMemory := NewTieredDifferenceCache(NewInMemoryDifferenceCache(), NewInMemoryDifferenceCache(), nil)
		assert.NoError(t, inMemory.Ping(ctx))

		client := redis.NewClient(&redis.Options{Addr: unreachableRedis.Addr(), MaxRetries: -1})
		defer client.Close()
		withRedis := NewTieredDifferenceCache(NewInMemoryDifferenceCache(), NewRedisDifferenceCacheWithClient(client), nil)
		assert.Error(t, withRedis.Ping(ctx))
	})
}

func TestRedisDifferenceCache(t *testing.T) {
	ctx := context.Background()

	t.Run("connect fails when Redis is unreachable", func(t *testing.T) {
		_, err := NewRedisDifferenceCache(ctx, RedisConfig{Host: unreachableRedis.Host, Port: unreachableRedis.Port})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "127.0.0.1:1")
	})

	t.Run("keys carry the prefix", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: unreachableRedis.Addr()})
		defer client.Close()
		cache := NewRedisDifferenceCacheWithClient(client, WithKeyPrefix("test:"), WithRedisTTL(time.Minute))

		orderID := uuid.New()
		key := newKey(orderID)
		assert.Equal(t, "test:"+key.String(), cache.cacheKey(key))
		assert.Equal(t, "test:"+orderID.String()+":*", cache.orderPattern(orderID))
		assert.Equal(t, time.Minute, cache.ttl)
		assert.Equal(t, StoreRedis, cache.Name())
	})

	t.Run("errors are reported", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: unreachableRedis.Addr(), MaxRetries: -1})
		defer client.Close()
		cache := NewRedisDifferenceCacheWithClient(client)

		_, ok, err := cache.Get(ctx, newKey(uuid.New()))
		assert.Error(t, err)
		assert.False(t, ok)
		assert.Error(t, cache.Set(ctx, newKey(uuid.New()), newDifference(1)))
		assert.Error(t, cache.InvalidateOrder(ctx, uuid.New()))
		assert.NoError(t, cache.Close(), "shared clients are not closed")
	})
}

func TestDifferenceCacheFactory(t *testing.T) {
	ctx := context.Background()
	cacheCfg := config.CacheConfig{Enabled: true, TTL: time.Hour, KeyPrefix: "ordercalc:difference:"}

	t.Run("in-memory without Redis", func(t *testing.T) {
		store, err := NewDifferenceCacheFactory(cacheCfg, unreachableRedis).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.Equal(t, StoreMemory, store.Name())
	})

	t.Run("falls back to in-memory when Redis is unreachable", func(t *testing.T) {
		cfg := cacheCfg
		cfg.UseRedis = true

		store, err := NewDifferenceCacheFactory(cfg, unreachableRedis).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.Equal(t, StoreMemory, store.Name())
	})

	t.Run("fails without fallback", func(t *testing.T) {
		cfg := cacheCfg
		cfg.UseRedis = true

		_, err := NewDifferenceCacheFactory(cfg, unreachableRedis, WithInMemoryFallback(false)).CreateStore(ctx)
		assert.Error(t, err)
	})
}
