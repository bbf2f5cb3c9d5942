package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ordercalc/internal/infrastructure/config"
	"go.uber.org/zap"
)

// defaultL1TTL bounds how long an instance serves a difference another instance invalidated
// while Pub/Sub was down
const defaultL1TTL = time.Minute

// DifferenceCacheFactory creates difference caches based on configuration
type DifferenceCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DifferenceCacheFactoryOption is a functional option for configuring the factory
type DifferenceCacheFactoryOption func(*DifferenceCacheFactory)

// WithLogger sets the logger for the factory and the caches it creates
func WithLogger(logger *zap.Logger) DifferenceCacheFactoryOption {
	return func(f *DifferenceCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache when Redis is
// unavailable. Default is true.
func WithInMemoryFallback(allow bool) DifferenceCacheFactoryOption {
	return func(f *DifferenceCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDifferenceCacheFactory creates a new factory
func NewDifferenceCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...DifferenceCacheFactoryOption) *DifferenceCacheFactory {
	f := &DifferenceCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateInMemoryStore creates an in-memory cache. Instances do not share it, so an
// invalidation only reaches the instance that received it.
func (f *DifferenceCacheFactory) CreateInMemoryStore() *InMemoryDifferenceCache {
	return NewInMemoryDifferenceCache(
		WithInMemoryTTL(f.cacheConfig.TTL),
		WithInMemoryLogger(f.logger.Named("difference_cache")),
	)
}

// CreateTieredStore connects to Redis and creates an in-memory L1 in front of it. The
// caller must run StartInvalidationSubscription.
func (f *DifferenceCacheFactory) CreateTieredStore(ctx context.Context) (*TieredDifferenceCache, error) {
	client, err := NewRedisClient(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, err
	}

	logger := f.logger.Named("difference_cache")
	l2 := NewRedisDifferenceCacheWithClient(client,
		WithKeyPrefix(f.cacheConfig.KeyPrefix),
		WithRedisTTL(f.cacheConfig.TTL),
		WithRedisLogger(logger),
	)
	l2.ownsClient = true

	l1TTL := defaultL1TTL
	if f.cacheConfig.TTL > 0 && f.cacheConfig.TTL < l1TTL {
		l1TTL = f.cacheConfig.TTL
	}
	l1 := NewInMemoryDifferenceCache(WithInMemoryTTL(l1TTL), WithInMemoryLogger(logger))

	invalidator := NewRedisInvalidator(client,
		WithInvalidationChannel(f.cacheConfig.KeyPrefix+"invalidate"),
		WithInvalidatorLogger(logger),
	)

	return NewTieredDifferenceCache(l1, l2, invalidator, WithTieredLogger(logger)), nil
}

// CreateStore creates the store selected by configuration. With UseRedis it tries Redis
// first and falls back to in-memory when Redis is unreachable and fallback is allowed.
func (f *DifferenceCacheFactory) CreateStore(ctx context.Context) (Store, error) {
	if !f.cacheConfig.UseRedis {
		f.logger.Info("using in-memory order difference cache")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateTieredStore(ctx)
	if err == nil {
		f.logger.Info("using Redis order difference cache", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for order difference cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory order difference cache. "+
		"Invalidations will not reach other instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
