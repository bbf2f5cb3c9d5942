package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultKeyPrefix     = "ordercalc:difference:"
	defaultRedisTTL      = time.Hour
	defaultScanBatchSize = 100
	defaultPingTimeout   = 5 * time.Second
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisDifferenceCache implements ordercalc.DifferenceCache using Redis. Differences are
// stored as JSON under <prefix><order>:<old version>:<new version>.
type RedisDifferenceCache struct {
	client     *redis.Client
	ownsClient bool
	keyPrefix  string
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisDifferenceCacheOption is a functional option for configuring the cache
type RedisDifferenceCacheOption func(*RedisDifferenceCache)

// WithKeyPrefix sets the prefix of every key written by the cache
func WithKeyPrefix(prefix string) RedisDifferenceCacheOption {
	return func(c *RedisDifferenceCache) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithRedisTTL sets the expiry of cached differences
func WithRedisTTL(ttl time.Duration) RedisDifferenceCacheOption {
	return func(c *RedisDifferenceCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithRedisLogger sets the logger for the cache
func WithRedisLogger(logger *zap.Logger) RedisDifferenceCacheOption {
	return func(c *RedisDifferenceCache) {
		c.logger = logger
	}
}

// NewRedisClient creates a client and checks that the server answers
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewRedisDifferenceCache connects to Redis and creates a cache owning the client
func NewRedisDifferenceCache(ctx context.Context, cfg RedisConfig, opts ...RedisDifferenceCacheOption) (*RedisDifferenceCache, error) {
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cache := NewRedisDifferenceCacheWithClient(client, opts...)
	cache.ownsClient = true
	return cache, nil
}

// NewRedisDifferenceCacheWithClient creates a cache on a shared client. The caller keeps
// ownership of the client.
func NewRedisDifferenceCacheWithClient(client *redis.Client, opts ...RedisDifferenceCacheOption) *RedisDifferenceCache {
	cache := &RedisDifferenceCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       defaultRedisTTL,
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Name returns the store name used in metrics
func (c *RedisDifferenceCache) Name() string {
	return StoreRedis
}

func (c *RedisDifferenceCache) cacheKey(key ordercalc.DifferenceKey) string {
	return c.keyPrefix + key.String()
}

func (c *RedisDifferenceCache) orderPattern(orderID uuid.UUID) string {
	return c.keyPrefix + orderID.String() + ":*"
}

// Get retrieves a difference. Corrupted entries are deleted and reported as errors.
func (c *RedisDifferenceCache) Get(ctx context.Context, key ordercalc.DifferenceKey) (*ordercalc.CalculatableOrder, bool, error) {
	cacheKey := c.cacheKey(key)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss for order difference", zap.String("key", cacheKey))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get order difference from cache: %w", err)
	}

	var difference ordercalc.CalculatableOrder
	if err := json.Unmarshal(data, &difference); err != nil {
		c.logger.Error("Failed to unmarshal cached order difference",
			zap.String("key", cacheKey),
			zap.Error(err))
		_ = c.client.Del(ctx, cacheKey)
		return nil, false, fmt.Errorf("failed to unmarshal order difference: %w", err)
	}

	c.logger.Debug("Cache hit for order difference", zap.String("key", cacheKey))
	return &difference, true, nil
}

// Set stores a difference with the configured TTL
func (c *RedisDifferenceCache) Set(ctx context.Context, key ordercalc.DifferenceKey, difference *ordercalc.CalculatableOrder) error {
	if difference == nil {
		return nil
	}

	data, err := json.Marshal(difference)
	if err != nil {
		return fmt.Errorf("failed to marshal order difference: %w", err)
	}

	cacheKey := c.cacheKey(key)
	if err := c.client.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set order difference in cache: %w", err)
	}

	c.logger.Debug("Cached order difference",
		zap.String("key", cacheKey),
		zap.Duration("ttl", c.ttl))
	return nil
}

// InvalidateOrder deletes every difference of the order using SCAN
func (c *RedisDifferenceCache) InvalidateOrder(ctx context.Context, orderID uuid.UUID) error {
	pattern := c.orderPattern(orderID)
	var (
		cursor  uint64
		deleted int64
	)

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan order differences: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete order differences: %w", err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("Invalidated order differences",
		zap.String("order_id", orderID.String()),
		zap.Int64("deleted", deleted))
	return nil
}

// Ping checks the connection to Redis
func (c *RedisDifferenceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client when the cache owns it
func (c *RedisDifferenceCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ Store = (*RedisDifferenceCache)(nil)
