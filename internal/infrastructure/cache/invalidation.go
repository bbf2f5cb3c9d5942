package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultInvalidationChannel = "ordercalc:difference:invalidate"
	defaultCloseTimeout        = 5 * time.Second
)

// ErrSubscriptionRunning is returned by Subscribe when a subscription is already active
var ErrSubscriptionRunning = errors.New("subscription already running")

// InvalidationMessage announces that the cached differences of an order are stale
type InvalidationMessage struct {
	OrderID   uuid.UUID `json:"orderId"`
	Timestamp int64     `json:"timestamp"`
}

// Invalidator broadcasts order invalidations between service instances
type Invalidator interface {
	Publish(ctx context.Context, orderID uuid.UUID) error
	// Subscribe blocks until ctx is done, calling fn for every received invalidation
	Subscribe(ctx context.Context, fn func(orderID uuid.UUID)) error
	Close() error
}

// RedisInvalidator implements Invalidator using Redis Pub/Sub
type RedisInvalidator struct {
	client    *redis.Client
	channel   string
	logger    *zap.Logger
	cancelFn  context.CancelFunc
	doneCh    chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
	isRunning bool
}

// RedisInvalidatorOption is a functional option for configuring the invalidator
type RedisInvalidatorOption func(*RedisInvalidator)

// WithInvalidationChannel sets the Pub/Sub channel name
func WithInvalidationChannel(channel string) RedisInvalidatorOption {
	return func(i *RedisInvalidator) {
		if channel != "" {
			i.channel = channel
		}
	}
}

// WithInvalidatorLogger sets the logger for the invalidator
func WithInvalidatorLogger(logger *zap.Logger) RedisInvalidatorOption {
	return func(i *RedisInvalidator) {
		i.logger = logger
	}
}

// NewRedisInvalidator creates an invalidator on a shared client. The caller keeps ownership
// of the client.
func NewRedisInvalidator(client *redis.Client, opts ...RedisInvalidatorOption) *RedisInvalidator {
	invalidator := &RedisInvalidator{
		client:  client,
		channel: defaultInvalidationChannel,
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(invalidator)
	}

	return invalidator
}

// Publish announces that the differences of orderID are stale
func (i *RedisInvalidator) Publish(ctx context.Context, orderID uuid.UUID) error {
	data, err := json.Marshal(InvalidationMessage{OrderID: orderID, Timestamp: time.Now().UnixNano()})
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation message: %w", err)
	}

	i.logger.Debug("Published order difference invalidation",
		zap.String("order_id", orderID.String()),
		zap.String("channel", i.channel))
	return nil
}

// Subscribe listens for invalidations until ctx is done or Close is called
func (i *RedisInvalidator) Subscribe(ctx context.Context, fn func(orderID uuid.UUID)) error {
	i.mu.Lock()
	if i.isRunning {
		i.mu.Unlock()
		return ErrSubscriptionRunning
	}
	i.isRunning = true
	subCtx, cancel := context.WithCancel(ctx)
	i.cancelFn = cancel
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.isRunning = false
		i.mu.Unlock()
		i.doneOnce.Do(func() { close(i.doneCh) })
	}()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", i.channel, err)
	}

	i.logger.Info("Subscribed to order difference invalidations", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			i.logger.Info("Order difference invalidation subscription stopped")
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				i.logger.Warn("Order difference invalidation channel closed")
				return nil
			}

			var message InvalidationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
				i.logger.Error("Failed to unmarshal invalidation message",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			i.dispatch(fn, message.OrderID)
		}
	}
}

// dispatch calls fn, recovering from panics so one bad callback does not end the subscription
func (i *RedisInvalidator) dispatch(fn func(orderID uuid.UUID), orderID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("Panic in invalidation callback", zap.Any("panic", r))
		}
	}()
	fn(orderID)
}

// Close stops a running subscription
func (i *RedisInvalidator) Close() error {
	i.mu.Lock()
	cancelFn := i.cancelFn
	i.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-i.doneCh:
		case <-time.After(defaultCloseTimeout):
			i.logger.Warn("Timeout waiting for invalidation subscription to stop")
		}
	}
	return nil
}

var _ Invalidator = (*RedisInvalidator)(nil)
