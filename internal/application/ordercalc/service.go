// Package ordercalc exposes the order calculation core to the transport layer. It adds
// difference caching, tracing, metrics and logging around the domain calculator.
package ordercalc

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/erp/ordercalc/internal/domain/shared"
	"github.com/erp/ordercalc/internal/infrastructure/logger"
	"github.com/erp/ordercalc/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names used for spans, metrics and profiling labels.
const (
	OperationCalculateDifference = "calculate_order_difference"
	OperationMergeOrders         = "merge_orders"
	OperationNegateOrder         = "negate_order"
	OperationInvalidateCache     = "invalidate_difference_cache"
)

const (
	tracingService    = "order_calculation"
	internalErrorCode = "INTERNAL"
)

// OrderCalculationAppService handles order calculation use cases
type OrderCalculationAppService struct {
	calculator *ordercalc.OrderDifferenceCalculator
	calc       *ordercalc.OrderCalculationService
	cache      ordercalc.DifferenceCache
	cacheStore string
	metrics    *telemetry.CalculationMetrics
	logger     *zap.Logger
}

// Option configures an OrderCalculationAppService
type Option func(*OrderCalculationAppService)

// WithDifferenceCache caches draft version differences in cache. store names the cache
// implementation in metrics.
func WithDifferenceCache(cache ordercalc.DifferenceCache, store string) Option {
	return func(s *OrderCalculationAppService) {
		s.cache = cache
		s.cacheStore = store
	}
}

// WithMetrics records calculation metrics
func WithMetrics(metrics *telemetry.CalculationMetrics) Option {
	return func(s *OrderCalculationAppService) {
		s.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *OrderCalculationAppService) {
		s.logger = logger
	}
}

// NewOrderCalculationAppService creates a new OrderCalculationAppService
func NewOrderCalculationAppService(factory ordercalc.CalculatableOrderFactory, opts ...Option) *OrderCalculationAppService {
	calc := ordercalc.NewOrderCalculationService()
	s := &OrderCalculationAppService{
		calculator: ordercalc.NewOrderDifferenceCalculator(factory, calc),
		calc:       calc,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateOrderDifference returns the financial change of an order between two versions.
// Differences between two draft versions are served from the cache when one is configured.
func (s *OrderCalculationAppService) CalculateOrderDifference(ctx context.Context, orderID, oldVersionID, newVersionID uuid.UUID) (*OrderDifferenceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, tracingService, OperationCalculateDifference)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrOldVersionID, oldVersionID.String(),
		telemetry.SpanAttrNewVersionID, newVersionID.String(),
	)

	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("order_id", orderID.String()),
		zap.String("old_version_id", oldVersionID.String()),
		zap.String("new_version_id", newVersionID.String()),
	)

	key := ordercalc.DifferenceKey{OrderID: orderID, OldVersionID: oldVersionID, NewVersionID: newVersionID}
	if difference, ok := s.lookupDifference(ctx, key, log); ok {
		telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit, true)
		telemetry.SetOK(span)
		log.Debug("Order difference served from cache")
		return newOrderDifferenceResponse(key, difference, true), nil
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit, false)

	start := time.Now()
	var (
		difference *ordercalc.CalculatableOrder
		err        error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(OperationCalculateDifference), func(c context.Context) {
		difference, err = s.calculator.CalculateOrderDifference(c, orderID, oldVersionID, newVersionID)
	})
	s.metrics.RecordCalculation(ctx, OperationCalculateDifference, time.Since(start), errorCode(err))
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("Failed to calculate order difference", zap.Error(err))
		return nil, err
	}
	s.metrics.RecordLineItems(ctx, OperationCalculateDifference, len(difference.LineItems))

	s.storeDifference(ctx, key, difference, log)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrLineItemCount, len(difference.LineItems),
		telemetry.SpanAttrTotalPrice, difference.Price.TotalPrice.String(),
	)
	telemetry.SetOK(span)
	log.Info("Order difference calculated",
		zap.Int("line_items", len(difference.LineItems)),
		zap.String("total_price", difference.Price.TotalPrice.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return newOrderDifferenceResponse(key, difference, false), nil
}

// lookupDifference reads a cacheable difference. Cache failures count as a miss.
func (s *OrderCalculationAppService) lookupDifference(ctx context.Context, key ordercalc.DifferenceKey, log *logger.ContextLogger) (*ordercalc.CalculatableOrder, bool) {
	if s.cache == nil || !key.Cacheable() {
		return nil, false
	}
	difference, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn("Failed to read order difference from cache", zap.Error(err))
		ok = false
	}
	s.metrics.RecordCacheLookup(ctx, s.cacheStore, ok)
	return difference, ok
}

func (s *OrderCalculationAppService) storeDifference(ctx context.Context, key ordercalc.DifferenceKey, difference *ordercalc.CalculatableOrder, log *logger.ContextLogger) {
	if s.cache == nil || !key.Cacheable() {
		return
	}
	if err := s.cache.Set(ctx, key, difference); err != nil {
		log.Warn("Failed to cache order difference", zap.Error(err))
	}
}

// MergeOrders merges req.Orders into req.Base
func (s *OrderCalculationAppService) MergeOrders(ctx context.Context, req MergeOrdersRequest) (*CalculatableOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, tracingService, OperationMergeOrders)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderCount, len(req.Orders)+1)

	base, err := ToDomainOrder(req.Base)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	orders := make([]*ordercalc.CalculatableOrder, 0, len(req.Orders))
	for i, dto := range req.Orders {
		order, err := ToDomainOrder(dto)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		orders = append(orders, order)
	}

	start := time.Now()
	var merged *ordercalc.CalculatableOrder
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(OperationMergeOrders), func(context.Context) {
		merged, err = s.calc.MergeOrders(base, orders...)
	})
	s.metrics.RecordCalculation(ctx, OperationMergeOrders, time.Since(start), errorCode(err))
	if err != nil {
		telemetry.RecordError(span, err)
		logger.WithLogger(ctx, s.logger).Warn("Failed to merge orders",
			zap.Int("orders", len(orders)+1),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.RecordLineItems(ctx, OperationMergeOrders, len(merged.LineItems))

	telemetry.SetAttributes(span, telemetry.SpanAttrLineItemCount, len(merged.LineItems))
	telemetry.SetOK(span)
	return &CalculatableOrderResponse{
		Order:   ToCalculatableOrderDTO(merged),
		IsEmpty: merged.IsEmpty(),
	}, nil
}

// NegateOrder returns the arithmetic inverse of req.Order
func (s *OrderCalculationAppService) NegateOrder(ctx context.Context, req NegateOrderRequest) (*CalculatableOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, tracingService, OperationNegateOrder)
	defer span.End()

	order, err := ToDomainOrder(req.Order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	start := time.Now()
	negated, err := order.Negated()
	s.metrics.RecordCalculation(ctx, OperationNegateOrder, time.Since(start), errorCode(err))
	if err != nil {
		telemetry.RecordError(span, err)
		logger.WithLogger(ctx, s.logger).Warn("Failed to negate order", zap.Error(err))
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrLineItemCount, len(negated.LineItems))
	telemetry.SetOK(span)
	return &CalculatableOrderResponse{
		Order:   ToCalculatableOrderDTO(negated),
		IsEmpty: negated.IsEmpty(),
	}, nil
}

// InvalidateDifferences drops every cached difference of an order. It is a no-op when no
// cache is configured.
func (s *OrderCalculationAppService) InvalidateDifferences(ctx context.Context, orderID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	ctx, span := telemetry.StartServiceSpan(ctx, tracingService, OperationInvalidateCache)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())

	if err := s.cache.InvalidateOrder(ctx, orderID); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to invalidate differences of order %s: %w", orderID, err)
	}
	telemetry.SetOK(span)
	logger.WithLogger(ctx, s.logger).Info("Order differences invalidated", zap.String("order_id", orderID.String()))
	return nil
}

func newOrderDifferenceResponse(key ordercalc.DifferenceKey, difference *ordercalc.CalculatableOrder, cached bool) *OrderDifferenceResponse {
	return &OrderDifferenceResponse{
		OrderID:      key.OrderID,
		OldVersionID: key.OldVersionID,
		NewVersionID: key.NewVersionID,
		Difference:   ToCalculatableOrderDTO(difference),
		IsEmpty:      difference.IsEmpty(),
		Cached:       cached,
	}
}

// errorCode maps err to a low cardinality metric label
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if domainErr, ok := shared.AsDomainError(err); ok {
		return domainErr.Code
	}
	return internalErrorCode
}
