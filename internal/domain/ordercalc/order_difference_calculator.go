package ordercalc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// OrderDifferenceCalculator computes the financial change between two versions of an order,
// taking the return orders of both versions into account
type OrderDifferenceCalculator struct {
	factory CalculatableOrderFactory
	service *OrderCalculationService
}

// NewOrderDifferenceCalculator creates a new OrderDifferenceCalculator
func NewOrderDifferenceCalculator(factory CalculatableOrderFactory, service *OrderCalculationService) *OrderDifferenceCalculator {
	if service == nil {
		service = NewOrderCalculationService()
	}
	return &OrderDifferenceCalculator{
		factory: factory,
		service: service,
	}
}

// CalculateOrderDifference returns (new - newReturns) - (old - oldReturns) as a single order
func (c *OrderDifferenceCalculator) CalculateOrderDifference(
	ctx context.Context,
	orderID, oldVersionID, newVersionID uuid.UUID,
) (*CalculatableOrder, error) {
	oldOrder, err := c.factory.CreateCalculatableOrderFromOrder(ctx, orderID, oldVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order at old version: %w", err)
	}
	newOrder, err := c.factory.CreateCalculatableOrderFromOrder(ctx, orderID, newVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order at new version: %w", err)
	}
	oldReturnOrders, err := c.factory.CreateCalculatableOrdersFromReturnOrdersOfOrder(ctx, orderID, oldVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load return orders at old version: %w", err)
	}
	newReturnOrders, err := c.factory.CreateCalculatableOrdersFromReturnOrdersOfOrder(ctx, orderID, newVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load return orders at new version: %w", err)
	}

	negatedOldOrder, err := oldOrder.Negated()
	if err != nil {
		return nil, err
	}

	orders := make([]*CalculatableOrder, 0, 1+len(newReturnOrders)+len(oldReturnOrders))
	orders = append(orders, negatedOldOrder)
	for _, returnOrder := range newReturnOrders {
		negated, err := returnOrder.Negated()
		if err != nil {
			return nil, err
		}
		orders = append(orders, negated)
	}
	orders = append(orders, oldReturnOrders...)

	return c.service.MergeOrders(newOrder, orders...)
}
