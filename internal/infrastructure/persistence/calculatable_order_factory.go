package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/erp/ordercalc/internal/domain/shared"
	"github.com/erp/ordercalc/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCalculatableOrderFactory implements ordercalc.CalculatableOrderFactory on the
// versioned order tables.
type GormCalculatableOrderFactory struct {
	db *gorm.DB
}

// NewGormCalculatableOrderFactory creates a new factory reading through db
func NewGormCalculatableOrderFactory(db *gorm.DB) *GormCalculatableOrderFactory {
	return &GormCalculatableOrderFactory{db: db}
}

// CreateCalculatableOrderFromOrder loads the order at versionID with its line items in
// position order.
func (f *GormCalculatableOrderFactory) CreateCalculatableOrderFromOrder(ctx context.Context, orderID, versionID uuid.UUID) (*ordercalc.CalculatableOrder, error) {
	db := f.db.WithContext(ctx)

	var order models.OrderModel
	if err := db.Where("id = ? AND version_id = ?", orderID, versionID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("order %s not found at version %s", orderID, versionID))
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}

	var lines []models.OrderLineItemModel
	if err := db.Where("order_id = ? AND version_id = ?", orderID, versionID).
		Order("position ASC").Order("id ASC").
		Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to load line items of order %s: %w", orderID, err)
	}

	price, err := order.ToCartPrice()
	if err != nil {
		return nil, err
	}
	shipping, err := order.ToShippingCosts()
	if err != nil {
		return nil, err
	}

	items := make([]ordercalc.CalculatableOrderLineItem, 0, len(lines))
	for i := range lines {
		item, err := lines[i].ToCalculatableLineItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return ordercalc.NewCalculatableOrder(items, price, shipping), nil
}

// CreateCalculatableOrdersFromReturnOrdersOfOrder loads the return orders of the order at
// versionID, skipping those whose state does not participate in calculation.
func (f *GormCalculatableOrderFactory) CreateCalculatableOrdersFromReturnOrdersOfOrder(ctx context.Context, orderID, versionID uuid.UUID) ([]*ordercalc.CalculatableOrder, error) {
	excluded := make([]string, 0, len(ordercalc.NonCalculatedReturnOrderStates()))
	for _, state := range ordercalc.NonCalculatedReturnOrderStates() {
		excluded = append(excluded, string(state))
	}

	var returnOrders []models.ReturnOrderModel
	if err := f.db.WithContext(ctx).
		Where("order_id = ? AND version_id = ?", orderID, versionID).
		Where("state NOT IN ?", excluded).
		Order("created_at ASC").Order("id ASC").
		Find(&returnOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to load return orders of order %s: %w", orderID, err)
	}

	orders := make([]*ordercalc.CalculatableOrder, 0, len(returnOrders))
	for i := range returnOrders {
		order, err := f.buildReturnOrder(ctx, &returnOrders[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// CreateCalculatableOrderFromReturnOrder loads a single return order at versionID regardless
// of its state.
func (f *GormCalculatableOrderFactory) CreateCalculatableOrderFromReturnOrder(ctx context.Context, returnOrderID, versionID uuid.UUID) (*ordercalc.CalculatableOrder, error) {
	var returnOrder models.ReturnOrderModel
	if err := f.db.WithContext(ctx).
		Where("id = ? AND version_id = ?", returnOrderID, versionID).
		First(&returnOrder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("return order %s not found at version %s", returnOrderID, versionID))
		}
		return nil, fmt.Errorf("failed to load return order %s: %w", returnOrderID, err)
	}
	return f.buildReturnOrder(ctx, &returnOrder)
}

func (f *GormCalculatableOrderFactory) buildReturnOrder(ctx context.Context, returnOrder *models.ReturnOrderModel) (*ordercalc.CalculatableOrder, error) {
	db := f.db.WithContext(ctx)

	var lines []models.ReturnOrderLineItemModel
	if err := db.Where("return_order_id = ? AND version_id = ?", returnOrder.ID, returnOrder.VersionID).
		Order("position ASC").Order("id ASC").
		Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to load line items of return order %s: %w", returnOrder.ID, err)
	}

	payloads, err := f.originPayloads(db, returnOrder.VersionID, lines)
	if err != nil {
		return nil, err
	}

	price, err := returnOrder.ToCartPrice()
	if err != nil {
		return nil, err
	}
	shipping, err := returnOrder.ToShippingCosts()
	if err != nil {
		return nil, err
	}

	items := make([]ordercalc.CalculatableOrderLineItem, 0, len(lines))
	for i := range lines {
		var payload map[string]any
		if lines[i].OrderLineItemID != nil {
			payload = payloads[*lines[i].OrderLineItemID]
		}
		item, err := lines[i].ToCalculatableLineItem(payload)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return ordercalc.NewCalculatableOrder(items, price, shipping), nil
}

// originPayloads returns the payloads of the order line items returned by lines, keyed by
// order line item id. Order line items that no longer exist at versionID are absent.
func (f *GormCalculatableOrderFactory) originPayloads(db *gorm.DB, versionID uuid.UUID, lines []models.ReturnOrderLineItemModel) (map[uuid.UUID]map[string]any, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.OrderLineItemID != nil {
			ids = append(ids, *line.OrderLineItemID)
		}
	}
	payloads := make(map[uuid.UUID]map[string]any, len(ids))
	if len(ids) == 0 {
		return payloads, nil
	}

	var origins []models.OrderLineItemModel
	if err := db.Where("id IN ? AND version_id = ?", ids, versionID).Find(&origins).Error; err != nil {
		return nil, fmt.Errorf("failed to load returned order line items: %w", err)
	}
	for i := range origins {
		payload, err := origins[i].Payload()
		if err != nil {
			return nil, err
		}
		payloads[origins[i].ID] = payload
	}
	return payloads, nil
}
