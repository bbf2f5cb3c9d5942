package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/google/uuid"
)

// OrderModel is one version of an order. Orders are stored once per version, keyed by
// (id, version_id); the live version uses ordercalc.LiveVersionID.
type OrderModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	VersionID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderNumber       string    `gorm:"type:varchar(64);not null;index"`
	TaxStatus         string    `gorm:"type:varchar(20);not null"`
	PriceJSON         string    `gorm:"column:price;type:jsonb;not null"`
	ShippingCostsJSON string    `gorm:"column:shipping_costs;type:jsonb;not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineItemModel is a line item of one order version.
type OrderLineItemModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VersionID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_order_line_items_order"`
	Type             string     `gorm:"type:varchar(20);not null"`
	Label            string     `gorm:"type:varchar(255);not null"`
	ProductID        *uuid.UUID `gorm:"type:uuid"`
	ProductVersionID *uuid.UUID `gorm:"type:uuid"`
	PayloadJSON      *string    `gorm:"column:payload;type:jsonb"`
	PriceJSON        string     `gorm:"column:price;type:jsonb;not null"`
	Quantity         int        `gorm:"not null"`
	Position         int        `gorm:"not null;default:1"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ReturnOrderModel is one version of a return order. Return orders are versioned together
// with their order, so VersionID equals the version of the order they belong to.
type ReturnOrderModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	VersionID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index:idx_return_orders_order"`
	ReturnNumber string    `gorm:"type:varchar(64);not null"`
	State        string    `gorm:"type:varchar(20);not null"`
	PriceJSON    string    `gorm:"column:price;type:jsonb;not null"`
	// ShippingCostsJSON is nil for return orders that refund no shipping.
	ShippingCostsJSON *string   `gorm:"column:shipping_costs;type:jsonb"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReturnOrderModel) TableName() string {
	return "return_orders"
}

// ReturnOrderLineItemModel is a line item of one return order version.
type ReturnOrderLineItemModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	VersionID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReturnOrderID uuid.UUID `gorm:"type:uuid;not null;index:idx_return_order_line_items_return_order"`
	// OrderLineItemID references the returned order line item. It is nil when that line
	// item was removed from the order after the return was created.
	OrderLineItemID  *uuid.UUID `gorm:"type:uuid"`
	Type             string     `gorm:"type:varchar(20);not null"`
	Label            string     `gorm:"type:varchar(255);not null"`
	ProductID        *uuid.UUID `gorm:"type:uuid"`
	ProductVersionID *uuid.UUID `gorm:"type:uuid"`
	ProductNumber    string     `gorm:"type:varchar(64)"`
	PriceJSON        string     `gorm:"column:price;type:jsonb;not null"`
	Quantity         int        `gorm:"not null"`
	Position         int        `gorm:"not null;default:1"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReturnOrderLineItemModel) TableName() string {
	return "return_order_line_items"
}

// ToCartPrice decodes the stored order price.
func (m *OrderModel) ToCartPrice() (ordercalc.CartPrice, error) {
	var price ordercalc.CartPrice
	if err := json.Unmarshal([]byte(m.PriceJSON), &price); err != nil {
		return ordercalc.CartPrice{}, fmt.Errorf("decode price of order %s: %w", m.ID, err)
	}
	return price, nil
}

// ToShippingCosts decodes the stored shipping costs.
func (m *OrderModel) ToShippingCosts() (ordercalc.CalculatedPrice, error) {
	var shipping ordercalc.CalculatedPrice
	if err := json.Unmarshal([]byte(m.ShippingCostsJSON), &shipping); err != nil {
		return ordercalc.CalculatedPrice{}, fmt.Errorf("decode shipping costs of order %s: %w", m.ID, err)
	}
	return shipping, nil
}

// Payload decodes the stored payload. A NULL column yields a nil map.
func (m *OrderLineItemModel) Payload() (map[string]any, error) {
	if m.PayloadJSON == nil {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(*m.PayloadJSON), &payload); err != nil {
		return nil, fmt.Errorf("decode payload of order line item %s: %w", m.ID, err)
	}
	return payload, nil
}

// ToCalculatableLineItem converts the line item. The item originates from itself.
func (m *OrderLineItemModel) ToCalculatableLineItem() (ordercalc.CalculatableOrderLineItem, error) {
	payload, err := m.Payload()
	if err != nil {
		return ordercalc.CalculatableOrderLineItem{}, err
	}
	var price ordercalc.CalculatedPrice
	if err := json.Unmarshal([]byte(m.PriceJSON), &price); err != nil {
		return ordercalc.CalculatableOrderLineItem{}, fmt.Errorf("decode price of order line item %s: %w", m.ID, err)
	}

	id := m.ID
	position := m.Position
	return ordercalc.CalculatableOrderLineItem{
		ProductID:                        m.ProductID,
		ProductVersionID:                 m.ProductVersionID,
		Payload:                          payload,
		Label:                            m.Label,
		Price:                            price,
		Quantity:                         m.Quantity,
		Type:                             ordercalc.LineItemType(m.Type),
		Position:                         &position,
		SingleOriginatingOrderLineItemID: &id,
	}, nil
}

// ToCartPrice decodes the stored return order price.
func (m *ReturnOrderModel) ToCartPrice() (ordercalc.CartPrice, error) {
	var price ordercalc.CartPrice
	if err := json.Unmarshal([]byte(m.PriceJSON), &price); err != nil {
		return ordercalc.CartPrice{}, fmt.Errorf("decode price of return order %s: %w", m.ID, err)
	}
	return price, nil
}

// ToShippingCosts decodes the stored shipping costs, defaulting to zero shipping costs.
func (m *ReturnOrderModel) ToShippingCosts() (ordercalc.CalculatedPrice, error) {
	if m.ShippingCostsJSON == nil || *m.ShippingCostsJSON == "" || *m.ShippingCostsJSON == "null" {
		return ordercalc.ZeroShippingCosts(), nil
	}
	var shipping ordercalc.CalculatedPrice
	if err := json.Unmarshal([]byte(*m.ShippingCostsJSON), &shipping); err != nil {
		return ordercalc.CalculatedPrice{}, fmt.Errorf("decode shipping costs of return order %s: %w", m.ID, err)
	}
	return shipping, nil
}

// ToCalculatableLineItem converts the return line item using the payload of the order
// line item it returns. A nil payload falls back to the product number.
func (m *ReturnOrderLineItemModel) ToCalculatableLineItem(payload map[string]any) (ordercalc.CalculatableOrderLineItem, error) {
	var price ordercalc.CalculatedPrice
	if err := json.Unmarshal([]byte(m.PriceJSON), &price); err != nil {
		return ordercalc.CalculatableOrderLineItem{}, fmt.Errorf("decode price of return order line item %s: %w", m.ID, err)
	}
	if payload == nil {
		payload = map[string]any{"productNumber": m.ProductNumber}
	}

	position := m.Position
	return ordercalc.CalculatableOrderLineItem{
		ProductID:                        m.ProductID,
		ProductVersionID:                 m.ProductVersionID,
		Payload:                          payload,
		Label:                            m.Label,
		Price:                            price,
		Quantity:                         m.Quantity,
		Type:                             ordercalc.LineItemType(m.Type),
		Position:                         &position,
		SingleOriginatingOrderLineItemID: m.OrderLineItemID,
	}, nil
}

// NewOrderModels builds the rows storing order at the given version.
func NewOrderModels(id, versionID uuid.UUID, orderNumber string, order *ordercalc.CalculatableOrder) (*OrderModel, []OrderLineItemModel, error) {
	price, err := json.Marshal(order.Price)
	if err != nil {
		return nil, nil, fmt.Errorf("encode order price: %w", err)
	}
	shipping, err := json.Marshal(order.ShippingCosts)
	if err != nil {
		return nil, nil, fmt.Errorf("encode shipping costs: %w", err)
	}

	model := &OrderModel{
		ID:                id,
		VersionID:         versionID,
		OrderNumber:       orderNumber,
		TaxStatus:         string(order.Price.TaxStatus),
		PriceJSON:         string(price),
		ShippingCostsJSON: string(shipping),
	}

	lines := make([]OrderLineItemModel, 0, len(order.LineItems))
	for i, item := range order.LineItems {
		line, err := newLineItemRow(item, i+1)
		if err != nil {
			return nil, nil, err
		}
		lineID := uuid.New()
		if item.SingleOriginatingOrderLineItemID != nil {
			lineID = *item.SingleOriginatingOrderLineItemID
		}
		lines = append(lines, OrderLineItemModel{
			ID:               lineID,
			VersionID:        versionID,
			OrderID:          id,
			Type:             line.typ,
			Label:            item.Label,
			ProductID:        item.ProductID,
			ProductVersionID: item.ProductVersionID,
			PayloadJSON:      line.payload,
			PriceJSON:        line.price,
			Quantity:         item.Quantity,
			Position:         line.position,
		})
	}
	return model, lines, nil
}

// NewReturnOrderModels builds the rows storing a return order of orderID at the given version.
// Line items whose SingleOriginatingOrderLineItemID is set reference that order line item.
func NewReturnOrderModels(id, orderID, versionID uuid.UUID, returnNumber string, state ordercalc.ReturnOrderState, order *ordercalc.CalculatableOrder) (*ReturnOrderModel, []ReturnOrderLineItemModel, error) {
	price, err := json.Marshal(order.Price)
	if err != nil {
		return nil, nil, fmt.Errorf("encode return order price: %w", err)
	}

	model := &ReturnOrderModel{
		ID:           id,
		VersionID:    versionID,
		OrderID:      orderID,
		ReturnNumber: returnNumber,
		State:        string(state),
		PriceJSON:    string(price),
	}
	if !order.ShippingCosts.IsZero() {
		shipping, err := json.Marshal(order.ShippingCosts)
		if err != nil {
			return nil, nil, fmt.Errorf("encode shipping costs: %w", err)
		}
		s := string(shipping)
		model.ShippingCostsJSON = &s
	}

	lines := make([]ReturnOrderLineItemModel, 0, len(order.LineItems))
	for i, item := range order.LineItems {
		line, err := newLineItemRow(item, i+1)
		if err != nil {
			return nil, nil, err
		}
		productNumber, _ := item.Payload["productNumber"].(string)
		lines = append(lines, ReturnOrderLineItemModel{
			ID:               uuid.New(),
			VersionID:        versionID,
			ReturnOrderID:    id,
			OrderLineItemID:  item.SingleOriginatingOrderLineItemID,
			Type:             line.typ,
			Label:            item.Label,
			ProductID:        item.ProductID,
			ProductVersionID: item.ProductVersionID,
			ProductNumber:    productNumber,
			PriceJSON:        line.price,
			Quantity:         item.Quantity,
			Position:         line.position,
		})
	}
	return model, lines, nil
}

type lineItemRow struct {
	typ      string
	payload  *string
	price    string
	position int
}

func newLineItemRow(item ordercalc.CalculatableOrderLineItem, fallbackPosition int) (lineItemRow, error) {
	price, err := json.Marshal(item.Price)
	if err != nil {
		return lineItemRow{}, fmt.Errorf("encode line item price: %w", err)
	}
	row := lineItemRow{
		typ:      string(item.Type),
		price:    string(price),
		position: fallbackPosition,
	}
	if item.Position != nil {
		row.position = *item.Position
	}
	if item.Payload != nil {
		payload, err := json.Marshal(item.Payload)
		if err != nil {
			return lineItemRow{}, fmt.Errorf("encode line item payload: %w", err)
		}
		encoded := string(payload)
		row.payload = &encoded
	}
	return row, nil
}
