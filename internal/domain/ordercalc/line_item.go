package ordercalc

import (
	"maps"

	"github.com/google/uuid"
)

// LineItemType is the kind of a line item
type LineItemType string

const (
	LineItemTypeProduct   LineItemType = "product"
	LineItemTypeDiscount  LineItemType = "discount"
	LineItemTypeCustom    LineItemType = "custom"
	LineItemTypeCredit    LineItemType = "credit"
	LineItemTypeContainer LineItemType = "container"
)

// IsValid checks if the type is a known LineItemType
func (t LineItemType) IsValid() bool {
	switch t {
	case LineItemTypeProduct, LineItemTypeDiscount, LineItemTypeCustom, LineItemTypeCredit, LineItemTypeContainer:
		return true
	}
	return false
}

// CalculatableOrderLineItem is a priced entry of a CalculatableOrder
type CalculatableOrderLineItem struct {
	// ProductID and ProductVersionID identify a catalog item. Both are nil for line items
	// that do not reference a product (discounts, custom items).
	ProductID        *uuid.UUID      `json:"productId,omitempty"`
	ProductVersionID *uuid.UUID      `json:"productVersionId,omitempty"`
	Payload          map[string]any  `json:"payload,omitempty"`
	Label            string          `json:"label"`
	Price            CalculatedPrice `json:"price"`
	// Quantity may be negative, e.g. for negated orders.
	Quantity int          `json:"quantity"`
	Type     LineItemType `json:"type"`
	Position *int         `json:"position,omitempty"`
	// SingleOriginatingOrderLineItemID traces the item back to exactly one order line item.
	// It is nil when the item is the result of consolidating distinct line items.
	SingleOriginatingOrderLineItemID *uuid.UUID `json:"singleOriginatingOrderLineItemId,omitempty"`
}

// Clone returns a deep copy of the line item. The payload map is copied shallowly.
func (i CalculatableOrderLineItem) Clone() CalculatableOrderLineItem {
	out := i
	out.ProductID = cloneUUID(i.ProductID)
	out.ProductVersionID = cloneUUID(i.ProductVersionID)
	out.SingleOriginatingOrderLineItemID = cloneUUID(i.SingleOriginatingOrderLineItemID)
	if i.Payload != nil {
		out.Payload = maps.Clone(i.Payload)
	}
	if i.Position != nil {
		position := *i.Position
		out.Position = &position
	}
	out.Price = i.Price.Clone()
	return out
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneLineItems(items []CalculatableOrderLineItem) []CalculatableOrderLineItem {
	out := make([]CalculatableOrderLineItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
