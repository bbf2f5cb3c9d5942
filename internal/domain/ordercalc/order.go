package ordercalc

// CalculatableOrder is the price-relevant projection of an order or return order. It
// holds no reference to the entity it was created from.
type CalculatableOrder struct {
	LineItems     []CalculatableOrderLineItem `json:"lineItems"`
	Price         CartPrice                   `json:"price"`
	ShippingCosts CalculatedPrice             `json:"shippingCosts"`
}

// NewCalculatableOrder creates an order. Line items are copied.
func NewCalculatableOrder(lineItems []CalculatableOrderLineItem, price CartPrice, shippingCosts CalculatedPrice) *CalculatableOrder {
	return &CalculatableOrder{
		LineItems:     cloneLineItems(lineItems),
		Price:         price,
		ShippingCosts: shippingCosts.Clone(),
	}
}

// AddLineItem appends a line item to the order
func (o *CalculatableOrder) AddLineItem(item CalculatableOrderLineItem) {
	o.LineItems = append(o.LineItems, item)
}

// IsEmpty reports whether the order has no line items and all of its prices are zero
func (o *CalculatableOrder) IsEmpty() bool {
	return len(o.LineItems) == 0 && o.Price.IsZero() && o.ShippingCosts.IsZero()
}

// Clone returns a deep copy of the order
func (o *CalculatableOrder) Clone() *CalculatableOrder {
	return NewCalculatableOrder(o.LineItems, o.Price, o.ShippingCosts)
}

// Negated returns a new order representing the arithmetic inverse of o. Fails when the
// shipping costs do not have a quantity of 1.
func (o *CalculatableOrder) Negated() (*CalculatableOrder, error) {
	negator := PriceNegator{}

	shippingCosts, err := negator.NegateShippingCosts(o.ShippingCosts)
	if err != nil {
		return nil, err
	}

	lineItems := make([]CalculatableOrderLineItem, len(o.LineItems))
	for i, item := range o.LineItems {
		negated := item.Clone()
		negated.Price = negator.NegateCalculatedPrice(item.Price)
		negated.Quantity = -item.Quantity
		lineItems[i] = negated
	}

	return &CalculatableOrder{
		LineItems:     lineItems,
		Price:         negator.NegateCartPrice(o.Price),
		ShippingCosts: shippingCosts,
	}, nil
}
