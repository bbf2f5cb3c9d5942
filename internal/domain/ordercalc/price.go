package ordercalc

import (
	"github.com/shopspring/decimal"
)

// TaxStatus describes how the prices of a cart are taxed
type TaxStatus string

const (
	TaxStatusGross   TaxStatus = "gross"
	TaxStatusNet     TaxStatus = "net"
	TaxStatusTaxFree TaxStatus = "tax-free"
)

// IsValid checks if the status is a valid TaxStatus
func (s TaxStatus) IsValid() bool {
	switch s {
	case TaxStatusGross, TaxStatusNet, TaxStatusTaxFree:
		return true
	}
	return false
}

// String returns the string representation of TaxStatus
func (s TaxStatus) String() string {
	return string(s)
}

// ReferencePrice is the price per reference unit (e.g. per liter) shown next to a unit price
type ReferencePrice struct {
	Price         decimal.Decimal `json:"price"`
	PurchaseUnit  decimal.Decimal `json:"purchaseUnit"`
	ReferenceUnit decimal.Decimal `json:"referenceUnit"`
	UnitName      string          `json:"unitName"`
}

// ListPrice is the undiscounted price a unit price is compared against
type ListPrice struct {
	Price      decimal.Decimal `json:"price"`
	Discount   decimal.Decimal `json:"discount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// CalculatedPrice is the price of a line item (or of shipping costs): unit price, quantity,
// resulting total and the taxes included in it.
type CalculatedPrice struct {
	UnitPrice       decimal.Decimal         `json:"unitPrice"`
	TotalPrice      decimal.Decimal         `json:"totalPrice"`
	CalculatedTaxes CalculatedTaxCollection `json:"calculatedTaxes"`
	TaxRules        TaxRuleCollection       `json:"taxRules"`
	Quantity        int                     `json:"quantity"`
	ReferencePrice  *ReferencePrice         `json:"referencePrice,omitempty"`
	ListPrice       *ListPrice              `json:"listPrice,omitempty"`
}

// NewCalculatedPrice creates a CalculatedPrice without reference or list price
func NewCalculatedPrice(
	unitPrice, totalPrice decimal.Decimal,
	taxes CalculatedTaxCollection,
	rules TaxRuleCollection,
	quantity int,
) CalculatedPrice {
	return CalculatedPrice{
		UnitPrice:       unitPrice,
		TotalPrice:      totalPrice,
		CalculatedTaxes: taxes,
		TaxRules:        rules,
		Quantity:        quantity,
	}
}

// NewShippingCosts creates shipping costs. Shipping costs always have a quantity of 1.
func NewShippingCosts(price decimal.Decimal, taxes CalculatedTaxCollection, rules TaxRuleCollection) CalculatedPrice {
	return NewCalculatedPrice(price, price, taxes, rules, 1)
}

// ZeroShippingCosts returns zero-valued shipping costs with an empty tax breakdown
func ZeroShippingCosts() CalculatedPrice {
	return NewShippingCosts(decimal.Zero, NewCalculatedTaxCollection(), NewTaxRuleCollection())
}

// Clone returns a copy that shares no pointers with p
func (p CalculatedPrice) Clone() CalculatedPrice {
	out := p
	if p.ReferencePrice != nil {
		ref := *p.ReferencePrice
		out.ReferencePrice = &ref
	}
	if p.ListPrice != nil {
		list := *p.ListPrice
		out.ListPrice = &list
	}
	return out
}

// IsZero reports whether unit price, total price and every tax entry are zero
func (p CalculatedPrice) IsZero() bool {
	return FloatIsZero(p.UnitPrice) && FloatIsZero(p.TotalPrice) && taxesAreZero(p.CalculatedTaxes)
}

// CartPrice holds the totals of a whole order
type CartPrice struct {
	NetPrice        decimal.Decimal         `json:"netPrice"`
	TotalPrice      decimal.Decimal         `json:"totalPrice"`
	PositionPrice   decimal.Decimal         `json:"positionPrice"`
	RawTotal        decimal.Decimal         `json:"rawTotal"`
	CalculatedTaxes CalculatedTaxCollection `json:"calculatedTaxes"`
	TaxRules        TaxRuleCollection       `json:"taxRules"`
	TaxStatus       TaxStatus               `json:"taxStatus"`
}

// NewCartPrice creates a CartPrice
func NewCartPrice(
	netPrice, totalPrice, positionPrice decimal.Decimal,
	taxes CalculatedTaxCollection,
	rules TaxRuleCollection,
	taxStatus TaxStatus,
	rawTotal decimal.Decimal,
) CartPrice {
	return CartPrice{
		NetPrice:        netPrice,
		TotalPrice:      totalPrice,
		PositionPrice:   positionPrice,
		RawTotal:        rawTotal,
		CalculatedTaxes: taxes,
		TaxRules:        rules,
		TaxStatus:       taxStatus,
	}
}

// ZeroCartPrice returns a cart price with all totals zero
func ZeroCartPrice(taxStatus TaxStatus) CartPrice {
	return NewCartPrice(
		decimal.Zero, decimal.Zero, decimal.Zero,
		NewCalculatedTaxCollection(), NewTaxRuleCollection(),
		taxStatus, decimal.Zero,
	)
}

// IsZero reports whether all totals and every tax entry are zero
func (p CartPrice) IsZero() bool {
	return FloatIsZero(p.NetPrice) &&
		FloatIsZero(p.TotalPrice) &&
		FloatIsZero(p.PositionPrice) &&
		FloatIsZero(p.RawTotal) &&
		taxesAreZero(p.CalculatedTaxes)
}

func taxesAreZero(taxes CalculatedTaxCollection) bool {
	for _, tax := range taxes.taxes {
		if !FloatIsZero(tax.Tax) || !FloatIsZero(tax.Price) {
			return false
		}
	}
	return true
}
