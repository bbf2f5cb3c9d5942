package ordercalc

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var taxRate19 = decimal.NewFromInt(19)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int {
	return &v
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

// taxesFor returns a single 19% tax entry for the given total
func taxesFor(total decimal.Decimal) CalculatedTaxCollection {
	return NewCalculatedTaxCollection(
		NewCalculatedTax(total.Mul(dec("0.19")).Round(2), taxRate19, total),
	)
}

func rules19() TaxRuleCollection {
	return NewTaxRuleCollection(NewTaxRule(taxRate19, decimal.NewFromInt(100)))
}

// newProductItem creates a product line item whose price quantity matches its quantity
func newProductItem(productID uuid.UUID, label, unitPrice string, quantity int) CalculatableOrderLineItem {
	unit := dec(unitPrice)
	total := unit.Mul(decimal.NewFromInt(int64(quantity)))
	versionID := LiveVersionID
	return CalculatableOrderLineItem{
		ProductID:                        uuidPtr(productID),
		ProductVersionID:                 &versionID,
		Payload:                          map[string]any{"productNumber": label},
		Label:                            label,
		Price:                            NewCalculatedPrice(unit, total, taxesFor(total), rules19(), quantity),
		Quantity:                         quantity,
		Type:                             LineItemTypeProduct,
		Position:                         intPtr(1),
		SingleOriginatingOrderLineItemID: uuidPtr(uuid.New()),
	}
}

func newDiscountItem(label, unitPrice string, quantity int, origin *uuid.UUID) CalculatableOrderLineItem {
	unit := dec(unitPrice)
	total := unit.Mul(decimal.NewFromInt(int64(quantity)))
	return CalculatableOrderLineItem{
		Label:                            label,
		Price:                            NewCalculatedPrice(unit, total, taxesFor(total), rules19(), quantity),
		Quantity:                         quantity,
		Type:                             LineItemTypeDiscount,
		SingleOriginatingOrderLineItemID: origin,
	}
}

// newOrder creates a gross order whose cart price is the sum of its line items
func newOrder(shipping string, items ...CalculatableOrderLineItem) *CalculatableOrder {
	total := decimal.Zero
	taxes := NewCalculatedTaxCollection()
	for _, item := range items {
		total = total.Add(item.Price.TotalPrice)
		for _, tax := range item.Price.CalculatedTaxes.All() {
			taxes = taxes.Add(tax)
		}
	}

	shippingCosts := ZeroShippingCosts()
	if shipping != "" {
		amount := dec(shipping)
		shippingCosts = NewShippingCosts(amount, taxesFor(amount), rules19())
		total = total.Add(amount)
		for _, tax := range shippingCosts.CalculatedTaxes.All() {
			taxes = taxes.Add(tax)
		}
	}

	price := NewCartPrice(
		total.Sub(taxes.Amount()),
		total,
		total,
		taxes,
		rules19(),
		TaxStatusGross,
		total,
	)
	return NewCalculatableOrder(items, price, shippingCosts)
}
