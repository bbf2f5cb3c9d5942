package ordercalc

import (
	"context"
	"testing"

	"github.com/erp/ordercalc/internal/domain/ordercalc"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCalculatableOrderFactory is a mock implementation of CalculatableOrderFactory
type MockCalculatableOrderFactory struct {
	mock.Mock
}

func (m *MockCalculatableOrderFactory) CreateCalculatableOrderFromOrder(ctx context.Context, orderID, versionID uuid.UUID) (*ordercalc.CalculatableOrder, error) {
	args := m.Called(ctx, orderID, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordercalc.CalculatableOrder), args.Error(1)
}

func (m *MockCalculatableOrderFactory) CreateCalculatableOrdersFromReturnOrdersOfOrder(ctx context.Context, orderID, versionID uuid.UUID) ([]*ordercalc.CalculatableOrder, error) {
	args := m.Called(ctx, orderID, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ordercalc.CalculatableOrder), args.Error(1)
}

func (m *MockCalculatableOrderFactory) CreateCalculatableOrderFromReturnOrder(ctx context.Context, returnOrderID, versionID uuid.UUID) (*ordercalc.CalculatableOrder, error) {
	args := m.Called(ctx, returnOrderID, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordercalc.CalculatableOrder), args.Error(1)
}

// MockDifferenceCache is a mock implementation of DifferenceCache
type MockDifferenceCache struct {
	mock.Mock
}

func (m *MockDifferenceCache) Get(ctx context.Context, key ordercalc.DifferenceKey) (*ordercalc.CalculatableOrder, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*ordercalc.CalculatableOrder), args.Bool(1), args.Error(2)
}

func (m *MockDifferenceCache) Set(ctx context.Context, key ordercalc.DifferenceKey, difference *ordercalc.CalculatableOrder) error {
	args := m.Called(ctx, key, difference)
	return args.Error(0)
}

func (m *MockDifferenceCache) InvalidateOrder(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

var taxRate19 = decimal.NewFromInt(19)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func taxesFor(total decimal.Decimal) ordercalc.CalculatedTaxCollection {
	return ordercalc.NewCalculatedTaxCollection(
		ordercalc.NewCalculatedTax(total.Mul(dec("0.19")).Round(2), taxRate19, total),
	)
}

func rules19() ordercalc.TaxRuleCollection {
	return ordercalc.NewTaxRuleCollection(ordercalc.NewTaxRule(taxRate19, decimal.NewFromInt(100)))
}

func newProductItem(productID uuid.UUID, label, unitPrice string, quantity int) ordercalc.CalculatableOrderLineItem {
	unit := dec(unitPrice)
	total := unit.Mul(decimal.NewFromInt(int64(quantity)))
	versionID := ordercalc.LiveVersionID
	position := 1
	origin := uuid.New()
	return ordercalc.CalculatableOrderLineItem{
		ProductID:                        &productID,
		ProductVersionID:                 &versionID,
		Payload:                          map[string]any{"productNumber": label},
		Label:                            label,
		Price:                            ordercalc.NewCalculatedPrice(unit, total, taxesFor(total), rules19(), quantity),
		Quantity:                         quantity,
		Type:                             ordercalc.LineItemTypeProduct,
		Position:                         &position,
		SingleOriginatingOrderLineItemID: &origin,
	}
}

// newOrder creates a gross order whose cart price is the sum of its line items
func newOrder(items ...ordercalc.CalculatableOrderLineItem) *ordercalc.CalculatableOrder {
	total := decimal.Zero
	taxes := ordercalc.NewCalculatedTaxCollection()
	for _, item := range items {
		total = total.Add(item.Price.TotalPrice)
		for _, tax := range item.Price.CalculatedTaxes.All() {
			taxes = taxes.Add(tax)
		}
	}
	price := ordercalc.NewCartPrice(
		total.Sub(taxes.Amount()), total, total,
		taxes, rules19(), ordercalc.TaxStatusGross, total,
	)
	return ordercalc.NewCalculatableOrder(items, price, ordercalc.ZeroShippingCosts())
}
