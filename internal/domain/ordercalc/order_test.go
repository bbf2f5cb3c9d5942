package ordercalc

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatableOrder_IsEmpty(t *testing.T) {
	t.Run("order without line items and prices", func(t *testing.T) {
		order := NewCalculatableOrder(nil, ZeroCartPrice(TaxStatusGross), ZeroShippingCosts())
		assert.True(t, order.IsEmpty())
	})

	t.Run("order with line items", func(t *testing.T) {
		order := newOrder("", newProductItem(uuid.New(), "P1", "10.00", 1))
		assert.False(t, order.IsEmpty())
	})

	t.Run("order with shipping costs only", func(t *testing.T) {
		order := newOrder("4.99")
		assert.False(t, order.IsEmpty())
	})

	t.Run("non-zero tax entry", func(t *testing.T) {
		price := ZeroCartPrice(TaxStatusGross)
		price.CalculatedTaxes = NewCalculatedTaxCollection(NewCalculatedTax(dec("0.01"), taxRate19, dec("0")))
		order := NewCalculatableOrder(nil, price, ZeroShippingCosts())
		assert.False(t, order.IsEmpty())
	})
}

func TestCalculatableOrder_Clone(t *testing.T) {
	order := newOrder("4.99", newProductItem(uuid.New(), "P1", "10.00", 2))

	clone := order.Clone()
	*clone.LineItems[0].Position = 42
	clone.LineItems[0].Payload["productNumber"] = "changed"
	clone.AddLineItem(newProductItem(uuid.New(), "P2", "1.00", 1))

	assert.Equal(t, 1, *order.LineItems[0].Position)
	assert.Equal(t, "P1", order.LineItems[0].Payload["productNumber"])
	assert.Len(t, order.LineItems, 1)
	assert.Len(t, clone.LineItems, 2)
}

func TestCalculatableOrder_Negated(t *testing.T) {
	t.Run("negates line items and prices", func(t *testing.T) {
		order := newOrder("4.99", newProductItem(uuid.New(), "P1", "10.00", 2))

		negated, err := order.Negated()

		require.NoError(t, err)
		require.Len(t, negated.LineItems, 1)
		item := negated.LineItems[0]
		assert.Equal(t, -2, item.Quantity)
		assert.Equal(t, -2, item.Price.Quantity)
		assertDecimal(t, "10.00", item.Price.UnitPrice)
		assertDecimal(t, "-20.00", item.Price.TotalPrice)
		assertDecimal(t, "-24.99", negated.Price.TotalPrice)
		assertDecimal(t, "-4.99", negated.ShippingCosts.UnitPrice)
		assert.Equal(t, order.LineItems[0].SingleOriginatingOrderLineItemID, item.SingleOriginatingOrderLineItemID)

		assert.Equal(t, 2, order.LineItems[0].Quantity, "receiver must not change")
	})

	t.Run("fails for invalid shipping costs", func(t *testing.T) {
		order := newOrder("")
		order.ShippingCosts.Quantity = 3

		_, err := order.Negated()

		assert.True(t, errors.Is(err, ErrShippingCostsQuantity))
	})
}

func TestCalculatableOrder_JSON(t *testing.T) {
	order := newOrder("4.99", newProductItem(uuid.New(), "P1", "10.00", 2))

	data, err := json.Marshal(order)
	require.NoError(t, err)

	var decoded CalculatableOrder
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded.LineItems, 1)
	assert.Equal(t, order.LineItems[0].ProductID, decoded.LineItems[0].ProductID)
	assertDecimal(t, "20.00", decoded.LineItems[0].Price.TotalPrice)
	assertDecimal(t, "4.75", decoded.Price.CalculatedTaxes.Amount())
	assert.Equal(t, 1, decoded.LineItems[0].Price.TaxRules.Len())
}
