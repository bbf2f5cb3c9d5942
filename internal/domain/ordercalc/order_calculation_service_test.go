package ordercalc

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSameLineItems(t *testing.T, expected, actual []CalculatableOrderLineItem) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i].Label, actual[i].Label)
		assert.Equal(t, expected[i].Quantity, actual[i].Quantity)
		assert.Equal(t, expected[i].Price.Quantity, actual[i].Price.Quantity)
		assert.Equal(t, expected[i].Position, actual[i].Position)
		assertDecimal(t, expected[i].Price.UnitPrice.String(), actual[i].Price.UnitPrice)
		assertDecimal(t, expected[i].Price.TotalPrice.String(), actual[i].Price.TotalPrice)
		assertDecimal(t, expected[i].Price.CalculatedTaxes.Amount().String(), actual[i].Price.CalculatedTaxes.Amount())
	}
}

func TestOrderCalculationService_MergeOrders(t *testing.T) {
	service := NewOrderCalculationService()
	p1 := uuid.New()

	t.Run("order merged with its negation is empty", func(t *testing.T) {
		order := newOrder("", newProductItem(p1, "P1", "10.00", 2))
		negated, err := order.Negated()
		require.NoError(t, err)

		merged, err := service.MergeOrders(order, negated)

		require.NoError(t, err)
		assert.Empty(t, merged.LineItems)
		assert.True(t, merged.Price.IsZero())
		assert.True(t, merged.IsEmpty())
	})

	t.Run("self cancellation with shipping costs and several items", func(t *testing.T) {
		order := newOrder("4.99",
			newProductItem(p1, "P1", "10.00", 2),
			newProductItem(uuid.New(), "P2", "3.50", 1),
			newDiscountItem("Summer sale", "-2.00", 1, nil),
		)
		negated, err := order.Negated()
		require.NoError(t, err)

		merged, err := service.MergeOrders(order, negated)

		require.NoError(t, err)
		assert.True(t, merged.IsEmpty())
		assert.Equal(t, 1, merged.ShippingCosts.CalculatedTaxes.Len(), "shipping keeps a zero tax entry")
	})

	t.Run("same product of two orders is consolidated", func(t *testing.T) {
		a := newOrder("", newProductItem(p1, "P1", "10.00", 1))
		b := newOrder("", newProductItem(p1, "P1", "10.00", 1))

		merged, err := service.MergeOrders(a, b)

		require.NoError(t, err)
		require.Len(t, merged.LineItems, 1)
		item := merged.LineItems[0]
		assert.Equal(t, 2, item.Quantity)
		assert.Equal(t, 2, item.Price.Quantity)
		assertDecimal(t, "20.00", item.Price.TotalPrice)
		assert.Nil(t, item.SingleOriginatingOrderLineItemID)
		assertDecimal(t, "20.00", merged.Price.TotalPrice)
	})

	t.Run("positions are shifted by the merged line item count", func(t *testing.T) {
		first := newProductItem(uuid.New(), "P1", "1.00", 1)
		second := newProductItem(uuid.New(), "P2", "2.00", 1)
		second.Position = intPtr(2)
		third := newProductItem(uuid.New(), "P3", "3.00", 1)
		fourth := newProductItem(uuid.New(), "P4", "4.00", 1)
		fourth.Position = nil

		a := newOrder("", first, second)
		b := newOrder("", third, fourth)

		merged, err := service.MergeOrders(a, b)

		require.NoError(t, err)
		require.Len(t, merged.LineItems, 4)
		assert.Equal(t, 1, *merged.LineItems[0].Position)
		assert.Equal(t, 2, *merged.LineItems[1].Position)
		assert.Equal(t, 3, *merged.LineItems[2].Position)
		assert.Nil(t, merged.LineItems[3].Position)

		assert.Len(t, b.LineItems, 2)
		assert.Equal(t, 1, *b.LineItems[0].Position, "inputs must not change")
		assert.Len(t, a.LineItems, 2)
	})

	t.Run("merging is associative", func(t *testing.T) {
		a := newOrder("4.99", newProductItem(p1, "P1", "10.00", 1))
		b := newOrder("", newProductItem(uuid.New(), "P2", "5.00", 3))
		c := newOrder("1.00", newProductItem(p1, "P1", "10.00", 2))

		ab, err := service.MergeOrders(a, b)
		require.NoError(t, err)
		nested, err := service.MergeOrders(ab, c)
		require.NoError(t, err)
		flat, err := service.MergeOrders(a, b, c)
		require.NoError(t, err)

		assertSameLineItems(t, flat.LineItems, nested.LineItems)
		assertDecimal(t, flat.Price.TotalPrice.String(), nested.Price.TotalPrice)
		assertDecimal(t, flat.Price.CalculatedTaxes.Amount().String(), nested.Price.CalculatedTaxes.Amount())
		assertDecimal(t, flat.ShippingCosts.TotalPrice.String(), nested.ShippingCosts.TotalPrice)
		assertDecimal(t, "50.99", flat.Price.TotalPrice)
	})

	t.Run("fails on differing tax status", func(t *testing.T) {
		a := newOrder("", newProductItem(p1, "P1", "10.00", 1))
		b := newOrder("", newProductItem(p1, "P1", "10.00", 1))
		b.Price.TaxStatus = TaxStatusNet

		_, err := service.MergeOrders(a, b)

		assert.True(t, errors.Is(err, ErrTaxStatusMismatch))
	})
}

func TestOrderCalculationService_ConsolidateLineItems(t *testing.T) {
	service := NewOrderCalculationService()
	p1 := uuid.New()

	t.Run("discounts of the same origin are combined", func(t *testing.T) {
		origin := uuidPtr(uuid.New())
		items := []CalculatableOrderLineItem{
			newDiscountItem("Voucher", "-5.00", 1, origin),
			newDiscountItem("Voucher", "-3.00", 1, origin),
		}

		result, err := service.ConsolidateLineItems(items)

		require.NoError(t, err)
		require.Len(t, result, 1)
		assertDecimal(t, "-8.00", result[0].Price.UnitPrice)
		assertDecimal(t, "-8.00", result[0].Price.TotalPrice)
		assert.Equal(t, 1, result[0].Quantity)
		assert.Equal(t, 1, result[0].Price.Quantity)
		assert.Equal(t, origin, result[0].SingleOriginatingOrderLineItemID)
		assertDecimal(t, "-1.52", result[0].Price.CalculatedTaxes.Amount())
	})

	t.Run("positive combined discount keeps a non-positive unit price", func(t *testing.T) {
		items := []CalculatableOrderLineItem{
			newDiscountItem("Voucher", "-3.00", 1, nil),
			newDiscountItem("Voucher", "-5.00", -1, nil),
		}

		result, err := service.ConsolidateLineItems(items)

		require.NoError(t, err)
		require.Len(t, result, 1)
		assertDecimal(t, "-2.00", result[0].Price.UnitPrice)
		assertDecimal(t, "2.00", result[0].Price.TotalPrice)
		assert.Equal(t, -1, result[0].Quantity)
		assert.Equal(t, -1, result[0].Price.Quantity)
	})

	t.Run("two negated discounts keep their negative quantity", func(t *testing.T) {
		origin := uuidPtr(uuid.New())
		items := []CalculatableOrderLineItem{
			newDiscountItem("Voucher", "-5.00", -1, origin),
			newDiscountItem("Voucher", "-3.00", -1, origin),
		}

		result, err := service.ConsolidateLineItems(items)

		require.NoError(t, err)
		require.Len(t, result, 1)
		assertDecimal(t, "-8.00", result[0].Price.UnitPrice)
		assertDecimal(t, "8.00", result[0].Price.TotalPrice)
		assert.Equal(t, -1, result[0].Quantity)
		assert.Equal(t, -1, result[0].Price.Quantity)
		assertDecimal(t, "1.52", result[0].Price.CalculatedTaxes.Amount())
	})

	t.Run("discounts of different origin stay separate", func(t *testing.T) {
		items := []CalculatableOrderLineItem{
			newDiscountItem("Voucher", "-5.00", 1, uuidPtr(uuid.New())),
			newDiscountItem("Voucher", "-3.00", 1, uuidPtr(uuid.New())),
		}

		result, err := service.ConsolidateLineItems(items)

		require.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("opposite unit prices are summed as the same item", func(t *testing.T) {
		original := newProductItem(p1, "P1", "10.00", 1)
		returned := newProductItem(p1, "P1", "-10.00", -1)

		result, err := service.ConsolidateLineItems([]CalculatableOrderLineItem{original, returned})

		require.NoError(t, err)
		require.Len(t, result, 1)
		assertDecimal(t, "10.00", result[0].Price.UnitPrice)
		assertDecimal(t, "20.00", result[0].Price.TotalPrice)
		assert.Equal(t, 2, result[0].Quantity)
		assert.Equal(t, 2, result[0].Price.Quantity)
	})

	t.Run("tiny opposite unit prices within tolerance are summed", func(t *testing.T) {
		original := newProductItem(p1, "P1", "0.00006", 1)
		returned := newProductItem(p1, "P1", "-0.00006", -1)
		require.True(t, service.CheckOrderLineItemsMatch(original, returned))

		result, err := service.ConsolidateLineItems([]CalculatableOrderLineItem{original, returned})

		require.NoError(t, err)
		require.Len(t, result, 1)
		assertDecimal(t, "0.00006", result[0].Price.UnitPrice)
		assertDecimal(t, "0.00012", result[0].Price.TotalPrice)
		assert.Equal(t, 2, result[0].Quantity)
		assert.Equal(t, 2, result[0].Price.Quantity)
	})

	t.Run("consolidation is idempotent", func(t *testing.T) {
		items := []CalculatableOrderLineItem{
			newProductItem(p1, "P1", "10.00", 1),
			newProductItem(uuid.New(), "P2", "4.00", 2),
			newProductItem(p1, "P1", "10.00", 3),
			newDiscountItem("Voucher", "-1.00", 1, nil),
			newDiscountItem("Voucher", "-2.00", 1, nil),
		}

		once, err := service.ConsolidateLineItems(items)
		require.NoError(t, err)
		twice, err := service.ConsolidateLineItems(once)
		require.NoError(t, err)

		require.Len(t, once, 3)
		assertSameLineItems(t, once, twice)
		assert.Len(t, items, 5, "input must not change")
	})

	t.Run("final totals do not depend on item order", func(t *testing.T) {
		a := newProductItem(p1, "P1", "10.00", 2)
		b := newProductItem(p1, "P1", "10.00", -1)
		c := newProductItem(p1, "P1", "-10.00", -1)

		permutations := [][]CalculatableOrderLineItem{
			{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
		}
		for _, items := range permutations {
			result, err := service.ConsolidateLineItems(items)
			require.NoError(t, err)
			require.Len(t, result, 1)
			assertDecimal(t, "20.00", result[0].Price.TotalPrice)
			assert.Equal(t, result[0].Quantity, result[0].Price.Quantity)
			assertDecimal(t, "3.80", result[0].Price.CalculatedTaxes.Amount())
		}
	})
}

func TestOrderCalculationService_CheckOrderLineItemsMatch(t *testing.T) {
	service := NewOrderCalculationService()
	p1 := uuid.New()

	t.Run("tax rule percentages are ignored", func(t *testing.T) {
		a := newProductItem(p1, "P1", "10.00", 1)
		b := newProductItem(p1, "P1", "10.00", 1)
		b.Price.TaxRules = NewTaxRuleCollection(NewTaxRule(taxRate19, dec("50")))

		assert.True(t, service.CheckOrderLineItemsMatch(a, b))
	})

	t.Run("tax rates are compared with tolerance", func(t *testing.T) {
		a := newProductItem(p1, "P1", "10.00", 1)
		b := newProductItem(p1, "P1", "10.00", 1)
		b.Price.TaxRules = NewTaxRuleCollection(NewTaxRule(dec("19.00001"), dec("100")))
		c := newProductItem(p1, "P1", "10.00", 1)
		c.Price.TaxRules = NewTaxRuleCollection(NewTaxRule(dec("19.01"), dec("100")))

		assert.True(t, service.CheckOrderLineItemsMatch(a, b))
		assert.False(t, service.CheckOrderLineItemsMatch(a, c))
	})

	t.Run("differing tax rule count", func(t *testing.T) {
		a := newProductItem(p1, "P1", "10.00", 1)
		b := newProductItem(p1, "P1", "10.00", 1)
		b.Price.TaxRules = NewTaxRuleCollection(
			NewTaxRule(taxRate19, dec("50")),
			NewTaxRule(decimal.NewFromInt(7), dec("50")),
		)

		assert.False(t, service.CheckOrderLineItemsMatch(a, b))
	})

	t.Run("quantities and sign of unit price may differ", func(t *testing.T) {
		a := newProductItem(p1, "P1", "10.00", 1)
		b := newProductItem(p1, "P1", "-10.00", 5)

		assert.True(t, service.CheckOrderLineItemsMatch(a, b))
	})

	t.Run("identity fields must match", func(t *testing.T) {
		a := newProductItem(p1, "P1", "10.00", 1)

		otherLabel := newProductItem(p1, "P1 (red)", "10.00", 1)
		otherType := newProductItem(p1, "P1", "10.00", 1)
		otherType.Type = LineItemTypeCustom
		otherVersion := newProductItem(p1, "P1", "10.00", 1)
		otherVersion.ProductVersionID = uuidPtr(uuid.New())
		otherProduct := newProductItem(uuid.New(), "P1", "10.00", 1)
		otherPrice := newProductItem(p1, "P1", "9.00", 1)

		assert.False(t, service.CheckOrderLineItemsMatch(a, otherLabel))
		assert.False(t, service.CheckOrderLineItemsMatch(a, otherType))
		assert.False(t, service.CheckOrderLineItemsMatch(a, otherVersion))
		assert.False(t, service.CheckOrderLineItemsMatch(a, otherProduct))
		assert.False(t, service.CheckOrderLineItemsMatch(a, otherPrice))
	})

	t.Run("version is ignored without product", func(t *testing.T) {
		a := newProductItem(p1, "Custom", "10.00", 1)
		a.ProductID = nil
		b := newProductItem(p1, "Custom", "10.00", 1)
		b.ProductID = nil
		b.ProductVersionID = uuidPtr(uuid.New())

		assert.True(t, service.CheckOrderLineItemsMatch(a, b))
	})
}

func TestOrderCalculationService_CheckDiscountOrderLineItemsMatch(t *testing.T) {
	service := NewOrderCalculationService()
	origin := uuidPtr(uuid.New())

	assert.True(t, service.CheckDiscountOrderLineItemsMatch(
		newDiscountItem("Voucher", "-5.00", 1, origin),
		newDiscountItem("Voucher", "-3.00", -1, origin),
	))
	assert.False(t, service.CheckDiscountOrderLineItemsMatch(
		newDiscountItem("Voucher", "-5.00", 2, origin),
		newDiscountItem("Voucher", "-3.00", 1, origin),
	), "quantity must be 1")
	assert.False(t, service.CheckDiscountOrderLineItemsMatch(
		newDiscountItem("Voucher", "-5.00", 1, origin),
		newDiscountItem("Coupon", "-3.00", 1, origin),
	))
	assert.False(t, service.CheckDiscountOrderLineItemsMatch(
		newDiscountItem("Voucher", "-5.00", 1, origin),
		newProductItem(uuid.New(), "Voucher", "-3.00", 1),
	))
}
