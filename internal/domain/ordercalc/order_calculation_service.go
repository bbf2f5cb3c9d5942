package ordercalc

import (
	"github.com/shopspring/decimal"
)

// OrderCalculationService merges calculatable orders and consolidates their line items
type OrderCalculationService struct {
	totals PriceTotalCalculator
}

// NewOrderCalculationService creates a new OrderCalculationService
func NewOrderCalculationService() *OrderCalculationService {
	return &OrderCalculationService{}
}

// MergeOrders folds orders into a copy of base. Positions of incoming line items are shifted
// by the number of line items merged so far, cart prices and shipping costs are summed and
// the resulting line items are consolidated. None of the inputs is modified.
func (s *OrderCalculationService) MergeOrders(base *CalculatableOrder, orders ...*CalculatableOrder) (*CalculatableOrder, error) {
	merged := base.Clone()

	for _, order := range orders {
		offset := len(merged.LineItems)
		for _, item := range order.LineItems {
			shifted := item.Clone()
			if shifted.Position != nil {
				*shifted.Position += offset
			}
			merged.AddLineItem(shifted)
		}

		price, err := s.totals.SumCartPrices(merged.Price, order.Price)
		if err != nil {
			return nil, err
		}
		shippingCosts, err := s.totals.SumShippingCosts(merged.ShippingCosts, order.ShippingCosts)
		if err != nil {
			return nil, err
		}
		merged.Price = price
		merged.ShippingCosts = shippingCosts
	}

	lineItems, err := s.ConsolidateLineItems(merged.LineItems)
	if err != nil {
		return nil, err
	}
	merged.LineItems = lineItems

	return merged, nil
}

// ConsolidateLineItems merges matching line items until no pair matches anymore. The
// returned slice is new; items is not modified.
func (s *OrderCalculationService) ConsolidateLineItems(items []CalculatableOrderLineItem) ([]CalculatableOrderLineItem, error) {
	current := cloneLineItems(items)
	for {
		next, found, err := s.consolidateFirstMatch(current)
		if err != nil {
			return nil, err
		}
		if !found {
			return current, nil
		}
		current = next
	}
}

// consolidateFirstMatch consolidates the first matching pair of line items. The result
// takes the slot of the first item of the pair.
func (s *OrderCalculationService) consolidateFirstMatch(items []CalculatableOrderLineItem) ([]CalculatableOrderLineItem, bool, error) {
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			var (
				consolidated CalculatableOrderLineItem
				err          error
			)
			switch {
			case s.CheckOrderLineItemsMatch(items[i], items[j]):
				consolidated, err = s.consolidateLineItems(items[i], items[j])
			case s.CheckDiscountOrderLineItemsMatch(items[i], items[j]):
				consolidated = s.consolidateDiscountLineItems(items[i], items[j])
			default:
				continue
			}
			if err != nil {
				return nil, false, err
			}

			out := make([]CalculatableOrderLineItem, 0, len(items)-1)
			for k, item := range items {
				switch {
				case k == i:
					if consolidated.Price.Quantity != 0 || consolidated.Quantity != 0 {
						out = append(out, consolidated)
					}
				case k != j:
					out = append(out, item)
				}
			}
			return out, true, nil
		}
	}
	return items, false, nil
}

// CheckOrderLineItemsMatch reports whether a and b describe the same real-world item.
// Quantities and totals may differ, unit prices are compared by absolute value.
func (s *OrderCalculationService) CheckOrderLineItemsMatch(a, b CalculatableOrderLineItem) bool {
	if a.Type != b.Type || a.Label != b.Label {
		return false
	}
	if !uuidPtrEqual(a.ProductID, b.ProductID) {
		return false
	}
	if a.ProductID != nil && !uuidPtrEqual(a.ProductVersionID, b.ProductVersionID) {
		return false
	}
	if !FloatEquals(a.Price.UnitPrice.Abs(), b.Price.UnitPrice.Abs()) {
		return false
	}
	return s.CheckTaxRulesMatch(a.Price.TaxRules, b.Price.TaxRules)
}

// CheckDiscountOrderLineItemsMatch reports whether a and b are single discounts of the same
// origin that can be combined into one discount.
func (s *OrderCalculationService) CheckDiscountOrderLineItemsMatch(a, b CalculatableOrderLineItem) bool {
	if a.Type != LineItemTypeDiscount || b.Type != LineItemTypeDiscount {
		return false
	}
	if a.Label != b.Label || !uuidPtrEqual(a.SingleOriginatingOrderLineItemID, b.SingleOriginatingOrderLineItemID) {
		return false
	}
	if absInt(a.Quantity) != 1 || absInt(b.Quantity) != 1 {
		return false
	}
	return s.CheckTaxRulesMatch(a.Price.TaxRules, b.Price.TaxRules)
}

// CheckTaxRulesMatch compares tax rates only. Percentages are ignored.
func (s *OrderCalculationService) CheckTaxRulesMatch(a, b TaxRuleCollection) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, rule := range a.rules {
		if _, ok := b.findMatchingRate(rule.TaxRate); !ok {
			return false
		}
	}
	return true
}

func (s *OrderCalculationService) consolidateLineItems(a, b CalculatableOrderLineItem) (CalculatableOrderLineItem, error) {
	other := b.Clone()
	// A returned item may carry the negated unit price of the original one.
	if a.Price.UnitPrice.Sign()*other.Price.UnitPrice.Sign() < 0 {
		other.Price.UnitPrice = other.Price.UnitPrice.Neg()
		other.Price.Quantity = -other.Price.Quantity
		other.Quantity = -other.Quantity
	}

	price, err := s.totals.SumCalculatedPrices(a.Price, other.Price)
	if err != nil {
		return CalculatableOrderLineItem{}, err
	}

	out := a.Clone()
	out.Price = price
	out.Quantity = a.Quantity + other.Quantity
	out.SingleOriginatingOrderLineItemID = nil
	return out, nil
}

func (s *OrderCalculationService) consolidateDiscountLineItems(a, b CalculatableOrderLineItem) CalculatableOrderLineItem {
	combined := a.Price.UnitPrice.Mul(decimal.NewFromInt(int64(a.Price.Quantity))).
		Add(b.Price.UnitPrice.Mul(decimal.NewFromInt(int64(b.Price.Quantity))))

	quantity := 1
	if a.Quantity == b.Quantity {
		quantity = a.Quantity
	}

	// |quantity| is 1, so the value per quantity is combined * quantity.
	unitPrice := combined.Mul(decimal.NewFromInt(int64(quantity)))
	if unitPrice.IsPositive() {
		unitPrice = unitPrice.Neg()
		quantity = -quantity
	}

	out := a.Clone()
	out.Price.UnitPrice = unitPrice
	out.Price.TotalPrice = combined
	out.Price.Quantity = quantity
	out.Price.CalculatedTaxes = s.totals.SumCalculatedTaxCollections(a.Price.CalculatedTaxes, b.Price.CalculatedTaxes)
	out.Quantity = quantity
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
