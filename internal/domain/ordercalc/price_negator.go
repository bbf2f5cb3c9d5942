package ordercalc

import (
	"fmt"
)

// PriceNegator creates arithmetically negated copies of price value objects
type PriceNegator struct{}

// NegateCalculatedPrice negates total price, quantity and taxes. The unit price is kept:
// negating a price means "the same item, taken back", not "an item with a negative price".
func (PriceNegator) NegateCalculatedPrice(price CalculatedPrice) CalculatedPrice {
	out := price.Clone()
	out.TotalPrice = price.TotalPrice.Neg()
	out.Quantity = -price.Quantity
	out.CalculatedTaxes = PriceNegator{}.NegateCalculatedTaxes(price.CalculatedTaxes)
	return out
}

// NegateShippingCosts negates unit price, total price and taxes of shipping costs. The
// quantity of shipping costs is a fixed multiplier of 1 and stays 1.
func (PriceNegator) NegateShippingCosts(shippingCosts CalculatedPrice) (CalculatedPrice, error) {
	if shippingCosts.Quantity != 1 {
		return CalculatedPrice{}, fmt.Errorf("%w: got quantity %d", ErrShippingCostsQuantity, shippingCosts.Quantity)
	}

	out := shippingCosts.Clone()
	out.UnitPrice = shippingCosts.UnitPrice.Neg()
	out.TotalPrice = shippingCosts.TotalPrice.Neg()
	out.CalculatedTaxes = PriceNegator{}.NegateCalculatedTaxes(shippingCosts.CalculatedTaxes)
	out.Quantity = 1
	return out, nil
}

// NegateCalculatedTaxes negates tax amount and price base of every entry
func (PriceNegator) NegateCalculatedTaxes(taxes CalculatedTaxCollection) CalculatedTaxCollection {
	negated := make([]CalculatedTax, 0, taxes.Len())
	for _, tax := range taxes.All() {
		negated = append(negated, NewCalculatedTax(tax.Tax.Neg(), tax.TaxRate, tax.Price.Neg()))
	}
	return NewCalculatedTaxCollection(negated...)
}

// NegateCartPrice negates all totals and taxes of a cart price. Tax rules and tax status
// are kept.
func (PriceNegator) NegateCartPrice(price CartPrice) CartPrice {
	return NewCartPrice(
		price.NetPrice.Neg(),
		price.TotalPrice.Neg(),
		price.PositionPrice.Neg(),
		PriceNegator{}.NegateCalculatedTaxes(price.CalculatedTaxes),
		price.TaxRules,
		price.TaxStatus,
		price.RawTotal.Neg(),
	)
}
