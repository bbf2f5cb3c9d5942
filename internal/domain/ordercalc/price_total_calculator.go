package ordercalc

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceTotalCalculator sums price value objects
type PriceTotalCalculator struct{}

// SumCartPrices adds the totals and taxes of all cart prices. All prices must share the tax
// status of base. Tax rules are taken from base and are not recomputed.
func (c PriceTotalCalculator) SumCartPrices(base CartPrice, others ...CartPrice) (CartPrice, error) {
	net := base.NetPrice
	total := base.TotalPrice
	position := base.PositionPrice
	raw := base.RawTotal
	taxes := base.CalculatedTaxes

	for _, other := range others {
		if other.TaxStatus != base.TaxStatus {
			return CartPrice{}, fmt.Errorf("%w: cannot sum %q with %q", ErrTaxStatusMismatch, base.TaxStatus, other.TaxStatus)
		}
		net = net.Add(other.NetPrice)
		total = total.Add(other.TotalPrice)
		position = position.Add(other.PositionPrice)
		raw = raw.Add(other.RawTotal)
		taxes = c.SumCalculatedTaxCollections(taxes, other.CalculatedTaxes)
	}

	return NewCartPrice(net, total, position, taxes, base.TaxRules, base.TaxStatus, raw), nil
}

// SumCalculatedPrices sums prices of the same unit price. Totals, taxes and quantities are
// added; unit price, reference price, list price and tax rules are taken from base.
func (c PriceTotalCalculator) SumCalculatedPrices(base CalculatedPrice, others ...CalculatedPrice) (CalculatedPrice, error) {
	out := base.Clone()

	for _, other := range others {
		if !FloatEquals(other.UnitPrice, base.UnitPrice) {
			return CalculatedPrice{}, fmt.Errorf("%w: %s != %s", ErrUnitPriceMismatch, other.UnitPrice, base.UnitPrice)
		}
		out.TotalPrice = out.TotalPrice.Add(other.TotalPrice)
		out.Quantity += other.Quantity
		out.CalculatedTaxes = c.SumCalculatedTaxCollections(out.CalculatedTaxes, other.CalculatedTaxes)
	}

	return out, nil
}

// SumShippingCosts sums shipping costs. Unlike SumCalculatedPrices the unit prices are
// added too. A shipping tax breakdown that cancels out keeps a zero entry at the last
// known tax rate.
func (c PriceTotalCalculator) SumShippingCosts(base CalculatedPrice, others ...CalculatedPrice) (CalculatedPrice, error) {
	if base.Quantity != 1 {
		return CalculatedPrice{}, fmt.Errorf("%w: got quantity %d", ErrShippingCostsQuantity, base.Quantity)
	}

	unit := base.UnitPrice
	total := base.TotalPrice
	taxes := base.CalculatedTaxes

	for _, other := range others {
		if other.Quantity != 1 {
			return CalculatedPrice{}, fmt.Errorf("%w: got quantity %d", ErrShippingCostsQuantity, other.Quantity)
		}
		unit = unit.Add(other.UnitPrice)
		total = total.Add(other.TotalPrice)

		summed := c.SumCalculatedTaxCollections(taxes, other.CalculatedTaxes)
		if summed.Len() == 0 {
			if previous, ok := taxes.First(); ok {
				summed = NewCalculatedTaxCollection(NewCalculatedTax(decimal.Zero, previous.TaxRate, decimal.Zero))
			}
		}
		taxes = summed
	}

	out := base.Clone()
	out.UnitPrice = unit
	out.TotalPrice = total
	out.CalculatedTaxes = taxes
	out.Quantity = 1
	return out, nil
}

// SumCalculatedTaxCollections sums tax amount and price base per tax rate. A rate whose
// sum cancels to zero in both tax and price is removed from the result.
func (PriceTotalCalculator) SumCalculatedTaxCollections(base CalculatedTaxCollection, others ...CalculatedTaxCollection) CalculatedTaxCollection {
	out := base
	for _, other := range others {
		for _, tax := range other.taxes {
			out = out.Add(tax)
			merged, _ := out.Get(tax.TaxRate)
			if FloatIsZero(merged.Tax) && FloatIsZero(merged.Price) {
				out = out.Remove(tax.TaxRate)
			}
		}
	}
	return out
}
