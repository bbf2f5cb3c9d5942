package ordercalc

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CalculatedTax is the tax amount charged at a single tax rate together with the price
// base the tax was calculated from.
type CalculatedTax struct {
	Tax     decimal.Decimal `json:"tax"`
	TaxRate decimal.Decimal `json:"taxRate"`
	Price   decimal.Decimal `json:"price"`
}

// NewCalculatedTax creates a CalculatedTax
func NewCalculatedTax(tax, taxRate, price decimal.Decimal) CalculatedTax {
	return CalculatedTax{Tax: tax, TaxRate: taxRate, Price: price}
}

// CalculatedTaxCollection is a tax breakdown keyed by tax rate. Entries keep insertion
// order. The collection is immutable: every modifying method returns a new collection.
type CalculatedTaxCollection struct {
	taxes []CalculatedTax
}

// NewCalculatedTaxCollection creates a collection from the given taxes. A later tax with
// the same rate as an earlier one replaces it.
func NewCalculatedTaxCollection(taxes ...CalculatedTax) CalculatedTaxCollection {
	c := CalculatedTaxCollection{}
	for _, tax := range taxes {
		c = c.Set(tax)
	}
	return c
}

// Len returns the number of tax rates in the collection
func (c CalculatedTaxCollection) Len() int {
	return len(c.taxes)
}

// All returns a copy of the entries in insertion order
func (c CalculatedTaxCollection) All() []CalculatedTax {
	out := make([]CalculatedTax, len(c.taxes))
	copy(out, c.taxes)
	return out
}

// Clone returns a collection that shares no backing array with c
func (c CalculatedTaxCollection) Clone() CalculatedTaxCollection {
	return CalculatedTaxCollection{taxes: c.All()}
}

// Get returns the entry for the given tax rate
func (c CalculatedTaxCollection) Get(taxRate decimal.Decimal) (CalculatedTax, bool) {
	if i := c.indexOf(taxRate); i >= 0 {
		return c.taxes[i], true
	}
	return CalculatedTax{}, false
}

// First returns the first entry of the collection
func (c CalculatedTaxCollection) First() (CalculatedTax, bool) {
	if len(c.taxes) == 0 {
		return CalculatedTax{}, false
	}
	return c.taxes[0], true
}

// Amount returns the sum of all tax amounts
func (c CalculatedTaxCollection) Amount() decimal.Decimal {
	sum := decimal.Zero
	for _, tax := range c.taxes {
		sum = sum.Add(tax.Tax)
	}
	return sum
}

// Set returns a collection in which the entry for tax.TaxRate is replaced by tax
func (c CalculatedTaxCollection) Set(tax CalculatedTax) CalculatedTaxCollection {
	out := c.All()
	if i := c.indexOf(tax.TaxRate); i >= 0 {
		out[i] = tax
	} else {
		out = append(out, tax)
	}
	return CalculatedTaxCollection{taxes: out}
}

// Add returns a collection in which tax is summed into the entry of the same rate
func (c CalculatedTaxCollection) Add(tax CalculatedTax) CalculatedTaxCollection {
	existing, ok := c.Get(tax.TaxRate)
	if !ok {
		return c.Set(tax)
	}
	return c.Set(CalculatedTax{
		Tax:     existing.Tax.Add(tax.Tax),
		TaxRate: existing.TaxRate,
		Price:   existing.Price.Add(tax.Price),
	})
}

// Remove returns a collection without the entry for the given tax rate
func (c CalculatedTaxCollection) Remove(taxRate decimal.Decimal) CalculatedTaxCollection {
	i := c.indexOf(taxRate)
	if i < 0 {
		return c
	}
	out := make([]CalculatedTax, 0, len(c.taxes)-1)
	out = append(out, c.taxes[:i]...)
	out = append(out, c.taxes[i+1:]...)
	return CalculatedTaxCollection{taxes: out}
}

func (c CalculatedTaxCollection) indexOf(taxRate decimal.Decimal) int {
	for i, tax := range c.taxes {
		if tax.TaxRate.Equal(taxRate) {
			return i
		}
	}
	return -1
}

// MarshalJSON encodes the collection as a JSON array
func (c CalculatedTaxCollection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.All())
}

// UnmarshalJSON decodes a JSON array of taxes
func (c *CalculatedTaxCollection) UnmarshalJSON(data []byte) error {
	var taxes []CalculatedTax
	if err := json.Unmarshal(data, &taxes); err != nil {
		return err
	}
	*c = NewCalculatedTaxCollection(taxes...)
	return nil
}

// TaxRule states that Percentage percent of a price is taxed at TaxRate
type TaxRule struct {
	TaxRate    decimal.Decimal `json:"taxRate"`
	Percentage decimal.Decimal `json:"percentage"`
}

// NewTaxRule creates a TaxRule. A rule covering the whole price has percentage 100.
func NewTaxRule(taxRate, percentage decimal.Decimal) TaxRule {
	return TaxRule{TaxRate: taxRate, Percentage: percentage}
}

// TaxRuleCollection is a set of tax rules keyed by tax rate
type TaxRuleCollection struct {
	rules []TaxRule
}

// NewTaxRuleCollection creates a collection from the given rules. A later rule with the
// same rate as an earlier one replaces it.
func NewTaxRuleCollection(rules ...TaxRule) TaxRuleCollection {
	out := make([]TaxRule, 0, len(rules))
	for _, rule := range rules {
		replaced := false
		for i := range out {
			if out[i].TaxRate.Equal(rule.TaxRate) {
				out[i] = rule
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, rule)
		}
	}
	return TaxRuleCollection{rules: out}
}

// Len returns the number of rules
func (c TaxRuleCollection) Len() int {
	return len(c.rules)
}

// All returns a copy of the rules
func (c TaxRuleCollection) All() []TaxRule {
	out := make([]TaxRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Clone returns a collection that shares no backing array with c
func (c TaxRuleCollection) Clone() TaxRuleCollection {
	return TaxRuleCollection{rules: c.All()}
}

// Get returns the rule for exactly the given tax rate
func (c TaxRuleCollection) Get(taxRate decimal.Decimal) (TaxRule, bool) {
	for _, rule := range c.rules {
		if rule.TaxRate.Equal(taxRate) {
			return rule, true
		}
	}
	return TaxRule{}, false
}

// findMatchingRate returns the rule whose rate is tolerance-equal to taxRate
func (c TaxRuleCollection) findMatchingRate(taxRate decimal.Decimal) (TaxRule, bool) {
	if rule, ok := c.Get(taxRate); ok {
		return rule, true
	}
	for _, rule := range c.rules {
		if FloatEquals(rule.TaxRate, taxRate) {
			return rule, true
		}
	}
	return TaxRule{}, false
}

// MarshalJSON encodes the collection as a JSON array
func (c TaxRuleCollection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.All())
}

// UnmarshalJSON decodes a JSON array of tax rules
func (c *TaxRuleCollection) UnmarshalJSON(data []byte) error {
	var rules []TaxRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return err
	}
	*c = NewTaxRuleCollection(rules...)
	return nil
}
