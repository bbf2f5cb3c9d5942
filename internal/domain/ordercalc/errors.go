package ordercalc

import "github.com/erp/ordercalc/internal/domain/shared"

// Precondition violations raised by the calculation core. They signal a caller bug and
// must not be retried with the same input.
var (
	ErrTaxStatusMismatch = shared.NewDomainError(
		"TAX_STATUS_MISMATCH",
		"Cart prices with different tax status cannot be summed",
	)
	ErrUnitPriceMismatch = shared.NewDomainError(
		"UNIT_PRICE_MISMATCH",
		"Calculated prices with different unit prices cannot be summed",
	)
	ErrShippingCostsQuantity = shared.NewDomainError(
		"INVALID_SHIPPING_COSTS_QUANTITY",
		"Shipping costs must have a quantity of exactly 1",
	)
)
