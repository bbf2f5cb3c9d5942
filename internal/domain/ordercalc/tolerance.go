package ordercalc

import "github.com/shopspring/decimal"

// Epsilon is the absolute tolerance used when comparing monetary amounts, quantities and
// tax rates. It is well below the smallest unit of 2-4 decimal currency math.
var Epsilon = decimal.New(1, -4)

// FloatEquals reports whether a and b differ by less than Epsilon.
func FloatEquals(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// FloatIsZero reports whether a is zero within Epsilon.
func FloatIsZero(a decimal.Decimal) bool {
	return FloatEquals(a, decimal.Zero)
}
