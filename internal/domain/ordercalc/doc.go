// Package ordercalc models orders and return orders as signed, mergeable collections of
// priced line items and computes monetary deltas across an order's lifecycle.
//
// Orders, return orders and invoice corrections are reduced to CalculatableOrder values.
// Negating an order yields what returning it would subtract; merging orders sums their
// prices and consolidates line items that describe the same real-world item. Together
// these two operations let OrderDifferenceCalculator express "what changed" between two
// versions of an order, including the return orders recorded against each version.
package ordercalc
