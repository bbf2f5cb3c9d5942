package ordercalc

import (
	"context"

	"github.com/google/uuid"
)

// DifferenceKey identifies a calculated order difference
type DifferenceKey struct {
	OrderID      uuid.UUID
	OldVersionID uuid.UUID
	NewVersionID uuid.UUID
}

// String returns "<order>:<old version>:<new version>"
func (k DifferenceKey) String() string {
	return k.OrderID.String() + ":" + k.OldVersionID.String() + ":" + k.NewVersionID.String()
}

// Cacheable reports whether a difference may be cached. The live version changes in place,
// so differences involving it are always recalculated.
func (k DifferenceKey) Cacheable() bool {
	return k.OldVersionID != LiveVersionID && k.NewVersionID != LiveVersionID
}

// DifferenceCache stores calculated order differences. A miss returns (nil, false, nil).
type DifferenceCache interface {
	Get(ctx context.Context, key DifferenceKey) (*CalculatableOrder, bool, error)
	Set(ctx context.Context, key DifferenceKey, difference *CalculatableOrder) error
	// InvalidateOrder drops every cached difference of the order
	InvalidateOrder(ctx context.Context, orderID uuid.UUID) error
}
