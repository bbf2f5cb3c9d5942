package ordercalc

import (
	"context"

	"github.com/google/uuid"
)

// ReturnOrderState is the state of a return order
type ReturnOrderState string

const (
	ReturnOrderStateRequested ReturnOrderState = "requested"
	ReturnOrderStateAnnounced ReturnOrderState = "announced"
	ReturnOrderStateApproved  ReturnOrderState = "approved"
	ReturnOrderStateReceived  ReturnOrderState = "received"
	ReturnOrderStateCompleted ReturnOrderState = "completed"
	ReturnOrderStateDeclined  ReturnOrderState = "declined"
	ReturnOrderStateCancelled ReturnOrderState = "cancelled"
)

// IsValid checks if the state is a known ReturnOrderState
func (s ReturnOrderState) IsValid() bool {
	switch s {
	case ReturnOrderStateRequested, ReturnOrderStateAnnounced, ReturnOrderStateApproved,
		ReturnOrderStateReceived, ReturnOrderStateCompleted, ReturnOrderStateDeclined,
		ReturnOrderStateCancelled:
		return true
	}
	return false
}

// ParticipatesInCalculation reports whether return orders in this state affect the
// financial state of their order
func (s ReturnOrderState) ParticipatesInCalculation() bool {
	switch s {
	case ReturnOrderStateRequested, ReturnOrderStateAnnounced, ReturnOrderStateDeclined, ReturnOrderStateCancelled:
		return false
	}
	return s.IsValid()
}

// NonCalculatedReturnOrderStates returns the states excluded from calculation
func NonCalculatedReturnOrderStates() []ReturnOrderState {
	return []ReturnOrderState{
		ReturnOrderStateRequested,
		ReturnOrderStateAnnounced,
		ReturnOrderStateDeclined,
		ReturnOrderStateCancelled,
	}
}

// CalculatableOrderFactory builds calculatable orders from stored orders and return orders.
// All lookups are made at the given version. Missing entities yield shared.ErrNotFound.
type CalculatableOrderFactory interface {
	CreateCalculatableOrderFromOrder(ctx context.Context, orderID, versionID uuid.UUID) (*CalculatableOrder, error)
	// CreateCalculatableOrdersFromReturnOrdersOfOrder skips return orders whose state does
	// not participate in calculation.
	CreateCalculatableOrdersFromReturnOrdersOfOrder(ctx context.Context, orderID, versionID uuid.UUID) ([]*CalculatableOrder, error)
	CreateCalculatableOrderFromReturnOrder(ctx context.Context, returnOrderID, versionID uuid.UUID) (*CalculatableOrder, error)
}

// LiveVersionID is the version id of the live version of an order. Other version ids
// identify snapshots.
var LiveVersionID = uuid.MustParse("0fa91ce3-e96a-4bc2-be4b-d9ce752c3425")
