package handler

import (
	"context"

	orderapp "github.com/erp/ordercalc/internal/application/ordercalc"
	"github.com/erp/ordercalc/internal/interfaces/http/dto"
	"github.com/erp/ordercalc/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderCalculationService is the application service behind OrderCalculationHandler
type OrderCalculationService interface {
	CalculateOrderDifference(ctx context.Context, orderID, oldVersionID, newVersionID uuid.UUID) (*orderapp.OrderDifferenceResponse, error)
	MergeOrders(ctx context.Context, req orderapp.MergeOrdersRequest) (*orderapp.CalculatableOrderResponse, error)
	NegateOrder(ctx context.Context, req orderapp.NegateOrderRequest) (*orderapp.CalculatableOrderResponse, error)
	InvalidateDifferences(ctx context.Context, orderID uuid.UUID) error
}

// OrderCalculationHandler handles order calculation API endpoints
type OrderCalculationHandler struct {
	BaseHandler
	service OrderCalculationService
}

// NewOrderCalculationHandler creates a new OrderCalculationHandler
func NewOrderCalculationHandler(service OrderCalculationService) *OrderCalculationHandler {
	return &OrderCalculationHandler{service: service}
}

// GetDifference godoc
// @ID           getOrderDifference
// @Summary      Calculate the difference between two order versions
// @Description  Returns the order delta from the old to the new version, with return orders counted against the order
// @Tags         order-calculations
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        old_version_id query string true "Old version ID" format(uuid)
// @Param        new_version_id query string true "New version ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderDifferenceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /orders/{id}/difference [get]
func (h *OrderCalculationHandler) GetDifference(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var query dto.VersionPairQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	// Both ids passed the uuid binding rule
	oldVersionID := uuid.MustParse(query.OldVersionID)
	newVersionID := uuid.MustParse(query.NewVersionID)

	resp, err := h.service.CalculateOrderDifference(c.Request.Context(), orderID, oldVersionID, newVersionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// InvalidateDifferenceCache godoc
// @ID           invalidateOrderDifferenceCache
// @Summary      Drop cached differences of an order
// @Description  Removes every cached version difference of the order, on this instance and its peers
// @Tags         order-calculations
// @Param        id path string true "Order ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /orders/{id}/difference-cache [delete]
func (h *OrderCalculationHandler) InvalidateDifferenceCache(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.InvalidateDifferences(c.Request.Context(), orderID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Merge godoc
// @ID           mergeOrders
// @Summary      Merge orders
// @Description  Adds the line items, totals and shipping costs of each order to the base order
// @Tags         order-calculations
// @Accept       json
// @Produce      json
// @Param        request body orderapp.MergeOrdersRequest true "Orders to merge"
// @Success      200 {object} APIResponse[orderapp.CalculatableOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /order-calculations/merge [post]
func (h *OrderCalculationHandler) Merge(c *gin.Context) {
	var req orderapp.MergeOrdersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.MergeOrders(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Negate godoc
// @ID           negateOrder
// @Summary      Negate an order
// @Description  Flips the sign of every amount and quantity of the order
// @Tags         order-calculations
// @Accept       json
// @Produce      json
// @Param        request body orderapp.NegateOrderRequest true "Order to negate"
// @Success      200 {object} APIResponse[orderapp.CalculatableOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /order-calculations/negate [post]
func (h *OrderCalculationHandler) Negate(c *gin.Context) {
	var req orderapp.NegateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.NegateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
