package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// orderHandler handles service orders.
type orderHandler struct {
	orderService portssvc.OrderSvcFacade
}

func newOrderHandler(svc portssvc.OrderSvcFacade) *orderHandler {
	return &orderHandler{orderService: svc}
}

// registerOrderRoutes registers routes related to service orders.
func registerOrderRoutes(rg *gin.RouterGroup, orderService portssvc.OrderSvcFacade) {
	h := newOrderHandler(orderService)

	orders := rg.Group("/orders")
	{
		orders.POST("", h.createOrder)
		orders.GET("", h.listOrders)
		orders.GET("/dashboard", h.dashboard)
		orders.GET("/:orderID", h.getOrder)
		orders.PUT("/:orderID", h.updateOrder)
		orders.DELETE("/:orderID", h.deleteOrder)
	}
}

// createOrder godoc
// @Summary Open a service order
// @Description Creates an OPEN order. Part lines are allocated from inventory in the same transaction.
// @Tags orders
// @Accept json
// @Produce json
// @Param order body dto.CreateOrderRequest true "Order"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "Inactive account, monthly quota reached or foreign item"
// @Failure 422 {object} ErrorResponse "Insufficient stock"
// @Security BearerAuth
// @Router /orders [post]
func (h *orderHandler) createOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), accountID, req)
	if err != nil {
		respondError(c, err, "Failed to create order")
		return
	}

	logger.Info("Order created", slog.String("order_id", order.OrderID), slog.String("value", order.Value.String()))
	c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}

// listOrders godoc
// @Summary List orders, newest first
// @Tags orders
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} dto.OrderResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /orders [get]
func (h *orderHandler) listOrders(c *gin.Context) {
	var params dto.ListOrdersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, dto.ToListOrderResponse(orders))
}

// dashboard godoc
// @Summary Order counts by status and for the current month
// @Tags orders
// @Produce json
// @Success 200 {object} dto.DashboardResponse
// @Security BearerAuth
// @Router /orders/dashboard [get]
func (h *orderHandler) dashboard(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	stats, err := h.orderService.DashboardStats(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, dto.ToDashboardResponse(stats))
}

// getOrder godoc
// @Summary Get an order with its lines
// @Tags orders
// @Produce json
// @Param orderID path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /orders/{orderID} [get]
func (h *orderHandler) getOrder(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), accountID, c.Param("orderID"))
	if err != nil {
		respondError(c, err, "Failed to get order")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// updateOrder godoc
// @Summary Update an order
// @Description Partial update. Line lists replace the current lines; a status change must follow the transition table.
// @Tags orders
// @Accept json
// @Produce json
// @Param orderID path string true "Order ID"
// @Param order body dto.UpdateOrderRequest true "Fields to change"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Failure 422 {object} ErrorResponse "Insufficient stock"
// @Security BearerAuth
// @Router /orders/{orderID} [put]
func (h *orderHandler) updateOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), accountID, c.Param("orderID"), req)
	if err != nil {
		respondError(c, err, "Failed to update order")
		return
	}

	logger.Info("Order updated", slog.String("order_id", order.OrderID), slog.String("status", string(order.Status)))
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// deleteOrder godoc
// @Summary Delete an order
// @Description Returns allocated parts to stock before removing the order.
// @Tags orders
// @Param orderID path string true "Order ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /orders/{orderID} [delete]
func (h *orderHandler) deleteOrder(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), accountID, c.Param("orderID")); err != nil {
		respondError(c, err, "Failed to delete order")
		return
	}
	c.Status(http.StatusNoContent)
}
