package handler

import (
	"net/http"
	"strconv"

	"fooddupe/internal/apperr"
	"fooddupe/internal/middleware"
	"fooddupe/internal/model"
	"fooddupe/internal/service"
	"fooddupe/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OrderHandler exposes the order lifecycle over HTTP
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler wires the order handler
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	var req service.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse order request", zap.Error(err))
		return apperr.Validation("invalid request body")
	}

	order, err := h.orders.Create(c.Request().Context(), tenant, &req)
	if err != nil {
		return err
	}

	return respondMessage(c, http.StatusCreated, order, "Order placed successfully")
}

// List handles GET /api/orders with optional status and type filters
func (h *OrderHandler) List(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	orders, err := h.orders.List(c.Request().Context(), tenant, c.QueryParam("status"), c.QueryParam("type"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, orders)
}

// Get handles GET /api/orders/:id
func (h *OrderHandler) Get(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return apperr.Validation("invalid order id")
	}

	order, err := h.orders.Get(c.Request().Context(), tenant, uint(id))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/:id/status
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return apperr.Validation("invalid order id")
	}

	var req struct {
		Status           model.OrderStatus `json:"status"`
		EstimatedMinutes *int              `json:"estimated_minutes,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse status update request", zap.Error(err))
		return apperr.Validation("invalid request body")
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), tenant, uint(id), req.Status, req.EstimatedMinutes)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, order, "Order status updated")
}

// Track handles GET /api/orders/track/:number, the public tracking view
func (h *OrderHandler) Track(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	order, err := h.orders.Track(c.Request().Context(), tenant, c.Param("number"))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, echo.Map{
		"number":            order.Number,
		"status":            order.Status,
		"status_message":    order.Status.Message(),
		"type":              order.Type,
		"total":             order.Total,
		"estimated_minutes": order.EstimatedMinutes,
		"items":             order.Items,
		"created_at":        order.CreatedAt,
	})
}
