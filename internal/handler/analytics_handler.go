package handler

import (
	"net/http"

	"fooddupe/internal/apperr"
	"fooddupe/internal/middleware"
	"fooddupe/internal/service"

	"github.com/labstack/echo/v4"
)

// AnalyticsHandler exposes the dashboard and platform statistics
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler wires the analytics handler
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Restaurant handles GET /api/analytics/restaurant/:tenant. The path
// parameter must match the resolved tenant; existence of other tenants is
// never confirmed or denied.
func (h *AnalyticsHandler) Restaurant(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}
	if sub := c.Param("tenant"); sub != "" && sub != tenant.Subdomain {
		return apperr.NotFound("tenant not found")
	}

	window := c.QueryParam("window")
	if window == "" {
		window = "today"
	}

	stats, err := h.analytics.Restaurant(c.Request().Context(), tenant.ID, window)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}

// Sales handles GET /api/admin/analytics/sales/:period, the cross-tenant
// platform rollup for the super-admin console.
func (h *AnalyticsHandler) Sales(c echo.Context) error {
	stats, err := h.analytics.Platform(c.Request().Context(), c.Param("period"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}
