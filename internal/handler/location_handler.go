package handler

import (
	"net/http"

	"fooddupe/internal/apperr"
	"fooddupe/internal/middleware"
	"fooddupe/internal/model"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// LocationHandler lists and creates a tenant's restaurant locations
type LocationHandler struct {
	db *gorm.DB
}

// NewLocationHandler wires the location handler
func NewLocationHandler(db *gorm.DB) *LocationHandler {
	return &LocationHandler{db: db}
}

// List handles GET /api/locations
func (h *LocationHandler) List(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	var locations []model.Location
	err := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ?", tenant.ID).
		Order("name").
		Find(&locations).Error
	if err != nil {
		return apperr.Internal("failed to list locations", err)
	}
	return respond(c, http.StatusOK, locations)
}

// Create handles POST /api/locations
func (h *LocationHandler) Create(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		City    string `json:"city"`
		Phone   string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name == "" {
		return apperr.Validation("name is required")
	}

	location := model.Location{
		TenantID: tenant.ID,
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
		Phone:    req.Phone,
		Active:   true,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&location).Error; err != nil {
		return apperr.Internal("failed to create location", err)
	}
	return respondMessage(c, http.StatusCreated, location, "Location created successfully")
}
