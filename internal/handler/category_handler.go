package handler

import (
	"errors"
	"net/http"
	"strconv"

	"fooddupe/internal/apperr"
	"fooddupe/internal/middleware"
	"fooddupe/internal/model"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// CategoryHandler manages the tenant's menu sections
type CategoryHandler struct {
	db *gorm.DB
}

// NewCategoryHandler wires the category handler
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

// CategoryRequest defines the structure for category creation/update requests
type CategoryRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	Active    bool   `json:"active"`
}

// Create handles POST /api/categories
func (h *CategoryHandler) Create(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name == "" {
		return apperr.Validation("name is required")
	}

	category := model.Category{
		TenantID:  tenant.ID,
		Name:      req.Name,
		SortOrder: req.SortOrder,
		Active:    req.Active,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&category).Error; err != nil {
		return apperr.Internal("failed to create category", err)
	}
	return respondMessage(c, http.StatusCreated, category, "Category created successfully")
}

// Update handles PUT /api/categories/:id
func (h *CategoryHandler) Update(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return apperr.Validation("invalid category id")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	var category model.Category
	err = h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ?", tenant.ID).
		First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("category not found")
		}
		return apperr.Internal("failed to load category", err)
	}

	category.Name = req.Name
	category.SortOrder = req.SortOrder
	category.Active = req.Active
	if err := h.db.WithContext(c.Request().Context()).Save(&category).Error; err != nil {
		return apperr.Internal("failed to update category", err)
	}
	return respondMessage(c, http.StatusOK, category, "Category updated successfully")
}

// Delete handles DELETE /api/categories/:id (soft delete)
func (h *CategoryHandler) Delete(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return apperr.Validation("invalid category id")
	}

	res := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ?", tenant.ID).
		Delete(&model.Category{}, id)
	if res.Error != nil {
		return apperr.Internal("failed to delete category", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("category not found")
	}
	return respondMessage(c, http.StatusOK, nil, "Category deleted successfully")
}
