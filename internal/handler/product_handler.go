package handler

import (
	"errors"
	"net/http"
	"strconv"

	"fooddupe/internal/apperr"
	"fooddupe/internal/middleware"
	"fooddupe/internal/model"
	"fooddupe/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductHandler exposes the menu and its management endpoints
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler wires the product handler
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  uint            `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	Popular     bool            `json:"popular"`
	SortOrder   int             `json:"sort_order"`
}

// List handles GET /api/products, the active menu
func (h *ProductHandler) List(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	var products []model.Product
	err := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ? AND active = ?", tenant.ID, true).
		Order("sort_order, name").
		Find(&products).Error
	if err != nil {
		return apperr.Internal("failed to list products", err)
	}
	return respond(c, http.StatusOK, products)
}

// ByCategory handles GET /api/products/by-category, the menu grouped into
// its categories
func (h *ProductHandler) ByCategory(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}
	ctx := c.Request().Context()

	var categories []model.Category
	err := h.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenant.ID, true).
		Order("sort_order, name").
		Find(&categories).Error
	if err != nil {
		return apperr.Internal("failed to list categories", err)
	}

	var products []model.Product
	err = h.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenant.ID, true).
		Order("sort_order, name").
		Find(&products).Error
	if err != nil {
		return apperr.Internal("failed to list products", err)
	}

	byCategory := make(map[uint][]model.Product, len(categories))
	for _, p := range products {
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}

	type categoryMenu struct {
		model.Category
		Products []model.Product `json:"products"`
	}
	menu := make([]categoryMenu, 0, len(categories))
	for _, cat := range categories {
		menu = append(menu, categoryMenu{Category: cat, Products: byCategory[cat.ID]})
	}
	return respond(c, http.StatusOK, menu)
}

// Categories handles GET /api/products/categories
func (h *ProductHandler) Categories(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	var categories []model.Category
	err := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ? AND active = ?", tenant.ID, true).
		Order("sort_order, name").
		Find(&categories).Error
	if err != nil {
		return apperr.Internal("failed to list categories", err)
	}
	return respond(c, http.StatusOK, categories)
}

// Create handles POST /api/products
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name == "" {
		return apperr.Validation("name is required")
	}
	if req.Price.IsNegative() || req.Price.IsZero() {
		return apperr.Validation("price must be greater than zero")
	}

	// The category must belong to the same tenant
	var category model.Category
	err := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ?", tenant.ID).
		First(&category, req.CategoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("category not found")
		}
		return apperr.Internal("failed to load category", err)
	}

	product := model.Product{
		TenantID:    tenant.ID,
		CategoryID:  category.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      req.Active,
		Popular:     req.Popular,
		SortOrder:   req.SortOrder,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&product).Error; err != nil {
		return apperr.Internal("failed to create product", err)
	}

	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
		zap.String("tenant", tenant.Subdomain))
	return respondMessage(c, http.StatusCreated, product, "Product created successfully")
}

// Update handles PUT /api/products/:id
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return apperr.Validation("invalid product id")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	var product model.Product
	err = h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ?", tenant.ID).
		First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product not found")
		}
		return apperr.Internal("failed to load product", err)
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Active = req.Active
	product.Popular = req.Popular
	product.SortOrder = req.SortOrder
	if req.CategoryID != 0 {
		product.CategoryID = req.CategoryID
	}

	if err := h.db.WithContext(c.Request().Context()).Save(&product).Error; err != nil {
		return apperr.Internal("failed to update product", err)
	}

	log.Info("Product updated",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name))
	return respondMessage(c, http.StatusOK, product, "Product updated successfully")
}

// Delete handles DELETE /api/products/:id (soft delete)
func (h *ProductHandler) Delete(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return apperr.NotFound("tenant not found")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return apperr.Validation("invalid product id")
	}

	res := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ?", tenant.ID).
		Delete(&model.Product{}, id)
	if res.Error != nil {
		return apperr.Internal("failed to delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product not found")
	}
	return respondMessage(c, http.StatusOK, nil, "Product deleted successfully")
}
