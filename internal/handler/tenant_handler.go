package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"fooddupe/internal/apperr"
	"fooddupe/internal/middleware"
	"fooddupe/internal/model"
	"fooddupe/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// TenantHandler exposes the super-admin console operations. Tenants are
// never hard-deleted; every admin action is a status change.
type TenantHandler struct {
	db       *gorm.DB
	resolver *middleware.TenantResolver
}

// NewTenantHandler wires the tenant admin handler
func NewTenantHandler(db *gorm.DB, resolver *middleware.TenantResolver) *TenantHandler {
	return &TenantHandler{db: db, resolver: resolver}
}

// TenantRequest is the signup payload
type TenantRequest struct {
	Name        string           `json:"name"`
	Subdomain   string           `json:"subdomain"`
	Plan        string           `json:"plan,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
	DeliveryFee *decimal.Decimal `json:"delivery_fee,omitempty"`
}

// Create handles POST /api/admin/tenants
func (h *TenantHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req TenantRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name == "" {
		return apperr.Validation("name is required")
	}
	req.Subdomain = strings.ToLower(req.Subdomain)
	if !subdomainPattern.MatchString(req.Subdomain) {
		return apperr.Validation("subdomain must be lowercase letters, digits and hyphens")
	}

	var count int64
	h.db.WithContext(c.Request().Context()).
		Model(&model.Tenant{}).
		Where("subdomain = ?", req.Subdomain).
		Count(&count)
	if count > 0 {
		return apperr.Conflict("subdomain %q is already taken", req.Subdomain)
	}

	tenant := model.Tenant{
		Name:        req.Name,
		Subdomain:   req.Subdomain,
		Status:      model.TenantTrial,
		Plan:        req.Plan,
		TaxRate:     req.TaxRate,
		DeliveryFee: req.DeliveryFee,
	}
	if tenant.Plan == "" {
		tenant.Plan = "starter"
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&tenant).Error; err != nil {
		return apperr.Internal("failed to create tenant", err)
	}

	log.Info("Tenant created",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("subdomain", tenant.Subdomain))
	return respondMessage(c, http.StatusCreated, tenant, "Tenant created successfully")
}

// List handles GET /api/admin/tenants
func (h *TenantHandler) List(c echo.Context) error {
	var tenants []model.Tenant
	err := h.db.WithContext(c.Request().Context()).
		Order("created_at DESC").
		Find(&tenants).Error
	if err != nil {
		return apperr.Internal("failed to list tenants", err)
	}
	return respond(c, http.StatusOK, tenants)
}

// UpdateStatus handles PUT /api/admin/tenants/:id/status
func (h *TenantHandler) UpdateStatus(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return apperr.Validation("invalid tenant id")
	}

	var req struct {
		Status model.TenantStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if !req.Status.Valid() {
		return apperr.Validation("invalid tenant status %q", req.Status)
	}

	var tenant model.Tenant
	if err := h.db.WithContext(c.Request().Context()).First(&tenant, id).Error; err != nil {
		return apperr.NotFound("tenant not found")
	}

	if err := h.db.WithContext(c.Request().Context()).
		Model(&tenant).
		Update("status", req.Status).Error; err != nil {
		return apperr.Internal("failed to update tenant status", err)
	}
	tenant.Status = req.Status

	// Evict the resolver cache so suspensions apply immediately
	h.resolver.Invalidate(tenant.Subdomain)

	log.Info("Tenant status updated",
		zap.String("subdomain", tenant.Subdomain),
		zap.String("status", string(req.Status)))
	return respondMessage(c, http.StatusOK, tenant, "Tenant status updated")
}
