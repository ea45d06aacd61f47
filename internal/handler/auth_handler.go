package handler

import (
	"errors"
	"net/http"

	"fooddupe/internal/apperr"
	"fooddupe/internal/model"
	"fooddupe/pkg/jwtutil"
	"fooddupe/pkg/logger"
	"fooddupe/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler issues dashboard and admin tokens
type AuthHandler struct {
	db *gorm.DB
}

// NewAuthHandler wires the auth handler
func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		TenantID *uint  `json:"tenant_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("email and password are required")
	}
	if len(req.Password) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}

	var count int64
	h.db.WithContext(c.Request().Context()).
		Model(&model.User{}).
		Where("email = ?", req.Email).
		Count(&count)
	if count > 0 {
		return apperr.Conflict("email is already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}

	user := model.User{
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
		Role:     model.RoleStaff,
		TenantID: req.TenantID,
		Active:   true,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&user).Error; err != nil {
		return apperr.Internal("failed to create user", err)
	}

	log.Info("User registered", zap.String("email", user.Email))
	return respondMessage(c, http.StatusCreated, echo.Map{
		"id":    user.ID,
		"email": user.Email,
	}, "Registration successful")
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthAttempt()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	var user model.User
	err := h.db.WithContext(c.Request().Context()).
		Where("email = ? AND active = ?", req.Email, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			prometheus.RecordAuthError("user_not_found")
			return apperr.Unauthorized("invalid credentials")
		}
		return apperr.Internal("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return apperr.Unauthorized("invalid credentials")
	}

	var tenantSubdomain string
	if user.TenantID != nil {
		var tenant model.Tenant
		if err := h.db.WithContext(c.Request().Context()).First(&tenant, *user.TenantID).Error; err == nil {
			tenantSubdomain = tenant.Subdomain
		}
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.TenantID, tenantSubdomain, user.Role)
	if err != nil {
		return apperr.Internal("failed to generate token", err)
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", user.Role))
	return respond(c, http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":        user.ID,
			"email":     user.Email,
			"name":      user.Name,
			"role":      user.Role,
			"tenant_id": user.TenantID,
		},
	})
}
