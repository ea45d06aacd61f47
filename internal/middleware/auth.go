package middleware

import (
	"strings"

	"fooddupe/internal/apperr"
	"fooddupe/internal/model"
	"fooddupe/pkg/jwtutil"
	"fooddupe/pkg/logger"
	"fooddupe/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token and stores the claims in context
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return apperr.Unauthorized("missing authorization token")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_format")
			return apperr.Unauthorized("invalid authorization format, expected Bearer token")
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return apperr.Unauthorized("invalid or expired token")
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("user_role", claims.Role)
		if claims.TenantID != nil {
			c.Set("user_tenant_id", *claims.TenantID)
		}

		return next(c)
	}
}

// RequireRole gates a route group on the user's role
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole, _ := c.Get("user_role").(string)
			if userRole != role {
				logger.FromContext(c).Warn("Insufficient role",
					zap.String("required", role),
					zap.String("actual", userRole))
				prometheus.RecordAuthError("insufficient_role")
				return apperr.Forbidden("insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequireTenantMatch rejects authenticated requests whose token tenant does
// not match the resolved tenant. Platform admins may act on any tenant.
func RequireTenantMatch(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, _ := c.Get("user_role").(string); role == model.RolePlatformAdmin {
			return next(c)
		}

		tenant, ok := TenantFromContext(c)
		if !ok {
			return apperr.NotFound("tenant not found")
		}
		tokenTenantID, ok := c.Get("user_tenant_id").(uint)
		if !ok || tokenTenantID != tenant.ID {
			logger.FromContext(c).Warn("Token tenant does not match resolved tenant",
				zap.String("tenant", tenant.Subdomain))
			prometheus.RecordAuthError("tenant_mismatch")
			return apperr.Forbidden("access denied for this tenant")
		}
		return next(c)
	}
}
