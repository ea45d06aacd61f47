package middleware

import (
	"errors"
	"net"
	"strings"

	"fooddupe/internal/apperr"
	"fooddupe/internal/model"
	"fooddupe/pkg/config"
	"fooddupe/pkg/logger"
	"fooddupe/prometheus"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tenantContextKey = "tenant"

// TenantResolver derives the active tenant for every request and attaches it
// to the echo context. Resolution order: X-Tenant header, then the first
// host label when the host is under the configured base domain, then the
// configured default tenant. Requests against suspended or cancelled tenants
// are rejected.
type TenantResolver struct {
	db    *gorm.DB
	cfg   *config.TenantConfig
	cache *expirable.LRU[string, model.Tenant]
}

// NewTenantResolver builds the resolver with a TTL cache in front of the
// tenant lookup.
func NewTenantResolver(db *gorm.DB, cfg *config.TenantConfig) *TenantResolver {
	return &TenantResolver{
		db:    db,
		cfg:   cfg,
		cache: expirable.NewLRU[string, model.Tenant](256, nil, cfg.CacheTTL),
	}
}

// Middleware returns the echo middleware performing the resolution
func (r *TenantResolver) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			subdomain, source := r.subdomainFor(c)
			if subdomain == "" {
				prometheus.RecordTenantResolution(source, "unresolved")
				log.Warn("No tenant could be resolved",
					zap.String("host", c.Request().Host))
				return apperr.NotFound("tenant not found")
			}

			tenant, err := r.lookup(c, subdomain)
			if err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					prometheus.RecordTenantResolution(source, "unknown")
					log.Warn("Unknown tenant", zap.String("subdomain", subdomain))
				}
				return err
			}

			if !tenant.Status.CanOrder() {
				prometheus.RecordTenantResolution(source, "inactive")
				log.Warn("Tenant is not active",
					zap.String("subdomain", subdomain),
					zap.String("status", string(tenant.Status)))
				return apperr.Forbidden("tenant account is %s", strings.ToLower(string(tenant.Status)))
			}

			prometheus.RecordTenantResolution(source, "ok")
			c.Set(tenantContextKey, tenant)
			c.Set("logger", log.With(zap.String("tenant", tenant.Subdomain)))
			return next(c)
		}
	}
}

// Invalidate evicts a subdomain from the cache. Called by admin handlers on
// status changes so suspensions do not linger for the TTL.
func (r *TenantResolver) Invalidate(subdomain string) {
	r.cache.Remove(strings.ToLower(subdomain))
}

func (r *TenantResolver) subdomainFor(c echo.Context) (subdomain, source string) {
	if header := c.Request().Header.Get("X-Tenant"); header != "" {
		return strings.ToLower(header), "header"
	}

	host := c.Request().Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	if r.cfg.BaseDomain != "" && strings.HasSuffix(host, "."+r.cfg.BaseDomain) {
		label := strings.TrimSuffix(host, "."+r.cfg.BaseDomain)
		if label != "" && !strings.Contains(label, ".") {
			return label, "host"
		}
	}

	if r.cfg.DefaultTenant != "" {
		return strings.ToLower(r.cfg.DefaultTenant), "default"
	}
	return "", "none"
}

func (r *TenantResolver) lookup(c echo.Context, subdomain string) (model.Tenant, error) {
	if tenant, ok := r.cache.Get(subdomain); ok {
		return tenant, nil
	}

	var tenant model.Tenant
	err := r.db.WithContext(c.Request().Context()).
		Where("subdomain = ?", subdomain).
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Tenant{}, apperr.NotFound("tenant not found")
		}
		return model.Tenant{}, apperr.Internal("failed to resolve tenant", err)
	}

	r.cache.Add(subdomain, tenant)
	return tenant, nil
}

// TenantFromContext retrieves the resolved tenant from the echo context
func TenantFromContext(c echo.Context) (*model.Tenant, bool) {
	tenant, ok := c.Get(tenantContextKey).(model.Tenant)
	if !ok {
		return nil, false
	}
	return &tenant, true
}
