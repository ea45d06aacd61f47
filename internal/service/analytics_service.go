package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fooddupe/internal/apperr"
	"fooddupe/internal/model"
	"fooddupe/prometheus"
)

// AnalyticsService derives summary statistics by scanning the order
// collection on demand. There is no materialized aggregate; this is
// acceptable while per-tenant order volume stays small.
type AnalyticsService struct {
	db *gorm.DB

	// now is swapped out by tests to pin the reporting windows
	now func() time.Time
}

// NewAnalyticsService wires the analytics service
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db, now: time.Now}
}

// TopProduct is one entry of the revenue ranking
type TopProduct struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// SeriesPoint is one fixed bucket of the revenue time series
type SeriesPoint struct {
	Label   string          `json:"label"`
	Start   time.Time       `json:"start"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// RestaurantStats is the per-tenant dashboard summary
type RestaurantStats struct {
	Window            string          `json:"window"`
	Orders            int             `json:"orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TopProducts       []TopProduct    `json:"top_products"`
	Series            []SeriesPoint   `json:"series"`
}

// TenantSales is one tenant's slice of the platform rollup
type TenantSales struct {
	TenantID  uint            `json:"tenant_id"`
	Name      string          `json:"name"`
	Subdomain string          `json:"subdomain"`
	Orders    int             `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// PlatformStats aggregates sales across all tenants
type PlatformStats struct {
	Period  string          `json:"period"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
	Tenants []TenantSales   `json:"tenants"`
}

const topProductLimit = 5

// Restaurant computes the tenant dashboard stats for a window of "today",
// "week" or "month". Cancelled orders are excluded throughout. The series
// granularity follows the window: hourly, daily, weekly.
func (s *AnalyticsService) Restaurant(ctx context.Context, tenantID uint, window string) (*RestaurantStats, error) {
	defer prometheus.TrackDBOperation("analytics_restaurant")(time.Now())

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var start time.Time
	var buckets int
	var bucketSize time.Duration
	switch window {
	case "today":
		start = midnight
		buckets = 24
		bucketSize = time.Hour
	case "week":
		start = midnight.AddDate(0, 0, -6)
		buckets = 7
		bucketSize = 24 * time.Hour
	case "month":
		start = midnight.AddDate(0, 0, -27)
		buckets = 4
		bucketSize = 7 * 24 * time.Hour
	default:
		return nil, apperr.Validation("invalid analytics window %q", window)
	}

	var orders []model.Order
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND created_at >= ? AND status <> ?", tenantID, start, model.StatusCancelled).
		Preload("Items").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal("failed to scan orders", err)
	}

	stats := &RestaurantStats{
		Window:            window,
		Orders:            len(orders),
		Revenue:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
		Series:            make([]SeriesPoint, buckets),
	}
	for i := range stats.Series {
		bucketStart := start.Add(time.Duration(i) * bucketSize)
		stats.Series[i] = SeriesPoint{
			Label:   bucketLabel(window, bucketStart),
			Start:   bucketStart,
			Revenue: decimal.Zero,
		}
	}

	byProduct := make(map[uint]*TopProduct)
	for _, order := range orders {
		stats.Revenue = stats.Revenue.Add(order.Total)

		idx := int(order.CreatedAt.Sub(start) / bucketSize)
		if idx >= 0 && idx < buckets {
			stats.Series[idx].Orders++
			stats.Series[idx].Revenue = stats.Series[idx].Revenue.Add(order.Total)
		}

		for _, item := range order.Items {
			tp, ok := byProduct[item.ProductID]
			if !ok {
				tp = &TopProduct{ProductID: item.ProductID, Name: item.Name, Revenue: decimal.Zero}
				byProduct[item.ProductID] = tp
			}
			tp.Quantity += item.Quantity
			tp.Revenue = tp.Revenue.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	if stats.Orders > 0 {
		stats.AverageOrderValue = stats.Revenue.Div(decimal.NewFromInt(int64(stats.Orders))).Round(2)
	}

	stats.TopProducts = make([]TopProduct, 0, len(byProduct))
	for _, tp := range byProduct {
		stats.TopProducts = append(stats.TopProducts, *tp)
	}
	sort.Slice(stats.TopProducts, func(i, j int) bool {
		return stats.TopProducts[i].Revenue.GreaterThan(stats.TopProducts[j].Revenue)
	})
	if len(stats.TopProducts) > topProductLimit {
		stats.TopProducts = stats.TopProducts[:topProductLimit]
	}

	return stats, nil
}

// Platform aggregates sales across all tenants for a period of "week",
// "month" or "quarter".
func (s *AnalyticsService) Platform(ctx context.Context, period string) (*PlatformStats, error) {
	defer prometheus.TrackDBOperation("analytics_platform")(time.Now())

	var days int
	switch period {
	case "week":
		days = 7
	case "month":
		days = 30
	case "quarter":
		days = 90
	default:
		return nil, apperr.Validation("invalid analytics period %q", period)
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := midnight.AddDate(0, 0, -(days - 1))

	var orders []model.Order
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND status <> ?", start, model.StatusCancelled).
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal("failed to scan orders", err)
	}

	var tenants []model.Tenant
	if err := s.db.WithContext(ctx).Find(&tenants).Error; err != nil {
		return nil, apperr.Internal("failed to load tenants", err)
	}
	tenantByID := make(map[uint]model.Tenant, len(tenants))
	for _, t := range tenants {
		tenantByID[t.ID] = t
	}

	stats := &PlatformStats{
		Period:  period,
		Revenue: decimal.Zero,
	}
	byTenant := make(map[uint]*TenantSales)
	for _, order := range orders {
		stats.Orders++
		stats.Revenue = stats.Revenue.Add(order.Total)

		ts, ok := byTenant[order.TenantID]
		if !ok {
			t := tenantByID[order.TenantID]
			ts = &TenantSales{
				TenantID:  order.TenantID,
				Name:      t.Name,
				Subdomain: t.Subdomain,
				Revenue:   decimal.Zero,
			}
			byTenant[order.TenantID] = ts
		}
		ts.Orders++
		ts.Revenue = ts.Revenue.Add(order.Total)
	}

	stats.Tenants = make([]TenantSales, 0, len(byTenant))
	for _, ts := range byTenant {
		stats.Tenants = append(stats.Tenants, *ts)
	}
	sort.Slice(stats.Tenants, func(i, j int) bool {
		return stats.Tenants[i].Revenue.GreaterThan(stats.Tenants[j].Revenue)
	})

	return stats, nil
}

func bucketLabel(window string, start time.Time) string {
	switch window {
	case "today":
		return start.Format("15:04")
	case "week":
		return start.Format("Mon 02")
	default:
		return "wk " + start.Format("Jan 02")
	}
}
