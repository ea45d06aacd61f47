package main

import (
	"net/http"
	"os"

	"fooddupe/internal/handler"
	mid "fooddupe/internal/middleware"
	"fooddupe/internal/model"
	"fooddupe/internal/notify"
	"fooddupe/internal/service"
	"fooddupe/pkg/config"
	"fooddupe/pkg/database"
	"fooddupe/pkg/jwtutil"
	"fooddupe/pkg/logger"
	"fooddupe/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "fooddupe"

func main() {
	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "Multi-tenant food ordering backend",
	}
	rootCmd.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration, the logger and the database connection
func bootstrap() (*config.Config, error) {
	appConfig, err := config.Load(serviceName)
	if err != nil {
		return nil, err
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		return nil, err
	}

	if _, err := database.InitDB(&appConfig.DB); err != nil {
		return nil, err
	}
	return appConfig, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := bootstrap()
			if err != nil {
				return err
			}
			log := logger.GetLogger()
			defer log.Sync()

			log.Info("Starting fooddupe", appConfig.LogConfig()...)

			jwtutil.Initialize(&appConfig.JWT)
			prometheus.InitMetrics(appConfig)

			hub := notify.NewHub(appConfig.Order.NotifyBufferSize)
			broker, err := notify.ConnectBroker(&appConfig.AMQP, log)
			if err != nil {
				// The broker bridge is optional; the in-process hub still works
				log.Warn("AMQP broker unavailable, continuing without bridge", zap.Error(err))
			}
			defer broker.Close()

			e := buildServer(appConfig, hub, broker)

			log.Info("Starting server", zap.String("port", appConfig.Server.Port))
			if err := e.Start(":" + appConfig.Server.Port); err != nil {
				log.Fatal("Server error", zap.Error(err))
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap(); err != nil {
				return err
			}
			log := logger.GetLogger()
			defer log.Sync()

			if err := database.MigrateModels(model.AllModels()...); err != nil {
				return err
			}
			log.Info("Migrations applied")
			return nil
		},
	}
}

func buildServer(appConfig *config.Config, hub *notify.Hub, broker *notify.Broker) *echo.Echo {
	db := database.GetDB()

	orders := service.NewOrderService(db, hub, broker, &appConfig.Order, logger.GetLogger())
	analytics := service.NewAnalyticsService(db)
	resolver := mid.NewTenantResolver(db, &appConfig.Tenant)

	orderHandler := handler.NewOrderHandler(orders)
	productHandler := handler.NewProductHandler(db)
	categoryHandler := handler.NewCategoryHandler(db)
	analyticsHandler := handler.NewAnalyticsHandler(analytics)
	tenantHandler := handler.NewTenantHandler(db, resolver)
	authHandler := handler.NewAuthHandler(db)
	locationHandler := handler.NewLocationHandler(db)
	eventsHandler := handler.NewEventsHandler(hub)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)
	e.Use(logger.Middleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	// Auth endpoints carry no tenant context
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Public ordering surface, tenant-resolved
	public := api.Group("", resolver.Middleware())
	public.POST("/orders", orderHandler.Create)
	public.GET("/orders/track/:number", orderHandler.Track)
	public.GET("/products", productHandler.List)
	public.GET("/products/by-category", productHandler.ByCategory)
	public.GET("/products/categories", productHandler.Categories)
	public.GET("/events", eventsHandler.Stream)

	// Dashboard/POS surface, tenant-resolved and authenticated
	dashboard := api.Group("", resolver.Middleware(), mid.AuthMiddleware, mid.RequireTenantMatch)
	dashboard.GET("/orders", orderHandler.List)
	dashboard.GET("/orders/:id", orderHandler.Get)
	dashboard.PUT("/orders/:id/status", orderHandler.UpdateStatus)
	dashboard.POST("/products", productHandler.Create)
	dashboard.PUT("/products/:id", productHandler.Update)
	dashboard.DELETE("/products/:id", productHandler.Delete)
	dashboard.POST("/categories", categoryHandler.Create)
	dashboard.PUT("/categories/:id", categoryHandler.Update)
	dashboard.DELETE("/categories/:id", categoryHandler.Delete)
	dashboard.GET("/locations", locationHandler.List)
	dashboard.POST("/locations", locationHandler.Create)
	dashboard.GET("/analytics/restaurant/:tenant", analyticsHandler.Restaurant)

	// Super-admin console
	admin := api.Group("/admin", mid.AuthMiddleware, mid.RequireRole(model.RolePlatformAdmin))
	admin.POST("/tenants", tenantHandler.Create)
	admin.GET("/tenants", tenantHandler.List)
	admin.PUT("/tenants/:id/status", tenantHandler.UpdateStatus)
	admin.GET("/analytics/sales/:period", analyticsHandler.Sales)

	return e
}
