// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"lumpiah/internal/infrastructure/http/v1/handlers"
	"lumpiah/internal/infrastructure/http/v1/middleware"
	"lumpiah/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	Health     *handlers.HealthHandler
	Production handlers.ProductionService
	Forecasts  handlers.WeightConfigService
	Forecaster handlers.SingleForecaster

	// History backs the plan audit trail endpoint. Optional.
	History handlers.HistoryReader
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.Health != nil {
		health := router.Group("/health")
		{
			health.GET("/live", cfg.Health.Live)
			health.GET("/ready", cfg.Health.Ready)
			health.GET("/info", cfg.Health.Info)
		}
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))

	base := handlers.NewBaseHandler()
	registerProductionRoutes(v1, base, cfg)
	registerForecastRoutes(v1, base, cfg)

	return router
}

func registerProductionRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProductionHandler(base, cfg.Production, cfg.History)
	read := middleware.RequirePermission(middleware.PermPlanRead)

	prod := rg.Group("/production")
	{
		prod.GET("/plans", read, h.GetPlans)
		prod.GET("/plans/:planId", read, h.GetPlan)
		prod.GET("/plans/:planId/calculation",
			middleware.RequireAnyPermission(middleware.PermPlanRead, middleware.PermForecastRead), h.GetCalculation)
		prod.GET("/plans/:planId/history", read, h.GetHistory)
		prod.PUT("/plans/:planId/realization", middleware.RequirePermission(middleware.PermRealizationWrite), h.SubmitRealization)

		accuracy := middleware.RequirePermission(middleware.PermAccuracyRead)
		prod.GET("/accuracy", accuracy, h.GetAccuracy)
		prod.GET("/accuracy/export", accuracy, h.ExportAccuracy)
	}
}

func registerForecastRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewForecastHandler(base, cfg.Forecasts, cfg.Forecaster)

	fc := rg.Group("/forecast")
	{
		fc.GET("/config/:branchId", middleware.RequirePermission(middleware.PermForecastRead), h.GetConfig)
		fc.PUT("/config/:branchId", middleware.RequirePermission(middleware.PermForecastWrite), h.UpdateConfig)
		fc.GET("/preview", middleware.RequirePermission(middleware.PermForecastRead), h.Preview)
	}
}
