// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// StockService exposes the ledger operations
	StockService *stock.Service

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// HealthChecks are pinged by /health/ready
	HealthChecks map[string]handlers.Pinger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Tenant())               // 1. Resolve tenant
	v1.Use(middleware.Auth(cfg.JWTValidator)) // 2. Validate JWT against tenant

	stockHandler := handlers.NewStockHandler(handlers.NewBaseHandler(), cfg.StockService)
	stockGroup := v1.Group("/stock")
	{
		stockGroup.POST("/movements", stockHandler.CreateMovement)
		stockGroup.GET("/movements", stockHandler.ListMovements)
		stockGroup.POST("/transfers", stockHandler.Transfer)
		stockGroup.GET("/cells/:branchId/:productId", stockHandler.GetCell)
	}

	return router
}
