package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yumikyo/proposal-g/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		proposals := v1.Group("/proposals")
		{
			proposals.POST("", handler.CreateProposal)
			proposals.GET("/:id", handler.GetProposal)
			proposals.PUT("/:id/rows", handler.ReplaceRows)
			proposals.GET("/:id/export", handler.ExportProposal)
			proposals.DELETE("/:id", handler.DiscardProposal)
		}

		v1.POST("/reconcile", handler.ReconcileItems)

		catalog := v1.Group("/catalog")
		{
			catalog.GET("", handler.GetCatalog)
			catalog.POST("/reload", handler.ReloadCatalog)
		}
	}

	return router
}
