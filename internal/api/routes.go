package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers all service routes on the router.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	// Ingestion
	router.POST("/report", handler.CreateReport)

	// Read surface
	reports := router.Group("/reports")
	reports.GET("/processed", handler.ListProcessedReports) // GET /reports/processed
	reports.GET("/status", handler.GetProcessingStatus)     // GET /reports/status
	reports.GET("/:id", handler.GetReport)                  // GET /reports/:id

	// Aggregates
	router.GET("/analytics", handler.GetAnalytics)

	// Operational endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)
}
