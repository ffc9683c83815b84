package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleetify/report-service/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes.
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "report-service",
		})
	})

	reportHandler := handler.NewReportHandler(deps)

	reports := r.Group("/api/reports")
	{
		// Async pipeline: queue, poll, download.
		reports.POST("/request/:report_type", reportHandler.RequestReport)
		reports.GET("/status/:job_id", reportHandler.GetReportStatus)
		reports.GET("/download/:job_id", reportHandler.DownloadReport)

		// Legacy synchronous generation.
		reports.POST("/fleet-summary", reportHandler.GenerateFleetSummary)
		reports.POST("/vehicle-utilization", reportHandler.GenerateVehicleUtilization)
		reports.POST("/cost-analysis", reportHandler.GenerateCostAnalysis)
		reports.POST("/trips", reportHandler.GenerateTrips)
	}

	return r
}
