package router

import (
	"github.com/gin-gonic/gin"

	"concord/internal/handler"
	"concord/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	analysisH *handler.AnalysisHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Analysis runs
	runs := v1.Group("/runs")
	runs.POST("", analysisH.SubmitRun)
	runs.GET("", analysisH.ListRuns)
	runs.GET("/:id", analysisH.GetRun)
	runs.GET("/:id/report", analysisH.GetReport)
	runs.GET("/:id/export/csv", analysisH.ExportCSV)
	runs.GET("/:id/export/xlsx", analysisH.ExportXLSX)
	runs.POST("/:id/conflicts/:conflictId/resolution", analysisH.ResolveConflict)
	runs.DELETE("/:id", analysisH.DeleteRun)

	return r
}
