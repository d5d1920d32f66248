package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/revscan/jobs"
	"github.com/use-agent/revscan/models"
)

// Health returns a handler for GET /api/v1/health.
func Health(runner *jobs.Runner, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:      "healthy",
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			ActiveScans: runner.RunningCount(),
			Version:     "0.1.0",
		})
	}
}
