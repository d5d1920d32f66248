package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/revscan/api/handler"
	"github.com/use-agent/revscan/api/middleware"
	"github.com/use-agent/revscan/config"
	"github.com/use-agent/revscan/jobs"
	"github.com/use-agent/revscan/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(runner *jobs.Runner, st *store.Store, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(runner, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Scans
	protected.POST("/scan", handler.PostScan(runner, cfg.Scan))
	protected.POST("/scan-url", handler.PostScanURL(runner))

	// Jobs
	protected.GET("/jobs", handler.ListJobs(st))
	protected.GET("/jobs/:id", handler.GetJob(st))
	protected.DELETE("/jobs/:id", handler.CancelJob(runner))
	protected.GET("/jobs/:id/stream", handler.StreamJob(st))
	protected.GET("/jobs/:id/download", handler.DownloadJob(st))

	return r
}
