package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/revscan/config"
	"github.com/use-agent/revscan/jobs"
	"github.com/use-agent/revscan/models"
	"github.com/use-agent/revscan/pipeline"
)

// PostScan returns a handler for POST /api/v1/scan.
//
// Accepts a multipart CSV upload under the "file" field, parses the hotel
// rows, and starts a background scan job. Responds immediately with the
// job ID; progress is available via GET /jobs/:id and the SSE stream.
func PostScan(runner *jobs.Runner, cfg config.ScanConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "missing CSV upload: provide a 'file' form field")
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			badRequest(c, "could not open uploaded file")
			return
		}
		defer f.Close()

		hotels, err := pipeline.ParseHotels(f)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		if len(hotels) == 0 {
			badRequest(c, "CSV contains no scannable rows (need a name plus a website or city)")
			return
		}
		if len(hotels) > cfg.MaxHotelsPerBatch {
			badRequest(c, fmt.Sprintf("too many hotels: %d exceeds the batch limit of %d", len(hotels), cfg.MaxHotelsPerBatch))
			return
		}

		startJob(c, runner, hotels)
	}
}

// PostScanURL returns a handler for POST /api/v1/scan-url.
//
// Starts a single-hotel scan job from a JSON body. Either a website or a
// city is required; with only a city the website is resolved during the scan.
func PostScanURL(runner *jobs.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScanURLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: name is required")
			return
		}
		if strings.TrimSpace(req.Website) == "" && strings.TrimSpace(req.City) == "" {
			badRequest(c, "provide a website or a city")
			return
		}
		if req.Website != "" && !strings.HasPrefix(req.Website, "http") {
			req.Website = "https://" + req.Website
		}

		startJob(c, runner, []models.Hotel{{
			Name:    strings.TrimSpace(req.Name),
			Website: req.Website,
			City:    strings.TrimSpace(req.City),
		}})
	}
}

func startJob(c *gin.Context, runner *jobs.Runner, hotels []models.Hotel) {
	jobID := uuid.NewString()
	if err := runner.Start(jobID, hotels); err != nil {
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeInternal,
				Message: "could not create job",
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, models.JobCreatedResponse{
		JobID:       jobID,
		Status:      models.JobPending,
		TotalHotels: len(hotels),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.APIResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: msg,
		},
	})
}
