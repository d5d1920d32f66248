package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/revscan/jobs"
	"github.com/use-agent/revscan/models"
	"github.com/use-agent/revscan/pipeline"
	"github.com/use-agent/revscan/store"
)

// ListJobs returns a handler for GET /api/v1/jobs.
func ListJobs(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}

		list, err := st.ListJobs(limit)
		if err != nil {
			internalError(c, "could not list jobs")
			return
		}
		c.JSON(http.StatusOK, models.JobListResponse{Jobs: list})
	}
}

// GetJob returns a handler for GET /api/v1/jobs/:id. The response includes
// the per-hotel rows so callers can see which hotels are still pending.
func GetJob(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := st.GetJob(c.Param("id"))
		if err != nil {
			internalError(c, "could not load job")
			return
		}
		if job == nil {
			jobNotFound(c)
			return
		}

		hotels, err := st.GetJobHotels(job.ID)
		if err != nil {
			internalError(c, "could not load job hotels")
			return
		}
		c.JSON(http.StatusOK, models.JobStatusResponse{Job: job, Hotels: hotels})
	}
}

// CancelJob returns a handler for DELETE /api/v1/jobs/:id.
func CancelJob(runner *jobs.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !runner.Cancel(c.Param("id")) {
			jobNotFound(c)
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true})
	}
}

// StreamJob returns a handler for GET /api/v1/jobs/:id/stream.
//
// Streams job progress as Server-Sent Events, polling the store once a
// second. The stream ends with a final event when the job reaches a
// terminal status or the client disconnects.
func StreamJob(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		job, err := st.GetJob(jobID)
		if err != nil {
			internalError(c, "could not load job")
			return
		}
		if job == nil {
			jobNotFound(c)
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		lastScanned := -1
		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case <-ticker.C:
			}

			job, err := st.GetJob(jobID)
			if err != nil || job == nil {
				return false
			}
			if job.ScannedCount != lastScanned {
				lastScanned = job.ScannedCount
				c.SSEvent("progress", job)
			}
			if job.Status == models.JobDone || job.Status == models.JobFailed {
				c.SSEvent("end", job)
				return false
			}
			return true
		})
	}
}

// DownloadJob returns a handler for GET /api/v1/jobs/:id/download.
// Renders the job's stored results as a CSV attachment.
func DownloadJob(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		job, err := st.GetJob(jobID)
		if err != nil {
			internalError(c, "could not load job")
			return
		}
		if job == nil {
			jobNotFound(c)
			return
		}

		rows, err := st.GetJobResults(jobID)
		if err != nil {
			internalError(c, "could not load job results")
			return
		}

		results := make([]*models.DetectionResult, 0, len(rows))
		for _, raw := range rows {
			var r models.DetectionResult
			if err := json.Unmarshal([]byte(raw), &r); err != nil {
				continue
			}
			results = append(results, &r)
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "revscan-"+jobID+".csv"))
		if err := pipeline.WriteResults(c.Writer, results); err != nil {
			internalError(c, "could not write CSV")
		}
	}
}

func jobNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.APIResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeNotFound,
			Message: "job not found",
		},
	})
}

func internalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, models.APIResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInternal,
			Message: msg,
		},
	})
}
