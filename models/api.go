package models

// APIResponse is the generic envelope for error API responses.
type APIResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ScanURLRequest is the body of POST /api/v1/scan-url.
type ScanURLRequest struct {
	Name    string `json:"name" binding:"required"`
	Website string `json:"website"`
	City    string `json:"city"`
}

// JobCreatedResponse is returned when a scan job is accepted.
type JobCreatedResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	TotalHotels int    `json:"total_hotels"`
}

// JobStatusResponse is the full view of one job.
type JobStatusResponse struct {
	Job    *Job       `json:"job"`
	Hotels []JobHotel `json:"hotels,omitempty"`
}

// JobListResponse is the paginated job listing.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	ActiveScans int    `json:"active_scans"`
	Version     string `json:"version"`
}
