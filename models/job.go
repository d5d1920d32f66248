package models

// Hotel is one scan input row.
type Hotel struct {
	Name    string `json:"name"`
	Website string `json:"website"`
	City    string `json:"city,omitempty"`
}

// Job statuses.
const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Per-hotel statuses inside a job.
const (
	HotelPending  = "pending"
	HotelScanning = "scanning"
	HotelDone     = "done"
	HotelError    = "error"
)

// Job is one batch scan tracked in the store.
type Job struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	TotalHotels        int    `json:"total_hotels"`
	ScannedCount       int    `json:"scanned_count"`
	PixelCount         int    `json:"duetto_pixel_count"`
	GameChangerCount   int    `json:"gamechanger_count"`
	CompetitorRMSCount int    `json:"competitor_rms_count"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
	ErrorMessage       string `json:"error_message,omitempty"`
}

// JobHotel is one hotel row inside a job.
type JobHotel struct {
	JobID      string `json:"job_id"`
	HotelIndex int    `json:"hotel_index"`
	HotelName  string `json:"hotel_name"`
	Website    string `json:"hotel_website"`
	City       string `json:"hotel_city"`
	Status     string `json:"status"`
	ResultJSON string `json:"result_json,omitempty"`
}

// BatchSummary is the aggregate reported when a batch finishes.
type BatchSummary struct {
	TotalHotels      int `json:"total_hotels"`
	Scanned          int `json:"scanned"`
	PixelCount       int `json:"duetto_pixel_count"`
	GameChangerCount int `json:"gamechanger_count"`
	CompetitorCount  int `json:"competitor_rms_count"`
}
