// Package jobs runs batch scan jobs in the background and persists their
// progress to the store.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/revscan/config"
	"github.com/use-agent/revscan/models"
	"github.com/use-agent/revscan/scan"
	"github.com/use-agent/revscan/store"
	"github.com/use-agent/revscan/webhook"
)

// Runner launches jobs, tracks the ones in flight, and lets callers
// cancel them. Completed job state lives in the store only.
type Runner struct {
	store   *store.Store
	scanOne scan.ScanFunc
	cfg     config.ScanConfig

	webhookURL    string
	webhookSecret string

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// New creates a Runner. scanOne is invoked once per hotel.
func New(st *store.Store, scanOne scan.ScanFunc, cfg config.ScanConfig) *Runner {
	return &Runner{
		store:   st,
		scanOne: scanOne,
		cfg:     cfg,
		running: make(map[string]context.CancelFunc),
	}
}

// SetWebhook configures an endpoint notified when jobs finish.
func (r *Runner) SetWebhook(url, secret string) {
	r.webhookURL = url
	r.webhookSecret = secret
}

// Start creates the job in the store and runs it in the background.
func (r *Runner) Start(jobID string, hotels []models.Hotel) error {
	if err := r.store.CreateJob(jobID, hotels); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.running[jobID] = cancel
	r.mu.Unlock()

	go r.run(ctx, jobID, hotels)
	return nil
}

// Cancel stops a running job. It returns false if the job is not running.
func (r *Runner) Cancel(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.running[jobID]
	if ok {
		cancel()
	}
	return ok
}

// RunningCount reports how many jobs are in flight.
func (r *Runner) RunningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}

// IsRunning reports whether a job is currently in flight.
func (r *Runner) IsRunning(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[jobID]
	return ok
}

func (r *Runner) run(ctx context.Context, jobID string, hotels []models.Hotel) {
	defer func() {
		r.mu.Lock()
		if cancel, ok := r.running[jobID]; ok {
			cancel()
			delete(r.running, jobID)
		}
		r.mu.Unlock()
	}()

	if err := r.store.MarkJobRunning(jobID); err != nil {
		slog.Error("failed to mark job running", "job_id", jobID, "error", err)
		return
	}
	start := time.Now()
	slog.Info("job started", "job_id", jobID, "hotels", len(hotels))

	scanAndPersist := func(ctx context.Context, idx int, hotel models.Hotel) *models.DetectionResult {
		if err := r.store.UpdateHotelStatus(jobID, idx, models.HotelScanning); err != nil {
			slog.Warn("failed to update hotel status", "job_id", jobID, "hotel", hotel.Name, "error", err)
		}
		result := r.scanOne(ctx, idx, hotel)
		r.persistResult(jobID, idx, result)
		if result != nil {
			r.notifyHotel(jobID, idx, result)
		}
		return result
	}

	results := scan.Batch(ctx, hotels, scanAndPersist,
		r.cfg.MaxConcurrentScans, r.cfg.InterScanDelay,
		func(index, done, total int, hotel models.Hotel, result *models.DetectionResult) {
			slog.Info("job progress",
				"job_id", jobID,
				"done", done,
				"total", total,
				"hotel", hotel.Name,
				"confidence", result.Confidence,
			)
		})

	summary := Summarize(results)

	if ctx.Err() != nil {
		if err := r.store.MarkJobFailed(jobID, "Job canceled"); err != nil {
			slog.Error("failed to mark job failed", "job_id", jobID, "error", err)
		}
		slog.Info("job canceled", "job_id", jobID, "scanned", summary.Scanned)
		r.notify(webhook.EventJobFailed, jobID, summary)
		return
	}

	if err := r.store.MarkJobDone(jobID); err != nil {
		slog.Error("failed to mark job done", "job_id", jobID, "error", err)
	}
	slog.Info("job finished",
		"job_id", jobID,
		"scanned", summary.Scanned,
		"pixel", summary.PixelCount,
		"gamechanger", summary.GameChangerCount,
		"competitor", summary.CompetitorCount,
		"duration", time.Since(start).Round(time.Second).String(),
	)
	r.notify(webhook.EventJobCompleted, jobID, summary)
}

func (r *Runner) persistResult(jobID string, idx int, result *models.DetectionResult) {
	if result == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		slog.Error("failed to marshal result", "job_id", jobID, "hotel", result.HotelName, "error", err)
		return
	}
	if scanFailed(result) {
		if err := r.store.SaveHotelError(jobID, idx, string(payload)); err != nil {
			slog.Error("failed to save hotel error", "job_id", jobID, "hotel", result.HotelName, "error", err)
		}
		return
	}
	err = r.store.SaveHotelResult(jobID, idx, string(payload),
		result.PixelDetected,
		result.GameChangerDetected,
		len(result.CompetitorRMS) > 0,
	)
	if err != nil {
		slog.Error("failed to save hotel result", "job_id", jobID, "hotel", result.HotelName, "error", err)
	}
}

func (r *Runner) notify(eventType, jobID string, summary models.BatchSummary) {
	if r.webhookURL == "" {
		return
	}
	webhook.DeliverAsync(r.webhookURL, r.webhookSecret, webhook.JobEvent(eventType, jobID, summary))
}

func (r *Runner) notifyHotel(jobID string, idx int, result *models.DetectionResult) {
	if r.webhookURL == "" {
		return
	}
	webhook.DeliverAsync(r.webhookURL, r.webhookSecret, webhook.HotelEvent(jobID, webhook.HotelResult{
		Name:        result.HotelName,
		Website:     result.WebsiteURL,
		Index:       idx,
		Pixel:       result.PixelDetected,
		GameChanger: result.GameChangerDetected,
		Competitor:  len(result.CompetitorRMS) > 0,
		Confidence:  result.Confidence,
		Failed:      scanFailed(result),
	}))
}

// Summarize aggregates batch results into the counts reported to callers.
func Summarize(results []*models.DetectionResult) models.BatchSummary {
	summary := models.BatchSummary{TotalHotels: len(results)}
	for _, res := range results {
		if res == nil {
			continue
		}
		summary.Scanned++
		if res.PixelDetected {
			summary.PixelCount++
		}
		if res.GameChangerDetected {
			summary.GameChangerCount++
		}
		if len(res.CompetitorRMS) > 0 {
			summary.CompetitorCount++
		}
	}
	return summary
}

// scanFailed reports whether a result represents a scan that produced no
// usable page data, as opposed to a clean scan with incidental errors.
func scanFailed(result *models.DetectionResult) bool {
	return len(result.PagesAnalyzed) == 0 && len(result.Errors) > 0
}
