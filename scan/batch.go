package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/use-agent/revscan/models"
)

// ScanFunc runs the scan for one hotel at the given input index. The batch
// runner takes a function rather than the Analyzer directly so callers and
// tests can substitute their own.
type ScanFunc func(ctx context.Context, index int, hotel models.Hotel) *models.DetectionResult

// ProgressFunc is called after each hotel finishes, with the completed
// count and the hotel's result.
type ProgressFunc func(index, done, total int, hotel models.Hotel, result *models.DetectionResult)

// Batch scans hotels concurrently, at most maxConcurrent at a time, with a
// politeness delay after each scan. Results come back in input order. A
// canceled context stops new scans; in-flight ones finish.
func Batch(ctx context.Context, hotels []models.Hotel, scanOne ScanFunc, maxConcurrent int, delay time.Duration, progress ProgressFunc) []*models.DetectionResult {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	results := make([]*models.DetectionResult, len(hotels))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for i, hotel := range hotels {
		if err := sem.Acquire(ctx, 1); err != nil {
			result := models.NewDetectionResult(hotel.Name, hotel.Website)
			result.AddError("Scan canceled before start")
			results[i] = result
			continue
		}
		wg.Add(1)
		go func(i int, hotel models.Hotel) {
			defer wg.Done()
			defer sem.Release(1)

			slog.Info("batch scan starting", "hotel", hotel.Name, "index", i+1, "total", len(hotels))
			result := runScan(ctx, scanOne, i, hotel)
			results[i] = result

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			if progress != nil {
				progress(i, n, len(hotels), hotel, result)
			}

			// Politeness pause before freeing the slot.
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
				}
			}
		}(i, hotel)
	}
	wg.Wait()
	return results
}

// runScan invokes scanOne behind a recover boundary. Rod's Must helpers
// panic on browser faults; one crashed scan must not take the batch down.
func runScan(ctx context.Context, scanOne ScanFunc, i int, hotel models.Hotel) (result *models.DetectionResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scan panicked", "hotel", hotel.Name, "panic", r)
			result = models.NewDetectionResult(hotel.Name, hotel.Website)
			result.AddError(fmt.Sprintf("Scan crashed: %v", r))
		}
	}()
	return scanOne(ctx, i, hotel)
}
