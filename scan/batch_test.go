package scan

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/revscan/models"
)

func TestBatchPreservesOrder(t *testing.T) {
	hotels := []models.Hotel{
		{Name: "Alpha", Website: "https://alpha.example"},
		{Name: "Beta", Website: "https://beta.example"},
		{Name: "Gamma", Website: "https://gamma.example"},
	}
	scanOne := func(ctx context.Context, i int, h models.Hotel) *models.DetectionResult {
		return models.NewDetectionResult(h.Name, h.Website)
	}

	results := Batch(context.Background(), hotels, scanOne, 2, 0, nil)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, h := range hotels {
		if results[i] == nil || results[i].HotelName != h.Name {
			t.Errorf("results[%d] = %+v, want %s", i, results[i], h.Name)
		}
	}
}

func TestBatchBoundsConcurrency(t *testing.T) {
	var current, peak int32
	scanOne := func(ctx context.Context, i int, h models.Hotel) *models.DetectionResult {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return models.NewDetectionResult(h.Name, h.Website)
	}

	hotels := make([]models.Hotel, 6)
	for i := range hotels {
		hotels[i] = models.Hotel{Name: "H", Website: "https://h.example"}
	}
	Batch(context.Background(), hotels, scanOne, 2, 0, nil)

	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestBatchProgressCallback(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	progress := func(index, done, total int, h models.Hotel, r *models.DetectionResult) {
		mu.Lock()
		seen = append(seen, done)
		mu.Unlock()
	}
	scanOne := func(ctx context.Context, i int, h models.Hotel) *models.DetectionResult {
		return models.NewDetectionResult(h.Name, h.Website)
	}

	hotels := []models.Hotel{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	Batch(context.Background(), hotels, scanOne, 1, 0, progress)

	if len(seen) != 3 {
		t.Fatalf("progress called %d times, want 3", len(seen))
	}
	for i, d := range seen {
		if d != i+1 {
			t.Errorf("progress counts = %v, want sequential", seen)
			break
		}
	}
}

func TestBatchRecoversFromPanic(t *testing.T) {
	scanOne := func(ctx context.Context, i int, h models.Hotel) *models.DetectionResult {
		if h.Name == "Boom" {
			panic("browser gone")
		}
		return models.NewDetectionResult(h.Name, h.Website)
	}

	hotels := []models.Hotel{{Name: "Boom"}, {Name: "Fine"}}
	results := Batch(context.Background(), hotels, scanOne, 1, 0, nil)

	if results[0] == nil || len(results[0].Errors) == 0 {
		t.Errorf("panicked scan missing error result: %+v", results[0])
	}
	if results[1] == nil || len(results[1].Errors) != 0 {
		t.Errorf("healthy scan affected by sibling panic: %+v", results[1])
	}
}

func TestBatchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := int32(0)
	scanOne := func(ctx context.Context, i int, h models.Hotel) *models.DetectionResult {
		atomic.AddInt32(&called, 1)
		return models.NewDetectionResult(h.Name, h.Website)
	}

	hotels := []models.Hotel{{Name: "A"}, {Name: "B"}}
	results := Batch(ctx, hotels, scanOne, 1, 0, nil)

	if atomic.LoadInt32(&called) != 0 {
		t.Errorf("scan ran despite canceled context")
	}
	for i, r := range results {
		if r == nil || len(r.Errors) == 0 {
			t.Errorf("results[%d] missing cancellation error: %+v", i, r)
		}
	}
}
