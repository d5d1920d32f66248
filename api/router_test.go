package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/revscan/config"
	"github.com/use-agent/revscan/jobs"
	"github.com/use-agent/revscan/models"
	"github.com/use-agent/revscan/store"
)

func testRouter(t *testing.T, cfg *config.Config) (http.Handler, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	scanOne := func(ctx context.Context, index int, hotel models.Hotel) *models.DetectionResult {
		r := models.NewDetectionResult(hotel.Name, hotel.Website)
		r.PagesAnalyzed = []string{hotel.Website}
		return r
	}
	runner := jobs.New(st, scanOne, cfg.Scan)
	return NewRouter(runner, st, cfg, time.Now()), st
}

func openConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Scan:      config.ScanConfig{MaxConcurrentScans: 1, MaxHotelsPerBatch: 50},
		Auth:      config.AuthConfig{Enabled: false},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := testRouter(t, openConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
}

func TestScanURLCreatesJob(t *testing.T) {
	router, st := testRouter(t, openConfig())

	body, _ := json.Marshal(models.ScanURLRequest{
		Name:    "Test Hotel",
		Website: "test-hotel.example",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan-url", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}
	var resp models.JobCreatedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID == "" || resp.TotalHotels != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := st.GetJob(resp.JobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job != nil && job.Status == models.JobDone {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never completed")
}

func TestScanURLRequiresWebsiteOrCity(t *testing.T) {
	router, _ := testRouter(t, openConfig())

	body, _ := json.Marshal(models.ScanURLRequest{Name: "Nowhere Hotel"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan-url", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetJobNotFound(t *testing.T) {
	router, _ := testRouter(t, openConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nope", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAuthRejectsMissingKey(t *testing.T) {
	cfg := openConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"secret-key"}}
	router, _ := testRouter(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	req.Header.Set("X-API-Key", "secret-key")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", w.Code)
	}
}

func multipartCSV(t *testing.T, csvData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "hotels.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(csvData); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestScanRejectsOversizedBatch(t *testing.T) {
	cfg := openConfig()
	cfg.Scan.MaxHotelsPerBatch = 1
	router, _ := testRouter(t, cfg)

	var buf bytes.Buffer
	buf.WriteString("name,website\n")
	buf.WriteString("Hotel A,a.example\n")
	buf.WriteString("Hotel B,b.example\n")

	body, contentType := multipartCSV(t, buf.Bytes())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}
