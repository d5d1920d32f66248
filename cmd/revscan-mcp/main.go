// Command revscan-mcp exposes the revscan HTTP API as MCP tools over stdio.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// jobCreated mirrors the revscan API job-created response.
type jobCreated struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	TotalHotels int    `json:"total_hotels"`
}

// jobStatus mirrors the revscan API job status response.
type jobStatus struct {
	Job *struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		TotalHotels      int    `json:"total_hotels"`
		ScannedCount     int    `json:"scanned_count"`
		PixelCount       int    `json:"duetto_pixel_count"`
		GameChangerCount int    `json:"gamechanger_count"`
		CompetitorCount  int    `json:"competitor_rms_count"`
		ErrorMessage     string `json:"error_message"`
	} `json:"job"`
	Hotels []struct {
		HotelName  string `json:"hotel_name"`
		Status     string `json:"status"`
		ResultJSON string `json:"result_json"`
	} `json:"hotels"`
}

// hotelResult is the subset of a detection result shown to MCP clients.
type hotelResult struct {
	HotelName        string   `json:"hotel_name"`
	WebsiteURL       string   `json:"website_url"`
	BookingEngineURL string   `json:"booking_engine_url"`
	Products         []string `json:"duetto_products"`
	Confidence       string   `json:"confidence"`
	ProofSnippets    []string `json:"proof_snippets"`
	CompetitorRMS    []struct {
		Vendor   string   `json:"vendor"`
		Category string   `json:"category"`
		Evidence []string `json:"evidence"`
	} `json:"competitor_rms"`
	Errors []string `json:"errors"`
}

func main() {
	apiURL := os.Getenv("REVSCAN_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("REVSCAN_API_KEY")

	s := server.NewMCPServer(
		"revscan",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scanHotelTool := mcp.NewTool("scan_hotel",
		mcp.WithDescription("Scan a hotel website for revenue-management technology: the Duetto tracking pixel, the GameChanger embedded booking engine, and competitor vendors. Drives a headless browser through the hotel's booking funnel; a scan takes one to three minutes."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The hotel's name"),
		),
		mcp.WithString("website",
			mcp.Description("The hotel's website URL. Optional if a city is given; the website is then resolved automatically."),
		),
		mcp.WithString("city",
			mcp.Description("The hotel's city, used to resolve a missing website"),
		),
	)
	s.AddTool(scanHotelTool, handleScanHotel(apiURL, apiKey))

	jobStatusTool := mcp.NewTool("job_status",
		mcp.WithDescription("Check the status and results of a revscan batch job by its ID."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned when the job was created"),
		),
	)
	s.AddTool(jobStatusTool, handleJobStatus(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScanHotel(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError("name is required"), nil
		}
		website := request.GetString("website", "")
		city := request.GetString("city", "")
		if website == "" && city == "" {
			return mcp.NewToolResultError("provide a website or a city"), nil
		}

		payload := map[string]string{"name": name, "website": website, "city": city}
		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scan-url", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scan request failed: %v", err)), nil
		}

		var created jobCreated
		if err := json.Unmarshal(respBody, &created); err != nil || created.JobID == "" {
			return mcp.NewToolResultError("scan job creation failed: " + string(respBody)), nil
		}

		status, err := pollJob(ctx, client, apiURL, apiKey, created.JobID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling job failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatJob(status)), nil
	}
}

func handleJobStatus(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil {
			return mcp.NewToolResultError("job_id is required"), nil
		}

		status, err := getJob(ctx, client, apiURL, apiKey, jobID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("job lookup failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatJob(status)), nil
	}
}

// pollJob polls the job endpoint every 2 seconds until it reaches a
// terminal status or the context is cancelled.
func pollJob(ctx context.Context, client *http.Client, apiURL, apiKey, jobID string) (*jobStatus, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			status, err := getJob(ctx, client, apiURL, apiKey, jobID)
			if err != nil {
				return nil, err
			}
			if status.Job != nil && status.Job.Status != "pending" && status.Job.Status != "running" {
				return status, nil
			}
		}
	}
}

func getJob(ctx context.Context, client *http.Client, apiURL, apiKey, jobID string) (*jobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/api/v1/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, body)
	}

	var status jobStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &status, nil
}

// apiPost sends a POST request to the revscan API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// formatJob renders a job and its per-hotel results as readable text.
func formatJob(status *jobStatus) string {
	var sb strings.Builder
	if status.Job != nil {
		j := status.Job
		sb.WriteString(fmt.Sprintf("Job %s: %s (%d/%d scanned)\n", j.ID, j.Status, j.ScannedCount, j.TotalHotels))
		sb.WriteString(fmt.Sprintf("Pixel: %d, GameChanger: %d, Competitor RMS: %d\n", j.PixelCount, j.GameChangerCount, j.CompetitorCount))
		if j.ErrorMessage != "" {
			sb.WriteString("Error: " + j.ErrorMessage + "\n")
		}
	}

	for _, h := range status.Hotels {
		sb.WriteString("\n--- " + h.HotelName + " (" + h.Status + ") ---\n")
		if len(h.ResultJSON) == 0 {
			continue
		}
		var r hotelResult
		if err := json.Unmarshal([]byte(h.ResultJSON), &r); err != nil {
			sb.WriteString("(result parse error)\n")
			continue
		}
		sb.WriteString("Products: " + strings.Join(r.Products, ", ") + "\n")
		sb.WriteString("Confidence: " + r.Confidence + "\n")
		if r.BookingEngineURL != "" {
			sb.WriteString("Booking engine: " + r.BookingEngineURL + "\n")
		}
		for _, p := range r.ProofSnippets {
			sb.WriteString("Proof: " + p + "\n")
		}
		for _, c := range r.CompetitorRMS {
			sb.WriteString(fmt.Sprintf("Competitor: %s (%s)\n", c.Vendor, c.Category))
		}
		for _, e := range r.Errors {
			sb.WriteString("Warning: " + e + "\n")
		}
	}
	return sb.String()
}
