// Package search is a client for a Firecrawl-compatible search/scrape API.
// It backs the web-search, smart-scrape, and brand-crawl discovery tiers.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/revscan/config"
	"github.com/use-agent/revscan/models"
)

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates a search client from config. Pass nil to use a default
// http.Client.
func NewClient(httpClient *http.Client, cfg config.SearchConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Result is one web search hit or mapped site link.
type Result struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Web []Result `json:"web"`
	} `json:"data"`
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
}

type mapRequest struct {
	URL    string `json:"url"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit"`
}

type mapResponse struct {
	Success bool     `json:"success"`
	Links   []Result `json:"links"`
}

// Search runs a web search and returns up to limit results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	var resp searchResponse
	if err := c.post(ctx, "/search", searchRequest{Query: query, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(resp.Data.Web))
	for _, r := range resp.Data.Web {
		if r.URL != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// Scrape fetches a URL server-side and returns its content as markdown.
func (c *Client) Scrape(ctx context.Context, url string) (string, error) {
	var resp scrapeResponse
	if err := c.post(ctx, "/scrape", scrapeRequest{URL: url, Formats: []string{"markdown"}}, &resp); err != nil {
		return "", err
	}
	return resp.Data.Markdown, nil
}

// Map discovers pages on a site, optionally filtered by a search term.
func (c *Client) Map(ctx context.Context, url, searchTerm string, limit int) ([]Result, error) {
	var resp mapResponse
	if err := c.post(ctx, "/map", mapRequest{URL: url, Search: searchTerm, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(resp.Links))
	for _, r := range resp.Links {
		if r.URL != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, out any) error {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewScanError(models.ErrCodeSearchFailure, "search request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.NewScanError(models.ErrCodeSearchFailure, "failed to read search response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.NewScanError(models.ErrCodeSearchFailure,
			fmt.Sprintf("search API returned %d: %s", resp.StatusCode, truncate(string(respBody), 200)), nil)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return models.NewScanError(models.ErrCodeSearchFailure, "failed to parse search response", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
