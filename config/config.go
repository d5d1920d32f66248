package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scan      ScanConfig
	LLM       LLMConfig
	Search    SearchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScanConfig controls the detection pipeline.
type ScanConfig struct {
	// MaxConcurrentScans bounds how many hotel scans run at once
	// against the shared browser process.
	MaxConcurrentScans int // default: 3

	// NavTimeout is the per-navigation deadline.
	NavTimeout time.Duration // default: 30s

	// PageLoadWait is the settle delay after every navigation.
	PageLoadWait time.Duration // default: 3s

	// BookingEngineWait is the settle delay after triggering a rate
	// search on the booking engine (pixels fire late).
	BookingEngineWait time.Duration // default: 8s

	// MaxHotelsPerBatch caps one job's input size.
	MaxHotelsPerBatch int // default: 50

	// InterScanDelay is the politeness pause after each scan.
	InterScanDelay time.Duration // default: 1s
}

// LLMConfig holds the OpenAI-compatible chat API credentials.
// An empty APIKey disables every discovery tier that needs an LLM.
type LLMConfig struct {
	APIKey  string
	Model   string // default: "gpt-4o-mini"
	BaseURL string // default: "https://api.openai.com/v1"
}

// SearchConfig holds the web-search/scrape API credentials.
// An empty APIKey disables the web-search and brand-crawl tiers.
type SearchConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.firecrawl.dev/v1"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool // default: true
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 5
	Burst             int     // default: 10
}

// StoreConfig controls the SQLite job store.
type StoreConfig struct {
	Path string // default: "data/revscan.db"
}

// CacheConfig controls the booking-URL lookup cache.
type CacheConfig struct {
	MaxEntries int // default: 1000
}

// WebhookConfig controls job-completion notifications. An empty URL
// disables delivery.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("REVSCAN_HOST", "0.0.0.0"),
			Port: envIntOr("REVSCAN_PORT", 8080),
			Mode: envOr("REVSCAN_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("REVSCAN_HEADLESS", true),
			NoSandbox:  envBoolOr("REVSCAN_NO_SANDBOX", false),
			BrowserBin: os.Getenv("REVSCAN_BROWSER_BIN"),
		},
		Scan: ScanConfig{
			MaxConcurrentScans: envIntOr("REVSCAN_MAX_CONCURRENT", 3),
			NavTimeout:         envDurationOr("REVSCAN_NAV_TIMEOUT", 30*time.Second),
			PageLoadWait:       envDurationOr("REVSCAN_PAGE_LOAD_WAIT", 3*time.Second),
			BookingEngineWait:  envDurationOr("REVSCAN_BOOKING_ENGINE_WAIT", 8*time.Second),
			MaxHotelsPerBatch:  envIntOr("REVSCAN_MAX_BATCH", 50),
			InterScanDelay:     envDurationOr("REVSCAN_INTER_SCAN_DELAY", time.Second),
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("REVSCAN_LLM_API_KEY"),
			Model:   envOr("REVSCAN_LLM_MODEL", "gpt-4o-mini"),
			BaseURL: envOr("REVSCAN_LLM_BASE_URL", "https://api.openai.com/v1"),
		},
		Search: SearchConfig{
			APIKey:  os.Getenv("REVSCAN_SEARCH_API_KEY"),
			BaseURL: envOr("REVSCAN_SEARCH_BASE_URL", "https://api.firecrawl.dev/v1"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("REVSCAN_AUTH_ENABLED", true),
			APIKeys: envSliceOr("REVSCAN_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("REVSCAN_RATE_RPS", 5.0),
			Burst:             envIntOr("REVSCAN_RATE_BURST", 10),
		},
		Store: StoreConfig{
			Path: envOr("REVSCAN_DB_PATH", "data/revscan.db"),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("REVSCAN_CACHE_MAX_ENTRIES", 1000),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("REVSCAN_WEBHOOK_URL"),
			Secret: os.Getenv("REVSCAN_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("REVSCAN_LOG_LEVEL", "info"),
			Format: envOr("REVSCAN_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
