package models

import "time"

// Product names reported in scan results.
const (
	ProductPixel       = "Duetto Pixel"
	ProductGameChanger = "GameChanger Booking Engine"
	ProductNone        = "None Detected"
)

// Confidence levels, weakest to strongest.
const (
	ConfidenceNone   = "none"
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Discovery methods, in rough order of trust. The ranking in the discovery
// package assigns base scores per method.
const (
	MethodAIQuery      = "ai_query"
	MethodSmartLLM     = "smart_llm"
	MethodWebSearch    = "web_search"
	MethodBrandCrawl   = "brand_crawl"
	MethodChainPattern = "chain_pattern"
	MethodHrefPattern  = "href_pattern"
	MethodTextMatch    = "text_match"
	MethodIframeSrc    = "iframe_src"
	MethodLookup       = "url_lookup"
)

// How a booking link opens when activated.
const (
	OpensSameWindow = "same_window"
	OpensNewTab     = "new_tab"
	OpensIframe     = "iframe"
)

// BookingLink is one candidate booking-engine entry point discovered on or
// for a hotel website. Href may be empty for JS-triggered buttons.
type BookingLink struct {
	Text            string `json:"text"`
	Href            string `json:"href"`
	LinkType        string `json:"link_type"` // "link", "button", "iframe"
	DetectionMethod string `json:"detection_method"`
	OpensIn         string `json:"opens_in"`
}

// CapturedRequest is one outgoing network request observed by the monitor.
type CapturedRequest struct {
	URL          string    `json:"url"`
	Method       string    `json:"method"`
	ResourceType string    `json:"resource_type"`
	Timestamp    time.Time `json:"timestamp"`
}

// CompetitorDetection is one non-Duetto vendor identified from captured
// traffic, DOM state, or cookies.
type CompetitorDetection struct {
	Vendor   string   `json:"vendor"`
	Category string   `json:"category"`
	Evidence []string `json:"evidence"`
}

// DetectionResult is the full record for one hotel scan. It is created at
// scan start, filled in through the three phases, and never mutated after
// the scan returns it.
type DetectionResult struct {
	HotelName     string    `json:"hotel_name"`
	WebsiteURL    string    `json:"website_url"`
	ScanTimestamp time.Time `json:"scan_timestamp"`

	PagesAnalyzed       []string      `json:"pages_analyzed"`
	BookingLinksFound   []BookingLink `json:"booking_links_found"`
	BookingLinkFollowed *BookingLink  `json:"booking_link_followed,omitempty"`
	BookingEngineURL    string        `json:"booking_engine_url"`

	PixelDetected bool              `json:"duetto_pixel_detected"`
	PixelRequests []CapturedRequest `json:"pixel_requests"`

	GameChangerDetected bool     `json:"gamechanger_detected"`
	GameChangerEvidence []string `json:"gamechanger_evidence"`

	CompetitorRMS []CompetitorDetection `json:"competitor_rms"`

	Products      []string `json:"duetto_products"`
	Confidence    string   `json:"confidence"`
	ProofSnippets []string `json:"proof_snippets"`

	CapturedDomains []string `json:"all_captured_domains"`
	ConsoleLogs     []string `json:"console_logs"`
	Errors          []string `json:"errors"`

	ScanDurationSeconds float64 `json:"scan_duration_seconds"`
}

// NewDetectionResult returns a result shell with the scan timestamp set.
func NewDetectionResult(hotelName, websiteURL string) *DetectionResult {
	return &DetectionResult{
		HotelName:     hotelName,
		WebsiteURL:    websiteURL,
		ScanTimestamp: time.Now().UTC(),
		Confidence:    ConfidenceNone,
	}
}

// AddError appends an error string to the result. Errors never abort a scan.
func (r *DetectionResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}
