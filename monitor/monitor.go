// Package monitor passively records network traffic and console output for
// one scan's browser context and answers pattern queries over the capture.
package monitor

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/revscan/models"
)

// Pixel endpoint substrings. A hit on any of these in live traffic is the
// primary detection signal.
var PixelPatterns = []string{
	"capture.duettoresearch.com",
	"duettoresearch.com/capture",
	"duettoresearch.com/pixel",
	"duettoresearch.com/track",
}

// Vendor domains, matched against every captured URL.
var VendorDomainPatterns = []string{
	"duettoresearch.com",
	"duettocloud.com",
}

// Network signature of the embedded booking-engine variant.
var GameChangerPatterns = []string{
	"gamechanger.duetto",
	"gc.duettoresearch.com",
	"app.duettoresearch.com",
	"duettocloud.com/gamechanger",
}

// Monitor captures requests, console messages, and CSP response headers for
// every page it is attached to. The capture only grows; requests are never
// removed. Safe for concurrent use — event goroutines write while the scan
// goroutine reads.
type Monitor struct {
	mu          sync.Mutex
	requests    []models.CapturedRequest
	consoleLogs []string
	cspHeaders  []string
}

func New() *Monitor {
	return &Monitor{}
}

// Attach registers the capture observers on a page. It must be called for
// every page and popup the scan opens; traffic on an unattached page is
// lost. The event loop runs until the page closes.
func (m *Monitor) Attach(page *rod.Page) {
	go page.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			m.mu.Lock()
			m.requests = append(m.requests, models.CapturedRequest{
				URL:          e.Request.URL,
				Method:       e.Request.Method,
				ResourceType: string(e.Type),
				Timestamp:    time.Now(),
			})
			m.mu.Unlock()
		},
		func(e *proto.NetworkResponseReceived) {
			for k, v := range e.Response.Headers {
				if strings.EqualFold(k, "content-security-policy") ||
					strings.EqualFold(k, "content-security-policy-report-only") {
					m.mu.Lock()
					m.cspHeaders = append(m.cspHeaders, v.Str())
					m.mu.Unlock()
				}
			}
		},
		func(e *proto.RuntimeConsoleAPICalled) {
			parts := make([]string, 0, len(e.Args))
			for _, arg := range e.Args {
				if arg.Value.Nil() {
					continue
				}
				parts = append(parts, arg.Value.Str())
			}
			if len(parts) == 0 {
				return
			}
			m.mu.Lock()
			m.consoleLogs = append(m.consoleLogs, strings.Join(parts, " "))
			m.mu.Unlock()
		},
	)()
}

// Record appends a request directly. Used by tests; the browser path goes
// through Attach.
func (m *Monitor) Record(req models.CapturedRequest) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
}

// Requests returns a snapshot of all captured requests.
func (m *Monitor) Requests() []models.CapturedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CapturedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// ConsoleLogs returns a snapshot of all captured console messages.
func (m *Monitor) ConsoleLogs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.consoleLogs))
	copy(out, m.consoleLogs)
	return out
}

// CSPHeaders returns every Content-Security-Policy header observed.
func (m *Monitor) CSPHeaders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.cspHeaders))
	copy(out, m.cspHeaders)
	return out
}

// PixelDetected reports whether any captured URL hit a pixel endpoint.
func (m *Monitor) PixelDetected() bool {
	return m.anyURLMatches(PixelPatterns)
}

// GameChangerInTraffic reports whether the embedded variant's network
// signature appeared in live traffic.
func (m *Monitor) GameChangerInTraffic() bool {
	return m.anyURLMatches(GameChangerPatterns)
}

// VendorInCSP reports whether any CSP header allowlists a vendor domain.
// This is a weaker signal than live traffic; the confidence scorer treats
// it separately.
func (m *Monitor) VendorInCSP() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.cspHeaders {
		lower := strings.ToLower(h)
		for _, p := range VendorDomainPatterns {
			if strings.Contains(lower, p) {
				return true
			}
		}
	}
	return false
}

// PixelRequests returns the captured requests that hit pixel endpoints.
func (m *Monitor) PixelRequests() []models.CapturedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CapturedRequest
	for _, r := range m.requests {
		lower := strings.ToLower(r.URL)
		for _, p := range PixelPatterns {
			if strings.Contains(lower, p) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// CapturedDomains returns the deduplicated, sorted hostnames of every
// captured request.
func (m *Monitor) CapturedDomains() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	for _, r := range m.requests {
		u, err := url.Parse(r.URL)
		if err != nil || u.Host == "" {
			continue
		}
		seen[u.Host] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (m *Monitor) anyURLMatches(patterns []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		lower := strings.ToLower(r.URL)
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				return true
			}
		}
	}
	return false
}
