package scan

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/revscan/browser"
	"github.com/use-agent/revscan/cache"
	"github.com/use-agent/revscan/config"
	"github.com/use-agent/revscan/consent"
	"github.com/use-agent/revscan/detect"
	"github.com/use-agent/revscan/discovery"
	"github.com/use-agent/revscan/models"
	"github.com/use-agent/revscan/monitor"
)

// Analyzer runs the detection pipeline against one browser session.
type Analyzer struct {
	Session *browser.Session
	Finder  *discovery.Finder
	Cfg     config.ScanConfig

	// Lookups, when set, caches resolved hotel URLs across scans so
	// repeat runs skip the paid lookup call.
	Lookups *cache.LookupCache
}

// AnalyzeHotel runs the full three-phase scan for one hotel:
//
//	Phase 1: official website homepage
//	Phase 2: booking engine landing page, no dates
//	Phase 3: booking engine with a dated stay injected
//
// The returned result always carries whatever was found; errors are
// accumulated, never fatal.
func (a *Analyzer) AnalyzeHotel(ctx context.Context, hotelName, websiteURL, city string) *models.DetectionResult {
	start := time.Now()

	// Step 0: resolve URLs up front when the input has no website.
	bookingURL := ""
	if city != "" {
		lookup := a.lookupURLs(ctx, hotelName, city)
		if websiteURL == "" && lookup.OfficialWebsite != "" {
			websiteURL = lookup.OfficialWebsite
		}
		bookingURL = lookup.BookingURL
	}
	if websiteURL == "" {
		result := models.NewDetectionResult(hotelName, "")
		result.AddError("Could not determine hotel website URL")
		result.ScanDurationSeconds = roundDuration(time.Since(start))
		return result
	}

	result := models.NewDetectionResult(hotelName, websiteURL)

	bctx, err := a.Session.NewContext()
	if err != nil {
		result.AddError(fmt.Sprintf("Browser context failed: %v", err))
		result.ScanDurationSeconds = roundDuration(time.Since(start))
		return result
	}
	defer bctx.Close()

	mon := monitor.New()
	// Popups opened by booking buttons must be captured too.
	bctx.OnNewPage(func(p *rod.Page) {
		mon.Attach(p)
	})

	page, err := bctx.NewPage()
	if err != nil {
		result.AddError(fmt.Sprintf("Page open failed: %v", err))
		result.ScanDurationSeconds = roundDuration(time.Since(start))
		return result
	}
	mon.Attach(page)

	// Phase 1: official website.
	slog.Info("phase 1: official website", "hotel", hotelName, "url", websiteURL)
	if a.navigateSafe(page, websiteURL) {
		consent.Dismiss(page, 5*time.Second)
		result.PagesAnalyzed = append(result.PagesAnalyzed, pageURL(page))
		a.detectOnPage(page, bctx, mon, result)

		if bookingURL == "" {
			links := a.Finder.FindBookingLinks(ctx, page, websiteURL, hotelName, city)
			result.BookingLinksFound = links
			if len(links) > 0 {
				ranked := discovery.Rank(links)
				best := ranked[0]
				result.BookingLinkFollowed = &best
				if strings.HasPrefix(best.Href, "http") {
					bookingURL = best.Href
				} else {
					a.followBookingLink(page, bctx, mon, best)
					bookingURL = pageURL(bctx.ActivePage(page))
				}
			}
		}
	} else {
		result.AddError("Homepage load failed: " + websiteURL)
	}

	// Phases 2 and 3: booking engine, then the same engine with dates.
	if strings.HasPrefix(bookingURL, "http") {
		slog.Info("phase 2: booking landing", "hotel", hotelName, "url", bookingURL)
		if result.BookingLinkFollowed == nil {
			result.BookingLinkFollowed = &models.BookingLink{
				Text:            "Pre-resolved booking link",
				Href:            bookingURL,
				LinkType:        "link",
				DetectionMethod: models.MethodLookup,
				OpensIn:         models.OpensNewTab,
			}
		}

		bookingPage, err := bctx.NewPage()
		if err != nil {
			result.AddError(fmt.Sprintf("Booking page open failed: %v", err))
		} else {
			mon.Attach(bookingPage)
			if a.navigateSafe(bookingPage, bookingURL) {
				consent.Dismiss(bookingPage, 5*time.Second)
				result.PagesAnalyzed = append(result.PagesAnalyzed, pageURL(bookingPage))
				a.detectOnPage(bookingPage, bctx, mon, result)

				datedURL := InjectDates(bookingURL, time.Now())
				slog.Info("phase 3: booking with dates", "hotel", hotelName, "url", datedURL)
				if a.navigateSafe(bookingPage, datedURL) {
					consent.Dismiss(bookingPage, 5*time.Second)
					triggerRateSearch(bookingPage)
					time.Sleep(a.Cfg.BookingEngineWait)
					result.PagesAnalyzed = append(result.PagesAnalyzed, pageURL(bookingPage))
					a.detectOnPage(bookingPage, bctx, mon, result)
				}
				result.BookingEngineURL = pageURL(bookingPage)
			} else {
				result.AddError("Booking page load failed: " + bookingURL)
			}
		}
	} else if bookingURL == "" {
		result.AddError("No booking URL found")
	}

	a.finalize(result, mon)
	result.ScanDurationSeconds = roundDuration(time.Since(start))
	return result
}

// lookupURLs resolves the hotel's website and booking URL through the
// shared cache when one is configured.
func (a *Analyzer) lookupURLs(ctx context.Context, hotelName, city string) discovery.HotelURLs {
	if a.Lookups != nil {
		if cached := a.Lookups.Get(hotelName, city); cached != nil {
			return *cached
		}
	}
	lookup := discovery.LookupHotelURLs(ctx, a.Finder.LLM, hotelName, city)
	if a.Lookups != nil && (lookup.OfficialWebsite != "" || lookup.BookingURL != "") {
		a.Lookups.Set(hotelName, city, &lookup)
	}
	return lookup
}

// finalize folds the monitor's capture into the result: network-level
// pixel checks, the CSP caveat, console evidence, product list,
// confidence, and proof snippets.
func (a *Analyzer) finalize(result *models.DetectionResult, mon *monitor.Monitor) {
	result.PixelDetected = mon.PixelDetected()
	result.PixelRequests = mon.PixelRequests()

	if !result.GameChangerDetected {
		result.GameChangerDetected = mon.GameChangerInTraffic()
	}

	if mon.VendorInCSP() {
		result.GameChangerEvidence = append(result.GameChangerEvidence,
			"CSP header allows *.duettoresearch.com")
		if !result.PixelDetected {
			result.PixelDetected = true
			result.AddError("Pixel detected via CSP allowlist (pixel did not fire in headless mode)")
		}
	}

	// Console lines that mention the vendor directly. CSP violation spam
	// is excluded; it proves blocking, not presence.
	count := 0
	for _, log := range mon.ConsoleLogs() {
		lower := strings.ToLower(log)
		if !strings.Contains(lower, "duetto") ||
			strings.Contains(lower, "content security policy") ||
			strings.Contains(lower, "violates") {
			continue
		}
		result.GameChangerEvidence = append(result.GameChangerEvidence, "console: "+log)
		count++
		if count >= 5 {
			break
		}
	}

	if result.PixelDetected {
		result.Products = append(result.Products, models.ProductPixel)
	}
	if result.GameChangerDetected {
		result.Products = append(result.Products, models.ProductGameChanger)
	}
	if len(result.Products) == 0 {
		result.Products = []string{models.ProductNone}
	}

	result.Confidence = detect.Confidence(result)
	result.CapturedDomains = mon.CapturedDomains()

	logs := mon.ConsoleLogs()
	if len(logs) > 50 {
		logs = logs[:50]
	}
	result.ConsoleLogs = logs

	result.ProofSnippets = buildProofSnippets(result, mon)
}

func buildProofSnippets(result *models.DetectionResult, mon *monitor.Monitor) []string {
	var proof []string
	for _, pr := range result.PixelRequests {
		proof = append(proof, "pixel_request: "+pr.URL)
	}
	for _, csp := range mon.CSPHeaders() {
		lower := strings.ToLower(csp)
		matched := false
		for _, p := range monitor.VendorDomainPatterns {
			if strings.Contains(lower, p) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		snippet := csp
		if len(snippet) > 500 {
			snippet = snippet[:500] + "..."
		}
		proof = append(proof, "csp_header: "+snippet)
	}
	seen := make(map[string]struct{}, len(proof))
	for _, p := range proof {
		seen[p] = struct{}{}
	}
	for _, ev := range result.GameChangerEvidence {
		if _, dup := seen[ev]; dup || strings.Contains(ev, "CSP header allows") {
			continue
		}
		proof = append(proof, ev)
		seen[ev] = struct{}{}
	}
	return proof
}

// detectOnPage runs the DOM-level checks on the current page and folds new
// evidence into the result. Probe failures are silent: a crashed frame or
// navigated-away page must not kill the scan.
func (a *Analyzer) detectOnPage(page *rod.Page, bctx *browser.Context, mon *monitor.Monitor, result *models.DetectionResult) {
	cookies, err := bctx.Cookies()
	if err != nil {
		cookies = nil
	}

	if evidence := detect.GameChangerDOM(page, cookies); len(evidence) > 0 {
		result.GameChangerDetected = true
		result.GameChangerEvidence = append(result.GameChangerEvidence, evidence...)
	}

	if evidence := detect.DuettoInSource(page); len(evidence) > 0 {
		result.GameChangerEvidence = append(result.GameChangerEvidence, evidence...)
	}

	existing := make(map[string]struct{}, len(result.CompetitorRMS))
	for _, c := range result.CompetitorRMS {
		existing[c.Vendor] = struct{}{}
	}
	for _, comp := range detect.Competitors(mon.Requests(), page, cookies) {
		if _, dup := existing[comp.Vendor]; dup {
			continue
		}
		result.CompetitorRMS = append(result.CompetitorRMS, comp)
		existing[comp.Vendor] = struct{}{}
	}
}

// navigateSafe loads a URL with a two-tier wait: request-idle first, then
// a plain load fallback for pages that never go idle. Reports success.
func (a *Analyzer) navigateSafe(page *rod.Page, url string) bool {
	err := rod.Try(func() {
		p := page.Timeout(a.Cfg.NavTimeout)
		wait := p.MustWaitRequestIdle()
		p.MustNavigate(url)
		wait()
	})
	if err != nil {
		err = rod.Try(func() {
			p := page.Timeout(a.Cfg.NavTimeout)
			p.MustNavigate(url)
			p.MustWaitLoad()
		})
		if err != nil {
			return false
		}
	}
	time.Sleep(a.Cfg.PageLoadWait)
	return true
}

func pageURL(page *rod.Page) string {
	url := ""
	_ = rod.Try(func() {
		url = page.MustInfo().URL
	})
	return url
}

func roundDuration(d time.Duration) float64 {
	return math.Round(d.Seconds()*10) / 10
}
