package detect

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/revscan/models"
)

// Vendor describes one non-Duetto hotel tech vendor and how to spot it.
// Domains are checked against captured request URLs, DOM signals against
// window globals and script sources, cookie patterns against cookie names
// and domains.
type Vendor struct {
	Name           string
	Category       string
	Domains        []string
	DOMSignals     []string
	CookiePatterns []string
}

var vendorRegistry = []Vendor{
	{
		Name:           "Triptease",
		Category:       "Direct Booking Platform",
		Domains:        []string{"triptease.io", "triptease.com"},
		DOMSignals:     []string{"triptease", "Triptease"},
		CookiePatterns: []string{"triptease"},
	},
	{
		Name:           "RateGain",
		Category:       "Revenue Intelligence",
		Domains:        []string{"uno.rategain.com", "adara.com", "rategain.com"},
		CookiePatterns: []string{"rategain", "adara"},
	},
	{
		Name:           "The Hotels Network",
		Category:       "Direct Booking Platform",
		Domains:        []string{"thehotelsnetwork.com", "thn.com"},
		DOMSignals:     []string{"THN", "theHotelsNetwork"},
		CookiePatterns: []string{"thn_"},
	},
	{
		Name:           "OTA Insight",
		Category:       "Rate Intelligence",
		Domains:        []string{"otainsight.com", "lighthouse.com"},
		CookiePatterns: []string{"otainsight"},
	},
	{
		Name:           "Fornova",
		Category:       "Rate Intelligence",
		Domains:        []string{"fornova.com", "fornova.net"},
		CookiePatterns: []string{"fornova"},
	},
	{
		Name:           "Cendyn",
		Category:       "CRM / Marketing Automation",
		Domains:        []string{"cendyn.com", "nextguest.com"},
		DOMSignals:     []string{"cendyn", "Cendyn"},
		CookiePatterns: []string{"cendyn", "nextguest"},
	},
	{
		Name:           "Revinate",
		Category:       "Guest Marketing",
		Domains:        []string{"revinate.com"},
		DOMSignals:     []string{"revinate", "Revinate"},
		CookiePatterns: []string{"revinate"},
	},
	{
		Name:           "TravelClick",
		Category:       "Booking Engine / Analytics",
		Domains:        []string{"travelclick.com", "amadeus-hospitality.com"},
		CookiePatterns: []string{"travelclick"},
	},
	{
		Name:           "SynXis",
		Category:       "Booking Engine (Sabre)",
		Domains:        []string{"synxis.com"},
		CookiePatterns: []string{"synxis"},
	},
	{
		Name:           "SiteMinder",
		Category:       "Booking Engine / Distribution",
		Domains:        []string{"siteminder.com", "littlehotelier.com"},
		DOMSignals:     []string{"siteminder"},
		CookiePatterns: []string{"siteminder"},
	},
	{
		Name:           "Cloudbeds",
		Category:       "PMS / Booking Engine",
		Domains:        []string{"cloudbeds.com"},
		DOMSignals:     []string{"cloudbeds"},
		CookiePatterns: []string{"cloudbeds"},
	},
	{
		Name:           "Mews",
		Category:       "PMS / Booking Engine",
		Domains:        []string{"mews.com"},
		CookiePatterns: []string{"mews"},
	},
	{
		Name:           "Profitroom",
		Category:       "Booking Engine / CRM",
		Domains:        []string{"profitroom.com"},
		DOMSignals:     []string{"profitroom"},
		CookiePatterns: []string{"profitroom"},
	},
	{
		Name:           "BookAssist",
		Category:       "Booking Engine / Marketing",
		Domains:        []string{"bookassist.com", "bookassist.org"},
		CookiePatterns: []string{"bookassist"},
	},
	{
		Name:           "D-EDGE",
		Category:       "Booking Engine / Distribution",
		Domains:        []string{"d-edge.com", "availpro.com"},
		CookiePatterns: []string{"d-edge", "availpro"},
	},
	{
		Name:           "Roiback",
		Category:       "Booking Engine",
		Domains:        []string{"roiback.com", "rfrb.net"},
		CookiePatterns: []string{"roiback"},
	},
	{
		Name:           "Mirai",
		Category:       "Booking Engine / Distribution",
		Domains:        []string{"mirai.com"},
		CookiePatterns: []string{"mirai"},
	},
	{
		Name:           "Seekda",
		Category:       "Booking Engine",
		Domains:        []string{"seekda.com"},
		CookiePatterns: []string{"seekda"},
	},
	{
		Name:           "Net Affinity",
		Category:       "Booking Engine",
		Domains:        []string{"netaffinity.com"},
		CookiePatterns: []string{"netaffinity"},
	},
	{
		Name:           "Omnibees",
		Category:       "Booking Engine / Distribution",
		Domains:        []string{"omnibees.com"},
		CookiePatterns: []string{"omnibees"},
	},
}

// domSignalsJS checks every vendor's window globals and script sources in
// a single evaluation.
const domSignalsJS = `(signals) => {
	var hits = [];
	for (var i = 0; i < signals.length; i++) {
		var s = signals[i];
		if (typeof window[s.signal] !== 'undefined') {
			hits.push({vendor: s.vendor, evidence: 'window.' + s.signal});
		}
	}
	var scripts = document.querySelectorAll('script[src]');
	var vendorDomains = {};
	for (var j = 0; j < signals.length; j++) {
		var sig = signals[j].signal.toLowerCase();
		vendorDomains[sig] = signals[j].vendor;
	}
	scripts.forEach(function(script) {
		var src = script.src.toLowerCase();
		for (var key in vendorDomains) {
			if (src.indexOf(key) !== -1) {
				hits.push({
					vendor: vendorDomains[key],
					evidence: 'script_src: ' + script.src
				});
			}
		}
	});
	return hits;
}`

type domSignal struct {
	Vendor string `json:"vendor"`
	Signal string `json:"signal"`
}

// Competitors detects non-Duetto vendors from captured requests, the live
// page, and context cookies. Zero extra page loads: pure pattern matching
// on data the scan already has.
func Competitors(requests []models.CapturedRequest, page *rod.Page, cookies []*proto.NetworkCookie) []models.CompetitorDetection {
	networkHits := checkVendorNetwork(requests)
	domHits := checkVendorDOM(page)
	cookieHits := checkVendorCookies(cookies)

	vendors := make(map[string]struct{})
	for v := range networkHits {
		vendors[v] = struct{}{}
	}
	for v := range domHits {
		vendors[v] = struct{}{}
	}
	for v := range cookieHits {
		vendors[v] = struct{}{}
	}

	names := make([]string, 0, len(vendors))
	for v := range vendors {
		names = append(names, v)
	}
	sort.Strings(names)

	var results []models.CompetitorDetection
	for _, name := range names {
		var evidence []string
		urls := networkHits[name]
		if len(urls) > 5 {
			urls = urls[:5]
		}
		for _, u := range urls {
			evidence = append(evidence, "network: "+u)
		}
		evidence = append(evidence, domHits[name]...)
		evidence = append(evidence, cookieHits[name]...)

		results = append(results, models.CompetitorDetection{
			Vendor:   name,
			Category: vendorCategory(name),
			Evidence: evidence,
		})
	}

	if len(results) > 0 {
		slog.Info("competitor vendors detected", "count", len(results), "vendors", names)
	}
	return results
}

func vendorCategory(name string) string {
	for _, v := range vendorRegistry {
		if v.Name == name {
			return v.Category
		}
	}
	return "Hotel Technology"
}

func checkVendorNetwork(requests []models.CapturedRequest) map[string][]string {
	hits := make(map[string][]string)
	for _, req := range requests {
		urlLower := strings.ToLower(req.URL)
		host := ""
		if u, err := url.Parse(req.URL); err == nil {
			host = strings.ToLower(u.Host)
		}
		for _, v := range vendorRegistry {
			for _, domain := range v.Domains {
				if strings.Contains(host, domain) || strings.Contains(urlLower, domain) {
					hits[v.Name] = append(hits[v.Name], req.URL)
					break
				}
			}
		}
	}
	return hits
}

func checkVendorDOM(page *rod.Page) map[string][]string {
	if page == nil {
		return nil
	}
	var signals []domSignal
	for _, v := range vendorRegistry {
		for _, s := range v.DOMSignals {
			signals = append(signals, domSignal{Vendor: v.Name, Signal: s})
		}
	}

	hits := make(map[string][]string)
	err := rod.Try(func() {
		res := page.MustEval(domSignalsJS, signals)
		for _, item := range res.Arr() {
			vendor := item.Get("vendor").Str()
			hits[vendor] = append(hits[vendor], item.Get("evidence").Str())
		}
	})
	if err != nil {
		slog.Debug("vendor dom check failed", "error", err)
		return nil
	}
	return hits
}

func checkVendorCookies(cookies []*proto.NetworkCookie) map[string][]string {
	hits := make(map[string][]string)
	for _, c := range cookies {
		if c == nil {
			continue
		}
		combined := strings.ToLower(c.Name) + " " + strings.ToLower(c.Domain)
		for _, v := range vendorRegistry {
			for _, pattern := range v.CookiePatterns {
				if strings.Contains(combined, pattern) {
					hits[v.Name] = append(hits[v.Name],
						fmt.Sprintf("cookie: %s (domain: %s)", c.Name, c.Domain))
					break
				}
			}
		}
	}
	return hits
}
