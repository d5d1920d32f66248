// Package discovery locates a hotel's direct booking funnel. It runs a
// cascade of strategies, from LLM queries down to in-page heuristics, and
// ranks every candidate link before the scanner follows one.
package discovery

import (
	"net/url"
	"strings"
)

// Hostnames and hostname prefixes of hosted booking engines. A candidate
// URL on one of these is almost certainly the funnel we want.
var knownBookingEngineDomains = []string{
	// SynXis (Sabre)
	"be.synxis.com",
	"gc.synxis.com",
	"booking.synxis.com",
	// TravelClick (Amadeus)
	"travelclick.com",
	"reservations.travelclick.com",
	// SiteMinder
	"siteminder.com",
	"littlehotelier.com",
	// Cloudbeds
	"cloudbeds.com",
	// Mews
	"mews.com",
	"app.mews.com",
	// GuestCentric
	"guestcentric.com",
	// BookAssist
	"bookassist.com",
	// Profitroom
	"profitroom.com",
	// D-EDGE
	"d-edge.com",
	"availpro.com",
	// Roiback
	"rfrb.net",
	"roiback.com",
	// Mirai
	"mirai.com",
	// Omnibees
	"omnibees.com",
	// Seekda
	"seekda.com",
	// Generic booking subdomains
	"reservations.",
	"bookings.",
	"book.",
	"reserve.",
}

// Looser keywords for URL matching, used when filtering search results by
// title and description as well as by URL.
var bookingURLKeywords = []string{
	"synxis", "travelclick", "siteminder", "cloudbeds",
	"mews", "guestcentric", "bookdirect", "bookassist",
	"profitroom", "d-edge", "roiback", "rfrb.net",
	"omnibees", "seekda", "mirai",
	"/booking", "/reservation", "/reserve", "/book-now",
	"booking-engine", "ibe.", "wbe.",
}

// Online travel agencies. Links into these are never the hotel's own
// funnel and are rejected everywhere.
var otaDomains = map[string]struct{}{
	"booking.com":      {},
	"expedia.com":      {},
	"hotels.com":       {},
	"kayak.com":        {},
	"tripadvisor.com":  {},
	"agoda.com":        {},
	"priceline.com":    {},
	"trivago.com":      {},
	"hotwire.com":      {},
	"orbitz.com":       {},
	"travelocity.com":  {},
	"trip.com":         {},
	"google.com":       {},
	"momondo.com":      {},
	"skyscanner.com":   {},
	"lastminute.com":   {},
	"cheaptickets.com": {},
	"hostelworld.com":  {},
}

// URLMatchesBookingEngine reports whether the URL looks like a hosted
// booking engine or a booking path.
func URLMatchesBookingEngine(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, d := range knownBookingEngineDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	for _, k := range bookingURLKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// IsOTA reports whether the URL's registrable domain is an online travel
// agency.
func IsOTA(rawURL string) bool {
	_, ok := otaDomains[ExtractBaseDomain(rawURL)]
	return ok
}

// ExtractBaseDomain returns the registrable domain from a URL or bare
// hostname: "hotel.hardrock.com" and "https://www.hardrock.com/x" both
// give "hardrock.com".
func ExtractBaseDomain(urlOrHost string) string {
	host := urlOrHost
	if strings.Contains(urlOrHost, "://") {
		if u, err := url.Parse(urlOrHost); err == nil {
			host = u.Host
		}
	}
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return host
}
