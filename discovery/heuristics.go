package discovery

import (
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/use-agent/revscan/models"
)

// findLinksJS runs all three in-page strategies in one evaluation: visible
// text matching on links and buttons, href substring matching, and iframe
// src inspection. Caps mirror the scan budget: five elements per text
// pattern, two hundred links for the href pass.
const findLinksJS = `() => {
	const textPatterns = [
		/book\s*now/i,
		/book\s*(?:a\s*)?room/i,
		/book\s*(?:your\s*)?stay/i,
		/book\s*direct/i,
		/reserve\s*(?:now|a\s*room)?/i,
		/check\s*availab/i,
		/make\s*(?:a\s*)?reservat/i,
		/plan\s*your\s*stay/i,
		/view\s*(?:rooms?|rates?|availab)/i,
		/buchen/i,
		/jetzt\s*buchen/i,
		/zimmer\s*buchen/i,
		/r[eé]server/i,
		/reservar/i,
		/prenota/i,
		/boek\s*nu/i,
	];
	const hrefPatterns = [
		"reservations.", "bookings.", "book.", "reserve.",
		"synxis", "travelclick", "siteminder", "cloudbeds",
		"mews.", "guestcentric", "bookdirect", "bookassist",
		"profitroom", "duettoresearch", "duettocloud",
		"/booking", "/reservation", "/reserve", "/book-now",
		"be.synxis.com", "gc.synxis.com",
		"booking-engine", "ibe.", "wbe.",
		"rfrb.net", "omnibees.com", "d-edge.com", "seekda.com",
	];
	const iframePatterns = [
		"booking", "reserv", "synxis", "travelclick",
		"siteminder", "cloudbeds", "duetto", "mews",
		"bookassist", "profitroom",
	];

	const visible = el => {
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	const results = [];
	const seen = new Set();
	const push = (text, href, linkType, method, opensIn) => {
		const key = href || text;
		if (!key || seen.has(key)) return;
		seen.add(key);
		results.push({
			text: text.slice(0, 100),
			href: href,
			link_type: linkType,
			detection_method: method,
			opens_in: opensIn,
		});
	};

	for (const pattern of textPatterns) {
		for (const tag of ["a", "button"]) {
			let hits = 0;
			for (const el of document.querySelectorAll(tag)) {
				if (hits >= 5) break;
				const text = (el.textContent || "").trim();
				if (!pattern.test(text) || !visible(el)) continue;
				hits++;
				const href = el.getAttribute("href") || "";
				const opensIn = el.getAttribute("target") === "_blank"
					? "new_tab" : "same_window";
				push(text, href, tag === "button" ? "button" : "link",
					"text_match", opensIn);
			}
		}
	}

	const links = Array.from(document.querySelectorAll("a[href]")).slice(0, 200);
	for (const el of links) {
		const href = el.getAttribute("href") || "";
		const lower = href.toLowerCase();
		if (!hrefPatterns.some(p => lower.includes(p))) continue;
		const text = (el.textContent || "").trim() || "Booking Link";
		const opensIn = el.getAttribute("target") === "_blank"
			? "new_tab" : "same_window";
		push(text, href, "link", "href_pattern", opensIn);
	}

	for (const frame of document.querySelectorAll("iframe")) {
		const src = frame.getAttribute("src") || "";
		const lower = src.toLowerCase();
		if (!src || !iframePatterns.some(p => lower.includes(p))) continue;
		push("Embedded booking engine", src, "iframe", "iframe_src", "iframe");
	}

	return results;
}`

// FindInPageLinks inspects the loaded page for booking links using local
// heuristics. Returns nil when the page cannot be evaluated.
func FindInPageLinks(page *rod.Page) []models.BookingLink {
	var links []models.BookingLink
	err := rod.Try(func() {
		res := page.MustEval(findLinksJS)
		for _, item := range res.Arr() {
			links = append(links, models.BookingLink{
				Text:            item.Get("text").Str(),
				Href:            item.Get("href").Str(),
				LinkType:        item.Get("link_type").Str(),
				DetectionMethod: item.Get("detection_method").Str(),
				OpensIn:         item.Get("opens_in").Str(),
			})
		}
	})
	if err != nil {
		slog.Warn("in-page link search failed", "error", err)
		return nil
	}
	return links
}
