package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/revscan/llm"
	"github.com/use-agent/revscan/models"
	"github.com/use-agent/revscan/search"
)

const pickBestPrompt = `You are selecting the best booking engine URL for "%s".

Here are the search results:
%s

Pick the result that is most likely to be the direct booking/reservation page
where a guest can select dates and book a room at this specific hotel.
Prefer URLs from known booking engine providers (SynXis, TravelClick,
SiteMinder, etc.) over marketing pages.

Return ONLY valid JSON: {"index": 1, "reason": "..."}
If none are relevant: {"index": 0, "reason": "..."}`

// WebSearchLinks searches the web for the hotel's booking engine URL.
// Results are filtered through the booking-engine registry first; when
// several candidates survive, the LLM disambiguates.
func WebSearchLinks(ctx context.Context, searcher *search.Client, client *llm.Client, hotelName, websiteURL string) []models.BookingLink {
	if !searcher.Enabled() {
		return nil
	}

	hotelBase := ExtractBaseDomain(websiteURL)
	for _, query := range buildSearchQueries(hotelName, websiteURL) {
		slog.Info("web search", "query", query)

		results, err := searcher.Search(ctx, query, 5)
		if err != nil {
			slog.Warn("web search failed", "query", query, "error", err)
			continue
		}
		if len(results) == 0 {
			slog.Info("web search: no results", "query", query)
			continue
		}

		// Tier 1: known booking engine domains, excluding the hotel's own
		// site and OTAs.
		var candidates []search.Result
		for _, r := range results {
			base := ExtractBaseDomain(r.URL)
			if base == hotelBase || IsOTA(r.URL) {
				continue
			}
			if URLMatchesBookingEngine(r.URL) {
				candidates = append(candidates, r)
			}
		}

		// Tier 2: any external link with a booking-flavored title or
		// description.
		if len(candidates) == 0 {
			for _, r := range results {
				base := ExtractBaseDomain(r.URL)
				if base == hotelBase || IsOTA(r.URL) {
					continue
				}
				combined := strings.ToLower(r.Title + " " + r.Description)
				for _, w := range []string{"book", "reserv", "room", "rate"} {
					if strings.Contains(combined, w) {
						candidates = append(candidates, r)
						break
					}
				}
			}
		}

		if len(candidates) == 0 {
			slog.Info("web search: no booking candidates", "query", query)
			continue
		}

		best := candidates[0]
		if len(candidates) > 1 && client.Enabled() {
			if picked, ok := pickBestWithLLM(ctx, client, candidates, hotelName); ok {
				best = picked
			}
		}

		slog.Info("web search found booking url", "hotel", hotelName, "url", best.URL)
		text := best.Title
		if text == "" {
			text = "Booking Page"
		}
		return []models.BookingLink{{
			Text:            text,
			Href:            best.URL,
			LinkType:        "link",
			DetectionMethod: models.MethodWebSearch,
			OpensIn:         models.OpensNewTab,
		}}
	}

	slog.Info("web search: all queries exhausted", "hotel", hotelName)
	return nil
}

// buildSearchQueries returns a prioritized list of queries, chain hint
// first when the site belongs to a known chain. At most two.
func buildSearchQueries(hotelName, websiteURL string) []string {
	safeName := strings.TrimSpace(strings.ReplaceAll(hotelName, `"`, ""))
	var queries []string
	if hint := ChainSearchHint(websiteURL, safeName); hint != "" {
		queries = append(queries, hint)
	}
	queries = append(queries, fmt.Sprintf(`"%s" hotel booking reservations book room`, safeName))
	return queries
}

func pickBestWithLLM(ctx context.Context, client *llm.Client, candidates []search.Result, hotelName string) (search.Result, bool) {
	var sb strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. URL: %s\n   Title: %s\n   Description: %s\n", i+1, c.URL, c.Title, c.Description)
	}

	var answer struct {
		Index  int    `json:"index"`
		Reason string `json:"reason"`
	}
	prompt := fmt.Sprintf(pickBestPrompt, hotelName, sb.String())
	if err := client.AskJSON(ctx, prompt, 256, &answer); err != nil {
		slog.Warn("llm pick failed", "error", err)
		return search.Result{}, false
	}
	if answer.Index < 1 || answer.Index > len(candidates) {
		return search.Result{}, false
	}
	return candidates[answer.Index-1], true
}
