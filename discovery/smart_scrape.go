package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/use-agent/revscan/llm"
	"github.com/use-agent/revscan/models"
)

const smartScrapePrompt = `You are analyzing a hotel website to find the booking engine link.
The hotel website URL is: %s

Here is the page content in markdown:
%s

Identify the link(s) that lead to the hotel's EXTERNAL booking engine where
guests can search rooms and make reservations. Look for:
- "Book Now", "Reserve", "Check Availability" buttons/links that go to a DIFFERENT domain
- Links to known booking engine domains (synxis, travelclick, siteminder, cloudbeds, mews, profitroom, bookassist, d-edge, roiback, mirai, etc.)
- Embedded booking widgets or iframes from external domains

IMPORTANT: Do NOT return links that point back to the hotel's own website.
Only return links to external booking engine domains.

Return ONLY valid JSON, no other text:
{"links": [{"url": "https://...", "text": "Book Now", "confidence": "high"}]}
If no booking link found: {"links": []}`

const maxMarkdownChars = 8000

// SmartScrapeLinks asks the LLM to pick out external booking engine links
// from a server-side rendering of the hotel website. The markdown comes
// from scrapeMarkdown: the scrape API when configured, a direct fetch
// otherwise.
func SmartScrapeLinks(ctx context.Context, client *llm.Client, websiteURL, markdown string) []models.BookingLink {
	if !client.Enabled() || markdown == "" {
		return nil
	}
	if len(markdown) > maxMarkdownChars {
		markdown = markdown[:maxMarkdownChars] + "\n\n[content truncated]"
	}

	var answer struct {
		Links []struct {
			URL        string `json:"url"`
			Text       string `json:"text"`
			Confidence string `json:"confidence"`
		} `json:"links"`
	}
	prompt := fmt.Sprintf(smartScrapePrompt, websiteURL, markdown)
	if err := client.AskJSON(ctx, prompt, 1024, &answer); err != nil {
		slog.Warn("smart scrape llm failed", "url", websiteURL, "error", err)
		return nil
	}

	// Highest model confidence first.
	confOrder := map[string]int{"high": 0, "medium": 1, "low": 2}
	sort.SliceStable(answer.Links, func(i, j int) bool {
		oi, ok := confOrder[answer.Links[i].Confidence]
		if !ok {
			oi = 2
		}
		oj, ok := confOrder[answer.Links[j].Confidence]
		if !ok {
			oj = 2
		}
		return oi < oj
	})

	hotelBase := ExtractBaseDomain(websiteURL)
	var links []models.BookingLink
	for _, item := range answer.Links {
		url := strings.TrimSpace(item.URL)
		if !strings.HasPrefix(url, "http") {
			continue
		}
		// Same-domain links are marketing pages, not the engine.
		if ExtractBaseDomain(url) == hotelBase {
			slog.Info("smart scrape: skipping same-domain link", "url", url)
			continue
		}
		text := item.Text
		if text == "" {
			text = "Book Now"
		}
		links = append(links, models.BookingLink{
			Text:            text,
			Href:            url,
			LinkType:        "link",
			DetectionMethod: models.MethodSmartLLM,
			OpensIn:         models.OpensNewTab,
		})
	}
	return links
}
