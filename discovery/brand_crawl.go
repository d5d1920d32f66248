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

const pickPropertyPrompt = `You are looking for the specific property page for "%s" on the brand website %s.

Here are pages found on the brand site:
%s

Which URL is the specific hotel/property page for "%s"?
This should be the property's detail/overview page, NOT a search results
page, NOT the brand homepage, and NOT a generic listing.

Return ONLY valid JSON: {"index": 1, "reason": "..."}
If no page matches this specific property: {"index": 0, "reason": "..."}`

const extractLinksPrompt = `You are analyzing the property page for "%s" to find booking engine links.

Page URL: %s
Page content:
%s

Find links that lead to the booking/reservation engine where a guest can
select dates and book a room. These may be:
- "Book Now" / "Reserve" buttons linking to a booking engine
- Links to external booking domains (synxis, travelclick, etc.)
- Links to internal reservation paths (/reservation/...)

Return ONLY valid JSON:
{"links": [{"url": "https://...", "text": "Book Now"}]}
If no booking link found: {"links": []}`

// BrandCrawlLinks handles chain sites where the property page is buried.
// It maps the brand site for pages mentioning the hotel, has the LLM pick
// the property page, scrapes it, and extracts booking links from the
// content. The most expensive tier: roughly four API calls.
func BrandCrawlLinks(ctx context.Context, searcher *search.Client, client *llm.Client, hotelName, websiteURL string) []models.BookingLink {
	if !searcher.Enabled() || !client.Enabled() {
		return nil
	}
	slog.Info("brand crawl starting", "hotel", hotelName, "website", websiteURL)

	mapped, err := searcher.Map(ctx, websiteURL, hotelName, 20)
	if err != nil {
		slog.Warn("brand crawl map failed", "website", websiteURL, "error", err)
		return nil
	}
	if len(mapped) == 0 {
		slog.Info("brand crawl: map returned no links", "website", websiteURL)
		return nil
	}
	slog.Info("brand crawl mapped site", "website", websiteURL, "links", len(mapped))

	propertyURL := pickPropertyPage(ctx, client, mapped, hotelName, websiteURL)
	if propertyURL == "" {
		slog.Info("brand crawl: no property page identified", "hotel", hotelName)
		return nil
	}
	slog.Info("brand crawl picked property page", "url", propertyURL)

	markdown, err := searcher.Scrape(ctx, propertyURL)
	if err != nil {
		slog.Warn("brand crawl scrape failed", "url", propertyURL, "error", err)
		return nil
	}
	if markdown == "" {
		return nil
	}
	if len(markdown) > maxMarkdownChars {
		markdown = markdown[:maxMarkdownChars] + "\n\n[content truncated]"
	}

	var answer struct {
		Links []struct {
			URL  string `json:"url"`
			Text string `json:"text"`
		} `json:"links"`
	}
	prompt := fmt.Sprintf(extractLinksPrompt, hotelName, propertyURL, markdown)
	if err := client.AskJSON(ctx, prompt, 512, &answer); err != nil {
		slog.Warn("brand crawl extraction failed", "url", propertyURL, "error", err)
		return nil
	}

	var links []models.BookingLink
	for _, item := range answer.Links {
		url := strings.TrimSpace(item.URL)
		if !strings.HasPrefix(url, "http") {
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
			DetectionMethod: models.MethodBrandCrawl,
			OpensIn:         models.OpensNewTab,
		})
	}
	slog.Info("brand crawl finished", "hotel", hotelName, "links", len(links))
	return links
}

func pickPropertyPage(ctx context.Context, client *llm.Client, mapped []search.Result, hotelName, brandURL string) string {
	if len(mapped) > 15 {
		mapped = mapped[:15]
	}
	var sb strings.Builder
	for i, l := range mapped {
		fmt.Fprintf(&sb, "%d. URL: %s\n   Title: %s\n   Description: %s\n", i+1, l.URL, l.Title, l.Description)
	}

	var answer struct {
		Index  int    `json:"index"`
		Reason string `json:"reason"`
	}
	prompt := fmt.Sprintf(pickPropertyPrompt, hotelName, brandURL, sb.String(), hotelName)
	if err := client.AskJSON(ctx, prompt, 256, &answer); err != nil {
		slog.Warn("brand crawl property pick failed", "error", err)
		return ""
	}
	if answer.Index < 1 || answer.Index > len(mapped) {
		return ""
	}
	return mapped[answer.Index-1].URL
}
