package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/revscan/llm"
	"github.com/use-agent/revscan/models"
)

const aiQueryPrompt = `What is the direct booking URL for the hotel "%s" in %s?

I need the URL of the hotel's own booking engine or reservation page where
guests can select dates and book a room directly. This should be:
- The hotel's OWN booking page (not an OTA like Booking.com, Expedia, etc.)
- A URL that starts with http:// or https://
- Often hosted on a booking engine domain like synxis, travelclick, siteminder, etc.
- Or a /booking or /reservations path on the hotel's or brand's website

Return ONLY valid JSON, no other text:
{"url": "https://...", "confidence": "high"}
If you don't know: {"url": "", "confidence": "none"}`

// AIQueryLinks asks the LLM directly for the hotel's booking URL. Needs a
// city to disambiguate; without one the model guesses too freely.
func AIQueryLinks(ctx context.Context, client *llm.Client, hotelName, city string) []models.BookingLink {
	if !client.Enabled() || city == "" {
		return nil
	}

	var answer struct {
		URL        string `json:"url"`
		Confidence string `json:"confidence"`
	}
	prompt := fmt.Sprintf(aiQueryPrompt, hotelName, city)
	if err := client.AskJSON(ctx, prompt, 256, &answer); err != nil {
		slog.Warn("ai query failed", "hotel", hotelName, "error", err)
		return nil
	}

	url := strings.TrimSpace(answer.URL)
	if !validDirectURL(url) {
		slog.Info("ai query: no valid url", "hotel", hotelName, "city", city)
		return nil
	}
	if answer.Confidence == "none" {
		slog.Info("ai query: low confidence, skipping", "hotel", hotelName)
		return nil
	}

	slog.Info("ai query found booking url",
		"hotel", hotelName, "url", url, "confidence", answer.Confidence)
	return []models.BookingLink{{
		Text:            "AI-suggested booking link",
		Href:            url,
		LinkType:        "link",
		DetectionMethod: models.MethodAIQuery,
		OpensIn:         models.OpensNewTab,
	}}
}

// validDirectURL rejects empty, relative, and OTA URLs.
func validDirectURL(url string) bool {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return false
	}
	return !IsOTA(url)
}
