package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/revscan/llm"
)

const lookupPrompt = `What is the official website and official direct booking URL for the hotel "%s" in %s?

I need two URLs:
1. **Official website**: The hotel's own website homepage (e.g. https://www.theplazany.com)
2. **Booking URL**: The hotel's own booking/reservation page where guests select dates and book directly.
   - Often hosted on a booking engine domain (synxis, travelclick, siteminder, cloudbeds, etc.)
   - Or a /booking, /reservations, /book-now path on the hotel's or brand's website
   - Must NOT be an OTA (Booking.com, Expedia, Hotels.com, Agoda, etc.)

Return ONLY valid JSON, no other text:
{"official_website": "https://...", "booking_url": "https://...", "confidence": "high"}
If you only know the website: {"official_website": "https://...", "booking_url": "", "confidence": "medium"}
If you don't know: {"official_website": "", "booking_url": "", "confidence": "none"}`

// HotelURLs is the outcome of a pre-scan URL lookup.
type HotelURLs struct {
	OfficialWebsite string `json:"official_website"`
	BookingURL      string `json:"booking_url"`
	Confidence      string `json:"confidence"`
}

// LookupHotelURLs resolves a hotel's official website and direct booking
// URL before the browser ever opens. Used when the input CSV carries no
// website column, and to seed the cascade with a known booking URL.
func LookupHotelURLs(ctx context.Context, client *llm.Client, hotelName, city string) HotelURLs {
	none := HotelURLs{Confidence: "none"}
	if !client.Enabled() || city == "" {
		return none
	}

	var answer HotelURLs
	prompt := fmt.Sprintf(lookupPrompt, hotelName, city)
	if err := client.AskJSON(ctx, prompt, 300, &answer); err != nil {
		slog.Warn("url lookup failed", "hotel", hotelName, "error", err)
		return none
	}

	answer.OfficialWebsite = strings.TrimSpace(answer.OfficialWebsite)
	answer.BookingURL = strings.TrimSpace(answer.BookingURL)
	if !validDirectURL(answer.OfficialWebsite) {
		answer.OfficialWebsite = ""
	}
	if !validDirectURL(answer.BookingURL) {
		answer.BookingURL = ""
	}
	if answer.Confidence == "" {
		answer.Confidence = "none"
	}
	if answer.Confidence == "none" && answer.OfficialWebsite == "" {
		slog.Info("url lookup: no results", "hotel", hotelName, "city", city)
		return none
	}

	slog.Info("url lookup resolved",
		"hotel", hotelName, "city", city,
		"website", answer.OfficialWebsite, "booking", answer.BookingURL,
		"confidence", answer.Confidence)
	return answer
}
