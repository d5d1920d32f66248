package pipeline

import (
	"strings"
	"testing"

	"github.com/use-agent/revscan/models"
)

func TestParseHotels(t *testing.T) {
	csv := "Hotel Name,Website URL,City\n" +
		"Grand Hotel,www.grand.example,Vienna\n" +
		"Plaza,https://plaza.example,\n" +
		",missing-name.example,\n" +
		"No URLs Hotel,,\n"

	hotels, err := ParseHotels(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(hotels) != 2 {
		t.Fatalf("got %d hotels: %+v", len(hotels), hotels)
	}
	if hotels[0].Name != "Grand Hotel" || hotels[0].City != "Vienna" {
		t.Errorf("hotels[0] = %+v", hotels[0])
	}
	if hotels[0].Website != "https://www.grand.example" {
		t.Errorf("scheme not defaulted: %q", hotels[0].Website)
	}
	if hotels[1].Website != "https://plaza.example" {
		t.Errorf("hotels[1].Website = %q", hotels[1].Website)
	}
}

func TestParseHotelsAliasColumns(t *testing.T) {
	csv := "Account Name,Homepage\nThe Ritz,ritz.example\n"
	hotels, err := ParseHotels(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(hotels) != 1 || hotels[0].Name != "The Ritz" {
		t.Errorf("hotels = %+v", hotels)
	}
}

func TestParseHotelsCityOnly(t *testing.T) {
	// No website column at all; city is enough, the URL lookup fills in
	// the rest later.
	csv := "name,city\nThe Plaza,New York\n"
	hotels, err := ParseHotels(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(hotels) != 1 || hotels[0].City != "New York" || hotels[0].Website != "" {
		t.Errorf("hotels = %+v", hotels)
	}
}

func TestParseHotelsBOMHeader(t *testing.T) {
	csv := "\ufeffname,website\nGrand,grand.example\n"
	hotels, err := ParseHotels(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(hotels) != 1 {
		t.Fatalf("BOM header not handled: %+v", hotels)
	}
}

func TestParseHotelsEmpty(t *testing.T) {
	hotels, err := ParseHotels(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if hotels != nil {
		t.Errorf("expected nil, got %+v", hotels)
	}
}

func TestWriteResults(t *testing.T) {
	results := []*models.DetectionResult{
		{
			HotelName:           "Grand Hotel",
			WebsiteURL:          "https://grand.example",
			PixelDetected:       true,
			GameChangerDetected: false,
			Products:            []string{models.ProductPixel},
			Confidence:          models.ConfidenceHigh,
			BookingEngineURL:    "https://be.synxis.com/?chain=1",
			BookingLinksFound:   []models.BookingLink{{Href: "/book"}},
			PixelRequests: []models.CapturedRequest{
				{URL: "https://capture.duettoresearch.com/v1"},
			},
			ProofSnippets:       []string{"pixel_request: https://capture.duettoresearch.com/v1"},
			ScanDurationSeconds: 42.3,
		},
		nil,
	}

	var sb strings.Builder
	if err := WriteResults(&sb, results); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), sb.String())
	}
	if !strings.HasPrefix(lines[0], "hotel_name,website_url") {
		t.Errorf("header = %q", lines[0])
	}
	row := lines[1]
	for _, want := range []string{"Grand Hotel", "true", "Duetto Pixel", "high", "42.3"} {
		if !strings.Contains(row, want) {
			t.Errorf("row missing %q: %s", want, row)
		}
	}
}
