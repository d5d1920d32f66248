// Package pipeline converts between CSV rows and scan inputs/outputs.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/use-agent/revscan/models"
)

// Column aliases accepted in uploaded CSVs. Sales exports rarely agree on
// headers, so matching is by alias after lowercasing.
var (
	nameAliases = []string{
		"name", "hotel_name", "hotel name", "account name", "property",
		"property name", "hotel",
	}
	websiteAliases = []string{
		"website", "url", "website url", "site", "hotel url", "web",
		"homepage", "link",
	}
	cityAliases = []string{
		"city", "location", "town", "market",
	}
)

func findColumn(fieldnames []string, aliases []string) int {
	for _, alias := range aliases {
		for i, f := range fieldnames {
			if f == alias {
				return i
			}
		}
	}
	return -1
}

// ParseHotels reads hotel rows from CSV content with flexible column
// names. Rows need a name plus either a website or a city; a missing
// website is resolved later by the URL lookup. Schemes are defaulted to
// https.
func ParseHotels(r io.Reader) ([]models.Hotel, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, f := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(f, "\ufeff")))
	}

	nameCol := findColumn(header, nameAliases)
	websiteCol := findColumn(header, websiteAliases)
	cityCol := findColumn(header, cityAliases)

	var hotels []models.Hotel
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		hotel := models.Hotel{
			Name:    cell(row, nameCol),
			Website: cell(row, websiteCol),
			City:    cell(row, cityCol),
		}
		if hotel.Name == "" || (hotel.Website == "" && hotel.City == "") {
			continue
		}
		if hotel.Website != "" &&
			!strings.HasPrefix(hotel.Website, "http://") &&
			!strings.HasPrefix(hotel.Website, "https://") {
			hotel.Website = "https://" + hotel.Website
		}
		hotels = append(hotels, hotel)
	}
	return hotels, nil
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// WriteResults renders scan results as CSV.
func WriteResults(w io.Writer, results []*models.DetectionResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{
		"hotel_name",
		"website_url",
		"duetto_pixel_detected",
		"gamechanger_detected",
		"duetto_products",
		"confidence",
		"booking_engine_url",
		"booking_links_count",
		"pixel_request_urls",
		"proof_snippets",
		"scan_duration_seconds",
		"errors",
	}); err != nil {
		return err
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		var pixelURLs []string
		for _, pr := range r.PixelRequests {
			pixelURLs = append(pixelURLs, pr.URL)
		}
		if err := writer.Write([]string{
			r.HotelName,
			r.WebsiteURL,
			strconv.FormatBool(r.PixelDetected),
			strconv.FormatBool(r.GameChangerDetected),
			strings.Join(r.Products, "; "),
			r.Confidence,
			r.BookingEngineURL,
			strconv.Itoa(len(r.BookingLinksFound)),
			strings.Join(pixelURLs, "; "),
			strings.Join(r.ProofSnippets, " | "),
			fmt.Sprintf("%.1f", r.ScanDurationSeconds),
			strings.Join(r.Errors, "; "),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
