package scan

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func queryOf(t *testing.T, rawURL string) url.Values {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %q: %v", rawURL, err)
	}
	return u.Query()
}

func TestInjectDatesSynxis(t *testing.T) {
	got := InjectDates("https://be.synxis.com/?chain=28120", testNow)
	q := queryOf(t, got)
	if q.Get("arrive") != "2026-03-15" || q.Get("depart") != "2026-03-16" {
		t.Errorf("dates = %s / %s", q.Get("arrive"), q.Get("depart"))
	}
	if q.Get("adult") != "2" || q.Get("rooms") != "1" {
		t.Errorf("occupancy = adult %s rooms %s", q.Get("adult"), q.Get("rooms"))
	}
	if q.Get("chain") != "28120" {
		t.Errorf("existing param lost: chain = %q", q.Get("chain"))
	}
}

func TestInjectDatesKeepsExistingValues(t *testing.T) {
	got := InjectDates("https://be.synxis.com/?arrive=2026-06-01&depart=2026-06-03", testNow)
	q := queryOf(t, got)
	if q.Get("arrive") != "2026-06-01" || q.Get("depart") != "2026-06-03" {
		t.Errorf("caller dates overwritten: %s / %s", q.Get("arrive"), q.Get("depart"))
	}
}

func TestInjectDatesTravelClickUsesSlashFormat(t *testing.T) {
	got := InjectDates("https://reservations.travelclick.com/12345", testNow)
	q := queryOf(t, got)
	if q.Get("datein") != "03/15/2026" || q.Get("dateout") != "03/16/2026" {
		t.Errorf("dates = %s / %s", q.Get("datein"), q.Get("dateout"))
	}
	if q.Get("adults") != "2" {
		t.Errorf("adults = %q", q.Get("adults"))
	}
}

func TestInjectDatesVendorDispatch(t *testing.T) {
	tests := []struct {
		url      string
		inKey    string
		outKey   string
	}{
		{"https://app.mews.com/distributor/abc", "startDate", "endDate"},
		{"https://booking.profitroom.com/en/hotel", "dateFrom", "dateTo"},
		{"https://secure.bookassist.com/book/x", "arrive", "depart"},
		{"https://book.d-edge.com/hotel/1", "arrivalDate", "departureDate"},
		{"https://hotel.littlehotelier.com/properties/x", "checkin", "checkout"},
	}
	for _, tt := range tests {
		q := queryOf(t, InjectDates(tt.url, testNow))
		if q.Get(tt.inKey) == "" || q.Get(tt.outKey) == "" {
			t.Errorf("%s: missing %s/%s params, got %v", tt.url, tt.inKey, tt.outKey, q)
		}
	}
}

func TestInjectDatesGenericFallback(t *testing.T) {
	// Unknown engine with no date params gets the generic pair.
	q := queryOf(t, InjectDates("https://book.grandhotel.example/search", testNow))
	if q.Get("checkin") != "2026-03-15" || q.Get("checkout") != "2026-03-16" || q.Get("adults") != "2" {
		t.Errorf("generic fallback params = %v", q)
	}

	// Unknown engine that already has a date-ish param is left alone.
	got := InjectDates("https://book.grandhotel.example/search?arrival=2026-07-01", testNow)
	q = queryOf(t, got)
	if q.Has("checkin") {
		t.Errorf("generic fallback fired despite existing date param: %s", got)
	}
}

func TestInjectDatesIdempotent(t *testing.T) {
	once := InjectDates("https://be.synxis.com/?chain=28120", testNow)
	twice := InjectDates(once, testNow)
	if once != twice {
		t.Errorf("not idempotent:\n once: %s\ntwice: %s", once, twice)
	}
}

func TestInjectDatesRejectsNonHTTP(t *testing.T) {
	for _, in := range []string{"", "javascript:void(0)", "/relative/path"} {
		if got := InjectDates(in, testNow); got != in {
			t.Errorf("InjectDates(%q) = %q, want unchanged", in, got)
		}
	}
	if got := InjectDates("https://be.synxis.com/?chain=1", testNow); !strings.Contains(got, "arrive=") {
		t.Errorf("valid URL not injected: %s", got)
	}
}
