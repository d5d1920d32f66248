package discovery

import "testing"

func TestExtractBaseDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hotel.hardrock.com", "hardrock.com"},
		{"https://www.marriott.com/en-us/hotels", "marriott.com"},
		{"https://be.synxis.com/?chain=28120", "synxis.com"},
		{"WWW.Example.COM", "example.com"},
		{"localhost", "localhost"},
		{"https://example.com:8080/path", "example.com"},
	}
	for _, tt := range tests {
		if got := ExtractBaseDomain(tt.in); got != tt.want {
			t.Errorf("ExtractBaseDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestURLMatchesBookingEngine(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://be.synxis.com/?chain=28120&hotel=123", true},
		{"https://reservations.travelclick.com/12345", true},
		{"https://www.grandhotel.com/booking-engine/search", true},
		{"https://www.grandhotel.com/reservation", true},
		{"https://ibe.somehotel.com/", true},
		{"https://www.grandhotel.com/rooms", false},
		{"https://www.grandhotel.com/about-us", false},
	}
	for _, tt := range tests {
		if got := URLMatchesBookingEngine(tt.url); got != tt.want {
			t.Errorf("URLMatchesBookingEngine(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestIsOTA(t *testing.T) {
	if !IsOTA("https://www.booking.com/hotel/us/grand.html") {
		t.Error("booking.com should be an OTA")
	}
	if !IsOTA("https://www.google.com/travel/hotels") {
		t.Error("google.com should be an OTA")
	}
	if IsOTA("https://www.grandhotel.com/booking") {
		t.Error("hotel's own site is not an OTA")
	}
}
