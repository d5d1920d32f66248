package cache

import (
	"fmt"
	"testing"

	"github.com/use-agent/revscan/discovery"
)

func TestCacheGetSet(t *testing.T) {
	c := New(10)

	if got := c.Get("Hotel Adlon", "Berlin"); got != nil {
		t.Fatalf("expected miss on empty cache, got %+v", got)
	}

	urls := &discovery.HotelURLs{
		OfficialWebsite: "https://www.hotel-adlon.de",
		BookingURL:      "https://be.synxis.com/?hotel=123",
		Confidence:      "high",
	}
	c.Set("Hotel Adlon", "Berlin", urls)

	got := c.Get("Hotel Adlon", "Berlin")
	if got == nil {
		t.Fatal("expected hit after Set")
	}
	if got.BookingURL != urls.BookingURL {
		t.Errorf("BookingURL = %q, want %q", got.BookingURL, urls.BookingURL)
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	c := New(10)
	c.Set("  Hotel Adlon ", "BERLIN", &discovery.HotelURLs{OfficialWebsite: "https://example.com"})

	if got := c.Get("hotel adlon", "berlin"); got == nil {
		t.Error("expected case and whitespace insensitive key match")
	}
	if got := c.Get("hotel adlon", "munich"); got != nil {
		t.Error("different city must not hit")
	}
}

func TestCacheEviction(t *testing.T) {
	c := New(3)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("hotel-%d", i), "city", &discovery.HotelURLs{OfficialWebsite: "https://example.com"})
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}

	c.Set("hotel-overflow", "city", &discovery.HotelURLs{OfficialWebsite: "https://example.com"})
	if c.Len() != 3 {
		t.Errorf("Len after overflow = %d, want 3", c.Len())
	}
	if got := c.Get("hotel-overflow", "city"); got == nil {
		t.Error("newest entry must survive eviction")
	}
}

func TestCacheIgnoresNil(t *testing.T) {
	c := New(10)
	c.Set("hotel", "city", nil)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after nil Set", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	c := New(10)
	c.Set("hotel", "city", &discovery.HotelURLs{OfficialWebsite: "https://example.com"})
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after Clear", c.Len())
	}
}
