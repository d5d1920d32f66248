package discovery

import (
	"reflect"
	"testing"

	"github.com/use-agent/revscan/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		link models.BookingLink
		want int
	}{
		{
			name: "book now link in new tab",
			link: models.BookingLink{
				Text:            "Book Now",
				Href:            "https://be.synxis.com/?chain=1",
				DetectionMethod: models.MethodTextMatch,
				OpensIn:         models.OpensNewTab,
			},
			want: 100 + 50 + 10 + 10,
		},
		{
			name: "reserve beats check availability",
			link: models.BookingLink{
				Text:            "Reserve a Room",
				Href:            "/reserve",
				DetectionMethod: models.MethodHrefPattern,
				OpensIn:         models.OpensSameWindow,
			},
			want: 50 + 30 + 10,
		},
		{
			name: "iframe candidate ranks lowest",
			link: models.BookingLink{
				Text:            "Embedded booking engine",
				Href:            "https://engine.example.com/widget",
				DetectionMethod: models.MethodIframeSrc,
				OpensIn:         models.OpensIframe,
			},
			want: 25 + 10,
		},
		{
			name: "chain pattern guess",
			link: models.BookingLink{
				Text:            "Book Now (SynXis)",
				Href:            "https://be.synxis.com/?chain=28120",
				DetectionMethod: models.MethodChainPattern,
				OpensIn:         models.OpensNewTab,
			},
			want: 70 + 50 + 10 + 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.link); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRankStable(t *testing.T) {
	links := []models.BookingLink{
		{Text: "first", Href: "/a", DetectionMethod: models.MethodHrefPattern},
		{Text: "Book Now", Href: "/book", DetectionMethod: models.MethodTextMatch},
		{Text: "second", Href: "/b", DetectionMethod: models.MethodHrefPattern},
	}
	got := Rank(links)
	if got[0].Text != "Book Now" {
		t.Fatalf("best link = %q, want Book Now", got[0].Text)
	}
	// Equal scores keep input order.
	if got[1].Href != "/a" || got[2].Href != "/b" {
		t.Errorf("tied links reordered: %v", got[1:])
	}
	// Input slice untouched.
	if links[0].Text != "first" {
		t.Error("Rank mutated its input")
	}
	again := Rank(links)
	if !reflect.DeepEqual(got, again) {
		t.Error("Rank is not deterministic")
	}
}
