package discovery

import (
	"context"
	"testing"

	"github.com/use-agent/revscan/models"
)

func TestRunCascadeShortCircuits(t *testing.T) {
	var calls []string
	strategies := []Strategy{
		{Name: "first", Find: func(context.Context) []models.BookingLink {
			calls = append(calls, "first")
			return nil
		}},
		{Name: "second", Find: func(context.Context) []models.BookingLink {
			calls = append(calls, "second")
			return []models.BookingLink{{Href: "https://be.synxis.com/?chain=1"}}
		}},
		{Name: "third", Find: func(context.Context) []models.BookingLink {
			calls = append(calls, "third")
			return []models.BookingLink{{Href: "https://example.com/never"}}
		}},
	}

	links := runCascade(context.Background(), strategies, "https://hotel.example.com")
	if len(links) != 1 || links[0].Href != "https://be.synxis.com/?chain=1" {
		t.Fatalf("unexpected links: %v", links)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("tier calls = %v, want [first second]", calls)
	}
}

func TestRunCascadeAllEmpty(t *testing.T) {
	n := 0
	strategies := []Strategy{
		{Name: "a", Find: func(context.Context) []models.BookingLink { n++; return nil }},
		{Name: "b", Find: func(context.Context) []models.BookingLink { n++; return nil }},
	}
	if links := runCascade(context.Background(), strategies, "x"); links != nil {
		t.Fatalf("expected nil, got %v", links)
	}
	if n != 2 {
		t.Errorf("expected both tiers called, got %d", n)
	}
}

func TestRunCascadeHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	strategies := []Strategy{
		{Name: "a", Find: func(context.Context) []models.BookingLink {
			t.Error("tier ran after cancellation")
			return nil
		}},
	}
	if links := runCascade(ctx, strategies, "x"); links != nil {
		t.Fatalf("expected nil, got %v", links)
	}
}

func TestChainPatternLinks(t *testing.T) {
	links := ChainPatternLinks("https://www.hardrock.com/hotels/x")
	if len(links) != 1 {
		t.Fatalf("expected one chain link, got %d", len(links))
	}
	if links[0].Href != "https://be.synxis.com/?chain=28120" {
		t.Errorf("href = %q", links[0].Href)
	}
	if links[0].DetectionMethod != models.MethodChainPattern {
		t.Errorf("method = %q", links[0].DetectionMethod)
	}

	if links := ChainPatternLinks("https://www.independent-hotel.com"); links != nil {
		t.Errorf("expected no links for unknown chain, got %v", links)
	}
}
