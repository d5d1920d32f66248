package discovery

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/use-agent/revscan/llm"
	"github.com/use-agent/revscan/models"
	"github.com/use-agent/revscan/search"
)

// Strategy is one tier of the discovery cascade.
type Strategy struct {
	Name string
	Find func(ctx context.Context) []models.BookingLink
}

// Finder owns the discovery cascade for one scanner instance.
type Finder struct {
	LLM    *llm.Client
	Search *search.Client
}

// FindBookingLinks runs the cascade, cheapest tier first, and returns the
// first tier's links. Order:
//
//	0. direct LLM query (1 call)
//	1. server-side scrape + LLM extraction
//	2. web search, LLM-disambiguated
//	3. brand site deep crawl (most expensive)
//	4. known chain patterns (free, generic)
//	5. in-page heuristics on the loaded homepage
//
// Tiers that lack credentials or inputs skip themselves. Tier failures
// never abort the cascade.
func (f *Finder) FindBookingLinks(ctx context.Context, page *rod.Page, websiteURL, hotelName, city string) []models.BookingLink {
	strategies := []Strategy{
		{Name: "ai_query", Find: func(ctx context.Context) []models.BookingLink {
			return AIQueryLinks(ctx, f.LLM, hotelName, city)
		}},
		{Name: "smart_scrape", Find: func(ctx context.Context) []models.BookingLink {
			if !f.LLM.Enabled() {
				return nil
			}
			return SmartScrapeLinks(ctx, f.LLM, websiteURL, f.scrapeMarkdown(ctx, websiteURL))
		}},
		{Name: "web_search", Find: func(ctx context.Context) []models.BookingLink {
			if hotelName == "" {
				return nil
			}
			return WebSearchLinks(ctx, f.Search, f.LLM, hotelName, websiteURL)
		}},
		{Name: "brand_crawl", Find: func(ctx context.Context) []models.BookingLink {
			if hotelName == "" {
				return nil
			}
			return BrandCrawlLinks(ctx, f.Search, f.LLM, hotelName, websiteURL)
		}},
		{Name: "chain_pattern", Find: func(ctx context.Context) []models.BookingLink {
			if hotelName == "" {
				return nil
			}
			return ChainPatternLinks(websiteURL)
		}},
		{Name: "in_page", Find: func(ctx context.Context) []models.BookingLink {
			if page == nil {
				return nil
			}
			return FindInPageLinks(page)
		}},
	}
	return runCascade(ctx, strategies, websiteURL)
}

// runCascade walks the tiers in order and short-circuits on the first one
// that yields links.
func runCascade(ctx context.Context, strategies []Strategy, websiteURL string) []models.BookingLink {
	for _, s := range strategies {
		if ctx.Err() != nil {
			return nil
		}
		links := s.Find(ctx)
		if len(links) > 0 {
			slog.Info("discovery tier succeeded",
				"tier", s.Name, "website", websiteURL, "links", len(links))
			return links
		}
		slog.Debug("discovery tier empty", "tier", s.Name, "website", websiteURL)
	}
	return nil
}
