package discovery

import (
	"context"
	"log/slog"

	"github.com/use-agent/revscan/content"
	"github.com/use-agent/revscan/fetch"
)

// scrapeMarkdown renders the hotel website as markdown for the LLM. The
// scrape API does the rendering when a credential is configured; otherwise
// the page is fetched directly with a Chrome TLS fingerprint and converted
// locally. JS-shell pages are skipped in the local path since their HTML
// carries no links worth reading.
func (f *Finder) scrapeMarkdown(ctx context.Context, websiteURL string) string {
	if f.Search.Enabled() {
		markdown, err := f.Search.Scrape(ctx, websiteURL)
		if err != nil {
			slog.Warn("smart scrape failed", "url", websiteURL, "error", err)
			return ""
		}
		return markdown
	}

	page, err := fetch.Fetch(ctx, websiteURL)
	if err != nil {
		slog.Warn("direct fetch failed", "url", websiteURL, "error", err)
		return ""
	}
	if fetch.NeedsBrowser(page.Body) {
		slog.Info("direct fetch got a JS shell, skipping", "url", websiteURL)
		return ""
	}

	markdown, err := content.Markdown(string(page.Body), page.FinalURL)
	if err != nil {
		slog.Warn("markdown conversion failed", "url", websiteURL, "error", err)
		return ""
	}
	// Oversized pages get the compact form: main content plus the full
	// link list, which survives prompt truncation better.
	if len(markdown) > maxMarkdownChars {
		if compact, err := content.Compact(string(page.Body), page.FinalURL); err == nil && len(compact) < len(markdown) {
			markdown = compact
		}
	}
	return markdown
}
