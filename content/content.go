// Package content turns fetched hotel pages into LLM-ready markdown.
// It backs the server-side discovery tier when no scrape API credential
// is configured.
package content

import (
	"bytes"
	"fmt"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// boilerplateSelectors name the elements stripped before conversion.
// Navigation stays in: booking links usually live in the header.
var boilerplateSelectors = []string{
	"script", "style", "noscript", "svg", "meta", "link", "template",
}

// newMarkdownConverter creates a reusable, goroutine-safe converter.
// The table plugin keeps rate tables readable for the model; minimal
// cell padding keeps the prompt small.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

var mdConverter = newMarkdownConverter()

// Markdown converts a full page to markdown with boilerplate stripped.
// Relative link targets are resolved against the source URL's domain.
func Markdown(rawHTML, sourceURL string) (string, error) {
	cleaned, err := stripBoilerplate(rawHTML)
	if err != nil {
		cleaned = rawHTML
	}
	md, err := mdConverter.ConvertString(cleaned, converter.WithDomain(domainOf(sourceURL)))
	if err != nil {
		return "", fmt.Errorf("content: convert markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// Compact produces a shorter page representation: the readability-extracted
// main content followed by every anchor on the page. The anchor list matters
// because readability drops navigation, which is where booking links live.
func Compact(rawHTML, sourceURL string) (string, error) {
	article, err := extractArticle(rawHTML, sourceURL)
	if err != nil {
		return "", err
	}

	md, err := mdConverter.ConvertString(article.Content, converter.WithDomain(domainOf(sourceURL)))
	if err != nil {
		return "", fmt.Errorf("content: convert markdown: %w", err)
	}

	var sb strings.Builder
	if article.Title != "" {
		sb.WriteString("# " + article.Title + "\n\n")
	}
	sb.WriteString(strings.TrimSpace(md))

	links := Links(rawHTML, sourceURL)
	if len(links) > 0 {
		sb.WriteString("\n\n## Links\n")
		for _, l := range links {
			sb.WriteString(fmt.Sprintf("- [%s](%s)\n", l.Text, l.Href))
		}
	}
	return sb.String(), nil
}

func extractArticle(rawHTML, sourceURL string) (readability.Article, error) {
	parsed, err := nurl.Parse(sourceURL)
	if err != nil {
		return readability.Article{}, fmt.Errorf("content: invalid source URL: %w", err)
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return readability.Article{}, fmt.Errorf("content: readability: %w", err)
	}
	return article, nil
}

// Link is one anchor found on a page.
type Link struct {
	Text string
	Href string
}

const maxLinks = 100

// Links extracts every usable anchor from the page, resolving relative
// hrefs against baseURL. Fragment-only and javascript: anchors are skipped.
func Links(rawHTML, baseURL string) []Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	base, _ := nurl.Parse(baseURL)

	seen := make(map[string]struct{})
	var links []Link
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(strings.ToLower(href), "javascript:") ||
			strings.HasPrefix(strings.ToLower(href), "mailto:") ||
			strings.HasPrefix(strings.ToLower(href), "tel:") {
			return true
		}
		if base != nil {
			if ref, err := nurl.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		if _, dup := seen[href]; dup {
			return true
		}
		seen[href] = struct{}{}

		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			text = "(no text)"
		}
		links = append(links, Link{Text: text, Href: href})
		return len(links) < maxLinks
	})
	return links
}

// stripBoilerplate removes non-content elements from the HTML tree.
func stripBoilerplate(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}
	for _, selector := range boilerplateSelectors {
		sel, err := cascadia.Parse(selector)
		if err != nil {
			continue
		}
		for _, node := range cascadia.QueryAll(doc, sel) {
			if node.Parent != nil {
				node.Parent.RemoveChild(node)
			}
		}
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func domainOf(sourceURL string) string {
	parsed, err := nurl.Parse(sourceURL)
	if err != nil || parsed.Host == "" {
		return sourceURL
	}
	return parsed.Scheme + "://" + parsed.Host
}
