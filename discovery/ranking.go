package discovery

import (
	"sort"
	"strings"

	"github.com/use-agent/revscan/models"
)

// Base trust per discovery method. Links found by reading the live page
// outrank guesses; among guesses, the LLM tiers outrank pattern fallbacks.
var methodScores = map[string]int{
	models.MethodTextMatch:    100,
	models.MethodSmartLLM:     100,
	models.MethodAIQuery:      95,
	models.MethodWebSearch:    90,
	models.MethodBrandCrawl:   85,
	models.MethodChainPattern: 70,
	models.MethodHrefPattern:  50,
	models.MethodIframeSrc:    25,
	models.MethodLookup:       100,
}

// Score rates a single candidate link. Higher is better.
func Score(link models.BookingLink) int {
	score := methodScores[link.DetectionMethod]

	text := strings.ToLower(link.Text)
	switch {
	case strings.Contains(text, "book now"):
		score += 50
	case strings.Contains(text, "book") || strings.Contains(text, "reserve"):
		score += 30
	case strings.Contains(text, "check avail"):
		score += 20
	}

	if link.OpensIn == models.OpensNewTab {
		score += 10
	}
	if link.Href != "" {
		score += 10
	}
	return score
}

// Rank sorts candidates best first. The sort is stable, so equal scores
// keep discovery order and repeated runs pick the same link.
func Rank(links []models.BookingLink) []models.BookingLink {
	out := make([]models.BookingLink, len(links))
	copy(out, links)
	sort.SliceStable(out, func(i, j int) bool {
		return Score(out[i]) > Score(out[j])
	})
	return out
}
