package discovery

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/revscan/models"
)

// chainInfo describes a major chain's centralized booking entry point.
type chainInfo struct {
	Provider    string
	URLTemplate string
	SearchHint  string // {hotel_name} placeholder
}

// Chain sites share one reservation system across every property, so a
// domain match alone is enough to name the funnel entry point.
var chainBookingPatterns = map[string]chainInfo{
	"hardrock.com": {
		Provider:    "SynXis",
		URLTemplate: "https://be.synxis.com/?chain=28120",
		SearchHint:  "{hotel_name} Hard Rock Hotel book room synxis",
	},
	"marriott.com": {
		Provider:    "Marriott IBE",
		URLTemplate: "https://www.marriott.com/reservation/rateListMenu.mi",
		SearchHint:  "{hotel_name} marriott book room reservation",
	},
	"hilton.com": {
		Provider:    "Hilton IBE",
		URLTemplate: "https://www.hilton.com/en/book/reservation/rooms/",
		SearchHint:  "{hotel_name} hilton book room reservation",
	},
	"ihg.com": {
		Provider:    "IHG IBE",
		URLTemplate: "https://www.ihg.com/redirect",
		SearchHint:  "{hotel_name} IHG book room reservation",
	},
	"hyatt.com": {
		Provider:    "Hyatt IBE",
		URLTemplate: "https://www.hyatt.com/shop/rooms/",
		SearchHint:  "{hotel_name} hyatt book room reservation",
	},
	"accor.com": {
		Provider:    "Accor IBE",
		URLTemplate: "https://all.accor.com/",
		SearchHint:  "{hotel_name} accor book room reservation",
	},
	"wyndhamhotels.com": {
		Provider:    "Wyndham IBE",
		URLTemplate: "https://www.wyndhamhotels.com/",
		SearchHint:  "{hotel_name} wyndham book room reservation",
	},
	"choicehotels.com": {
		Provider:    "Choice IBE",
		URLTemplate: "https://www.choicehotels.com/",
		SearchHint:  "{hotel_name} choice hotels book room reservation",
	},
	"radissonhotels.com": {
		Provider:    "Radisson IBE",
		URLTemplate: "https://www.radissonhotels.com/",
		SearchHint:  "{hotel_name} radisson book room reservation",
	},
	"bestwestern.com": {
		Provider:    "Best Western IBE",
		URLTemplate: "https://www.bestwestern.com/",
		SearchHint:  "{hotel_name} best western book room reservation",
	},
}

// ChainLookup returns chain booking info for the hotel's website, if the
// site belongs to a known chain.
func ChainLookup(websiteURL string) (chainInfo, bool) {
	info, ok := chainBookingPatterns[ExtractBaseDomain(websiteURL)]
	return info, ok
}

// ChainSearchHint returns a targeted web-search query for the chain, or
// "" when the site is not a known chain.
func ChainSearchHint(websiteURL, hotelName string) string {
	info, ok := ChainLookup(websiteURL)
	if !ok {
		return ""
	}
	return strings.ReplaceAll(info.SearchHint, "{hotel_name}", hotelName)
}

// ChainPatternLinks resolves booking links from the chain registry alone.
// Free and instant, no network calls.
func ChainPatternLinks(websiteURL string) []models.BookingLink {
	info, ok := ChainLookup(websiteURL)
	if !ok {
		slog.Info("chain pattern: no match", "website", websiteURL)
		return nil
	}
	slog.Info("chain pattern matched",
		"website", websiteURL, "provider", info.Provider, "url", info.URLTemplate)
	return []models.BookingLink{{
		Text:            fmt.Sprintf("Book Now (%s)", info.Provider),
		Href:            info.URLTemplate,
		LinkType:        "link",
		DetectionMethod: models.MethodChainPattern,
		OpensIn:         models.OpensNewTab,
	}}
}
