// Package consent dismisses cookie and privacy banners so they cannot
// intercept clicks or suppress tracking scripts during a scan.
package consent

import (
	"log/slog"
	"time"

	"github.com/go-rod/rod"
)

// probe is one attempt at finding the accept control. CMP-specific
// selectors come first because they are unambiguous; localized text
// matching is the fallback.
type probe struct {
	selector string
	text     string // case-insensitive regex matched against element text
}

// Ordered candidates. Text probes cover English, German, French and
// Spanish, which covers the hotel markets the scanner targets.
var probes = []probe{
	// CMP vendors
	{selector: "#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll"},
	{selector: "#CybotCookiebotDialogBodyButtonAccept"},
	{selector: "#onetrust-accept-btn-handler"},
	{selector: ".qc-cmp2-summary-buttons button[mode=primary]"},
	{selector: "#truste-consent-button"},
	{selector: "#didomi-notice-agree-button"},
	{selector: ".cmplz-accept"},
	{selector: ".iubenda-cs-accept-btn"},
	{selector: "#uc-btn-accept-banner"},
	{selector: "button#uc-accept-all-button"},
	{selector: ".cc-allow"},
	{selector: ".cc-accept-all"},
	{selector: "#cookie-accept-all"},
	{selector: "#acceptAllCookies"},
	{selector: "button[data-cookiebanner=accept_button]"},
	{selector: "button[aria-label='Accept all']"},
	{selector: "button[aria-label='Accept All Cookies']"},

	// English
	{selector: "button, a, [role=button]", text: `/^\s*accept all( cookies)?\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*accept( cookies)?\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*allow all\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*i agree\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*agree( & close)?\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*got it\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*ok(ay)?\s*$/i`},

	// German
	{selector: "button, a, [role=button]", text: `/^\s*alle akzeptieren\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*akzeptieren\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*alle cookies akzeptieren\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*zustimmen\s*$/i`},

	// French
	{selector: "button, a, [role=button]", text: `/^\s*tout accepter\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*accepter( les cookies)?\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*j'accepte\s*$/i`},

	// Spanish
	{selector: "button, a, [role=button]", text: `/^\s*aceptar todo\s*$/i`},
	{selector: "button, a, [role=button]", text: `/^\s*aceptar( cookies)?\s*$/i`},
}

// Dismiss tries each probe in order and clicks the first visible match.
// It never returns an error: a banner that cannot be dismissed is a
// degraded scan, not a failed one. Reports whether a banner was clicked.
func Dismiss(page *rod.Page, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for _, p := range probes {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		// Short per-probe budget so one slow selector cannot eat the
		// whole window.
		budget := 300 * time.Millisecond
		if budget > remaining {
			budget = remaining
		}
		clicked := false
		err := rod.Try(func() {
			pp := page.Timeout(budget)
			var el *rod.Element
			if p.text != "" {
				el = pp.MustElementR(p.selector, p.text)
			} else {
				el = pp.MustElement(p.selector)
			}
			if vis, _ := el.Visible(); !vis {
				return
			}
			el.MustClick()
			clicked = true
		})
		if err == nil && clicked {
			slog.Debug("consent banner dismissed", "selector", p.selector, "text", p.text)
			// Let the banner animate out before the caller interacts.
			time.Sleep(500 * time.Millisecond)
			return true
		}
	}
	return false
}
