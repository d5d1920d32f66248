// Package detect turns captured traffic, DOM state, and cookies into
// product detections. The browser does the driving elsewhere; this package
// only reads what the scan already gathered.
package detect

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// gameChangerDOMJS sweeps window keys, script sources, meta tags, and the
// document title for vendor signals in one evaluation.
const gameChangerDOMJS = `() => {
	const signals = [];
	for (const key of Object.keys(window)) {
		const lower = key.toLowerCase();
		if (lower.includes('duetto') || lower.includes('gamechanger')) {
			signals.push('window.' + key);
		}
	}
	document.querySelectorAll('script[src]').forEach(s => {
		if (s.src.toLowerCase().includes('duetto')) {
			signals.push('script: ' + s.src);
		}
	});
	document.querySelectorAll('meta').forEach(m => {
		const content = (m.content || '').toLowerCase();
		const name = (m.name || '').toLowerCase();
		if (content.includes('duetto') || name.includes('duetto') ||
			content.includes('gamechanger') || name.includes('gamechanger')) {
			signals.push('meta[' + m.name + ']: ' + m.content);
		}
	});
	if (document.title.toLowerCase().includes('gamechanger')) {
		signals.push('title: ' + document.title);
	}
	return signals;
}`

// sourceCheckJS digs through app state, inline scripts, and meta CSP tags
// for vendor references that never produce network traffic. Snippets carry
// surrounding context so the result doubles as proof.
const sourceCheckJS = `() => {
	var evidence = [];
	var patterns = ["duettoresearch", "duettocloud"];

	if (window.__INITIAL_STATE__) {
		var stateStr = JSON.stringify(window.__INITIAL_STATE__);
		var lower = stateStr.toLowerCase();
		for (var p = 0; p < patterns.length; p++) {
			var idx = lower.indexOf(patterns[p]);
			var found = 0;
			while (idx !== -1 && found < 3) {
				var start = Math.max(0, idx - 50);
				var end = Math.min(stateStr.length, idx + patterns[p].length + 50);
				evidence.push("__INITIAL_STATE__: ..." + stateStr.substring(start, end) + "...");
				found++;
				idx = lower.indexOf(patterns[p], idx + 1);
			}
		}
	}

	var scripts = document.querySelectorAll("script:not([src])");
	for (var i = 0; i < scripts.length; i++) {
		var text = scripts[i].textContent || "";
		var textLower = text.toLowerCase();
		for (var p2 = 0; p2 < patterns.length; p2++) {
			var idx2 = textLower.indexOf(patterns[p2]);
			if (idx2 !== -1) {
				var start2 = Math.max(0, idx2 - 80);
				var end2 = Math.min(text.length, idx2 + patterns[p2].length + 80);
				evidence.push("inline_script: ..." + text.substring(start2, end2).trim() + "...");
			}
		}
	}

	var metas = document.querySelectorAll("meta[http-equiv]");
	for (var j = 0; j < metas.length; j++) {
		var content = metas[j].content || "";
		if (content.toLowerCase().indexOf("duettoresearch") !== -1) {
			var snippet = content.length > 500 ? content.substring(0, 500) + "..." : content;
			evidence.push("meta_csp: " + snippet);
		}
	}

	return evidence;
}`

// GameChangerDOM inspects the live page for embedded booking-engine
// signals. Cookies come from the scan's browser context.
func GameChangerDOM(page *rod.Page, cookies []*proto.NetworkCookie) []string {
	var evidence []string
	_ = rod.Try(func() {
		res := page.MustEval(gameChangerDOMJS)
		for _, item := range res.Arr() {
			evidence = append(evidence, item.Str())
		}
	})
	evidence = append(evidence, vendorCookieEvidence(cookies)...)
	return evidence
}

// DuettoInSource checks the page source and client-side app state for
// vendor references.
func DuettoInSource(page *rod.Page) []string {
	var evidence []string
	_ = rod.Try(func() {
		res := page.MustEval(sourceCheckJS)
		for _, item := range res.Arr() {
			evidence = append(evidence, item.Str())
		}
	})
	return evidence
}

func vendorCookieEvidence(cookies []*proto.NetworkCookie) []string {
	var evidence []string
	for _, c := range cookies {
		if c == nil {
			continue
		}
		name := strings.ToLower(c.Name)
		domain := strings.ToLower(c.Domain)
		if strings.Contains(name, "duetto") || strings.Contains(domain, "duetto") {
			evidence = append(evidence, fmt.Sprintf("cookie: %s (domain: %s)", c.Name, c.Domain))
		}
	}
	return evidence
}
