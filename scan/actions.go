package scan

import (
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/revscan/browser"
	"github.com/use-agent/revscan/models"
	"github.com/use-agent/revscan/monitor"
)

// selectPropertyJS picks the first real option in a property or
// destination dropdown so multi-property booking forms can submit.
const selectPropertyJS = `(keywords) => {
	var selects = document.querySelectorAll('select');
	for (var i = 0; i < selects.length; i++) {
		var sel = selects[i];
		var idName = ((sel.id || '') + ' ' + (sel.name || '') + ' ' + (sel.className || '')).toLowerCase();
		var isProperty = keywords.some(function(k) { return idName.indexOf(k) !== -1; });
		if (!isProperty) continue;

		var options = sel.querySelectorAll('option');
		var nonEmpty = [];
		options.forEach(function(o) {
			if (o.value && o.value.trim()) nonEmpty.push(o.value);
		});
		if (nonEmpty.length < 2) continue;

		sel.value = nonEmpty[0];
		sel.dispatchEvent(new Event('change', {bubbles: true}));
		return nonEmpty[0];
	}
	return null;
}`

// formActionJS builds the submit URL from the first form that carries a
// check-in field. Constructing the GET URL ourselves beats clicking a
// submit button that may be wired to JS we cannot predict.
const formActionJS = `() => {
	var forms = document.querySelectorAll('form');
	for (var i = 0; i < forms.length; i++) {
		var f = forms[i];
		var data = {};
		new FormData(f).forEach(function(v, k) { data[k] = v; });
		var keys = Object.keys(data).join(' ').toLowerCase();
		if (keys.indexOf('arrive') !== -1 || keys.indexOf('checkin') !== -1 ||
			keys.indexOf('datein') !== -1 || keys.indexOf('check_in') !== -1) {
			if (f.action) {
				var url = new URL(f.action);
				Object.entries(data).forEach(function(pair) {
					url.searchParams.set(pair[0], pair[1]);
				});
				return url.toString();
			}
		}
	}
	return null;
}`

var dateInputSelectors = []string{
	`input[name="arrive"]`,
	`input[name="depart"]`,
	`input[name="checkin"]`,
	`input[name="checkout"]`,
	`input[name="datein"]`,
	`input[name="dateout"]`,
	`input[name="check_in"]`,
	`input[name="check_out"]`,
	`input[name="arrivalDate"]`,
	`input[name="departureDate"]`,
	`input[name="startDate"]`,
	`input[name="endDate"]`,
}

var arrivalKeys = []string{"arrive", "checkin", "check_in", "datein", "arrival", "start"}
var departureKeys = []string{"depart", "checkout", "check_out", "dateout", "departure", "end"}

// followBookingLink activates a booking link that has no usable href, or
// navigates directly when it does. Handles new tabs, iframes, and modal
// booking forms.
func (a *Analyzer) followBookingLink(page *rod.Page, bctx *browser.Context, mon *monitor.Monitor, link models.BookingLink) {
	if link.OpensIn == models.OpensIframe {
		// The engine is already embedded; give its traffic time to land.
		time.Sleep(3 * time.Second)
		return
	}

	if strings.HasPrefix(link.Href, "http") {
		if link.OpensIn == models.OpensNewTab {
			newPage, err := bctx.NewPage()
			if err != nil {
				return
			}
			mon.Attach(newPage)
			_ = rod.Try(func() {
				p := newPage.Timeout(a.Cfg.NavTimeout)
				p.MustNavigate(link.Href)
				p.MustWaitLoad()
			})
			time.Sleep(5 * time.Second)
			return
		}
		_ = rod.Try(func() {
			p := page.Timeout(a.Cfg.NavTimeout)
			p.MustNavigate(link.Href)
			p.MustWaitLoad()
		})
		time.Sleep(3 * time.Second)
		return
	}

	// No direct URL. The button likely opens a modal or triggers JS.
	urlBefore := pageURL(page)
	if err := clickBookingElement(page, link); err != nil {
		return
	}
	time.Sleep(2 * time.Second)

	if pageURL(page) != urlBefore {
		_ = rod.Try(func() {
			page.Timeout(15 * time.Second).MustWaitRequestIdle()()
		})
		return
	}

	if a.trySubmitModalForm(page, bctx, mon) {
		return
	}

	if link.OpensIn == models.OpensNewTab {
		// Click again and let the popup observer adopt whatever opens.
		before := bctx.PageCount()
		_ = clickBookingElement(page, link)
		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) {
			if bctx.PageCount() > before {
				time.Sleep(5 * time.Second)
				return
			}
			time.Sleep(250 * time.Millisecond)
		}
	}
}

// trySubmitModalForm fills dates into a modal booking form and submits it.
// Reports whether a submission happened.
func (a *Analyzer) trySubmitModalForm(page *rod.Page, bctx *browser.Context, mon *monitor.Monitor) bool {
	now := time.Now()
	checkin := now.AddDate(0, 0, 14).Format("2006-01-02")
	checkout := now.AddDate(0, 0, 15).Format("2006-01-02")

	selectFirstProperty(page)

	filled := false
	for _, selector := range dateInputSelectors {
		_ = rod.Try(func() {
			els := page.Timeout(time.Second).MustElements(selector)
			for _, el := range els {
				name := ""
				if attr, err := el.Attribute("name"); err == nil && attr != nil {
					name = strings.ToLower(*attr)
				}
				if matchesAny(name, arrivalKeys) {
					el.MustEval(`(val) => this.value = val`, checkin)
					filled = true
				} else if matchesAny(name, departureKeys) {
					el.MustEval(`(val) => this.value = val`, checkout)
					filled = true
				}
			}
		})
	}
	if !filled {
		return false
	}

	formURL := ""
	_ = rod.Try(func() {
		formURL = page.MustEval(formActionJS).Str()
	})
	if formURL != "" {
		formURL = InjectDates(formURL, now)
		newPage, err := bctx.NewPage()
		if err != nil {
			return false
		}
		mon.Attach(newPage)
		_ = rod.Try(func() {
			p := newPage.Timeout(a.Cfg.NavTimeout)
			p.MustNavigate(formURL)
			p.MustWaitLoad()
		})
		time.Sleep(5 * time.Second)
		return true
	}

	// Last resort: click a submit button and see what happens.
	submitProbes := []struct {
		selector string
		text     string
	}{
		{"button", `/book\s*now/i`},
		{"button", `/^\s*search\s*$/i`},
		{"button", `/check\s*availab/i`},
		{"button", `/find\s*rooms/i`},
		{`button[type="submit"]`, ""},
		{`input[type="submit"]`, ""},
	}
	urlBefore := pageURL(page)
	before := bctx.PageCount()
	for _, probe := range submitProbes {
		clicked := false
		_ = rod.Try(func() {
			p := page.Timeout(time.Second)
			var el *rod.Element
			if probe.text != "" {
				el = p.MustElementR(probe.selector, probe.text)
			} else {
				el = p.MustElement(probe.selector)
			}
			if vis, _ := el.Visible(); !vis {
				return
			}
			el.MustClick()
			clicked = true
		})
		if !clicked {
			continue
		}
		time.Sleep(3 * time.Second)
		if bctx.PageCount() > before {
			time.Sleep(5 * time.Second)
			return true
		}
		if pageURL(page) != urlBefore {
			_ = rod.Try(func() {
				page.Timeout(15 * time.Second).MustWaitLoad()
			})
			return true
		}
	}
	return false
}

// selectFirstProperty picks a property in a multi-hotel dropdown, if one
// exists.
func selectFirstProperty(page *rod.Page) {
	keywords := []string{"location", "hotel", "property", "destination", "resort"}
	selected := ""
	_ = rod.Try(func() {
		selected = page.MustEval(selectPropertyJS, keywords).Str()
	})
	if selected != "" {
		time.Sleep(time.Second)
	}
}

// clickBookingElement finds the discovered element again and clicks it.
func clickBookingElement(page *rod.Page, link models.BookingLink) error {
	if link.Href != "" && link.LinkType == "link" {
		err := rod.Try(func() {
			el := page.Timeout(3 * time.Second).MustElement(
				`a[href="` + strings.ReplaceAll(link.Href, `"`, `\"`) + `"]`)
			if vis, _ := el.Visible(); vis {
				el.MustClick()
			}
		})
		if err == nil {
			return nil
		}
	}

	tag := "a"
	if link.LinkType == "button" {
		tag = "button"
	}
	text := strings.TrimSpace(strings.SplitN(link.Text, "\n", 2)[0])
	pattern := "/" + regexEscape(text) + "/i"
	err := rod.Try(func() {
		page.Timeout(5 * time.Second).MustElementR(tag, pattern).MustClick()
	})
	if err != nil {
		err = rod.Try(func() {
			page.Timeout(5 * time.Second).MustElementR("*", pattern).MustClick()
		})
	}
	return err
}

// triggerRateSearch clicks the first visible search control on a booking
// engine page so the engine loads rates (and fires the pixel).
func triggerRateSearch(page *rod.Page) {
	probes := []struct {
		selector string
		text     string
	}{
		{"button", `/^\s*search\s*$/i`},
		{"button", `/check\s*availab/i`},
		{"button", `/find\s*rooms/i`},
		{"button", `/view\s*rates/i`},
		{"button", `/check\s*rates/i`},
		{"button", `/^\s*submit\s*$/i`},
		{"button", `/^\s*buscar\s*$/i`},
		{"button", `/^\s*suchen\s*$/i`},
		{"button", `/^\s*rechercher\s*$/i`},
		{`input[type="submit"]`, ""},
		{`button[type="submit"]`, ""},
		{"#submitButton", ""},
		{".search-button", ""},
		{".btn-search", ""},
	}
	for _, probe := range probes {
		clicked := false
		_ = rod.Try(func() {
			p := page.Timeout(time.Second)
			var el *rod.Element
			if probe.text != "" {
				el = p.MustElementR(probe.selector, probe.text)
			} else {
				el = p.MustElement(probe.selector)
			}
			if vis, _ := el.Visible(); !vis {
				return
			}
			el.MustClick()
			clicked = true
		})
		if clicked {
			time.Sleep(3 * time.Second)
			return
		}
	}
}

func matchesAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// regexEscape escapes regex metacharacters for js text matching.
func regexEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
