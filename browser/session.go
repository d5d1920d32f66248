// Package browser owns the shared Chromium process and hands out isolated
// contexts with a realistic desktop fingerprint.
package browser

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
	"github.com/use-agent/revscan/config"
	"github.com/use-agent/revscan/models"
)

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Session manages the global browser lifecycle. One Session is shared by all
// concurrent scans; isolation happens at the context level.
type Session struct {
	browser *rod.Browser
}

// Open launches the browser. CSP enforcement and cross-origin isolation are
// disabled so third-party tracking resources are not silently blocked.
func Open(cfg config.BrowserConfig) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-web-security"))
	l.Set(flags.Flag("disable-features"), "IsolateOrigins,site-per-process,AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScanError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScanError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &Session{browser: b}, nil
}

// Close kills the browser process. Call exactly once on shutdown.
func (s *Session) Close() {
	slog.Info("browser session shutting down")
	s.browser.MustClose()
}

// NewContext returns an isolated incognito context (own cookie jar, own
// page set) for one scan.
func (s *Session) NewContext() (*Context, error) {
	b, err := s.browser.Incognito()
	if err != nil {
		return nil, models.NewScanError(models.ErrCodeBrowserCrash, "failed to create browser context", err)
	}
	return newContext(b), nil
}

func newContext(b *rod.Browser) *Context {
	ctx, cancel := context.WithCancel(context.Background())
	return &Context{browser: b.Context(ctx), ctx: ctx, cancel: cancel}
}

// Context is one scan's isolated browser context. It tracks every page it
// opened, including popups, so the most recent one can be inspected after
// click-driven navigation. Its lifetime is bounded by an internal context
// that Close cancels, which also ends any event subscriptions.
type Context struct {
	browser *rod.Browser
	ctx     context.Context
	cancel  context.CancelFunc

	mu    sync.Mutex
	pages []*rod.Page
}

// NewPage opens a page in the context with the fixed desktop fingerprint:
// 1280x800 viewport, Chrome UA, en-US locale, US Eastern timezone, plus the
// stealth script so vendor scripts don't suppress themselves for bots.
func (c *Context) NewPage() (*rod.Page, error) {
	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScanError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without it", "error", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1280,
		Height:            800,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("viewport override failed", "error", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      desktopUA,
		AcceptLanguage: "en-US,en",
	}); err != nil {
		slog.Warn("user-agent override failed", "error", err)
	}
	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
	})}).Call(page); err != nil {
		slog.Warn("extra headers override failed", "error", err)
	}
	_ = proto.EmulationSetTimezoneOverride{TimezoneID: "America/New_York"}.Call(page)

	c.track(page)
	return page, nil
}

// OnNewPage invokes fn for every page the context creates after this call,
// including popups opened by in-page clicks. The orchestrator uses this to
// attach the network monitor to secondary pages; without it their traffic
// would be silently lost. The subscription ends when the context is closed.
func (c *Context) OnNewPage(fn func(*rod.Page)) {
	go c.browser.EachEvent(func(e *proto.TargetTargetCreated) {
		if e.TargetInfo.Type != proto.TargetTargetInfoTypePage {
			return
		}
		if e.TargetInfo.BrowserContextID != c.browser.BrowserContextID {
			return
		}
		page, err := c.browser.PageFromTarget(e.TargetInfo.TargetID)
		if err != nil {
			slog.Debug("could not adopt new page", "error", err)
			return
		}
		if c.track(page) {
			fn(page)
		}
	})()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// track records a page, returning false if it was already known.
func (c *Context) track(page *rod.Page) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.pages {
		if p.TargetID == page.TargetID {
			return false
		}
	}
	c.pages = append(c.pages, page)
	return true
}

// ActivePage returns the most recently opened page, or fallback when the
// context never opened a second one.
func (c *Context) ActivePage(fallback *rod.Page) *rod.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pages) > 1 {
		return c.pages[len(c.pages)-1]
	}
	return fallback
}

// Cookies returns every cookie in the context.
func (c *Context) Cookies() ([]*proto.NetworkCookie, error) {
	return c.browser.GetCookies()
}

// PageCount reports how many pages the context opened.
func (c *Context) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// Close disposes the browser context and every page in it, then cancels
// the internal context so event subscriptions release their goroutines.
func (c *Context) Close() {
	defer c.cancel()
	if c.browser.BrowserContextID == "" {
		return
	}
	err := proto.TargetDisposeBrowserContext{
		BrowserContextID: c.browser.BrowserContextID,
	}.Call(c.browser)
	if err != nil {
		slog.Debug("context dispose failed", "error", err)
	}
}
