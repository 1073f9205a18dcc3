package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
	"github.com/ysmood/gson"
)

// webdriverPatch makes navigator.webdriver read false in every frame.
const webdriverPatch = `Object.defineProperty(navigator, 'webdriver', { get: () => false });`

// pageSession is one isolated browser context with a single page.
type pageSession interface {
	// Navigate loads target and waits for it to settle. The returned
	// status may be set even when err is not nil.
	Navigate(ctx context.Context, target string, opts config.Options) (*int, error)

	// Document exposes the loaded page for extraction and capture.
	Document() document

	// Close releases the context, the browser and its process. Safe to
	// call more than once.
	Close()
}

// rodSession is the go-rod implementation of pageSession.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	incog    *rod.Browser
	page     *rod.Page
	closed   bool
}

// openRodSession launches Chromium at bin with stealth flags and prepares
// one incognito page.
//
// The rod browser is created without the run context so that Close still
// works after the run's deadline has passed; per-operation contexts are
// bound with page.Context instead.
func openRodSession(ctx context.Context, bin string, cfg config.BrowserConfig) (pageSession, error) {
	l := launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.NoSandbox {
		l.Set(flags.Flag("disable-setuid-sandbox"))
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), cfg.Locale)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "bin", bin, "controlURL", controlURL)

	s := &rodSession{launcher: l}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to connect to browser", err)
	}
	s.browser = browser

	incog, err := browser.Incognito()
	if err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to create browser context", err)
	}
	s.incog = incog

	page, err := incog.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to create page", err)
	}
	s.page = page

	if err := s.disguise(cfg); err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to prepare page", err)
	}
	return s, nil
}

// disguise applies viewport, user agent, locale and the evasion patch.
// Everything here must happen before the first navigation.
func (s *rodSession) disguise(cfg config.BrowserConfig) error {
	if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return err
	}

	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: acceptLanguage(cfg.Locale),
	}); err != nil {
		return err
	}

	if err := (proto.EmulationSetLocaleOverride{Locale: cfg.Locale}).Call(s.page); err != nil {
		slog.Debug("locale override rejected", "locale", cfg.Locale, "error", err)
	}

	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": acceptLanguage(cfg.Locale)}),
	}).Call(s.page); err != nil {
		return err
	}

	if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
		return err
	}
	_, err := s.page.EvalOnNewDocument(webdriverPatch)
	return err
}

func (s *rodSession) Document() document {
	return rodDocument{page: s.page}
}

// Close tears down the context, then the browser, then the process.
func (s *rodSession) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.incog != nil {
		if err := s.incog.Close(); err != nil {
			slog.Debug("close browser context", "error", err)
		}
	}

	killed := false
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			slog.Warn("close browser failed, killing process", "error", err)
			s.launcher.Kill()
			killed = true
		}
	} else {
		s.launcher.Kill()
		killed = true
	}

	// Cleanup waits for the process to exit and removes its profile dir.
	s.launcher.Cleanup()
	slog.Debug("browser session closed", "killed", killed)
}

// acceptLanguage turns "en-US" into "en-US,en;q=0.9".
func acceptLanguage(locale string) string {
	if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
		return locale + "," + base + ";q=0.9"
	}
	return locale
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
