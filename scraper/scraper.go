package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/surfer/browser"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
)

// sessionOpener starts a browser at bin and returns its single page.
type sessionOpener func(ctx context.Context, bin string, cfg config.BrowserConfig) (pageSession, error)

// Scraper runs browse requests. Every run owns a fresh browser process and
// one page; nothing is shared between runs, so a Scraper is safe for
// concurrent use.
type Scraper struct {
	locator    *browser.Locator
	browserCfg config.BrowserConfig
	extract    *extractor
	capture    *capturer
	open       sessionOpener
}

// New builds a Scraper from cfg.
func New(cfg *config.Config) *Scraper {
	return &Scraper{
		locator: &browser.Locator{
			CacheRoot: cfg.Browser.CacheRoot,
			Override:  cfg.Browser.BrowserBin,
		},
		browserCfg: cfg.Browser,
		extract:    newExtractor(),
		capture: &capturer{
			dir:     cfg.Debug.Dir,
			timeout: cfg.Debug.CaptureTimeout,
			now:     time.Now,
		},
		open: openRodSession,
	}
}

// Locator exposes the browser locator (used by `surfer doctor`).
func (s *Scraper) Locator() *browser.Locator {
	return s.locator
}

// Browse performs one run for opts.
//
// Errors returned directly are pre-result failures (invalid URL, no
// browser): nothing was launched and nothing was written. Every later
// failure is recorded in the returned Result, after the session has been
// torn down.
func (s *Scraper) Browse(ctx context.Context, opts config.Options) (*models.Result, error) {
	target, err := NormalizeURL(opts.URL)
	if err != nil {
		return nil, err
	}

	bin, err := s.locator.Locate()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := slog.With("run", runID, "url", target)
	log.Debug("browser located", "bin", bin.Path, "platform", bin.Platform)

	start := time.Now()
	res := s.run(ctx, log, bin.Path, target, opts)
	log.Info("browse finished",
		"ok", res.OK(),
		"code", res.Code,
		"warnings", len(res.Warnings),
		"duration", time.Since(start),
	)
	return res, nil
}

// run drives the session from launch to teardown. Close is deferred right
// after a successful open so it runs on every path, including panics in
// extraction or capture.
func (s *Scraper) run(ctx context.Context, log *slog.Logger, bin, target string, opts config.Options) *models.Result {
	res := models.NewResult(target)

	sess, err := s.open(ctx, bin, s.browserCfg)
	if err != nil {
		log.Warn("session open failed", "error", err)
		res.Fail(err)
		return res
	}
	defer sess.Close()

	status, navErr := sess.Navigate(ctx, target, opts)
	res.Status = status
	doc := sess.Document()

	if navErr != nil {
		log.Warn("navigation failed", "error", navErr)
		res.Fail(navErr)
	} else {
		res.Title = readTitle(ctx, doc)
		text, err := s.extract.Extract(ctx, doc, target, opts)
		if err != nil {
			log.Warn("extraction failed", "error", err)
			res.Fail(err)
		} else {
			res.Succeed(text)
		}
	}

	// The page exists on both paths, so the artifacts help explain failures
	// too. A cancelled run still gets its capture window.
	s.capture.Capture(context.WithoutCancel(ctx), doc, res, opts.Screenshot, opts.FullPage)
	return res
}
