package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
)

const (
	// idleWindow is how long the network must stay quiet to count as idle.
	idleWindow = 500 * time.Millisecond

	// lazyLoadPause follows the scroll-to-bottom.
	lazyLoadPause = 500 * time.Millisecond
)

// idleExcluded resource types never hold up the network-quiet detector.
var idleExcluded = []proto.NetworkResourceType{
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeMedia,
	proto.NetworkResourceTypeFont,
}

const navigationStatusJS = `() => {
	try {
		const entries = performance.getEntriesByType("navigation");
		if (entries.length > 0) return entries[0].responseStatus || 0;
	} catch (e) {}
	return 0;
}`

const scrollToBottomJS = `() => window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`

// Navigate implements pageSession.
//
// Order matters:
//  1. The idle listener is registered before Navigate so it sees every
//     request the load triggers.
//  2. Navigate + DOMContentLoaded run under opts.Timeout. Exceeding it
//     fails the run but leaves the browser for normal teardown.
//  3. Readiness: network-quiet races a fixed opts.Wait timer.
//  4. One scroll to the bottom and a short pause for lazy content.
func (s *rodSession) Navigate(ctx context.Context, target string, opts config.Options) (*int, error) {
	// ── 1. Idle listener ────────────────────────────────────────────
	idleCtx, cancelIdle := context.WithCancel(ctx)
	defer cancelIdle()
	waitIdle := s.page.Context(idleCtx).WaitRequestIdle(idleWindow, nil, nil, idleExcluded)

	// ── 2. Navigate under the caller's timeout ──────────────────────
	navCtx, cancelNav := context.WithTimeout(ctx, opts.Timeout)
	defer cancelNav()
	nav := s.page.Context(navCtx)

	waitDOM := nav.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := nav.Navigate(target); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	waitDOM()
	if err := navCtx.Err(); err != nil {
		return nil, categorizeError(err, "page did not finish loading")
	}

	doc := s.Document()
	var status *int
	if v, err := doc.Eval(ctx, navigationStatusJS); err == nil && v.Int() > 0 {
		status = models.IntPtr(v.Int())
	}

	// ── 3. Network quiet vs fixed wait ──────────────────────────────
	idleWon := settleFirst(ctx, opts.Wait, waitIdle)
	cancelIdle()
	slog.Debug("page settled", "url", target, "networkIdle", idleWon)

	// ── 4. Lazy-load trigger ────────────────────────────────────────
	if _, err := doc.Eval(ctx, scrollToBottomJS); err != nil {
		slog.Debug("scroll to bottom failed", "url", target, "error", err)
	}
	if err := pause(ctx, lazyLoadPause); err != nil {
		return status, categorizeError(err, "run canceled")
	}
	return status, nil
}

// pause sleeps for d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// tell timeouts from other navigation failures.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, "navigation timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
