package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/surfer/cache"
	"github.com/use-agent/surfer/cleaner"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
	"github.com/use-agent/surfer/scraper"
)

// Browser runs one browse. *scraper.Scraper implements it.
type Browser interface {
	Browse(ctx context.Context, opts config.Options) (*models.Result, error)
}

// Browse returns a handler for POST /api/v1/browse.
//
// Orchestration flow:
//  1. Parse & validate request, resolve options like the CLI does.
//  2. Cache lookup (only when max_age_ms > 0).
//  3. Wait for a run slot, then Browser.Browse.
//  4. Map the Result to an HTTP status, store successes in the cache.
func Browse(b Browser, gate *RunGate, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.BrowseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondDetail(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), nil), start)
			return
		}
		opts, err := config.ResolveOptions(toRawOptions(req))
		if err != nil {
			respondDetail(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err), start)
			return
		}
		target, err := scraper.NormalizeURL(opts.URL)
		if err != nil {
			respondDetail(c, err, start)
			return
		}
		// Text format hands the selector to the browser, which accepts more
		// than cascadia does; only the snapshot formats can be checked here.
		if opts.Selector != "" && opts.Format != config.FormatText {
			if err := cleaner.ValidateSelector(opts.Selector); err != nil {
				respondDetail(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err), start)
				return
			}
		}
		opts.URL = target

		// ── 2. Cache lookup ────────────────────────────────────────
		// Screenshot runs always go to the browser: a cached response would
		// point at another run's file or at none.
		useCache := cc != nil && req.MaxAgeMs > 0 && !opts.Screenshot
		cacheKey := cache.Key(target, opts.Selector, opts.Format, opts.MaxChars)
		if useCache {
			if cached, hit := cc.Get(cacheKey, req.MaxAgeMs); hit {
				cached.CacheStatus = "hit"
				cached.DurationMs = time.Since(start).Milliseconds()
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		// ── 3. Run ─────────────────────────────────────────────────
		if err := gate.Acquire(c.Request.Context()); err != nil {
			respondDetail(c, models.NewScrapeError(models.ErrCodeTimeout, "request canceled while waiting for a browser slot", err), start)
			return
		}
		res, err := b.Browse(c.Request.Context(), opts)
		gate.Release()
		if err != nil {
			respondDetail(c, err, start)
			return
		}

		// ── 4. Respond ─────────────────────────────────────────────
		resp := models.BrowseResponse{
			Result:   *res,
			Warnings: res.Warnings,
		}
		if res.Text != nil {
			resp.Tokens = cleaner.EstimateTokens(*res.Text)
		}
		status := http.StatusOK
		if !res.OK() {
			status = StatusFor(res.Code)
			resp.Detail = &models.ErrorDetail{Code: res.Code, Message: *res.Error}
		} else if useCache {
			cc.Set(cacheKey, resp)
			resp.CacheStatus = "miss"
		}
		resp.DurationMs = time.Since(start).Milliseconds()

		slog.Info("browse served",
			"url", target,
			"status", status,
			"cache", resp.CacheStatus,
			"durationMs", resp.DurationMs,
		)
		c.JSON(status, resp)
	}
}

// toRawOptions feeds the request through the same lenient resolution as
// CLI flags; zero values fall back to defaults.
func toRawOptions(req models.BrowseRequest) config.RawOptions {
	return config.RawOptions{
		URL:        req.URL,
		Timeout:    strconv.Itoa(req.TimeoutMs),
		Wait:       strconv.Itoa(req.WaitMs),
		MaxChars:   strconv.Itoa(req.MaxChars),
		Screenshot: req.Screenshot,
		FullPage:   req.FullPage,
		JSON:       true,
		Selector:   req.Selector,
		Format:     req.Format,
	}
}

// respondDetail writes a request-level failure: no run Result exists.
func respondDetail(c *gin.Context, err error, start time.Time) {
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		se = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(StatusFor(se.Code), models.BrowseResponse{
		Detail:     se.ToDetail(),
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// StatusFor translates error codes to HTTP status codes.
func StatusFor(code string) int {
	switch code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeExtraction:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput, models.ErrCodeInvalidURL:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeBrowserNotFound, models.ErrCodeBrowserLaunch:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
