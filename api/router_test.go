package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/surfer/api/handler"
	"github.com/use-agent/surfer/browser"
	"github.com/use-agent/surfer/cache"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
)

// fakeBrowser returns canned results and records the options it saw.
type fakeBrowser struct {
	mu    sync.Mutex
	calls []config.Options
	res   func(opts config.Options) (*models.Result, error)
}

func (f *fakeBrowser) Browse(_ context.Context, opts config.Options) (*models.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	return f.res(opts)
}

func okBrowser() *fakeBrowser {
	return &fakeBrowser{res: func(opts config.Options) (*models.Result, error) {
		res := models.NewResult(opts.URL)
		res.Title = models.StringPtr("Example")
		res.Status = models.IntPtr(200)
		res.Succeed("hello world from the page")
		return res, nil
	}}
}

type testServer struct {
	router  http.Handler
	browser *fakeBrowser
	cache   *cache.Cache
}

func newTestServer(t *testing.T, b *fakeBrowser, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Defaults()
	cfg.Server.Mode = "test"
	cfg.Auth.APIKeys = []string{"secret"}
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	if mutate != nil {
		mutate(cfg)
	}

	bin := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(bin, nil, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cc := cache.New(10)
	t.Cleanup(cc.Close)

	r := NewRouter(ctx, cfg, Deps{
		Browser: b,
		Locator: &browser.Locator{Override: bin},
		Cache:   cc,
		Gate:    handler.NewRunGate(cfg.Server.MaxConcurrent),
		Started: time.Now(),
	})
	return &testServer{router: r, browser: b, cache: cc}
}

func (s *testServer) post(t *testing.T, body string, key string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/browse", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, okBrowser(), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "healthy", got.Status)
	assert.NotEmpty(t, got.BrowserBin)
	assert.Equal(t, 2, got.MaxRuns)
}

func TestBrowse_Success(t *testing.T) {
	s := newTestServer(t, okBrowser(), nil)
	w, out := s.post(t, `{"url": "example.com", "max_chars": 100, "format": "markdown"}`, "secret")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com/", out["url"])
	assert.Equal(t, "hello world from the page", out["text"])
	assert.Nil(t, out["error"])
	assert.Greater(t, out["tokens"], float64(0))

	require.Len(t, s.browser.calls, 1)
	opts := s.browser.calls[0]
	assert.Equal(t, "https://example.com/", opts.URL)
	assert.Equal(t, 100, opts.MaxChars)
	assert.Equal(t, config.FormatMarkdown, opts.Format)
	assert.Equal(t, config.DefaultTimeout, opts.Timeout)
}

func TestBrowse_Auth(t *testing.T) {
	s := newTestServer(t, okBrowser(), nil)

	w, out := s.post(t, `{"url": "example.com"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, models.ErrCodeUnauthorized, out["detail"].(map[string]interface{})["code"])

	w, _ = s.post(t, `{"url": "example.com"}`, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, s.browser.calls)
}

func TestBrowse_BadInput(t *testing.T) {
	s := newTestServer(t, okBrowser(), nil)

	for _, body := range []string{
		`{}`,
		`{"url": "ftp://example.com"}`,
		`{"url": "example.com", "format": "pdf"}`,
		`{"url": "example.com", "selector": "div[[", "format": "markdown"}`,
		`not json`,
	} {
		w, out := s.post(t, body, "secret")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.NotNil(t, out["detail"], body)
	}
	assert.Empty(t, s.browser.calls)
}

func TestBrowse_RunErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err    *models.ScrapeError
		status int
	}{
		{models.NewScrapeError(models.ErrCodeTimeout, "navigation timed out", nil), http.StatusGatewayTimeout},
		{models.NewScrapeError(models.ErrCodeNavigation, "navigation to target URL failed", nil), http.StatusBadGateway},
		{models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to launch browser", nil), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		b := &fakeBrowser{res: func(opts config.Options) (*models.Result, error) {
			res := models.NewResult(opts.URL)
			res.Fail(tc.err)
			return res, nil
		}}
		s := newTestServer(t, b, nil)
		w, out := s.post(t, `{"url": "example.com"}`, "secret")

		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.err.Message, out["error"])
		assert.Nil(t, out["text"])
		assert.Equal(t, tc.err.Code, out["detail"].(map[string]interface{})["code"])
	}
}

func TestBrowse_PreRunError(t *testing.T) {
	b := &fakeBrowser{res: func(config.Options) (*models.Result, error) {
		return nil, models.NewScrapeError(models.ErrCodeBrowserNotFound, "chromium not found", nil)
	}}
	s := newTestServer(t, b, nil)
	w, out := s.post(t, `{"url": "example.com"}`, "secret")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.ErrCodeBrowserNotFound, out["detail"].(map[string]interface{})["code"])
}

func TestBrowse_Cache(t *testing.T) {
	s := newTestServer(t, okBrowser(), nil)

	_, first := s.post(t, `{"url": "example.com", "max_age_ms": 60000}`, "secret")
	assert.Equal(t, "miss", first["cache_status"])

	w, second := s.post(t, `{"url": "https://EXAMPLE.com", "max_age_ms": 60000}`, "secret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hit", second["cache_status"])
	assert.Equal(t, first["text"], second["text"])
	assert.Len(t, s.browser.calls, 1)

	// Without max_age_ms the cache is bypassed.
	_, third := s.post(t, `{"url": "example.com"}`, "secret")
	assert.Nil(t, third["cache_status"])
	assert.Len(t, s.browser.calls, 2)
}

func TestBrowse_TextSelectorGoesToTheBrowser(t *testing.T) {
	s := newTestServer(t, okBrowser(), nil)

	w, _ := s.post(t, `{"url": "example.com", "selector": ":is(h1, h2)"}`, "secret")
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.browser.calls, 1)
	assert.Equal(t, ":is(h1, h2)", s.browser.calls[0].Selector)

	// cascadia cannot check it for the snapshot formats either, so those reject it.
	w, _ = s.post(t, `{"url": "example.com", "selector": ":is(h1, h2)", "format": "article"}`, "secret")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, s.browser.calls, 1)
}

func TestBrowse_ScreenshotBypassesCache(t *testing.T) {
	s := newTestServer(t, okBrowser(), nil)

	s.post(t, `{"url": "example.com", "max_age_ms": 60000}`, "secret")
	require.Len(t, s.browser.calls, 1)

	for _, body := range []string{
		`{"url": "example.com", "max_age_ms": 60000, "screenshot": true}`,
		`{"url": "example.com", "max_age_ms": 60000, "full_page": true}`,
	} {
		_, out := s.post(t, body, "secret")
		assert.Nil(t, out["cache_status"], body)
	}
	assert.Len(t, s.browser.calls, 3)
	assert.Equal(t, 1, s.cache.Len())
}

func TestBrowse_FailuresAreNotCached(t *testing.T) {
	b := &fakeBrowser{res: func(opts config.Options) (*models.Result, error) {
		res := models.NewResult(opts.URL)
		res.Fail(models.NewScrapeError(models.ErrCodeNavigation, "boom", nil))
		return res, nil
	}}
	s := newTestServer(t, b, nil)

	s.post(t, `{"url": "example.com", "max_age_ms": 60000}`, "secret")
	s.post(t, `{"url": "example.com", "max_age_ms": 60000}`, "secret")
	assert.Len(t, b.calls, 2)
	assert.Zero(t, s.cache.Len())
}

func TestBrowse_RateLimited(t *testing.T) {
	s := newTestServer(t, okBrowser(), func(cfg *config.Config) {
		cfg.RateLimit.RequestsPerSecond = 0.001
		cfg.RateLimit.Burst = 1
	})

	w, _ := s.post(t, `{"url": "example.com"}`, "secret")
	assert.Equal(t, http.StatusOK, w.Code)
	w, out := s.post(t, `{"url": "example.com"}`, "secret")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, models.ErrCodeRateLimited, out["detail"].(map[string]interface{})["code"])
}

func TestBrowse_AuthDisabled(t *testing.T) {
	s := newTestServer(t, okBrowser(), func(cfg *config.Config) { cfg.Auth.Enabled = false })
	w, _ := s.post(t, `{"url": "example.com"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunGate(t *testing.T) {
	g := handler.NewRunGate(1)
	require.NoError(t, g.Acquire(context.Background()))
	assert.Equal(t, 1, g.Active())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Acquire(ctx), context.DeadlineExceeded)

	g.Release()
	assert.Equal(t, 0, g.Active())
	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
}
