package scraper

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/use-agent/surfer/models"
)

const (
	// SnapshotName is the HTML dump, overwritten on every run.
	SnapshotName = "browse-latest.html"

	screenshotPrefix = "browse-"
	screenshotLayout = "2006-01-02T15-04-05.000"
)

// capturer writes debug artifacts for a finished page. Failures are
// recorded as Result warnings and never change the run's outcome.
type capturer struct {
	dir     string
	timeout time.Duration
	now     func() time.Time
}

// Capture takes the screenshot (when requested) and the HTML snapshot.
func (c *capturer) Capture(ctx context.Context, doc document, res *models.Result, screenshot, fullPage bool) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.warn(res, "create debug dir", err)
		return
	}

	if screenshot {
		path, err := c.screenshot(ctx, doc, fullPage)
		if err != nil {
			c.warn(res, "screenshot", err)
		} else {
			res.Screenshot = models.StringPtr(path)
		}
	}

	if err := c.snapshot(ctx, doc); err != nil {
		c.warn(res, "html snapshot", err)
	}
}

func (c *capturer) screenshot(ctx context.Context, doc document, fullPage bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	img, err := doc.Screenshot(ctx, fullPage)
	if err != nil {
		return "", err
	}
	return writeExclusive(c.dir, screenshotName(c.now()), img)
}

func (c *capturer) snapshot(ctx context.Context, doc document) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	html, err := doc.HTML(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, SnapshotName), []byte(html), 0o644)
}

func (c *capturer) warn(res *models.Result, what string, err error) {
	msg := fmt.Sprintf("debug capture: %s failed: %v", what, err)
	slog.Warn("debug capture failed", "artifact", what, "dir", c.dir, "error", err)
	res.Warn(msg)
}

// screenshotName is browse-<UTC time with milliseconds>.png, free of
// characters that are awkward in file names.
func screenshotName(t time.Time) string {
	stamp := strings.ReplaceAll(t.UTC().Format(screenshotLayout), ".", "-")
	return screenshotPrefix + stamp + ".png"
}

// writeExclusive creates name in dir without clobbering an existing file;
// on collision a numeric suffix is appended.
func writeExclusive(dir, name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i < 100; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}
