package scraper

import (
	"context"
	"errors"
	"strings"

	"github.com/use-agent/surfer/cleaner"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
)

// selectorTextJS returns the trimmed, non-empty innerText of every element
// matching the selector passed as the first argument.
const selectorTextJS = `(sel) => Array.from(document.querySelectorAll(sel))
	.map(el => (el.innerText || "").trim())
	.filter(t => t.length > 0)`

const bodyTextJS = `() => document.body ? (document.body.innerText || "").trim() : ""`

const titleJS = `() => document.title`

// extractor pulls the readable text of a loaded page in the requested format.
type extractor struct {
	cleaner *cleaner.Cleaner
}

func newExtractor() *extractor {
	return &extractor{cleaner: cleaner.NewCleaner()}
}

// Extract returns the page text for opts, never longer than opts.MaxChars
// characters. A selector that matches nothing yields "" and no error.
//
// In text format the selector is handed to the page's querySelectorAll as is;
// the snapshot formats match it with cascadia, which knows fewer selectors.
func (e *extractor) Extract(ctx context.Context, doc document, pageURL string, opts config.Options) (string, error) {
	var (
		text string
		err  error
	)
	switch opts.Format {
	case config.FormatMarkdown, config.FormatArticle:
		if opts.Selector != "" {
			if err := cleaner.ValidateSelector(opts.Selector); err != nil {
				return "", models.NewScrapeError(models.ErrCodeExtraction, "failed to evaluate selector", err)
			}
		}
		text, err = e.fromSnapshot(ctx, doc, pageURL, opts)
	default:
		text, err = liveText(ctx, doc, opts.Selector)
	}
	if err != nil {
		return "", categorizeExtractError(err)
	}
	return cleaner.Truncate(text, opts.MaxChars), nil
}

// liveText reads innerText straight from the DOM, the way a reader sees it.
func liveText(ctx context.Context, doc document, selector string) (string, error) {
	if selector == "" {
		return evalString(ctx, doc, bodyTextJS)
	}
	v, err := doc.Eval(ctx, selectorTextJS, selector)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", models.NewScrapeError(models.ErrCodeExtraction, "failed to evaluate selector", err)
	}
	items := v.Arr()
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Str())
	}
	return cleaner.JoinSections(parts), nil
}

func (e *extractor) fromSnapshot(ctx context.Context, doc document, pageURL string, opts config.Options) (string, error) {
	html, err := doc.HTML(ctx)
	if err != nil {
		return "", err
	}
	if opts.Format == config.FormatArticle {
		return e.cleaner.Article(html, pageURL, opts.Selector)
	}
	return e.cleaner.Markdown(html, pageURL, opts.Selector)
}

// readTitle is best-effort: a page without a readable title yields nil.
func readTitle(ctx context.Context, doc document) *string {
	title, err := evalString(ctx, doc, titleJS)
	if err != nil {
		return nil
	}
	return models.StringPtr(strings.TrimSpace(title))
}

func categorizeExtractError(err error) error {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return categorizeError(err, "")
	}
	return models.NewScrapeError(models.ErrCodeExtraction, "failed to extract page text", err)
}
