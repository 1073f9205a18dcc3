package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Cleaner turns a rendered HTML snapshot into agent-friendly text for the
// markdown and article output formats. The live-DOM text format does not
// go through here.
// A Cleaner is safe for concurrent use.
type Cleaner struct {
	md *markdownWriter
}

func NewCleaner() *Cleaner {
	return &Cleaner{md: newMarkdownWriter()}
}

// Markdown converts rawHTML (scoped to selector when non-empty) to Markdown.
// Relative links resolve against pageURL.
func (c *Cleaner) Markdown(rawHTML, pageURL, selector string) (string, error) {
	scoped, err := scope(rawHTML, selector)
	if err != nil || scoped == "" {
		return "", err
	}
	return c.md.render(scoped, pageURL)
}

// Article returns the main-content text of rawHTML as picked by
// readability. With a selector, readability runs on the matched fragment.
func (c *Cleaner) Article(rawHTML, pageURL, selector string) (string, error) {
	scoped, err := scope(rawHTML, selector)
	if err != nil || scoped == "" {
		return "", err
	}
	text, _ := mainText(scoped, pageURL)
	return text, nil
}

func scope(rawHTML, selector string) (string, error) {
	if selector == "" {
		return rawHTML, nil
	}
	return ApplyCSSSelector(rawHTML, selector)
}

// stripTags returns the visible text of an HTML fragment.
func stripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript, template").Remove()
	return strings.TrimSpace(doc.Text())
}
