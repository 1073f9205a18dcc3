package cleaner

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ValidateSelector reports whether selector compiles as CSS.
func ValidateSelector(selector string) error {
	if _, err := cascadia.Compile(selector); err != nil {
		return fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return nil
}

// ApplyCSSSelector parses rawHTML, matches elements against the given CSS
// selector, and returns the concatenated outer HTML of all matched elements.
//
// No matches yields an empty string: an empty match set is a valid,
// empty extraction rather than a reason to fall back to the whole page.
func ApplyCSSSelector(rawHTML string, selector string) (string, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return "", fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	matches := doc.FindMatcher(sel)
	if matches.Length() == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	for _, node := range matches.Nodes {
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}
