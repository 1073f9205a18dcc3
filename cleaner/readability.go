package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

// Readability output shorter than this is treated as a miss.
const minArticleRunes = 50

// mainText returns the readable main-content text of fragment. When
// readability cannot place the main content the visible text of the whole
// fragment is returned instead, and found is false.
func mainText(fragment, pageURL string) (text string, found bool) {
	base, err := nurl.Parse(pageURL)
	if err != nil {
		slog.Debug("article: unparsable page URL", "url", pageURL, "error", err)
		return stripTags(fragment), false
	}

	article, err := readability.FromReader(strings.NewReader(fragment), base)
	if err != nil {
		slog.Debug("article: readability failed", "url", pageURL, "error", err)
		return stripTags(fragment), false
	}

	text = strings.TrimSpace(article.TextContent)
	if utf8.RuneCountInString(text) < minArticleRunes {
		slog.Debug("article: main content too short, using page text", "url", pageURL, "runes", utf8.RuneCountInString(text))
		return stripTags(fragment), false
	}
	return text, true
}
