package config

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Defaults for a single browse run.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultWait     = 2 * time.Second
	DefaultMaxChars = 5000
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatArticle  = "article"
)

// ErrUsage is returned by ResolveOptions when the URL is missing.
var ErrUsage = errors.New("missing required argument: url")

// RawOptions holds invocation values exactly as the caller supplied them.
// Numeric values are kept as strings so that resolution can fall back to
// defaults instead of failing.
type RawOptions struct {
	URL        string
	Timeout    string // milliseconds
	Wait       string // milliseconds
	MaxChars   string
	Screenshot bool
	FullPage   bool
	JSON       bool
	Selector   string
	Format     string
}

// Options is the resolved configuration of one browse run. It is a value
// type; callers get their own copy and never mutate a shared one.
type Options struct {
	URL        string
	Timeout    time.Duration
	Wait       time.Duration
	Screenshot bool
	FullPage   bool
	JSON       bool
	MaxChars   int
	Selector   string // empty means no selector
	Format     string
}

// ResolveOptions applies defaults to raw. Numeric values that do not parse
// to a positive integer resolve to their default. FullPage forces
// Screenshot. The only failure is a missing URL.
func ResolveOptions(raw RawOptions) (Options, error) {
	url := strings.TrimSpace(raw.URL)
	if url == "" {
		return Options{}, ErrUsage
	}

	opts := Options{
		URL:        url,
		Timeout:    time.Duration(lenientInt(raw.Timeout, int(DefaultTimeout/time.Millisecond))) * time.Millisecond,
		Wait:       time.Duration(lenientInt(raw.Wait, int(DefaultWait/time.Millisecond))) * time.Millisecond,
		Screenshot: raw.Screenshot || raw.FullPage,
		FullPage:   raw.FullPage,
		JSON:       raw.JSON,
		MaxChars:   lenientInt(raw.MaxChars, DefaultMaxChars),
		Selector:   raw.Selector,
		Format:     resolveFormat(raw.Format),
	}
	return opts, nil
}

func resolveFormat(f string) string {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case FormatMarkdown:
		return FormatMarkdown
	case FormatArticle:
		return FormatArticle
	default:
		return FormatText
	}
}

// lenientInt parses the leading decimal digits of s ("1500ms" -> 1500).
// Anything that does not yield a positive integer returns fallback.
func lenientInt(s string, fallback int) int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return fallback
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
