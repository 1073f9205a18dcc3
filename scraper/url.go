package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/surfer/models"
)

var (
	httpSchemeRe = regexp.MustCompile(`(?i)^https?://`)
	anySchemeRe  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// NormalizeURL canonicalizes free-form input into an absolute http(s) URL.
// Input without a scheme gets "https://" prepended. Anything that does not
// parse, uses another scheme, or has no usable host is rejected with an
// INVALID_URL error.
func NormalizeURL(raw string) (string, error) {
	in := strings.TrimSpace(raw)
	if in == "" {
		return "", invalidURL(raw, nil)
	}

	if !httpSchemeRe.MatchString(in) {
		if anySchemeRe.MatchString(in) {
			return "", invalidURL(raw, fmt.Errorf("scheme not allowed"))
		}
		in = "https://" + in
	}

	u, err := url.Parse(in)
	if err != nil {
		return "", invalidURL(raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalidURL(raw, fmt.Errorf("scheme %q not allowed", u.Scheme))
	}

	host := u.Hostname()
	if host == "" || strings.ContainsAny(host, " \t\r\n") {
		return "", invalidURL(raw, fmt.Errorf("missing or malformed host"))
	}

	u.Host = strings.ToLower(u.Host)
	if port := u.Port(); port != "" && port == defaultPorts[u.Scheme] {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

func invalidURL(raw string, err error) *models.ScrapeError {
	return models.NewScrapeError(
		models.ErrCodeInvalidURL,
		fmt.Sprintf("Invalid URL %q. Only http/https allowed.", raw),
		err,
	)
}
