package scraper

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/use-agent/surfer/config"
	"github.com/ysmood/gson"
)

// fakeDocument serves canned answers to the scripts the extractor runs.
type fakeDocument struct {
	title    string
	body     string
	sections []string // innerText per matched element, before filtering
	html     string

	evalErr       error
	htmlErr       error
	screenshotErr error
	png           []byte

	mu       sync.Mutex
	selector string
	shots    int
}

func (d *fakeDocument) Eval(_ context.Context, js string, args ...interface{}) (gson.JSON, error) {
	if d.evalErr != nil {
		return gson.JSON{}, d.evalErr
	}
	switch js {
	case titleJS:
		return gson.New(d.title), nil
	case bodyTextJS:
		return gson.New(d.body), nil
	case selectorTextJS:
		d.mu.Lock()
		d.selector, _ = args[0].(string)
		d.mu.Unlock()
		kept := []interface{}{}
		for _, s := range d.sections {
			if t := strings.TrimSpace(s); t != "" {
				kept = append(kept, t)
			}
		}
		return gson.New(kept), nil
	}
	return gson.New(nil), nil
}

func (d *fakeDocument) HTML(context.Context) (string, error) {
	if d.htmlErr != nil {
		return "", d.htmlErr
	}
	return d.html, nil
}

func (d *fakeDocument) Screenshot(context.Context, bool) ([]byte, error) {
	d.mu.Lock()
	d.shots++
	d.mu.Unlock()
	if d.screenshotErr != nil {
		return nil, d.screenshotErr
	}
	if d.png == nil {
		return []byte("\x89PNG fake"), nil
	}
	return d.png, nil
}

// fakeSession records its lifecycle.
type fakeSession struct {
	doc     *fakeDocument
	status  *int
	navErr  error
	closes  int
	navURLs []string
}

func (s *fakeSession) Navigate(_ context.Context, target string, _ config.Options) (*int, error) {
	s.navURLs = append(s.navURLs, target)
	return s.status, s.navErr
}

func (s *fakeSession) Document() document { return s.doc }

func (s *fakeSession) Close() { s.closes++ }

var errBoom = errors.New("boom")
