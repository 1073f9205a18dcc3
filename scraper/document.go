package scraper

import (
	"context"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// document is the read side of a loaded page: what extraction and debug
// capture need, nothing that navigates.
type document interface {
	Eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
}

type rodDocument struct {
	page *rod.Page
}

func (d rodDocument) Eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	res, err := d.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

func (d rodDocument) HTML(ctx context.Context) (string, error) {
	return d.page.Context(ctx).HTML()
}

func (d rodDocument) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return d.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// evalString evaluates js and returns its string result.
func evalString(ctx context.Context, doc document, js string) (string, error) {
	v, err := doc.Eval(ctx, js)
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}
