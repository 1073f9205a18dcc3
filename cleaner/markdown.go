package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// markdownWriter renders HTML fragments as CommonMark with tables kept.
// One instance is shared by all runs.
type markdownWriter struct {
	conv *converter.Converter
}

func newMarkdownWriter() *markdownWriter {
	return &markdownWriter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal)),
			),
		),
	}
}

// render converts fragment, resolving relative links and images against
// pageURL.
func (m *markdownWriter) render(fragment, pageURL string) (string, error) {
	md, err := m.conv.ConvertString(fragment, converter.WithDomain(pageURL))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
