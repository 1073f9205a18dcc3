package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
	"github.com/use-agent/surfer/search"
)

// browser runs one browse in-process. *scraper.Scraper implements it.
type browser interface {
	Browse(ctx context.Context, opts config.Options) (*models.Result, error)
}

// searcher answers one deep-search query. *search.Client implements it.
type searcher interface {
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchReport, error)
}

func newServer(b browser, sr searcher, reportsDir string) *server.MCPServer {
	s := server.NewMCPServer(
		"surfer",
		version,
		server.WithToolCapabilities(false),
	)

	browseTool := mcp.NewTool("browse_page",
		mcp.WithDescription("Open a web page in a stealth headless browser and return its title, HTTP status and readable text as JSON. Renders JavaScript, waits for the network to go quiet and scrolls once for lazy content."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Page to open; a missing scheme defaults to https"),
		),
		mcp.WithString("selector",
			mcp.Description("CSS selector; only the text of matching elements is returned, joined by ---"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (default, rendered innerText), 'markdown', or 'article' (main content only)"),
			mcp.Enum(config.FormatText, config.FormatMarkdown, config.FormatArticle),
		),
		mcp.WithNumber("max_chars",
			mcp.Description("Maximum characters of text returned (default 5000)"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Navigation timeout in milliseconds (default 30000)"),
		),
		mcp.WithNumber("wait_ms",
			mcp.Description("Maximum wait for network quiet after load, in milliseconds (default 2000)"),
		),
		mcp.WithBoolean("screenshot",
			mcp.Description("Save a screenshot to the debug directory and return its path"),
		),
		mcp.WithBoolean("full_page",
			mcp.Description("Capture the full scrollable page (implies screenshot)"),
		),
	)
	s.AddTool(browseTool, handleBrowse(b))

	searchTool := mcp.NewTool("deep_search",
		mcp.WithDescription("Ask an online search model (Perplexity) a research question and return a cited answer. Needs PERPLEXITY_API_KEY."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to research"),
		),
		mcp.WithString("model",
			mcp.Description("sonar (default), sonar-pro, sonar-reasoning or sonar-deep-research"),
		),
		mcp.WithString("recency",
			mcp.Description("Only use sources from the last day, week, month or year"),
			mcp.Enum(search.Recencies...),
		),
	)
	s.AddTool(searchTool, handleSearch(sr, reportsDir))

	return s
}

func handleBrowse(b browser) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		opts, err := config.ResolveOptions(config.RawOptions{
			URL:        url,
			Timeout:    intArg(request, "timeout_ms"),
			Wait:       intArg(request, "wait_ms"),
			MaxChars:   intArg(request, "max_chars"),
			Screenshot: request.GetBool("screenshot", false),
			FullPage:   request.GetBool("full_page", false),
			JSON:       true,
			Selector:   request.GetString("selector", ""),
			Format:     request.GetString("format", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := b.Browse(ctx, opts)
		if err != nil {
			return mcp.NewToolResultError(errorText(err)), nil
		}

		body, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
		}
		if !res.OK() {
			return mcp.NewToolResultError(string(body)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

func handleSearch(sr searcher, reportsDir string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		rep, err := sr.Search(ctx, models.SearchQuery{
			Query:   query,
			Model:   request.GetString("model", ""),
			Recency: request.GetString("recency", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(errorText(err)), nil
		}

		text := search.Markdown(rep)
		if reportsDir != "" {
			if path, err := search.SaveReport(reportsDir, rep); err != nil {
				slog.Warn("saving search report failed", "error", err)
			} else {
				text += "\n\n---\nReport saved: " + path
			}
		}
		return mcp.NewToolResultText(text), nil
	}
}

// intArg renders a numeric argument as the string form the lenient option
// resolver expects; absent or non-numeric arguments become "".
func intArg(request mcp.CallToolRequest, name string) string {
	v := request.GetFloat(name, 0)
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(int(v))
}

func errorText(err error) string {
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		return err.Error()
	}
	msg := fmt.Sprintf("[%s] %s", se.Code, se.UserMessage())
	if se.Hint != "" {
		msg += "\n" + se.Hint
	}
	return msg
}
