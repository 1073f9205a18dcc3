// Package search is a thin client for OpenAI-compatible "online" completion
// APIs (Perplexity by default) that answer with citations.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
)

const systemPrompt = "Be precise and thorough. Cite sources with [n] markers. " +
	"Answer in the language of the question. Structure your answer with headers when appropriate."

// Recency filters accepted by the provider.
var Recencies = []string{"day", "week", "month", "year"}

// Client sends search queries over net/http; message bodies are built with
// openai-go param types so they serialize exactly as the API expects.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	now        func() time.Time
}

// NewClient creates a Client from cfg. Pass a nil httpClient to get one
// bounded by cfg.Timeout.
func NewClient(cfg config.SearchConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		now:        time.Now,
	}
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations     []string                  `json:"citations"`
	SearchResults []models.SearchResultItem `json:"search_results"`
	Usage         models.SearchUsage        `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Search runs q and returns the report. q.Model and q.Recency are optional.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) (*models.SearchReport, error) {
	if c.apiKey == "" {
		return nil, models.NewScrapeError(models.ErrCodeSearchAuthFailure,
			"search API key not set", nil).WithHint(`Export it: export PERPLEXITY_API_KEY="pplx-..."`)
	}
	if strings.TrimSpace(q.Query) == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "search query is empty", nil)
	}
	model := q.Model
	if model == "" {
		model = c.model
	}
	if q.Recency != "" && !validRecency(q.Recency) {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown recency %q (want one of %s)", q.Recency, strings.Join(Recencies, ", ")), nil)
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(q.Query),
	}
	reqBody := map[string]interface{}{
		"model":      model,
		"messages":   messages,
		"max_tokens": c.maxTokens,
	}
	if q.Recency != "" {
		reqBody["search_recency_filter"] = q.Recency
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSearchFailure, "search request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSearchFailure, "failed to read search response", err)
	}
	elapsed := c.now().Sub(start)

	if resp.StatusCode != http.StatusOK {
		return nil, classifyError(resp.StatusCode, respBody)
	}

	var out completionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSearchFailure, "failed to parse search response", err)
	}

	content := "No response"
	if len(out.Choices) > 0 && out.Choices[0].Message.Content != "" {
		content = out.Choices[0].Message.Content
	}

	report := &models.SearchReport{
		Query:         q.Query,
		Model:         model,
		Elapsed:       float64(elapsed.Milliseconds()/100) / 10,
		Content:       content,
		Citations:     nonNil(out.Citations),
		SearchResults: out.SearchResults,
		Usage:         out.Usage,
		Timestamp:     c.now().UTC(),
	}
	if report.SearchResults == nil {
		report.SearchResults = []models.SearchResultItem{}
	}
	if q.Recency != "" {
		report.Recency = models.StringPtr(q.Recency)
	}
	return report, nil
}

func validRecency(r string) bool {
	for _, v := range Recencies {
		if r == v {
			return true
		}
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// classifyError maps HTTP status codes to search error codes.
func classifyError(statusCode int, body []byte) *models.ScrapeError {
	var errResp errorResponse
	msg := "search API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeSearchAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeSearchRateLimited, msg, nil)
	default:
		return models.NewScrapeError(models.ErrCodeSearchFailure, fmt.Sprintf("search API returned %d: %s", statusCode, msg), nil)
	}
}
