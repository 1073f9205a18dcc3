package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/models"
)

const okBody = `{
  "choices": [{"message": {"role": "assistant", "content": "Go 1.25 shipped [1]."}}],
  "citations": ["https://go.dev/doc/go1.25", "https://go.dev/blog"],
  "search_results": [{"title": "Go 1.25 Release Notes", "url": "https://go.dev/doc/go1.25"}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46, "num_search_queries": 1, "cost": {"total_cost": 0.0051}}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Defaults().Search
	cfg.APIKey = "pplx-test"
	cfg.BaseURL = srv.URL + "/"
	c := NewClient(cfg, srv.Client())
	c.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	return c
}

func TestSearch_Success(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer pplx-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	})

	report, err := c.Search(context.Background(), models.SearchQuery{Query: "what is new in go", Recency: "week"})
	require.NoError(t, err)

	assert.Equal(t, "sonar", got["model"])
	assert.Equal(t, float64(2000), got["max_tokens"])
	assert.Equal(t, "week", got["search_recency_filter"])
	msgs, ok := got["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	user := msgs[1].(map[string]interface{})
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "what is new in go", user["content"])

	assert.Equal(t, "Go 1.25 shipped [1].", report.Content)
	assert.Equal(t, "sonar", report.Model)
	require.NotNil(t, report.Recency)
	assert.Equal(t, "week", *report.Recency)
	assert.Len(t, report.Citations, 2)
	assert.Equal(t, "Go 1.25 Release Notes", report.SearchResults[0].Title)
	assert.Equal(t, 46, report.Usage.TotalTokens)
	require.NotNil(t, report.Usage.Cost)
	assert.InDelta(t, 0.0051, report.Usage.Cost.TotalCost, 1e-9)
}

func TestSearch_ModelOverrideAndNoRecency(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	report, err := c.Search(context.Background(), models.SearchQuery{Query: "q", Model: "sonar-pro"})
	require.NoError(t, err)
	assert.Equal(t, "sonar-pro", got["model"])
	_, hasRecency := got["search_recency_filter"]
	assert.False(t, hasRecency)
	assert.Nil(t, report.Recency)
	assert.Equal(t, "No response", report.Content)
	assert.NotNil(t, report.Citations)
}

func TestSearch_ErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, models.ErrCodeSearchAuthFailure},
		{http.StatusForbidden, models.ErrCodeSearchAuthFailure},
		{http.StatusTooManyRequests, models.ErrCodeSearchRateLimited},
		{http.StatusInternalServerError, models.ErrCodeSearchFailure},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "x"}}`))
		})
		_, err := c.Search(context.Background(), models.SearchQuery{Query: "q"})
		require.Error(t, err)
		assert.Equal(t, tc.code, models.CodeOf(err), "status %d", tc.status)
		assert.Contains(t, err.Error(), "nope")
	}
}

func TestSearch_RejectsBeforeRequest(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, err := c.Search(context.Background(), models.SearchQuery{Query: "q", Recency: "decade"})
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))

	_, err = c.Search(context.Background(), models.SearchQuery{Query: "  "})
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))

	c.apiKey = ""
	_, err = c.Search(context.Background(), models.SearchQuery{Query: "q"})
	assert.Equal(t, models.ErrCodeSearchAuthFailure, models.CodeOf(err))

	assert.Zero(t, calls)
}

func TestSearch_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := c.Search(context.Background(), models.SearchQuery{Query: "q"})
	assert.Equal(t, models.ErrCodeSearchFailure, models.CodeOf(err))
}

func sampleReport() *models.SearchReport {
	return &models.SearchReport{
		Query:         "q",
		Model:         "sonar",
		Elapsed:       1.2,
		Content:       "Answer [1].",
		Citations:     []string{"https://a.example", "https://b.example"},
		SearchResults: []models.SearchResultItem{{Title: "A"}},
		Usage:         models.SearchUsage{PromptTokens: 3, CompletionTokens: 4, NumSearchQueries: 1},
		Timestamp:     time.UnixMilli(1700000000123).UTC(),
	}
}

func TestFormat(t *testing.T) {
	var buf bytes.Buffer
	Format(&buf, sampleReport())
	out := buf.String()

	assert.Contains(t, out, "Model: sonar | 1.2s | Recency: all")
	assert.Contains(t, out, "Answer [1].")
	assert.Contains(t, out, "[1] A\n    https://a.example\n")
	assert.Contains(t, out, "[2]\n    https://b.example\n")
	assert.Contains(t, out, "Tokens: 3 in / 4 out")
	assert.Contains(t, out, "Cost: $0.0000")
	assert.Contains(t, out, "Searches: 1")
}

func TestSaveReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := SaveReport(dir, sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report-1700000000123.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "q", back["query"])
	assert.Nil(t, back["recency"])
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())
	assert.Equal(t, "Answer [1].\n\n## Sources\n1. https://a.example\n2. https://b.example\n", md)
}
