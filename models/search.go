package models

import "time"

// SearchQuery is one deep-search request.
type SearchQuery struct {
	Query   string
	Model   string // default "sonar"
	Recency string // "", "day", "week", "month" or "year"
}

// SearchResultItem is one entry of the provider's search_results array.
type SearchResultItem struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	Date  string `json:"date,omitempty"`
}

// SearchUsage mirrors the provider's usage block.
type SearchUsage struct {
	PromptTokens     int         `json:"prompt_tokens"`
	CompletionTokens int         `json:"completion_tokens"`
	TotalTokens      int         `json:"total_tokens"`
	NumSearchQueries int         `json:"num_search_queries,omitempty"`
	Cost             *SearchCost `json:"cost,omitempty"`
}

// SearchCost is the provider-reported cost breakdown.
type SearchCost struct {
	TotalCost float64 `json:"total_cost"`
}

// SearchReport is what `surfer search` prints and saves.
type SearchReport struct {
	Query         string             `json:"query"`
	Model         string             `json:"model"`
	Recency       *string            `json:"recency"`
	Elapsed       float64            `json:"elapsed"` // seconds
	Content       string             `json:"content"`
	Citations     []string           `json:"citations"`
	SearchResults []SearchResultItem `json:"searchResults"`
	Usage         SearchUsage        `json:"usage"`
	Timestamp     time.Time          `json:"timestamp"`
}
