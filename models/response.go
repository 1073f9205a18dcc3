package models

// BrowseResponse is the response for POST /api/v1/browse: the run's Result
// plus API-only metadata.
type BrowseResponse struct {
	Result

	// Tokens is a rough token estimate of the returned text.
	Tokens int `json:"tokens"`

	// Warnings mirrors Result.Warnings, which the CLI keeps off stdout.
	Warnings []string `json:"warnings,omitempty"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// DurationMs is the end-to-end handling time.
	DurationMs int64 `json:"duration_ms"`

	// Detail carries request-level errors that happen before any run
	// (bad payload, invalid URL, auth, rate limiting).
	Detail *ErrorDetail `json:"detail,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"` // "healthy" or "degraded"
	Uptime     string `json:"uptime"`
	Version    string `json:"version"`
	BrowserBin string `json:"browser_bin"`
	ActiveRuns int    `json:"active_runs"`
	MaxRuns    int    `json:"max_runs"`
}
