package models

// BrowseRequest is the payload for POST /api/v1/browse.
type BrowseRequest struct {
	// URL is the target page. Required. Scheme-less input is accepted
	// and normalized the same way the CLI does it.
	URL string `json:"url" binding:"required"`

	// TimeoutMs is the navigation timeout in milliseconds.
	// Default: 30000. Max: 120000.
	TimeoutMs int `json:"timeout_ms,omitempty" binding:"omitempty,min=1,max=120000"`

	// WaitMs is the upper bound on the post-load settle wait.
	// Default: 2000. Max: 60000.
	WaitMs int `json:"wait_ms,omitempty" binding:"omitempty,min=1,max=60000"`

	// Screenshot saves a screenshot to the server's debug directory.
	Screenshot bool `json:"screenshot,omitempty"`

	// FullPage captures the whole scrollable page. Implies Screenshot.
	FullPage bool `json:"full_page,omitempty"`

	// MaxChars caps the returned text. Default: 5000.
	MaxChars int `json:"max_chars,omitempty" binding:"omitempty,min=1"`

	// Selector scopes extraction to matching elements.
	Selector string `json:"selector,omitempty"`

	// Format is "text" (default), "markdown" or "article".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=text markdown article"`

	// MaxAgeMs enables the response cache: a cached result younger than
	// this is returned without launching a browser. 0 disables caching.
	MaxAgeMs int `json:"max_age_ms,omitempty" binding:"omitempty,min=0"`
}
