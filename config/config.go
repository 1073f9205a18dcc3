package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Debug     DebugConfig     `yaml:"debug"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
}

// BrowserConfig controls browser discovery and the stealth session.
type BrowserConfig struct {
	// CacheRoot overrides the Playwright browser cache directory. When
	// empty the locator falls back to PLAYWRIGHT_BROWSERS_PATH and then
	// to the platform default.
	CacheRoot string `yaml:"cache_root"`

	// BrowserBin skips discovery and uses this Chromium binary.
	BrowserBin string `yaml:"browser_bin"`

	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in containers).
	NoSandbox bool `yaml:"no_sandbox"` // default: true

	// Proxy is passed to Chromium's --proxy-server.
	Proxy string `yaml:"proxy"`

	UserAgent      string `yaml:"user_agent"`
	Locale         string `yaml:"locale"`
	ViewportWidth  int    `yaml:"viewport_width"`  // default: 1280
	ViewportHeight int    `yaml:"viewport_height"` // default: 800
}

// DebugConfig controls where debug artifacts are written.
type DebugConfig struct {
	// Dir receives screenshots and the latest HTML snapshot.
	Dir string `yaml:"dir"` // default: ~/.claude/debug

	// CaptureTimeout bounds each screenshot / snapshot operation.
	CaptureTimeout time.Duration `yaml:"capture_timeout"` // default: 10s
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "warn"
	Format string `yaml:"format"` // "json" or "text"; default: "text"
}

// ServerConfig controls `surfer serve`.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "127.0.0.1"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"

	// MaxConcurrent caps simultaneous browse runs (each owns a browser).
	MaxConcurrent int `yaml:"max_concurrent"` // default: 2
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"` // default: true
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 1
	Burst             int     `yaml:"burst"`               // default: 3
}

// CacheConfig controls the browse response cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"` // default: 200
}

// SearchConfig controls the deep-search client.
type SearchConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`    // default: https://api.perplexity.ai
	Model      string        `yaml:"model"`       // default: sonar
	MaxTokens  int           `yaml:"max_tokens"`  // default: 2000
	Timeout    time.Duration `yaml:"timeout"`     // default: 120s
	ReportsDir string        `yaml:"reports_dir"` // default: ~/.claude/reports
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	home := homeDir()
	return &Config{
		Browser: BrowserConfig{
			Headless:       true,
			NoSandbox:      true,
			UserAgent:      DefaultUserAgent,
			Locale:         "en-US",
			ViewportWidth:  1280,
			ViewportHeight: 800,
		},
		Debug: DebugConfig{
			Dir:            filepath.Join(home, ".claude", "debug"),
			CaptureTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Server: ServerConfig{
			Host:          "127.0.0.1",
			Port:          8080,
			Mode:          "release",
			MaxConcurrent: 2,
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             3,
		},
		Cache: CacheConfig{
			MaxEntries: 200,
		},
		Search: SearchConfig{
			BaseURL:    "https://api.perplexity.ai",
			Model:      "sonar",
			MaxTokens:  2000,
			Timeout:    120 * time.Second,
			ReportsDir: filepath.Join(home, ".claude", "reports"),
		},
	}
}

// DefaultUserAgent is a current desktop Chrome on Linux.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load builds the configuration: built-in defaults, then the optional YAML
// file at path (or $SURFER_CONFIG), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("SURFER_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	b := &cfg.Browser
	b.CacheRoot = envOr("SURFER_BROWSER_CACHE", b.CacheRoot)
	b.BrowserBin = envOr("SURFER_BROWSER_BIN", b.BrowserBin)
	b.Headless = envBoolOr("SURFER_HEADLESS", b.Headless)
	b.NoSandbox = envBoolOr("SURFER_NO_SANDBOX", b.NoSandbox)
	b.Proxy = envOr("SURFER_PROXY", b.Proxy)
	b.UserAgent = envOr("SURFER_USER_AGENT", b.UserAgent)
	b.Locale = envOr("SURFER_LOCALE", b.Locale)
	b.ViewportWidth = envIntOr("SURFER_VIEWPORT_WIDTH", b.ViewportWidth)
	b.ViewportHeight = envIntOr("SURFER_VIEWPORT_HEIGHT", b.ViewportHeight)

	cfg.Debug.Dir = envOr("SURFER_DEBUG_DIR", cfg.Debug.Dir)
	cfg.Debug.CaptureTimeout = envDurationOr("SURFER_CAPTURE_TIMEOUT", cfg.Debug.CaptureTimeout)

	cfg.Log.Level = envOr("SURFER_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("SURFER_LOG_FORMAT", cfg.Log.Format)

	s := &cfg.Server
	s.Host = envOr("SURFER_HOST", s.Host)
	s.Port = envIntOr("SURFER_PORT", s.Port)
	s.Mode = envOr("SURFER_MODE", s.Mode)
	s.MaxConcurrent = envIntOr("SURFER_MAX_CONCURRENT", s.MaxConcurrent)

	cfg.Auth.Enabled = envBoolOr("SURFER_AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.APIKeys = envSliceOr("SURFER_API_KEYS", cfg.Auth.APIKeys)

	cfg.RateLimit.RequestsPerSecond = envFloatOr("SURFER_RATE_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.Burst = envIntOr("SURFER_RATE_BURST", cfg.RateLimit.Burst)

	cfg.Cache.MaxEntries = envIntOr("SURFER_CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)

	sc := &cfg.Search
	sc.APIKey = envOr("PERPLEXITY_API_KEY", sc.APIKey)
	sc.BaseURL = envOr("SURFER_SEARCH_BASE_URL", sc.BaseURL)
	sc.Model = envOr("SURFER_SEARCH_MODEL", sc.Model)
	sc.MaxTokens = envIntOr("SURFER_SEARCH_MAX_TOKENS", sc.MaxTokens)
	sc.Timeout = envDurationOr("SURFER_SEARCH_TIMEOUT", sc.Timeout)
	sc.ReportsDir = envOr("SURFER_REPORTS_DIR", sc.ReportsDir)
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h
	}
	return os.TempDir()
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
