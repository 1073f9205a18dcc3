package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/surfer/api/handler"
	"github.com/use-agent/surfer/api/middleware"
	"github.com/use-agent/surfer/browser"
	"github.com/use-agent/surfer/cache"
	"github.com/use-agent/surfer/config"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Browser handler.Browser
	Locator *browser.Locator
	Cache   *cache.Cache
	Gate    *handler.RunGate
	Started time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// ctx bounds the rate limiter's background sweeper.
//
// Middleware chain:
//
//	Global:  Recovery → request log
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLog())

	v1 := r.Group("/api/v1")

	// Health needs no auth.
	v1.GET("/health", handler.Health(deps.Locator, deps.Gate, deps.Started))

	// Protected group: auth, then rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(middleware.NewLimiters(ctx, cfg.RateLimit)))

	protected.POST("/browse", handler.Browse(deps.Browser, deps.Gate, deps.Cache))

	return r
}

// requestLog writes one slog line per request instead of gin's own logger.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
