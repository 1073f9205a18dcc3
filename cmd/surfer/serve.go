package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/surfer/api"
	"github.com/use-agent/surfer/api/handler"
	"github.com/use-agent/surfer/cache"
	"github.com/use-agent/surfer/scraper"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve browse runs over HTTP",
		Long: `serve exposes POST /api/v1/browse and GET /api/v1/health. Every request
runs in its own browser; SURFER_MAX_CONCURRENT caps how many run at once.
Requests need an API key from SURFER_API_KEYS unless SURFER_AUTH_ENABLED=false.`,
		Args:               cobra.NoArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	cfg := a.cfg
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Collaborators ────────────────────────────────────────────
	sc := scraper.New(cfg)
	if bin, err := sc.Locator().Locate(); err != nil {
		slog.Warn("no browser found, browse requests will fail until one is installed", "error", err)
	} else {
		slog.Info("browser located", "bin", bin.Path)
	}

	cc := cache.New(cfg.Cache.MaxEntries)
	defer cc.Close()

	if cfg.Auth.Enabled && len(cfg.Auth.APIKeys) == 0 {
		slog.Warn("auth enabled but SURFER_API_KEYS is empty, the API is open")
	}

	// ── 2. Router ───────────────────────────────────────────────────
	router := api.NewRouter(ctx, cfg, api.Deps{
		Browser: sc,
		Locator: sc.Locator(),
		Cache:   cc,
		Gate:    handler.NewRunGate(cfg.Server.MaxConcurrent),
		Started: time.Now(),
	})

	// ── 3. HTTP server ──────────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr, "maxConcurrent", cfg.Server.MaxConcurrent)
		fmt.Fprintf(a.stderr, "surfer serving on http://%s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ── 4. Graceful shutdown ────────────────────────────────────────
	select {
	case err := <-errCh:
		if err != nil {
			return a.fail(err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutdown signal received")

	// Browse runs can take a while; give them the longest navigation window.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	return nil
}
