package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/surfer/config"
	"github.com/use-agent/surfer/report"
	"github.com/use-agent/surfer/scraper"
)

func (a *app) browseCmd() *cobra.Command {
	var raw config.RawOptions

	cmd := &cobra.Command{
		Use:   "surfer <url>",
		Short: "Read a web page the way a person sees it",
		Long: `surfer opens a URL in a stealth headless Chromium, waits for the page to
settle, and prints its title, HTTP status and readable text.

Debug artifacts (an HTML snapshot and optional screenshots) are written to
the debug directory, ~/.claude/debug by default.`,
		Example: `  surfer example.com
  surfer https://news.ycombinator.com --selector ".titleline" --json
  surfer docs.example.com --format markdown --max-chars 20000
  surfer example.com --full-page`,
		Version:            version,
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		SilenceErrors:      true,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				raw.URL = args[0]
			}
			return a.runBrowse(cmd, raw)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "configuration file (YAML)")

	f := cmd.Flags()
	f.StringVar(&raw.Timeout, "timeout", "", "navigation timeout in ms (default 30000)")
	f.StringVar(&raw.Wait, "wait", "", "max ms to wait for the network to go quiet (default 2000)")
	f.StringVar(&raw.MaxChars, "max-chars", "", "maximum characters of text returned (default 5000)")
	f.BoolVar(&raw.Screenshot, "screenshot", false, "save a viewport screenshot to the debug directory")
	f.BoolVar(&raw.FullPage, "full-page", false, "save a full-page screenshot (implies --screenshot)")
	f.BoolVar(&raw.JSON, "json", false, "print the result as JSON")
	f.StringVar(&raw.Selector, "selector", "", "only return text of elements matching this CSS selector")
	f.StringVar(&raw.Format, "format", config.FormatText, "output format: text, markdown or article")
	return cmd
}

func (a *app) runBrowse(cmd *cobra.Command, raw config.RawOptions) error {
	opts, err := config.ResolveOptions(raw)
	if errors.Is(err, config.ErrUsage) {
		cmd.SetOut(a.stderr)
		_ = cmd.Help()
		return exitError(1)
	}
	if err != nil {
		return a.fail(err)
	}

	sc := scraper.New(a.cfg)

	// Fail fast, before printing progress, on what can be decided without
	// launching anything.
	target, err := scraper.NormalizeURL(opts.URL)
	if err != nil {
		return a.fail(err)
	}
	if _, err := sc.Locator().Locate(); err != nil {
		return a.fail(err)
	}

	if !opts.JSON {
		report.Navigating(a.stdout, target)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := sc.Browse(ctx, opts)
	if err != nil {
		return a.fail(err)
	}
	if code := report.Write(a.stdout, a.stderr, res, opts.JSON); code != report.ExitOK {
		return exitError(code)
	}
	return nil
}
