package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/use-agent/surfer/browser"
	"github.com/use-agent/surfer/scraper"
)

func (a *app) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "doctor",
		Short:              "Check that a Chromium build is installed where surfer looks for it",
		Args:               cobra.NoArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := scraper.New(a.cfg).Locator()
			if root, err := loc.Root(); err == nil {
				fmt.Fprintf(a.stdout, "Browser cache: %s\n\n", root)
			}
			if !browser.WriteFindings(a.stdout, loc.Check()) {
				return exitError(1)
			}
			return nil
		},
	}
}
