package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/use-agent/surfer/models"
	"github.com/use-agent/surfer/search"
)

func (a *app) searchCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "search <query> [model] [recency]",
		Short: "Ask an online search model and save a cited report",
		Long: `search sends one question to an OpenAI-compatible search API (Perplexity
by default, key in PERPLEXITY_API_KEY) and prints the answer with sources.
The report is also saved as JSON under the reports directory.

Models:  sonar, sonar-pro, sonar-reasoning, sonar-deep-research
Recency: ` + strings.Join(search.Recencies, ", "),
		Args:               cobra.MaximumNArgs(3),
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			q := models.SearchQuery{Query: args[0]}
			if len(args) > 1 {
				q.Model = args[1]
			}
			if len(args) > 2 {
				q.Recency = args[2]
			}

			client := search.NewClient(a.cfg.Search, nil)
			rep, err := client.Search(cmd.Context(), q)
			if err != nil {
				return a.fail(err)
			}

			path, saveErr := search.SaveReport(a.cfg.Search.ReportsDir, rep)
			if jsonOut {
				if err := writeJSON(a.stdout, rep); err != nil {
					return a.fail(err)
				}
			} else {
				search.Format(a.stdout, rep)
			}
			if saveErr != nil {
				fmt.Fprintf(a.stderr, "Warning: %v\n", saveErr)
			} else {
				fmt.Fprintf(a.stderr, "\nReport saved: %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	return cmd
}
