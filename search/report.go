package search

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/use-agent/surfer/models"
)

const rule = "==========================================="

// Format prints the human-readable report: header, answer, numbered
// sources (with search-result titles when the provider sent them) and
// token/cost metadata.
func Format(w io.Writer, r *models.SearchReport) {
	recency := "all"
	if r.Recency != nil {
		recency = *r.Recency
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "DEEP SEARCH REPORT")
	fmt.Fprintf(w, "Model: %s | %.1fs | Recency: %s\n", r.Model, r.Elapsed, recency)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Content)

	if len(r.Citations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "----- SOURCES -----")
		for i, c := range r.Citations {
			title := ""
			if i < len(r.SearchResults) && r.SearchResults[i].Title != "" {
				title = " " + r.SearchResults[i].Title
			}
			fmt.Fprintf(w, "[%d]%s\n    %s\n", i+1, title, c)
		}
	}

	cost := 0.0
	if r.Usage.Cost != nil {
		cost = r.Usage.Cost.TotalCost
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "----- META -----")
	fmt.Fprintf(w, "Tokens: %d in / %d out\n", r.Usage.PromptTokens, r.Usage.CompletionTokens)
	fmt.Fprintf(w, "Cost: $%.4f\n", cost)
	fmt.Fprintf(w, "Searches: %d\n", r.Usage.NumSearchQueries)
}

// SaveReport writes r as indented JSON to dir/report-<unix ms>.json and
// returns the path.
func SaveReport(dir string, r *models.SearchReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("report-%d.json", r.Timestamp.UnixMilli()))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Markdown renders r as a Markdown answer with a sources list, for
// tool-calling clients.
func Markdown(r *models.SearchReport) string {
	var b strings.Builder
	b.WriteString(r.Content)
	if len(r.Citations) > 0 {
		b.WriteString("\n\n## Sources\n")
		for i, c := range r.Citations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c)
		}
	}
	return b.String()
}
