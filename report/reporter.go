// Package report renders a browse Result for humans or machines and maps it
// to the process exit code.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/use-agent/surfer/models"
)

// ContentBanner separates the header lines from the page text.
const ContentBanner = "--- PAGE CONTENT ---"

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
)

// Write prints res to stdout (JSON or text) and problems to stderr, and
// returns the exit code: ExitOK when res carries no error.
func Write(stdout, stderr io.Writer, res *models.Result, jsonMode bool) int {
	if jsonMode {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "Error: encode result: %v\n", err)
			return ExitError
		}
	} else {
		writeText(stdout, stderr, res)
	}

	if res.OK() {
		return ExitOK
	}
	return ExitError
}

func writeText(stdout, stderr io.Writer, res *models.Result) {
	for _, w := range res.Warnings {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}
	if res.Error != nil {
		fmt.Fprintf(stderr, "Error: %s\n", *res.Error)
		return
	}

	fmt.Fprintf(stdout, "Title: %s\n", deref(res.Title))
	status := "unknown"
	if res.Status != nil {
		status = fmt.Sprint(*res.Status)
	}
	fmt.Fprintf(stdout, "Status: %s\n", status)
	if res.Screenshot != nil {
		fmt.Fprintf(stdout, "Screenshot: %s\n", *res.Screenshot)
	}
	fmt.Fprintf(stdout, "\n%s\n%s\n", ContentBanner, deref(res.Text))
}

// Navigating is the progress line shown before a text-mode run.
func Navigating(w io.Writer, url string) {
	fmt.Fprintf(w, "Navigating: %s\n", url)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
