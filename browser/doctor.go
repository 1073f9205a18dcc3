package browser

import (
	"fmt"
	"io"
	"os"
)

// Finding is one line of the dependency report.
type Finding struct {
	OK      bool
	Message string
	Fix     string
}

// Check inspects the browser installation step by step and reports what
// it found. It never launches anything.
func (l *Locator) Check() []Finding {
	if l.Override != "" {
		if isFile(l.Override) {
			return []Finding{{OK: true, Message: "browser binary (override): " + l.Override}}
		}
		return []Finding{{
			Message: "configured browser binary not found: " + l.Override,
			Fix:     "unset SURFER_BROWSER_BIN or point it at an existing Chromium",
		}}
	}

	root, err := l.Root()
	if err != nil {
		return []Finding{{Message: err.Error(), Fix: InstallHint}}
	}
	if _, err := os.Stat(root); err != nil {
		return []Finding{{
			Message: "Playwright cache not found: " + root,
			Fix:     InstallHint,
		}}
	}

	dir, err := latestChromiumDir(root)
	if err != nil {
		return []Finding{{Message: "Chromium not installed in Playwright cache", Fix: InstallHint}}
	}
	findings := []Finding{{OK: true, Message: "Chromium found: " + dir}}

	bin, err := l.Locate()
	if err != nil {
		return append(findings, Finding{
			Message: "no Chromium executable for any known platform layout under " + dir,
			Fix:     InstallHint + " --force",
		})
	}
	return append(findings, Finding{OK: true, Message: fmt.Sprintf("executable (%s): %s", bin.Platform, bin.Path)})
}

// WriteFindings prints findings in the [OK]/[FAIL] format and reports
// whether all of them passed.
func WriteFindings(w io.Writer, findings []Finding) bool {
	ok := true
	for _, f := range findings {
		if f.OK {
			fmt.Fprintf(w, "  [OK] %s\n", f.Message)
			continue
		}
		ok = false
		fmt.Fprintf(w, "  [FAIL] %s\n", f.Message)
		if f.Fix != "" {
			fmt.Fprintf(w, "    Fix: %s\n", f.Fix)
		}
	}
	if ok {
		fmt.Fprintln(w, "\nAll dependencies OK.")
	} else {
		fmt.Fprintln(w, "\nSome dependencies missing. See above.")
	}
	return ok
}
