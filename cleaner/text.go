package cleaner

import (
	"strings"
	"unicode/utf8"
)

// SectionSeparator joins the texts of selector-matched elements.
const SectionSeparator = "\n---\n"

// JoinSections trims every part, drops the ones left empty and joins the
// rest with SectionSeparator.
func JoinSections(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, SectionSeparator)
}

// Truncate returns the first max characters (runes) of s. It never splits
// a multi-byte character and is not word-boundary aware.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
