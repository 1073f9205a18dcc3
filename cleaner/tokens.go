package cleaner

import "unicode/utf8"

// EstimateTokens approximates the LLM token count of text as rune count / 3.
// English averages ~4 chars/token and CJK ~1.5, so this slightly
// over-estimates mixed content.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}
