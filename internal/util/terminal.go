package util

import "fmt"

// Hyperlink wraps displayText in an OSC 8 escape so terminals render it
// as a clickable link instead of the raw URL. Terminated with BEL, which
// more emulators accept than ST.
func Hyperlink(url, displayText string) string {
	return fmt.Sprintf("\033]8;;%s\a%s\033]8;;\a", url, displayText)
}

// Truncate cuts s to max runes, marking the cut with "…". Rune-based so
// multibyte Japanese text is never split mid-character. max <= 0 means
// no limit.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
