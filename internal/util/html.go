package util

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// Event descriptions come back as HTML fragments: Outlook bodies are
// HTML even when created as text, and Google descriptions carry markup
// when edited in the web UI. These patterns cover what those two
// sources actually emit.
var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	htmlBreakRe = regexp.MustCompile(`(?i)<br\s*/?\s*>|</?(?:p|div|h[1-6]|blockquote|tr)(?:\s[^>]*)?\s*>`)
	listItemRe  = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?\s*>`)
	anchorRe    = regexp.MustCompile(`(?i)<a\s[^>]*href\s*=\s*["']([^"']*)["'][^>]*>`)
	anchorEndRe = regexp.MustCompile(`(?i)</a\s*>`)
	spaceRunRe  = regexp.MustCompile(`[^\S\n]+`)
	blankRunRe  = regexp.MustCompile(`\n{2,}`)
)

// HTMLToText flattens an event body into plain terminal text. Anchors
// become OSC 8 hyperlinks with their text truncated to linkWidth runes,
// list items become ・ bullets, and everything else collapses to single
// lines.
func HTMLToText(s string, linkWidth int) string {
	if s == "" {
		return s
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = htmlBreakRe.ReplaceAllString(s, "\n")
	s = listItemRe.ReplaceAllString(s, "\n・")
	s = renderAnchors(s, linkWidth)
	s = htmlTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	s = spaceRunRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// renderAnchors turns each <a href=...>text</a> into a clickable
// hyperlink. An anchor with no closing tag is stripped and its href
// dropped rather than guessed at.
func renderAnchors(s string, linkWidth int) string {
	for {
		open := anchorRe.FindStringSubmatchIndex(s)
		if open == nil {
			return s
		}
		href := unwrapGoogleRedirect(s[open[2]:open[3]])

		rest := s[open[1]:]
		end := anchorEndRe.FindStringIndex(rest)
		if end == nil {
			s = s[:open[0]] + rest
			continue
		}

		label := strings.TrimSpace(htmlTagRe.ReplaceAllString(rest[:end[0]], ""))
		if label == "" {
			label = href
		}
		s = s[:open[0]] + Hyperlink(href, Truncate(label, linkWidth)) + rest[end[1]:]
	}
}

// unwrapGoogleRedirect resolves the www.google.com/url?q= wrapper that
// Google Calendar puts around URLs in descriptions.
func unwrapGoogleRedirect(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Host == "www.google.com" && u.Path == "/url" {
		if q := u.Query().Get("q"); q != "" {
			return q
		}
	}
	return rawURL
}
