package nlp

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Colloquial spellings folded to the canonical forms the pattern tables
// use. Checked in order, longer phrases first, so that あさって is not
// partially rewritten by a shorter entry.
var synonyms = []struct {
	from, to string
}{
	{"しあさって", "明々後日"},
	{"あさって", "明後日"},
	{"あした", "明日"},
	{"あす", "明日"},
	{"きょう", "今日"},
	{"きのう", "昨日"},
	{"らいしゅう", "来週"},
	{"こんしゅう", "今週"},
	{"らいげつ", "来月"},
	{"こんげつ", "今月"},
	{"よてい", "予定"},
}

// Normalize canonicalizes raw message text before any pattern matching:
// full-width ASCII is folded to half-width, half-width katakana to
// full-width, full-width spaces to plain spaces, and colloquial date
// words to their kanji forms. Deterministic, total, and idempotent.
func Normalize(text string) string {
	// width.Fold maps each rune to its canonical width (２→2, ｶ→カ) but
	// leaves voiced-sound marks as combining runes; NFKC composes them
	// back into precomposed kana (ク+゛→グ) so keyword matching works.
	text = norm.NFKC.String(width.Fold.String(text))
	text = strings.ReplaceAll(text, "　", " ")
	for _, s := range synonyms {
		text = strings.ReplaceAll(text, s.from, s.to)
	}
	return strings.TrimSpace(text)
}
