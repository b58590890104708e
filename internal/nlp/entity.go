package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/skawahara/yotei/internal/core"
)

// Entities is everything a message says about an event besides its time.
type Entities struct {
	Title      string
	Location   string
	Person     string
	Recurrence *core.Recurrence
}

// An explicit bracketed phrase is always the title, verbatim. Full-width
// ASCII brackets are already folded to half-width by Normalize.
var bracketTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`「([^」]+)」`),
	regexp.MustCompile(`『([^』]+)』`),
	regexp.MustCompile(`【([^】]+)】`),
	regexp.MustCompile(`\[([^\]]+)\]`),
	regexp.MustCompile(`\(([^)]+)\)`),
}

// Location patterns, label-anchored forms first. The bare ～で form is
// restricted to kanji/katakana runs so that grammatical で (まで, 並んで)
// cannot produce a match.
var locationRes = []*regexp.Regexp{
	regexp.MustCompile(`場所[::]? ?は?([^\s。、をにはがで]+)`),
	regexp.MustCompile(`会場[::]? ?は?([^\s。、をにはがで]+)`),
	regexp.MustCompile(`@([^\s@。、]+)`),
	regexp.MustCompile(`([\p{Han}\p{Katakana}ー]{2,})にて`),
	regexp.MustCompile(`([\p{Han}\p{Katakana}ー]{2,})で`),
}

// Person patterns: the explicit 参加者 label wins, then an honorific
// suffix next to a connective particle.
var personRes = []*regexp.Regexp{
	regexp.MustCompile(`参加者[::]? ?は? ?([^\s。、]+)`),
	regexp.MustCompile(`([\p{Han}\p{Katakana}ーA-Za-z]{1,10}?)(?:さん|様|先生|くん|君)(?:と|も|が|は|の|、|$)`),
}

// Generic schedule words are never a useful location or person.
var entityStopWords = map[string]bool{
	"予定":     true,
	"スケジュール": true,
}

// Trailing command suffixes stripped repeatedly from a fallback title,
// longest first.
var titleSuffixes = []string{
	"お願いします", "してください", "しておいて", "してほしい", "してお願い",
	"ください", "お願い", "して", "ほしい",
	"を追加", "を登録", "を作成", "を入れて", "を入れ", "を作って",
	"を消して", "を削除", "をキャンセル", "を取り消して", "を変更", "を教えて",
	"追加", "登録", "作成", "削除", "変更", "確認", "教えて", "表示",
	"の予定", "予定を", "予定の", "予定は", "予定に", "予定",
	"スケジュール",
	"の", "を", "に", "は", "で", "と", "から", "まで",
}

// Leading particles left behind once datetime substrings are removed
// ("明日の会議" loses 明日 and keeps the の).
const leadingParticles = "のをにはでとへ 、。"

var recurrenceRes = []struct {
	re    *regexp.Regexp
	build func(m []string) core.Recurrence
}{
	{regexp.MustCompile(`毎日`), func(m []string) core.Recurrence {
		return core.Recurrence{Freq: core.FreqDaily}
	}},
	{regexp.MustCompile(`(\d{1,2})日ごと`), func(m []string) core.Recurrence {
		n, _ := strconv.Atoi(m[1])
		return core.Recurrence{Freq: core.FreqDaily, Interval: n}
	}},
	{regexp.MustCompile(`毎週([月火水木金土日])曜日?`), func(m []string) core.Recurrence {
		wd := weekdayNames[m[1]]
		return core.Recurrence{Freq: core.FreqWeekly, Weekday: &wd}
	}},
	{regexp.MustCompile(`(\d{1,2})週間ごと`), func(m []string) core.Recurrence {
		n, _ := strconv.Atoi(m[1])
		return core.Recurrence{Freq: core.FreqWeekly, Interval: n}
	}},
	{regexp.MustCompile(`毎月(\d{1,2})日`), func(m []string) core.Recurrence {
		d, _ := strconv.Atoi(m[1])
		return core.Recurrence{Freq: core.FreqMonthly, MonthDay: d}
	}},
	{regexp.MustCompile(`(\d{1,2})ヶ月ごと`), func(m []string) core.Recurrence {
		n, _ := strconv.Atoi(m[1])
		return core.Recurrence{Freq: core.FreqMonthly, Interval: n}
	}},
	{regexp.MustCompile(`毎年(\d{1,2})月(\d{1,2})日`), func(m []string) core.Recurrence {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		return core.Recurrence{Freq: core.FreqYearly, Month: time.Month(mo), MonthDay: d}
	}},
}

var (
	recurCountRe = regexp.MustCompile(`(\d{1,3})回`)
	recurUntilRe = regexp.MustCompile(`(?:(\d{4})年)?(\d{1,2})月(\d{1,2})日まで`)
)

// ExtractEntities pulls title, location, person, and recurrence out of
// normalized text. Order matters: a later extractor must not re-claim
// text already attributed to an earlier one. Read operations carry none
// of these fields, so they are skipped entirely.
func ExtractEntities(text string, op core.Operation, now time.Time) Entities {
	if op == core.OpRead {
		return Entities{}
	}

	var ent Entities

	// 1. Bracketed title, verbatim.
	var bracketSpan string
	for _, re := range bracketTitleRes {
		if m := re.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
			ent.Title = strings.TrimSpace(m[1])
			bracketSpan = m[0]
			break
		}
	}

	// Datetime and recurrence substrings are already attributed;
	// removing them first keeps "明日田中さんと" from yielding 明日田中
	// as a person and "毎週" out of fallback titles. Recurrence goes
	// first because its patterns embed weekday names.
	searchable := StripDateTime(stripRecurrence(strings.Replace(text, bracketSpan, "", 1)))

	// 2. Location, rejected when it merely repeats the title.
	var locationSpan string
	for _, re := range locationRes {
		if m := re.FindStringSubmatch(searchable); m != nil {
			loc := strings.TrimSpace(m[1])
			if loc != "" && loc != ent.Title && !entityStopWords[loc] {
				ent.Location = loc
				locationSpan = m[0]
				break
			}
		}
	}

	// 3. Person, same ambiguity rule.
	var personSpan string
	for _, re := range personRes {
		if m := re.FindStringSubmatch(searchable); m != nil {
			p := strings.TrimSpace(m[1])
			if p != "" && p != ent.Title && p != ent.Location && !entityStopWords[p] {
				ent.Person = p
				personSpan = m[0]
				break
			}
		}
	}

	// 4. Title fallback: whatever survives removing datetime, location,
	// person, and command phrasing.
	if ent.Title == "" {
		rest := searchable
		if locationSpan != "" {
			rest = strings.Replace(rest, locationSpan, "", 1)
		}
		if personSpan != "" {
			rest = strings.Replace(rest, personSpan, "", 1)
		}
		ent.Title = fallbackTitle(rest)
	}

	// 5. Recurrence is an independent pattern set.
	ent.Recurrence = extractRecurrence(text, now)

	return ent
}

// fallbackTitle strips trailing command suffixes repeatedly and trims
// stray particles. An empty remainder means no title.
func fallbackTitle(rest string) string {
	rest = strings.TrimSpace(rest)
	for {
		trimmed := strings.TrimSpace(rest)
		for _, suffix := range titleSuffixes {
			trimmed = strings.TrimSuffix(trimmed, suffix)
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == rest {
			break
		}
		rest = trimmed
	}
	rest = strings.TrimLeft(rest, leadingParticles)
	return strings.TrimSpace(rest)
}

func stripRecurrence(text string) string {
	for _, p := range recurrenceRes {
		text = p.re.ReplaceAllString(text, "")
	}
	return recurCountRe.ReplaceAllString(text, "")
}

func extractRecurrence(text string, now time.Time) *core.Recurrence {
	for _, p := range recurrenceRes {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		rec := p.build(m)
		if c := recurCountRe.FindStringSubmatch(text); c != nil {
			rec.Count, _ = strconv.Atoi(c[1])
		}
		if u := recurUntilRe.FindStringSubmatch(text); u != nil {
			year := now.Year()
			if u[1] != "" {
				year, _ = strconv.Atoi(u[1])
			}
			mo, _ := strconv.Atoi(u[2])
			d, _ := strconv.Atoi(u[3])
			rec.Until = time.Date(year, time.Month(mo), d, 23, 59, 59, 0, now.Location())
		}
		return &rec
	}
	return nil
}
