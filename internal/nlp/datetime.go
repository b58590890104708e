package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/skawahara/yotei/internal/core"
)

// clockExpr matches a single clock time in the forms the corpus uses:
// "10時", "10時半", "10時30分", "10:30", with an optional 午前/午後-style
// period prefix. Submatch layout: period, hour, colon minutes, 半 flag,
// kanji minutes.
const clockExpr = `(?:(午前|午後|朝|夜|夕方|深夜) ?)?(\d{1,2})(?:[:：](\d{2})|時(半)?(?:(\d{1,2})分)?)`

const clockGroups = 5

var (
	timeRangeRe  = regexp.MustCompile(clockExpr + `(?:から|〜|~|-)` + clockExpr + `(?:まで)?`)
	singleTimeRe = regexp.MustCompile(clockExpr + `(?:から|まで)?`)

	dateYMDRe   = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	dateMDRe    = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)
	dateSlashRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
	daysAheadRe = regexp.MustCompile(`(\d{1,2})日後`)
	dayOnlyRe   = regexp.MustCompile(`(\d{1,2})日`)
	weekdayRe   = regexp.MustCompile(`(来週|今週)?の?([月火水木金土日])曜日?`)

	durationRe = regexp.MustCompile(`(\d{1,2})時間(半)?(?:(\d{1,2})分)?`)
)

var weekdayNames = map[string]time.Weekday{
	"月": time.Monday, "火": time.Tuesday, "水": time.Wednesday,
	"木": time.Thursday, "金": time.Friday, "土": time.Saturday,
	"日": time.Sunday,
}

// dateKind records which calendar unit a date expression referred to.
type dateKind int

const (
	dateNone dateKind = iota
	dateDay
	dateWeek
	dateMonth
)

// extractDate finds the date portion of the text and resolves it
// against now. First matching pattern wins; relative tokens are checked
// before numeric forms so that "明日" in "明日の10時" is never shadowed.
func extractDate(text string, now time.Time) (time.Time, dateKind) {
	day := func(t time.Time) (time.Time, dateKind) {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), dateDay
	}

	switch {
	case strings.Contains(text, "明々後日"):
		return day(now.AddDate(0, 0, 3))
	case strings.Contains(text, "明後日"):
		return day(now.AddDate(0, 0, 2))
	case strings.Contains(text, "明日"):
		return day(now.AddDate(0, 0, 1))
	case strings.Contains(text, "今日"):
		return day(now)
	case strings.Contains(text, "再来週"):
		return weekStart(now.AddDate(0, 0, 14)), dateWeek
	}

	if m := weekdayRe.FindStringSubmatch(text); m != nil {
		wd := weekdayNames[m[2]]
		switch m[1] {
		case "今週":
			return day(thisWeekday(now, wd))
		default:
			// 来週X曜日 and a bare weekday both mean the next
			// occurrence of that weekday.
			return day(nextWeekday(now, wd))
		}
	}

	switch {
	case strings.Contains(text, "来週"):
		return weekStart(now.AddDate(0, 0, 7)), dateWeek
	case strings.Contains(text, "今週"):
		return weekStart(now), dateWeek
	case strings.Contains(text, "来月"):
		y, m, _ := now.AddDate(0, 1, 0).Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), dateMonth
	case strings.Contains(text, "今月"):
		y, m, _ := now.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), dateMonth
	}

	if m := daysAheadRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return day(now.AddDate(0, 0, n))
	}
	if m := dateYMDRe.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, now.Location()), dateDay
	}
	if m := dateMDRe.FindStringSubmatch(text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		return monthDay(now, mo, d), dateDay
	}
	if m := dateSlashRe.FindStringSubmatch(text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		return monthDay(now, mo, d), dateDay
	}
	if m := dayOnlyRe.FindStringSubmatch(text); m != nil {
		d, _ := strconv.Atoi(m[1])
		y, mo, _ := now.Date()
		t := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
		if t.Before(startOfDay(now)) {
			// Past day of the current month means the next month.
			t = t.AddDate(0, 1, 0)
		}
		return t, dateDay
	}

	return startOfDay(now), dateNone
}

// monthDay resolves a month/day pair with future-preferring year
// inference: a date strictly before today is advanced by one year.
func monthDay(now time.Time, month, day int) time.Time {
	t := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	if t.Before(startOfDay(now)) {
		t = t.AddDate(1, 0, 0)
	}
	return t
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// weekStart returns Monday 00:00 of the week containing t.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t.AddDate(0, 0, -offset))
}

// nextWeekday returns the next occurrence of wd strictly after today.
func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	ahead := int(wd) - int(now.Weekday())
	if ahead <= 0 {
		ahead += 7
	}
	return now.AddDate(0, 0, ahead)
}

// thisWeekday returns wd within the current week, today included.
func thisWeekday(now time.Time, wd time.Weekday) time.Time {
	ahead := int(wd) - int(now.Weekday())
	if ahead < 0 {
		ahead += 7
	}
	return now.AddDate(0, 0, ahead)
}

// parseClock converts one clockExpr submatch group into hour/minute.
// off is the index of the period group within m.
func parseClock(m []string, off int) (hour, minute int) {
	hour, _ = strconv.Atoi(m[off+1])
	switch {
	case m[off+2] != "":
		minute, _ = strconv.Atoi(m[off+2])
	case m[off+3] != "":
		minute = 30
	case m[off+4] != "":
		minute, _ = strconv.Atoi(m[off+4])
	}
	switch m[off] {
	case "午後", "夜", "夕方":
		if hour < 12 {
			hour += 12
		}
	}
	return hour, minute
}

// findSingleTime locates the first standalone clock time, skipping
// duration expressions ("2時間" is a length, not two o'clock).
func findSingleTime(text string) ([]string, bool) {
	for _, idx := range singleTimeRe.FindAllStringSubmatchIndex(text, -1) {
		end := idx[1]
		if end < len(text) && strings.HasPrefix(text[end:], "間") {
			continue
		}
		m := make([]string, 0, 2*clockGroups)
		for g := 1; g <= clockGroups; g++ {
			if idx[2*g] < 0 {
				m = append(m, "")
			} else {
				m = append(m, text[idx[2*g]:idx[2*g+1]])
			}
		}
		return append([]string{text[idx[0]:idx[1]]}, m...), true
	}
	return nil, false
}

// ExtractRange resolves the time span a non-update message refers to.
// Priority order: relative whole-unit tokens, explicit date plus time
// range, explicit date plus single time, explicit date, time only, and
// finally today's full day. Never fails; a missing datetime for Add is
// the assembler's concern.
func ExtractRange(text string, now time.Time) core.TimeRange {
	r, _ := extractRange(text, now)
	return r
}

// extractRange additionally reports whether any date or time expression
// was recognized at all. "5月5日" alone is a recognized (full-day)
// datetime; a text with neither date nor time is not.
func extractRange(text string, now time.Time) (core.TimeRange, bool) {
	date, kind := extractDate(text, now)

	switch kind {
	case dateWeek:
		return core.TimeRange{
			Start:    date,
			End:      endOfDay(date.AddDate(0, 0, 6)),
			DateOnly: true,
		}, true
	case dateMonth:
		return core.TimeRange{
			Start:    date,
			End:      endOfDay(date.AddDate(0, 1, -1)),
			DateOnly: true,
		}, true
	}

	if m := timeRangeRe.FindStringSubmatch(text); m != nil {
		sh, sm := parseClock(m, 1)
		eh, em := parseClock(m, 1+clockGroups)
		start := date.Add(time.Duration(sh)*time.Hour + time.Duration(sm)*time.Minute)
		end := date.Add(time.Duration(eh)*time.Hour + time.Duration(em)*time.Minute)
		if !end.After(start) {
			// End time textually before the start means the event
			// spans midnight.
			end = end.AddDate(0, 0, 1)
		}
		return core.TimeRange{Start: start, End: end}, true
	}

	if m, ok := findSingleTime(text); ok {
		h, min := parseClock(m, 1)
		start := date.Add(time.Duration(h)*time.Hour + time.Duration(min)*time.Minute)
		return core.TimeRange{Start: start, End: start.Add(time.Hour)}, true
	}

	return core.TimeRange{Start: date, End: endOfDay(date), DateOnly: true}, kind != dateNone
}

// Update-mode patterns. The duration change ("2時間に変更") is a more
// specific signal than a bare clock time and is checked first.
var (
	durationChangeRe = regexp.MustCompile(`(\d{1,2})(時間|分)(半)?(?:(\d{1,2})分)?(?:間)?に(?:変更|する|して)`)
	newTimeRe        = regexp.MustCompile(clockExpr + `(?:から)?に(?:変更|移動|ずらし|ずらす|する|して)`)
	originalTimeRe   = regexp.MustCompile(clockExpr + `(?:から始まる|の予定|から|より|の|を|に)`)
)

// UpdateTimes carries the anchor of the event being moved plus exactly
// one of the two possible changes.
type UpdateTimes struct {
	OriginalStart time.Time
	OriginalEnd   time.Time
	// New start, zero when the change is a duration change
	NewStart time.Time
	// New length, 0 when the change is a start-time change
	NewDuration time.Duration
}

// ExtractUpdate resolves the original event anchor and the requested
// change from an update message. An update with no identifiable
// original time is meaningless and yields a MissingFieldError.
func ExtractUpdate(text string, now time.Time) (*UpdateTimes, error) {
	date, _ := extractDate(text, now)

	// Locate the change first so the original-time search can skip it:
	// in "15時に変更" the 15時 is the new time, not the anchor.
	var changeSpan []int
	var newStart time.Time
	var newDuration time.Duration

	if idx := durationChangeRe.FindStringSubmatchIndex(text); idx != nil {
		m := submatches(text, idx)
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "時間":
			newDuration = time.Duration(n) * time.Hour
			if m[3] != "" {
				newDuration += 30 * time.Minute
			}
			if m[4] != "" {
				extra, _ := strconv.Atoi(m[4])
				newDuration += time.Duration(extra) * time.Minute
			}
		default:
			newDuration = time.Duration(n) * time.Minute
		}
		changeSpan = idx[:2]
	} else if idx := newTimeRe.FindStringSubmatchIndex(text); idx != nil {
		m := submatches(text, idx)
		h, min := parseClock(m, 1)
		newStart = date.Add(time.Duration(h)*time.Hour + time.Duration(min)*time.Minute)
		changeSpan = idx[:2]
	} else {
		return nil, &MissingFieldError{Op: core.OpUpdate, Field: "new time or duration"}
	}

	var original time.Time
	found := false
	for _, idx := range originalTimeRe.FindAllStringSubmatchIndex(text, -1) {
		if changeSpan != nil && idx[0] < changeSpan[1] && idx[1] > changeSpan[0] {
			continue
		}
		m := submatches(text, idx)
		h, min := parseClock(m, 1)
		original = date.Add(time.Duration(h)*time.Hour + time.Duration(min)*time.Minute)
		found = true
		break
	}
	if !found {
		return nil, &MissingFieldError{Op: core.OpUpdate, Field: "original time"}
	}

	return &UpdateTimes{
		OriginalStart: original,
		OriginalEnd:   original.Add(time.Hour),
		NewStart:      newStart,
		NewDuration:   newDuration,
	}, nil
}

// submatches expands a FindStringSubmatchIndex result into strings,
// with "" for groups that did not participate.
func submatches(text string, idx []int) []string {
	m := make([]string, 0, len(idx)/2)
	for g := 0; g < len(idx)/2; g++ {
		if idx[2*g] < 0 {
			m = append(m, "")
		} else {
			m = append(m, text[idx[2*g]:idx[2*g+1]])
		}
	}
	return m
}

// relativeTokens are whole-unit date words removed by StripDateTime.
var relativeTokens = []string{
	"明々後日", "明後日", "明日", "今日", "昨日",
	"再来週", "来週", "今週", "今月", "来月",
}

// StripDateTime removes every recognized date and time substring from
// the text. The entity extractor applies it before falling back to the
// remaining words as a title.
func StripDateTime(text string) string {
	text = timeRangeRe.ReplaceAllString(text, "")
	text = durationChangeRe.ReplaceAllString(text, "")
	text = durationRe.ReplaceAllString(text, "")
	text = singleTimeRe.ReplaceAllString(text, "")
	text = dateYMDRe.ReplaceAllString(text, "")
	text = dateMDRe.ReplaceAllString(text, "")
	text = dateSlashRe.ReplaceAllString(text, "")
	text = daysAheadRe.ReplaceAllString(text, "")
	text = dayOnlyRe.ReplaceAllString(text, "")
	text = weekdayRe.ReplaceAllString(text, "")
	for _, tok := range relativeTokens {
		text = strings.ReplaceAll(text, tok, "")
	}
	return text
}
