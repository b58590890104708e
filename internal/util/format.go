package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/skawahara/yotei/internal/core"
	"github.com/skawahara/yotei/internal/nlp"
)

var jaWeekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// FormatDate renders a date as "5月2日(金)".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d月%d日(%s)", int(t.Month()), t.Day(), jaWeekdays[t.Weekday()])
}

// FormatTimeRange renders "15:00〜16:00", prefixing the end date when the
// range crosses midnight.
func FormatTimeRange(start, end time.Time) string {
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return fmt.Sprintf("%s〜%s", start.Format("15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s〜%s %s", start.Format("15:04"), FormatDate(end), end.Format("15:04"))
}

// FormatDuration renders a duration as "2時間30分".
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d時間%d分", h, m)
	case h > 0:
		return fmt.Sprintf("%d時間", h)
	default:
		return fmt.Sprintf("%d分", m)
	}
}

// FormatEvent renders one event on a single line.
func FormatEvent(ev core.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s", FormatDate(ev.Start), FormatTimeRange(ev.Start, ev.End), ev.Title)
	if ev.Location != "" {
		fmt.Fprintf(&b, " @%s", ev.Location)
	}
	return b.String()
}

var opLabels = map[core.Operation]string{
	core.OpAdd:    "追加",
	core.OpDelete: "削除",
	core.OpUpdate: "変更",
	core.OpRead:   "確認",
}

// FormatCommand renders a parsed command for dry-run output: what would
// be done, without doing it.
func FormatCommand(cmd *nlp.ParsedCommand) string {
	var b strings.Builder
	fmt.Fprintf(&b, "操作: %s", opLabels[cmd.Op])

	if cmd.Op == core.OpUpdate && cmd.Update != nil {
		up := cmd.Update
		fmt.Fprintf(&b, "\n対象: %s %s", FormatDate(up.OriginalStart), up.OriginalStart.Format("15:04"))
		if !up.NewStart.IsZero() {
			fmt.Fprintf(&b, "\n変更後: %s %s", FormatDate(up.NewStart), up.NewStart.Format("15:04"))
		} else {
			fmt.Fprintf(&b, "\n変更後の長さ: %s", FormatDuration(up.NewDuration))
		}
	} else if cmd.Range.DateOnly {
		fmt.Fprintf(&b, "\n日時: %s (終日)", FormatDate(cmd.Range.Start))
	} else {
		fmt.Fprintf(&b, "\n日時: %s %s", FormatDate(cmd.Range.Start), FormatTimeRange(cmd.Range.Start, cmd.Range.End))
	}

	if cmd.Title != "" {
		fmt.Fprintf(&b, "\n予定名: %s", cmd.Title)
	}
	if cmd.Location != "" {
		fmt.Fprintf(&b, "\n場所: %s", cmd.Location)
	}
	if cmd.Person != "" {
		fmt.Fprintf(&b, "\n参加者: %s", cmd.Person)
	}
	if cmd.Recurrence != nil {
		fmt.Fprintf(&b, "\n繰り返し: %s", cmd.Recurrence.RRuleString(cmd.Range.Start))
	}
	return b.String()
}

// FormatResult renders an operation result for the terminal: the summary
// message followed by matched events and free slots, one per line.
func FormatResult(res core.Result) string {
	var b strings.Builder
	b.WriteString(res.Message)

	for _, ev := range res.Events {
		b.WriteString("\n  • ")
		b.WriteString(FormatEvent(ev))
		if desc := strings.TrimSpace(HTMLToText(ev.Description, 60)); desc != "" {
			b.WriteString("\n    ")
			b.WriteString(Truncate(strings.ReplaceAll(desc, "\n", " / "), 60))
		}
	}

	if len(res.Slots) > 0 {
		b.WriteString("\n空き時間:")
		for _, slot := range res.Slots {
			fmt.Fprintf(&b, "\n  ◦ %s (%s)", FormatTimeRange(slot.Start, slot.End), FormatDuration(slot.Duration))
		}
	}

	return b.String()
}
