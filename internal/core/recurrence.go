package core

import (
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency of a recurring event.
type Frequency int

const (
	FreqDaily Frequency = iota
	FreqWeekly
	FreqMonthly
	FreqYearly
)

// Recurrence is a structured repeat rule extracted from a message.
// The zero Interval means 1.
type Recurrence struct {
	Freq     Frequency
	Interval int
	// Number of occurrences, 0 for unbounded
	Count int
	// Last occurrence date, zero for unbounded
	Until time.Time
	// For FreqWeekly: time.Weekday of the occurrence
	Weekday *time.Weekday
	// For FreqMonthly: day of month (1-31)
	MonthDay int
	// For FreqYearly: month of the occurrence
	Month time.Month
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// RRule converts the rule into an rrule anchored at start.
func (r Recurrence) RRule(start time.Time) (*rrule.RRule, error) {
	return rrule.NewRRule(r.roption(start))
}

// RRuleString renders the rule in iCalendar form ("RRULE:FREQ=..."),
// which is what the calendar backends accept verbatim. DTSTART is
// carried by the event itself, never by the rule.
func (r Recurrence) RRuleString(start time.Time) string {
	opt := r.roption(start)
	return "RRULE:" + opt.RRuleString()
}

func (r Recurrence) roption(start time.Time) rrule.ROption {
	opt := rrule.ROption{Dtstart: start}
	switch r.Freq {
	case FreqDaily:
		opt.Freq = rrule.DAILY
	case FreqWeekly:
		opt.Freq = rrule.WEEKLY
	case FreqMonthly:
		opt.Freq = rrule.MONTHLY
	case FreqYearly:
		opt.Freq = rrule.YEARLY
	}
	if r.Interval > 1 {
		opt.Interval = r.Interval
	}
	if r.Count > 0 {
		opt.Count = r.Count
	}
	if !r.Until.IsZero() {
		opt.Until = r.Until
	}
	if r.Weekday != nil {
		opt.Byweekday = []rrule.Weekday{rruleWeekdays[*r.Weekday]}
	}
	if r.MonthDay > 0 {
		opt.Bymonthday = []int{r.MonthDay}
	}
	if r.Month > 0 {
		opt.Bymonth = []int{int(r.Month)}
	}
	return opt
}
