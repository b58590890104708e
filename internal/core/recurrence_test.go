package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRRuleString(t *testing.T) {
	start := time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC)

	t.Run("weekly with weekday", func(t *testing.T) {
		wd := time.Tuesday
		s := Recurrence{Freq: FreqWeekly, Weekday: &wd}.RRuleString(start)
		assert.True(t, len(s) > 6 && s[:6] == "RRULE:")
		assert.Contains(t, s, "FREQ=WEEKLY")
		assert.Contains(t, s, "BYDAY=TU")
		assert.NotContains(t, s, "DTSTART", "the anchor lives on the event")
	})

	t.Run("daily with count", func(t *testing.T) {
		s := Recurrence{Freq: FreqDaily, Count: 10}.RRuleString(start)
		assert.Contains(t, s, "FREQ=DAILY")
		assert.Contains(t, s, "COUNT=10")
	})

	t.Run("biweekly", func(t *testing.T) {
		s := Recurrence{Freq: FreqWeekly, Interval: 2}.RRuleString(start)
		assert.Contains(t, s, "INTERVAL=2")
	})

	t.Run("monthly day", func(t *testing.T) {
		s := Recurrence{Freq: FreqMonthly, MonthDay: 15}.RRuleString(start)
		assert.Contains(t, s, "FREQ=MONTHLY")
		assert.Contains(t, s, "BYMONTHDAY=15")
	})
}

func TestRRuleOccurrences(t *testing.T) {
	start := time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC)
	rule, err := Recurrence{Freq: FreqDaily, Count: 3}.RRule(start)
	assert.NoError(t, err)

	all := rule.All()
	assert.Len(t, all, 3)
	assert.Equal(t, start, all[0])
	assert.Equal(t, start.AddDate(0, 0, 1), all[1])
}
