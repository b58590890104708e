package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*60*60)

// Wednesday, 2024-05-01 10:00 JST.
func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 10, 0, 0, 0, jst)
}

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, jst)
}

func TestExtractRange(t *testing.T) {
	now := fixedNow()

	tests := []struct {
		name      string
		text      string
		wantStart time.Time
		wantEnd   time.Time
		dateOnly  bool
	}{
		{
			name:      "explicit time range tomorrow",
			text:      "明日の15時から16時まで",
			wantStart: at(2024, 5, 2, 15, 0),
			wantEnd:   at(2024, 5, 2, 16, 0),
		},
		{
			name:      "single time defaults to one hour",
			text:      "明後日の10時に",
			wantStart: at(2024, 5, 3, 10, 0),
			wantEnd:   at(2024, 5, 3, 11, 0),
		},
		{
			name:      "afternoon prefix",
			text:      "午後3時",
			wantStart: at(2024, 5, 1, 15, 0),
			wantEnd:   at(2024, 5, 1, 16, 0),
		},
		{
			name:      "half past",
			text:      "明日の10時半から11時半",
			wantStart: at(2024, 5, 2, 10, 30),
			wantEnd:   at(2024, 5, 2, 11, 30),
		},
		{
			name:      "colon form",
			text:      "明日の13:15から14:45まで",
			wantStart: at(2024, 5, 2, 13, 15),
			wantEnd:   at(2024, 5, 2, 14, 45),
		},
		{
			name:      "range crossing midnight",
			text:      "今日の22時から2時まで",
			wantStart: at(2024, 5, 1, 22, 0),
			wantEnd:   at(2024, 5, 2, 2, 0),
		},
		{
			name:      "date only day",
			text:      "今日",
			wantStart: at(2024, 5, 1, 0, 0),
			wantEnd:   time.Date(2024, 5, 1, 23, 59, 59, 0, jst),
			dateOnly:  true,
		},
		{
			name:      "month day this year",
			text:      "5月5日",
			wantStart: at(2024, 5, 5, 0, 0),
			wantEnd:   time.Date(2024, 5, 5, 23, 59, 59, 0, jst),
			dateOnly:  true,
		},
		{
			name:      "past month day rolls to next year",
			text:      "3月3日",
			wantStart: at(2025, 3, 3, 0, 0),
			wantEnd:   time.Date(2025, 3, 3, 23, 59, 59, 0, jst),
			dateOnly:  true,
		},
		{
			name:      "slash date",
			text:      "6/10の14時",
			wantStart: at(2024, 6, 10, 14, 0),
			wantEnd:   at(2024, 6, 10, 15, 0),
		},
		{
			name:      "days ahead",
			text:      "3日後の9時",
			wantStart: at(2024, 5, 4, 9, 0),
			wantEnd:   at(2024, 5, 4, 10, 0),
		},
		{
			name:      "bare weekday means next occurrence",
			text:      "金曜日の15時",
			wantStart: at(2024, 5, 3, 15, 0),
			wantEnd:   at(2024, 5, 3, 16, 0),
		},
		{
			name:      "next week weekday",
			text:      "来週の月曜日",
			wantStart: at(2024, 5, 6, 0, 0),
			wantEnd:   time.Date(2024, 5, 6, 23, 59, 59, 0, jst),
			dateOnly:  true,
		},
		{
			name:      "next week spans monday to sunday",
			text:      "来週の予定",
			wantStart: at(2024, 5, 6, 0, 0),
			wantEnd:   time.Date(2024, 5, 12, 23, 59, 59, 0, jst),
			dateOnly:  true,
		},
		{
			name:      "this month spans whole month",
			text:      "今月の予定",
			wantStart: at(2024, 5, 1, 0, 0),
			wantEnd:   time.Date(2024, 5, 31, 23, 59, 59, 0, jst),
			dateOnly:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ExtractRange(Normalize(tt.text), now)
			assert.Equal(t, tt.wantStart, r.Start, "start")
			assert.Equal(t, tt.wantEnd, r.End, "end")
			assert.Equal(t, tt.dateOnly, r.DateOnly, "dateOnly")
		})
	}
}

func TestExtractRangeRecognized(t *testing.T) {
	now := fixedNow()

	r, ok := extractRange("明日", now)
	assert.True(t, ok, "a bare date is a recognized datetime")
	assert.True(t, r.DateOnly)

	r, ok = extractRange("会議を追加して", now)
	assert.False(t, ok, "no date and no time")
	assert.True(t, r.DateOnly)
	assert.Equal(t, at(2024, 5, 1, 0, 0), r.Start, "unrecognized still defaults to today")
}

func TestExtractUpdate(t *testing.T) {
	now := fixedNow()

	t.Run("move start time", func(t *testing.T) {
		up, err := ExtractUpdate(Normalize("明日の14時の会議を15時に変更して"), now)
		require.NoError(t, err)
		assert.Equal(t, at(2024, 5, 2, 14, 0), up.OriginalStart)
		assert.Equal(t, at(2024, 5, 2, 15, 0), up.OriginalEnd)
		assert.Equal(t, at(2024, 5, 2, 15, 0), up.NewStart)
		assert.Zero(t, up.NewDuration)
	})

	t.Run("change duration", func(t *testing.T) {
		up, err := ExtractUpdate(Normalize("14時の会議を2時間に変更して"), now)
		require.NoError(t, err)
		assert.Equal(t, at(2024, 5, 1, 14, 0), up.OriginalStart)
		assert.True(t, up.NewStart.IsZero())
		assert.Equal(t, 2*time.Hour, up.NewDuration)
	})

	t.Run("duration with half", func(t *testing.T) {
		up, err := ExtractUpdate(Normalize("10時の打ち合わせを1時間半にして"), now)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Minute, up.NewDuration)
	})

	t.Run("new time never doubles as original", func(t *testing.T) {
		_, err := ExtractUpdate(Normalize("15時に変更して"), now)
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "original time", missing.Field)
	})

	t.Run("no change requested", func(t *testing.T) {
		_, err := ExtractUpdate(Normalize("会議を変更して"), now)
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
	})
}

func TestStripDateTime(t *testing.T) {
	assert.Equal(t, "の会議", StripDateTime("明日の15時から16時まで会議"))
	assert.Equal(t, "の打ち合わせ", StripDateTime("5月5日の打ち合わせ"))
	assert.NotContains(t, StripDateTime("2時間の作業"), "2時間")
}
