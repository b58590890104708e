package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skawahara/yotei/internal/core"
)

func testParser() *Parser {
	return NewParser(WithLocation(jst), WithClock(fixedNow))
}

func TestParseAdd(t *testing.T) {
	cmd, err := testParser().Parse("明日の15時から16時まで会議を追加して")
	require.NoError(t, err)

	assert.Equal(t, core.OpAdd, cmd.Op)
	assert.Equal(t, at(2024, 5, 2, 15, 0), cmd.Range.Start)
	assert.Equal(t, at(2024, 5, 2, 16, 0), cmd.Range.End)
	assert.False(t, cmd.Range.DateOnly)
	assert.Equal(t, "会議", cmd.Title)
}

func TestParseAddFullDay(t *testing.T) {
	cmd, err := testParser().Parse("5月5日に誕生日を追加して")
	require.NoError(t, err)

	assert.Equal(t, core.OpAdd, cmd.Op)
	assert.True(t, cmd.Range.DateOnly)
	assert.Equal(t, at(2024, 5, 5, 0, 0), cmd.Range.Start)
	assert.Equal(t, "誕生日", cmd.Title)
}

func TestParseAddMissingFields(t *testing.T) {
	t.Run("no datetime", func(t *testing.T) {
		_, err := testParser().Parse("会議を追加して")
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "datetime", missing.Field)
	})

	t.Run("no title", func(t *testing.T) {
		_, err := testParser().Parse("明日予定を追加して")
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "title", missing.Field)
	})
}

func TestParseRead(t *testing.T) {
	cmd, err := testParser().Parse("今日の予定を教えて")
	require.NoError(t, err)

	assert.Equal(t, core.OpRead, cmd.Op)
	assert.True(t, cmd.Range.DateOnly)
	assert.Equal(t, at(2024, 5, 1, 0, 0), cmd.Range.Start)
	assert.Empty(t, cmd.Title, "reads carry no entities")
}

func TestParseDelete(t *testing.T) {
	cmd, err := testParser().Parse("明日の会議を削除して")
	require.NoError(t, err)

	assert.Equal(t, core.OpDelete, cmd.Op)
	assert.Equal(t, "会議", cmd.Title)
	assert.Equal(t, at(2024, 5, 2, 0, 0), cmd.Range.Start)
}

func TestParseDeleteNeedsDatetime(t *testing.T) {
	// An unscoped delete must never default to today's full day.
	_, err := testParser().Parse("会議を削除して")
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, core.OpDelete, missing.Op)
	assert.Equal(t, "datetime", missing.Field)
}

func TestParseUpdate(t *testing.T) {
	cmd, err := testParser().Parse("明日の14時の会議を15時に変更して")
	require.NoError(t, err)

	assert.Equal(t, core.OpUpdate, cmd.Op)
	require.NotNil(t, cmd.Update)
	assert.Equal(t, at(2024, 5, 2, 14, 0), cmd.Update.OriginalStart)
	assert.Equal(t, at(2024, 5, 2, 15, 0), cmd.Update.NewStart)
	assert.Equal(t, "会議", cmd.Title)
}

func TestParseFallbackAdd(t *testing.T) {
	// No operation keyword, but a clear datetime and title.
	cmd, err := testParser().Parse("明日15時に歯医者")
	require.NoError(t, err)

	assert.Equal(t, core.OpAdd, cmd.Op)
	assert.Equal(t, at(2024, 5, 2, 15, 0), cmd.Range.Start)
	assert.Equal(t, "歯医者", cmd.Title)
}

func TestParseUnknown(t *testing.T) {
	_, err := testParser().Parse("こんにちは")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestParseNormalizesInput(t *testing.T) {
	cmd, err := testParser().Parse("あしたの１５時から１６時まで会議を追加して")
	require.NoError(t, err)
	assert.Equal(t, at(2024, 5, 2, 15, 0), cmd.Range.Start)
}

func TestParseRecurring(t *testing.T) {
	cmd, err := testParser().Parse("毎週火曜日の10時に定例会議を追加して")
	require.NoError(t, err)

	assert.Equal(t, core.OpAdd, cmd.Op)
	require.NotNil(t, cmd.Recurrence)
	assert.Equal(t, core.FreqWeekly, cmd.Recurrence.Freq)
	// The range anchors the first occurrence.
	assert.Equal(t, time.Tuesday, cmd.Range.Start.Weekday())
}
