package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skawahara/yotei/internal/core"
)

func TestExtractEntitiesTitle(t *testing.T) {
	now := fixedNow()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "fallback after stripping datetime and command",
			text: "明日の15時から16時まで会議を追加して",
			want: "会議",
		},
		{
			name: "bracketed title verbatim",
			text: "「企画レビュー」を明日14時に入れて",
			want: "企画レビュー",
		},
		{
			name: "square brackets after width folding",
			text: "明日１４時に［四半期報告］を追加",
			want: "四半期報告",
		},
		{
			name: "polite request suffixes stripped",
			text: "明日の10時に歯医者の予定を入れてください",
			want: "歯医者",
		},
		{
			name: "no title left",
			text: "明日予定を追加して",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent := ExtractEntities(Normalize(tt.text), core.OpAdd, now)
			assert.Equal(t, tt.want, ent.Title)
		})
	}
}

func TestExtractEntitiesLocation(t *testing.T) {
	now := fixedNow()

	tests := []struct {
		name      string
		text      string
		wantLoc   string
		wantTitle string
	}{
		{
			name:      "explicit label",
			text:      "明日13時に打ち合わせを追加 場所:会議室A",
			wantLoc:   "会議室A",
			wantTitle: "打ち合わせ",
		},
		{
			name:      "at sign",
			text:      "明日13時にランチを追加@恵比寿",
			wantLoc:   "恵比寿",
			wantTitle: "ランチ",
		},
		{
			name:      "de particle after a place word",
			text:      "明日15時に渋谷で打ち合わせを追加",
			wantLoc:   "渋谷",
			wantTitle: "打ち合わせ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent := ExtractEntities(Normalize(tt.text), core.OpAdd, now)
			assert.Equal(t, tt.wantLoc, ent.Location)
			assert.Equal(t, tt.wantTitle, ent.Title)
		})
	}
}

func TestExtractEntitiesPerson(t *testing.T) {
	now := fixedNow()

	ent := ExtractEntities(Normalize("明日の15時に田中さんと打ち合わせを追加して"), core.OpAdd, now)
	assert.Equal(t, "田中", ent.Person)
	assert.Equal(t, "打ち合わせ", ent.Title)

	// The date word must never be glued onto the name.
	ent = ExtractEntities(Normalize("明日田中さんとランチを追加"), core.OpAdd, now)
	assert.Equal(t, "田中", ent.Person)
	assert.Equal(t, "ランチ", ent.Title)
}

func TestExtractEntitiesRecurrence(t *testing.T) {
	now := fixedNow()

	t.Run("weekly", func(t *testing.T) {
		ent := ExtractEntities(Normalize("毎週火曜日に定例会議を追加して"), core.OpAdd, now)
		require.NotNil(t, ent.Recurrence)
		assert.Equal(t, core.FreqWeekly, ent.Recurrence.Freq)
		require.NotNil(t, ent.Recurrence.Weekday)
		assert.Equal(t, time.Tuesday, *ent.Recurrence.Weekday)
		assert.Equal(t, "定例会議", ent.Title, "recurrence words stay out of the title")
	})

	t.Run("daily with count", func(t *testing.T) {
		ent := ExtractEntities(Normalize("毎日9時にラジオ体操を追加 10回"), core.OpAdd, now)
		require.NotNil(t, ent.Recurrence)
		assert.Equal(t, core.FreqDaily, ent.Recurrence.Freq)
		assert.Equal(t, 10, ent.Recurrence.Count)
	})

	t.Run("interval", func(t *testing.T) {
		ent := ExtractEntities(Normalize("2週間ごとに1on1を追加して"), core.OpAdd, now)
		require.NotNil(t, ent.Recurrence)
		assert.Equal(t, core.FreqWeekly, ent.Recurrence.Freq)
		assert.Equal(t, 2, ent.Recurrence.Interval)
	})

	t.Run("none", func(t *testing.T) {
		ent := ExtractEntities(Normalize("明日の15時に会議を追加して"), core.OpAdd, now)
		assert.Nil(t, ent.Recurrence)
	})
}

func TestExtractEntitiesReadSkipsAll(t *testing.T) {
	ent := ExtractEntities(Normalize("今日の予定を教えて"), core.OpRead, fixedNow())
	assert.Empty(t, ent.Title)
	assert.Empty(t, ent.Location)
	assert.Empty(t, ent.Person)
	assert.Nil(t, ent.Recurrence)
}
