package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "full-width digits folded",
			in:   "１５時から１６時",
			want: "15時から16時",
		},
		{
			name: "full-width colon and space",
			in:   "１０：３０　打ち合わせ",
			want: "10:30 打ち合わせ",
		},
		{
			name: "hiragana date words",
			in:   "あしたの予定",
			want: "明日の予定",
		},
		{
			name: "longer synonym wins",
			in:   "しあさっての予定",
			want: "明々後日の予定",
		},
		{
			name: "half-width katakana widened",
			in:   "ﾐｰﾃｨﾝｸﾞ",
			want: "ミーティング",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  きょうの予定  ",
			want: "今日の予定",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)

			// Normalization must be idempotent.
			assert.Equal(t, got, Normalize(got))
		})
	}
}
