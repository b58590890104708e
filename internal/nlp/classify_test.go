package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skawahara/yotei/internal/core"
)

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		text string
		want core.Operation
	}{
		// Add
		{"明日の15時から16時まで会議を追加して", core.OpAdd},
		{"来週の月曜に打ち合わせの予定を入れて", core.OpAdd},
		{"ランチを登録して", core.OpAdd},

		// Delete
		{"明日の会議を削除して", core.OpDelete},
		{"15時の予定をキャンセル", core.OpDelete},
		{"打ち合わせを取り消して", core.OpDelete},
		{"明日の飲み会はやめとく", core.OpDelete},

		// Update needs both a keyword and the change marker
		{"明日の14時の会議を15時に変更して", core.OpUpdate},
		{"打ち合わせの時間変更をお願いします", core.OpUpdate},

		// Read
		{"今日の予定を教えて", core.OpRead},
		{"明日何がある?", core.OpRead},
		{"来週のスケジュールを確認", core.OpRead},
		{"金曜日空いてる?", core.OpRead},

		// Unknown
		{"こんにちは", core.OpUnknown},
		{"ありがとうございました", core.OpUnknown},
		// リスケ alone lacks the 変更 marker, and the read exclusion
		// keeps 予定を from turning it into a read.
		{"明日の予定をリスケして", core.OpUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(Normalize(tt.text)), "text: %s", tt.text)
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	c := NewClassifier()

	// 変更 outranks the add and read phrases in the same sentence.
	assert.Equal(t, core.OpUpdate, c.Classify("15時の予定を16時に変更して"))

	// 削除 outranks the read phrase.
	assert.Equal(t, core.OpDelete, c.Classify("明日の予定を削除して"))
}
