package util

import (
	"errors"

	"github.com/skawahara/yotei/internal/core"
	"github.com/skawahara/yotei/internal/nlp"
)

// ParseErrorMessage turns a parse failure into guidance the user can act
// on. Always a polite clarification request, never a stack of causes.
func ParseErrorMessage(err error) string {
	var missing *nlp.MissingFieldError
	if errors.As(err, &missing) {
		switch {
		case missing.Op == core.OpAdd && missing.Field == "datetime":
			return "いつの予定か分かりませんでした。「明日の15時に会議を追加して」のように日時を入れてください。"
		case missing.Op == core.OpAdd && missing.Field == "title":
			return "何の予定か分かりませんでした。「明日の15時に会議を追加して」のように予定名を入れてください。"
		case missing.Op == core.OpDelete && missing.Field == "datetime":
			return "いつの予定を削除するか分かりませんでした。「明日の会議を削除して」のように日時を入れてください。"
		case missing.Op == core.OpUpdate:
			return "どの予定をいつに変更するか分かりませんでした。「明日の14時の会議を15時に変更して」のように指定してください。"
		}
	}

	if errors.Is(err, nlp.ErrUnknownOperation) {
		return "ご要望を理解できませんでした。予定の追加・削除・変更・確認ができます。「明日の予定を教えて」のように話しかけてください。"
	}

	return "うまく読み取れませんでした。もう一度別の言い方で試してください。"
}
