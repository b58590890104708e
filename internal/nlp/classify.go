package nlp

import (
	"sort"
	"strings"

	"github.com/skawahara/yotei/internal/core"
)

// Keyword tables for operation classification. Literal phrases, not
// grammars; within a table longer phrases are checked first so that a
// short generic keyword cannot shadow a more specific one in the same
// sentence ("入れて" vs "予定を入れて").
var (
	addKeywords = []string{
		"予定を入れて", "予定を追加", "予定を登録", "予定を作って", "予定を設定",
		"予定を立てて", "予定を組んで", "予定に入れて", "予定に追加", "予定に登録",
		"スケジュールに入れて",
		"追加して", "登録して", "作成して", "設定して", "立てて", "組んで", "決めて",
		"入れて", "入れといて", "作って",
		"追加", "登録", "作成",
	}

	deleteKeywords = []string{
		"予定を消して", "予定を取り消して", "予定をキャンセル", "予定を削除",
		"予定を取りやめ", "予定を中止", "予定を破棄",
		"キャンセルして", "取り消して", "削除して", "中止して", "破棄して",
		"無効にして", "無効化して", "消して",
		"キャンセル", "取り消し", "取りやめ", "削除", "消去", "中止", "破棄",
		"やめとく", "やめときます", "やめときましょう", "いらない",
	}

	updateKeywords = []string{
		"時間変更", "予定をずらして", "予定を後ろ倒し", "予定を前倒し",
		"リスケジュール", "リスケ", "ずらして", "ずらす", "後ろ倒し", "前倒し",
		"変更", "修正", "調整", "更新", "移動",
	}

	readKeywords = []string{
		"予定を教えて", "予定を確認", "予定を見せて", "予定を表示", "予定一覧",
		"スケジュールを教えて", "スケジュールを確認", "スケジュールを見せて",
		"スケジュール一覧",
		"何がある", "何が入ってる", "空いてる", "予定ある", "予定入ってる",
		"予定は", "スケジュールは", "予定を", "スケジュールを",
		"予定", "スケジュール",
	}

	// An update keyword alone is not enough: delete and read phrases share
	// roots with several of them, so updates additionally require the
	// change marker.
	updateMarkers = []string{"変更"}

	// Read phrases that also contain one of these are not reads
	// ("予定を変更" must not classify as read via "予定を").
	readExclusions = []string{"変更", "リスケ", "ずらす"}
)

// Classifier maps normalized message text to an operation using ordered
// keyword tables. Tables are fixed at construction; there is no mutable
// state, so a single Classifier is safe for concurrent use.
type Classifier struct {
	add, del, update, read []string
}

// NewClassifier builds a classifier over the default keyword tables.
func NewClassifier() *Classifier {
	return &Classifier{
		add:    sortByLength(addKeywords),
		del:    sortByLength(deleteKeywords),
		update: sortByLength(updateKeywords),
		read:   sortByLength(readKeywords),
	}
}

// Classify runs the precedence cascade: Update > Delete > Add > Read.
// First match wins regardless of keyword position in the text. It
// returns OpUnknown when nothing matched; the caller may still apply
// the datetime+title fallback before giving up.
func (c *Classifier) Classify(text string) core.Operation {
	if matchKeyword(text, c.update) != "" && matchAny(text, updateMarkers) {
		return core.OpUpdate
	}
	if matchKeyword(text, c.del) != "" {
		return core.OpDelete
	}
	if matchKeyword(text, c.add) != "" {
		return core.OpAdd
	}
	if matchKeyword(text, c.read) != "" && !matchAny(text, readExclusions) {
		return core.OpRead
	}
	return core.OpUnknown
}

// matchKeyword returns the first (longest) table phrase contained in
// the text, or "".
func matchKeyword(text string, table []string) string {
	for _, kw := range table {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

func matchAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func sortByLength(words []string) []string {
	sorted := make([]string, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	return sorted
}
