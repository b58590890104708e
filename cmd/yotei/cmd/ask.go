package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skawahara/yotei/internal/logging"
	"github.com/skawahara/yotei/internal/util"
)

var askCmd = &cobra.Command{
	Use:   "ask <日本語の指示>",
	Short: "Run one calendar request and print the result",
	Long: `Run a single natural-language calendar request.

Examples:
  yotei ask "明日の15時から16時まで会議を追加して"
  yotei ask "今日の予定を教えて"
  yotei ask "明日の会議を削除して"
  yotei ask "金曜の打ち合わせを14時に変更して"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var askDryRun bool

func init() {
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "parse only; print the interpreted command without touching the calendar")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	parsed, err := newParser().Parse(text)
	if err != nil {
		fmt.Println(util.ParseErrorMessage(err))
		return nil
	}

	if askDryRun {
		fmt.Println(util.FormatCommand(parsed))
		return nil
	}

	res := newEngine().Execute(cmd.Context(), parsed)
	fmt.Println(util.FormatResult(res))

	if !res.OK && res.Err != nil {
		logger.Error("request failed", logging.Err(res.Err))
	}
	return nil
}
