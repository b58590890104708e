package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/skawahara/yotei/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat UI",
	Long: `Launch an interactive chat session in the terminal.

Type requests in Japanese and see results inline:

  > 明日の15時から16時まで会議を追加して
  予定を追加しました。
    • 5月2日(金) 15:00〜16:00  会議`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	m := tui.NewModel(newParser(), newEngine(), store.Name())

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running chat UI: %w", err)
	}

	return nil
}
