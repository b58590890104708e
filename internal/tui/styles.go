package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	accentColor  = lipgloss.Color("#10B981") // Green
	mutedColor   = lipgloss.Color("#6B7280") // Gray
	errorColor   = lipgloss.Color("#EF4444") // Red
	fgColor      = lipgloss.Color("#F9FAFB") // Light

	// Layout styles
	AppStyle    = lipgloss.NewStyle().Padding(1, 2)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)

	// Transcript panel
	TranscriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1)

	// Chat lines
	UserPrefixStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	UserTextStyle   = lipgloss.NewStyle().Foreground(fgColor)
	ReplyStyle      = lipgloss.NewStyle().Foreground(fgColor)
	ErrorStyle      = lipgloss.NewStyle().Foreground(errorColor)
	PendingStyle    = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	// Input line
	PromptStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)

	// Help bar
	HelpStyle    = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
)
