package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/skawahara/yotei/internal/nlp"
	"github.com/skawahara/yotei/internal/schedule"
	"github.com/skawahara/yotei/internal/util"
)

// KeyMap defines the keybindings for the chat UI
type KeyMap struct {
	Send       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Clear      key.Binding
	Quit       key.Binding
}

var DefaultKeyMap = KeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("ctrl+u", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("ctrl+d", "scroll down"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

// entry is one transcript line pair: what the user typed and the reply.
type entry struct {
	request string
	reply   string
	isError bool
	pending bool
}

// Model is the Bubble Tea model for the chat UI
type Model struct {
	parser   *nlp.Parser
	engine   *schedule.Engine
	provider string

	transcript []entry
	input      textinput.Model
	view       viewport.Model

	width         int
	height        int
	contentHeight int
	keys          KeyMap
	viewportReady bool
	busy          bool
}

// NewModel creates a new chat model wired to the given parser and engine.
func NewModel(parser *nlp.Parser, engine *schedule.Engine, providerName string) Model {
	input := textinput.New()
	input.Placeholder = "明日の15時から16時まで会議を追加して"
	input.Prompt = PromptStyle.Render("> ")
	input.CharLimit = 200
	input.Focus()

	return Model{
		parser:   parser,
		engine:   engine,
		provider: providerName,
		input:    input,
		keys:     DefaultKeyMap,
	}
}

// Messages
type replyMsg struct {
	text    string
	isError bool
}

// dispatch parses the request and runs it against the calendar. The
// engine call happens inside the command so the UI never blocks on the
// network.
func (m Model) dispatch(text string) tea.Cmd {
	parser := m.parser
	engine := m.engine
	return func() tea.Msg {
		parsed, err := parser.Parse(text)
		if err != nil {
			return replyMsg{text: util.ParseErrorMessage(err), isError: true}
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		res := engine.Execute(ctx, parsed)
		return replyMsg{text: util.FormatResult(res), isError: !res.OK}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// calculateLayout calculates responsive layout dimensions
func (m *Model) calculateLayout() {
	minHeight := 10

	height := m.height
	if height < minHeight {
		height = minHeight
	}

	// Header: ~2 lines, input: ~1 line, help: ~2 lines, padding: ~3 lines
	m.contentHeight = height - 8
	if m.contentHeight < 3 {
		m.contentHeight = 3
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.calculateLayout()

		viewportWidth := m.width - 8
		if viewportWidth < 20 {
			viewportWidth = 20
		}

		if !m.viewportReady {
			m.view = viewport.New(viewportWidth, m.contentHeight)
			m.viewportReady = true
		} else {
			m.view.Width = viewportWidth
			m.view.Height = m.contentHeight
		}

		m.input.Width = viewportWidth - 4
		m.refreshTranscript()
		return m, nil

	case replyMsg:
		m.busy = false
		if n := len(m.transcript); n > 0 && m.transcript[n-1].pending {
			m.transcript[n-1].reply = msg.text
			m.transcript[n-1].isError = msg.isError
			m.transcript[n-1].pending = false
		}
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Send):
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy {
				return m, nil
			}
			m.transcript = append(m.transcript, entry{request: text, pending: true})
			m.input.Reset()
			m.busy = true
			m.refreshTranscript()
			return m, m.dispatch(text)

		case key.Matches(msg, m.keys.ScrollUp):
			m.view.ViewUp()
			return m, nil

		case key.Matches(msg, m.keys.ScrollDown):
			m.view.ViewDown()
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.transcript = nil
			m.refreshTranscript()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refreshTranscript re-renders the conversation into the viewport and
// keeps the latest exchange visible.
func (m *Model) refreshTranscript() {
	if !m.viewportReady {
		return
	}

	width := m.view.Width
	var b strings.Builder

	for i, e := range m.transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}

		b.WriteString(UserPrefixStyle.Render("> "))
		b.WriteString(UserTextStyle.Render(ansi.Wordwrap(e.request, width-2, "")))
		b.WriteString("\n")

		switch {
		case e.pending:
			b.WriteString(PendingStyle.Render("…"))
		case e.isError:
			b.WriteString(ErrorStyle.Render(ansi.Wordwrap(e.reply, width-2, "")))
		default:
			b.WriteString(ReplyStyle.Render(ansi.Wordwrap(e.reply, width-2, "")))
		}
	}

	m.view.SetContent(b.String())
	m.view.GotoBottom()
}

// View renders the UI
func (m Model) View() string {
	if !m.viewportReady {
		return "Loading..."
	}

	header := HeaderStyle.Render(fmt.Sprintf("yotei — %s", m.provider))

	transcript := TranscriptStyle.Width(m.view.Width + 2).Render(m.view.View())

	help := HelpStyle.Render(strings.Join([]string{
		HelpKeyStyle.Render("enter") + " send",
		HelpKeyStyle.Render("ctrl+u/d") + " scroll",
		HelpKeyStyle.Render("ctrl+l") + " clear",
		HelpKeyStyle.Render("esc") + " quit",
	}, "  "))

	return AppStyle.Render(strings.Join([]string{
		header,
		transcript,
		m.input.View(),
		help,
	}, "\n"))
}
