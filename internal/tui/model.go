package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// Model is the Bubble Tea model for the interactive question loop.
type Model struct {
	analyzer domain.Analyzer
	input    textinput.Model
	viewport viewport.Model
	stream   chan tea.Msg
	answer   string
	question string
	status   string
	greeting string
	ready    bool
	busy     bool
}

type chunkMsg string

type doneMsg struct {
	err error
}

// New creates a new TUI model instance.
func New(analyzer domain.Analyzer, greeting string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Задайте вопрос о логах и нажмите Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		analyzer: analyzer,
		input:    ti,
		viewport: vp,
		greeting: greeting,
		status:   "Индекс загружен. Задайте вопрос.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer-stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + greeting, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case chunkMsg:
		m.answer += string(msg)
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoBottom()
		return m, waitForStream(m.stream)

	case doneMsg:
		m.busy = false
		m.stream = nil
		if msg.err != nil {
			m.status = "Ошибка: " + msg.err.Error()
		} else {
			m.status = "Готово. Задайте следующий вопрос."
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.question = q
				m.answer = ""
				m.busy = true
				m.status = "Думаю..."
				m.input.SetValue("")
				m.stream = make(chan tea.Msg, 32)
				m.viewport.SetContent(m.renderAnswer())
				return m, tea.Batch(ask(m.analyzer, q, m.stream), waitForStream(m.stream))
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question on the analyzer, feeding streamed tokens into the
// channel the Update loop is draining.
func ask(analyzer domain.Analyzer, question string, ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			_, err := analyzer.Ask(context.Background(), question, func(token string) {
				ch <- chunkMsg(token)
			})
			ch <- doneMsg{err: err}
		}()
		return nil
	}
}

func waitForStream(ch chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg { return <-ch }
}

// View renders the TUI layout and the current (possibly partial) answer.
func (m Model) View() string {
	if !m.ready {
		return "Загрузка..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Qwen Log Analyzer")
	greeting := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.greeting)
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + greeting + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.question == "" {
		return "Ответов пока нет."
	}
	title := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true).Render(m.question)
	if m.answer == "" {
		return title + "\n\n..."
	}
	return title + "\n\n" + m.answer
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
