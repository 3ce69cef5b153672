// Package tui implements the interactive chat with the ESG analyst.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"esgrag/internal/domain"
)

// ChatService is the TUI-facing subset of the assistant.
type ChatService interface {
	Ask(ctx context.Context, question string, mode domain.ResponseMode) (string, error)
	History() ([]domain.Message, error)
}

type answerMsg struct {
	answer string
	err    error
}

// Model is the Bubble Tea model of the chat.
type Model struct {
	ctx      context.Context
	service  ChatService
	input    textinput.Model
	viewport viewport.Model
	messages []domain.Message
	mode     domain.ResponseMode
	document string
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model. document names the loaded report and may be empty.
func New(ctx context.Context, service ChatService, document string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about ESG risks, sustainability metrics, or regulations..."
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: viewport.New(0, 0),
		mode:     domain.ModeConcise,
		document: document,
		status:   "Enter to send · Ctrl+T response mode · Ctrl+C quit",
	}
	if history, err := service.History(); err == nil {
		m.messages = history
	} else {
		m.status = "Error: " + err.Error()
	}
	return m
}

// Init starts the input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 + bh // header lines, status, input box, spacer, transcript frame
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.input.Width = max(10, msg.Width-8)
		m.refresh()
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.messages = append(m.messages, domain.Message{Role: domain.RoleAssistant, Content: msg.answer})
			m.status = "Ready."
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlT:
			if m.mode == domain.ModeConcise {
				m.mode = domain.ModeDetailed
			} else {
				m.mode = domain.ModeConcise
			}
			m.status = fmt.Sprintf("Response mode: %s", m.mode)
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.messages = append(m.messages, domain.Message{Role: domain.RoleUser, Content: q})
			m.waiting = true
			m.status = "Analyzing..."
			m.refresh()
			return m, m.ask(q, m.mode)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string, mode domain.ResponseMode) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.service.Ask(m.ctx, question, mode)
		return answerMsg{answer: answer, err: err}
	}
}

// View renders the header, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("🌱 ESG Risk Intelligence Assistant")
	doc := "No report loaded. Run 'esgrag ingest <report>' first."
	if m.document != "" {
		doc = "📄 " + m.document
	}
	sub := subtleStyle.Render(fmt.Sprintf("%s · mode: %s", doc, m.mode))
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + sub + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.messages, m.viewport.Width))
	m.viewport.GotoBottom()
}

func renderTranscript(messages []domain.Message, width int) string {
	if len(messages) == 0 {
		return subtleStyle.Render("No messages yet. Try \"calculate score\" or \"What are the main governance risks?\"")
	}
	wrap := lipgloss.NewStyle().Width(max(10, width-2))

	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if msg.Role == domain.RoleUser {
			sb.WriteString(userStyle.Render("You"))
		} else {
			sb.WriteString(assistantStyle.Render("Analyst"))
		}
		sb.WriteString("\n")
		sb.WriteString(wrap.Render(msg.Content))
	}
	return sb.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
