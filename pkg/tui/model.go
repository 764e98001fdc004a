package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/bankrag/bankrag/pkg/model"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// NotInitializedMessage is shown for every submission when the assistant failed to start
const NotInitializedMessage = "System not initialized. Please run 'bankrag ingest' and make sure the model backend is reachable."

// Handler is the UI-facing subset of the ask use case
type Handler interface {
	Handle(ctx context.Context, query string) *model.Outcome
}

// Exchange is one question and its answer in the transcript
type Exchange struct {
	Question string
	Answer   string
	Failed   bool
}

type answerMsg struct {
	outcome *model.Outcome
}

// Model is the Bubble Tea model of the UI shell.
type Model struct {
	ctx     context.Context
	handler Handler

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	transcript []Exchange
	demos      []string
	demoIdx    int
	busy       bool
	status     string
	ready      bool
}

// New creates the UI model. A nil handler starts the shell in not-initialized mode.
func New(ctx context.Context, handler Handler) Model {
	ti := textinput.New()
	ti.Prompt = "Ask: "
	ti.Placeholder = "Type a question about bank policies and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	status := "Ready. Tab: demo question, Ctrl+L: clear, Ctrl+C: quit"
	if handler == nil {
		status = NotInitializedMessage
	}

	return Model{
		ctx:      ctx,
		handler:  handler,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		demos:    model.DemoQuestions(),
		status:   status,
	}
}

// Transcript returns the exchanges shown so far
func (m Model) Transcript() []Exchange { return m.transcript }

// Busy reports whether a submission is in flight
func (m Model) Busy() bool { return m.busy }

// Input returns the current text of the input line
func (m Model) Input() string { return m.input.Value() }

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil

	case answerMsg:
		m.busy = false
		m.transcript = append(m.transcript, toExchange(msg.outcome))
		m.status = fmt.Sprintf("Response time: %.2fs", msg.outcome.Elapsed.Seconds())
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyCtrlL:
			m.transcript = nil
			m.status = "Transcript cleared"
			m.refresh()
			return m, nil

		case tea.KeyTab:
			if len(m.demos) > 0 {
				m.input.SetValue(m.demos[m.demoIdx])
				m.input.CursorEnd()
				m.demoIdx = (m.demoIdx + 1) % len(m.demos)
			}
			return m, nil

		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		return m, nil
	}
	if m.busy {
		m.status = "Still answering the previous question..."
		return m, nil
	}

	m.input.Reset()

	if m.handler == nil {
		m.transcript = append(m.transcript, Exchange{Question: q, Answer: NotInitializedMessage, Failed: true})
		m.refresh()
		return m, nil
	}

	m.busy = true
	m.status = "Thinking..."
	ctx, handler := m.ctx, m.handler
	ask := func() tea.Msg {
		return answerMsg{outcome: handler.Handle(ctx, q)}
	}
	return m, tea.Batch(m.spinner.Tick, ask)
}

func toExchange(o *model.Outcome) Exchange {
	ex := Exchange{Question: o.Query, Answer: o.Text(), Failed: o.Failed()}
	if o.Failure != nil && o.Failure.Reason == model.FailureNotInitialized {
		ex.Answer = NotInitializedMessage
	}
	return ex
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the header, transcript, input line and status.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Bank AI Assistant")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())

	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return hintStyle.Render("Ask about loan policies, CBN regulations or internal memos.")
	}

	var b strings.Builder
	for i, ex := range m.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(questionStyle.Render("You: "+ex.Question) + "\n")
		answerStyle := okStyle
		if ex.Failed {
			answerStyle = errorStyle
		}
		b.WriteString(answerStyle.Width(max(20, m.viewport.Width-4)).Render(ex.Answer) + "\n")
	}
	return b.String()
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	questionStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	okStyle            = lipgloss.NewStyle()
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Run starts the UI shell and blocks until the user quits
func Run(ctx context.Context, handler Handler) error {
	_, err := tea.NewProgram(New(ctx, handler), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
