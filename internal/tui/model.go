// Package tui is the interactive terminal chat client.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/dapurkita/chefchimi/internal/chat"
)

// Responder is the TUI-facing subset of the conversation pipeline.
type Responder interface {
	RespondStream(ctx context.Context, sessionID, question string, fn chat.StreamFunc) (string, error)
}

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// fragmentMsg carries one streamed answer fragment.
type fragmentMsg string

// doneMsg ends the current exchange.
type doneMsg struct {
	err error
}

// exchange is one completed question/answer pair.
type exchange struct {
	question string
	answer   string
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	responder Responder
	sessionID string

	input    textinput.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	history  []exchange
	question string
	partial  string
	frags    chan tea.Msg
	busy     bool
	ready    bool
	status   string
}

// New creates the chat model with a fresh session.
func New(responder Responder) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Tanyakan resep masakan Indonesia..."
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		responder: responder,
		sessionID: uuid.NewString(),
		input:     ti,
		viewport:  viewport.New(0, 0),
		status:    "Siap. Ketik pertanyaan dan tekan Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		vh := msg.Height - ih - ch - 4
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = vh
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(m.viewport.Width),
		); err == nil {
			m.renderer = r
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.String() == "esc" {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				break
			}
			m.question = q
			m.partial = ""
			m.busy = true
			m.status = "Chef Chimi sedang menjawab..."
			m.input.Reset()
			m.frags = make(chan tea.Msg, 16)
			m.refresh()
			return m, tea.Batch(m.ask(q), m.listen())
		}

	case fragmentMsg:
		m.partial += string(msg)
		m.refresh()
		return m, m.listen()

	case doneMsg:
		answer := m.partial
		if msg.err != nil {
			m.status = "Terjadi kesalahan: " + msg.err.Error()
			if answer == "" {
				answer = "(tidak ada jawaban)"
			}
		} else {
			m.status = "Siap. Ketik pertanyaan dan tekan Enter."
		}
		m.history = append(m.history, exchange{question: m.question, answer: answer})
		m.question = ""
		m.partial = ""
		m.busy = false
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the streaming request in the background, feeding the fragment
// channel the listen command drains.
func (m Model) ask(question string) tea.Cmd {
	responder, sessionID, frags := m.responder, m.sessionID, m.frags
	return func() tea.Msg {
		go func() {
			_, err := responder.RespondStream(context.Background(), sessionID, question,
				func(_ context.Context, text string) error {
					frags <- fragmentMsg(text)
					return nil
				})
			frags <- doneMsg{err: err}
			close(frags)
		}()
		return nil
	}
}

// listen waits for the next stream event.
func (m Model) listen() tea.Cmd {
	frags := m.frags
	return func() tea.Msg {
		msg, ok := <-frags
		if !ok {
			return nil
		}
		return msg
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Memuat..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Chef Chimi")
	transcript := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var sb strings.Builder
	for _, ex := range m.history {
		sb.WriteString(userStyle.Render("Anda: ") + ex.question + "\n")
		sb.WriteString(assistantStyle.Render("Chef Chimi:") + "\n" + m.renderMarkdown(ex.answer) + "\n")
	}
	if m.question != "" {
		sb.WriteString(userStyle.Render("Anda: ") + m.question + "\n")
		sb.WriteString(assistantStyle.Render("Chef Chimi:") + "\n" + m.partial + "\n")
	}
	if sb.Len() == 0 {
		return "Belum ada percakapan. Tanyakan resep apa saja!"
	}
	return sb.String()
}

// renderMarkdown pretty-prints completed answers; streamed partials stay
// raw until the exchange finishes.
func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Run starts the interactive chat loop.
func Run(responder Responder) error {
	_, err := tea.NewProgram(New(responder), tea.WithAltScreen()).Run()
	return err
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
