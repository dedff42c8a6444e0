package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/kernel"
	"github.com/spf13/cobra"
)

const sessionInputHeight = 3

var sessionInputBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("2")) // green

// chatReplyMsg carries the outcome of one kernel.Chat call.
type chatReplyMsg struct {
	reply chathistory.Message
	err   error
}

type sessionEntry struct {
	label    string
	text     string
	markdown bool
}

// sessionModel is a multi-turn chat over one kernel: a scrolling
// transcript above an input box. Only one turn is in flight at a time; the
// history is not touched by the model while a turn runs.
type sessionModel struct {
	ctx     context.Context
	k       *kernel.Kernel
	h       *chathistory.History
	input   textarea.Model
	view    viewport.Model
	spin    spinner.Model
	entries []sessionEntry
	busy    bool
	raw     bool
	turnAt  int
	width   int
}

func newSessionModel(ctx context.Context, k *kernel.Kernel, h *chathistory.History, raw bool) sessionModel {
	ta := textarea.New()
	ta.Placeholder = "Send a message... (alt+enter for a newline, ctrl+c to quit)"
	ta.ShowLineNumbers = false
	ta.SetHeight(sessionInputHeight)
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = labelStyle

	return sessionModel{
		ctx:   ctx,
		k:     k,
		h:     h,
		input: ta,
		view:  viewport.New(80, 20),
		spin:  sp,
		raw:   raw,
		width: 80,
	}
}

// chatCmd runs one chat turn off the update loop.
func chatCmd(ctx context.Context, k *kernel.Kernel, h *chathistory.History) tea.Cmd {
	return func() tea.Msg {
		reply, err := k.Chat(ctx, h)
		return chatReplyMsg{reply: reply, err: err}
	}
}

func (m sessionModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m, tea.Quit
		case msg.Type == tea.KeyEnter && !msg.Alt:
			return m.submit()
		case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

	case chatReplyMsg:
		return m.finishTurn(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m sessionModel) View() string {
	u := m.k.Usage()
	status := dimStyle.Render(m.k.Provider() + " · " + m.k.ModelID() +
		" · in " + fmtTokens(u.Tokens.InputTokens) + " · out " + fmtTokens(u.Tokens.OutputTokens))
	if m.busy {
		status = m.spin.View() + " " + dimStyle.Render("waiting for the model...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.view.View(),
		sessionInputBorder.Render(m.input.View()),
		status,
	)
}

func (m sessionModel) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	m.input.Reset()
	m.input.Blur()
	m.h.AddUser(text)
	m.turnAt = m.h.Len()
	m.entries = append(m.entries, sessionEntry{label: "you", text: text})
	m.busy = true
	m.refresh()

	return m, tea.Batch(m.spin.Tick, chatCmd(m.ctx, m.k, m.h))
}

func (m sessionModel) finishTurn(msg chatReplyMsg) (tea.Model, tea.Cmd) {
	m.busy = false

	if calls := functionResults(m.h, m.turnAt); len(calls) > 0 {
		m.entries = append(m.entries, sessionEntry{text: strings.Join(calls, "\n")})
	}
	switch {
	case msg.err != nil:
		m.entries = append(m.entries, sessionEntry{text: errorStyle.Render("error: " + msg.err.Error())})
	default:
		m.entries = append(m.entries, sessionEntry{
			label:    m.k.ModelID(),
			text:     msg.reply.TextContent(),
			markdown: !m.raw,
		})
	}
	m.refresh()

	return m, m.input.Focus()
}

func (m *sessionModel) resize(width, height int) {
	m.width = width
	m.input.SetWidth(width - 2)

	// Border adds two rows around the input; one row for the status line.
	vh := height - sessionInputHeight - 3
	if vh < 1 {
		vh = 1
	}
	m.view.Width = width
	m.view.Height = vh
	m.refresh()
}

// refresh re-renders the transcript at the current width and scrolls to the
// latest entry.
func (m *sessionModel) refresh() {
	blocks := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		text := e.text
		if e.markdown {
			text = renderMarkdown(text, m.width-4)
		}
		if e.label != "" {
			text = labelStyle.Render(e.label) + "\n" + text
		}
		blocks = append(blocks, text)
	}
	m.view.SetContent(strings.Join(blocks, "\n\n"))
	m.view.GotoBottom()
}

// runSession builds the chat kernel and hands the terminal to a
// sessionModel until the user quits.
func runSession(cmd *cobra.Command, c *cli, f *chatFlags, prompt string) error {
	k, closeAll, err := buildChatKernel(cmd, c, f)
	defer closeAll()
	if err != nil {
		return err
	}

	h := chathistory.New()
	if f.system != "" {
		h.AddSystem(f.system)
	}

	model := newSessionModel(cmd.Context(), k, h, f.raw)
	if prompt != "" {
		model.input.SetValue(prompt)
	}

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return err
	}

	printUsage(cmd.ErrOrStderr(), k)
	return nil
}
