package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	detailStyle = lipgloss.NewStyle().PaddingLeft(2)
)

var errInterrupted = errors.New("interrupted")

type doneMsg struct {
	details []string
	err     error
}

type tickMsg time.Time

type model struct {
	title   string
	timeout time.Duration
	action  func(context.Context) ([]string, error)
	started time.Time
	now     time.Time
	details []string
	err     error
	done    bool
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.runAction(), tick())
}

func (m model) runAction() tea.Cmd {
	action := m.action
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		details, err := action(ctx)
		return doneMsg{details: details, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.err = errInterrupted
			m.done = true
			return m, tea.Quit
		}
	case tickMsg:
		m.now = time.Time(msg)
		if m.done {
			return m, nil
		}
		return m, tick()
	case doneMsg:
		m.details = msg.details
		m.err = msg.err
		m.done = true
		m.now = time.Now()
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString(" ")
	b.WriteString(mutedStyle.Render(m.now.Sub(m.started).Round(100 * time.Millisecond).String()))
	b.WriteString("\n")
	switch {
	case !m.done:
		b.WriteString(mutedStyle.Render("running... (q to abort)"))
		b.WriteString("\n")
		return b.String()
	case m.err != nil:
		b.WriteString(failStyle.Render("FAILED"))
		b.WriteString(" ")
		b.WriteString(m.err.Error())
	default:
		b.WriteString(okStyle.Render("OK"))
	}
	b.WriteString("\n")
	for _, d := range m.details {
		b.WriteString(detailStyle.Render("- " + d))
		b.WriteString("\n")
	}
	return b.String()
}

// Run shows a progress view while action runs and returns its result. The
// action context ends after timeout.
func Run(title string, timeout time.Duration, action func(context.Context) ([]string, error)) ([]string, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	now := time.Now()
	final, err := tea.NewProgram(model{title: title, timeout: timeout, action: action, started: now, now: now}).Run()
	if err != nil {
		return nil, err
	}
	res := final.(model)
	return res.details, res.err
}
