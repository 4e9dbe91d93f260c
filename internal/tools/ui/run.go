package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	okBadge   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// DefaultActionTimeout bounds a tool action started through Run.
const DefaultActionTimeout = 2 * time.Minute

type actionMsg struct {
	details []string
	err     error
	elapsed time.Duration
}

// actionModel shows a one-shot tool action (seed, migrate, obscheck) and
// quits when it finishes.
type actionModel struct {
	title   string
	timeout time.Duration
	details []string
	err     error
	elapsed time.Duration
	done    bool
	action  func(context.Context) ([]string, error)
}

func (m actionModel) Init() tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		details, err := m.action(ctx)
		return actionMsg{details: details, err: err, elapsed: time.Since(start)}
	}
}

func (m actionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case actionMsg:
		m.details = msg.details
		m.err = msg.err
		m.elapsed = msg.elapsed
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m actionModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n")
	if !m.done {
		b.WriteString(mutedStyle.Render("Running...") + "\n")
		return b.String()
	}
	if m.err != nil {
		fmt.Fprintf(&b, "%s: %v\n", failBadge.Render("FAILED"), m.err)
	} else {
		fmt.Fprintf(&b, "%s %s\n", okBadge.Render("OK"), mutedStyle.Render("in "+m.elapsed.Round(time.Millisecond).String()))
	}
	for _, d := range m.details {
		b.WriteString("- " + d + "\n")
	}
	return b.String()
}

// Run executes action under a progress view and returns its result.
func Run(title string, action func(context.Context) ([]string, error)) ([]string, error) {
	return RunWithTimeout(title, DefaultActionTimeout, action)
}

func RunWithTimeout(title string, timeout time.Duration, action func(context.Context) ([]string, error)) ([]string, error) {
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	final, err := tea.NewProgram(actionModel{title: title, timeout: timeout, action: action}).Run()
	if err != nil {
		return nil, err
	}
	res := final.(actionModel)
	if !res.done {
		return res.details, context.Canceled
	}
	return res.details, res.err
}
