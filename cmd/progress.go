package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type sessionDoneMsg struct {
	err error
}

type sessionStatusMsg string

// progressModel spins while a session submit runs and shows the latest
// status the session published.
type progressModel struct {
	spinner spinner.Model
	label   string
	status  string
	submit  tea.Cmd
	err     error
	done    bool
}

func newProgressModel(label string, submit tea.Cmd) progressModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return progressModel{
		spinner: s,
		label:   label,
		submit:  submit,
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.submit)
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case sessionStatusMsg:
		m.status = string(msg)
		return m, nil
	case sessionDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	if m.status == "" {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}

	return fmt.Sprintf("%s %s (%s)", m.spinner.View(), m.label, m.status)
}

// runWithProgress runs submit under a spinner. subscribe registers a status
// listener on the session and returns its removal func.
func runWithProgress(ctx context.Context, output io.Writer, label string, subscribe func(func(string)) func(), submit func(context.Context) error) error {
	submitCmd := func() tea.Msg {
		return sessionDoneMsg{err: submit(ctx)}
	}

	p := tea.NewProgram(
		newProgressModel(label, submitCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	unsubscribe := subscribe(func(status string) {
		p.Send(sessionStatusMsg(status))
	})
	defer unsubscribe()

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(progressModel)
	if !ok {
		return fmt.Errorf("unexpected final progress model type %T", finalModel)
	}

	return result.err
}
