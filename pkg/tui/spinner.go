// Package tui shows progress for blocking calls in an interactive terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	titleStyle   = lipgloss.NewStyle().Faint(true)
)

type doneMsg struct {
	value any
	err   error
}

type model struct {
	spinner spinner.Model
	title   string
	work    tea.Cmd

	done  bool
	value any
	err   error
}

func newModel(title string, work func() (any, error)) model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))
	return model{
		spinner: s,
		title:   title,
		work: func() tea.Msg {
			v, err := work()
			return doneMsg{value: v, err: err}
		},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.value = msg.value
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done || m.err != nil {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), titleStyle.Render(m.title))
}

// Spin runs work while drawing a spinner with title on out. The spinner is
// cleared before Spin returns. Cancelling ctx aborts the display; work itself
// must observe ctx to stop. The program reads no input and installs no signal
// handler, so SIGINT reaches the caller's context.
func Spin[T any](ctx context.Context, out io.Writer, title string, work func() (T, error)) (T, error) {
	var zero T

	m := newModel(title, func() (any, error) { return work() })
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	final, err := p.Run()
	if err != nil {
		return zero, runError(ctx, err)
	}

	fm := final.(model)
	if fm.err != nil {
		return zero, fm.err
	}
	if !fm.done {
		return zero, context.Canceled
	}

	v, _ := fm.value.(T)
	return v, nil
}

// runError maps a program failure caused by cancellation to the context error.
func runError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, tea.ErrInterrupted):
		return context.Canceled
	}
	return fmt.Errorf("spinner: %w", err)
}
