package tui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when the user interrupts a spinner.
var ErrCanceled = errors.New("canceled")

type spinnerModel struct {
	spinner  spinner.Model
	message  string
	styles   *Styles
	done     bool
	err      error
	quitting bool
}

type spinnerDoneMsg struct {
	err error
}

func newSpinnerModel(message string) spinnerModel {
	styles := NewStyles()
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner
	return spinnerModel{spinner: s, message: message, styles: styles}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case spinnerDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	switch {
	case m.quitting:
		return ""
	case m.done && m.err != nil:
		return m.styles.Error.Render("✗ "+m.message) + "\n"
	case m.done:
		// The caller prints the result; clear the line.
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.styles.Muted.Render(m.message))
}

// Wait shows a spinner on w while fn runs and returns fn's error. Pressing
// ctrl+c stops the spinner and returns ErrCanceled; fn keeps running until its
// own context ends.
func Wait(w io.Writer, message string, fn func() error) error {
	p := tea.NewProgram(newSpinnerModel(message), tea.WithOutput(w))

	go func() {
		p.Send(spinnerDoneMsg{err: fn()})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	m, _ := final.(spinnerModel)
	if m.quitting {
		return ErrCanceled
	}
	return m.err
}
