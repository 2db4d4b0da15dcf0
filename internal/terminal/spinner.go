package terminal

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var spinnerInteractive = IsInteractive

type workDoneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
}

func newSpinnerModel(title string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return spinnerModel{spinner: s, title: title}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.title)
}

// Spin runs fn while rendering a spinner with title on out. Without a
// terminal fn runs directly. An interrupted spinner cancels fn's context and
// waits for it to return.
func Spin(ctx context.Context, out io.Writer, title string, fn func(context.Context) error) error {
	if !spinnerInteractive() {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(title),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn(ctx)
		p.Send(workDoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		if workErr := <-errCh; workErr != nil {
			return workErr
		}
		return err
	}
	return <-errCh
}
