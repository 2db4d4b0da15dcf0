package terminal

import (
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// ErrNotInteractive is returned when a prompt is requested without a terminal.
var ErrNotInteractive = errors.New(messages.TerminalRequired)

// ErrPromptCancelled is returned when the user aborts a prompt.
var ErrPromptCancelled = errors.New(messages.TerminalPromptCancelled)

// Option is one selectable entry. Value is returned when chosen.
type Option struct {
	Label string
	Value string
}

// Prompter asks the user questions.
type Prompter interface {
	MultiSelect(title string, options []Option, selected *[]string) error
	Confirm(title string, value *bool) error
}

// HuhPrompter implements Prompter using charmbracelet/huh.
type HuhPrompter struct {
	isTerminal func() bool
}

var runFormFunc = func(form *huh.Form) error { return form.Run() }

// NewHuhPrompter creates a HuhPrompter using IsInteractive.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{isTerminal: IsInteractive}
}

func (p *HuhPrompter) ensureInteractive() error {
	checker := p.isTerminal
	if checker == nil {
		checker = IsInteractive
	}
	if checker() {
		return nil
	}
	return ErrNotInteractive
}

// promptKeyMap binds esc alongside ctrl+c to abort and disables filtering;
// installation lists are short.
func promptKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "cancel"))
	km.Select.Filter.SetEnabled(false)
	km.Select.SetFilter.SetEnabled(false)
	km.Select.ClearFilter.SetEnabled(false)
	return km
}

// interruptFilter turns SIGINT into a graceful quit so the renderer clears
// the form before returning.
func interruptFilter(_ tea.Model, msg tea.Msg) tea.Msg {
	if _, ok := msg.(tea.InterruptMsg); ok {
		return tea.QuitMsg{}
	}
	return msg
}

func (p *HuhPrompter) runForm(form *huh.Form) error {
	if err := p.ensureInteractive(); err != nil {
		return err
	}
	form.WithKeyMap(promptKeyMap())
	form.WithProgramOptions(
		tea.WithOutput(os.Stderr),
		tea.WithFilter(interruptFilter),
	)
	err := runFormFunc(form)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrPromptCancelled
	}
	return err
}

// MultiSelect renders a multi-choice prompt.
func (p *HuhPrompter) MultiSelect(title string, options []Option, selected *[]string) error {
	opts := make([]huh.Option[string], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Value)
	}
	return p.runForm(huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(title).
				Filterable(false).
				Options(opts...).
				Value(selected),
		),
	))
}

// Confirm renders a yes/no prompt.
func (p *HuhPrompter) Confirm(title string, value *bool) error {
	return p.runForm(huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(value),
		),
	))
}
