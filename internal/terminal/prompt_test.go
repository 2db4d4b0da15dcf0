package terminal

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHuhPrompter(t *testing.T) {
	p := NewHuhPrompter()
	assert.NotNil(t, p.isTerminal)
}

func TestHuhPrompter_NoTTY(t *testing.T) {
	p := &HuhPrompter{isTerminal: func() bool { return false }}

	var selected []string
	err := p.MultiSelect("Title", []Option{{Label: "A", Value: "a"}}, &selected)
	assert.ErrorIs(t, err, ErrNotInteractive)

	var ok bool
	assert.ErrorIs(t, p.Confirm("Title", &ok), ErrNotInteractive)
}

func TestHuhPrompter_RunFormOutcomes(t *testing.T) {
	p := &HuhPrompter{isTerminal: func() bool { return true }}
	orig := runFormFunc
	t.Cleanup(func() { runFormFunc = orig })

	calls := 0
	runFormFunc = func(form *huh.Form) error {
		require.NotNil(t, form)
		calls++
		return nil
	}
	var ok bool
	require.NoError(t, p.Confirm("Kill Discord?", &ok))
	assert.Equal(t, 1, calls)

	runFormFunc = func(*huh.Form) error { return huh.ErrUserAborted }
	var selected []string
	err := p.MultiSelect("Pick", []Option{{Label: "Stable", Value: "/opt/Discord"}}, &selected)
	assert.ErrorIs(t, err, ErrPromptCancelled)

	boom := errors.New("boom")
	runFormFunc = func(*huh.Form) error { return boom }
	assert.ErrorIs(t, p.Confirm("Title", &ok), boom)
}

func TestInterruptFilter(t *testing.T) {
	assert.IsType(t, tea.QuitMsg{}, interruptFilter(nil, tea.InterruptMsg{}))
	assert.Equal(t, tea.Msg("x"), interruptFilter(nil, "x"))
}
