// Package ui provides the small set of terminal presentation helpers the
// CLI uses: a color palette, message styles, and a spinner wrapper for
// slow operations.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	White  = lipgloss.Color("#E2E2E2")
	Gray   = lipgloss.Color("#888888")
	Green  = lipgloss.Color("#5FD787")
	Yellow = lipgloss.Color("#FFD787")
	Red    = lipgloss.Color("#FF8787")
	Blue   = lipgloss.Color("#5FAFFF")
)

var (
	// Title is the main header text style.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(White)

	// Label is used for field names in detail views.
	Label = lipgloss.NewStyle().
		Foreground(Gray).
		Bold(true)

	// MutedText is for hints and less important info.
	MutedText = lipgloss.NewStyle().
			Foreground(Gray)

	// ErrorText is for error messages.
	ErrorText = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// SuccessText is for success messages.
	SuccessText = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// WarningText is for warning messages.
	WarningText = lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true)
)

// IsInteractive reports whether stderr is attached to a terminal, which
// gates spinners and other decorations.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// Spin runs action behind a spinner when the terminal is interactive,
// and plainly otherwise. The action's own error is returned; a spinner
// failure is surfaced only if the action succeeded.
func Spin(out io.Writer, title string, action func() error) error {
	if !IsInteractive() {
		return action()
	}

	accessible := os.Getenv("ACCESSIBLE") != ""
	var actionErr error
	spinErr := spinner.New().
		Title(title).
		Accessible(accessible).
		Output(out).
		Action(func() {
			actionErr = action()
		}).
		Run()
	if actionErr != nil {
		return actionErr
	}
	return spinErr
}
