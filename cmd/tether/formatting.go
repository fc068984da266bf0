package tether

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// stdoutIsTerminal reports whether stdout is attached to a terminal;
// styled output is suppressed otherwise.
func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// formatBold returns the string formatted as bold using pterm
func formatBold(s string) string {
	if !stdoutIsTerminal() {
		return s
	}
	return pterm.Bold.Sprint(s)
}
