package ui

import (
	"os"
	"strconv"

	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

func ansiEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the width of stdout, honoring $COLUMNS, or
// DefaultWidth when stdout is not a terminal.
func TerminalWidth() int {
	if columns, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && columns > 0 {
		return columns
	}
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return DefaultWidth
}

// Wrap word-wraps value to width columns.
func Wrap(value string, width int) string {
	if width <= 0 {
		return value
	}
	return wordwrap.String(value, width)
}
