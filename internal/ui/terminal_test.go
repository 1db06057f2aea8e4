package ui

import (
	"strings"
	"testing"
)

func TestTerminalWidthFromColumns(t *testing.T) {
	t.Setenv("COLUMNS", "123")

	if got := TerminalWidth(); got != 123 {
		t.Fatalf("expected 123, got %d", got)
	}
}

func TestWrap(t *testing.T) {
	got := Wrap("one two three four", 9)

	for _, line := range strings.Split(got, "\n") {
		if len(line) > 9 {
			t.Fatalf("line %q exceeds width", line)
		}
	}
	if Wrap("unchanged", 0) != "unchanged" {
		t.Fatal("expected zero width to leave value unchanged")
	}
}
