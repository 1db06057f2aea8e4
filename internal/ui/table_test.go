package ui

import (
	"strings"
	"testing"
)

func TestTruncateTableCellCountsRunes(t *testing.T) {
	value := strings.Repeat("a", tableCellMaxWidth-1) + "é"

	got := TruncateTableCell(value)

	if got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}
}

func TestTruncateTableCellShortensLongNames(t *testing.T) {
	value := strings.Repeat("b", tableCellMaxWidth+10)

	got := TruncateTableCell(value)

	if displayWidth(got) != tableCellMaxWidth || !strings.HasSuffix(got, tableCellEllipsis) {
		t.Fatalf("expected %d wide cell ending in ellipsis, got %q", tableCellMaxWidth, got)
	}
}

func TestTruncateTableCellNormalizesLineBreaks(t *testing.T) {
	value := "Hello\nWorld\r\nAgain\tTab"

	got := TruncateTableCell(value)

	if got != "Hello World Again Tab" {
		t.Fatalf("expected line breaks to normalize, got %q", got)
	}
}

func TestFormatTableAlignsColumns(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	builder := NewTableBuilder([]string{"ID", "NAME"}, 2)
	builder.AddRow([]string{"abc", "Buy milk"})
	builder.AddRow([]string{"d", "Walk"})

	got := builder.String()

	expected := "ID   NAME\nabc  Buy milk\nd    Walk\n"
	if got != expected {
		t.Fatalf("expected aligned table %q, got %q", expected, got)
	}
}

func TestFormatTableNormalizesLineBreaks(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	headers := []string{"COL"}
	rows := [][]string{{"Hello\nWorld"}}

	got := FormatTable(headers, rows)

	expected := "COL\nHello World\n"
	if got != expected {
		t.Fatalf("expected normalized table output, got %q", got)
	}
}

func TestTaskStatusPlain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if got := TaskStatus(true); got != "done" {
		t.Fatalf("expected done, got %q", got)
	}
	if got := TaskStatus(false); got != "open" {
		t.Fatalf("expected open, got %q", got)
	}
}
