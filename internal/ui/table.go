package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const tableCellMaxWidth = 50
const tableCellEllipsis = "..."

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	openStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// TableBuilder collects rows and renders a formatted table.
type TableBuilder struct {
	headers []string
	rows    [][]string
}

// NewTableBuilder returns a builder with preallocated rows.
func NewTableBuilder(headers []string, capacity int) *TableBuilder {
	return &TableBuilder{headers: headers, rows: make([][]string, 0, capacity)}
}

// AddRow appends a row to the table.
func (builder *TableBuilder) AddRow(row []string) {
	builder.rows = append(builder.rows, row)
}

// String renders the table output.
func (builder *TableBuilder) String() string {
	return FormatTable(builder.headers, builder.rows)
}

// FormatTable renders headers and rows as an aligned table.
func FormatTable(headers []string, rows [][]string) string {
	normalizedHeaders := make([]string, len(headers))
	for i, header := range headers {
		normalizedHeaders[i] = normalizeTableCell(header)
	}

	normalizedRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		normalizedRow := make([]string, len(row))
		for i, cell := range row {
			normalizedRow[i] = normalizeTableCell(cell)
		}
		normalizedRows = append(normalizedRows, normalizedRow)
	}

	widths := make([]int, len(normalizedHeaders))
	for i, header := range normalizedHeaders {
		widths[i] = displayWidth(header)
	}
	for _, row := range normalizedRows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if displayLen := displayWidth(cell); displayLen > widths[i] {
				widths[i] = displayLen
			}
		}
	}

	var builder strings.Builder
	writeRow := func(row []string, style *lipgloss.Style) {
		for i, cell := range row {
			cellWidth := displayWidth(cell)
			if style != nil {
				cell = style.Render(cell)
			}
			builder.WriteString(cell)
			if i == len(row)-1 {
				builder.WriteByte('\n')
				continue
			}
			padding := 0
			if i < len(widths) {
				padding = widths[i] - cellWidth
			}
			builder.WriteString(strings.Repeat(" ", padding+2))
		}
	}

	if ansiEnabled() {
		writeRow(normalizedHeaders, &headerStyle)
	} else {
		writeRow(normalizedHeaders, nil)
	}
	for _, row := range normalizedRows {
		writeRow(row, nil)
	}

	return builder.String()
}

// TruncateTableCell limits cell width while preserving visible characters.
func TruncateTableCell(value string) string {
	value = normalizeTableCell(value)
	if displayWidth(value) <= tableCellMaxWidth {
		return value
	}

	limit := tableCellMaxWidth - displayWidth(tableCellEllipsis)
	runes := []rune(value)
	if limit > len(runes) {
		limit = len(runes)
	}
	return string(runes[:limit]) + tableCellEllipsis
}

// TaskStatus renders a completed flag as "done" or "open".
func TaskStatus(completed bool) string {
	label, style := "open", openStyle
	if completed {
		label, style = "done", doneStyle
	}
	if !ansiEnabled() {
		return label
	}
	return style.Render(label)
}

func displayWidth(value string) int {
	return lipgloss.Width(value)
}

func normalizeTableCell(value string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(value)
}
